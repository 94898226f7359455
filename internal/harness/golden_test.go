package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func runScenarioFile(t *testing.T, path string) *Result {
	t.Helper()
	sc, err := Load(path)
	require.NoError(t, err)
	res, err := Run(sc)
	require.NoError(t, err)
	return res
}

func TestGoldenEmergencyStop(t *testing.T) {
	res := runScenarioFile(t, "testdata/scenarios/emergency_stop.yaml")
	AssertGolden(t, "emergency-stop", res)
}

func TestGoldenStopFlow(t *testing.T) {
	res := runScenarioFile(t, "testdata/scenarios/stop_flow.yaml")
	AssertGolden(t, "stop-flow", res)
}

func TestGoldenAuctionSchedule(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "auction-schedule", []byte(RenderAuctionSchedule()))
}

func TestGoldenScoringMatrix(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "scoring-matrix", []byte(RenderScoringMatrix(15*time.Minute)))
}
