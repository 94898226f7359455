package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// AssertGolden compares a scenario result against its golden file under
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, res *Result) {
	t.Helper()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		t.Fatalf("marshal result: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}

// RenderAuctionSchedule renders the static auction table, one block per
// trigger edge, options in presentation order.
func RenderAuctionSchedule() string {
	var b strings.Builder
	b.WriteString("AUCTION SCHEDULE\n")
	fmt.Fprintf(&b, "countdown %ds, first option auto-selected on expiry\n", session.AuctionSeconds)
	for _, edge := range session.TriggerEdges {
		opts, ok := session.OptionsFor(edge)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\nedge %d\n", edge)
		for _, opt := range opts {
			label := opt.Label
			if opt.Reward != "" {
				label += " (reward: " + opt.Reward + ")"
			}
			fmt.Fprintf(&b, "  %-12s %-17s %-8s %s\n", opt.ID, opt.Commitment, opt.Value, label)
		}
	}
	return b.String()
}

// RenderScoringMatrix renders the score table for a fixed duration across
// the trigger-edge counts and every completion type.
func RenderScoringMatrix(duration time.Duration) string {
	types := []session.CompletionType{
		session.CompletionDenialMaintained,
		session.CompletionHandsFree,
		session.CompletionRuined,
		session.CompletionFullRelease,
		session.CompletionEmergencyStop,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SCORING MATRIX (duration %s)\n", duration)
	b.WriteString("edges")
	for _, ct := range types {
		fmt.Fprintf(&b, "  %s", ct)
	}
	b.WriteString("\n")
	for _, edges := range []int{1, 5, 8, 10, 13, 16, 20} {
		fmt.Fprintf(&b, "%5d", edges)
		for _, ct := range types {
			fmt.Fprintf(&b, "  %*d", len(ct.String()), session.Points(edges, duration, ct))
		}
		b.WriteString("\n")
	}
	return b.String()
}
