package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/scenarios/stop_flow.yaml")
	require.NoError(t, err)

	assert.Equal(t, "stop-flow", sc.Name)
	assert.Equal(t, "standard", sc.Config.Kind)
	assert.Equal(t, 10, sc.Config.TargetEdges)
	require.Len(t, sc.Steps, 9)
	assert.Equal(t, "skip_prep", sc.Steps[0].Action)
	assert.Equal(t, "21s", sc.Steps[2].Advance)
	assert.Equal(t, "settled", sc.Steps[6].Mood)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeScenario(t, "bad.yaml", "name: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario")
}

func TestValidate(t *testing.T) {
	valid := func() Scenario {
		return Scenario{
			Name:   "v",
			Config: ScenarioConfig{Kind: "standard", TargetEdges: 5},
			Steps:  []Step{{Action: "skip_prep"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"unknown kind", func(s *Scenario) { s.Config.Kind = "marathon" }, "unknown kind"},
		{"zero target", func(s *Scenario) { s.Config.TargetEdges = 0 }, "target_edges"},
		{"bad advance", func(s *Scenario) { s.Steps[0].Advance = "fast" }, "bad advance"},
		{"unknown action", func(s *Scenario) { s.Steps[0].Action = "teleport" }, "unknown action"},
		{"resolve without option", func(s *Scenario) { s.Steps[0] = Step{Action: "resolve_auction"} }, "requires option"},
		{"empty step", func(s *Scenario) { s.Steps[0] = Step{} }, "empty step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := valid()
			tt.mutate(&sc)
			err := sc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	sc := valid()
	assert.NoError(t, sc.Validate())
}

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
