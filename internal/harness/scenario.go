// Package harness runs scripted edge sessions on a mocked clock. Scenarios
// are YAML files describing a session config, a scripted random source, and
// a sequence of clock advances and engine actions; running one produces a
// deterministic trace suitable for assertions and golden comparison.
package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// Scenario is a scripted session.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Config is the session configuration to start with.
	Config ScenarioConfig `yaml:"config"`

	// Rand is the scripted random source: values are consumed in order,
	// cycling, each reduced modulo the requested bound. An empty script
	// pins every draw to 0 (minimum recovery, first affirmation).
	Rand []int `yaml:"rand,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`
}

// ScenarioConfig mirrors session.Config in YAML-friendly form.
type ScenarioConfig struct {
	Kind        string `yaml:"kind"`
	TargetEdges int    `yaml:"target_edges"`
	OriginTask  string `yaml:"origin_task,omitempty"`
	Prescribed  bool   `yaml:"prescribed,omitempty"`
}

// Step is one scripted move: advance the virtual clock, perform an engine
// action, or both (advance applies first).
type Step struct {
	// Advance is a Go duration string ("21s", "500ms").
	Advance string `yaml:"advance,omitempty"`

	// Action is one of: skip_prep, edge, breathe, request_stop,
	// cancel_stop, confirm_stop, emergency_stop, resolve_auction,
	// set_mood, set_notes, advance_completion, set_completion, complete.
	Action string `yaml:"action,omitempty"`

	// Option is the option ID for resolve_auction.
	Option string `yaml:"option,omitempty"`

	// Mood is the value for set_mood.
	Mood string `yaml:"mood,omitempty"`

	// Notes is the value for set_notes.
	Notes string `yaml:"notes,omitempty"`

	// Completion is the value for set_completion.
	Completion string `yaml:"completion,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario for structural problems before execution.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	if !session.ValidKind(session.Kind(sc.Config.Kind)) {
		return fmt.Errorf("scenario %s: unknown kind %q", sc.Name, sc.Config.Kind)
	}
	if sc.Config.TargetEdges <= 0 {
		return fmt.Errorf("scenario %s: target_edges must be positive", sc.Name)
	}
	for i, st := range sc.Steps {
		if st.Advance != "" {
			if _, err := time.ParseDuration(st.Advance); err != nil {
				return fmt.Errorf("scenario %s: step %d: bad advance %q: %w", sc.Name, i, st.Advance, err)
			}
		}
		if st.Action != "" && !knownAction(st.Action) {
			return fmt.Errorf("scenario %s: step %d: unknown action %q", sc.Name, i, st.Action)
		}
		if st.Action == "resolve_auction" && st.Option == "" {
			return fmt.Errorf("scenario %s: step %d: resolve_auction requires option", sc.Name, i)
		}
		if st.Action == "" && st.Advance == "" {
			return fmt.Errorf("scenario %s: step %d: empty step", sc.Name, i)
		}
	}
	return nil
}

func knownAction(a string) bool {
	switch a {
	case "skip_prep", "edge", "breathe", "request_stop", "cancel_stop",
		"confirm_stop", "emergency_stop", "resolve_auction", "set_mood",
		"set_notes", "advance_completion", "set_completion", "complete":
		return true
	}
	return false
}

func (c ScenarioConfig) toConfig() session.Config {
	return session.Config{
		Kind:         session.Kind(c.Kind),
		TargetEdges:  c.TargetEdges,
		OriginTaskID: c.OriginTask,
		Prescribed:   c.Prescribed,
	}
}
