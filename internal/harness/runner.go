package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/engine"
	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
	"github.com/SissyMaxy/becoming-protocol-sub003/internal/testutil"
)

// TraceEvent is one observed state change during scenario execution. A
// step that crosses several states (e.g. a long clock advance passing
// through cooldown into post) traces its endpoints.
type TraceEvent struct {
	// At is the virtual-clock offset from scenario start.
	At string `json:"at"`
	// Kind is one of: phase, edge, auction_open, auction_result.
	Kind string `json:"kind"`
	// Detail is a short human-readable description.
	Detail string `json:"detail"`
}

// FinalState summarizes where the scenario ended.
type FinalState struct {
	Phase       string   `json:"phase"`
	EdgeCount   int      `json:"edge_count"`
	TargetEdges int      `json:"target_edges"`
	Completion  string   `json:"completion,omitempty"`
	Points      int      `json:"points"`
	Status      string   `json:"status"`
	Commitments []string `json:"commitments,omitempty"`
	Haptics     []string `json:"haptics,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Scenario string       `json:"scenario"`
	Events   []TraceEvent `json:"events"`
	Final    FinalState   `json:"final"`

	// State is the full final state, for assertions beyond the summary.
	State session.State `json:"-"`
}

// RunOption configures scenario execution.
type RunOption func(*runConfig)

type runConfig struct {
	store  engine.SessionStore
	tasks  engine.TaskCompleter
	logger *slog.Logger
}

// WithStore runs the scenario against a caller-supplied store instead of
// the in-memory default, e.g. to persist a scripted session via SQLite.
func WithStore(s engine.SessionStore) RunOption {
	return func(c *runConfig) { c.store = s }
}

// WithTaskCompleter supplies the origin-task collaborator.
func WithTaskCompleter(t engine.TaskCompleter) RunOption {
	return func(c *runConfig) { c.tasks = t }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario on a mock clock and returns its trace.
func Run(sc *Scenario, opts ...RunOption) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	cfg := runConfig{
		store:  testutil.NewMemStore(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clk := clock.NewMock()
	haptics := &testutil.RecordingHaptics{}
	engOpts := []engine.Option{
		engine.WithClock(clk),
		engine.WithRand(testutil.NewScriptedRand(sc.Rand...)),
		engine.WithHaptics(haptics),
		engine.WithLogger(cfg.logger),
	}
	if cfg.tasks != nil {
		engOpts = append(engOpts, engine.WithTaskCompleter(cfg.tasks))
	}
	eng := engine.New(cfg.store, engOpts...)
	defer eng.Close()

	if err := eng.StartSession(context.Background(), sc.Config.toConfig()); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	res := &Result{Scenario: sc.Name}
	base := clk.Now()
	prev := eng.Snapshot()

	record := func() {
		cur := eng.Snapshot()
		at := clk.Now().Sub(base).String()
		if cur.Phase != prev.Phase {
			res.Events = append(res.Events, TraceEvent{
				At:     at,
				Kind:   "phase",
				Detail: fmt.Sprintf("%s -> %s", prev.Phase, cur.Phase),
			})
		}
		for i := prev.EdgeCount; i < cur.EdgeCount; i++ {
			e := cur.Edges[i]
			res.Events = append(res.Events, TraceEvent{
				At:     at,
				Kind:   "edge",
				Detail: fmt.Sprintf("edge %d recovery %s", e.Number, e.Recovery),
			})
		}
		if cur.Auction != nil && (prev.Auction == nil || prev.Auction.TriggerEdge != cur.Auction.TriggerEdge) {
			res.Events = append(res.Events, TraceEvent{
				At:     at,
				Kind:   "auction_open",
				Detail: fmt.Sprintf("trigger edge %d", cur.Auction.TriggerEdge),
			})
		}
		for i := len(prev.AuctionResults); i < len(cur.AuctionResults); i++ {
			r := cur.AuctionResults[i]
			detail := fmt.Sprintf("edge %d option %s", r.TriggerEdge, r.OptionID)
			if r.Auto {
				detail += " (auto)"
			}
			res.Events = append(res.Events, TraceEvent{
				At:     at,
				Kind:   "auction_result",
				Detail: detail,
			})
		}
		prev = cur
	}

	for i, st := range sc.Steps {
		if st.Advance != "" {
			d, _ := time.ParseDuration(st.Advance)
			clk.Add(d)
		}
		if st.Action != "" {
			if err := apply(eng, st); err != nil {
				return nil, fmt.Errorf("scenario %s: step %d: %w", sc.Name, i, err)
			}
		}
		record()
	}

	eng.Flush()
	final := eng.Snapshot()
	res.State = final
	res.Final = FinalState{
		Phase:       final.Phase.String(),
		EdgeCount:   final.EdgeCount,
		TargetEdges: final.Config.TargetEdges,
		Completion:  final.Completion.String(),
		Points:      final.Points,
		Status:      string(final.Status),
		Haptics:     haptics.Patterns(),
	}
	for _, c := range final.Commitments {
		res.Final.Commitments = append(res.Final.Commitments, c.ID)
	}
	return res, nil
}

func apply(eng *engine.Engine, st Step) error {
	switch st.Action {
	case "skip_prep":
		eng.EndPrep()
	case "edge":
		eng.RecordEdge()
	case "breathe":
		eng.Breathe()
	case "request_stop":
		eng.RequestStop()
	case "cancel_stop":
		eng.CancelStop()
	case "confirm_stop":
		eng.ConfirmStop()
	case "emergency_stop":
		eng.EmergencyStop()
	case "resolve_auction":
		snap := eng.Snapshot()
		if snap.Auction == nil {
			return fmt.Errorf("resolve_auction: no auction active")
		}
		for _, opt := range snap.Auction.Options {
			if opt.ID == st.Option {
				eng.ResolveAuction(opt)
				return nil
			}
		}
		return fmt.Errorf("resolve_auction: option %q not offered", st.Option)
	case "set_mood":
		eng.SetMood(session.Mood(st.Mood))
	case "set_notes":
		eng.SetNotes(st.Notes)
	case "advance_completion":
		eng.AdvanceToCompletion()
	case "set_completion":
		ct := session.ParseCompletionType(st.Completion)
		if ct == session.CompletionUnset {
			return fmt.Errorf("set_completion: unknown type %q", st.Completion)
		}
		eng.SetCompletionType(ct)
	case "complete":
		if err := eng.CompleteSession(context.Background()); err != nil {
			return fmt.Errorf("complete: %w", err)
		}
		eng.Flush()
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}
