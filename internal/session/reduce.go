// Package session implements the pure edge-session state machine: phase
// transitions, edge recording with recovery sampling, the auction
// sub-machine, scoring, and affirmation selection.
//
// Every transition is a pure function (State, ...) -> State. No timers, no
// I/O, no wall-clock reads; time and randomness are supplied by the caller.
// Illegal transitions return the state unchanged rather than erroring - the
// orchestration engine treats any timer callback as potentially stale, and
// a silent no-op here is what makes that safe.
package session

import (
	"strconv"
	"strings"
	"time"
)

// Timing constants. Durations the engine schedules real timers against.
const (
	// PrepSeconds is the preparation countdown length.
	PrepSeconds = 30
	// CooldownSeconds is the fixed cooldown window after the target is
	// reached or the session is ended early.
	CooldownSeconds = 30
	// AuctionSeconds is the auction countdown. On expiry the engine
	// auto-selects the highest-commitment option.
	AuctionSeconds = 15

	// RecoveryMin and RecoveryMax bound the uniformly sampled mandatory
	// recovery window after each edge.
	RecoveryMin = 20 * time.Second
	RecoveryMax = 45 * time.Second
)

// NewState initializes a session in the prep phase.
func NewState(id string, cfg Config, rng Rand) State {
	return State{
		ID:            id,
		Config:        cfg,
		Phase:         PhasePrep,
		PrepRemaining: PrepSeconds,
		Affirmation:   Affirmation(rng, PoolBuilding),
		Status:        StatusInProgress,
	}
}

// TickPrep decrements the prep countdown. It never transitions the phase
// itself; the engine decides what to do when the countdown reaches zero.
func TickPrep(s State) State {
	if s.Phase != PhasePrep || s.PrepRemaining <= 0 {
		return s
	}
	s.PrepRemaining--
	return s
}

// StartActive moves prep -> active and stamps the session start.
func StartActive(s State, now time.Time, rng Rand) State {
	if s.Phase != PhasePrep {
		return s
	}
	s.Phase = PhaseActive
	s.StartedAt = now
	s.PrepRemaining = 0
	s.Affirmation = Affirmation(rng, PoolBuilding)
	return s
}

// RecordEdge appends an edge at the given elapsed offset and opens a fresh
// recovery window. Rejected (state unchanged) outside the active phase or
// while recovering.
//
// Reaching the edge target takes precedence over starting a new recovery:
// the final edge transitions straight to cooldown with recovery cleared.
func RecordEdge(s State, now time.Time, elapsed time.Duration, rng Rand) State {
	if s.Phase != PhaseActive || s.Recovering {
		return s
	}

	number := s.EdgeCount + 1
	sinceLast := elapsed
	if number > 1 {
		sinceLast = elapsed - s.Edges[len(s.Edges)-1].Elapsed
	}

	rec := EdgeRecord{
		Number:    number,
		At:        now,
		Elapsed:   elapsed,
		SinceLast: sinceLast,
		Recovery:  sampleRecovery(rng),
	}
	s.Edges = append(s.Edges[:len(s.Edges):len(s.Edges)], rec)
	s.EdgeCount = number
	s.Recovering = true
	s.RecoveryEnd = now.Add(rec.Recovery)
	s.Affirmation = Affirmation(rng, PoolEdge)

	if number >= s.Config.TargetEdges {
		s.Phase = PhaseCooldown
		s.Recovering = false
		s.RecoveryEnd = time.Time{}
		s.Auction = nil
		s.Affirmation = ClosingAffirmation
	}
	return s
}

// Breathe opens a recovery window without recording an edge. Allowed only
// in the active phase while not already recovering.
func Breathe(s State, now time.Time, rng Rand) State {
	if s.Phase != PhaseActive || s.Recovering {
		return s
	}
	s.Recovering = true
	s.RecoveryEnd = now.Add(sampleRecovery(rng))
	return s
}

// EndRecovery closes the recovery window. No-op when not recovering, which
// is how stale expiry timers are absorbed.
func EndRecovery(s State, rng Rand) State {
	if s.Phase == PhaseEnded || !s.Recovering {
		return s
	}
	s.Recovering = false
	s.RecoveryEnd = time.Time{}
	s.Affirmation = Affirmation(rng, PoolBuilding)
	return s
}

// EndCooldown moves cooldown -> post.
func EndCooldown(s State) State {
	if s.Phase != PhaseCooldown {
		return s
	}
	s.Phase = PhasePost
	return s
}

// RequestStop raises the stop-confirmation prompt. Only meaningful while
// the session is still running.
func RequestStop(s State) State {
	if s.Phase != PhaseActive && s.Phase != PhaseCooldown {
		return s
	}
	s.StopConfirming = true
	return s
}

// CancelStop dismisses the stop-confirmation prompt.
func CancelStop(s State) State {
	if s.Phase == PhaseEnded {
		return s
	}
	s.StopConfirming = false
	return s
}

// ConfirmStop honors a raised stop request: the session jumps to post with
// any in-progress recovery and auction cleared.
func ConfirmStop(s State) State {
	if s.Phase == PhaseEnded || !s.StopConfirming {
		return s
	}
	s.StopConfirming = false
	s.Phase = PhasePost
	s.Recovering = false
	s.RecoveryEnd = time.Time{}
	s.Auction = nil
	return s
}

// EmergencyStop unconditionally moves any pre-terminal state to completion
// with zero points. This bypasses the normal completion-type selection and
// is a first-class graceful path, not an error.
func EmergencyStop(s State) State {
	if s.Phase == PhaseEnded {
		return s
	}
	s.Phase = PhaseCompletion
	s.Completion = CompletionEmergencyStop
	s.Points = 0
	s.Status = StatusAbandoned
	s.Recovering = false
	s.RecoveryEnd = time.Time{}
	s.StopConfirming = false
	s.Auction = nil
	return s
}

// SetMood records the post-session self-report.
func SetMood(s State, m Mood) State {
	if s.Phase == PhaseEnded {
		return s
	}
	s.Mood = m
	return s
}

// SetNotes records free-text post-session notes.
func SetNotes(s State, notes string) State {
	if s.Phase == PhaseEnded {
		return s
	}
	s.Notes = notes
	return s
}

// AdvanceToCompletion moves post -> completion.
func AdvanceToCompletion(s State) State {
	if s.Phase != PhasePost {
		return s
	}
	s.Phase = PhaseCompletion
	return s
}

// SetCompletion stores the completion type and awards points exactly once.
// A completion type already set (emergency stop) is never overwritten and
// the points are never recomputed.
func SetCompletion(s State, ct CompletionType, elapsed time.Duration) State {
	if s.Phase == PhaseEnded || s.Completion != CompletionUnset {
		return s
	}
	if ct == CompletionUnset {
		return s
	}
	s.Completion = ct
	s.Points = Points(s.EdgeCount, elapsed, ct)
	s.Status = StatusCompleted
	return s
}

// Finalize moves completion -> ended. Terminal: after this every
// transition function returns the state unchanged.
func Finalize(s State) State {
	if s.Phase != PhaseCompletion {
		return s
	}
	s.Phase = PhaseEnded
	return s
}

func sampleRecovery(rng Rand) time.Duration {
	spanMS := int((RecoveryMax-RecoveryMin)/time.Millisecond) + 1
	return RecoveryMin + time.Duration(rng.IntN(spanMS))*time.Millisecond
}

// parseDelta parses a "+N" commitment value. Returns (0, false) for any
// other shape, including the "0" end-now sentinel.
func parseDelta(v string) (int, bool) {
	if !strings.HasPrefix(v, "+") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, "+"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
