package engine

import (
	"context"
	"time"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// EndReason classifies why a session ended, for the durable record.
type EndReason string

const (
	EndReasonGoalReached EndReason = "goal_reached"
	EndReasonUserEnded   EndReason = "user_ended"
	EndReasonAbandoned   EndReason = "abandoned"
)

// Summary is the finalization payload handed to the session store.
type Summary struct {
	Reason      EndReason
	Edges       []session.EdgeRecord
	Duration    time.Duration
	Mood        session.Mood
	Notes       string
	Completion  session.CompletionType
	Points      int
	Status      session.Status
	Commitments []session.AuctionOption
}

// SessionStore is the durable persistence collaborator.
//
// CreateSession must succeed before a session starts; it is the only store
// call whose failure is surfaced. RecordCommitment and FinalizeSession are
// best-effort: the engine attempts them once off the critical path and
// logs failures without retrying (local state is the source of truth once
// the session is running).
type SessionStore interface {
	CreateSession(ctx context.Context, cfg session.Config) (string, error)
	RecordCommitment(ctx context.Context, sessionID string, opt session.AuctionOption, triggerEdge int) error
	FinalizeSession(ctx context.Context, sessionID string, sum Summary) error
}

// PointsAwarder is an optional store capability. When the store implements
// it and the session earned a nonzero score, the engine submits a separate
// best-effort points award. A zero score skips the call entirely.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, sessionID string, points int) error
}

// WakeLock keeps the device awake for the session's duration.
type WakeLock interface {
	Acquire() WakeHandle
}

// WakeHandle releases an acquired wake lock. Release must be idempotent.
type WakeHandle interface {
	Release()
}

// NopWakeLock is the default no-device wake lock.
type NopWakeLock struct{}

func (NopWakeLock) Acquire() WakeHandle { return nopWakeHandle{} }

type nopWakeHandle struct{}

func (nopWakeHandle) Release() {}

// TaskCompleter marks an originating task complete at session finalization.
// Implementations must only complete a task whose status is still pending;
// a task already completed by another path is never overwritten.
type TaskCompleter interface {
	MarkComplete(ctx context.Context, taskID string) error
}

// HapticSink receives symbolic actuation instructions. The engine never
// talks to a device driver; it emits pattern names and stop instructions
// and leaves actuation to the collaborator.
type HapticSink interface {
	PlayPattern(key string)
	Stop()
}

// NopHapticSink discards all actuation instructions.
type NopHapticSink struct{}

func (NopHapticSink) PlayPattern(string) {}
func (NopHapticSink) Stop()              {}
