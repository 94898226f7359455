package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/engine"
	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// RecordedCommitment is one RecordCommitment call captured by MemStore.
type RecordedCommitment struct {
	SessionID   string
	Option      session.AuctionOption
	TriggerEdge int
}

// MemStore is an in-memory engine.SessionStore that records every call.
// Failure toggles let tests exercise the setup-failure and best-effort
// paths.
type MemStore struct {
	mu sync.Mutex

	FailCreate   bool
	FailCommit   bool
	FailFinalize bool

	nextID      int
	Created     []session.Config
	Commitments []RecordedCommitment
	Finalized   map[string]engine.Summary
	Awarded     map[string]int
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		Finalized: make(map[string]engine.Summary),
		Awarded:   make(map[string]int),
	}
}

// CreateSession implements engine.SessionStore.
func (m *MemStore) CreateSession(_ context.Context, cfg session.Config) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate {
		return "", errors.New("store unavailable")
	}
	m.nextID++
	m.Created = append(m.Created, cfg)
	return fmt.Sprintf("session-%04d", m.nextID), nil
}

// RecordCommitment implements engine.SessionStore.
func (m *MemStore) RecordCommitment(_ context.Context, sessionID string, opt session.AuctionOption, triggerEdge int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCommit {
		return errors.New("commitment write failed")
	}
	m.Commitments = append(m.Commitments, RecordedCommitment{
		SessionID:   sessionID,
		Option:      opt,
		TriggerEdge: triggerEdge,
	})
	return nil
}

// FinalizeSession implements engine.SessionStore.
func (m *MemStore) FinalizeSession(_ context.Context, sessionID string, sum engine.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFinalize {
		return errors.New("finalize write failed")
	}
	m.Finalized[sessionID] = sum
	return nil
}

// AwardPoints implements engine.PointsAwarder.
func (m *MemStore) AwardPoints(_ context.Context, sessionID string, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Awarded[sessionID] = points
	return nil
}

// CommitmentCount returns the number of recorded commitments.
func (m *MemStore) CommitmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Commitments)
}

// FinalizedSummary returns the finalization summary for a session, if any.
func (m *MemStore) FinalizedSummary(sessionID string) (engine.Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, ok := m.Finalized[sessionID]
	return sum, ok
}

// HapticEvent is one sink call captured by RecordingHaptics.
type HapticEvent struct {
	// Pattern is the played key; empty means a stop instruction.
	Pattern string
}

// RecordingHaptics is an engine.HapticSink that records every instruction.
type RecordingHaptics struct {
	mu     sync.Mutex
	Events []HapticEvent
}

// PlayPattern implements engine.HapticSink.
func (h *RecordingHaptics) PlayPattern(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, HapticEvent{Pattern: key})
}

// Stop implements engine.HapticSink.
func (h *RecordingHaptics) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, HapticEvent{})
}

// Patterns returns the played pattern keys in order, with stops rendered
// as "stop".
func (h *RecordingHaptics) Patterns() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Events))
	for i, ev := range h.Events {
		if ev.Pattern == "" {
			out[i] = "stop"
		} else {
			out[i] = ev.Pattern
		}
	}
	return out
}

// CountingWakeLock tracks acquire/release balance.
type CountingWakeLock struct {
	mu       sync.Mutex
	Acquired int
	Released int
}

// Acquire implements engine.WakeLock.
func (w *CountingWakeLock) Acquire() engine.WakeHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Acquired++
	return &countingWakeHandle{lock: w}
}

// Held reports whether an unreleased handle remains.
func (w *CountingWakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Acquired > w.Released
}

type countingWakeHandle struct {
	lock *CountingWakeLock
	once sync.Once
}

func (h *countingWakeHandle) Release() {
	h.once.Do(func() {
		h.lock.mu.Lock()
		defer h.lock.mu.Unlock()
		h.lock.Released++
	})
}

// FakeTasks is an engine.TaskCompleter with pending/completed bookkeeping.
// MarkComplete only transitions tasks that are still pending, matching the
// contract the engine relies on.
type FakeTasks struct {
	mu        sync.Mutex
	Pending   map[string]bool
	Completed map[string]bool
}

// NewFakeTasks seeds the pending set.
func NewFakeTasks(pending ...string) *FakeTasks {
	t := &FakeTasks{
		Pending:   make(map[string]bool),
		Completed: make(map[string]bool),
	}
	for _, id := range pending {
		t.Pending[id] = true
	}
	return t
}

// MarkComplete implements engine.TaskCompleter.
func (t *FakeTasks) MarkComplete(_ context.Context, taskID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Pending[taskID] {
		return nil // already completed elsewhere; never overwrite
	}
	delete(t.Pending, taskID)
	t.Completed[taskID] = true
	return nil
}

// IsCompleted reports whether the task was completed through this fake.
func (t *FakeTasks) IsCompleted(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Completed[taskID]
}
