// Package engine is the stateful driver of an edge session. It owns the
// current session.State, schedules and cancels all real timers (prep tick,
// recovery expiry, cooldown expiry, auction countdown), debounces edge
// taps, and calls the session store, wake lock, task, and haptic
// collaborators at defined lifecycle points.
//
// Concurrency model: all engine logic runs under a single mutex, so state
// transitions are serialized. Concurrency arises only from timer callbacks
// racing user actions; every callback re-validates its precondition
// against the current state before applying a transition, so a stale
// firing is a silent no-op rather than a double transition.
//
// Scheduling a timer of a given class always cancels the previous timer of
// that class first - a leaked duplicate timer would cause double
// transitions and is treated as a correctness bug.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// DebounceWindow is the hard edge-tap debounce, measured from the last
// accepted tap (not from every attempt).
const DebounceWindow = 2 * time.Second

// Engine drives one session from prep through ended.
type Engine struct {
	mu  sync.Mutex
	clk clock.Clock
	rng session.Rand
	log *slog.Logger

	store   SessionStore
	wake    WakeLock
	tasks   TaskCompleter
	haptics *HapticMapper
	outbox  *Outbox

	state      session.State
	started    bool
	wakeHandle WakeHandle
	lastEdgeAt time.Time

	// auctionResolved guards the two mutually exclusive resolution paths
	// (user choice vs countdown auto-select) so exactly one resolution
	// occurs per auction.
	auctionResolved bool

	prepTimer     *clock.Timer
	recoveryTimer *clock.Timer
	cooldownTimer *clock.Timer
	auctionTimer  *clock.Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the clock used for every time read and timer. Tests
// pass clock.NewMock() and advance virtual time instead of sleeping.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clk = c }
}

// WithRand injects the random source for recovery sampling and
// affirmation selection.
func WithRand(r session.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithWakeLock sets the stay-awake collaborator.
func WithWakeLock(w WakeLock) Option {
	return func(e *Engine) { e.wake = w }
}

// WithTaskCompleter sets the originating-task collaborator.
func WithTaskCompleter(t TaskCompleter) Option {
	return func(e *Engine) { e.tasks = t }
}

// WithHaptics sets the actuation sink.
func WithHaptics(s HapticSink) Option {
	return func(e *Engine) { e.haptics = NewHapticMapper(s) }
}

// New creates an engine bound to a session store. The store is the only
// mandatory collaborator.
func New(store SessionStore, opts ...Option) *Engine {
	e := &Engine{
		clk:   clock.New(),
		log:   slog.Default(),
		store: store,
		wake:  NopWakeLock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = newSeededRand()
	}
	if e.haptics == nil {
		e.haptics = NewHapticMapper(nil)
	}
	e.outbox = NewOutbox(e.log)
	return e
}

// StartSession creates the durable record and enters the prep phase. The
// store call must succeed: on failure no local state is created and the
// error is surfaced as a SetupError.
func (e *Engine) StartSession(ctx context.Context, cfg session.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}
	if cfg.TargetEdges <= 0 {
		return &SetupError{Err: fmt.Errorf("target edges must be positive, got %d", cfg.TargetEdges)}
	}
	if !session.ValidKind(cfg.Kind) {
		return &SetupError{Err: fmt.Errorf("unknown session kind %q", cfg.Kind)}
	}

	id, err := e.store.CreateSession(ctx, cfg)
	if err != nil {
		return &SetupError{Err: err}
	}

	e.wakeHandle = e.wake.Acquire()
	e.state = session.NewState(id, cfg, e.rng)
	e.started = true
	e.log.Info("session started",
		"id", id,
		"kind", cfg.Kind,
		"target_edges", cfg.TargetEdges,
		"prescribed", cfg.Prescribed,
	)
	e.haptics.Observe(e.state)
	e.schedulePrepTickLocked()
	return nil
}

// EndPrep skips the remainder of the prep countdown and begins the active
// phase.
func (e *Engine) EndPrep() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != session.PhasePrep {
		return
	}
	e.beginActiveLocked()
}

// RecordEdge records an edge tap. Taps within DebounceWindow of the last
// accepted tap are silently ignored, as are taps outside the active phase
// or during a recovery window.
func (e *Engine) RecordEdge() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	if !e.lastEdgeAt.IsZero() && now.Sub(e.lastEdgeAt) < DebounceWindow {
		return
	}

	prev := e.state
	e.state = session.RecordEdge(prev, now, now.Sub(prev.StartedAt), e.rng)
	if e.state.EdgeCount == prev.EdgeCount {
		return // rejected: wrong phase or recovering
	}
	e.lastEdgeAt = now

	edge := e.state.Edges[len(e.state.Edges)-1]
	e.log.Debug("edge recorded",
		"number", edge.Number,
		"elapsed", edge.Elapsed,
		"recovery", edge.Recovery,
	)
	e.haptics.Pulse()

	if e.state.Phase == session.PhaseCooldown {
		// Target reached: recovery and auction timers are moot.
		stopTimer(&e.recoveryTimer)
		stopTimer(&e.auctionTimer)
		e.scheduleCooldownLocked()
	} else {
		e.scheduleRecoveryLocked(now)
		if session.ShouldTriggerAuction(e.state) {
			e.state = session.StartAuction(e.state)
			if e.state.Auction != nil {
				e.auctionResolved = false
				e.log.Info("auction opened", "trigger_edge", e.state.Auction.TriggerEdge)
				e.scheduleAuctionTickLocked()
			}
		}
	}
	e.haptics.Observe(e.state)
}

// Breathe opens a manual recovery window without recording an edge.
func (e *Engine) Breathe() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	prev := e.state
	e.state = session.Breathe(prev, now, e.rng)
	if !e.state.Recovering || prev.Recovering {
		return
	}
	e.log.Debug("manual recovery", "until", e.state.RecoveryEnd)
	e.scheduleRecoveryLocked(now)
	e.haptics.Observe(e.state)
}

// RequestStop raises the stop confirmation prompt.
func (e *Engine) RequestStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = session.RequestStop(e.state)
}

// CancelStop dismisses the stop confirmation prompt.
func (e *Engine) CancelStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = session.CancelStop(e.state)
}

// ConfirmStop honors a raised stop request and moves to post.
func (e *Engine) ConfirmStop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.state
	e.state = session.ConfirmStop(prev)
	if e.state.Phase == prev.Phase {
		return
	}
	stopTimer(&e.recoveryTimer)
	stopTimer(&e.cooldownTimer)
	stopTimer(&e.auctionTimer)
	e.haptics.Observe(e.state)
}

// EmergencyStop moves straight to completion with zero points. Always
// succeeds locally; every outstanding timer is cancelled.
func (e *Engine) EmergencyStop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = session.EmergencyStop(e.state)
	e.cancelTimersLocked()
	e.log.Info("emergency stop", "id", e.state.ID, "edges", e.state.EdgeCount)
	e.haptics.Observe(e.state)
}

// ResolveAuction applies the user's choice for the active auction. The
// option must belong to the active option set; anything else is ignored.
func (e *Engine) ResolveAuction(opt session.AuctionOption) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolveAuctionLocked(opt, false)
}

func (e *Engine) resolveAuctionLocked(opt session.AuctionOption, auto bool) {
	a := e.state.Auction
	if a == nil || e.auctionResolved {
		return
	}
	member := false
	for _, candidate := range a.Options {
		if candidate.ID == opt.ID {
			member = true
			break
		}
	}
	if !member {
		return
	}

	e.auctionResolved = true
	stopTimer(&e.auctionTimer)

	trigger := a.TriggerEdge
	e.state = session.ResolveAuction(e.state, opt, auto, e.clk.Now())
	e.log.Info("auction resolved",
		"trigger_edge", trigger,
		"option", opt.ID,
		"auto", auto,
	)

	if e.state.Phase == session.PhaseCooldown {
		stopTimer(&e.recoveryTimer)
		e.scheduleCooldownLocked()
	} else if !opt.EndNow() {
		id := e.state.ID
		e.outbox.Submit("record commitment", func(ctx context.Context) error {
			return e.store.RecordCommitment(ctx, id, opt, trigger)
		})
	}
	e.haptics.Observe(e.state)
}

// SetMood records the post-session mood.
func (e *Engine) SetMood(m session.Mood) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = session.SetMood(e.state, m)
}

// SetNotes records post-session notes.
func (e *Engine) SetNotes(notes string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = session.SetNotes(e.state, notes)
}

// AdvanceToCompletion moves post -> completion.
func (e *Engine) AdvanceToCompletion() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = session.AdvanceToCompletion(e.state)
}

// SetCompletionType stores the completion type and computes the score from
// the elapsed time at the moment of the call.
func (e *Engine) SetCompletionType(ct session.CompletionType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = session.SetCompletion(e.state, ct, e.elapsedLocked())
}

// CompleteSession finalizes the session: determines the end reason, hands
// the summary to the store (best-effort), conditionally completes the
// origin task, releases the wake lock, cancels every timer, and moves the
// state to ended. Persistence failure never rolls back the transition.
func (e *Engine) CompleteSession(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return ErrNotStarted
	}
	if e.state.Phase != session.PhaseCompletion {
		return ErrNotInCompletion
	}

	st := e.state.Clone()
	reason := EndReasonUserEnded
	switch {
	case st.Completion == session.CompletionEmergencyStop:
		reason = EndReasonAbandoned
	case st.EdgeCount >= st.Config.TargetEdges:
		reason = EndReasonGoalReached
	}

	sum := Summary{
		Reason:      reason,
		Edges:       st.Edges,
		Duration:    e.elapsedLocked(),
		Mood:        st.Mood,
		Notes:       st.Notes,
		Completion:  st.Completion,
		Points:      st.Points,
		Status:      st.Status,
		Commitments: st.Commitments,
	}

	e.cancelTimersLocked()
	e.state = session.Finalize(e.state)
	e.haptics.Observe(e.state)
	if e.wakeHandle != nil {
		e.wakeHandle.Release()
		e.wakeHandle = nil
	}

	id := st.ID
	e.outbox.Submit("finalize session", func(ctx context.Context) error {
		return e.store.FinalizeSession(ctx, id, sum)
	})
	if st.Points > 0 {
		if awarder, ok := e.store.(PointsAwarder); ok {
			points := st.Points
			e.outbox.Submit("award points", func(ctx context.Context) error {
				return awarder.AwardPoints(ctx, id, points)
			})
		}
	}
	if taskID := st.Config.OriginTaskID; taskID != "" && e.tasks != nil {
		e.outbox.Submit("complete origin task", func(ctx context.Context) error {
			return e.tasks.MarkComplete(ctx, taskID)
		})
	}

	e.log.Info("session finalized",
		"id", id,
		"reason", reason,
		"edges", st.EdgeCount,
		"points", st.Points,
	)
	return nil
}

// Flush blocks until all pending best-effort writes have been attempted.
func (e *Engine) Flush() {
	e.outbox.Flush()
}

// Close cancels every outstanding timer, releases the wake lock, and
// drains the outbox. Safe to call on any path, including after errors.
func (e *Engine) Close() {
	e.mu.Lock()
	e.cancelTimersLocked()
	if e.wakeHandle != nil {
		e.wakeHandle.Release()
		e.wakeHandle = nil
	}
	e.mu.Unlock()
	e.outbox.Close()
}

// Snapshot returns a deep copy of the current state for read-only
// consumers.
func (e *Engine) Snapshot() session.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Elapsed returns the time since the active phase began, or zero before
// it.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

// FormattedElapsed renders the elapsed time as MM:SS, or H:MM:SS past an
// hour.
func (e *Engine) FormattedElapsed() string {
	d := e.Elapsed()
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func (e *Engine) elapsedLocked() time.Duration {
	if e.state.StartedAt.IsZero() {
		return 0
	}
	return e.clk.Now().Sub(e.state.StartedAt)
}

// ---- timer scheduling ----
//
// Each schedule*Locked helper cancels its class's previous timer before
// arming a new one. Callbacks re-acquire the lock and re-validate.

func stopTimer(t **clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (e *Engine) cancelTimersLocked() {
	stopTimer(&e.prepTimer)
	stopTimer(&e.recoveryTimer)
	stopTimer(&e.cooldownTimer)
	stopTimer(&e.auctionTimer)
}

func (e *Engine) schedulePrepTickLocked() {
	stopTimer(&e.prepTimer)
	e.prepTimer = e.clk.AfterFunc(time.Second, e.onPrepTick)
}

func (e *Engine) onPrepTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != session.PhasePrep {
		return // stale: prep already ended
	}
	e.state = session.TickPrep(e.state)
	if e.state.PrepRemaining > 0 {
		e.schedulePrepTickLocked()
		return
	}
	e.beginActiveLocked()
}

func (e *Engine) beginActiveLocked() {
	stopTimer(&e.prepTimer)
	e.state = session.StartActive(e.state, e.clk.Now(), e.rng)
	e.log.Info("active phase started", "id", e.state.ID)
	e.haptics.Observe(e.state)
}

func (e *Engine) scheduleRecoveryLocked(now time.Time) {
	stopTimer(&e.recoveryTimer)
	if !e.state.Recovering {
		return
	}
	d := e.state.RecoveryEnd.Sub(now)
	if d <= 0 {
		// Already past due; apply immediately instead of scheduling.
		e.state = session.EndRecovery(e.state, e.rng)
		return
	}
	e.recoveryTimer = e.clk.AfterFunc(d, e.onRecoveryExpired)
}

func (e *Engine) onRecoveryExpired() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Recovering {
		return // stale: recovery already ended by a faster path
	}
	if e.clk.Now().Before(e.state.RecoveryEnd) {
		return // stale: a newer recovery window superseded this timer
	}
	e.state = session.EndRecovery(e.state, e.rng)
	e.log.Debug("recovery ended", "edges", e.state.EdgeCount)
	e.haptics.Observe(e.state)
}

func (e *Engine) scheduleCooldownLocked() {
	stopTimer(&e.cooldownTimer)
	e.cooldownTimer = e.clk.AfterFunc(session.CooldownSeconds*time.Second, e.onCooldownExpired)
}

func (e *Engine) onCooldownExpired() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != session.PhaseCooldown {
		return // stale: stop flow or emergency moved on already
	}
	e.state = session.EndCooldown(e.state)
	e.log.Info("cooldown ended", "id", e.state.ID)
	e.haptics.Observe(e.state)
}

func (e *Engine) scheduleAuctionTickLocked() {
	stopTimer(&e.auctionTimer)
	e.auctionTimer = e.clk.AfterFunc(time.Second, e.onAuctionTick)
}

func (e *Engine) onAuctionTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Auction == nil || e.auctionResolved {
		return // stale: auction already resolved
	}
	e.state = session.TickAuction(e.state)
	if e.state.Auction.Remaining > 0 {
		e.scheduleAuctionTickLocked()
		return
	}
	// Countdown expired: auto-select the highest-commitment option.
	e.resolveAuctionLocked(e.state.Auction.Options[0], true)
}
