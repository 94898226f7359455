package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRand plays back a fixed script of values, cycling when exhausted.
// Values are reduced modulo n, so 0 pins minimums and n-1 pins maximums.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)] % n
	r.i++
	return v
}

func zeroRand() Rand { return &seqRand{} }

func testConfig(target int) Config {
	return Config{Kind: KindStandard, TargetEdges: target}
}

func activeState(t *testing.T, target int) (State, time.Time) {
	t.Helper()
	start := time.Date(2026, 8, 1, 21, 0, 0, 0, time.UTC)
	s := NewState("s-1", testConfig(target), zeroRand())
	s = StartActive(s, start, zeroRand())
	require.Equal(t, PhaseActive, s.Phase)
	return s, start
}

// recordAt records an edge at the given elapsed offset and, unless the
// session left the active phase, immediately closes the recovery window.
func recordAt(s State, start time.Time, elapsed time.Duration) State {
	s = RecordEdge(s, start.Add(elapsed), elapsed, zeroRand())
	return EndRecovery(s, zeroRand())
}

func TestNewState(t *testing.T) {
	s := NewState("s-1", testConfig(5), zeroRand())

	assert.Equal(t, PhasePrep, s.Phase)
	assert.Equal(t, PrepSeconds, s.PrepRemaining)
	assert.Empty(t, s.Edges)
	assert.Equal(t, 0, s.EdgeCount)
	assert.Equal(t, StatusInProgress, s.Status)
	assert.NotEmpty(t, s.Affirmation)
}

func TestTickPrep(t *testing.T) {
	s := NewState("s-1", testConfig(5), zeroRand())

	s = TickPrep(s)
	assert.Equal(t, PrepSeconds-1, s.PrepRemaining)
	// Ticking never transitions the phase by itself.
	assert.Equal(t, PhasePrep, s.Phase)

	for range PrepSeconds {
		s = TickPrep(s)
	}
	assert.Equal(t, 0, s.PrepRemaining, "countdown must not go negative")
}

func TestStartActive(t *testing.T) {
	start := time.Date(2026, 8, 1, 21, 0, 0, 0, time.UTC)
	s := NewState("s-1", testConfig(5), zeroRand())

	s = StartActive(s, start, zeroRand())
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, start, s.StartedAt)

	// Only legal from prep.
	again := StartActive(s, start.Add(time.Minute), zeroRand())
	assert.Equal(t, s, again)
}

func TestRecordEdge_Ordering(t *testing.T) {
	s, start := activeState(t, 10)

	for i := 1; i <= 4; i++ {
		s = recordAt(s, start, time.Duration(i)*time.Minute)
	}

	require.Len(t, s.Edges, 4)
	assert.Equal(t, 4, s.EdgeCount)
	for i, e := range s.Edges {
		assert.Equal(t, i+1, e.Number, "edge numbers are 1..N gap-free")
	}
	assert.Equal(t, time.Minute, s.Edges[0].SinceLast,
		"first edge's since-last equals its elapsed")
	assert.Equal(t, time.Minute, s.Edges[2].SinceLast)
}

func TestRecordEdge_OpensRecovery(t *testing.T) {
	s, start := activeState(t, 10)

	s = RecordEdge(s, start.Add(time.Minute), time.Minute, zeroRand())
	require.True(t, s.Recovering)
	assert.Equal(t, RecoveryMin, s.Edges[0].Recovery,
		"rand value 0 pins the minimum recovery duration")
	assert.Equal(t, start.Add(time.Minute).Add(RecoveryMin), s.RecoveryEnd)
}

func TestRecordEdge_RecoveryBounds(t *testing.T) {
	spanMS := int((RecoveryMax-RecoveryMin)/time.Millisecond) + 1
	s, start := activeState(t, 10)

	s = RecordEdge(s, start.Add(time.Minute), time.Minute, &seqRand{vals: []int{spanMS - 1}})
	assert.Equal(t, RecoveryMax, s.Edges[0].Recovery,
		"maximum rand value pins the maximum recovery duration")
}

func TestRecordEdge_RejectedWhileRecovering(t *testing.T) {
	s, start := activeState(t, 10)

	s = RecordEdge(s, start.Add(time.Minute), time.Minute, zeroRand())
	require.True(t, s.Recovering)

	again := RecordEdge(s, start.Add(2*time.Minute), 2*time.Minute, zeroRand())
	assert.Equal(t, s, again)
}

func TestRecordEdge_RejectedOutsideActive(t *testing.T) {
	s := NewState("s-1", testConfig(5), zeroRand())
	out := RecordEdge(s, time.Now(), 0, zeroRand())
	assert.Equal(t, s, out)
}

func TestRecordEdge_TargetReached(t *testing.T) {
	s, start := activeState(t, 3)

	s = recordAt(s, start, 1*time.Minute)
	s = recordAt(s, start, 2*time.Minute)
	require.Equal(t, PhaseActive, s.Phase)

	s = RecordEdge(s, start.Add(3*time.Minute), 3*time.Minute, zeroRand())
	assert.Equal(t, PhaseCooldown, s.Phase)
	assert.False(t, s.Recovering, "target reached takes precedence over recovery")
	assert.True(t, s.RecoveryEnd.IsZero())
	assert.Equal(t, ClosingAffirmation, s.Affirmation)
	assert.Equal(t, 3, s.EdgeCount)
}

func TestBreathe(t *testing.T) {
	s, start := activeState(t, 10)

	out := Breathe(s, start.Add(time.Minute), zeroRand())
	assert.True(t, out.Recovering)
	assert.Equal(t, 0, out.EdgeCount, "breathe never records an edge")
	assert.Empty(t, out.Edges)

	// Rejected while already recovering.
	again := Breathe(out, start.Add(2*time.Minute), zeroRand())
	assert.Equal(t, out, again)

	// Rejected outside the active phase.
	prep := NewState("s-2", testConfig(5), zeroRand())
	assert.Equal(t, prep, Breathe(prep, start, zeroRand()))
}

func TestEndRecovery_NoopWhenNotRecovering(t *testing.T) {
	s, _ := activeState(t, 10)
	assert.Equal(t, s, EndRecovery(s, zeroRand()))
}

func TestEndCooldown(t *testing.T) {
	s, start := activeState(t, 1)
	s = RecordEdge(s, start.Add(time.Minute), time.Minute, zeroRand())
	require.Equal(t, PhaseCooldown, s.Phase)

	s = EndCooldown(s)
	assert.Equal(t, PhasePost, s.Phase)

	// Only legal from cooldown.
	assert.Equal(t, s, EndCooldown(s))
}

func TestStopFlow(t *testing.T) {
	s, _ := activeState(t, 10)

	s = RequestStop(s)
	require.True(t, s.StopConfirming)

	cancelled := CancelStop(s)
	assert.False(t, cancelled.StopConfirming)
	assert.Equal(t, PhaseActive, cancelled.Phase)

	confirmed := ConfirmStop(s)
	assert.Equal(t, PhasePost, confirmed.Phase)
	assert.False(t, confirmed.StopConfirming)
	assert.False(t, confirmed.Recovering)
}

func TestConfirmStop_RequiresRequest(t *testing.T) {
	s, _ := activeState(t, 10)
	assert.Equal(t, s, ConfirmStop(s), "confirm without a pending request is a no-op")
}

func TestRequestStop_OnlyWhileRunning(t *testing.T) {
	s := NewState("s-1", testConfig(5), zeroRand())
	assert.Equal(t, s, RequestStop(s))
}

func TestEmergencyStop(t *testing.T) {
	s, start := activeState(t, 10)
	s = RecordEdge(s, start.Add(time.Minute), time.Minute, zeroRand())
	require.True(t, s.Recovering)

	s = EmergencyStop(s)
	assert.Equal(t, PhaseCompletion, s.Phase)
	assert.Equal(t, CompletionEmergencyStop, s.Completion)
	assert.Equal(t, 0, s.Points)
	assert.Equal(t, StatusAbandoned, s.Status)
	assert.False(t, s.Recovering)
	assert.Nil(t, s.Auction)
}

func TestSetCompletion(t *testing.T) {
	s, start := activeState(t, 2)
	s = recordAt(s, start, 1*time.Minute)
	s = RecordEdge(s, start.Add(2*time.Minute), 2*time.Minute, zeroRand())
	s = EndCooldown(s)
	s = AdvanceToCompletion(s)
	require.Equal(t, PhaseCompletion, s.Phase)

	s = SetCompletion(s, CompletionDenialMaintained, 15*time.Minute)
	assert.Equal(t, CompletionDenialMaintained, s.Completion)
	assert.Equal(t, Points(2, 15*time.Minute, CompletionDenialMaintained), s.Points)
	assert.Equal(t, StatusCompleted, s.Status)

	// Points are set exactly once and never recomputed.
	again := SetCompletion(s, CompletionHandsFree, time.Hour)
	assert.Equal(t, s, again)
}

func TestSetCompletion_NeverOverridesEmergency(t *testing.T) {
	s, _ := activeState(t, 10)
	s = EmergencyStop(s)

	out := SetCompletion(s, CompletionHandsFree, time.Hour)
	assert.Equal(t, CompletionEmergencyStop, out.Completion)
	assert.Equal(t, 0, out.Points)
}

func TestTerminalStateIsFrozen(t *testing.T) {
	s, start := activeState(t, 1)
	s = RecordEdge(s, start.Add(time.Minute), time.Minute, zeroRand())
	s = EndCooldown(s)
	s = AdvanceToCompletion(s)
	s = SetCompletion(s, CompletionFullRelease, 20*time.Minute)
	s = Finalize(s)
	require.Equal(t, PhaseEnded, s.Phase)

	now := start.Add(time.Hour)
	transitions := []func(State) State{
		TickPrep,
		func(x State) State { return StartActive(x, now, zeroRand()) },
		func(x State) State { return RecordEdge(x, now, time.Hour, zeroRand()) },
		func(x State) State { return Breathe(x, now, zeroRand()) },
		func(x State) State { return EndRecovery(x, zeroRand()) },
		EndCooldown,
		RequestStop,
		CancelStop,
		ConfirmStop,
		EmergencyStop,
		func(x State) State { return SetMood(x, MoodProud) },
		func(x State) State { return SetNotes(x, "n") },
		AdvanceToCompletion,
		func(x State) State { return SetCompletion(x, CompletionRuined, time.Hour) },
		Finalize,
		StartAuction,
		TickAuction,
		func(x State) State {
			opts, _ := OptionsFor(5)
			return ResolveAuction(x, opts[0], false, now)
		},
	}
	for i, fn := range transitions {
		assert.Equal(t, s, fn(s), "transition %d must leave the ended state unchanged", i)
	}
}

func TestClone_IsDeep(t *testing.T) {
	s, start := activeState(t, 10)
	for i := 1; i <= 5; i++ {
		s = recordAt(s, start, time.Duration(i)*time.Minute)
	}
	s = StartAuction(s)
	require.NotNil(t, s.Auction)

	c := s.Clone()
	c.Edges[0].Number = 99
	c.Auction.Options[0].Label = "mutated"
	c.Auction.Remaining = 1

	assert.Equal(t, 1, s.Edges[0].Number)
	assert.NotEqual(t, "mutated", s.Auction.Options[0].Label)
	assert.Equal(t, AuctionSeconds, s.Auction.Remaining)
}
