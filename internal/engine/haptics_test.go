package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

type sinkLog struct {
	calls []string
}

func (s *sinkLog) PlayPattern(key string) { s.calls = append(s.calls, key) }
func (s *sinkLog) Stop()                  { s.calls = append(s.calls, "stop") }

func TestPatternKey(t *testing.T) {
	active := session.State{Phase: session.PhaseActive}
	recovering := session.State{Phase: session.PhaseActive, Recovering: true}
	auction := session.State{Phase: session.PhaseActive, Auction: &session.ActiveAuction{}}

	assert.Equal(t, PatternPrepWave, patternKey(session.State{Phase: session.PhasePrep}))
	assert.Equal(t, PatternActivePulse, patternKey(active))
	assert.Equal(t, PatternRecoverySlow, patternKey(recovering))
	assert.Equal(t, PatternAuctionAlert, patternKey(auction),
		"an open auction outranks the recovery pattern")
	assert.Equal(t, PatternCooldownFade, patternKey(session.State{Phase: session.PhaseCooldown}))
	assert.Equal(t, "", patternKey(session.State{Phase: session.PhasePost}))
	assert.Equal(t, "", patternKey(session.State{Phase: session.PhaseEnded}))
}

func TestHapticMapper_EmitsOnlyOnChange(t *testing.T) {
	sink := &sinkLog{}
	m := NewHapticMapper(sink)

	active := session.State{Phase: session.PhaseActive}
	m.Observe(active)
	m.Observe(active)
	m.Observe(active)

	assert.Equal(t, []string{PatternActivePulse}, sink.calls)
}

func TestHapticMapper_StopOnSilence(t *testing.T) {
	sink := &sinkLog{}
	m := NewHapticMapper(sink)

	m.Observe(session.State{Phase: session.PhaseCooldown})
	m.Observe(session.State{Phase: session.PhasePost})

	assert.Equal(t, []string{PatternCooldownFade, "stop"}, sink.calls)
}

func TestHapticMapper_PulseReassertsPattern(t *testing.T) {
	sink := &sinkLog{}
	m := NewHapticMapper(sink)

	m.Observe(session.State{Phase: session.PhaseActive})
	m.Pulse()
	m.Observe(session.State{
		Phase:       session.PhaseActive,
		Recovering:  true,
		RecoveryEnd: time.Now().Add(time.Minute),
	})

	assert.Equal(t, []string{PatternActivePulse, PatternEdgeBurst, PatternRecoverySlow}, sink.calls)
}

func TestHapticMapper_NilSink(t *testing.T) {
	m := NewHapticMapper(nil)
	m.Observe(session.State{Phase: session.PhaseActive})
	m.Pulse() // must not panic
}
