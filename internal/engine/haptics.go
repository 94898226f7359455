package engine

import "github.com/SissyMaxy/becoming-protocol-sub003/internal/session"

// Symbolic haptic pattern keys. Actuation is the sink's problem.
const (
	PatternPrepWave     = "prep_wave"
	PatternActivePulse  = "active_pulse"
	PatternRecoverySlow = "recovery_slow"
	PatternAuctionAlert = "auction_alert"
	PatternCooldownFade = "cooldown_fade"
	PatternEdgeBurst    = "edge_burst"
)

// HapticMapper derives a symbolic pattern key from the session state and
// emits a play or stop instruction whenever the key changes, plus a
// one-shot pulse on each recorded edge.
//
// The mapper is a read-only observer: it never writes back into the
// engine. It is driven from inside the engine's lock, so it needs no
// locking of its own.
type HapticMapper struct {
	sink    HapticSink
	current string
}

// NewHapticMapper wraps a sink. A nil sink becomes a no-op.
func NewHapticMapper(sink HapticSink) *HapticMapper {
	if sink == nil {
		sink = NopHapticSink{}
	}
	return &HapticMapper{sink: sink}
}

// patternKey maps state to the continuous pattern that should be playing.
// Empty means silence.
func patternKey(s session.State) string {
	switch s.Phase {
	case session.PhasePrep:
		return PatternPrepWave
	case session.PhaseActive:
		if s.Auction != nil {
			return PatternAuctionAlert
		}
		if s.Recovering {
			return PatternRecoverySlow
		}
		return PatternActivePulse
	case session.PhaseCooldown:
		return PatternCooldownFade
	default:
		return ""
	}
}

// Observe emits a play or stop instruction if the derived key changed.
func (m *HapticMapper) Observe(s session.State) {
	key := patternKey(s)
	if key == m.current {
		return
	}
	m.current = key
	if key == "" {
		m.sink.Stop()
		return
	}
	m.sink.PlayPattern(key)
}

// Pulse fires the one-shot edge burst. The current key is reset so the
// next Observe re-asserts the continuous pattern after the burst.
func (m *HapticMapper) Pulse() {
	m.sink.PlayPattern(PatternEdgeBurst)
	m.current = ""
}
