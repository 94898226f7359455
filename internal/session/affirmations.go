package session

// Affirmation pools. The build and edge pools are sampled via the injected
// random source; the closing and farewell lines are fixed.

// Pool identifies an affirmation pool.
type Pool int

const (
	// PoolBuilding plays during prep, the active phase, and after each
	// recovery window closes.
	PoolBuilding Pool = iota
	// PoolEdge plays immediately after an edge is recorded.
	PoolEdge
)

var buildingLines = []string{
	"Breathe. Stay with it.",
	"Slow hands. You have time.",
	"You are exactly where you should be.",
	"Settle in. Let it build.",
	"Good. Keep the rhythm.",
	"Patience is the whole practice.",
}

var edgeLines = []string{
	"Good. Hold steady.",
	"Ride it down. Don't chase.",
	"That's one. Breathe through it.",
	"Hands off. Let it fade.",
	"Beautifully done. Now wait.",
}

// ClosingAffirmation is the fixed line shown when the edge target is
// reached and the session enters cooldown.
const ClosingAffirmation = "You held the line. Let it settle."

// FarewellAffirmation is the fixed line shown when an auction's
// end-session-now option is taken.
const FarewellAffirmation = "Enough for tonight. Rest."

// Affirmation draws one line from the given pool.
func Affirmation(rng Rand, p Pool) string {
	lines := buildingLines
	if p == PoolEdge {
		lines = edgeLines
	}
	return lines[rng.IntN(len(lines))]
}
