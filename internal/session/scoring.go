package session

import "time"

// Points computes the session score.
//
// Base 50, plus 10 per edge, plus one point per full minute beyond the
// first ten. The completion type then applies exactly one modifier:
// denial maintained +25, hands-free +50, ruined halves (floored),
// full release multiplies by 0.75 (floored), and emergency stop forces
// the result to exactly 0 regardless of everything else.
func Points(edges int, duration time.Duration, ct CompletionType) int {
	if ct == CompletionEmergencyStop {
		return 0
	}

	pts := 50 + 10*edges
	if extra := int(duration/time.Minute) - 10; extra > 0 {
		pts += extra
	}

	switch ct {
	case CompletionDenialMaintained:
		pts += 25
	case CompletionHandsFree:
		pts += 50
	case CompletionRuined:
		pts /= 2
	case CompletionFullRelease:
		pts = pts * 3 / 4
	case CompletionUnset, CompletionEmergencyStop:
		// no modifier
	}

	if pts < 0 {
		pts = 0
	}
	return pts
}
