package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// newSeededRand builds the production random source: a PCG generator
// seeded from crypto/rand. Tests inject a scripted source instead.
func newSeededRand() session.Rand {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unreachable; fall back to a
		// fixed seed rather than aborting the session.
		return rand.New(rand.NewPCG(1, 2))
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(b[:8]),
		binary.LittleEndian.Uint64(b[8:]),
	))
}
