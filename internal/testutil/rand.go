// Package testutil provides deterministic test doubles: a scripted random
// source and recording fakes for the engine's collaborators.
package testutil

import "sync"

// ScriptedRand returns a fixed script of values from IntN, cycling when
// the script is exhausted. Each value is reduced modulo n so scripts can
// pin boundary behavior (0 pins the minimum, n-1 the maximum).
//
// An empty script always returns 0.
type ScriptedRand struct {
	mu   sync.Mutex
	vals []int
	i    int
}

// NewScriptedRand creates a scripted source.
func NewScriptedRand(vals ...int) *ScriptedRand {
	return &ScriptedRand{vals: vals}
}

// IntN implements session.Rand.
func (r *ScriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)] % n
	r.i++
	return v
}

// Reset rewinds the script for test reuse.
func (r *ScriptedRand) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.i = 0
}
