package services

import "math/rand"

// defaultSeed keeps runs reproducible when callers pass seed 0.
const defaultSeed int64 = 1

// newRNG returns a deterministic random source. The planner never touches the
// process-global generator; identical seed and input produce identical plans.
func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}
