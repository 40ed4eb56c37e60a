package game

import "math/rand"

// Final-resolution VP clamp range. Clamping happens before renormalization
// so neither side can be driven to zero by a single extreme draw.
const (
	vpFloor = 5.0
	vpCeil  = 95.0
)

// ExpectedVP returns the noise-free VP split implied by relative position.
// Two zero positions split evenly.
func ExpectedVP(s GameState) (evA, evB float64) {
	total := s.PlayerA.Position + s.PlayerB.Position
	if total == 0 {
		return 50, 50
	}
	evA = 100 * s.PlayerA.Position / total
	return evA, 100 - evA
}

// FinalResolution draws a single shared Gaussian noise sample and resolves
// the final VP split. The draw is symmetric: one sample moves both sides
// in opposite directions, so the pre-surplus split always renormalizes to
// exactly 100. Captured surplus is then added on top, uncapped; this is
// the only place totals may exceed 100. Identical (state, rng seed) pairs
// yield bit-identical results.
func FinalResolution(s GameState, rng *rand.Rand) (vpA, vpB float64) {
	evA, evB := ExpectedVP(s)

	noise := rng.NormFloat64() * s.SharedSigma()

	rawA := evA + noise
	rawB := evB - noise

	clampedA := clampFloat(rawA, vpFloor, vpCeil)
	clampedB := clampFloat(rawB, vpFloor, vpCeil)

	total := clampedA + clampedB
	vpA = clampedA * 100 / total
	vpB = clampedB * 100 / total

	return vpA + s.SurplusCapturedA, vpB + s.SurplusCapturedB
}
