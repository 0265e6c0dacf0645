package oasis

import "math"

// Coefficients of the published in-hospital mortality model.
const (
	mortalityIntercept  = -6.1746
	mortalityScoreSlope = 0.1275
)

// MortalityProbability converts a total score into the published in-hospital
// mortality probability. It returns NaN when the total is undefined.
func MortalityProbability(total Points) float64 {
	score, ok := total.Value()
	if !ok {
		return math.NaN()
	}
	return 1 / (1 + math.Exp(-(mortalityIntercept + mortalityScoreSlope*float64(score))))
}
