package core

import "math"

// Price derives the sale amount from the latest weight and fat values plus
// the trade terms:
//
//	amount = (weight * pricePerKilo) * (|idealFatPercentage - fat| * fatMultiplier)
//
// rounded to 2 decimal places, half away from zero. Deterministic, no side
// effects. Callers resolve the measurements first; a missing weight or fat is
// a precondition failure, never a zero-price fallback.
func Price(weight, fat, pricePerKilo, fatMultiplier, idealFatPercentage float64) float64 {
	amount := (weight * pricePerKilo) * (math.Abs(idealFatPercentage-fat) * fatMultiplier)
	return roundCurrency(amount)
}

func roundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
