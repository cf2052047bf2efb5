package model

import "math"

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percent returns part/total*100 rounded to 2 decimals, or 0 when total is not
// positive.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(part / total * 100)
}
