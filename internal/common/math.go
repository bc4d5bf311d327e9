package common

import "math"

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ClampFloat bounds x to [lo, hi]
func ClampFloat(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

// FloorInt floors a non-negative quantity to an int. NaN and negative values yield 0.
func FloorInt(x float64) int {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	return int(math.Floor(x))
}
