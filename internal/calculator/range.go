package calculator

import (
	"math"
	"sort"
)

// BandPosition returns where price sits between lower and upper.
// 0 is the lower bound and 1 the upper; values outside the band are not clamped.
// A degenerate band yields 0.5.
func BandPosition(price, lower, upper float64) float64 {
	if upper <= lower {
		return 0.5
	}
	return (price - lower) / (upper - lower)
}

// Percentile returns the p-th percentile (0..100) of samples by linear
// interpolation between closest ranks. The input is not modified.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
