package egea

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DampingRatioFromMechanics computes ζ = c / (2·√(k·m)) where m is the
// sprung mass (wheel weight minus the unsprung mass). Returns NaN when
// the sprung mass or spring constant is not positive.
func DampingRatioFromMechanics(unsprungMass, weight, springConstant, dampingConstant float64) float64 {
	sprungMass := weight - unsprungMass
	if sprungMass <= 0 || springConstant <= 0 {
		return math.NaN()
	}
	return dampingConstant / (2 * math.Sqrt(springConstant*sprungMass))
}

// DampingRatioFromPhaseShift converts a measured phase angle to a
// damping ratio per the EGEA model: ζ = sin(φ)/2, so φ = 90° maps to 0.5.
func DampingRatioFromPhaseShift(phaseDeg float64) float64 {
	return math.Sin(phaseDeg*math.Pi/180.0) / 2
}

// FindPeaks returns indices of local maxima separated by at least
// minDistance samples. When maxima compete within the separation window
// the higher one wins, matching the usual peak-picking behaviour.
func FindPeaks(values []float64, minDistance int) []int {
	if minDistance < 1 {
		minDistance = 1
	}
	var candidates []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] > values[i-1] && values[i] > values[i+1] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Highest first, then greedily enforce the separation.
	sort.Slice(candidates, func(a, b int) bool {
		return values[candidates[a]] > values[candidates[b]]
	})
	kept := make([]int, 0, len(candidates))
	for _, c := range candidates {
		ok := true
		for _, k := range kept {
			if abs(c-k) < minDistance {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, c)
		}
	}
	sort.Ints(kept)
	return kept
}

// DampingRatioFromDecay estimates ζ from a decaying oscillation via the
// mean logarithmic decrement of successive positive peak amplitudes.
// ok is false when fewer than two usable peaks exist, any usable pair is
// non-positive, or the decrement denominator degenerates.
func DampingRatioFromDecay(times, amplitudes []float64) (zeta float64, ok bool) {
	_ = times // sampling grid is implicit in the peak ordering

	minDistance := len(amplitudes) / 10
	if minDistance < 1 {
		minDistance = 1
	}
	peaks := FindPeaks(amplitudes, minDistance)
	if len(peaks) < 2 {
		return 0, false
	}

	var decrements []float64
	for i := 0; i < len(peaks)-1; i++ {
		a, b := amplitudes[peaks[i]], amplitudes[peaks[i+1]]
		if a <= 0 || b <= 0 {
			continue
		}
		decrements = append(decrements, math.Log(a/b))
	}
	if len(decrements) == 0 {
		return 0, false
	}

	delta := stat.Mean(decrements, nil)
	denom := 2 * math.Pi * math.Sqrt(1+math.Pow(delta/(2*math.Pi), 2))
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	return delta / denom, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
