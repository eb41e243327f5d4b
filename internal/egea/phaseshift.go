package egea

import (
	"fmt"
	"math"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// ScratchPool supplies reusable scratch arrays for window analysis.
// *buffer.Pool satisfies it.
type ScratchPool interface {
	Acquire() []float64
	Release([]float64)
}

// Cycle is one platform excitation period that passed the frequency and
// static-weight gates.
type Cycle struct {
	Index      int     `json:"index"`
	Frequency  float64 `json:"frequency"`   // Hz
	PhaseShift float64 `json:"phase_shift"` // degrees, 0-180
	MaxForce   float64 `json:"max_force"`
	MinForce   float64 `json:"min_force"`
}

// Analyzer runs the per-cycle phase-shift analysis over a sample window.
// It is stateless apart from its parameters and scratch pool and is safe
// for concurrent use from worker goroutines.
type Analyzer struct {
	params Parameters
	pool   ScratchPool
}

// NewAnalyzer builds an analyzer. pool may be nil, in which case scratch
// arrays are allocated per call.
func NewAnalyzer(params Parameters, pool ScratchPool) *Analyzer {
	return &Analyzer{params: params, pool: pool}
}

// AnalyzeWindow computes per-cycle phase shifts between platform position
// and tire force and derives the EGEA status for the window. The returned
// result is self-contained; it never aliases the input arrays.
func (a *Analyzer) AnalyzeWindow(data models.ChannelArrays, staticWeight float64) models.EvaluationResult {
	n := data.Len()
	if n < a.params.MinDataPoints {
		return models.EvaluationResult{
			Success: false,
			Err:     fmt.Sprintf("insufficient data: %d points, need %d", n, a.params.MinDataPoints),
		}
	}
	if staticWeight <= 0 {
		return models.EvaluationResult{Success: false, Err: "static weight must be positive"}
	}

	smoothed, release := a.scratch(n)
	defer release()
	smoothForce(smoothed, data.TireForce)

	// Platform TOP positions bound the analysis cycles.
	minDistance := int(float64(n) / (a.params.MaxCalcFreq * 2))
	tops := FindPeaks(data.PlatformPosition, minDistance)

	var cycles []Cycle
	for i := 1; i < len(tops); i++ {
		c, ok := a.analyzeCycle(data, smoothed, staticWeight, tops[i-1], tops[i], i)
		if ok {
			cycles = append(cycles, c)
		}
	}
	if len(cycles) == 0 {
		return models.EvaluationResult{Success: false, Err: "no valid cycles in calculation band"}
	}

	minPhase := cycles[0].PhaseShift
	minFreq := cycles[0].Frequency
	for _, c := range cycles[1:] {
		if c.PhaseShift < minPhase {
			minPhase = c.PhaseShift
			minFreq = c.Frequency
		}
	}

	rating := EvaluatePhaseShift(minPhase, a.params.PhaseShiftMin)
	evaluation := models.EvaluationFailing
	if rating.Passing {
		evaluation = models.EvaluationPassing
	}

	status := &models.EGEAStatus{
		MinPhaseShift: &minPhase,
		MinPhaseFreq:  &minFreq,
		QualityIndex:  rating.QualityIndex,
		Passing:       rating.Passing,
		Evaluation:    evaluation,
		CycleCount:    uint32(len(cycles)),
	}
	return models.EvaluationResult{Success: true, Status: status}
}

// analyzeCycle evaluates one platform period. Cycles outside the
// frequency band or the static-weight band are rejected.
func (a *Analyzer) analyzeCycle(data models.ChannelArrays, smoothedForce []float64, staticWeight float64, start, end, index int) (Cycle, bool) {
	duration := data.Time[end] - data.Time[start]
	if duration <= 0 {
		return Cycle{}, false
	}
	frequency := 1.0 / duration
	if frequency < a.params.MinCalcFreq || frequency > a.params.MaxCalcFreq {
		return Cycle{}, false
	}

	maxForce, minForce := data.TireForce[start], data.TireForce[start]
	for i := start; i < end; i++ {
		if data.TireForce[i] > maxForce {
			maxForce = data.TireForce[i]
		}
		if data.TireForce[i] < minForce {
			minForce = data.TireForce[i]
		}
	}

	// Static weight must sit inside the cycle's force swing (3.21).
	delta := maxForce - minForce
	fMaxLimit := maxForce - delta*a.params.RFstFMaxPercent/100.0
	fMinLimit := minForce + delta*a.params.RFstFMinPercent/100.0
	if !(fMinLimit < staticWeight && staticWeight < fMaxLimit) {
		return Cycle{}, false
	}

	fref, ok := forceReference(smoothedForce, data.Time, staticWeight, start, end)
	if !ok {
		return Cycle{}, false
	}

	// True platform TOP inside the cycle, not just the cycle start.
	peakIdx := start
	for i := start; i < end; i++ {
		if data.PlatformPosition[i] > data.PlatformPosition[peakIdx] {
			peakIdx = i
		}
	}
	topTime := data.Time[peakIdx] - data.Time[start]
	frefTime := fref - data.Time[start]

	phase := (frefTime - topTime) * frequency * 360.0
	phase = math.Mod(phase, 360.0)
	if phase < 0 {
		phase += 360.0
	}
	if phase > 180.0 {
		phase = 360.0 - phase
	}

	return Cycle{
		Index:      index,
		Frequency:  frequency,
		PhaseShift: phase,
		MaxForce:   maxForce,
		MinForce:   minForce,
	}, true
}

// forceReference finds Fref, the midpoint between the first downward and
// first upward crossing of the static weight inside the cycle (3.7).
// Crossing instants are linearly interpolated.
func forceReference(force, times []float64, staticWeight float64, start, end int) (float64, bool) {
	var downs, ups []float64
	for i := start + 1; i < end; i++ {
		prev, curr := force[i-1], force[i]
		crossed := (prev < staticWeight && staticWeight < curr) ||
			(prev > staticWeight && staticWeight > curr)
		if !crossed {
			continue
		}
		fraction := (staticWeight - prev) / (curr - prev)
		at := times[i-1] + fraction*(times[i]-times[i-1])
		if curr > prev {
			ups = append(ups, at)
		} else {
			downs = append(downs, at)
		}
	}
	if len(downs) > 0 && len(ups) > 0 {
		return (downs[0] + ups[0]) / 2.0, true
	}
	// Fallback: midpoint of the first two crossings regardless of direction.
	all := len(downs) + len(ups)
	if all >= 2 {
		first, second := firstTwo(downs, ups)
		return (first + second) / 2.0, true
	}
	return 0, false
}

func firstTwo(a, b []float64) (float64, float64) {
	merged := append(append([]float64{}, a...), b...)
	first, second := math.Inf(1), math.Inf(1)
	for _, v := range merged {
		switch {
		case v < first:
			second = first
			first = v
		case v < second:
			second = v
		}
	}
	return first, second
}

// smoothForce writes a 5-point moving average of src into dst[:len(src)].
// Edges fall back to the raw value.
func smoothForce(dst, src []float64) {
	n := len(src)
	for i := 0; i < n; i++ {
		if i < 2 || i > n-3 {
			dst[i] = src[i]
			continue
		}
		dst[i] = (src[i-2] + src[i-1] + src[i] + src[i+1] + src[i+2]) / 5.0
	}
}

// scratch rents an analysis array of at least n elements from the pool,
// or allocates when the pool is absent or its arrays are too small.
func (a *Analyzer) scratch(n int) ([]float64, func()) {
	if a.pool != nil {
		arr := a.pool.Acquire()
		if len(arr) >= n {
			return arr[:n], func() { a.pool.Release(arr[:cap(arr)]) }
		}
		a.pool.Release(arr)
	}
	return make([]float64, n), func() {}
}
