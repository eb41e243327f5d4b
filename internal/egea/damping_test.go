package egea

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDampingRatioFromPhaseShift(t *testing.T) {
	assert.InDelta(t, 0.5, DampingRatioFromPhaseShift(90.0), 1e-12)
	assert.InDelta(t, 0.25, DampingRatioFromPhaseShift(30.0), 1e-12)
	assert.InDelta(t, 0.0, DampingRatioFromPhaseShift(0.0), 1e-12)
}

func TestDampingRatioFromMechanics(t *testing.T) {
	// ζ = c / (2·√(k·m)), m = weight - unsprung.
	zeta := DampingRatioFromMechanics(30, 430, 20000, 1500)
	assert.InDelta(t, 1500/(2*math.Sqrt(20000*400)), zeta, 1e-12)

	assert.True(t, math.IsNaN(DampingRatioFromMechanics(500, 400, 20000, 1500)),
		"non-positive sprung mass has no damping ratio")
}

func TestFindPeaksSeparation(t *testing.T) {
	// Two competing maxima 2 apart; the higher one must win.
	values := []float64{0, 3, 0, 4, 0, 0, 0, 0, 0, 2, 0}
	peaks := FindPeaks(values, 4)
	require.Equal(t, []int{3, 9}, peaks)
}

func TestDampingRatioFromDecay(t *testing.T) {
	// Four triangular peaks halving in amplitude: δ = ln 2 per pair.
	amplitudes := make([]float64, 40)
	times := make([]float64, 40)
	heights := []float64{8, 4, 2, 1}
	for i := range times {
		times[i] = float64(i) * 0.01
	}
	for p, idx := range []int{5, 15, 25, 35} {
		amplitudes[idx-1] = heights[p] / 2
		amplitudes[idx] = heights[p]
		amplitudes[idx+1] = heights[p] / 2
	}

	zeta, ok := DampingRatioFromDecay(times, amplitudes)
	require.True(t, ok)

	delta := math.Log(2)
	expected := delta / (2 * math.Pi * math.Sqrt(1+math.Pow(delta/(2*math.Pi), 2)))
	assert.InDelta(t, expected, zeta, 1e-9)
}

func TestDampingRatioFromDecayRejectsNonOscillating(t *testing.T) {
	times := make([]float64, 50)
	amplitudes := make([]float64, 50)
	for i := range amplitudes {
		times[i] = float64(i)
		amplitudes[i] = float64(i) * 1.5 // monotonically increasing
	}
	_, ok := DampingRatioFromDecay(times, amplitudes)
	assert.False(t, ok)
}

func TestDampingRatioFromDecayRejectsSinglePeak(t *testing.T) {
	amplitudes := []float64{0, 1, 5, 1, 0, 0, 0, 0, 0, 0}
	times := make([]float64, len(amplitudes))
	_, ok := DampingRatioFromDecay(times, amplitudes)
	assert.False(t, ok)
}

func TestEvaluatePhaseShift(t *testing.T) {
	rating := EvaluatePhaseShift(35.0, 35.0)
	assert.True(t, rating.Passing)
	assert.InDelta(t, 100.0, rating.QualityIndex, 1e-9)

	rating = EvaluatePhaseShift(17.5, 35.0)
	assert.False(t, rating.Passing)
	assert.InDelta(t, 50.0, rating.QualityIndex, 1e-9)

	// Capped at 100 even far above the threshold.
	rating = EvaluatePhaseShift(80.0, 35.0)
	assert.True(t, rating.Passing)
	assert.InDelta(t, 100.0, rating.QualityIndex, 1e-9)

	// Degenerate threshold never divides by zero.
	rating = EvaluatePhaseShift(40.0, 0)
	assert.Zero(t, rating.QualityIndex)
}

func TestRigidityWarnings(t *testing.T) {
	p := DefaultParameters()

	r := Rigidity(1000, 3.0, p)
	assert.InDelta(t, 0.571*(1000/3.0)+46.0, r.Rigidity, 1e-9)
	assert.False(t, r.WarnUnderinflation)
	assert.False(t, r.WarnOverinflation)

	low := Rigidity(100, 3.0, p)
	assert.True(t, low.WarnUnderinflation)

	high := Rigidity(3000, 3.0, p)
	assert.True(t, high.WarnOverinflation)
}

func TestEvaluateAbsoluteAndRelative(t *testing.T) {
	p := DefaultParameters()

	good := EvaluateAbsoluteAndRelative(250, 42, Imbalances{10, 12, 8}, p)
	assert.True(t, good.OverallPass)

	weakPhase := EvaluateAbsoluteAndRelative(250, 30, Imbalances{10, 12, 8}, p)
	assert.False(t, weakPhase.AbsolutePass)
	assert.False(t, weakPhase.OverallPass)

	softTire := EvaluateAbsoluteAndRelative(120, 42, Imbalances{10, 12, 8}, p)
	assert.False(t, softTire.RigidityPass)
	assert.False(t, softTire.OverallPass)

	lopsided := EvaluateAbsoluteAndRelative(250, 42, Imbalances{35, 12, 8}, p)
	assert.False(t, lopsided.RelativePass)
	assert.False(t, lopsided.OverallPass)
}
