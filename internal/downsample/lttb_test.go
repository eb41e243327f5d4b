package downsample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineSeries(n int) ([]float64, []float64) {
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i) * 0.001
		y[i] = math.Sin(2 * math.Pi * 5 * x[i])
	}
	return x, y
}

func TestDownsampleKeepsEndpoints(t *testing.T) {
	x, y := sineSeries(1000)
	idx := Downsample(x, y, 100)

	require.Len(t, idx, 100)
	assert.Equal(t, 0, idx[0])
	assert.Equal(t, 999, idx[len(idx)-1])
}

func TestDownsampleStrictlyIncreasing(t *testing.T) {
	x, y := sineSeries(1000)
	idx := Downsample(x, y, 50)

	for i := 1; i < len(idx); i++ {
		assert.Greater(t, idx[i], idx[i-1])
	}
}

func TestDownsampleSmallInputsReturnedAsIs(t *testing.T) {
	x, y := sineSeries(10)

	idx := Downsample(x, y, 20)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, idx)

	idx = Downsample(x[:1], y[:1], 20)
	assert.Equal(t, []int{0}, idx)

	idx = Downsample(nil, nil, 20)
	assert.Nil(t, idx)
}

func TestDownsampleTinyTargets(t *testing.T) {
	x, y := sineSeries(100)

	assert.Equal(t, []int{0}, Downsample(x, y, 1))
	assert.Equal(t, []int{0, 99}, Downsample(x, y, 2))
}

func TestDownsampleKeepsExtremes(t *testing.T) {
	// A single spike must survive aggressive reduction.
	n := 1000
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
	}
	y[500] = 100.0

	idx := Downsample(x, y, 20)
	found := false
	for _, i := range idx {
		if i == 500 {
			found = true
		}
	}
	assert.True(t, found, "spike index dropped by downsampling")
}

func TestApply(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{5, 6, 7, 8, 9}

	outX, outY := Apply(x, y, []int{0, 2, 4})
	assert.Equal(t, []float64{0, 2, 4}, outX)
	assert.Equal(t, []float64{5, 7, 9}, outY)
}

func TestDownsampleMismatchedLengths(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	y := []float64{0, 1, 2, 3}

	idx := Downsample(x, y, 100)
	assert.Len(t, idx, 4)
}
