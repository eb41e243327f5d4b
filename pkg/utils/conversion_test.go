package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsToForceRoundTrip(t *testing.T) {
	uc := NewUnitConverter(false, nil)

	n, err := uc.CountsToForce(512)
	require.NoError(t, err)
	assert.InDelta(t, 512*DefaultForceScale, n, 0.001)

	assert.Equal(t, uint16(512), uc.ForceToCounts(n))
}

func TestCountsToForceRange(t *testing.T) {
	uc := NewUnitConverter(false, nil)

	_, err := uc.CountsToForce(-1)
	assert.Error(t, err)
	_, err = uc.CountsToForce(1024)
	assert.Error(t, err)

	assert.Equal(t, uint16(0), uc.ForceToCounts(-100))
	assert.Equal(t, uint16(ADMax), uc.ForceToCounts(1e9))
}

func TestCountsToPosition(t *testing.T) {
	uc := NewUnitConverter(false, nil)

	mm, err := uc.CountsToPosition(512)
	require.NoError(t, err)
	assert.Equal(t, 0.0, mm)

	mm, err = uc.CountsToPosition(752)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, mm, 0.001)

	assert.Equal(t, uint16(752), uc.PositionToCounts(3.0))
}

func TestSetScales(t *testing.T) {
	uc := NewUnitConverter(false, nil)

	assert.Error(t, uc.SetScales(0, 1))
	assert.Error(t, uc.SetScales(1, -1))
	require.NoError(t, uc.SetScales(2.0, 0.01))

	n, err := uc.CountsToForce(100)
	require.NoError(t, err)
	assert.Equal(t, 200.0, n)
}

func TestPercentDifference(t *testing.T) {
	assert.Equal(t, 0.0, PercentDifference(0, 0))
	assert.InDelta(t, 50.0, PercentDifference(100, 50), 0.001)
	assert.InDelta(t, 50.0, PercentDifference(50, 100), 0.001)
	assert.InDelta(t, 100.0, PercentDifference(0, 80), 0.001)
}

func TestDaNConversion(t *testing.T) {
	assert.Equal(t, 250.0, DaNToNewton(25.0))
	assert.Equal(t, 25.0, NewtonToDaN(250.0))
}
