package utils

import (
	"fmt"
	"log/slog"
	"math"
)

// AD converter ranges of the bench electronics.
const (
	// 10-bit AD range of the DMS amplifiers.
	ADMax = 1023

	// AD midpoint representing zero platform deflection.
	ADMidpoint = 512.0

	// Default scale factors of the measurement electronics.
	DefaultForceScale    = 9.80665 // N per AD count
	DefaultPositionScale = 0.0125  // mm per AD count around the midpoint
)

// ConversionError describes a failed unit conversion.
type ConversionError struct {
	Input     float64
	Operation string
	Err       error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion %s failed for input %v: %v",
		e.Operation, e.Input, e.Err)
}

// UnitConverter translates between raw AD counts of the bench
// electronics and physical units.
type UnitConverter struct {
	logger        *slog.Logger
	debugMode     bool
	forceScale    float64
	positionScale float64
}

// NewUnitConverter creates a converter with the default bench scales.
func NewUnitConverter(debugMode bool, logger *slog.Logger) *UnitConverter {
	if logger == nil {
		logger = slog.Default()
	}

	return &UnitConverter{
		logger:        logger.With("component", "unit_converter"),
		debugMode:     debugMode,
		forceScale:    DefaultForceScale,
		positionScale: DefaultPositionScale,
	}
}

// SetScales overrides the calibration factors.
func (uc *UnitConverter) SetScales(forceScale, positionScale float64) error {
	if forceScale <= 0 || positionScale <= 0 {
		return fmt.Errorf("scales must be positive: force=%v position=%v", forceScale, positionScale)
	}
	uc.forceScale = forceScale
	uc.positionScale = positionScale
	return nil
}

// CountsToForce converts a 10-bit force reading to newtons.
func (uc *UnitConverter) CountsToForce(counts float64) (float64, error) {
	if counts < 0 || counts > ADMax {
		return 0, &ConversionError{counts, "CountsToForce", fmt.Errorf("outside 10-bit range")}
	}

	result := counts * uc.forceScale

	if uc.debugMode {
		uc.logger.Debug("CountsToForce",
			"counts", counts,
			"newtons", result,
		)
	}

	return result, nil
}

// ForceToCounts converts newtons back to AD counts, clamped to the
// 10-bit range.
func (uc *UnitConverter) ForceToCounts(newtons float64) uint16 {
	counts := newtons / uc.forceScale
	if counts < 0 {
		counts = 0
	}
	if counts > ADMax {
		counts = ADMax
	}
	return uint16(counts + 0.5)
}

// CountsToPosition converts a 10-bit platform reading to millimetres
// around the midpoint.
func (uc *UnitConverter) CountsToPosition(counts float64) (float64, error) {
	if counts < 0 || counts > ADMax {
		return 0, &ConversionError{counts, "CountsToPosition", fmt.Errorf("outside 10-bit range")}
	}

	result := (counts - ADMidpoint) * uc.positionScale

	if uc.debugMode {
		uc.logger.Debug("CountsToPosition",
			"counts", counts,
			"millimetres", result,
		)
	}

	return result, nil
}

// PositionToCounts converts millimetres back to AD counts, clamped to
// the 10-bit range.
func (uc *UnitConverter) PositionToCounts(mm float64) uint16 {
	counts := mm/uc.positionScale + ADMidpoint
	if counts < 0 {
		counts = 0
	}
	if counts > ADMax {
		counts = ADMax
	}
	return uint16(counts + 0.5)
}

// PercentDifference returns the relative difference of two values in
// percent of the larger one. Returns 0 when both are 0.
func PercentDifference(a, b float64) float64 {
	maxVal := math.Max(math.Abs(a), math.Abs(b))
	if maxVal == 0 {
		return 0
	}
	return math.Abs(a-b) / maxVal * 100.0
}

// DaNToNewton converts decanewtons to newtons.
func DaNToNewton(daN float64) float64 { return daN * 10.0 }

// NewtonToDaN converts newtons to decanewtons.
func NewtonToDaN(n float64) float64 { return n / 10.0 }
