// Package egea implements the SPECSUS2018 phase-shift damping test
// evaluation: damping-ratio math, per-cycle phase-shift analysis and the
// absolute/relative pass-fail criteria.
package egea

// Parameters carries the SPECSUS2018 constants the evaluation uses.
// It is plain data passed in by the caller; there is no global table.
type Parameters struct {
	// Frequency gate for cycle analysis (3.22, 5.4).
	MinCalcFreq float64 // Hz
	MaxCalcFreq float64 // Hz

	// Absolute phase-shift criterion ACφmin (5.5).
	PhaseShiftMin float64 // degrees

	// Static weight band per cycle, RFstFMax/RFstFMin (3.21).
	RFstFMaxPercent float64
	RFstFMinPercent float64

	// Tire rigidity model rig = arig·(H25/ep) + brig and limits (3.20).
	ARig              float64
	BRig              float64
	RigidityLow       float64 // N/mm
	RigidityHigh      float64 // N/mm
	PlatformAmplitude float64 // mm, ep

	// Relative left/right criteria ceilings in percent (5.6).
	RelAmplitudeMax float64
	RelPhaseMax     float64
	RelRigidityMax  float64

	// Minimum buffered points before any analysis runs.
	MinDataPoints int
}

// DefaultParameters returns the SPECSUS2018 defaults. MaxCalcFreq is
// 18 Hz, the value of the official parameter table; installations that
// measured with the older 25 Hz gate override it via configuration.
func DefaultParameters() Parameters {
	return Parameters{
		MinCalcFreq:       6.0,
		MaxCalcFreq:       18.0,
		PhaseShiftMin:     35.0,
		RFstFMaxPercent:   25.0,
		RFstFMinPercent:   25.0,
		ARig:              0.571,
		BRig:              46.0,
		RigidityLow:       160.0,
		RigidityHigh:      400.0,
		PlatformAmplitude: 3.0,
		RelAmplitudeMax:   30.0,
		RelPhaseMax:       30.0,
		RelRigidityMax:    35.0,
		MinDataPoints:     50,
	}
}
