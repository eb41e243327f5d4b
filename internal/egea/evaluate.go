package egea

// PhaseShiftRating is the verdict for a single measured minimum phase
// shift against the absolute EGEA criterion.
type PhaseShiftRating struct {
	Passing      bool    `json:"passing"`
	QualityIndex float64 `json:"quality_index"` // 0-100
	DampingRatio float64 `json:"damping_ratio"`
}

// EvaluatePhaseShift rates a phase angle against the pass threshold
// (35° per EGEA). The quality index is the phase relative to the
// threshold in percent, clamped to [0, 100].
func EvaluatePhaseShift(phaseDeg, threshold float64) PhaseShiftRating {
	quality := 0.0
	if threshold > 0 {
		quality = phaseDeg / threshold * 100.0
	}
	if quality > 100 {
		quality = 100
	}
	if quality < 0 {
		quality = 0
	}
	return PhaseShiftRating{
		Passing:      phaseDeg >= threshold,
		QualityIndex: quality,
		DampingRatio: DampingRatioFromPhaseShift(phaseDeg),
	}
}

// RigidityResult carries the tire rigidity estimate and the inflation
// warnings derived from the EGEA limits.
type RigidityResult struct {
	Rigidity           float64 `json:"rigidity"` // N/mm
	H25                float64 `json:"h25"`
	PlatformAmplitude  float64 `json:"platform_amplitude"`
	WarnUnderinflation bool    `json:"warning_underinflation"`
	WarnOverinflation  bool    `json:"warning_overinflation"`
}

// Rigidity applies rig = arig·(H25/ep) + brig (3.20). A zero platform
// amplitude falls back to the configured default.
func Rigidity(h25, platformAmplitude float64, p Parameters) RigidityResult {
	if platformAmplitude <= 0 {
		platformAmplitude = p.PlatformAmplitude
	}
	rig := p.ARig*(h25/platformAmplitude) + p.BRig
	return RigidityResult{
		Rigidity:           rig,
		H25:                h25,
		PlatformAmplitude:  platformAmplitude,
		WarnUnderinflation: rig < p.RigidityLow,
		WarnOverinflation:  rig > p.RigidityHigh,
	}
}

// Imbalances are the relative left/right differences of one axle, in
// percent of the larger side.
type Imbalances struct {
	AmplitudePercent float64 `json:"amplitude_percent"`
	PhasePercent     float64 `json:"phase_percent"`
	RigidityPercent  float64 `json:"rigidity_percent"`
}

// AxleVerdict is the combined absolute-plus-relative evaluation.
type AxleVerdict struct {
	AbsolutePass bool `json:"absolute_pass"`
	RigidityPass bool `json:"rigidity_pass"`
	RelativePass bool `json:"relative_pass"`
	OverallPass  bool `json:"overall_pass"`
}

// EvaluateAbsoluteAndRelative combines the criteria: φmin must reach the
// absolute threshold, rigidity must sit inside the inflation band, and
// every relative imbalance must stay below its configured ceiling.
func EvaluateAbsoluteAndRelative(rigidity, phaseMin float64, imb Imbalances, p Parameters) AxleVerdict {
	v := AxleVerdict{
		AbsolutePass: phaseMin >= p.PhaseShiftMin,
		RigidityPass: rigidity >= p.RigidityLow && rigidity <= p.RigidityHigh,
		RelativePass: imb.AmplitudePercent < p.RelAmplitudeMax &&
			imb.PhasePercent < p.RelPhaseMax &&
			imb.RigidityPercent < p.RelRigidityMax,
	}
	v.OverallPass = v.AbsolutePass && v.RigidityPass && v.RelativePass
	return v
}
