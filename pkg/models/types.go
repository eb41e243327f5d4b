package models

import "time"

// Evaluation is the coarse EGEA verdict attached to a test session.
type Evaluation string

const (
	EvaluationInsufficientData Evaluation = "insufficient_data"
	EvaluationStarting         Evaluation = "starting_test"
	EvaluationPassing          Evaluation = "passing"
	EvaluationFailing          Evaluation = "failing"
	EvaluationUnknown          Evaluation = "unknown"
)

// Sample is one synchronized observation of the test bench. All five
// values belong to the same instant and are stored in the same buffer slot.
type Sample struct {
	Time             float64 `json:"time"`              // seconds, monotonic within a session
	PlatformPosition float64 `json:"platform_position"` // mm
	TireForce        float64 `json:"tire_force"`        // N
	Frequency        float64 `json:"frequency"`         // Hz, 0 when not applicable
	PhaseShift       float64 `json:"phase_shift"`       // degrees, 0 when not applicable
}

// SampleRecord is the wire-shaped record the transport layer delivers.
// Missing numeric fields default to zero; a missing timestamp defaults
// to "now" at conversion time. StaticWeight, when present, updates the
// session-level static weight.
type SampleRecord struct {
	Timestamp        *float64 `json:"timestamp,omitempty"`
	PlatformPosition *float64 `json:"platform_position,omitempty"`
	TireForce        *float64 `json:"tire_force,omitempty"`
	Frequency        *float64 `json:"frequency,omitempty"`
	PhaseShift       *float64 `json:"phase_shift,omitempty"`
	StaticWeight     *float64 `json:"static_weight,omitempty"`
}

// ToSample applies the defaulting rules. now is used when the record
// carries no timestamp.
func (r SampleRecord) ToSample(now time.Time) Sample {
	s := Sample{
		Time: float64(now.UnixNano()) / float64(time.Second),
	}
	if r.Timestamp != nil {
		s.Time = *r.Timestamp
	}
	if r.PlatformPosition != nil {
		s.PlatformPosition = *r.PlatformPosition
	}
	if r.TireForce != nil {
		s.TireForce = *r.TireForce
	}
	if r.Frequency != nil {
		s.Frequency = *r.Frequency
	}
	if r.PhaseShift != nil {
		s.PhaseShift = *r.PhaseShift
	}
	return s
}

// ChannelArrays holds a chronological copy of the five buffer channels.
// All slices have equal length.
type ChannelArrays struct {
	Time             []float64 `json:"time"`
	PlatformPosition []float64 `json:"platform_position"`
	TireForce        []float64 `json:"tire_force"`
	Frequency        []float64 `json:"frequency"`
	PhaseShift       []float64 `json:"phase_shift"`
}

// Len returns the number of points carried by the arrays.
func (c ChannelArrays) Len() int { return len(c.Time) }

// EGEAStatus is the shared, externally readable result record of a
// test session. MinPhaseShift and MinPhaseFreq are nil until the first
// successful analysis.
type EGEAStatus struct {
	MinPhaseShift *float64   `json:"min_phase_shift"`
	MinPhaseFreq  *float64   `json:"min_phase_freq"`
	QualityIndex  float64    `json:"quality_index"`
	Passing       bool       `json:"passing"`
	Evaluation    Evaluation `json:"evaluation"`
	CycleCount    uint32     `json:"cycle_count"`
}

// Clone returns a deep copy so readers never alias session-owned state.
func (s EGEAStatus) Clone() EGEAStatus {
	out := s
	if s.MinPhaseShift != nil {
		v := *s.MinPhaseShift
		out.MinPhaseShift = &v
	}
	if s.MinPhaseFreq != nil {
		v := *s.MinPhaseFreq
		out.MinPhaseFreq = &v
	}
	return out
}

// EvaluationResult is what an analysis task hands back through the
// worker pool callback.
type EvaluationResult struct {
	Success bool        `json:"success"`
	Status  *EGEAStatus `json:"status,omitempty"`
	Err     string      `json:"error,omitempty"`
}

// LiveData is the snapshot handed to consumers (GUI, publishers).
type LiveData struct {
	ChannelArrays
	EGEAStatus  EGEAStatus `json:"egea_status"`
	TestActive  bool       `json:"test_active"`
	Position    string     `json:"position,omitempty"`
	VehicleType string     `json:"vehicle_type,omitempty"`
	Timestamp   int64      `json:"timestamp"`
}

// PLCStatus reports the bench PLC connection to consumers.
type PLCStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// SystemStatus is published periodically on the status subject.
type SystemStatus struct {
	TestActive   bool       `json:"test_active"`
	Position     string     `json:"position,omitempty"`
	DataCount    int        `json:"data_count"`
	EGEA         EGEAStatus `json:"egea"`
	PLC          *PLCStatus `json:"plc,omitempty"`
	NATSConnect  bool       `json:"nats_connected"`
	WSClients    int        `json:"ws_clients"`
	UptimeSec    float64    `json:"uptime_sec"`
	Timestamp    int64      `json:"timestamp"`
	ErrorCount   int64      `json:"error_count"`
	SampleErrors int64      `json:"sample_errors"`
}
