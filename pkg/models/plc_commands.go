package models

import "time"

// BenchCommands are the command bits the bench PLC raises (DB100).
type BenchCommands struct {
	StartLeft   bool `json:"startLeft"`   // DB100.0.0
	StartRight  bool `json:"startRight"`  // DB100.0.1
	StopTest    bool `json:"stopTest"`    // DB100.0.2
	ClearBuffer bool `json:"clearBuffer"` // DB100.0.3
	ResetErrors bool `json:"resetErrors"` // DB100.0.4
	Emergency   bool `json:"emergency"`   // DB100.0.7

	MotorDuration uint8  `json:"motorDuration"` // DB100.1, seconds
	VehicleClass  uint8  `json:"vehicleClass"`  // DB100.2
	StaticWeight  uint16 `json:"staticWeight"`  // DB100.4, AD counts
}

// BenchStatus is the status block written back to the PLC (DB200).
type BenchStatus struct {
	// Byte 0 - status bits.
	LiveBit       bool `json:"liveBit"`       // DB200.0.0
	TestActive    bool `json:"testActive"`    // DB200.0.1
	PLCConnected  bool `json:"plcConnected"`  // DB200.0.2
	NATSConnected bool `json:"natsConnected"` // DB200.0.3
	Passing       bool `json:"passing"`       // DB200.0.4
	SystemHealthy bool `json:"systemHealthy"` // DB200.0.5

	// Counters, DINT.
	SampleCount   int32 `json:"sampleCount"`   // DB200.2
	ErrorCount    int32 `json:"errorCount"`    // DB200.6
	UptimeSeconds int32 `json:"uptimeSeconds"` // DB200.10

	// Evaluation values, REAL.
	MinPhaseShift float32 `json:"minPhaseShift"` // DB200.14
	MinPhaseFreq  float32 `json:"minPhaseFreq"`  // DB200.18
	QualityIndex  float32 `json:"qualityIndex"`  // DB200.22

	// Timestamp split into two DINT words.
	TimestampHigh int32 `json:"timestampHigh"` // DB200.26
	TimestampLow  int32 `json:"timestampLow"`  // DB200.30
}

// SystemCommand identifies an internal control action.
type SystemCommand int

const (
	CmdStartLeft SystemCommand = iota
	CmdStartRight
	CmdStopTest
	CmdClearBuffer
	CmdResetErrors
	CmdEmergencyStop
)

// SystemError wraps a component error for reporting.
type SystemError struct {
	Code      int16     `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
}

// ConvertTimestampToPLC splits an int64 timestamp into high/low words.
func ConvertTimestampToPLC(timestamp int64) (high, low int32) {
	high = int32(timestamp >> 32)
	low = int32(timestamp & 0xFFFFFFFF)
	return
}

// ConvertTimestampFromPLC joins high/low words into an int64 timestamp.
func ConvertTimestampFromPLC(high, low int32) int64 {
	return (int64(high) << 32) | int64(uint32(low))
}
