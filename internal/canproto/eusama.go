// Package canproto encodes and decodes the EUSAMA CAN frames spoken by
// the suspension test cabinet. All frames use 29-bit extended IDs built
// from the ASCII code 'EUS'.
package canproto

import (
	"fmt"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// BaseID is ASCII 'EUS' shifted left by 5 bits.
const BaseID uint32 = 0x08AAAA60

// Frame IDs relative to BaseID.
const (
	RawDataLeftID  = BaseID + 0
	RawDataRightID = BaseID + 1
	MotorStatusID  = BaseID + 6
	TopPositionID  = BaseID + 7

	// Command IDs, sent from the tester to the cabinet.
	MotorControlID   = BaseID + 0x11
	DisplayControlID = BaseID + 0x12
	LampControlID    = BaseID + 0x13
)

// Motor masks.
const (
	MotorStop  byte = 0x00
	MotorLeft  byte = 0x01
	MotorRight byte = 0x02
	MotorBoth  byte = 0x03
)

// Lamp masks.
const (
	LampLeft    byte = 0x01
	LampDriveIn byte = 0x02
	LampRight   byte = 0x04
)

// Top position masks.
const (
	TopLeft  byte = 0x01
	TopRight byte = 0x02
)

// Frame is one CAN frame with a 29-bit extended identifier.
type Frame struct {
	ID   uint32
	Data [8]byte
	Len  int
}

// Side selects the plate motor a command addresses.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	SideBoth  Side = "both"
	SideStop  Side = "stop"
)

// RawData is the decoded per-sample measurement frame.
type RawData struct {
	Position         string  // "front_left" or "front_right"
	PlatformPosition uint16  // 0-1023
	TireForce        uint16  // 0-1023
	Frequency        uint8   // Hz
	PhaseShift       float64 // degrees, 0-90
}

// MotorStatus reports which plate motors are running.
type MotorStatus struct {
	LeftRunning  bool
	RightRunning bool
}

// TopPosition reports which plates are at their top dead center.
type TopPosition struct {
	LeftTop  bool
	RightTop bool
}

// MotorCommand builds the frame that starts or stops the plate motors.
// duration is clamped to 0-255 seconds.
func MotorCommand(side Side, duration int) Frame {
	var mask byte
	switch side {
	case SideLeft:
		mask = MotorLeft
	case SideRight:
		mask = MotorRight
	case SideBoth:
		mask = MotorBoth
	default:
		mask = MotorStop
	}

	if duration < 0 {
		duration = 0
	}
	if duration > 255 {
		duration = 255
	}

	f := Frame{ID: MotorControlID, Len: 8}
	f.Data[0] = mask
	f.Data[1] = byte(duration)
	return f
}

// LampCommand builds the frame that switches the indicator lamps.
func LampCommand(left, driveIn, right bool) Frame {
	var mask byte
	if left {
		mask |= LampLeft
	}
	if driveIn {
		mask |= LampDriveIn
	}
	if right {
		mask |= LampRight
	}

	f := Frame{ID: LampControlID, Len: 8}
	f.Data[0] = mask
	return f
}

// DisplayCommand builds the frame that drives the cabinet displays.
// diff is clamped to 0-99, left and right to 0-999.
func DisplayCommand(diff, left, right int) Frame {
	diff = clamp(diff, 0, 99)
	left = clamp(left, 0, 999)
	right = clamp(right, 0, 999)

	f := Frame{ID: DisplayControlID, Len: 8}
	f.Data[0] = byte(diff)
	f.Data[2] = byte(left & 0xFF)
	f.Data[3] = byte(left >> 8)
	f.Data[5] = byte(right & 0xFF)
	f.Data[6] = byte(right >> 8)
	return f
}

// RawDataFrame builds a measurement frame, used by the simulator.
// Platform and force are clamped to the 10-bit DMS range.
func RawDataFrame(position string, platform, force uint16, frequency uint8, phaseDeg float64) Frame {
	id := RawDataLeftID
	if position == "front_right" {
		id = RawDataRightID
	}
	if platform > 1023 {
		platform = 1023
	}
	if force > 1023 {
		force = 1023
	}

	phase := int(phaseDeg/90.0*255.0 + 0.5)
	phase = clamp(phase, 0, 255)

	f := Frame{ID: id, Len: 8}
	f.Data[0] = byte(platform & 0xFF)
	f.Data[1] = byte(platform >> 8)
	f.Data[2] = byte(force & 0xFF)
	f.Data[3] = byte(force >> 8)
	f.Data[4] = frequency
	f.Data[5] = byte(phase)
	return f
}

// ParseRawData decodes a measurement frame from either plate.
func ParseRawData(f Frame) (RawData, error) {
	if f.ID != RawDataLeftID && f.ID != RawDataRightID {
		return RawData{}, fmt.Errorf("unexpected frame id 0x%08X", f.ID)
	}
	if f.Len < 8 {
		return RawData{}, fmt.Errorf("raw data frame too short: %d bytes", f.Len)
	}

	position := "front_left"
	if f.ID == RawDataRightID {
		position = "front_right"
	}

	return RawData{
		Position:         position,
		PlatformPosition: uint16(f.Data[1])<<8 | uint16(f.Data[0]),
		TireForce:        uint16(f.Data[3])<<8 | uint16(f.Data[2]),
		Frequency:        f.Data[4],
		PhaseShift:       float64(f.Data[5]) * (90.0 / 255.0),
	}, nil
}

// ParseMotorStatus decodes a motor status frame.
func ParseMotorStatus(f Frame) (MotorStatus, error) {
	if f.ID != MotorStatusID {
		return MotorStatus{}, fmt.Errorf("unexpected frame id 0x%08X", f.ID)
	}
	if f.Len < 8 {
		return MotorStatus{}, fmt.Errorf("motor status frame too short: %d bytes", f.Len)
	}

	return MotorStatus{
		LeftRunning:  f.Data[0]&MotorLeft != 0,
		RightRunning: f.Data[0]&MotorRight != 0,
	}, nil
}

// ParseTopPosition decodes a top position frame.
func ParseTopPosition(f Frame) (TopPosition, error) {
	if f.ID != TopPositionID {
		return TopPosition{}, fmt.Errorf("unexpected frame id 0x%08X", f.ID)
	}
	if f.Len < 1 {
		return TopPosition{}, fmt.Errorf("top position frame too short: %d bytes", f.Len)
	}

	return TopPosition{
		LeftTop:  f.Data[0]&TopLeft != 0,
		RightTop: f.Data[0]&TopRight != 0,
	}, nil
}

// ToRecord converts decoded raw data into a sample record with the
// given timestamp in seconds.
func (d RawData) ToRecord(timestamp float64) models.SampleRecord {
	t := timestamp
	platform := float64(d.PlatformPosition)
	force := float64(d.TireForce)
	freq := float64(d.Frequency)
	phase := d.PhaseShift
	return models.SampleRecord{
		Timestamp:        &t,
		PlatformPosition: &platform,
		TireForce:        &force,
		Frequency:        &freq,
		PhaseShift:       &phase,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
