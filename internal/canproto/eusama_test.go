package canproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameIDs(t *testing.T) {
	assert.Equal(t, uint32(0x08AAAA60), RawDataLeftID)
	assert.Equal(t, uint32(0x08AAAA61), RawDataRightID)
	assert.Equal(t, uint32(0x08AAAA66), MotorStatusID)
	assert.Equal(t, uint32(0x08AAAA67), TopPositionID)
	assert.Equal(t, uint32(0x08AAAA71), MotorControlID)
	assert.Equal(t, uint32(0x08AAAA72), DisplayControlID)
	assert.Equal(t, uint32(0x08AAAA73), LampControlID)
}

func TestMotorCommand(t *testing.T) {
	f := MotorCommand(SideLeft, 10)
	assert.Equal(t, MotorControlID, f.ID)
	assert.Equal(t, MotorLeft, f.Data[0])
	assert.Equal(t, byte(10), f.Data[1])

	f = MotorCommand(SideStop, 500)
	assert.Equal(t, MotorStop, f.Data[0])
	assert.Equal(t, byte(255), f.Data[1], "duration clamps to one byte")

	f = MotorCommand(SideBoth, -1)
	assert.Equal(t, MotorBoth, f.Data[0])
	assert.Equal(t, byte(0), f.Data[1])
}

func TestLampCommand(t *testing.T) {
	f := LampCommand(true, false, true)
	assert.Equal(t, LampControlID, f.ID)
	assert.Equal(t, LampLeft|LampRight, f.Data[0])

	f = LampCommand(false, true, false)
	assert.Equal(t, LampDriveIn, f.Data[0])
}

func TestDisplayCommand(t *testing.T) {
	f := DisplayCommand(42, 750, 999)
	assert.Equal(t, DisplayControlID, f.ID)
	assert.Equal(t, byte(42), f.Data[0])
	assert.Equal(t, 750, int(f.Data[2])|int(f.Data[3])<<8)
	assert.Equal(t, 999, int(f.Data[5])|int(f.Data[6])<<8)

	f = DisplayCommand(150, 5000, -2)
	assert.Equal(t, byte(99), f.Data[0])
	assert.Equal(t, 999, int(f.Data[2])|int(f.Data[3])<<8)
	assert.Equal(t, 0, int(f.Data[5])|int(f.Data[6])<<8)
}

func TestRawDataRoundTrip(t *testing.T) {
	f := RawDataFrame("front_right", 767, 512, 12, 45.0)
	require.Equal(t, RawDataRightID, f.ID)

	d, err := ParseRawData(f)
	require.NoError(t, err)

	assert.Equal(t, "front_right", d.Position)
	assert.Equal(t, uint16(767), d.PlatformPosition)
	assert.Equal(t, uint16(512), d.TireForce)
	assert.Equal(t, uint8(12), d.Frequency)
	assert.InDelta(t, 45.0, d.PhaseShift, 0.2)
}

func TestParseRawDataRejectsShortFrame(t *testing.T) {
	f := Frame{ID: RawDataLeftID, Len: 4}
	_, err := ParseRawData(f)
	assert.Error(t, err)

	f = Frame{ID: MotorControlID, Len: 8}
	_, err = ParseRawData(f)
	assert.Error(t, err)
}

func TestParseMotorStatus(t *testing.T) {
	f := Frame{ID: MotorStatusID, Len: 8}
	f.Data[0] = MotorLeft

	st, err := ParseMotorStatus(f)
	require.NoError(t, err)
	assert.True(t, st.LeftRunning)
	assert.False(t, st.RightRunning)
}

func TestParseTopPosition(t *testing.T) {
	f := Frame{ID: TopPositionID, Len: 1}
	f.Data[0] = TopLeft | TopRight

	tp, err := ParseTopPosition(f)
	require.NoError(t, err)
	assert.True(t, tp.LeftTop)
	assert.True(t, tp.RightTop)
}

func TestRawDataToRecord(t *testing.T) {
	d := RawData{
		Position:         "front_left",
		PlatformPosition: 600,
		TireForce:        512,
		Frequency:        15,
		PhaseShift:       38.5,
	}

	rec := d.ToRecord(1.25)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, 1.25, *rec.Timestamp)
	assert.Equal(t, 600.0, *rec.PlatformPosition)
	assert.Equal(t, 512.0, *rec.TireForce)
	assert.Equal(t, 15.0, *rec.Frequency)
	assert.Equal(t, 38.5, *rec.PhaseShift)
}
