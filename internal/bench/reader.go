package bench

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// PLCClient is the subset of the S7 client the bench layer uses.
type PLCClient interface {
	AGWriteDB(dbNumber, byteOffset, size int, buffer []byte) error
	AGReadDB(dbNumber, byteOffset, size int, buffer []byte) error
}

// Reader reads the command block from the bench PLC.
type Reader struct {
	client PLCClient
}

func NewReader(client PLCClient) *Reader {
	return &Reader{client: client}
}

// ReadTag reads one typed value. For bools the optional bitOffset
// selects the bit within the byte.
func (r *Reader) ReadTag(dbNumber int, byteOffset int, dataType string, bitOffset ...int) (interface{}, error) {
	var size int

	switch dataType {
	case "real":
		size = 4
	case "dint", "int32", "dword", "uint32":
		size = 4
	case "int", "int16", "word", "uint16":
		size = 2
	case "sint", "int8", "usint", "byte", "uint8", "bool":
		size = 1
	default:
		return nil, fmt.Errorf("unsupported data type: %s", dataType)
	}

	buf := make([]byte, size)
	if err := r.client.AGReadDB(dbNumber, byteOffset, size, buf); err != nil {
		return nil, fmt.Errorf("failed to read PLC data (DB%d.%d): %w", dbNumber, byteOffset, err)
	}

	switch dataType {
	case "real":
		return math.Float32frombits(binary.BigEndian.Uint32(buf)), nil

	case "dint", "int32":
		return int32(binary.BigEndian.Uint32(buf)), nil

	case "dword", "uint32":
		return binary.BigEndian.Uint32(buf), nil

	case "int", "int16":
		return int16(binary.BigEndian.Uint16(buf)), nil

	case "word", "uint16":
		return binary.BigEndian.Uint16(buf), nil

	case "sint", "int8":
		return int8(buf[0]), nil

	case "usint", "byte", "uint8":
		return buf[0], nil

	case "bool":
		bit := 0
		if len(bitOffset) > 0 && bitOffset[0] >= 0 && bitOffset[0] <= 7 {
			bit = bitOffset[0]
		}
		return ((buf[0] >> uint(bit)) & 0x01) == 1, nil
	}

	return nil, fmt.Errorf("data type not implemented: %s", dataType)
}

// ReadCommands reads the whole DB100 command block in one request.
func (r *Reader) ReadCommands() (*models.BenchCommands, error) {
	buf := make([]byte, 6)
	if err := r.client.AGReadDB(100, 0, len(buf), buf); err != nil {
		return nil, fmt.Errorf("failed to read command block: %w", err)
	}

	cmd := &models.BenchCommands{
		StartLeft:   buf[0]&0x01 != 0,
		StartRight:  buf[0]&0x02 != 0,
		StopTest:    buf[0]&0x04 != 0,
		ClearBuffer: buf[0]&0x08 != 0,
		ResetErrors: buf[0]&0x10 != 0,
		Emergency:   buf[0]&0x80 != 0,

		MotorDuration: buf[1],
		VehicleClass:  buf[2],
		StaticWeight:  binary.BigEndian.Uint16(buf[4:6]),
	}

	return cmd, nil
}
