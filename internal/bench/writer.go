package bench

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// Writer mirrors the tester status into the PLC status block.
type Writer struct {
	client PLCClient
}

func NewWriter(client PLCClient) *Writer {
	return &Writer{client: client}
}

// WriteTag writes one typed value. Bool writes read-modify-write the
// containing byte.
func (w *Writer) WriteTag(dbNumber int, byteOffset int, dataType string, value interface{}, bitOffset ...int) error {
	if value == nil {
		return fmt.Errorf("value must not be nil")
	}

	var buf []byte
	var err error

	switch dataType {
	case "real":
		buf, err = convertReal(value)
	case "dint", "int32":
		buf, err = convertDint(value)
	case "dword", "uint32":
		buf, err = convertDword(value)
	case "int", "int16":
		buf, err = convertInt16(value)
	case "word", "uint16":
		buf, err = convertWord(value)
	case "usint", "byte", "uint8":
		buf, err = convertUsint(value)
	case "bool":
		return w.writeBool(dbNumber, byteOffset, value, bitOffset...)
	default:
		return fmt.Errorf("unsupported data type: %s", dataType)
	}

	if err != nil {
		return fmt.Errorf("conversion to %s failed: %v", dataType, err)
	}

	return w.client.AGWriteDB(dbNumber, byteOffset, len(buf), buf)
}

func (w *Writer) writeBool(dbNumber, byteOffset int, value interface{}, bitOffset ...int) error {
	v, ok := value.(bool)
	if !ok {
		return fmt.Errorf("incompatible type for bool: %T", value)
	}

	bit := 0
	if len(bitOffset) > 0 && bitOffset[0] >= 0 && bitOffset[0] <= 7 {
		bit = bitOffset[0]
	}

	buf := make([]byte, 1)
	if err := w.client.AGReadDB(dbNumber, byteOffset, 1, buf); err != nil {
		return fmt.Errorf("failed to read byte for bit write: %w", err)
	}

	if v {
		buf[0] |= 1 << uint(bit)
	} else {
		buf[0] &^= 1 << uint(bit)
	}

	return w.client.AGWriteDB(dbNumber, byteOffset, 1, buf)
}

// WriteStatus writes the whole DB200 status block in one request.
func (w *Writer) WriteStatus(status models.BenchStatus) error {
	buf := make([]byte, 34)

	var bits byte
	if status.LiveBit {
		bits |= 0x01
	}
	if status.TestActive {
		bits |= 0x02
	}
	if status.PLCConnected {
		bits |= 0x04
	}
	if status.NATSConnected {
		bits |= 0x08
	}
	if status.Passing {
		bits |= 0x10
	}
	if status.SystemHealthy {
		bits |= 0x20
	}
	buf[0] = bits

	binary.BigEndian.PutUint32(buf[2:6], uint32(status.SampleCount))
	binary.BigEndian.PutUint32(buf[6:10], uint32(status.ErrorCount))
	binary.BigEndian.PutUint32(buf[10:14], uint32(status.UptimeSeconds))

	binary.BigEndian.PutUint32(buf[14:18], math.Float32bits(status.MinPhaseShift))
	binary.BigEndian.PutUint32(buf[18:22], math.Float32bits(status.MinPhaseFreq))
	binary.BigEndian.PutUint32(buf[22:26], math.Float32bits(status.QualityIndex))

	binary.BigEndian.PutUint32(buf[26:30], uint32(status.TimestampHigh))
	binary.BigEndian.PutUint32(buf[30:34], uint32(status.TimestampLow))

	if err := w.client.AGWriteDB(200, 0, len(buf), buf); err != nil {
		return fmt.Errorf("failed to write status block: %w", err)
	}

	return nil
}

func convertReal(value interface{}) ([]byte, error) {
	var val float32

	switch v := value.(type) {
	case float32:
		val = v
	case float64:
		val = float32(v)
	case int:
		val = float32(v)
	default:
		return nil, fmt.Errorf("incompatible type for real: %T", value)
	}

	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(val))
	return buf, nil
}

func convertDint(value interface{}) ([]byte, error) {
	var val int32

	switch v := value.(type) {
	case int32:
		val = v
	case int:
		val = int32(v)
	case int64:
		val = int32(v)
	default:
		return nil, fmt.Errorf("incompatible type for dint: %T", value)
	}

	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(val))
	return buf, nil
}

func convertDword(value interface{}) ([]byte, error) {
	var val uint32

	switch v := value.(type) {
	case uint32:
		val = v
	case int:
		if v < 0 {
			return nil, fmt.Errorf("negative value for uint32")
		}
		val = uint32(v)
	default:
		return nil, fmt.Errorf("incompatible type for dword: %T", value)
	}

	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, val)
	return buf, nil
}

func convertInt16(value interface{}) ([]byte, error) {
	var val int16

	switch v := value.(type) {
	case int16:
		val = v
	case int:
		val = int16(v)
	default:
		return nil, fmt.Errorf("incompatible type for int16: %T", value)
	}

	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(val))
	return buf, nil
}

func convertWord(value interface{}) ([]byte, error) {
	var val uint16

	switch v := value.(type) {
	case uint16:
		val = v
	case int:
		if v < 0 || v > 0xFFFF {
			return nil, fmt.Errorf("value out of range for uint16")
		}
		val = uint16(v)
	default:
		return nil, fmt.Errorf("incompatible type for word: %T", value)
	}

	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, val)
	return buf, nil
}

func convertUsint(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case byte:
		return []byte{v}, nil
	case int:
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("value out of range for byte")
		}
		return []byte{byte(v)}, nil
	default:
		return nil, fmt.Errorf("incompatible type for byte: %T", value)
	}
}
