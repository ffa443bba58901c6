package storage

import (
	"fmt"
	"math"

	"golang.org/x/text/encoding/unicode"

	"github.com/aeriscode/litescan/internal/errs"
)

// ValueKind classifies a decoded record field.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

// Value is a single decoded record field. Exactly one of Int/Float/Bytes is
// meaningful, selected by Kind.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Bytes []byte
}

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value the way the console output sink does: empty for
// NULL, decimal for integers, Go's default float format for floats, and the
// raw bytes (already transcoded to UTF-8 for text) otherwise.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindText, KindBlob:
		return string(v.Bytes)
	default:
		return ""
	}
}

// serialTypeSize returns the number of payload bytes a given serial type
// occupies, per the table in SPEC_FULL.md §3.
func serialTypeSize(serialType int64) (int, error) {
	switch {
	case serialType == 0, serialType == 8, serialType == 9:
		return 0, nil
	case serialType >= 1 && serialType <= 4:
		return int(serialType), nil
	case serialType == 5:
		return 6, nil
	case serialType == 6, serialType == 7:
		return 8, nil
	case serialType == 10 || serialType == 11:
		return 0, errs.New("serialtype.size", errs.CorruptRecord, fmt.Errorf("reserved serial type %d", serialType), nil)
	case serialType >= 12 && serialType%2 == 0:
		return int((serialType - 12) / 2), nil
	case serialType >= 13 && serialType%2 == 1:
		return int((serialType - 13) / 2), nil
	default:
		return 0, errs.New("serialtype.size", errs.CorruptRecord, fmt.Errorf("invalid serial type %d", serialType), nil)
	}
}

// decodeField decodes one field of the given serial type from data, whose
// length must already equal serialTypeSize(serialType). textEncoding is one
// of the TextEncoding* constants, used for TEXT fields only.
func decodeField(serialType int64, data []byte, textEncoding uint32) (Value, error) {
	switch {
	case serialType == 0:
		return Value{Kind: KindNull}, nil
	case serialType == 8:
		return Value{Kind: KindInteger, Int: 0}, nil
	case serialType == 9:
		return Value{Kind: KindInteger, Int: 1}, nil
	case serialType >= 1 && serialType <= 6:
		return Value{Kind: KindInteger, Int: decodeSignedInt(data)}, nil
	case serialType == 7:
		if len(data) != 8 {
			return Value{}, errs.New("serialtype.decode", errs.CorruptRecord, fmt.Errorf("float field needs 8 bytes, got %d", len(data)), nil)
		}
		bits := uint64(data[0])<<56 | uint64(data[1])<<48 | uint64(data[2])<<40 | uint64(data[3])<<32 |
			uint64(data[4])<<24 | uint64(data[5])<<16 | uint64(data[6])<<8 | uint64(data[7])
		return Value{Kind: KindFloat, Float: math.Float64frombits(bits)}, nil
	case serialType == 10 || serialType == 11:
		return Value{}, errs.New("serialtype.decode", errs.CorruptRecord, fmt.Errorf("reserved serial type %d", serialType), nil)
	case serialType >= 12 && serialType%2 == 0:
		return Value{Kind: KindBlob, Bytes: data}, nil
	case serialType >= 13 && serialType%2 == 1:
		text, err := decodeText(data, textEncoding)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindText, Bytes: text}, nil
	default:
		return Value{}, errs.New("serialtype.decode", errs.CorruptRecord, fmt.Errorf("invalid serial type %d", serialType), nil)
	}
}

// decodeSignedInt decodes a big-endian two's-complement integer of widths
// 1, 2, 3, 4, 6 or 8 bytes, sign-extending widths 3 and 6 from their top bit.
func decodeSignedInt(data []byte) int64 {
	switch len(data) {
	case 1:
		return int64(int8(data[0]))
	case 2:
		return int64(int16(uint16(data[0])<<8 | uint16(data[1])))
	case 3:
		v := int64(data[0])<<16 | int64(data[1])<<8 | int64(data[2])
		if data[0]&0x80 != 0 {
			v |= ^int64(0xFFFFFF)
		}
		return v
	case 4:
		v := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
		return int64(int32(v))
	case 6:
		v := int64(data[0])<<40 | int64(data[1])<<32 | int64(data[2])<<24 | int64(data[3])<<16 | int64(data[4])<<8 | int64(data[5])
		if data[0]&0x80 != 0 {
			v |= ^int64(0xFFFFFFFFFFFF)
		}
		return v
	case 8:
		v := uint64(data[0])<<56 | uint64(data[1])<<48 | uint64(data[2])<<40 | uint64(data[3])<<32 |
			uint64(data[4])<<24 | uint64(data[5])<<16 | uint64(data[6])<<8 | uint64(data[7])
		return int64(v)
	default:
		var v int64
		for _, b := range data {
			v = v<<8 | int64(b)
		}
		return v
	}
}

// decodeText transcodes raw TEXT bytes to UTF-8 according to the database
// header's declared encoding.
func decodeText(data []byte, textEncoding uint32) ([]byte, error) {
	switch textEncoding {
	case 0, TextEncodingUTF8:
		return data, nil
	case TextEncodingUTF16LE:
		return transcodeUTF16(data, unicode.LittleEndian)
	case TextEncodingUTF16BE:
		return transcodeUTF16(data, unicode.BigEndian)
	default:
		return nil, errs.New("serialtype.decodeText", errs.Unsupported, fmt.Errorf("unknown text encoding %d", textEncoding), nil)
	}
}

func transcodeUTF16(data []byte, endian unicode.Endianness) ([]byte, error) {
	decoder := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(data)
	if err != nil {
		return nil, errs.New("serialtype.decodeText", errs.CorruptRecord, err, nil)
	}
	return out, nil
}
