package storage

import "github.com/aeriscode/litescan/internal/errs"

// ReadVarint decodes a big-endian 1-to-9-byte variable-length integer from
// buf starting at offset. It returns the decoded value, the number of
// bytes consumed, and an error if the buffer ends mid-varint.
func ReadVarint(buf []byte, offset int) (int64, int, error) {
	var result uint64
	for i := 0; i < 9; i++ {
		if offset+i >= len(buf) {
			return 0, 0, errs.New("varint.read", errs.Truncated, nil, map[string]interface{}{"offset": offset, "byte_index": i})
		}
		b := buf[offset+i]
		if i == 8 {
			result = (result << 8) | uint64(b)
			return int64(result), i + 1, nil
		}
		result = (result << 7) | uint64(b&0x7F)
		if b&0x80 == 0 {
			return int64(result), i + 1, nil
		}
	}
	return int64(result), 9, nil
}

// ReadVarintFrom decodes a varint from a Cursor, advancing it past the
// bytes consumed.
func ReadVarintFrom(c *Cursor) (int64, error) {
	// Varints are at most 9 bytes; peek the most we can and decode from
	// that window so we never read more than is available.
	n := c.Len()
	if n > 9 {
		n = 9
	}
	window, err := c.Peek(n)
	if err != nil {
		return 0, err
	}
	val, used, err := ReadVarint(window, 0)
	if err != nil {
		return 0, err
	}
	if _, err := c.Read(used); err != nil {
		return 0, err
	}
	return val, nil
}
