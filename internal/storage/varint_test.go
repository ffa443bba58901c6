package storage

import "testing"

func TestReadVarint(t *testing.T) {
	tests := []struct {
		name      string
		buf       []byte
		wantValue int64
		wantLen   int
	}{
		{"single byte zero", []byte{0x00}, 0, 1},
		{"single byte small", []byte{0x7f}, 127, 1},
		{"two byte", []byte{0x81, 0x00}, 128, 2},
		{"two byte max", []byte{0xff, 0x7f}, 16383, 2},
		{"nine byte full", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, -1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := ReadVarint(tt.buf, 0)
			if err != nil {
				t.Fatalf("ReadVarint() error = %v", err)
			}
			if got != tt.wantValue {
				t.Errorf("ReadVarint() value = %v, want %v", got, tt.wantValue)
			}
			if n != tt.wantLen {
				t.Errorf("ReadVarint() len = %v, want %v", n, tt.wantLen)
			}
		})
	}
}

func TestReadVarintOutOfRange(t *testing.T) {
	_, _, err := ReadVarint([]byte{0x81}, 0)
	if err == nil {
		t.Errorf("ReadVarint() with truncated buffer should return error")
	}
}

func TestReadVarintFrom(t *testing.T) {
	c := NewCursor([]byte{0x81, 0x00, 0xAB})
	v, err := ReadVarintFrom(c)
	if err != nil {
		t.Fatalf("ReadVarintFrom() error = %v", err)
	}
	if v != 128 {
		t.Errorf("ReadVarintFrom() = %v, want 128", v)
	}
	if c.Pos() != 2 {
		t.Errorf("cursor pos after ReadVarintFrom() = %v, want 2", c.Pos())
	}
}
