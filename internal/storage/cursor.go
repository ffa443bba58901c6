// Package storage implements the on-disk format: byte cursors, the file
// pager, the varint and serial-type codecs, the page decoder, and the
// B-tree walker.
package storage

import (
	"fmt"

	"github.com/aeriscode/litescan/internal/errs"
)

// Cursor is a read-only view over a fixed byte buffer plus a read offset.
// It never grows or shrinks its backing buffer; all bounds are checked
// against the buffer it was constructed with.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (c *Cursor) Len() int { return len(c.buf) - c.pos }

// Pos returns the current read offset.
func (c *Cursor) Pos() int { return c.pos }

// Seek moves the read offset to an absolute position within the buffer.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return errs.New("cursor.seek", errs.CorruptPage, fmt.Errorf("offset %d out of bounds [0,%d]", pos, len(c.buf)), nil)
	}
	c.pos = pos
	return nil
}

// Read returns the next n bytes and advances the offset.
func (c *Cursor) Read(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, errs.New("cursor.read", errs.CorruptPage, fmt.Errorf("read of %d bytes at offset %d exceeds buffer of %d", n, c.pos, len(c.buf)), nil)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Peek returns the next n bytes without advancing the offset.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, errs.New("cursor.peek", errs.CorruptPage, fmt.Errorf("peek of %d bytes at offset %d exceeds buffer of %d", n, c.pos, len(c.buf)), nil)
	}
	return c.buf[c.pos : c.pos+n], nil
}

// ReadByte returns a single byte and advances the offset.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Sub derives a new cursor over the next n bytes and advances this cursor
// past them ("consume a block and hand it to someone else").
func (c *Cursor) Sub(n int) (*Cursor, error) {
	b, err := c.Read(n)
	if err != nil {
		return nil, err
	}
	return NewCursor(b), nil
}

// SubAt derives a cursor over n bytes starting at an absolute offset,
// without disturbing this cursor's own position.
func (c *Cursor) SubAt(offset, n int) (*Cursor, error) {
	if offset < 0 || n < 0 || offset+n > len(c.buf) {
		return nil, errs.New("cursor.subAt", errs.CorruptPage, fmt.Errorf("range [%d,%d) out of bounds [0,%d]", offset, offset+n, len(c.buf)), nil)
	}
	return NewCursor(c.buf[offset : offset+n]), nil
}
