package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/aeriscode/litescan/internal/errs"
)

// HeaderSize is the fixed size of the database header that precedes page 1.
const HeaderSize = 100

// DatabaseHeader captures the fields of the 100-byte file header. The core
// only acts on PageSize and TextEncoding; the rest is read for diagnostics
// (see SPEC_FULL.md §12).
type DatabaseHeader struct {
	PageSize           uint32
	FileChangeCounter  uint32
	DatabaseSize       uint32
	FreelistTrunkPage  uint32
	FreelistPageCount  uint32
	SchemaCookie       uint32
	SchemaFormat       uint32
	TextEncoding       uint32
	UserVersion        uint32
	VersionValidFor    uint32
	SQLiteVersionNum   uint32
}

// TextEncoding values as stored in the database header.
const (
	TextEncodingUTF8    = 1
	TextEncodingUTF16LE = 2
	TextEncodingUTF16BE = 3
)

func parseHeader(buf []byte) (DatabaseHeader, error) {
	if len(buf) < HeaderSize {
		return DatabaseHeader{}, errs.New("pager.parseHeader", errs.Truncated, fmt.Errorf("header is %d bytes, need %d", len(buf), HeaderSize), nil)
	}
	be16 := func(off int) uint32 { return uint32(buf[off])<<8 | uint32(buf[off+1]) }
	be32 := func(off int) uint32 {
		return uint32(buf[off])<<24 | uint32(buf[off+1])<<16 | uint32(buf[off+2])<<8 | uint32(buf[off+3])
	}

	pageSize := be16(16)
	if pageSize == 1 {
		// SQLite encodes a 65536 page size as 1 since it doesn't fit in u16.
		pageSize = 65536
	}

	h := DatabaseHeader{
		PageSize:          pageSize,
		FileChangeCounter: be32(24),
		DatabaseSize:      be32(28),
		FreelistTrunkPage: be32(32),
		FreelistPageCount: be32(36),
		SchemaCookie:      be32(40),
		SchemaFormat:      be32(44),
		TextEncoding:      be32(56),
		UserVersion:       be32(60),
		VersionValidFor:   be32(92),
		SQLiteVersionNum:  be32(96),
	}
	if h.TextEncoding == 0 {
		h.TextEncoding = TextEncodingUTF8
	}
	return h, nil
}

// Pager owns the single file handle used to read fixed-size pages. ReadPage
// uses positional ReadAt calls into a fresh buffer and keeps no shared file
// offset, so concurrent ReadPage calls on one Pager are safe; the indexed
// scan's row-fetch workers share one Pager this way (SPEC_FULL.md §5).
type Pager struct {
	file     *os.File
	fileSize int64
	Header   DatabaseHeader
}

// Open reads the database header and returns a ready Pager. The caller is
// responsible for registering the returned Pager with a resource manager
// (or calling Close directly) so the file handle is released.
func Open(path string) (*Pager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New("pager.open", errs.IoError, err, map[string]interface{}{"path": path})
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.New("pager.stat", errs.IoError, err, map[string]interface{}{"path": path})
	}

	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		f.Close()
		return nil, errs.New("pager.readHeader", errs.Truncated, err, map[string]interface{}{"path": path})
	}

	header, err := parseHeader(headerBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Pager{file: f, fileSize: info.Size(), Header: header}, nil
}

// Close releases the underlying file handle (it implements io.Closer so it
// can be registered directly with a config.ResourceManager).
func (p *Pager) Close() error {
	return p.file.Close()
}

// PageSize returns the page size detected from the header.
func (p *Pager) PageSize() uint32 { return p.Header.PageSize }

// pageOffset returns the absolute file offset of the 1-based page number n.
func (p *Pager) pageOffset(n uint32) int64 {
	return int64(n-1) * int64(p.Header.PageSize)
}

// ReadPage reads the 1-based page number n and returns a cursor over
// exactly PageSize() bytes.
func (p *Pager) ReadPage(n uint32) (*Cursor, error) {
	if n == 0 {
		return nil, errs.New("pager.readPage", errs.OutOfRange, fmt.Errorf("page numbers are 1-based, got 0"), nil)
	}
	offset := p.pageOffset(n)
	if offset+int64(p.Header.PageSize) > p.fileSize {
		return nil, errs.New("pager.readPage", errs.OutOfRange, fmt.Errorf("page %d extends past end of file", n), map[string]interface{}{"page": n})
	}

	buf := make([]byte, p.Header.PageSize)
	if _, err := p.file.ReadAt(buf, offset); err != nil {
		return nil, errs.New("pager.readPage", errs.IoError, err, map[string]interface{}{"page": n, "offset": offset})
	}

	return NewCursor(buf), nil
}
