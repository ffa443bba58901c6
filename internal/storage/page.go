package storage

import (
	"fmt"

	"github.com/aeriscode/litescan/internal/errs"
)

// Page kind bytes, per SPEC_FULL.md §3.
const (
	PageIndexInterior = 2
	PageTableInterior = 5
	PageIndexLeaf     = 10
	PageTableLeaf     = 13
)

// PageHeader is the 8- or 12-byte header that precedes every page's cell
// pointer array.
type PageHeader struct {
	Kind              byte
	FirstFreeBlock    uint16
	CellCount         uint16
	CellContentStart  uint16
	FragmentedBytes   byte
	RightChild        uint32 // only set for interior kinds
}

func (h PageHeader) isInterior() bool {
	return h.Kind == PageIndexInterior || h.Kind == PageTableInterior
}

func (h PageHeader) headerSize() int {
	if h.isInterior() {
		return 12
	}
	return 8
}

// Cell is a tagged union over the four cell variants. Which fields are
// meaningful is determined by the page kind the cell was decoded under.
type Cell struct {
	// Table leaf / table interior
	RowID int64
	// Table interior / index interior
	LeftChild uint32
	// Table leaf / index leaf / index interior
	Record []Value
}

// Page is a fully-decoded page: its header plus its cells in pointer-array
// order.
type Page struct {
	Header PageHeader
	Cells  []Cell
}

// DecodePage decodes a full page given its raw bytes (exactly PageSize
// long), its 1-based page number (page 1 has a 100-byte header to skip),
// and the text encoding to use for TEXT fields.
func DecodePage(raw []byte, pageNum uint32, textEncoding uint32) (*Page, error) {
	base := 0
	if pageNum == 1 {
		base = HeaderSize
	}
	c := NewCursor(raw)
	if err := c.Seek(base); err != nil {
		return nil, err
	}

	kind, err := c.ReadByte()
	if err != nil {
		return nil, err
	}

	var header PageHeader
	header.Kind = kind

	rest, err := c.Read(7)
	if err != nil {
		return nil, err
	}
	header.FirstFreeBlock = be16(rest, 0)
	header.CellCount = be16(rest, 2)
	header.CellContentStart = be16(rest, 4)
	header.FragmentedBytes = rest[6]

	if header.isInterior() {
		rc, err := c.Read(4)
		if err != nil {
			return nil, err
		}
		header.RightChild = be32(rc, 0)
	} else if header.Kind != PageIndexLeaf && header.Kind != PageTableLeaf {
		return nil, errs.New("page.decode", errs.Unsupported, fmt.Errorf("unrecognised page kind %d", header.Kind), map[string]interface{}{"page": pageNum})
	}

	ptrBytes, err := c.Read(int(header.CellCount) * 2)
	if err != nil {
		return nil, err
	}

	cells := make([]Cell, header.CellCount)
	for i := 0; i < int(header.CellCount); i++ {
		ptr := be16(ptrBytes, i*2)
		if int(ptr) == 0 || int(ptr) > len(raw) {
			return nil, errs.New("page.decode", errs.CorruptPage, fmt.Errorf("cell pointer %d out of bounds", ptr), map[string]interface{}{"page": pageNum, "cell_index": i})
		}
		cell, err := decodeCell(raw, int(ptr), header.Kind, textEncoding, len(raw))
		if err != nil {
			return nil, errs.New("page.decode", errs.CorruptPage, err, map[string]interface{}{"page": pageNum, "cell_index": i})
		}
		cells[i] = cell
	}

	return &Page{Header: header, Cells: cells}, nil
}

func be16(b []byte, off int) uint16 { return uint16(b[off])<<8 | uint16(b[off+1]) }
func be32(b []byte, off int) uint32 {
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}

// decodeCell dispatches on page kind to decode exactly one of the four cell
// variants starting at byte offset ptr within raw.
func decodeCell(raw []byte, ptr int, kind byte, textEncoding uint32, pageSize int) (Cell, error) {
	switch kind {
	case PageTableLeaf:
		payloadSize, n1, err := ReadVarint(raw, ptr)
		if err != nil {
			return Cell{}, err
		}
		rowID, n2, err := ReadVarint(raw, ptr+n1)
		if err != nil {
			return Cell{}, err
		}
		payloadStart := ptr + n1 + n2
		record, err := readRecord(raw, payloadStart, int(payloadSize), textEncoding, pageSize, true)
		if err != nil {
			return Cell{}, err
		}
		return Cell{RowID: rowID, Record: record}, nil

	case PageTableInterior:
		if ptr+4 > len(raw) {
			return Cell{}, errs.New("cell.decode", errs.CorruptPage, fmt.Errorf("table interior cell truncated"), nil)
		}
		leftChild := be32(raw, ptr)
		rowID, _, err := ReadVarint(raw, ptr+4)
		if err != nil {
			return Cell{}, err
		}
		return Cell{LeftChild: leftChild, RowID: rowID}, nil

	case PageIndexLeaf:
		payloadSize, n1, err := ReadVarint(raw, ptr)
		if err != nil {
			return Cell{}, err
		}
		payloadStart := ptr + n1
		record, err := readRecord(raw, payloadStart, int(payloadSize), textEncoding, pageSize, false)
		if err != nil {
			return Cell{}, err
		}
		return Cell{Record: record}, nil

	case PageIndexInterior:
		if ptr+4 > len(raw) {
			return Cell{}, errs.New("cell.decode", errs.CorruptPage, fmt.Errorf("index interior cell truncated"), nil)
		}
		leftChild := be32(raw, ptr)
		payloadSize, n2, err := ReadVarint(raw, ptr+4)
		if err != nil {
			return Cell{}, err
		}
		payloadStart := ptr + 4 + n2
		record, err := readRecord(raw, payloadStart, int(payloadSize), textEncoding, pageSize, false)
		if err != nil {
			return Cell{}, err
		}
		return Cell{LeftChild: leftChild, Record: record}, nil

	default:
		return Cell{}, errs.New("cell.decode", errs.CorruptPage, fmt.Errorf("unrecognised page kind %d", kind), nil)
	}
}

// maxLocalPayload computes X, the largest payload (in bytes) that fits
// entirely within a page for the given cell kind, following the same
// U/X/M/K formula SQLite itself uses to decide when a payload needs an
// overflow chain.
func maxLocalPayload(pageSize int, isTableLeaf bool) int {
	u := pageSize
	if isTableLeaf {
		return u - 35
	}
	return (u-12)*64/255 - 23
}

// readRecord reads a record's payload starting at offset, verifying the
// declared size fits locally (overflow pages are Unsupported, SPEC_FULL.md
// §4.5), then decodes its header and fields.
func readRecord(raw []byte, offset, payloadSize int, textEncoding uint32, pageSize int, isTableLeaf bool) ([]Value, error) {
	x := maxLocalPayload(pageSize, isTableLeaf)
	if payloadSize > x {
		return nil, errs.New("record.read", errs.Unsupported, fmt.Errorf("payload of %d bytes exceeds local capacity %d; overflow pages are not supported", payloadSize, x), nil)
	}
	if offset < 0 || offset+payloadSize > len(raw) {
		return nil, errs.New("record.read", errs.CorruptPage, fmt.Errorf("record payload [%d,%d) out of page bounds", offset, offset+payloadSize), nil)
	}
	if payloadSize == 0 {
		return nil, nil
	}

	payload := raw[offset : offset+payloadSize]
	headerSize, n, err := ReadVarint(payload, 0)
	if err != nil {
		return nil, err
	}

	var serialTypes []int64
	pos := n
	for pos < int(headerSize) {
		st, used, err := ReadVarint(payload, pos)
		if err != nil {
			return nil, err
		}
		serialTypes = append(serialTypes, st)
		pos += used
	}

	values := make([]Value, len(serialTypes))
	fieldPos := int(headerSize)
	for i, st := range serialTypes {
		size, err := serialTypeSize(st)
		if err != nil {
			return nil, err
		}
		if fieldPos+size > len(payload) {
			return nil, errs.New("record.read", errs.CorruptRecord, fmt.Errorf("field %d needs %d bytes at offset %d, payload is %d bytes", i, size, fieldPos, len(payload)), nil)
		}
		val, err := decodeField(st, payload[fieldPos:fieldPos+size], textEncoding)
		if err != nil {
			return nil, err
		}
		values[i] = val
		fieldPos += size
	}

	return values, nil
}
