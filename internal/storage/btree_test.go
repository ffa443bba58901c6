package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"integers equal", Value{Kind: KindInteger, Int: 5}, Value{Kind: KindInteger, Int: 5}, 0},
		{"integers less", Value{Kind: KindInteger, Int: 3}, Value{Kind: KindInteger, Int: 5}, -1},
		{"integers greater", Value{Kind: KindInteger, Int: 9}, Value{Kind: KindInteger, Int: 5}, 1},
		{"float vs integer", Value{Kind: KindFloat, Float: 2.5}, Value{Kind: KindInteger, Int: 2}, 1},
		{"text bytes", Value{Kind: KindText, Bytes: []byte("abc")}, Value{Kind: KindText, Bytes: []byte("abd")}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareValues(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareValues() = %v, want %v", got, tt.want)
			}
		})
	}
}

// buildSingleLeafDatabase writes a one-page database whose root (page 1) is
// a table-leaf page holding three cells at rowids 1, 3, 5, each a one-field
// TEXT record, so B-tree walks can be exercised without constructing a
// multi-level tree.
func buildSingleLeafDatabase(t *testing.T, pageSize uint16) string {
	t.Helper()

	buf := make([]byte, pageSize)
	buf[16], buf[17] = byte(pageSize>>8), byte(pageSize)
	buf[56+3] = TextEncodingUTF8

	const base = HeaderSize // page header starts right after the 100-byte file header
	buf[base] = PageTableLeaf
	buf[base+3], buf[base+4] = 0x00, 0x03 // cell count
	buf[base+5], buf[base+6] = 0x00, 200  // cell content start (informational)

	writeCell := func(off int, rowID byte, text string) {
		buf[off] = byte(2 + len(text)) // payload size
		buf[off+1] = rowID
		buf[off+2] = 0x02
		buf[off+3] = byte(13 + 2*len(text))
		copy(buf[off+4:], text)
	}
	writeCell(200, 1, "a")
	writeCell(210, 3, "b")
	writeCell(220, 5, "c")

	ptrBase := base + 8
	buf[ptrBase], buf[ptrBase+1] = 0x00, 200
	buf[ptrBase+2], buf[ptrBase+3] = 0x00, 210
	buf[ptrBase+4], buf[ptrBase+5] = 0x00, 220

	path := filepath.Join(t.TempDir(), "leaf.db")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestTreeLookupRowID(t *testing.T) {
	path := buildSingleLeafDatabase(t, 512)
	pager, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pager.Close()

	tree := NewTableTree(pager, 1)

	cell, ok, err := tree.LookupRowID(3)
	if err != nil {
		t.Fatalf("LookupRowID(3) error = %v", err)
	}
	if !ok {
		t.Fatalf("LookupRowID(3) ok = false, want true")
	}
	if cell.Record[0].String() != "b" {
		t.Errorf("LookupRowID(3) record = %v, want b", cell.Record[0].String())
	}

	_, ok, err = tree.LookupRowID(2)
	if err != nil {
		t.Fatalf("LookupRowID(2) error = %v", err)
	}
	if ok {
		t.Errorf("LookupRowID(2) ok = true, want false (no such rowid)")
	}
}

func TestTreeFullScanAndLeafCount(t *testing.T) {
	path := buildSingleLeafDatabase(t, 512)
	pager, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pager.Close()

	tree := NewTableTree(pager, 1)

	cells, err := tree.FullScan()
	if err != nil {
		t.Fatalf("FullScan() error = %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("FullScan() returned %d cells, want 3", len(cells))
	}
	want := []string{"a", "b", "c"}
	for i, cell := range cells {
		if cell.Record[0].String() != want[i] {
			t.Errorf("cell[%d] = %v, want %v", i, cell.Record[0].String(), want[i])
		}
	}

	n, err := tree.LeafCount()
	if err != nil {
		t.Fatalf("LeafCount() error = %v", err)
	}
	if n != 3 {
		t.Errorf("LeafCount() = %v, want 3", n)
	}
}

func TestIndexedRowID(t *testing.T) {
	cell := Cell{Record: []Value{{Kind: KindText, Bytes: []byte("x")}, {Kind: KindInteger, Int: 42}}}
	rowID, err := IndexedRowID(cell)
	if err != nil {
		t.Fatalf("IndexedRowID() error = %v", err)
	}
	if rowID != 42 {
		t.Errorf("IndexedRowID() = %v, want 42", rowID)
	}
}

func TestIndexedRowIDNonInteger(t *testing.T) {
	cell := Cell{Record: []Value{{Kind: KindText, Bytes: []byte("x")}}}
	if _, err := IndexedRowID(cell); err == nil {
		t.Errorf("IndexedRowID() with non-integer trailing field should return error")
	}
}
