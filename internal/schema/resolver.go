// Package schema resolves table and index definitions from the root
// schema page (SPEC_FULL.md §4.8).
package schema

import (
	"fmt"
	"strings"

	"github.com/aeriscode/litescan/internal/errs"
	"github.com/aeriscode/litescan/internal/sqlparse"
	"github.com/aeriscode/litescan/internal/storage"
)

const schemaRootPage = 1

// Object is one row of the sqlite_schema table: a table or index
// definition.
type Object struct {
	Kind     string // "table" or "index"
	Name     string
	TblName  string
	RootPage uint32
	SQL      string
}

// Resolver reads and caches the root schema page for one pager, so
// repeated lookups within the same invocation don't re-decode page 1
// (SPEC_FULL.md §4.8, "shared ownership of pages").
type Resolver struct {
	pager   *storage.Pager
	objects []Object
}

// NewResolver decodes page 1 once and returns a ready Resolver.
func NewResolver(pager *storage.Pager) (*Resolver, error) {
	tree := storage.NewTableTree(pager, schemaRootPage)
	cells, err := tree.FullScan()
	if err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(cells))
	for _, cell := range cells {
		obj, err := cellToObject(cell)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	return &Resolver{pager: pager, objects: objects}, nil
}

// TableCount returns the schema page's cell count directly, for
// `.dbinfo`'s "number of tables" line (which per the spec counts every
// schema row, not just table rows).
func (r *Resolver) TableCount() int {
	return len(r.objects)
}

// TableNames returns the names of every table object in page 1, in the
// order they appear there.
func (r *Resolver) TableNames() []string {
	var names []string
	for _, obj := range r.objects {
		if obj.Kind == "table" && !strings.HasPrefix(obj.Name, "sqlite_") {
			names = append(names, obj.Name)
		}
	}
	return names
}

// FindTable locates the table object by name and parses its column list.
func (r *Resolver) FindTable(name string) (*Object, []sqlparse.Column, error) {
	for _, obj := range r.objects {
		if obj.Kind == "table" && strings.EqualFold(obj.TblName, name) {
			cols, err := sqlparse.ParseCreateTable(obj.SQL)
			if err != nil {
				return nil, nil, err
			}
			o := obj
			return &o, cols, nil
		}
	}
	return nil, nil, errs.New("schema.findTable", errs.UnknownTable, fmt.Errorf("table %q not found", name), map[string]interface{}{"table": name})
}

// FindIndexForColumn locates an index on the given table that covers the
// given column, returning nil (not an error) if none exists — the caller
// falls back to a full scan in that case.
func (r *Resolver) FindIndexForColumn(tableName, column string) (*Object, error) {
	for _, obj := range r.objects {
		if obj.Kind != "index" || !strings.EqualFold(obj.TblName, tableName) {
			continue
		}
		// The schema row's own TblName already names the indexed table, but
		// it is trusted input from the same file being read; cross-check it
		// against the index's own "ON <table>" clause and skip rows where
		// they disagree rather than silently using a possibly-stale schema
		// entry.
		onTable, err := sqlparse.ParseCreateIndexTable(obj.SQL)
		if err != nil || !strings.EqualFold(onTable, tableName) {
			continue
		}
		cols, err := sqlparse.ParseCreateIndex(obj.SQL)
		if err != nil {
			continue
		}
		for _, c := range cols {
			if strings.EqualFold(c, column) {
				o := obj
				return &o, nil
			}
		}
	}
	return nil, nil
}

func cellToObject(cell storage.Cell) (Object, error) {
	if len(cell.Record) < 5 {
		return Object{}, errs.New("schema.cellToObject", errs.CorruptRecord, fmt.Errorf("schema row has %d fields, need 5", len(cell.Record)), nil)
	}
	rootPage := cell.Record[3]
	var rootPageNum uint32
	if rootPage.Kind == storage.KindInteger {
		rootPageNum = uint32(rootPage.Int)
	}
	return Object{
		Kind:     cell.Record[0].String(),
		Name:     cell.Record[1].String(),
		TblName:  cell.Record[2].String(),
		RootPage: rootPageNum,
		SQL:      cell.Record[4].String(),
	}, nil
}
