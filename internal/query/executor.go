// Package query orchestrates the three query modes — count, full scan,
// and index-assisted scan — on top of the storage layer's B-tree walker
// (SPEC_FULL.md §4.7).
package query

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/aeriscode/litescan/internal/config"
	"github.com/aeriscode/litescan/internal/errs"
	"github.com/aeriscode/litescan/internal/schema"
	"github.com/aeriscode/litescan/internal/sqlparse"
	"github.com/aeriscode/litescan/internal/storage"
)

// Result is the outcome of running one QueryDescriptor: the resolved
// output column names and the matching rows, already projected and
// filtered, in executor-discovery order (SPEC_FULL.md §5).
type Result struct {
	Columns []string
	Rows    [][]storage.Value
}

// Executor ties a pager and its resolved schema to one invocation's
// configuration and logger.
type Executor struct {
	pager    *storage.Pager
	resolver *schema.Resolver
	cfg      *config.Config
	log      *slog.Logger
}

// New returns an Executor for one invocation.
func New(pager *storage.Pager, resolver *schema.Resolver, cfg *config.Config, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{pager: pager, resolver: resolver, cfg: cfg, log: log}
}

// Run executes a QueryDescriptor (SPEC_FULL.md §4.7).
func (e *Executor) Run(ctx context.Context, desc *sqlparse.QueryDescriptor) (*Result, error) {
	obj, cols, err := e.resolver.FindTable(desc.Table)
	if err != nil {
		return nil, err
	}

	if desc.Kind == sqlparse.KindCount {
		tree := storage.NewTableTree(e.pager, obj.RootPage)
		n, err := tree.LeafCount()
		if err != nil {
			return nil, err
		}
		return &Result{
			Columns: []string{"COUNT(*)"},
			Rows:    [][]storage.Value{{{Kind: storage.KindInteger, Int: int64(n)}}},
		}, nil
	}

	colIndex := make(map[string]int, len(cols))
	for _, c := range cols {
		colIndex[strings.ToLower(c.Name)] = c.Index
	}

	var filterIdx = -1
	if desc.Filter != nil {
		idx, ok := colIndex[strings.ToLower(desc.Filter.Column)]
		if !ok {
			return nil, errs.New("executor.run", errs.UnknownColumn, nil, map[string]interface{}{"column": desc.Filter.Column, "table": desc.Table})
		}
		filterIdx = idx
	}

	projected, err := resolveProjection(desc.Columns, cols)
	if err != nil {
		return nil, err
	}

	var rows [][]storage.Value
	if desc.Filter != nil {
		if idxObj, err := e.resolver.FindIndexForColumn(desc.Table, desc.Filter.Column); err == nil && idxObj != nil {
			e.log.Debug("using index for filter", "index", idxObj.Name, "table", desc.Table, "column", desc.Filter.Column)
			rows, err = e.indexedScan(ctx, obj.RootPage, idxObj.RootPage, filterIdx, cols[filterIdx].Type, desc.Filter, projected)
			if err != nil {
				return nil, err
			}
		}
	}

	if rows == nil {
		rows, err = e.fullScan(obj.RootPage, filterIdx, desc.Filter, projected)
		if err != nil {
			return nil, err
		}
	}

	names := make([]string, len(desc.Columns))
	copy(names, desc.Columns)
	if len(names) == 1 && names[0] == "*" {
		names = make([]string, len(cols))
		for _, c := range cols {
			names[c.Index] = c.Name
		}
	}

	return &Result{Columns: names, Rows: rows}, nil
}

// resolveProjection turns the requested column names (or "*") into schema
// indices, in request order.
func resolveProjection(requested []string, cols []sqlparse.Column) ([]int, error) {
	if len(requested) == 1 && requested[0] == "*" {
		idx := make([]int, len(cols))
		for _, c := range cols {
			idx[c.Index] = c.Index
		}
		return idx, nil
	}

	byName := make(map[string]int, len(cols))
	for _, c := range cols {
		byName[strings.ToLower(c.Name)] = c.Index
	}

	idx := make([]int, len(requested))
	for i, name := range requested {
		col, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, errs.New("executor.resolveProjection", errs.UnknownColumn, nil, map[string]interface{}{"column": name})
		}
		idx[i] = col
	}
	return idx, nil
}

// matchesFilter applies the filter predicate to one leaf cell's record,
// comparing numerically when the stored field is an integer kind and
// textually otherwise (SPEC_FULL.md §4.7, open question 4). A filter
// column past the end of a (short, NULL-trimmed) record is false, not an
// error.
func matchesFilter(record []storage.Value, filterIdx int, filter *sqlparse.FilterPredicate, rowID int64) bool {
	if filter == nil {
		return true
	}
	if filterIdx >= len(record) {
		return false
	}
	v := record[filterIdx]
	if filterIdx == 0 && v.IsNull() {
		v = storage.Value{Kind: storage.KindInteger, Int: rowID}
	}

	if v.Kind == storage.KindInteger {
		n, err := strconv.ParseInt(filter.Value, 10, 64)
		if err != nil {
			return false
		}
		return v.Int == n
	}
	return v.String() == filter.Value
}

// project builds one output row from a decoded record, substituting the
// rowid for schema index 0 when the stored field is NULL (the common
// INTEGER PRIMARY KEY rowid-alias case). Columns past the end of a short
// record project as NULL.
func project(record []storage.Value, rowID int64, projected []int) []storage.Value {
	out := make([]storage.Value, len(projected))
	for i, idx := range projected {
		if idx >= len(record) {
			out[i] = storage.Value{Kind: storage.KindNull}
			continue
		}
		v := record[idx]
		if idx == 0 && v.IsNull() {
			v = storage.Value{Kind: storage.KindInteger, Int: rowID}
		}
		out[i] = v
	}
	return out
}

func (e *Executor) fullScan(tableRoot uint32, filterIdx int, filter *sqlparse.FilterPredicate, projected []int) ([][]storage.Value, error) {
	tree := storage.NewTableTree(e.pager, tableRoot)
	cells, err := tree.FullScan()
	if err != nil {
		return nil, err
	}

	rows := make([][]storage.Value, 0, len(cells))
	for _, cell := range cells {
		if !matchesFilter(cell.Record, filterIdx, filter, cell.RowID) {
			continue
		}
		rows = append(rows, project(cell.Record, cell.RowID, projected))
	}
	return rows, nil
}

// indexedScan descends the index tree for the filter value, collects the
// referenced table rowids in index order, fetches each row (optionally in
// parallel, since table-tree descents are independent read-only work),
// restores index order, and re-checks the filter against the fetched row
// as defence-in-depth (SPEC_FULL.md §4.7).
func (e *Executor) indexedScan(ctx context.Context, tableRoot, indexRoot uint32, filterIdx int, columnType string, filter *sqlparse.FilterPredicate, projected []int) ([][]storage.Value, error) {
	indexTree := storage.NewIndexTree(e.pager, indexRoot)
	target := filterValueOf(filter.Value, columnType)

	entries, err := indexTree.RangeScanEqual(target)
	if err != nil {
		return nil, err
	}

	rowIDs := make([]int64, len(entries))
	for i, entry := range entries {
		rowID, err := storage.IndexedRowID(entry)
		if err != nil {
			return nil, err
		}
		rowIDs[i] = rowID
	}

	cells := make([]storage.Cell, len(rowIDs))
	found := make([]bool, len(rowIDs))

	workers := e.cfg.MaxScanWorkers
	if workers <= 0 || workers > len(rowIDs) {
		workers = len(rowIDs)
	}
	if workers == 0 {
		return nil, nil
	}

	work := make(chan int, len(rowIDs))
	for i := range rowIDs {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	tableTree := storage.NewTableTree(e.pager, tableRoot)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				cell, ok, err := tableTree.LookupRowID(rowIDs[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				if !ok {
					mu.Lock()
					if firstErr == nil {
						firstErr = errs.New("executor.indexedScan", errs.InconsistentBtree, nil, map[string]interface{}{"rowid": rowIDs[i]})
					}
					mu.Unlock()
					return
				}
				cells[i] = cell
				found[i] = true
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.New("executor.indexedScan", errs.IoError, err, nil)
	}

	rows := make([][]storage.Value, 0, len(cells))
	for i, cell := range cells {
		if !found[i] {
			continue
		}
		if !matchesFilter(cell.Record, filterIdx, filter, cell.RowID) {
			continue
		}
		rows = append(rows, project(cell.Record, cell.RowID, projected))
	}
	return rows, nil
}

// filterValueOf builds the comparison target for an index range scan,
// typed by the indexed column's own declared type rather than by guessing
// from the literal's shape — a numeric-looking literal against a TEXT
// column (e.g. a column storing postal codes) must stay a text comparison,
// or RangeScanEqual would compare against the wrong stored kind and return
// nothing.
func filterValueOf(s string, columnType string) storage.Value {
	if strings.Contains(strings.ToLower(columnType), "int") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return storage.Value{Kind: storage.KindInteger, Int: n}
		}
	}
	return storage.Value{Kind: storage.KindText, Bytes: []byte(s)}
}
