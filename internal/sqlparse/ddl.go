// Package sqlparse adapts github.com/xwb1989/sqlparser to this project's
// needs: turning CREATE TABLE / CREATE INDEX text into column lists, and
// turning a SELECT statement into a QueryDescriptor the executor can run
// without ever touching SQL text itself (SPEC_FULL.md §4.9).
package sqlparse

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/aeriscode/litescan/internal/errs"
)

// Column describes one column of a table's or index's declared schema.
type Column struct {
	Name  string
	Type  string
	Index int
}

// normalizeDDL rewrites SQLite-only syntax into the MySQL-flavoured
// grammar sqlparser understands, without changing the statement's meaning
// for the parts this reader cares about (column names and order).
func normalizeDDL(sql string) string {
	s := sql
	s = strings.ReplaceAll(s, "primary key autoincrement", "AUTO_INCREMENT PRIMARY KEY")
	s = strings.ReplaceAll(s, "PRIMARY KEY AUTOINCREMENT", "AUTO_INCREMENT PRIMARY KEY")
	s = strings.ReplaceAll(s, "AUTOINCREMENT", "AUTO_INCREMENT")
	return s
}

// ParseCreateTable extracts the ordered column list from a CREATE TABLE
// statement.
func ParseCreateTable(sql string) ([]Column, error) {
	stmt, err := sqlparser.Parse(normalizeDDL(sql))
	if err != nil {
		return nil, errs.New("sqlparse.parseCreateTable", errs.CorruptRecord, err, map[string]interface{}{"sql": sql})
	}

	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.Action != "create" || ddl.TableSpec == nil {
		return nil, errs.New("sqlparse.parseCreateTable", errs.CorruptRecord, fmt.Errorf("not a CREATE TABLE statement"), map[string]interface{}{"sql": sql})
	}

	cols := make([]Column, len(ddl.TableSpec.Columns))
	for i, c := range ddl.TableSpec.Columns {
		cols[i] = Column{Name: c.Name.String(), Type: c.Type.Type, Index: i}
	}
	return cols, nil
}

// ParseCreateIndex extracts the ordered list of indexed column names from a
// CREATE INDEX statement. xwb1989/sqlparser's grammar targets MySQL and has
// no CREATE INDEX production, so this walks the column list between the
// outermost parentheses directly, the same approach the column-layout
// parsing in this codebase has always used for index DDL.
func ParseCreateIndex(sql string) ([]string, error) {
	start := strings.Index(sql, "(")
	end := strings.LastIndex(sql, ")")
	if start == -1 || end == -1 || start >= end {
		return nil, errs.New("sqlparse.parseCreateIndex", errs.CorruptRecord, fmt.Errorf("no column list in CREATE INDEX statement"), map[string]interface{}{"sql": sql})
	}

	parts := strings.Split(sql[start+1:end], ",")
	cols := make([]string, len(parts))
	for i, p := range parts {
		cols[i] = strings.Trim(strings.TrimSpace(p), "`\"")
	}
	return cols, nil
}

// ParseCreateIndexTable extracts the table name an index is built on, from
// the "ON <table> (...)" clause of a CREATE INDEX statement.
func ParseCreateIndexTable(sql string) (string, error) {
	upper := strings.ToUpper(sql)
	onIdx := strings.Index(upper, " ON ")
	if onIdx == -1 {
		return "", errs.New("sqlparse.parseCreateIndexTable", errs.CorruptRecord, fmt.Errorf("no ON clause in CREATE INDEX statement"), map[string]interface{}{"sql": sql})
	}
	after := strings.TrimSpace(sql[onIdx+4:])
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return "", errs.New("sqlparse.parseCreateIndexTable", errs.CorruptRecord, fmt.Errorf("no table name after ON"), map[string]interface{}{"sql": sql})
	}
	table := fields[0]
	if paren := strings.Index(table, "("); paren != -1 {
		table = table[:paren]
	}
	return strings.Trim(table, "`\""), nil
}
