package sqlparse

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/aeriscode/litescan/internal/errs"
)

// Kind classifies what a QueryDescriptor asks the executor to do.
type Kind int

const (
	KindCount Kind = iota
	KindProject
)

// FilterPredicate is the single equality filter the supported SELECT
// subset allows (SPEC_FULL.md §6).
type FilterPredicate struct {
	Column string
	Value  string
}

// QueryDescriptor is the SQL-free shape the executor consumes. The
// executor package depends only on this type, never on sqlparser or SQL
// text, so an alternative front-end could build one directly.
type QueryDescriptor struct {
	Kind    Kind
	Table   string
	Columns []string // ["*"] expands to every schema column; unused when Kind == KindCount
	Filter  *FilterPredicate
}

// ParseSelect parses one of the supported SELECT shapes (SPEC_FULL.md §6)
// into a QueryDescriptor. Anything outside that subset — joins, GROUP BY,
// multiple WHERE comparisons, non-equality operators — is rejected with
// UnsupportedQuery.
func ParseSelect(sql string) (*QueryDescriptor, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, errs.New("sqlparse.parseSelect", errs.UnsupportedQuery, err, map[string]interface{}{"sql": sql})
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, errs.New("sqlparse.parseSelect", errs.UnsupportedQuery, fmt.Errorf("not a SELECT statement"), map[string]interface{}{"sql": sql})
	}

	table, err := tableName(sel)
	if err != nil {
		return nil, err
	}

	if len(sel.GroupBy) > 0 {
		return nil, errs.New("sqlparse.parseSelect", errs.UnsupportedQuery, fmt.Errorf("GROUP BY is not supported"), map[string]interface{}{"sql": sql})
	}

	desc := &QueryDescriptor{Table: table}

	if isCountStar(sel) {
		desc.Kind = KindCount
	} else {
		desc.Kind = KindProject
		cols, err := projectedColumns(sel)
		if err != nil {
			return nil, err
		}
		desc.Columns = cols
	}

	if sel.Where != nil {
		filter, err := parseFilter(sel.Where.Expr)
		if err != nil {
			return nil, err
		}
		desc.Filter = filter
	}

	return desc, nil
}

func tableName(sel *sqlparser.Select) (string, error) {
	if len(sel.From) != 1 {
		return "", errs.New("sqlparse.tableName", errs.UnsupportedQuery, fmt.Errorf("expected exactly one table in FROM"), nil)
	}
	aliased, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", errs.New("sqlparse.tableName", errs.UnsupportedQuery, fmt.Errorf("unsupported FROM expression"), nil)
	}
	tn, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return "", errs.New("sqlparse.tableName", errs.UnsupportedQuery, fmt.Errorf("unsupported table reference"), nil)
	}
	return tn.Name.String(), nil
}

func isCountStar(sel *sqlparser.Select) bool {
	if len(sel.SelectExprs) != 1 {
		return false
	}
	aliased, ok := sel.SelectExprs[0].(*sqlparser.AliasedExpr)
	if !ok {
		return false
	}
	fn, ok := aliased.Expr.(*sqlparser.FuncExpr)
	if !ok || !strings.EqualFold(fn.Name.String(), "count") {
		return false
	}
	if len(fn.Exprs) != 1 {
		return false
	}
	_, star := fn.Exprs[0].(*sqlparser.StarExpr)
	return star
}

func projectedColumns(sel *sqlparser.Select) ([]string, error) {
	var cols []string
	for _, expr := range sel.SelectExprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			return []string{"*"}, nil
		case *sqlparser.AliasedExpr:
			colName, ok := e.Expr.(*sqlparser.ColName)
			if !ok {
				return nil, errs.New("sqlparse.projectedColumns", errs.UnsupportedQuery, fmt.Errorf("unsupported select expression %T", e.Expr), nil)
			}
			cols = append(cols, colName.Name.String())
		default:
			return nil, errs.New("sqlparse.projectedColumns", errs.UnsupportedQuery, fmt.Errorf("unsupported select expression %T", expr), nil)
		}
	}
	return cols, nil
}

func parseFilter(expr sqlparser.Expr) (*FilterPredicate, error) {
	paren, ok := expr.(*sqlparser.ParenExpr)
	for ok {
		expr = paren.Expr
		paren, ok = expr.(*sqlparser.ParenExpr)
	}

	cmp, ok := expr.(*sqlparser.ComparisonExpr)
	if !ok {
		return nil, errs.New("sqlparse.parseFilter", errs.UnsupportedQuery, fmt.Errorf("only a single equality comparison is supported in WHERE"), nil)
	}
	if cmp.Operator != sqlparser.EqualStr {
		return nil, errs.New("sqlparse.parseFilter", errs.UnsupportedQuery, fmt.Errorf("unsupported comparison operator %q", cmp.Operator), nil)
	}

	colName, ok := cmp.Left.(*sqlparser.ColName)
	if !ok {
		return nil, errs.New("sqlparse.parseFilter", errs.UnsupportedQuery, fmt.Errorf("WHERE left side must be a column"), nil)
	}
	val, ok := cmp.Right.(*sqlparser.SQLVal)
	if !ok {
		return nil, errs.New("sqlparse.parseFilter", errs.UnsupportedQuery, fmt.Errorf("WHERE right side must be a literal"), nil)
	}

	return &FilterPredicate{Column: colName.Name.String(), Value: string(val.Val)}, nil
}
