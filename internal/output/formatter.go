// Package output renders a query.Result to a text or JSON sink
// (SPEC_FULL.md §4.10).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aeriscode/litescan/internal/query"
	"github.com/aeriscode/litescan/internal/storage"
)

// Formatter renders a Result to its writer.
type Formatter interface {
	FormatResult(w io.Writer, result *query.Result) error
	FormatTableNames(w io.Writer, names []string) error
}

// Console renders pipe-delimited rows, one per line, matching the CLI
// examples in SPEC_FULL.md §8.
type Console struct{}

func (Console) FormatResult(w io.Writer, result *query.Result) error {
	for _, row := range result.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = v.String()
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, "|")); err != nil {
			return err
		}
	}
	return nil
}

func (Console) FormatTableNames(w io.Writer, names []string) error {
	_, err := fmt.Fprintln(w, strings.Join(names, " "))
	return err
}

// JSON renders each row as a JSON object keyed by column name, the whole
// result as an array.
type JSON struct{}

func (JSON) FormatResult(w io.Writer, result *query.Result) error {
	objs := make([]map[string]interface{}, len(result.Rows))
	for i, row := range result.Rows {
		obj := make(map[string]interface{}, len(row))
		for j, v := range row {
			name := fmt.Sprintf("col%d", j)
			if j < len(result.Columns) {
				name = result.Columns[j]
			}
			obj[name] = jsonValue(v)
		}
		objs[i] = obj
	}
	enc := json.NewEncoder(w)
	return enc.Encode(objs)
}

func (JSON) FormatTableNames(w io.Writer, names []string) error {
	enc := json.NewEncoder(w)
	return enc.Encode(names)
}

func jsonValue(v storage.Value) interface{} {
	switch v.Kind {
	case storage.KindNull:
		return nil
	case storage.KindInteger:
		return v.Int
	case storage.KindFloat:
		return v.Float
	default:
		return v.String()
	}
}
