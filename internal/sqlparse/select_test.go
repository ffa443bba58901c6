package sqlparse

import "testing"

func TestParseSelectCount(t *testing.T) {
	desc, err := ParseSelect("SELECT COUNT(*) FROM apples")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if desc.Kind != KindCount {
		t.Errorf("Kind = %v, want KindCount", desc.Kind)
	}
	if desc.Table != "apples" {
		t.Errorf("Table = %v, want apples", desc.Table)
	}
	if desc.Filter != nil {
		t.Errorf("Filter = %v, want nil", desc.Filter)
	}
}

func TestParseSelectStar(t *testing.T) {
	desc, err := ParseSelect("SELECT * FROM apples")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if desc.Kind != KindProject {
		t.Errorf("Kind = %v, want KindProject", desc.Kind)
	}
	if len(desc.Columns) != 1 || desc.Columns[0] != "*" {
		t.Errorf("Columns = %v, want [*]", desc.Columns)
	}
}

func TestParseSelectColumns(t *testing.T) {
	desc, err := ParseSelect("SELECT name, color FROM apples")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	want := []string{"name", "color"}
	for i, c := range desc.Columns {
		if c != want[i] {
			t.Errorf("Columns[%d] = %v, want %v", i, c, want[i])
		}
	}
}

func TestParseSelectWhere(t *testing.T) {
	desc, err := ParseSelect("SELECT name FROM apples WHERE color = 'Red'")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if desc.Filter == nil {
		t.Fatalf("Filter = nil, want non-nil")
	}
	if desc.Filter.Column != "color" || desc.Filter.Value != "Red" {
		t.Errorf("Filter = %+v, want {color Red}", desc.Filter)
	}
}

func TestParseSelectUnsupportedJoin(t *testing.T) {
	if _, err := ParseSelect("SELECT * FROM apples JOIN oranges ON apples.id = oranges.id"); err == nil {
		t.Errorf("ParseSelect() with JOIN should return UnsupportedQuery error")
	}
}

func TestParseSelectUnsupportedOperator(t *testing.T) {
	if _, err := ParseSelect("SELECT * FROM apples WHERE id > 5"); err == nil {
		t.Errorf("ParseSelect() with non-equality operator should return error")
	}
}

func TestParseSelectNotASelect(t *testing.T) {
	if _, err := ParseSelect("CREATE TABLE foo(id integer)"); err == nil {
		t.Errorf("ParseSelect() on a non-SELECT statement should return error")
	}
}
