package model

import (
	"testing"
)

func TestNewSchema(t *testing.T) {
	s := NewSchema()

	if s.Tables == nil {
		t.Error("Tables map should be initialized")
	}
	if s.Views == nil {
		t.Error("Views map should be initialized")
	}
}

func TestAddTableOrder(t *testing.T) {
	s := NewSchema()
	s.AddTable(&Table{Name: "orders"})
	s.AddTable(&Table{Name: "users"})
	s.AddTable(&Table{Name: "orders"}) // re-adding keeps original position

	got := s.TableOrder
	want := []string{"orders", "users"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("TableOrder = %v, want %v", got, want)
	}
}

func TestSchemaClone(t *testing.T) {
	s := NewSchema()
	s.AddTable(&Table{
		Name: "users",
		Columns: []*Column{
			{Name: "id", Type: "int", AutoIncrement: true},
		},
		Constraints: []*Constraint{
			{Type: ConstraintPrimaryKey, Columns: []string{"id"}},
		},
	})

	clone := s.Clone()
	clone.Tables["users"].Columns[0].Name = "user_id"

	if s.Tables["users"].Columns[0].Name != "id" {
		t.Error("mutating clone should not affect original")
	}
}

func TestSortColumns(t *testing.T) {
	cols := []*Column{
		{Name: "zebra"},
		{Name: "alpha"},
		{Name: "beta"},
	}

	SortColumns(cols)

	if cols[0].Name != "alpha" || cols[1].Name != "beta" || cols[2].Name != "zebra" {
		t.Errorf("unexpected order: %v", cols)
	}
}

func TestSortIndexes(t *testing.T) {
	idxs := []*Index{
		{Name: "z"},
		{Name: "a"},
		{Name: "m"},
	}

	SortIndexes(idxs)

	if idxs[0].Name != "a" || idxs[2].Name != "z" {
		t.Errorf("unexpected order: %v", idxs)
	}
}

func TestSortConstraints(t *testing.T) {
	cs := []*Constraint{
		{Type: ConstraintUnique, Name: "z"},
		{Type: ConstraintPrimaryKey, Name: "pk"},
		{Type: ConstraintUnique, Name: "a"},
	}

	SortConstraints(cs)

	if cs[0].Type != ConstraintPrimaryKey {
		t.Errorf("first constraint type = %v, want ConstraintPrimaryKey", cs[0].Type)
	}
	if cs[1].Name != "a" {
		t.Errorf("second constraint name = %q, want a", cs[1].Name)
	}
}

func TestTableFindColumn(t *testing.T) {
	tbl := &Table{Columns: []*Column{{Name: "Email"}}}

	if c := tbl.FindColumn("email"); c == nil {
		t.Error("FindColumn should be case-insensitive")
	}
	if c := tbl.FindColumn("missing"); c != nil {
		t.Error("FindColumn should return nil for unknown column")
	}
}

func TestTablePrimaryKeyConstraint(t *testing.T) {
	pk := &Constraint{Type: ConstraintPrimaryKey, Columns: []string{"id"}}
	tbl := &Table{Constraints: []*Constraint{
		{Type: ConstraintUnique},
		pk,
	}}

	if got := tbl.PrimaryKeyConstraint(); got != pk {
		t.Error("PrimaryKeyConstraint should return the PK constraint")
	}
}

func TestTableForeignKeys(t *testing.T) {
	fk := &Constraint{Type: ConstraintForeignKey, ReferencedTable: "users"}
	tbl := &Table{Constraints: []*Constraint{
		{Type: ConstraintCheck},
		fk,
	}}

	fks := tbl.ForeignKeys()
	if len(fks) != 1 || fks[0] != fk {
		t.Errorf("ForeignKeys() = %v, want [%v]", fks, fk)
	}
}

func TestParseReferentialAction(t *testing.T) {
	tests := map[string]ReferentialAction{
		"CASCADE":     ActionCascade,
		"set null":    ActionSetNull,
		"SET DEFAULT": ActionSetDefault,
		"Restrict":    ActionRestrict,
		"NO ACTION":   ActionNoAction,
		"":            ActionNone,
		"bogus":       ActionNone,
	}
	for in, want := range tests {
		if got := ParseReferentialAction(in); got != want {
			t.Errorf("ParseReferentialAction(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColumnOptions(t *testing.T) {
	c := &Column{}
	c.SetOption("is_array", "true")

	if got := c.Option("is_array"); got != "true" {
		t.Errorf("Option(is_array) = %q, want true", got)
	}
	if got := c.Option("missing"); got != "" {
		t.Errorf("Option(missing) = %q, want empty", got)
	}
}

func TestIndexColumnNames(t *testing.T) {
	idx := &Index{Columns: []IndexColumn{{Name: "a"}, {Name: "b"}}}
	got := idx.ColumnNames()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ColumnNames() = %v", got)
	}
}
