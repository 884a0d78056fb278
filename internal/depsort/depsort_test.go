package depsort

import (
	"reflect"
	"testing"

	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

func tableWithFK(name, refTable string) *model.Table {
	t := &model.Table{Name: name}
	if refTable != "" {
		t.Constraints = append(t.Constraints, &model.Constraint{
			Type: model.ConstraintForeignKey, Columns: []string{refTable + "_id"}, ReferencedTable: refTable, ReferencedColumns: []string{"id"},
		})
	}
	return t
}

func TestSortOrdersDependenciesFirst(t *testing.T) {
	schema := model.NewSchema()
	schema.AddTable(tableWithFK("posts", "users"))
	schema.AddTable(tableWithFK("users", ""))

	result, warnings, err := Sort(schema)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	want := []string{"users", "posts"}
	if !reflect.DeepEqual(result.Order, want) {
		t.Errorf("Order = %v, want %v", result.Order, want)
	}
}

func TestSortIsStableForIndependentTables(t *testing.T) {
	schema := model.NewSchema()
	schema.AddTable(tableWithFK("b", ""))
	schema.AddTable(tableWithFK("a", ""))

	result, _, err := Sort(schema)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	want := []string{"b", "a"}
	if !reflect.DeepEqual(result.Order, want) {
		t.Errorf("Order = %v, want %v (parse order preserved)", result.Order, want)
	}
}

func TestSortDetectsCycle(t *testing.T) {
	schema := model.NewSchema()
	schema.AddTable(tableWithFK("a", "b"))
	schema.AddTable(tableWithFK("b", "a"))

	_, _, err := Sort(schema)
	if err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestSortForDropReversesOrder(t *testing.T) {
	got := SortForDrop([]string{"users", "posts", "comments"})
	want := []string{"comments", "posts", "users"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortForDrop() = %v, want %v", got, want)
	}
}

func TestGroupByLevel(t *testing.T) {
	schema := model.NewSchema()
	schema.AddTable(tableWithFK("users", ""))
	schema.AddTable(tableWithFK("posts", "users"))
	schema.AddTable(tableWithFK("comments", "posts"))

	result, _, err := Sort(schema)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	groups := GroupByLevel(result, schema)
	if len(groups) != 3 {
		t.Fatalf("len(groups) = %d, want 3", len(groups))
	}
	if groups[0][0] != "users" || groups[1][0] != "posts" || groups[2][0] != "comments" {
		t.Errorf("groups = %v", groups)
	}
}

func TestSortWarnsOnUnknownTableReference(t *testing.T) {
	schema := model.NewSchema()
	schema.AddTable(tableWithFK("posts", "ghost"))

	result, warnings, err := Sort(schema)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
	if len(result.Order) != 1 {
		t.Fatalf("Order = %v", result.Order)
	}
}

func TestSortIgnoresSelfReference(t *testing.T) {
	schema := model.NewSchema()
	tbl := tableWithFK("nodes", "nodes")
	schema.AddTable(tbl)

	result, warnings, err := Sort(schema)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
	if len(result.Order) != 1 || result.Order[0] != "nodes" {
		t.Errorf("Order = %v", result.Order)
	}
}
