package sqlite

import (
	"testing"

	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

func TestParseIntegerPrimaryKeyAutoincrement(t *testing.T) {
	src := `CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL
	);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	id := schema.Tables["users"].FindColumn("id")
	if id.Type != "integer" || !id.AutoIncrement {
		t.Fatalf("id column = %+v", id)
	}
}

func TestParseWithoutRowIDAndStrict(t *testing.T) {
	src := `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT) WITHOUT ROWID, STRICT;`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	table := schema.Tables["kv"]
	if !table.WithoutRowID || !table.Strict {
		t.Fatalf("table = %+v", table)
	}
}

func TestParseInlineForeignKeyWithDeferrable(t *testing.T) {
	src := `CREATE TABLE a (id INTEGER PRIMARY KEY);
	CREATE TABLE b (
		id INTEGER PRIMARY KEY,
		a_id INTEGER REFERENCES a(id) ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED
	);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	fks := schema.Tables["b"].ForeignKeys()
	if len(fks) != 1 || fks[0].ReferencedTable != "a" || fks[0].OnDelete != model.ActionCascade {
		t.Fatalf("fks = %+v", fks)
	}
}

func TestParseUntypedColumn(t *testing.T) {
	src := `CREATE TABLE loose (id INTEGER PRIMARY KEY, anything);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	col := schema.Tables["loose"].FindColumn("anything")
	if col == nil || col.Type != "" {
		t.Fatalf("anything column = %+v", col)
	}
}

func TestParseCreateIndexWithWhere(t *testing.T) {
	src := `CREATE TABLE t (id INTEGER PRIMARY KEY, active INTEGER);
	CREATE INDEX idx_active ON t (active) WHERE active = 1;`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	idxs := schema.Tables["t"].Indexes
	if len(idxs) != 1 || idxs[0].Where == "" {
		t.Fatalf("indexes = %+v", idxs)
	}
}

func TestParseDefaultExpression(t *testing.T) {
	src := `CREATE TABLE t (id INTEGER PRIMARY KEY, created_at TEXT DEFAULT (datetime('now')));`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	col := schema.Tables["t"].FindColumn("created_at")
	if col.Default == nil || col.Default.Kind != model.ValueKindKeyword {
		t.Fatalf("created_at.Default = %+v", col.Default)
	}
}
