package postgres

import (
	"testing"

	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

func TestParseSerialPrimaryKey(t *testing.T) {
	src := `CREATE TABLE users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE
	);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	table := schema.Tables["users"]
	id := table.FindColumn("id")
	if id.Type != "serial" || !id.AutoIncrement {
		t.Fatalf("id column = %+v", id)
	}
}

func TestParseArrayColumn(t *testing.T) {
	src := `CREATE TABLE tags (id INT PRIMARY KEY, labels TEXT[]);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	labels := schema.Tables["tags"].FindColumn("labels")
	if labels.Type != "array" || labels.ElementType != "text" {
		t.Fatalf("labels column = %+v", labels)
	}
}

func TestParseEnumType(t *testing.T) {
	src := `CREATE TYPE status_t AS ENUM ('active', 'inactive');
	CREATE TABLE widgets (id INT PRIMARY KEY, status status_t NOT NULL);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	status := schema.Tables["widgets"].FindColumn("status")
	if status.Type != "enum" || len(status.EnumValues) != 2 {
		t.Fatalf("status column = %+v", status)
	}
}

func TestParseSchemaQualifiedTableName(t *testing.T) {
	src := `CREATE TABLE public.accounts (id INT PRIMARY KEY);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	if _, ok := schema.Tables["accounts"]; !ok {
		t.Fatal("expected table accounts")
	}
}

func TestParseCreateIndexWithWhereClause(t *testing.T) {
	src := `CREATE TABLE orders (id INT PRIMARY KEY, status TEXT);
	CREATE INDEX idx_open ON orders (status) WHERE status = 'open';`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	idxs := schema.Tables["orders"].Indexes
	if len(idxs) != 1 || idxs[0].Where == "" {
		t.Fatalf("indexes = %+v", idxs)
	}
}

func TestParseFunctionBodyIsSkipped(t *testing.T) {
	src := `CREATE TABLE t (id INT PRIMARY KEY);
	CREATE FUNCTION trg() RETURNS trigger AS $$
	BEGIN
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	if len(schema.Tables) != 1 {
		t.Fatalf("len(Tables) = %d, want 1", len(schema.Tables))
	}
}

func TestParseForeignKeyMismatchedColumnsIsError(t *testing.T) {
	src := `CREATE TABLE a (id INT PRIMARY KEY);
	CREATE TABLE b (
		a_id INT,
		a_id2 INT,
		FOREIGN KEY (a_id, a_id2) REFERENCES a(id)
	);`

	p := New()
	_, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !diags.HasErrors() {
		t.Fatal("expected a validation error for mismatched FK column counts")
	}
}

func TestParseFunctionCallDefault(t *testing.T) {
	src := `CREATE TABLE t (id INT PRIMARY KEY, created_at TIMESTAMP DEFAULT NOW());`
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
