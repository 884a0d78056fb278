package mysql

import (
	"testing"

	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

func TestParseCreateTableBasic(t *testing.T) {
	src := `CREATE TABLE users (
		id INT NOT NULL AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL,
		bio TEXT,
		PRIMARY KEY (id),
		UNIQUE KEY uq_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='app users';`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}

	table, ok := schema.Tables["users"]
	if !ok {
		t.Fatal("table users not found")
	}
	if table.Engine != "InnoDB" {
		t.Errorf("Engine = %q, want InnoDB", table.Engine)
	}
	if table.Charset != "utf8mb4" {
		t.Errorf("Charset = %q, want utf8mb4", table.Charset)
	}
	if table.Comment != "app users" {
		t.Errorf("Comment = %q, want %q", table.Comment, "app users")
	}
	if len(table.Columns) != 3 {
		t.Fatalf("len(Columns) = %d, want 3", len(table.Columns))
	}
	idCol := table.FindColumn("id")
	if idCol == nil || !idCol.AutoIncrement {
		t.Fatal("id column should be AUTO_INCREMENT")
	}
	pk := table.PrimaryKeyConstraint()
	if pk == nil || len(pk.Columns) != 1 || pk.Columns[0] != "id" {
		t.Fatalf("PrimaryKeyConstraint = %+v", pk)
	}
}

func TestParseForeignKeyWithActions(t *testing.T) {
	src := `CREATE TABLE posts (
		id INT PRIMARY KEY,
		user_id INT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE ON UPDATE SET NULL
	);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	fks := schema.Tables["posts"].ForeignKeys()
	if len(fks) != 1 {
		t.Fatalf("len(ForeignKeys) = %d, want 1", len(fks))
	}
	fk := fks[0]
	if fk.ReferencedTable != "users" || fk.OnDelete != model.ActionCascade || fk.OnUpdate != model.ActionSetNull {
		t.Errorf("fk = %+v", fk)
	}
}

func TestParseEnumAndDefault(t *testing.T) {
	src := `CREATE TABLE widgets (
		id INT PRIMARY KEY,
		status ENUM('active','inactive') NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	table := schema.Tables["widgets"]
	status := table.FindColumn("status")
	if status.Type != "enum" || len(status.EnumValues) != 2 {
		t.Fatalf("status column = %+v", status)
	}
	if status.Default == nil || status.Default.Text != "active" {
		t.Fatalf("status.Default = %+v", status.Default)
	}
	createdAt := table.FindColumn("created_at")
	if createdAt.Default == nil || createdAt.Default.Kind != model.ValueKindKeyword {
		t.Fatalf("created_at.Default = %+v", createdAt.Default)
	}
}

func TestParseInsertRows(t *testing.T) {
	src := "CREATE TABLE t (a INT, b TEXT); INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y');"

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	table := schema.Tables["t"]
	if len(table.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(table.Data))
	}
	if table.Data[0].Values["b"].Text != "x" {
		t.Errorf("row[0].b = %+v", table.Data[0].Values["b"])
	}
}

func TestParseCheckConstraint(t *testing.T) {
	src := `CREATE TABLE accounts (
		id INT PRIMARY KEY,
		balance DECIMAL(10,2),
		CHECK (balance >= 0)
	);`

	p := New()
	schema, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	table := schema.Tables["accounts"]
	var check *model.Constraint
	for _, c := range table.Constraints {
		if c.Type == model.ConstraintCheck {
			check = c
		}
	}
	if check == nil || check.Expression == "" {
		t.Fatalf("check constraint = %+v", check)
	}
}

func TestParseUnknownTableReferenceWarns(t *testing.T) {
	src := `ALTER TABLE ghost ADD COLUMN x INT;`
	p := New()
	_, diags, err := p.Parse("schema.sql", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(diags.Warnings()) == 0 {
		t.Fatal("expected a warning for unknown table reference")
	}
}
