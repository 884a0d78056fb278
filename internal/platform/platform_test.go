package platform

import (
	"testing"

	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

func TestQuoteIdentifier(t *testing.T) {
	cases := []struct {
		d    dialect.Dialect
		name string
		want string
	}{
		{dialect.MySQL, "order", "`order`"},
		{dialect.PostgreSQL, "order", `"order"`},
		{dialect.SQLite, "order", `"order"`},
	}
	for _, c := range cases {
		got := For(c.d).QuoteIdentifier(c.name)
		if got != c.want {
			t.Errorf("QuoteIdentifier(%v, %q) = %q, want %q", c.d, c.name, got, c.want)
		}
	}
}

func TestQuoteValueString(t *testing.T) {
	v := &model.Value{Kind: model.ValueKindString, Text: "O'Brien"}
	got := For(dialect.MySQL).QuoteValue(v)
	want := "'O''Brien'"
	if got != want {
		t.Errorf("QuoteValue() = %q, want %q", got, want)
	}
}

func TestRenderTypeVarchar(t *testing.T) {
	col := &model.Column{Type: "varchar", Length: 255}
	if got := For(dialect.MySQL).RenderType(col); got != "VARCHAR(255)" {
		t.Errorf("RenderType() = %q", got)
	}
	if got := For(dialect.PostgreSQL).RenderType(col); got != "VARCHAR(255)" {
		t.Errorf("RenderType() = %q", got)
	}
}

func TestRenderTypeSQLiteCollapsesIntegers(t *testing.T) {
	col := &model.Column{Type: "bigint"}
	if got := For(dialect.SQLite).RenderType(col); got != "INTEGER" {
		t.Errorf("RenderType() = %q, want INTEGER", got)
	}
}

func TestAutoIncrementKeyword(t *testing.T) {
	if got := For(dialect.MySQL).AutoIncrementKeyword(); got != "AUTO_INCREMENT" {
		t.Errorf("MySQL AutoIncrementKeyword() = %q", got)
	}
	if got := For(dialect.PostgreSQL).AutoIncrementKeyword(); got != "" {
		t.Errorf("PostgreSQL AutoIncrementKeyword() = %q, want empty", got)
	}
}

func TestMaxIdentifierLength(t *testing.T) {
	if For(dialect.PostgreSQL).MaxIdentifierLength() != 63 {
		t.Error("PostgreSQL MaxIdentifierLength should be 63")
	}
	if For(dialect.SQLite).MaxIdentifierLength() != 0 {
		t.Error("SQLite MaxIdentifierLength should be 0 (unbounded)")
	}
}
