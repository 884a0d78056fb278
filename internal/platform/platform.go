// Package platform describes per-dialect rendering capabilities and syntax,
// playing the role the teacher's internal/engine package played for code
// generation: one Descriptor per dialect, selected by name, consulted by the
// transformer and renderer instead of branching on dialect inline.
package platform

import (
	"fmt"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// Descriptor exposes a dialect's capabilities and rendering syntax.
type Descriptor struct {
	Dialect dialect.Dialect

	SupportsUnsigned          bool
	SupportsInlineUnique      bool
	SupportsColumnComments    bool
	SupportsPartialIndexes    bool
	SupportsIndexLength       bool
	SupportsSavepoints        bool
	SupportsFulltextNative    bool
	SupportsArrayType         bool
	SupportsSerialType        bool
	SupportsAlterAddConstraint bool
	// SupportsInlineForeignKeys marks the SQLite exception where foreign
	// keys may only be declared inline within CREATE TABLE.
	SupportsInlineForeignKeys bool

	identQuote string
}

// For returns the descriptor for a dialect.
func For(d dialect.Dialect) *Descriptor {
	switch d {
	case dialect.MySQL:
		return mysqlDescriptor
	case dialect.PostgreSQL:
		return postgresDescriptor
	case dialect.SQLite:
		return sqliteDescriptor
	default:
		return mysqlDescriptor
	}
}

var mysqlDescriptor = &Descriptor{
	Dialect:                    dialect.MySQL,
	SupportsUnsigned:           true,
	SupportsInlineUnique:       true,
	SupportsColumnComments:     true,
	SupportsPartialIndexes:     false,
	SupportsIndexLength:        true,
	SupportsSavepoints:         true,
	SupportsFulltextNative:     true,
	SupportsArrayType:          false,
	SupportsSerialType:         false,
	SupportsAlterAddConstraint: true,
	SupportsInlineForeignKeys:  false,
	identQuote:                 "`",
}

var postgresDescriptor = &Descriptor{
	Dialect:                    dialect.PostgreSQL,
	SupportsUnsigned:           false,
	SupportsInlineUnique:       true,
	SupportsColumnComments:     false, // emitted via COMMENT ON, a post-action
	SupportsPartialIndexes:     true,
	SupportsIndexLength:        false,
	SupportsSavepoints:         true,
	SupportsFulltextNative:     false, // GIN/tsvector, handled as a post-action
	SupportsArrayType:          true,
	SupportsSerialType:         true,
	SupportsAlterAddConstraint: true,
	SupportsInlineForeignKeys:  false,
	identQuote:                 `"`,
}

var sqliteDescriptor = &Descriptor{
	Dialect:                    dialect.SQLite,
	SupportsUnsigned:           false,
	SupportsInlineUnique:       true,
	SupportsColumnComments:     false,
	SupportsPartialIndexes:     true,
	SupportsIndexLength:        false,
	SupportsSavepoints:         true,
	SupportsFulltextNative:     false, // FTS5 virtual table, a post-action
	SupportsArrayType:          false,
	SupportsSerialType:         false,
	SupportsAlterAddConstraint: false,
	SupportsInlineForeignKeys:  true,
	identQuote:                 `"`,
}

// QuoteIdentifier quotes a bare identifier in the dialect's native quoting
// style, doubling any embedded quote character.
func (d *Descriptor) QuoteIdentifier(name string) string {
	q := d.identQuote
	escaped := strings.ReplaceAll(name, q, q+q)
	return q + escaped + q
}

// QuoteValue renders a literal model.Value in the dialect's syntax. String
// values are single-quoted with '' escaping in every supported dialect;
// keyword/expression values are emitted verbatim.
func (d *Descriptor) QuoteValue(v *model.Value) string {
	if v == nil {
		return "NULL"
	}
	switch v.Kind {
	case model.ValueKindNull:
		return "NULL"
	case model.ValueKindNumber:
		return v.Text
	case model.ValueKindString:
		return "'" + strings.ReplaceAll(v.Text, "'", "''") + "'"
	case model.ValueKindBlob:
		return d.quoteBlob(v.Text)
	case model.ValueKindKeyword:
		return v.Text
	default:
		return v.Text
	}
}

// quoteBlob renders an X'..' hex blob literal in the dialect's syntax;
// SQLite and MySQL share the X'..' form, PostgreSQL uses \x-prefixed bytea.
func (d *Descriptor) quoteBlob(text string) string {
	hex := strings.TrimSuffix(strings.TrimPrefix(strings.ToUpper(text), "X'"), "'")
	if d.Dialect == dialect.PostgreSQL {
		return "'\\x" + strings.ToLower(hex) + "'"
	}
	return "X'" + hex + "'"
}

// AutoIncrementKeyword returns the trailing column-definition fragment that
// marks identity generation, or "" if identity is expressed via the type
// name itself (PostgreSQL SERIAL, SQLite INTEGER PRIMARY KEY).
func (d *Descriptor) AutoIncrementKeyword() string {
	switch d.Dialect {
	case dialect.MySQL:
		return "AUTO_INCREMENT"
	case dialect.SQLite:
		return "AUTOINCREMENT"
	default:
		return ""
	}
}

// MaxIdentifierLength returns the dialect's maximum identifier byte length,
// used by the transformer's truncation pass.
func (d *Descriptor) MaxIdentifierLength() int {
	switch d.Dialect {
	case dialect.PostgreSQL:
		return 63
	case dialect.MySQL:
		return 64
	default:
		return 0 // SQLite imposes no practical limit
	}
}

// RenderType renders a neutral column type as dialect-native SQL syntax,
// including length/precision/scale and unsigned qualifiers where supported.
func (d *Descriptor) RenderType(c *model.Column) string {
	switch d.Dialect {
	case dialect.MySQL:
		return renderMySQLType(c)
	case dialect.PostgreSQL:
		return renderPostgresType(c)
	default:
		return renderSQLiteType(c)
	}
}

func withParams(base string, length, precision, scale int) string {
	switch {
	case precision > 0 && scale > 0:
		return fmt.Sprintf("%s(%d,%d)", base, precision, scale)
	case length > 0:
		return fmt.Sprintf("%s(%d)", base, length)
	default:
		return base
	}
}

func renderMySQLType(c *model.Column) string {
	base := ""
	switch c.Type {
	case "boolean":
		base = "TINYINT(1)"
	case "tinyint":
		base = "TINYINT"
	case "smallint", "smallserial":
		base = "SMALLINT"
	case "mediumint":
		base = "MEDIUMINT"
	case "int", "serial":
		base = "INT"
	case "bigint", "bigserial":
		base = "BIGINT"
	case "float":
		base = "FLOAT"
	case "double":
		base = "DOUBLE"
	case "decimal":
		return withParams("DECIMAL", 0, c.Precision, c.Scale)
	case "varchar":
		return withParams("VARCHAR", c.Length, 0, 0)
	case "char":
		return withParams("CHAR", c.Length, 0, 0)
	case "text":
		base = "TEXT"
	case "blob":
		base = "BLOB"
	case "date":
		base = "DATE"
	case "datetime":
		base = "DATETIME"
	case "timestamp":
		base = "TIMESTAMP"
	case "time":
		base = "TIME"
	case "json":
		base = "JSON"
	case "uuid":
		base = "CHAR(36)"
	case "enum":
		return renderMySQLEnum(c)
	case "array":
		base = "JSON" // demoted; see DESIGN.md array handling
	default:
		base = strings.ToUpper(c.Type)
	}
	if c.Unsigned {
		base += " UNSIGNED"
	}
	return base
}

func renderMySQLEnum(c *model.Column) string {
	vals := make([]string, len(c.EnumValues))
	for i, v := range c.EnumValues {
		vals[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return "ENUM(" + strings.Join(vals, ",") + ")"
}

func renderPostgresType(c *model.Column) string {
	switch c.Type {
	case "boolean":
		return "BOOLEAN"
	case "tinyint", "smallint":
		return "SMALLINT"
	case "mediumint", "int":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "serial":
		return "SERIAL"
	case "bigserial":
		return "BIGSERIAL"
	case "smallserial":
		return "SMALLSERIAL"
	case "float":
		return "REAL"
	case "double":
		return "DOUBLE PRECISION"
	case "decimal":
		return withParams("NUMERIC", 0, c.Precision, c.Scale)
	case "varchar":
		return withParams("VARCHAR", c.Length, 0, 0)
	case "char":
		return withParams("CHAR", c.Length, 0, 0)
	case "text":
		return "TEXT"
	case "blob":
		return "BYTEA"
	case "date":
		return "DATE"
	case "datetime":
		return "TIMESTAMP"
	case "timestamp":
		return "TIMESTAMPTZ"
	case "time":
		return "TIME"
	case "json":
		return "JSONB"
	case "uuid":
		return "UUID"
	case "enum":
		// The transformer demotes enum columns to "text" before a non-MySQL
		// target reaches the renderer; this case only guards direct callers.
		return "TEXT"
	case "array":
		return renderPostgresType(&model.Column{Type: c.ElementType}) + "[]"
	default:
		return strings.ToUpper(c.Type)
	}
}

func renderSQLiteType(c *model.Column) string {
	switch c.Type {
	case "boolean":
		return "INTEGER"
	case "tinyint", "smallint", "mediumint", "int", "bigint", "serial", "bigserial", "smallserial":
		return "INTEGER"
	case "float", "double", "decimal":
		return "REAL"
	case "varchar":
		return withParams("VARCHAR", c.Length, 0, 0)
	case "char":
		return withParams("CHAR", c.Length, 0, 0)
	case "text", "enum", "json", "uuid", "array":
		return "TEXT"
	case "blob":
		return "BLOB"
	case "date", "datetime", "timestamp":
		return "TEXT"
	case "time":
		return "TEXT"
	default:
		return strings.ToUpper(c.Type)
	}
}
