// Package transform rewrites a parsed schema from its source dialect's
// semantics into the target dialect's semantics: identity columns, enums,
// booleans, arrays, fulltext indexes, unsigned integers, identifier
// length limits, and default-value literals each get a dialect-specific
// treatment before the schema reaches the dependency sorter and renderer.
package transform

import (
	"hash/fnv"
	"fmt"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/platform"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// UnsupportedPolicy governs how features with no target-dialect equivalent
// are handled.
type UnsupportedPolicy string

const (
	PolicyWarn  UnsupportedPolicy = "warn"
	PolicySkip  UnsupportedPolicy = "skip"
	PolicyError UnsupportedPolicy = "error"
)

// EnumConversion governs how ENUM columns are represented on non-MySQL
// targets, which have no native enum type.
type EnumConversion string

const (
	// EnumAsText renders the enum as a plain TEXT/VARCHAR column with no
	// constraint enforcing the original value set.
	EnumAsText EnumConversion = "text"
	// EnumAsTextWithCheck renders the enum as TEXT plus a CHECK(col IN (...))
	// constraint enforcing the original value set.
	EnumAsTextWithCheck EnumConversion = "text_with_check"
)

// Options configures the transform pass.
type Options struct {
	HandleUnsupported UnsupportedPolicy
	EnumConversion    EnumConversion
}

// Warning records a non-fatal semantic adjustment made during transform.
type Warning struct {
	Table   string
	Column  string
	Message string
}

// Transform clones schema and rewrites it for the target dialect, returning
// the new schema and any warnings raised along the way. Post-transform
// actions (deferred SQL the renderer emits after the main body) are
// appended to the returned schema's PostActions.
func Transform(schema *model.Schema, source, target dialect.Dialect, opts Options) (*model.Schema, []Warning, error) {
	if opts.HandleUnsupported == "" {
		opts.HandleUnsupported = PolicyWarn
	}
	if opts.EnumConversion == "" {
		opts.EnumConversion = EnumAsTextWithCheck
	}
	out := schema.Clone()
	var warnings []Warning
	targetDesc := platform.For(target)

	for _, name := range out.TableOrder {
		table := out.Tables[name]
		for _, col := range table.Columns {
			w := transformColumn(out, table, col, source, target, opts)
			warnings = append(warnings, w...)
		}

		fw, err := transformFulltextIndexes(out, table, target, opts)
		warnings = append(warnings, fw...)
		if err != nil {
			return nil, warnings, err
		}

		downgradeUnsupportedSpatial(table, target, &warnings)
	}

	if err := normalizeIdentifiers(out, targetDesc, &warnings, opts); err != nil {
		return nil, warnings, err
	}

	return out, warnings, nil
}

func transformColumn(schema *model.Schema, table *model.Table, col *model.Column, source, target dialect.Dialect, opts Options) []Warning {
	var warnings []Warning

	// MySQL's TINYINT(1) convention represents a boolean; normalize it to
	// the neutral boolean type regardless of target, since every renderer
	// already knows how to render "boolean".
	if source == dialect.MySQL && col.Type == "tinyint" && col.Length == 1 {
		col.Type = "boolean"
	}

	switch {
	case col.AutoIncrement && (col.Type == "int" || col.Type == "bigint" || col.Type == "smallint"):
		mapIdentityToTarget(col, target)
	case col.AutoIncrement && (col.Type == "serial" || col.Type == "bigserial" || col.Type == "smallserial"):
		mapIdentityToTarget(col, target)
	}

	if col.Unsigned && !platform.For(target).SupportsUnsigned {
		col.Unsigned = false
		warnings = append(warnings, Warning{Table: table.Name, Column: col.Name, Message: "UNSIGNED has no equivalent in the target dialect and was dropped"})
	}

	if col.Type == "enum" {
		warnings = append(warnings, transformEnum(schema, table, col, target, opts.EnumConversion)...)
	}

	if col.Type == "boolean" && target == dialect.SQLite {
		warnings = append(warnings, addBooleanCheck(table, col)...)
	}

	if col.Type == "array" && target != dialect.PostgreSQL {
		col.Type = "json"
		col.ElementType = ""
		warnings = append(warnings, Warning{Table: table.Name, Column: col.Name, Message: "array column demoted to json, the target dialect has no native array type"})
	}

	if onUpdate := col.Option("on_update"); onUpdate != "" && target != dialect.MySQL {
		table.NeedsUpdateTrigger = true
		table.UpdateTriggerColumns = append(table.UpdateTriggerColumns, col.Name)
		col.SetOption("on_update", "")
		warnings = append(warnings, Warning{Table: table.Name, Column: col.Name, Message: "ON UPDATE CURRENT_TIMESTAMP has no direct equivalent and was rewritten as an update trigger"})
	}

	normalizeDefault(col, target)

	return warnings
}

// mapIdentityToTarget rewrites an auto-incrementing numeric column's type
// for the target dialect's preferred identity idiom: MySQL uses
// AUTO_INCREMENT on a plain integer type, PostgreSQL uses the SERIAL family
// of type names, and SQLite uses INTEGER PRIMARY KEY with the AUTOINCREMENT
// keyword appended at render time.
func mapIdentityToTarget(col *model.Column, target dialect.Dialect) {
	base := baseIntegerType(col.Type)
	switch target {
	case dialect.PostgreSQL:
		col.Type = serialNameFor(base)
	case dialect.MySQL:
		col.Type = base
	case dialect.SQLite:
		col.Type = "int"
	}
}

func baseIntegerType(t string) string {
	switch t {
	case "serial", "smallserial":
		return "int"
	case "bigserial":
		return "bigint"
	default:
		return t
	}
}

func serialNameFor(base string) string {
	switch base {
	case "bigint":
		return "bigserial"
	case "smallint":
		return "smallserial"
	default:
		return "serial"
	}
}

// transformEnum adapts a neutral "enum" column for dialects with weaker or
// absent native enum support, per §4.4: MySQL renders ENUM(...) directly.
// SQLite always demotes to TEXT plus a CHECK(col IN (...)) constraint, since
// it has no enum type at all. PostgreSQL demotes to TEXT, with the CHECK
// constraint added only when EnumConversion requests it.
func transformEnum(schema *model.Schema, table *model.Table, col *model.Column, target dialect.Dialect, conv EnumConversion) []Warning {
	switch target {
	case dialect.MySQL:
		return nil
	case dialect.SQLite:
		return demoteEnumToText(table, col, true)
	case dialect.PostgreSQL:
		withCheck := conv == EnumAsTextWithCheck
		warnings := demoteEnumToText(table, col, withCheck)
		_ = schema
		return warnings
	}
	return nil
}

func demoteEnumToText(table *model.Table, col *model.Column, withCheck bool) []Warning {
	values := append([]string(nil), col.EnumValues...)
	col.Type = "text"
	col.EnumValues = nil
	if !withCheck {
		return []Warning{{Table: table.Name, Column: col.Name, Message: "enum demoted to TEXT, the target dialect has no native enum type"}}
	}
	vals := make([]string, len(values))
	for i, v := range values {
		vals[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	expr := fmt.Sprintf("%s IN (%s)", col.Name, strings.Join(vals, ","))
	table.Constraints = append(table.Constraints, &model.Constraint{
		Type: model.ConstraintCheck, Expression: expr,
	})
	return []Warning{{Table: table.Name, Column: col.Name, Message: "enum demoted to TEXT with a CHECK constraint, the target dialect has no native enum type"}}
}

// addBooleanCheck adds a CHECK(col IN (0,1)) constraint for a boolean
// column rendered as SQLite's plain INTEGER, per §4.4: "Booleans: ...
// SQLite INTEGER with CHECK (col IN (0,1))."
func addBooleanCheck(table *model.Table, col *model.Column) []Warning {
	expr := fmt.Sprintf("%s IN (0,1)", col.Name)
	table.Constraints = append(table.Constraints, &model.Constraint{
		Type: model.ConstraintCheck, Expression: expr,
	})
	return []Warning{{Table: table.Name, Column: col.Name, Message: "boolean rendered as INTEGER with a CHECK constraint, SQLite has no native boolean type"}}
}

func normalizeDefault(col *model.Column, target dialect.Dialect) {
	if col.Default == nil {
		return
	}
	if col.Type == "boolean" {
		switch {
		case col.Default.Kind == model.ValueKindNumber && target == dialect.PostgreSQL:
			if col.Default.Text == "0" {
				col.Default = &model.Value{Kind: model.ValueKindKeyword, Text: "FALSE"}
			} else {
				col.Default = &model.Value{Kind: model.ValueKindKeyword, Text: "TRUE"}
			}
		case col.Default.Kind == model.ValueKindKeyword && target != dialect.PostgreSQL:
			up := strings.ToUpper(col.Default.Text)
			if up == "TRUE" {
				col.Default = &model.Value{Kind: model.ValueKindNumber, Text: "1"}
			} else if up == "FALSE" {
				col.Default = &model.Value{Kind: model.ValueKindNumber, Text: "0"}
			}
		}
	}
	if col.Default.Kind == model.ValueKindKeyword {
		up := strings.ToUpper(col.Default.Text)
		if up == "NOW()" && target != dialect.PostgreSQL {
			col.Default = &model.Value{Kind: model.ValueKindKeyword, Text: "CURRENT_TIMESTAMP"}
		}
		if (up == "CURRENT_TIMESTAMP" || up == "CURRENT_TIMESTAMP()") && target == dialect.PostgreSQL {
			col.Default = &model.Value{Kind: model.ValueKindKeyword, Text: "CURRENT_TIMESTAMP"}
		}
	}
}

// transformFulltextIndexes rewrites FULLTEXT indexes for dialects without
// native support, replacing them with a descriptive post-action the
// renderer emits after the main schema body.
func transformFulltextIndexes(schema *model.Schema, table *model.Table, target dialect.Dialect, opts Options) ([]Warning, error) {
	if target == dialect.MySQL {
		return nil, nil
	}
	var warnings []Warning
	kept := table.Indexes[:0]
	for _, idx := range table.Indexes {
		if idx.Type != model.IndexTypeFulltext {
			kept = append(kept, idx)
			continue
		}
		if opts.HandleUnsupported == PolicyError {
			return warnings, &diagnostics.UnsupportedFeature{Feature: "fulltext_index", Table: table.Name, Detail: "no native fulltext index in target dialect"}
		}
		if opts.HandleUnsupported == PolicySkip {
			continue
		}
		cols := idx.ColumnNames()
		switch target {
		case dialect.PostgreSQL:
			tsvCol := table.Name + "_tsv"
			schema.PostActions = append(schema.PostActions,
				model.PostAction{
					Type:        "postgresql_generated_column",
					Table:       table.Name,
					Description: "generated tsvector column backing FULLTEXT index " + idx.Name,
					SQL: fmt.Sprintf(
						"ALTER TABLE %s ADD COLUMN %s tsvector GENERATED ALWAYS AS (to_tsvector('simple', %s)) STORED;",
						table.Name, tsvCol, strings.Join(cols, " || ' ' || "),
					),
				},
				model.PostAction{
					Type:        "postgresql_gin_index",
					Table:       table.Name,
					Description: "GIN index over " + tsvCol + ", replacing FULLTEXT index " + idx.Name,
					SQL:         fmt.Sprintf("CREATE INDEX %s ON %s USING GIN (%s);", idx.Name, table.Name, tsvCol),
				},
			)
		case dialect.SQLite:
			ftsTable := table.Name + "_fts"
			schema.PostActions = append(schema.PostActions,
				model.PostAction{
					Type:        "sqlite_fts_table",
					Table:       table.Name,
					Description: "FTS5 shadow table replacing FULLTEXT index " + idx.Name,
					SQL:         fmt.Sprintf("CREATE VIRTUAL TABLE %s USING fts5(%s, content='%s');", ftsTable, strings.Join(cols, ", "), table.Name),
				},
				model.PostAction{
					Type:        "sqlite_fts_populate",
					Table:       table.Name,
					Description: "initial population of " + ftsTable + " from existing rows",
					SQL:         fmt.Sprintf("INSERT INTO %s(rowid, %s) SELECT rowid, %s FROM %s;", ftsTable, strings.Join(cols, ", "), strings.Join(cols, ", "), table.Name),
				},
				model.PostAction{
					Type:        "sqlite_fts_triggers",
					Table:       table.Name,
					Description: "triggers keeping " + ftsTable + " in sync with " + table.Name,
					SQL: fmt.Sprintf(
						"CREATE TRIGGER %s_ai AFTER INSERT ON %s BEGIN INSERT INTO %s(rowid, %s) VALUES (new.rowid, %s); END;\n"+
							"CREATE TRIGGER %s_ad AFTER DELETE ON %s BEGIN INSERT INTO %s(%s, rowid, %s) VALUES('delete', old.rowid, %s); END;\n"+
							"CREATE TRIGGER %s_au AFTER UPDATE ON %s BEGIN INSERT INTO %s(%s, rowid, %s) VALUES('delete', old.rowid, %s); INSERT INTO %s(rowid, %s) VALUES (new.rowid, %s); END;",
						table.Name, table.Name, ftsTable, strings.Join(cols, ", "), prefixedCols("new", cols),
						table.Name, table.Name, ftsTable, ftsTable, strings.Join(cols, ", "), prefixedCols("old", cols),
						table.Name, table.Name, ftsTable, ftsTable, strings.Join(cols, ", "), prefixedCols("old", cols), ftsTable, strings.Join(cols, ", "), prefixedCols("new", cols),
					),
				},
			)
		}
		warnings = append(warnings, Warning{Table: table.Name, Message: "FULLTEXT index " + idx.Name + " rewritten as a post-transform action, the target dialect has no native equivalent"})
	}
	table.Indexes = kept
	return warnings, nil
}

// prefixedCols renders a trigger-row-alias-qualified column list, e.g.
// prefixedCols("new", []string{"title", "body"}) -> "new.title, new.body".
func prefixedCols(alias string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

// downgradeUnsupportedSpatial demotes SPATIAL indexes to plain indexes: none
// of the three dialects' neutral representations model spatial index types,
// so the positional information is kept (for lookups) but the spatial
// semantics are not.
func downgradeUnsupportedSpatial(table *model.Table, target dialect.Dialect, warnings *[]Warning) {
	for _, idx := range table.Indexes {
		if idx.Type == model.IndexTypeSpatial {
			idx.Type = model.IndexTypeIndex
			*warnings = append(*warnings, Warning{Table: table.Name, Message: "SPATIAL index " + idx.Name + " downgraded to a plain index"})
		}
	}
}

// normalizeIdentifiers truncates table and column names exceeding the
// target dialect's identifier length limit, deterministically (a content
// hash suffix, so repeated runs over the same schema produce the same
// name), and propagates the rename to every foreign key reference.
func normalizeIdentifiers(schema *model.Schema, desc *platform.Descriptor, warnings *[]Warning, opts Options) error {
	limit := desc.MaxIdentifierLength()
	if limit <= 0 {
		return nil
	}

	tableRenames := map[string]string{}
	for _, name := range schema.TableOrder {
		if len(name) > limit {
			newName := truncateIdentifier(name, limit)
			tableRenames[name] = newName
		}
	}

	for oldName, newName := range tableRenames {
		table := schema.Tables[oldName]
		table.Name = newName
		delete(schema.Tables, oldName)
		schema.Tables[newName] = table
		for i, n := range schema.TableOrder {
			if n == oldName {
				schema.TableOrder[i] = newName
			}
		}
		if opts.HandleUnsupported != PolicySkip {
			*warnings = append(*warnings, Warning{Table: newName, Message: fmt.Sprintf("table name %q exceeds the target dialect's identifier length limit and was truncated to %q", oldName, newName)})
		}
	}

	colRenamesByTable := map[string]map[string]string{}
	for _, name := range schema.TableOrder {
		table := schema.Tables[name]

		colRenames := map[string]string{}
		for _, col := range table.Columns {
			if len(col.Name) > limit {
				newName := truncateIdentifier(col.Name, limit)
				colRenames[col.Name] = newName
			}
		}
		colRenamesByTable[table.Name] = colRenames
		for oldName, newName := range colRenames {
			col := table.FindColumn(oldName)
			if col != nil {
				col.Name = newName
			}
			renameColumnReferences(table, oldName, newName)
			if opts.HandleUnsupported != PolicySkip {
				*warnings = append(*warnings, Warning{Table: table.Name, Column: newName, Message: fmt.Sprintf("column name %q exceeds the target dialect's identifier length limit and was truncated to %q", oldName, newName)})
			}
		}

		for _, c := range table.ForeignKeys() {
			if renamed, ok := tableRenames[c.ReferencedTable]; ok {
				c.ReferencedTable = renamed
			}
		}
	}

	for _, name := range schema.TableOrder {
		for _, c := range schema.Tables[name].ForeignKeys() {
			renames := colRenamesByTable[c.ReferencedTable]
			for i, rc := range c.ReferencedColumns {
				if renamed, ok := renames[rc]; ok {
					c.ReferencedColumns[i] = renamed
				}
			}
		}
	}

	return nil
}

func renameColumnReferences(table *model.Table, oldName, newName string) {
	for _, idx := range table.Indexes {
		for i, c := range idx.Columns {
			if c.Name == oldName {
				idx.Columns[i].Name = newName
			}
		}
	}
	for _, c := range table.Constraints {
		for i, colName := range c.Columns {
			if colName == oldName {
				c.Columns[i] = newName
			}
		}
	}
}

// truncateIdentifier shortens name to fit limit bytes, appending an 8-hex
// digit FNV-1a hash of the original name so distinct long names that share
// a prefix don't collide after truncation.
func truncateIdentifier(name string, limit int) string {
	sum := fnv.New32a()
	sum.Write([]byte(name))
	suffix := fmt.Sprintf("_%08x", sum.Sum32())
	keep := limit - len(suffix)
	if keep < 1 {
		keep = 1
	}
	if keep > len(name) {
		keep = len(name)
	}
	return name[:keep] + suffix
}
