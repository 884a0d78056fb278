package render

import (
	"fmt"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/platform"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// renderTable emits one table's CREATE TABLE statement, its non-inline
// indexes and its update trigger (if any).
func renderTable(buf *strings.Builder, table *model.Table, desc *platform.Descriptor, opts Options) []Warning {
	var warnings []Warning

	if opts.PreserveComments && table.Doc != "" {
		for _, line := range strings.Split(strings.TrimRight(table.Doc, "\n"), "\n") {
			fmt.Fprintf(buf, "-- %s\n", line)
		}
	}

	seqStmts, idColumns := identitySequenceSetup(table, desc, opts)
	for _, s := range seqStmts {
		fmt.Fprintln(buf, s)
	}

	fmt.Fprintf(buf, "CREATE TABLE %s (\n", desc.QuoteIdentifier(table.Name))

	var lines []string
	var commentWarnings []Warning
	for _, col := range table.Columns {
		line, w := renderColumnDef(col, desc, idColumns)
		lines = append(lines, "    "+line)
		if w != nil {
			commentWarnings = append(commentWarnings, *w)
		}
	}
	warnings = append(warnings, commentWarnings...)

	for _, c := range inlineConstraints(table, desc, opts) {
		lines = append(lines, "    "+c)
	}

	if desc.Dialect == dialect.SQLite {
		for _, fk := range table.ForeignKeys() {
			lines = append(lines, "    "+renderInlineForeignKey(fk, desc, &warnings))
		}
	}

	fmt.Fprintln(buf, strings.Join(lines, ",\n"))
	fmt.Fprintf(buf, ")%s;\n", tableOptionsSuffix(table, desc))

	if opts.PreserveComments && desc.Dialect == dialect.PostgreSQL {
		for _, col := range table.Columns {
			if col.Comment != "" {
				fmt.Fprintf(buf, "COMMENT ON COLUMN %s.%s IS '%s';\n",
					desc.QuoteIdentifier(table.Name), desc.QuoteIdentifier(col.Name), strings.ReplaceAll(col.Comment, "'", "''"))
			}
		}
	}

	if opts.PreserveIndexes {
		for _, idx := range table.Indexes {
			if idx.Type == model.IndexTypePrimary {
				continue
			}
			if idx.Type == model.IndexTypeUnique && desc.SupportsInlineUnique {
				continue // already emitted inline
			}
			renderCreateIndex(buf, table, idx, desc)
		}
	}

	if table.NeedsUpdateTrigger {
		renderUpdateTrigger(buf, table, desc)
	}

	fmt.Fprintln(buf)
	return warnings
}

// renderColumnDef renders one column definition line, returning a warning
// when a MySQL-style inline comment had to be dropped for SQLite.
func renderColumnDef(col *model.Column, desc *platform.Descriptor, idColumns map[string]string) (string, *Warning) {
	var b strings.Builder
	b.WriteString(desc.QuoteIdentifier(col.Name))
	b.WriteByte(' ')

	if override, ok := idColumns[col.Name]; ok {
		b.WriteString(override)
	} else {
		b.WriteString(desc.RenderType(col))
	}

	if desc.Dialect == dialect.SQLite && col.Option("primary_key") == "true" && col.AutoIncrement {
		b.WriteString(" PRIMARY KEY AUTOINCREMENT")
	} else if !col.Nullable {
		b.WriteString(" NOT NULL")
	}

	if col.AutoIncrement && desc.AutoIncrementKeyword() != "" && desc.Dialect == dialect.MySQL {
		b.WriteString(" " + desc.AutoIncrementKeyword())
	}

	if col.Default != nil {
		if _, isIdentity := idColumns[col.Name]; !isIdentity || col.Default.Kind != model.ValueKindKeyword {
			b.WriteString(" DEFAULT " + desc.QuoteValue(col.Default))
		}
	}

	var warn *Warning
	if col.Comment != "" {
		switch desc.Dialect {
		case dialect.MySQL:
			b.WriteString(fmt.Sprintf(" COMMENT '%s'", strings.ReplaceAll(col.Comment, "'", "''")))
		case dialect.SQLite:
			warn = &Warning{Message: "column comment on " + col.Name + " dropped, SQLite has no comment syntax"}
		}
	}

	return b.String(), warn
}

// inlineConstraints renders the PRIMARY KEY, UNIQUE (where inlined) and
// CHECK constraints that belong inside the CREATE TABLE parens.
func inlineConstraints(table *model.Table, desc *platform.Descriptor, opts Options) []string {
	var out []string
	if pk := table.PrimaryKeyConstraint(); pk != nil && !(desc.Dialect == dialect.SQLite && hasAutoIncrementPK(table)) {
		out = append(out, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdentList(desc, pk.Columns)))
	}
	if !opts.PreserveConstraints {
		return out
	}
	for _, c := range table.Constraints {
		switch c.Type {
		case model.ConstraintUnique:
			if desc.SupportsInlineUnique {
				name := ""
				if c.Name != "" {
					name = "CONSTRAINT " + desc.QuoteIdentifier(c.Name) + " "
				}
				out = append(out, fmt.Sprintf("%sUNIQUE (%s)", name, quoteIdentList(desc, c.Columns)))
			}
		case model.ConstraintCheck:
			out = append(out, fmt.Sprintf("CHECK (%s)", RewriteCheckExpression(c.Expression, desc)))
		}
	}
	return out
}

// hasAutoIncrementPK reports whether the table's primary key is a single
// auto-increment column declared PRIMARY KEY on the column itself. On SQLite
// renderColumnDef folds that key into the column definition (INTEGER
// PRIMARY KEY AUTOINCREMENT), so the table-level PRIMARY KEY (...) clause is
// left out; other targets keep the table-level clause.
func hasAutoIncrementPK(table *model.Table) bool {
	pk := table.PrimaryKeyConstraint()
	if pk == nil || len(pk.Columns) != 1 {
		return false
	}
	col := table.FindColumn(pk.Columns[0])
	return col != nil && col.AutoIncrement && col.Option("primary_key") == "true"
}

func renderInlineForeignKey(fk *model.Constraint, desc *platform.Descriptor, warnings *[]Warning) string {
	name := ""
	if fk.Name != "" {
		name = "CONSTRAINT " + desc.QuoteIdentifier(fk.Name) + " "
	}
	clause := fmt.Sprintf("%sFOREIGN KEY (%s) REFERENCES %s (%s)",
		name, quoteIdentList(desc, fk.Columns), desc.QuoteIdentifier(fk.ReferencedTable), quoteIdentList(desc, fk.ReferencedColumns))
	return clause + renderFKActions(fk, desc, warnings)
}

func tableOptionsSuffix(table *model.Table, desc *platform.Descriptor) string {
	if desc.Dialect != dialect.MySQL {
		if desc.Dialect == dialect.SQLite && table.WithoutRowID {
			return " WITHOUT ROWID"
		}
		return ""
	}
	var parts []string
	if table.Engine != "" {
		parts = append(parts, "ENGINE="+table.Engine)
	}
	if table.Charset != "" {
		parts = append(parts, "DEFAULT CHARSET="+table.Charset)
	}
	if table.Collation != "" {
		parts = append(parts, "COLLATE="+table.Collation)
	}
	if table.AutoIncrementStart != nil {
		parts = append(parts, fmt.Sprintf("AUTO_INCREMENT=%d", *table.AutoIncrementStart))
	}
	if table.Comment != "" {
		parts = append(parts, "COMMENT='"+strings.ReplaceAll(table.Comment, "'", "''")+"'")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func renderCreateIndex(buf *strings.Builder, table *model.Table, idx *model.Index, desc *platform.Descriptor) {
	unique := ""
	if idx.Type == model.IndexTypeUnique {
		unique = "UNIQUE "
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		col := desc.QuoteIdentifier(c.Name)
		if c.Length > 0 && desc.SupportsIndexLength {
			col = fmt.Sprintf("%s(%d)", col, c.Length)
		}
		if c.Direction != "" {
			col += " " + c.Direction
		}
		cols[i] = col
	}
	using := ""
	if idx.Method != "" && desc.Dialect == dialect.PostgreSQL {
		using = " USING " + idx.Method
	}
	where := ""
	if idx.Where != "" && desc.SupportsPartialIndexes {
		where = " WHERE " + RewriteCheckExpression(idx.Where, desc)
	}
	fmt.Fprintf(buf, "CREATE %sINDEX %s ON %s%s (%s)%s;\n",
		unique, desc.QuoteIdentifier(idx.Name), desc.QuoteIdentifier(table.Name), using, strings.Join(cols, ", "), where)
}

// identitySequenceSetup implements the postgres `sequence` auto-increment
// rendering mode: instead of a SERIAL/BIGSERIAL/SMALLSERIAL column type, it
// emits a CREATE SEQUENCE statement ahead of the table and an explicit
// nextval() default, the form pg_dump itself uses for pre-existing
// sequences. Returns the statements to print before CREATE TABLE and a
// column-name -> type-override map consumed by renderColumnDef.
func identitySequenceSetup(table *model.Table, desc *platform.Descriptor, opts Options) ([]string, map[string]string) {
	if desc.Dialect != dialect.PostgreSQL || opts.AutoIncrementConversion != AutoIncrementSequence {
		return nil, nil
	}
	var stmts []string
	overrides := map[string]string{}
	for _, col := range table.Columns {
		base, ok := baseIntegerFor(col.Type)
		if !ok {
			continue
		}
		seqName := fmt.Sprintf("%s_%s_seq", table.Name, col.Name)
		stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s;", desc.QuoteIdentifier(seqName)))
		overrides[col.Name] = fmt.Sprintf("%s DEFAULT nextval('%s')", base, seqName)
		col.Default = nil
		col.AutoIncrement = false
	}
	return stmts, overrides
}

func baseIntegerFor(t string) (string, bool) {
	switch t {
	case "serial":
		return "INTEGER", true
	case "bigserial":
		return "BIGINT", true
	case "smallserial":
		return "SMALLINT", true
	default:
		return "", false
	}
}

func renderUpdateTrigger(buf *strings.Builder, table *model.Table, desc *platform.Descriptor) {
	switch desc.Dialect {
	case dialect.PostgreSQL:
		fnName := table.Name + "_set_updated_at"
		fmt.Fprintf(buf, "CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$\n", desc.QuoteIdentifier(fnName))
		fmt.Fprintln(buf, "BEGIN")
		for _, col := range table.UpdateTriggerColumns {
			fmt.Fprintf(buf, "    NEW.%s = CURRENT_TIMESTAMP;\n", desc.QuoteIdentifier(col))
		}
		fmt.Fprintln(buf, "    RETURN NEW;")
		fmt.Fprintln(buf, "END;")
		fmt.Fprintln(buf, "$$ LANGUAGE plpgsql;")
		fmt.Fprintf(buf, "CREATE TRIGGER %s BEFORE UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION %s();\n",
			desc.QuoteIdentifier(table.Name+"_updated_at"), desc.QuoteIdentifier(table.Name), desc.QuoteIdentifier(fnName))
	case dialect.SQLite:
		trigName := desc.QuoteIdentifier(table.Name + "_updated_at")
		fmt.Fprintf(buf, "CREATE TRIGGER %s AFTER UPDATE ON %s\n", trigName, desc.QuoteIdentifier(table.Name))
		fmt.Fprintln(buf, "BEGIN")
		for _, col := range table.UpdateTriggerColumns {
			fmt.Fprintf(buf, "    UPDATE %s SET %s = CURRENT_TIMESTAMP WHERE rowid = NEW.rowid;\n",
				desc.QuoteIdentifier(table.Name), desc.QuoteIdentifier(col))
		}
		fmt.Fprintln(buf, "END;")
	}
}
