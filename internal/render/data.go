package render

import (
	"fmt"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/platform"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// renderData emits batched INSERT statements for every table carrying
// literal row data, in create order so that referenced rows land before
// the rows that reference them.
func renderData(buf *strings.Builder, schema *model.Schema, order []string, desc *platform.Descriptor, opts Options) []Warning {
	var warnings []Warning
	var any bool
	for _, name := range order {
		table := schema.Tables[name]
		if table == nil || len(table.Data) == 0 {
			continue
		}
		if !any {
			fmt.Fprintln(buf, "-- Data")
			any = true
		}
		w := renderTableData(buf, table, desc, opts)
		warnings = append(warnings, w...)
	}
	return warnings
}

func renderTableData(buf *strings.Builder, table *model.Table, desc *platform.Descriptor, opts Options) []Warning {
	var warnings []Warning
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = c.Name
	}

	conflictCols := conflictTargetColumns(table)
	conflictMode := opts.InsertConflictHandling
	if conflictMode != ConflictError && len(conflictCols) == 0 {
		warnings = append(warnings, Warning{
			Table:   table.Name,
			Message: "conflict handling disabled, table has no primary key or unique constraint to target",
		})
		conflictMode = ConflictError
	}

	batch := opts.InsertBatchSize
	for start := 0; start < len(table.Data); start += batch {
		end := min(start+batch, len(table.Data))
		renderInsertBatch(buf, table, cols, table.Data[start:end], desc, opts, conflictMode, conflictCols)
	}
	return warnings
}

// conflictTargetColumns returns the column list a conflict clause should
// target: the primary key if one exists, else the first unique constraint.
func conflictTargetColumns(table *model.Table) []string {
	if pk := table.PrimaryKeyConstraint(); pk != nil {
		return pk.Columns
	}
	for _, c := range table.Constraints {
		if c.Type == model.ConstraintUnique {
			return c.Columns
		}
	}
	return nil
}

func renderInsertBatch(buf *strings.Builder, table *model.Table, cols []string, rows []model.Row, desc *platform.Descriptor, opts Options, mode ConflictMode, conflictCols []string) {
	verb := "INSERT INTO"
	if desc.Dialect == dialect.MySQL && mode == ConflictSkip {
		verb = "INSERT IGNORE INTO"
	}

	fmt.Fprintf(buf, "%s %s", verb, desc.QuoteIdentifier(table.Name))
	if opts.IncludeColumnNames {
		fmt.Fprintf(buf, " (%s)", quoteIdentList(desc, cols))
	}
	fmt.Fprintln(buf, " VALUES")

	lines := make([]string, len(rows))
	for i, row := range rows {
		vals := make([]string, len(cols))
		for j, col := range cols {
			v := row.Values[col]
			vals[j] = desc.QuoteValue(v)
		}
		lines[i] = "    (" + strings.Join(vals, ", ") + ")"
	}
	fmt.Fprint(buf, strings.Join(lines, ",\n"))
	fmt.Fprintln(buf, conflictClause(table, cols, desc, mode, conflictCols))
}

// conflictClause renders the trailing conflict-handling fragment for the
// dialects that express it as a clause rather than a verb (MySQL's
// INSERT IGNORE is handled in the statement verb instead).
func conflictClause(table *model.Table, cols []string, desc *platform.Descriptor, mode ConflictMode, conflictCols []string) string {
	switch desc.Dialect {
	case dialect.MySQL:
		if mode != ConflictUpdate {
			return ";"
		}
		sets := updateAssignments(cols, conflictCols, func(c string) string {
			return desc.QuoteIdentifier(c) + " = VALUES(" + desc.QuoteIdentifier(c) + ")"
		})
		if len(sets) == 0 {
			return ";"
		}
		return " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ") + ";"
	case dialect.PostgreSQL, dialect.SQLite:
		if len(conflictCols) == 0 {
			return ";"
		}
		target := "(" + quoteIdentList(desc, conflictCols) + ")"
		switch mode {
		case ConflictSkip:
			return " ON CONFLICT " + target + " DO NOTHING;"
		case ConflictUpdate:
			sets := updateAssignments(cols, conflictCols, func(c string) string {
				return desc.QuoteIdentifier(c) + " = EXCLUDED." + desc.QuoteIdentifier(c)
			})
			if len(sets) == 0 {
				return " ON CONFLICT " + target + " DO NOTHING;"
			}
			return " ON CONFLICT " + target + " DO UPDATE SET " + strings.Join(sets, ", ") + ";"
		default:
			return ";"
		}
	default:
		return ";"
	}
}

func updateAssignments(cols, conflictCols []string, render func(string) string) []string {
	excluded := make(map[string]bool, len(conflictCols))
	for _, c := range conflictCols {
		excluded[c] = true
	}
	var out []string
	for _, c := range cols {
		if excluded[c] {
			continue
		}
		out = append(out, render(c))
	}
	return out
}
