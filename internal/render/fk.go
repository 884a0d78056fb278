package render

import (
	"fmt"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/platform"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// renderForeignKeys emits one ALTER TABLE ... ADD CONSTRAINT ... FOREIGN KEY
// statement per foreign key across every table, in create order. Only
// called for targets that support ALTER TABLE ADD CONSTRAINT; SQLite's
// foreign keys are rendered inline by renderTable instead.
func renderForeignKeys(buf *strings.Builder, schema *model.Schema, order []string, desc *platform.Descriptor) []Warning {
	var warnings []Warning
	var any bool
	for _, name := range order {
		table := schema.Tables[name]
		if table == nil {
			continue
		}
		for _, fk := range table.ForeignKeys() {
			if !any {
				fmt.Fprintln(buf, "-- Foreign key constraints")
				any = true
			}
			line := renderFKActions(fk, desc, &warnings)
			constraintName := fk.Name
			if constraintName == "" {
				constraintName = fmt.Sprintf("%s_%s_fkey", table.Name, strings.Join(fk.Columns, "_"))
			}
			fmt.Fprintf(buf, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)%s;\n",
				desc.QuoteIdentifier(table.Name), desc.QuoteIdentifier(constraintName),
				quoteIdentList(desc, fk.Columns), desc.QuoteIdentifier(fk.ReferencedTable),
				quoteIdentList(desc, fk.ReferencedColumns), line)
		}
	}
	if any {
		fmt.Fprintln(buf)
	}
	return warnings
}

// renderFKActions renders the ON DELETE/ON UPDATE clause for a foreign key.
// Per spec §4.7, SQLite downgrades SET DEFAULT to SET NULL with a warning
// (SQLite has no DEFAULT-restoring referential action); other targets
// render SET DEFAULT natively. Unrecognized actions drop silently, since
// ParseReferentialAction already maps anything unrecognized to ActionNone.
func renderFKActions(fk *model.Constraint, desc *platform.Descriptor, warnings *[]Warning) string {
	var b strings.Builder
	if a := resolveAction(fk.OnDelete, fk, desc, warnings); a != "" {
		b.WriteString(" ON DELETE " + a)
	}
	if a := resolveAction(fk.OnUpdate, fk, desc, warnings); a != "" {
		b.WriteString(" ON UPDATE " + a)
	}
	return b.String()
}

func resolveAction(a model.ReferentialAction, fk *model.Constraint, desc *platform.Descriptor, warnings *[]Warning) string {
	if a == model.ActionSetDefault && desc.Dialect == dialect.SQLite {
		if warnings != nil {
			*warnings = append(*warnings, Warning{
				Table:   fk.ReferencedTable,
				Message: fmt.Sprintf("SET DEFAULT downgraded to SET NULL on foreign key referencing %s, SQLite has no DEFAULT-restoring referential action", fk.ReferencedTable),
			})
		}
		return model.ActionSetNull.String()
	}
	return a.String()
}

// RewriteCheckExpression re-quotes identifier tokens inside a raw CHECK or
// partial-index expression captured in source-dialect syntax, converting
// MySQL backtick and Postgres/SQLite double-quote identifier quoting to the
// target dialect's quote character. Single-quoted string literals are left
// untouched.
func RewriteCheckExpression(expr string, desc *platform.Descriptor) string {
	var b strings.Builder
	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '`', '"':
			quote := runes[i]
			j := i + 1
			var ident strings.Builder
			for j < len(runes) && runes[j] != quote {
				ident.WriteRune(runes[j])
				j++
			}
			b.WriteString(desc.QuoteIdentifier(ident.String()))
			i = j
		case '\'':
			b.WriteRune(runes[i])
			j := i + 1
			for j < len(runes) {
				b.WriteRune(runes[j])
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						b.WriteRune(runes[j+1])
						j += 2
						continue
					}
					break
				}
				j++
			}
			i = j
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}
