// Package render implements component C8: turning a transformed Schema into
// a target-dialect SQL script using a platform.Descriptor for quoting, type
// rendering and capability flags. Rendering happens in two structural passes
// per table (inline body, then non-inline indexes/triggers) followed by a
// foreign-key pass, an optional data pass and a post-transform-actions
// section, matching the output layout in §6 of the translation design.
package render

import (
	"fmt"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/platform"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// ConflictMode governs how duplicate-key INSERTs are handled in the data
// pass (§4.7's conflict-handling table).
type ConflictMode string

const (
	ConflictError  ConflictMode = "error"
	ConflictUpdate ConflictMode = "update"
	ConflictSkip   ConflictMode = "skip"
)

// AutoIncrementMode selects how PostgreSQL identity columns are rendered.
type AutoIncrementMode string

const (
	// AutoIncrementNative uses SERIAL/BIGSERIAL/SMALLSERIAL column types.
	AutoIncrementNative AutoIncrementMode = "native"
	// AutoIncrementSequence uses a plain integer type with an explicit
	// CREATE SEQUENCE and a nextval() DEFAULT, the form pg_dump itself
	// emits for pre-existing identity columns.
	AutoIncrementSequence AutoIncrementMode = "sequence"
)

// Options configures the renderer, mirroring the relevant entries of the
// spec §6 Options table.
type Options struct {
	PreserveComments        bool
	PreserveIndexes         bool
	PreserveConstraints     bool
	AddHeaderComments       bool
	ProcessInsertStatements bool
	InsertConflictHandling  ConflictMode
	InsertBatchSize         int
	IncludeColumnNames      bool
	AutoIncrementConversion AutoIncrementMode
}

// defaulted returns a copy of opts with zero-value fields replaced by the
// documented defaults.
func (o Options) defaulted() Options {
	out := o
	if out.InsertBatchSize <= 0 {
		out.InsertBatchSize = 1000
	}
	if out.InsertConflictHandling == "" {
		out.InsertConflictHandling = ConflictError
	}
	if out.AutoIncrementConversion == "" {
		out.AutoIncrementConversion = AutoIncrementNative
	}
	return out
}

// Warning records a non-fatal rendering-time mitigation (a dropped comment,
// a downgraded FK action, disabled conflict handling, and similar).
type Warning struct {
	Table   string
	Message string
}

// Render emits the complete target script for schema, whose tables are
// visited in the given create order (normally the output of depsort.Sort,
// reversed by the caller when sort_for_create is false).
func Render(schema *model.Schema, order []string, target dialect.Dialect, opts Options) (string, []Warning) {
	opts = opts.defaulted()
	desc := platform.For(target)
	var buf strings.Builder
	var warnings []Warning

	if opts.AddHeaderComments {
		writeHeader(&buf, target)
	}
	writeSetup(&buf, target)

	for _, name := range order {
		table := schema.Tables[name]
		if table == nil {
			continue
		}
		w := renderTable(&buf, table, desc, opts)
		warnings = append(warnings, w...)
	}

	if desc.Dialect != dialect.SQLite {
		w := renderForeignKeys(&buf, schema, order, desc)
		warnings = append(warnings, w...)
	}

	if opts.ProcessInsertStatements {
		w := renderData(&buf, schema, order, desc, opts)
		warnings = append(warnings, w...)
	}

	renderPostActions(&buf, schema.PostActions)

	return buf.String(), warnings
}

func writeHeader(buf *strings.Builder, target dialect.Dialect) {
	fmt.Fprintf(buf, "-- Generated by sqlxlate for %s\n", target)
	fmt.Fprintln(buf, "-- Do not edit the schema here; regenerate from the source dump instead.")
	fmt.Fprintln(buf)
}

func writeSetup(buf *strings.Builder, target dialect.Dialect) {
	switch target {
	case dialect.SQLite:
		fmt.Fprintln(buf, "PRAGMA foreign_keys = ON;")
		fmt.Fprintln(buf)
	case dialect.MySQL:
		fmt.Fprintln(buf, "SET SQL_MODE = 'NO_AUTO_VALUE_ON_ZERO';")
		fmt.Fprintln(buf)
	}
}

func quoteIdentList(desc *platform.Descriptor, names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = desc.QuoteIdentifier(n)
	}
	return strings.Join(out, ", ")
}

