// Package translate implements component C9: the orchestrator wiring the
// dialect detector, the three dialect parsers, the schema transformer, the
// dependency sorter and the renderer into the single Translate entry point
// the CLI and library callers use.
package translate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sqlxlate/sqlxlate/internal/depsort"
	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/parser/mysql"
	"github.com/sqlxlate/sqlxlate/internal/parser/postgres"
	"github.com/sqlxlate/sqlxlate/internal/parser/sqlite"
	"github.com/sqlxlate/sqlxlate/internal/render"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
	"github.com/sqlxlate/sqlxlate/internal/transform"
)

// CycleHandling governs what happens when the dependency sorter finds a
// circular foreign-key reference it cannot order around.
type CycleHandling string

const (
	// CycleError aborts the translation with a diagnostics.CycleDetected.
	CycleError CycleHandling = "error"
	// CycleWarn breaks the cycle by falling back to parse order and
	// continues, recording a warning.
	CycleWarn CycleHandling = "warn"
	// CycleIgnore breaks the cycle silently.
	CycleIgnore CycleHandling = "ignore"
)

// Stage names a point in the translation pipeline, used in Options.Strict
// validation failures and in TranslationError.Stage.
type Stage string

const (
	StageInit         Stage = "init"
	StageDetecting    Stage = "detecting"
	StageParsing      Stage = "parsing"
	StageTransforming Stage = "transforming"
	StageSorting      Stage = "sorting"
	StageRendering    Stage = "rendering"
	StageDone         Stage = "done"
)

// Options bundles the complete spec §6 Options surface across every
// pipeline component the orchestrator drives.
type Options struct {
	Strict bool

	PreserveComments    bool
	PreserveIndexes     bool
	PreserveConstraints bool

	HandleUnsupported       transform.UnsupportedPolicy
	EnumConversion          transform.EnumConversion
	AutoIncrementConversion render.AutoIncrementMode

	DependencySort bool
	SortForCreate  bool
	CycleHandling  CycleHandling

	AddHeaderComments       bool
	ProcessInsertStatements bool
	InsertConflictHandling  render.ConflictMode
	InsertBatchSize         int
	IncludeColumnNames      bool
	MaxStatementSize        int

	// Logger receives a debug record at every stage transition. Nil uses
	// slog.Default().
	Logger *slog.Logger
}

// defaulted fills the documented defaults for any zero-valued field.
//
// DependencySort and SortForCreate both default to true per spec §6, but a
// Go bool's zero value cannot distinguish "left unset" from "explicitly
// false"; defaulting them here would silently override a caller's choice to
// disable sorting. The cobra flag definitions in internal/cli set their
// actual default to true, so Options arriving from the CLI already carries
// the right value either way.
func (o Options) defaulted() Options {
	out := o
	if o.CycleHandling == "" {
		out.CycleHandling = CycleWarn
	}
	if o.HandleUnsupported == "" {
		out.HandleUnsupported = transform.PolicyWarn
	}
	if o.EnumConversion == "" {
		out.EnumConversion = transform.EnumAsTextWithCheck
	}
	if o.AutoIncrementConversion == "" {
		out.AutoIncrementConversion = render.AutoIncrementNative
	}
	if o.InsertConflictHandling == "" {
		out.InsertConflictHandling = render.ConflictError
	}
	if o.InsertBatchSize <= 0 {
		out.InsertBatchSize = 1000
	}
	return out
}

// Result is the outcome of a successful translation.
type Result struct {
	SQL            string
	SourceDialect  dialect.Dialect
	TargetDialect  dialect.Dialect
	DetectedSource bool
	Warnings       []string
	Diagnostics    *diagnostics.Collection
}

// Input bundles the parameters that vary per call: the raw dump, the target
// dialect, and the optional explicit source dialect (Unknown triggers
// auto-detection).
type Input struct {
	Path    string
	Content []byte
	Source  dialect.Dialect
	Target  dialect.Dialect
}

// Translate runs the full INIT -> PARSING -> TRANSFORMING -> SORTING ->
// RENDERING -> DONE pipeline described in §4.8, returning a TranslationError
// wrapping the first component failure with stage context.
func Translate(ctx context.Context, in Input, opts Options) (Result, error) {
	opts = opts.defaulted()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var warnings []string

	logger.Debug("translation stage", "stage", StageDetecting)
	source := in.Source
	detected := false
	if source == dialect.Unknown {
		det := dialect.Detect(string(in.Content))
		source = det.Dialect
		detected = true
		if !det.Confidence {
			warnings = append(warnings, fmt.Sprintf("dialect detection found no confident signal, defaulting to %s", source))
		}
	}

	logger.Debug("translation stage", "stage", StageParsing, "source", source)
	schema, diags, err := parseSource(source, in.Path, in.Content, opts)
	if err != nil {
		return Result{}, &diagnostics.TranslationError{Stage: string(StageParsing), Cause: err}
	}
	if opts.Strict && diags.HasErrors() {
		return Result{}, &diagnostics.TranslationError{
			Stage: string(StageParsing),
			Cause: fmt.Errorf("%d parse error(s) under strict mode", len(diags.Errors())),
		}
	}

	logger.Debug("translation stage", "stage", StageTransforming, "target", in.Target)
	transformed, transformWarnings, err := transform.Transform(schema, source, in.Target, transform.Options{
		HandleUnsupported: opts.HandleUnsupported,
		EnumConversion:    opts.EnumConversion,
	})
	if err != nil {
		return Result{}, &diagnostics.TranslationError{Stage: string(StageTransforming), Cause: err}
	}
	warnings = append(warnings, formatTransformWarnings(transformWarnings)...)

	logger.Debug("translation stage", "stage", StageSorting)
	order := transformed.TableOrder
	if opts.DependencySort {
		sorted, err := resolveOrder(transformed, opts, &warnings)
		if err != nil {
			return Result{}, &diagnostics.TranslationError{Stage: string(StageSorting), Cause: err}
		}
		order = sorted
	}
	if !opts.SortForCreate {
		order = depsort.SortForDrop(order)
	}

	logger.Debug("translation stage", "stage", StageRendering)
	sql, renderWarnings := render.Render(transformed, order, in.Target, render.Options{
		PreserveComments:        opts.PreserveComments,
		PreserveIndexes:         opts.PreserveIndexes,
		PreserveConstraints:     opts.PreserveConstraints,
		AddHeaderComments:       opts.AddHeaderComments,
		ProcessInsertStatements: opts.ProcessInsertStatements,
		InsertConflictHandling:  opts.InsertConflictHandling,
		InsertBatchSize:         opts.InsertBatchSize,
		IncludeColumnNames:      opts.IncludeColumnNames,
		AutoIncrementConversion: opts.AutoIncrementConversion,
	})
	warnings = append(warnings, formatRenderWarnings(renderWarnings)...)
	logger.Debug("translation stage", "stage", StageDone, "warnings", len(warnings))

	return Result{
		SQL:            sql,
		SourceDialect:  source,
		TargetDialect:  in.Target,
		DetectedSource: detected,
		Warnings:       warnings,
		Diagnostics:    diags,
	}, nil
}

// parser is the common interface the three dialect parsers satisfy.
type parser interface {
	Parse(path string, content []byte) (*model.Schema, *diagnostics.Collection, error)
}

func parseSource(source dialect.Dialect, path string, content []byte, opts Options) (*model.Schema, *diagnostics.Collection, error) {
	var p parser
	switch source {
	case dialect.MySQL:
		pp := mysql.New()
		pp.MaxStatementSize = opts.MaxStatementSize
		pp.ProcessInserts = opts.ProcessInsertStatements
		p = pp
	case dialect.PostgreSQL:
		pp := postgres.New()
		pp.MaxStatementSize = opts.MaxStatementSize
		pp.ProcessInserts = opts.ProcessInsertStatements
		p = pp
	case dialect.SQLite:
		pp := sqlite.New()
		pp.MaxStatementSize = opts.MaxStatementSize
		pp.ProcessInserts = opts.ProcessInsertStatements
		p = pp
	default:
		return nil, nil, fmt.Errorf("unsupported source dialect %q", source)
	}
	return p.Parse(path, content)
}

// resolveOrder applies the dependency sorter and the configured
// cycle-handling policy on top of it; depsort.Sort itself always reports a
// genuine cycle as an error, leaving the policy decision to the caller.
func resolveOrder(schema *model.Schema, opts Options, warnings *[]string) ([]string, error) {
	result, sortWarnings, err := depsort.Sort(schema)
	for _, w := range sortWarnings {
		*warnings = append(*warnings, fmt.Sprintf("%s: %s", w.Table, w.Message))
	}
	if err == nil {
		return result.Order, nil
	}

	var cycle *diagnostics.CycleDetected
	if !isCycleDetected(err, &cycle) {
		return nil, err
	}

	switch opts.CycleHandling {
	case CycleError:
		return nil, err
	case CycleIgnore:
		return schema.TableOrder, nil
	default: // CycleWarn
		*warnings = append(*warnings, fmt.Sprintf("dependency cycle detected among tables %v, falling back to source order", cycle.Tables))
		return schema.TableOrder, nil
	}
}

func isCycleDetected(err error, out **diagnostics.CycleDetected) bool {
	if cd, ok := err.(*diagnostics.CycleDetected); ok {
		*out = cd
		return true
	}
	return false
}

func formatTransformWarnings(ws []transform.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		if w.Column != "" {
			out[i] = fmt.Sprintf("%s.%s: %s", w.Table, w.Column, w.Message)
		} else {
			out[i] = fmt.Sprintf("%s: %s", w.Table, w.Message)
		}
	}
	return out
}

func formatRenderWarnings(ws []render.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		if w.Table != "" {
			out[i] = fmt.Sprintf("%s: %s", w.Table, w.Message)
		} else {
			out[i] = w.Message
		}
	}
	return out
}
