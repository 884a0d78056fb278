// Package cli binds the translate subcommand's cobra flags and converts them
// into an internal/translate.Options. The command tree itself (translate,
// detect, verify) is built in cmd/sqlxlate.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlxlate/sqlxlate/internal/render"
	"github.com/sqlxlate/sqlxlate/internal/transform"
	"github.com/sqlxlate/sqlxlate/internal/translate"
)

// TranslateFlags holds the cobra-bound flag destinations mirroring the §6
// Options table for the translate subcommand.
type TranslateFlags struct {
	Source string
	Target string

	ConfigPath string

	Strict bool

	PreserveComments    bool
	PreserveIndexes     bool
	PreserveConstraints bool

	HandleUnsupported       string
	EnumConversion          string
	AutoIncrementConversion string

	DependencySort bool
	SortForCreate  bool
	CycleHandling  string

	AddHeaderComments      bool
	ProcessInserts         bool
	InsertConflictHandling string
	InsertBatchSize        int
	IncludeColumnNames     bool
	MaxStatementSize       int

	Output       string
	ReportFormat string
}

// BindTranslateFlags registers every translate flag on cmd, defaulting
// DependencySort and SortForCreate to true: cobra tracks flag presence
// independently of the bound bool's zero value, which is what lets
// translate.Options.defaulted leave those two fields alone.
func BindTranslateFlags(cmd *cobra.Command, f *TranslateFlags) {
	cmd.Flags().StringVar(&f.Source, "source", "", "Source dialect (mysql, postgresql, sqlite); autodetected when omitted")
	cmd.Flags().StringVar(&f.Target, "target", "", "Target dialect (mysql, postgresql, sqlite)")
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "Path to a TOML options file; flags explicitly set on the command line override it")

	cmd.Flags().BoolVar(&f.Strict, "strict", false, "Abort on the first parse error instead of recovering to the next statement")

	cmd.Flags().BoolVar(&f.PreserveComments, "preserve-comments", true, "Carry source comments into the rendered output")
	cmd.Flags().BoolVar(&f.PreserveIndexes, "preserve-indexes", true, "Carry secondary indexes into the rendered output")
	cmd.Flags().BoolVar(&f.PreserveConstraints, "preserve-constraints", true, "Carry check and unique constraints into the rendered output")

	cmd.Flags().StringVar(&f.HandleUnsupported, "handle-unsupported", "", "Policy for source features with no target equivalent: warn, skip, error")
	cmd.Flags().StringVar(&f.EnumConversion, "enum-conversion", "", "ENUM conversion strategy: text, text_with_check")
	cmd.Flags().StringVar(&f.AutoIncrementConversion, "auto-increment-conversion", "", "Auto-increment rendering mode: native, sequence")

	cmd.Flags().BoolVar(&f.DependencySort, "dependency-sort", true, "Reorder CREATE TABLE statements by foreign-key dependency")
	cmd.Flags().BoolVar(&f.SortForCreate, "sort-for-create", true, "Order tables for CREATE (referenced-first); false orders for DROP (dependent-first)")
	cmd.Flags().StringVar(&f.CycleHandling, "cycle-handling", "", "Dependency cycle policy: warn, error, ignore")

	cmd.Flags().BoolVar(&f.AddHeaderComments, "add-header-comments", false, "Prefix the output with a generated-by header")
	cmd.Flags().BoolVar(&f.ProcessInserts, "process-inserts", true, "Translate INSERT statements in addition to DDL")
	cmd.Flags().StringVar(&f.InsertConflictHandling, "insert-conflict-handling", "", "INSERT conflict policy: error, update, skip")
	cmd.Flags().IntVar(&f.InsertBatchSize, "insert-batch-size", 0, "Rows per multi-row INSERT statement")
	cmd.Flags().BoolVar(&f.IncludeColumnNames, "include-column-names", true, "Spell out the column list in rendered INSERT statements")
	cmd.Flags().IntVar(&f.MaxStatementSize, "max-statement-size", 0, "Maximum bytes per source statement before the parser rejects it; 0 disables the limit")

	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "Output file; defaults to stdout")
	cmd.Flags().StringVarP(&f.ReportFormat, "report-format", "r", "text", "Warning/diagnostic report format: text, yaml")
}

// ToTranslateOptions converts the bound flags into translate.Options,
// leaving any flag left at its zero value for translate.Options.defaulted
// to fill in (the two default-to-true bools are already handled by cobra's
// own flag defaults above).
func (f TranslateFlags) ToTranslateOptions() translate.Options {
	return translate.Options{
		Strict:                  f.Strict,
		PreserveComments:        f.PreserveComments,
		PreserveIndexes:         f.PreserveIndexes,
		PreserveConstraints:     f.PreserveConstraints,
		HandleUnsupported:       transform.UnsupportedPolicy(f.HandleUnsupported),
		EnumConversion:          transform.EnumConversion(f.EnumConversion),
		AutoIncrementConversion: render.AutoIncrementMode(f.AutoIncrementConversion),
		DependencySort:          f.DependencySort,
		SortForCreate:           f.SortForCreate,
		CycleHandling:           translate.CycleHandling(f.CycleHandling),
		AddHeaderComments:       f.AddHeaderComments,
		ProcessInsertStatements: f.ProcessInserts,
		InsertConflictHandling:  render.ConflictMode(f.InsertConflictHandling),
		InsertBatchSize:         f.InsertBatchSize,
		IncludeColumnNames:      f.IncludeColumnNames,
		MaxStatementSize:        f.MaxStatementSize,
	}
}

// ValidateReportFormat rejects anything outside the closed {text, yaml} set.
func ValidateReportFormat(format string) error {
	switch format {
	case "text", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --report-format %q: must be text or yaml", format)
	}
}
