// Package main is the sqlxlate command-line entry point: translate, detect
// and verify subcommands built on cobra.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sqlxlate/sqlxlate/internal/cli"
	"github.com/sqlxlate/sqlxlate/internal/config"
	"github.com/sqlxlate/sqlxlate/internal/dialect"
	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/logging"
	"github.com/sqlxlate/sqlxlate/internal/translate"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sqlxlate",
		Short: "Translate MySQL, PostgreSQL and SQLite schema dumps between dialects",
	}
	root.AddCommand(translateCmd())
	root.AddCommand(detectCmd())
	root.AddCommand(verifyCmd())
	return root
}

func translateCmd() *cobra.Command {
	flags := &cli.TranslateFlags{}
	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a schema dump into the target dialect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args[0], flags)
		},
	}
	cli.BindTranslateFlags(cmd, flags)
	return cmd
}

func runTranslate(cmd *cobra.Command, path string, flags *cli.TranslateFlags) error {
	if err := cli.ValidateReportFormat(flags.ReportFormat); err != nil {
		return err
	}

	opts := flags.ToTranslateOptions()
	if flags.ConfigPath != "" {
		fileOpts, warnings, err := config.Load(flags.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", flags.ConfigPath, err)
		}
		for _, w := range warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		opts = overlayFlags(fileOpts.ToTranslateOptions(), opts, cmd)
	}

	target, ok := dialect.Parse(flags.Target)
	if !ok {
		return fmt.Errorf("--target is required and must be one of mysql, postgresql, sqlite (got %q)", flags.Target)
	}

	source := dialect.Unknown
	if flags.Source != "" {
		source, ok = dialect.Parse(flags.Source)
		if !ok {
			return fmt.Errorf("--source must be one of mysql, postgresql, sqlite (got %q)", flags.Source)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := translate.Translate(cmd.Context(), translate.Input{
		Path:    path,
		Content: content,
		Source:  source,
		Target:  target,
	}, opts)
	if err != nil {
		return err
	}

	if err := writeOutput(flags.Output, result.SQL); err != nil {
		return err
	}

	return reportTranslation(cmd, flags.ReportFormat, result)
}

// overlayFlags starts from the TOML-loaded options and applies only the
// fields whose flag the caller actually set on the command line, so
// --config values win except where an explicit flag overrides them.
func overlayFlags(base, fromFlags translate.Options, cmd *cobra.Command) translate.Options {
	out := base
	changed := cmd.Flags().Changed
	if changed("strict") {
		out.Strict = fromFlags.Strict
	}
	if changed("preserve-comments") {
		out.PreserveComments = fromFlags.PreserveComments
	}
	if changed("preserve-indexes") {
		out.PreserveIndexes = fromFlags.PreserveIndexes
	}
	if changed("preserve-constraints") {
		out.PreserveConstraints = fromFlags.PreserveConstraints
	}
	if changed("handle-unsupported") {
		out.HandleUnsupported = fromFlags.HandleUnsupported
	}
	if changed("enum-conversion") {
		out.EnumConversion = fromFlags.EnumConversion
	}
	if changed("auto-increment-conversion") {
		out.AutoIncrementConversion = fromFlags.AutoIncrementConversion
	}
	if changed("dependency-sort") {
		out.DependencySort = fromFlags.DependencySort
	}
	if changed("sort-for-create") {
		out.SortForCreate = fromFlags.SortForCreate
	}
	if changed("cycle-handling") {
		out.CycleHandling = fromFlags.CycleHandling
	}
	if changed("add-header-comments") {
		out.AddHeaderComments = fromFlags.AddHeaderComments
	}
	if changed("process-inserts") {
		out.ProcessInsertStatements = fromFlags.ProcessInsertStatements
	}
	if changed("insert-conflict-handling") {
		out.InsertConflictHandling = fromFlags.InsertConflictHandling
	}
	if changed("insert-batch-size") {
		out.InsertBatchSize = fromFlags.InsertBatchSize
	}
	if changed("include-column-names") {
		out.IncludeColumnNames = fromFlags.IncludeColumnNames
	}
	if changed("max-statement-size") {
		out.MaxStatementSize = fromFlags.MaxStatementSize
	}
	return out
}

func writeOutput(path, sql string) error {
	if path == "" {
		fmt.Print(sql)
		return nil
	}
	if err := os.WriteFile(path, []byte(sql), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

type translateReport struct {
	SourceDialect  string   `yaml:"source_dialect"`
	TargetDialect  string   `yaml:"target_dialect"`
	DetectedSource bool     `yaml:"detected_source"`
	Warnings       []string `yaml:"warnings,omitempty"`
}

func reportTranslation(cmd *cobra.Command, format string, result translate.Result) error {
	stderr := cmd.ErrOrStderr()
	if format == "yaml" {
		report := translateReport{
			SourceDialect:  result.SourceDialect.String(),
			TargetDialect:  result.TargetDialect.String(),
			DetectedSource: result.DetectedSource,
			Warnings:       result.Warnings,
		}
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("formatting report: %w", err)
		}
		_, err = fmt.Fprint(stderr, string(out))
		return err
	}

	if result.DetectedSource {
		fmt.Fprintf(stderr, "detected source dialect: %s\n", result.SourceDialect)
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(stderr, "warning:", w)
	}
	if result.Diagnostics != nil && result.Diagnostics.Len() > 0 {
		formatter := diagnostics.NewFormatter()
		formatter.WriteAll(stderr, result.Diagnostics)
		formatter.PrintSummary(stderr, result.Diagnostics)
	}
	return nil
}

func detectCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect the SQL dialect of a schema dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			logger := logging.New(logging.Options{Verbose: verbose, Writer: cmd.ErrOrStderr()})
			result := dialect.Detect(string(content))
			logger.Debug("dialect detection scored", "mysql", result.Scores.MySQL, "postgresql", result.Scores.PostgreSQL, "sqlite", result.Scores.SQLite)
			fmt.Fprintf(cmd.OutOrStdout(), "dialect: %s\nconfidence: %t\n", result.Dialect, result.Confidence)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func verifyCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Translate to SQLite and execute the result against an in-memory database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0], target)
		},
	}
	cmd.Flags().StringVar(&target, "target", "sqlite", "Target dialect to verify against; only sqlite can be executed locally")
	return cmd
}

func runVerify(cmd *cobra.Command, path, target string) error {
	targetDialect, ok := dialect.Parse(target)
	if !ok || targetDialect != dialect.SQLite {
		return fmt.Errorf("verify currently only supports --target sqlite (got %q)", target)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := translate.Translate(cmd.Context(), translate.Input{
		Path:    path,
		Content: content,
		Source:  dialect.Unknown,
		Target:  targetDialect,
	}, translate.Options{})
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if err := execScript(cmd.Context(), result.SQL); err != nil {
		return fmt.Errorf("executing translated script against sqlite: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "verified: translated script executed cleanly against an in-memory sqlite database (%d warning(s))\n", len(result.Warnings))
	for _, w := range result.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	return nil
}

func execScript(ctx context.Context, script string) error {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("opening in-memory database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, script); err != nil {
		return err
	}
	return nil
}
