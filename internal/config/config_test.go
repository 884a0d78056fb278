package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlxlate.toml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `strict = false`)

	opts, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	if !opts.DependencySort {
		t.Errorf("DependencySort default = false, want true")
	}
	if !opts.SortForCreate {
		t.Errorf("SortForCreate default = false, want true")
	}
	if opts.HandleUnsupported != "warn" {
		t.Errorf("HandleUnsupported default = %q, want warn", opts.HandleUnsupported)
	}
	if opts.EnumConversion != "text_with_check" {
		t.Errorf("EnumConversion default = %q, want text_with_check", opts.EnumConversion)
	}
	if opts.AutoIncrementConversion != "native" {
		t.Errorf("AutoIncrementConversion default = %q, want native", opts.AutoIncrementConversion)
	}
	if opts.CycleHandling != "warn" {
		t.Errorf("CycleHandling default = %q, want warn", opts.CycleHandling)
	}
	if opts.InsertConflictHandling != "error" {
		t.Errorf("InsertConflictHandling default = %q, want error", opts.InsertConflictHandling)
	}
	if opts.InsertBatchSize != 1000 {
		t.Errorf("InsertBatchSize default = %d, want 1000", opts.InsertBatchSize)
	}
}

func TestLoadExplicitFalseOverridesDefault(t *testing.T) {
	path := writeConfig(t, `
dependency_sort = false
sort_for_create = false
`)

	opts, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if opts.DependencySort {
		t.Errorf("DependencySort = true, want false (explicit)")
	}
	if opts.SortForCreate {
		t.Errorf("SortForCreate = true, want false (explicit)")
	}
}

func TestLoadInvalidEnumValue(t *testing.T) {
	path := writeConfig(t, `handle_unsupported = "explode"`)

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid handle_unsupported value")
	}
	if !strings.Contains(err.Error(), "handle_unsupported") {
		t.Errorf("error should mention the offending field, got: %v", err)
	}
}

func TestLoadInvalidInsertBatchSize(t *testing.T) {
	path := writeConfig(t, `insert_batch_size = 0`)

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for non-positive insert_batch_size")
	}
	if !strings.Contains(err.Error(), "insert_batch_size") {
		t.Errorf("error should mention insert_batch_size, got: %v", err)
	}
}

func TestLoadUnknownKeysWarnByDefault(t *testing.T) {
	path := writeConfig(t, `
strict = false
bogus_option = true
`)

	opts, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "bogus_option") {
		t.Errorf("warning should mention offending key, got: %q", warnings[0])
	}
	if opts.Strict {
		t.Errorf("Strict = true, want false")
	}
}

func TestLoadUnknownKeysErrorWhenStrict(t *testing.T) {
	path := writeConfig(t, `
strict = true
bogus_option = true
`)

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key under strict mode")
	}
	if !strings.Contains(err.Error(), "bogus_option") {
		t.Errorf("error should mention offending key, got: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestToTranslateOptionsCarriesAllFields(t *testing.T) {
	path := writeConfig(t, `
strict = true
preserve_comments = true
preserve_indexes = false
preserve_constraints = false
handle_unsupported = "skip"
enum_conversion = "text"
auto_increment_conversion = "sequence"
cycle_handling = "error"
add_header_comments = true
process_insert_statements = true
insert_conflict_handling = "update"
insert_batch_size = 250
include_column_names = true
max_statement_size = 65536
`)

	opts, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	translated := opts.ToTranslateOptions()
	if !translated.Strict {
		t.Errorf("Strict not carried through")
	}
	if string(translated.HandleUnsupported) != "skip" {
		t.Errorf("HandleUnsupported = %q, want skip", translated.HandleUnsupported)
	}
	if string(translated.CycleHandling) != "error" {
		t.Errorf("CycleHandling = %q, want error", translated.CycleHandling)
	}
	if translated.InsertBatchSize != 250 {
		t.Errorf("InsertBatchSize = %d, want 250", translated.InsertBatchSize)
	}
	if translated.MaxStatementSize != 65536 {
		t.Errorf("MaxStatementSize = %d, want 65536", translated.MaxStatementSize)
	}
}
