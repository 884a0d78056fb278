// Package config loads the sqlxlate translation options from a TOML file,
// the file-based counterpart to the cmd/sqlxlate CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/render"
	"github.com/sqlxlate/sqlxlate/internal/transform"
	"github.com/sqlxlate/sqlxlate/internal/translate"
)

// Options mirrors the closed Options enumeration from §6 as a single
// TOML-tagged struct.
type Options struct {
	Strict bool `toml:"strict"`

	PreserveComments    bool `toml:"preserve_comments"`
	PreserveIndexes     bool `toml:"preserve_indexes"`
	PreserveConstraints bool `toml:"preserve_constraints"`

	HandleUnsupported       string `toml:"handle_unsupported"`
	EnumConversion          string `toml:"enum_conversion"`
	AutoIncrementConversion string `toml:"auto_increment_conversion"`

	DependencySort bool   `toml:"dependency_sort"`
	SortForCreate  bool   `toml:"sort_for_create"`
	CycleHandling  string `toml:"cycle_handling"`

	AddHeaderComments       bool   `toml:"add_header_comments"`
	ProcessInsertStatements bool   `toml:"process_insert_statements"`
	InsertConflictHandling  string `toml:"insert_conflict_handling"`
	InsertBatchSize         int    `toml:"insert_batch_size"`
	IncludeColumnNames      bool   `toml:"include_column_names"`
	MaxStatementSize        int    `toml:"max_statement_size"`
}

var knownKeys = map[string]struct{}{
	"strict":                     {},
	"preserve_comments":          {},
	"preserve_indexes":           {},
	"preserve_constraints":       {},
	"handle_unsupported":         {},
	"enum_conversion":            {},
	"auto_increment_conversion":  {},
	"dependency_sort":            {},
	"sort_for_create":            {},
	"cycle_handling":             {},
	"add_header_comments":        {},
	"process_insert_statements":  {},
	"insert_conflict_handling":   {},
	"insert_batch_size":          {},
	"include_column_names":       {},
	"max_statement_size":         {},
}

var validHandleUnsupported = map[string]struct{}{"warn": {}, "skip": {}, "error": {}}
var validEnumConversion = map[string]struct{}{"text": {}, "text_with_check": {}}
var validAutoIncrementConversion = map[string]struct{}{"native": {}, "sequence": {}}
var validCycleHandling = map[string]struct{}{"warn": {}, "error": {}, "ignore": {}}
var validInsertConflictHandling = map[string]struct{}{"error": {}, "update": {}, "skip": {}}

// Load reads and validates a TOML options file, applying the documented
// defaults to any key the file leaves unset. Unknown keys are reported as a
// diagnostics.ValidationError when the loaded strict field is true,
// otherwise collected and returned alongside the resolved Options.
func Load(path string) (Options, []string, error) {
	var opts Options

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return opts, nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, nil, fmt.Errorf("%s: %w", path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return opts, nil, fmt.Errorf("%s: %w", path, err)
	}

	var warnings []string
	unknown := unknownKeys(raw)
	if len(unknown) > 0 {
		slices.Sort(unknown)
		message := fmt.Sprintf("%s: unknown configuration keys: %s", path, strings.Join(unknown, ", "))
		if opts.Strict {
			return opts, nil, &diagnostics.ValidationError{Message: message}
		}
		warnings = append(warnings, message)
	}

	resolved := resolveDefaults(opts, raw)
	if err := validate(path, resolved); err != nil {
		return opts, warnings, err
	}

	return resolved, warnings, nil
}

// resolveDefaults fills every field the file left unset with the spec's
// documented default. Boolean fields that default to true are resolved by
// checking for the key's presence in the raw TOML map, since a Go bool's
// zero value can't distinguish "absent" from "explicitly false".
func resolveDefaults(opts Options, raw map[string]any) Options {
	out := opts
	out.DependencySort = boolOrDefault(raw, "dependency_sort", true)
	out.SortForCreate = boolOrDefault(raw, "sort_for_create", true)
	out.PreserveIndexes = boolOrDefault(raw, "preserve_indexes", true)
	out.PreserveConstraints = boolOrDefault(raw, "preserve_constraints", true)

	if out.HandleUnsupported == "" {
		out.HandleUnsupported = "warn"
	}
	if out.EnumConversion == "" {
		out.EnumConversion = "text_with_check"
	}
	if out.AutoIncrementConversion == "" {
		out.AutoIncrementConversion = "native"
	}
	if out.CycleHandling == "" {
		out.CycleHandling = "warn"
	}
	if out.InsertConflictHandling == "" {
		out.InsertConflictHandling = "error"
	}
	if out.InsertBatchSize <= 0 {
		out.InsertBatchSize = 1000
	}
	return out
}

func boolOrDefault(raw map[string]any, key string, dflt bool) bool {
	v, ok := raw[key]
	if !ok {
		return dflt
	}
	b, ok := v.(bool)
	if !ok {
		return dflt
	}
	return b
}

func unknownKeys(raw map[string]any) []string {
	var unknown []string
	for key := range raw {
		if _, ok := knownKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

func validate(path string, o Options) error {
	checks := []struct {
		field string
		value string
		set   map[string]struct{}
	}{
		{"handle_unsupported", o.HandleUnsupported, validHandleUnsupported},
		{"enum_conversion", o.EnumConversion, validEnumConversion},
		{"auto_increment_conversion", o.AutoIncrementConversion, validAutoIncrementConversion},
		{"cycle_handling", o.CycleHandling, validCycleHandling},
		{"insert_conflict_handling", o.InsertConflictHandling, validInsertConflictHandling},
	}
	for _, c := range checks {
		if _, ok := c.set[c.value]; !ok {
			return fmt.Errorf("%s: invalid %s %q", path, c.field, c.value)
		}
	}
	if o.InsertBatchSize < 1 {
		return fmt.Errorf("%s: insert_batch_size must be positive", path)
	}
	return nil
}

// ToTranslateOptions converts the file-loaded Options into the typed
// translate.Options the orchestrator consumes.
func (o Options) ToTranslateOptions() translate.Options {
	return translate.Options{
		Strict:                  o.Strict,
		PreserveComments:        o.PreserveComments,
		PreserveIndexes:         o.PreserveIndexes,
		PreserveConstraints:     o.PreserveConstraints,
		HandleUnsupported:       transform.UnsupportedPolicy(o.HandleUnsupported),
		EnumConversion:          transform.EnumConversion(o.EnumConversion),
		AutoIncrementConversion: render.AutoIncrementMode(o.AutoIncrementConversion),
		DependencySort:          o.DependencySort,
		SortForCreate:           o.SortForCreate,
		CycleHandling:           translate.CycleHandling(o.CycleHandling),
		AddHeaderComments:       o.AddHeaderComments,
		ProcessInsertStatements: o.ProcessInsertStatements,
		InsertConflictHandling:  render.ConflictMode(o.InsertConflictHandling),
		InsertBatchSize:         o.InsertBatchSize,
		IncludeColumnNames:      o.IncludeColumnNames,
		MaxStatementSize:        o.MaxStatementSize,
	}
}
