package cli

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/sqlxlate/sqlxlate/internal/render"
	"github.com/sqlxlate/sqlxlate/internal/transform"
	"github.com/sqlxlate/sqlxlate/internal/translate"
)

func bindForTest(t *testing.T) *TranslateFlags {
	t.Helper()
	cmd := &cobra.Command{Use: "translate"}
	var f TranslateFlags
	BindTranslateFlags(cmd, &f)
	return &f
}

func TestBindTranslateFlagsDefaults(t *testing.T) {
	f := bindForTest(t)

	if !f.PreserveComments {
		t.Errorf("PreserveComments default = false, want true")
	}
	if !f.DependencySort {
		t.Errorf("DependencySort default = false, want true")
	}
	if !f.SortForCreate {
		t.Errorf("SortForCreate default = false, want true")
	}
	if f.Strict {
		t.Errorf("Strict default = true, want false")
	}
	if f.ReportFormat != "text" {
		t.Errorf("ReportFormat default = %q, want text", f.ReportFormat)
	}
	if f.HandleUnsupported != "" {
		t.Errorf("HandleUnsupported default = %q, want empty (filled by translate.Options.defaulted)", f.HandleUnsupported)
	}
}

func TestTranslateFlagsToTranslateOptions(t *testing.T) {
	f := TranslateFlags{
		Strict:                  true,
		PreserveComments:        true,
		PreserveIndexes:         true,
		PreserveConstraints:     true,
		HandleUnsupported:       "skip",
		EnumConversion:          "text",
		AutoIncrementConversion: "sequence",
		DependencySort:          true,
		SortForCreate:           false,
		CycleHandling:           "error",
		AddHeaderComments:       true,
		ProcessInserts:          true,
		InsertConflictHandling:  "update",
		InsertBatchSize:         500,
		IncludeColumnNames:      true,
		MaxStatementSize:        4096,
	}

	got := f.ToTranslateOptions()

	want := translate.Options{
		Strict:                  true,
		PreserveComments:        true,
		PreserveIndexes:         true,
		PreserveConstraints:     true,
		HandleUnsupported:       transform.PolicySkip,
		EnumConversion:          transform.EnumAsText,
		AutoIncrementConversion: render.AutoIncrementSequence,
		DependencySort:          true,
		SortForCreate:           false,
		CycleHandling:           translate.CycleError,
		AddHeaderComments:       true,
		ProcessInsertStatements: true,
		InsertConflictHandling:  render.ConflictUpdate,
		InsertBatchSize:         500,
		IncludeColumnNames:      true,
		MaxStatementSize:        4096,
	}

	if got != want {
		t.Fatalf("ToTranslateOptions() = %+v, want %+v", got, want)
	}
}

func TestValidateReportFormat(t *testing.T) {
	for _, format := range []string{"text", "yaml"} {
		if err := ValidateReportFormat(format); err != nil {
			t.Errorf("ValidateReportFormat(%q) returned error: %v", format, err)
		}
	}

	if err := ValidateReportFormat("xml"); err == nil {
		t.Fatal("ValidateReportFormat(\"xml\") expected error, got nil")
	}
}
