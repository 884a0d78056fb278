package shared

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// ValidateLiteralDefault checks a column's DEFAULT literal against its
// declared neutral type for the two cases where a real parser catches
// mistakes a bare string can't: UUID literals (parsed and canonicalized with
// google/uuid) and DECIMAL/NUMERIC literals (parsed and re-serialized with
// shopspring/decimal, avoiding the float round-off a strconv-based check
// would risk on precise literals). Any other column type is left untouched.
// Invalid literals are reported as warnings, not parse errors: the source
// dialect accepted the dump, so a malformed literal is surfaced for the
// user to fix rather than aborting the translation.
func (c *Cursor) ValidateLiteralDefault(col *model.Column) {
	if col.Default == nil {
		return
	}
	switch col.Type {
	case "uuid":
		if col.Default.Kind != model.ValueKindString {
			return
		}
		id, err := uuid.Parse(col.Default.Text)
		if err != nil {
			c.AddDiag(diagnostics.Warning("column " + col.Name + ": default value is not a valid UUID literal").
				At(c.Path, col.Span.StartLine, col.Span.StartColumn).Build())
			return
		}
		col.Default.Text = id.String()
	case "decimal":
		if col.Default.Kind != model.ValueKindNumber {
			return
		}
		d, err := decimal.NewFromString(col.Default.Text)
		if err != nil {
			c.AddDiag(diagnostics.Warning("column " + col.Name + ": default value is not a valid decimal literal").
				At(c.Path, col.Span.StartLine, col.Span.StartColumn).Build())
			return
		}
		col.Default.Text = d.String()
	}
}

// ValidateRowCell applies the same UUID/decimal canonicalization to a single
// INSERT row cell value, given the declared type of the column it fills.
func ValidateRowCell(colType string, v *model.Value) {
	if v == nil {
		return
	}
	switch colType {
	case "uuid":
		if v.Kind != model.ValueKindString {
			return
		}
		if id, err := uuid.Parse(v.Text); err == nil {
			v.Text = id.String()
		}
	case "decimal":
		if v.Kind != model.ValueKindNumber {
			return
		}
		if d, err := decimal.NewFromString(v.Text); err == nil {
			v.Text = d.String()
		}
	}
}
