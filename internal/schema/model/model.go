// Package model defines the dialect-neutral schema representation shared by
// every parser, the transformer, the dependency sorter and the renderer.
package model

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/schema/tokenizer"
)

// Schema is an ordered mapping from table name to Table, plus the side
// artifacts produced while transforming from one dialect to another.
//
// Order is preserved in TableOrder; Tables is keyed by name for lookup.
// Source schemas built by a parser are considered read-only once handed to
// the transformer, which clones before mutating.
type Schema struct {
	Tables      map[string]*Table
	TableOrder  []string
	Views       map[string]*View
	PostActions []PostAction
}

// NewSchema constructs an empty schema with initialized maps.
func NewSchema() *Schema {
	return &Schema{
		Tables: make(map[string]*Table),
		Views:  make(map[string]*View),
	}
}

// AddTable registers a table, recording insertion order on first sight.
func (s *Schema) AddTable(t *Table) {
	if _, exists := s.Tables[t.Name]; !exists {
		s.TableOrder = append(s.TableOrder, t.Name)
	}
	s.Tables[t.Name] = t
}

// OrderedTables returns tables in parse/insertion order.
func (s *Schema) OrderedTables() []*Table {
	out := make([]*Table, 0, len(s.TableOrder))
	for _, name := range s.TableOrder {
		if t, ok := s.Tables[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Clone deep-copies the schema so the transformer can mutate without
// affecting the parser's original result.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	out.TableOrder = append([]string(nil), s.TableOrder...)
	for name, t := range s.Tables {
		out.Tables[name] = t.Clone()
	}
	for name, v := range s.Views {
		cp := *v
		out.Views[name] = &cp
	}
	out.PostActions = append([]PostAction(nil), s.PostActions...)
	return out
}

// Table models a single table and its columns, indexes, constraints and
// optional literal row data.
type Table struct {
	Name    string
	Doc     string
	Columns []*Column
	Indexes []*Index
	// Constraints holds PRIMARY_KEY, FOREIGN_KEY, UNIQUE and CHECK
	// constraints for the table, in declaration order.
	Constraints []*Constraint

	Engine            string
	Charset           string
	Collation         string
	Comment           string
	AutoIncrementStart *int64

	NeedsUpdateTrigger   bool
	UpdateTriggerColumns []string

	WithoutRowID bool
	Strict       bool

	Data []Row

	Span tokenizer.Span
}

// Clone deep-copies a table.
func (t *Table) Clone() *Table {
	cp := *t
	cp.Columns = make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cp.Columns[i] = c.Clone()
	}
	cp.Indexes = make([]*Index, len(t.Indexes))
	for i, idx := range t.Indexes {
		cp.Indexes[i] = idx.Clone()
	}
	cp.Constraints = make([]*Constraint, len(t.Constraints))
	for i, c := range t.Constraints {
		cp.Constraints[i] = c.Clone()
	}
	cp.UpdateTriggerColumns = append([]string(nil), t.UpdateTriggerColumns...)
	cp.Data = append([]Row(nil), t.Data...)
	if t.AutoIncrementStart != nil {
		v := *t.AutoIncrementStart
		cp.AutoIncrementStart = &v
	}
	return &cp
}

// Column describes a single column in a table.
type Column struct {
	Name string
	// Type is the neutral type token (int, bigint, varchar, text, decimal,
	// boolean, date, datetime, timestamp, json, uuid, blob, enum, serial,
	// bigserial, smallserial, array, ...).
	Type string

	Length    int
	Precision int
	Scale     int

	Nullable bool
	Default  *Value

	Unsigned      bool
	AutoIncrement bool
	Comment       string

	// EnumValues holds the literal values for Type == "enum".
	EnumValues []string

	// ElementType holds the neutral element type token when Type == "array".
	ElementType string

	// Options carries recognized free-form flags: is_array, on_update,
	// primary_key, unique.
	Options map[string]string

	Span tokenizer.Span
}

// Clone deep-copies a column.
func (c *Column) Clone() *Column {
	cp := *c
	if c.Default != nil {
		d := *c.Default
		cp.Default = &d
	}
	cp.EnumValues = append([]string(nil), c.EnumValues...)
	if c.Options != nil {
		cp.Options = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			cp.Options[k] = v
		}
	}
	return &cp
}

// SetOption records a free-form flag on the column.
func (c *Column) SetOption(key, value string) {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
}

// Option reads a free-form flag, returning "" if unset.
func (c *Column) Option(key string) string {
	return c.Options[key]
}

// IndexType identifies the kind of index.
type IndexType int

const (
	// IndexTypeIndex is a plain secondary index.
	IndexTypeIndex IndexType = iota
	// IndexTypePrimary marks the primary key index (exactly zero or one per table).
	IndexTypePrimary
	// IndexTypeUnique marks a unique index.
	IndexTypeUnique
	// IndexTypeFulltext marks a fulltext index (MySQL FULLTEXT).
	IndexTypeFulltext
	// IndexTypeSpatial marks a spatial index.
	IndexTypeSpatial
)

// String renders the index type keyword.
func (t IndexType) String() string {
	switch t {
	case IndexTypePrimary:
		return "PRIMARY"
	case IndexTypeUnique:
		return "UNIQUE"
	case IndexTypeFulltext:
		return "FULLTEXT"
	case IndexTypeSpatial:
		return "SPATIAL"
	default:
		return "INDEX"
	}
}

// IndexColumn is one column participating in an index, with optional
// dialect-specific prefix length and sort direction.
type IndexColumn struct {
	Name      string
	Length    int
	Direction string // "", "ASC", "DESC"
}

// Index describes an inline or out-of-line index.
type Index struct {
	Name    string
	Type    IndexType
	Columns []IndexColumn
	// Method holds PostgreSQL USING <method>.
	Method string
	// Where holds a partial-index predicate, when supported.
	Where string
	Span  tokenizer.Span
}

// ColumnNames returns the plain column name list.
func (idx *Index) ColumnNames() []string {
	names := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		names[i] = c.Name
	}
	return names
}

// Clone deep-copies an index.
func (idx *Index) Clone() *Index {
	cp := *idx
	cp.Columns = append([]IndexColumn(nil), idx.Columns...)
	return &cp
}

// ConstraintType identifies the kind of table constraint.
type ConstraintType int

const (
	// ConstraintPrimaryKey is a PRIMARY KEY constraint.
	ConstraintPrimaryKey ConstraintType = iota
	// ConstraintForeignKey is a FOREIGN KEY constraint.
	ConstraintForeignKey
	// ConstraintUnique is a UNIQUE constraint.
	ConstraintUnique
	// ConstraintCheck is a CHECK constraint.
	ConstraintCheck
)

// String renders the constraint type keyword.
func (t ConstraintType) String() string {
	switch t {
	case ConstraintPrimaryKey:
		return "PRIMARY KEY"
	case ConstraintForeignKey:
		return "FOREIGN KEY"
	case ConstraintUnique:
		return "UNIQUE"
	case ConstraintCheck:
		return "CHECK"
	default:
		return "CONSTRAINT"
	}
}

// ReferentialAction is one of the actions a foreign key may take ON DELETE
// or ON UPDATE.
type ReferentialAction int

const (
	// ActionNone means no action clause was declared.
	ActionNone ReferentialAction = iota
	ActionCascade
	ActionSetNull
	ActionSetDefault
	ActionRestrict
	ActionNoAction
)

// String renders the SQL keywords for a referential action.
func (a ReferentialAction) String() string {
	switch a {
	case ActionCascade:
		return "CASCADE"
	case ActionSetNull:
		return "SET NULL"
	case ActionSetDefault:
		return "SET DEFAULT"
	case ActionRestrict:
		return "RESTRICT"
	case ActionNoAction:
		return "NO ACTION"
	default:
		return ""
	}
}

// ParseReferentialAction maps an upper-cased SQL keyword phrase to an action.
func ParseReferentialAction(s string) ReferentialAction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASCADE":
		return ActionCascade
	case "SET NULL":
		return ActionSetNull
	case "SET DEFAULT":
		return ActionSetDefault
	case "RESTRICT":
		return ActionRestrict
	case "NO ACTION":
		return ActionNoAction
	default:
		return ActionNone
	}
}

// Constraint models a table-level constraint: PRIMARY_KEY, FOREIGN_KEY,
// UNIQUE or CHECK.
type Constraint struct {
	Name string
	Type ConstraintType

	// Columns holds the local column list for PRIMARY_KEY, FOREIGN_KEY and
	// UNIQUE constraints.
	Columns []string

	// ReferencedTable/ReferencedColumns are set for FOREIGN_KEY; the
	// referenced table is identified by name only, never by pointer.
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ReferentialAction
	OnUpdate          ReferentialAction

	// Expression holds the raw CHECK expression text in source-dialect
	// syntax, re-quoted at render time.
	Expression string

	Span tokenizer.Span
}

// Clone deep-copies a constraint.
func (c *Constraint) Clone() *Constraint {
	cp := *c
	cp.Columns = append([]string(nil), c.Columns...)
	cp.ReferencedColumns = append([]string(nil), c.ReferencedColumns...)
	return &cp
}

// View represents a CREATE VIEW statement, captured but not translated.
type View struct {
	Name string
	Doc  string
	SQL  string
	Span tokenizer.Span
}

// ValueKind identifies the literal kind stored in a Value.
type ValueKind int

const (
	// ValueKindUnknown is used when the literal kind cannot be determined.
	ValueKindUnknown ValueKind = iota
	// ValueKindNumber represents numeric literals.
	ValueKindNumber
	// ValueKindString represents single-quoted string literals.
	ValueKindString
	// ValueKindBlob represents blob literals of the form X'...'.
	ValueKindBlob
	// ValueKindKeyword represents keywords or expressions used as literal
	// defaults (e.g. CURRENT_TIMESTAMP, NOW(), gen_random_uuid()).
	ValueKindKeyword
	// ValueKindNull represents an explicit NULL literal.
	ValueKindNull
)

// Value stores a literal or expression token used in DEFAULT clauses and
// INSERT row cells. Kind distinguishes a literal string (quoted on render)
// from an expression (emitted verbatim).
type Value struct {
	Kind ValueKind
	Text string
	Span tokenizer.Span
}

// Row is one row of literal data parsed from an INSERT statement, keyed by
// column name. Column order for rendering comes from the owning Table's
// declared column order, not from this map.
type Row struct {
	Values map[string]*Value
	Span   tokenizer.Span
}

// PostAction is a deferred, target-specific SQL statement emitted after the
// main schema body (see §4.7 of the translation design).
type PostAction struct {
	Type        string
	SQL         string
	Description string
	Table       string
}

// SortColumns provides deterministic ordering of columns by name.
func SortColumns(cols []*Column) {
	slices.SortFunc(cols, func(a, b *Column) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// SortIndexes provides deterministic ordering of indexes by name.
func SortIndexes(idxs []*Index) {
	slices.SortFunc(idxs, func(a, b *Index) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// SortConstraints provides deterministic ordering of constraints by type,
// name, then column list.
func SortConstraints(cs []*Constraint) {
	slices.SortFunc(cs, func(a, b *Constraint) int {
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(joinColumns(a.Columns), joinColumns(b.Columns))
	})
}

func joinColumns(cols []string) string {
	return strings.Join(cols, "\x00")
}

// FindColumn looks up a column by case-insensitive name.
func (t *Table) FindColumn(name string) *Column {
	lower := strings.ToLower(name)
	for _, c := range t.Columns {
		if strings.ToLower(c.Name) == lower {
			return c
		}
	}
	return nil
}

// PrimaryKeyIndex returns the table's primary-key index, if any.
func (t *Table) PrimaryKeyIndex() *Index {
	for _, idx := range t.Indexes {
		if idx.Type == IndexTypePrimary {
			return idx
		}
	}
	return nil
}

// PrimaryKeyConstraint returns the table's primary-key constraint, if any.
func (t *Table) PrimaryKeyConstraint() *Constraint {
	for _, c := range t.Constraints {
		if c.Type == ConstraintPrimaryKey {
			return c
		}
	}
	return nil
}

// ForeignKeys returns the table's FOREIGN_KEY constraints.
func (t *Table) ForeignKeys() []*Constraint {
	var out []*Constraint
	for _, c := range t.Constraints {
		if c.Type == ConstraintForeignKey {
			out = append(out, c)
		}
	}
	return out
}
