// Package postgres implements the PostgreSQL DDL/DML parser (component C4
// for the postgres dialect).
package postgres

import (
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/parser/shared"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
	"github.com/sqlxlate/sqlxlate/internal/schema/splitter"
	"github.com/sqlxlate/sqlxlate/internal/schema/tokenizer"
)

// Parser parses PostgreSQL schema dumps into the neutral model.
type Parser struct {
	ProcessInserts   bool
	MaxStatementSize int
}

// New constructs a PostgreSQL parser with default options.
func New() *Parser {
	return &Parser{ProcessInserts: true}
}

// Parse splits and parses a complete PostgreSQL schema dump.
func (p *Parser) Parse(path string, content []byte) (*model.Schema, *diagnostics.Collection, error) {
	diags := diagnostics.NewCollection()
	schema := model.NewSchema()

	stmts, err := splitter.Split(string(content), splitter.PostgreSQL, splitter.Options{MaxStatementSize: p.MaxStatementSize})
	if err != nil {
		return schema, diags, err
	}

	for _, stmt := range stmts {
		// Dollar-quoted function bodies are captured verbatim by the
		// splitter and are not DDL this parser understands; skip them.
		if isFunctionBody(stmt.Text) {
			continue
		}
		tokens, terr := tokenizer.ScanDialect(path, []byte(stmt.Text), true, false)
		if terr != nil {
			diags.Add(diagnostics.Error(terr.Error()).At(path, stmt.Line, 1).Build())
			continue
		}
		cur := shared.NewCursor(path, tokens, diags)
		p.parseStatement(cur, schema)
	}

	validate(schema, diags)
	return schema, diags, nil
}

func isFunctionBody(text string) bool {
	up := strings.ToUpper(strings.TrimSpace(text))
	return strings.HasPrefix(up, "CREATE FUNCTION") || strings.HasPrefix(up, "CREATE OR REPLACE FUNCTION") ||
		strings.HasPrefix(up, "CREATE PROCEDURE") || strings.HasPrefix(up, "CREATE TRIGGER")
}

func (p *Parser) parseStatement(cur *shared.Cursor, schema *model.Schema) {
	for !cur.IsEOF() {
		switch {
		case cur.KeywordIs("CREATE"):
			p.parseCreate(cur, schema)
		case cur.KeywordIs("ALTER"):
			p.parseAlter(cur, schema)
		case cur.KeywordIs("INSERT"):
			if p.ProcessInserts {
				p.parseInsert(cur, schema)
			} else {
				cur.SyncToStatementEnd()
			}
		case cur.SymbolIs(";"):
			cur.Advance()
		default:
			cur.SyncToStatementEnd()
		}
	}
}

func (p *Parser) parseCreate(cur *shared.Cursor, schema *model.Schema) {
	cur.Advance() // CREATE
	unique := cur.MatchKeyword("UNIQUE")

	switch {
	case cur.MatchKeyword("TABLE"):
		p.parseCreateTable(cur, schema)
	case cur.MatchKeyword("INDEX"):
		p.parseCreateIndex(cur, schema, unique)
	case cur.MatchKeyword("VIEW"):
		p.parseCreateView(cur, schema)
	case cur.MatchKeyword("TYPE"):
		p.parseCreateTypeEnum(cur, schema)
	case cur.MatchKeyword("SEQUENCE"):
		cur.SyncToStatementEnd()
	case cur.MatchKeyword("EXTENSION"):
		cur.SyncToStatementEnd()
	case cur.MatchKeyword("SCHEMA"):
		cur.SyncToStatementEnd()
	default:
		cur.SyncToStatementEnd()
	}
}

// enumTypes records CREATE TYPE ... AS ENUM declarations by name, so a
// later column reference to the type can be mapped to the neutral "enum"
// representation with its literal values.
type enumTypes = map[string][]string

func (p *Parser) parseCreateTypeEnum(cur *shared.Cursor, schema *model.Schema) {
	name, _ := cur.Identifier()
	cur.MatchKeyword("AS")
	if !cur.MatchKeyword("ENUM") {
		cur.SyncToStatementEnd()
		return
	}
	vals := cur.ParseEnumValues()
	registerEnum(schema, name, vals)
	cur.MatchSymbol(";")
}

// We keep enum definitions on the schema via a PostAction description slot
// so downstream components can look them up without a parallel registry
// threaded through every call site.
func registerEnum(schema *model.Schema, name string, vals []string) {
	schema.PostActions = append(schema.PostActions, model.PostAction{
		Type:        "enum_type",
		Description: name,
		SQL:         strings.Join(vals, ","),
	})
}

func lookupEnum(schema *model.Schema, name string) ([]string, bool) {
	for _, pa := range schema.PostActions {
		if pa.Type == "enum_type" && strings.EqualFold(pa.Description, name) {
			return strings.Split(pa.SQL, ","), true
		}
	}
	return nil, false
}

func (p *Parser) parseCreateTable(cur *shared.Cursor, schema *model.Schema) {
	start := cur.Current()
	if cur.MatchKeyword("IF") {
		cur.MatchKeyword("NOT")
		cur.MatchKeyword("EXISTS")
	}

	name, ok := cur.Identifier()
	if !ok {
		cur.AddDiag(diagnostics.Error("expected table name").At(cur.Path, start.Line, start.Column).Build())
		cur.SyncToStatementEnd()
		return
	}
	// Drop a schema-qualified prefix ("public.users" -> "users"); the
	// neutral model identifies tables by bare name only.
	if cur.MatchSymbol(".") {
		name, _ = cur.Identifier()
	}

	table := &model.Table{Name: name, Span: tokenizer.NewSpan(start)}

	if !cur.ExpectSymbol("(") {
		cur.SyncToStatementEnd()
		return
	}

	for !cur.IsEOF() && !cur.SymbolIs(")") {
		if isTableConstraintStart(cur) {
			p.parseTableConstraint(cur, table)
		} else {
			col := p.parseColumnDefinition(cur, table, schema)
			if col != nil {
				table.Columns = append(table.Columns, col)
			}
		}
		if !cur.MatchSymbol(",") {
			break
		}
	}
	cur.ExpectSymbol(")")

	// WITH (fillfactor=..., ...) storage parameters: recognized and
	// discarded, they have no cross-dialect equivalent.
	if cur.MatchKeyword("WITH") {
		cur.CollectUntilBalanced(";")
	}

	schema.AddTable(table)
}

func isTableConstraintStart(cur *shared.Cursor) bool {
	for _, kw := range []string{"CONSTRAINT", "PRIMARY", "UNIQUE", "FOREIGN", "CHECK"} {
		if cur.KeywordIs(kw) {
			return true
		}
	}
	return false
}

func (p *Parser) parseColumnDefinition(cur *shared.Cursor, table *model.Table, schema *model.Schema) *model.Column {
	nameTok := cur.Current()
	name, ok := cur.Identifier()
	if !ok {
		cur.SyncToStatementEnd()
		return nil
	}
	col := &model.Column{Name: name, Nullable: true, Span: tokenizer.NewSpan(nameTok)}

	typeName, length, precision, scale, isArray, elem := parseColumnType(cur, schema, col)
	col.Type = typeName
	col.Length = length
	col.Precision = precision
	col.Scale = scale
	if isArray {
		col.SetOption("is_array", "true")
		col.ElementType = elem
	}

	for {
		switch {
		case cur.MatchKeyword("NOT"):
			cur.MatchKeyword("NULL")
			col.Nullable = false
		case cur.MatchKeyword("NULL"):
			col.Nullable = true
		case cur.MatchKeyword("PRIMARY"):
			cur.MatchKeyword("KEY")
			col.Nullable = false
			col.SetOption("primary_key", "true")
			table.Constraints = append(table.Constraints, &model.Constraint{
				Type: model.ConstraintPrimaryKey, Columns: []string{name}, Span: col.Span,
			})
		case cur.MatchKeyword("UNIQUE"):
			col.SetOption("unique", "true")
			table.Constraints = append(table.Constraints, &model.Constraint{
				Type: model.ConstraintUnique, Columns: []string{name}, Span: col.Span,
			})
		case cur.MatchKeyword("DEFAULT"):
			col.Default = cur.ParseValue()
			cur.ValidateLiteralDefault(col)
		case cur.MatchKeyword("REFERENCES"):
			fk := parseInlineForeignKeyRef(cur, []string{name})
			table.Constraints = append(table.Constraints, fk)
		case cur.MatchKeyword("CHECK"):
			expr := parseCheckExpression(cur)
			table.Constraints = append(table.Constraints, &model.Constraint{
				Type: model.ConstraintCheck, Expression: expr, Span: col.Span,
			})
		case cur.MatchKeyword("COLLATE"):
			cur.Identifier()
		case cur.MatchKeyword("GENERATED"):
			// GENERATED ALWAYS AS IDENTITY / BY DEFAULT AS IDENTITY
			cur.MatchAnyKeyword("ALWAYS")
			cur.MatchKeyword("BY")
			cur.MatchKeyword("DEFAULT")
			cur.MatchKeyword("AS")
			cur.MatchKeyword("IDENTITY")
			if cur.SymbolIs("(") {
				cur.CollectUntilBalanced()
				cur.MatchSymbol(")")
			}
			col.AutoIncrement = true
		default:
			return col
		}
	}
}

// parseColumnType parses a PostgreSQL type name, including the
// SERIAL/BIGSERIAL/SMALLSERIAL identity sugar, array suffixes ("int[]" or
// "integer ARRAY"), and a reference to a previously declared enum type.
func parseColumnType(cur *shared.Cursor, schema *model.Schema, col *model.Column) (string, int, int, int, bool, string) {
	raw, _ := cur.Identifier()
	upper := strings.ToUpper(raw)

	if upper == "DOUBLE" && cur.MatchKeyword("PRECISION") {
		upper = "DOUBLE PRECISION"
	}
	if upper == "CHARACTER" {
		if cur.MatchKeyword("VARYING") {
			upper = "VARCHAR"
		} else {
			upper = "CHAR"
		}
	}
	if upper == "TIMESTAMP" || upper == "TIME" {
		if cur.MatchKeyword("WITH") {
			cur.MatchKeyword("TIME")
			cur.MatchKeyword("ZONE")
			upper += "TZ"
		} else if cur.MatchKeyword("WITHOUT") {
			cur.MatchKeyword("TIME")
			cur.MatchKeyword("ZONE")
		}
	}

	switch upper {
	case "SERIAL", "SERIAL4":
		col.AutoIncrement = true
		return "serial", 0, 0, 0, false, ""
	case "BIGSERIAL", "SERIAL8":
		col.AutoIncrement = true
		return "bigserial", 0, 0, 0, false, ""
	case "SMALLSERIAL", "SERIAL2":
		col.AutoIncrement = true
		return "smallserial", 0, 0, 0, false, ""
	}

	if vals, ok := lookupEnum(schema, raw); ok {
		col.EnumValues = vals
		return "enum", 0, 0, 0, false, ""
	}

	params := cur.ParseTypeParams()
	length, precision, scale := 0, 0, 0
	switch len(params) {
	case 1:
		length = params[0]
		precision = params[0]
	case 2:
		precision, scale = params[0], params[1]
	}

	isArray := false
	elem := ""
	if cur.MatchKeyword("ARRAY") {
		isArray = true
		if cur.SymbolIs("[") {
			cur.CollectUntilBalanced("]")
			cur.MatchSymbol("]")
		}
	}
	for cur.SymbolIs("[") {
		isArray = true
		cur.Advance()
		cur.MatchSymbol("]")
	}
	if isArray {
		elem = normalizePostgresType(upper)
		return "array", 0, 0, 0, true, elem
	}

	return normalizePostgresType(upper), length, precision, scale, false, ""
}

func normalizePostgresType(upper string) string {
	switch upper {
	case "INT2", "SMALLINT":
		return "smallint"
	case "INT4", "INT", "INTEGER":
		return "int"
	case "INT8", "BIGINT":
		return "bigint"
	case "FLOAT4", "REAL":
		return "float"
	case "FLOAT8", "DOUBLE PRECISION":
		return "double"
	case "NUMERIC", "DECIMAL":
		return "decimal"
	case "VARCHAR":
		return "varchar"
	case "CHAR":
		return "char"
	case "TEXT":
		return "text"
	case "BYTEA":
		return "blob"
	case "BOOLEAN", "BOOL":
		return "boolean"
	case "DATE":
		return "date"
	case "TIMESTAMP":
		return "datetime"
	case "TIMESTAMPTZ":
		return "timestamp"
	case "TIME", "TIMETZ":
		return "time"
	case "JSON", "JSONB":
		return "json"
	case "UUID":
		return "uuid"
	default:
		return strings.ToLower(upper)
	}
}

func parseInlineForeignKeyRef(cur *shared.Cursor, columns []string) *model.Constraint {
	table, _ := cur.Identifier()
	var refCols []string
	if cur.MatchSymbol("(") {
		for {
			if name, ok := cur.Identifier(); ok {
				refCols = append(refCols, name)
			}
			if cur.MatchSymbol(",") {
				continue
			}
			break
		}
		cur.ExpectSymbol(")")
	}
	fk := &model.Constraint{
		Type:              model.ConstraintForeignKey,
		Columns:           columns,
		ReferencedTable:   table,
		ReferencedColumns: refCols,
	}
	parseForeignKeyActions(cur, fk)
	return fk
}

func parseForeignKeyActions(cur *shared.Cursor, fk *model.Constraint) {
	for cur.MatchKeyword("ON") {
		isDelete := cur.MatchKeyword("DELETE")
		if !isDelete {
			cur.MatchKeyword("UPDATE")
		}
		action := readReferentialAction(cur)
		if isDelete {
			fk.OnDelete = action
		} else {
			fk.OnUpdate = action
		}
	}
}

func readReferentialAction(cur *shared.Cursor) model.ReferentialAction {
	switch {
	case cur.MatchKeyword("CASCADE"):
		return model.ActionCascade
	case cur.MatchKeyword("RESTRICT"):
		return model.ActionRestrict
	case cur.MatchKeyword("SET"):
		if cur.MatchKeyword("NULL") {
			return model.ActionSetNull
		}
		cur.MatchKeyword("DEFAULT")
		return model.ActionSetDefault
	case cur.MatchKeyword("NO"):
		cur.MatchKeyword("ACTION")
		return model.ActionNoAction
	default:
		return model.ActionNone
	}
}

func parseCheckExpression(cur *shared.Cursor) string {
	if !cur.MatchSymbol("(") {
		return ""
	}
	tokens := cur.CollectUntilBalanced()
	cur.ExpectSymbol(")")
	return shared.RebuildSQL(tokens)
}

func (p *Parser) parseTableConstraint(cur *shared.Cursor, table *model.Table) {
	start := cur.Current()
	var name string
	if cur.MatchKeyword("CONSTRAINT") {
		name, _ = cur.Identifier()
	}

	switch {
	case cur.MatchKeyword("PRIMARY"):
		cur.MatchKeyword("KEY")
		cols := parseColumnNameList(cur)
		table.Constraints = append(table.Constraints, &model.Constraint{
			Name: name, Type: model.ConstraintPrimaryKey, Columns: cols, Span: tokenizer.NewSpan(start),
		})
	case cur.MatchKeyword("UNIQUE"):
		cols := parseColumnNameList(cur)
		table.Constraints = append(table.Constraints, &model.Constraint{
			Name: name, Type: model.ConstraintUnique, Columns: cols, Span: tokenizer.NewSpan(start),
		})
	case cur.MatchKeyword("FOREIGN"):
		cur.MatchKeyword("KEY")
		cols := parseColumnNameList(cur)
		cur.MatchKeyword("REFERENCES")
		fk := parseInlineForeignKeyRef(cur, cols)
		fk.Name = name
		fk.Span = tokenizer.NewSpan(start)
		table.Constraints = append(table.Constraints, fk)
	case cur.MatchKeyword("CHECK"):
		expr := parseCheckExpression(cur)
		table.Constraints = append(table.Constraints, &model.Constraint{
			Name: name, Type: model.ConstraintCheck, Expression: expr, Span: tokenizer.NewSpan(start),
		})
	default:
		cur.SyncToStatementEnd()
	}
}

func parseColumnNameList(cur *shared.Cursor) []string {
	if !cur.MatchSymbol("(") {
		return nil
	}
	var names []string
	for {
		name, ok := cur.Identifier()
		if !ok {
			break
		}
		names = append(names, name)
		if cur.MatchSymbol(",") {
			continue
		}
		break
	}
	cur.ExpectSymbol(")")
	return names
}

func parseIndexColumnList(cur *shared.Cursor) []model.IndexColumn {
	if !cur.MatchSymbol("(") {
		return nil
	}
	var out []model.IndexColumn
	for {
		name, ok := cur.Identifier()
		if !ok {
			break
		}
		ic := model.IndexColumn{Name: name}
		if cur.MatchKeyword("ASC") {
			ic.Direction = "ASC"
		} else if cur.MatchKeyword("DESC") {
			ic.Direction = "DESC"
		}
		out = append(out, ic)
		if cur.MatchSymbol(",") {
			continue
		}
		break
	}
	cur.ExpectSymbol(")")
	return out
}

func (p *Parser) parseCreateIndex(cur *shared.Cursor, schema *model.Schema, unique bool) {
	if cur.MatchKeyword("CONCURRENTLY") {
		// no-op, single-statement translation has no concurrent session
	}
	name, _ := cur.Identifier()
	cur.MatchKeyword("ON")
	tableName, _ := cur.Identifier()

	var method string
	if cur.MatchKeyword("USING") {
		method, _ = cur.Identifier()
	}

	cols := parseIndexColumnList(cur)

	var where string
	if cur.MatchKeyword("WHERE") {
		tokens := cur.CollectUntilBalanced(";")
		where = shared.RebuildSQL(tokens)
	}

	idxType := model.IndexTypeIndex
	if unique {
		idxType = model.IndexTypeUnique
	}
	idx := &model.Index{Name: name, Type: idxType, Columns: cols, Method: method, Where: where}

	table, ok := schema.Tables[tableName]
	if !ok {
		cur.AddDiag(diagnostics.Warning("CREATE INDEX references unknown table "+tableName).At(cur.Path, cur.Current().Line, cur.Current().Column).Build())
		return
	}
	table.Indexes = append(table.Indexes, idx)
	cur.MatchSymbol(";")
}

func (p *Parser) parseCreateView(cur *shared.Cursor, schema *model.Schema) {
	start := cur.Current()
	name, _ := cur.Identifier()
	if cur.SymbolIs("(") {
		cur.CollectUntilBalanced()
		cur.MatchSymbol(")")
	}
	cur.MatchKeyword("AS")
	rest := cur.CollectUntilBalanced(";")
	schema.Views[name] = &model.View{Name: name, SQL: shared.RebuildSQL(rest), Span: tokenizer.NewSpan(start)}
	cur.MatchSymbol(";")
}

func (p *Parser) parseAlter(cur *shared.Cursor, schema *model.Schema) {
	start := cur.Current()
	cur.Advance() // ALTER
	if !cur.MatchKeyword("TABLE") {
		cur.SyncToStatementEnd()
		return
	}
	cur.MatchKeyword("IF")
	cur.MatchKeyword("EXISTS")
	name, ok := cur.Identifier()
	if !ok {
		cur.SyncToStatementEnd()
		return
	}
	table, ok := schema.Tables[name]
	if !ok {
		cur.AddDiag(diagnostics.Warning("ALTER TABLE references unknown table "+name).At(cur.Path, start.Line, start.Column).Build())
		table = &model.Table{Name: name, Span: tokenizer.NewSpan(start)}
		schema.AddTable(table)
	}

	for {
		switch {
		case cur.MatchKeyword("ADD"):
			if isTableConstraintStart(cur) {
				p.parseTableConstraint(cur, table)
			} else {
				cur.MatchKeyword("COLUMN")
				col := p.parseColumnDefinition(cur, table, schema)
				if col != nil {
					table.Columns = append(table.Columns, col)
				}
			}
		case cur.SymbolIs(";") || cur.IsEOF():
			cur.MatchSymbol(";")
			return
		case cur.MatchSymbol(","):
			continue
		default:
			cur.SyncToStatementEnd()
			return
		}
	}
}

func (p *Parser) parseInsert(cur *shared.Cursor, schema *model.Schema) {
	start := cur.Current()
	cur.Advance() // INSERT
	cur.MatchKeyword("INTO")
	name, ok := cur.Identifier()
	if !ok {
		cur.SyncToStatementEnd()
		return
	}
	table, exists := schema.Tables[name]
	if !exists {
		cur.AddDiag(diagnostics.Warning("INSERT references unknown table "+name).At(cur.Path, start.Line, start.Column).Build())
	}

	var cols []string
	if cur.SymbolIs("(") {
		cols = parseColumnNameList(cur)
	} else if table != nil {
		for _, c := range table.Columns {
			cols = append(cols, c.Name)
		}
	}

	cur.MatchKeyword("VALUES")
	for {
		if !cur.MatchSymbol("(") {
			break
		}
		row := model.Row{Values: map[string]*model.Value{}, Span: tokenizer.NewSpan(cur.Current())}
		idx := 0
		for !cur.IsEOF() && !cur.SymbolIs(")") {
			val := cur.ParseValue()
			if idx < len(cols) {
				if table != nil {
					if c := table.FindColumn(cols[idx]); c != nil {
						shared.ValidateRowCell(c.Type, val)
					}
				}
				row.Values[cols[idx]] = val
			}
			idx++
			if !cur.MatchSymbol(",") {
				break
			}
		}
		cur.ExpectSymbol(")")
		if table != nil {
			table.Data = append(table.Data, row)
		}
		if !cur.MatchSymbol(",") {
			break
		}
	}
	// ON CONFLICT ... is a statement-level policy, not IR data; skip the
	// remainder of the statement.
	cur.SyncToStatementEnd()
}

func validate(schema *model.Schema, diags *diagnostics.Collection) {
	for _, name := range schema.TableOrder {
		table := schema.Tables[name]
		for _, idx := range table.Indexes {
			for _, c := range idx.Columns {
				if table.FindColumn(c.Name) == nil {
					diags.Add(diagnostics.Warning("index " + idx.Name + " references unknown column " + c.Name + " on table " + name).Build())
				}
			}
		}
		for _, c := range table.Constraints {
			for _, colName := range c.Columns {
				if table.FindColumn(colName) == nil {
					diags.Add(diagnostics.Warning("constraint " + c.Name + " references unknown column " + colName + " on table " + name).Build())
				}
			}
			if c.Type == model.ConstraintForeignKey {
				ref, ok := schema.Tables[c.ReferencedTable]
				if !ok {
					diags.Add(diagnostics.Warning("foreign key on table " + name + " references unknown table " + c.ReferencedTable).Build())
					continue
				}
				for _, colName := range c.ReferencedColumns {
					if ref.FindColumn(colName) == nil {
						diags.Add(diagnostics.Warning("foreign key on table " + name + " references unknown column " + colName + " on table " + c.ReferencedTable).Build())
					}
				}
				if len(c.Columns) != len(c.ReferencedColumns) || len(c.Columns) == 0 {
					diags.Add(diagnostics.Error("foreign key on table " + name + " has mismatched column counts").Build())
				}
			}
		}
	}
}
