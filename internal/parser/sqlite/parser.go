// Package sqlite implements the SQLite DDL/DML parser (component C4 for the
// sqlite dialect). SQLite has no parser in the teacher lineage; this one is
// written fresh, following the same Cursor-driven structure as the mysql and
// postgres parsers in this module.
package sqlite

import (
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/parser/shared"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
	"github.com/sqlxlate/sqlxlate/internal/schema/splitter"
	"github.com/sqlxlate/sqlxlate/internal/schema/tokenizer"
)

// Parser parses SQLite schema dumps into the neutral model.
type Parser struct {
	ProcessInserts   bool
	MaxStatementSize int
}

// New constructs a SQLite parser with default options.
func New() *Parser {
	return &Parser{ProcessInserts: true}
}

// Parse splits and parses a complete SQLite schema dump.
func (p *Parser) Parse(path string, content []byte) (*model.Schema, *diagnostics.Collection, error) {
	diags := diagnostics.NewCollection()
	schema := model.NewSchema()

	stmts, err := splitter.Split(string(content), splitter.SQLite, splitter.Options{MaxStatementSize: p.MaxStatementSize})
	if err != nil {
		return schema, diags, err
	}

	for _, stmt := range stmts {
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
		case cur.KeywordIs("PRAGMA"):
			// PRAGMA foreign_keys = ON / other pragmas carry no schema
			// state this model represents; acknowledged and discarded.
			cur.SyncToStatementEnd()
		case cur.SymbolIs(";"):
			cur.Advance()
		default:
			cur.SyncToStatementEnd()
		}
	}
}

func (p *Parser) parseCreate(cur *shared.Cursor, schema *model.Schema) {
	cur.Advance() // CREATE
	cur.MatchKeyword("TEMP")
	cur.MatchKeyword("TEMPORARY")
	unique := cur.MatchKeyword("UNIQUE")

	switch {
	case cur.MatchKeyword("TABLE"):
		p.parseCreateTable(cur, schema)
	case cur.MatchKeyword("INDEX"):
		p.parseCreateIndex(cur, schema, unique)
	case cur.MatchKeyword("VIEW"):
		p.parseCreateView(cur, schema)
	case cur.MatchKeyword("TRIGGER"):
		cur.SyncToStatementEnd()
	default:
		cur.SyncToStatementEnd()
	}
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

	table := &model.Table{Name: name, Span: tokenizer.NewSpan(start)}

	if !cur.ExpectSymbol("(") {
		cur.SyncToStatementEnd()
		return
	}

	for !cur.IsEOF() && !cur.SymbolIs(")") {
		if isTableConstraintStart(cur) {
			p.parseTableConstraint(cur, table)
		} else {
			col := p.parseColumnDefinition(cur, table)
			if col != nil {
				table.Columns = append(table.Columns, col)
			}
		}
		if !cur.MatchSymbol(",") {
			break
		}
	}
	cur.ExpectSymbol(")")

	for {
		switch {
		case cur.MatchKeyword("WITHOUT"):
			cur.MatchKeyword("ROWID")
			table.WithoutRowID = true
		case cur.MatchKeyword("STRICT"):
			table.Strict = true
		case cur.MatchSymbol(","):
			continue
		default:
			cur.MatchSymbol(";")
			schema.AddTable(table)
			return
		}
	}
}

func isTableConstraintStart(cur *shared.Cursor) bool {
	for _, kw := range []string{"CONSTRAINT", "PRIMARY", "UNIQUE", "FOREIGN", "CHECK"} {
		if cur.KeywordIs(kw) {
			return true
		}
	}
	return false
}

func (p *Parser) parseColumnDefinition(cur *shared.Cursor, table *model.Table) *model.Column {
	nameTok := cur.Current()
	name, ok := cur.Identifier()
	if !ok {
		cur.SyncToStatementEnd()
		return nil
	}
	col := &model.Column{Name: name, Nullable: true, Span: tokenizer.NewSpan(nameTok)}

	// A type name is optional in SQLite (untyped columns are valid); only
	// consume one if the next token looks like a type rather than a
	// column-constraint keyword.
	if !isColumnConstraintStart(cur) && !cur.SymbolIs(",") && !cur.SymbolIs(")") {
		typeName, length, precision, scale := parseColumnType(cur)
		col.Type = typeName
		col.Length = length
		col.Precision = precision
		col.Scale = scale
	}

	isIntegerPK := false
	for {
		switch {
		case cur.MatchKeyword("NOT"):
			cur.MatchKeyword("NULL")
			col.Nullable = false
		case cur.MatchKeyword("NULL"):
			col.Nullable = true
		case cur.MatchKeyword("PRIMARY"):
			cur.MatchKeyword("KEY")
			cur.MatchAnyKeyword("ASC", "DESC")
			col.Nullable = false
			col.SetOption("primary_key", "true")
			if strings.EqualFold(col.Type, "integer") || strings.EqualFold(col.Type, "int") {
				isIntegerPK = true
			}
			if cur.MatchKeyword("AUTOINCREMENT") {
				col.AutoIncrement = true
			}
			table.Constraints = append(table.Constraints, &model.Constraint{
				Type: model.ConstraintPrimaryKey, Columns: []string{name}, Span: col.Span,
			})
		case cur.MatchKeyword("UNIQUE"):
			col.SetOption("unique", "true")
			table.Constraints = append(table.Constraints, &model.Constraint{
				Type: model.ConstraintUnique, Columns: []string{name}, Span: col.Span,
			})
		case cur.MatchKeyword("DEFAULT"):
			if cur.SymbolIs("(") {
				cur.Advance()
				tokens := cur.CollectUntilBalanced()
				cur.ExpectSymbol(")")
				col.Default = &model.Value{Kind: model.ValueKindKeyword, Text: shared.RebuildSQL(tokens)}
			} else {
				col.Default = cur.ParseValue()
				cur.ValidateLiteralDefault(col)
			}
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
			cur.MatchKeyword("ALWAYS")
			cur.MatchKeyword("AS")
			if cur.SymbolIs("(") {
				cur.Advance()
				cur.CollectUntilBalanced()
				cur.ExpectSymbol(")")
			}
			cur.MatchAnyKeyword("STORED", "VIRTUAL")
		default:
			_ = isIntegerPK
			return col
		}
	}
}

func isColumnConstraintStart(cur *shared.Cursor) bool {
	for _, kw := range []string{"NOT", "NULL", "PRIMARY", "UNIQUE", "DEFAULT", "REFERENCES", "CHECK", "COLLATE", "GENERATED", "CONSTRAINT"} {
		if cur.KeywordIs(kw) {
			return true
		}
	}
	return false
}

func parseColumnType(cur *shared.Cursor) (string, int, int, int) {
	raw, ok := cur.Identifier()
	if !ok {
		return "", 0, 0, 0
	}
	upper := strings.ToUpper(raw)
	// Multi-word type names (DOUBLE PRECISION, UNSIGNED BIG INT) collapse
	// to their neutral token by affinity, matching SQLite's own rules.
	for cur.Current().Kind == tokenizer.KindIdentifier || cur.Current().Kind == tokenizer.KindKeyword {
		next := strings.ToUpper(cur.Current().Text)
		if next == "PRECISION" || next == "BIG" || next == "INT" || next == "VARYING" {
			upper += " " + next
			cur.Advance()
			continue
		}
		break
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

	return normalizeSQLiteType(upper), length, precision, scale
}

func normalizeSQLiteType(upper string) string {
	switch {
	case strings.Contains(upper, "INT"):
		return "integer"
	case strings.Contains(upper, "CHAR") || strings.Contains(upper, "CLOB") || strings.Contains(upper, "TEXT"):
		if strings.Contains(upper, "VARCHAR") {
			return "varchar"
		}
		return "text"
	case strings.Contains(upper, "BLOB") || upper == "":
		return "blob"
	case strings.Contains(upper, "REAL") || strings.Contains(upper, "FLOA") || strings.Contains(upper, "DOUB"):
		return "double"
	case strings.Contains(upper, "BOOL"):
		return "boolean"
	case upper == "DATE":
		return "date"
	case upper == "DATETIME":
		return "datetime"
	case upper == "TIMESTAMP":
		return "timestamp"
	case strings.Contains(upper, "NUMERIC") || strings.Contains(upper, "DECIMAL"):
		return "decimal"
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
	// DEFERRABLE INITIALLY DEFERRED/IMMEDIATE is recognized and discarded;
	// this model translates only the resolved end-of-statement semantics.
	if cur.MatchKeyword("DEFERRABLE") {
		cur.MatchKeyword("INITIALLY")
		cur.MatchAnyKeyword("DEFERRED", "IMMEDIATE")
	} else if cur.MatchKeyword("NOT") {
		cur.MatchKeyword("DEFERRABLE")
	}
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
		cur.MatchAnyKeyword("ASC", "DESC")
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
	if cur.MatchKeyword("IF") {
		cur.MatchKeyword("NOT")
		cur.MatchKeyword("EXISTS")
	}
	name, _ := cur.Identifier()
	cur.MatchKeyword("ON")
	tableName, _ := cur.Identifier()
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
	idx := &model.Index{Name: name, Type: idxType, Columns: cols, Where: where}

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

	switch {
	case cur.MatchKeyword("ADD"):
		cur.MatchKeyword("COLUMN")
		col := p.parseColumnDefinition(cur, table)
		if col != nil {
			table.Columns = append(table.Columns, col)
		}
	case cur.MatchKeyword("RENAME"):
		cur.SyncToStatementEnd()
		return
	}
	cur.SyncToStatementEnd()
}

func (p *Parser) parseInsert(cur *shared.Cursor, schema *model.Schema) {
	start := cur.Current()
	cur.Advance() // INSERT
	cur.MatchKeyword("OR")
	cur.MatchAnyKeyword("ABORT", "FAIL", "IGNORE", "REPLACE", "ROLLBACK")
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
	cur.MatchSymbol(";")
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
