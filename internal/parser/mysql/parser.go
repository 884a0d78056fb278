// Package mysql implements the MySQL DDL/DML parser (component C4 for the
// mysql dialect): statements are scanned with MySQL lexical rules (backtick
// identifiers, backslash string escapes, '#' comments) and parsed into the
// neutral schema model.
package mysql

import (
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/parser/shared"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
	"github.com/sqlxlate/sqlxlate/internal/schema/splitter"
	"github.com/sqlxlate/sqlxlate/internal/schema/tokenizer"
)

// Parser parses MySQL schema dumps into the neutral model.
type Parser struct {
	// ProcessInserts enables parsing of INSERT statements into row data.
	ProcessInserts bool
	// MaxStatementSize is forwarded to the statement splitter; zero means
	// unlimited.
	MaxStatementSize int
}

// New constructs a MySQL parser with default options.
func New() *Parser {
	return &Parser{ProcessInserts: true}
}

// Parse splits and parses a complete MySQL schema dump.
func (p *Parser) Parse(path string, content []byte) (*model.Schema, *diagnostics.Collection, error) {
	diags := diagnostics.NewCollection()
	schema := model.NewSchema()

	stmts, err := splitter.Split(string(content), splitter.MySQL, splitter.Options{MaxStatementSize: p.MaxStatementSize})
	if err != nil {
		return schema, diags, err
	}

	for _, stmt := range stmts {
		tokens, terr := tokenizer.ScanDialect(path, []byte(stmt.Text), true, true)
		if terr != nil {
			diags.Add(diagnostics.Error(terr.Error()).At(path, stmt.Line, 1).Build())
			continue
		}
		cur := shared.NewCursor(path, tokens, diags)
		cur.MySQLMode = true
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
		case cur.SymbolIs(";"):
			cur.Advance()
		case cur.IsEOF():
			return
		default:
			// Unknown but harmless statement (SET, BEGIN, COMMIT, PRAGMA-like
			// directives) — skip to the next statement boundary.
			cur.SyncToStatementEnd()
		}
	}
}

func (p *Parser) parseCreate(cur *shared.Cursor, schema *model.Schema) {
	cur.Advance() // CREATE
	unique := cur.MatchKeyword("UNIQUE")
	cur.MatchKeyword("TEMPORARY")

	switch {
	case cur.MatchKeyword("TABLE"):
		p.parseCreateTable(cur, schema)
	case cur.MatchKeyword("INDEX"):
		p.parseCreateIndex(cur, schema, unique)
	case cur.MatchKeyword("VIEW"):
		p.parseCreateView(cur, schema)
	default:
		cur.SyncToStatementEnd()
	}
}

func (p *Parser) parseCreateTable(cur *shared.Cursor, schema *model.Schema) {
	start := cur.Current()
	ifNotExists := false
	if cur.MatchKeyword("IF") {
		cur.MatchKeyword("NOT")
		cur.MatchKeyword("EXISTS")
		ifNotExists = true
	}
	_ = ifNotExists

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

	colSeen := map[string]bool{}
	for !cur.IsEOF() && !cur.SymbolIs(")") {
		if isTableConstraintStart(cur) {
			p.parseTableConstraint(cur, table)
		} else {
			col := p.parseColumnDefinition(cur, table)
			if col != nil {
				lower := strings.ToLower(col.Name)
				if colSeen[lower] {
					cur.AddDiag(diagnostics.Error("duplicate column "+col.Name+" in table "+name).At(cur.Path, col.Span.StartLine, col.Span.StartColumn).Build())
				}
				colSeen[lower] = true
				table.Columns = append(table.Columns, col)
			}
		}
		if !cur.MatchSymbol(",") {
			break
		}
	}
	cur.ExpectSymbol(")")

	p.parseTableOptions(cur, table)

	if _, exists := schema.Tables[name]; exists {
		cur.AddDiag(diagnostics.Warning("redefinition of table "+name).At(cur.Path, start.Line, start.Column).Build())
	}
	schema.AddTable(table)
}

func isTableConstraintStart(cur *shared.Cursor) bool {
	for _, kw := range []string{"CONSTRAINT", "PRIMARY", "UNIQUE", "FOREIGN", "CHECK", "INDEX", "KEY", "FULLTEXT", "SPATIAL"} {
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

	typeName, length, precision, scale, enumVals := parseColumnType(cur)
	col.Type = typeName
	col.Length = length
	col.Precision = precision
	col.Scale = scale
	col.EnumValues = enumVals

	for {
		switch {
		case cur.MatchAnyKeyword("UNSIGNED"):
			col.Unsigned = true
		case cur.MatchAnyKeyword("SIGNED", "ZEROFILL"):
			// recognized, no IR effect beyond UNSIGNED above
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
			cur.MatchKeyword("KEY")
			col.SetOption("unique", "true")
			table.Constraints = append(table.Constraints, &model.Constraint{
				Type: model.ConstraintUnique, Columns: []string{name}, Span: col.Span,
			})
		case cur.MatchKeyword("AUTO_INCREMENT"):
			col.AutoIncrement = true
		case cur.MatchKeyword("DEFAULT"):
			col.Default = cur.ParseValue()
			cur.ValidateLiteralDefault(col)
		case cur.MatchKeyword("ON"):
			cur.MatchKeyword("UPDATE")
			val := cur.ParseValue()
			col.SetOption("on_update", val.Text)
		case cur.MatchKeyword("COMMENT"):
			if cur.Current().Kind == tokenizer.KindString {
				col.Comment = shared.UnquoteString(cur.Advance().Text, true)
			}
		case cur.MatchKeyword("CHARACTER") || cur.MatchKeyword("CHARSET"):
			cur.MatchKeyword("SET")
			cur.Identifier()
		case cur.MatchKeyword("COLLATE"):
			cur.Identifier()
		case cur.MatchKeyword("REFERENCES"):
			fk := parseInlineForeignKeyRef(cur, []string{name})
			table.Constraints = append(table.Constraints, fk)
		case cur.MatchKeyword("CHECK"):
			expr := parseCheckExpression(cur)
			table.Constraints = append(table.Constraints, &model.Constraint{
				Type: model.ConstraintCheck, Expression: expr, Span: col.Span,
			})
		default:
			return col
		}
	}
}

// parseColumnType parses "TYPENAME[(n[,m])]" and returns the
// neutral type token plus any length/precision/scale/enum values.
func parseColumnType(cur *shared.Cursor) (string, int, int, int, []string) {
	nameTok := cur.Current()
	raw, _ := cur.Identifier()
	upper := strings.ToUpper(raw)

	if upper == "DOUBLE" && cur.MatchKeyword("PRECISION") {
		upper = "DOUBLE PRECISION"
	}
	if upper == "ENUM" || upper == "SET" {
		vals := cur.ParseEnumValues()
		if upper == "ENUM" {
			return "enum", 0, 0, 0, vals
		}
		return "text", 0, 0, 0, nil
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

	neutral := normalizeMySQLType(upper)
	_ = nameTok
	return neutral, length, precision, scale, nil
}

func normalizeMySQLType(upper string) string {
	switch {
	case upper == "TINYINT" || upper == "BOOL" || upper == "BOOLEAN":
		if upper == "BOOL" || upper == "BOOLEAN" {
			return "boolean"
		}
		return "tinyint"
	case upper == "SMALLINT":
		return "smallint"
	case upper == "MEDIUMINT":
		return "mediumint"
	case upper == "INT" || upper == "INTEGER":
		return "int"
	case upper == "BIGINT":
		return "bigint"
	case upper == "FLOAT":
		return "float"
	case upper == "DOUBLE" || upper == "DOUBLE PRECISION" || upper == "REAL":
		return "double"
	case upper == "DECIMAL" || upper == "NUMERIC" || upper == "DEC":
		return "decimal"
	case upper == "VARCHAR":
		return "varchar"
	case upper == "CHAR":
		return "char"
	case strings.HasSuffix(upper, "TEXT"):
		return "text"
	case strings.HasSuffix(upper, "BLOB") || upper == "BINARY" || upper == "VARBINARY":
		return "blob"
	case upper == "DATE":
		return "date"
	case upper == "DATETIME":
		return "datetime"
	case upper == "TIMESTAMP":
		return "timestamp"
	case upper == "TIME":
		return "time"
	case upper == "YEAR":
		return "year"
	case upper == "JSON":
		return "json"
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

// parseCheckExpression captures the raw text of a parenthesized CHECK
// expression up to its matching close paren. Unbalanced parens are not
// repaired: a missing closing paren is reported as a parse error by
// ExpectSymbol.
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
		cur.MatchAnyKeyword("INDEX", "KEY")
		if name == "" {
			name, _ = cur.Identifier()
		}
		cols := parseColumnNameList(cur)
		table.Constraints = append(table.Constraints, &model.Constraint{
			Name: name, Type: model.ConstraintUnique, Columns: cols, Span: tokenizer.NewSpan(start),
		})
	case cur.MatchKeyword("FOREIGN"):
		cur.MatchKeyword("KEY")
		if name == "" {
			name, _ = cur.Identifier()
		}
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
	case cur.MatchAnyKeyword("FULLTEXT"):
		cur.MatchAnyKeyword("INDEX", "KEY")
		idxName, _ := cur.Identifier()
		cols := parseIndexColumnList(cur)
		table.Indexes = append(table.Indexes, &model.Index{
			Name: idxName, Type: model.IndexTypeFulltext, Columns: cols, Span: tokenizer.NewSpan(start),
		})
	case cur.MatchAnyKeyword("SPATIAL"):
		cur.MatchAnyKeyword("INDEX", "KEY")
		idxName, _ := cur.Identifier()
		cols := parseIndexColumnList(cur)
		table.Indexes = append(table.Indexes, &model.Index{
			Name: idxName, Type: model.IndexTypeSpatial, Columns: cols, Span: tokenizer.NewSpan(start),
		})
	case cur.MatchAnyKeyword("INDEX", "KEY"):
		idxName, _ := cur.Identifier()
		cols := parseIndexColumnList(cur)
		table.Indexes = append(table.Indexes, &model.Index{
			Name: idxName, Type: model.IndexTypeIndex, Columns: cols, Span: tokenizer.NewSpan(start),
		})
	default:
		cur.SyncToStatementEnd()
	}
}

func parseColumnNameList(cur *shared.Cursor) []string {
	cols := parseIndexColumnList(cur)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
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
		if params := cur.ParseTypeParams(); len(params) == 1 {
			ic.Length = params[0]
		}
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

// parseTableOptions consumes MySQL table options (ENGINE=, DEFAULT
// CHARSET=, COLLATE=, AUTO_INCREMENT=, COMMENT=) and records their values
// onto the table, rather than discarding them.
func (p *Parser) parseTableOptions(cur *shared.Cursor, table *model.Table) {
	for {
		switch {
		case cur.MatchKeyword("ENGINE"):
			cur.MatchSymbol("=")
			table.Engine, _ = cur.Identifier()
		case cur.MatchKeyword("DEFAULT"):
			// DEFAULT CHARSET= / DEFAULT COLLATE=
		case cur.MatchAnyKeyword("CHARSET", "CHARACTER"):
			cur.MatchKeyword("SET")
			cur.MatchSymbol("=")
			table.Charset, _ = cur.Identifier()
		case cur.MatchKeyword("COLLATE"):
			cur.MatchSymbol("=")
			table.Collation, _ = cur.Identifier()
		case cur.MatchKeyword("AUTO_INCREMENT"):
			cur.MatchSymbol("=")
			if cur.Current().Kind == tokenizer.KindNumber {
				v := int64(0)
				for _, r := range cur.Advance().Text {
					if r >= '0' && r <= '9' {
						v = v*10 + int64(r-'0')
					}
				}
				table.AutoIncrementStart = &v
			}
		case cur.MatchKeyword("COMMENT"):
			cur.MatchSymbol("=")
			if cur.Current().Kind == tokenizer.KindString {
				table.Comment = shared.UnquoteString(cur.Advance().Text, true)
			}
		case cur.SymbolIs(";") || cur.IsEOF():
			return
		default:
			// Unrecognized option token/value pair; skip one token to avoid
			// an infinite loop and keep scanning remaining options.
			if cur.Advance().Kind == tokenizer.KindEOF {
				return
			}
		}
	}
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

	for {
		switch {
		case cur.MatchKeyword("ADD"):
			cur.MatchKeyword("COLUMN")
			if isTableConstraintStart(cur) {
				p.parseTableConstraint(cur, table)
			} else {
				col := p.parseColumnDefinition(cur, table)
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

func (p *Parser) parseCreateIndex(cur *shared.Cursor, schema *model.Schema, unique bool) {
	cur.MatchAnyKeyword("FULLTEXT", "SPATIAL")
	name, _ := cur.Identifier()
	cur.MatchKeyword("ON")
	tableName, _ := cur.Identifier()
	cols := parseIndexColumnList(cur)

	idxType := model.IndexTypeIndex
	if unique {
		idxType = model.IndexTypeUnique
	}
	idx := &model.Index{Name: name, Type: idxType, Columns: cols}

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
	// Skip optional column list.
	if cur.SymbolIs("(") {
		cur.CollectUntilBalanced()
		cur.MatchSymbol(")")
	}
	cur.MatchKeyword("AS")
	rest := cur.CollectUntilBalanced(";")
	schema.Views[name] = &model.View{Name: name, SQL: shared.RebuildSQL(rest), Span: tokenizer.NewSpan(start)}
	cur.MatchSymbol(";")
}

func (p *Parser) parseInsert(cur *shared.Cursor, schema *model.Schema) {
	start := cur.Current()
	cur.Advance() // INSERT
	cur.MatchAnyKeyword("IGNORE")
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

// validate performs the cross-reference checks the teacher's parsers run
// after parsing: every constraint/index column must exist on its table, and
// every foreign key's referenced table/columns must exist.
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
