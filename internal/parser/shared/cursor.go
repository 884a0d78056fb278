// Package shared holds token-cursor and literal-parsing helpers common to
// every per-dialect DDL parser, factored out of the near-duplicate logic the
// three dialects would otherwise each carry separately.
package shared

import (
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
	"github.com/sqlxlate/sqlxlate/internal/schema/tokenizer"
)

// Cursor walks a token slice produced by the tokenizer, offering the
// same current/advance/match vocabulary every dialect parser needs.
type Cursor struct {
	Tokens []tokenizer.Token
	Pos    int
	Path   string
	Diags  *diagnostics.Collection
	// MySQLMode enables backslash-escape unquoting for string literals, to
	// match the scanning mode the tokens were produced under.
	MySQLMode bool
}

// NewCursor constructs a cursor over a token stream.
func NewCursor(path string, tokens []tokenizer.Token, diags *diagnostics.Collection) *Cursor {
	return &Cursor{Tokens: tokens, Path: path, Diags: diags}
}

// UnquoteString strips the surrounding single quotes from a raw KindString
// token's Text and undoes '' escaping (and, in MySQL mode, backslash
// escaping), returning the literal's content.
func UnquoteString(raw string, mysqlMode bool) string {
	if len(raw) < 2 || raw[0] != '\'' || raw[len(raw)-1] != '\'' {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\'' && i+1 < len(inner) && inner[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		if mysqlMode && c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Current returns the token at the cursor, or an EOF token past the end.
func (c *Cursor) Current() tokenizer.Token {
	if c.Pos >= len(c.Tokens) {
		return tokenizer.Token{Kind: tokenizer.KindEOF}
	}
	return c.Tokens[c.Pos]
}

// Peek returns the token `off` positions ahead of the cursor.
func (c *Cursor) Peek(off int) tokenizer.Token {
	idx := c.Pos + off
	if idx < 0 || idx >= len(c.Tokens) {
		return tokenizer.Token{Kind: tokenizer.KindEOF}
	}
	return c.Tokens[idx]
}

// Advance consumes and returns the current token.
func (c *Cursor) Advance() tokenizer.Token {
	tok := c.Current()
	if c.Pos < len(c.Tokens) {
		c.Pos++
	}
	return tok
}

// IsEOF reports whether the cursor has reached the end of input.
func (c *Cursor) IsEOF() bool {
	return c.Current().Kind == tokenizer.KindEOF
}

// KeywordIs reports whether the current token is the keyword kw
// (case-insensitive), without consuming it.
func (c *Cursor) KeywordIs(kw string) bool {
	tok := c.Current()
	return tok.Kind == tokenizer.KindKeyword && strings.EqualFold(tok.Text, kw)
}

// MatchKeyword consumes the current token and returns true if it is the
// keyword kw.
func (c *Cursor) MatchKeyword(kw string) bool {
	if c.KeywordIs(kw) {
		c.Advance()
		return true
	}
	return false
}

// MatchAnyKeyword consumes and returns true if the current token matches any
// of the supplied keywords.
func (c *Cursor) MatchAnyKeyword(kws ...string) bool {
	for _, kw := range kws {
		if c.MatchKeyword(kw) {
			return true
		}
	}
	return false
}

// SymbolIs reports whether the current token is the symbol sym.
func (c *Cursor) SymbolIs(sym string) bool {
	tok := c.Current()
	return tok.Kind == tokenizer.KindSymbol && tok.Text == sym
}

// MatchSymbol consumes the current token and returns true if it is sym.
func (c *Cursor) MatchSymbol(sym string) bool {
	if c.SymbolIs(sym) {
		c.Advance()
		return true
	}
	return false
}

// ExpectSymbol consumes the current token if it matches sym, else records a
// diagnostic and returns false.
func (c *Cursor) ExpectSymbol(sym string) bool {
	if c.MatchSymbol(sym) {
		return true
	}
	c.AddDiag(diagnostics.Error("expected '"+sym+"'").At(c.Path, c.Current().Line, c.Current().Column).Build())
	return false
}

// AddDiag records a diagnostic on the cursor's collection.
func (c *Cursor) AddDiag(d diagnostics.Diagnostic) {
	if c.Diags != nil {
		c.Diags.Add(d)
	}
}

// Identifier consumes an identifier (bare or quoted) or a keyword used in
// identifier position, returning its normalized (unquoted) text.
func (c *Cursor) Identifier() (string, bool) {
	tok := c.Current()
	if tok.Kind == tokenizer.KindIdentifier {
		c.Advance()
		return tokenizer.NormalizeIdentifier(tok.Text), true
	}
	if tok.Kind == tokenizer.KindKeyword {
		c.Advance()
		return tok.Text, true
	}
	return "", false
}

// SyncToStatementEnd advances past tokens until a top-level ';' or a
// CREATE/ALTER/INSERT keyword is seen, matching recovery behavior used by every
// dialect parser after a statement fails to parse.
func (c *Cursor) SyncToStatementEnd() {
	depth := 0
	for !c.IsEOF() {
		tok := c.Current()
		if tok.Kind == tokenizer.KindSymbol {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					c.Advance()
					return
				}
			}
		}
		if depth == 0 && tok.Kind == tokenizer.KindKeyword &&
			(strings.EqualFold(tok.Text, "CREATE") || strings.EqualFold(tok.Text, "ALTER") || strings.EqualFold(tok.Text, "INSERT")) {
			return
		}
		c.Advance()
	}
}

// RebuildSQL reconstructs a readable SQL fragment from a token slice,
// inserting spaces except directly before ',' ')' '.' ';' or directly after
// '(' '.'.
func RebuildSQL(tokens []tokenizer.Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		text := tok.Text
		if i > 0 && needsSpace(tokens[i-1], tok) {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	return b.String()
}

func needsSpace(prev, cur tokenizer.Token) bool {
	if cur.Kind == tokenizer.KindSymbol && (cur.Text == "," || cur.Text == ")" || cur.Text == "." || cur.Text == ";") {
		return false
	}
	if prev.Kind == tokenizer.KindSymbol && (prev.Text == "(" || prev.Text == ".") {
		return false
	}
	return true
}

// CollectUntilBalanced reads tokens until a ')' that closes no nested paren,
// or a top-level symbol listed in stopSymbols, is found, and returns the
// collected tokens. The stopping token itself is not consumed.
func (c *Cursor) CollectUntilBalanced(stopSymbols ...string) []tokenizer.Token {
	var out []tokenizer.Token
	depth := 0
	for !c.IsEOF() {
		tok := c.Current()
		if tok.Kind == tokenizer.KindSymbol {
			if tok.Text == "(" {
				depth++
			} else if tok.Text == ")" {
				if depth == 0 {
					break
				}
				depth--
			} else if depth == 0 && containsSymbol(stopSymbols, tok.Text) {
				break
			}
		}
		out = append(out, c.Advance())
	}
	return out
}

func containsSymbol(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ParseTypeParams consumes an optional "(" n [, n] ")" suffix, as found
// after a type name (VARCHAR(255), DECIMAL(10,2)), returning the parsed
// integers.
func (c *Cursor) ParseTypeParams() []int {
	if !c.SymbolIs("(") {
		return nil
	}
	c.Advance()
	var nums []int
	for {
		tok := c.Current()
		if tok.Kind == tokenizer.KindNumber {
			c.Advance()
			nums = append(nums, atoiSafe(tok.Text))
		} else {
			break
		}
		if c.MatchSymbol(",") {
			continue
		}
		break
	}
	c.ExpectSymbol(")")
	return nums
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// ParseEnumValues consumes a parenthesized comma-separated list of string
// literals, as used by ENUM('a','b',...).
func (c *Cursor) ParseEnumValues() []string {
	if !c.MatchSymbol("(") {
		return nil
	}
	var vals []string
	for {
		tok := c.Current()
		if tok.Kind == tokenizer.KindString {
			c.Advance()
			vals = append(vals, UnquoteString(tok.Text, c.MySQLMode))
		}
		if c.MatchSymbol(",") {
			continue
		}
		break
	}
	c.ExpectSymbol(")")
	return vals
}

// ParseValue interprets the current token as a literal or expression Value,
// consuming the tokens it uses. Numbers and strings become literal values;
// NULL becomes a null-kind value; TRUE/FALSE/other keywords/function calls
// become keyword-kind expression values emitted verbatim at render time.
func (c *Cursor) ParseValue() *model.Value {
	tok := c.Current()
	switch tok.Kind {
	case tokenizer.KindNumber:
		c.Advance()
		return &model.Value{Kind: model.ValueKindNumber, Text: tok.Text, Span: tokenizer.NewSpan(tok)}
	case tokenizer.KindString:
		c.Advance()
		return &model.Value{Kind: model.ValueKindString, Text: UnquoteString(tok.Text, c.MySQLMode), Span: tokenizer.NewSpan(tok)}
	case tokenizer.KindBlob:
		c.Advance()
		return &model.Value{Kind: model.ValueKindBlob, Text: tok.Text, Span: tokenizer.NewSpan(tok)}
	case tokenizer.KindKeyword:
		if strings.EqualFold(tok.Text, "NULL") {
			c.Advance()
			return &model.Value{Kind: model.ValueKindNull, Text: "NULL", Span: tokenizer.NewSpan(tok)}
		}
		return c.parseExpressionValue()
	case tokenizer.KindIdentifier:
		return c.parseExpressionValue()
	case tokenizer.KindSymbol:
		if tok.Text == "-" || tok.Text == "+" {
			// signed numeric literal
			sign := c.Advance()
			if c.Current().Kind == tokenizer.KindNumber {
				num := c.Advance()
				return &model.Value{Kind: model.ValueKindNumber, Text: sign.Text + num.Text, Span: tokenizer.NewSpan(num)}
			}
		}
		return c.parseExpressionValue()
	default:
		c.Advance()
		return &model.Value{Kind: model.ValueKindUnknown, Text: tok.Text, Span: tokenizer.NewSpan(tok)}
	}
}

// parseExpressionValue collects an arbitrary expression (keyword, function
// call possibly with parens, or array literal) up to the next top-level
// ',' ')' or ';' and rebuilds it verbatim.
func (c *Cursor) parseExpressionValue() *model.Value {
	start := c.Current()
	var collected []tokenizer.Token
	depth := 0
	for !c.IsEOF() {
		tok := c.Current()
		if tok.Kind == tokenizer.KindSymbol {
			if tok.Text == "(" || tok.Text == "[" {
				depth++
			} else if tok.Text == ")" || tok.Text == "]" {
				if depth == 0 {
					break
				}
				depth--
			} else if depth == 0 && (tok.Text == "," || tok.Text == ";") {
				break
			}
		}
		collected = append(collected, c.Advance())
		// A bare keyword/identifier not followed by '(' or '[' terminates
		// immediately (e.g. CURRENT_TIMESTAMP, TRUE, FALSE, an enum atom).
		if depth == 0 && !c.SymbolIs("(") && !c.SymbolIs("[") && len(collected) == 1 {
			break
		}
	}
	return &model.Value{Kind: model.ValueKindKeyword, Text: RebuildSQL(collected), Span: tokenizer.NewSpan(start)}
}
