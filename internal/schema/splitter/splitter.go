// Package splitter divides a raw SQL source into individual statements,
// honoring dialect-specific quoting, comment and delimiter rules before any
// statement is handed to a DDL parser.
package splitter

import (
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/schema/tokenizer"
)

// Dialect selects the quoting/comment/delimiter rules applied while
// splitting. It mirrors internal/dialect.Dialect but is kept independent so
// this package has no dependency on the detector.
type Dialect int

const (
	MySQL Dialect = iota
	PostgreSQL
	SQLite
)

// Statement is one trimmed statement extracted from the source, together
// with its zero-based position in the statement list and its starting line
// for diagnostics.
type Statement struct {
	Text  string
	Line  int
	Index int
}

// Options configures the splitter.
type Options struct {
	// PreserveComments keeps comment text inside the returned statement
	// text instead of stripping it.
	PreserveComments bool
	// MaxStatementSize is a fatal ceiling on any single statement's byte
	// length; zero means unlimited.
	MaxStatementSize int
}

// Split divides src into statements according to dialect-specific rules.
func Split(src string, dialect Dialect, opts Options) ([]Statement, error) {
	s := &splitterState{
		src:     src,
		dialect: dialect,
		opts:    opts,
		line:    1,
		delim:   ";",
	}
	return s.run()
}

type splitterState struct {
	src     string
	dialect Dialect
	opts    Options
	pos     int
	line    int
	delim   string
}

func (s *splitterState) run() ([]Statement, error) {
	var out []Statement
	var b strings.Builder
	stmtStart := 0
	stmtLine := 1
	flush := func() error {
		text := b.String()
		if strings.TrimSpace(text) != "" {
			if s.opts.MaxStatementSize > 0 && len(text) > s.opts.MaxStatementSize {
				return &tokenizer.Error{Line: stmtLine, Column: 1, Message: "statement exceeds max_statement_size"}
			}
			lead := text[:len(text)-len(strings.TrimLeft(text, " \t\r\n"))]
			out = append(out, Statement{Text: strings.TrimSpace(text), Line: stmtLine + strings.Count(lead, "\n"), Index: len(out)})
		}
		b.Reset()
		stmtStart = s.pos
		stmtLine = s.line
		_ = stmtStart
		return nil
	}

	for s.pos < len(s.src) {
		// MySQL DELIMITER directive: only recognized at the start of a
		// logical line, outside of any quoting.
		if s.dialect == MySQL && (s.pos == 0 || s.src[s.pos-1] == '\n') && strings.TrimSpace(b.String()) == "" && s.matchDelimiterDirective() {
			newDelim, consumed, ln := s.readDelimiterDirective()
			s.pos += consumed
			s.line += ln
			s.delim = newDelim
			continue
		}

		r := s.src[s.pos]
		switch {
		case r == '\n':
			b.WriteByte(r)
			s.line++
			s.pos++
		case r == '-' && s.peekAt(1) == '-':
			n, text := s.consumeLineComment()
			if s.opts.PreserveComments {
				b.WriteString(text)
			}
			s.pos += n
		case s.dialect == MySQL && r == '#':
			n, text := s.consumeHashComment()
			if s.opts.PreserveComments {
				b.WriteString(text)
			}
			s.pos += n
		case r == '/' && s.peekAt(1) == '*':
			n, text, ln, err := s.consumeBlockComment()
			if err != nil {
				return nil, err
			}
			if s.opts.PreserveComments {
				b.WriteString(text)
			}
			s.pos += n
			s.line += ln
		case r == '\'':
			n, text, ln, err := s.consumeStringLiteral()
			if err != nil {
				return nil, err
			}
			b.WriteString(text)
			s.pos += n
			s.line += ln
		case r == '"':
			n, text, ln, err := s.consumeQuoted('"', '"')
			if err != nil {
				return nil, err
			}
			b.WriteString(text)
			s.pos += n
			s.line += ln
		case s.dialect == MySQL && r == '`':
			n, text, ln, err := s.consumeQuoted('`', '`')
			if err != nil {
				return nil, err
			}
			b.WriteString(text)
			s.pos += n
			s.line += ln
		case s.dialect == PostgreSQL && r == '$' && s.isDollarTagStart():
			n, text, ln, err := s.consumeDollarQuoted()
			if err != nil {
				return nil, err
			}
			b.WriteString(text)
			s.pos += n
			s.line += ln
		case s.matchesDelimiter():
			b.WriteString(s.delim)
			s.pos += len(s.delim)
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			b.WriteByte(r)
			s.pos++
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *splitterState) peekAt(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *splitterState) matchesDelimiter() bool {
	return strings.HasPrefix(s.src[s.pos:], s.delim)
}

func (s *splitterState) matchDelimiterDirective() bool {
	rest := s.src[s.pos:]
	return strings.HasPrefix(strings.ToUpper(rest), "DELIMITER ")
}

// readDelimiterDirective consumes "DELIMITER <token>" up to end of line and
// returns the new delimiter token, the number of bytes consumed and the
// number of newlines crossed.
func (s *splitterState) readDelimiterDirective() (string, int, int) {
	rest := s.src[s.pos:]
	nl := strings.IndexByte(rest, '\n')
	line := rest
	consumed := len(rest)
	lines := 0
	if nl >= 0 {
		line = rest[:nl]
		consumed = nl + 1
		lines = 1
	}
	fields := strings.Fields(line)
	newDelim := ";"
	if len(fields) >= 2 {
		newDelim = fields[1]
	}
	return newDelim, consumed, lines
}

func (s *splitterState) consumeLineComment() (int, string) {
	rest := s.src[s.pos:]
	n := len(rest)
	if nl := strings.IndexAny(rest, "\n\r"); nl >= 0 {
		n = nl
	}
	return n, rest[:n]
}

func (s *splitterState) consumeHashComment() (int, string) {
	return s.consumeLineComment()
}

func (s *splitterState) consumeBlockComment() (int, string, int, error) {
	rest := s.src[s.pos:]
	end := strings.Index(rest, "*/")
	if end < 0 {
		return 0, "", 0, &tokenizer.Error{Line: s.line, Column: 1, Message: "unterminated block comment"}
	}
	text := rest[:end+2]
	return len(text), text, strings.Count(text, "\n"), nil
}

func (s *splitterState) consumeStringLiteral() (int, string, int, error) {
	allowBackslash := s.dialect == MySQL
	i := 1 // opening quote
	for i < len(s.src)-s.pos {
		r := s.src[s.pos+i]
		if allowBackslash && r == '\\' {
			i += 2
			continue
		}
		if r == '\'' {
			i++
			if s.pos+i < len(s.src) && s.src[s.pos+i] == '\'' {
				i++
				continue
			}
			text := s.src[s.pos : s.pos+i]
			return i, text, strings.Count(text, "\n"), nil
		}
		i++
	}
	return 0, "", 0, &tokenizer.Error{Line: s.line, Column: 1, Message: "unterminated string literal"}
}

func (s *splitterState) consumeQuoted(open, close byte) (int, string, int, error) {
	i := 1
	for s.pos+i < len(s.src) {
		r := s.src[s.pos+i]
		if r == close {
			i++
			if s.pos+i < len(s.src) && s.src[s.pos+i] == close {
				i++
				continue
			}
			text := s.src[s.pos : s.pos+i]
			return i, text, strings.Count(text, "\n"), nil
		}
		i++
	}
	return 0, "", 0, &tokenizer.Error{Line: s.line, Column: 1, Message: "unterminated quoted identifier"}
}

// isDollarTagStart reports whether the current position begins a
// PostgreSQL dollar-quote opening tag ($tag$ or $$).
func (s *splitterState) isDollarTagStart() bool {
	_, ok := s.peekDollarTag(s.pos)
	return ok
}

func (s *splitterState) peekDollarTag(at int) (string, bool) {
	if at >= len(s.src) || s.src[at] != '$' {
		return "", false
	}
	i := at + 1
	for i < len(s.src) && isTagRune(s.src[i]) {
		i++
	}
	if i < len(s.src) && s.src[i] == '$' {
		return s.src[at+1 : i], true
	}
	return "", false
}

func isTagRune(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// consumeDollarQuoted consumes a full $tag$...$tag$ body, matching the
// opening tag; a different inner tag nested within is not treated
// specially since dollar-quoted bodies do not nest recursively in
// PostgreSQL (the outer tag's closer is searched for literally).
func (s *splitterState) consumeDollarQuoted() (int, string, int, error) {
	tag, ok := s.peekDollarTag(s.pos)
	if !ok {
		return 0, "", 0, &tokenizer.Error{Line: s.line, Column: 1, Message: "malformed dollar quote"}
	}
	opener := "$" + tag + "$"
	bodyStart := s.pos + len(opener)
	closeIdx := strings.Index(s.src[bodyStart:], opener)
	if closeIdx < 0 {
		return 0, "", 0, &tokenizer.Error{Line: s.line, Column: 1, Message: "unterminated dollar-quoted string"}
	}
	end := bodyStart + closeIdx + len(opener)
	text := s.src[s.pos:end]
	return len(text), text, strings.Count(text, "\n"), nil
}
