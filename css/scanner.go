package css

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	keyframesRule = "@keyframes"
	rootSelector  = ":root"
	indentUnit    = "  "
)

type partKind uint8

const (
	partText partKind = iota
	// custom property reference of placeholder index
	partVar
	// the fragment's own hash
	partSelf
	// text of an inline literal
	partLiteral
)

// part is a piece of output. Hash dependent parts are kept symbolic until
// the whole input has been scanned and the hash is known.
type part struct {
	kind  partKind
	text  string
	index int
}

// scanner is the compiler state machine. One scanner is used per
// compilation.
type scanner struct {
	depth          int
	insignificant  bool // at line start, leading white space is dropped
	inDecl         bool // after ':' until ';', terminated on line end
	inLineComment  bool // "//" comment, rewritten into a block comment
	inBlockComment bool
	commentStar    bool // segment ended with '*' inside a block comment
	quote          rune // open string delimiter
	parens         int
	hoisting       bool
	hoistDepth     int
	line           int

	buf     []byte
	main    []part
	hoisted []part
	vars    int
	hash    rollingHash
}

func newScanner() *scanner {
	return &scanner{insignificant: true}
}

// Parse compiles a fragment without consulting any cache.
func Parse(f *Fragment) (*Stylesheet, error) {
	fl, err := flatten(f)
	if err != nil {
		return nil, err
	}
	return parseFlattened(fl)
}

func parseFlattened(fl *flattened) (*Stylesheet, error) {
	s := newScanner()
	for _, it := range fl.items {
		switch it.kind {
		case itemText:
			if err := s.scan(it.text); err != nil {
				return nil, err
			}
		case itemLiteral:
			s.literal(it.text)
		case itemValue:
			s.placeholder()
		}
	}
	s.flush()
	if s.depth != 0 {
		return nil, fmt.Errorf("%d block(s) left open at line %d: %w", s.depth, s.line+1, ErrUnclosedBrace)
	}
	return s.result(fl.bindable()), nil
}

func (s *scanner) scan(seg string) error {
	for i := 0; i < len(seg); {
		r, size := utf8.DecodeRuneInString(seg[i:])
		rest := seg[i:]
		i += size
		s.hash.add(r)
		if r == '\n' {
			s.line++
		}

		if s.insignificant && unicode.IsSpace(r) {
			continue
		}

		switch {
		case r == '\n':
			s.newline()
			continue
		case s.inLineComment:
			s.emit(r)
			continue
		case s.inBlockComment:
			s.emit(r)
			if s.commentStar && r == '/' {
				s.commentStar = false
				s.inBlockComment = false
				continue
			}
			s.commentStar = false
			if r == '*' {
				switch {
				case strings.HasPrefix(seg[i:], "/"):
					s.hash.add('/')
					s.buf = append(s.buf, '/')
					i++
					s.inBlockComment = false
				case i == len(seg):
					s.commentStar = true
				}
			}
			continue
		case s.quote != 0:
			s.emit(r)
			if r == '\\' && i < len(seg) {
				n, sz := utf8.DecodeRuneInString(seg[i:])
				s.hash.add(n)
				s.buf = utf8.AppendRune(s.buf, n)
				i += sz
			} else if r == s.quote {
				s.quote = 0
			}
			continue
		}

		next := firstRune(seg[i:])
		switch r {
		case '/':
			if next == '/' && s.parens == 0 {
				// the second slash is consumed without contributing to the hash
				i++
				if s.inDecl {
					s.inDecl = false
					s.trimSpace()
					s.buf = append(s.buf, "; "...)
				}
				s.emitString("/*")
				s.inLineComment = true
				continue
			}
			if next == '*' {
				s.hash.add('*')
				i++
				s.emitString("/*")
				s.inBlockComment = true
				continue
			}
		case '"', '\'':
			s.emit(r)
			s.quote = r
			continue
		case '(':
			s.parens++
		case ')':
			if s.parens > 0 {
				s.parens--
			}
		case ':':
			s.inDecl = true
			if !s.hoisting && s.insignificant && strings.HasPrefix(rest, rootSelector) &&
				!isIdentRune(firstRune(rest[len(rootSelector):])) {
				s.beginHoist()
			}
		case ';':
			s.inDecl = false
		case '#':
			// "#id" and "#fff" are ordinary text, a lone '#' is the scope hash
			if next >= 0 && !isIdentRune(next) {
				s.self()
				continue
			}
		case '@':
			if !s.hoisting && strings.HasPrefix(rest, keyframesRule) &&
				!isIdentRune(firstRune(rest[len(keyframesRule):])) {
				s.beginHoist()
			}
		case '{':
			s.depth++
			s.inDecl = false
			s.buf = append(s.buf, "{\n"...)
			s.insignificant = true
			continue
		case '}':
			if s.depth == 0 {
				return fmt.Errorf("line %d: %w", s.line+1, ErrUnmatchedBrace)
			}
			if !s.insignificant {
				// "a { color: red }" closes on its own line
				s.trimSpace()
				if s.inDecl {
					s.buf = append(s.buf, ';')
				}
				s.buf = append(s.buf, '\n')
			}
			s.depth--
			s.inDecl = false
			s.buf = append(s.buf, s.indent()...)
			s.buf = append(s.buf, "}\n"...)
			s.insignificant = true
			if s.hoisting && s.depth == s.hoistDepth {
				s.endHoist()
			}
			continue
		}
		s.emit(r)
	}
	return nil
}

// newline handles a line break on a significant line.
func (s *scanner) newline() {
	if s.inBlockComment {
		s.commentStar = false
		s.buf = append(s.buf, '\n')
		s.insignificant = true
		return
	}
	// strings cannot span lines
	s.quote = 0
	if s.inDecl {
		s.inDecl = false
		s.buf = append(s.buf, ';')
	}
	if s.inLineComment {
		s.inLineComment = false
		s.buf = append(s.buf, " */"...)
	}
	s.buf = append(s.buf, '\n')
	s.insignificant = true
}

func (s *scanner) indent() string {
	n := s.depth
	if s.hoisting {
		n -= s.hoistDepth
	}
	return strings.Repeat(indentUnit, n)
}

func (s *scanner) lineStart() {
	if s.insignificant {
		s.insignificant = false
		s.buf = append(s.buf, s.indent()...)
	}
}

func (s *scanner) emit(r rune) {
	s.lineStart()
	s.buf = utf8.AppendRune(s.buf, r)
}

func (s *scanner) emitString(str string) {
	s.lineStart()
	s.buf = append(s.buf, str...)
}

// trimSpace drops trailing blanks of the buffered text.
func (s *scanner) trimSpace() {
	s.buf = bytes.TrimRight(s.buf, " \t")
}

// flush moves buffered text into the active output stream.
func (s *scanner) flush() {
	if len(s.buf) == 0 {
		return
	}
	s.push(part{kind: partText, text: string(s.buf)})
	s.buf = s.buf[:0]
}

func (s *scanner) push(p part) {
	if s.hoisting {
		s.hoisted = append(s.hoisted, p)
		return
	}
	s.main = append(s.main, p)
}

func (s *scanner) beginHoist() {
	s.flush()
	s.hoisting = true
	s.hoistDepth = s.depth
}

func (s *scanner) endHoist() {
	s.flush()
	s.hoisting = false
}

func (s *scanner) self() {
	s.lineStart()
	s.flush()
	s.push(part{kind: partSelf})
}

func (s *scanner) literal(text string) {
	s.lineStart()
	s.flush()
	if text != "" {
		s.commentStar = false
		s.push(part{kind: partLiteral, text: text})
	}
}

func (s *scanner) placeholder() {
	s.lineStart()
	s.commentStar = false
	s.flush()
	s.vars++
	s.push(part{kind: partVar, index: s.vars})
}

func (s *scanner) result(values []any) *Stylesheet {
	hash := s.hash.String()
	render := func(parts []part) string {
		var b strings.Builder
		for _, p := range parts {
			switch p.kind {
			case partText, partLiteral:
				b.WriteString(p.text)
			case partVar:
				b.WriteString(Placeholder{Index: p.index, hash: hash}.Var())
			case partSelf:
				b.WriteString(hash)
			}
		}
		return b.String()
	}

	sheet := &Stylesheet{
		Hash:          hash,
		MainBodyEmpty: literalOnly(s.main),
		Placeholders:  make([]Placeholder, s.vars),
	}
	main := ""
	if !sheet.MainBodyEmpty {
		main = "." + hash + " {" + render(s.main) + "}"
	}
	sheet.Sheets = []string{main, render(s.hoisted)}
	for i := range sheet.Placeholders {
		sheet.Placeholders[i] = Placeholder{Index: i + 1, hash: hash}
		if i < len(values) {
			sheet.Placeholders[i].Value = values[i]
		}
	}
	return sheet
}

// literalOnly reports whether the main region holds nothing but inline
// literals and blanks. Such a fragment only carries text meant to be spliced
// into another template, its own scope wrapper is elided.
func literalOnly(parts []part) bool {
	for _, p := range parts {
		switch {
		case p.kind == partLiteral:
		case p.kind == partText && strings.TrimSpace(p.text) == "":
		default:
			return false
		}
	}
	return true
}

func firstRune(s string) rune {
	if s == "" {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func isIdentRune(r rune) bool {
	switch {
	case r < 0:
		return false
	case r == '-', r == '_', r == '\\', r >= utf8.RuneSelf:
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
