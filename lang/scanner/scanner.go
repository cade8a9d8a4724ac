// Package scanner tokenizes script source text for the parser to consume.
package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mna/glint/lang/token"
)

// Value holds the decoded payload of a scanned token, when it carries one.
type Value struct {
	Raw    string
	Pos    token.Pos
	Int    int64
	String string
}

// Error records a single lexical error with its source position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// ErrorList accumulates scanning errors in the order they were reported.
type ErrorList []*Error

func (el *ErrorList) Add(pos token.Pos, msg string) {
	*el = append(*el, &Error{Pos: pos, Msg: msg})
}

func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(el[0].Error())
	fmt.Fprintf(&sb, " (and %d more errors)", len(el)-1)
	return sb.String()
}

// Scanner tokenizes a single source file for the parser.
type Scanner struct {
	src []byte
	err func(pos token.Pos, msg string)

	cur      rune
	off      int
	roff     int
	line     int
	lineOff  int // byte offset where the current line starts
}

// Init initializes the scanner to tokenize src.
func (s *Scanner) Init(src []byte, errHandler func(token.Pos, string)) {
	s.src = src
	s.err = errHandler
	s.off = 0
	s.roff = 0
	s.line = 1
	s.lineOff = 0
	s.cur = ' '
	s.advance()
}

func (s *Scanner) pos(off int) token.Pos {
	return token.MakePos(s.line, off-s.lineOff+1)
}

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}
	if s.cur == '\n' {
		s.line++
		s.lineOff = s.roff
	}
	s.off = s.roff
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) error(off int, format string, args ...any) {
	if s.err != nil {
		s.err(s.pos(off), fmt.Sprintf(format, args...))
	}
}

// Scan returns the next token in the source, along with its decoded value
// in tokVal.
func (s *Scanner) Scan(tokVal *Value) token.Token {
	s.skipIgnorable()

	pos := s.pos(s.off)
	start := s.off

	switch cur := s.cur; {
	case isLetter(cur):
		lit := s.ident()
		tok := token.IDENT
		if kw, ok := token.Keywords[lit]; ok {
			tok = kw
		}
		*tokVal = Value{Raw: lit, Pos: pos}
		return tok

	case isDigit(cur):
		lit := s.number()
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			s.error(start, "invalid integer literal %q: %s", lit, err)
		}
		*tokVal = Value{Raw: lit, Pos: pos, Int: v}
		return token.INT
	}

	switch cur := s.cur; cur {
	case -1:
		*tokVal = Value{Raw: "", Pos: pos}
		return token.EOF

	case '"':
		lit, val := s.stringLit()
		*tokVal = Value{Raw: lit, Pos: pos, String: val}
		return token.STRING

	case '+':
		s.advance()
		*tokVal = Value{Raw: "+", Pos: pos}
		return token.PLUS

	case ',':
		s.advance()
		*tokVal = Value{Raw: ",", Pos: pos}
		return token.COMMA

	case ':':
		s.advance()
		*tokVal = Value{Raw: ":", Pos: pos}
		return token.COLON

	case ';':
		s.advance()
		*tokVal = Value{Raw: ";", Pos: pos}
		return token.SEMI

	case '(':
		s.advance()
		*tokVal = Value{Raw: "(", Pos: pos}
		return token.LPAREN

	case ')':
		s.advance()
		*tokVal = Value{Raw: ")", Pos: pos}
		return token.RPAREN

	case '{':
		s.advance()
		*tokVal = Value{Raw: "{", Pos: pos}
		return token.LBRACE

	case '}':
		s.advance()
		*tokVal = Value{Raw: "}", Pos: pos}
		return token.RBRACE

	case '=':
		s.advance()
		if s.cur == '=' {
			s.advance()
			*tokVal = Value{Raw: "==", Pos: pos}
			return token.EQL
		}
		*tokVal = Value{Raw: "=", Pos: pos}
		return token.EQ

	default:
		s.advance() // always make progress
		s.error(start, "illegal character %#U", cur)
		*tokVal = Value{Raw: string(cur), Pos: pos}
		return token.ILLEGAL
	}
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

func (s *Scanner) number() string {
	start := s.off
	for isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

// stringLit scans a double-quoted string literal, processing \n \t \" \\
// escape sequences, and returns both the raw source text and the decoded
// value.
func (s *Scanner) stringLit() (raw, val string) {
	start := s.off
	s.advance() // opening quote
	var sb strings.Builder
	for {
		if s.cur == -1 || s.cur == '\n' {
			s.error(start, "unterminated string literal")
			break
		}
		if s.cur == '"' {
			s.advance()
			break
		}
		if s.cur == '\\' {
			s.advance()
			switch s.cur {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				s.error(s.off, "unknown escape sequence \\%c", s.cur)
				sb.WriteRune(s.cur)
			}
			s.advance()
			continue
		}
		sb.WriteRune(s.cur)
		s.advance()
	}
	return string(s.src[start:s.off]), sb.String()
}

// skipIgnorable skips whitespace and "// ..." line comments. Line comments
// are not part of the spec grammar proper but let source files carry
// commentary between declarations without failing to scan.
func (s *Scanner) skipIgnorable() {
	for {
		for isWhitespace(s.cur) {
			s.advance()
		}
		if s.cur == '/' && s.peek() == '/' {
			for s.cur != '\n' && s.cur != -1 {
				s.advance()
			}
			continue
		}
		break
	}
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func isWhitespace(rn rune) bool {
	return rn == ' ' || rn == '\t' || rn == '\n' || rn == '\r'
}

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' ||
		'A' <= rn && rn <= 'Z' ||
		rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool {
	return '0' <= rn && rn <= '9'
}
