// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/creachadair/jcodec/internal/escape"
	"go4.org/mem"
)

// Token is the type of a lexical token.
type Token byte

// Constants defining the valid Token values.
const (
	EndOfInput   Token = iota // end of input
	Identifier                // unquoted name
	Literal                   // null, true, false, string, or number
	OpenBrace                 // left brace "{"
	CloseBrace                // right brace "}"
	OpenBracket               // left square bracket "["
	CloseBracket              // right square bracket "]"
	Colon                     // colon ":"
	Comma                     // comma ","
)

var tokenStr = [...]string{
	EndOfInput:   "end of input",
	Identifier:   "identifier",
	Literal:      "literal",
	OpenBrace:    `"{"`,
	CloseBrace:   `"}"`,
	OpenBracket:  `"["`,
	CloseBracket: `"]"`,
	Colon:        `":"`,
	Comma:        `","`,
}

func (t Token) String() string {
	if int(t) >= len(tokenStr) {
		return "invalid token"
	}
	return tokenStr[t]
}

// LiteralKind classifies the value of a Literal token.
type LiteralKind byte

// Constants defining the valid LiteralKind values.
const (
	NotLiteral      LiteralKind = iota // the current token is not a literal
	Null                               // constant: null
	True                               // constant: true
	False                              // constant: false
	String                             // quoted string
	SignedInteger                      // integer with a leading "-"
	UnsignedInteger                    // integer without a sign
	FloatingPoint                      // number with a fraction and/or exponent
)

var kindStr = [...]string{
	NotLiteral:      "non-literal",
	Null:            "null",
	True:            "true",
	False:           "false",
	String:          "string",
	SignedInteger:   "signed integer",
	UnsignedInteger: "unsigned integer",
	FloatingPoint:   "floating point",
}

func (k LiteralKind) String() string {
	if int(k) >= len(kindStr) {
		return "invalid literal"
	}
	return kindStr[k]
}

// EOF is the character reported by a Scanner at the end of its input.
const EOF rune = -1

// A Scanner reads lexical tokens from an input stream. Each call to Next
// advances the scanner to the next token, or reports an error.
//
// The scanner keeps one character of lookahead, and tracks the position of
// that character as it goes. A scanner can be bookmarked and later rewound
// to the bookmark (see Bookmark), in which case the characters consumed
// since the bookmark are delivered again.
type Scanner struct {
	r      *bufio.Reader
	strict bool
	rerr   error // sticky read error other than io.EOF

	ch  rune     // current character, or EOF
	pos Position // position of ch
	nl  rune     // first half of a possible two-character newline, or 0

	tok  Token
	kind LiteralKind
	text string   // literal value, or identifier name
	tpos Position // position of the first character of tok
	hex  bool     // the current number was written in hexadecimal

	buf bytes.Buffer // current token

	replay []rune // characters consumed while a bookmark is active
	cursor int    // index of the next character to re-deliver from replay
	marks  []rewindState
}

// NewScanner constructs a new lexical scanner that consumes input from r.
// The scanner is positioned before the first token; call Next to advance.
func NewScanner(r io.Reader) *Scanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	s := &Scanner{r: br}
	s.ch = s.read()
	return s
}

// SetStrict configures the scanner to accept only the standard grammar
// (true), or the permissive superset (false). In strict mode comments,
// single-quoted strings, hexadecimal numbers, redundant leading zeroes and
// unescaped control characters in strings are reported as errors.
func (s *Scanner) SetStrict(strict bool) { s.strict = strict }

// Strict reports whether s is in strict mode.
func (s *Scanner) Strict() bool { return s.strict }

// Char returns the current (not yet consumed) character, or EOF.
func (s *Scanner) Char() rune { return s.ch }

// NextChar consumes the current character and returns the one following it.
// At the end of the input NextChar returns EOF and does not advance.
func (s *Scanner) NextChar() rune {
	if s.ch == EOF {
		return EOF
	}
	s.account(s.ch)
	s.ch = s.read()
	return s.ch
}

// account updates the position to reflect consuming ch. Each of "\r", "\n",
// "\r\n" and "\n\r" counts as exactly one line break.
func (s *Scanner) account(ch rune) {
	switch ch {
	case '\r', '\n':
		if s.nl != 0 && s.nl != ch {
			s.nl = 0 // second half of a pair
			return
		}
		s.pos.Line++
		s.pos.Offset = 0
		s.nl = ch
	default:
		s.pos.Offset++
		s.nl = 0
	}
}

// read returns the next raw character, re-delivering replayed characters
// before reading new ones from the input.
func (s *Scanner) read() rune {
	if s.cursor < len(s.replay) {
		ch := s.replay[s.cursor]
		s.cursor++
		return ch
	}
	if len(s.marks) == 0 && len(s.replay) != 0 {
		s.replay = s.replay[:0]
		s.cursor = 0
	}

	ch := EOF
	if s.rerr == nil {
		r, _, err := s.r.ReadRune()
		if err == nil {
			ch = r
		} else if err != io.EOF {
			s.rerr = err
		}
	}
	if len(s.marks) != 0 {
		s.replay = append(s.replay, ch)
		s.cursor++
	}
	return ch
}

// Next advances s to the next token of the input, or reports an error.
// At the end of the input the token is EndOfInput, and further calls to Next
// do not advance.
func (s *Scanner) Next() error {
	s.kind = NotLiteral
	s.text = ""
	s.hex = false

	if err := s.skipSpace(); err != nil {
		return err
	}
	s.tpos = s.pos

	ch := s.ch
	if ch == EOF {
		if s.rerr != nil {
			return s.rerr
		}
		s.tok = EndOfInput
		return nil
	}

	// Handle punctuation.
	if t, ok := selfDelim(ch); ok {
		s.tok = t
		s.NextChar()
		return nil
	}

	// Handle string values.
	if ch == '"' || ch == '\'' {
		return s.scanString(ch)
	}

	// Handle numbers.
	if isNumStart(ch) {
		return s.scanNumber()
	}

	// Handle identifiers and the constants true, false, null.
	if isNameStart(ch) {
		s.scanName()
		return nil
	}
	return s.failf("unexpected %q", ch)
}

// Token returns the type of the current token.
func (s *Scanner) Token() Token { return s.tok }

// Kind returns the literal kind of the current token, or NotLiteral.
func (s *Scanner) Kind() LiteralKind { return s.kind }

// Text returns the text of the current token. For a string literal this is
// the unescaped value; for a number, the text as written; for an identifier,
// its name. It is empty for all other tokens.
func (s *Scanner) Text() string { return s.text }

// IsHex reports whether the current token is a number written with a "0x"
// or "0X" prefix.
func (s *Scanner) IsHex() bool { return s.hex }

// Pos returns the position of the first character of the current token.
func (s *Scanner) Pos() Position { return s.tpos }

// Check reports an error if the current token is not tok.
func (s *Scanner) Check(tok Token) error {
	if s.tok != tok {
		return s.failAt(s.tpos, "expected %v, got %v", tok, s.describe())
	}
	return nil
}

// Skip checks that the current token is tok, and advances past it.
func (s *Scanner) Skip(tok Token) error {
	if err := s.Check(tok); err != nil {
		return err
	}
	return s.Next()
}

// SkipIf advances past the current token if it is tok, and reports whether
// it did so.
func (s *Scanner) SkipIf(tok Token) (bool, error) {
	if s.tok != tok {
		return false, nil
	}
	return true, s.Next()
}

// describe returns a human-readable summary of the current token.
func (s *Scanner) describe() string {
	switch s.tok {
	case Identifier:
		return fmt.Sprintf("identifier %q", s.text)
	case Literal:
		switch s.kind {
		case Null, True, False:
			return s.kind.String()
		case String:
			return fmt.Sprintf("string %q", s.text)
		default:
			return "number " + s.text
		}
	}
	return s.tok.String()
}

func (s *Scanner) skipSpace() error {
	for {
		switch s.ch {
		case ' ', '\t', '\r', '\n':
			s.NextChar()
		case '/':
			if s.strict {
				return s.failf("comments are not allowed in strict mode")
			}
			if err := s.skipComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Scanner) skipComment() error {
	start := s.pos
	switch s.NextChar() {
	case '/': // line comment to end of line
		for ch := s.NextChar(); ch != '\r' && ch != '\n' && ch != EOF; ch = s.NextChar() {
		}
		return nil

	case '*': // block comment
		s.NextChar()
		for {
			switch s.ch {
			case EOF:
				return s.failAt(start, "unterminated comment")
			case '*':
				if s.NextChar() == '/' {
					s.NextChar()
					return nil
				}
				// We saw "*" but not "/", so keep scanning for the end of the block.
			default:
				s.NextChar()
			}
		}

	default:
		return s.failf("invalid %q in comment", s.ch)
	}
}

func (s *Scanner) scanString(quote rune) error {
	if quote == '\'' && s.strict {
		return s.failf("single-quoted strings are not allowed in strict mode")
	}
	s.buf.Reset()
	for ch := s.NextChar(); ch != quote; ch = s.NextChar() {
		switch ch {
		case EOF:
			return s.failAt(s.tpos, "unterminated string")
		case '\\':
			s.buf.WriteRune(ch)
			esc := s.NextChar()
			switch esc {
			case '"', '\'', '\\', '/', 'b', 'f', 'n', 'r', 't', '0':
				s.buf.WriteRune(esc)
			case 'u':
				s.buf.WriteRune(esc)
				if err := s.readHex4(); err != nil {
					return err
				}
			case EOF:
				return s.failAt(s.tpos, "unterminated string")
			default:
				return s.failf("invalid escape %q", esc)
			}
		default:
			if ch < ' ' && s.strict {
				return s.failf("control character %q in string", ch)
			}
			s.buf.WriteRune(ch)
		}
	}
	s.NextChar() // consume the closing quote

	dec, err := escape.Unquote(mem.B(s.buf.Bytes()))
	if err != nil {
		return s.failAt(s.tpos, "%v", err)
	}
	s.tok = Literal
	s.kind = String
	s.text = string(dec)
	return nil
}

// readHex4 reads exactly 4 hexadecimal digits from the input.
func (s *Scanner) readHex4() error {
	for range 4 {
		ch := s.NextChar()
		if !isHexDigit(ch) {
			return s.failf("invalid Unicode escape: not a hex digit: %q", ch)
		}
		s.buf.WriteRune(ch)
	}
	return nil
}

func (s *Scanner) scanNumber() error {
	s.buf.Reset()
	var neg, float bool

	if s.ch == '-' {
		s.buf.WriteRune(s.ch)
		s.NextChar()
		neg = true
	}
	if s.ch == '0' {
		s.buf.WriteRune(s.ch)
		if ch := s.NextChar(); ch == 'x' || ch == 'X' {
			if s.strict {
				return s.failf("hexadecimal numbers are not allowed in strict mode")
			}
			s.buf.WriteRune(ch)
			s.NextChar()
			if s.readWhile(isHexDigit) == 0 {
				return s.failf("missing hex digits")
			}
			s.hex = true
			return s.finishNumber(neg, false)
		}
	}

	// Consume the remainder of an integer.
	if s.readWhile(isDigit) == 0 && !bytes.HasSuffix(s.buf.Bytes(), []byte("0")) {
		return s.failf("missing digits")
	}

	// Check for extra leading zeroes, which are disallowed by the standard.
	// That is: 0.12 is OK, 01.2 is not.
	if s.strict && hasExtraLeadingZeroes(s.buf.Bytes()) {
		return s.failAt(s.tpos, "extra leading zeroes")
	}

	// If a decimal point follows, consume a fractional part.
	if s.ch == '.' {
		s.buf.WriteRune(s.ch)
		s.NextChar()
		if s.readWhile(isDigit) == 0 && s.strict {
			return s.failf("no digits after decimal point")
		}
		float = true
	}

	// If an exponent follows, consume it.
	if s.ch == 'e' || s.ch == 'E' {
		s.buf.WriteRune(s.ch)
		if ch := s.NextChar(); ch == '+' || ch == '-' {
			s.buf.WriteRune(ch)
			s.NextChar()
		}
		if s.readWhile(isDigit) == 0 {
			return s.failf("missing exponent digits")
		}
		float = true
	}
	return s.finishNumber(neg, float)
}

func (s *Scanner) finishNumber(neg, float bool) error {
	if isNameStart(s.ch) {
		return s.failf("invalid %q after number", s.ch)
	}
	s.tok = Literal
	s.text = s.buf.String()
	switch {
	case float:
		s.kind = FloatingPoint
	case neg:
		s.kind = SignedInteger
	default:
		s.kind = UnsignedInteger
	}
	return nil
}

func (s *Scanner) scanName() {
	s.buf.Reset()
	s.readWhile(isNameRune)
	s.text = s.buf.String()
	switch s.text {
	case "true":
		s.tok, s.kind = Literal, True
	case "false":
		s.tok, s.kind = Literal, False
	case "null":
		s.tok, s.kind = Literal, Null
	default:
		s.tok = Identifier
	}
}

// readWhile consumes characters matching f into the token buffer, and
// reports how many it consumed.
func (s *Scanner) readWhile(f func(rune) bool) int {
	var nr int
	for f(s.ch) {
		s.buf.WriteRune(s.ch)
		s.NextChar()
		nr++
	}
	return nr
}

func (s *Scanner) failf(msg string, args ...any) error {
	return s.failAt(s.pos, msg, args...)
}

func (s *Scanner) failAt(pos Position, msg string, args ...any) error {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(msg, args...)}
}

func isNumStart(ch rune) bool { return ch == '-' || isDigit(ch) }
func isDigit(ch rune) bool    { return '0' <= ch && ch <= '9' }

func isNameStart(ch rune) bool {
	return ch == '_' || ch == '$' || (ch != EOF && unicode.IsLetter(ch))
}

func isNameRune(ch rune) bool { return isNameStart(ch) || unicode.IsDigit(ch) }

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// hasExtraLeadingZeroes reports whether the representation of an integer in
// buf has redundant leading zeroes, disallowed by the standard.
//
// OK: 0, 0.1, -1.0, -0.1 are all OK.
// Bad: -01, 01.2, -01.0, 00.1.
func hasExtraLeadingZeroes(buf []byte) bool {
	if len(buf) != 0 && buf[0] == '-' {
		buf = buf[1:] // skip leading sign
	}
	if len(buf) != 0 && buf[0] == '0' {
		// A leading zero is OK if it's the only digit.
		return len(buf) > 1
	}
	return false
}

var self = [...]Token{OpenBrace, CloseBrace, OpenBracket, CloseBracket, Comma, Colon}

func selfDelim(ch rune) (Token, bool) {
	i := strings.IndexRune("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return EndOfInput, false
}
