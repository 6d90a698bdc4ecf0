package sandbox

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokKeyword
	tokNumber
	tokString
	tokOp
)

type token struct {
	Kind   tokenKind
	Lexeme string
	Line   int
}

var keywords = map[string]bool{
	"import": true, "from": true, "as": true,
	"if": true, "elif": true, "else": true,
	"while": true, "for": true, "in": true,
	"and": true, "or": true, "not": true,
	"True": true, "False": true, "None": true,
	"pass": true, "break": true, "continue": true,
}

// multi-rune operators, longest first
var operators = []string{
	"**", "//", "==", "!=", "<=", ">=",
	"+", "-", "*", "/", "%", "=", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".",
}

type lexer struct {
	src    []rune
	pos    int
	line   int
	parens int
	indent []int
	tokens []token
}

// tokenize turns source text into a token stream with Python-style
// INDENT/DEDENT handling. Newlines inside brackets do not end statements.
func tokenize(src string) ([]token, error) {
	lx := &lexer{
		src:    []rune(strings.ReplaceAll(src, "\r\n", "\n")),
		line:   1,
		indent: []int{0},
	}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.tokens, nil
}

func (lx *lexer) run() error {
	atLineStart := true
	for lx.pos < len(lx.src) {
		if atLineStart && lx.parens == 0 {
			skip, err := lx.handleIndent()
			if err != nil {
				return err
			}
			if skip {
				continue
			}
		}
		atLineStart = false

		ch := lx.src[lx.pos]
		switch {
		case ch == '\n':
			lx.pos++
			if lx.parens == 0 {
				lx.emit(tokNewline, "\n")
				lx.line++
				atLineStart = true
			} else {
				lx.line++
			}
		case ch == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case ch == ' ' || ch == '\t':
			lx.pos++
		case ch == '\'' || ch == '"':
			if err := lx.lexString(ch); err != nil {
				return err
			}
		case unicode.IsDigit(ch) || (ch == '.' && lx.pos+1 < len(lx.src) && unicode.IsDigit(lx.src[lx.pos+1])):
			lx.lexNumber()
		case unicode.IsLetter(ch) || ch == '_':
			lx.lexName()
		default:
			if err := lx.lexOperator(); err != nil {
				return err
			}
		}
	}

	if len(lx.tokens) > 0 && lx.tokens[len(lx.tokens)-1].Kind != tokNewline {
		lx.emit(tokNewline, "\n")
	}
	for len(lx.indent) > 1 {
		lx.indent = lx.indent[:len(lx.indent)-1]
		lx.emit(tokDedent, "")
	}
	lx.emit(tokEOF, "")
	return nil
}

// handleIndent measures leading whitespace of a logical line and emits
// INDENT/DEDENT tokens. Returns true when the line is blank or comment-only
// and has been consumed.
func (lx *lexer) handleIndent() (bool, error) {
	width := 0
	i := lx.pos
	for i < len(lx.src) {
		switch lx.src[i] {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			goto measured
		}
		i++
	}
measured:
	if i >= len(lx.src) {
		lx.pos = i
		return true, nil
	}
	if lx.src[i] == '\n' {
		lx.pos = i + 1
		lx.line++
		return true, nil
	}
	if lx.src[i] == '#' {
		for i < len(lx.src) && lx.src[i] != '\n' {
			i++
		}
		lx.pos = i
		return true, nil
	}

	lx.pos = i
	current := lx.indent[len(lx.indent)-1]
	switch {
	case width > current:
		lx.indent = append(lx.indent, width)
		lx.emit(tokIndent, "")
	case width < current:
		for len(lx.indent) > 1 && lx.indent[len(lx.indent)-1] > width {
			lx.indent = lx.indent[:len(lx.indent)-1]
			lx.emit(tokDedent, "")
		}
		if lx.indent[len(lx.indent)-1] != width {
			return false, &SanitizationError{Line: lx.line, Msg: "inconsistent indentation"}
		}
	}
	return false, nil
}

func (lx *lexer) emit(kind tokenKind, lexeme string) {
	lx.tokens = append(lx.tokens, token{Kind: kind, Lexeme: lexeme, Line: lx.line})
}

func (lx *lexer) lexString(quote rune) error {
	startLine := lx.line
	lx.pos++ // opening quote
	var sb strings.Builder
	for lx.pos < len(lx.src) {
		ch := lx.src[lx.pos]
		switch ch {
		case quote:
			lx.pos++
			lx.emit(tokString, sb.String())
			return nil
		case '\n':
			return &SanitizationError{Line: startLine, Msg: "unterminated string literal"}
		case '\\':
			lx.pos++
			if lx.pos >= len(lx.src) {
				return &SanitizationError{Line: startLine, Msg: "unterminated string literal"}
			}
			switch lx.src[lx.pos] {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\':
				sb.WriteRune('\\')
			case '\'':
				sb.WriteRune('\'')
			case '"':
				sb.WriteRune('"')
			default:
				sb.WriteRune('\\')
				sb.WriteRune(lx.src[lx.pos])
			}
			lx.pos++
		default:
			sb.WriteRune(ch)
			lx.pos++
		}
	}
	return &SanitizationError{Line: startLine, Msg: "unterminated string literal"}
}

func (lx *lexer) lexNumber() {
	start := lx.pos
	seenDot := false
	for lx.pos < len(lx.src) {
		ch := lx.src[lx.pos]
		if unicode.IsDigit(ch) {
			lx.pos++
			continue
		}
		if ch == '.' && !seenDot {
			// ".." never appears in this dialect, a dot after digits is a decimal point
			seenDot = true
			lx.pos++
			continue
		}
		break
	}
	lx.emit(tokNumber, string(lx.src[start:lx.pos]))
}

func (lx *lexer) lexName() {
	start := lx.pos
	for lx.pos < len(lx.src) {
		ch := lx.src[lx.pos]
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			lx.pos++
			continue
		}
		break
	}
	name := string(lx.src[start:lx.pos])
	if keywords[name] {
		lx.emit(tokKeyword, name)
	} else {
		lx.emit(tokName, name)
	}
}

func (lx *lexer) lexOperator() error {
	rest := string(lx.src[lx.pos:])
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			switch op {
			case "(", "[", "{":
				lx.parens++
			case ")", "]", "}":
				lx.parens--
			}
			lx.pos += len(op)
			lx.emit(tokOp, op)
			return nil
		}
	}
	return &SanitizationError{Line: lx.line, Msg: fmt.Sprintf("unexpected character %q", lx.src[lx.pos])}
}
