package sandbox

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	tokens []token
	pos    int
}

// parse builds a program from source text. All parse failures are
// SanitizationErrors: unparseable generated code never reaches execution.
func parse(src string) (*program, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	body, err := p.parseStmtList(func() bool { return p.peek().Kind == tokEOF })
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != tokEOF {
		return nil, p.errorf("unexpected %s", p.describe(p.peek()))
	}
	return &program{Body: body}, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) matchOp(op string) bool {
	if p.peek().Kind == tokOp && p.peek().Lexeme == op {
		p.next()
		return true
	}
	return false
}

func (p *parser) matchKeyword(kw string) bool {
	if p.peek().Kind == tokKeyword && p.peek().Lexeme == kw {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectOp(op string) error {
	if !p.matchOp(op) {
		return p.errorf("expected %q, found %s", op, p.describe(p.peek()))
	}
	return nil
}

func (p *parser) expectName() (string, error) {
	if p.peek().Kind != tokName {
		return "", p.errorf("expected identifier, found %s", p.describe(p.peek()))
	}
	return p.next().Lexeme, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SanitizationError{Line: p.peek().Line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) describe(t token) string {
	switch t.Kind {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "end of line"
	case tokIndent:
		return "indent"
	case tokDedent:
		return "dedent"
	case tokString:
		return "string literal"
	default:
		return fmt.Sprintf("%q", t.Lexeme)
	}
}

func (p *parser) parseStmtList(done func() bool) ([]stmt, error) {
	var body []stmt
	for !done() {
		if p.peek().Kind == tokNewline {
			p.next()
			continue
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	return body, nil
}

func (p *parser) parseStmt() (stmt, error) {
	t := p.peek()
	if t.Kind == tokKeyword {
		switch t.Lexeme {
		case "import":
			return p.parseImport()
		case "from":
			return p.parseFromImport()
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "pass":
			p.next()
			return &passStmt{Line: t.Line}, p.endOfStmt()
		case "break":
			p.next()
			return &breakStmt{Line: t.Line}, p.endOfStmt()
		case "continue":
			p.next()
			return &continueStmt{Line: t.Line}, p.endOfStmt()
		case "elif", "else":
			return nil, p.errorf("%q without matching if", t.Lexeme)
		}
	}
	return p.parseSimpleStmt()
}

// parseSimpleStmt handles assignments and bare expressions.
func (p *parser) parseSimpleStmt() (stmt, error) {
	line := p.peek().Line
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.matchOp("=") {
		switch left.(type) {
		case *nameExpr, *indexExpr:
		default:
			return nil, &SanitizationError{Line: line, Msg: "cannot assign to this expression"}
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &assignStmt{Line: line, Target: left, Value: value}, p.endOfStmt()
	}

	return &exprStmt{Line: line, X: left}, p.endOfStmt()
}

func (p *parser) endOfStmt() error {
	switch p.peek().Kind {
	case tokNewline:
		p.next()
		return nil
	case tokEOF, tokDedent:
		return nil
	default:
		return p.errorf("unexpected %s after statement", p.describe(p.peek()))
	}
}

func (p *parser) parseImport() (stmt, error) {
	line := p.next().Line // import
	module, err := p.dottedName()
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.matchKeyword("as") {
		alias, err = p.expectName()
		if err != nil {
			return nil, err
		}
	}
	return &importStmt{Line: line, Module: module, Alias: alias}, p.endOfStmt()
}

func (p *parser) parseFromImport() (stmt, error) {
	line := p.next().Line // from
	module, err := p.dottedName()
	if err != nil {
		return nil, err
	}
	if !p.matchKeyword("import") {
		return nil, p.errorf("expected \"import\" in from-import")
	}

	var names []importedName
	for {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		alias := ""
		if p.matchKeyword("as") {
			alias, err = p.expectName()
			if err != nil {
				return nil, err
			}
		}
		names = append(names, importedName{Name: name, Alias: alias})
		if !p.matchOp(",") {
			break
		}
	}
	return &fromImportStmt{Line: line, Module: module, Names: names}, p.endOfStmt()
}

// dottedName consumes a module path. Only the root segment matters for the
// capability check, but "pandas.io" style paths must still parse.
func (p *parser) dottedName() (string, error) {
	name, err := p.expectName()
	if err != nil {
		return "", err
	}
	parts := []string{name}
	for p.matchOp(".") {
		next, err := p.expectName()
		if err != nil {
			return "", err
		}
		parts = append(parts, next)
	}
	return strings.Join(parts, "."), nil
}

func (p *parser) parseIf() (stmt, error) {
	line := p.next().Line // if / elif
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}

	node := &ifStmt{Line: line, Cond: cond, Body: body}
	if p.peek().Kind == tokKeyword && p.peek().Lexeme == "elif" {
		elifNode, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		node.Orelse = []stmt{elifNode}
	} else if p.matchKeyword("else") {
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		node.Orelse = orelse
	}
	return node, nil
}

func (p *parser) parseWhile() (stmt, error) {
	line := p.next().Line // while
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &whileStmt{Line: line, Cond: cond, Body: body}, nil
}

func (p *parser) parseFor() (stmt, error) {
	line := p.next().Line // for
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if !p.matchKeyword("in") {
		return nil, p.errorf("expected \"in\" in for statement")
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &forStmt{Line: line, Var: name, Iter: iter, Body: body}, nil
}

// parseSuite handles both block bodies and single-line suites
// ("while True: pass").
func (p *parser) parseSuite() ([]stmt, error) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}

	if p.peek().Kind != tokNewline {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return []stmt{s}, nil
	}
	p.next() // newline

	if p.peek().Kind != tokIndent {
		return nil, p.errorf("expected an indented block")
	}
	p.next()

	body, err := p.parseStmtList(func() bool {
		return p.peek().Kind == tokDedent || p.peek().Kind == tokEOF
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, p.errorf("empty block")
	}
	if p.peek().Kind == tokDedent {
		p.next()
	}
	return body, nil
}

// --- expressions, lowest to highest precedence ---

func (p *parser) parseExpr() (expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == tokKeyword && p.peek().Lexeme == "or" {
		line := p.next().Line
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &boolOpExpr{Line: line, Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == tokKeyword && p.peek().Lexeme == "and" {
		line := p.next().Line
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &boolOpExpr{Line: line, Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (expr, error) {
	if p.peek().Kind == tokKeyword && p.peek().Lexeme == "not" {
		line := p.next().Line
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{Line: line, Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (expr, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind == tokOp && comparisonOps[t.Lexeme] {
			p.next()
			right, err := p.parseAddSub()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{Line: t.Line, Op: t.Lexeme, Left: left, Right: right}
			continue
		}
		// "x in xs" / "x not in xs"
		if t.Kind == tokKeyword && t.Lexeme == "in" {
			p.next()
			right, err := p.parseAddSub()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{Line: t.Line, Op: "in", Left: left, Right: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) parseAddSub() (expr, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind == tokOp && (t.Lexeme == "+" || t.Lexeme == "-") {
			p.next()
			right, err := p.parseMulDiv()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{Line: t.Line, Op: t.Lexeme, Left: left, Right: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) parseMulDiv() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind == tokOp && (t.Lexeme == "*" || t.Lexeme == "/" || t.Lexeme == "//" || t.Lexeme == "%") {
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{Line: t.Line, Op: t.Lexeme, Left: left, Right: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) parseUnary() (expr, error) {
	t := p.peek()
	if t.Kind == tokOp && (t.Lexeme == "-" || t.Lexeme == "+") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.Lexeme == "+" {
			return x, nil
		}
		return &unaryExpr{Line: t.Line, Op: "-", X: x}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind == tokOp && p.peek().Lexeme == "**" {
		line := p.next().Line
		right, err := p.parseUnary() // right associative
		if err != nil {
			return nil, err
		}
		return &binaryExpr{Line: line, Op: "**", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parsePostfix() (expr, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.Kind == tokOp && t.Lexeme == "(":
			p.next()
			args, kwargs, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			x = &callExpr{Line: t.Line, Fn: x, Args: args, Kwargs: kwargs}
		case t.Kind == tokOp && t.Lexeme == ".":
			p.next()
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			x = &attrExpr{Line: t.Line, X: x, Name: name}
		case t.Kind == tokOp && t.Lexeme == "[":
			p.next()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = &indexExpr{Line: t.Line, X: x, Index: index}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseCallArgs() ([]expr, []kwarg, error) {
	var args []expr
	var kwargs []kwarg

	if p.matchOp(")") {
		return args, kwargs, nil
	}
	for {
		// keyword argument: NAME "=" expr
		if p.peek().Kind == tokName && p.tokens[p.pos+1].Kind == tokOp && p.tokens[p.pos+1].Lexeme == "=" {
			name := p.next().Lexeme
			p.next() // "="
			value, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kwargs = append(kwargs, kwarg{Name: name, Value: value})
		} else {
			if len(kwargs) > 0 {
				return nil, nil, p.errorf("positional argument after keyword argument")
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, arg)
		}
		if p.matchOp(",") {
			continue
		}
		if err := p.expectOp(")"); err != nil {
			return nil, nil, err
		}
		return args, kwargs, nil
	}
}

func (p *parser) parseAtom() (expr, error) {
	t := p.peek()
	switch t.Kind {
	case tokNumber:
		p.next()
		if strings.Contains(t.Lexeme, ".") {
			x, err := strconv.ParseFloat(t.Lexeme, 64)
			if err != nil {
				return nil, &SanitizationError{Line: t.Line, Msg: "invalid number literal: " + t.Lexeme}
			}
			return &floatLit{Line: t.Line, Value: x}, nil
		}
		n, err := strconv.ParseInt(t.Lexeme, 10, 64)
		if err != nil {
			return nil, &SanitizationError{Line: t.Line, Msg: "invalid number literal: " + t.Lexeme}
		}
		return &intLit{Line: t.Line, Value: n}, nil
	case tokString:
		p.next()
		return &stringLit{Line: t.Line, Value: t.Lexeme}, nil
	case tokName:
		p.next()
		return &nameExpr{Line: t.Line, Name: t.Lexeme}, nil
	case tokKeyword:
		switch t.Lexeme {
		case "True":
			p.next()
			return &boolLit{Line: t.Line, Value: true}, nil
		case "False":
			p.next()
			return &boolLit{Line: t.Line, Value: false}, nil
		case "None":
			p.next()
			return &noneLit{Line: t.Line}, nil
		}
	case tokOp:
		switch t.Lexeme {
		case "(":
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return x, nil
		case "[":
			return p.parseListLit()
		case "{":
			return p.parseDictLit()
		}
	}
	return nil, p.errorf("unexpected %s", p.describe(t))
}

func (p *parser) parseListLit() (expr, error) {
	line := p.next().Line // "["
	node := &listLit{Line: line}
	if p.matchOp("]") {
		return node, nil
	}
	for {
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Elems = append(node.Elems, elem)
		if p.matchOp(",") {
			if p.matchOp("]") { // trailing comma
				return node, nil
			}
			continue
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return node, nil
	}
}

func (p *parser) parseDictLit() (expr, error) {
	line := p.next().Line // "{"
	node := &dictLit{Line: line}
	if p.matchOp("}") {
		return node, nil
	}
	for {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Keys = append(node.Keys, key)
		node.Values = append(node.Values, value)
		if p.matchOp(",") {
			if p.matchOp("}") {
				return node, nil
			}
			continue
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return node, nil
	}
}
