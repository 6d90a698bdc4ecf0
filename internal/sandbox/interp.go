package sandbox

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"studio/internal/frame"
)

// Control-flow sentinels. errDeadline is the only one that escapes exec.
var (
	errBreak    = errors.New("break")
	errContinue = errors.New("continue")
	errDeadline = errors.New("deadline exceeded")
)

const deadlineCheckEvery = 1000

type interp struct {
	env      map[string]any
	caps     CapabilitySet
	deadline time.Time
	steps    int
	stdout   strings.Builder
}

func newInterp(caps CapabilitySet, bindings map[string]any, deadline time.Time) *interp {
	env := baseBuiltins()
	for k, v := range bindings {
		env[k] = v
	}
	return &interp{env: env, caps: caps, deadline: deadline}
}

// tick is called once per statement and once per expression node. The
// clock is only consulted every deadlineCheckEvery steps so tight loops
// stay cheap but still observe the limit.
func (in *interp) tick() error {
	in.steps++
	if in.steps%deadlineCheckEvery != 0 {
		return nil
	}
	if time.Now().After(in.deadline) {
		return errDeadline
	}
	return nil
}

func (in *interp) run(prog *program) error {
	for _, s := range prog.Body {
		if err := in.exec(s); err != nil {
			if errors.Is(err, errBreak) || errors.Is(err, errContinue) {
				return fmt.Errorf("line %d: %s outside loop", s.StmtLine(), err)
			}
			return err
		}
	}
	return nil
}

func (in *interp) exec(s stmt) error {
	if err := in.tick(); err != nil {
		return err
	}
	switch node := s.(type) {
	case *assignStmt:
		return in.execAssign(node)
	case *exprStmt:
		_, err := in.eval(node.X)
		return err
	case *importStmt:
		mod, ok := in.caps[rootModule(node.Module)]
		if !ok {
			return fmt.Errorf("line %d: no module named %q", node.Line, node.Module)
		}
		name := node.Alias
		if name == "" {
			name = rootModule(node.Module)
		}
		in.env[name] = mod
		return nil
	case *fromImportStmt:
		mod, ok := in.caps[rootModule(node.Module)]
		if !ok {
			return fmt.Errorf("line %d: no module named %q", node.Line, node.Module)
		}
		for _, imp := range node.Names {
			attr, ok := mod.Attrs[imp.Name]
			if !ok {
				return fmt.Errorf("line %d: cannot import %q from %q", node.Line, imp.Name, node.Module)
			}
			name := imp.Alias
			if name == "" {
				name = imp.Name
			}
			in.env[name] = attr
		}
		return nil
	case *ifStmt:
		cond, err := in.eval(node.Cond)
		if err != nil {
			return err
		}
		if truthy(cond) {
			return in.execBlock(node.Body)
		}
		return in.execBlock(node.Orelse)
	case *whileStmt:
		for {
			cond, err := in.eval(node.Cond)
			if err != nil {
				return err
			}
			if !truthy(cond) {
				return nil
			}
			if err := in.execBlock(node.Body); err != nil {
				if errors.Is(err, errBreak) {
					return nil
				}
				if errors.Is(err, errContinue) {
					continue
				}
				return err
			}
		}
	case *forStmt:
		iter, err := in.eval(node.Iter)
		if err != nil {
			return err
		}
		items, err := iterate(iter, node.Line)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := in.tick(); err != nil {
				return err
			}
			in.env[node.Var] = item
			if err := in.execBlock(node.Body); err != nil {
				if errors.Is(err, errBreak) {
					return nil
				}
				if errors.Is(err, errContinue) {
					continue
				}
				return err
			}
		}
		return nil
	case *passStmt:
		return nil
	case *breakStmt:
		return errBreak
	case *continueStmt:
		return errContinue
	default:
		return fmt.Errorf("line %d: unsupported statement", s.StmtLine())
	}
}

func (in *interp) execBlock(body []stmt) error {
	for _, s := range body {
		if err := in.exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (in *interp) execAssign(node *assignStmt) error {
	value, err := in.eval(node.Value)
	if err != nil {
		return err
	}
	switch target := node.Target.(type) {
	case *nameExpr:
		in.env[target.Name] = value
		return nil
	case *indexExpr:
		obj, err := in.eval(target.X)
		if err != nil {
			return err
		}
		key, err := in.eval(target.Index)
		if err != nil {
			return err
		}
		switch container := obj.(type) {
		case []any:
			i, ok := asInt(key)
			if !ok {
				return fmt.Errorf("line %d: list index must be an integer", node.Line)
			}
			if i < 0 {
				i += int64(len(container))
			}
			if i < 0 || i >= int64(len(container)) {
				return fmt.Errorf("line %d: list index out of range", node.Line)
			}
			container[i] = value
			return nil
		case map[string]any:
			k, ok := key.(string)
			if !ok {
				return fmt.Errorf("line %d: dict key must be a string", node.Line)
			}
			container[k] = value
			return nil
		default:
			return fmt.Errorf("line %d: %s does not support item assignment", node.Line, typeName(obj))
		}
	default:
		return fmt.Errorf("line %d: cannot assign to this expression", node.Line)
	}
}

func iterate(v any, line int) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case string:
		out := make([]any, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	case map[string]any:
		out := make([]any, 0, len(x))
		for k := range x {
			out = append(out, k)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: %s is not iterable", line, typeName(v))
	}
}

func (in *interp) eval(e expr) (any, error) {
	if err := in.tick(); err != nil {
		return nil, err
	}
	switch node := e.(type) {
	case *intLit:
		return node.Value, nil
	case *floatLit:
		return node.Value, nil
	case *stringLit:
		return node.Value, nil
	case *boolLit:
		return node.Value, nil
	case *noneLit:
		return nil, nil
	case *nameExpr:
		v, ok := in.env[node.Name]
		if !ok {
			return nil, fmt.Errorf("line %d: name %q is not defined", node.Line, node.Name)
		}
		return v, nil
	case *listLit:
		out := make([]any, len(node.Elems))
		for i, el := range node.Elems {
			v, err := in.eval(el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *dictLit:
		out := make(map[string]any, len(node.Keys))
		for i, kx := range node.Keys {
			k, err := in.eval(kx)
			if err != nil {
				return nil, err
			}
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("line %d: dict keys must be strings, got %s", node.Line, typeName(k))
			}
			v, err := in.eval(node.Values[i])
			if err != nil {
				return nil, err
			}
			out[ks] = v
		}
		return out, nil
	case *unaryExpr:
		return in.evalUnary(node)
	case *binaryExpr:
		return in.evalBinary(node)
	case *boolOpExpr:
		left, err := in.eval(node.Left)
		if err != nil {
			return nil, err
		}
		if node.Op == "and" {
			if !truthy(left) {
				return left, nil
			}
			return in.eval(node.Right)
		}
		if truthy(left) {
			return left, nil
		}
		return in.eval(node.Right)
	case *callExpr:
		return in.evalCall(node)
	case *attrExpr:
		return in.evalAttr(node)
	case *indexExpr:
		return in.evalIndex(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported expression", e.ExprLine())
	}
}

func (in *interp) evalUnary(node *unaryExpr) (any, error) {
	v, err := in.eval(node.X)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case "not":
		return !truthy(v), nil
	case "-":
		switch x := v.(type) {
		case int64:
			return -x, nil
		case float64:
			return -x, nil
		}
		return nil, fmt.Errorf("line %d: bad operand type for unary -: %s", node.Line, typeName(v))
	case "+":
		if _, ok := asFloat(v); ok {
			return v, nil
		}
		return nil, fmt.Errorf("line %d: bad operand type for unary +: %s", node.Line, typeName(v))
	}
	return nil, fmt.Errorf("line %d: unknown unary operator %q", node.Line, node.Op)
}

func (in *interp) evalBinary(node *binaryExpr) (any, error) {
	left, err := in.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(node.Right)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case "==":
		return equalValues(left, right), nil
	case "!=":
		return !equalValues(left, right), nil
	case "<", "<=", ">", ">=":
		return compare(node.Op, left, right, node.Line)
	case "in":
		return contains(left, right, node.Line)
	case "+":
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				return nil, fmt.Errorf("line %d: cannot concatenate str and %s", node.Line, typeName(right))
			}
			return ls + rs, nil
		}
		if ll, ok := left.([]any); ok {
			rl, ok := right.([]any)
			if !ok {
				return nil, fmt.Errorf("line %d: cannot concatenate list and %s", node.Line, typeName(right))
			}
			return append(append([]any{}, ll...), rl...), nil
		}
		return arith(node.Op, left, right, node.Line)
	case "-", "*", "/", "//", "%", "**":
		if node.Op == "*" {
			if ls, ok := left.(string); ok {
				if n, ok := asInt(right); ok {
					return strings.Repeat(ls, int(max64(n, 0))), nil
				}
			}
		}
		return arith(node.Op, left, right, node.Line)
	}
	return nil, fmt.Errorf("line %d: unknown operator %q", node.Line, node.Op)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func compare(op string, left, right any, line int) (any, error) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	ls, lsok := left.(string)
	rs, rsok := right.(string)
	if lsok && rsok {
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}
	return nil, fmt.Errorf("line %d: cannot compare %s with %s", line, typeName(left), typeName(right))
}

func contains(needle, haystack any, line int) (any, error) {
	switch h := haystack.(type) {
	case string:
		n, ok := needle.(string)
		if !ok {
			return nil, fmt.Errorf("line %d: 'in <str>' requires a str, got %s", line, typeName(needle))
		}
		return strings.Contains(h, n), nil
	case []any:
		for _, el := range h {
			if equalValues(el, needle) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		n, ok := needle.(string)
		if !ok {
			return false, nil
		}
		_, found := h[n]
		return found, nil
	default:
		return nil, fmt.Errorf("line %d: %s is not a container", line, typeName(haystack))
	}
}

func arith(op string, left, right any, line int) (any, error) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return nil, fmt.Errorf("line %d: unsupported operand type(s) for %s: %s and %s", line, op, typeName(left), typeName(right))
	}
	_, li := left.(int64)
	_, ri := right.(int64)
	bothInt := li && ri
	switch op {
	case "+":
		if bothInt {
			return left.(int64) + right.(int64), nil
		}
		return lf + rf, nil
	case "-":
		if bothInt {
			return left.(int64) - right.(int64), nil
		}
		return lf - rf, nil
	case "*":
		if bothInt {
			return left.(int64) * right.(int64), nil
		}
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("line %d: division by zero", line)
		}
		return lf / rf, nil
	case "//":
		if rf == 0 {
			return nil, fmt.Errorf("line %d: division by zero", line)
		}
		q := math.Floor(lf / rf)
		if bothInt {
			return int64(q), nil
		}
		return q, nil
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("line %d: modulo by zero", line)
		}
		if bothInt {
			l, r := left.(int64), right.(int64)
			m := l % r
			if m != 0 && (m < 0) != (r < 0) {
				m += r
			}
			return m, nil
		}
		m := math.Mod(lf, rf)
		if m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return m, nil
	case "**":
		p := math.Pow(lf, rf)
		if bothInt && rf >= 0 && p == math.Trunc(p) && math.Abs(p) < 1e18 {
			return int64(p), nil
		}
		return p, nil
	}
	return nil, fmt.Errorf("line %d: unknown operator %q", line, op)
}

func (in *interp) evalCall(node *callExpr) (any, error) {
	fn, err := in.eval(node.Fn)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(node.Args))
	for i, ax := range node.Args {
		v, err := in.eval(ax)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	var kwargs map[string]any
	if len(node.Kwargs) > 0 {
		kwargs = make(map[string]any, len(node.Kwargs))
		for _, kw := range node.Kwargs {
			v, err := in.eval(kw.Value)
			if err != nil {
				return nil, err
			}
			kwargs[kw.Name] = v
		}
	}
	builtin, ok := fn.(*Builtin)
	if !ok {
		return nil, fmt.Errorf("line %d: %s is not callable", node.Line, typeName(fn))
	}
	out, err := builtin.Fn(in, args, kwargs)
	if err != nil && !errors.Is(err, errDeadline) {
		return nil, fmt.Errorf("line %d: %s", node.Line, err)
	}
	return out, err
}

func (in *interp) evalAttr(node *attrExpr) (any, error) {
	obj, err := in.eval(node.X)
	if err != nil {
		return nil, err
	}
	switch x := obj.(type) {
	case *Module:
		attr, ok := x.Attrs[node.Name]
		if !ok {
			return nil, fmt.Errorf("line %d: module %q has no attribute %q", node.Line, x.Name, node.Name)
		}
		return attr, nil
	case *frame.Frame:
		return frameAttr(x, node)
	case string:
		return stringAttr(x, node)
	case []any:
		return listAttr(x, node)
	case map[string]any:
		return dictAttr(x, node)
	default:
		return nil, fmt.Errorf("line %d: %s has no attribute %q", node.Line, typeName(obj), node.Name)
	}
}

// frameAttr gives frames a small method surface so generated code can use
// df.head(3) and df.columns without going through the frames module.
func frameAttr(f *frame.Frame, node *attrExpr) (any, error) {
	switch node.Name {
	case "columns":
		out := make([]any, len(f.Columns))
		for i, c := range f.Columns {
			out[i] = c
		}
		return out, nil
	case "head":
		return &Builtin{Name: "head", Fn: func(_ *interp, args []any, _ map[string]any) (any, error) {
			n := int64(5)
			if len(args) > 0 {
				var ok bool
				if n, ok = asInt(args[0]); !ok {
					return nil, fmt.Errorf("head() n must be an integer")
				}
			}
			return f.Head(int(n)), nil
		}}, nil
	case "column":
		return &Builtin{Name: "column", Fn: func(_ *interp, args []any, _ map[string]any) (any, error) {
			if err := wantArgs("column", args, 1); err != nil {
				return nil, err
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("column() name must be a string")
			}
			return f.Column(name)
		}}, nil
	default:
		return nil, fmt.Errorf("line %d: frame has no attribute %q", node.Line, node.Name)
	}
}

func stringAttr(s string, node *attrExpr) (any, error) {
	method := func(name string, fn func(args []any) (any, error)) *Builtin {
		return &Builtin{Name: name, Fn: func(_ *interp, args []any, _ map[string]any) (any, error) {
			return fn(args)
		}}
	}
	switch node.Name {
	case "upper":
		return method("upper", func([]any) (any, error) { return strings.ToUpper(s), nil }), nil
	case "lower":
		return method("lower", func([]any) (any, error) { return strings.ToLower(s), nil }), nil
	case "strip":
		return method("strip", func([]any) (any, error) { return strings.TrimSpace(s), nil }), nil
	case "split":
		return method("split", func(args []any) (any, error) {
			sep := " "
			if len(args) > 0 {
				var ok bool
				if sep, ok = args[0].(string); !ok {
					return nil, fmt.Errorf("split() separator must be a string")
				}
			}
			parts := strings.Split(s, sep)
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		}), nil
	case "replace":
		return method("replace", func(args []any) (any, error) {
			if err := wantArgs("replace", args, 2); err != nil {
				return nil, err
			}
			old, ok1 := args[0].(string)
			new_, ok2 := args[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("replace() arguments must be strings")
			}
			return strings.ReplaceAll(s, old, new_), nil
		}), nil
	case "startswith":
		return method("startswith", func(args []any) (any, error) {
			if err := wantArgs("startswith", args, 1); err != nil {
				return nil, err
			}
			prefix, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("startswith() argument must be a string")
			}
			return strings.HasPrefix(s, prefix), nil
		}), nil
	case "join":
		return method("join", func(args []any) (any, error) {
			if err := wantArgs("join", args, 1); err != nil {
				return nil, err
			}
			list, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("join() argument must be a list")
			}
			parts := make([]string, len(list))
			for i, el := range list {
				es, ok := el.(string)
				if !ok {
					return nil, fmt.Errorf("join() list must contain only strings")
				}
				parts[i] = es
			}
			return strings.Join(parts, s), nil
		}), nil
	default:
		return nil, fmt.Errorf("line %d: str has no attribute %q", node.Line, node.Name)
	}
}

func listAttr(list []any, node *attrExpr) (any, error) {
	switch node.Name {
	case "append":
		return nil, fmt.Errorf("line %d: append is not supported, build lists with + instead", node.Line)
	default:
		return nil, fmt.Errorf("line %d: list has no attribute %q", node.Line, node.Name)
	}
}

func dictAttr(d map[string]any, node *attrExpr) (any, error) {
	switch node.Name {
	case "keys":
		return &Builtin{Name: "keys", Fn: func(_ *interp, _ []any, _ map[string]any) (any, error) {
			out := make([]any, 0, len(d))
			for k := range d {
				out = append(out, k)
			}
			return out, nil
		}}, nil
	case "get":
		return &Builtin{Name: "get", Fn: func(_ *interp, args []any, _ map[string]any) (any, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, fmt.Errorf("get() takes 1 or 2 arguments")
			}
			k, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("get() key must be a string")
			}
			if v, found := d[k]; found {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, nil
		}}, nil
	default:
		return nil, fmt.Errorf("line %d: dict has no attribute %q", node.Line, node.Name)
	}
}

func (in *interp) evalIndex(node *indexExpr) (any, error) {
	obj, err := in.eval(node.X)
	if err != nil {
		return nil, err
	}
	key, err := in.eval(node.Index)
	if err != nil {
		return nil, err
	}
	switch container := obj.(type) {
	case []any:
		i, ok := asInt(key)
		if !ok {
			return nil, fmt.Errorf("line %d: list index must be an integer, got %s", node.Line, typeName(key))
		}
		if i < 0 {
			i += int64(len(container))
		}
		if i < 0 || i >= int64(len(container)) {
			return nil, fmt.Errorf("line %d: list index out of range", node.Line)
		}
		return container[i], nil
	case string:
		i, ok := asInt(key)
		if !ok {
			return nil, fmt.Errorf("line %d: str index must be an integer, got %s", node.Line, typeName(key))
		}
		runes := []rune(container)
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return nil, fmt.Errorf("line %d: str index out of range", node.Line)
		}
		return string(runes[i]), nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("line %d: dict key must be a string, got %s", node.Line, typeName(key))
		}
		v, found := container[k]
		if !found {
			return nil, fmt.Errorf("line %d: key %q not found", node.Line, k)
		}
		return v, nil
	case *frame.Frame:
		// df["col"] reads a column, matching how the prompts describe frames.
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("line %d: frame index must be a column name", node.Line)
		}
		return container.Column(k)
	default:
		return nil, fmt.Errorf("line %d: %s is not subscriptable", node.Line, typeName(obj))
	}
}
