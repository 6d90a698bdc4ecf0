package sandbox

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// baseBuiltins are always bound in a fresh evaluation context, independent
// of the capability set. All of them are pure except print, which writes to
// the context's captured output.
func baseBuiltins() map[string]any {
	return map[string]any{
		"len":    &Builtin{Name: "len", Fn: builtinLen},
		"range":  &Builtin{Name: "range", Fn: builtinRange},
		"str":    &Builtin{Name: "str", Fn: builtinStr},
		"int":    &Builtin{Name: "int", Fn: builtinInt},
		"float":  &Builtin{Name: "float", Fn: builtinFloat},
		"abs":    &Builtin{Name: "abs", Fn: builtinAbs},
		"round":  &Builtin{Name: "round", Fn: builtinRound},
		"min":    &Builtin{Name: "min", Fn: builtinMin},
		"max":    &Builtin{Name: "max", Fn: builtinMax},
		"sum":    &Builtin{Name: "sum", Fn: builtinSum},
		"sorted": &Builtin{Name: "sorted", Fn: builtinSorted},
		"print":  &Builtin{Name: "print", Fn: builtinPrint},
	}
}

func wantArgs(name string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s() takes %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func builtinLen(_ *interp, args []any, _ map[string]any) (any, error) {
	if err := wantArgs("len", args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case string:
		return int64(len(x)), nil
	case []any:
		return int64(len(x)), nil
	case map[string]any:
		return int64(len(x)), nil
	default:
		if f, ok := asFrame(args[0]); ok {
			return int64(f.NumRows()), nil
		}
		return nil, fmt.Errorf("object of type %s has no len()", typeName(args[0]))
	}
}

func builtinRange(_ *interp, args []any, _ map[string]any) (any, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, fmt.Errorf("range() takes 1 to 3 arguments, got %d", len(args))
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, ok := asInt(a)
		if !ok {
			return nil, fmt.Errorf("range() argument must be an integer, not %s", typeName(a))
		}
		bounds[i] = n
	}
	start, stop, step := int64(0), int64(0), int64(1)
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
	}
	if step == 0 {
		return nil, fmt.Errorf("range() step must not be zero")
	}
	var out []any
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

func builtinStr(_ *interp, args []any, _ map[string]any) (any, error) {
	if err := wantArgs("str", args, 1); err != nil {
		return nil, err
	}
	return repr(args[0]), nil
}

func builtinInt(_ *interp, args []any, _ map[string]any) (any, error) {
	if err := wantArgs("int", args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int(): %q", x)
		}
		return n, nil
	case float64:
		return int64(math.Trunc(x)), nil
	case int64:
		return x, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("int() argument must be a number or string, not %s", typeName(args[0]))
	}
}

func builtinFloat(_ *interp, args []any, _ map[string]any) (any, error) {
	if err := wantArgs("float", args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for float(): %q", x)
		}
		return f, nil
	default:
		if f, ok := asFloat(args[0]); ok {
			return f, nil
		}
		return nil, fmt.Errorf("float() argument must be a number or string, not %s", typeName(args[0]))
	}
}

func builtinAbs(_ *interp, args []any, _ map[string]any) (any, error) {
	if err := wantArgs("abs", args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case int64:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case float64:
		return math.Abs(x), nil
	default:
		return nil, fmt.Errorf("bad operand type for abs(): %s", typeName(args[0]))
	}
}

func builtinRound(_ *interp, args []any, _ map[string]any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("round() takes 1 or 2 arguments, got %d", len(args))
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("bad operand type for round(): %s", typeName(args[0]))
	}
	digits := int64(0)
	if len(args) == 2 {
		digits, ok = asInt(args[1])
		if !ok {
			return nil, fmt.Errorf("round() digits must be an integer")
		}
	}
	if digits == 0 {
		return int64(math.Round(f)), nil
	}
	scale := math.Pow(10, float64(digits))
	return math.Round(f*scale) / scale, nil
}

func numericSlice(name string, args []any) ([]float64, error) {
	var values []any
	if len(args) == 1 {
		list, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("%s() expects a list", name)
		}
		values = list
	} else {
		values = args
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s() arg is an empty sequence", name)
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := asFloat(v)
		if !ok {
			if v == nil {
				continue // missing cells are skipped, matching the frame loader
			}
			return nil, fmt.Errorf("%s() found non-numeric value %s", name, typeName(v))
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s() arg has no numeric values", name)
	}
	return out, nil
}

func allInts(values []float64) bool {
	for _, v := range values {
		if v != math.Trunc(v) {
			return false
		}
	}
	return true
}

func builtinMin(_ *interp, args []any, _ map[string]any) (any, error) {
	values, err := numericSlice("min", args)
	if err != nil {
		return nil, err
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	if allInts(values) {
		return int64(m), nil
	}
	return m, nil
}

func builtinMax(_ *interp, args []any, _ map[string]any) (any, error) {
	values, err := numericSlice("max", args)
	if err != nil {
		return nil, err
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	if allInts(values) {
		return int64(m), nil
	}
	return m, nil
}

func builtinSum(_ *interp, args []any, _ map[string]any) (any, error) {
	values, err := numericSlice("sum", args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	if allInts(values) {
		return int64(total), nil
	}
	return total, nil
}

func builtinSorted(_ *interp, args []any, _ map[string]any) (any, error) {
	if err := wantArgs("sorted", args, 1); err != nil {
		return nil, err
	}
	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("sorted() expects a list, got %s", typeName(args[0]))
	}
	out := append([]any{}, list...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		less, err := lessThan(out[i], out[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func lessThan(a, b any) (bool, error) {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af < bf, nil
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as < bs, nil
		}
	}
	return false, fmt.Errorf("cannot compare %s with %s", typeName(a), typeName(b))
}

func builtinPrint(in *interp, args []any, _ map[string]any) (any, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = repr(a)
	}
	in.stdout.WriteString(strings.Join(parts, " "))
	in.stdout.WriteString("\n")
	return nil, nil
}
