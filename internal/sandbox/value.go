package sandbox

import (
	"fmt"
	"math"
	"strconv"

	"studio/internal/frame"
)

// Runtime values map onto Go natives: int64, float64, string, bool, nil,
// []any, map[string]any, plus *frame.Frame, *Figure, *Module and *Builtin.

// Builtin is a host function exposed to sandboxed code.
type Builtin struct {
	Name string
	Fn   func(in *interp, args []any, kwargs map[string]any) (any, error)
}

// Module is a named bag of bindings importable by sandboxed code.
type Module struct {
	Name  string
	Attrs map[string]any
}

// CapabilitySet is the closed list of modules a code unit may import. It is
// the sole source of import targets; nothing outside it is reachable.
type CapabilitySet map[string]*Module

func (c CapabilitySet) allows(module string) bool {
	_, ok := c[rootModule(module)]
	return ok
}

// Figure is the chart artifact produced by the charts capability module.
// The presentation layer renders it; the gate only carries it.
type Figure struct {
	Kind      string       `json:"kind"` // line | bar | scatter | pie | choropleth
	Title     string       `json:"title,omitempty"`
	X         string       `json:"x,omitempty"`
	Y         string       `json:"y,omitempty"`
	Color     string       `json:"color,omitempty"`
	Locations string       `json:"locations,omitempty"`
	Data      *frame.Frame `json:"data"`
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "None"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	case *frame.Frame:
		return "frame"
	case *Figure:
		return "figure"
	case *Module:
		return "module"
	case *Builtin:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case *frame.Frame:
		return x.NumRows() > 0
	default:
		return true
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		if x == math.Trunc(x) {
			return int64(x), true
		}
		return 0, false
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case []any:
		out := "["
		for i, e := range x {
			if i > 0 {
				out += ", "
			}
			out += repr(e)
		}
		return out + "]"
	case map[string]any:
		out := "{"
		first := true
		for k, e := range x {
			if !first {
				out += ", "
			}
			first = false
			out += k + ": " + repr(e)
		}
		return out + "}"
	case *frame.Frame:
		return fmt.Sprintf("<frame %d rows x %d cols>", x.NumRows(), x.NumCols())
	case *Figure:
		return fmt.Sprintf("<figure %s>", x.Kind)
	case *Module:
		return fmt.Sprintf("<module %s>", x.Name)
	case *Builtin:
		return fmt.Sprintf("<function %s>", x.Name)
	default:
		return fmt.Sprintf("%v", v)
	}
}
