package sandbox

import (
	"fmt"
	"math"

	"studio/internal/frame"
)

func asFrame(v any) (*frame.Frame, bool) {
	f, ok := v.(*frame.Frame)
	return f, ok
}

// DefaultCapabilities is the capability set handed to analysis turns:
// charting and data-manipulation symbols only.
func DefaultCapabilities() CapabilitySet {
	return CapabilitySet{
		"charts": ChartsModule(),
		"frames": FramesModule(),
		"stats":  StatsModule(),
		"math":   MathModule(),
	}
}

func kwOrArg(args []any, kwargs map[string]any, pos int, name string) (any, bool) {
	if v, ok := kwargs[name]; ok {
		return v, true
	}
	if pos >= 0 && pos < len(args) {
		return args[pos], true
	}
	return nil, false
}

func stringKw(args []any, kwargs map[string]any, pos int, name string) (string, error) {
	v, ok := kwOrArg(args, kwargs, pos, name)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %s", name, typeName(v))
	}
	return s, nil
}

func frameArg(fn string, args []any, kwargs map[string]any) (*frame.Frame, error) {
	v, ok := kwOrArg(args, kwargs, 0, "df")
	if !ok {
		return nil, fmt.Errorf("%s() needs a frame as first argument", fn)
	}
	f, ok := asFrame(v)
	if !ok {
		return nil, fmt.Errorf("%s() needs a frame, got %s", fn, typeName(v))
	}
	return f, nil
}

// ChartsModule mirrors the graph-maker surface of the dashboards: figure
// builders that bind a frame to axes. Rendering happens client-side.
func ChartsModule() *Module {
	figureFn := func(kind string) *Builtin {
		return &Builtin{Name: kind, Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
			f, err := frameArg(kind, args, kwargs)
			if err != nil {
				return nil, err
			}
			fig := &Figure{Kind: kind, Data: f}
			if fig.X, err = stringKw(args, kwargs, 1, "x"); err != nil {
				return nil, err
			}
			if fig.Y, err = stringKw(args, kwargs, 2, "y"); err != nil {
				return nil, err
			}
			if fig.Color, err = stringKw(args, kwargs, -1, "color"); err != nil {
				return nil, err
			}
			if fig.Title, err = stringKw(args, kwargs, -1, "title"); err != nil {
				return nil, err
			}
			if fig.Locations, err = stringKw(args, kwargs, -1, "locations"); err != nil {
				return nil, err
			}
			for _, col := range []string{fig.X, fig.Y, fig.Color, fig.Locations} {
				if col != "" && f.ColumnIndex(col) < 0 {
					return nil, fmt.Errorf("%s(): no such column %q", kind, col)
				}
			}
			return fig, nil
		}}
	}
	return &Module{
		Name: "charts",
		Attrs: map[string]any{
			"line":       figureFn("line"),
			"bar":        figureFn("bar"),
			"scatter":    figureFn("scatter"),
			"pie":        figureFn("pie"),
			"choropleth": figureFn("choropleth"),
		},
	}
}

// FramesModule carries the data-manipulation symbols the prompts allow.
func FramesModule() *Module {
	return &Module{
		Name: "frames",
		Attrs: map[string]any{
			"head": &Builtin{Name: "head", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				f, err := frameArg("head", args, kwargs)
				if err != nil {
					return nil, err
				}
				n := int64(5)
				if v, ok := kwOrArg(args, kwargs, 1, "n"); ok {
					if n, ok = asInt(v); !ok {
						return nil, fmt.Errorf("head() n must be an integer")
					}
				}
				return f.Head(int(n)), nil
			}},
			"columns": &Builtin{Name: "columns", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				f, err := frameArg("columns", args, kwargs)
				if err != nil {
					return nil, err
				}
				out := make([]any, len(f.Columns))
				for i, c := range f.Columns {
					out[i] = c
				}
				return out, nil
			}},
			"column": &Builtin{Name: "column", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				f, err := frameArg("column", args, kwargs)
				if err != nil {
					return nil, err
				}
				name, err := stringKw(args, kwargs, 1, "name")
				if err != nil {
					return nil, err
				}
				return f.Column(name)
			}},
			"filter_eq": &Builtin{Name: "filter_eq", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				f, err := frameArg("filter_eq", args, kwargs)
				if err != nil {
					return nil, err
				}
				col, err := stringKw(args, kwargs, 1, "column")
				if err != nil {
					return nil, err
				}
				idx := f.ColumnIndex(col)
				if idx < 0 {
					return nil, fmt.Errorf("filter_eq(): no such column %q", col)
				}
				want, _ := kwOrArg(args, kwargs, 2, "value")
				out := frame.New(append([]string{}, f.Columns...))
				for _, row := range f.Rows {
					if equalValues(row[idx], want) {
						out.Rows = append(out.Rows, append([]any{}, row...))
					}
				}
				return out, nil
			}},
			"group_sum": &Builtin{Name: "group_sum", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				f, err := frameArg("group_sum", args, kwargs)
				if err != nil {
					return nil, err
				}
				by, err := stringKw(args, kwargs, 1, "by")
				if err != nil {
					return nil, err
				}
				value, err := stringKw(args, kwargs, 2, "value")
				if err != nil {
					return nil, err
				}
				byIdx, valIdx := f.ColumnIndex(by), f.ColumnIndex(value)
				if byIdx < 0 {
					return nil, fmt.Errorf("group_sum(): no such column %q", by)
				}
				if valIdx < 0 {
					return nil, fmt.Errorf("group_sum(): no such column %q", value)
				}
				totals := map[string]float64{}
				var order []string
				for _, row := range f.Rows {
					key := repr(row[byIdx])
					x, ok := asFloat(row[valIdx])
					if !ok {
						continue
					}
					if _, seen := totals[key]; !seen {
						order = append(order, key)
					}
					totals[key] += x
				}
				out := frame.New([]string{by, value})
				for _, key := range order {
					out.Rows = append(out.Rows, []any{key, totals[key]})
				}
				return out, nil
			}},
			"sort_by": &Builtin{Name: "sort_by", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				f, err := frameArg("sort_by", args, kwargs)
				if err != nil {
					return nil, err
				}
				col, err := stringKw(args, kwargs, 1, "column")
				if err != nil {
					return nil, err
				}
				idx := f.ColumnIndex(col)
				if idx < 0 {
					return nil, fmt.Errorf("sort_by(): no such column %q", col)
				}
				desc := false
				if v, ok := kwargs["desc"]; ok {
					desc = truthy(v)
				}
				out := f.Head(f.NumRows())
				sortFrameRows(out, idx, desc)
				return out, nil
			}},
			"to_csv": &Builtin{Name: "to_csv", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				f, err := frameArg("to_csv", args, kwargs)
				if err != nil {
					return nil, err
				}
				return f.CSVString()
			}},
		},
	}
}

func sortFrameRows(f *frame.Frame, idx int, desc bool) {
	rows := f.Rows
	less := func(a, b any) bool {
		l, err := lessThan(a, b)
		if err != nil {
			return repr(a) < repr(b)
		}
		return l
	}
	// insertion sort keeps it stable without pulling in sort.Slice closures over err
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0; j-- {
			a, b := rows[j-1][idx], rows[j][idx]
			swap := less(b, a)
			if desc {
				swap = less(a, b)
			}
			if !swap {
				break
			}
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}
}

func equalValues(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
	}
	return repr(a) == repr(b)
}

// StatsModule provides column-level summaries.
func StatsModule() *Module {
	columnValues := func(fn string, args []any, kwargs map[string]any) ([]float64, error) {
		v, ok := kwOrArg(args, kwargs, 0, "values")
		if !ok {
			return nil, fmt.Errorf("%s() needs a list or a frame and column", fn)
		}
		if f, isFrame := asFrame(v); isFrame {
			col, err := stringKw(args, kwargs, 1, "column")
			if err != nil {
				return nil, err
			}
			values, err := f.Column(col)
			if err != nil {
				return nil, err
			}
			return numericSlice(fn, []any{values})
		}
		return numericSlice(fn, []any{v})
	}

	agg := func(name string, fn func([]float64) float64) *Builtin {
		return &Builtin{Name: name, Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
			values, err := columnValues(name, args, kwargs)
			if err != nil {
				return nil, err
			}
			return fn(values), nil
		}}
	}

	return &Module{
		Name: "stats",
		Attrs: map[string]any{
			"mean": agg("mean", func(values []float64) float64 {
				total := 0.0
				for _, v := range values {
					total += v
				}
				return total / float64(len(values))
			}),
			"median": agg("median", func(values []float64) float64 {
				sorted := append([]float64{}, values...)
				for i := 1; i < len(sorted); i++ {
					for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
						sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
					}
				}
				mid := len(sorted) / 2
				if len(sorted)%2 == 0 {
					return (sorted[mid-1] + sorted[mid]) / 2
				}
				return sorted[mid]
			}),
			"stdev": agg("stdev", func(values []float64) float64 {
				mean := 0.0
				for _, v := range values {
					mean += v
				}
				mean /= float64(len(values))
				variance := 0.0
				for _, v := range values {
					variance += (v - mean) * (v - mean)
				}
				return math.Sqrt(variance / float64(len(values)))
			}),
			"count": &Builtin{Name: "count", Fn: func(_ *interp, args []any, kwargs map[string]any) (any, error) {
				values, err := columnValues("count", args, kwargs)
				if err != nil {
					return nil, err
				}
				return int64(len(values)), nil
			}},
		},
	}
}

// MathModule exposes the handful of math symbols the prompts mention.
func MathModule() *Module {
	unary := func(name string, fn func(float64) float64) *Builtin {
		return &Builtin{Name: name, Fn: func(_ *interp, args []any, _ map[string]any) (any, error) {
			if err := wantArgs(name, args, 1); err != nil {
				return nil, err
			}
			x, ok := asFloat(args[0])
			if !ok {
				return nil, fmt.Errorf("%s() argument must be a number, got %s", name, typeName(args[0]))
			}
			return fn(x), nil
		}}
	}
	return &Module{
		Name: "math",
		Attrs: map[string]any{
			"sqrt":  unary("sqrt", math.Sqrt),
			"floor": unary("floor", math.Floor),
			"ceil":  unary("ceil", math.Ceil),
			"log":   unary("log", math.Log),
			"exp":   unary("exp", math.Exp),
			"pi":    math.Pi,
		},
	}
}
