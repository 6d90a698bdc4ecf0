package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/frame"
)

func evalSource(t *testing.T, source string, bindings map[string]any) any {
	t.Helper()
	gate := NewGate(2*time.Second, PolicyStrip, zerolog.Nop())
	artifact, err := gate.SanitizeAndRun(context.Background(), CodeUnit{
		ID:       "test",
		Source:   source,
		Bindings: bindings,
	})
	require.NoError(t, err)
	return artifact.Value
}

func TestInterp_Arithmetic(t *testing.T) {
	cases := []struct {
		source string
		want   any
	}{
		{"result = 2 + 3 * 4\n", int64(14)},
		{"result = (2 + 3) * 4\n", int64(20)},
		{"result = 7 // 2\n", int64(3)},
		{"result = 7 % 3\n", int64(1)},
		{"result = -7 % 3\n", int64(2)},
		{"result = 2 ** 10\n", int64(1024)},
		{"result = 1 / 4\n", 0.25},
		{"result = -5\n", int64(-5)},
		{"result = 'a' + 'b'\n", "ab"},
		{"result = 'ab' * 3\n", "ababab"},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			assert.Equal(t, tc.want, evalSource(t, tc.source, nil))
		})
	}
}

func TestInterp_ControlFlow(t *testing.T) {
	source := `total = 0
for i in range(10):
    if i % 2 == 0:
        continue
    if i > 7:
        break
    total = total + i
result = total
`
	// odd values up to 7: 1 + 3 + 5 + 7
	assert.Equal(t, int64(16), evalSource(t, source, nil))
}

func TestInterp_WhileLoop(t *testing.T) {
	source := `n = 1
while n < 100:
    n = n * 2
result = n
`
	assert.Equal(t, int64(128), evalSource(t, source, nil))
}

func TestInterp_ElifChain(t *testing.T) {
	source := `x = 15
if x < 10:
    result = 'small'
elif x < 20:
    result = 'medium'
else:
    result = 'large'
`
	assert.Equal(t, "medium", evalSource(t, source, nil))
}

func TestInterp_ListsAndDicts(t *testing.T) {
	source := `xs = [3, 1, 2]
d = {'a': 1, 'b': 2}
result = sorted(xs)[0] + d['b'] + len(xs)
`
	assert.Equal(t, int64(6), evalSource(t, source, nil))
}

func TestInterp_Builtins(t *testing.T) {
	cases := []struct {
		source string
		want   any
	}{
		{"result = sum([1, 2, 3])\n", int64(6)},
		{"result = min([4, 2, 9])\n", int64(2)},
		{"result = max([4, 2, 9])\n", int64(9)},
		{"result = round(3.14159, 2)\n", 3.14},
		{"result = abs(-3)\n", int64(3)},
		{"result = int('42')\n", int64(42)},
		{"result = str(42)\n", "42"},
		{"result = len('hello')\n", int64(5)},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			assert.Equal(t, tc.want, evalSource(t, tc.source, nil))
		})
	}
}

func TestInterp_StringMethods(t *testing.T) {
	source := "result = ' Hello '.strip().upper()\n"
	assert.Equal(t, "HELLO", evalSource(t, source, nil))
}

func TestInterp_FrameMethods(t *testing.T) {
	df := frame.New([]string{"region", "count"})
	df.AppendRow([]any{"north", int64(4)})
	df.AppendRow([]any{"south", int64(6)})
	df.AppendRow([]any{"east", int64(1)})

	source := `top = df.head(2)
result = len(top)
`
	assert.Equal(t, int64(2), evalSource(t, source, map[string]any{"df": df}))
}

func TestInterp_FrameColumnIndex(t *testing.T) {
	df := frame.New([]string{"name", "score"})
	df.AppendRow([]any{"a", int64(10)})
	df.AppendRow([]any{"b", int64(20)})

	source := "result = sum(df['score'])\n"
	assert.Equal(t, int64(30), evalSource(t, source, map[string]any{"df": df}))
}

func TestInterp_FramesModule(t *testing.T) {
	df := frame.New([]string{"country", "events"})
	df.AppendRow([]any{"Kenya", int64(3)})
	df.AppendRow([]any{"Kenya", int64(4)})
	df.AppendRow([]any{"Ghana", int64(5)})

	source := `import frames
grouped = frames.group_sum(df, by='country', value='events')
result = grouped
`
	out := evalSource(t, source, map[string]any{"df": df}).(*frame.Frame)
	require.Equal(t, 2, out.NumRows())
	assert.Equal(t, []any{"Kenya", 7.0}, out.Rows[0])
	assert.Equal(t, []any{"Ghana", 5.0}, out.Rows[1])
}

func TestInterp_StatsModule(t *testing.T) {
	source := `import stats
result = stats.mean([2, 4, 6])
`
	assert.Equal(t, float64(4), evalSource(t, source, nil))
}

func TestInterp_FromImport(t *testing.T) {
	source := `from math import sqrt
result = sqrt(25)
`
	assert.Equal(t, float64(5), evalSource(t, source, nil))
}

func TestInterp_ImportAlias(t *testing.T) {
	source := `import charts as px
df2 = df.head(5)
result = px.line(df2, x='day', y='value')
`
	df := frame.New([]string{"day", "value"})
	df.AppendRow([]any{"mon", int64(1)})

	out := evalSource(t, source, map[string]any{"df": df}).(*Figure)
	assert.Equal(t, "line", out.Kind)
}

func TestInterp_BooleanShortCircuit(t *testing.T) {
	// the right side would fault, so the answer proves "or" short-circuits
	source := "result = True or undefined_name\n"
	assert.Equal(t, true, evalSource(t, source, nil))
}

func TestInterp_InOperator(t *testing.T) {
	cases := []struct {
		source string
		want   any
	}{
		{"result = 2 in [1, 2, 3]\n", true},
		{"result = 'ell' in 'hello'\n", true},
		{"result = 'z' in {'a': 1}\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			assert.Equal(t, tc.want, evalSource(t, tc.source, nil))
		})
	}
}

func TestInterp_DivisionByZeroFaults(t *testing.T) {
	gate := NewGate(time.Second, PolicyStrip, zerolog.Nop())
	_, err := gate.SanitizeAndRun(context.Background(), CodeUnit{ID: "t", Source: "result = 1 / 0\n"})

	var fault *RuntimeFaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Msg, "division by zero")
}

func TestInterp_BreakOutsideLoopFaults(t *testing.T) {
	gate := NewGate(time.Second, PolicyStrip, zerolog.Nop())
	_, err := gate.SanitizeAndRun(context.Background(), CodeUnit{ID: "t", Source: "break\n"})

	var fault *RuntimeFaultError
	require.ErrorAs(t, err, &fault)
}
