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

func testGate(limit time.Duration, policy ImportPolicy) *Gate {
	return NewGate(limit, policy, zerolog.Nop())
}

func runSource(t *testing.T, source string) (*Artifact, error) {
	t.Helper()
	gate := testGate(2*time.Second, PolicyStrip)
	return gate.SanitizeAndRun(context.Background(), CodeUnit{ID: "test", Source: source})
}

func TestGate_SimpleExpression(t *testing.T) {
	artifact, err := runSource(t, "result = 1 + 1\n")
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, "scalar", artifact.Kind)
	assert.Equal(t, int64(2), artifact.Value)
}

func TestGate_StripsDisallowedImport(t *testing.T) {
	// os is outside the capability set so the import is stripped and the
	// later reference fails at runtime, not at the process level.
	source := "import os\nresult = os.getcwd()\n"

	_, err := runSource(t, source)
	require.Error(t, err)

	var fault *RuntimeFaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Msg, "os")
}

func TestGate_AllowedImportSurvives(t *testing.T) {
	source := "import math\nresult = math.sqrt(16)\n"

	artifact, err := runSource(t, source)
	require.NoError(t, err)
	assert.Equal(t, float64(4), artifact.Value)
}

func TestGate_RejectPolicy(t *testing.T) {
	gate := testGate(2*time.Second, PolicyReject)

	_, err := gate.SanitizeAndRun(context.Background(), CodeUnit{
		ID:     "test",
		Source: "import os\nresult = 1\n",
	})
	require.Error(t, err)

	var se *SanitizationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Line)
}

func TestGate_BusyLoopTimesOut(t *testing.T) {
	limit := 200 * time.Millisecond
	gate := testGate(limit, PolicyStrip)

	start := time.Now()
	_, err := gate.SanitizeAndRun(context.Background(), CodeUnit{
		ID:     "test",
		Source: "while True: pass\n",
	})
	elapsed := time.Since(start)

	var timeout *ExecutionTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, limit, timeout.Limit)
	assert.Less(t, elapsed, limit+watchdogGrace+200*time.Millisecond)
}

func TestGate_EmptyResult(t *testing.T) {
	_, err := runSource(t, "x = 41 + 1\n")

	var empty *EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, ResultBinding, empty.Binding)
}

func TestGate_SyntaxError(t *testing.T) {
	_, err := runSource(t, "result = = 1\n")

	var se *SanitizationError
	require.ErrorAs(t, err, &se)
}

func TestGate_RuntimeFaultIsTruncated(t *testing.T) {
	// An undefined name with a very long identifier produces a long fault
	// message; the gate caps it.
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	_, err := runSource(t, "result = "+string(long)+"\n")

	var fault *RuntimeFaultError
	require.ErrorAs(t, err, &fault)
	assert.LessOrEqual(t, len(fault.Msg), maxFaultMessage+3)
}

func TestGate_RoundTripValues(t *testing.T) {
	cases := []struct {
		name   string
		source string
		kind   string
		want   any
	}{
		{"int", "result = 42\n", "scalar", int64(42)},
		{"float", "result = 3.5\n", "scalar", 3.5},
		{"string", "result = 'hello'\n", "text", "hello"},
		{"bool", "result = 1 < 2\n", "scalar", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			artifact, err := runSource(t, tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, artifact.Kind)
			assert.Equal(t, tc.want, artifact.Value)
		})
	}
}

func TestGate_FrameRoundTrip(t *testing.T) {
	df := frame.New([]string{"country", "events"})
	df.AppendRow([]any{"Kenya", int64(12)})
	df.AppendRow([]any{"Ghana", int64(7)})

	gate := testGate(2*time.Second, PolicyStrip)
	artifact, err := gate.SanitizeAndRun(context.Background(), CodeUnit{
		ID:       "test",
		Source:   "result = df\n",
		Bindings: map[string]any{"df": df},
	})
	require.NoError(t, err)

	assert.Equal(t, "table", artifact.Kind)
	out, ok := artifact.Value.(*frame.Frame)
	require.True(t, ok)
	assert.Equal(t, df.Columns, out.Columns)
	assert.Equal(t, 2, out.NumRows())
}

func TestGate_FigureArtifact(t *testing.T) {
	df := frame.New([]string{"month", "total"})
	df.AppendRow([]any{"Jan", int64(3)})
	df.AppendRow([]any{"Feb", int64(5)})

	gate := testGate(2*time.Second, PolicyStrip)
	artifact, err := gate.SanitizeAndRun(context.Background(), CodeUnit{
		ID:       "test",
		Source:   "import charts\nresult = charts.bar(df, x='month', y='total', title='Events')\n",
		Bindings: map[string]any{"df": df},
	})
	require.NoError(t, err)

	assert.Equal(t, "figure", artifact.Kind)
	fig, ok := artifact.Value.(*Figure)
	require.True(t, ok)
	assert.Equal(t, "bar", fig.Kind)
	assert.Equal(t, "month", fig.X)
	assert.Equal(t, "total", fig.Y)
	assert.Equal(t, "Events", fig.Title)
}

func TestGate_SurvivesRepeatedFailures(t *testing.T) {
	gate := testGate(150*time.Millisecond, PolicyStrip)

	failing := []string{
		"result = 1 / 0\n",
		"result = undefined_name\n",
		"while True: pass\n",
		"result = = broken\n",
	}
	for i := 0; i < 3; i++ {
		for _, source := range failing {
			_, err := gate.SanitizeAndRun(context.Background(), CodeUnit{ID: "fail", Source: source})
			require.Error(t, err)
		}
	}

	artifact, err := gate.SanitizeAndRun(context.Background(), CodeUnit{ID: "ok", Source: "result = 2 + 3\n"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), artifact.Value)
}

func TestGate_CapturesPrintOutput(t *testing.T) {
	artifact, err := runSource(t, "print('checking', 1 + 1)\nresult = 'done'\n")
	require.NoError(t, err)
	assert.Equal(t, "checking 2\n", artifact.Stdout)
}
