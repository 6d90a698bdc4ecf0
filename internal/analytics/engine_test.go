package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/frame"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func eventsFrame() *frame.Frame {
	f := frame.New([]string{"country", "event_type", "fatalities"})
	f.AppendRow([]any{"Kenya", "Protests", int64(0)})
	f.AppendRow([]any{"Kenya", "Riots", int64(3)})
	f.AppendRow([]any{"Ghana", "Protests", int64(1)})
	return f
}

func TestEngine_RegisterAndQuery(t *testing.T) {
	engine := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Register(ctx, "events", eventsFrame()))

	out, err := engine.Query(ctx, "SELECT country, SUM(fatalities) AS total FROM events GROUP BY country ORDER BY country", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"country", "total"}, out.Columns)
	require.Equal(t, 2, out.NumRows())
	assert.Equal(t, "Ghana", out.Rows[0][0])
	assert.Equal(t, "Kenya", out.Rows[1][0])
}

func TestEngine_QueryRejectsNonSelect(t *testing.T) {
	engine := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Register(ctx, "events", eventsFrame()))

	for _, sqlText := range []string{
		"DROP TABLE events",
		"DELETE FROM events",
		"UPDATE events SET fatalities = 0",
		"INSERT INTO events VALUES ('x', 'y', 1)",
	} {
		_, err := engine.Query(ctx, sqlText, 0)
		assert.Error(t, err, sqlText)
	}

	// the table must be untouched after the refused statements
	out, err := engine.Query(ctx, "SELECT COUNT(*) FROM events", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Rows[0][0])
}

func TestEngine_RowLimit(t *testing.T) {
	engine := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Register(ctx, "events", eventsFrame()))

	out, err := engine.Query(ctx, "SELECT * FROM events;", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestEngine_RegisterReplacesTable(t *testing.T) {
	engine := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Register(ctx, "events", eventsFrame()))

	smaller := frame.New([]string{"country"})
	smaller.AppendRow([]any{"Mali"})
	require.NoError(t, engine.Register(ctx, "events", smaller))

	out, err := engine.Query(ctx, "SELECT * FROM events", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"country"}, out.Columns)
	assert.Equal(t, 1, out.NumRows())
}

func TestEngine_TablesAndDrop(t *testing.T) {
	engine := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Register(ctx, "acled_events", eventsFrame()))
	require.NoError(t, engine.Register(ctx, "sdg_indicators", eventsFrame()))

	names, err := engine.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acled_events", "sdg_indicators"}, names)

	require.NoError(t, engine.Drop(ctx, "acled_events"))
	require.NoError(t, engine.Drop(ctx, "acled_events"))

	names, err = engine.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sdg_indicators"}, names)
}
