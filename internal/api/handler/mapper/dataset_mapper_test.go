package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/api/handler/request"
	"studio/internal/frame"
	"studio/pkg"
)

func TestDatasetMapper_ToDatasetPatch(t *testing.T) {
	m := DatasetMapper{}

	patch := m.ToDatasetPatch(request.UpdateDataset{Name: pkg.ToPtr("Renamed")})
	assert.Equal(t, "Renamed", patch.Name)
	assert.Empty(t, patch.Description)

	patch = m.ToDatasetPatch(request.UpdateDataset{Description: pkg.ToPtr("Conflict events, West Africa only")})
	assert.Empty(t, patch.Name)
	assert.Equal(t, "Conflict events, West Africa only", patch.Description)

	patch = m.ToDatasetPatch(request.UpdateDataset{})
	assert.Empty(t, patch.Name)
	assert.Empty(t, patch.Description)
}

func TestDatasetMapper_ToTableResult(t *testing.T) {
	m := DatasetMapper{}

	f := frame.New([]string{"country", "events"})
	require.NoError(t, f.AppendRow([]any{"Nigeria", int64(120)}))
	require.NoError(t, f.AppendRow([]any{"Kenya", int64(45)}))

	result := m.ToTableResult(f)
	assert.Equal(t, []string{"country", "events"}, result.Columns)
	assert.Equal(t, 2, result.RowCount)
	assert.Len(t, result.Rows, 2)
}
