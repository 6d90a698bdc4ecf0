package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordsToFrame(t *testing.T) {
	records := []map[string]any{
		{"country": "Kenya", "fatalities": float64(3), "year": "2021"},
		{"country": "Ghana", "fatalities": float64(0), "year": "2022"},
	}
	f := recordsToFrame(records)

	assert.Equal(t, []string{"country", "fatalities", "year"}, f.Columns)
	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, []any{"Kenya", int64(3), int64(2021)}, f.Rows[0])
	assert.Equal(t, []any{"Ghana", int64(0), int64(2022)}, f.Rows[1])
}

func TestRecordsToFrameRaggedRecords(t *testing.T) {
	records := []map[string]any{
		{"a": "x"},
		{"a": "y", "b": float64(1.5)},
	}
	f := recordsToFrame(records)

	assert.Equal(t, []string{"a", "b"}, f.Columns)
	assert.Equal(t, []any{"x", nil}, f.Rows[0])
	assert.Equal(t, []any{"y", 1.5}, f.Rows[1])
}

func TestNormalizeJSONValue(t *testing.T) {
	assert.Equal(t, int64(7), normalizeJSONValue(float64(7)))
	assert.Equal(t, 7.5, normalizeJSONValue(7.5))
	assert.Equal(t, int64(42), normalizeJSONValue("42"))
	assert.Equal(t, 3.14, normalizeJSONValue("3.14"))
	assert.Equal(t, "Armed clash", normalizeJSONValue("Armed clash"))
	assert.Nil(t, normalizeJSONValue(nil))
}

func TestAcledCacheKeyDistinguishesFilters(t *testing.T) {
	a := acledCacheKey(AcledFilter{Countries: []string{"Kenya"}, YearFrom: 2020, YearTo: 2022})
	b := acledCacheKey(AcledFilter{Countries: []string{"Kenya"}, YearFrom: 2020, YearTo: 2023})
	c := acledCacheKey(AcledFilter{Countries: []string{"Kenya"}, YearFrom: 2020, YearTo: 2022})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
}
