package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/frame"
)

func TestCoerceNumeric(t *testing.T) {
	assert.Equal(t, 12.5, coerceNumeric("12.5"))
	assert.Equal(t, float64(40), coerceNumeric("40"))
	assert.Nil(t, coerceNumeric(""))
	assert.Nil(t, coerceNumeric("N/A"))
}

func TestMergeCountryReference(t *testing.T) {
	dir := t.TempDir()
	refPath := filepath.Join(dir, "iso3_country_reference.csv")
	refCSV := "Country or Area,Region Name,Sub-region Name,iso2,iso3,m49\n" +
		"Kenya,Africa,Eastern Africa,KE,KEN,404\n" +
		"Ghana,Africa,Western Africa,GH,GHA,288\n"
	require.NoError(t, os.WriteFile(refPath, []byte(refCSV), 0o644))

	svc := &SdgService{referencePath: refPath}

	f := frame.New([]string{"Indicator", "Year", "Country", "Value", "m49"})
	f.Rows = append(f.Rows,
		[]any{"1.1.1", int64(2020), "Kenya", 12.5, int64(404)},
		[]any{"1.1.1", int64(2020), "Atlantis", 1.0, int64(999)},
	)

	merged, err := svc.mergeCountryReference(f)
	require.NoError(t, err)

	assert.Equal(t, []string{"Indicator", "Year", "Country", "Value", "m49", "Region Name", "Sub-region Name", "iso2", "iso3"}, merged.Columns)
	assert.Equal(t, []any{"1.1.1", int64(2020), "Kenya", 12.5, int64(404), "Africa", "Eastern Africa", "KE", "KEN"}, merged.Rows[0])
	// unmatched m49 keeps the row with nil reference columns
	assert.Equal(t, []any{"1.1.1", int64(2020), "Atlantis", 1.0, int64(999), nil, nil, nil, nil}, merged.Rows[1])
}

func TestMergeCountryReferenceMissingFile(t *testing.T) {
	svc := &SdgService{referencePath: "/nonexistent/ref.csv"}
	f := frame.New([]string{"m49"})
	f.Rows = append(f.Rows, []any{int64(404)})

	merged, err := svc.mergeCountryReference(f)
	require.NoError(t, err)
	assert.Same(t, f, merged)
}
