package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Country,Year,Value
Nigeria,2020,12.5
Kenya,2021,8
Ghana,2022,
`

func TestReadCSV(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "Year", "Value"}, f.Columns)
	require.Equal(t, 3, f.NumRows())

	assert.Equal(t, "Nigeria", f.Rows[0][0])
	assert.Equal(t, int64(2020), f.Rows[0][1])
	assert.Equal(t, 12.5, f.Rows[0][2])
	assert.Equal(t, int64(8), f.Rows[1][2])
	assert.Nil(t, f.Rows[2][2], "empty cell coerces to nil")
}

func TestReadCSV_RaggedRow(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	require.Error(t, err)
}

func TestCSVRoundTrip(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	out, err := f.CSVString()
	require.NoError(t, err)

	back, err := ReadCSV(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, f.Columns, back.Columns)
	assert.Equal(t, f.Rows, back.Rows)
}

func TestHeadAndColumn(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	head := f.Head(2)
	assert.Equal(t, 2, head.NumRows())
	assert.Equal(t, 3, f.NumRows(), "head must not mutate the source")

	years, err := f.Column("Year")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2020), int64(2021), int64(2022)}, years)

	_, err = f.Column("Missing")
	require.Error(t, err)
}

func TestSchema(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	schema := f.Schema()
	require.Len(t, schema, 3)
	assert.Equal(t, ColumnInfo{Name: "Country", Type: "text"}, schema[0])
	assert.Equal(t, ColumnInfo{Name: "Year", Type: "integer"}, schema[1])
	assert.Equal(t, ColumnInfo{Name: "Value", Type: "double"}, schema[2])
}
