package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Frame is a column-ordered in-memory table. It is the exchange format
// between dataset ingestion, the analytics engine and the sandbox
// capability modules.
type Frame struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func New(columns []string) *Frame {
	return &Frame{Columns: columns, Rows: [][]any{}}
}

func (f *Frame) NumRows() int {
	return len(f.Rows)
}

func (f *Frame) NumCols() int {
	return len(f.Columns)
}

func (f *Frame) AppendRow(row []any) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

func (f *Frame) ColumnIndex(name string) int {
	for i, col := range f.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns all values of one column in row order.
func (f *Frame) Column(name string) ([]any, error) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("no such column: %s", name)
	}
	values := make([]any, 0, len(f.Rows))
	for _, row := range f.Rows {
		values = append(values, row[idx])
	}
	return values, nil
}

// Head returns a copy holding at most n rows.
func (f *Frame) Head(n int) *Frame {
	if n > len(f.Rows) {
		n = len(f.Rows)
	}
	if n < 0 {
		n = 0
	}
	out := New(append([]string{}, f.Columns...))
	for _, row := range f.Rows[:n] {
		out.Rows = append(out.Rows, append([]any{}, row...))
	}
	return out
}

// ReadCSV parses a CSV document with a header row. Cell values are coerced
// to int64 or float64 when they parse as numbers, empty cells become nil.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	f := New(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(f.Rows)+2, err)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = coerce(cell)
		}
		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func coerce(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return x
	}
	return trimmed
}

func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns); err != nil {
		return err
	}
	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (f *Frame) CSVString() (string, error) {
	var sb strings.Builder
	if err := f.WriteCSV(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema infers a coarse column type from the first non-nil value.
func (f *Frame) Schema() []ColumnInfo {
	infos := make([]ColumnInfo, len(f.Columns))
	for i, col := range f.Columns {
		infos[i] = ColumnInfo{Name: col, Type: "unknown"}
		for _, row := range f.Rows {
			switch row[i].(type) {
			case nil:
				continue
			case int64:
				infos[i].Type = "integer"
			case float64:
				infos[i].Type = "double"
			case bool:
				infos[i].Type = "boolean"
			default:
				infos[i].Type = "text"
			}
			break
		}
	}
	return infos
}
