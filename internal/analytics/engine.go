package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"studio/internal/frame"
	"studio/pkg"
)

// Engine materializes dataset frames as DuckDB tables and answers read-only
// SQL against them. One engine is shared by every session; DuckDB handles
// its own locking.
type Engine struct {
	db *sql.DB
}

// NewEngine opens the analytical store. An empty path gives an in-memory
// database, which is what tests use.
func NewEngine(path string) (*Engine, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Engine{db: db}, nil
}

func (e *Engine) Close() error {
	return e.db.Close()
}

// Register drops and recreates the named table from the frame. Column types
// are inferred from the first non-nil cell of each column.
func (e *Engine) Register(ctx context.Context, name string, f *frame.Frame) error {
	if f == nil || f.NumCols() == 0 {
		return fmt.Errorf("frame for table %q has no columns", name)
	}
	table := quoteIdent(name)
	if _, err := e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop table %q: %w", name, err)
	}

	defs := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		defs[i] = quoteIdent(col) + " " + duckType(f, i)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := e.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	if f.NumRows() == 0 {
		return nil
	}
	placeholders := make([]string, len(f.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.Join(placeholders, ", "))
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert into %q: %w", name, err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert into %q: %w", name, err)
	}
	for _, row := range f.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert into %q: %w", name, err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("close insert into %q: %w", name, err)
	}
	return tx.Commit()
}

// Query runs read-only SQL and returns the result as a frame. Anything that
// is not a plain SELECT is refused before it reaches the database.
func (e *Engine) Query(ctx context.Context, sqlText string, rowLimit int) (*frame.Frame, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return nil, fmt.Errorf("sql is required")
	}
	if !pkg.IsSafeSelect(sqlText) {
		return nil, fmt.Errorf("only SELECT statements are allowed")
	}
	if rowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, rowLimit)
	}

	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	out := frame.New(columns)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out.Rows = append(out.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Tables lists the user tables currently registered.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, "SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Drop removes a dataset table. Missing tables are not an error.
func (e *Engine) Drop(ctx context.Context, name string) error {
	_, err := e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name))
	if err != nil {
		return fmt.Errorf("drop table %q: %w", name, err)
	}
	return nil
}

func duckType(f *frame.Frame, col int) string {
	for _, row := range f.Rows {
		switch row[col].(type) {
		case nil:
			continue
		case int64:
			return "BIGINT"
		case float64:
			return "DOUBLE"
		case bool:
			return "BOOLEAN"
		default:
			return "VARCHAR"
		}
	}
	return "VARCHAR"
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case int32:
			normalized[i] = int64(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
