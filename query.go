package sqlonexcel

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Matthew-Curry/sql-on-excel/domain/model"
)

const (
	// queryFileExt marks a query argument that names a file holding the SQL
	// text instead of being the text itself
	queryFileExt = ".txt"

	// ClearDirective requests database deletion after a successful export
	ClearDirective = "clear"

	// droppedColumn is removed from every result set before export
	droppedColumn = "index"

	// xlsxExt is the extension of exported result workbooks
	xlsxExt = ".xlsx"
)

// Execute runs query against the named database and writes the result set to
// <outDir>/<outName>.xlsx. A query ending in ".txt" is read from that file
// first. The result never contains a column named "index". The directive
// argument may be ClearDirective to delete the database after a successful
// export; any other value leaves the database in place.
func (s *Store) Execute(ctx context.Context, query, outDir, outName, dbName, directive string) error {
	sqlText, err := resolveQuery(query)
	if err != nil {
		return err
	}

	db, err := s.openDatabase(ctx, dbName)
	if err != nil {
		return err
	}
	defer db.Close()

	header, records, err := runQuery(ctx, db, sqlText)
	if err != nil {
		return fmt.Errorf("%w: database %q: %w", ErrQueryFailed, dbName, err)
	}

	header, records = dropColumn(header, records, droppedColumn)

	outPath := filepath.Join(outDir, outName+xlsxExt)
	if err := writeXLSX(outPath, header, records); err != nil {
		return fmt.Errorf("write result workbook %s: %w", outPath, err)
	}

	s.logger.Debugw("exported query result",
		"database", dbName,
		"path", outPath,
		"rows", len(records))

	if directive == ClearDirective {
		// Windows cannot remove the database file while the handle is open
		if err := db.Close(); err != nil {
			return fmt.Errorf("close database %q: %w", dbName, err)
		}
		return s.Delete(dbName)
	}
	return nil
}

// ListTables returns the user table names in the named database in
// lexicographic order.
func (s *Store) ListTables(ctx context.Context, dbName string) ([]string, error) {
	db, err := s.openDatabase(ctx, dbName)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables in %q: %w", dbName, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// resolveQuery returns the SQL text for a query argument. Arguments ending
// in ".txt" name a file whose whole content is the query; anything else is
// already the query.
func resolveQuery(query string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(query), queryFileExt) {
		return query, nil
	}

	content, err := os.ReadFile(query) //nolint:gosec // Query file path comes from user input by design
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, query)
		}
		return "", fmt.Errorf("read query file %s: %w", query, err)
	}

	if strings.TrimSpace(string(content)) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyQuery, query)
	}
	return string(content), nil
}

// runQuery executes sqlText and materializes the whole result set as
// strings. Materializing before export keeps failed queries from leaving a
// partial workbook behind.
func runQuery(ctx context.Context, db *sql.DB, sqlText string) (model.Header, []model.Record, error) {
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var records []model.Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		record := make(model.Record, len(columns))
		for i, v := range values {
			record[i] = formatSQLValue(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return model.NewHeader(columns), records, nil
}

// formatSQLValue converts a scanned SQL value to its cell representation.
// NULL becomes an empty cell. Floats are written in plain decimal notation,
// never scientific: a REAL imported from the text "1234567.5" exports as
// that same text.
func formatSQLValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(value)
	case string:
		return value
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		return value.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// dropColumn removes every column with the given name from the result set
func dropColumn(header model.Header, records []model.Record, name string) (model.Header, []model.Record) {
	keep := make([]int, 0, len(header))
	for i, col := range header {
		if col != name {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(header) {
		return header, records
	}

	newHeader := make(model.Header, 0, len(keep))
	for _, i := range keep {
		newHeader = append(newHeader, header[i])
	}

	newRecords := make([]model.Record, len(records))
	for r, record := range records {
		row := make(model.Record, 0, len(keep))
		for _, i := range keep {
			if i < len(record) {
				row = append(row, record[i])
			}
		}
		newRecords[r] = row
	}
	return newHeader, newRecords
}
