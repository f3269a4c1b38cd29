package sqlonexcel

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Matthew-Curry/sql-on-excel/domain/model"
)

// ImportFile loads the source file at filePath into a new table of the named
// database. The sheet argument selects an XLSX worksheet; leave it empty for
// the first sheet and for non-XLSX sources. All validation completes before
// anything is written, and importing into an existing table fails.
func (s *Store) ImportFile(ctx context.Context, dbName, filePath, tableName, sheet string) error {
	if err := model.ValidateTableName(tableName); err != nil {
		return err
	}

	tbl, err := readSource(ctx, filePath, tableName, sheet)
	if err != nil {
		return err
	}

	if err := model.ValidateColumnNames(tbl.Header()); err != nil {
		return err
	}

	db, err := s.openDatabase(ctx, dbName)
	if err != nil {
		return err
	}
	defer db.Close()

	exists, err := tableExists(ctx, db, tableName)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q in database %q", ErrTableExists, tableName, dbName)
	}

	if err := createTable(ctx, db, tbl); err != nil {
		return fmt.Errorf("create table %q: %w", tableName, err)
	}
	if err := insertRecords(ctx, db, tbl); err != nil {
		return fmt.Errorf("insert into table %q: %w", tableName, err)
	}

	s.logger.Debugw("imported file",
		"database", dbName,
		"file", filePath,
		"table", tableName,
		"rows", len(tbl.Records()))
	return nil
}

// tableExists checks sqlite_master for the named table
func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		tableName,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return count > 0, nil
}

// createTable creates the table with columns typed by inference
func createTable(ctx context.Context, db *sql.DB, tbl *model.Table) error {
	columnInfo := tbl.ColumnInfo()
	columns := make([]string, 0, len(columnInfo))
	for _, col := range columnInfo {
		columns = append(columns, fmt.Sprintf(`"%s" %s`, col.Name, col.Type.String()))
	}

	query := fmt.Sprintf(
		`CREATE TABLE "%s" (%s)`,
		tbl.Name(),
		strings.Join(columns, ", "),
	)

	_, err := db.ExecContext(ctx, query)
	return err
}

// insertRecords inserts all records through a single prepared statement
func insertRecords(ctx context.Context, db *sql.DB, tbl *model.Table) error {
	placeholders := make([]string, len(tbl.Header()))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := fmt.Sprintf(
		`INSERT INTO "%s" VALUES (%s)`,
		tbl.Name(),
		strings.Join(placeholders, ", "),
	)

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range tbl.Records() {
		values := make([]any, len(record))
		for i, value := range record {
			values[i] = value
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return err
		}
	}
	return nil
}
