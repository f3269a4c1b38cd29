// Package sqlonexcel stages spreadsheet data in on-disk SQLite databases and
// exports SQL query results back to spreadsheet form.
//
// The package is a thin lifecycle layer around SQLite3: it creates and deletes
// database files in a single storage directory, imports CSV, TSV, XLSX, and
// Parquet sources into typed tables, and runs ad-hoc SQL whose results are
// written to XLSX workbooks.
//
// # Features
//
//   - Create, delete, list, and clear SQLite database files in a storage directory
//   - Import CSV, TSV, XLSX, and Parquet sources (plus gzip, bzip2, xz, and
//     zstandard compressed variants) into new tables
//   - Column types inferred from data (TEXT, INTEGER, REAL, datetime as TEXT)
//   - Run SQL given literally or loaded from a .txt file
//   - Export query results to an XLSX workbook, optionally deleting the
//     database afterwards
//
// # Basic Usage
//
//	store := sqlonexcel.NewStore("Databases")
//
//	if err := store.Build(ctx, "sales"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.ImportFile(ctx, "sales", "orders.csv", "orders", ""); err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.Execute(ctx, "SELECT * FROM orders", ".", "report", "sales", ""); err != nil {
//	    log.Fatal(err)
//	}
//
// # Storage Layout
//
// Each database is a single file named <name>.db inside the store's directory.
// The directory is created on first Build and removed wholesale by ClearAll.
// Connections are opened per operation and closed before the operation
// returns; the package assumes a single process and a single goroutine per
// store.
//
// # Table Naming
//
// Table and column names must consist of letters, digits, and underscores and
// must not be purely numeric. Imports never overwrite: importing into an
// existing table name fails.
//
// # SQL Syntax
//
// Since sqlonexcel uses SQLite3 as its engine, all SQL syntax follows
// SQLite3's SQL dialect. For complete SQL syntax documentation, see:
// https://www.sqlite.org/lang.html
package sqlonexcel
