package sqlonexcel

import (
	"errors"

	"github.com/Matthew-Curry/sql-on-excel/domain/model"
)

// Standard error values returned by store operations. Callers are expected
// to test them with errors.Is; every error is fatal to the operation that
// produced it.
var (
	// ErrDatabaseNotFound indicates the named database file does not exist
	ErrDatabaseNotFound = errors.New("sqlonexcel: database not found")

	// ErrFileNotFound indicates a referenced source or query file does not exist
	ErrFileNotFound = errors.New("sqlonexcel: file not found")

	// ErrUnsupportedFormat indicates an unsupported source file format
	ErrUnsupportedFormat = errors.New("sqlonexcel: unsupported file format")

	// ErrInvalidArgumentCombination indicates arguments that cannot be used
	// together, such as a sheet name with a non-XLSX source
	ErrInvalidArgumentCombination = errors.New("sqlonexcel: invalid argument combination")

	// ErrEmptyQuery indicates a query file that contains no query text
	ErrEmptyQuery = errors.New("sqlonexcel: empty query")

	// ErrQueryFailed indicates the SQL engine rejected or failed the query
	ErrQueryFailed = errors.New("sqlonexcel: query failed")

	// ErrTableExists indicates an import targeting a table that already exists
	ErrTableExists = errors.New("sqlonexcel: table already exists")

	// ErrEmptyData indicates a source file with no rows at all
	ErrEmptyData = errors.New("sqlonexcel: empty data source")
)

// ErrInvalidIdentifier is returned when a table or column name fails the
// identifier rule. Re-exported from the model package so callers only need
// one import for errors.Is checks.
var ErrInvalidIdentifier = model.ErrInvalidIdentifier
