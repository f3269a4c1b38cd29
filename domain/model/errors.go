// Package model provides the domain model for sql-on-excel
package model

import "errors"

// ErrDuplicateColumnName is returned when a source contains duplicate column names
var ErrDuplicateColumnName = errors.New("duplicate column name")

// ErrInvalidIdentifier is returned when a table or column name cannot be used
// as a SQL identifier
var ErrInvalidIdentifier = errors.New("invalid identifier")
