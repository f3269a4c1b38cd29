package model

import (
	"fmt"
	"strings"
)

// Identifier roles reported in validation errors.
const (
	identifierRoleTable  = "table"
	identifierRoleColumn = "column"
)

// ValidateTableName reports whether name can be used as a table name.
// Valid names contain only letters, digits, and underscores, and are not
// purely numeric.
func ValidateTableName(name string) error {
	return validateIdentifier(name, identifierRoleTable)
}

// ValidateColumnName reports whether name can be used as a column name.
// The rule is the same one applied to table names.
func ValidateColumnName(name string) error {
	return validateIdentifier(name, identifierRoleColumn)
}

// ValidateColumnNames validates every column name in header and rejects
// duplicates. The first offending column stops validation.
func ValidateColumnNames(header Header) error {
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if err := ValidateColumnName(name); err != nil {
			return err
		}
		trimmed := strings.TrimSpace(name)
		if seen[trimmed] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumnName, name)
		}
		seen[trimmed] = true
	}
	return nil
}

func validateIdentifier(name, role string) error {
	if isAllDigits(name) {
		return fmt.Errorf("%w: %s name %q is purely numeric", ErrInvalidIdentifier, role, name)
	}
	// Underscores are the only allowed non-alphanumeric rune, so substitute
	// them with a letter before the alphanumeric check.
	if !isAlphanumeric(strings.ReplaceAll(name, "_", "A")) {
		return fmt.Errorf("%w: %s name %q contains characters outside [A-Za-z0-9_]", ErrInvalidIdentifier, role, name)
	}
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
