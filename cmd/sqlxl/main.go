// Command sqlxl stages spreadsheet data in on-disk SQLite databases, runs
// SQL against them, and exports query results back to XLSX workbooks.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win when both exist.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		_, _ = errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
