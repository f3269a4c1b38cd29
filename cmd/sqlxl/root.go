package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	sqlonexcel "github.com/Matthew-Curry/sql-on-excel"
)

// rootOptions holds the flag values for a single invocation.
type rootOptions struct {
	buildName  string
	deleteName string
	importArgs []string
	execArgs   []string
	tablesDB   string
	listDBs    bool
	clearAll   bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlxl",
		Short: "Stage spreadsheet data in SQLite and query it back out",
		Long: `sqlxl stages tabular files (CSV, TSV, XLSX, Parquet, and their gzip,
bzip2, xz, and zstd compressed variants) in on-disk SQLite databases, runs
ad-hoc SQL against them, and exports query results to XLSX workbooks.

Requested operations always run in a fixed order regardless of flag
position: build, delete, import, execute, clear all data, list databases,
list tables.

Databases live in a "Databases" directory next to the executable unless the
SQL_ON_EXCEL_DATA_DIR environment variable overrides it. A .env file in the
working directory is honored.`,
		Example: `  # create a database and import a CSV into it
  sqlxl -b sales -i sales -i orders.csv -i orders

  # run a query, export the result, then drop the database
  sqlxl -e "SELECT * FROM orders" -e ./out -e report -e sales -e clear

  # list what is staged
  sqlxl --ld
  sqlxl --lt sales`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.buildName, "build_db", "b", "", "create the named database")
	flags.StringVarP(&opts.deleteName, "delete_db", "d", "", "delete the named database")
	flags.StringArrayVarP(&opts.importArgs, "import_file", "i", nil,
		"import a source file: DATABASE, FILE, TABLE, optional SHEET (repeat the flag per value)")
	flags.StringArrayVarP(&opts.execArgs, "execute", "e", nil,
		`run SQL: QUERY or FILE.txt, OUTPUT_DIR, OUTPUT_NAME, DATABASE, optional "clear" (repeat the flag per value)`)
	flags.StringVar(&opts.tablesDB, "list_all_tables", "", "list the tables in the named database")
	flags.BoolVar(&opts.listDBs, "list_all_db_name", false, "list the database files in the storage directory")
	flags.BoolVarP(&opts.clearAll, "clear_all_data", "c", false, "delete the storage directory and every database in it")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.SetNormalizeFunc(normalizeFlagAliases)

	return cmd
}

// normalizeFlagAliases maps the short spellings --lt and --ld onto their
// canonical flags. pflag shorthand is limited to a single letter, so these
// ride the normalize hook instead.
func normalizeFlagAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "lt":
		name = "list_all_tables"
	case "ld":
		name = "list_all_db_name"
	}
	return pflag.NormalizedName(name)
}

// run executes every requested operation in the dispatcher's fixed order.
// The first failing operation aborts the rest.
func run(cmd *cobra.Command, opts *rootOptions) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // Sync to stderr is best-effort

	dataDir, err := sqlonexcel.DefaultDataDir()
	if err != nil {
		return err
	}
	store := sqlonexcel.NewStore(dataDir, sqlonexcel.WithLogger(logger))

	ctx := cmd.Context()
	flags := cmd.Flags()
	out := cmd.OutOrStdout()

	if flags.Changed("build_db") {
		if err := store.Build(ctx, opts.buildName); err != nil {
			return err
		}
		fmt.Fprintf(out, "Built database %q\n", opts.buildName)
	}

	if flags.Changed("delete_db") {
		if err := store.Delete(opts.deleteName); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted database %q\n", opts.deleteName)
	}

	if flags.Changed("import_file") {
		dbName, filePath, tableName, sheet, err := importArguments(opts.importArgs)
		if err != nil {
			return err
		}
		if err := store.ImportFile(ctx, dbName, filePath, tableName, sheet); err != nil {
			return err
		}
		fmt.Fprintf(out, "Imported %s into table %q of database %q\n", filePath, tableName, dbName)
	}

	if flags.Changed("execute") {
		query, outDir, outName, dbName, directive, err := executeArguments(opts.execArgs)
		if err != nil {
			return err
		}
		if err := store.Execute(ctx, query, outDir, outName, dbName, directive); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved query result to %s\n", filepath.Join(outDir, outName+".xlsx"))

		switch directive {
		case "":
		case sqlonexcel.ClearDirective:
			fmt.Fprintf(out, "Cleared database %q\n", dbName)
		default:
			fmt.Fprintf(out, "Warning: unrecognized directive %q, database %q was not cleared\n", directive, dbName)
		}
	}

	if opts.clearAll {
		if err := store.ClearAll(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Cleared all data in %s\n", store.Dir())
	}

	if opts.listDBs {
		names, err := store.List()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Databases: %s\n", strings.Join(names, ", "))
	}

	if flags.Changed("list_all_tables") {
		tables, err := store.ListTables(ctx, opts.tablesDB)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Tables in %q: %s\n", opts.tablesDB, strings.Join(tables, ", "))
	}

	return nil
}

// importArguments unpacks the repeated --import_file values.
func importArguments(args []string) (dbName, filePath, tableName, sheet string, err error) {
	if len(args) < 3 || len(args) > 4 {
		return "", "", "", "", fmt.Errorf(
			"--import_file expects DATABASE, FILE, TABLE, and an optional SHEET; got %d value(s)", len(args))
	}
	dbName, filePath, tableName = args[0], args[1], args[2]
	if len(args) == 4 {
		sheet = args[3]
	}
	return dbName, filePath, tableName, sheet, nil
}

// executeArguments unpacks the repeated --execute values.
func executeArguments(args []string) (query, outDir, outName, dbName, directive string, err error) {
	if len(args) < 4 || len(args) > 5 {
		return "", "", "", "", "", fmt.Errorf(
			"--execute expects QUERY, OUTPUT_DIR, OUTPUT_NAME, DATABASE, and an optional directive; got %d value(s)", len(args))
	}
	query, outDir, outName, dbName = args[0], args[1], args[2], args[3]
	if len(args) == 5 {
		directive = args[4]
	}
	return query, outDir, outName, dbName, directive, nil
}

// newLogger builds the CLI logger: a development-config debug logger when
// verbose is set, a nop logger otherwise.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	if !verbose {
		return zap.NewNop().Sugar(), nil
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}
