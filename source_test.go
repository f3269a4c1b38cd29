package sqlonexcel

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"

	"github.com/Matthew-Curry/sql-on-excel/domain/model"
)

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want FileType
	}{
		{name: "CSV file", path: "data.csv", want: FileTypeCSV},
		{name: "TSV file", path: "data.tsv", want: FileTypeTSV},
		{name: "XLSX file", path: "data.xlsx", want: FileTypeXLSX},
		{name: "Parquet file", path: "data.parquet", want: FileTypeParquet},
		{name: "Uppercase extension", path: "data.CSV", want: FileTypeCSV},
		{name: "Gzipped CSV", path: "data.csv.gz", want: FileTypeCSV},
		{name: "Bzip2 TSV", path: "data.tsv.bz2", want: FileTypeTSV},
		{name: "XZ XLSX", path: "data.xlsx.xz", want: FileTypeXLSX},
		{name: "Zstd parquet", path: "data.parquet.zst", want: FileTypeParquet},
		{name: "JSON is unsupported", path: "data.json", want: FileTypeUnsupported},
		{name: "Database file is unsupported", path: "sales.db", want: FileTypeUnsupported},
		{name: "No extension", path: "data", want: FileTypeUnsupported},
		{name: "Compression only", path: "data.gz", want: FileTypeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectFileType(tt.path))
		})
	}
}

func TestReadSource_Delimited(t *testing.T) {
	t.Parallel()

	t.Run("CSV file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "products.csv")
		writeTestFile(t, path, "id,name,price\n1,widget,9.99\n2,gadget,19.50\n")

		tbl, err := readSource(context.Background(), path, "products", "")
		require.NoError(t, err)

		assert.Equal(t, "products", tbl.Name())
		assert.Equal(t, model.NewHeader([]string{"id", "name", "price"}), tbl.Header())
		require.Len(t, tbl.Records(), 2)
		assert.Equal(t, model.NewRecord([]string{"1", "widget", "9.99"}), tbl.Records()[0])
		assert.Equal(t, model.NewRecord([]string{"2", "gadget", "19.50"}), tbl.Records()[1])
	})

	t.Run("TSV file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cities.tsv")
		writeTestFile(t, path, "city\tpopulation\nOslo\t709037\nBergen\t291940\n")

		tbl, err := readSource(context.Background(), path, "cities", "")
		require.NoError(t, err)

		assert.Equal(t, model.NewHeader([]string{"city", "population"}), tbl.Header())
		require.Len(t, tbl.Records(), 2)
		assert.Equal(t, model.NewRecord([]string{"Oslo", "709037"}), tbl.Records()[0])
	})

	t.Run("header-only CSV yields a table without records", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.csv")
		writeTestFile(t, path, "id,name\n")

		tbl, err := readSource(context.Background(), path, "empty", "")
		require.NoError(t, err)
		assert.Equal(t, model.NewHeader([]string{"id", "name"}), tbl.Header())
		assert.Empty(t, tbl.Records())
	})
}

func TestReadSource_Compressed(t *testing.T) {
	t.Parallel()

	const content = "id,name\n1,widget\n2,gadget\n"

	t.Run("gzip CSV", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "products.csv.gz")

		file, err := os.Create(path)
		require.NoError(t, err)
		gzWriter := gzip.NewWriter(file)
		_, err = gzWriter.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, gzWriter.Close())
		require.NoError(t, file.Close())

		tbl, err := readSource(context.Background(), path, "products", "")
		require.NoError(t, err)
		assert.Len(t, tbl.Records(), 2)
	})

	t.Run("xz CSV", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "products.csv.xz")

		file, err := os.Create(path)
		require.NoError(t, err)
		xzWriter, err := xz.NewWriter(file)
		require.NoError(t, err)
		_, err = xzWriter.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, xzWriter.Close())
		require.NoError(t, file.Close())

		tbl, err := readSource(context.Background(), path, "products", "")
		require.NoError(t, err)
		assert.Len(t, tbl.Records(), 2)
	})

	t.Run("zstd CSV", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "products.csv.zst")

		file, err := os.Create(path)
		require.NoError(t, err)
		zstWriter, err := zstd.NewWriter(file)
		require.NoError(t, err)
		_, err = zstWriter.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, zstWriter.Close())
		require.NoError(t, file.Close())

		tbl, err := readSource(context.Background(), path, "products", "")
		require.NoError(t, err)
		assert.Len(t, tbl.Records(), 2)
	})
}

func TestReadSource_XLSX(t *testing.T) {
	t.Parallel()

	t.Run("empty sheet argument selects the first sheet", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.xlsx")
		createTestWorkbook(t, path, []testSheet{
			{name: "Orders", rows: [][]any{{"id", "total"}, {1, 10.5}, {2, 20.25}}},
			{name: "Refunds", rows: [][]any{{"id", "amount"}, {9, 1.5}}},
		})

		tbl, err := readSource(context.Background(), path, "orders", "")
		require.NoError(t, err)

		assert.Equal(t, model.NewHeader([]string{"id", "total"}), tbl.Header())
		require.Len(t, tbl.Records(), 2)
		assert.Equal(t, model.NewRecord([]string{"1", "10.5"}), tbl.Records()[0])
	})

	t.Run("named sheet is selected", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.xlsx")
		createTestWorkbook(t, path, []testSheet{
			{name: "Orders", rows: [][]any{{"id", "total"}, {1, 10.5}}},
			{name: "Refunds", rows: [][]any{{"id", "amount"}, {9, 1.5}}},
		})

		tbl, err := readSource(context.Background(), path, "refunds", "Refunds")
		require.NoError(t, err)

		assert.Equal(t, model.NewHeader([]string{"id", "amount"}), tbl.Header())
		require.Len(t, tbl.Records(), 1)
	})

	t.Run("missing sheet fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.xlsx")
		createTestWorkbook(t, path, []testSheet{
			{name: "Orders", rows: [][]any{{"id"}, {1}}},
		})

		_, err := readSource(context.Background(), path, "orders", "Missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `sheet "Missing" not found`)
	})

	t.Run("short rows are padded to the header width", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.xlsx")
		createTestWorkbook(t, path, []testSheet{
			{name: "Orders", rows: [][]any{{"id", "note", "total"}, {1}}},
		})

		tbl, err := readSource(context.Background(), path, "orders", "")
		require.NoError(t, err)
		require.Len(t, tbl.Records(), 1)
		assert.Equal(t, model.NewRecord([]string{"1", "", ""}), tbl.Records()[0])
	})

	t.Run("empty sheet fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.xlsx")
		createTestWorkbook(t, path, []testSheet{
			{name: "Orders", rows: nil},
		})

		_, err := readSource(context.Background(), path, "orders", "")
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("gzipped workbook", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		plain := filepath.Join(dir, "report.xlsx")
		createTestWorkbook(t, plain, []testSheet{
			{name: "Orders", rows: [][]any{{"id", "total"}, {1, 10.5}}},
		})

		data, err := os.ReadFile(plain)
		require.NoError(t, err)

		compressed := filepath.Join(dir, "report.xlsx.gz")
		file, err := os.Create(compressed)
		require.NoError(t, err)
		gzWriter := gzip.NewWriter(file)
		_, err = gzWriter.Write(data)
		require.NoError(t, err)
		require.NoError(t, gzWriter.Close())
		require.NoError(t, file.Close())

		tbl, err := readSource(context.Background(), compressed, "orders", "")
		require.NoError(t, err)
		assert.Len(t, tbl.Records(), 1)
	})
}

func TestReadSource_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "missing.csv")

		_, err := readSource(context.Background(), path, "missing", "")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		_, err := readSource(context.Background(), "data.json", "data", "")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("sheet given for a non-XLSX source", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"data.csv", "data.tsv"} {
			_, err := readSource(context.Background(), path, "data", "Sheet1")
			assert.ErrorIs(t, err, ErrInvalidArgumentCombination, path)
		}
	})

	t.Run("empty CSV file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.csv")
		writeTestFile(t, path, "")

		_, err := readSource(context.Background(), path, "empty", "")
		assert.ErrorIs(t, err, ErrEmptyData)
	})
}

func TestReadSource_Parquet(t *testing.T) {
	t.Parallel()

	t.Run("parquet file with nulls", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "trees.parquet")
		createTestParquet(t, path, true)

		tbl, err := readSource(context.Background(), path, "trees", "")
		require.NoError(t, err)

		assert.Equal(t, model.NewHeader([]string{"id", "species", "height"}), tbl.Header())
		require.Len(t, tbl.Records(), 3)
		assert.Equal(t, model.NewRecord([]string{"1", "oak", "21.5"}), tbl.Records()[0])
		assert.Equal(t, model.NewRecord([]string{"2", "walnut", "18"}), tbl.Records()[1])
		// Null height becomes an empty string.
		assert.Equal(t, model.NewRecord([]string{"3", "birch", ""}), tbl.Records()[2])
	})

	t.Run("parquet file without rows fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.parquet")
		createTestParquet(t, path, false)

		_, err := readSource(context.Background(), path, "empty", "")
		assert.ErrorIs(t, err, ErrEmptyData)
	})
}

func TestFormatArrowValue(t *testing.T) {
	t.Parallel()

	pool := memory.NewGoAllocator()

	t.Run("boolean array", func(t *testing.T) {
		t.Parallel()
		builder := array.NewBooleanBuilder(pool)
		defer builder.Release()
		builder.Append(true)
		builder.AppendNull()
		arr := builder.NewBooleanArray()
		defer arr.Release()

		assert.Equal(t, "true", formatArrowValue(arr, 0))
		assert.Equal(t, "", formatArrowValue(arr, 1), "null should become empty string")
	})

	t.Run("integer arrays", func(t *testing.T) {
		t.Parallel()
		int64Builder := array.NewInt64Builder(pool)
		defer int64Builder.Release()
		int64Builder.Append(-42)
		int64Arr := int64Builder.NewInt64Array()
		defer int64Arr.Release()

		assert.Equal(t, "-42", formatArrowValue(int64Arr, 0))

		uint32Builder := array.NewUint32Builder(pool)
		defer uint32Builder.Release()
		uint32Builder.Append(7)
		uint32Arr := uint32Builder.NewUint32Array()
		defer uint32Arr.Release()

		assert.Equal(t, "7", formatArrowValue(uint32Arr, 0))
	})

	t.Run("float arrays", func(t *testing.T) {
		t.Parallel()
		float32Builder := array.NewFloat32Builder(pool)
		defer float32Builder.Release()
		float32Builder.Append(3.14159)
		float32Arr := float32Builder.NewFloat32Array()
		defer float32Arr.Release()

		assert.Equal(t, "3.14159", formatArrowValue(float32Arr, 0))

		float64Builder := array.NewFloat64Builder(pool)
		defer float64Builder.Release()
		float64Builder.Append(2.718281828459045)
		float64Arr := float64Builder.NewFloat64Array()
		defer float64Arr.Release()

		assert.Equal(t, "2.718281828459045", formatArrowValue(float64Arr, 0))
	})

	t.Run("string array", func(t *testing.T) {
		t.Parallel()
		builder := array.NewStringBuilder(pool)
		defer builder.Release()
		builder.Append("Hello, World!")
		builder.Append("")
		builder.AppendNull()
		arr := builder.NewStringArray()
		defer arr.Release()

		assert.Equal(t, "Hello, World!", formatArrowValue(arr, 0))
		assert.Equal(t, "", formatArrowValue(arr, 1))
		assert.Equal(t, "", formatArrowValue(arr, 2))
	})

	t.Run("binary array", func(t *testing.T) {
		t.Parallel()
		builder := array.NewBinaryBuilder(pool, arrow.BinaryTypes.Binary)
		defer builder.Release()
		builder.Append([]byte("binary data"))
		arr := builder.NewBinaryArray()
		defer arr.Release()

		assert.Equal(t, "binary data", formatArrowValue(arr, 0))
	})

	t.Run("date and timestamp arrays keep raw numeric form", func(t *testing.T) {
		t.Parallel()
		date32Builder := array.NewDate32Builder(pool)
		defer date32Builder.Release()
		date32Builder.Append(arrow.Date32(18628))
		date32Arr := date32Builder.NewDate32Array()
		defer date32Arr.Release()

		assert.Equal(t, "18628", formatArrowValue(date32Arr, 0))

		timestampBuilder := array.NewTimestampBuilder(pool, &arrow.TimestampType{Unit: arrow.Millisecond})
		defer timestampBuilder.Release()
		timestampBuilder.Append(arrow.Timestamp(1609459200000))
		timestampArr := timestampBuilder.NewTimestampArray()
		defer timestampArr.Release()

		assert.Equal(t, "1609459200000", formatArrowValue(timestampArr, 0))
	})
}

// writeTestFile writes content to path
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// testSheet describes one worksheet of a test workbook
type testSheet struct {
	name string
	rows [][]any
}

// createTestWorkbook writes an XLSX file with the given sheets in order
func createTestWorkbook(t *testing.T, path string, sheets []testSheet) {
	t.Helper()

	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, file.SetSheetName("Sheet1", sheet.name))
		} else {
			_, err := file.NewSheet(sheet.name)
			require.NoError(t, err)
		}

		for r, row := range sheet.rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, file.SetCellValue(sheet.name, cell, value))
			}
		}
	}

	require.NoError(t, file.SaveAs(path))
}

// createTestParquet writes a small parquet file. With rows set, it holds
// three records and one null value; otherwise only the schema.
func createTestParquet(t *testing.T, path string, rows bool) {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "species", Type: arrow.BinaryTypes.String},
		{Name: "height", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	if rows {
		builder.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
		builder.Field(1).(*array.StringBuilder).AppendValues([]string{"oak", "walnut", "birch"}, nil)
		heightBuilder := builder.Field(2).(*array.Float64Builder)
		heightBuilder.Append(21.5)
		heightBuilder.Append(18)
		heightBuilder.AppendNull()
	}

	record := builder.NewRecord()
	defer record.Release()

	arrowTable := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer arrowTable.Release()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	require.NoError(t, pqarrow.WriteTable(arrowTable, file, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()))
}
