package sqlonexcel

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"

	"github.com/Matthew-Curry/sql-on-excel/domain/model"
)

// FileType represents supported source file types
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeXLSX represents Excel XLSX file type
	FileTypeXLSX
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// extCSV is the CSV file extension
	extCSV = ".csv"
	// extTSV is the TSV file extension
	extTSV = ".tsv"
	// extXLSX is the Excel XLSX file extension
	extXLSX = ".xlsx"
	// extParquet is the Parquet file extension
	extParquet = ".parquet"
	// extGZ is the gzip compression extension
	extGZ = ".gz"
	// extBZ2 is the bzip2 compression extension
	extBZ2 = ".bz2"
	// extXZ is the xz compression extension
	extXZ = ".xz"
	// extZSTD is the zstd compression extension
	extZSTD = ".zst"
)

// Delimiters for delimited text formats
const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
)

// source represents a data file that can be parsed into a model.Table
type source struct {
	path     string
	fileType FileType
}

// newSource creates a new source
func newSource(path string) *source {
	return &source{
		path:     path,
		fileType: detectFileType(path),
	}
}

// detectFileType detects the base file type from the extension, considering
// compressed files
func detectFileType(path string) FileType {
	basePath := path

	// Remove compression extensions
	if strings.HasSuffix(path, extGZ) {
		basePath = strings.TrimSuffix(path, extGZ)
	} else if strings.HasSuffix(path, extBZ2) {
		basePath = strings.TrimSuffix(path, extBZ2)
	} else if strings.HasSuffix(path, extXZ) {
		basePath = strings.TrimSuffix(path, extXZ)
	} else if strings.HasSuffix(path, extZSTD) {
		basePath = strings.TrimSuffix(path, extZSTD)
	}

	ext := strings.ToLower(filepath.Ext(basePath))
	switch ext {
	case extCSV:
		return FileTypeCSV
	case extTSV:
		return FileTypeTSV
	case extXLSX:
		return FileTypeXLSX
	case extParquet:
		return FileTypeParquet
	default:
		return FileTypeUnsupported
	}
}

// isCompressed returns true if the source is compressed
func (s *source) isCompressed() bool {
	return s.isGZ() || s.isBZ2() || s.isXZ() || s.isZSTD()
}

// isGZ returns true if the source is gzip compressed
func (s *source) isGZ() bool {
	return strings.HasSuffix(s.path, extGZ)
}

// isBZ2 returns true if the source is bzip2 compressed
func (s *source) isBZ2() bool {
	return strings.HasSuffix(s.path, extBZ2)
}

// isXZ returns true if the source is xz compressed
func (s *source) isXZ() bool {
	return strings.HasSuffix(s.path, extXZ)
}

// isZSTD returns true if the source is zstd compressed
func (s *source) isZSTD() bool {
	return strings.HasSuffix(s.path, extZSTD)
}

// openReader opens the source file and returns a reader that handles
// compression
func (s *source) openReader() (io.Reader, func() error, error) {
	file, err := os.Open(s.path) //nolint:gosec // Source path comes from user input by design
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, s.path)
		}
		return nil, nil, err
	}

	var reader io.Reader = file
	closer := file.Close

	if s.isGZ() {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close() // Ignore close error during error handling
			return nil, nil, err
		}
		reader = gzReader
		closer = func() error {
			_ = gzReader.Close() // Ignore close error in cleanup
			return file.Close()
		}
	} else if s.isBZ2() {
		reader = bzip2.NewReader(file)
		closer = file.Close
	} else if s.isXZ() {
		xzReader, err := xz.NewReader(file)
		if err != nil {
			_ = file.Close() // Ignore close error during error handling
			return nil, nil, err
		}
		reader = xzReader
		closer = file.Close
	} else if s.isZSTD() {
		decoder, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close() // Ignore close error during error handling
			return nil, nil, err
		}
		reader = decoder
		closer = func() error {
			decoder.Close()
			return file.Close()
		}
	}

	return reader, closer, nil
}

// readSource parses the file at path into a table named tableName. The sheet
// argument selects a worksheet and is only meaningful for XLSX sources; any
// other format rejects it.
func readSource(ctx context.Context, path, tableName, sheet string) (*model.Table, error) {
	src := newSource(path)

	if src.fileType == FileTypeUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if sheet != "" && src.fileType != FileTypeXLSX {
		return nil, fmt.Errorf("%w: sheet %q given for non-XLSX source %s", ErrInvalidArgumentCombination, sheet, path)
	}

	switch src.fileType {
	case FileTypeCSV:
		return src.parseDelimited(tableName, csvDelimiter)
	case FileTypeTSV:
		return src.parseDelimited(tableName, tsvDelimiter)
	case FileTypeXLSX:
		return src.parseXLSX(tableName, sheet)
	case FileTypeParquet:
		return src.parseParquet(ctx, tableName)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// parseDelimited parses CSV or TSV sources with the specified delimiter
func (s *source) parseDelimited(tableName string, delimiter rune) (*model.Table, error) {
	reader, closer, err := s.openReader()
	if err != nil {
		return nil, err
	}
	defer closer()

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, s.path)
	}

	header := model.NewHeader(records[0])
	tableRecords := make([]model.Record, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		tableRecords = append(tableRecords, model.NewRecord(records[i]))
	}

	return model.NewTable(tableName, header, tableRecords), nil
}

// parseXLSX parses XLSX sources with compression support. An empty sheet
// selects the workbook's first sheet.
func (s *source) parseXLSX(tableName, sheet string) (*model.Table, error) {
	reader, closer, err := s.openReader()
	if err != nil {
		return nil, err
	}
	defer closer()

	// excelize needs random access, so compressed workbooks are buffered in
	// memory first. Uncompressed files open directly from the path.
	var xlsxFile *excelize.File
	if s.isCompressed() {
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, err
		}
		xlsxFile, err = excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	} else {
		xlsxFile, err = excelize.OpenFile(s.path)
		if err != nil {
			return nil, err
		}
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file: %s", s.path)
	}

	sheetName := sheet
	if sheetName == "" {
		sheetName = sheetNames[0]
	} else {
		found := false
		for _, name := range sheetNames {
			if name == sheetName {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found in Excel file: %s", sheetName, s.path)
		}
	}

	rows, err := xlsxFile.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s in %s", ErrEmptyData, sheetName, s.path)
	}

	headers, records := convertSheetRows(rows)
	return model.NewTable(tableName, headers, records), nil
}

// convertSheetRows converts worksheet rows to a table header and records.
// The first row becomes the header; shorter data rows are padded because
// excelize trims trailing empty cells.
func convertSheetRows(rows [][]string) (model.Header, []model.Record) {
	var headers model.Header
	var records []model.Record

	if len(rows) > 0 {
		headers = make(model.Header, len(rows[0]))
		copy(headers, rows[0])
	}

	if len(rows) > 1 {
		records = make([]model.Record, len(rows)-1)
		for i, row := range rows[1:] {
			record := make(model.Record, len(headers))
			for j := range headers {
				if j < len(row) {
					record[j] = row[j]
				} else {
					record[j] = "" // Pad with empty string if row is shorter
				}
			}
			records[i] = record
		}
	}

	return headers, records
}

// parseParquet parses Parquet sources with compression support
func (s *source) parseParquet(ctx context.Context, tableName string) (*model.Table, error) {
	reader, closer, err := s.openReader()
	if err != nil {
		return nil, err
	}
	defer closer()

	// Parquet requires random access, so read everything into memory.
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, s.path)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open parquet file %s: %w", s.path, err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}

	arrowTable, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer arrowTable.Release()

	if arrowTable.NumRows() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, s.path)
	}

	schema := arrowTable.Schema()
	headers := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		headers[i] = field.Name
	}

	tableReader := array.NewTableReader(arrowTable, 0)
	defer tableReader.Release()

	var records []model.Record
	for tableReader.Next() {
		batch := tableReader.Record()

		numRows := batch.NumRows()
		for i := range numRows {
			row := make(model.Record, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = formatArrowValue(col, int(i))
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("read parquet records: %w", err)
	}

	return model.NewTable(tableName, model.NewHeader(headers), records), nil
}

// formatArrowValue converts a single arrow column value to its string form.
// Nulls become empty strings so they load as empty TEXT cells.
func formatArrowValue(col arrow.Array, row int) string {
	if col.IsNull(row) {
		return ""
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(row))
	case *array.Int8:
		return strconv.FormatInt(int64(arr.Value(row)), 10)
	case *array.Int16:
		return strconv.FormatInt(int64(arr.Value(row)), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(row)), 10)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(row), 10)
	case *array.Uint8:
		return strconv.FormatUint(uint64(arr.Value(row)), 10)
	case *array.Uint16:
		return strconv.FormatUint(uint64(arr.Value(row)), 10)
	case *array.Uint32:
		return strconv.FormatUint(uint64(arr.Value(row)), 10)
	case *array.Uint64:
		return strconv.FormatUint(arr.Value(row), 10)
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(row)), 'g', -1, 32)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(row), 'g', -1, 64)
	case *array.String:
		return arr.Value(row)
	case *array.LargeString:
		return arr.Value(row)
	case *array.Binary:
		return string(arr.Value(row))
	case *array.Date32:
		return strconv.FormatInt(int64(arr.Value(row)), 10)
	case *array.Date64:
		return strconv.FormatInt(int64(arr.Value(row)), 10)
	case *array.Timestamp:
		return strconv.FormatInt(int64(arr.Value(row)), 10)
	default:
		return fmt.Sprintf("%v", col.GetOneForMarshal(row))
	}
}
