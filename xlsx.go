package sqlonexcel

import (
	"github.com/xuri/excelize/v2"

	"github.com/Matthew-Curry/sql-on-excel/domain/model"
)

// writeXLSX writes a header row and data rows to a new workbook at path,
// using the workbook's default sheet. The parent directory must already
// exist; a query with no rows still produces the header row.
func writeXLSX(path string, header model.Header, records []model.Record) error {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close() // Ignore close error
	}()

	sheetName := file.GetSheetName(0)

	for i, name := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for rowIdx, record := range records {
		for colIdx, value := range record {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	return file.SaveAs(path)
}
