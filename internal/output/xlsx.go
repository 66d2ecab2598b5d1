package output

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// WriteXLSX writes the table as a single spreadsheet sheet.
func (t *Table) WriteXLSX(path, sheetName string) error {
	if sheetName == "" {
		sheetName = "results"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir for %s", path)
	}

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "output: add sheet %q", sheetName)
	}

	header := sheet.AddRow()
	for _, col := range t.Columns {
		header.AddCell().SetString(col)
	}
	for _, row := range t.Rows {
		r := sheet.AddRow()
		for _, val := range row {
			r.AddCell().SetString(val)
		}
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "output: save workbook %s", path)
	}
	zap.L().Info("wrote workbook", zap.String("path", path), zap.Int("rows", len(t.Rows)))
	return nil
}
