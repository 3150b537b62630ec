package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"dogfriendly-scraper/models"
)

// XLSXDataset writes formatted rows into the first sheet of a workbook.
type XLSXDataset struct {
	SheetName string
}

func (XLSXDataset) Extension() string { return ".xlsx" }

func (x XLSXDataset) WriteDataset(path string, header []string, rows []models.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if x.SheetName != "" && x.SheetName != sheet {
		if err := f.SetSheetName(sheet, x.SheetName); err != nil {
			return fmt.Errorf("xlsx: rename sheet: %w", err)
		}
		sheet = x.SheetName
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		values := row.Values(header)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}
