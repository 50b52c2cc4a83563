package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

// ReadCSV reads a line list from CSV data. The first record is the header.
// Short records are padded with missing cells; long records are an error.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows handled below
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	tbl, err := New(header)
	if err != nil {
		return nil, fmt.Errorf("build table from CSV header: %w", err)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record at line %d: %w", line+1, err)
		}
		line++

		if len(record) > len(header) {
			return nil, fmt.Errorf("CSV record at line %d has %d fields, header has %d", line, len(record), len(header))
		}
		row := make([]string, len(header))
		copy(row, record)
		if err := tbl.AppendRow(row); err != nil {
			return nil, fmt.Errorf("append CSV record at line %d: %w", line, err)
		}
	}

	return tbl, nil
}

// LoadCSV reads a line list from a CSV file on disk
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	tbl, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	slog.Info("loaded CSV line list",
		slog.String("path", path),
		slog.Int("rows", tbl.NumRows()),
		slog.Int("columns", len(tbl.Columns())))

	return tbl, nil
}

// LoadXLSX reads a line list from an Excel workbook. The first row of the
// chosen sheet is the header. An empty sheet name selects the first sheet.
func LoadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open XLSX file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	tbl, err := New(rows[0])
	if err != nil {
		return nil, fmt.Errorf("build table from sheet %q header: %w", sheet, err)
	}

	for i, record := range rows[1:] {
		if len(record) > len(rows[0]) {
			record = record[:len(rows[0])]
		}
		// excelize drops trailing empty cells, so pad short rows.
		row := make([]string, len(rows[0]))
		copy(row, record)
		if err := tbl.AppendRow(row); err != nil {
			return nil, fmt.Errorf("append XLSX row %d: %w", i+2, err)
		}
	}

	slog.Info("loaded XLSX line list",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", tbl.NumRows()),
		slog.Int("columns", len(tbl.Columns())))

	return tbl, nil
}
