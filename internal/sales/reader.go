package sales

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DetailSheet is the worksheet read from spreadsheet exports.
const DetailSheet = "Detalle"

// ReadCSV reads a comma-delimited table whose first record is the header.
// A leading UTF-8 byte order mark is ignored and rows may vary in width.
func ReadCSV(r io.Reader) (RawTable, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	return toTable(records), nil
}

// ReadSpreadsheet reads the named worksheet of an xlsx workbook.
// Cells are read unformatted so dates surface as serial day numbers or ISO text.
func ReadSpreadsheet(r io.Reader, sheet string) (RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return RawTable{}, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	return toTable(rows), nil
}

// ReadFile dispatches on the extension of name.
func ReadFile(name string, r io.Reader, sheet string) (RawTable, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		if sheet == "" {
			sheet = DetailSheet
		}
		return ReadSpreadsheet(r, sheet)
	default:
		return RawTable{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// IsInputError reports whether err stems from the uploaded content rather
// than from infrastructure.
func IsInputError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr) ||
		errors.Is(err, ErrNoValidRows) ||
		errors.Is(err, ErrSheetNotFound) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrUnreadableFile)
}

func toTable(records [][]string) RawTable {
	if len(records) == 0 {
		return RawTable{}
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	return RawTable{Headers: records[0], Rows: rows}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
