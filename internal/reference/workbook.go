package reference

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "tsgen/internal/errors"
)

// ReadWideWorkbook reads the wide layout from an XLSX workbook. With no
// sheet name the first sheet containing a "Country Name" header is used,
// which matches the "Data" sheet of World Bank downloads.
func ReadWideWorkbook(path, sheet string) (*WideTable, error) {
	rows, err := workbookRows(path, sheet, func(rows [][]string) bool {
		for _, row := range rows {
			if len(row) > 0 && strings.TrimSpace(row[0]) == keyHeader {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return parseWideRows(rows)
}

// ReadMonthlyWorkbook reads period/value rows from an XLSX workbook.
func ReadMonthlyWorkbook(path, sheet string) (*Series, error) {
	rows, err := workbookRows(path, sheet, func(rows [][]string) bool {
		return len(rows) > 0
	})
	if err != nil {
		return nil, err
	}
	return parseMonthlyRows(rows)
}

func workbookRows(path, sheet string, accept func([][]string) bool) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if sheet != "" {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
		}
		return rows, nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err == nil && accept(rows) {
			return rows, nil
		}
	}
	return nil, apperrors.NewParsingError(fmt.Sprintf("no usable sheet in %s", path), nil)
}
