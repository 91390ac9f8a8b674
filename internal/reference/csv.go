package reference

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "tsgen/internal/errors"
)

const (
	keyHeader  = "Country Name"
	codeHeader = "Country Code"
	// metadataColumns precede the period columns in the wide layout.
	metadataColumns = 4
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadWideCSV parses the wide layout: Country Name, Country Code, Indicator
// Name, Indicator Code, then one column per year. Preamble lines before the
// header row and a UTF-8 BOM are skipped.
func ReadWideCSV(r io.Reader) (*WideTable, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return parseWideRows(rows)
}

// ReadMonthlyCSV parses headerless YYYY-MM,value[,flag] rows.
func ReadMonthlyCSV(r io.Reader) (*Series, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return parseMonthlyRows(rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV", err)
	}
	return rows, nil
}

func parseWideRows(rows [][]string) (*WideTable, error) {
	header := -1
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == keyHeader {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("no %q header row", keyHeader), nil)
	}

	// Period columns are the header cells that parse as a year; trailing
	// blank columns are common in downloads.
	var cols []int
	table := &WideTable{Codes: make(map[string]string), Values: make(map[string][]float64)}
	for j, cell := range rows[header] {
		if j < metadataColumns {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			continue
		}
		cols = append(cols, j)
		table.Periods = append(table.Periods, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	if len(cols) == 0 {
		return nil, apperrors.NewParsingError("no period columns in header", nil)
	}
	codeCol := indexOf(rows[header], codeHeader)

	for _, row := range rows[header+1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		key := strings.TrimSpace(row[0])
		if _, dup := table.Values[key]; dup {
			return nil, apperrors.NewParsingError(fmt.Sprintf("key %q occurs twice", key), nil)
		}
		values := make([]float64, len(cols))
		for k, j := range cols {
			values[k] = parseCell(row, j)
		}
		table.Keys = append(table.Keys, key)
		table.Values[key] = values
		if codeCol >= 0 && codeCol < len(row) {
			table.Codes[key] = strings.TrimSpace(row[codeCol])
		}
	}
	return table, nil
}

func parseMonthlyRows(rows [][]string) (*Series, error) {
	series := &Series{}
	for i, row := range rows {
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		period, err := time.Parse("2006-01", strings.TrimSpace(row[0]))
		if err != nil {
			if i == 0 {
				// header row
				continue
			}
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d: invalid period %q", i+1, row[0]), err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d: invalid value %q", i+1, row[1]), err)
		}
		if n := len(series.Periods); n > 0 && !period.After(series.Periods[n-1]) {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d: periods must increase", i+1), nil)
		}
		series.Periods = append(series.Periods, period)
		series.Values = append(series.Values, value)
	}
	if len(series.Periods) == 0 {
		return nil, apperrors.NewParsingError("series has no observations", nil)
	}
	return series, nil
}

func parseCell(row []string, j int) float64 {
	if j >= len(row) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func indexOf(row []string, name string) int {
	for j, cell := range row {
		if strings.TrimSpace(cell) == name {
			return j
		}
	}
	return -1
}
