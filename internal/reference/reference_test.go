package reference

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "tsgen/internal/errors"
)

func year(y int) time.Time {
	return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestFileSource_LoadTableCSV(t *testing.T) {
	src := NewFileSource(filepath.Join("testdata", "gdp_per_capita.csv"))

	tbl, err := src.LoadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Netherlands", "Italy", "Belgium", "Germany", "Atlantis"}, tbl.Keys)
	require.Len(t, tbl.Periods, 7)
	assert.True(t, tbl.Periods[0].Equal(year(2014)))
	assert.Equal(t, "NLD", tbl.Codes["Netherlands"])

	v, ok := tbl.Value("Netherlands", year(2015))
	require.True(t, ok)
	assert.Equal(t, 45175.0, v)

	_, ok = tbl.Value("Atlantis", year(2015))
	assert.False(t, ok, "blank cells are missing observations")
	_, ok = tbl.Value("Narnia", year(2015))
	assert.False(t, ok)
}

func TestReadWideCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no header", "a,b,c\n1,2,3\n"},
		{"no periods", "Country Name,Country Code,Indicator Name,Indicator Code\nX,Y,Z,W\n"},
		{"duplicate key", "Country Name,Country Code,Indicator Name,Indicator Code,2015\nX,X,i,c,1\nX,X,i,c,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWideCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, apperrors.ErrParsing)
		})
	}
}

func TestFileSource_LoadSeriesCSV(t *testing.T) {
	src := NewFileSource(filepath.Join("testdata", "eu_prod_index.csv"))

	series, err := src.LoadSeries(context.Background())
	require.NoError(t, err)

	require.Len(t, series.Periods, 27)
	assert.True(t, series.Periods[3].Equal(year(2018)))
	assert.Equal(t, 105.9, series.Values[3])
}

func TestReadMonthlyCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad value", "2018-01,abc\n"},
		{"bad period", "2018-01,1\nJanuary,2\n"},
		{"not increasing", "2018-02,1\n2018-01,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMonthlyCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, apperrors.ErrParsing)
		})
	}
}

func TestReadMonthlyCSV_SkipsHeader(t *testing.T) {
	series, err := ReadMonthlyCSV(strings.NewReader("period,value\n2018-01,100\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, series.Values)
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).LoadTable(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeStorage, appErr.Type)
}

func TestFileSource_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdp.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]interface{}{"Data Source", "World Development Indicators"}))
	require.NoError(t, f.SetSheetRow("Data", "A3", &[]interface{}{"Country Name", "Country Code", "Indicator Name", "Indicator Code", "2015", "2016"}))
	require.NoError(t, f.SetSheetRow("Data", "A4", &[]interface{}{"Netherlands", "NLD", "GDP", "NY", 45175, 46039}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"notes"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := NewFileSource(path).LoadTable(context.Background())
	require.NoError(t, err)

	v, ok := tbl.Value("Netherlands", year(2016))
	require.True(t, ok)
	assert.Equal(t, 46039.0, v)
}

func TestForwardFillDaily(t *testing.T) {
	t.Run("annual", func(t *testing.T) {
		dates, values := ForwardFillDaily(
			[]time.Time{year(2019), year(2020)},
			[]float64{1, 2},
			Annual,
		)

		require.Len(t, dates, 365+366)
		assert.Equal(t, 1.0, values[364])
		assert.True(t, dates[365].Equal(year(2020)))
		assert.Equal(t, 2.0, values[365])
		assert.True(t, dates[len(dates)-1].Equal(time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("monthly", func(t *testing.T) {
		jan := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
		dates, values := ForwardFillDaily([]time.Time{jan, jan.AddDate(0, 1, 0)}, []float64{1.059, 1.041}, Monthly)

		require.Len(t, dates, 31+28)
		assert.Equal(t, 1.059, values[30])
		assert.Equal(t, 1.041, values[31])
	})

	t.Run("missing observations are skipped", func(t *testing.T) {
		dates, _ := ForwardFillDaily(
			[]time.Time{year(2019), year(2020)},
			[]float64{math.NaN(), 2},
			Annual,
		)
		require.Len(t, dates, 366)
		assert.True(t, dates[0].Equal(year(2020)))
	})
}
