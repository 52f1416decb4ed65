package dataprocessing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"energyforecast/internal/shared/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plant.csv", "\xEF\xBB\xBFDate,Production,Site,Note\n"+
		"2020-01-03,3.5,plant-a,\n"+
		"2020-01-01,1,plant-a,ok\n"+
		"not a date,9,plant-b,late\n"+
		"2020-01-02,,plant-a,x\n"+
		",,,\n")

	tbl, err := LoadTable(context.Background(), path, "Date")
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Production", "Site", "Note"}, tbl.Fields())
	require.Equal(t, 4, tbl.Len(), "blank line dropped")

	// sorted by Date, unparseable timestamp last
	ts0, ok := tbl.Time(0, "Date")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), ts0)
	_, ok = tbl.Time(3, "Date")
	assert.False(t, ok)

	v, ok := tbl.Value(0, "Production")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = tbl.Value(1, "Production")
	assert.False(t, ok, "empty cell is missing")

	site, _ := tbl.Value(0, "Site")
	assert.Equal(t, "plant-a", site)
}

func TestLoadCSVTreatsNATokensAsMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plant.csv", "Date,Production,Site\n"+
		"2020-01-01,1,plant-a\n"+
		"2020-01-02,NaN,NA\n"+
		"2020-01-03,nan,plant-a\n"+
		"2020-01-04,N/A,plant-a\n"+
		"2020-01-05,null,plant-a\n"+
		"2020-01-06,inf,plant-a\n"+
		"2020-01-07,7,plant-a\n")

	tbl, err := LoadTable(context.Background(), path, "Date")
	require.NoError(t, err)
	require.Equal(t, 7, tbl.Len())

	values, valid := tbl.Floats("Production")
	assert.Equal(t, []bool{true, false, false, false, false, false, true}, valid)
	assert.Equal(t, 7.0, values[6])

	for i := 1; i <= 5; i++ {
		assert.Nil(t, tbl.Row(i)["Production"], "row %d", i)
	}
	assert.Nil(t, tbl.Row(1)["Site"], "NA in a text column is missing")
	assert.Equal(t, 1.0, tbl.Row(0)["Production"], "column still typed as float")
}

func TestLoadWithoutTimeFieldKeepsFileOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plant.csv", "Timestamp,Production\n2020-01-02,2\n2020-01-01,1\n")

	tbl, err := LoadTable(context.Background(), path, "Date")
	require.NoError(t, err)

	assert.False(t, tbl.HasField("Date"))
	first, _ := tbl.Value(0, "Timestamp")
	assert.Equal(t, "2020-01-02", first)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(dir, "absent.csv"), os.ErrNotExist},
		{"unsupported extension", writeFile(t, dir, "plant.json", "{}"), ErrUnsupportedFormat},
		{"empty file", writeFile(t, dir, "empty.csv", ""), ErrNoData},
		{"header only", writeFile(t, dir, "header.csv", "Date,Production\n"), ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable(context.Background(), tt.path, "Date")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Date", "Production", "Site"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"2021-05-02", 20.5, "plant-b"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"2021-05-01", 10, "plant-b"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := LoadTable(context.Background(), path, "Date")
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Production", "Site"}, tbl.Fields())
	require.Equal(t, 2, tbl.Len())

	values, valid := tbl.Floats("Production")
	assert.Equal(t, []bool{true, true}, valid)
	assert.Equal(t, []float64{10, 20.5}, values)
}

type parquetReading struct {
	Date       string  `parquet:"Date"`
	Production float64 `parquet:"Production"`
	Units      int64   `parquet:"Units"`
	Site       string  `parquet:"Site"`
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.parquet")
	require.NoError(t, parquet.WriteFile(path, []parquetReading{
		{Date: "2022-02-02", Production: 2.5, Units: 20, Site: "plant-c"},
		{Date: "2022-02-01", Production: 1.5, Units: 10, Site: "plant-c"},
	}))

	tbl, err := LoadTable(context.Background(), path, "Date")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Date", "Production", "Units", "Site"}, tbl.Fields())
	require.Equal(t, 2, tbl.Len())

	ts, ok := tbl.Time(0, "Date")
	require.True(t, ok)
	assert.Equal(t, time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), ts)

	production, _ := tbl.Value(0, "Production")
	assert.Equal(t, 1.5, production)
	units, _ := tbl.Value(0, "Units")
	assert.Equal(t, int64(10), units)
}

func TestLoadDirectoryConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "Date,Production,Weather\n2020-01-04,4,rain\n2020-01-03,3,sun\n")
	writeFile(t, dir, "a.csv", "Date,Production\n2020-01-02,2\n2020-01-01,1\n")
	writeFile(t, dir, "README.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	tbl, err := NewLoader(nil).WithConcurrency(2).Load(context.Background(), dir, "Date")
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Production", "Weather"}, tbl.Fields())
	require.Equal(t, 4, tbl.Len())

	ts := testutil.Timestamps(tbl)
	for i := 1; i < len(ts); i++ {
		assert.True(t, ts[i-1].Before(ts[i]))
	}

	_, ok := tbl.Value(0, "Weather")
	assert.False(t, ok, "field absent from a.csv is missing")
}

func TestLoadDirectoryFailsOnBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Date,Production\n2020-01-01,1\n")
	writeFile(t, dir, "b.csv", "Date,Production\n")

	_, err := LoadTable(context.Background(), dir, "Date")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "b.csv")
}

func TestLoadEmptyDirectory(t *testing.T) {
	_, err := LoadTable(context.Background(), t.TempDir(), "Date")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLoadCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plant.csv", "Date,Production\n2020-01-01,1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadTable(ctx, path, "Date")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSupportedFile(t *testing.T) {
	assert.True(t, SupportedFile("data.CSV"))
	assert.True(t, SupportedFile("data.xlsx"))
	assert.True(t, SupportedFile("data.parquet"))
	assert.False(t, SupportedFile("data.xls"))
	assert.False(t, SupportedFile("data"))
}
