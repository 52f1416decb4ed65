package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2021, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestNewTableCopiesInputAndCollectsFields(t *testing.T) {
	rows := []Record{
		{"Date": day(1), "Production": 1.5},
		{"Date": day(2), "Production": 2.5, "Weather": "sunny", "Load": 10.0},
	}
	fields := []string{"Date", "Production"}

	tbl := NewTable(fields, rows)

	assert.Equal(t, []string{"Date", "Production", "Load", "Weather"}, tbl.Fields())
	assert.Equal(t, 2, tbl.Len())

	rows[0]["Production"] = 99.0
	fields[0] = "Changed"
	v, ok := tbl.Value(0, "Production")
	require.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.True(t, tbl.HasField("Date"))
	assert.False(t, tbl.HasField("Changed"))
}

func TestValueTreatsNilAsMissing(t *testing.T) {
	tbl := NewTable([]string{"Date", "Production"}, []Record{{"Date": day(1), "Production": nil}})

	_, ok := tbl.Value(0, "Production")
	assert.False(t, ok)
	_, ok = tbl.Value(0, "Unknown")
	assert.False(t, ok)
}

func TestSortByTime(t *testing.T) {
	tbl := NewTable([]string{"Date", "id"}, []Record{
		{"Date": day(3), "id": "c"},
		{"Date": nil, "id": "missing-1"},
		{"Date": day(1), "id": "a"},
		{"Date": day(3), "id": "c2"},
		{"Date": "2021-03-02", "id": "b"},
		{"Date": "not a date", "id": "missing-2"},
	})

	sorted := tbl.SortByTime("Date")

	var ids []any
	for _, r := range sorted.Records() {
		ids = append(ids, r["id"])
	}
	assert.Equal(t, []any{"a", "b", "c", "c2", "missing-1", "missing-2"}, ids)

	// original order is untouched
	first, _ := tbl.Value(0, "id")
	assert.Equal(t, "c", first)
}

func TestSliceClampsBounds(t *testing.T) {
	tbl := NewTable([]string{"n"}, []Record{{"n": 0.0}, {"n": 1.0}, {"n": 2.0}})

	tests := []struct {
		name       string
		start, end int
		want       int
	}{
		{"full", 0, 3, 3},
		{"middle", 1, 2, 1},
		{"end past length", 2, 10, 1},
		{"negative start", -4, 1, 1},
		{"inverted", 2, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tbl.Slice(tt.start, tt.end)
			assert.Equal(t, tt.want, s.Len())
			assert.Equal(t, []string{"n"}, s.Fields())
		})
	}
}

func TestFilterAndWithColumn(t *testing.T) {
	tbl := NewTable([]string{"n"}, []Record{{"n": 1.0}, {"n": 2.0}, {"n": 3.0}})

	odd := tbl.Filter(func(i int) bool {
		v, _ := tbl.Value(i, "n")
		return int(v.(float64))%2 == 1
	})
	assert.Equal(t, 2, odd.Len())

	doubled, err := tbl.WithColumn("double", []any{2.0, 4.0, 6.0})
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "double"}, doubled.Fields())
	assert.Equal(t, []any{2.0, 4.0, 6.0}, doubled.Column("double"))
	assert.False(t, tbl.HasField("double"))

	replaced, err := doubled.WithColumn("n", []any{nil, nil, nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "double"}, replaced.Fields())

	_, err = tbl.WithColumn("short", []any{1.0})
	assert.Error(t, err)
}

func TestFloats(t *testing.T) {
	tbl := NewTable([]string{"v"}, []Record{{"v": 1.5}, {"v": "2.25"}, {"v": nil}, {"v": "n/a"}, {"v": int64(4)}})

	values, valid := tbl.Floats("v")
	assert.Equal(t, []bool{true, true, false, false, true}, valid)
	assert.Equal(t, 1.5, values[0])
	assert.Equal(t, 2.25, values[1])
	assert.Equal(t, 4.0, values[4])
}

func TestAsFloatRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"NaN float", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
		{"NaN string", "NaN"},
		{"inf string", "inf"},
		{"float32 NaN", float32(math.NaN())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := AsFloat(tt.in)
			assert.False(t, ok)
		})
	}

	f, ok := AsFloat(" 3.5 ")
	require.True(t, ok)
	assert.Equal(t, 3.5, f)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2022-12-31", time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"2022-12-31 13:45:00", time.Date(2022, 12, 31, 13, 45, 0, 0, time.UTC), false},
		{"2022-12-31T13:45:00", time.Date(2022, 12, 31, 13, 45, 0, 0, time.UTC), false},
		{"2022-12-31T13:45:00Z", time.Date(2022, 12, 31, 13, 45, 0, 0, time.UTC), false},
		{"12/31/2022", time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"  2022/12/31 ", time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}
