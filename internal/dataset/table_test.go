package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNew(t *testing.T) {
	t.Run("valid columns", func(t *testing.T) {
		tbl, err := New([]string{"date", "sex", "age"})
		require.NoError(t, err)
		assert.Equal(t, []string{"date", "sex", "age"}, tbl.Columns())
		assert.True(t, tbl.HasColumn("sex"))
		assert.False(t, tbl.HasColumn("region"))
		assert.Equal(t, 0, tbl.NumRows())
	})

	t.Run("duplicate column", func(t *testing.T) {
		_, err := New([]string{"date", "date"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("empty column name", func(t *testing.T) {
		_, err := New([]string{"date", " "})
		require.Error(t, err)
	})

	t.Run("no columns", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
	})
}

func TestAppendAndAccess(t *testing.T) {
	tbl, err := New([]string{"date", "sex"})
	require.NoError(t, err)

	require.NoError(t, tbl.AppendRow([]string{"2024-01-01", "M"}))
	tbl.AppendRecord(map[string]string{"sex": "F"}) // date missing

	require.Equal(t, 2, tbl.NumRows())

	v, ok := tbl.Value(0, "date")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", v)

	v, ok = tbl.Value(1, "date")
	require.True(t, ok)
	assert.True(t, IsMissing(v))

	_, ok = tbl.Value(0, "region")
	assert.False(t, ok)

	col, err := tbl.Column("sex")
	require.NoError(t, err)
	assert.Equal(t, []string{"M", "F"}, col)

	_, err = tbl.Column("region")
	require.Error(t, err)

	err = tbl.AppendRow([]string{"too", "many", "cells"})
	require.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	t.Run("well-formed input", func(t *testing.T) {
		input := "date,sex,age\n2024-01-01,M,34\n2024-01-02,F,\n"

		tbl, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, []string{"date", "sex", "age"}, tbl.Columns())
		assert.Equal(t, 2, tbl.NumRows())

		v, _ := tbl.Value(1, "age")
		assert.True(t, IsMissing(v))
	})

	t.Run("short rows are padded", func(t *testing.T) {
		input := "date,sex\n2024-01-01\n"

		tbl, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, 1, tbl.NumRows())

		v, _ := tbl.Value(0, "sex")
		assert.True(t, IsMissing(v))
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		require.Error(t, err)
	})
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linelist.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"date", "sex"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2024-01-01", "M"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2024-01-08"})) // sex missing
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := LoadXLSX(path, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "sex"}, tbl.Columns())
	require.Equal(t, 2, tbl.NumRows())

	v, _ := tbl.Value(0, "sex")
	assert.Equal(t, "M", v)
	v, _ = tbl.Value(1, "sex")
	assert.True(t, IsMissing(v))
}

func TestFromRecords(t *testing.T) {
	tbl, err := FromRecords([]string{"d", "sex"}, []map[string]string{
		{"d": "2024-01-01", "sex": "M"},
		{"d": "2024-01-08"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.NumRows())

	v, _ := tbl.Value(1, "sex")
	assert.True(t, IsMissing(v))
}
