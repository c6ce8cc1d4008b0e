package datasource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morandi/jstore/pkg/dao"
)

func TestDecodeBytesArray(t *testing.T) {
	raw := []byte(`[{"id":"1","name":"Alice"},{"id":"2","name":"Bob"}]`)
	rows, err := DecodeBytes(raw, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0]["name"])
	assert.Equal(t, "2", rows[1]["id"])
}

func TestDecodeBytesObjectStream(t *testing.T) {
	raw := []byte(`{"id":"1"}
{"id":"2"}`)
	rows, err := DecodeBytes(raw, false)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDecodeBytesJSONL(t *testing.T) {
	raw := []byte(`{"id":"1"}

{"id":"2"}
`)
	rows, err := DecodeBytes(raw, true)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDecodeBytesMalformed(t *testing.T) {
	raw := []byte(`[{"id": "1"}, {"id": `)
	_, err := DecodeBytes(raw, false)

	var derr *dao.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, raw, derr.Raw)
	assert.ErrorIs(t, err, dao.ErrDataAccess)
}

func TestDecodeBytesMalformedJSONLCarriesLine(t *testing.T) {
	raw := []byte("{\"id\":\"1\"}\nnot json\n")
	_, err := DecodeBytes(raw, true)

	var derr *dao.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, []byte("not json"), derr.Raw)
}

func TestDecoderInlineJSON(t *testing.T) {
	d, err := NewDecoder(`[{"id":"1"}]`)
	require.NoError(t, err)
	defer d.Close()

	row, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, "1", row["id"])
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDecodeFileMalformedCarriesRaw(t *testing.T) {
	raw := []byte(`[{"id": "1"}, {"id": `)
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err := DecodeFile(path)
	var derr *dao.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, raw, derr.Raw)
	assert.ErrorIs(t, err, dao.ErrDataAccess)
}

func TestDecodeFileMalformedInlineCarriesRaw(t *testing.T) {
	source := `[{"id": "1"}, {"id": `
	_, err := DecodeFile(source)
	var derr *dao.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, []byte(source), derr.Raw)
}

func TestWriteFileRoundTrip(t *testing.T) {
	rows := []dao.Row{
		{"id": "1", "name": "Alice"},
		{"id": "2", "name": "Bob"},
	}

	t.Run("json array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, WriteFile(path, rows))
		got, err := DecodeFile(path)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("jsonl", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.jsonl")
		require.NoError(t, WriteFile(path, rows))
		got, err := DecodeFile(path)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("empty json file decodes to no rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
		got, err := DecodeFile(path)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSliceSource(t *testing.T) {
	rows := []dao.Row{{"id": "1"}, {"id": "2"}}

	t.Run("without total", func(t *testing.T) {
		s := NewSliceSource(rows)
		assert.Equal(t, 2, s.Count())
		_, ok := s.TotalCount()
		assert.False(t, ok)
	})

	t.Run("paged", func(t *testing.T) {
		s := NewPagedSource(rows, 9)
		total, ok := s.TotalCount()
		assert.True(t, ok)
		assert.Equal(t, 9, total)

		row, err := s.RowAt(1)
		require.NoError(t, err)
		assert.Equal(t, "2", row["id"])

		_, err = s.RowAt(2)
		assert.Error(t, err)
	})
}
