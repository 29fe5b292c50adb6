package formats

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/prism/pkg/errors"
)

func TestJSONLReader(t *testing.T) {
	input := `{"name":"Alice","age":30,"active":true}
{"age":25.5,"name":"Bob"}

{"name":"Carol","city":"Berlin"}
`

	r, err := NewReader(strings.NewReader(input), JSONL)
	require.NoError(t, err)
	defer r.Close()

	// Columns are the sorted keys of the first object.
	assert.Equal(t, []string{"active", "age", "name"}, r.Header())

	rows := readAll(t, r)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"true", "30", "Alice"}, rows[0])
	assert.Equal(t, []string{"", "25.5", "Bob"}, rows[1])
	// Keys outside the column set are dropped, absent keys read as empty.
	assert.Equal(t, []string{"", "", "Carol"}, rows[2])
}

func TestJSONLReaderValueRendering(t *testing.T) {
	input := `{"n":9,"f":9.5,"b":false,"s":"x","z":null,"o":{"a":1}}` + "\n"

	r, err := NewReader(strings.NewReader(input), JSONL)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, []string{"b", "f", "n", "o", "s", "z"}, r.Header())

	rows := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"false", "9.5", "9", `{"a":1}`, "x", ""}, rows[0])
}

func TestJSONLReaderEmptyInput(t *testing.T) {
	r, err := NewReader(strings.NewReader(""), JSONL)
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, r.Header())
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestJSONLReaderInvalidLine(t *testing.T) {
	input := `{"a":1}` + "\n" + `{"a":` + "\n"

	r, err := NewReader(strings.NewReader(input), JSONL)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	assert.Contains(t, err.Error(), "line 2")
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter(&buf, JSONL)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader([]string{"name", "note"}))
	require.NoError(t, w.WriteRow([]string{"Alice", `said "hi"`}))
	require.NoError(t, w.WriteRow([]string{"Bob", ""}))
	require.NoError(t, w.Close())

	assert.Equal(t, `{"name":"Alice","note":"said \"hi\""}`+"\n"+`{"name":"Bob","note":""}`+"\n", buf.String())
}

func TestJSONLRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter(&buf, JSONL)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader([]string{"city", "id"}))
	require.NoError(t, w.WriteRow([]string{"Berlin", "1"}))
	require.NoError(t, w.WriteRow([]string{"Paris", "2"}))
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), JSONL)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"city", "id"}, r.Header())
	assert.Equal(t, [][]string{
		{"Berlin", "1"},
		{"Paris", "2"},
	}, readAll(t, r))
}
