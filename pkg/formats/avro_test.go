package formats

import (
	"bytes"
	"strings"
	"testing"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/prism/pkg/errors"
)

func TestAvroRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter(&buf, Avro)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader([]string{"Person", "Score"}))
	require.NoError(t, w.WriteRow([]string{"A", "1"}))
	require.NoError(t, w.WriteRow([]string{"B", "3"}))
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), Avro)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"Person", "Score"}, r.Header())
	assert.Equal(t, [][]string{
		{"A", "1"},
		{"B", "3"},
	}, readAll(t, r))
}

func TestAvroWriterEmpty(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter(&buf, Avro)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader([]string{"a", "b"}))
	require.NoError(t, w.Close())

	// A header with zero rows is still a valid container file.
	r, err := NewReader(bytes.NewReader(buf.Bytes()), Avro)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"a", "b"}, r.Header())
	assert.Empty(t, readAll(t, r))
}

func TestAvroWriterInvalidColumnName(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter(&buf, Avro)
	require.NoError(t, err)

	err = w.WriteHeader([]string{"Full Name"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
	assert.Contains(t, err.Error(), "Full Name")
}

func TestAvroReaderTypedValues(t *testing.T) {
	schema := `{
		"type": "record",
		"name": "User",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "age", "type": "int"},
			{"name": "score", "type": "double"},
			{"name": "active", "type": "boolean"},
			{"name": "nickname", "type": ["null", "string"], "default": null}
		]
	}`

	var buf bytes.Buffer
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{W: &buf, Schema: schema})
	require.NoError(t, err)
	require.NoError(t, ocf.Append([]interface{}{
		map[string]interface{}{
			"name":     "Alice",
			"age":      30,
			"score":    7.25,
			"active":   true,
			"nickname": map[string]interface{}{"string": "Ally"},
		},
		map[string]interface{}{
			"name":     "Bob",
			"age":      25,
			"score":    3.0,
			"active":   false,
			"nickname": nil,
		},
	}))

	r, err := NewReader(bytes.NewReader(buf.Bytes()), Avro)
	require.NoError(t, err)
	defer r.Close()

	// Header follows schema field order, not map order.
	assert.Equal(t, []string{"name", "age", "score", "active", "nickname"}, r.Header())

	rows := readAll(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Alice", "30", "7.25", "true", "Ally"}, rows[0])
	assert.Equal(t, []string{"Bob", "25", "3", "false", ""}, rows[1])
}

func TestAvroReaderGarbage(t *testing.T) {
	_, err := NewReader(strings.NewReader("not an avro file"), Avro)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
}
