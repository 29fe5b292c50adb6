package formats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/prism/pkg/compression"
	"github.com/ajitpratap0/prism/pkg/errors"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		path   string
		format Format
		algo   compression.Algorithm
	}{
		{"people.csv", CSV, compression.None},
		{"people.CSV", CSV, compression.None},
		{"scores.tsv", TSV, compression.None},
		{"events.jsonl", JSONL, compression.None},
		{"events.ndjson", JSONL, compression.None},
		{"users.avro", Avro, compression.None},
		{"users.parquet", Parquet, compression.None},
		{"people.csv.gz", CSV, compression.Gzip},
		{"people.tsv.zst", TSV, compression.Zstd},
		{"events.jsonl.lz4", JSONL, compression.LZ4},
		{"/data/in/people.csv.s2", CSV, compression.S2},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			format, algo, err := Detect(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.format, format)
			assert.Equal(t, tc.algo, algo)
		})
	}
}

func TestDetectUnknownExtension(t *testing.T) {
	for _, path := range []string{"people.txt", "people", "people.gz", "archive.xlsx"} {
		_, _, err := Detect(path)
		require.Error(t, err, path)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFormat), path)
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"csv":     CSV,
		"CSV":     CSV,
		"tsv":     TSV,
		"jsonl":   JSONL,
		"ndjson":  JSONL,
		"avro":    Avro,
		"parquet": Parquet,
	} {
		format, err := ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, format, name)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "ghost.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateAndOpenRoundTrip(t *testing.T) {
	for _, name := range []string{"plain.csv", "nested/dir/data.tsv", "data.csv.gz", "data.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			w, err := Create(path)
			require.NoError(t, err)
			require.NoError(t, w.WriteHeader([]string{"id", "name"}))
			require.NoError(t, w.WriteRow([]string{"1", "Germany"}))
			require.NoError(t, w.WriteRow([]string{"2", "France"}))
			require.NoError(t, w.Close())

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, []string{"id", "name"}, r.Header())
			assert.Equal(t, [][]string{
				{"1", "Germany"},
				{"2", "France"},
			}, readAll(t, r))
		})
	}
}

func TestCreateUnknownExtension(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "out.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
}

func TestOpenDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	r, err := Open(dir)
	if err == nil {
		// Reading a directory fails on first use at the latest.
		_, err = r.Next()
		r.Close()
	}
	require.Error(t, err)
}
