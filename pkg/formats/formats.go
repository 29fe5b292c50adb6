// Package formats provides tabular readers and writers for the file formats
// Prism pipelines consume and produce.
//
// # Overview
//
// The formats package provides:
//   - Streaming readers for CSV, TSV, JSON Lines, Avro OCF and Parquet
//   - Streaming writers for CSV, TSV, JSON Lines and Avro OCF
//   - Format and compression detection from file extensions
//   - Transparent decompression and compression of file streams
//
// All readers and writers exchange rows as plain []string cell slices with
// a header naming the columns. Type information from richer formats such as
// Avro and Parquet is rendered to strings on read.
//
// # Basic Usage
//
//	r, err := formats.Open("people.csv.gz")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	header := r.Header()
//	for {
//	    row, err := r.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    // process row
//	}
package formats

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/prism/pkg/compression"
	"github.com/ajitpratap0/prism/pkg/errors"
)

// Format identifies a tabular file format.
type Format string

const (
	// CSV is comma-separated values with a header row
	CSV Format = "csv"
	// TSV is tab-separated values with a header row
	TSV Format = "tsv"
	// JSONL is newline-delimited JSON objects
	JSONL Format = "jsonl"
	// Avro is the Avro object container file format
	Avro Format = "avro"
	// Parquet is the Apache Parquet columnar format (read only)
	Parquet Format = "parquet"
)

// formatExtensions maps file extensions to formats.
var formatExtensions = map[string]Format{
	".csv":     CSV,
	".tsv":     TSV,
	".jsonl":   JSONL,
	".ndjson":  JSONL,
	".avro":    Avro,
	".parquet": Parquet,
}

// Reader yields the rows of a tabular input one at a time. Next returns
// io.EOF once the input is exhausted. Close releases the underlying
// resources and is safe to call more than once.
type Reader interface {
	Header() []string
	Next() ([]string, error)
	Close() error
}

// Writer receives a header once, then any number of rows. Close flushes
// buffered output; until Close returns the output may be incomplete.
type Writer interface {
	WriteHeader(header []string) error
	WriteRow(row []string) error
	Close() error
}

// ParseFormat parses a format name as used in configuration files.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case CSV:
		return CSV, nil
	case TSV:
		return TSV, nil
	case JSONL, "ndjson":
		return JSONL, nil
	case Avro:
		return Avro, nil
	case Parquet:
		return Parquet, nil
	default:
		return "", errors.Newf(errors.ErrorTypeFormat, "unsupported format: %s", s)
	}
}

// Detect infers the format and compression of a file from its extension.
// A compression extension such as .gz is stripped before the format
// extension is examined, so "people.csv.gz" detects as CSV with Gzip.
func Detect(path string) (Format, compression.Algorithm, error) {
	name := path
	algo := compression.None

	if a, ok := compression.FromExtension(filepath.Ext(name)); ok {
		algo = a
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	ext := strings.ToLower(filepath.Ext(name))
	format, ok := formatExtensions[ext]
	if !ok {
		return "", compression.None, errors.Newf(errors.ErrorTypeFormat,
			"cannot infer format of %s: unsupported extension %q", path, ext).
			WithDetail("path", path)
	}

	return format, algo, nil
}

// Open opens path for reading, inferring format and compression from the
// file extension. The returned Reader owns the file handle and any
// decompressor, and releases both on Close.
func Open(path string) (Reader, error) {
	format, algo, err := Detect(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrorTypeNotFound, "no such file: %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "cannot open %s", path)
	}

	closers := []io.Closer{f}

	// Parquet needs random access; read uncompressed files in place
	// instead of buffering them through the stream path.
	if format == Parquet && algo == compression.None {
		r, err := newParquetFileReader(f)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		return &ownedReader{Reader: r, closers: closers}, nil
	}

	var src io.Reader = f
	if algo != compression.None {
		dec, err := compression.NewReader(f, algo)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		closers = append(closers, dec)
		src = dec
	}

	r, err := NewReader(src, format)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	return &ownedReader{Reader: r, closers: closers}, nil
}

// NewReader wraps r with a format reader. The header is read during
// construction, so a malformed input fails here rather than on the first
// Next call. The caller retains ownership of r.
func NewReader(r io.Reader, format Format) (Reader, error) {
	switch format {
	case CSV:
		return newCSVReader(r, ',')
	case TSV:
		return newCSVReader(r, '\t')
	case JSONL:
		return newJSONLReader(r)
	case Avro:
		return newAvroReader(r)
	case Parquet:
		return newParquetReader(r)
	default:
		return nil, errors.Newf(errors.ErrorTypeFormat, "unsupported format: %s", format)
	}
}

// Create opens path for writing, inferring format and compression from the
// file extension and creating parent directories as needed. The returned
// Writer owns the file handle and any compressor, and releases both on
// Close.
func Create(path string) (Writer, error) {
	return CreateLevel(path, compression.Default)
}

// CreateLevel is Create with an explicit compression level. The level is
// ignored when the extension selects no compression.
func CreateLevel(path string, level compression.Level) (Writer, error) {
	format, algo, err := Detect(path)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeIO, "cannot create directory %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "cannot create %s", path)
	}

	closers := []io.Closer{f}

	var dst io.Writer = f
	if algo != compression.None {
		enc, err := compression.NewWriter(f, algo, level)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		closers = append(closers, enc)
		dst = enc
	}

	w, err := NewWriter(dst, format)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	return &ownedWriter{Writer: w, closers: closers}, nil
}

// NewWriter wraps w with a format writer. The caller retains ownership
// of w. Parquet output is not supported.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case CSV:
		return newCSVWriter(w, ','), nil
	case TSV:
		return newCSVWriter(w, '\t'), nil
	case JSONL:
		return newJSONLWriter(w), nil
	case Avro:
		return newAvroWriter(w), nil
	case Parquet:
		return nil, errors.New(errors.ErrorTypeFormat, "parquet output is not supported")
	default:
		return nil, errors.Newf(errors.ErrorTypeFormat, "unsupported format: %s", format)
	}
}

// ownedReader closes the file handle and decompressor behind a Reader.
type ownedReader struct {
	Reader
	closers []io.Closer
}

func (o *ownedReader) Close() error {
	err := o.Reader.Close()
	if cerr := closeAll(o.closers); err == nil {
		err = cerr
	}
	o.closers = nil
	return err
}

// ownedWriter closes the compressor and file handle behind a Writer.
type ownedWriter struct {
	Writer
	closers []io.Closer
}

func (o *ownedWriter) Close() error {
	err := o.Writer.Close()
	if cerr := closeAll(o.closers); err == nil {
		err = cerr
	}
	o.closers = nil
	return err
}

// closeAll closes in reverse order so wrappers flush before the file.
func closeAll(closers []io.Closer) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
