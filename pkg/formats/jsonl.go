package formats

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/prism/pkg/errors"
)

// maxJSONLineSize bounds a single JSON Lines record.
const maxJSONLineSize = 16 * 1024 * 1024

// jsonlReader reads newline-delimited JSON objects. The column set is the
// sorted key set of the first object; later objects are projected onto it,
// with absent keys reading as empty cells.
type jsonlReader struct {
	scanner *bufio.Scanner
	header  []string
	first   []string
	line    int
	done    bool
}

func newJSONLReader(r io.Reader) (*jsonlReader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLineSize)

	jr := &jsonlReader{scanner: scanner}

	// Read ahead to the first object to learn the columns.
	record, err := jr.scan()
	if err == io.EOF {
		jr.done = true
		return jr, nil
	}
	if err != nil {
		return nil, err
	}

	jr.header = make([]string, 0, len(record))
	for k := range record {
		jr.header = append(jr.header, k)
	}
	sort.Strings(jr.header)

	jr.first = jr.project(record)
	return jr, nil
}

// scan advances to the next non-empty line and decodes it.
func (j *jsonlReader) scan() (map[string]interface{}, error) {
	for j.scanner.Scan() {
		j.line++
		line := strings.TrimSpace(j.scanner.Text())
		if line == "" {
			continue
		}

		var record map[string]interface{}
		if err := gojson.Unmarshal([]byte(line), &record); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeParse, "invalid JSON on line %d", j.line)
		}
		return record, nil
	}

	if err := j.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "error reading JSON input")
	}
	return nil, io.EOF
}

func (j *jsonlReader) project(record map[string]interface{}) []string {
	row := make([]string, len(j.header))
	for i, col := range j.header {
		if v, ok := record[col]; ok {
			row[i] = renderJSONValue(v)
		}
	}
	return row
}

func (j *jsonlReader) Header() []string {
	return j.header
}

func (j *jsonlReader) Next() ([]string, error) {
	if j.first != nil {
		row := j.first
		j.first = nil
		return row, nil
	}
	if j.done {
		return nil, io.EOF
	}

	record, err := j.scan()
	if err == io.EOF {
		j.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}

	return j.project(record), nil
}

func (j *jsonlReader) Close() error {
	j.done = true
	j.first = nil
	return nil
}

// renderJSONValue renders a decoded JSON value to a cell string. Whole
// numbers render without a fractional part; nested values render as JSON.
func renderJSONValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := gojson.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// jsonlWriter writes one JSON object per row, keyed by the header columns
// in order.
type jsonlWriter struct {
	writer *bufio.Writer
	header []string
}

func newJSONLWriter(w io.Writer) *jsonlWriter {
	return &jsonlWriter{writer: bufio.NewWriter(w)}
}

func (j *jsonlWriter) WriteHeader(header []string) error {
	j.header = header
	return nil
}

func (j *jsonlWriter) WriteRow(row []string) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range j.header {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := gojson.Marshal(col)
		if err != nil {
			return errors.Wrapf(err, errors.ErrorTypeInternal, "cannot encode column name %q", col)
		}
		buf.Write(key)
		buf.WriteByte(':')

		var cell string
		if i < len(row) {
			cell = row[i]
		}
		value, err := gojson.Marshal(cell)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "cannot encode cell value")
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	buf.WriteByte('\n')

	if _, err := j.writer.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "error writing JSON output")
	}
	return nil
}

func (j *jsonlWriter) Close() error {
	if err := j.writer.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "error flushing JSON output")
	}
	return nil
}
