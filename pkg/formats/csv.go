package formats

import (
	"encoding/csv"
	"io"

	"github.com/ajitpratap0/prism/pkg/errors"
)

// csvReader reads delimiter-separated values with a leading header row.
type csvReader struct {
	reader *csv.Reader
	header []string
	done   bool
}

func newCSVReader(r io.Reader, delimiter rune) (*csvReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		// An empty input has no columns and no rows.
		return &csvReader{reader: cr, done: true}, nil
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}

	return &csvReader{reader: cr, header: header}, nil
}

func (c *csvReader) Header() []string {
	return c.header
}

func (c *csvReader) Next() ([]string, error) {
	if c.done {
		return nil, io.EOF
	}

	record, err := c.reader.Read()
	if err == io.EOF {
		c.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}

	return record, nil
}

func (c *csvReader) Close() error {
	c.done = true
	return nil
}

func wrapCSVError(err error) error {
	if _, ok := err.(*csv.ParseError); ok {
		return errors.Wrap(err, errors.ErrorTypeParse, "malformed CSV record")
	}
	return errors.Wrap(err, errors.ErrorTypeIO, "error reading CSV input")
}

// csvWriter writes delimiter-separated values with a leading header row,
// quoting cells that contain the delimiter, quotes or newlines.
type csvWriter struct {
	writer *csv.Writer
}

func newCSVWriter(w io.Writer, delimiter rune) *csvWriter {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	return &csvWriter{writer: cw}
}

func (c *csvWriter) WriteHeader(header []string) error {
	return c.WriteRow(header)
}

func (c *csvWriter) WriteRow(row []string) error {
	if err := c.writer.Write(row); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "error writing CSV output")
	}
	return nil
}

func (c *csvWriter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "error flushing CSV output")
	}
	return nil
}
