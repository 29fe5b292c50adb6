package formats

import (
	"bytes"
	"io"
	"os"
	"strconv"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/ajitpratap0/prism/pkg/errors"
)

// parquetReadBatch is the number of rows decoded per ReadRows call.
const parquetReadBatch = 64

// parquetReader reads flat Parquet files row group by row group. Columns
// come from the file schema's leaf fields, in schema order.
type parquetReader struct {
	header []string
	groups []parquet.RowGroup
	group  int
	rows   parquet.Rows
	buf    []parquet.Row
	n      int
	idx    int
	done   bool
}

func newParquetReader(r io.Reader) (*parquetReader, error) {
	// Parquet needs random access; buffer non-seekable inputs.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "error reading Parquet input")
	}
	return openParquet(bytes.NewReader(data), int64(len(data)))
}

func newParquetFileReader(f *os.File) (*parquetReader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "cannot stat Parquet file")
	}
	return openParquet(f, info.Size())
}

func openParquet(r io.ReaderAt, size int64) (*parquetReader, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "cannot read Parquet file")
	}

	fields := file.Schema().Fields()
	header := make([]string, len(fields))
	for i, field := range fields {
		if !field.Leaf() {
			return nil, errors.Newf(errors.ErrorTypeFormat,
				"nested Parquet schemas are not supported: field %q is a group", field.Name())
		}
		header[i] = field.Name()
	}

	return &parquetReader{
		header: header,
		groups: file.RowGroups(),
		buf:    make([]parquet.Row, parquetReadBatch),
	}, nil
}

func (p *parquetReader) Header() []string {
	return p.header
}

func (p *parquetReader) Next() ([]string, error) {
	for {
		if p.idx < p.n {
			row := p.buf[p.idx]
			p.idx++
			return p.render(row), nil
		}
		if p.done {
			return nil, io.EOF
		}

		if p.rows == nil {
			if p.group >= len(p.groups) {
				p.done = true
				return nil, io.EOF
			}
			p.rows = p.groups[p.group].Rows()
			p.group++
		}

		n, err := p.rows.ReadRows(p.buf)
		p.n, p.idx = n, 0
		if err == io.EOF {
			cerr := p.rows.Close()
			p.rows = nil
			if cerr != nil && n == 0 {
				p.done = true
				return nil, errors.Wrap(cerr, errors.ErrorTypeIO, "error reading Parquet row group")
			}
			continue
		}
		if err != nil {
			p.rows.Close()
			p.rows = nil
			p.done = true
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "error reading Parquet rows")
		}
	}
}

func (p *parquetReader) render(row parquet.Row) []string {
	cells := make([]string, len(p.header))
	for _, v := range row {
		if col := v.Column(); col >= 0 && col < len(cells) {
			cells[col] = renderParquetValue(v)
		}
	}
	return cells
}

func (p *parquetReader) Close() error {
	p.done = true
	p.n, p.idx = 0, 0
	if p.rows != nil {
		err := p.rows.Close()
		p.rows = nil
		return err
	}
	return nil
}

// renderParquetValue renders a Parquet value to a cell string using its
// physical type. Nulls render as empty cells.
func renderParquetValue(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}

	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
