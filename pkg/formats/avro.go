package formats

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	goavro "github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/prism/pkg/errors"
)

// avroReader reads Avro object container files. Columns come from the
// writer schema's record fields, in schema order.
type avroReader struct {
	ocf    *goavro.OCFReader
	header []string
	done   bool
}

func newAvroReader(r io.Reader) (*avroReader, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "cannot read Avro container file")
	}

	// Field order is not preserved by the codec API, so take it from the
	// schema document itself.
	var schema struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := gojson.Unmarshal([]byte(ocf.Codec().Schema()), &schema); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "cannot parse Avro schema")
	}
	if len(schema.Fields) == 0 {
		return nil, errors.New(errors.ErrorTypeFormat, "Avro schema is not a record with fields")
	}

	header := make([]string, len(schema.Fields))
	for i, field := range schema.Fields {
		header[i] = field.Name
	}

	return &avroReader{ocf: ocf, header: header}, nil
}

func (a *avroReader) Header() []string {
	return a.header
}

func (a *avroReader) Next() ([]string, error) {
	if a.done {
		return nil, io.EOF
	}

	if !a.ocf.Scan() {
		a.done = true
		if err := a.ocf.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "error reading Avro input")
		}
		return nil, io.EOF
	}

	datum, err := a.ocf.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "error reading Avro record")
	}

	record, ok := datum.(map[string]interface{})
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeFormat, "unexpected Avro record type %T", datum)
	}

	row := make([]string, len(a.header))
	for i, col := range a.header {
		if v, exists := record[col]; exists {
			row[i] = renderAvroValue(v)
		}
	}
	return row, nil
}

func (a *avroReader) Close() error {
	a.done = true
	return nil
}

// renderAvroValue renders a decoded Avro value to a cell string. Unions
// decode as single-entry {"type": value} maps and unwrap to the value.
func renderAvroValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]interface{}:
		for _, inner := range val {
			return renderAvroValue(inner)
		}
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// avroFieldName matches names the Avro specification allows for fields.
var avroFieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// avroWriter writes an Avro object container file with an all-string
// record schema derived from the header. The schema is committed on
// WriteHeader, so column names must be valid Avro field names.
type avroWriter struct {
	out    io.Writer
	ocf    *goavro.OCFWriter
	header []string
}

func newAvroWriter(w io.Writer) *avroWriter {
	return &avroWriter{out: w}
}

func (a *avroWriter) WriteHeader(header []string) error {
	fields := make([]string, len(header))
	for i, col := range header {
		if !avroFieldName.MatchString(col) {
			return errors.Newf(errors.ErrorTypeFormat, "column %q is not a valid Avro field name", col)
		}
		fields[i] = fmt.Sprintf(`{"name":%q,"type":"string"}`, col)
	}
	schema := fmt.Sprintf(`{"type":"record","name":"Row","fields":[%s]}`, strings.Join(fields, ","))

	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:      a.out,
		Schema: schema,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "cannot create Avro writer")
	}

	a.ocf = ocf
	a.header = header
	return nil
}

func (a *avroWriter) WriteRow(row []string) error {
	if a.ocf == nil {
		return errors.New(errors.ErrorTypeInternal, "Avro writer used before WriteHeader")
	}

	record := make(map[string]interface{}, len(a.header))
	for i, col := range a.header {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		record[col] = cell
	}

	if err := a.ocf.Append([]interface{}{record}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "error writing Avro record")
	}
	return nil
}

func (a *avroWriter) Close() error {
	return nil
}
