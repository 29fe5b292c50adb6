package pipeline

import (
	"io"
	"os"
	"strings"

	"github.com/ajitpratap0/prism/pkg/compression"
	"github.com/ajitpratap0/prism/pkg/errors"
	"github.com/ajitpratap0/prism/pkg/formats"
)

// Target receives a pipeline's output: the headers once, then each row in
// order. Flush closes the target when the pipeline is drained or fails, so
// a target is good for one flush.
type Target interface {
	WriteHeader(headers Headers) error
	WriteRow(row Row) error
	Close() error
}

// Flush drains the pipeline into the target, headers first. The target is
// closed whether the drain succeeds or not; on success, closing flushed
// the output completely. An empty pipeline still writes the header line.
func (p *Pipeline) Flush(t Target) error {
	if err := p.begin(); err != nil {
		t.Close()
		return err
	}
	defer p.Close()

	err := p.flushTo(t)
	if cerr := t.Close(); err == nil {
		err = cerr
	}
	return err
}

func (p *Pipeline) flushTo(t Target) error {
	if err := t.WriteHeader(p.headers); err != nil {
		return err
	}
	for {
		row, _, err := p.src.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := t.WriteRow(row); err != nil {
			return err
		}
	}
}

// FileTarget writes the output to a file, inferring format and compression
// from the extension. The file is created when the headers arrive, so an
// invalid pipeline aborts before touching the filesystem.
type FileTarget struct {
	path  string
	level compression.Level
	w     formats.Writer
}

// NewFileTarget returns a target writing to path. Parent directories are
// created as needed.
func NewFileTarget(path string) *FileTarget {
	return &FileTarget{path: path, level: compression.Default}
}

// WithLevel sets the compression level used when the extension selects a
// compressed output.
func (t *FileTarget) WithLevel(level compression.Level) *FileTarget {
	t.level = level
	return t
}

func (t *FileTarget) WriteHeader(headers Headers) error {
	w, err := formats.CreateLevel(t.path, t.level)
	if err != nil {
		return err
	}
	t.w = w
	return t.w.WriteHeader(headers.Names())
}

func (t *FileTarget) WriteRow(row Row) error {
	if t.w == nil {
		return errors.New(errors.ErrorTypeInternal, "file target used before WriteHeader")
	}
	return t.w.WriteRow(row)
}

func (t *FileTarget) Close() error {
	if t.w == nil {
		return nil
	}
	err := t.w.Close()
	t.w = nil
	return err
}

// WriterTarget writes the output to an io.Writer in a fixed format. The
// caller retains ownership of the writer.
type WriterTarget struct {
	w formats.Writer
}

// NewWriterTarget returns a target writing to w in the given format.
func NewWriterTarget(w io.Writer, format formats.Format) (*WriterTarget, error) {
	fw, err := formats.NewWriter(w, format)
	if err != nil {
		return nil, err
	}
	return &WriterTarget{w: fw}, nil
}

// NewStdoutTarget returns a target writing CSV to standard output.
func NewStdoutTarget() *WriterTarget {
	t, _ := NewWriterTarget(os.Stdout, formats.CSV)
	return t
}

// NewStderrTarget returns a target writing CSV to standard error.
func NewStderrTarget() *WriterTarget {
	t, _ := NewWriterTarget(os.Stderr, formats.CSV)
	return t
}

func (t *WriterTarget) WriteHeader(headers Headers) error {
	return t.w.WriteHeader(headers.Names())
}

func (t *WriterTarget) WriteRow(row Row) error {
	return t.w.WriteRow(row)
}

func (t *WriterTarget) Close() error {
	return t.w.Close()
}

// StringTarget collects the output as a CSV string in memory.
type StringTarget struct {
	sb strings.Builder
	w  formats.Writer
}

// NewStringTarget returns an empty in-memory target.
func NewStringTarget() *StringTarget {
	t := &StringTarget{}
	t.w, _ = formats.NewWriter(&t.sb, formats.CSV)
	return t
}

func (t *StringTarget) WriteHeader(headers Headers) error {
	return t.w.WriteHeader(headers.Names())
}

func (t *StringTarget) WriteRow(row Row) error {
	return t.w.WriteRow(row)
}

func (t *StringTarget) Close() error {
	return t.w.Close()
}

// String returns what has been written so far. Complete only after the
// flush that filled the target has returned.
func (t *StringTarget) String() string {
	return t.sb.String()
}
