package pipeline

import (
	"io"

	"github.com/ajitpratap0/prism/pkg/errors"
	"github.com/ajitpratap0/prism/pkg/formats"
)

// MapFunc rewrites a whole row. The returned row must have one cell per
// column of the stage's headers.
type MapFunc func(headers Headers, row Row) (Row, error)

// AddFunc computes the cell of a new column from the row and the headers
// as they were before the addition.
type AddFunc func(headers Headers, row Row) (string, error)

// CellFunc rewrites a single cell.
type CellFunc func(value string) (string, error)

// RowPredicate decides whether to keep a row.
type RowPredicate func(headers Headers, row Row) (bool, error)

// CellPredicate decides whether to keep a row by one of its cells.
type CellPredicate func(value string) (bool, error)

// Pipeline is a lazy chain of row transformations over a single tabular
// source. Combinators stack stages without reading any input; rows start
// flowing only when a terminal (Rows, String, Flush, Run or Iter) pulls
// them, one row at a time.
//
// A pipeline is consumed by use. Invalid construction steps do not fail
// immediately; the first error sticks to the pipeline and surfaces at the
// terminal.
type Pipeline struct {
	headers  Headers
	src      step
	err      error
	closers  []io.Closer
	consumed bool
}

// FromRows builds a pipeline over in-memory rows. The pipeline takes
// ownership of the slice; positions in it become the source row indexes.
func FromRows(header []string, rows []Row) *Pipeline {
	h, err := NewHeaders(header)
	if err != nil {
		return &Pipeline{err: err}
	}
	return &Pipeline{headers: h, src: &rowsStep{rows: rows, width: h.Len()}}
}

// FromReader builds a pipeline over an open format reader. The pipeline
// takes ownership of the reader and closes it when the terminal finishes.
func FromReader(r formats.Reader) *Pipeline {
	h, err := NewHeaders(r.Header())
	if err != nil {
		r.Close()
		return &Pipeline{err: err}
	}
	return &Pipeline{
		headers: h,
		src:     &readerStep{r: r},
		closers: []io.Closer{r},
	}
}

// FromPath builds a pipeline over a file, inferring format and compression
// from the extension. A missing file surfaces as a not_found error, an
// unsupported extension as a format error.
func FromPath(path string) *Pipeline {
	r, err := formats.Open(path)
	if err != nil {
		return &Pipeline{err: err}
	}
	return FromReader(r)
}

// Concat chains pipelines with identical headers into one, draining them
// in argument order. Differing headers fail with a schema_mismatch error
// and no rows are yielded. The constituents are consumed either way.
func Concat(pipelines ...*Pipeline) *Pipeline {
	if len(pipelines) == 0 {
		return &Pipeline{err: errors.New(errors.ErrorTypeValidation, "concat of zero pipelines")}
	}

	out := &Pipeline{}
	srcs := make([]step, 0, len(pipelines))

	for i, p := range pipelines {
		p.consumed = true
		out.closers = append(out.closers, p.closers...)
		p.closers = nil

		if p.err != nil && out.err == nil {
			out.err = p.err
		}
		if out.err != nil {
			continue
		}

		if i == 0 {
			out.headers = p.headers
		} else if !out.headers.Equal(p.headers) {
			out.err = errors.New(errors.ErrorTypeSchemaMismatch,
				"cannot concatenate pipelines with different headers").
				WithDetail("want", out.headers.Names()).
				WithDetail("got", p.headers.Names())
			continue
		}
		srcs = append(srcs, p.src)
	}

	if out.err != nil {
		return out
	}
	out.src = &concatStep{srcs: srcs}
	return out
}

// Headers returns the registry of the pipeline's current output columns.
func (p *Pipeline) Headers() Headers {
	return p.headers
}

// guard reports whether the pipeline can take another stage, recording an
// error if it was already consumed.
func (p *Pipeline) guard() bool {
	if p.err != nil {
		return false
	}
	if p.consumed {
		p.err = errors.New(errors.ErrorTypeValidation, "pipeline already consumed")
		return false
	}
	return true
}

// fail records the first construction error.
func (p *Pipeline) fail(err error) *Pipeline {
	if p.err == nil {
		p.err = err
	}
	return p
}

// Map stacks a stage rewriting whole rows. Errors from fn abort the run,
// tagged with the source row index.
func (p *Pipeline) Map(fn MapFunc) *Pipeline {
	if !p.guard() {
		return p
	}
	p.src = &mapStep{src: p.src, headers: p.headers, fn: fn}
	return p
}

// AddColumn stacks a stage appending a column. fn sees the headers and row
// as they were before the addition. Adding an existing column fails with a
// duplicate_column error.
func (p *Pipeline) AddColumn(name string, fn AddFunc) *Pipeline {
	if !p.guard() {
		return p
	}

	h, err := p.headers.WithAdded(name)
	if err != nil {
		return p.fail(err)
	}

	p.src = &addColumnStep{src: p.src, headers: p.headers, fn: fn}
	p.headers = h
	return p
}

// RenameColumn renames a column in the registry. Rows are untouched, since
// cells are addressed by position.
func (p *Pipeline) RenameColumn(from, to string) *Pipeline {
	if !p.guard() {
		return p
	}

	h, err := p.headers.WithRenamed(from, to)
	if err != nil {
		return p.fail(err)
	}

	p.headers = h
	return p
}

// MapColumn stacks a stage rewriting one column's cells. The column
// position is fixed here: renames applied later do not redirect the
// stage, and a missing column fails now rather than at the terminal's
// first row.
func (p *Pipeline) MapColumn(name string, fn CellFunc) *Pipeline {
	if !p.guard() {
		return p
	}

	col, err := p.headers.Index(name)
	if err != nil {
		return p.fail(err)
	}

	p.src = &mapColumnStep{src: p.src, col: col, fn: fn}
	return p
}

// Filter stacks a stage keeping rows pred accepts. Surviving rows keep
// their original source indexes.
func (p *Pipeline) Filter(pred RowPredicate) *Pipeline {
	if !p.guard() {
		return p
	}
	p.src = &filterStep{src: p.src, headers: p.headers, pred: pred}
	return p
}

// FilterColumn stacks a stage keeping rows whose cell in the named column
// pred accepts. The column position is fixed here, like MapColumn.
func (p *Pipeline) FilterColumn(name string, pred CellPredicate) *Pipeline {
	if !p.guard() {
		return p
	}

	col, err := p.headers.Index(name)
	if err != nil {
		return p.fail(err)
	}

	p.src = &filterColumnStep{src: p.src, col: col, pred: pred}
	return p
}

// Select stacks a stage projecting the rows onto the named columns, in
// the given order. Unknown names fail with a missing_column error,
// repeated names with a duplicate_column error.
func (p *Pipeline) Select(names ...string) *Pipeline {
	if !p.guard() {
		return p
	}

	h, err := NewHeaders(names)
	if err != nil {
		return p.fail(err)
	}

	cols := make([]int, len(names))
	for i, name := range names {
		col, err := p.headers.Index(name)
		if err != nil {
			return p.fail(err)
		}
		cols[i] = col
	}

	p.src = &selectStep{src: p.src, cols: cols}
	p.headers = h
	return p
}

// TransformInto stacks a grouping stage. The transforms' output names
// become the new registry, in declaration order; their keyed sources form
// the grouping key. Groups are emitted in first-seen order, each carrying
// the source index of its first row.
func (p *Pipeline) TransformInto(transforms ...Transform) *Pipeline {
	if !p.guard() {
		return p
	}
	if len(transforms) == 0 {
		return p.fail(errors.New(errors.ErrorTypeValidation, "transform_into needs at least one transformer"))
	}

	names := make([]string, len(transforms))
	for i, tr := range transforms {
		names[i] = tr.Name()
	}
	h, err := NewHeaders(names)
	if err != nil {
		return p.fail(err)
	}

	srcCols := make([]int, len(transforms))
	var keyCols []int
	for i, tr := range transforms {
		col, err := p.headers.Index(tr.Source())
		if err != nil {
			return p.fail(err)
		}
		srcCols[i] = col
		if tr.Keyed() {
			keyCols = append(keyCols, col)
		}
	}

	p.src = &groupStep{
		src:        p.src,
		transforms: transforms,
		srcCols:    srcCols,
		keyCols:    keyCols,
	}
	p.headers = h
	return p
}

// begin marks the pipeline consumed, surfacing any construction error.
// An errored pipeline releases its source handles here, since no terminal
// will drain it.
func (p *Pipeline) begin() error {
	if p.err != nil {
		err := p.err
		p.Close()
		return err
	}
	if p.consumed {
		return errors.New(errors.ErrorTypeValidation, "pipeline already consumed")
	}
	p.consumed = true
	return nil
}

// Close releases the pipeline's source handles without draining it. The
// pipeline cannot be used afterwards. Terminals close the pipeline
// themselves, so calling Close is only needed when abandoning one early.
func (p *Pipeline) Close() error {
	p.consumed = true

	var first error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	p.closers = nil
	return first
}

// Rows drains the pipeline into memory, returning the final headers and
// all surviving rows in order.
func (p *Pipeline) Rows() (Headers, []Row, error) {
	if err := p.begin(); err != nil {
		return Headers{}, nil, err
	}
	defer p.Close()

	var rows []Row
	for {
		row, _, err := p.src.next()
		if err == io.EOF {
			return p.headers, rows, nil
		}
		if err != nil {
			return Headers{}, nil, err
		}
		rows = append(rows, row)
	}
}

// String drains the pipeline into a CSV string, header line first, using
// the same quoting rules as the CSV writer.
func (p *Pipeline) String() (string, error) {
	t := NewStringTarget()
	if err := p.Flush(t); err != nil {
		return "", err
	}
	return t.String(), nil
}

// Run drains the pipeline and discards the rows. Useful when the work
// happens in Map callbacks.
func (p *Pipeline) Run() error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.Close()

	for {
		_, _, err := p.src.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Iter returns a streaming consumer over the pipeline's rows. The
// iterator closes the pipeline when it is exhausted, fails, or is closed.
func (p *Pipeline) Iter() *Iter {
	if err := p.begin(); err != nil {
		return &Iter{err: err, done: true}
	}
	return &Iter{p: p}
}

// Iter consumes a pipeline row by row.
//
//	it := p.Iter()
//	defer it.Close()
//	for row, ok := it.Next(); ok; row, ok = it.Next() {
//	    // use row
//	}
//	if err := it.Err(); err != nil { ... }
type Iter struct {
	p    *Pipeline
	err  error
	done bool
}

// Headers returns the registry of the rows the iterator yields.
func (it *Iter) Headers() Headers {
	if it.p != nil {
		return it.p.headers
	}
	return Headers{}
}

// Next returns the next row. It returns false once the pipeline is
// exhausted or failed; check Err to tell the two apart.
func (it *Iter) Next() (Row, bool) {
	if it.done {
		return nil, false
	}

	row, _, err := it.p.src.next()
	if err == io.EOF {
		it.done = true
		it.p.Close()
		return nil, false
	}
	if err != nil {
		it.err = err
		it.done = true
		it.p.Close()
		return nil, false
	}
	return row, true
}

// Err returns the error that stopped the iterator, if any.
func (it *Iter) Err() error {
	return it.err
}

// Close releases the pipeline early. It is safe to call after exhaustion.
func (it *Iter) Close() error {
	it.done = true
	if it.p != nil {
		return it.p.Close()
	}
	return nil
}
