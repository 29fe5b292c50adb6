package pipeline

import (
	stderrors "errors"
	"io"

	"github.com/ajitpratap0/prism/pkg/errors"
	"github.com/ajitpratap0/prism/pkg/formats"
)

// step is one stage of a pipeline. next returns the stage's next row
// together with the 0-based index of the source row it descends from, or
// io.EOF once the stage is exhausted. Stages pull from their upstream on
// demand, so rows flow through the chain one at a time.
type step interface {
	next() (Row, int, error)
}

// tagRow attaches the source row index to an error, wrapping plain errors
// into the structured form first. An index already present wins.
func tagRow(err error, row int) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.WithRow(row)
		return err
	}
	return errors.Wrap(err, errors.ErrorTypeIO, "row read failed").WithRow(row)
}

// tagCallbackErr attaches the source row index to an error returned by a
// user callback.
func tagCallbackErr(err error, row int) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.WithRow(row)
		return err
	}
	return errors.Wrap(err, errors.ErrorTypeInternal, "callback failed").WithRow(row)
}

// rowsStep yields an in-memory row slice. Source indexes are positions in
// the slice. Row widths are checked here because in-memory rows, unlike
// rows from a format reader, arrive unvalidated.
type rowsStep struct {
	rows  []Row
	width int
	pos   int
}

func (s *rowsStep) next() (Row, int, error) {
	if s.pos >= len(s.rows) {
		return nil, 0, io.EOF
	}
	row := s.rows[s.pos]
	idx := s.pos
	s.pos++

	if len(row) != s.width {
		return nil, 0, errors.Newf(errors.ErrorTypeValidation,
			"row has %d cells for %d columns", len(row), s.width).WithRow(idx)
	}
	return row, idx, nil
}

// readerStep pulls rows from a format reader, counting source indexes as
// it goes.
type readerStep struct {
	r   formats.Reader
	idx int
}

func (s *readerStep) next() (Row, int, error) {
	cells, err := s.r.Next()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		return nil, 0, tagRow(err, s.idx)
	}

	idx := s.idx
	s.idx++
	return Row(cells), idx, nil
}

// mapStep applies a row transformation. The returned row must keep the
// stage's cell count.
type mapStep struct {
	src     step
	headers Headers
	fn      MapFunc
}

func (s *mapStep) next() (Row, int, error) {
	row, idx, err := s.src.next()
	if err != nil {
		return nil, 0, err
	}

	out, err := s.fn(s.headers, row)
	if err != nil {
		return nil, 0, tagCallbackErr(err, idx)
	}
	if len(out) != s.headers.Len() {
		return nil, 0, errors.Newf(errors.ErrorTypeValidation,
			"map returned %d cells for %d columns", len(out), s.headers.Len()).WithRow(idx)
	}

	return out, idx, nil
}

// addColumnStep computes a new trailing cell from the pre-addition headers
// and row.
type addColumnStep struct {
	src     step
	headers Headers // headers before the addition
	fn      AddFunc
}

func (s *addColumnStep) next() (Row, int, error) {
	row, idx, err := s.src.next()
	if err != nil {
		return nil, 0, err
	}

	value, err := s.fn(s.headers, row)
	if err != nil {
		return nil, 0, tagCallbackErr(err, idx)
	}

	return append(row, value), idx, nil
}

// mapColumnStep rewrites the cell at a fixed position. The position was
// resolved when the stage was built and does not move with later renames.
type mapColumnStep struct {
	src step
	col int
	fn  CellFunc
}

func (s *mapColumnStep) next() (Row, int, error) {
	row, idx, err := s.src.next()
	if err != nil {
		return nil, 0, err
	}

	out, err := s.fn(row[s.col])
	if err != nil {
		return nil, 0, tagCallbackErr(err, idx)
	}

	row[s.col] = out
	return row, idx, nil
}

// filterStep keeps rows the predicate accepts, pulling upstream until one
// passes. Dropped rows keep their source indexes out of the stream, so
// surviving rows stay traceable to the original input.
type filterStep struct {
	src     step
	headers Headers
	pred    RowPredicate
}

func (s *filterStep) next() (Row, int, error) {
	for {
		row, idx, err := s.src.next()
		if err != nil {
			return nil, 0, err
		}

		keep, err := s.pred(s.headers, row)
		if err != nil {
			return nil, 0, tagCallbackErr(err, idx)
		}
		if keep {
			return row, idx, nil
		}
	}
}

// filterColumnStep keeps rows whose cell at a fixed position the predicate
// accepts.
type filterColumnStep struct {
	src  step
	col  int
	pred CellPredicate
}

func (s *filterColumnStep) next() (Row, int, error) {
	for {
		row, idx, err := s.src.next()
		if err != nil {
			return nil, 0, err
		}

		keep, err := s.pred(row[s.col])
		if err != nil {
			return nil, 0, tagCallbackErr(err, idx)
		}
		if keep {
			return row, idx, nil
		}
	}
}

// selectStep projects rows onto a subset of columns, in the selected
// order.
type selectStep struct {
	src  step
	cols []int
}

func (s *selectStep) next() (Row, int, error) {
	row, idx, err := s.src.next()
	if err != nil {
		return nil, 0, err
	}

	out := make(Row, len(s.cols))
	for i, col := range s.cols {
		out[i] = row[col]
	}
	return out, idx, nil
}

// concatStep drains a sequence of sources in order. Source indexes are
// relative to each constituent's own input.
type concatStep struct {
	srcs []step
	cur  int
}

func (s *concatStep) next() (Row, int, error) {
	for s.cur < len(s.srcs) {
		row, idx, err := s.srcs[s.cur].next()
		if err == io.EOF {
			s.cur++
			continue
		}
		return row, idx, err
	}
	return nil, 0, io.EOF
}
