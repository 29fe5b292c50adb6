package pipeline

import (
	"io"
	"strings"
)

// groupKeySep separates key cells inside the composite group key. NUL does
// not occur in cell data read from the supported formats.
const groupKeySep = "\x00"

// groupStep folds the whole upstream into one row per group. Groups are
// keyed by the keyed transforms' source cells and emitted in first-seen
// order; each group row carries the source index of the group's first row.
//
// The stage buffers one accumulator set per group, never the rows
// themselves.
type groupStep struct {
	src        step
	transforms []Transform
	srcCols    []int // input column per transform
	keyCols    []int // input columns forming the group key, in declaration order

	built  bool
	err    error
	groups []*group
	pos    int
}

type group struct {
	accs     []Accumulator
	firstRow int
}

func (s *groupStep) next() (Row, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	if !s.built {
		if err := s.build(); err != nil {
			s.err = err
			return nil, 0, err
		}
		s.built = true
	}

	if s.pos >= len(s.groups) {
		return nil, 0, io.EOF
	}

	g := s.groups[s.pos]
	s.pos++

	row := make(Row, len(g.accs))
	for i, acc := range g.accs {
		row[i] = acc.Value()
	}
	return row, g.firstRow, nil
}

// build drains the upstream, folding every row into its group's
// accumulators. The first error aborts with the offending row's index
// attached.
func (s *groupStep) build() error {
	index := make(map[string]*group)
	var key strings.Builder

	for {
		row, idx, err := s.src.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		key.Reset()
		for i, col := range s.keyCols {
			if i > 0 {
				key.WriteString(groupKeySep)
			}
			key.WriteString(row[col])
		}

		g, ok := index[key.String()]
		if !ok {
			g = &group{
				accs:     make([]Accumulator, len(s.transforms)),
				firstRow: idx,
			}
			for i, tr := range s.transforms {
				g.accs[i] = tr.NewAccumulator()
			}
			index[key.String()] = g
			s.groups = append(s.groups, g)
		}

		for i, col := range s.srcCols {
			if err := g.accs[i].Add(row[col]); err != nil {
				return tagCallbackErr(err, idx)
			}
		}
	}
}
