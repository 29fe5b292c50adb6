package pipeline

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/ajitpratap0/prism/pkg/errors"
	"github.com/ajitpratap0/prism/pkg/logger"
)

// Transform describes one output column of a grouping stage: where its
// input cells come from, whether those cells participate in the grouping
// key, and how the cells of a group fold into the output cell.
//
// Keyed transforms declare the grouping key: rows agreeing on every keyed
// transform's source cell land in the same group. Aggregations such as Sum
// and Count are not keyed.
type Transform interface {
	// Name is the output column name.
	Name() string
	// Source is the input column the transform reads.
	Source() string
	// Keyed reports whether the source cell is part of the grouping key.
	Keyed() bool
	// NewAccumulator returns a fresh accumulator for one group.
	NewAccumulator() Accumulator
}

// Accumulator folds the cells of one group into a single output cell.
type Accumulator interface {
	// Add folds one cell into the accumulator.
	Add(value string) error
	// Value renders the folded result.
	Value() string
}

// fold identifies the accumulation strategy of a Transformer.
type fold int

const (
	foldFirst fold = iota
	foldKeepUnique
	foldSum
	foldCount
	foldReduce
)

// ReduceFunc folds a cell into an accumulated value.
type ReduceFunc func(acc, value string) (string, error)

// Transformer is a fluent builder for the common transforms. A fresh
// Transformer keeps the first value it sees per group and participates in
// the grouping key; Sum, Count and Reduce switch it to an aggregation
// outside the key.
//
//	pipeline.NewTransformer("Person").KeepUnique()
//	pipeline.NewTransformer("Total").FromColumn("Score").Sum(0)
type Transformer struct {
	name    string
	source  string
	fold    fold
	initSum float64
	initRed string
	reduce  ReduceFunc
}

// NewTransformer starts a transform producing the named output column,
// reading from the input column of the same name.
func NewTransformer(name string) *Transformer {
	return &Transformer{name: name, source: name}
}

// FromColumn changes the input column the transform reads.
func (t *Transformer) FromColumn(name string) *Transformer {
	t.source = name
	return t
}

// KeepUnique keeps the first value of each group and logs a warning when a
// later row in the group carries a different value.
func (t *Transformer) KeepUnique() *Transformer {
	t.fold = foldKeepUnique
	return t
}

// Sum folds the group's cells as numbers, starting from initial. Cells
// that do not parse as numbers abort the run with a parse error naming
// the offending source row.
func (t *Transformer) Sum(initial float64) *Transformer {
	t.fold = foldSum
	t.initSum = initial
	return t
}

// Count counts the rows of each group.
func (t *Transformer) Count() *Transformer {
	t.fold = foldCount
	return t
}

// Reduce folds the group's cells with a custom function, starting from
// initial.
func (t *Transformer) Reduce(initial string, fn ReduceFunc) *Transformer {
	t.fold = foldReduce
	t.initRed = initial
	t.reduce = fn
	return t
}

// Name implements Transform.
func (t *Transformer) Name() string { return t.name }

// Source implements Transform.
func (t *Transformer) Source() string { return t.source }

// Keyed implements Transform. First-value and keep-unique transforms are
// keyed; aggregations are not.
func (t *Transformer) Keyed() bool {
	switch t.fold {
	case foldFirst, foldKeepUnique:
		return true
	default:
		return false
	}
}

// NewAccumulator implements Transform.
func (t *Transformer) NewAccumulator() Accumulator {
	switch t.fold {
	case foldKeepUnique:
		return &keepUniqueAccumulator{column: t.source}
	case foldSum:
		return &sumAccumulator{sum: t.initSum}
	case foldCount:
		return &countAccumulator{}
	case foldReduce:
		return &reduceAccumulator{acc: t.initRed, fn: t.reduce}
	default:
		return &firstValueAccumulator{}
	}
}

// firstValueAccumulator keeps the first value it sees.
type firstValueAccumulator struct {
	set   bool
	value string
}

func (a *firstValueAccumulator) Add(value string) error {
	if !a.set {
		a.set = true
		a.value = value
	}
	return nil
}

func (a *firstValueAccumulator) Value() string { return a.value }

// keepUniqueAccumulator keeps the first value and warns once when a group
// turns out not to be uniform.
type keepUniqueAccumulator struct {
	column string
	set    bool
	value  string
	warned bool
}

func (a *keepUniqueAccumulator) Add(value string) error {
	if !a.set {
		a.set = true
		a.value = value
		return nil
	}
	if value != a.value && !a.warned {
		a.warned = true
		logger.Warn("keep-unique column is not uniform within group",
			zap.String("column", a.column),
			zap.String("kept", a.value),
			zap.String("dropped", value))
	}
	return nil
}

func (a *keepUniqueAccumulator) Value() string { return a.value }

// sumAccumulator folds numeric cells into a running sum.
type sumAccumulator struct {
	sum float64
}

func (a *sumAccumulator) Add(value string) error {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errors.Newf(errors.ErrorTypeParse, "cannot parse %q as a number", value).
			WithDetail("value", value)
	}
	a.sum += n
	return nil
}

// Value renders the sum in its shortest decimal form, so whole numbers
// render without a fractional part.
func (a *sumAccumulator) Value() string {
	return strconv.FormatFloat(a.sum, 'f', -1, 64)
}

// countAccumulator counts added values.
type countAccumulator struct {
	n int64
}

func (a *countAccumulator) Add(string) error {
	a.n++
	return nil
}

func (a *countAccumulator) Value() string {
	return strconv.FormatInt(a.n, 10)
}

// reduceAccumulator folds values with a user function.
type reduceAccumulator struct {
	acc string
	fn  ReduceFunc
}

func (a *reduceAccumulator) Add(value string) error {
	acc, err := a.fn(a.acc, value)
	if err != nil {
		return err
	}
	a.acc = acc
	return nil
}

func (a *reduceAccumulator) Value() string { return a.acc }
