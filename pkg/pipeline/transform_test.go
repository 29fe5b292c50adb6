package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/prism/pkg/errors"
)

func TestTransformerDefaults(t *testing.T) {
	tr := NewTransformer("Person")

	assert.Equal(t, "Person", tr.Name())
	assert.Equal(t, "Person", tr.Source(), "source defaults to the output name")
	assert.True(t, tr.Keyed())

	acc := tr.NewAccumulator()
	require.NoError(t, acc.Add("first"))
	require.NoError(t, acc.Add("second"))
	assert.Equal(t, "first", acc.Value(), "identity keeps the first value")
}

func TestTransformerFromColumn(t *testing.T) {
	tr := NewTransformer("Total").FromColumn("Score")

	assert.Equal(t, "Total", tr.Name())
	assert.Equal(t, "Score", tr.Source())
}

func TestTransformerKeying(t *testing.T) {
	assert.True(t, NewTransformer("a").Keyed())
	assert.True(t, NewTransformer("a").KeepUnique().Keyed())
	assert.False(t, NewTransformer("a").Sum(0).Keyed())
	assert.False(t, NewTransformer("a").Count().Keyed())
	assert.False(t, NewTransformer("a").Reduce("", func(acc, v string) (string, error) {
		return v, nil
	}).Keyed())
}

func TestTransformerLastFoldWins(t *testing.T) {
	tr := NewTransformer("a").KeepUnique().Sum(0)
	assert.False(t, tr.Keyed())

	acc := tr.NewAccumulator()
	require.NoError(t, acc.Add("2"))
	assert.Equal(t, "2", acc.Value())
}

func TestKeepUnique(t *testing.T) {
	acc := NewTransformer("Person").KeepUnique().NewAccumulator()

	require.NoError(t, acc.Add("A"))
	require.NoError(t, acc.Add("A"))
	require.NoError(t, acc.Add("B"), "a differing value is kept out, not an error")
	assert.Equal(t, "A", acc.Value())
}

func TestSum(t *testing.T) {
	acc := NewTransformer("Total").Sum(0).NewAccumulator()

	require.NoError(t, acc.Add("4"))
	require.NoError(t, acc.Add("5"))
	assert.Equal(t, "9", acc.Value(), "whole sums render without a fractional part")
}

func TestSumSeeded(t *testing.T) {
	acc := NewTransformer("Total").Sum(0.5).NewAccumulator()

	require.NoError(t, acc.Add("0.25"))
	assert.Equal(t, "0.75", acc.Value())
}

func TestSumNegativeAndExponent(t *testing.T) {
	acc := NewTransformer("Total").Sum(0).NewAccumulator()

	require.NoError(t, acc.Add("-2"))
	require.NoError(t, acc.Add("1e1"))
	assert.Equal(t, "8", acc.Value())
}

func TestSumParseError(t *testing.T) {
	acc := NewTransformer("Total").Sum(0).NewAccumulator()

	err := acc.Add("abc")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	assert.Contains(t, err.Error(), `"abc"`)

	var perr *errors.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "abc", perr.Details["value"])
}

func TestSumAccumulatorsAreIndependent(t *testing.T) {
	tr := NewTransformer("Total").Sum(0)
	a := tr.NewAccumulator()
	b := tr.NewAccumulator()

	require.NoError(t, a.Add("3"))
	assert.Equal(t, "3", a.Value())
	assert.Equal(t, "0", b.Value())
}

func TestCount(t *testing.T) {
	acc := NewTransformer("Rows").Count().NewAccumulator()
	assert.Equal(t, "0", acc.Value())

	require.NoError(t, acc.Add("anything"))
	require.NoError(t, acc.Add(""))
	require.NoError(t, acc.Add("x"))
	assert.Equal(t, "3", acc.Value())
}

func TestReduce(t *testing.T) {
	acc := NewTransformer("Scores").Reduce("", func(acc, v string) (string, error) {
		if acc == "" {
			return v, nil
		}
		return acc + "+" + v, nil
	}).NewAccumulator()

	require.NoError(t, acc.Add("1"))
	require.NoError(t, acc.Add("8"))
	assert.Equal(t, "1+8", acc.Value())
}

func TestReduceError(t *testing.T) {
	acc := NewTransformer("x").Reduce("", func(acc, v string) (string, error) {
		return "", fmt.Errorf("cannot fold %q", v)
	}).NewAccumulator()

	err := acc.Add("v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot fold "v"`)
}
