package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/prism/pkg/errors"
)

func TestDefaultJobIsValid(t *testing.T) {
	require.NoError(t, DefaultJob("starter").Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	j := DefaultJob("x")
	j.Name = ""
	assert.Error(t, j.Validate())

	j = DefaultJob("x")
	j.Source.Paths = nil
	assert.Error(t, j.Validate())
}

func TestValidateSourceExtension(t *testing.T) {
	j := DefaultJob("x")
	j.Source.Paths = []string{"data.xyz"}

	err := j.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestValidateSteps(t *testing.T) {
	cases := []struct {
		name string
		step StepConfig
		ok   bool
	}{
		{"rename", StepConfig{Op: OpRename, Column: "a", To: "b"}, true},
		{"rename without to", StepConfig{Op: OpRename, Column: "a"}, false},
		{"map", StepConfig{Op: OpMap, Column: "a", Fn: "upper"}, true},
		{"map with argument fn", StepConfig{Op: OpMap, Column: "a", Fn: "prefix:#"}, true},
		{"map without fn", StepConfig{Op: OpMap, Column: "a"}, false},
		{"map unknown fn", StepConfig{Op: OpMap, Column: "a", Fn: "shout"}, false},
		{"add constant", StepConfig{Op: OpAdd, Column: "a", Value: "x"}, true},
		{"add empty constant", StepConfig{Op: OpAdd, Column: "a"}, true},
		{"add derived", StepConfig{Op: OpAdd, Column: "a", From: "b", Fn: "lower"}, true},
		{"add copy", StepConfig{Op: OpAdd, Column: "a", From: "b"}, true},
		{"add value and from", StepConfig{Op: OpAdd, Column: "a", From: "b", Value: "x"}, false},
		{"add fn without from", StepConfig{Op: OpAdd, Column: "a", Fn: "upper", Value: "x"}, false},
		{"filter numeric", StepConfig{Op: OpFilter, Column: "a", Compare: CompareGt, Value: "3"}, true},
		{"filter non-numeric operand", StepConfig{Op: OpFilter, Column: "a", Compare: CompareGt, Value: "x"}, false},
		{"filter match", StepConfig{Op: OpFilter, Column: "a", Compare: CompareMatch, Value: "^N"}, true},
		{"filter bad pattern", StepConfig{Op: OpFilter, Column: "a", Compare: CompareMatch, Value: "("}, false},
		{"filter unknown compare", StepConfig{Op: OpFilter, Column: "a", Compare: "near", Value: "3"}, false},
		{"filter without compare", StepConfig{Op: OpFilter, Column: "a", Value: "3"}, false},
		{"select", StepConfig{Op: OpSelect, Columns: []string{"a", "b"}}, true},
		{"select without columns", StepConfig{Op: OpSelect}, false},
		{"unknown op", StepConfig{Op: "explode"}, false},
		{"missing op", StepConfig{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := DefaultJob("x")
			j.Steps = []StepConfig{tc.step}

			err := j.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			}
		})
	}
}

func TestValidateGroup(t *testing.T) {
	j := DefaultJob("x")
	j.Group = &GroupConfig{}
	assert.Error(t, j.Validate(), "empty group columns")

	j.Group = &GroupConfig{Columns: []GroupColumn{{Fold: FoldSum}}}
	assert.Error(t, j.Validate(), "missing name")

	j.Group = &GroupConfig{Columns: []GroupColumn{{Name: "a", Fold: "median"}}}
	assert.Error(t, j.Validate(), "unknown fold")

	j.Group = &GroupConfig{Columns: []GroupColumn{
		{Name: "a"},
		{Name: "b", Fold: FoldFirst},
		{Name: "c", Fold: FoldKeepUnique},
		{Name: "d", From: "x", Fold: FoldSum, Seed: 1},
		{Name: "e", From: "x", Fold: FoldCount},
	}}
	assert.NoError(t, j.Validate())
}

func TestValidateOutput(t *testing.T) {
	j := DefaultJob("x")
	j.Output.Path = ""
	assert.NoError(t, j.Validate(), "empty output means stdout")

	j.Output.Path = "out.xyz"
	assert.Error(t, j.Validate())

	j.Output.Path = "out.csv.zst"
	j.Output.CompressionLevel = "best"
	assert.NoError(t, j.Validate())

	j.Output.CompressionLevel = "turbo"
	assert.Error(t, j.Validate())
}

func TestValidateFn(t *testing.T) {
	for _, fn := range []string{"upper", "lower", "trim", "prefix:#", "suffix:!", "replace:a=b", "replace:a="} {
		assert.NoError(t, ValidateFn(fn), fn)
	}
	for _, fn := range []string{"", "shout", "upper:x", "prefix", "prefix:", "replace:ab", "replace:=b"} {
		assert.Error(t, ValidateFn(fn), fn)
	}
}

func TestSplitFn(t *testing.T) {
	verb, arg := SplitFn("prefix:#")
	assert.Equal(t, "prefix", verb)
	assert.Equal(t, "#", arg)

	verb, arg = SplitFn("upper")
	assert.Equal(t, "upper", verb)
	assert.Equal(t, "", arg)

	verb, arg = SplitFn("replace:a=b")
	assert.Equal(t, "replace", verb)
	assert.Equal(t, "a=b", arg)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRISM_TEST_DIR", dir)

	path := filepath.Join(dir, "job.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: totals
source:
  paths:
    - ${PRISM_TEST_DIR}/scores.csv
steps:
  - op: filter
    column: Score
    compare: gt
    value: "3"
group:
  columns:
    - name: Person
      fold: keep_unique
    - name: Total score
      from: Score
      fold: sum
      seed: 1.5
output:
  path: totals.csv.gz
  compression_level: best
`), 0o644))

	var j Job
	require.NoError(t, Load(path, &j))

	assert.Equal(t, "totals", j.Name)
	assert.Equal(t, []string{filepath.Join(dir, "scores.csv")}, j.Source.Paths)
	require.Len(t, j.Steps, 1)
	assert.Equal(t, OpFilter, j.Steps[0].Op)
	assert.Equal(t, "3", j.Steps[0].Value)
	require.NotNil(t, j.Group)
	require.Len(t, j.Group.Columns, 2)
	assert.Equal(t, FoldSum, j.Group.Columns[1].Fold)
	assert.Equal(t, 1.5, j.Group.Columns[1].Seed)
	assert.Equal(t, "totals.csv.gz", j.Output.Path)
	assert.Equal(t, "best", j.Output.CompressionLevel)

	require.NoError(t, j.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "nope.yml"), &Job{})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))

	err := Load(path, &Job{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: bad-step
source:
  paths: [in.csv]
steps:
  - op: explode
`), 0o644))

	_, err := LoadJob(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "explode")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yml")

	want := DefaultJob("round-trip")
	require.NoError(t, Save(path, want))

	var got Job
	require.NoError(t, Load(path, &got))
	assert.Equal(t, *want, got)
}
