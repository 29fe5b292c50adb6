package config

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ajitpratap0/prism/pkg/compression"
	"github.com/ajitpratap0/prism/pkg/errors"
	"github.com/ajitpratap0/prism/pkg/formats"
)

// Step operations usable in a job's steps list.
const (
	OpRename = "rename"
	OpMap    = "map"
	OpAdd    = "add"
	OpFilter = "filter"
	OpSelect = "select"
)

// Folds usable in a job's group columns. Columns with the first or
// keep_unique fold form the grouping key.
const (
	FoldFirst      = "first"
	FoldKeepUnique = "keep_unique"
	FoldSum        = "sum"
	FoldCount      = "count"
)

// Comparison operators usable in filter steps. The numeric operators
// parse both sides as numbers; match and not_match treat the value as a
// regular expression.
const (
	CompareEq       = "eq"
	CompareNe       = "ne"
	CompareGt       = "gt"
	CompareLt       = "lt"
	CompareGte      = "gte"
	CompareLte      = "lte"
	CompareMatch    = "match"
	CompareNotMatch = "not_match"
)

// Cell function verbs usable in map and add steps. prefix, suffix and
// replace take an argument after a colon: "prefix:#", "replace:from=to".
const (
	FnUpper   = "upper"
	FnLower   = "lower"
	FnTrim    = "trim"
	FnPrefix  = "prefix"
	FnSuffix  = "suffix"
	FnReplace = "replace"
)

// Job is the complete specification of one Prism run. It is loaded from
// a YAML file with Load and checked with Validate before the runner
// compiles it into a pipeline.
type Job struct {
	// Name identifies the job in logs and metrics
	Name string `yaml:"name" json:"name"`

	// Source names the input files
	Source SourceConfig `yaml:"source" json:"source"`

	// Steps are applied to every row, in order
	Steps []StepConfig `yaml:"steps,omitempty" json:"steps,omitempty"`

	// Group folds the rows into one row per group after the steps ran
	Group *GroupConfig `yaml:"group,omitempty" json:"group,omitempty"`

	// Output says where the resulting table goes
	Output OutputConfig `yaml:"output" json:"output"`
}

// SourceConfig names the job's input files.
type SourceConfig struct {
	// Paths lists the input files, read in order. All files must share
	// the same header; format and compression are inferred from each
	// file's extension.
	Paths []string `yaml:"paths" json:"paths"`
}

// StepConfig is one row transformation. Op selects the operation and the
// remaining fields parameterize it:
//
//	rename: column, to
//	map:    column, fn
//	add:    column, plus value (constant) or from and optional fn (derived)
//	filter: column, compare, value
//	select: columns
type StepConfig struct {
	// Op is the operation: rename, map, add, filter or select
	Op string `yaml:"op" json:"op"`
	// Column is the column the step works on (for add, the new column)
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
	// To is the new name for rename
	To string `yaml:"to,omitempty" json:"to,omitempty"`
	// From is the source column a derived add step reads
	From string `yaml:"from,omitempty" json:"from,omitempty"`
	// Fn is the cell function for map and derived add steps
	Fn string `yaml:"fn,omitempty" json:"fn,omitempty"`
	// Value is the constant for add, or the operand for filter
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
	// Compare is the filter operator
	Compare string `yaml:"compare,omitempty" json:"compare,omitempty"`
	// Columns are the columns a select step keeps, in order
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// GroupConfig describes the grouping stage of a job.
type GroupConfig struct {
	// Columns are the output columns of the grouped table, in order
	Columns []GroupColumn `yaml:"columns" json:"columns"`
}

// GroupColumn is one output column of the grouped table.
type GroupColumn struct {
	// Name is the output column name
	Name string `yaml:"name" json:"name"`
	// From is the input column, defaulting to Name
	From string `yaml:"from,omitempty" json:"from,omitempty"`
	// Fold is the aggregation: first, keep_unique (the default), sum or
	// count
	Fold string `yaml:"fold,omitempty" json:"fold,omitempty"`
	// Seed is the starting value for sum
	Seed float64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// OutputConfig says where and how the result is written.
type OutputConfig struct {
	// Path is the output file; format and compression are inferred from
	// the extension. Empty writes CSV to standard output.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// CompressionLevel tunes compressed outputs: fastest, default,
	// better or best
	CompressionLevel string `yaml:"compression_level,omitempty" json:"compression_level,omitempty"`
}

// DefaultJob returns a starter job that groups a score table by person
// and writes the totals. prism init saves it as a template.
func DefaultJob(name string) *Job {
	return &Job{
		Name:   name,
		Source: SourceConfig{Paths: []string{"scores.csv"}},
		Steps: []StepConfig{
			{Op: OpFilter, Column: "Score", Compare: CompareGte, Value: "0"},
		},
		Group: &GroupConfig{
			Columns: []GroupColumn{
				{Name: "Person", Fold: FoldKeepUnique},
				{Name: "Total score", From: "Score", Fold: FoldSum},
			},
		},
		Output: OutputConfig{Path: "totals.csv"},
	}
}

// Validate checks the job for structural problems: unknown operations or
// folds, missing required fields, undetectable file extensions,
// uncompilable filter patterns. Column names are resolved later, when
// the runner compiles the job against the source's actual header.
func (j *Job) Validate() error {
	if j.Name == "" {
		return invalid("name", "name is required")
	}

	if len(j.Source.Paths) == 0 {
		return invalid("source.paths", "at least one input path is required")
	}
	for _, p := range j.Source.Paths {
		if _, _, err := formats.Detect(p); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeConfig, "source path %s", p)
		}
	}

	for i := range j.Steps {
		if err := j.Steps[i].validate(); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeConfig, "step %d", i+1)
		}
	}

	if j.Group != nil {
		if err := j.Group.validate(); err != nil {
			return err
		}
	}

	if j.Output.Path != "" {
		if _, _, err := formats.Detect(j.Output.Path); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeConfig, "output path %s", j.Output.Path)
		}
	}
	if _, err := compression.ParseLevel(j.Output.CompressionLevel); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "output compression_level")
	}

	return nil
}

func (s *StepConfig) validate() error {
	switch s.Op {
	case OpRename:
		if s.Column == "" || s.To == "" {
			return errors.New(errors.ErrorTypeConfig, "rename needs column and to")
		}
	case OpMap:
		if s.Column == "" {
			return errors.New(errors.ErrorTypeConfig, "map needs column")
		}
		if err := ValidateFn(s.Fn); err != nil {
			return err
		}
	case OpAdd:
		if s.Column == "" {
			return errors.New(errors.ErrorTypeConfig, "add needs column")
		}
		if s.From == "" {
			if s.Fn != "" {
				return errors.New(errors.ErrorTypeConfig, "add with fn needs from")
			}
			return nil
		}
		if s.Value != "" {
			return errors.New(errors.ErrorTypeConfig, "add takes value or from, not both")
		}
		if s.Fn != "" {
			return ValidateFn(s.Fn)
		}
	case OpFilter:
		if s.Column == "" {
			return errors.New(errors.ErrorTypeConfig, "filter needs column")
		}
		return validateCompare(s.Compare, s.Value)
	case OpSelect:
		if len(s.Columns) == 0 {
			return errors.New(errors.ErrorTypeConfig, "select needs columns")
		}
	case "":
		return errors.New(errors.ErrorTypeConfig, "step op is required")
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown op: %s", s.Op)
	}
	return nil
}

func (g *GroupConfig) validate() error {
	if len(g.Columns) == 0 {
		return invalid("group.columns", "at least one group column is required")
	}
	for i, c := range g.Columns {
		if c.Name == "" {
			return errors.Newf(errors.ErrorTypeConfig, "group column %d needs a name", i+1)
		}
		switch c.Fold {
		case "", FoldFirst, FoldKeepUnique, FoldSum, FoldCount:
		default:
			return errors.Newf(errors.ErrorTypeConfig, "unknown fold: %s", c.Fold)
		}
	}
	return nil
}

// ValidateFn checks a cell function expression without building it.
func ValidateFn(fn string) error {
	verb, arg := SplitFn(fn)
	switch verb {
	case FnUpper, FnLower, FnTrim:
		if arg != "" {
			return errors.Newf(errors.ErrorTypeConfig, "%s takes no argument", verb)
		}
	case FnPrefix, FnSuffix:
		if arg == "" {
			return errors.Newf(errors.ErrorTypeConfig, "%s needs an argument", verb)
		}
	case FnReplace:
		from, _, ok := strings.Cut(arg, "=")
		if !ok || from == "" {
			return errors.New(errors.ErrorTypeConfig, "replace needs from=to")
		}
	case "":
		return errors.New(errors.ErrorTypeConfig, "fn is required")
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown fn: %s", verb)
	}
	return nil
}

// SplitFn splits a cell function expression into its verb and argument.
// "prefix:#" splits into ("prefix", "#"); a bare verb has an empty
// argument.
func SplitFn(fn string) (verb, arg string) {
	verb, arg, _ = strings.Cut(fn, ":")
	return verb, arg
}

func validateCompare(op, value string) error {
	switch op {
	case CompareEq, CompareNe:
	case CompareGt, CompareLt, CompareGte, CompareLte:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return errors.Newf(errors.ErrorTypeConfig, "%s needs a numeric value, got %q", op, value)
		}
	case CompareMatch, CompareNotMatch:
		if _, err := regexp.Compile(value); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeConfig, "invalid pattern %q", value)
		}
	case "":
		return errors.New(errors.ErrorTypeConfig, "filter compare is required")
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown compare: %s", op)
	}
	return nil
}

func invalid(field, msg string) error {
	return errors.New(errors.ErrorTypeConfig, msg).WithDetail("field", field)
}
