// Package runner compiles Prism job configurations into pipelines and
// executes them. It is the engine behind the prism run command.
//
// # Overview
//
// The runner package provides:
//   - Compilation of job configs into lazy pipelines
//   - Execution with row counting and cancellation
//   - Prometheus metrics for runs, rows and throughput
//   - Structured logging of run progress
//
// # Architecture
//
// A run consists of:
//   - Sources: input files concatenated into one table
//   - Steps: row transformations compiled from the job's step list
//   - Group: an optional grouping stage with per-column folds
//   - Output: a file target, or CSV on standard output
//
// # Basic Usage
//
//	job, err := config.LoadJob("job.yaml")
//	if err != nil {
//	    return err
//	}
//
//	result, err := runner.New(logger).Run(ctx, job)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("wrote %d rows in %s\n", result.RowsWritten, result.Duration)
package runner

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/prism/pkg/compression"
	"github.com/ajitpratap0/prism/pkg/config"
	"github.com/ajitpratap0/prism/pkg/errors"
	"github.com/ajitpratap0/prism/pkg/formats"
	"github.com/ajitpratap0/prism/pkg/metrics"
	"github.com/ajitpratap0/prism/pkg/pipeline"
)

// Runner executes jobs. It is stateless apart from its logger and safe to
// reuse across runs.
type Runner struct {
	logger *zap.Logger
}

// New creates a runner logging through the given logger.
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Result summarizes a finished run. RowsRead counts rows pulled from all
// sources before filtering; RowsWritten counts output rows, which for
// grouped jobs is the number of groups.
type Result struct {
	RowsRead    int64
	RowsWritten int64
	Duration    time.Duration
	Throughput  float64 // Rows read per second
}

// Run validates the job, compiles it and streams it into its output. The
// context cancels the run between rows. The returned Result is valid even
// when the run fails, reporting how far it got.
func (r *Runner) Run(ctx context.Context, job *config.Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	timer := metrics.NewTimer("run")
	tracker := metrics.NewThroughputTracker(job.Name)
	res := &Result{}

	r.logger.Info("starting job",
		zap.String("job", job.Name),
		zap.Int("sources", len(job.Source.Paths)),
		zap.Int("steps", len(job.Steps)),
		zap.Bool("grouped", job.Group != nil))

	err := r.run(ctx, job, tracker, res)

	res.Duration = timer.Stop()
	res.Throughput = tracker.GetAndReset()
	metrics.RunDuration.WithLabelValues(job.Name).Observe(res.Duration.Seconds())

	if err != nil {
		metrics.Runs.WithLabelValues(job.Name, "failure").Inc()
		r.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Int64("rows_read", res.RowsRead),
			zap.Int64("rows_written", res.RowsWritten),
			zap.Error(err))
		return res, err
	}

	metrics.Runs.WithLabelValues(job.Name, "success").Inc()
	r.logger.Info("job completed",
		zap.String("job", job.Name),
		zap.Int64("rows_read", res.RowsRead),
		zap.Int64("rows_written", res.RowsWritten),
		zap.Duration("duration", res.Duration),
		zap.Float64("throughput_rps", res.Throughput))

	return res, nil
}

func (r *Runner) run(ctx context.Context, job *config.Job, tracker *metrics.ThroughputTracker, res *Result) error {
	p, err := r.compile(ctx, job, tracker, res)
	if err != nil {
		return err
	}

	target, format, err := buildTarget(job.Output)
	if err != nil {
		p.Close()
		return err
	}

	return p.Flush(&countingTarget{
		target: target,
		job:    job.Name,
		format: string(format),
		rows:   &res.RowsWritten,
	})
}

// compile builds the pipeline a job describes without consuming it. The
// pipeline owns the opened source files; Close releases them.
func (r *Runner) compile(ctx context.Context, job *config.Job, tracker *metrics.ThroughputTracker, res *Result) (*pipeline.Pipeline, error) {
	sources := make([]*pipeline.Pipeline, 0, len(job.Source.Paths))
	for _, path := range job.Source.Paths {
		src, err := r.openSource(ctx, job.Name, path, tracker, res)
		if err != nil {
			for _, s := range sources {
				s.Close()
			}
			return nil, err
		}
		sources = append(sources, src)
	}

	p := sources[0]
	if len(sources) > 1 {
		p = pipeline.Concat(sources...)
	}

	for i, step := range job.Steps {
		if err := applyStep(p, step); err != nil {
			p.Close()
			return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "step %d", i+1)
		}
	}

	if job.Group != nil {
		p.TransformInto(buildTransforms(job.Group)...)
	}

	return p, nil
}

func (r *Runner) openSource(ctx context.Context, job, path string, tracker *metrics.ThroughputTracker, res *Result) (*pipeline.Pipeline, error) {
	format, _, err := formats.Detect(path)
	if err != nil {
		return nil, err
	}

	reader, err := formats.Open(path)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("opened source",
		zap.String("job", job),
		zap.String("path", path),
		zap.String("format", string(format)))

	return pipeline.FromReader(&countingReader{
		ctx:     ctx,
		reader:  reader,
		job:     job,
		format:  string(format),
		tracker: tracker,
		rows:    &res.RowsRead,
	}), nil
}

// applyStep stacks one configured step onto the pipeline. Column lookups
// are left to the pipeline, which records them as construction errors;
// only the step's functions are compiled here.
func applyStep(p *pipeline.Pipeline, step config.StepConfig) error {
	switch step.Op {
	case config.OpRename:
		p.RenameColumn(step.Column, step.To)

	case config.OpMap:
		fn, err := compileCellFn(step.Fn)
		if err != nil {
			return err
		}
		p.MapColumn(step.Column, fn)

	case config.OpAdd:
		fn, err := compileAddFn(step)
		if err != nil {
			return err
		}
		p.AddColumn(step.Column, fn)

	case config.OpFilter:
		pred, err := compilePredicate(step.Compare, step.Value)
		if err != nil {
			return err
		}
		p.FilterColumn(step.Column, pred)

	case config.OpSelect:
		p.Select(step.Columns...)

	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown op %q", step.Op)
	}
	return nil
}

// compileCellFn turns a cell function spec like "replace:a=b" into the
// function itself.
func compileCellFn(fn string) (pipeline.CellFunc, error) {
	verb, arg := config.SplitFn(fn)
	switch verb {
	case config.FnUpper:
		return func(v string) (string, error) { return strings.ToUpper(v), nil }, nil
	case config.FnLower:
		return func(v string) (string, error) { return strings.ToLower(v), nil }, nil
	case config.FnTrim:
		return func(v string) (string, error) { return strings.TrimSpace(v), nil }, nil
	case config.FnPrefix:
		return func(v string) (string, error) { return arg + v, nil }, nil
	case config.FnSuffix:
		return func(v string) (string, error) { return v + arg, nil }, nil
	case config.FnReplace:
		from, to, ok := strings.Cut(arg, "=")
		if !ok || from == "" {
			return nil, errors.Newf(errors.ErrorTypeConfig, "replace needs a from=to argument, got %q", arg)
		}
		return func(v string) (string, error) { return strings.ReplaceAll(v, from, to), nil }, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown cell function %q", verb)
	}
}

// compileAddFn builds the value function of an add step: a constant, or a
// copy of another column passed through an optional cell function.
func compileAddFn(step config.StepConfig) (pipeline.AddFunc, error) {
	if step.From == "" {
		value := step.Value
		return func(pipeline.Headers, pipeline.Row) (string, error) {
			return value, nil
		}, nil
	}

	var fn pipeline.CellFunc
	if step.Fn != "" {
		var err error
		if fn, err = compileCellFn(step.Fn); err != nil {
			return nil, err
		}
	}

	from := step.From
	return func(h pipeline.Headers, row pipeline.Row) (string, error) {
		v, err := h.Field(row, from)
		if err != nil {
			return "", err
		}
		if fn != nil {
			return fn(v)
		}
		return v, nil
	}, nil
}

// compilePredicate turns a filter comparison into a cell predicate. The
// numeric comparisons parse the cell on every row and fail the run on a
// non-numeric cell, tagged with its row index.
func compilePredicate(compare, value string) (pipeline.CellPredicate, error) {
	switch compare {
	case config.CompareEq:
		return func(v string) (bool, error) { return v == value, nil }, nil
	case config.CompareNe:
		return func(v string) (bool, error) { return v != value, nil }, nil

	case config.CompareGt, config.CompareLt, config.CompareGte, config.CompareLte:
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrorTypeConfig, "comparison value %q is not a number", value)
		}
		return numericPredicate(compare, threshold), nil

	case config.CompareMatch, config.CompareNotMatch:
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "invalid pattern %q", value)
		}
		want := compare == config.CompareMatch
		return func(v string) (bool, error) { return re.MatchString(v) == want, nil }, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown comparison %q", compare)
	}
}

func numericPredicate(compare string, threshold float64) pipeline.CellPredicate {
	return func(v string) (bool, error) {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return false, errors.Newf(errors.ErrorTypeParse, "cannot parse %q as a number", v).
				WithDetail("value", v)
		}
		switch compare {
		case config.CompareGt:
			return n > threshold, nil
		case config.CompareLt:
			return n < threshold, nil
		case config.CompareGte:
			return n >= threshold, nil
		default:
			return n <= threshold, nil
		}
	}
}

// buildTransforms maps the group config onto transformers. Fold defaults
// to keep_unique and From to the output name, mirroring config defaults.
func buildTransforms(group *config.GroupConfig) []pipeline.Transform {
	transforms := make([]pipeline.Transform, 0, len(group.Columns))
	for _, col := range group.Columns {
		t := pipeline.NewTransformer(col.Name)
		if col.From != "" && col.From != col.Name {
			t = t.FromColumn(col.From)
		}
		switch col.Fold {
		case config.FoldFirst:
			// NewTransformer's default
		case config.FoldSum:
			t = t.Sum(col.Seed)
		case config.FoldCount:
			t = t.Count()
		default:
			t = t.KeepUnique()
		}
		transforms = append(transforms, t)
	}
	return transforms
}

// buildTarget picks the output target: a file when a path is configured,
// CSV on standard output otherwise.
func buildTarget(out config.OutputConfig) (pipeline.Target, formats.Format, error) {
	if out.Path == "" {
		return pipeline.NewStdoutTarget(), formats.CSV, nil
	}

	format, _, err := formats.Detect(out.Path)
	if err != nil {
		return nil, "", err
	}

	level, err := compression.ParseLevel(out.CompressionLevel)
	if err != nil {
		return nil, "", err
	}

	return pipeline.NewFileTarget(out.Path).WithLevel(level), format, nil
}

// countingReader wraps a source reader to count rows, feed the metrics
// and stop between rows once the context is cancelled.
type countingReader struct {
	ctx     context.Context
	reader  formats.Reader
	job     string
	format  string
	tracker *metrics.ThroughputTracker
	rows    *int64
}

func (c *countingReader) Header() []string {
	return c.reader.Header()
}

func (c *countingReader) Next() ([]string, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read cancelled")
	}

	row, err := c.reader.Next()
	if err != nil {
		return nil, err
	}

	*c.rows++
	c.tracker.Increment(1)
	metrics.RowsRead.WithLabelValues(c.job, c.format).Inc()
	return row, nil
}

func (c *countingReader) Close() error {
	return c.reader.Close()
}

// countingTarget wraps the output target to count written rows and feed
// the metrics.
type countingTarget struct {
	target pipeline.Target
	job    string
	format string
	rows   *int64
}

func (c *countingTarget) WriteHeader(headers pipeline.Headers) error {
	return c.target.WriteHeader(headers)
}

func (c *countingTarget) WriteRow(row pipeline.Row) error {
	if err := c.target.WriteRow(row); err != nil {
		return err
	}

	*c.rows++
	metrics.RowsWritten.WithLabelValues(c.job, c.format).Inc()
	return nil
}

func (c *countingTarget) Close() error {
	return c.target.Close()
}
