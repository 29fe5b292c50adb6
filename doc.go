// Package prism provides lazy, single-pass pipelines over tabular data
// with named columns.
//
// A pipeline reads rows from a file or an in-memory table, transforms them
// through stacked combinators, optionally folds them into groups, and
// writes the result. Nothing is read or computed until a terminal pulls:
// stacking a combinator is constant-time work, and every row flows through
// the whole chain exactly once.
//
// # Architecture
//
// Prism is built on three structural decisions:
//
// 1. Header Registry: column names live in an immutable registry beside
// the stream, not inside the rows. Rows stay plain []string cell slices;
// renaming a column touches the registry only, and cell access goes
// through a resolved position.
//
// 2. Pull Evaluation: stages form a chain of pull steps. Each pulled row
// carries its 0-based position in the original source, so an error
// surfaced rows later still names the input row that caused it, even
// after filters drop rows in between.
//
// 3. Errors as Values: a missing file, an unknown column or a cell that
// fails to parse produces a typed error value with structured detail,
// never a panic. Construction errors stick to the pipeline and surface at
// the terminal.
//
// # Quick Start
//
// Total the scores per person in a CSV file:
//
//	import "github.com/ajitpratap0/prism/pkg/pipeline"
//
//	p := pipeline.FromPath("scores.csv")
//	p.TransformInto(
//	    pipeline.NewTransformer("Person").KeepUnique(),
//	    pipeline.NewTransformer("Total score").FromColumn("Score").Sum(0),
//	)
//	err := p.Flush(pipeline.NewFileTarget("totals.csv"))
//
// Or describe the same run as a YAML job and execute it with the CLI:
//
//	prism run totals.yaml
//
// # Key Packages
//
//	pkg/pipeline     - Headers, rows, combinators, grouping, targets
//	pkg/formats      - CSV, TSV, JSON Lines, Avro and Parquet readers/writers
//	pkg/compression  - Transparent gzip, zstd, snappy, s2, lz4 and deflate
//	pkg/config       - Declarative YAML jobs with validation
//	pkg/errors       - Structured error handling with row tagging
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus collectors for runs
//	internal/runner  - Compiles jobs into pipelines and executes them
//	cmd/prism        - The prism command line tool
//
// # File Formats
//
// Formats and compression are picked by file extension:
//
//	scores.csv         comma-separated, header row
//	scores.tsv         tab-separated, header row
//	scores.jsonl       one JSON object per line
//	scores.avro        Avro object container file
//	scores.parquet     Parquet (read only)
//	scores.csv.gz      any of the above behind gzip, zstd (.zst),
//	                   snappy (.sz), s2 (.s2), lz4 (.lz4) or deflate (.zz)
//
// # Semantics
//
// The core guarantees the library is built around:
//
//   - Single pass: a pipeline is consumed once; a second terminal call
//     reports an error instead of silently rereading.
//   - Order: rows keep their source order; groups appear in first-seen
//     order of their key.
//   - Abort on first error: the first failing row or cell stops the run,
//     and its original row index rides on the returned error.
//   - Lazy construction: combinators never touch the data; an invalid
//     stage is reported by the terminal without reading a single row.
//
// See the examples directory for complete programs.
package prism
