// Package config defines Prism's YAML job specification.
//
// A job file names a source, an ordered list of row steps, an optional
// grouping stage and an output:
//
//	name: score-totals
//	source:
//	  paths:
//	    - input/scores.csv.gz
//	steps:
//	  - op: filter
//	    column: Score
//	    compare: gt
//	    value: "3"
//	  - op: map
//	    column: Person
//	    fn: upper
//	group:
//	  columns:
//	    - name: Person
//	      fold: keep_unique
//	    - name: Total score
//	      from: Score
//	      fold: sum
//	output:
//	  path: out/totals.csv.zst
//	  compression_level: best
//
// Formats and compression are inferred from file extensions, the same
// way the pipeline package does it: .csv, .tsv, .jsonl, .avro and
// .parquet, optionally wrapped in .gz, .zst, .sz, .lz4, .s2 or .zz.
//
// # Steps
//
// Steps run in order, each rewriting the rows the previous one yields:
//
//   - rename: renames a column
//   - map: rewrites a column's cells with a cell function
//   - add: appends a column, either a constant value or derived from
//     another column through a cell function
//   - filter: keeps rows whose cell passes a comparison
//   - select: projects onto the named columns, in order
//
// Cell functions are upper, lower, trim, prefix:ARG, suffix:ARG and
// replace:FROM=TO.
//
// # Environment Variables
//
// ${VAR} references anywhere in the file are replaced from the
// environment before parsing:
//
//	source:
//	  paths:
//	    - ${DATA_DIR}/scores.csv
//
// # Validation
//
// Load parses; Validate checks shape: known operations and folds,
// detectable file extensions, numeric filter operands, compilable
// patterns. Column names are resolved later against the source's actual
// header, when the runner compiles the job into a pipeline.
package config
