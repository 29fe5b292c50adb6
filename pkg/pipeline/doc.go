// Package pipeline provides Prism's lazy row pipeline: a chain of
// transformations over tabular data that reads, transforms and writes one
// row at a time.
//
// # Overview
//
// A Pipeline is built from a source, stacked with combinators, and drained
// by a terminal:
//
//   - Sources: FromPath, FromReader, FromRows, Concat
//   - Combinators: Map, AddColumn, RenameColumn, MapColumn, Filter,
//     FilterColumn, Select, TransformInto
//   - Terminals: Rows, String, Flush, Run, Iter
//
// Combinators are lazy. Stacking them performs no I/O and touches no rows;
// everything happens in the single pass driven by the terminal. Except for
// the grouping stage, memory use is one row at a time regardless of input
// size.
//
// # Basic Usage
//
// Reading a CSV file, deriving a column and writing the result:
//
//	err := pipeline.FromPath("people.csv").
//		AddColumn("Greeting", func(h pipeline.Headers, r pipeline.Row) (string, error) {
//			i, err := h.Index("Name")
//			if err != nil {
//				return "", err
//			}
//			return "Hello " + r[i], nil
//		}).
//		MapColumn("Name", func(v string) (string, error) {
//			return strings.ToUpper(v), nil
//		}).
//		Flush(pipeline.NewFileTarget("out/people.csv"))
//
// # Headers and Rows
//
// Headers is the ordered registry of column names at a stage; Row is the
// matching cell slice. Every row flowing through a stage has exactly one
// cell per registered column. Combinators that change the column set
// (AddColumn, Select, TransformInto) derive a new registry for the stages
// after them.
//
// Column references resolve when the combinator is called: a missing
// column fails the pipeline immediately rather than on the first row, and
// MapColumn keeps pointing at the position it resolved even if the column
// is renamed afterwards.
//
// # Grouping
//
// TransformInto folds the stream into one row per group:
//
//	h, rows, err := pipeline.FromPath("scores.csv").
//		TransformInto(
//			pipeline.NewTransformer("Person").KeepUnique(),
//			pipeline.NewTransformer("Score").Sum(0),
//		).
//		Rows()
//
// Keyed transforms (first-value and KeepUnique) define the grouping key;
// Sum, Count and Reduce aggregate within each group. Groups surface in
// the order their first row appeared. Only the accumulators are buffered,
// not the grouped rows.
//
// # Error Handling
//
// Construction errors (unknown columns, duplicate names, unreadable
// files) stick to the pipeline and surface at the terminal; the stage
// methods stay chainable. Row-level errors abort the single pass and
// carry the 0-based index of the source row that caused them, surviving
// filters and projections in between:
//
//	_, _, err := pipeline.FromPath("scores.csv").
//		Filter(keepRecent).
//		TransformInto(pipeline.NewTransformer("Score").Sum(0)).
//		Rows()
//	if row, ok := errors.RowIndex(err); ok {
//		// row indexes the offending line of scores.csv
//	}
//
// # Consumption
//
// A pipeline is consumed by its terminal, which also releases the source
// file handles. Stacking onto or re-draining a consumed pipeline fails
// with a validation error. Use Iter for streaming consumption and Close
// to abandon a pipeline without draining it.
package pipeline
