package pipeline

// Row is a single record as ordered string cells. A row flowing through a
// pipeline stage has exactly as many cells as that stage's Headers, with
// cell positions matching column positions.
type Row []string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}
