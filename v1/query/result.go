package query

// Result is the uniform outcome of executing one descriptor, identical in
// shape across backends. Rows holds the returned (or affected) rows in
// order; Count is always len(Rows) since both backends return affected rows
// for writes.
type Result struct {
	Rows  []Row
	Count int
}

// NewResult wraps rows into a Result. A nil slice normalizes to an empty
// one so callers can range without nil checks.
func NewResult(rows []Row) *Result {
	if rows == nil {
		rows = []Row{}
	}
	return &Result{Rows: rows, Count: len(rows)}
}

// First returns the first row, if any.
func (r *Result) First() (Row, bool) {
	if r == nil || len(r.Rows) == 0 {
		return nil, false
	}
	return r.Rows[0], true
}
