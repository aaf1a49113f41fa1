package query

// Builder accumulates descriptor state through chained calls. It is a value
// type with copy-on-write semantics: every method returns a new Builder, so
// builders can be branched, stored, and shared without synchronization.
type Builder struct {
	d Descriptor
}

// Table starts a builder for a relation-style operation (Select, Insert,
// Update, Delete) against the named relation.
func Table(name string) Builder {
	return Builder{d: Descriptor{Target: name}}
}

// CallFunction starts a builder for a server-side function invocation.
// Arguments are attached with Arg and passed in declaration order.
func CallFunction(name string) Builder {
	return Builder{d: Descriptor{Target: name, Kind: KindCall}}
}

// Select marks the operation as a read and optionally narrows the
// projection. No columns means all columns.
func (b Builder) Select(columns ...string) Builder {
	d := b.d.clone()
	d.Kind = KindSelect
	d.Projection = append(d.Projection, columns...)
	return Builder{d}
}

// Insert marks the operation as an insert of one or more rows.
func (b Builder) Insert(rows ...Row) Builder {
	d := b.d.clone()
	d.Kind = KindInsert
	d.Payload = append(d.Payload, rows...)
	return Builder{d}
}

// Upsert marks the operation as an insert that updates on conflict with the
// named column. An empty onConflict skips conflicting rows instead.
func (b Builder) Upsert(onConflict string, rows ...Row) Builder {
	d := b.d.clone()
	d.Kind = KindInsert
	d.Upsert = true
	d.OnConflict = onConflict
	d.Payload = append(d.Payload, rows...)
	return Builder{d}
}

// Update marks the operation as an update applying the given column
// assignments to every row matching the filters.
func (b Builder) Update(set Row) Builder {
	d := b.d.clone()
	d.Kind = KindUpdate
	d.Payload = []Row{set}
	return Builder{d}
}

// Delete marks the operation as a delete of every row matching the filters.
func (b Builder) Delete() Builder {
	d := b.d.clone()
	d.Kind = KindDelete
	return Builder{d}
}

func (b Builder) filter(column string, op Operator, value any) Builder {
	d := b.d.clone()
	d.Filters = append(d.Filters, Filter{Column: column, Op: op, Value: value})
	return Builder{d}
}

// Eq adds an equality filter.
func (b Builder) Eq(column string, value any) Builder { return b.filter(column, OpEq, value) }

// Neq adds an inequality filter.
func (b Builder) Neq(column string, value any) Builder { return b.filter(column, OpNeq, value) }

// In adds a set-membership filter.
func (b Builder) In(column string, values ...any) Builder { return b.filter(column, OpIn, values) }

// Lt adds a less-than filter.
func (b Builder) Lt(column string, value any) Builder { return b.filter(column, OpLt, value) }

// Lte adds a less-than-or-equal filter.
func (b Builder) Lte(column string, value any) Builder { return b.filter(column, OpLte, value) }

// Gt adds a greater-than filter.
func (b Builder) Gt(column string, value any) Builder { return b.filter(column, OpGt, value) }

// Gte adds a greater-than-or-equal filter.
func (b Builder) Gte(column string, value any) Builder { return b.filter(column, OpGte, value) }

// ILike adds a case-insensitive pattern filter.
func (b Builder) ILike(column string, pattern string) Builder {
	return b.filter(column, OpILike, pattern)
}

// OrderBy sets the sort column and direction. A later call replaces an
// earlier one; the descriptor carries a single ordering.
func (b Builder) OrderBy(column string, dir Direction) Builder {
	d := b.d.clone()
	d.Order = &Ordering{Column: column, Direction: dir}
	return Builder{d}
}

// Limit caps the number of returned rows.
func (b Builder) Limit(n int) Builder {
	d := b.d.clone()
	d.Limit = &n
	return Builder{d}
}

// Single marks the operation as expecting exactly one row; zero matches
// become a NotFound error.
func (b Builder) Single() Builder {
	d := b.d.clone()
	d.ExactlyOne = true
	return Builder{d}
}

// AllowUnfiltered acknowledges a whole-table Update or Delete. Without it the
// adapters reject unfiltered mutations before reaching the database.
func (b Builder) AllowUnfiltered() Builder {
	d := b.d.clone()
	d.AllowUnfiltered = true
	return Builder{d}
}

// Arg attaches a named function argument. Only meaningful on CallFunction
// builders; argument order is preserved.
func (b Builder) Arg(name string, value any) Builder {
	d := b.d.clone()
	d.Args = append(d.Args, Arg{Name: name, Value: value})
	return Builder{d}
}

// SearchQuality overrides the approximate-search recall/speed knob for this
// call. Zero keeps the backend baseline.
func (b Builder) SearchQuality(n int) Builder {
	d := b.d.clone()
	d.SearchQuality = n
	return Builder{d}
}

// Build finalizes the descriptor. Construction problems (missing target, no
// operation, payload/kind mismatches, unfiltered mutations without the
// override) are reported here, before any adapter or network is involved.
func (b Builder) Build() (Descriptor, error) {
	d := b.d.clone()
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// MustBuild is Build for descriptors constructed from constants, where a
// construction error is a bug. It panics on error.
func (b Builder) MustBuild() Descriptor {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
