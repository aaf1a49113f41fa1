package query

// Kind identifies the operation a Descriptor describes.
type Kind int

const (
	KindUnknown Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindCall
)

// String returns the lowercase operation name, suitable for logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// Operator is a filter comparison operator. All filters on a descriptor are
// conjunctive (AND); the operator set is deliberately closed so both backends
// can translate every descriptor they are handed.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpIn    Operator = "in"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpILike Operator = "ilike"
)

// Direction is an ordering direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Row is one database row (or one payload row), keyed by column name.
type Row map[string]any

// Filter is one (column, operator, value) constraint. For OpIn the value
// must be a slice.
type Filter struct {
	Column string
	Op     Operator
	Value  any
}

// Ordering is an optional (column, direction) sort instruction.
type Ordering struct {
	Column    string
	Direction Direction
}

// Arg is one named server-side function argument. Order matters: arguments
// are passed to the function in the order they were declared on the builder.
type Arg struct {
	Name  string
	Value any
}

// Descriptor is the immutable description of one pending database operation.
//
// A Descriptor is a plain value: adapters read it but never modify it, and a
// descriptor that has been handed to an adapter can be executed again later
// (idempotent reads) or inspected for logging. Which fields are meaningful
// depends on Kind; Validate enforces the combinations.
type Descriptor struct {
	// Target is a relation name (Select/Insert/Update/Delete) or a
	// server-side function name (Call).
	Target string

	Kind Kind

	// Filters are ANDed constraints. Meaningful for Select/Update/Delete.
	Filters []Filter

	// Payload carries the rows to write. Insert accepts one or more rows;
	// Update accepts exactly one row of column assignments.
	Payload []Row

	// Projection lists the columns to select; empty means all columns.
	Projection []string

	// Order is the optional sort instruction for Select.
	Order *Ordering

	// Limit caps the number of returned rows when non-nil. Zero is a valid
	// cap (return no rows).
	Limit *int

	// Args are the ordered named arguments for Call descriptors.
	Args []Arg

	// OnConflict names the conflict column for an upsert Insert. Empty with
	// Upsert set means conflicting rows are skipped rather than updated.
	OnConflict string

	// Upsert turns an Insert into INSERT ... ON CONFLICT.
	Upsert bool

	// AllowUnfiltered acknowledges a whole-table Update/Delete. Without it,
	// an unfiltered mutation is rejected before reaching the database.
	AllowUnfiltered bool

	// ExactlyOne marks the operation as expecting exactly one row; zero
	// matches surface as a NotFound error instead of an empty result.
	ExactlyOne bool

	// SearchQuality overrides the approximate-search recall/speed knob for
	// similarity-search Calls. Zero means the backend baseline.
	SearchQuality int
}

// ReadOnly reports whether the descriptor performs no mutation. Read-only
// descriptors are safe to retry after a connection failure; writes never are.
func (d Descriptor) ReadOnly() bool {
	return d.Kind == KindSelect || d.Kind == KindCall
}

// Validate checks the descriptor before any dispatch. Violations are
// caller programming errors and are reported without a network round trip.
func (d Descriptor) Validate() *Error {
	if d.Target == "" {
		return Errorf(TranslationError, "descriptor has no target relation or function")
	}

	switch d.Kind {
	case KindSelect:
		if len(d.Payload) > 0 {
			return Errorf(TranslationError, "select on %q carries a payload", d.Target)
		}
	case KindInsert:
		if len(d.Payload) == 0 {
			return Errorf(TranslationError, "insert into %q has no rows", d.Target)
		}
	case KindUpdate:
		if len(d.Payload) != 1 {
			return Errorf(TranslationError, "update on %q needs exactly one assignment row, got %d", d.Target, len(d.Payload))
		}
		if len(d.Payload[0]) == 0 {
			return Errorf(TranslationError, "update on %q assigns no columns", d.Target)
		}
		if len(d.Filters) == 0 && !d.AllowUnfiltered {
			return Errorf(UnsafeMutation, "update on %q has no filters; chain AllowUnfiltered() to mutate the whole relation", d.Target)
		}
	case KindDelete:
		if len(d.Payload) > 0 {
			return Errorf(TranslationError, "delete on %q carries a payload", d.Target)
		}
		if len(d.Filters) == 0 && !d.AllowUnfiltered {
			return Errorf(UnsafeMutation, "delete on %q has no filters; chain AllowUnfiltered() to mutate the whole relation", d.Target)
		}
	case KindCall:
		if len(d.Filters) > 0 || len(d.Payload) > 0 {
			return Errorf(TranslationError, "call of %q cannot carry filters or payload", d.Target)
		}
	default:
		return Errorf(TranslationError, "descriptor for %q has no operation; chain Select, Insert, Update, Delete or use CallFunction", d.Target)
	}

	if d.Limit != nil && *d.Limit < 0 {
		return Errorf(TranslationError, "negative limit %d on %q", *d.Limit, d.Target)
	}

	return nil
}

// clone returns a deep-enough copy for copy-on-write builder semantics:
// slices are duplicated so appends on a branched builder never alias.
// Row maps and values are shared; builders treat them as read-only.
func (d Descriptor) clone() Descriptor {
	c := d
	if d.Filters != nil {
		c.Filters = append([]Filter(nil), d.Filters...)
	}
	if d.Payload != nil {
		c.Payload = append([]Row(nil), d.Payload...)
	}
	if d.Projection != nil {
		c.Projection = append([]string(nil), d.Projection...)
	}
	if d.Args != nil {
		c.Args = append([]Arg(nil), d.Args...)
	}
	if d.Order != nil {
		o := *d.Order
		c.Order = &o
	}
	if d.Limit != nil {
		n := *d.Limit
		c.Limit = &n
	}
	return c
}
