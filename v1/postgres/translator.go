package postgres

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/helixdata/dbridge/v1/query"
)

// The translator is a pure function from descriptor to (SQL text, ordered
// parameters). Every value becomes a bound parameter; the only text that
// ever reaches the SQL string is quoted identifiers and fixed keywords, so
// injection is structurally impossible rather than a caller discipline.

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// binder accumulates the ordered parameter list and hands out placeholders.
type binder struct {
	args []any
}

// bind adds a value and returns its placeholder, attaching the dialect casts
// the wire representation needs: fixed-length vectors get a dimensioned
// vector cast, maps and non-vector slices are encoded as jsonb.
func (b *binder) bind(v any) string {
	switch vv := v.(type) {
	case pgvector.Vector:
		b.args = append(b.args, vv)
		return fmt.Sprintf("$%d::vector(%d)", len(b.args), len(vv.Slice()))
	case []float32:
		b.args = append(b.args, pgvector.NewVector(vv))
		return fmt.Sprintf("$%d::vector(%d)", len(b.args), len(vv))
	case map[string]any, []any, []map[string]any, []string, []int, []int64, []float64:
		encoded, err := json.Marshal(vv)
		if err != nil {
			// Unmarshalable payloads are caught earlier by bindScalar callers
			// via translate's validation; fall through to a plain bind.
			b.args = append(b.args, vv)
			return fmt.Sprintf("$%d", len(b.args))
		}
		b.args = append(b.args, string(encoded))
		return fmt.Sprintf("$%d::jsonb", len(b.args))
	default:
		b.args = append(b.args, v)
		return fmt.Sprintf("$%d", len(b.args))
	}
}

// bindPlain adds a value without any cast treatment (limits, array operands).
func (b *binder) bindPlain(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// translate turns a validated descriptor into parameterized SQL.
func translate(d query.Descriptor) (string, []any, *query.Error) {
	switch d.Kind {
	case query.KindSelect:
		return translateSelect(d)
	case query.KindInsert:
		return translateInsert(d)
	case query.KindUpdate:
		return translateUpdate(d)
	case query.KindDelete:
		return translateDelete(d)
	case query.KindCall:
		return translateCall(d)
	default:
		return "", nil, query.Errorf(query.TranslationError, "unsupported operation kind %s", d.Kind)
	}
}

func translateSelect(d query.Descriptor) (string, []any, *query.Error) {
	var b binder
	var sb strings.Builder

	sb.WriteString("SELECT ")
	if len(d.Projection) == 0 {
		sb.WriteString("*")
	} else {
		cols := make([]string, len(d.Projection))
		for i, col := range d.Projection {
			cols[i] = quoteIdent(col)
		}
		sb.WriteString(strings.Join(cols, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(d.Target))

	if err := writeWhere(&sb, &b, d.Filters); err != nil {
		return "", nil, err
	}

	if d.Order != nil {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(quoteIdent(d.Order.Column))
		if d.Order.Direction == query.Descending {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}
	if d.Limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.bindPlain(*d.Limit))
	}

	return sb.String(), b.args, nil
}

func translateInsert(d query.Descriptor) (string, []any, *query.Error) {
	columns, err := batchColumns(d)
	if err != nil {
		return "", nil, err
	}

	var b binder
	var sb strings.Builder

	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteIdent(d.Target))
	sb.WriteString(" (")
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	tuples := make([]string, len(d.Payload))
	for i, row := range d.Payload {
		placeholders := make([]string, len(columns))
		for j, col := range columns {
			placeholders[j] = b.bind(row[col])
		}
		tuples[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}
	sb.WriteString(strings.Join(tuples, ", "))

	if d.Upsert {
		writeConflictClause(&sb, d, columns)
	}
	sb.WriteString(" RETURNING *")

	return sb.String(), b.args, nil
}

// writeConflictClause renders ON CONFLICT for upserts: with a conflict
// column, every other inserted column is refreshed from EXCLUDED; without
// one, conflicting rows are skipped.
func writeConflictClause(sb *strings.Builder, d query.Descriptor, columns []string) {
	var updates []string
	for _, col := range columns {
		if col == d.OnConflict {
			continue
		}
		updates = append(updates, quoteIdent(col)+" = EXCLUDED."+quoteIdent(col))
	}
	if d.OnConflict == "" || len(updates) == 0 {
		sb.WriteString(" ON CONFLICT DO NOTHING")
		return
	}
	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(quoteIdent(d.OnConflict))
	sb.WriteString(") DO UPDATE SET ")
	sb.WriteString(strings.Join(updates, ", "))
}

func translateUpdate(d query.Descriptor) (string, []any, *query.Error) {
	set := d.Payload[0]
	columns := sortedColumns(set)
	if len(columns) == 0 {
		return "", nil, query.Errorf(query.TranslationError, "update on %q assigns no columns", d.Target)
	}

	var b binder
	var sb strings.Builder

	sb.WriteString("UPDATE ")
	sb.WriteString(quoteIdent(d.Target))
	sb.WriteString(" SET ")
	assignments := make([]string, len(columns))
	for i, col := range columns {
		assignments[i] = quoteIdent(col) + " = " + b.bind(set[col])
	}
	sb.WriteString(strings.Join(assignments, ", "))

	if err := writeWhere(&sb, &b, d.Filters); err != nil {
		return "", nil, err
	}
	sb.WriteString(" RETURNING *")

	return sb.String(), b.args, nil
}

func translateDelete(d query.Descriptor) (string, []any, *query.Error) {
	var b binder
	var sb strings.Builder

	sb.WriteString("DELETE FROM ")
	sb.WriteString(quoteIdent(d.Target))
	if err := writeWhere(&sb, &b, d.Filters); err != nil {
		return "", nil, err
	}
	sb.WriteString(" RETURNING *")

	return sb.String(), b.args, nil
}

func translateCall(d query.Descriptor) (string, []any, *query.Error) {
	var b binder
	var sb strings.Builder

	sb.WriteString("SELECT * FROM ")
	sb.WriteString(quoteIdent(d.Target))
	sb.WriteString("(")
	params := make([]string, len(d.Args))
	for i, arg := range d.Args {
		if !identPattern.MatchString(arg.Name) {
			return "", nil, query.Errorf(query.TranslationError, "invalid function parameter name %q", arg.Name)
		}
		params[i] = arg.Name + " => " + b.bind(arg.Value)
	}
	sb.WriteString(strings.Join(params, ", "))
	sb.WriteString(")")

	return sb.String(), b.args, nil
}

// writeWhere renders the conjunctive filter list. Filters are ANDed in the
// order they were declared.
func writeWhere(sb *strings.Builder, b *binder, filters []query.Filter) *query.Error {
	if len(filters) == 0 {
		return nil
	}
	clauses := make([]string, len(filters))
	for i, f := range filters {
		clause, err := filterClause(b, f)
		if err != nil {
			return err
		}
		clauses[i] = clause
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(clauses, " AND "))
	return nil
}

func filterClause(b *binder, f query.Filter) (string, *query.Error) {
	col := quoteIdent(f.Column)
	switch f.Op {
	case query.OpEq:
		return col + " = " + b.bind(f.Value), nil
	case query.OpNeq:
		return col + " <> " + b.bind(f.Value), nil
	case query.OpLt:
		return col + " < " + b.bind(f.Value), nil
	case query.OpLte:
		return col + " <= " + b.bind(f.Value), nil
	case query.OpGt:
		return col + " > " + b.bind(f.Value), nil
	case query.OpGte:
		return col + " >= " + b.bind(f.Value), nil
	case query.OpILike:
		return col + " ILIKE " + b.bind(f.Value), nil
	case query.OpIn:
		arr, err := membershipArray(f)
		if err != nil {
			return "", err
		}
		return col + " = ANY(" + b.bindPlain(arr) + ")", nil
	default:
		return "", query.Errorf(query.TranslationError, "unsupported filter operator %q on column %q", f.Op, f.Column)
	}
}

// membershipArray normalizes an OpIn value into a homogeneous typed slice so
// it binds as one Postgres array parameter. Heterogeneous sequences cannot
// be typed as a single array and are a translation error.
func membershipArray(f query.Filter) (any, *query.Error) {
	values, ok := f.Value.([]any)
	if !ok {
		// Already a typed slice ([]string, []int64, ...); bind as-is.
		switch f.Value.(type) {
		case []string, []int, []int32, []int64, []float32, []float64, []bool:
			return f.Value, nil
		}
		return nil, query.Errorf(query.TranslationError, "in-filter on %q needs a sequence value, got %T", f.Column, f.Value)
	}
	if len(values) == 0 {
		return []string{}, nil
	}

	switch values[0].(type) {
	case string:
		out := make([]string, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, mixedMembershipErr(f.Column)
			}
			out[i] = s
		}
		return out, nil
	case int:
		out := make([]int64, len(values))
		for i, v := range values {
			n, ok := v.(int)
			if !ok {
				return nil, mixedMembershipErr(f.Column)
			}
			out[i] = int64(n)
		}
		return out, nil
	case int64:
		out := make([]int64, len(values))
		for i, v := range values {
			n, ok := v.(int64)
			if !ok {
				return nil, mixedMembershipErr(f.Column)
			}
			out[i] = n
		}
		return out, nil
	case float64:
		out := make([]float64, len(values))
		for i, v := range values {
			n, ok := v.(float64)
			if !ok {
				return nil, mixedMembershipErr(f.Column)
			}
			out[i] = n
		}
		return out, nil
	case bool:
		out := make([]bool, len(values))
		for i, v := range values {
			x, ok := v.(bool)
			if !ok {
				return nil, mixedMembershipErr(f.Column)
			}
			out[i] = x
		}
		return out, nil
	default:
		return nil, query.Errorf(query.TranslationError, "in-filter on %q has unsupported element type %T", f.Column, values[0])
	}
}

func mixedMembershipErr(column string) *query.Error {
	return query.Errorf(query.TranslationError, "in-filter on %q mixes element types", column)
}

// batchColumns derives the shared column set of an insert batch, sorted for
// deterministic SQL. Every row must carry exactly the same columns; a
// mismatched batch fails here, before any SQL is produced.
func batchColumns(d query.Descriptor) ([]string, *query.Error) {
	columns := sortedColumns(d.Payload[0])
	if len(columns) == 0 {
		return nil, query.Errorf(query.TranslationError, "insert into %q has a row with no columns", d.Target)
	}
	for i, row := range d.Payload[1:] {
		if len(row) != len(columns) {
			return nil, batchMismatchErr(d.Target, i+1)
		}
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				return nil, batchMismatchErr(d.Target, i+1)
			}
		}
	}
	return columns, nil
}

func batchMismatchErr(target string, row int) *query.Error {
	return query.Errorf(query.TranslationError, "insert batch into %q: row %d has a different column set than row 0", target, row)
}

func sortedColumns(row query.Row) []string {
	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
