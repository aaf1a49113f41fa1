package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/helixdata/dbridge/v1/query"
)

// Execute runs one descriptor through the native client and normalizes the
// outcome. Reads are retried once on network-level failure, mirroring the
// direct-SQL backend's retry policy; writes never are.
func (c *Client) Execute(ctx context.Context, d query.Descriptor) (*query.Result, error) {
	if verr := d.Validate(); verr != nil {
		return nil, verr
	}
	if err := ctx.Err(); err != nil {
		return nil, query.WrapError(query.BackendError, "", fmt.Errorf("context ended before dispatch: %w", err))
	}

	rows, err := c.execute(d)
	if err != nil && d.ReadOnly() && query.IsConnectionFailure(err) {
		c.log.Warn("read failed at network level, retrying once", err, map[string]interface{}{
			"target": d.Target,
		})
		rows, err = c.execute(d)
	}
	if err != nil {
		return nil, err
	}

	if d.ExactlyOne {
		if len(rows) == 0 {
			return nil, query.Errorf(query.NotFound, "no rows from %q where exactly one was expected", d.Target)
		}
		if len(rows) > 1 {
			return nil, query.Errorf(query.BackendError, "%d rows from %q where exactly one was expected", len(rows), d.Target)
		}
	}
	return query.NewResult(rows), nil
}

func (c *Client) execute(d query.Descriptor) ([]query.Row, error) {
	if d.Kind == query.KindCall {
		return c.call(d)
	}
	return c.tableOperation(d)
}

// tableOperation maps a relation-style descriptor onto the native chainable
// surface.
func (c *Client) tableOperation(d query.Descriptor) ([]query.Row, error) {
	builder := c.rest.From(d.Target)

	var fb *postgrest.FilterBuilder
	switch d.Kind {
	case query.KindSelect:
		fb = builder.Select(projection(d), "", false)
	case query.KindInsert:
		fb = builder.Insert(insertBody(d), d.Upsert, d.OnConflict, "representation", "")
	case query.KindUpdate:
		fb = builder.Update(d.Payload[0], "representation", "")
	case query.KindDelete:
		fb = builder.Delete("representation", "")
	default:
		return nil, query.Errorf(query.TranslationError, "unsupported operation kind %s", d.Kind)
	}

	fb, ferr := applyFilters(fb, d.Filters)
	if ferr != nil {
		return nil, ferr
	}
	if d.Order != nil {
		fb = fb.Order(d.Order.Column, &postgrest.OrderOpts{
			Ascending: d.Order.Direction != query.Descending,
		})
	}
	if d.Limit != nil {
		fb = fb.Limit(*d.Limit, "")
	}

	data, _, err := fb.Execute()
	if err != nil {
		return nil, mapError(err)
	}
	return decodeRows(data)
}

// call invokes a server-side function. The native client surfaces RPC
// failures on the shared client value, so dispatch is serialized.
func (c *Client) call(d query.Descriptor) ([]query.Row, error) {
	if d.SearchQuality > 0 {
		c.log.Debug("search quality override ignored; the hosted service owns its index settings", nil, map[string]interface{}{
			"function": d.Target,
		})
	}

	body := make(map[string]any, len(d.Args))
	for _, arg := range d.Args {
		body[arg.Name] = arg.Value
	}

	c.rpcMu.Lock()
	raw := c.rest.Rpc(d.Target, "", body)
	err := c.rest.ClientError
	c.rest.ClientError = nil
	c.rpcMu.Unlock()

	if err != nil {
		return nil, mapError(err)
	}
	return decodeRows([]byte(raw))
}

// insertBody keeps single-row inserts as one object so the service reports
// them the way its own clients do.
func insertBody(d query.Descriptor) any {
	if len(d.Payload) == 1 {
		return d.Payload[0]
	}
	return d.Payload
}

func projection(d query.Descriptor) string {
	if len(d.Projection) == 0 {
		return "*"
	}
	return strings.Join(d.Projection, ",")
}

func applyFilters(fb *postgrest.FilterBuilder, filters []query.Filter) (*postgrest.FilterBuilder, *query.Error) {
	for _, f := range filters {
		switch f.Op {
		case query.OpEq:
			fb = fb.Eq(f.Column, formatValue(f.Value))
		case query.OpNeq:
			fb = fb.Neq(f.Column, formatValue(f.Value))
		case query.OpLt:
			fb = fb.Lt(f.Column, formatValue(f.Value))
		case query.OpLte:
			fb = fb.Lte(f.Column, formatValue(f.Value))
		case query.OpGt:
			fb = fb.Gt(f.Column, formatValue(f.Value))
		case query.OpGte:
			fb = fb.Gte(f.Column, formatValue(f.Value))
		case query.OpILike:
			fb = fb.Ilike(f.Column, formatValue(f.Value))
		case query.OpIn:
			values, err := membershipStrings(f)
			if err != nil {
				return nil, err
			}
			fb = fb.In(f.Column, values)
		default:
			return nil, query.Errorf(query.TranslationError, "unsupported filter operator %q on column %q", f.Op, f.Column)
		}
	}
	return fb, nil
}

// formatValue renders a filter operand the way the service's query string
// expects it. Structured values travel as JSON.
func formatValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return "null"
	case string:
		return vv
	case map[string]any, []any:
		encoded, err := json.Marshal(vv)
		if err != nil {
			return fmt.Sprintf("%v", vv)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func membershipStrings(f query.Filter) ([]string, *query.Error) {
	rv := reflect.ValueOf(f.Value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, query.Errorf(query.TranslationError, "in-filter on %q needs a sequence value, got %T", f.Column, f.Value)
	}
	out := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = formatValue(rv.Index(i).Interface())
	}
	return out, nil
}

// decodeRows materializes a JSON response body into uniform rows. Function
// results may be an array, a single object, or nothing.
func decodeRows(data []byte) ([]query.Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []query.Row{}, nil
	}

	if trimmed[0] == '{' {
		var row query.Row
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, query.WrapError(query.BackendError, "", fmt.Errorf("decode response object: %w", err))
		}
		return []query.Row{row}, nil
	}

	var rows []query.Row
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, query.WrapError(query.BackendError, "", fmt.Errorf("decode response rows: %w", err))
	}
	if rows == nil {
		rows = []query.Row{}
	}
	return rows, nil
}
