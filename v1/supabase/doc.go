// Package supabase is the managed-client backend adapter. It drives query
// descriptors through the hosted service's own PostgREST client, which
// already understands filters, projections, ordering, and RPC natively.
// No SQL is generated here.
//
// The adapter's whole job is shape normalization: descriptors map onto the
// native chainable call surface, JSON response bodies decode into the
// uniform result rows, and the service's error format is classified into
// the shared taxonomy from the query package.
//
// Writes request returning=representation so affected rows come back
// exactly like the direct-SQL backend's RETURNING *. The approximate-search
// quality knob is owned by the hosted service and cannot be forwarded per
// call; descriptors that set it are executed with the service's own
// settings.
package supabase
