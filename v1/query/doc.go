// Package query defines the backend-agnostic description of a single
// database operation and the uniform result shape it produces.
//
// A Descriptor is built through an immutable, chainable Builder and then
// handed to whichever backend adapter the factory produced. Builders never
// perform I/O: every chained call returns a new builder value, so a builder
// prefix can be branched and reused safely across goroutines.
//
//	d, err := query.Table("tasks").
//	    Select("id", "status").
//	    Eq("status", "todo").
//	    OrderBy("created_at", query.Descending).
//	    Limit(20).
//	    Build()
//
// Server-side functions (similarity search and friends) bypass the
// relation-style chain entirely:
//
//	d, err := query.CallFunction("match_documents").
//	    Arg("query_embedding", embedding).
//	    Arg("match_count", 5).
//	    SearchQuality(80).
//	    Build()
//
// The package also owns the shared error taxonomy (Error, ErrorKind) that
// both backend adapters normalize their native failures into, so calling
// code never branches on provider.
package query
