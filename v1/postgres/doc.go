// Package postgres is the direct-SQL backend adapter: it executes query
// descriptors against a self-hosted PostgreSQL instance (with the pgvector
// extension) over jackc/pgx, generating parameterized SQL itself.
//
// # Responsibilities
//
//   - Translate each descriptor into SQL text plus an ordered parameter
//     list. Values are only ever bound parameters; identifiers are quoted.
//     Vector values render with a dimensioned ::vector cast, map and slice
//     payload values with a ::jsonb cast.
//   - Own a bounded pgxpool. Borrowing waits at most the configured acquire
//     timeout and then fails with a connection-failure error, giving natural
//     backpressure instead of unbounded connection growth.
//   - Discard connections that failed at the protocol level so the pool
//     replaces them, while returning healthy connections after server-side
//     statement errors (a constraint violation does not poison a connection).
//   - Map driver errors onto the shared taxonomy in the query package using
//     SQLSTATE classes.
//
// Writes append RETURNING * so callers see affected rows exactly as the
// managed-client backend reports them. Similarity-search calls run inside a
// transaction that pins hnsw.ef_search for the statement, either to the
// descriptor's SearchQuality or to the configured baseline.
//
// # Usage
//
//	client, err := postgres.NewClient(postgres.Config{DSN: dsn}, log)
//	if err != nil {
//	    return err
//	}
//	defer client.GracefulShutdown()
//
//	res, err := client.Execute(ctx, query.Table("tasks").
//	    Select().Eq("status", "todo").MustBuild())
//
// Most applications should construct this adapter through the dbclient
// factory rather than directly.
package postgres
