package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/helixdata/dbridge/v1/logger"
	"github.com/helixdata/dbridge/v1/query"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		URL:        server.URL,
		ServiceKey: "test-key",
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	return client, server
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestExecute_SelectForwardsFiltersAndAuth(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		writeJSON(t, w, http.StatusOK, []query.Row{
			{"id": "t1", "status": "todo"},
		})
	}))

	res, err := client.Execute(context.Background(), query.Table("tasks").
		Select().
		Eq("status", "todo").
		Limit(5).
		MustBuild())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/rest/v1/tasks" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("expected apikey header, got %q", gotAPIKey)
	}
	for _, fragment := range []string{"status=eq.todo", "limit=5"} {
		if !containsParam(gotQuery, fragment) {
			t.Errorf("query %q missing %q", gotQuery, fragment)
		}
	}
	if res.Count != 1 || res.Rows[0]["id"] != "t1" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestExecute_InsertReturnsRepresentation(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		writeJSON(t, w, http.StatusCreated, []query.Row{
			{"id": "t9", "title": "new task"},
		})
	}))

	res, err := client.Execute(context.Background(), query.Table("tasks").
		Insert(query.Row{"title": "new task"}).
		MustBuild())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotBody["title"] != "new task" {
		t.Errorf("unexpected request body: %v", gotBody)
	}
	if res.Count != 1 || res.Rows[0]["id"] != "t9" {
		t.Errorf("expected the written row back, got %+v", res)
	}
}

func TestExecute_ConstraintViolationFromServiceError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, map[string]string{
			"code":    "23505",
			"message": "duplicate key value violates unique constraint",
		})
	}))

	_, err := client.Execute(context.Background(), query.Table("tasks").
		Insert(query.Row{"id": "t1"}).
		MustBuild())
	if !query.IsConstraintViolation(err) {
		t.Errorf("expected constraint violation, got %v", err)
	}
}

func TestExecute_SingleWithNoRowsIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []query.Row{})
	}))

	_, err := client.Execute(context.Background(), query.Table("tasks").
		Select().
		Eq("id", "missing").
		Single().
		MustBuild())
	if !query.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestExecute_SingleWithManyRowsIsBackendError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []query.Row{{"id": "a"}, {"id": "b"}})
	}))

	_, err := client.Execute(context.Background(), query.Table("tasks").
		Select().
		Eq("project_id", "p1").
		Single().
		MustBuild())
	if query.KindOf(err) != query.BackendError {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestExecute_UnfilteredDeleteNeverReachesService(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(t, w, http.StatusOK, []query.Row{})
	}))

	_, err := client.Execute(context.Background(), query.Descriptor{
		Target: "tasks",
		Kind:   query.KindDelete,
	})
	if !query.IsUnsafeMutation(err) {
		t.Errorf("expected unsafe mutation, got %v", err)
	}
	if requests.Load() != 0 {
		t.Errorf("unfiltered delete reached the service %d times", requests.Load())
	}
}

func TestExecute_ReadRetriesOnceOnConnectionFailure(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			dropConnection(t, w)
			return
		}
		writeJSON(t, w, http.StatusOK, []query.Row{{"id": "t1"}})
	}))

	res, err := client.Execute(context.Background(), query.Table("tasks").
		Select().
		MustBuild())
	if err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
	if res.Count != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestExecute_WriteIsNeverRetried(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		dropConnection(t, w)
	}))

	_, err := client.Execute(context.Background(), query.Table("tasks").
		Insert(query.Row{"title": "x"}).
		MustBuild())
	if !query.IsConnectionFailure(err) {
		t.Errorf("expected connection failure, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("write was retried: %d attempts", attempts.Load())
	}
}

func TestExecute_CallPostsNamedArguments(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		writeJSON(t, w, http.StatusOK, []query.Row{
			{"id": "d1", "similarity": 0.93},
		})
	}))

	res, err := client.Execute(context.Background(), query.CallFunction("match_documents").
		Arg("query_embedding", []float64{0.1, 0.2}).
		Arg("match_count", 5).
		MustBuild())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/rest/v1/rpc/match_documents" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if _, ok := gotBody["query_embedding"]; !ok {
		t.Errorf("missing query_embedding in body: %v", gotBody)
	}
	if gotBody["match_count"] != float64(5) {
		t.Errorf("unexpected match_count: %v", gotBody["match_count"])
	}
	if res.Count != 1 || res.Rows[0]["id"] != "d1" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestExecute_CallWithScalarResult(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"archived": 3})
	}))

	res, err := client.Execute(context.Background(), query.CallFunction("archive_tasks").
		Arg("project_id", "p1").
		MustBuild())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 1 || res.Rows[0]["archived"] != float64(3) {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestNewClient_RequiresEndpointAndKey(t *testing.T) {
	if _, err := NewClient(Config{ServiceKey: "k"}, logger.NewNop()); err == nil {
		t.Error("expected error for missing URL")
	}
	if _, err := NewClient(Config{URL: "https://x.example"}, logger.NewNop()); err == nil {
		t.Error("expected error for missing service key")
	}
}

// dropConnection closes the underlying connection mid-request so the client
// sees a transport failure rather than an HTTP status.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	hj, ok := w.(http.Hijacker)
	if !ok {
		t.Error("response writer does not support hijacking")
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		t.Errorf("hijack failed: %v", err)
		return
	}
	conn.Close()
}

// containsParam reports whether a raw query string carries the given
// key=value pair, regardless of parameter order.
func containsParam(rawQuery, fragment string) bool {
	for start := 0; start+len(fragment) <= len(rawQuery); start++ {
		if rawQuery[start:start+len(fragment)] != fragment {
			continue
		}
		endOK := start+len(fragment) == len(rawQuery) || rawQuery[start+len(fragment)] == '&'
		startOK := start == 0 || rawQuery[start-1] == '&'
		if startOK && endOK {
			return true
		}
	}
	return false
}
