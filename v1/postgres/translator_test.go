package postgres

import (
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/helixdata/dbridge/v1/query"
)

func TestTranslate_SelectAllColumns(t *testing.T) {
	d := query.Table("tasks").Select().MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != `SELECT * FROM "tasks"` {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestTranslate_SelectWithFiltersOrderLimit(t *testing.T) {
	d := query.Table("tasks").
		Select("id", "title").
		Eq("status", "todo").
		Gte("priority", 3).
		OrderBy("priority", query.Descending).
		Limit(10).
		MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `SELECT "id", "title" FROM "tasks" WHERE "status" = $1 AND "priority" >= $2 ORDER BY "priority" DESC LIMIT $3`
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 3 || args[0] != "todo" || args[1] != 3 || args[2] != 10 {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestTranslate_InFilterBindsTypedArray(t *testing.T) {
	d := query.Table("tasks").Select().In("status", "todo", "doing").MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `SELECT * FROM "tasks" WHERE "status" = ANY($1)`
	if sql != want {
		t.Errorf("unexpected sql: %s", sql)
	}
	values, ok := args[0].([]string)
	if !ok {
		t.Fatalf("expected []string arg, got %T", args[0])
	}
	if len(values) != 2 || values[0] != "todo" || values[1] != "doing" {
		t.Errorf("unexpected membership values: %v", values)
	}
}

func TestTranslate_InFilterMixedTypes(t *testing.T) {
	d := query.Table("tasks").Select().In("status", "todo", 7).MustBuild()

	_, _, err := translate(d)
	if err == nil || err.Kind != query.TranslationError {
		t.Errorf("expected translation error, got %v", err)
	}
}

func TestTranslate_InsertSingleRow(t *testing.T) {
	d := query.Table("tasks").Insert(query.Row{
		"title":  "write tests",
		"status": "todo",
	}).MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Columns are sorted for deterministic statements.
	want := `INSERT INTO "tasks" ("status", "title") VALUES ($1, $2) RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 2 || args[0] != "todo" || args[1] != "write tests" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestTranslate_InsertBatch(t *testing.T) {
	d := query.Table("tasks").Insert(
		query.Row{"title": "a", "status": "todo"},
		query.Row{"title": "b", "status": "done"},
	).MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `INSERT INTO "tasks" ("status", "title") VALUES ($1, $2), ($3, $4) RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 4 {
		t.Errorf("expected 4 args, got %v", args)
	}
}

func TestTranslate_InsertBatchMismatchedColumns(t *testing.T) {
	d := query.Table("tasks").Insert(
		query.Row{"title": "a", "status": "todo"},
		query.Row{"title": "b"},
	).MustBuild()

	_, _, err := translate(d)
	if err == nil || err.Kind != query.TranslationError {
		t.Errorf("expected translation error, got %v", err)
	}
}

func TestTranslate_UpsertWithConflictColumn(t *testing.T) {
	d := query.Table("sources").Upsert("source_id", query.Row{
		"source_id": "s1",
		"summary":   "docs",
	}).MustBuild()

	sql, _, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `INSERT INTO "sources" ("source_id", "summary") VALUES ($1, $2)` +
		` ON CONFLICT ("source_id") DO UPDATE SET "summary" = EXCLUDED."summary" RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
}

func TestTranslate_UpsertWithoutConflictColumn(t *testing.T) {
	d := query.Table("sources").Upsert("", query.Row{"source_id": "s1"}).MustBuild()

	sql, _, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `INSERT INTO "sources" ("source_id") VALUES ($1) ON CONFLICT DO NOTHING RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql: %s", sql)
	}
}

func TestTranslate_Update(t *testing.T) {
	d := query.Table("tasks").
		Update(query.Row{"status": "done", "assignee": "alex"}).
		Eq("id", "t1").
		MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `UPDATE "tasks" SET "assignee" = $1, "status" = $2 WHERE "id" = $3 RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 3 || args[2] != "t1" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestTranslate_Delete(t *testing.T) {
	d := query.Table("tasks").Delete().Eq("id", "t1").MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `DELETE FROM "tasks" WHERE "id" = $1 RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 1 || args[0] != "t1" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestTranslate_CallWithVectorArg(t *testing.T) {
	d := query.CallFunction("match_documents").
		Arg("query_embedding", []float32{0.1, 0.2, 0.3}).
		Arg("match_count", 5).
		MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `SELECT * FROM "match_documents"(query_embedding => $1::vector(3), match_count => $2)`
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if _, ok := args[0].(pgvector.Vector); !ok {
		t.Errorf("expected pgvector.Vector arg, got %T", args[0])
	}
	if args[1] != 5 {
		t.Errorf("unexpected count arg: %v", args[1])
	}
}

func TestTranslate_CallRejectsBadParameterName(t *testing.T) {
	d := query.CallFunction("match_documents").
		Arg("bad name; drop", 1).
		MustBuild()

	_, _, err := translate(d)
	if err == nil || err.Kind != query.TranslationError {
		t.Errorf("expected translation error, got %v", err)
	}
}

func TestTranslate_StructuredValuesBindAsJSON(t *testing.T) {
	d := query.Table("documents").Insert(query.Row{
		"metadata": map[string]any{"lang": "en"},
		"tags":     []string{"go", "db"},
	}).MustBuild()

	sql, args, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `INSERT INTO "documents" ("metadata", "tags") VALUES ($1::jsonb, $2::jsonb) RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if args[0] != `{"lang":"en"}` {
		t.Errorf("unexpected metadata encoding: %v", args[0])
	}
	if args[1] != `["go","db"]` {
		t.Errorf("unexpected tags encoding: %v", args[1])
	}
}

func TestTranslate_EmbeddingColumnGetsVectorCast(t *testing.T) {
	d := query.Table("documents").Insert(query.Row{
		"embedding": []float32{0.5, 0.25},
	}).MustBuild()

	sql, _, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `INSERT INTO "documents" ("embedding") VALUES ($1::vector(2)) RETURNING *`
	if sql != want {
		t.Errorf("unexpected sql: %s", sql)
	}
}

func TestTranslate_QuotesSuspectIdentifiers(t *testing.T) {
	d := query.Table(`tasks"; DROP TABLE users; --`).Select().MustBuild()

	sql, _, err := translate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The doubled quote keeps the whole string a single identifier.
	want := `SELECT * FROM "tasks""; DROP TABLE users; --"`
	if sql != want {
		t.Errorf("unexpected sql: %s", sql)
	}
}
