package database

import (
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/articlemetrics/internal/analysis"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestUpsertArticle(t *testing.T) {
	db := openTestDB(t)

	changed, err := db.UpsertArticle("blackassign0001", "https://a.example/1", "Title", "Body text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("expected first insert to report a change")
	}

	changed, err = db.UpsertArticle("blackassign0001", "https://a.example/1", "Title", "Body text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("expected identical content to report no change")
	}

	changed, _ = db.UpsertArticle("blackassign0001", "https://a.example/1", "New title", "Edited body")
	if !changed {
		t.Error("expected edited content to report a change")
	}

	a, err := db.GetArticle("blackassign0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Title != "New title" || a.Content != "Edited body" {
		t.Errorf("unexpected article %+v", a)
	}
	if a.ContentHash != ContentHash("Edited body") {
		t.Errorf("expected hash of new content, got %q", a.ContentHash)
	}
}

func TestGetArticleMissing(t *testing.T) {
	db := openTestDB(t)
	a, err := db.GetArticle("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil, got %+v", a)
	}
}

func TestMarkFetchFailed(t *testing.T) {
	db := openTestDB(t)
	db.UpsertArticle("1", "https://a.example/1", "T", "kept content")

	if err := db.MarkFetchFailed("1", "https://a.example/1", "404 Not Found"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.MarkFetchFailed("2", "https://a.example/2", "timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := db.GetArticle("1")
	if a.Content != "kept content" {
		t.Errorf("expected content to survive a failed refetch, got %q", a.Content)
	}
	if a.Error == nil || *a.Error != "404 Not Found" {
		t.Errorf("expected error to be recorded, got %v", a.Error)
	}

	db.UpsertArticle("1", "https://a.example/1", "T", "fresh")
	a, _ = db.GetArticle("1")
	if a.Error != nil {
		t.Error("expected successful upsert to clear the error")
	}

	list, err := db.ListArticles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].URLID != "1" || list[1].URLID != "2" {
		t.Errorf("unexpected listing %+v", list)
	}
	if list[0].Content != "" {
		t.Error("expected listing without content")
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	run, err := db.CreateRun("Input.xlsx", "naive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID == "" || run.Finished() {
		t.Fatalf("unexpected new run %+v", run)
	}
	if run.Tokenizer == nil || *run.Tokenizer != "naive" {
		t.Errorf("expected tokenizer to be stored, got %v", run.Tokenizer)
	}

	if err := db.FinishRun(run.ID, 3, 1, "output.csv"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Finished() || got.ArticleCount != 3 || got.FailedCount != 1 {
		t.Errorf("unexpected finished run %+v", got)
	}
	if got.OutputPath == nil || *got.OutputPath != "output.csv" {
		t.Errorf("expected output path, got %v", got.OutputPath)
	}

	if err := db.FinishRun("missing", 0, 0, ""); err == nil {
		t.Error("expected error finishing unknown run")
	}
	if r, _ := db.GetRun("missing"); r != nil {
		t.Error("expected nil for unknown run")
	}
}

func TestGetRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	first, _ := db.CreateRun("", "")
	second, _ := db.CreateRun("", "")

	runs, err := db.GetRuns(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Error("expected newest run first")
	}

	runs, _ = db.GetRuns(1)
	if len(runs) != 1 {
		t.Errorf("expected limit to apply, got %d", len(runs))
	}
}

func TestMetricsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	run, _ := db.CreateRun("", "")

	rec := analysis.Record{
		PositiveScore:          2,
		PolarityScore:          0.9999995,
		SubjectivityScore:      0.6666664,
		AvgSentenceLength:      1.5,
		AvgWordsPerSentence:    1.5,
		WordCount:              3,
		SyllablesPerWord:       4.0 / 3,
		AvgWordLength:          3,
		PercentageComplexWords: 0,
	}
	in := []Metrics{
		{Position: 0, URLID: "b", URL: "https://a.example/b", Record: rec},
		{Position: 1, URLID: "a", Error: ptr("reading article a: missing")},
	}
	if err := db.InsertMetrics(run.ID, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := db.GetMetricsForRun(run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].URLID != "b" || out[1].URLID != "a" {
		t.Error("expected records in position order")
	}
	if out[0].Record != rec {
		t.Errorf("record mismatch: got %+v want %+v", out[0].Record, rec)
	}
	if out[1].Record != (analysis.Record{}) || out[1].Error == nil {
		t.Errorf("expected zero record with error, got %+v", out[1])
	}
	if out[0].RunID != run.ID {
		t.Errorf("expected run id %q, got %q", run.ID, out[0].RunID)
	}
}

func TestGetLatestMetrics(t *testing.T) {
	db := openTestDB(t)
	r1, _ := db.CreateRun("", "")
	r2, _ := db.CreateRun("", "")
	db.InsertMetrics(r1.ID, []Metrics{{URLID: "x", Record: analysis.Record{WordCount: 1}}})
	db.InsertMetrics(r2.ID, []Metrics{{URLID: "x", Record: analysis.Record{WordCount: 2}}})

	m, err := db.GetLatestMetrics("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil || m.Record.WordCount != 2 || m.RunID != r2.ID {
		t.Errorf("expected latest record from second run, got %+v", m)
	}

	m, err = db.GetLatestMetrics("never")
	if err != nil || m != nil {
		t.Errorf("expected nil, nil; got %+v, %v", m, err)
	}
}

func TestInsertMetricsUnknownRun(t *testing.T) {
	db := openTestDB(t)
	err := db.InsertMetrics("no-such-run", []Metrics{{URLID: "x"}})
	if err == nil {
		t.Error("expected foreign key violation for unknown run")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.UpsertArticle("1", "u1", "t", "c")
	db.MarkFetchFailed("2", "u2", "boom")
	run, _ := db.CreateRun("", "")
	db.InsertMetrics(run.ID, []Metrics{{URLID: "1"}, {Position: 1, URLID: "2"}})

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalArticles != 2 || stats.FailedArticles != 1 {
		t.Errorf("unexpected article stats %+v", stats)
	}
	if stats.Runs != 1 || stats.MetricRows != 2 {
		t.Errorf("unexpected run stats %+v", stats)
	}
	if stats.LastRunAt == nil {
		t.Error("expected last run timestamp")
	}
}

func TestGetStatsEmpty(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Runs != 0 || stats.LastRunAt != nil {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
