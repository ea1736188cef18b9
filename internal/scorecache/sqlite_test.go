package scorecache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sift/internal/report"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "cache", "scores.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(fingerprint string, score float64) *report.Result {
	return &report.Result{
		Fingerprint:    fingerprint,
		Score:          score,
		Recommendation: report.RecommendYes,
		Rationale:      "good overlap with the role",
		Snapshot: report.Snapshot{
			RunID:            "run-1",
			Mode:             "balanced",
			ProvidersPlanned: []string{"primary"},
			CreatedAt:        time.Now().UTC(),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get missing = found %t, err %v", found, err)
	}

	stored := sampleResult("fp-1", 74.5)
	if err := store.Put(ctx, "fp-1", stored); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := store.Get(ctx, "fp-1")
	if err != nil || !found {
		t.Fatalf("Get = found %t, err %v", found, err)
	}
	if got.Score != 74.5 || got.Recommendation != report.RecommendYes {
		t.Fatalf("got %+v", got)
	}
	if got.Rationale != stored.Rationale || got.Snapshot.RunID != "run-1" {
		t.Fatalf("payload fields lost: %+v", got)
	}
}

func TestSQLitePutNeverPersistsFromCache(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stored := sampleResult("fp-2", 80)
	stored.FromCache = true
	if err := store.Put(ctx, "fp-2", stored); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _, err := store.Get(ctx, "fp-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FromCache {
		t.Fatal("FromCache must not survive persistence")
	}
}

func TestSQLiteUpsertReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "fp-3", sampleResult("fp-3", 50)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "fp-3", sampleResult("fp-3", 90)); err != nil {
		t.Fatalf("Put replace: %v", err)
	}

	got, _, err := store.Get(ctx, "fp-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Score != 90 {
		t.Fatalf("score = %v, want the replacement", got.Score)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("upsert created %d rows", len(entries))
	}
}

func TestSQLiteListDeleteClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, fp := range []string{"fp-a", "fp-b", "fp-c"} {
		if err := store.Put(ctx, fp, sampleResult(fp, 60)); err != nil {
			t.Fatalf("Put %s: %v", fp, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	if err := store.Delete(ctx, "fp-b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := store.Get(ctx, "fp-b"); found {
		t.Fatal("deleted entry still present")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List after clear: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cache not cleared: %v", entries)
	}
}
