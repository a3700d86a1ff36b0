package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"), 0)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveLoadRuns(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Run{Started: base, Duration: 1500 * time.Millisecond, FileCount: 4, ErrorCount: 2, WarningCount: 1}
	second := Run{
		Started:      base.Add(time.Hour),
		FileCount:    5,
		ErrorCount:   1,
		WarningCount: 3,
		CycleCount:   1,
		Diagnostics: []Diagnostic{
			{Path: "/p/main.kite", Line: 1, Column: 9, Severity: "ERROR", Code: "type-mismatch", Message: "Type mismatch: expected 'number' but got 'string' for 'port'"},
			{Path: "/p/main.kite", Line: 2, Column: 1, Severity: "WARNING", Code: "unresolved-symbol", Message: "Cannot resolve symbol 'x'"},
		},
	}

	firstID, err := store.SaveRun(ctx, first)
	if err != nil {
		t.Fatalf("save first run: %v", err)
	}
	secondID, err := store.SaveRun(ctx, second)
	if err != nil {
		t.Fatalf("save second run: %v", err)
	}
	if firstID == "" || firstID == secondID {
		t.Fatalf("expected distinct generated ids, got %q and %q", firstID, secondID)
	}

	runs, err := store.LoadRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != secondID || runs[1].ID != firstID {
		t.Fatalf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[1].Duration != 1500*time.Millisecond || !runs[1].Started.Equal(base) {
		t.Fatalf("expected timing to roundtrip, got %+v", runs[1])
	}
	if runs[0].ProjectKey != "default" || runs[0].CycleCount != 1 {
		t.Fatalf("unexpected run %+v", runs[0])
	}

	limited, err := store.LoadRuns(ctx, "default", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != secondID {
		t.Fatalf("expected only newest run, got %+v", limited)
	}

	diags, err := store.Diagnostics(ctx, secondID)
	if err != nil {
		t.Fatalf("load diagnostics: %v", err)
	}
	if len(diags) != 2 || diags[0].Code != "type-mismatch" || diags[1].Line != 2 {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}
}

func TestStore_SaveRunRejectsBadID(t *testing.T) {
	store := openStore(t)
	if _, err := store.SaveRun(context.Background(), Run{ID: "not-a-uuid"}); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestStore_ProjectIsolationAndPrune(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		run := Run{ProjectKey: "infra", Started: base.Add(time.Duration(i) * time.Minute), FileCount: i,
			Diagnostics: []Diagnostic{{Path: "a.kite", Severity: "WARNING", Code: "unused-import", Message: "Unused import 'x'"}}}
		if _, err := store.SaveRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.SaveRun(ctx, Run{ProjectKey: "other", Started: base}); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Prune(ctx, "infra", 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted runs, got %d", deleted)
	}
	infra, err := store.LoadRuns(ctx, "infra", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(infra) != 2 || infra[0].FileCount != 3 || infra[1].FileCount != 2 {
		t.Fatalf("unexpected remaining runs %+v", infra)
	}
	other, err := store.LoadRuns(ctx, "other", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 {
		t.Fatalf("prune must not touch other projects, got %d runs", len(other))
	}

	var orphans int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM run_diagnostics WHERE run_id NOT IN (SELECT id FROM runs)`).Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Fatalf("expected diagnostics to cascade, found %d orphans", orphans)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, time.Second)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got: %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected the path in %q", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTrend(t *testing.T) {
	runs := []Run{
		{ID: "c", ErrorCount: 1, WarningCount: 4, FileCount: 6},
		{ID: "b", ErrorCount: 3, WarningCount: 2, FileCount: 5},
		{ID: "a", ErrorCount: 0, WarningCount: 0, FileCount: 5},
	}
	points := Trend(runs)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].DeltaErrors != -2 || points[0].DeltaWarnings != 2 || points[0].DeltaFiles != 1 {
		t.Fatalf("unexpected newest deltas %+v", points[0])
	}
	if points[1].DeltaErrors != 3 {
		t.Fatalf("unexpected middle delta %+v", points[1])
	}
	if points[2].DeltaErrors != 0 || points[2].DeltaWarnings != 0 {
		t.Fatalf("oldest run must have zero deltas, got %+v", points[2])
	}
}

func TestIsCorrupt(t *testing.T) {
	if !isCorrupt(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
	if isCorrupt(errors.New("database is locked")) || isCorrupt(nil) {
		t.Fatal("lock errors are not corruption")
	}
}
