package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"confsched/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestTimedDB_RecordsEveryCall verifies Exec, Query and QueryRow each record one entry.
func TestTimedDB_RecordsEveryCall(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id, val FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	count := 0
	for rows.Next() {
		count++
	}
	rows.Close()
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}
	if collector.TotalRecorded() != 3 {
		t.Errorf("TotalRecorded = %d, want 3", collector.TotalRecorded())
	}
}

// TestTimedDB_StatementLabels verifies entries are grouped by verb and table.
func TestTimedDB_StatementLabels(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)

	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "a")
	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "2", "b")

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestQueries) != 1 {
		t.Fatalf("SlowestQueries = %+v, want one group", snap.SlowestQueries)
	}
	if got := snap.SlowestQueries[0].Path; got != "ExecContext INSERT test" {
		t.Errorf("Path = %q, want \"ExecContext INSERT test\"", got)
	}
}

// TestStatementLabel covers the label reducer.
func TestStatementLabel(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"SELECT 1": "SELECT",
		"select id from audit_event where id = ?":  "SELECT audit_event",
		"DELETE FROM admin_session WHERE token=?":  "DELETE admin_session",
		"UPDATE admin_session SET expires_at = ?":  "UPDATE admin_session",
		"INSERT INTO audit_event (id) VALUES (?)":  "INSERT audit_event",
		"INSERT OR REPLACE INTO \"test\" VALUES ?": "INSERT test",
	}
	for in, want := range tests {
		if got := statementLabel(in); got != want {
			t.Errorf("statementLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestTimedDB_NilCollector verifies TimedDB works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	tdb := NewTimedDB(openTimedTestDB(t), nil)
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged and still timed.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO nonexistent_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}
	var val string
	err := tdb.QueryRowContext(context.Background(), "SELECT val FROM test WHERE id = ?", "missing").Scan(&val)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if collector.TotalRecorded() != 2 {
		t.Errorf("TotalRecorded = %d, want 2 (must record even on error)", collector.TotalRecorded())
	}
}

// TestTimedDB_SetSlowThreshold ignores non-positive values.
func TestTimedDB_SetSlowThreshold(t *testing.T) {
	tdb := NewTimedDB(openTimedTestDB(t), nil)
	tdb.SetSlowThreshold(0)
	if tdb.threshold != DefaultSlowQueryMs {
		t.Errorf("threshold = %v, want default", tdb.threshold)
	}
	tdb.SetSlowThreshold(5)
	if tdb.threshold != 5 {
		t.Errorf("threshold = %v, want 5", tdb.threshold)
	}
}

// TestTimedDB_RawDB verifies RawDB returns the original *sql.DB.
func TestTimedDB_RawDB(t *testing.T) {
	db := openTimedTestDB(t)
	if NewTimedDB(db, nil).RawDB() != db {
		t.Error("RawDB() should return the original *sql.DB")
	}
}

// BenchmarkTimedDB_ExecContext measures per-call overhead of the timing wrapper.
func BenchmarkTimedDB_ExecContext(b *testing.B) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	db.SetMaxOpenConns(1)
	db.Exec("CREATE TABLE bench (id INTEGER PRIMARY KEY, val TEXT)")
	tdb := NewTimedDB(db, perf.NewCollector(perf.DefaultRingSize))

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tdb.ExecContext(ctx, "INSERT OR REPLACE INTO bench (id, val) VALUES (?, ?)", 1, "x")
	}
}
