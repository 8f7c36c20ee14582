package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"confsched/internal/adapters/storage"
	domain "confsched/internal/domain/audit"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

var base = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *SQLiteStore) []domain.Event {
	t.Helper()
	events := []domain.Event{
		domain.NewEvent("ana@example.org", "admin", domain.CategoryConference, domain.ActionCreate, base).
			WithResource("conference", "7"),
		domain.NewEvent("ana@example.org", "admin", domain.CategoryRoom, domain.ActionUpdate, base.Add(time.Hour)).
			WithResource("room", "12"),
		domain.NewEvent("budi@example.org", "admin", domain.CategorySecurity, domain.ActionLogin, base.Add(2*time.Hour)).
			WithSeverity(domain.SeverityWarning),
	}
	for _, e := range events {
		if err := s.Save(context.Background(), e); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	return events
}

// TestSQLiteStore_SaveAndGet round-trips every column.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	want := domain.NewEvent("ana@example.org", "admin", domain.CategoryTrack, domain.ActionDelete, base.Add(1500*time.Millisecond)).
		WithResource("track", "3").
		WithDescription("deleted Track 1A").
		WithRequest("10.0.0.9", "curl/8").
		WithMetadata(`{"name":"Track 1A"}`)
	if err := s.Save(context.Background(), want); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetByID(context.Background(), want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	got.Timestamp = want.Timestamp
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

// TestSQLiteStore_GetByID_Missing returns sql.ErrNoRows.
func TestSQLiteStore_GetByID_Missing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetByID(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

// TestSQLiteStore_List_Filters applies each filter field.
func TestSQLiteStore_List_Filters(t *testing.T) {
	s := newTestStore(t)
	events := seed(t, s)

	room := domain.CategoryRoom
	login := domain.ActionLogin
	warning := domain.SeverityWarning

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter newest first", Filter{}, []string{events[2].ID, events[1].ID, events[0].ID}},
		{"category", Filter{Category: &room}, []string{events[1].ID}},
		{"action", Filter{Action: &login}, []string{events[2].ID}},
		{"severity", Filter{Severity: &warning}, []string{events[2].ID}},
		{"actor", Filter{ActorEmail: "ana@example.org"}, []string{events[1].ID, events[0].ID}},
		{"resource", Filter{ResourceType: "conference", ResourceID: "7"}, []string{events[0].ID}},
		{"from", Filter{From: base.Add(time.Hour)}, []string{events[2].ID, events[1].ID}},
		{"to", Filter{To: base.Add(30 * time.Minute)}, []string{events[0].ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(context.Background(), tt.filter, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

// TestSQLiteStore_List_Limit caps the result size.
func TestSQLiteStore_List_Limit(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	got, err := s.List(context.Background(), Filter{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d events, want 2", len(got))
	}
}

// TestSQLiteStore_PruneBefore removes only older events.
func TestSQLiteStore_PruneBefore(t *testing.T) {
	s := newTestStore(t)
	events := seed(t, s)

	n, err := s.PruneBefore(context.Background(), base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if _, err := s.GetByID(context.Background(), events[0].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("oldest event should be gone, err = %v", err)
	}
	if _, err := s.GetByID(context.Background(), events[1].ID); err != nil {
		t.Errorf("boundary event should remain: %v", err)
	}
}
