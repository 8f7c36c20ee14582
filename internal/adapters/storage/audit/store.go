package audit

import (
	"context"
	"time"

	domain "confsched/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event has an ID
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events matching filter.
	// PRE: limit > 0
	// POST: Returns events ordered by timestamp desc
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)

	// GetByID retrieves a specific audit event.
	// PRE: id is non-empty
	// POST: Returns the event or sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Event, error)

	// PruneBefore deletes events older than cutoff.
	// POST: Returns the number of deleted events
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filter defines query parameters for listing audit events.
// Nil and zero fields are not applied.
type Filter struct {
	Category     *domain.Category
	Action       *domain.Action
	Severity     *domain.Severity
	ActorEmail   string
	ResourceType string
	ResourceID   string
	From         time.Time
	To           time.Time
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
