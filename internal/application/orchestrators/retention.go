package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"confsched/internal/domain/audit"
)

// AuditStoreForRetention defines the store interface needed by retention.
type AuditStoreForRetention interface {
	AuditRecorder
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionStoreForRetention defines the store interface needed by retention.
type SessionStoreForRetention interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RetentionInput carries input for the retention orchestrator.
type RetentionInput struct {
	RetentionDays int
}

// RetentionResult reports what was removed.
type RetentionResult struct {
	AuditPruned    int64
	SessionsPruned int64
}

// RetentionDeps holds dependencies for Retention.
type RetentionDeps struct {
	Audit    AuditStoreForRetention
	Sessions SessionStoreForRetention
	Now      func() time.Time
}

// ExecuteRetention prunes old audit events and expired staff sessions.
// PRE: input.RetentionDays > 0
// POST: No audit event older than RetentionDays remains; a system prune event records the run
func ExecuteRetention(ctx context.Context, input RetentionInput, deps RetentionDeps) (RetentionResult, error) {
	if input.RetentionDays <= 0 {
		return RetentionResult{}, fmt.Errorf("%w: retention days must be positive", ErrInvalidInput)
	}
	now := deps.Now()
	cutoff := now.AddDate(0, 0, -input.RetentionDays)

	var res RetentionResult
	var err error
	if res.AuditPruned, err = deps.Audit.PruneBefore(ctx, cutoff); err != nil {
		return res, err
	}
	if res.SessionsPruned, err = deps.Sessions.DeleteExpired(ctx, now); err != nil {
		return res, err
	}

	slog.Info("retention_event", "event", "pruned", "audit_events", res.AuditPruned, "sessions", res.SessionsPruned, "cutoff", cutoff)
	if res.AuditPruned > 0 || res.SessionsPruned > 0 {
		recordAudit(ctx, deps.Audit, audit.NewEvent("system", "system", audit.CategorySystem, audit.ActionPrune, now).
			WithDescription(fmt.Sprintf("pruned %d audit events older than %d days and %d expired sessions",
				res.AuditPruned, input.RetentionDays, res.SessionsPruned)))
	}
	return res, nil
}
