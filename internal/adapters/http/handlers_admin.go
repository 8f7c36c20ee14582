package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"confsched/internal/adapters/api"
	"confsched/internal/adapters/http/middleware"
	auditStore "confsched/internal/adapters/storage/audit"
	"confsched/internal/application/listutil"
	"confsched/internal/application/projections"
	auditDomain "confsched/internal/domain/audit"
)

// staffTokenSource builds the refreshing token source for the logged-in staff member.
// RequireAuth guarantees the session is present.
func staffTokenSource(r *http.Request) api.TokenSource {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return deps.API.TokenSource(sess.RefreshToken)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// handleAdminConferences lists conferences for staff (GET /admin/conferences?series=&page=)
// PRE: staff session
// POST: Renders a page of conferences; rows with broken date ranges are flagged
func handleAdminConferences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := projections.QueryGetConferenceList(r.Context(), projections.GetConferenceListQuery{
		Series: q.Get("series"),
		Page:   listutil.ParsePageParams(q),
		Auth:   staffTokenSource(r),
	}, projections.GetConferenceListDeps{Reader: deps.API})
	if err != nil {
		writeError(w, r, err)
		return
	}
	renderTemplate(w, r, "admin_conferences.html", map[string]any{
		"Result":         result,
		"PerPageOptions": listutil.PerPageOptions,
	})
}

// recentChangesLimit caps the audit excerpt on the conference page.
const recentChangesLimit = 20

// handleAdminConference renders one conference's board with edit forms (GET /admin/conferences/{id})
// PRE: staff session
// POST: Renders the admin board including dropped entries and label conflicts
func handleAdminConference(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	board, err := projections.QueryGetScheduleBoard(r.Context(), projections.GetScheduleBoardQuery{
		ConferenceID: id,
		Auth:         staffTokenSource(r),
	}, projections.GetScheduleBoardDeps{Reader: deps.API})
	if err != nil {
		writeError(w, r, err)
		return
	}

	changes, err := deps.AuditStore.List(r.Context(), auditStore.Filter{
		ResourceType: string(auditDomain.CategoryConference),
		ResourceID:   strconv.FormatInt(id, 10),
	}, recentChangesLimit)
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "admin_conference.html", map[string]any{
		"Board":    board,
		"Changes":  changes,
		"ReturnTo": r.URL.Path,
	})
}

// handleAdminBoardJSON serves the admin board as JSON (GET /api/admin/conferences/{id}/board)
func handleAdminBoardJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, r, http.StatusBadRequest, "invalid conference id")
		return
	}
	board, err := projections.QueryGetScheduleBoard(r.Context(), projections.GetScheduleBoardQuery{
		ConferenceID: id,
		Auth:         staffTokenSource(r),
	}, projections.GetScheduleBoardDeps{Reader: deps.API})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// auditFilterFromQuery parses the audit trail filters. Dates are calendar days in the conference time zone.
func auditFilterFromQuery(r *http.Request) auditStore.Filter {
	q := r.URL.Query()
	filter := auditStore.Filter{
		ActorEmail:   q.Get("actor"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
	}
	if category := q.Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := q.Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if severity := q.Get("severity"); severity != "" {
		sev := auditDomain.Severity(severity)
		filter.Severity = &sev
	}
	if from, err := time.ParseInLocation(time.DateOnly, q.Get("from"), deps.Location); err == nil {
		filter.From = from
	}
	if to, err := time.ParseInLocation(time.DateOnly, q.Get("to"), deps.Location); err == nil {
		filter.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return filter
}

// handleAdminAuditTrail renders the audit trail (GET /admin/audit-trail)
// PRE: staff session
// POST: Renders at most limit events, newest first
func handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}
	filter := auditFilterFromQuery(r)
	events, err := deps.AuditStore.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admin_audit_trail.html", map[string]any{
		"Events": events,
		"Query":  r.URL.Query(),
		"Limit":  limit,
	})
}

// handleAdminAuditEvent shows one audit event with its request details and metadata (GET /admin/audit-trail/{id})
func handleAdminAuditEvent(w http.ResponseWriter, r *http.Request) {
	event, err := deps.AuditStore.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admin_audit_event.html", map[string]any{"Event": event})
}

// handleAdminPerf renders request, query and upstream timings (GET /admin/perf?window=15m)
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	window := time.Hour
	if d, err := time.ParseDuration(r.URL.Query().Get("window")); err == nil && d > 0 {
		window = d
	}
	data := map[string]any{"Window": window.String(), "Enabled": perfCollector != nil}
	if perfCollector != nil {
		data["Snapshot"] = perfCollector.Snapshot(timeNow().Add(-window), 10)
	}
	renderTemplate(w, r, "admin_perf.html", data)
}

func formatLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(deps.Location).Format("2 Jan 2006 15:04 MST")
}
