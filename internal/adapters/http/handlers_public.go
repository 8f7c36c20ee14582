package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"confsched/internal/adapters/ical"
	"confsched/internal/application/projections"
)

func publicSchedule(ctx context.Context, r *http.Request) (projections.GetPublicScheduleResult, error) {
	query := projections.GetPublicScheduleQuery{
		Series: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("series"))),
		Year:   strings.TrimSpace(r.URL.Query().Get("year")),
	}
	return projections.QueryGetPublicSchedule(ctx, query, projections.GetPublicScheduleDeps{Reader: deps.API})
}

// handlePublicSchedule renders the read-only schedule (GET /schedule?series=&year=)
// PRE: none
// POST: Renders the selected conference's board, or an empty state when none matches
func handlePublicSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := publicSchedule(r.Context(), r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	renderTemplate(w, r, "schedule.html", map[string]any{
		"Selection": result.Selection,
		"Board":     result.Board,
	})
}

// handlePublicScheduleJSON serves the same result as JSON (GET /api/schedule)
func handlePublicScheduleJSON(w http.ResponseWriter, r *http.Request) {
	result, err := publicSchedule(r.Context(), r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleScheduleICS serves the selected conference as an iCalendar feed (GET /schedule.ics)
// PRE: none
// POST: 404 when no conference matches the series and year
func handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	result, err := publicSchedule(r.Context(), r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result.Board == nil {
		http.Error(w, "no conference matches", http.StatusNotFound)
		return
	}
	body := ical.Export(*result.Board, deps.Location, timeNow())
	filename := fmt.Sprintf("%s-%s.ics", strings.ToLower(string(result.Selection.Series)), result.Board.Conference.Year)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write([]byte(body))
}

// handleHealth reports liveness and the local database state (GET /health)
func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "version": deps.Version}
	code := http.StatusOK
	if deps.DB != nil {
		if err := deps.DB.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}
