package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"confsched/internal/adapters/api"
	"confsched/internal/adapters/http/middleware"
	"confsched/internal/application/orchestrators"
	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

// mdRenderer renders notes and track descriptions.
// Raw HTML in the input is escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// wantsJSON reports whether errors should be answered as JSON.
func wantsJSON(r *http.Request) bool {
	return isJSONRequest(r) || (strings.HasPrefix(r.URL.Path, "/api/") && !isFormPost(r))
}

func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_failed", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if wantsJSON(r) {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	http.Error(w, msg, status)
}

// writeError maps an orchestrator or API failure onto an HTTP answer.
// A rejected refresh credential ends the local session too.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, orchestrators.ErrInvalidInput):
		writeMessage(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, api.ErrUnauthorized):
		endSession(w, r)
		if wantsJSON(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired, log in again"})
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, api.ErrNotFound):
		writeMessage(w, r, http.StatusNotFound, "not found")
	case errors.As(err, &apiErr):
		slog.Warn("upstream_rejected", "path", r.URL.Path, "status", apiErr.StatusCode, "code", apiErr.Code, "message", apiErr.Message)
		writeMessage(w, r, http.StatusBadGateway, apiErr.Message)
	default:
		internalError(w, err)
	}
}

// endSession drops the local session named by the request cookie.
func endSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		if err := sessions.Delete(r.Context(), sess.Token); err != nil {
			slog.Warn("auth_event", "event", "session_delete_failed", "email", sess.Email, "error", err)
		}
		slog.Info("auth_event", "event", "session_expired", "email", sess.Email)
	}
	middleware.ClearSessionCookie(w, secureCookies)
}

// safeReturn keeps form redirects inside the admin area.
func safeReturn(raw, fallback string) string {
	u, err := url.Parse(raw)
	if raw == "" || err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/admin/") {
		return fallback
	}
	return u.RequestURI()
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders templateName inside the layout and answers with status.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"isLoggedIn":   func() bool { return loggedIn },
		"currentEmail": func() string { return sess.Email },
		"currentName":  func() string { return sess.Name },
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"list": func(items ...string) []string { return items },
		"add":  func(a, b int) int { return a + b },
		"sub":  func(a, b int) int { return a - b },
		"seriesQuery": func(series conference.Series, year string) template.URL {
			q := url.Values{"series": {string(series)}}
			if year != "" {
				q.Set("year", year)
			}
			return template.URL(q.Encode())
		},
		"timeRange": func(start, end string) string {
			switch {
			case start == "" && end == "":
				return "All day"
			case end == "":
				return start
			}
			return start + " - " + end
		},
		"roomNames": func(rooms []room.Room) string {
			names := make([]string, 0, len(rooms))
			for _, rm := range rooms {
				names = append(names, rm.Name)
			}
			return strings.Join(names, ", ")
		},
		"entryTypes":   func() []schedule.Type { return schedule.ValidTypes },
		"roomTypes":    func() []room.Type { return []room.Type{room.TypeMain, room.TypeParallel} },
		"modes":        func() []track.Mode { return []track.Mode{track.ModeOnsite, track.ModeOnline} },
		"seriesList":   func() []conference.Series { return conference.ValidSeries },
		"formatMs":     func(ms float64) string { return fmt.Sprintf("%.1f ms", ms) },
		"localTime":    formatLocal,
		"deref":        func(p *int64) int64 { return derefID(p) },
		"trackName":    trackName,
		"resourcePath": func(res string, id int64) string { return fmt.Sprintf("/api/admin/%s/%d", res, id) },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/board.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse template %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render template %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func derefID(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func trackName(tracks []track.Track, id *int64) string {
	if id == nil {
		return ""
	}
	for _, t := range tracks {
		if t.ID == *id {
			return t.Name
		}
	}
	return fmt.Sprintf("#%d", *id)
}
