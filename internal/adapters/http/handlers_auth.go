package web

import (
	"errors"
	"net/http"

	"confsched/internal/adapters/http/middleware"
	"confsched/internal/application/orchestrators"
)

// handleLoginForm renders the staff login form (GET /login)
func handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/admin/conferences", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", map[string]any{})
}

// handleLogin forwards credentials to the schedule API (POST /login)
// PRE: form carries email and password
// POST: On success a session cookie is set and the user lands on the conference list
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")

	sess, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:     email,
		Password:  r.FormValue("password"),
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}, orchestrators.LoginDeps{
		API:           deps.API,
		Sessions:      sessions,
		Audit:         deps.AuditStore,
		GenerateToken: middleware.GenerateToken,
		Now:           timeNow,
		TTL:           sessionTTL,
	})
	if errors.Is(err, orchestrators.ErrInvalidCredentials) {
		renderTemplateStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Email": email,
			"Error": "Invalid email or password.",
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, sess, secureCookies)
	http.Redirect(w, r, "/admin/conferences", http.StatusSeeOther)
}

// handleLogout ends the staff session (POST /logout)
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		err := orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{
			Session:   sess,
			IPAddress: middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
		}, orchestrators.LogoutDeps{
			API:      deps.API,
			Sessions: sessions,
			Audit:    deps.AuditStore,
			Now:      timeNow,
		})
		if err != nil {
			internalError(w, err)
			return
		}
	}
	middleware.ClearSessionCookie(w, secureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
