package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/erazemk/trznica/internal/session"
)

// RequireLogin redirects requests without a session to the login page,
// remembering where they were going. The session is loaded by
// session.Manager.Middleware.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.Identity(r.Context()) == nil {
			target := r.URL.RequestURI()
			if r.Method != http.MethodGet {
				target = localPath(r.Referer(), "/")
			}
			http.Redirect(w, r, "/login?next="+url.QueryEscape(target), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin sends non-admins back to the catalog.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.Identity(r.Context()).IsAdmin() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// localPath returns the path and query of raw if it points into this site,
// or fallback otherwise.
func localPath(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	p := u.RequestURI()
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return fallback
	}
	return p
}

// back returns the form's "next" field or the referring page, if local.
func back(r *http.Request, fallback string) string {
	if next := r.FormValue("next"); next != "" {
		return localPath(next, fallback)
	}
	return localPath(r.Referer(), fallback)
}

const flashCookie = "flash"

type flash struct {
	Error   bool
	Message string
}

// setFlash stores a one-shot message shown on the next page.
func setFlash(w http.ResponseWriter, isError bool, message string) {
	kind := "ok"
	if isError {
		kind = "error"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + ":" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash returns and clears the pending flash message, if any.
func takeFlash(w http.ResponseWriter, r *http.Request) *flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, ":")
	if !ok {
		return nil
	}
	return &flash{Error: kind == "error", Message: message}
}

// redirectWithFlash sets a flash message and redirects to target.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target string, isError bool, message string) {
	setFlash(w, isError, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}
