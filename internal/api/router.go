package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
)

// Deps are the dependencies of the API router.
type Deps struct {
	DB       *sql.DB
	Sessions *session.Manager
	Market   *market.Service
	Location *time.Location

	// MirrorDB backs the mirror endpoint. Nil leaves it unregistered.
	MirrorDB    *sql.DB
	MirrorToken string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: deps.DB, Sessions: deps.Sessions}
	usersHandler := &UsersHandler{DB: deps.DB}
	listingsHandler := &ListingsHandler{Service: deps.Market}
	adminHandler := &AdminHandler{Service: deps.Market, Location: deps.Location}

	authMW := RequireAuth
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/session", authHandler.Session)
	mux.HandleFunc("GET /api/listings", listingsHandler.List)
	mux.HandleFunc("POST /api/catalog/patch", listingsHandler.Patch)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Listings: details need a session, permissions are checked per listing.
	mux.Handle("GET /api/listings/{id}", authMW(http.HandlerFunc(listingsHandler.Get)))
	mux.Handle("POST /api/listings", authMW(http.HandlerFunc(listingsHandler.Create)))
	mux.Handle("PUT /api/listings/{id}", authMW(http.HandlerFunc(listingsHandler.Update)))
	mux.Handle("DELETE /api/listings/{id}", authMW(http.HandlerFunc(listingsHandler.Delete)))
	mux.Handle("POST /api/listings/{id}/status", authMW(http.HandlerFunc(listingsHandler.SetStatus)))
	mux.Handle("POST /api/listings/{id}/reports", authMW(http.HandlerFunc(listingsHandler.Report)))

	// Admin only.
	mux.Handle("GET /api/reports", requireAdmin(http.HandlerFunc(adminHandler.Reports)))
	mux.Handle("GET /api/admin/overview", requireAdmin(http.HandlerFunc(adminHandler.Overview)))
	mux.Handle("GET /api/admin/report", requireAdmin(http.HandlerFunc(adminHandler.Report)))

	mux.Handle("GET /api/users", requireAdmin(http.HandlerFunc(usersHandler.List)))
	mux.Handle("POST /api/users", requireAdmin(http.HandlerFunc(usersHandler.Create)))
	mux.Handle("GET /api/users/{id}", requireAdmin(http.HandlerFunc(usersHandler.Get)))
	mux.Handle("PUT /api/users/{id}", requireAdmin(http.HandlerFunc(usersHandler.Update)))
	mux.Handle("PUT /api/users/{id}/password", requireAdmin(http.HandlerFunc(usersHandler.ResetPassword)))
	mux.Handle("DELETE /api/users/{id}", requireAdmin(http.HandlerFunc(usersHandler.Delete)))

	// Mirror, guarded by its own token.
	if deps.MirrorDB != nil {
		mirrorHandler := &MirrorHandler{DB: deps.MirrorDB, Token: deps.MirrorToken}
		mux.Handle("GET /api/mirror/products", mirrorHandler.requireToken(mirrorHandler.List))
		mux.Handle("POST /api/mirror/products", mirrorHandler.requireToken(mirrorHandler.Upsert))
	}

	return deps.Sessions.Middleware(mux)
}
