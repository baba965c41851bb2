package web

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/confirm"
	"github.com/erazemk/trznica/internal/imaging"
	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/session"
	webembed "github.com/erazemk/trznica/web"
)

// Deps are the dependencies of the page router.
type Deps struct {
	DB       *sql.DB
	Market   *market.Service
	Sessions *session.Manager
	Site     *config.LiveSite
	Images   imaging.Options
	Confirm  *confirm.Tracker
	Location *time.Location
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(deps Deps) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        deps.DB,
		Market:    deps.Market,
		Sessions:  deps.Sessions,
		Templates: templates,
		Site:      deps.Site,
		Images:    deps.Images,
		Confirm:   deps.Confirm,
		Location:  deps.Location,
	}
	if s.Confirm == nil {
		s.Confirm = confirm.NewTracker(confirm.DefaultWindow)
	}
	if s.Site == nil {
		s.Site = config.NewLiveSite(config.Default().Site)
	}

	mux := http.NewServeMux()
	login := RequireLogin
	admin := RequireAdmin

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /{$}", s.Catalog)
	mux.HandleFunc("POST /catalog/patch", s.CatalogPatch)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /listings/new", login(http.HandlerFunc(s.NewListingPage)))
	mux.Handle("POST /listings", login(http.HandlerFunc(s.CreateListingSubmit)))
	mux.Handle("GET /listings/{id}", login(http.HandlerFunc(s.ListingDetailPage)))
	mux.Handle("GET /listings/{id}/edit", login(http.HandlerFunc(s.EditListingPage)))
	mux.Handle("POST /listings/{id}", login(http.HandlerFunc(s.UpdateListingSubmit)))
	mux.Handle("POST /listings/{id}/status", login(http.HandlerFunc(s.ToggleStatusSubmit)))
	mux.Handle("POST /listings/{id}/delete", login(http.HandlerFunc(s.DeleteListingSubmit)))
	mux.Handle("POST /listings/{id}/report", login(http.HandlerFunc(s.ReportSubmit)))
	mux.Handle("GET /my", login(http.HandlerFunc(s.MyListingsPage)))
	mux.Handle("GET /settings", login(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /settings", login(http.HandlerFunc(s.SettingsSubmit)))

	// Admin routes.
	mux.Handle("GET /admin", admin(http.HandlerFunc(s.AdminPage)))
	mux.Handle("GET /admin/report", admin(http.HandlerFunc(s.ReportPage)))
	mux.Handle("GET /admin/users", admin(http.HandlerFunc(s.UsersPage)))
	mux.Handle("POST /admin/users/{id}/password", admin(http.HandlerFunc(s.UserResetPasswordSubmit)))
	mux.Handle("POST /admin/users/{id}/role", admin(http.HandlerFunc(s.UserUpdateRoleSubmit)))
	mux.Handle("POST /admin/users/{id}/delete", admin(http.HandlerFunc(s.UserDeleteSubmit)))

	return deps.Sessions.Middleware(mux), nil
}
