package web

import (
	"bytes"
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/confirm"
	"github.com/erazemk/trznica/internal/imaging"
	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
	webembed "github.com/erazemk/trznica/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleStudent:
				return "Student"
			default:
				return role
			}
		},
		"statusName": func(status string) string {
			switch status {
			case model.StatusAvailable:
				return "Available"
			case model.StatusSold:
				return "Sold"
			default:
				return status
			}
		},
		"reasonName": func(reason string) string {
			switch reason {
			case model.ReasonScam:
				return "Scam or fraud"
			case model.ReasonInappropriate:
				return "Inappropriate content"
			case model.ReasonProhibited:
				return "Prohibited item"
			case model.ReasonWrongInfo:
				return "Wrong information"
			case model.ReasonSpam:
				return "Spam"
			default:
				return "Other"
			}
		},
		"price": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"date": func(ts model.Timestamp) string {
			if !ts.Valid() {
				return "-"
			}
			return ts.In(time.Local).Format("2006-01-02 15:04")
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
		"add": func(a, b int) int {
			return a + b
		},
		"imageURL": imageURL,
	}
}

// imageURL marks stored image references as safe for src attributes. Only
// image data URIs and local or http(s) paths pass.
func imageURL(s string) template.URL {
	switch {
	case strings.HasPrefix(s, "data:image/"),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"),
		strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"):
		return template.URL(s)
	default:
		return ""
	}
}

// LoadTemplates parses all page templates with the layout and partials.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	shared := []string{"layout.html", "partials.html"}
	pages := []string{
		"login.html",
		"register.html",
		"catalog.html",
		"listing_detail.html",
		"listing_form.html",
		"my_listings.html",
		"admin.html",
		"report.html",
		"users.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		tmpl := template.New(page).Funcs(FuncMap())
		for _, name := range append(shared, page) {
			b, err := fs.ReadFile(tfs, name)
			if err != nil {
				return nil, fmt.Errorf("reading template %s: %w", name, err)
			}
			if tmpl, err = tmpl.Parse(string(b)); err != nil {
				return nil, fmt.Errorf("parsing template %s for %s: %w", name, page, err)
			}
		}
		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Fragment renders one named block of a page template to a string.
func (ts *Templates) Fragment(page, block string, data any) (string, error) {
	tmpl, ok := ts.templates[page]
	if !ok {
		return "", fmt.Errorf("template %s not found", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		return "", fmt.Errorf("rendering %s in %s: %w", block, page, err)
	}
	return buf.String(), nil
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *model.Identity
	Site    config.Site
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Market    *market.Service
	Sessions  *session.Manager
	Templates *Templates
	Site      *config.LiveSite
	Images    imaging.Options
	Confirm   *confirm.Tracker
	Location  *time.Location
}

// page builds the base page data for r and consumes any pending flash.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	p := PageData{
		Title: title,
		User:  session.Identity(r.Context()),
		Site:  s.Site.Get(),
	}
	if f := takeFlash(w, r); f != nil {
		if f.Error {
			p.Error = f.Message
		} else {
			p.Success = f.Message
		}
	}
	return p
}
