package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
	"github.com/erazemk/trznica/internal/view"
)

type catalogPage struct {
	PageData
	Cards      []view.Card
	Filter     market.Filter
	Categories []string
	Statuses   []string
}

type patchRequest struct {
	Displayed []string `json:"displayed"`
	Search    string   `json:"search"`
	Category  string   `json:"category"`
	Status    string   `json:"status"`
}

// patchResponse is a view.Patch with the cards rendered to HTML.
type patchResponse struct {
	Remove []string          `json:"remove"`
	Order  []string          `json:"order"`
	HTML   map[string]string `json:"html"`
}

func filterFromRequest(r *http.Request) market.Filter {
	q := r.URL.Query()
	return market.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
	}
}

// Catalog handles GET /.
func (s *Server) Catalog(w http.ResponseWriter, r *http.Request) {
	f := filterFromRequest(r)
	data := &catalogPage{
		PageData:   s.page(w, r, "Catalog"),
		Filter:     f,
		Categories: model.Categories,
		Statuses:   []string{model.StatusAvailable, model.StatusSold},
	}

	state, err := s.Market.Load(r.Context(), data.User)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		data.Error = "The catalog could not be loaded."
	} else {
		data.Cards = view.BuildCatalog(state, f)
	}

	s.Templates.Render(w, "catalog.html", data)
}

// CatalogPatch handles POST /catalog/patch. The page sends the cards it is
// showing and the current filter and gets back the rendered changes.
func (s *Server) CatalogPatch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	state, err := s.Market.Load(r.Context(), session.Identity(r.Context()))
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to load catalog"})
		return
	}

	f := market.Filter{Search: req.Search, Category: req.Category, Status: req.Status}
	patch := view.NewBoard(req.Displayed).Apply(view.BuildCatalog(state, f))

	res := patchResponse{Remove: patch.Remove, Order: patch.Order, HTML: map[string]string{}}
	for _, c := range append(patch.Update, patch.Append...) {
		html, err := s.Templates.Fragment("catalog.html", "card", c)
		if err != nil {
			slog.Error("failed to render card", "id", c.ID, "error", err)
			jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to render catalog"})
			return
		}
		res.HTML[c.ID] = html
	}
	jsonResponse(w, http.StatusOK, res)
}
