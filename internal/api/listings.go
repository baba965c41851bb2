package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
	"github.com/erazemk/trznica/internal/view"
)

// ListingsHandler handles catalog endpoints.
type ListingsHandler struct {
	Service *market.Service
}

// flexString accepts either a JSON string or a JSON number, so clients may
// send prices as 12.50 or "12.50".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n)
	}
	return nil
}

type listingRequest struct {
	Name        string     `json:"name"`
	Price       flexString `json:"price"`
	Quantity    flexString `json:"quantity"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	SellerName  string     `json:"seller_name"`
	Contact     string     `json:"contact"`
	Images      []string   `json:"images"`
}

func (req listingRequest) draft() model.ListingDraft {
	return model.ListingDraft{
		Name:        req.Name,
		Price:       string(req.Price),
		Quantity:    string(req.Quantity),
		Category:    req.Category,
		Description: req.Description,
		SellerName:  req.SellerName,
		Contact:     req.Contact,
		Images:      req.Images,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type patchRequest struct {
	Displayed []string `json:"displayed"`
	Search    string   `json:"search"`
	Category  string   `json:"category"`
	Status    string   `json:"status"`
	Where     string   `json:"where"`
}

func filterFromQuery(r *http.Request) market.Filter {
	q := r.URL.Query()
	return market.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
	}
}

// cards loads the catalog as seen by the request's identity and returns the
// cards matching f and where.
func (h *ListingsHandler) cards(r *http.Request, f market.Filter, where string) ([]view.Card, error) {
	id := session.Identity(r.Context())
	state, err := h.Service.Load(r.Context(), id)
	if err != nil {
		return nil, err
	}
	listings, err := market.Select(state.Listings, f, where)
	if err != nil {
		return nil, err
	}
	return view.Cards(id, listings), nil
}

// List handles GET /api/listings.
func (h *ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards(r, filterFromQuery(r), r.URL.Query().Get("where"))
	if err != nil {
		serviceError(w, err, "list listings")
		return
	}
	jsonResponse(w, http.StatusOK, cards)
}

// Get handles GET /api/listings/{id}.
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.Service.Listing(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "get listing")
		return
	}
	jsonResponse(w, http.StatusOK, view.NewCard(session.Identity(r.Context()), *l))
}

// Create handles POST /api/listings.
func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.Service.Create(r.Context(), session.Identity(r.Context()), req.draft())
	if err != nil {
		serviceError(w, err, "create listing")
		return
	}
	jsonResponse(w, http.StatusCreated, l)
}

// Update handles PUT /api/listings/{id}.
func (h *ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.Service.Update(r.Context(), session.Identity(r.Context()), r.PathValue("id"), req.draft())
	if err != nil {
		serviceError(w, err, "update listing")
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// Delete handles DELETE /api/listings/{id}.
func (h *ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), session.Identity(r.Context()), r.PathValue("id")); err != nil {
		serviceError(w, err, "delete listing")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

// SetStatus handles POST /api/listings/{id}/status. An empty body or status
// toggles between available and sold.
func (h *ListingsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := session.Identity(r.Context())
	var (
		l   model.Listing
		err error
	)
	if req.Status == "" {
		l, err = h.Service.ToggleStatus(r.Context(), id, r.PathValue("id"))
	} else {
		l, err = h.Service.SetStatus(r.Context(), id, r.PathValue("id"), req.Status)
	}
	if err != nil {
		serviceError(w, err, "change listing status")
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// Report handles POST /api/listings/{id}/reports.
func (h *ListingsHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req model.ReportDraft
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.Service.Report(r.Context(), session.Identity(r.Context()), r.PathValue("id"), req)
	if err != nil {
		serviceError(w, err, "submit report")
		return
	}
	jsonResponse(w, http.StatusCreated, report)
}

// Patch handles POST /api/catalog/patch. The client sends the card IDs it is
// displaying and gets back the changes that bring them up to date with the
// current filter.
func (h *ListingsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f := market.Filter{Search: req.Search, Category: req.Category, Status: req.Status}
	cards, err := h.cards(r, f, req.Where)
	if err != nil {
		serviceError(w, err, "list listings")
		return
	}
	jsonResponse(w, http.StatusOK, view.NewBoard(req.Displayed).Apply(cards))
}
