package api

import (
	"net/http"
	"time"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/session"
	"github.com/erazemk/trznica/internal/view"
)

// AdminHandler handles report and dashboard endpoints (admin only).
type AdminHandler struct {
	Service  *market.Service
	Location *time.Location
}

// Reports handles GET /api/reports.
func (h *AdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := market.ReportFilter{
		Status:    q.Get("status"),
		Reason:    q.Get("reason"),
		ListingID: q.Get("listing_id"),
	}

	reports, err := h.Service.Reports(r.Context(), session.Identity(r.Context()), f)
	if err != nil {
		serviceError(w, err, "list reports")
		return
	}
	jsonResponse(w, http.StatusOK, reports)
}

// Overview handles GET /api/admin/overview.
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.Load(r.Context(), session.Identity(r.Context()))
	if err != nil {
		serviceError(w, err, "load dashboard")
		return
	}
	jsonResponse(w, http.StatusOK, view.NewDashboard(state.Listings, state.Reports))
}

// Report handles GET /api/admin/report. from and to are dates in
// view.DateLayout; where is an optional listing query applied first.
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.Load(r.Context(), session.Identity(r.Context()))
	if err != nil {
		serviceError(w, err, "build report")
		return
	}

	q := r.URL.Query()
	listings, err := market.Select(state.Listings, market.Filter{}, q.Get("where"))
	if err != nil {
		serviceError(w, err, "build report")
		return
	}

	report := view.DateReport(listings, view.ReportQuery{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}, h.Location)
	jsonResponse(w, http.StatusOK, report)
}
