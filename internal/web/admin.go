package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/view"
)

type adminPage struct {
	PageData
	Dashboard view.Dashboard
}

type reportPage struct {
	PageData
	Query      view.ReportQuery
	Report     view.DateRangeReport
	Categories []string
	Statuses   []string
}

// AdminPage handles GET /admin.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	data := &adminPage{PageData: s.page(w, r, "Administration")}

	state, err := s.Market.Load(r.Context(), data.User)
	if err != nil {
		slog.Error("failed to load dashboard", "error", err)
		data.Error = "The dashboard could not be loaded."
	} else {
		data.Dashboard = view.NewDashboard(state.Listings, state.Reports)
	}

	s.Templates.Render(w, "admin.html", data)
}

// ReportPage handles GET /admin/report: listings created in a date range,
// laid out for printing.
func (s *Server) ReportPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := &reportPage{
		PageData: s.page(w, r, "Listing report"),
		Query: view.ReportQuery{
			From:     q.Get("from"),
			To:       q.Get("to"),
			Status:   q.Get("status"),
			Category: q.Get("category"),
		},
		Categories: model.Categories,
		Statuses:   []string{model.StatusAvailable, model.StatusSold},
	}

	state, err := s.Market.Load(r.Context(), data.User)
	if err != nil {
		slog.Error("failed to load report", "error", err)
		data.Error = "The report could not be built."
	} else {
		data.Report = view.DateReport(state.Listings, data.Query, s.Location)
	}

	s.Templates.Render(w, "report.html", data)
}
