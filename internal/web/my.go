package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/view"
)

type myListingsPage struct {
	PageData
	Cards    []view.Card
	Overview view.Overview
}

// MyListingsPage handles GET /my: the seller's own listings, newest first.
func (s *Server) MyListingsPage(w http.ResponseWriter, r *http.Request) {
	data := &myListingsPage{PageData: s.page(w, r, "My listings")}

	state, err := s.Market.Load(r.Context(), data.User)
	if err != nil {
		slog.Error("failed to load listings", "error", err)
		data.Error = "Your listings could not be loaded."
		s.Templates.Render(w, "my_listings.html", data)
		return
	}

	mine := view.Recent(market.BySeller(state.Listings, data.User.Name), 0)
	data.Cards = view.Cards(data.User, mine)
	data.Overview = view.NewOverview(mine)
	s.Templates.Render(w, "my_listings.html", data)
}
