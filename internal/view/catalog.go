// Package view turns market state into what pages and API clients show. It is
// pure: nothing here reads storage or the request.
package view

import (
	"sort"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/model"
)

// Card is one listing as shown in the catalog, with the actions the viewer
// may take on it.
type Card struct {
	model.Listing
	Cover               string `json:"cover,omitempty"`
	CanEdit             bool   `json:"can_edit"`
	CanDelete           bool   `json:"can_delete"`
	CanToggleStatus     bool   `json:"can_toggle_status"`
	CanReport           bool   `json:"can_report"`
	DetailRequiresLogin bool   `json:"detail_requires_login"`
}

// NewCard builds the card for l as seen by id. Without an identity the card
// carries only what the public catalog shows: seller, contact, description
// and all images but the cover are left out.
func NewCard(id *model.Identity, l model.Listing) Card {
	cover := l.Cover()
	if id == nil {
		l = model.Listing{
			ID:        l.ID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Category:  l.Category,
			Status:    l.Status,
			CreatedAt: l.CreatedAt,
			Images:    []string{},
		}
	}
	return Card{
		Listing:             l,
		Cover:               cover,
		CanEdit:             market.CanEdit(id, &l),
		CanDelete:           market.CanDelete(id, &l),
		CanToggleStatus:     market.CanToggleStatus(id, &l),
		CanReport:           market.CanReport(id, &l),
		DetailRequiresLogin: id == nil,
	}
}

// BuildCatalog returns the cards of the listings matching f, in collection
// order.
func BuildCatalog(state *market.State, f market.Filter) []Card {
	return Cards(state.Identity, f.Apply(state.Listings))
}

// Cards builds a card for each listing.
func Cards(id *model.Identity, listings []model.Listing) []Card {
	cards := make([]Card, 0, len(listings))
	for _, l := range listings {
		cards = append(cards, NewCard(id, l))
	}
	return cards
}

// Recent returns up to n listings, newest first. Listings without a creation
// time sort last, in collection order. n <= 0 returns all of them.
func Recent(listings []model.Listing, n int) []model.Listing {
	out := append([]model.Listing(nil), listings...)
	sortNewestFirst(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortNewestFirst(listings []model.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i].CreatedAt, listings[j].CreatedAt
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		return a.After(b.Time)
	})
}
