// Package market holds the catalog and report rules of the marketplace: the
// operations on listings and reports, who may perform them, and the service
// that loads, changes and persists both collections.
package market

import (
	"strings"
	"time"

	"github.com/erazemk/trznica/internal/model"
)

// State is everything a page needs: who is looking and what exists.
type State struct {
	Identity *model.Identity
	Listings []model.Listing
	Reports  []model.Report
}

// Find returns the listing with id, or nil.
func Find(listings []model.Listing, id string) *model.Listing {
	if i := indexOf(listings, id); i >= 0 {
		return &listings[i]
	}
	return nil
}

func indexOf(listings []model.Listing, id string) int {
	if id == "" {
		return -1
	}
	for i := range listings {
		if listings[i].ID == id {
			return i
		}
	}
	return -1
}

// Upsert replaces the listing with l's ID in place, keeping its ID, creation
// time and status, or appends l as a new listing. New listings without an ID
// get one from newID; missing creation times and statuses are filled in.
func Upsert(listings []model.Listing, l model.Listing, now time.Time, newID func() string) ([]model.Listing, model.Listing) {
	if i := indexOf(listings, l.ID); i >= 0 {
		existing := listings[i]
		l.ID = existing.ID
		l.CreatedAt = existing.CreatedAt
		l.Status = existing.Status
		out := append([]model.Listing(nil), listings...)
		out[i] = l
		return out, l
	}

	if l.ID == "" {
		l.ID = newID()
	}
	if !l.CreatedAt.Valid() {
		l.CreatedAt = model.TimestampOf(now)
	}
	if !model.ValidStatus(l.Status) {
		l.Status = model.StatusAvailable
	}
	out := append(append([]model.Listing(nil), listings...), l)
	return out, l
}

// Remove drops the listing with id. Unknown IDs are a no-op.
func Remove(listings []model.Listing, id string) []model.Listing {
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

// SetStatus sets the status of the listing with id.
func SetStatus(listings []model.Listing, id, status string) ([]model.Listing, error) {
	if !model.ValidStatus(status) {
		return nil, model.Invalid("status", "unknown status")
	}
	i := indexOf(listings, id)
	if i < 0 {
		return nil, model.ErrNotFound
	}
	out := append([]model.Listing(nil), listings...)
	out[i].Status = status
	return out, nil
}

// ToggleStatus flips the listing with id between available and sold.
func ToggleStatus(listings []model.Listing, id string) ([]model.Listing, error) {
	i := indexOf(listings, id)
	if i < 0 {
		return nil, model.ErrNotFound
	}
	return SetStatus(listings, id, model.ToggledStatus(listings[i].Status))
}

// Filter selects listings. Empty fields match everything.
type Filter struct {
	Search   string
	Category string
	Status   string
}

// Match reports whether l passes the filter. Search is a case-insensitive
// substring match on name, description or seller.
func (f Filter) Match(l *model.Listing) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(l.Name), term) &&
			!strings.Contains(strings.ToLower(l.Description), term) &&
			!strings.Contains(strings.ToLower(l.SellerName), term) {
			return false
		}
	}
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	return true
}

// Apply returns the matching listings in collection order.
func (f Filter) Apply(listings []model.Listing) []model.Listing {
	out := []model.Listing{}
	for i := range listings {
		if f.Match(&listings[i]) {
			out = append(out, listings[i])
		}
	}
	return out
}

// BySeller returns the listings sold under name.
func BySeller(listings []model.Listing, name string) []model.Listing {
	out := []model.Listing{}
	for _, l := range listings {
		if l.SellerName == name {
			out = append(out, l)
		}
	}
	return out
}
