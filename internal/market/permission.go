package market

import "github.com/erazemk/trznica/internal/model"

// CanEdit reports whether id may edit l: its seller or an admin.
func CanEdit(id *model.Identity, l *model.Listing) bool {
	return id != nil && l != nil && (id.IsAdmin() || id.Name == l.SellerName)
}

// CanDelete reports whether id may delete l. Only admins delete, including
// their own listings.
func CanDelete(id *model.Identity, l *model.Listing) bool {
	return id != nil && l != nil && id.IsAdmin()
}

// CanToggleStatus reports whether id may mark l sold or available.
func CanToggleStatus(id *model.Identity, l *model.Listing) bool {
	return CanEdit(id, l)
}

// CanReport reports whether id may report l. Nobody reports their own listing.
func CanReport(id *model.Identity, l *model.Listing) bool {
	return id != nil && l != nil && id.Name != l.SellerName
}
