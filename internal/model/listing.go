package model

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Listing is a single item posted for sale.
type Listing struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	SellerName  string          `json:"seller_name"`
	Contact     string          `json:"contact"`
	Images      []string        `json:"images"`
	Status      string          `json:"status"`
	CreatedAt   Timestamp       `json:"created_at"`
}

// Cover returns the first image, or "" when the listing has none.
func (l *Listing) Cover() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// Listing statuses.
const (
	StatusAvailable = "available"
	StatusSold      = "sold"
)

// ToggledStatus returns the opposite status.
func ToggledStatus(status string) string {
	if status == StatusAvailable {
		return StatusSold
	}
	return StatusAvailable
}

// ValidStatus reports whether status is a known listing status.
func ValidStatus(status string) bool {
	return status == StatusAvailable || status == StatusSold
}

// Listing categories.
const (
	CategoryStationery = "Stationery"
	CategoryCrafts     = "Crafts"
	CategoryBooks      = "Books"
	CategorySports     = "Sports"
	CategoryOther      = "Other"
)

// CategoryUnspecified groups listings without a category in summaries.
const CategoryUnspecified = "unspecified"

// Categories lists the fixed categories in display order.
var Categories = []string{
	CategoryStationery,
	CategoryCrafts,
	CategoryBooks,
	CategorySports,
	CategoryOther,
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MaxImages is the number of images a listing may carry.
const MaxImages = 5

// MaxPrice is the highest accepted listing price.
var MaxPrice = decimal.New(1, 9)

// ValidPrice reports whether p lies in [0, MaxPrice] with at most two
// decimal places.
func ValidPrice(p decimal.Decimal) bool {
	// Comparisons rescale to a common exponent, so extreme exponents are
	// rejected before any arithmetic.
	if e := p.Exponent(); e > 9 || e < -9 {
		return false
	}
	return !p.IsNegative() && p.LessThanOrEqual(MaxPrice) && p.Equal(p.Round(2))
}

// Validate checks the invariants every stored listing holds, whatever its
// source.
func (l *Listing) Validate() error {
	if l.ID == "" {
		return Invalid("id", "required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return Invalid("name", "required")
	}
	return validateListing(l.Price, l.Quantity, l.Category, l.Images)
}

func validateListing(price decimal.Decimal, quantity int, category string, images []string) error {
	if !ValidPrice(price) {
		return Invalid("price", "must be a number of at least 0 and at most 1000000000, with up to 2 decimals")
	}
	if quantity < 1 {
		return Invalid("quantity", "must be a whole number of at least 1")
	}
	if !ValidCategory(category) {
		return Invalid("category", "unknown category")
	}
	if len(images) > MaxImages {
		return Invalid("images", "at most 5 images")
	}
	return nil
}

// ListingDraft is listing input as submitted by a form or API client.
// Price and quantity stay unparsed until Validate.
type ListingDraft struct {
	Name        string
	Price       string
	Quantity    string
	Category    string
	Description string
	SellerName  string
	Contact     string
	Images      []string
}

// Validate checks the draft and returns the parsed price and quantity.
func (d ListingDraft) Validate() (decimal.Decimal, int, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", d.Name},
		{"price", d.Price},
		{"quantity", d.Quantity},
		{"category", d.Category},
		{"description", d.Description},
		{"seller_name", d.SellerName},
		{"contact", d.Contact},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return decimal.Decimal{}, 0, Invalid(r.field, "required")
		}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(d.Price))
	if err != nil {
		return decimal.Decimal{}, 0, Invalid("price", "must be a number of at least 0")
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(d.Quantity))
	if err != nil {
		return decimal.Decimal{}, 0, Invalid("quantity", "must be a whole number of at least 1")
	}
	if err := validateListing(price, quantity, d.Category, d.Images); err != nil {
		return decimal.Decimal{}, 0, err
	}
	return price, quantity, nil
}
