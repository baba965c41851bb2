package store

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/erazemk/trznica/internal/model"
)

// Status labels used by the browser-only version of the market.
const (
	legacyStatusAvailable = "มีสินค้า"
	legacyStatusSold      = "ขายแล้ว"
)

// Collection keys.
const (
	ProductsKey = "products"
	ReportsKey  = "reports"
)

// Products is the listing collection.
var Products = Collection[model.Listing]{Key: ProductsKey, Legacy: LegacyListing}

// Reports is the report collection.
var Reports = Collection[model.Report]{Key: ReportsKey, Legacy: LegacyReport}

// LegacyListing converts a version 0 product record. Records without an ID are
// rejected; other missing or malformed fields fall back to safe values.
func LegacyListing(rec gjson.Result) (model.Listing, bool) {
	id := rec.Get("__backendId").String()
	if id == "" {
		return model.Listing{}, false
	}

	l := model.Listing{
		ID:          id,
		Name:        rec.Get("product_name").String(),
		Quantity:    int(rec.Get("quantity").Int()),
		Category:    legacyCategory(rec.Get("category").String()),
		Description: rec.Get("description").String(),
		SellerName:  rec.Get("seller_name").String(),
		Contact:     rec.Get("contact").String(),
		Images:      legacyImages(rec),
		Status:      legacyStatus(rec.Get("status").String()),
	}

	if price, err := decimal.NewFromString(rec.Get("price").String()); err == nil && model.ValidPrice(price) {
		l.Price = price
	}
	if l.Quantity < 1 {
		l.Quantity = 1
	}
	l.CreatedAt, _ = model.ParseTimestamp(rec.Get("created_at").String(), time.Local)

	return l, true
}

// legacyImages reads images stored either as a JSON string holding an array,
// a plain array, or a single "image" field.
func legacyImages(rec gjson.Result) []string {
	images := rec.Get("images")
	if images.Type == gjson.String {
		images = gjson.Parse(images.String())
	}

	var out []string
	if images.IsArray() {
		for _, img := range images.Array() {
			if s := img.String(); s != "" && len(out) < model.MaxImages {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		if single := rec.Get("image").String(); single != "" {
			out = append(out, single)
		}
	}
	return out
}

// legacyCategory maps old category labels; unknown ones become Other.
func legacyCategory(s string) string {
	switch s = strings.TrimSpace(s); s {
	case "เครื่องเขียน":
		return model.CategoryStationery
	case "งานฝีมือ":
		return model.CategoryCrafts
	case "หนังสือ":
		return model.CategoryBooks
	case "อุปกรณ์กีฬา":
		return model.CategorySports
	}
	if model.ValidCategory(s) {
		return s
	}
	return model.CategoryOther
}

func legacyStatus(s string) string {
	switch strings.TrimSpace(s) {
	case legacyStatusSold, model.StatusSold:
		return model.StatusSold
	default:
		return model.StatusAvailable
	}
}

// LegacyReport converts a version 0 report record.
func LegacyReport(rec gjson.Result) (model.Report, bool) {
	id := rec.Get("id").String()
	if id == "" {
		return model.Report{}, false
	}

	r := model.Report{
		ID:           id,
		ListingID:    rec.Get("productId").String(),
		ListingName:  rec.Get("product_name").String(),
		SellerName:   rec.Get("seller_name").String(),
		ReporterName: rec.Get("reporter_name").String(),
		Reason:       rec.Get("reason").String(),
		Detail:       rec.Get("detail").String(),
		Status:       model.ReportStatusPending,
	}
	if !model.ValidReason(r.Reason) {
		r.Reason = model.ReasonOther
	}
	r.CreatedAt, _ = model.ParseTimestamp(rec.Get("created_at").String(), time.Local)

	return r, true
}
