package view

import (
	"math"
	"time"

	"github.com/erazemk/trznica/internal/model"
)

// Overview counts listings by status.
type Overview struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Sold      int `json:"sold"`
}

// NewOverview counts listings.
func NewOverview(listings []model.Listing) Overview {
	o := Overview{Total: len(listings)}
	for _, l := range listings {
		switch l.Status {
		case model.StatusAvailable:
			o.Available++
		case model.StatusSold:
			o.Sold++
		}
	}
	return o
}

// CategoryShare is one category's slice of the catalog.
type CategoryShare struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// BarWidth is the bar length in percent of the full width.
func (c CategoryShare) BarWidth() float64 {
	return c.Percent
}

// Breakdown is the catalog grouped by category.
type Breakdown struct {
	Empty      bool            `json:"empty"`
	Categories []CategoryShare `json:"categories"`
}

// CategoryBreakdown groups listings by category in order of first
// appearance. Listings without a category count as unspecified. Percentages
// are rounded to one decimal.
func CategoryBreakdown(listings []model.Listing) Breakdown {
	if len(listings) == 0 {
		return Breakdown{Empty: true, Categories: []CategoryShare{}}
	}

	var order []string
	counts := map[string]int{}
	for _, l := range listings {
		c := l.Category
		if c == "" {
			c = model.CategoryUnspecified
		}
		if _, ok := counts[c]; !ok {
			order = append(order, c)
		}
		counts[c]++
	}

	b := Breakdown{Categories: make([]CategoryShare, 0, len(order))}
	for _, c := range order {
		pct := float64(counts[c]) / float64(len(listings)) * 100
		b.Categories = append(b.Categories, CategoryShare{
			Category: c,
			Count:    counts[c],
			Percent:  math.Round(pct*10) / 10,
		})
	}
	return b
}

// DateLayout is the layout of report date bounds.
const DateLayout = "2006-01-02"

// ReportQuery selects listings for the date-ranged report. Bounds are dates
// in DateLayout; a bound that does not parse is ignored.
type ReportQuery struct {
	From     string
	To       string
	Status   string
	Category string
}

// ReportSummary totals a report.
type ReportSummary struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Sold      int `json:"sold"`
	Sellers   int `json:"sellers"`
}

// CategoryCount is the number of report rows in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DateRangeReport is the result of DateReport.
type DateRangeReport struct {
	From       time.Time       `json:"from,omitzero"`
	To         time.Time       `json:"to,omitzero"`
	Listings   []model.Listing `json:"listings"`
	Summary    ReportSummary   `json:"summary"`
	Categories []CategoryCount `json:"categories"`
}

// DateReport selects listings created between the From day's start and the
// To day's end in loc, inclusive. Listings without a creation time are left
// out whenever a bound is set. Rows are sorted newest first.
func DateReport(listings []model.Listing, q ReportQuery, loc *time.Location) DateRangeReport {
	if loc == nil {
		loc = time.Local
	}

	var from, to time.Time
	if t, err := time.ParseInLocation(DateLayout, q.From, loc); err == nil {
		from = t
	}
	if t, err := time.ParseInLocation(DateLayout, q.To, loc); err == nil {
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	bounded := !from.IsZero() || !to.IsZero()

	r := DateRangeReport{From: from, To: to, Listings: []model.Listing{}, Categories: []CategoryCount{}}
	for _, l := range listings {
		if q.Status != "" && l.Status != q.Status {
			continue
		}
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		if bounded {
			if !l.CreatedAt.Valid() {
				continue
			}
			if !from.IsZero() && l.CreatedAt.Before(from) {
				continue
			}
			if !to.IsZero() && l.CreatedAt.After(to) {
				continue
			}
		}
		r.Listings = append(r.Listings, l)
	}
	sortNewestFirst(r.Listings)

	sellers := map[string]bool{}
	index := map[string]int{}
	for _, l := range r.Listings {
		r.Summary.Total++
		switch l.Status {
		case model.StatusAvailable:
			r.Summary.Available++
		case model.StatusSold:
			r.Summary.Sold++
		}
		sellers[l.SellerName] = true

		c := l.Category
		if c == "" {
			c = model.CategoryUnspecified
		}
		if i, ok := index[c]; ok {
			r.Categories[i].Count++
		} else {
			index[c] = len(r.Categories)
			r.Categories = append(r.Categories, CategoryCount{Category: c, Count: 1})
		}
	}
	r.Summary.Sellers = len(sellers)

	return r
}

// RecentCount is the number of listings on the dashboard's recent list.
const RecentCount = 5

// Dashboard is the admin landing page.
type Dashboard struct {
	Overview  Overview        `json:"overview"`
	Breakdown Breakdown       `json:"breakdown"`
	Recent    []model.Listing `json:"recent"`
	Reports   []model.Report  `json:"reports"`
}

// NewDashboard builds the admin dashboard. Reports are listed newest first.
func NewDashboard(listings []model.Listing, reports []model.Report) Dashboard {
	rs := append([]model.Report(nil), reports...)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	if rs == nil {
		rs = []model.Report{}
	}
	return Dashboard{
		Overview:  NewOverview(listings),
		Breakdown: CategoryBreakdown(listings),
		Recent:    Recent(listings, RecentCount),
		Reports:   rs,
	}
}
