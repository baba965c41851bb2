package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/trznica/internal/model"
)

func TestOverview(t *testing.T) {
	o := NewOverview([]model.Listing{
		{Status: model.StatusAvailable},
		{Status: model.StatusSold},
		{Status: model.StatusAvailable},
	})
	assert.Equal(t, Overview{Total: 3, Available: 2, Sold: 1}, o)
}

func TestCategoryBreakdown(t *testing.T) {
	b := CategoryBreakdown([]model.Listing{
		{Category: model.CategoryBooks},
		{Category: model.CategorySports},
		{Category: model.CategoryBooks},
	})

	assert.False(t, b.Empty)
	require.Len(t, b.Categories, 2)
	assert.Equal(t, model.CategoryBooks, b.Categories[0].Category)
	assert.Equal(t, 2, b.Categories[0].Count)
	assert.Equal(t, 66.7, b.Categories[0].Percent)
	assert.Equal(t, 66.7, b.Categories[0].BarWidth())
	assert.Equal(t, model.CategorySports, b.Categories[1].Category)
	assert.Equal(t, 33.3, b.Categories[1].Percent)
}

func TestCategoryBreakdownUnspecifiedAndEmpty(t *testing.T) {
	b := CategoryBreakdown([]model.Listing{{Category: ""}})
	require.Len(t, b.Categories, 1)
	assert.Equal(t, model.CategoryUnspecified, b.Categories[0].Category)
	assert.Equal(t, 100.0, b.Categories[0].Percent)

	empty := CategoryBreakdown(nil)
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Categories)
}

func reportListings() []model.Listing {
	return []model.Listing{
		{ID: "before", SellerName: "Ana", Category: model.CategoryBooks, Status: model.StatusAvailable, CreatedAt: at(9, 23)},
		{ID: "morning", SellerName: "Ana", Category: model.CategoryBooks, Status: model.StatusAvailable, CreatedAt: at(10, 0)},
		{ID: "none", SellerName: "Bor", Category: model.CategorySports, Status: model.StatusSold},
		{ID: "evening", SellerName: "Bor", Category: model.CategorySports, Status: model.StatusSold, CreatedAt: at(10, 23)},
		{ID: "after", SellerName: "Cene", Category: model.CategoryOther, Status: model.StatusAvailable, CreatedAt: at(11, 0)},
	}
}

func reportIDs(r DateRangeReport) []string {
	out := []string{}
	for _, l := range r.Listings {
		out = append(out, l.ID)
	}
	return out
}

func TestDateReportSingleDay(t *testing.T) {
	r := DateReport(reportListings(), ReportQuery{From: "2024-01-10", To: "2024-01-10"}, time.UTC)

	assert.Equal(t, []string{"evening", "morning"}, reportIDs(r))
	assert.Equal(t, ReportSummary{Total: 2, Available: 1, Sold: 1, Sellers: 2}, r.Summary)
	assert.Equal(t, []CategoryCount{
		{Category: model.CategorySports, Count: 1},
		{Category: model.CategoryBooks, Count: 1},
	}, r.Categories)
}

func TestDateReportUsesLocation(t *testing.T) {
	// 2024-01-09 23:00 UTC is 2024-01-10 06:00 in UTC+7.
	ict := time.FixedZone("ICT", 7*3600)
	r := DateReport(reportListings(), ReportQuery{From: "2024-01-10", To: "2024-01-10"}, ict)

	assert.Equal(t, []string{"morning", "before"}, reportIDs(r))
}

func TestDateReportBounds(t *testing.T) {
	tests := []struct {
		name  string
		query ReportQuery
		want  []string
	}{
		{"no bounds keeps undated", ReportQuery{}, []string{"after", "evening", "morning", "before", "none"}},
		{"from only", ReportQuery{From: "2024-01-10"}, []string{"after", "evening", "morning"}},
		{"to only", ReportQuery{To: "2024-01-09"}, []string{"before"}},
		{"unparseable bounds are absent", ReportQuery{From: "yesterday", To: "10/01/2024"}, []string{"after", "evening", "morning", "before", "none"}},
		{"status", ReportQuery{Status: model.StatusSold}, []string{"evening", "none"}},
		{"category with bound", ReportQuery{From: "2024-01-01", Category: model.CategorySports}, []string{"evening"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DateReport(reportListings(), tt.query, time.UTC)
			assert.Equal(t, tt.want, reportIDs(r))
		})
	}
}

func TestNewDashboard(t *testing.T) {
	listings := reportListings()
	reports := []model.Report{{ID: "r1"}, {ID: "r2"}}

	d := NewDashboard(listings, reports)
	assert.Equal(t, 5, d.Overview.Total)
	assert.Len(t, d.Recent, RecentCount)
	assert.Equal(t, "after", d.Recent[0].ID)
	require.Len(t, d.Reports, 2)
	assert.Equal(t, "r2", d.Reports[0].ID)
}
