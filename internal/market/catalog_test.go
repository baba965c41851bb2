package market

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/trznica/internal/model"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var jan10 = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func sampleListings() []model.Listing {
	return []model.Listing{
		{ID: "1", Name: "Pencil", Description: "HB pencil", SellerName: "Ana",
			Category: model.CategoryStationery, Status: model.StatusAvailable, Price: decimal.NewFromInt(10), Quantity: 5},
		{ID: "2", Name: "Ball", Description: "Football", SellerName: "Bor",
			Category: model.CategorySports, Status: model.StatusSold, Price: decimal.NewFromInt(200), Quantity: 1},
		{ID: "3", Name: "Novel", Description: "Paperback, open pen marks", SellerName: "Cene",
			Category: model.CategoryBooks, Status: model.StatusAvailable, Price: decimal.NewFromInt(80), Quantity: 1},
	}
}

func ids(listings []model.Listing) []string {
	out := []string{}
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestUpsertAppendsNewListing(t *testing.T) {
	listings, created := Upsert(nil, model.Listing{Name: "Pencil"}, jan10, sequentialIDs())

	require.Len(t, listings, 1)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, model.StatusAvailable, created.Status)
	assert.True(t, created.CreatedAt.Equal(jan10))
}

func TestUpsertReplacesInPlace(t *testing.T) {
	original := sampleListings()
	original[1].CreatedAt = model.TimestampOf(jan10)

	edit := model.Listing{ID: "2", Name: "Ball (used)", Status: model.StatusAvailable}
	listings, updated := Upsert(original, edit, jan10.Add(time.Hour), sequentialIDs())

	require.Len(t, listings, 3)
	assert.Equal(t, []string{"1", "2", "3"}, ids(listings))
	assert.Equal(t, "Ball (used)", listings[1].Name)
	assert.Equal(t, model.StatusSold, updated.Status, "edits keep the status")
	assert.True(t, updated.CreatedAt.Equal(jan10), "edits keep the creation time")
	assert.Equal(t, "Ball", original[1].Name, "input slice is not modified")
}

func TestUpsertKeepsForeignID(t *testing.T) {
	listings, l := Upsert(nil, model.Listing{ID: "1700000000001"}, jan10, sequentialIDs())
	require.Len(t, listings, 1)
	assert.Equal(t, "1700000000001", l.ID)
}

func TestRemove(t *testing.T) {
	listings := Remove(sampleListings(), "2")
	assert.Equal(t, []string{"1", "3"}, ids(listings))

	assert.Len(t, Remove(sampleListings(), "missing"), 3)
}

func TestSetAndToggleStatus(t *testing.T) {
	listings, err := SetStatus(sampleListings(), "1", model.StatusSold)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, listings[0].Status)

	listings, err = ToggleStatus(listings, "1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, listings[0].Status)

	_, err = ToggleStatus(listings, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = SetStatus(listings, "1", "reserved")
	assert.True(t, model.IsValidation(err))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter", Filter{}, []string{"1", "2", "3"}},
		{"search name and description", Filter{Search: "pen"}, []string{"1", "3"}},
		{"search is case-insensitive", Filter{Search: "BALL"}, []string{"2"}},
		{"search seller", Filter{Search: "cene"}, []string{"3"}},
		{"status", Filter{Status: model.StatusSold}, []string{"2"}},
		{"category", Filter{Category: model.CategoryBooks}, []string{"3"}},
		{"search and status", Filter{Search: "pen", Status: model.StatusAvailable}, []string{"1", "3"}},
		{"no match", Filter{Search: "pen", Status: model.StatusSold}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(sampleListings())))
		})
	}
}

func TestBySeller(t *testing.T) {
	assert.Equal(t, []string{"2"}, ids(BySeller(sampleListings(), "Bor")))
	assert.Empty(t, BySeller(sampleListings(), "Nobody"))
}

func TestQuery(t *testing.T) {
	q, err := CompileQuery(`category == "Books" || price >= 100`)
	require.NoError(t, err)
	assert.Equal(t, `category == "Books" || price >= 100`, q.String())

	got, err := q.Apply(sampleListings())
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(got))

	q, err = CompileQuery(`seller == "Ana" && quantity > 1 && images == 0`)
	require.NoError(t, err)
	got, err = q.Apply(sampleListings())
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestCompileQueryRejects(t *testing.T) {
	for _, src := range []string{`price + 1`, `colour == "red"`, `name ==`} {
		_, err := CompileQuery(src)
		assert.True(t, model.IsValidation(err), "expected validation error for %q, got %v", src, err)
	}
}

func TestSelect(t *testing.T) {
	got, err := Select(sampleListings(), Filter{Status: model.StatusAvailable}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(got))

	got, err = Select(sampleListings(), Filter{Status: model.StatusAvailable}, `price > 50`)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(got))

	_, err = Select(sampleListings(), Filter{}, `price +`)
	assert.True(t, model.IsValidation(err))
}
