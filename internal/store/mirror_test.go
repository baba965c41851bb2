package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func mirrorListing(id, name string, price int64) model.Listing {
	return model.Listing{
		ID: id, Name: name, Price: decimal.NewFromInt(price),
		Quantity: 1, Category: model.CategoryOther,
	}
}

func TestUpsertMirrorProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := UpsertMirrorProduct(ctx, database, mirrorListing("p1", "Pencil", 5))
	if err != nil {
		t.Fatalf("UpsertMirrorProduct: %v", err)
	}
	if id != "p1" {
		t.Errorf("expected id p1, got %q", id)
	}

	UpsertMirrorProduct(ctx, database, mirrorListing("p2", "Ball", 0))
	UpsertMirrorProduct(ctx, database, mirrorListing("p1", "Pencil HB", 6))

	listings, err := ListMirrorProducts(ctx, database)
	if err != nil {
		t.Fatalf("ListMirrorProducts: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 products, got %d", len(listings))
	}
	// Newest row first; updating p1 does not move it.
	if listings[0].ID != "p2" || listings[1].ID != "p1" {
		t.Errorf("expected order p2, p1, got %s, %s", listings[0].ID, listings[1].ID)
	}
	if listings[1].Name != "Pencil HB" {
		t.Errorf("expected updated name, got %q", listings[1].Name)
	}
}

func TestUpsertMirrorProductFallbackID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := UpsertMirrorProduct(ctx, database, mirrorListing("", "No id", 1))
	if err != nil {
		t.Fatalf("UpsertMirrorProduct: %v", err)
	}
	if id == "" {
		t.Fatal("expected a fallback id")
	}

	listings, _ := ListMirrorProducts(ctx, database)
	if len(listings) != 1 || listings[0].ID != id {
		t.Errorf("expected stored product with id %q, got %+v", id, listings)
	}
}

func TestUpsertMirrorProductRejectsInvalid(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	huge := mirrorListing("p1", "Pencil", 0)
	huge.Price = decimal.New(1, 200000000)
	negative := mirrorListing("p2", "Ball", -5)
	unknown := mirrorListing("p3", "Thing", 1)
	unknown.Category = "Nonsense"

	for _, l := range []model.Listing{huge, negative, unknown} {
		if _, err := UpsertMirrorProduct(ctx, database, l); !model.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", l.ID, err)
		}
	}

	listings, _ := ListMirrorProducts(ctx, database)
	if len(listings) != 0 {
		t.Errorf("expected no stored products, got %d", len(listings))
	}
}
