package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

const legacyProducts = `[
  {"__backendId":"1700000000001","product_name":"Pencil","price":12.5,"quantity":3,
   "category":"Stationery","description":"HB","seller_name":"Ana","contact":"line: ana",
   "images":"[\"data:image/jpeg;base64,AAAA\",\"data:image/jpeg;base64,BBBB\"]",
   "status":"มีสินค้า","created_at":"2024-01-10T08:00:00.000Z"},
  {"__backendId":1700000000002,"product_name":"Ball","price":"100","quantity":0,
   "category":"อุปกรณ์กีฬา","seller_name":"Bor","image":"data:image/png;base64,CCCC",
   "status":"ขายแล้ว","created_at":"2024-01-11 10:00:00"},
  {"__backendId":"1700000000003","product_name":"Atlas","price":"1e200000000","quantity":1,
   "category":"หนังสือ"},
  {"__backendId":"1700000000004","product_name":"Mystery","price":"5","quantity":1,
   "category":"อาหาร"},
  {"product_name":"No id"},
  "garbage"
]`

func TestLegacyProductsUpgrade(t *testing.T) {
	out, err := Products.Decode(legacyProducts)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 listings, got %d", len(out))
	}

	pencil := out[0]
	if pencil.ID != "1700000000001" || pencil.Name != "Pencil" {
		t.Errorf("unexpected first listing %+v", pencil)
	}
	if !pencil.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected price 12.5, got %s", pencil.Price)
	}
	if len(pencil.Images) != 2 {
		t.Errorf("expected 2 images, got %d", len(pencil.Images))
	}
	if pencil.Status != model.StatusAvailable {
		t.Errorf("expected available, got %q", pencil.Status)
	}
	if !pencil.CreatedAt.Valid() {
		t.Error("expected created_at to parse")
	}

	ball := out[1]
	if ball.ID != "1700000000002" {
		t.Errorf("expected numeric id to be kept as string, got %q", ball.ID)
	}
	if ball.Status != model.StatusSold {
		t.Errorf("expected sold, got %q", ball.Status)
	}
	if ball.Quantity != 1 {
		t.Errorf("expected quantity to be raised to 1, got %d", ball.Quantity)
	}
	if len(ball.Images) != 1 {
		t.Errorf("expected single legacy image, got %d", len(ball.Images))
	}
	if !ball.CreatedAt.Valid() {
		t.Error("expected server layout created_at to parse")
	}
	if ball.Category != model.CategorySports {
		t.Errorf("expected old sports label to map to Sports, got %q", ball.Category)
	}
	if pencil.Category != model.CategoryStationery {
		t.Errorf("expected current category to be kept, got %q", pencil.Category)
	}

	atlas := out[2]
	if atlas.Category != model.CategoryBooks {
		t.Errorf("expected old books label to map to Books, got %q", atlas.Category)
	}
	if !atlas.Price.IsZero() {
		t.Errorf("expected out-of-range price to fall back to 0, got %s", atlas.Price.String())
	}
	if out[3].Category != model.CategoryOther {
		t.Errorf("expected unknown category to become Other, got %q", out[3].Category)
	}
	for _, l := range out {
		if err := l.Validate(); err != nil {
			t.Errorf("%s: expected upgraded listing to be valid, got %v", l.ID, err)
		}
	}
}

func TestLegacyUpgradePersistsAsEnvelope(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	PutCollection(ctx, database, ProductsKey, legacyProducts)

	out, err := Products.Load(ctx, database)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Products.Save(ctx, database, out); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := GetCollection(ctx, database, ProductsKey)
	again, err := Products.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(again) != 4 {
		t.Errorf("expected 4 listings after upgrade, got %d", len(again))
	}
}

func TestLegacyReports(t *testing.T) {
	raw := `[{"id":"1","productId":"p1","product_name":"Pencil","seller_name":"Ana",
	  "reporter_name":"Bor","reason":"scam","detail":"x","status":"pending",
	  "created_at":"2024-01-10T08:00:00.000Z"},
	  {"id":"2","productId":"p1","reason":"something else"}]`

	out, err := Reports.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(out))
	}
	if out[0].ListingID != "p1" || out[0].ReporterName != "Bor" {
		t.Errorf("unexpected report %+v", out[0])
	}
	if out[1].Reason != model.ReasonOther {
		t.Errorf("expected unknown reason to map to other, got %q", out[1].Reason)
	}
}
