package market

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// Mirror receives a copy of every saved listing.
type Mirror interface {
	Upsert(ctx context.Context, l model.Listing) (string, error)
}

// Service loads, changes and persists listings and reports. Every
// read-modify-write runs under one lock, so mutations from concurrent
// requests never interleave within a process.
type Service struct {
	DB     *sql.DB
	Mirror Mirror

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewService returns a service over db. mirror may be nil.
func NewService(db *sql.DB, mirror Mirror) *Service {
	return &Service{
		DB:     db,
		Mirror: mirror,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Load returns the current state as seen by id.
func (s *Service) Load(ctx context.Context, id *model.Identity) (*State, error) {
	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("loading listings: %w", err)
	}
	reports, err := store.Reports.Load(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}
	return &State{Identity: id, Listings: listings, Reports: reports}, nil
}

// Listing returns the listing with id or ErrNotFound.
func (s *Service) Listing(ctx context.Context, id string) (*model.Listing, error) {
	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("loading listings: %w", err)
	}
	l := Find(listings, id)
	if l == nil {
		return nil, model.ErrNotFound
	}
	return l, nil
}

// Create validates draft and adds it as a new listing. Students always sell
// under their own name.
func (s *Service) Create(ctx context.Context, id *model.Identity, draft model.ListingDraft) (model.Listing, error) {
	if id == nil {
		return model.Listing{}, model.Forbidden("create listings")
	}
	if !id.IsAdmin() {
		draft.SellerName = id.Name
	}

	l, err := fromDraft(draft)
	if err != nil {
		return model.Listing{}, err
	}
	l.Status = model.StatusAvailable

	l, err = s.create(ctx, l)
	if err != nil {
		return model.Listing{}, err
	}
	slog.Info("listing created", "id", l.ID, "name", l.Name, "seller", l.SellerName)
	s.push(ctx, l)
	return l, nil
}

func (s *Service) create(ctx context.Context, l model.Listing) (model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return model.Listing{}, fmt.Errorf("loading listings: %w", err)
	}
	listings, l = Upsert(listings, l, s.now(), s.newID)
	if err := store.Products.Save(ctx, s.DB, listings); err != nil {
		return model.Listing{}, fmt.Errorf("saving listings: %w", err)
	}
	return l, nil
}

// Update replaces the fields of the listing with listingID from draft. ID,
// creation time and status are kept.
func (s *Service) Update(ctx context.Context, id *model.Identity, listingID string, draft model.ListingDraft) (model.Listing, error) {
	l, err := s.update(ctx, id, listingID, draft)
	if err != nil {
		return model.Listing{}, err
	}
	slog.Info("listing updated", "id", l.ID, "by", id.Name)
	s.push(ctx, l)
	return l, nil
}

func (s *Service) update(ctx context.Context, id *model.Identity, listingID string, draft model.ListingDraft) (model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return model.Listing{}, fmt.Errorf("loading listings: %w", err)
	}
	existing := Find(listings, listingID)
	if existing == nil {
		return model.Listing{}, model.ErrNotFound
	}
	if !CanEdit(id, existing) {
		return model.Listing{}, model.Forbidden("edit this listing")
	}
	if !id.IsAdmin() {
		draft.SellerName = existing.SellerName
	}

	l, err := fromDraft(draft)
	if err != nil {
		return model.Listing{}, err
	}
	l.ID = listingID

	listings, l = Upsert(listings, l, s.now(), s.newID)
	if err := store.Products.Save(ctx, s.DB, listings); err != nil {
		return model.Listing{}, fmt.Errorf("saving listings: %w", err)
	}
	return l, nil
}

// Delete removes the listing with listingID.
func (s *Service) Delete(ctx context.Context, id *model.Identity, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return fmt.Errorf("loading listings: %w", err)
	}
	existing := Find(listings, listingID)
	if existing == nil {
		return model.ErrNotFound
	}
	if !CanDelete(id, existing) {
		return model.Forbidden("delete this listing")
	}

	if err := store.Products.Save(ctx, s.DB, Remove(listings, listingID)); err != nil {
		return fmt.Errorf("saving listings: %w", err)
	}

	slog.Info("listing deleted", "id", listingID, "by", id.Name)
	return nil
}

// ToggleStatus flips the listing between available and sold.
func (s *Service) ToggleStatus(ctx context.Context, id *model.Identity, listingID string) (model.Listing, error) {
	return s.changeStatus(ctx, id, listingID, "")
}

// SetStatus sets the listing's status.
func (s *Service) SetStatus(ctx context.Context, id *model.Identity, listingID, status string) (model.Listing, error) {
	if !model.ValidStatus(status) {
		return model.Listing{}, model.Invalid("status", "unknown status")
	}
	return s.changeStatus(ctx, id, listingID, status)
}

// changeStatus toggles when status is empty.
func (s *Service) changeStatus(ctx context.Context, id *model.Identity, listingID, status string) (model.Listing, error) {
	l, err := s.saveStatus(ctx, id, listingID, status)
	if err != nil {
		return model.Listing{}, err
	}
	slog.Info("listing status changed", "id", l.ID, "status", l.Status, "by", id.Name)
	s.push(ctx, l)
	return l, nil
}

func (s *Service) saveStatus(ctx context.Context, id *model.Identity, listingID, status string) (model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return model.Listing{}, fmt.Errorf("loading listings: %w", err)
	}
	existing := Find(listings, listingID)
	if existing == nil {
		return model.Listing{}, model.ErrNotFound
	}
	if !CanToggleStatus(id, existing) {
		return model.Listing{}, model.Forbidden("change the status of this listing")
	}

	if status == "" {
		listings, err = ToggleStatus(listings, listingID)
	} else {
		listings, err = SetStatus(listings, listingID, status)
	}
	if err != nil {
		return model.Listing{}, err
	}
	if err := store.Products.Save(ctx, s.DB, listings); err != nil {
		return model.Listing{}, fmt.Errorf("saving listings: %w", err)
	}

	return *Find(listings, listingID), nil
}

// Report files a report by id against the listing with listingID.
func (s *Service) Report(ctx context.Context, id *model.Identity, listingID string, draft model.ReportDraft) (model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return model.Report{}, fmt.Errorf("loading listings: %w", err)
	}
	reports, err := store.Reports.Load(ctx, s.DB)
	if err != nil {
		return model.Report{}, fmt.Errorf("loading reports: %w", err)
	}

	reports, r, err := Submit(reports, draft, id, Find(listings, listingID), s.now(), s.newID)
	if err != nil {
		return model.Report{}, err
	}
	if err := store.Reports.Save(ctx, s.DB, reports); err != nil {
		return model.Report{}, fmt.Errorf("saving reports: %w", err)
	}

	slog.Info("report submitted", "id", r.ID, "listing", r.ListingID, "reason", r.Reason)
	return r, nil
}

// Reports returns the reports matching f. Only admins see reports.
func (s *Service) Reports(ctx context.Context, id *model.Identity, f ReportFilter) ([]model.Report, error) {
	if !id.IsAdmin() {
		return nil, model.Forbidden("view reports")
	}
	reports, err := store.Reports.Load(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}
	return f.Apply(reports), nil
}

// MergeResult counts what Merge did with the incoming listings.
type MergeResult struct {
	Added   int
	Updated int
	Skipped int
}

// Merge upserts listings from an import or mirror pull, matching by ID.
// Unlike Update, a matched listing takes the incoming status. Listings that
// break a listing invariant are skipped.
func (s *Service) Merge(ctx context.Context, incoming []model.Listing) (MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res MergeResult
	listings, err := store.Products.Load(ctx, s.DB)
	if err != nil {
		return res, fmt.Errorf("loading listings: %w", err)
	}
	for _, l := range incoming {
		if err := l.Validate(); err != nil {
			slog.Warn("skipping invalid listing", "id", l.ID, "error", err)
			res.Skipped++
			continue
		}
		if i := indexOf(listings, l.ID); i >= 0 {
			if !model.ValidStatus(l.Status) {
				l.Status = listings[i].Status
			}
			if !l.CreatedAt.Valid() {
				l.CreatedAt = listings[i].CreatedAt
			}
			listings[i] = l
			res.Updated++
			continue
		}
		listings, _ = Upsert(listings, l, s.now(), s.newID)
		res.Added++
	}
	if err := store.Products.Save(ctx, s.DB, listings); err != nil {
		return MergeResult{}, fmt.Errorf("saving listings: %w", err)
	}

	slog.Info("listings merged", "added", res.Added, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

// push copies l to the mirror. It runs after the lock is released so a slow
// mirror never holds up other writes. Failures are logged; the local save
// stands.
func (s *Service) push(ctx context.Context, l model.Listing) {
	if s.Mirror == nil {
		return
	}
	if _, err := s.Mirror.Upsert(ctx, l); err != nil {
		slog.Error("failed to push listing to mirror", "id", l.ID, "error", err)
	}
}

func fromDraft(d model.ListingDraft) (model.Listing, error) {
	price, quantity, err := d.Validate()
	if err != nil {
		return model.Listing{}, err
	}
	return model.Listing{
		Name:        strings.TrimSpace(d.Name),
		Price:       price,
		Quantity:    quantity,
		Category:    d.Category,
		Description: strings.TrimSpace(d.Description),
		SellerName:  strings.TrimSpace(d.SellerName),
		Contact:     strings.TrimSpace(d.Contact),
		Images:      d.Images,
	}, nil
}
