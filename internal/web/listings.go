package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/trznica/internal/imaging"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
	"github.com/erazemk/trznica/internal/view"
)

type listingDetailPage struct {
	PageData
	Card           view.Card
	Reasons        []string
	ConfirmPending bool
}

type listingFormPage struct {
	PageData
	Listing    *model.Listing
	Draft      model.ListingDraft
	Categories []string
	MaxImages  int
	Action     string
}

// userMessage turns a market error into a message for the flash line.
func userMessage(err error) string {
	var ve *model.ValidationError
	var pe *model.PermissionError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &pe):
		return "You are not allowed to " + pe.Action + "."
	case errors.Is(err, model.ErrNotFound):
		return "That listing no longer exists."
	default:
		return "Something went wrong, please try again."
	}
}

// fail logs unexpected errors and redirects to target with a message.
func fail(w http.ResponseWriter, r *http.Request, target, action string, err error) {
	if !model.IsValidation(err) && !model.IsPermission(err) && !errors.Is(err, model.ErrNotFound) {
		slog.Error("failed to "+action, "error", err)
	}
	redirectWithFlash(w, r, target, true, userMessage(err))
}

// confirmKey is empty without an identity, which nothing arms.
func confirmKey(id *model.Identity, listingID string) string {
	if id == nil {
		return ""
	}
	return id.StudentID + "|" + id.Name + "|delete|" + listingID
}

// ListingDetailPage handles GET /listings/{id}.
func (s *Server) ListingDetailPage(w http.ResponseWriter, r *http.Request) {
	id := session.Identity(r.Context())
	l, err := s.Market.Listing(r.Context(), r.PathValue("id"))
	if errors.Is(err, model.ErrNotFound) {
		redirectWithFlash(w, r, "/", true, userMessage(err))
		return
	}
	if err != nil {
		fail(w, r, "/", "load listing", err)
		return
	}

	s.Templates.Render(w, "listing_detail.html", &listingDetailPage{
		PageData:       s.page(w, r, l.Name),
		Card:           view.NewCard(id, *l),
		Reasons:        model.Reasons,
		ConfirmPending: id.IsAdmin() && s.Confirm.Pending(confirmKey(id, l.ID)),
	})
}

// NewListingPage handles GET /listings/new.
func (s *Server) NewListingPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "New listing")
	s.Templates.Render(w, "listing_form.html", &listingFormPage{
		PageData:   p,
		Draft:      model.ListingDraft{Quantity: "1", SellerName: p.User.Name},
		Categories: model.Categories,
		MaxImages:  s.Images.MaxImages,
		Action:     "/listings",
	})
}

// EditListingPage handles GET /listings/{id}/edit.
func (s *Server) EditListingPage(w http.ResponseWriter, r *http.Request) {
	id := session.Identity(r.Context())
	l, err := s.Market.Listing(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, "/", "load listing", err)
		return
	}
	if !view.NewCard(id, *l).CanEdit {
		redirectWithFlash(w, r, "/listings/"+l.ID, true, "You are not allowed to edit this listing.")
		return
	}

	s.Templates.Render(w, "listing_form.html", &listingFormPage{
		PageData:   s.page(w, r, "Edit "+l.Name),
		Listing:    l,
		Draft:      draftOf(l),
		Categories: model.Categories,
		MaxImages:  s.Images.MaxImages,
		Action:     "/listings/" + l.ID,
	})
}

// CreateListingSubmit handles POST /listings.
func (s *Server) CreateListingSubmit(w http.ResponseWriter, r *http.Request) {
	s.saveListing(w, r, nil)
}

// UpdateListingSubmit handles POST /listings/{id}.
func (s *Server) UpdateListingSubmit(w http.ResponseWriter, r *http.Request) {
	l, err := s.Market.Listing(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, "/", "load listing", err)
		return
	}
	s.saveListing(w, r, l)
}

// saveListing creates a listing, or updates existing. New uploads are
// compressed and added to the images kept from the form. On a rejected save
// the form is shown again with everything entered so far, including the
// compressed images.
func (s *Server) saveListing(w http.ResponseWriter, r *http.Request, existing *model.Listing) {
	id := session.Identity(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		redirectWithFlash(w, r, back(r, "/"), true, "The upload is too large.")
		return
	}

	draft := draftFromForm(r)
	data := &listingFormPage{
		PageData:   s.page(w, r, "New listing"),
		Listing:    existing,
		Categories: model.Categories,
		MaxImages:  s.Images.MaxImages,
		Action:     "/listings",
	}
	if existing != nil {
		data.Title = "Edit " + existing.Name
		data.Action = "/listings/" + existing.ID
	}

	images, skipped, err := s.Images.Attach(draft.Images, uploadedFiles(r))
	if err != nil {
		data.Draft = draft
		data.Error = userMessage(err)
		s.Templates.RenderStatus(w, http.StatusBadRequest, "listing_form.html", data)
		return
	}
	draft.Images = images

	var saved model.Listing
	if existing == nil {
		saved, err = s.Market.Create(r.Context(), id, draft)
	} else {
		saved, err = s.Market.Update(r.Context(), id, existing.ID, draft)
	}
	if err != nil {
		if !model.IsValidation(err) && !model.IsPermission(err) {
			slog.Error("failed to save listing", "error", err)
		}
		data.Draft = draft
		data.Error = joinMessages(userMessage(err), skipped)
		s.Templates.RenderStatus(w, http.StatusBadRequest, "listing_form.html", data)
		return
	}

	if len(skipped) > 0 {
		redirectWithFlash(w, r, "/listings/"+saved.ID, true, joinMessages("Saved.", skipped))
		return
	}
	redirectWithFlash(w, r, "/listings/"+saved.ID, false, "Saved.")
}

// ToggleStatusSubmit handles POST /listings/{id}/status.
func (s *Server) ToggleStatusSubmit(w http.ResponseWriter, r *http.Request) {
	target := back(r, "/my")
	l, err := s.Market.ToggleStatus(r.Context(), session.Identity(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, target, "change listing status", err)
		return
	}
	redirectWithFlash(w, r, target, false, fmt.Sprintf("%s is now %s.", l.Name, l.Status))
}

// DeleteListingSubmit handles POST /listings/{id}/delete. The first request
// asks for confirmation; a second one within the confirmation window deletes.
func (s *Server) DeleteListingSubmit(w http.ResponseWriter, r *http.Request) {
	id := session.Identity(r.Context())
	listingID := r.PathValue("id")
	target := back(r, "/")

	if !id.IsAdmin() {
		redirectWithFlash(w, r, target, true, "Only administrators can delete listings.")
		return
	}

	if !s.Confirm.Confirm(confirmKey(id, listingID)) {
		redirectWithFlash(w, r, target, true,
			fmt.Sprintf("Press delete again within %s to confirm.", s.Confirm.Window))
		return
	}

	if err := s.Market.Delete(r.Context(), id, listingID); err != nil {
		fail(w, r, target, "delete listing", err)
		return
	}
	if strings.HasPrefix(target, "/listings/"+listingID) {
		target = "/"
	}
	redirectWithFlash(w, r, target, false, "Listing deleted.")
}

// ReportSubmit handles POST /listings/{id}/report.
func (s *Server) ReportSubmit(w http.ResponseWriter, r *http.Request) {
	listingID := r.PathValue("id")
	target := "/listings/" + listingID
	draft := model.ReportDraft{Reason: r.FormValue("reason"), Detail: r.FormValue("detail")}

	if _, err := s.Market.Report(r.Context(), session.Identity(r.Context()), listingID, draft); err != nil {
		fail(w, r, target, "submit report", err)
		return
	}
	redirectWithFlash(w, r, target, false, "Thank you, the report was sent to the administrators.")
}

// uploadLimit bounds a whole listing form: every image at full size plus
// the text fields.
func (s *Server) uploadLimit() int64 {
	return int64(s.Images.MaxImages)*s.Images.MaxUpload + 1<<20
}

func draftFromForm(r *http.Request) model.ListingDraft {
	var images []string
	for _, img := range r.Form["images"] {
		if img != "" {
			images = append(images, img)
		}
	}
	return model.ListingDraft{
		Name:        r.FormValue("name"),
		Price:       r.FormValue("price"),
		Quantity:    r.FormValue("quantity"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		SellerName:  r.FormValue("seller_name"),
		Contact:     r.FormValue("contact"),
		Images:      images,
	}
}

func draftOf(l *model.Listing) model.ListingDraft {
	return model.ListingDraft{
		Name:        l.Name,
		Price:       l.Price.String(),
		Quantity:    fmt.Sprint(l.Quantity),
		Category:    l.Category,
		Description: l.Description,
		SellerName:  l.SellerName,
		Contact:     l.Contact,
		Images:      l.Images,
	}
}

func uploadedFiles(r *http.Request) []imaging.File {
	if r.MultipartForm == nil {
		return nil
	}
	var files []imaging.File
	for _, fh := range r.MultipartForm.File["files"] {
		files = append(files, imaging.File{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files
}

// joinMessages appends the skipped-file errors to message.
func joinMessages(message string, skipped []error) string {
	parts := []string{message}
	for _, err := range skipped {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, " ")
}
