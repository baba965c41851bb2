package market

import (
	"strings"
	"time"

	"github.com/erazemk/trznica/internal/model"
)

// Submit appends a report by reporter against listing. The listing's name and
// seller are copied into the report.
func Submit(reports []model.Report, draft model.ReportDraft, reporter *model.Identity, listing *model.Listing, now time.Time, newID func() string) ([]model.Report, model.Report, error) {
	switch {
	case reporter == nil:
		return nil, model.Report{}, model.Invalid("reporter", "log in to report a listing")
	case listing == nil:
		return nil, model.Report{}, model.Invalid("listing", "listing not found")
	case reporter.Name == listing.SellerName:
		return nil, model.Report{}, model.Invalid("listing", "you cannot report your own listing")
	case draft.Reason == "":
		return nil, model.Report{}, model.Invalid("reason", "choose a reason")
	case !model.ValidReason(draft.Reason):
		return nil, model.Report{}, model.Invalid("reason", "unknown reason")
	}

	r := model.Report{
		ID:           newID(),
		ListingID:    listing.ID,
		ListingName:  listing.Name,
		SellerName:   listing.SellerName,
		ReporterName: reporter.Name,
		Reason:       draft.Reason,
		Detail:       strings.TrimSpace(draft.Detail),
		Status:       model.ReportStatusPending,
		CreatedAt:    model.TimestampOf(now),
	}
	return append(append([]model.Report(nil), reports...), r), r, nil
}

// ReportFilter selects reports. Empty fields match everything.
type ReportFilter struct {
	Status    string
	Reason    string
	ListingID string
}

// Apply returns the matching reports in collection order.
func (f ReportFilter) Apply(reports []model.Report) []model.Report {
	out := []model.Report{}
	for _, r := range reports {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Reason != "" && r.Reason != f.Reason {
			continue
		}
		if f.ListingID != "" && r.ListingID != f.ListingID {
			continue
		}
		out = append(out, r)
	}
	return out
}
