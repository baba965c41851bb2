package model

// Report is a flag raised by one user against another user's listing.
// Listing name and seller are snapshots taken at submission.
type Report struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	ListingName  string    `json:"listing_name"`
	SellerName   string    `json:"seller_name"`
	ReporterName string    `json:"reporter_name"`
	Reason       string    `json:"reason"`
	Detail       string    `json:"detail,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    Timestamp `json:"created_at"`
}

// ReportStatusPending is the only status; reports are not moderated further.
const ReportStatusPending = "pending"

// Report reasons.
const (
	ReasonScam          = "scam"
	ReasonInappropriate = "inappropriate"
	ReasonProhibited    = "prohibited"
	ReasonWrongInfo     = "wrong_info"
	ReasonSpam          = "spam"
	ReasonOther         = "other"
)

// Reasons lists the report reasons in display order.
var Reasons = []string{
	ReasonScam,
	ReasonInappropriate,
	ReasonProhibited,
	ReasonWrongInfo,
	ReasonSpam,
	ReasonOther,
}

// ValidReason reports whether r is one of Reasons.
func ValidReason(r string) bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

// ReportDraft is report input from the report form.
type ReportDraft struct {
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}
