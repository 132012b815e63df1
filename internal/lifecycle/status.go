package lifecycle

import (
	"fmt"

	"urdf/pkg/types"
)

// StatusDescription is the presentation of a status: a label and message for
// the applicant plus symbolic icon and color names the templates map to CSS.
type StatusDescription struct {
	Status  types.ApplicationStatus
	Label   string
	Message string
	Icon    string
	Color   string
}

var statusDescriptions = map[types.ApplicationStatus]StatusDescription{
	types.ApplicationStatusPending: {
		Status:  types.ApplicationStatusPending,
		Label:   "Pending Review",
		Message: "Your application is under review. Our team is evaluating your submission and will update you soon.",
		Icon:    "clock",
		Color:   "yellow",
	},
	types.ApplicationStatusAllocated: {
		Status:  types.ApplicationStatusAllocated,
		Label:   "Funds Allocated",
		Message: "Your application has been approved! Funds have been allocated and are being processed for disbursement.",
		Icon:    "check-circle",
		Color:   "blue",
	},
	types.ApplicationStatusDisbursed: {
		Status:  types.ApplicationStatusDisbursed,
		Label:   "Disbursed to Payout",
		Message: "Funds have been successfully disbursed to your provided payout method. Please check your account.",
		Icon:    "banknote",
		Color:   "green",
	},
	types.ApplicationStatusIssue: {
		Status:  types.ApplicationStatusIssue,
		Label:   "Issue - Action Required",
		Message: "There is an issue with your application. Please contact our support team for more information.",
		Icon:    "alert-circle",
		Color:   "red",
	},
}

// DescribeStatus never falls back to a default: an unknown status is an
// integrity error.
func DescribeStatus(status types.ApplicationStatus) (StatusDescription, error) {
	d, ok := statusDescriptions[status]
	if !ok {
		return StatusDescription{}, fmt.Errorf("%w: %w: %q", ErrIntegrity, types.ErrInvalidStatus, status)
	}
	return d, nil
}

// StatusDescriptions returns the descriptions of every status in display order.
func StatusDescriptions() []StatusDescription {
	out := make([]StatusDescription, 0, len(types.ApplicationStatuses))
	for _, s := range types.ApplicationStatuses {
		out = append(out, statusDescriptions[s])
	}
	return out
}
