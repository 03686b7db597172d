package engine

import (
	"errors"
	"fmt"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// Kind is the machine-readable classification of an expected, user-facing
// outcome. These are business answers, not system failures; only genuine
// infrastructure errors propagate as plain errors.
type Kind string

const (
	KindUnauthorized                Kind = "unauthorized"
	KindOnLeave                     Kind = "on_leave"
	KindAlreadyCheckedIn            Kind = "already_checked_in"
	KindAlreadyCheckedOut           Kind = "already_checked_out"
	KindNoOpenSession               Kind = "no_open_session"
	KindCheckInBlocked              Kind = "check_in_blocked"
	KindLatenessReasonRequired      Kind = "lateness_reason_required"
	KindEarlyCheckoutReasonRequired Kind = "early_checkout_reason_required"
	KindDuplicateCheckInRace        Kind = "duplicate_check_in_race"
	KindInsufficientScope           Kind = "insufficient_scope"
	KindAlreadyDecided              Kind = "already_decided"
	KindLocationNotFound            Kind = "location_not_found"
	KindOutOfRange                  Kind = "out_of_range"
	KindRejectionReasonRequired     Kind = "rejection_reason_required"
)

// Rejection carries enough context for the caller to render a precise
// message. Record is populated for the idempotent "already checked in/out"
// answers so clients can show the existing session instead of an error.
type Rejection struct {
	Kind    Kind
	Message string
	Record  *models.AttendanceRecord
}

func (r *Rejection) Error() string {
	return r.Message
}

func Reject(kind Kind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps an expected outcome from an engine error.
func AsRejection(err error) (*Rejection, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
