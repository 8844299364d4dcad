package model

import "fmt"

type BookingStatus string

const (
	StatusDraft          BookingStatus = "draft"
	StatusTentative      BookingStatus = "tentative"
	StatusPendingConfirm BookingStatus = "pending_confirm"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusComplete       BookingStatus = "complete"
)

// statusOrder is the total order used for cycling. The last status wraps
// back to the first.
var statusOrder = []BookingStatus{
	StatusDraft,
	StatusTentative,
	StatusPendingConfirm,
	StatusConfirmed,
	StatusComplete,
}

// BookingStatuses returns every booking status in cycle order.
func BookingStatuses() []BookingStatus {
	out := make([]BookingStatus, len(statusOrder))
	copy(out, statusOrder)
	return out
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return status, nil
}

func (s BookingStatus) Valid() bool {
	return s.index() >= 0
}

func (s BookingStatus) String() string {
	return string(s)
}

func (s BookingStatus) index() int {
	for i, candidate := range statusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ManuallySettable reports whether an operator may move an assignment to s
// directly. pending_confirm is only entered by issuing a confirmation request.
func (s BookingStatus) ManuallySettable() bool {
	return s.Valid() && s != StatusPendingConfirm
}

// Committed reports whether an assignment in this status occupies the
// engineer's calendar for conflict detection. Every workflow status counts;
// anything outside the vocabulary (a declined or cancelled marker) does not.
func (s BookingStatus) Committed() bool {
	return s.Valid()
}

// NextInCycle returns the status that follows s in the click-cycle order,
// skipping pending_confirm. Unknown statuses restart the cycle at draft.
func (s BookingStatus) NextInCycle() BookingStatus {
	i := s.index()
	if i < 0 {
		return StatusDraft
	}
	for {
		i = (i + 1) % len(statusOrder)
		if statusOrder[i].ManuallySettable() {
			return statusOrder[i]
		}
	}
}

// StatusPtr is a convenience for optional status fields.
func StatusPtr(s BookingStatus) *BookingStatus {
	return &s
}

type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationDeclined  ConfirmationStatus = "declined"
	ConfirmationExpired   ConfirmationStatus = "expired"
)

func (s ConfirmationStatus) Terminal() bool {
	return s == ConfirmationConfirmed || s == ConfirmationDeclined || s == ConfirmationExpired
}

type ConfirmationAction string

const (
	ActionConfirm ConfirmationAction = "confirm"
	ActionDecline ConfirmationAction = "decline"
)

func (a ConfirmationAction) Valid() bool {
	return a == ActionConfirm || a == ActionDecline
}

// ResultingStatus maps a customer response to the request status it produces.
func (a ConfirmationAction) ResultingStatus() ConfirmationStatus {
	if a == ActionConfirm {
		return ConfirmationConfirmed
	}
	return ConfirmationDeclined
}

// AssignmentStatus maps a customer response to the booking status its
// assignments move to. A decline sends them back to tentative for replanning.
func (a ConfirmationAction) AssignmentStatus() BookingStatus {
	if a == ActionConfirm {
		return StatusConfirmed
	}
	return StatusTentative
}
