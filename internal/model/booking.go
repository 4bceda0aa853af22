package model

import (
	"encoding/json"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusExpired   BookingStatus = "expired"
)

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// CanTransition reports whether a booking in state s may move to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusExpired
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

// PaymentMethod is how the resident intends to pay the deposit.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Booking records a resident's reservation of an area for a time range on
// one calendar day.  It corresponds to a row in the `bookings` table.
//
// Fields:
//  Date           – calendar day as midnight UTC.
//  StartTime      – start of the range, inclusive.
//  EndTime        – end of the range, exclusive.
//  PaymentRef     – reference issued by the deposit collaborator.
//  IdempotencyKey – client-supplied key; unique per requester.
type Booking struct {
	ID             string        `json:"id"`
	AreaID         string        `json:"area_id"`
	Date           time.Time     `json:"-"`
	StartTime      ClockTime     `json:"start_time"`
	EndTime        ClockTime     `json:"end_time"`
	Headcount      int           `json:"headcount"`
	DepositCents   int64         `json:"deposit_cents"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	PaymentRef     *string       `json:"payment_ref,omitempty"`
	Status         BookingStatus `json:"status"`
	RequestedBy    string        `json:"requested_by"`
	RequesterName  string        `json:"requester_name,omitempty"`
	Unit           string        `json:"unit,omitempty"`
	IdempotencyKey string        `json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// DateString returns the booking day in YYYY-MM-DD form.
func (b Booking) DateString() string { return b.Date.Format(DateLayout) }

// Overlaps reports whether the booking's range intersects [start, end).
func (b Booking) Overlaps(start, end ClockTime) bool {
	return b.StartTime < end && start < b.EndTime
}

// Active reports whether the booking still holds its slot at now.  A
// pending booking older than pendingTTL no longer counts even before the
// sweeper marks it expired.  A zero pendingTTL disables expiry.
func (b Booking) Active(now time.Time, pendingTTL time.Duration) bool {
	switch b.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		return pendingTTL <= 0 || now.Sub(b.CreatedAt) < pendingTTL
	}
	return false
}

func (b Booking) MarshalJSON() ([]byte, error) {
	type plain Booking
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain(b), b.DateString()})
}
