package model

import "time"

// ReservationRequest is a booking attempt as collected from the caller.  It
// is validated once and either becomes a Booking or is rejected.
type ReservationRequest struct {
	AreaID         string        `json:"area_id" validate:"required"`
	Date           time.Time     `json:"date" validate:"required"`
	StartTime      ClockTime     `json:"start_time" validate:"gte=0,lte=1440"`
	EndTime        ClockTime     `json:"end_time" validate:"gte=0,lte=1440"`
	Headcount      int           `json:"headcount" validate:"min=1"`
	PaymentMethod  PaymentMethod `json:"payment_method" validate:"oneof=card transfer"`
	IdempotencyKey string        `json:"idempotency_key" validate:"max=128"`
}

// SameAs reports whether b was created from a request with identical
// parameters.  It is used to tell an idempotent replay from a reused key.
func (r ReservationRequest) SameAs(b Booking) bool {
	return r.AreaID == b.AreaID &&
		r.Date.Equal(b.Date) &&
		r.StartTime == b.StartTime &&
		r.EndTime == b.EndTime &&
		r.Headcount == b.Headcount &&
		r.PaymentMethod == b.PaymentMethod
}
