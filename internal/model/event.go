package model

import "time"

// EventKind names a booking lifecycle notification.
type EventKind string

const (
	EventBookingCreated   EventKind = "booking.created"
	EventBookingConfirmed EventKind = "booking.confirmed"
	EventBookingCancelled EventKind = "booking.cancelled"
	EventBookingExpired   EventKind = "booking.expired"
)

// BookingEvent is handed to the notification collaborator after a ledger
// change has been committed.
type BookingEvent struct {
	Kind       EventKind
	Booking    Booking
	AreaName   string
	OccurredAt time.Time
}
