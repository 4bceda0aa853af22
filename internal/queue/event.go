// Package queue carries booking lifecycle events over RabbitMQ: a
// publisher that implements the service notifier and a consumer that
// appends each event to logs/booking.log.
package queue

import (
	"time"

	"github.com/iliyamo/community-reservations/internal/model"
)

// BookingMessage is the wire payload published for every booking event.
// It contains enough information for downstream consumers to log or
// notify residents without querying the primary database.
type BookingMessage struct {
	Event         string `json:"event"`
	BookingID     string `json:"booking_id"`
	AreaID        string `json:"area_id"`
	AreaName      string `json:"area_name"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Headcount     int    `json:"headcount"`
	DepositCents  int64  `json:"deposit_cents"`
	PaymentMethod string `json:"payment_method"`
	PaymentRef    string `json:"payment_ref,omitempty"`
	Status        string `json:"status"`
	RequestedBy   string `json:"requested_by"`
	Unit          string `json:"unit,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// NewBookingMessage flattens a lifecycle event into its wire form.
func NewBookingMessage(ev model.BookingEvent) BookingMessage {
	b := ev.Booking
	m := BookingMessage{
		Event:         string(ev.Kind),
		BookingID:     b.ID,
		AreaID:        b.AreaID,
		AreaName:      ev.AreaName,
		Date:          b.DateString(),
		StartTime:     b.StartTime.String(),
		EndTime:       b.EndTime.String(),
		Headcount:     b.Headcount,
		DepositCents:  b.DepositCents,
		PaymentMethod: string(b.PaymentMethod),
		Status:        string(b.Status),
		RequestedBy:   b.RequestedBy,
		Unit:          b.Unit,
		OccurredAt:    ev.OccurredAt.UTC().Format(time.RFC3339),
	}
	if b.PaymentRef != nil {
		m.PaymentRef = *b.PaymentRef
	}
	return m
}
