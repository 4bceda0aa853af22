// Package service holds the reservation use cases: the area catalog, the
// reservation flow and the booking lifecycle.  It depends on storage and
// collaborators only through the ports declared here.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/model"
)

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidPatch        = errors.New("invalid area patch")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different parameters")
)

// AreaStore is the persistence port for the area catalog.
type AreaStore interface {
	ListAreas(ctx context.Context, typ *model.AreaType) ([]model.Area, error)
	GetArea(ctx context.Context, id string) (model.Area, error)
	CreateArea(ctx context.Context, a *model.Area) error
	UpdateArea(ctx context.Context, a model.Area, expectedVersion uint32) (model.Area, error)
}

// BookingLedger is the persistence port for bookings.
type BookingLedger interface {
	BookingsFor(ctx context.Context, areaID string, date time.Time) ([]model.Booking, error)
	Snapshot(ctx context.Context, areaID string, date time.Time) (availability.Snapshot, error)
	Append(ctx context.Context, b model.Booking, expectedVersion uint32) (model.Booking, error)
	Get(ctx context.Context, id string) (model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus, paymentRef *string) (model.Booking, error)
	Cancel(ctx context.Context, id string) (model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (model.Booking, error)
	ExpirePending(ctx context.Context, cutoff time.Time) ([]model.Booking, error)
}

// PaymentGateway requests the deposit for a freshly appended booking and
// returns the reference the resident pays against.
type PaymentGateway interface {
	RequestDeposit(ctx context.Context, b model.Booking) (string, error)
}

// Notifier delivers booking lifecycle events.  Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, ev model.BookingEvent) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, model.BookingEvent) error { return nil }

// Clock supplies the current instant in the community's time zone.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// Current returns Now expressed in Location.
func (c Clock) Current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}
