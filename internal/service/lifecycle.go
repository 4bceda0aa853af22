package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/repository"
)

func canSee(who model.Identity, b model.Booking) bool {
	return who.IsAdmin() || (who.UserID != "" && who.UserID == b.RequestedBy)
}

// GetBooking returns a booking to its requester or to an admin.  Other
// residents get repository.ErrNotFound, the same as for an unknown id.
func (r *Reservations) GetBooking(ctx context.Context, who model.Identity, id string) (model.Booking, error) {
	b, err := r.ledger.Get(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !canSee(who, b) {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

// ListMine returns the caller's bookings, newest day first.
func (r *Reservations) ListMine(ctx context.Context, who model.Identity) ([]model.Booking, error) {
	return r.ledger.ListByUser(ctx, who.UserID)
}

// ListForArea returns every booking of an area on one day.  Admin only.
func (r *Reservations) ListForArea(ctx context.Context, who model.Identity, areaID string, date time.Time) ([]model.Booking, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := r.areas.GetArea(ctx, areaID); err != nil {
		return nil, err
	}
	return r.ledger.BookingsFor(ctx, areaID, model.DayOf(date))
}

// Cancel releases a booking.  Residents may cancel their own bookings;
// admins may cancel any.  Cancelled or expired bookings yield
// repository.ErrInvalidTransition.
func (r *Reservations) Cancel(ctx context.Context, who model.Identity, id string) (model.Booking, error) {
	b, err := r.GetBooking(ctx, who, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status.Terminal() {
		return model.Booking{}, repository.ErrInvalidTransition
	}
	cancelled, err := r.ledger.Cancel(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	r.log.Info("booking cancelled", "booking_id", id, "by", who.UserID, "admin", who.IsAdmin())
	r.emit(ctx, model.EventBookingCancelled, cancelled, "")
	return cancelled, nil
}

// SettleDeposit records the deposit as paid and confirms a pending
// booking.  An empty paymentRef keeps the reference issued at creation.
func (r *Reservations) SettleDeposit(ctx context.Context, who model.Identity, id, paymentRef string) (model.Booking, error) {
	if !who.IsAdmin() {
		return model.Booking{}, ErrForbidden
	}
	var ref *string
	if s := strings.TrimSpace(paymentRef); s != "" {
		ref = &s
	}
	b, err := r.ledger.Get(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	// A pending booking past its hold is no longer settleable even if the
	// sweeper has not reached it yet.
	if b.Status == model.StatusPending && !b.Active(r.clock.Current(), r.policy.PendingTTL) {
		return model.Booking{}, repository.ErrInvalidTransition
	}
	confirmed, err := r.ledger.UpdateStatus(ctx, id, model.StatusConfirmed, ref)
	if err != nil {
		return model.Booking{}, err
	}
	r.log.Info("deposit settled", "booking_id", id, "by", who.UserID)
	r.emit(ctx, model.EventBookingConfirmed, confirmed, "")
	return confirmed, nil
}

// Range is an occupied slice of a day.
type Range struct {
	Start  model.ClockTime     `json:"start_time"`
	End    model.ClockTime     `json:"end_time"`
	Status model.BookingStatus `json:"status"`
}

// AvailabilityView is what a calendar needs to render one area and day.
type AvailabilityView struct {
	Area             model.Area `json:"area"`
	Date             string     `json:"date"`
	Bookable         bool       `json:"bookable"`
	WindowStart      string     `json:"window_start"`
	WindowEnd        string     `json:"window_end"`
	OpenTime         string     `json:"open_time"`
	CloseTime        string     `json:"close_time"`
	Occupied         []Range    `json:"occupied"`
	LegacyWindowDays int        `json:"legacy_window_days,omitempty"`
}

// Availability reports the window bounds, operating hours and occupied
// ranges of an area on date.  The area's CurrentBookings is set to the
// number of active bookings that day.
func (r *Reservations) Availability(ctx context.Context, areaID string, date time.Time) (AvailabilityView, error) {
	area, err := r.areas.GetArea(ctx, areaID)
	if err != nil {
		return AvailabilityView{}, err
	}
	day := model.DayOf(date)
	snap, err := r.ledger.Snapshot(ctx, areaID, day)
	if err != nil {
		return AvailabilityView{}, err
	}
	now := r.clock.Current()
	active := snap.Occupied(now, r.policy.PendingTTL)
	area.CurrentBookings = len(active)

	from, to := availability.WindowBounds(now, area.MaxAdvanceDays)
	view := AvailabilityView{
		Area:             area,
		Date:             day.Format(model.DateLayout),
		Bookable:         area.IsActive && availability.IsWithinBookingWindow(day, now, area.MaxAdvanceDays),
		WindowStart:      from.Format(model.DateLayout),
		WindowEnd:        to.Format(model.DateLayout),
		OpenTime:         area.OpenTime.String(),
		CloseTime:        area.CloseTime.String(),
		Occupied:         make([]Range, 0, len(active)),
		LegacyWindowDays: r.LegacyWindowDays,
	}
	for _, b := range active {
		view.Occupied = append(view.Occupied, Range{Start: b.StartTime, End: b.EndTime, Status: b.Status})
	}
	return view, nil
}
