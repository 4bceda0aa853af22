// Package availability decides whether a reservation request can be
// accepted for an area given the bookings already on the ledger.  Every
// function here is pure; callers supply the clock and the ledger snapshot.
package availability

import (
	"cmp"
	"slices"
	"time"

	"github.com/iliyamo/community-reservations/internal/model"
)

// Reason identifies why a request was rejected.  The values are stable
// wire codes; the presentation layer localizes them.
type Reason string

const (
	ReasonAreaInactive          Reason = "area_inactive"
	ReasonOutsideBookingWindow  Reason = "outside_booking_window"
	ReasonOutsideOperatingHours Reason = "outside_operating_hours"
	ReasonExceedsMaxDuration    Reason = "exceeds_max_duration"
	ReasonExceedsCapacity       Reason = "exceeds_capacity"
	ReasonNoSimultaneousSlot    Reason = "no_simultaneous_slot"
)

// Reasons lists every rejection reason in evaluation order.
var Reasons = []Reason{
	ReasonAreaInactive,
	ReasonOutsideBookingWindow,
	ReasonOutsideOperatingHours,
	ReasonExceedsMaxDuration,
	ReasonExceedsCapacity,
	ReasonNoSimultaneousSlot,
}

// Rejection is the error returned by Validate.  Use errors.As to recover
// the reason.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string { return "reservation rejected: " + string(r.Reason) }

func reject(r Reason) error { return &Rejection{Reason: r} }

// Snapshot is the ledger state for one area and date at a given area
// version.  The version is handed back to the ledger on append so that a
// concurrent change is detected instead of overbooking.
type Snapshot struct {
	AreaID   string
	Date     time.Time
	Version  uint32
	Bookings []model.Booking
}

// Occupancy returns the largest number of bookings active at now that
// run at the same instant inside [start, end).  Bookings that only touch
// the range at an endpoint do not count.
func (s Snapshot) Occupancy(start, end model.ClockTime, now time.Time, pendingTTL time.Duration) int {
	type edge struct {
		at    model.ClockTime
		delta int
	}
	var edges []edge
	for _, b := range s.Bookings {
		if !b.Active(now, pendingTTL) || !b.Overlaps(start, end) {
			continue
		}
		edges = append(edges, edge{max(b.StartTime, start), 1}, edge{min(b.EndTime, end), -1})
	}
	// ends sort before starts at the same minute; ranges are half-open
	slices.SortFunc(edges, func(a, b edge) int {
		if a.at != b.at {
			return cmp.Compare(a.at, b.at)
		}
		return cmp.Compare(a.delta, b.delta)
	})
	peak, running := 0, 0
	for _, e := range edges {
		running += e.delta
		peak = max(peak, running)
	}
	return peak
}

// Occupied returns the active bookings of the snapshot, in ledger order.
func (s Snapshot) Occupied(now time.Time, pendingTTL time.Duration) []model.Booking {
	out := make([]model.Booking, 0, len(s.Bookings))
	for _, b := range s.Bookings {
		if b.Active(now, pendingTTL) {
			out = append(out, b)
		}
	}
	return out
}

// IsWithinBookingWindow reports whether today ≤ date ≤ today+maxAdvanceDays.
// Both dates are compared as calendar days.
func IsWithinBookingWindow(date, today time.Time, maxAdvanceDays int) bool {
	d, t := model.DayOf(date), model.DayOf(today)
	if d.Before(t) {
		return false
	}
	return !d.After(t.AddDate(0, 0, maxAdvanceDays))
}

// WindowBounds returns the first and last bookable day.
func WindowBounds(today time.Time, maxAdvanceDays int) (time.Time, time.Time) {
	t := model.DayOf(today)
	return t, t.AddDate(0, 0, maxAdvanceDays)
}

// FitsOperatingHours reports whether open ≤ start < end ≤ close.
func FitsOperatingHours(start, end, opens, closes model.ClockTime) bool {
	return start < end && start >= opens && end <= closes
}

// WithinMaxDuration reports whether the range lasts at most maxHours.
func WithinMaxDuration(start, end model.ClockTime, maxHours int) bool {
	return end.Minutes()-start.Minutes() <= maxHours*60
}

// HasCapacity reports whether headcount fits the area.
func HasCapacity(headcount int, area model.Area) bool {
	return headcount <= area.Capacity
}

// HasSimultaneousSlot reports whether one more booking fits next to the
// current ones.  Areas without a ceiling always have a slot.
func HasSimultaneousSlot(area model.Area, current int) bool {
	if area.MaxSimultaneous == nil {
		return true
	}
	return current < *area.MaxSimultaneous
}

// Policy bundles the ledger-wide settings the checks depend on.
type Policy struct {
	// PendingTTL is how long an unpaid booking holds its slot.  Zero keeps
	// pending bookings forever.
	PendingTTL time.Duration
}

// Validate runs every check against req in a fixed order and returns the
// first failure as a *Rejection, or nil when the request is acceptable.
// now must be expressed in the community's time zone; it provides both
// "today" and, for same-day requests, the earliest admissible start.
func (p Policy) Validate(req model.ReservationRequest, area model.Area, snap Snapshot, now time.Time) error {
	if !area.IsActive {
		return reject(ReasonAreaInactive)
	}
	if !IsWithinBookingWindow(req.Date, now, area.MaxAdvanceDays) {
		return reject(ReasonOutsideBookingWindow)
	}
	if model.DayOf(req.Date).Equal(model.DayOf(now)) && req.StartTime < model.ClockOf(now) {
		return reject(ReasonOutsideBookingWindow)
	}
	if !FitsOperatingHours(req.StartTime, req.EndTime, area.OpenTime, area.CloseTime) {
		return reject(ReasonOutsideOperatingHours)
	}
	if !WithinMaxDuration(req.StartTime, req.EndTime, area.MaxDurationHours) {
		return reject(ReasonExceedsMaxDuration)
	}
	if !HasCapacity(req.Headcount, area) {
		return reject(ReasonExceedsCapacity)
	}
	if !HasSimultaneousSlot(area, snap.Occupancy(req.StartTime, req.EndTime, now, p.PendingTTL)) {
		return reject(ReasonNoSimultaneousSlot)
	}
	return nil
}
