package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/repository"
	"github.com/iliyamo/community-reservations/internal/validation"
)

// Reservations runs the reservation flow and the booking lifecycle.
type Reservations struct {
	areas    AreaStore
	ledger   BookingLedger
	payments PaymentGateway
	notifier Notifier
	policy   availability.Policy
	clock    Clock
	log      *slog.Logger

	// LegacyWindowDays is reported by the availability view for clients
	// that still show the fixed community-wide window.  It never decides
	// whether a request is accepted.
	LegacyWindowDays int
}

// Deps groups the collaborators of Reservations.
type Deps struct {
	Areas    AreaStore
	Ledger   BookingLedger
	Payments PaymentGateway
	Notifier Notifier
	Policy   availability.Policy
	Clock    Clock
	Logger   *slog.Logger
}

// NewReservations wires the flow.  Nil collaborators fall back to the
// offline gateway, a no-op notifier and the default logger.
func NewReservations(d Deps) *Reservations {
	r := &Reservations{
		areas:    d.Areas,
		ledger:   d.Ledger,
		payments: d.Payments,
		notifier: d.Notifier,
		policy:   d.Policy,
		clock:    d.Clock,
		log:      d.Logger,
	}
	if r.payments == nil {
		r.payments = OfflineGateway{}
	}
	if r.notifier == nil {
		r.notifier = NopNotifier{}
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Outcome is the result of a reservation attempt.  Exactly one of Booking
// or Rejection is meaningful.
type Outcome struct {
	Booking    model.Booking
	PaymentRef string
	Replayed   bool
	Rejection  *availability.Rejection
}

// Rejected reports whether the attempt was refused by the policy.
func (o Outcome) Rejected() bool { return o.Rejection != nil }

func checkShape(req model.ReservationRequest) error {
	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Reserve validates req against the area and the current ledger and, when
// acceptable, appends a pending booking for who.  A policy refusal is
// returned as an Outcome with Rejection set and a nil error.
func (r *Reservations) Reserve(ctx context.Context, who model.Identity, req model.ReservationRequest) (Outcome, error) {
	if err := checkShape(req); err != nil {
		return Outcome{}, err
	}
	req.Date = model.DayOf(req.Date)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	if req.IdempotencyKey != "" {
		if out, ok, err := r.replay(ctx, who, req); ok || err != nil {
			return out, err
		}
	}

	out, err := r.attempt(ctx, who, req)
	if errors.Is(err, repository.ErrConcurrency) {
		r.log.Debug("reservation raced, retrying", "area_id", req.AreaID, "date", req.Date.Format(model.DateLayout))
		out, err = r.attempt(ctx, who, req)
	}
	if errors.Is(err, repository.ErrDuplicateKey) {
		// A concurrent request with the same key won the insert.
		if out, ok, rerr := r.replay(ctx, who, req); ok || rerr != nil {
			return out, rerr
		}
	}
	return out, err
}

// replay looks up a booking already created under req's idempotency key.
func (r *Reservations) replay(ctx context.Context, who model.Identity, req model.ReservationRequest) (Outcome, bool, error) {
	prev, err := r.ledger.FindByIdempotencyKey(ctx, who.UserID, req.IdempotencyKey)
	if errors.Is(err, repository.ErrNotFound) {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, err
	}
	if !req.SameAs(prev) {
		return Outcome{}, false, ErrIdempotencyConflict
	}
	out := Outcome{Booking: prev, Replayed: true}
	if prev.PaymentRef != nil {
		out.PaymentRef = *prev.PaymentRef
	}
	return out, true, nil
}

func (r *Reservations) attempt(ctx context.Context, who model.Identity, req model.ReservationRequest) (Outcome, error) {
	area, err := r.areas.GetArea(ctx, req.AreaID)
	if err != nil {
		return Outcome{}, err
	}
	snap, err := r.ledger.Snapshot(ctx, area.ID, req.Date)
	if err != nil {
		return Outcome{}, err
	}

	if err := r.policy.Validate(req, area, snap, r.clock.Current()); err != nil {
		var rej *availability.Rejection
		if errors.As(err, &rej) {
			r.log.Info("reservation rejected", "area_id", area.ID, "user_id", who.UserID, "reason", rej.Reason)
			return Outcome{Rejection: rej}, nil
		}
		return Outcome{}, err
	}

	b := model.Booking{
		AreaID:         area.ID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Headcount:      req.Headcount,
		DepositCents:   area.DepositCents,
		PaymentMethod:  req.PaymentMethod,
		RequestedBy:    who.UserID,
		RequesterName:  who.Name,
		Unit:           who.Unit,
		IdempotencyKey: req.IdempotencyKey,
	}
	var ref string
	if b.DepositCents > 0 {
		ref, err = r.payments.RequestDeposit(ctx, b)
		if err != nil {
			return Outcome{}, fmt.Errorf("request deposit: %w", err)
		}
		b.PaymentRef = &ref
	}

	stored, err := r.ledger.Append(ctx, b, snap.Version)
	if err != nil {
		return Outcome{}, err
	}
	r.log.Info("booking created", "booking_id", stored.ID, "area_id", area.ID, "user_id", who.UserID,
		"date", stored.DateString(), "start", stored.StartTime.String(), "end", stored.EndTime.String())
	r.emit(ctx, model.EventBookingCreated, stored, area.Name)
	return Outcome{Booking: stored, PaymentRef: ref}, nil
}

// emit publishes ev and only logs delivery failures.
func (r *Reservations) emit(ctx context.Context, kind model.EventKind, b model.Booking, areaName string) {
	if areaName == "" {
		if a, err := r.areas.GetArea(ctx, b.AreaID); err == nil {
			areaName = a.Name
		}
	}
	ev := model.BookingEvent{Kind: kind, Booking: b, AreaName: areaName, OccurredAt: r.clock.Current().UTC()}
	if err := r.notifier.Notify(ctx, ev); err != nil {
		r.log.Warn("notify failed", "event", kind, "booking_id", b.ID, "err", err)
	}
}
