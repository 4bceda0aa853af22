package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/repository"
)

var (
	resident = model.Identity{UserID: "res-1", Name: "Ana", Unit: "A-1", Role: model.RoleResident}
	neighbor = model.Identity{UserID: "res-2", Name: "Luis", Unit: "C-7", Role: model.RoleResident}
	admin    = model.Identity{UserID: "adm-1", Name: "Admin", Role: model.RoleAdmin}
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev model.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) kinds() []model.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.EventKind, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Kind
	}
	return out
}

type fixture struct {
	clock    *fakeClock
	store    *repository.MemoryStore
	notifier *recordingNotifier
	catalog  *Catalog
	flow     *Reservations
	asador   model.Area
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func intPtr(v int) *int { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryStore(clock.now)
	notifier := &recordingNotifier{}
	f := &fixture{
		clock:    clock,
		store:    store,
		notifier: notifier,
		catalog:  NewCatalog(store, quietLogger()),
	}
	f.flow = NewReservations(Deps{
		Areas:    store,
		Ledger:   store,
		Notifier: notifier,
		Policy:   availability.Policy{PendingTTL: 24 * time.Hour},
		Clock:    Clock{Now: clock.now, Location: time.UTC},
		Logger:   quietLogger(),
	})
	a, err := f.catalog.Create(context.Background(), admin, model.Area{
		Name:             "Asador 1",
		Type:             model.AreaCommon,
		Capacity:         10,
		DepositCents:     50000,
		OpenTime:         model.MustClock("08:00"),
		CloseTime:        model.MustClock("20:00"),
		MaxDurationHours: 5,
		MaxAdvanceDays:   7,
		MaxSimultaneous:  intPtr(1),
		IsActive:         true,
	})
	if err != nil {
		t.Fatalf("create area: %v", err)
	}
	f.asador = a
	return f
}

func (f *fixture) request(daysAhead int, start, end string, headcount int) model.ReservationRequest {
	return model.ReservationRequest{
		AreaID:        f.asador.ID,
		Date:          model.DayOf(f.clock.t).AddDate(0, 0, daysAhead),
		StartTime:     model.MustClock(start),
		EndTime:       model.MustClock(end),
		Headcount:     headcount,
		PaymentMethod: model.PaymentCard,
	}
}

func mustReserve(t *testing.T, f *fixture, who model.Identity, req model.ReservationRequest) model.Booking {
	t.Helper()
	out, err := f.flow.Reserve(context.Background(), who, req)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if out.Rejected() {
		t.Fatalf("reserve rejected: %s", out.Rejection.Reason)
	}
	return out.Booking
}
