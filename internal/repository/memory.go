package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/model"
)

// MemoryStore keeps the catalog and the ledger in process memory.  It
// honours the same version and transition rules as the MySQL adapters and
// backs tests and STORE=memory local runs.
type MemoryStore struct {
	mu       sync.Mutex
	areas    map[string]model.Area
	bookings map[string]model.Booking
	order    []string // booking ids in append order
	now      func() time.Time
}

// NewMemoryStore returns an empty store.  now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		areas:    make(map[string]model.Area),
		bookings: make(map[string]model.Booking),
		now:      now,
	}
}

func copyArea(a model.Area) model.Area {
	if a.MaxSimultaneous != nil {
		v := *a.MaxSimultaneous
		a.MaxSimultaneous = &v
	}
	return a
}

func copyBooking(b model.Booking) model.Booking {
	if b.PaymentRef != nil {
		v := *b.PaymentRef
		b.PaymentRef = &v
	}
	return b
}

func (s *MemoryStore) ListAreas(_ context.Context, typ *model.AreaType) ([]model.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Area, 0, len(s.areas))
	for _, a := range s.areas {
		if typ != nil && a.Type != *typ {
			continue
		}
		out = append(out, copyArea(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetArea(_ context.Context, id string) (model.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.areas[id]
	if !ok {
		return model.Area{}, ErrNotFound
	}
	return copyArea(a), nil
}

func (s *MemoryStore) CreateArea(_ context.Context, a *model.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTakenLocked(a.Name, "") {
		return ErrDuplicateName
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := s.now().UTC()
	a.Version = 1
	a.CreatedAt, a.UpdatedAt = now, now
	s.areas[a.ID] = copyArea(*a)
	return nil
}

func (s *MemoryStore) UpdateArea(_ context.Context, a model.Area, expectedVersion uint32) (model.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.areas[a.ID]
	if !ok {
		return model.Area{}, ErrNotFound
	}
	if cur.Version != expectedVersion {
		return model.Area{}, ErrConcurrency
	}
	if s.nameTakenLocked(a.Name, a.ID) {
		return model.Area{}, ErrDuplicateName
	}
	a.Version = cur.Version + 1
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = s.now().UTC()
	a.CurrentBookings = 0
	s.areas[a.ID] = copyArea(a)
	return copyArea(a), nil
}

func (s *MemoryStore) nameTakenLocked(name, exceptID string) bool {
	for id, a := range s.areas {
		if id != exceptID && strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) bookingsForLocked(areaID string, date time.Time) []model.Booking {
	day := model.DayOf(date)
	out := make([]model.Booking, 0)
	for _, id := range s.order {
		b := s.bookings[id]
		if b.AreaID == areaID && b.Date.Equal(day) {
			out = append(out, copyBooking(b))
		}
	}
	return out
}

func (s *MemoryStore) BookingsFor(_ context.Context, areaID string, date time.Time) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookingsForLocked(areaID, date), nil
}

func (s *MemoryStore) Snapshot(_ context.Context, areaID string, date time.Time) (availability.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.areas[areaID]
	if !ok {
		return availability.Snapshot{}, ErrNotFound
	}
	return availability.Snapshot{
		AreaID:   areaID,
		Date:     model.DayOf(date),
		Version:  a.Version,
		Bookings: s.bookingsForLocked(areaID, date),
	}, nil
}

func (s *MemoryStore) bumpLocked(areaID string) {
	a := s.areas[areaID]
	a.Version++
	s.areas[areaID] = a
}

func (s *MemoryStore) Append(_ context.Context, b model.Booking, expectedVersion uint32) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.areas[b.AreaID]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	if a.Version != expectedVersion {
		return model.Booking{}, ErrConcurrency
	}
	b.IdempotencyKey = strings.TrimSpace(b.IdempotencyKey)
	if b.IdempotencyKey != "" {
		for _, other := range s.bookings {
			if other.RequestedBy == b.RequestedBy && other.IdempotencyKey == b.IdempotencyKey {
				return model.Booking{}, ErrDuplicateKey
			}
		}
	}
	now := s.now().UTC()
	b.ID = uuid.NewString()
	b.Date = model.DayOf(b.Date)
	b.Status = model.StatusPending
	b.CreatedAt, b.UpdatedAt = now, now
	s.bookings[b.ID] = copyBooking(b)
	s.order = append(s.order, b.ID)
	s.bumpLocked(b.AreaID)
	return copyBooking(b), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return copyBooking(b), nil
}

func (s *MemoryStore) updateStatusLocked(id string, status model.BookingStatus, paymentRef *string) (model.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	if !b.Status.CanTransition(status) {
		return model.Booking{}, ErrInvalidTransition
	}
	b.Status = status
	if paymentRef != nil {
		ref := *paymentRef
		b.PaymentRef = &ref
	}
	b.UpdatedAt = s.now().UTC()
	s.bookings[id] = b
	s.bumpLocked(b.AreaID)
	return copyBooking(b), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.BookingStatus, paymentRef *string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateStatusLocked(id, status, paymentRef)
}

func (s *MemoryStore) Cancel(ctx context.Context, id string) (model.Booking, error) {
	return s.UpdateStatus(ctx, id, model.StatusCancelled, nil)
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, id := range s.order {
		if b := s.bookings[id]; b.RequestedBy == userID {
			out = append(out, copyBooking(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StartTime > out[j].StartTime
	})
	return out, nil
}

func (s *MemoryStore) FindByIdempotencyKey(_ context.Context, userID, key string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.RequestedBy == userID && b.IdempotencyKey == key {
			return copyBooking(b), nil
		}
	}
	return model.Booking{}, ErrNotFound
}

func (s *MemoryStore) ExpirePending(_ context.Context, cutoff time.Time) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := make([]model.Booking, 0)
	for _, id := range s.order {
		b := s.bookings[id]
		if b.Status != model.StatusPending || !b.CreatedAt.Before(cutoff) {
			continue
		}
		updated, err := s.updateStatusLocked(id, model.StatusExpired, nil)
		if err != nil {
			return expired, err
		}
		expired = append(expired, updated)
	}
	return expired, nil
}
