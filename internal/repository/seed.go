package repository

import (
	"context"

	"github.com/iliyamo/community-reservations/internal/model"
)

// DefaultAreas are the amenities a fresh community starts with.  The MySQL
// schema seeds the same rows.  The grill stations are booked independently
// and carry no simultaneous ceiling; the events hall is exclusive.
func DefaultAreas() []model.Area {
	one := 1
	return []model.Area{
		{Name: "Asador 1", Type: model.AreaCommon, Capacity: 10, DepositCents: 50000,
			OpenTime: model.MustClock("08:00"), CloseTime: model.MustClock("20:00"),
			MaxDurationHours: 5, MaxAdvanceDays: 7, IsActive: true},
		{Name: "Asador 2", Type: model.AreaCommon, Capacity: 10, DepositCents: 50000,
			OpenTime: model.MustClock("08:00"), CloseTime: model.MustClock("20:00"),
			MaxDurationHours: 5, MaxAdvanceDays: 7, IsActive: true},
		{Name: "Alberca", Type: model.AreaCommon, Capacity: 30,
			OpenTime: model.MustClock("09:00"), CloseTime: model.MustClock("21:00"),
			MaxDurationHours: 3, MaxAdvanceDays: 7, IsActive: true},
		{Name: "Salón", Type: model.AreaPrivate, Capacity: 60, DepositCents: 150000,
			OpenTime: model.MustClock("10:00"), CloseTime: model.MustClock("23:00"),
			MaxDurationHours: 6, MaxAdvanceDays: 30, MaxSimultaneous: &one, IsActive: true},
	}
}

// Seed stores the given areas in an empty memory store.
func (s *MemoryStore) Seed(ctx context.Context, areas []model.Area) error {
	for i := range areas {
		if err := s.CreateArea(ctx, &areas[i]); err != nil {
			return err
		}
	}
	return nil
}
