package model

import "time"

// AreaType distinguishes amenities shared by the whole community from
// those assigned to a private section.
type AreaType string

const (
	AreaCommon  AreaType = "common"
	AreaPrivate AreaType = "private"
)

// Valid reports whether t is a known area type.
func (t AreaType) Valid() bool {
	return t == AreaCommon || t == AreaPrivate
}

// Area is a bookable amenity such as a grill station, the pool or the
// events hall.  It corresponds to a row in the `areas` table.
//
// Fields:
//  MaxSimultaneous – how many active bookings may overlap at any instant
//                    on one date; nil means unlimited independent use.
//  CurrentBookings – derived occupancy for the range being queried; it is
//                    never persisted.
//  Version         – optimistic concurrency token bumped by every catalog
//                    edit and every ledger mutation on the area.
type Area struct {
	ID               string    `json:"id"`
	Name             string    `json:"name" validate:"required,max=120"`
	Type             AreaType  `json:"type" validate:"oneof=common private"`
	Capacity         int       `json:"capacity" validate:"min=1"`
	DepositCents     int64     `json:"deposit_cents" validate:"min=0"`
	OpenTime         ClockTime `json:"open_time" validate:"gte=0,lte=1440"`
	CloseTime        ClockTime `json:"close_time" validate:"gte=0,lte=1440"`
	MaxDurationHours int       `json:"max_duration_hours" validate:"min=1"`
	MaxAdvanceDays   int       `json:"max_advance_days" validate:"min=1"`
	MaxSimultaneous  *int      `json:"max_simultaneous" validate:"omitempty,min=1"`
	CurrentBookings  int       `json:"current_bookings"`
	IsActive         bool      `json:"is_active"`
	Version          uint32    `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AreaPatch carries a partial admin edit.  Nil fields are left untouched.
// ClearMaxSimultaneous removes the simultaneous-booking ceiling.
type AreaPatch struct {
	Name                 *string    `json:"name" validate:"omitempty,min=1,max=120"`
	Type                 *AreaType  `json:"type" validate:"omitempty,oneof=common private"`
	Capacity             *int       `json:"capacity" validate:"omitempty,min=1"`
	DepositCents         *int64     `json:"deposit_cents" validate:"omitempty,min=0"`
	OpenTime             *ClockTime `json:"open_time" validate:"omitempty,gte=0,lte=1440"`
	CloseTime            *ClockTime `json:"close_time" validate:"omitempty,gte=0,lte=1440"`
	MaxDurationHours     *int       `json:"max_duration_hours" validate:"omitempty,min=1"`
	MaxAdvanceDays       *int       `json:"max_advance_days" validate:"omitempty,min=1"`
	MaxSimultaneous      *int       `json:"max_simultaneous" validate:"omitempty,min=1"`
	ClearMaxSimultaneous bool       `json:"clear_max_simultaneous"`
	IsActive             *bool      `json:"is_active"`
}

// Apply returns a copy of a with the patch applied.  It does not validate.
func (p AreaPatch) Apply(a Area) Area {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Capacity != nil {
		a.Capacity = *p.Capacity
	}
	if p.DepositCents != nil {
		a.DepositCents = *p.DepositCents
	}
	if p.OpenTime != nil {
		a.OpenTime = *p.OpenTime
	}
	if p.CloseTime != nil {
		a.CloseTime = *p.CloseTime
	}
	if p.MaxDurationHours != nil {
		a.MaxDurationHours = *p.MaxDurationHours
	}
	if p.MaxAdvanceDays != nil {
		a.MaxAdvanceDays = *p.MaxAdvanceDays
	}
	if p.ClearMaxSimultaneous {
		a.MaxSimultaneous = nil
	} else if p.MaxSimultaneous != nil {
		v := *p.MaxSimultaneous
		a.MaxSimultaneous = &v
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	return a
}
