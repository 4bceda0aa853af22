package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/community-reservations/internal/model"
)

// AreaRepo persists the amenity catalog in the `areas` table.  Clock
// times are stored as minutes since midnight.
type AreaRepo struct {
	db *sql.DB
}

// NewAreaRepo returns an AreaRepo bound to the given database.
func NewAreaRepo(db *sql.DB) *AreaRepo { return &AreaRepo{db: db} }

const areaColumns = `id, name, type, capacity, deposit_cents, open_minute, close_minute,
	max_duration_hours, max_advance_days, max_simultaneous, is_active, version, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArea(s rowScanner) (model.Area, error) {
	var (
		a         model.Area
		typ       string
		openMin   int
		closeMin  int
		maxSimult sql.NullInt32
	)
	err := s.Scan(&a.ID, &a.Name, &typ, &a.Capacity, &a.DepositCents, &openMin, &closeMin,
		&a.MaxDurationHours, &a.MaxAdvanceDays, &maxSimult, &a.IsActive, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Area{}, err
	}
	a.Type = model.AreaType(typ)
	a.OpenTime = model.ClockTime(openMin)
	a.CloseTime = model.ClockTime(closeMin)
	if maxSimult.Valid {
		v := int(maxSimult.Int32)
		a.MaxSimultaneous = &v
	}
	return a, nil
}

func nullableInt(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}

// ListAreas returns every area ordered by name, optionally filtered by type.
func (r *AreaRepo) ListAreas(ctx context.Context, typ *model.AreaType) ([]model.Area, error) {
	q := `SELECT ` + areaColumns + ` FROM areas`
	args := []any{}
	if typ != nil {
		q += ` WHERE type = ?`
		args = append(args, string(*typ))
	}
	q += ` ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Area, 0)
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetArea returns a single area or ErrNotFound.
func (r *AreaRepo) GetArea(ctx context.Context, id string) (model.Area, error) {
	a, err := scanArea(r.db.QueryRowContext(ctx, `SELECT `+areaColumns+` FROM areas WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Area{}, ErrNotFound
		}
		return model.Area{}, err
	}
	return a, nil
}

// CreateArea inserts a new area.  The ID is generated when empty and the
// stored row, including defaults, is read back into a.
func (r *AreaRepo) CreateArea(ctx context.Context, a *model.Area) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = `INSERT INTO areas (id, name, type, capacity, deposit_cents, open_minute, close_minute,
	                              max_duration_hours, max_advance_days, max_simultaneous, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		a.ID, a.Name, string(a.Type), a.Capacity, a.DepositCents, a.OpenTime.Minutes(), a.CloseTime.Minutes(),
		a.MaxDurationHours, a.MaxAdvanceDays, nullableInt(a.MaxSimultaneous), a.IsActive,
	); err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateName
		}
		return err
	}
	stored, err := r.GetArea(ctx, a.ID)
	if err != nil {
		return err
	}
	*a = stored
	return nil
}

// UpdateArea writes every editable column of a provided the stored version
// still equals expectedVersion, then returns the stored row.  A moved
// version yields ErrConcurrency; a missing row yields ErrNotFound.
func (r *AreaRepo) UpdateArea(ctx context.Context, a model.Area, expectedVersion uint32) (model.Area, error) {
	const q = `UPDATE areas
	           SET name = ?, type = ?, capacity = ?, deposit_cents = ?, open_minute = ?, close_minute = ?,
	               max_duration_hours = ?, max_advance_days = ?, max_simultaneous = ?, is_active = ?,
	               version = version + 1, updated_at = ?
	           WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q,
		a.Name, string(a.Type), a.Capacity, a.DepositCents, a.OpenTime.Minutes(), a.CloseTime.Minutes(),
		a.MaxDurationHours, a.MaxAdvanceDays, nullableInt(a.MaxSimultaneous), a.IsActive,
		time.Now().UTC(), a.ID, expectedVersion,
	)
	if isDuplicateEntry(err) {
		return model.Area{}, ErrDuplicateName
	}
	if err != nil {
		return model.Area{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the row is gone or somebody else bumped the version.
		if _, err := r.GetArea(ctx, a.ID); err != nil {
			return model.Area{}, err
		}
		return model.Area{}, ErrConcurrency
	}
	return r.GetArea(ctx, a.ID)
}
