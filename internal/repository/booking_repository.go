package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key clash.
const mysqlDuplicateEntry = 1062

// BookingRepo is the MySQL booking ledger.  Every mutation runs in a
// transaction that locks the owning area row and bumps its version, so a
// snapshot taken at version v is only appendable while the area is still
// at v.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, area_id, booking_date, start_minute, end_minute, headcount, deposit_cents,
	payment_method, payment_ref, status, requested_by, requester_name, unit, idempotency_key, created_at, updated_at`

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b        model.Booking
		startMin int
		endMin   int
		method   string
		status   string
		payRef   sql.NullString
		idemKey  sql.NullString
	)
	err := s.Scan(&b.ID, &b.AreaID, &b.Date, &startMin, &endMin, &b.Headcount, &b.DepositCents,
		&method, &payRef, &status, &b.RequestedBy, &b.RequesterName, &b.Unit, &idemKey, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.Date = model.DayOf(b.Date)
	b.StartTime = model.ClockTime(startMin)
	b.EndTime = model.ClockTime(endMin)
	b.PaymentMethod = model.PaymentMethod(method)
	b.Status = model.BookingStatus(status)
	if payRef.Valid {
		ref := payRef.String
		b.PaymentRef = &ref
	}
	if idemKey.Valid {
		b.IdempotencyKey = idemKey.String
	}
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingsFor returns every booking of an area on a date in creation order,
// regardless of status.
func (r *BookingRepo) BookingsFor(ctx context.Context, areaID string, date time.Time) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE area_id = ? AND booking_date = ? ORDER BY created_at, id`,
		areaID, date.Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// Snapshot reads the area version and the bookings of the date in one
// read-only transaction so both reflect the same instant.
func (r *BookingRepo) Snapshot(ctx context.Context, areaID string, date time.Time) (availability.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return availability.Snapshot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	snap := availability.Snapshot{AreaID: areaID, Date: model.DayOf(date)}
	if err := tx.QueryRowContext(ctx, `SELECT version FROM areas WHERE id = ?`, areaID).Scan(&snap.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return availability.Snapshot{}, ErrNotFound
		}
		return availability.Snapshot{}, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE area_id = ? AND booking_date = ? ORDER BY created_at, id`,
		areaID, date.Format(model.DateLayout))
	if err != nil {
		return availability.Snapshot{}, err
	}
	if snap.Bookings, err = collectBookings(rows); err != nil {
		return availability.Snapshot{}, err
	}
	return snap, tx.Commit()
}

// lockAreaTx locks the area row and returns its current version.
func lockAreaTx(ctx context.Context, tx *sql.Tx, areaID string) (uint32, error) {
	var version uint32
	err := tx.QueryRowContext(ctx, `SELECT version FROM areas WHERE id = ? FOR UPDATE`, areaID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return version, err
}

func bumpAreaTx(ctx context.Context, tx *sql.Tx, areaID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE areas SET version = version + 1 WHERE id = ?`, areaID)
	return err
}

func getBookingTx(ctx context.Context, tx *sql.Tx, id string, forUpdate bool) (model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// Append stores b as a new pending booking if the area is still at
// expectedVersion.  It assigns the id and timestamps and returns the
// stored booking.
func (r *BookingRepo) Append(ctx context.Context, b model.Booking, expectedVersion uint32) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	version, err := lockAreaTx(ctx, tx, b.AreaID)
	if err != nil {
		return model.Booking{}, err
	}
	if version != expectedVersion {
		return model.Booking{}, ErrConcurrency
	}

	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.Status = model.StatusPending
	b.CreatedAt, b.UpdatedAt = now, now
	var idemKey sql.NullString
	if k := strings.TrimSpace(b.IdempotencyKey); k != "" {
		idemKey = sql.NullString{String: k, Valid: true}
	}
	var payRef sql.NullString
	if b.PaymentRef != nil {
		payRef = sql.NullString{String: *b.PaymentRef, Valid: true}
	}
	const q = `INSERT INTO bookings (id, area_id, booking_date, start_minute, end_minute, headcount, deposit_cents,
	                                 payment_method, payment_ref, status, requested_by, requester_name, unit,
	                                 idempotency_key, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		b.ID, b.AreaID, b.DateString(), b.StartTime.Minutes(), b.EndTime.Minutes(), b.Headcount, b.DepositCents,
		string(b.PaymentMethod), payRef, string(b.Status), b.RequestedBy, b.RequesterName, b.Unit,
		idemKey, b.CreatedAt, b.UpdatedAt,
	); err != nil {
		if isDuplicateEntry(err) {
			return model.Booking{}, ErrDuplicateKey
		}
		return model.Booking{}, err
	}
	if err := bumpAreaTx(ctx, tx, b.AreaID); err != nil {
		return model.Booking{}, err
	}
	stored, err := getBookingTx(ctx, tx, b.ID, false)
	if err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	return stored, nil
}

// Get returns a booking by id or ErrNotFound.
func (r *BookingRepo) Get(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// UpdateStatus moves a booking to status, optionally recording a payment
// reference.  Disallowed transitions yield ErrInvalidTransition.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus, paymentRef *string) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Peek at the area first so the area lock is always taken before the
	// booking lock, the same order Append uses.
	var areaID string
	if err := tx.QueryRowContext(ctx, `SELECT area_id FROM bookings WHERE id = ?`, id).Scan(&areaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, err
	}
	if _, err := lockAreaTx(ctx, tx, areaID); err != nil {
		return model.Booking{}, err
	}
	cur, err := getBookingTx(ctx, tx, id, true)
	if err != nil {
		return model.Booking{}, err
	}
	if !cur.Status.CanTransition(status) {
		return model.Booking{}, ErrInvalidTransition
	}
	now := time.Now().UTC()
	if paymentRef != nil {
		_, err = tx.ExecContext(ctx, `UPDATE bookings SET status = ?, payment_ref = ?, updated_at = ? WHERE id = ?`,
			string(status), *paymentRef, now, id)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return model.Booking{}, err
	}
	if err := bumpAreaTx(ctx, tx, areaID); err != nil {
		return model.Booking{}, err
	}
	updated, err := getBookingTx(ctx, tx, id, false)
	if err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	return updated, nil
}

// Cancel moves a booking to cancelled.
func (r *BookingRepo) Cancel(ctx context.Context, id string) (model.Booking, error) {
	return r.UpdateStatus(ctx, id, model.StatusCancelled, nil)
}

// ListByUser returns a requester's bookings, newest day first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE requested_by = ? ORDER BY booking_date DESC, start_minute DESC, created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// FindByIdempotencyKey returns the booking a requester created with key,
// or ErrNotFound.
func (r *BookingRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE requested_by = ? AND idempotency_key = ?`, userID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// ExpirePending marks every pending booking created before cutoff as
// expired and returns the bookings that changed.
func (r *BookingRepo) ExpirePending(ctx context.Context, cutoff time.Time) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM bookings WHERE status = ? AND created_at < ? ORDER BY created_at`,
		string(model.StatusPending), cutoff.UTC())
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	expired := make([]model.Booking, 0, len(ids))
	for _, id := range ids {
		b, err := r.UpdateStatus(ctx, id, model.StatusExpired, nil)
		if err != nil {
			// Settled or cancelled since the scan.
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
				continue
			}
			return expired, err
		}
		expired = append(expired, b)
	}
	return expired, nil
}
