package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/query"
)

// BookingRepo persists bookings.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingCols = "id, tour_id, user_id, reference, price, paid, created_at, updated_at"

func scanBooking(sc interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	err := sc.Scan(&b.ID, &b.TourID, &b.UserID, &b.Reference, &b.Price, &b.Paid,
		&b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	return b, err
}

// BookingInput is the create/update payload for a booking. Reference
// is assigned by the checkout flow, not by clients.
type BookingInput struct {
	TourID    uint64  `json:"tourId"`
	UserID    uint64  `json:"userId"`
	Price     float64 `json:"price"`
	Paid      *bool   `json:"paid"`
	Reference string  `json:"-"`
}

func (p BookingInput) Validate() []string {
	var v []string
	if p.TourID == 0 {
		v = append(v, "booking must belong to a tour")
	}
	if p.UserID == 0 {
		v = append(v, "booking must belong to a user")
	}
	if p.Price <= 0 {
		v = append(v, "booking must have a price")
	}
	return v
}

func (p BookingInput) ValidatePartial() []string { return nil }

// Create inserts a booking and returns the stored row.
func (r *BookingRepo) Create(ctx context.Context, p BookingInput) (model.Booking, error) {
	paid := p.Paid != nil && *p.Paid
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (tour_id, user_id, reference, price, paid) VALUES (?,?,?,?,?)",
		p.TourID, p.UserID, p.Reference, p.Price, paid)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Booking{}, ErrDuplicate
		}
		return model.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	return r.Get(ctx, uint64(id))
}

// Get fetches one booking.
func (r *BookingRepo) Get(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=? LIMIT 1", id))
}

// List returns bookings matching the spec plus the total match count.
func (r *BookingRepo) List(ctx context.Context, spec query.Spec) ([]model.Booking, int64, error) {
	cl := query.Build(spec, BookingSchema)

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE "+cl.Where, cl.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlStr := "SELECT " + bookingCols + " FROM bookings WHERE " + cl.Where
	if cl.Order != "" {
		sqlStr += " " + cl.Order
	}
	sqlStr += " LIMIT ? OFFSET ?"
	args := append(append([]any{}, cl.Args...), cl.Limit, cl.Offset)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0, cl.Limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// ListByUser returns all bookings of one user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update applies a partial update and returns the fresh row.
func (r *BookingRepo) Update(ctx context.Context, id uint64, p BookingInput) (model.Booking, error) {
	set := []string{}
	args := []any{}
	if p.Price > 0 {
		set = append(set, "price=?")
		args = append(args, p.Price)
	}
	if p.Paid != nil {
		set = append(set, "paid=?")
		args = append(args, *p.Paid)
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		return model.Booking{}, err
	}
	return r.Get(ctx, id)
}

// Delete removes a booking permanently.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
