package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/jackc/pgx/v5"
	"gopkg.in/guregu/null.v4"
)

const bookingColumns = `id, spot_id, lot_id, user_id, entry_time, exit_time, vehicle_number, vehicle_brand, vehicle_model, cost_cents`

type PGBookingRepository struct {
	db Querier
}

func NewBookingRepository(db Querier) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (spot_id, lot_id, user_id, entry_time, vehicle_number, vehicle_brand, vehicle_model, cost_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		booking.SpotID, booking.LotID, booking.UserID, booking.EntryTime,
		booking.Vehicle.Number, booking.Vehicle.Brand, booking.Vehicle.Model, booking.ProvisionalCostCents).
		Scan(&booking.ID)
	return mapError("create booking", err)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, mapLookupError("get booking", err, domain.ErrBookingNotFound)
	}
	return b, nil
}

func (r *PGBookingRepository) Close(ctx context.Context, id int64, exit time.Time, costCents int64) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET exit_time=$2, cost_cents=$3 WHERE id=$1 AND exit_time IS NULL`, id, exit, costCents)
	if err != nil {
		return false, mapError("close booking", err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGBookingRepository) ActiveBySpot(ctx context.Context, spotID int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE spot_id=$1 AND exit_time IS NULL`, spotID))
	if err != nil {
		return nil, mapLookupError("get active booking", err, domain.ErrBookingNotFound)
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, "user_id=$"+strconv.Itoa(len(args)))
	}
	if filter.SpotID != nil {
		args = append(args, *filter.SpotID)
		where = append(where, "spot_id=$"+strconv.Itoa(len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "exit_time IS NULL")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY entry_time DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError("scan booking", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, mapError("list bookings", rows.Err())
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b    domain.Booking
		exit null.Time
		cost int64
	)
	if err := row.Scan(&b.ID, &b.SpotID, &b.LotID, &b.UserID, &b.EntryTime, &exit,
		&b.Vehicle.Number, &b.Vehicle.Brand, &b.Vehicle.Model, &cost); err != nil {
		return nil, err
	}
	if exit.Valid {
		b.Close(exit.Time, cost)
	} else {
		b.ProvisionalCostCents = cost
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
