package repository

import (
	"context"

	"github.com/Domenick1991/parking/internal/domain"
)

const lotColumns = `id, prime_location, address, pincode, price_per_hour_cents, max_spots, revenue_cents, created_at, updated_at`

type PGLotRepository struct {
	db Querier
}

func NewLotRepository(db Querier) LotRepository {
	return &PGLotRepository{db: db}
}

func (r *PGLotRepository) List(ctx context.Context) ([]domain.ParkingLot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+lotColumns+` FROM parking_lots ORDER BY id`)
	if err != nil {
		return nil, mapError("list lots", err)
	}
	defer rows.Close()

	lots := make([]domain.ParkingLot, 0)
	for rows.Next() {
		var l domain.ParkingLot
		if err := rows.Scan(&l.ID, &l.PrimeLocation, &l.Address, &l.Pincode, &l.PricePerHourCents, &l.MaxSpots, &l.RevenueCents, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, mapError("scan lot", err)
		}
		lots = append(lots, l)
	}
	return lots, mapError("list lots", rows.Err())
}

func (r *PGLotRepository) GetByID(ctx context.Context, id int64) (*domain.ParkingLot, error) {
	return r.get(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id=$1`, id)
}

func (r *PGLotRepository) GetForUpdate(ctx context.Context, id int64) (*domain.ParkingLot, error) {
	return r.get(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGLotRepository) get(ctx context.Context, query string, id int64) (*domain.ParkingLot, error) {
	var l domain.ParkingLot
	err := r.db.QueryRow(ctx, query, id).
		Scan(&l.ID, &l.PrimeLocation, &l.Address, &l.Pincode, &l.PricePerHourCents, &l.MaxSpots, &l.RevenueCents, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapLookupError("get lot", err, domain.ErrLotNotFound)
	}
	return &l, nil
}

func (r *PGLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) error {
	err := r.db.QueryRow(ctx, `INSERT INTO parking_lots (prime_location, address, pincode, price_per_hour_cents, max_spots)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, revenue_cents, created_at, updated_at`,
		lot.PrimeLocation, lot.Address, lot.Pincode, lot.PricePerHourCents, lot.MaxSpots).
		Scan(&lot.ID, &lot.RevenueCents, &lot.CreatedAt, &lot.UpdatedAt)
	return mapError("create lot", err)
}

func (r *PGLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) error {
	err := r.db.QueryRow(ctx, `UPDATE parking_lots
		SET prime_location=$2, address=$3, pincode=$4, price_per_hour_cents=$5, max_spots=$6, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		lot.ID, lot.PrimeLocation, lot.Address, lot.Pincode, lot.PricePerHourCents, lot.MaxSpots).
		Scan(&lot.UpdatedAt)
	if err != nil {
		return mapLookupError("update lot", err, domain.ErrLotNotFound)
	}
	return nil
}

func (r *PGLotRepository) AddRevenue(ctx context.Context, id int64, cents int64) error {
	res, err := r.db.Exec(ctx, `UPDATE parking_lots SET revenue_cents = revenue_cents + $2, updated_at = now() WHERE id=$1`, id, cents)
	if err != nil {
		return mapError("add revenue", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

func (r *PGLotRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM parking_lots WHERE id=$1`, id)
	if err != nil {
		return mapError("delete lot", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

var _ LotRepository = (*PGLotRepository)(nil)
