package repository

import (
	"context"

	"github.com/Domenick1991/parking/internal/domain"
)

type PGSpotRepository struct {
	db Querier
}

func NewSpotRepository(db Querier) SpotRepository {
	return &PGSpotRepository{db: db}
}

func (r *PGSpotRepository) ListByLot(ctx context.Context, lotID int64) ([]domain.ParkingSpot, error) {
	rows, err := r.db.Query(ctx, `SELECT id, lot_id, status FROM parking_spots WHERE lot_id=$1 ORDER BY id`, lotID)
	if err != nil {
		return nil, mapError("list spots", err)
	}
	defer rows.Close()

	spots := make([]domain.ParkingSpot, 0)
	for rows.Next() {
		var s domain.ParkingSpot
		if err := rows.Scan(&s.ID, &s.LotID, &s.Status); err != nil {
			return nil, mapError("scan spot", err)
		}
		spots = append(spots, s)
	}
	return spots, mapError("list spots", rows.Err())
}

func (r *PGSpotRepository) GetByID(ctx context.Context, id int64) (*domain.ParkingSpot, error) {
	var s domain.ParkingSpot
	if err := r.db.QueryRow(ctx, `SELECT id, lot_id, status FROM parking_spots WHERE id=$1`, id).Scan(&s.ID, &s.LotID, &s.Status); err != nil {
		return nil, mapLookupError("get spot", err, domain.ErrSpotNotFound)
	}
	return &s, nil
}

func (r *PGSpotRepository) FirstFree(ctx context.Context, lotID int64) (*domain.ParkingSpot, error) {
	var s domain.ParkingSpot
	err := r.db.QueryRow(ctx, `SELECT id, lot_id, status FROM parking_spots WHERE lot_id=$1 AND status=$2 ORDER BY id LIMIT 1`, lotID, domain.SpotStatusFree).
		Scan(&s.ID, &s.LotID, &s.Status)
	if err != nil {
		return nil, mapLookupError("find free spot", err, domain.ErrNoCapacity)
	}
	return &s, nil
}

func (r *PGSpotRepository) Claim(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE parking_spots SET status=$2 WHERE id=$1 AND status=$3`, id, domain.SpotStatusOccupied, domain.SpotStatusFree)
	if err != nil {
		return false, mapError("claim spot", err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGSpotRepository) Release(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `UPDATE parking_spots SET status=$2 WHERE id=$1`, id, domain.SpotStatusFree)
	if err != nil {
		return mapError("release spot", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrSpotNotFound
	}
	return nil
}

func (r *PGSpotRepository) CreateBatch(ctx context.Context, lotID int64, n int) error {
	if n <= 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `INSERT INTO parking_spots (lot_id, status) SELECT $1::bigint, $2::text FROM generate_series(1, $3::int)`, lotID, domain.SpotStatusFree, n)
	return mapError("create spots", err)
}

func (r *PGSpotRepository) DeleteFree(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.Exec(ctx, `DELETE FROM parking_spots WHERE id = ANY($1) AND status <> $2`, ids, domain.SpotStatusOccupied)
	if err != nil {
		return 0, mapError("delete spots", err)
	}
	return int(res.RowsAffected()), nil
}

func (r *PGSpotRepository) DeleteByLot(ctx context.Context, lotID int64) (int, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM parking_spots WHERE lot_id=$1 AND status <> $2`, lotID, domain.SpotStatusOccupied)
	if err != nil {
		return 0, mapError("delete lot spots", err)
	}
	return int(res.RowsAffected()), nil
}

func (r *PGSpotRepository) CountOccupied(ctx context.Context, lotID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM parking_spots WHERE lot_id=$1 AND status=$2`, lotID, domain.SpotStatusOccupied).Scan(&n); err != nil {
		return 0, mapError("count occupied spots", err)
	}
	return n, nil
}

var _ SpotRepository = (*PGSpotRepository)(nil)
