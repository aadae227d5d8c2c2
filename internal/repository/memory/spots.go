package memory

import (
	"context"
	"errors"

	"github.com/Domenick1991/parking/internal/domain"
)

var errForeignKey = errors.New("lot still has spots")

type spotRepo tx

func (r *spotRepo) ListByLot(ctx context.Context, lotID int64) ([]domain.ParkingSpot, error) {
	spots := make([]domain.ParkingSpot, 0)
	for _, id := range sortedKeys(r.st.spots) {
		if s := r.st.spots[id]; s.LotID == lotID {
			spots = append(spots, s)
		}
	}
	return spots, nil
}

func (r *spotRepo) GetByID(ctx context.Context, id int64) (*domain.ParkingSpot, error) {
	s, ok := r.st.spots[id]
	if !ok {
		return nil, domain.ErrSpotNotFound
	}
	return &s, nil
}

func (r *spotRepo) FirstFree(ctx context.Context, lotID int64) (*domain.ParkingSpot, error) {
	for _, id := range sortedKeys(r.st.spots) {
		if s := r.st.spots[id]; s.LotID == lotID && !s.Occupied() {
			return &s, nil
		}
	}
	return nil, domain.ErrNoCapacity
}

func (r *spotRepo) Claim(ctx context.Context, id int64) (bool, error) {
	s, ok := r.st.spots[id]
	if !ok || s.Occupied() {
		return false, nil
	}
	s.Status = domain.SpotStatusOccupied
	r.st.spots[id] = s
	return true, nil
}

func (r *spotRepo) Release(ctx context.Context, id int64) error {
	s, ok := r.st.spots[id]
	if !ok {
		return domain.ErrSpotNotFound
	}
	s.Status = domain.SpotStatusFree
	r.st.spots[id] = s
	return nil
}

func (r *spotRepo) CreateBatch(ctx context.Context, lotID int64, n int) error {
	if _, ok := r.st.lots[lotID]; !ok {
		return domain.StorageFailure("create spots", errForeignKey)
	}
	for i := 0; i < n; i++ {
		r.st.nextSpot++
		r.st.spots[r.st.nextSpot] = domain.ParkingSpot{ID: r.st.nextSpot, LotID: lotID, Status: domain.SpotStatusFree}
	}
	return nil
}

func (r *spotRepo) DeleteFree(ctx context.Context, ids []int64) (int, error) {
	deleted := 0
	for _, id := range ids {
		if s, ok := r.st.spots[id]; ok && !s.Occupied() {
			delete(r.st.spots, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *spotRepo) DeleteByLot(ctx context.Context, lotID int64) (int, error) {
	deleted := 0
	for id, s := range r.st.spots {
		if s.LotID == lotID && !s.Occupied() {
			delete(r.st.spots, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *spotRepo) CountOccupied(ctx context.Context, lotID int64) (int, error) {
	n := 0
	for _, s := range r.st.spots {
		if s.LotID == lotID && s.Occupied() {
			n++
		}
	}
	return n, nil
}
