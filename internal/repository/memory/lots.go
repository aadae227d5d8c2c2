package memory

import (
	"context"

	"github.com/Domenick1991/parking/internal/domain"
)

type lotRepo tx

func (r *lotRepo) List(ctx context.Context) ([]domain.ParkingLot, error) {
	lots := make([]domain.ParkingLot, 0, len(r.st.lots))
	for _, id := range sortedKeys(r.st.lots) {
		lots = append(lots, r.st.lots[id])
	}
	return lots, nil
}

func (r *lotRepo) GetByID(ctx context.Context, id int64) (*domain.ParkingLot, error) {
	l, ok := r.st.lots[id]
	if !ok {
		return nil, domain.ErrLotNotFound
	}
	return &l, nil
}

func (r *lotRepo) GetForUpdate(ctx context.Context, id int64) (*domain.ParkingLot, error) {
	return r.GetByID(ctx, id)
}

func (r *lotRepo) Create(ctx context.Context, lot *domain.ParkingLot) error {
	r.st.nextLot++
	now := r.now()
	lot.ID = r.st.nextLot
	lot.RevenueCents = 0
	lot.CreatedAt = now
	lot.UpdatedAt = now
	r.st.lots[lot.ID] = *lot
	return nil
}

func (r *lotRepo) Update(ctx context.Context, lot *domain.ParkingLot) error {
	current, ok := r.st.lots[lot.ID]
	if !ok {
		return domain.ErrLotNotFound
	}
	current.PrimeLocation = lot.PrimeLocation
	current.Address = lot.Address
	current.Pincode = lot.Pincode
	current.PricePerHourCents = lot.PricePerHourCents
	current.MaxSpots = lot.MaxSpots
	current.UpdatedAt = r.now()
	r.st.lots[lot.ID] = current
	lot.UpdatedAt = current.UpdatedAt
	return nil
}

func (r *lotRepo) AddRevenue(ctx context.Context, id int64, cents int64) error {
	l, ok := r.st.lots[id]
	if !ok {
		return domain.ErrLotNotFound
	}
	l.RevenueCents += cents
	l.UpdatedAt = r.now()
	r.st.lots[id] = l
	return nil
}

func (r *lotRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.st.lots[id]; !ok {
		return domain.ErrLotNotFound
	}
	for _, s := range r.st.spots {
		if s.LotID == id {
			return domain.StorageFailure("delete lot", errForeignKey)
		}
	}
	delete(r.st.lots, id)
	return nil
}
