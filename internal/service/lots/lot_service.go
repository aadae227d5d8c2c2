package lots

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/repository"
	"go.uber.org/zap"
)

type LotUseCase interface {
	CreateLot(ctx context.Context, p domain.Principal, input CreateLotInput) (*domain.ParkingLot, error)
	ListLots(ctx context.Context, p domain.Principal) ([]domain.LotAvailability, error)
	Overview(ctx context.Context, p domain.Principal) ([]domain.LotOverview, error)
	Resize(ctx context.Context, p domain.Principal, lotID int64, input ResizeInput) (*domain.ParkingLot, error)
	DeleteLot(ctx context.Context, p domain.Principal, lotID int64) error
	SpotInfo(ctx context.Context, p domain.Principal, spotID int64) (*domain.SpotInfo, error)
	ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error)
}

type LotCache interface {
	GetLots(ctx context.Context) ([]domain.LotAvailability, error)
	SetLots(ctx context.Context, lots []domain.LotAvailability) error
	InvalidateLots(ctx context.Context) error
}

type CreateLotInput struct {
	PrimeLocation     string `json:"prime_location"`
	Address           string `json:"address"`
	Pincode           string `json:"pincode"`
	PricePerHourCents int64  `json:"price_per_hour_cents"`
	MaxSpots          int    `json:"max_spots"`
}

// ResizeInput edits a lot. Nil descriptive fields are left unchanged.
type ResizeInput struct {
	PricePerHourCents int64   `json:"price_per_hour_cents"`
	MaxSpots          int     `json:"max_spots"`
	PrimeLocation     *string `json:"prime_location,omitempty"`
	Address           *string `json:"address,omitempty"`
	Pincode           *string `json:"pincode,omitempty"`
}

type LotService struct {
	store        repository.Store
	cache        LotCache
	log          *zap.Logger
	strictResize bool
}

type LotServiceOption func(*LotService)

func WithCache(c LotCache) LotServiceOption {
	return func(s *LotService) {
		s.cache = c
	}
}

func WithLogger(log *zap.Logger) LotServiceOption {
	return func(s *LotService) {
		s.log = log
	}
}

// WithStrictResize makes a rejected shrink roll back the price change too.
// Without it the new price is kept even though the spot count is not.
func WithStrictResize() LotServiceOption {
	return func(s *LotService) {
		s.strictResize = true
	}
}

func NewLotService(store repository.Store, opts ...LotServiceOption) *LotService {
	service := &LotService{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		opt(service)
	}
	service.log = service.log.Named("lots.service")
	return service
}

func (s *LotService) CreateLot(ctx context.Context, p domain.Principal, input CreateLotInput) (*domain.ParkingLot, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	input.PrimeLocation = strings.TrimSpace(input.PrimeLocation)
	if input.PrimeLocation == "" {
		return nil, domain.InvalidInput("prime location is required")
	}
	if err := validateCapacity(input.PricePerHourCents, input.MaxSpots); err != nil {
		return nil, err
	}

	lot := &domain.ParkingLot{
		PrimeLocation:     input.PrimeLocation,
		Address:           strings.TrimSpace(input.Address),
		Pincode:           strings.TrimSpace(input.Pincode),
		PricePerHourCents: input.PricePerHourCents,
		MaxSpots:          input.MaxSpots,
	}
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		if err := r.Lots.Create(ctx, lot); err != nil {
			return err
		}
		return r.Spots.CreateBatch(ctx, lot.ID, lot.MaxSpots)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lot created", zap.Int64("lot_id", lot.ID), zap.Int("max_spots", lot.MaxSpots))
	s.invalidate(ctx)
	return lot, nil
}

func (s *LotService) ListLots(ctx context.Context, p domain.Principal) ([]domain.LotAvailability, error) {
	if !p.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if s.cache != nil {
		if cached, err := s.cache.GetLots(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	var catalogue []domain.LotAvailability
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		overview, err := loadOverview(ctx, r)
		if err != nil {
			return err
		}
		catalogue = make([]domain.LotAvailability, 0, len(overview))
		for _, o := range overview {
			catalogue = append(catalogue, domain.LotAvailability{Lot: o.Lot, Available: o.Total - o.Occupied})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLots(ctx, catalogue); err != nil {
			s.log.Warn("cache lot catalogue", zap.Error(err))
		}
	}
	return catalogue, nil
}

func (s *LotService) Overview(ctx context.Context, p domain.Principal) ([]domain.LotOverview, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	var overview []domain.LotOverview
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		overview, err = loadOverview(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return overview, nil
}

func loadOverview(ctx context.Context, r repository.Repositories) ([]domain.LotOverview, error) {
	lots, err := r.Lots.List(ctx)
	if err != nil {
		return nil, err
	}
	overview := make([]domain.LotOverview, 0, len(lots))
	for _, lot := range lots {
		spots, err := r.Spots.ListByLot(ctx, lot.ID)
		if err != nil {
			return nil, err
		}
		occupied := 0
		for _, spot := range spots {
			if spot.Occupied() {
				occupied++
			}
		}
		overview = append(overview, domain.LotOverview{Lot: lot, Spots: spots, Occupied: occupied, Total: len(spots)})
	}
	return overview, nil
}

// Resize updates the price and grows or shrinks the spot set. Only free
// spots are removed on a shrink, lowest id first.
func (s *LotService) Resize(ctx context.Context, p domain.Principal, lotID int64, input ResizeInput) (*domain.ParkingLot, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := validateCapacity(input.PricePerHourCents, input.MaxSpots); err != nil {
		return nil, err
	}

	var (
		updated  *domain.ParkingLot
		rejected error
	)
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		lot, err := r.Lots.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		applyDetails(lot, input)
		lot.PricePerHourCents = input.PricePerHourCents

		old, target := lot.MaxSpots, input.MaxSpots
		switch {
		case target > old:
			if err := r.Spots.CreateBatch(ctx, lot.ID, target-old); err != nil {
				return err
			}
			lot.MaxSpots = target
		case target < old:
			err := shrink(ctx, r.Spots, lot.ID, old-target)
			switch {
			case errors.Is(err, domain.ErrInsufficientRemovableCapacity) && !s.strictResize:
				// max_spots stays, the price update still commits
				rejected = err
			case err != nil:
				return err
			default:
				lot.MaxSpots = target
			}
		}

		if err := r.Lots.Update(ctx, lot); err != nil {
			return err
		}
		updated = lot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	if rejected != nil {
		s.log.Info("shrink rejected", zap.Int64("lot_id", lotID), zap.Int("requested", input.MaxSpots), zap.Int("kept", updated.MaxSpots))
		return nil, rejected
	}
	s.log.Info("lot resized", zap.Int64("lot_id", lotID), zap.Int("max_spots", updated.MaxSpots), zap.Int64("price_per_hour_cents", updated.PricePerHourCents))
	return updated, nil
}

func shrink(ctx context.Context, spots repository.SpotRepository, lotID int64, count int) error {
	all, err := spots.ListByLot(ctx, lotID)
	if err != nil {
		return err
	}
	removable := make([]int64, 0, len(all))
	for _, spot := range all {
		if !spot.Occupied() {
			removable = append(removable, spot.ID)
		}
	}
	if len(removable) < count {
		return domain.ErrInsufficientRemovableCapacity
	}

	deleted, err := spots.DeleteFree(ctx, removable[:count])
	if err != nil {
		return err
	}
	if deleted != count {
		// a spot was claimed between the scan and the delete
		return domain.ErrConflict
	}
	return nil
}

func (s *LotService) DeleteLot(ctx context.Context, p domain.Principal, lotID int64) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		lot, err := r.Lots.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		occupied, err := r.Spots.CountOccupied(ctx, lotID)
		if err != nil {
			return err
		}
		if occupied > 0 {
			return domain.ErrHasOccupiedSpots
		}
		deleted, err := r.Spots.DeleteByLot(ctx, lotID)
		if err != nil {
			return err
		}
		if deleted != lot.MaxSpots {
			// a booking claimed a spot after the count
			return domain.ErrHasOccupiedSpots
		}
		return r.Lots.Delete(ctx, lotID)
	})
	if err != nil {
		return err
	}

	s.log.Info("lot deleted", zap.Int64("lot_id", lotID))
	s.invalidate(ctx)
	return nil
}

func (s *LotService) SpotInfo(ctx context.Context, p domain.Principal, spotID int64) (*domain.SpotInfo, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	var info domain.SpotInfo
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		spot, err := r.Spots.GetByID(ctx, spotID)
		if err != nil {
			return err
		}
		lot, err := r.Lots.GetByID(ctx, spot.LotID)
		if err != nil {
			return err
		}
		info.Spot, info.Lot = *spot, *lot
		if !spot.Occupied() {
			return nil
		}

		booking, err := r.Bookings.ActiveBySpot(ctx, spot.ID)
		if err != nil {
			return err
		}
		holder, err := r.Users.GetByID(ctx, booking.UserID)
		if err != nil {
			return err
		}
		info.Booking, info.Holder = booking, holder
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *LotService) ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	var users []domain.User
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		users, err = r.Users.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *LotService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLots(ctx); err != nil {
		s.log.Warn("invalidate lot cache", zap.Error(err))
	}
}

func validateCapacity(priceCents int64, maxSpots int) error {
	if priceCents <= 0 {
		return domain.InvalidInput("price per hour must be positive")
	}
	if maxSpots <= 0 {
		return domain.InvalidInput("max spots must be positive")
	}
	return nil
}

func applyDetails(lot *domain.ParkingLot, input ResizeInput) {
	if input.PrimeLocation != nil && strings.TrimSpace(*input.PrimeLocation) != "" {
		lot.PrimeLocation = strings.TrimSpace(*input.PrimeLocation)
	}
	if input.Address != nil {
		lot.Address = strings.TrimSpace(*input.Address)
	}
	if input.Pincode != nil {
		lot.Pincode = strings.TrimSpace(*input.Pincode)
	}
}

var _ LotUseCase = (*LotService)(nil)
