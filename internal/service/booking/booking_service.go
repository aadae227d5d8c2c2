package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/parking/internal/clock"
	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/kafka"
	"github.com/Domenick1991/parking/internal/metrics"
	"github.com/Domenick1991/parking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultClaimRetries = 3

type BookingUseCase interface {
	Book(ctx context.Context, p domain.Principal, input BookInput) (*Allocation, error)
	Quote(ctx context.Context, p domain.Principal, bookingID int64) (*Quote, error)
	Finalize(ctx context.Context, p domain.Principal, bookingID int64) (*domain.Booking, error)
	History(ctx context.Context, p domain.Principal) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// LotCache is the part of the catalogue cache that booking mutations touch.
type LotCache interface {
	InvalidateLots(ctx context.Context) error
}

type BookInput struct {
	LotID         int64  `json:"lot_id"`
	VehicleNumber string `json:"vehicle_number"`
	VehicleBrand  string `json:"vehicle_brand"`
	VehicleModel  string `json:"vehicle_model"`
}

// Allocation is what a visitor is told after booking: which spot in which lot.
type Allocation struct {
	Booking domain.Booking
	Spot    domain.ParkingSpot
	Lot     domain.ParkingLot
}

type Quote struct {
	BookingID         int64
	SpotID            int64
	LotID             int64
	LotName           string
	EntryTime         time.Time
	ExitTime          time.Time
	PricePerHourCents int64
	Hours             int64
	TotalCents        int64
}

type BookingService struct {
	store              repository.Store
	clock              clock.Clock
	cache              LotCache
	producer           Producer
	metrics            *metrics.Metrics
	log                *zap.Logger
	bookingTopic       string
	notificationsTopic string
	claimRetries       int
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) {
		s.clock = c
	}
}

func WithCache(c LotCache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = c
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// WithClaimRetries bounds how many times Book rescans after losing a spot
// to a concurrent booking.
func WithClaimRetries(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.claimRetries = n
		}
	}
}

func NewBookingService(
	store repository.Store,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:        store,
		clock:        clock.Real{},
		producer:     producer,
		bookingTopic: bookingTopic,
		claimRetries: defaultClaimRetries,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.log = service.log.Named("booking.service")
	return service
}

func (s *BookingService) Book(ctx context.Context, p domain.Principal, input BookInput) (*Allocation, error) {
	userID, err := p.RequireUser()
	if err != nil {
		s.metrics.BookingAttempt(metrics.OutcomeRejected)
		return nil, err
	}

	var (
		alloc Allocation
		user  *domain.User
	)
	err = s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		user, err = r.Users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrUnauthenticated
			}
			return err
		}

		lot, err := r.Lots.GetByID(ctx, input.LotID)
		if err != nil {
			return err
		}

		spot, err := s.claimFreeSpot(ctx, r.Spots, lot.ID)
		if err != nil {
			return err
		}

		booking := &domain.Booking{
			SpotID:    spot.ID,
			LotID:     lot.ID,
			UserID:    userID,
			EntryTime: s.clock.Now(),
			Vehicle: domain.Vehicle{
				Number: input.VehicleNumber,
				Brand:  input.VehicleBrand,
				Model:  input.VehicleModel,
			},
			ProvisionalCostCents: lot.PricePerHourCents,
		}
		if err := r.Bookings.Create(ctx, booking); err != nil {
			return err
		}

		alloc = Allocation{Booking: *booking, Spot: *spot, Lot: *lot}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoCapacity):
			s.metrics.BookingAttempt(metrics.OutcomeNoCapacity)
		case errors.Is(err, domain.ErrStorageFailure), errors.Is(err, domain.ErrConflict):
			s.metrics.BookingAttempt(metrics.OutcomeError)
		default:
			s.metrics.BookingAttempt(metrics.OutcomeRejected)
		}
		return nil, err
	}

	s.metrics.BookingAttempt(metrics.OutcomeBooked)
	s.invalidateLots(ctx)
	s.log.Info("spot booked",
		zap.Int64("booking_id", alloc.Booking.ID),
		zap.Int64("lot_id", alloc.Lot.ID),
		zap.Int64("spot_id", alloc.Spot.ID),
		zap.Int64("user_id", userID))
	s.publish(ctx, kafka.EventSpotBooked, &alloc.Booking, &alloc.Lot, user)
	return &alloc, nil
}

// claimFreeSpot takes the lowest-id free spot of the lot. Losing the
// conditional claim to a concurrent booking triggers a rescan; a lot with
// no free spot is ErrNoCapacity, losing every attempt is ErrConflict.
func (s *BookingService) claimFreeSpot(ctx context.Context, spots repository.SpotRepository, lotID int64) (*domain.ParkingSpot, error) {
	for attempt := 0; attempt < s.claimRetries; attempt++ {
		spot, err := spots.FirstFree(ctx, lotID)
		if err != nil {
			return nil, err
		}
		ok, err := spots.Claim(ctx, spot.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			spot.Status = domain.SpotStatusOccupied
			return spot, nil
		}
		s.metrics.ClaimConflict()
		s.log.Debug("spot claim lost, rescanning", zap.Int64("spot_id", spot.ID), zap.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("claim spot in lot %d after %d attempts: %w", lotID, s.claimRetries, domain.ErrConflict)
}

func (s *BookingService) Quote(ctx context.Context, p domain.Principal, bookingID int64) (*Quote, error) {
	userID, err := p.RequireUser()
	if err != nil {
		return nil, err
	}

	var quote *Quote
	err = s.store.WithTx(ctx, func(r repository.Repositories) error {
		booking, lot, err := loadOwnedActive(ctx, r, userID, bookingID)
		if err != nil {
			return err
		}
		quote = newQuote(booking, lot, s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *BookingService) Finalize(ctx context.Context, p domain.Principal, bookingID int64) (*domain.Booking, error) {
	userID, err := p.RequireUser()
	if err != nil {
		return nil, err
	}

	var (
		closed *domain.Booking
		lot    *domain.ParkingLot
		user   *domain.User
	)
	err = s.store.WithTx(ctx, func(r repository.Repositories) error {
		var booking *domain.Booking
		var err error
		booking, lot, err = loadOwnedActive(ctx, r, userID, bookingID)
		if err != nil {
			return err
		}

		quote := newQuote(booking, lot, s.clock.Now())
		ok, err := r.Bookings.Close(ctx, booking.ID, quote.ExitTime, quote.TotalCents)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyReleased
		}
		if err := r.Spots.Release(ctx, booking.SpotID); err != nil {
			return err
		}
		if err := r.Lots.AddRevenue(ctx, lot.ID, quote.TotalCents); err != nil {
			return err
		}

		user, err = r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		booking.Close(quote.ExitTime, quote.TotalCents)
		closed = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Released(lot.ID, closed.Closure.CostCents)
	s.log.Info("spot released",
		zap.Int64("booking_id", closed.ID),
		zap.Int64("lot_id", lot.ID),
		zap.Int64("spot_id", closed.SpotID),
		zap.Int64("cost_cents", closed.Closure.CostCents))
	s.invalidateLots(ctx)
	s.publish(ctx, kafka.EventSpotReleased, closed, lot, user)
	return closed, nil
}

func (s *BookingService) History(ctx context.Context, p domain.Principal) ([]domain.Booking, error) {
	userID, err := p.RequireUser()
	if err != nil {
		return nil, err
	}

	var bookings []domain.Booking
	err = s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		bookings, err = r.Bookings.List(ctx, domain.BookingFilter{UserID: &userID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// loadOwnedActive checks existence, then ownership, then that the booking
// is still open.
func loadOwnedActive(ctx context.Context, r repository.Repositories, userID, bookingID int64) (*domain.Booking, *domain.ParkingLot, error) {
	booking, err := r.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.UserID != userID {
		return nil, nil, domain.ErrForbidden
	}
	if !booking.Active() {
		return nil, nil, domain.ErrAlreadyReleased
	}
	lot, err := r.Lots.GetByID(ctx, booking.LotID)
	if err != nil {
		return nil, nil, err
	}
	return booking, lot, nil
}

func newQuote(booking *domain.Booking, lot *domain.ParkingLot, now time.Time) *Quote {
	return &Quote{
		BookingID:         booking.ID,
		SpotID:            booking.SpotID,
		LotID:             lot.ID,
		LotName:           lot.PrimeLocation,
		EntryTime:         booking.EntryTime,
		ExitTime:          now,
		PricePerHourCents: lot.PricePerHourCents,
		Hours:             domain.BillableHours(booking.EntryTime, now),
		TotalCents:        domain.TotalCost(booking.EntryTime, now, lot.PricePerHourCents),
	}
}

func (s *BookingService) invalidateLots(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLots(ctx); err != nil {
		s.log.Warn("invalidate lot cache", zap.Error(err))
	}
}

// publish never fails the caller: the booking is already committed.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, lot *domain.ParkingLot, user *domain.User) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.ParkingEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		LotID:         lot.ID,
		LotName:       lot.PrimeLocation,
		SpotID:        booking.SpotID,
		VehicleNumber: booking.Vehicle.Number,
		EntryTime:     booking.EntryTime,
		CostCents:     booking.CostCents(),
		OccurredAt:    s.clock.Now(),
	}
	if user != nil {
		event.Email = user.Email
		event.Name = user.Name
	}
	if booking.Closure != nil {
		exit := booking.Closure.ExitTime
		event.ExitTime = &exit
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, event.Key(), event); err != nil {
		s.log.Warn("failed to publish event", zap.String("type", eventType), zap.Int64("booking_id", booking.ID), zap.Error(err))
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.Key(), event); err != nil {
			s.log.Warn("failed to publish notification", zap.String("type", eventType), zap.Int64("booking_id", booking.ID), zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
