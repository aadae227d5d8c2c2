package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
)

type LotRepository interface {
	List(ctx context.Context) ([]domain.ParkingLot, error)
	GetByID(ctx context.Context, id int64) (*domain.ParkingLot, error)
	// GetForUpdate locks the lot row until the end of the unit of work.
	GetForUpdate(ctx context.Context, id int64) (*domain.ParkingLot, error)
	Create(ctx context.Context, lot *domain.ParkingLot) error
	Update(ctx context.Context, lot *domain.ParkingLot) error
	AddRevenue(ctx context.Context, id int64, cents int64) error
	Delete(ctx context.Context, id int64) error
}

type SpotRepository interface {
	// ListByLot returns the spots of a lot in ascending id order.
	ListByLot(ctx context.Context, lotID int64) ([]domain.ParkingSpot, error)
	GetByID(ctx context.Context, id int64) (*domain.ParkingSpot, error)
	// FirstFree returns the free spot with the lowest id, or
	// domain.ErrNoCapacity when the lot is full.
	FirstFree(ctx context.Context, lotID int64) (*domain.ParkingSpot, error)
	// Claim flips a spot from free to occupied. It reports false when the
	// spot was no longer free.
	Claim(ctx context.Context, id int64) (bool, error)
	Release(ctx context.Context, id int64) error
	CreateBatch(ctx context.Context, lotID int64, n int) error
	// DeleteFree removes the given spots unless they are occupied and
	// returns how many rows went away.
	DeleteFree(ctx context.Context, ids []int64) (int, error)
	// DeleteByLot removes the lot's free spots and reports how many went.
	DeleteByLot(ctx context.Context, lotID int64) (int, error)
	CountOccupied(ctx context.Context, lotID int64) (int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// Close sets exit time and final cost on an active booking. It reports
	// false when the booking was already closed.
	Close(ctx context.Context, id int64, exit time.Time, costCents int64) (bool, error)
	ActiveBySpot(ctx context.Context, spotID int64) (*domain.Booking, error)
	// List returns bookings ordered by entry time, newest first.
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Lots     LotRepository
	Spots    SpotRepository
	Bookings BookingRepository
	Users    UserRepository
}

// Store runs fn as a single unit of work. When fn returns an error nothing
// it did is kept.
type Store interface {
	WithTx(ctx context.Context, fn func(Repositories) error) error
}
