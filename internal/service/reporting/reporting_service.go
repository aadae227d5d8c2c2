package reporting

import (
	"context"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/repository"
)

type ReportingUseCase interface {
	AdminSummary(ctx context.Context, p domain.Principal) (*AdminSummary, error)
	BookingsPerUser(ctx context.Context, p domain.Principal) ([]Point, error)
	RevenuePerLot(ctx context.Context, p domain.Principal) ([]Point, error)
	UserSummary(ctx context.Context, p domain.Principal) (*UserSummary, error)
	MonthlyBookings(ctx context.Context, p domain.Principal) ([]Point, error)
	MonthlySpending(ctx context.Context, p domain.Principal) ([]Point, error)
}

type ReportingService struct {
	store repository.Store
}

func NewReportingService(store repository.Store) *ReportingService {
	return &ReportingService{store: store}
}

type dataset struct {
	users    []domain.User
	lots     []domain.ParkingLot
	bookings []domain.Booking
}

func (s *ReportingService) load(ctx context.Context, filter domain.BookingFilter, withUsers bool) (*dataset, error) {
	var d dataset
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		if withUsers {
			if d.users, err = r.Users.List(ctx); err != nil {
				return err
			}
		}
		if d.lots, err = r.Lots.List(ctx); err != nil {
			return err
		}
		d.bookings, err = r.Bookings.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *ReportingService) AdminSummary(ctx context.Context, p domain.Principal) (*AdminSummary, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, domain.BookingFilter{}, true)
	if err != nil {
		return nil, err
	}
	summary := BuildAdminSummary(d.users, d.lots, d.bookings)
	return &summary, nil
}

func (s *ReportingService) BookingsPerUser(ctx context.Context, p domain.Principal) ([]Point, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, domain.BookingFilter{}, true)
	if err != nil {
		return nil, err
	}
	return BookingsPerUser(d.users, d.bookings), nil
}

func (s *ReportingService) RevenuePerLot(ctx context.Context, p domain.Principal) ([]Point, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	var lots []domain.ParkingLot
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		lots, err = r.Lots.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return RevenuePerLot(lots), nil
}

func (s *ReportingService) UserSummary(ctx context.Context, p domain.Principal) (*UserSummary, error) {
	userID, err := p.RequireUser()
	if err != nil {
		return nil, err
	}
	d, err := s.load(ctx, domain.BookingFilter{UserID: &userID}, false)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(d.lots))
	for _, l := range d.lots {
		names[l.ID] = l.PrimeLocation
	}
	summary := BuildUserSummary(d.bookings, names)
	return &summary, nil
}

func (s *ReportingService) MonthlyBookings(ctx context.Context, p domain.Principal) ([]Point, error) {
	bookings, err := s.ownBookings(ctx, p)
	if err != nil {
		return nil, err
	}
	return MonthlyBookings(bookings), nil
}

func (s *ReportingService) MonthlySpending(ctx context.Context, p domain.Principal) ([]Point, error) {
	bookings, err := s.ownBookings(ctx, p)
	if err != nil {
		return nil, err
	}
	return MonthlySpending(bookings), nil
}

func (s *ReportingService) ownBookings(ctx context.Context, p domain.Principal) ([]domain.Booking, error) {
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

var _ ReportingUseCase = (*ReportingService)(nil)
