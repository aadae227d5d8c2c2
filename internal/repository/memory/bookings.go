package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
)

type bookingRepo tx

func (r *bookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	for _, b := range r.st.bookings {
		if b.SpotID == booking.SpotID && b.Active() {
			return domain.ErrDuplicate
		}
	}
	r.st.nextBooking++
	booking.ID = r.st.nextBooking
	r.st.bookings[booking.ID] = copyBooking(*booking)
	return nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b = copyBooking(b)
	return &b, nil
}

func (r *bookingRepo) Close(ctx context.Context, id int64, exit time.Time, costCents int64) (bool, error) {
	b, ok := r.st.bookings[id]
	if !ok || !b.Active() {
		return false, nil
	}
	b.Close(exit, costCents)
	r.st.bookings[id] = b
	return true, nil
}

func (r *bookingRepo) ActiveBySpot(ctx context.Context, spotID int64) (*domain.Booking, error) {
	for _, b := range r.st.bookings {
		if b.SpotID == spotID && b.Active() {
			b = copyBooking(b)
			return &b, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (r *bookingRepo) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for _, b := range r.st.bookings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.SpotID != nil && b.SpotID != *filter.SpotID {
			continue
		}
		if filter.ActiveOnly && !b.Active() {
			continue
		}
		bookings = append(bookings, copyBooking(b))
	}
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].EntryTime.Equal(bookings[j].EntryTime) {
			return bookings[i].EntryTime.After(bookings[j].EntryTime)
		}
		return bookings[i].ID > bookings[j].ID
	})
	return bookings, nil
}
