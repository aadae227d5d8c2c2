// Package memory is an in-process repository.Store. Units of work are
// serialized and applied copy-on-commit, so a failed unit leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/repository"
)

type state struct {
	lots     map[int64]domain.ParkingLot
	spots    map[int64]domain.ParkingSpot
	bookings map[int64]domain.Booking
	users    map[int64]domain.User

	nextLot, nextSpot, nextBooking, nextUser int64
}

func newState() *state {
	return &state{
		lots:     make(map[int64]domain.ParkingLot),
		spots:    make(map[int64]domain.ParkingSpot),
		bookings: make(map[int64]domain.Booking),
		users:    make(map[int64]domain.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		lots:        make(map[int64]domain.ParkingLot, len(s.lots)),
		spots:       make(map[int64]domain.ParkingSpot, len(s.spots)),
		bookings:    make(map[int64]domain.Booking, len(s.bookings)),
		users:       make(map[int64]domain.User, len(s.users)),
		nextLot:     s.nextLot,
		nextSpot:    s.nextSpot,
		nextBooking: s.nextBooking,
		nextUser:    s.nextUser,
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.spots {
		c.spots[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = copyBooking(v)
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func copyBooking(b domain.Booking) domain.Booking {
	if b.Closure != nil {
		closure := *b.Closure
		b.Closure = &closure
	}
	return b
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return domain.StorageFailure("begin tx", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	t := &tx{st: work, now: s.now}
	if err := fn(repository.Repositories{
		Lots:     (*lotRepo)(t),
		Spots:    (*spotRepo)(t),
		Bookings: (*bookingRepo)(t),
		Users:    (*userRepo)(t),
	}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type tx struct {
	st  *state
	now func() time.Time
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var _ repository.Store = (*Store)(nil)
