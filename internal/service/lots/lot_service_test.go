package lots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/parking/internal/clock"
	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/repository"
	"github.com/Domenick1991/parking/internal/repository/memory"
	"github.com/Domenick1991/parking/internal/service/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetLots(ctx context.Context) ([]domain.LotAvailability, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LotAvailability), args.Error(1)
}

func (m *MockCache) SetLots(ctx context.Context, lots []domain.LotAvailability) error {
	args := m.Called(ctx, lots)
	return args.Error(0)
}

func (m *MockCache) InvalidateLots(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// failingUpdateStore makes every lot update fail after the spot changes
// have been applied.
type failingUpdateStore struct {
	repository.Store
}

func (s failingUpdateStore) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.WithTx(ctx, func(r repository.Repositories) error {
		r.Lots = failingLots{r.Lots}
		return fn(r)
	})
}

type failingLots struct {
	repository.LotRepository
}

func (failingLots) Update(ctx context.Context, lot *domain.ParkingLot) error {
	return domain.StorageFailure("update lot", errors.New("connection reset"))
}

// racingStore books the lot's first free spot right before its spots are
// deleted, as a booking committing between the occupancy check and the
// delete would.
type racingStore struct {
	repository.Store
}

func (s racingStore) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.WithTx(ctx, func(r repository.Repositories) error {
		r.Spots = racingSpots{r.Spots}
		return fn(r)
	})
}

type racingSpots struct {
	repository.SpotRepository
}

func (r racingSpots) DeleteByLot(ctx context.Context, lotID int64) (int, error) {
	spot, err := r.FirstFree(ctx, lotID)
	if err != nil {
		return 0, err
	}
	if _, err := r.Claim(ctx, spot.ID); err != nil {
		return 0, err
	}
	return r.SpotRepository.DeleteByLot(ctx, lotID)
}

var admin = domain.AdminPrincipal()

type fixture struct {
	store    *memory.Store
	clock    *clock.Fake
	bookings *booking.BookingService
	ctx      context.Context
}

func newFixture() *fixture {
	store := memory.NewStore()
	c := clock.NewFake(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	return &fixture{
		store:    store,
		clock:    c,
		bookings: booking.NewBookingService(store, nil, "", booking.WithClock(c)),
		ctx:      context.Background(),
	}
}

func (f *fixture) user(t *testing.T, username string) domain.User {
	t.Helper()
	u := domain.User{Username: username, Email: username + "@example.com", Name: "User " + username}
	require.NoError(t, f.store.WithTx(f.ctx, func(r repository.Repositories) error {
		return r.Users.Create(f.ctx, &u)
	}))
	return u
}

// occupy books n spots of the lot, one per fresh user.
func (f *fixture) occupy(t *testing.T, lotID int64, n int) []booking.Allocation {
	t.Helper()
	allocs := make([]booking.Allocation, 0, n)
	for i := 0; i < n; i++ {
		u := f.user(t, "driver"+string(rune('a'+i)))
		alloc, err := f.bookings.Book(f.ctx, domain.UserPrincipal(u.ID), booking.BookInput{LotID: lotID, VehicleNumber: "V" + string(rune('a'+i))})
		require.NoError(t, err)
		allocs = append(allocs, *alloc)
	}
	return allocs
}

func (f *fixture) spots(t *testing.T, lotID int64) []domain.ParkingSpot {
	t.Helper()
	var spots []domain.ParkingSpot
	require.NoError(t, f.store.WithTx(f.ctx, func(r repository.Repositories) error {
		var err error
		spots, err = r.Spots.ListByLot(f.ctx, lotID)
		return err
	}))
	return spots
}

func (f *fixture) lot(t *testing.T, id int64) *domain.ParkingLot {
	t.Helper()
	var lot *domain.ParkingLot
	require.NoError(t, f.store.WithTx(f.ctx, func(r repository.Repositories) error {
		var err error
		lot, err = r.Lots.GetByID(f.ctx, id)
		return err
	}))
	return lot
}

func (f *fixture) assertCapacityInvariant(t *testing.T, lotID int64) {
	t.Helper()
	assert.Equal(t, f.lot(t, lotID).MaxSpots, len(f.spots(t, lotID)))
}

func createLot(t *testing.T, f *fixture, svc *LotService, price int64, spots int) *domain.ParkingLot {
	t.Helper()
	lot, err := svc.CreateLot(f.ctx, admin, CreateLotInput{PrimeLocation: "Station Road", Address: "12 Station Rd", Pincode: "400001", PricePerHourCents: price, MaxSpots: spots})
	require.NoError(t, err)
	return lot
}

func occupiedIDs(spots []domain.ParkingSpot) []int64 {
	var ids []int64
	for _, s := range spots {
		if s.Occupied() {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func TestLotService_CreateLot(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)

	lot := createLot(t, f, svc, 1000, 4)

	spots := f.spots(t, lot.ID)
	assert.Len(t, spots, 4)
	for _, s := range spots {
		assert.Equal(t, domain.SpotStatusFree, s.Status)
	}
	assert.Equal(t, int64(0), lot.RevenueCents)
}

func TestLotService_CreateLot_Validation(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)

	tests := []struct {
		name  string
		input CreateLotInput
	}{
		{"zero price", CreateLotInput{PrimeLocation: "A", PricePerHourCents: 0, MaxSpots: 1}},
		{"negative spots", CreateLotInput{PrimeLocation: "A", PricePerHourCents: 100, MaxSpots: -1}},
		{"blank location", CreateLotInput{PrimeLocation: "   ", PricePerHourCents: 100, MaxSpots: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateLot(f.ctx, admin, tt.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := svc.CreateLot(f.ctx, domain.UserPrincipal(1), CreateLotInput{PrimeLocation: "A", PricePerHourCents: 100, MaxSpots: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.CreateLot(f.ctx, domain.Anonymous(), CreateLotInput{PrimeLocation: "A", PricePerHourCents: 100, MaxSpots: 1})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLotService_Resize_ShrinkRejectedKeepsPrice(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	lot := createLot(t, f, svc, 1000, 5)
	f.occupy(t, lot.ID, 3)

	_, err := svc.Resize(f.ctx, admin, lot.ID, ResizeInput{PricePerHourCents: 1500, MaxSpots: 1})

	assert.ErrorIs(t, err, domain.ErrInsufficientRemovableCapacity)
	after := f.lot(t, lot.ID)
	assert.Equal(t, 5, after.MaxSpots)
	assert.Len(t, f.spots(t, lot.ID), 5)
	assert.Equal(t, int64(1500), after.PricePerHourCents, "price change survives the rejected shrink")
}

func TestLotService_Resize_StrictRollsBackPrice(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store, WithStrictResize())
	lot := createLot(t, f, svc, 1000, 5)
	f.occupy(t, lot.ID, 3)

	_, err := svc.Resize(f.ctx, admin, lot.ID, ResizeInput{PricePerHourCents: 1500, MaxSpots: 1})

	assert.ErrorIs(t, err, domain.ErrInsufficientRemovableCapacity)
	after := f.lot(t, lot.ID)
	assert.Equal(t, 5, after.MaxSpots)
	assert.Equal(t, int64(1000), after.PricePerHourCents)
	f.assertCapacityInvariant(t, lot.ID)
}

func TestLotService_Resize_Shrink(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	lot := createLot(t, f, svc, 1000, 5)
	f.occupy(t, lot.ID, 2)
	before := f.spots(t, lot.ID)

	updated, err := svc.Resize(f.ctx, admin, lot.ID, ResizeInput{PricePerHourCents: 1000, MaxSpots: 3})

	require.NoError(t, err)
	assert.Equal(t, 3, updated.MaxSpots)
	after := f.spots(t, lot.ID)
	require.Len(t, after, 3)
	assert.Equal(t, occupiedIDs(before), occupiedIDs(after), "occupied spots are never removed")
	// the two lowest free ids went away
	assert.Equal(t, before[4].ID, after[2].ID)
	f.assertCapacityInvariant(t, lot.ID)
}

func TestLotService_Resize_ShrinkToOccupiedCount(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	lot := createLot(t, f, svc, 1000, 4)
	f.occupy(t, lot.ID, 2)

	updated, err := svc.Resize(f.ctx, admin, lot.ID, ResizeInput{PricePerHourCents: 1000, MaxSpots: 2})

	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxSpots)
	assert.Len(t, occupiedIDs(f.spots(t, lot.ID)), 2)
	f.assertCapacityInvariant(t, lot.ID)
}

func TestLotService_Resize_Grow(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	lot := createLot(t, f, svc, 1000, 3)
	f.occupy(t, lot.ID, 1)
	before := f.spots(t, lot.ID)

	updated, err := svc.Resize(f.ctx, admin, lot.ID, ResizeInput{PricePerHourCents: 1200, MaxSpots: 5})

	require.NoError(t, err)
	assert.Equal(t, 5, updated.MaxSpots)
	assert.Equal(t, int64(1200), updated.PricePerHourCents)
	after := f.spots(t, lot.ID)
	require.Len(t, after, 5)
	assert.Equal(t, before, after[:3])
	for _, s := range after[3:] {
		assert.Equal(t, domain.SpotStatusFree, s.Status)
	}
	f.assertCapacityInvariant(t, lot.ID)
}

func TestLotService_Resize_EqualOnlyUpdatesDetails(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	lot := createLot(t, f, svc, 1000, 2)
	before := f.spots(t, lot.ID)
	name := "Station Road North"

	updated, err := svc.Resize(f.ctx, admin, lot.ID, ResizeInput{PricePerHourCents: 800, MaxSpots: 2, PrimeLocation: &name})

	require.NoError(t, err)
	assert.Equal(t, "Station Road North", updated.PrimeLocation)
	assert.Equal(t, int64(800), updated.PricePerHourCents)
	assert.Equal(t, before, f.spots(t, lot.ID))
}

func TestLotService_Resize_StorageFailureRollsBack(t *testing.T) {
	f := newFixture()
	lot := createLot(t, f, NewLotService(f.store), 1000, 2)
	svc := NewLotService(failingUpdateStore{f.store})

	_, err := svc.Resize(f.ctx, admin, lot.ID, ResizeInput{PricePerHourCents: 900, MaxSpots: 6})

	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Len(t, f.spots(t, lot.ID), 2)
	assert.Equal(t, int64(1000), f.lot(t, lot.ID).PricePerHourCents)
}

func TestLotService_Resize_Errors(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)

	_, err := svc.Resize(f.ctx, admin, 77, ResizeInput{PricePerHourCents: 100, MaxSpots: 1})
	assert.ErrorIs(t, err, domain.ErrLotNotFound)

	_, err = svc.Resize(f.ctx, admin, 77, ResizeInput{PricePerHourCents: -1, MaxSpots: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Resize(f.ctx, domain.UserPrincipal(1), 77, ResizeInput{PricePerHourCents: 100, MaxSpots: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLotService_DeleteLot(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	lot := createLot(t, f, svc, 1000, 2)
	allocs := f.occupy(t, lot.ID, 1)

	err := svc.DeleteLot(f.ctx, admin, lot.ID)
	assert.ErrorIs(t, err, domain.ErrHasOccupiedSpots)
	assert.Len(t, f.spots(t, lot.ID), 2)

	holder := allocs[0].Booking.UserID
	_, err = f.bookings.Finalize(f.ctx, domain.UserPrincipal(holder), allocs[0].Booking.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLot(f.ctx, admin, lot.ID))
	assert.Empty(t, f.spots(t, lot.ID))

	err = svc.DeleteLot(f.ctx, admin, lot.ID)
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestLotService_DeleteLot_SpotClaimedDuringDelete(t *testing.T) {
	f := newFixture()
	lot := createLot(t, f, NewLotService(f.store), 1000, 2)
	svc := NewLotService(racingStore{f.store})

	err := svc.DeleteLot(f.ctx, admin, lot.ID)

	assert.ErrorIs(t, err, domain.ErrHasOccupiedSpots)
	assert.Equal(t, lot.ID, f.lot(t, lot.ID).ID)
	spots := f.spots(t, lot.ID)
	assert.Len(t, spots, 2)
	for _, spot := range spots {
		assert.False(t, spot.Occupied())
	}
}

func TestLotService_SpotInfo(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	lot := createLot(t, f, svc, 1000, 2)
	alloc := f.occupy(t, lot.ID, 1)[0]

	info, err := svc.SpotInfo(f.ctx, admin, alloc.Spot.ID)
	require.NoError(t, err)
	assert.Equal(t, lot.ID, info.Lot.ID)
	require.NotNil(t, info.Booking)
	assert.Equal(t, alloc.Booking.ID, info.Booking.ID)
	require.NotNil(t, info.Holder)
	assert.Equal(t, "drivera@example.com", info.Holder.Email)

	free := f.spots(t, lot.ID)[1]
	info, err = svc.SpotInfo(f.ctx, admin, free.ID)
	require.NoError(t, err)
	assert.Nil(t, info.Booking)
	assert.Nil(t, info.Holder)

	_, err = svc.SpotInfo(f.ctx, admin, 999)
	assert.ErrorIs(t, err, domain.ErrSpotNotFound)
}

func TestLotService_Overview(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	first := createLot(t, f, svc, 1000, 3)
	createLot(t, f, svc, 500, 1)
	f.occupy(t, first.ID, 2)

	overview, err := svc.Overview(f.ctx, admin)

	require.NoError(t, err)
	require.Len(t, overview, 2)
	assert.Equal(t, 2, overview[0].Occupied)
	assert.Equal(t, 3, overview[0].Total)
	assert.Equal(t, 0, overview[1].Occupied)

	_, err = svc.Overview(f.ctx, domain.UserPrincipal(1))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLotService_ListLots_UsesCache(t *testing.T) {
	f := newFixture()
	cache := &MockCache{}
	cache.On("InvalidateLots", mock.Anything).Return(nil)
	svc := NewLotService(f.store, WithCache(cache))
	lot := createLot(t, f, svc, 1000, 3)
	f.occupy(t, lot.ID, 1)

	cache.On("GetLots", mock.Anything).Return(nil, nil).Once()
	cache.On("SetLots", mock.Anything, mock.MatchedBy(func(l []domain.LotAvailability) bool {
		return len(l) == 1 && l[0].Available == 2
	})).Return(nil).Once()

	catalogue, err := svc.ListLots(f.ctx, domain.UserPrincipal(1))
	require.NoError(t, err)
	require.Len(t, catalogue, 1)
	assert.Equal(t, 2, catalogue[0].Available)

	cached := []domain.LotAvailability{{Lot: *lot, Available: 2}}
	cache.On("GetLots", mock.Anything).Return(cached, nil).Once()

	catalogue, err = svc.ListLots(f.ctx, domain.UserPrincipal(1))
	require.NoError(t, err)
	assert.Equal(t, cached, catalogue)

	_, err = svc.ListLots(f.ctx, domain.Anonymous())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	cache.AssertExpectations(t)
}

func TestLotService_ListLots_CacheErrorFallsBack(t *testing.T) {
	f := newFixture()
	cache := &MockCache{}
	cache.On("InvalidateLots", mock.Anything).Return(errors.New("redis down"))
	cache.On("GetLots", mock.Anything).Return(nil, errors.New("redis down"))
	cache.On("SetLots", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	svc := NewLotService(f.store, WithCache(cache))
	createLot(t, f, svc, 1000, 1)

	catalogue, err := svc.ListLots(f.ctx, admin)

	require.NoError(t, err)
	assert.Len(t, catalogue, 1)
}

func TestLotService_ListUsers(t *testing.T) {
	f := newFixture()
	svc := NewLotService(f.store)
	f.user(t, "alice")
	f.user(t, "bob")

	users, err := svc.ListUsers(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.ListUsers(f.ctx, domain.UserPrincipal(1))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
