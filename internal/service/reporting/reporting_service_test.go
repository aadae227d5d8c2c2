package reporting

import (
	"context"
	"testing"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/repository"
	"github.com/Domenick1991/parking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*memory.Store, domain.User) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	user := domain.User{Username: "asha", Name: "Asha", Email: "asha@example.com"}
	require.NoError(t, store.WithTx(ctx, func(r repository.Repositories) error {
		if err := r.Users.Create(ctx, &user); err != nil {
			return err
		}
		lot := &domain.ParkingLot{PrimeLocation: "Central", PricePerHourCents: 1000, MaxSpots: 1}
		if err := r.Lots.Create(ctx, lot); err != nil {
			return err
		}
		if err := r.Spots.CreateBatch(ctx, lot.ID, 1); err != nil {
			return err
		}
		if err := r.Lots.AddRevenue(ctx, lot.ID, 2000); err != nil {
			return err
		}
		b := closed(0, user.ID, lot.ID, at(4, 1), "KA01", 2000)
		return r.Bookings.Create(ctx, &b)
	}))
	return store, user
}

func TestReportingService_Empty(t *testing.T) {
	svc := NewReportingService(memory.NewStore())
	ctx := context.Background()

	summary, err := svc.AdminSummary(ctx, domain.AdminPrincipal())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalUsers)

	series, err := svc.RevenuePerLot(ctx, domain.AdminPrincipal())
	require.NoError(t, err)
	assert.Empty(t, series)

	mine, err := svc.UserSummary(ctx, domain.UserPrincipal(1))
	require.NoError(t, err)
	assert.Zero(t, mine.TotalBookings)

	months, err := svc.MonthlySpending(ctx, domain.UserPrincipal(1))
	require.NoError(t, err)
	assert.Empty(t, months)
}

func TestReportingService_Summaries(t *testing.T) {
	store, user := seed(t)
	svc := NewReportingService(store)
	ctx := context.Background()

	summary, err := svc.AdminSummary(ctx, domain.AdminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalUsers)
	assert.Equal(t, int64(2000), summary.TotalRevenueCents)

	perUser, err := svc.BookingsPerUser(ctx, domain.AdminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, []Point{{"Asha", 1}}, perUser)

	mine, err := svc.UserSummary(ctx, domain.UserPrincipal(user.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), mine.TotalSpentCents)
	assert.Equal(t, "Central", mine.Bookings[0].LotName)

	months, err := svc.MonthlyBookings(ctx, domain.UserPrincipal(user.ID))
	require.NoError(t, err)
	assert.Equal(t, []Point{{"2024-04", 1}}, months)
}

func TestReportingService_Principals(t *testing.T) {
	svc := NewReportingService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.AdminSummary(ctx, domain.UserPrincipal(1))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.UserSummary(ctx, domain.AdminPrincipal())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.MonthlyBookings(ctx, domain.Anonymous())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

