package lots

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectDeleteLot queues the statements DeleteLot issues against Postgres
// up to the guarded spot delete.
func expectDeleteLot(pool pgxmock.PgxPoolIface, lotID int64, maxSpots int, spotsDeleted int64) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	pool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	pool.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE id=$1 FOR UPDATE`)).
		WithArgs(lotID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "prime_location", "address", "pincode", "price_per_hour_cents", "max_spots", "revenue_cents", "created_at", "updated_at"}).
			AddRow(lotID, "Central", "1 Main St", "560001", int64(1000), maxSpots, int64(0), now, now))
	pool.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM parking_spots WHERE lot_id=$1 AND status=$2`)).
		WithArgs(lotID, domain.SpotStatusOccupied).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	pool.ExpectExec(regexp.QuoteMeta(`DELETE FROM parking_spots WHERE lot_id=$1 AND status <> $2`)).
		WithArgs(lotID, domain.SpotStatusOccupied).
		WillReturnResult(pgxmock.NewResult("DELETE", spotsDeleted))
}

func TestLotService_DeleteLot_Postgres(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	expectDeleteLot(pool, 1, 2, 2)
	pool.ExpectExec(regexp.QuoteMeta(`DELETE FROM parking_lots WHERE id=$1`)).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectCommit()

	err = NewLotService(repository.NewPGStore(pool)).DeleteLot(context.Background(), admin, 1)

	assert.NoError(t, err)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestLotService_DeleteLot_Postgres_SpotClaimedAfterCount(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	// the guard skipped one spot a booking occupied after the count
	expectDeleteLot(pool, 1, 2, 1)
	pool.ExpectRollback()

	err = NewLotService(repository.NewPGStore(pool)).DeleteLot(context.Background(), admin, 1)

	assert.ErrorIs(t, err, domain.ErrHasOccupiedSpots)
	assert.NoError(t, pool.ExpectationsWereMet())
}
