package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is implemented by *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type PGStore struct {
	db TxBeginner
}

func NewPGStore(db TxBeginner) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) WithTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit tx", err)
	}
	return nil
}

func newRepositories(q Querier) Repositories {
	return Repositories{
		Lots:     NewLotRepository(q),
		Spots:    NewSpotRepository(q),
		Bookings: NewBookingRepository(q),
		Users:    NewUserRepository(q),
	}
}

var _ Store = (*PGStore)(nil)
