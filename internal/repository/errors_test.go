package repository

import (
	"errors"
	"testing"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, domain.ErrDuplicate},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domain.ErrConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domain.ErrConflict},
		{"other pg error", &pgconn.PgError{Code: "57014"}, domain.ErrStorageFailure},
		{"plain error", errors.New("connection refused"), domain.ErrStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError("op", tt.err), tt.want)
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
}

func TestMapLookupError(t *testing.T) {
	err := mapLookupError("get lot", pgx.ErrNoRows, domain.ErrLotNotFound)
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	err = mapLookupError("get lot", errors.New("timeout"), domain.ErrLotNotFound)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}
