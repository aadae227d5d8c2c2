package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindNotFound, KindOf(ErrLotNotFound))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("lookup: %w", ErrBookingNotFound)))
	assert.Equal(t, KindNoCapacity, KindOf(ErrNoCapacity))
	assert.Equal(t, KindInvalidInput, KindOf(InvalidInput("price must be positive")))
	assert.Equal(t, KindStorageFailure, KindOf(StorageFailure("insert lot", errors.New("boom"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("something else")))
}

func TestStorageFailureKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageFailure("claim spot", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorageFailure)
}

func TestPrincipal(t *testing.T) {
	_, err := Anonymous().RequireUser()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = AdminPrincipal().RequireUser()
	assert.ErrorIs(t, err, ErrForbidden)

	id, err := UserPrincipal(7).RequireUser()
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)

	assert.ErrorIs(t, UserPrincipal(7).RequireAdmin(), ErrForbidden)
	assert.ErrorIs(t, Anonymous().RequireAdmin(), ErrUnauthenticated)
	assert.NoError(t, AdminPrincipal().RequireAdmin())
}

func TestUserPassword(t *testing.T) {
	u := &User{Username: "alice"}
	assert.Error(t, u.SetPassword(""))
	assert.NoError(t, u.SetPassword("s3cret"))
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, u.CheckPassword("s3cret"))
	assert.False(t, u.CheckPassword("wrong"))
}
