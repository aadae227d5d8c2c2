package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindUnauthenticated               ErrorKind = "unauthenticated"
	KindForbidden                     ErrorKind = "forbidden"
	KindNotFound                      ErrorKind = "not_found"
	KindNoCapacity                    ErrorKind = "no_capacity"
	KindAlreadyReleased               ErrorKind = "already_released"
	KindHasOccupiedSpots              ErrorKind = "has_occupied_spots"
	KindInsufficientRemovableCapacity ErrorKind = "insufficient_removable_capacity"
	KindInvalidInput                  ErrorKind = "invalid_input"
	KindDuplicate                     ErrorKind = "duplicate"
	KindInvalidCredentials            ErrorKind = "invalid_credentials"
	KindConflict                      ErrorKind = "conflict"
	KindStorageFailure                ErrorKind = "storage_failure"
	KindUnknown                       ErrorKind = "unknown"
)

var (
	ErrUnauthenticated               = errors.New("unauthenticated")
	ErrForbidden                     = errors.New("forbidden")
	ErrNotFound                      = errors.New("not found")
	ErrNoCapacity                    = errors.New("no free spots available in this lot")
	ErrAlreadyReleased               = errors.New("spot already released")
	ErrHasOccupiedSpots              = errors.New("lot has occupied spots")
	ErrInsufficientRemovableCapacity = errors.New("cannot reduce max spots below number of occupied spots")
	ErrInvalidInput                  = errors.New("invalid input")
	ErrDuplicate                     = errors.New("already exists")
	ErrInvalidCredentials            = errors.New("invalid username or password")
	ErrConflict                      = errors.New("concurrent modification")
	ErrStorageFailure                = errors.New("storage failure")

	ErrLotNotFound     = fmt.Errorf("parking lot %w", ErrNotFound)
	ErrSpotNotFound    = fmt.Errorf("parking spot %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrForbidden, KindForbidden},
	{ErrNotFound, KindNotFound},
	{ErrNoCapacity, KindNoCapacity},
	{ErrAlreadyReleased, KindAlreadyReleased},
	{ErrHasOccupiedSpots, KindHasOccupiedSpots},
	{ErrInsufficientRemovableCapacity, KindInsufficientRemovableCapacity},
	{ErrInvalidInput, KindInvalidInput},
	{ErrDuplicate, KindDuplicate},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrConflict, KindConflict},
	{ErrStorageFailure, KindStorageFailure},
}

// KindOf classifies err. Errors outside the taxonomy are KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func StorageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
