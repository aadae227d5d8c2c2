package api

import (
	"net/http"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnauthenticated, domain.KindInvalidCredentials:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNoCapacity, domain.KindAlreadyReleased, domain.KindHasOccupiedSpots,
		domain.KindDuplicate, domain.KindConflict:
		return http.StatusConflict
	case domain.KindInsufficientRemovableCapacity:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status of its kind. Storage and unknown
// failures are reported without their cause.
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	_ = c.Error(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, errorResponse{Error: message, Kind: kind})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: message, Kind: domain.KindInvalidInput})
}
