package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/airreservation/internal/auth"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/gin-gonic/gin"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrTokenExpired, http.StatusUnauthorized},
	{auth.ErrTokenInvalid, http.StatusUnauthorized},
	{domain.ErrNotOwner, http.StatusForbidden},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrFlightNotFound, http.StatusNotFound},
	{domain.ErrBookingNotFound, http.StatusNotFound},
	{domain.ErrDuplicateUsername, http.StatusConflict},
	{domain.ErrSeatConflict, http.StatusConflict},
	{domain.ErrAlreadyCheckedIn, http.StatusConflict},
	{domain.ErrDuplicatePNR, http.StatusConflict},
	{domain.ErrNotCheckedIn, http.StatusConflict},
	{domain.ErrFlightUnavailable, http.StatusUnprocessableEntity},
	{domain.ErrMissingFields, http.StatusBadRequest},
	{domain.ErrInvalidUsername, http.StatusBadRequest},
	{domain.ErrInvalidPassword, http.StatusBadRequest},
	{domain.ErrPasswordMismatch, http.StatusBadRequest},
	{domain.ErrSeatCountMismatch, http.StatusBadRequest},
	{domain.ErrInvalidSeat, http.StatusBadRequest},
	{domain.ErrInvalidPersons, http.StatusBadRequest},
	{domain.ErrInvalidFareClass, http.StatusBadRequest},
	{domain.ErrInvalidPaymentMethod, http.StatusBadRequest},
	{domain.ErrInvalidStatus, http.StatusBadRequest},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError hides the cause of unexpected failures from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
