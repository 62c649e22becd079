package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/reservations"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/catalog"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

type errorClass struct {
	status int
	code   string
}

var errorClasses = []struct {
	err   error
	class errorClass
}{
	{daterange.ErrInvalidInterval, errorClass{http.StatusUnprocessableEntity, "invalid_interval"}},
	{reservations.ErrCheckInPast, errorClass{http.StatusUnprocessableEntity, "invalid_interval"}},
	{reservation.ErrInvalidGuests, errorClass{http.StatusUnprocessableEntity, "invalid_guests"}},
	{reservation.ErrGuestCountMismatch, errorClass{http.StatusUnprocessableEntity, "invalid_guests"}},
	{reservation.ErrCapacityExceeded, errorClass{http.StatusUnprocessableEntity, "capacity_exceeded"}},
	{reservation.ErrOwnProperty, errorClass{http.StatusUnprocessableEntity, "own_property"}},
	{catalog.ErrPropertyUnavailable, errorClass{http.StatusUnprocessableEntity, "property_unavailable"}},
	{availability.ErrConflict, errorClass{http.StatusConflict, "dates_conflict"}},
	{reservation.ErrConcurrentUpdate, errorClass{http.StatusConflict, "concurrent_update"}},
	{reservation.ErrInvalidTransition, errorClass{http.StatusConflict, "invalid_transition"}},
	{reservation.ErrForbidden, errorClass{http.StatusForbidden, "forbidden"}},
	{reservation.ErrNotFound, errorClass{http.StatusNotFound, "not_found"}},
	{catalog.ErrPropertyNotFound, errorClass{http.StatusNotFound, "not_found"}},
	{reservations.ErrUnknownAction, errorClass{http.StatusBadRequest, "unknown_action"}},
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500 so internals never leak to clients.
func writeError(c *gin.Context, err error) {
	for _, entry := range errorClasses {
		if errors.Is(err, entry.err) {
			c.JSON(entry.class.status, gin.H{"error": err.Error(), "code": entry.class.code})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}
