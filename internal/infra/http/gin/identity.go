package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/domain/reservation"
)

// Identity propagates the caller resolved by the edge gateway. The gateway
// authenticates and forwards X-User-ID and X-User-Role; this service only
// enforces what those headers say.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")
		if id != "" {
			c.Set("actor", reservation.Actor{ID: id, Role: parseRole(role)})
		}
		c.Next()
	}
}

func parseRole(raw string) reservation.Role {
	switch reservation.Role(raw) {
	case reservation.RoleHost:
		return reservation.RoleHost
	case reservation.RoleAdmin:
		return reservation.RoleAdmin
	default:
		return reservation.RoleGuest
	}
}

// requireActor aborts with 401 when the request carries no identity.
func requireActor(c *gin.Context) (reservation.Actor, bool) {
	v, ok := c.Get("actor")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return reservation.Actor{}, false
	}
	actor, ok := v.(reservation.Actor)
	if !ok || actor.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return reservation.Actor{}, false
	}
	return actor, true
}
