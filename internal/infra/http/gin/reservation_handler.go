package ginserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/reservations"
	"staybook/internal/domain/reservation"
)

type ReservationHandler struct {
	Service        *reservations.Service
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type createReservationRequest struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	Infants    int    `json:"infants"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	key := c.GetHeader("Idempotency-Key")
	if key != "" && h.Idempotency != nil {
		if payload, found, err := h.Idempotency.Get(c.Request.Context(), key); err == nil && found {
			c.Header("X-Idempotent-Replay", "true")
			c.Data(http.StatusCreated, "application/json", payload)
			return
		}
	}

	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Service.Create(c.Request.Context(), reservations.CreateInput{
		PropertyID: req.PropertyID,
		GuestID:    actor.ID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.Guests,
		Breakdown: reservation.GuestBreakdown{
			Adults:   req.Adults,
			Children: req.Children,
			Infants:  req.Infants,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := toReservationResponse(res)
	if key != "" && h.Idempotency != nil {
		if payload, err := json.Marshal(resp); err == nil {
			ttl := h.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			if err := h.Idempotency.Set(c.Request.Context(), key, payload, ttl); err != nil && h.Logger != nil {
				h.Logger.Warn("idempotency record failed", "key", key, "error", err)
			}
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func (h ReservationHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.Service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(res))
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

func (h ReservationHandler) transition(c *gin.Context, action reservations.Action) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req transitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	res, err := h.Service.Transition(c.Request.Context(), c.Param("id"), action, actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(res))
}

type patchReservationRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Patch applies one state transition named in the body. The per-action POST
// routes are aliases for clients that prefer verbs in the path.
func (h ReservationHandler) Patch(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req patchReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, err := reservations.ParseAction(req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Service.Transition(c.Request.Context(), c.Param("id"), action, actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(res))
}

func (h ReservationHandler) Confirm(c *gin.Context)  { h.transition(c, reservations.ActionConfirm) }
func (h ReservationHandler) Reject(c *gin.Context)   { h.transition(c, reservations.ActionReject) }
func (h ReservationHandler) Cancel(c *gin.Context)   { h.transition(c, reservations.ActionCancel) }
func (h ReservationHandler) Complete(c *gin.Context) { h.transition(c, reservations.ActionComplete) }

func (h ReservationHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	items, err := h.Service.ListByGuest(c.Request.Context(), actor.ID, c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": toReservationList(items)})
}

func (h ReservationHandler) ListHosted(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	items, err := h.Service.ListByHost(c.Request.Context(), actor.ID, c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": toReservationList(items)})
}

func (h ReservationHandler) Stats(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(c.Request.Context(), actor.ID, c.Query("as") == "host")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

var _ ReservationHTTP = ReservationHandler{}
