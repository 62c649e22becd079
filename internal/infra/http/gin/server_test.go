package ginserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/reservations"
	"staybook/internal/domain/catalog"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/storage/memory"
)

type testServer struct {
	handler http.Handler
	now     time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{now: time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)}

	properties := memory.NewPropertyRepository(catalog.Property{
		ID:                 "p1",
		Host:               "host-1",
		Title:              "Sea view loft",
		NightlyRate:        money.Must(100, "USD"),
		MaxGuests:          4,
		Active:             true,
		CancellationPolicy: "moderate",
	})
	svc := reservations.NewService(
		properties,
		memory.NewReservationRepository(),
		memory.NewAvailabilityIndex(),
		pricing.NewCalculator(pricing.DefaultServiceFeeBps, pricing.DefaultTaxBps),
		reservations.WithClock(func() time.Time { return ts.now }),
	)

	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	server := ginserver.NewServer(cfg, obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Reservation: ginserver.ReservationHandler{
			Service:     svc,
			Idempotency: memory.NewIdempotencyStore(),
		},
		Availability: ginserver.AvailabilityHandler{Service: svc},
	})
	ts.handler = server.Handler
	return ts
}

type request struct {
	method  string
	path    string
	body    any
	user    string
	role    string
	headers map[string]string
}

func (ts *testServer) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}
	httpReq := httptest.NewRequest(req.method, req.path, &body)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.user != "" {
		httpReq.Header.Set("X-User-ID", req.user)
		httpReq.Header.Set("X-User-Role", req.role)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httpReq)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createBody() map[string]any {
	return map[string]any{
		"property_id": "p1",
		"check_in":    "2026-10-10",
		"check_out":   "2026-10-13",
		"guests":      2,
		"adults":      2,
	}
}

func (ts *testServer) createReservation(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: createBody(), user: "guest-1", role: "guest"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func TestCreateReservation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: createBody(), user: "guest-1", role: "guest"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "PENDING", body["state"])
	assert.Equal(t, "host-1", body["host_id"])
	assert.Equal(t, "moderate", body["cancellation_policy"])
	price := body["price"].(map[string]any)
	assert.Equal(t, float64(345), price["total"].(map[string]any)["amount"])
	assert.Equal(t, float64(9), price["service_fee"].(map[string]any)["amount"])
	assert.Equal(t, float64(36), price["taxes"].(map[string]any)["amount"])
}

func TestCreateRequiresIdentity(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: createBody()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateValidationStatuses(t *testing.T) {
	ts := newTestServer(t)

	t.Run("empty interval", func(t *testing.T) {
		body := createBody()
		body["check_out"] = "2026-10-10"
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: body, user: "guest-1", role: "guest"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "invalid_interval", decode(t, rec)["code"])
	})

	t.Run("past check-in", func(t *testing.T) {
		body := createBody()
		body["check_in"] = "2026-09-01"
		body["check_out"] = "2026-09-03"
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: body, user: "guest-1", role: "guest"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("capacity", func(t *testing.T) {
		body := createBody()
		body["guests"] = 6
		body["adults"] = 6
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: body, user: "guest-1", role: "guest"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "capacity_exceeded", decode(t, rec)["code"])
	})

	t.Run("malformed date", func(t *testing.T) {
		body := createBody()
		body["check_in"] = "next tuesday"
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: body, user: "guest-1", role: "guest"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown property", func(t *testing.T) {
		body := createBody()
		body["property_id"] = "ghost"
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: body, user: "guest-1", role: "guest"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateConflictStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.createReservation(t)

	body := createBody()
	body["check_in"] = "2026-10-12"
	body["check_out"] = "2026-10-14"
	rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: body, user: "guest-2", role: "guest"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "dates_conflict", decode(t, rec)["code"])
}

func TestIdempotentCreateReplays(t *testing.T) {
	ts := newTestServer(t)
	headers := map[string]string{"Idempotency-Key": "abc-123"}

	first := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: createBody(), user: "guest-1", role: "guest", headers: headers})
	require.Equal(t, http.StatusCreated, first.Code)

	second := ts.do(t, request{method: "POST", path: "/api/v1/reservations", body: createBody(), user: "guest-1", role: "guest", headers: headers})
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replay"))
	assert.Equal(t, decode(t, first)["id"], decode(t, second)["id"])
}

func TestTransitions(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createReservation(t)

	t.Run("guest cannot confirm", func(t *testing.T) {
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations/" + id + "/confirm", user: "guest-1", role: "guest"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("host confirms", func(t *testing.T) {
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations/" + id + "/confirm", user: "host-1", role: "host"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "CONFIRMED", decode(t, rec)["state"])
	})

	t.Run("cannot complete before checkout", func(t *testing.T) {
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations/" + id + "/complete", user: "host-1", role: "host"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "invalid_transition", decode(t, rec)["code"])
	})

	t.Run("guest cancels with refund", func(t *testing.T) {
		ts.now = time.Date(2026, time.October, 8, 10, 0, 0, 0, time.UTC)
		rec := ts.do(t, request{
			method: "POST", path: "/api/v1/reservations/" + id + "/cancel",
			body: map[string]any{"reason": "change of plans"},
			user: "guest-1", role: "guest",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "CANCELLED", body["state"])
		refund := body["refund"].(map[string]any)
		assert.Equal(t, float64(172), refund["amount"])
	})

	t.Run("terminal reservation rejects further transitions", func(t *testing.T) {
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations/" + id + "/confirm", user: "host-1", role: "host"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := ts.do(t, request{method: "POST", path: "/api/v1/reservations/ghost/confirm", user: "host-1", role: "host"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPatchTransition(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createReservation(t)

	t.Run("unknown action", func(t *testing.T) {
		rec := ts.do(t, request{
			method: "PATCH", path: "/api/v1/reservations/" + id,
			body: map[string]any{"action": "publish"},
			user: "host-1", role: "host",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "unknown_action", decode(t, rec)["code"])
	})

	t.Run("guest cannot reject", func(t *testing.T) {
		rec := ts.do(t, request{
			method: "PATCH", path: "/api/v1/reservations/" + id,
			body: map[string]any{"action": "reject"},
			user: "guest-1", role: "guest",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("host confirms", func(t *testing.T) {
		rec := ts.do(t, request{
			method: "PATCH", path: "/api/v1/reservations/" + id,
			body: map[string]any{"action": "Confirm"},
			user: "host-1", role: "host",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "CONFIRMED", decode(t, rec)["state"])
	})

	t.Run("guest cancels with reason", func(t *testing.T) {
		ts.now = time.Date(2026, time.October, 8, 10, 0, 0, 0, time.UTC)
		rec := ts.do(t, request{
			method: "PATCH", path: "/api/v1/reservations/" + id,
			body: map[string]any{"action": "cancel", "reason": "change of plans"},
			user: "guest-1", role: "guest",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "CANCELLED", body["state"])
		assert.Equal(t, float64(172), body["refund"].(map[string]any)["amount"])
	})
}

func TestGetAccess(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createReservation(t)

	rec := ts.do(t, request{method: "GET", path: "/api/v1/reservations/" + id, user: "guest-1", role: "guest"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, request{method: "GET", path: "/api/v1/reservations/" + id, user: "nosy", role: "guest"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQuoteAndAvailabilityEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, request{method: "GET", path: "/api/v1/properties/p1/quote?check_in=2026-10-10&check_out=2026-10-13"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(3), body["nights"])
	assert.Equal(t, float64(345), body["total"].(map[string]any)["amount"])

	rec = ts.do(t, request{method: "GET", path: "/api/v1/properties/p1/availability?check_in=2026-10-10&check_out=2026-10-13"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["available"])

	ts.createReservation(t)

	rec = ts.do(t, request{method: "GET", path: "/api/v1/properties/p1/availability?check_in=2026-10-12&check_out=2026-10-14"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["available"])
}

func TestListsAndStatsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createReservation(t)

	rec := ts.do(t, request{method: "GET", path: "/api/v1/me/reservations", user: "guest-1", role: "guest"})
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["reservations"].([]any)
	assert.Len(t, items, 1)

	rec = ts.do(t, request{method: "GET", path: "/api/v1/me/reservations?status=cancelled", user: "guest-1", role: "guest"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["reservations"])

	rec = ts.do(t, request{method: "GET", path: "/api/v1/host/reservations", user: "host-1", role: "host"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["reservations"].([]any), 1)

	rec = ts.do(t, request{method: "GET", path: "/api/v1/me/reservations/stats", user: "guest-1", role: "guest"})
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)
	assert.Equal(t, float64(1), stats["total"])
	assert.Equal(t, float64(1), stats["pending"])
}
