package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/metrics"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/service"
)

const roomsFixture = `[
  {"id": "sala-001", "name": "Sala A", "capacity": 4},
  {"id": "sala-002", "name": "Sala B", "capacity": 10}
]`

func newReservationAPI(t *testing.T) (*echo.Echo, *recordingInvalidator, *service.ReservationService) {
	t.Helper()
	dir := t.TempDir()
	roomsPath := filepath.Join(dir, "rooms.json")
	require.NoError(t, os.WriteFile(roomsPath, []byte(roomsFixture), 0o644))
	store, err := repository.NewFileStore(roomsPath, filepath.Join(dir, "reservations.json"))
	require.NoError(t, err)

	svc := service.NewReservationService(store, service.Options{
		Now:      func() time.Time { return time.Date(2030, 1, 10, 15, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	})
	inv := &recordingInvalidator{}
	h := NewReservationHandler(svc, inv, metrics.New(prometheus.NewRegistry()))

	e := newTestEcho()
	e.GET("/api/rooms", h.ListRooms)
	e.GET("/api/rooms/:id", h.GetRoom)
	e.GET("/api/rooms/:id/reservations", h.ListRoomReservations)
	e.GET("/api/reservations", h.ListReservations)
	e.POST("/api/reservations", h.CreateReservation)
	e.DELETE("/api/reservations/:id", h.CancelReservation)
	return e, inv, svc
}

func reservationBody(room, date, start, end string, party interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		"roomId":    room,
		"date":      date,
		"startTime": start,
		"endTime":   end,
		"userName":  "Ana",
		"partySize": party,
	})
	return string(b)
}

func TestRoomsEndpoints(t *testing.T) {
	e, _, _ := newReservationAPI(t)

	rec := do(e, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	var rooms []model.Room
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	assert.Len(t, rooms, 2)

	rec = do(e, http.MethodGet, "/api/rooms/sala-002", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var room model.Room
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &room))
	assert.Equal(t, 10, room.Capacity)

	rec = do(e, http.MethodGet, "/api/rooms/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "room not found", env.Error)

	rec = do(e, http.MethodGet, "/api/rooms/nope/reservations", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateListCancelReservation(t *testing.T) {
	e, inv, svc := newReservationAPI(t)

	rec := do(e, http.MethodPost, "/api/reservations", reservationBody("sala-001", "2030-01-15", "10:00", "12:00", 3), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Reservation created successfully", env.Message)
	var created model.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, strings.HasPrefix(created.ID, "res-"))
	assert.Equal(t, "Sala A", created.RoomName)
	assert.Equal(t, 3, created.PartySize)
	assert.Equal(t, []string{middleware.CacheNSReservations}, inv.namespaces)

	// Touching intervals do not overlap.
	rec = do(e, http.MethodPost, "/api/reservations", reservationBody("sala-001", "2030-01-15", "12:00", "13:00", "2"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/reservations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.Reservation
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &all))
	assert.Len(t, all, 2)

	rec = do(e, http.MethodGet, "/api/rooms/sala-001/reservations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.Equal(t, "Reservations for room Sala A retrieved successfully", env.Message)

	rec = do(e, http.MethodDelete, "/api/reservations/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var canceled model.Reservation
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &canceled))
	assert.Equal(t, created.ID, canceled.ID)

	rec = do(e, http.MethodDelete, "/api/reservations/"+created.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "reservation not found", decodeEnvelope(t, rec).Error)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateReservationConflict(t *testing.T) {
	e, _, _ := newReservationAPI(t)

	rec := do(e, http.MethodPost, "/api/reservations", reservationBody("sala-001", "2030-01-15", "10:00", "12:00", 2), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodPost, "/api/reservations", reservationBody("sala-001", "2030-01-15", "11:00", "13:00", 2), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "room is not available for the requested time slot", env.Error)

	// Same slot in another room is fine.
	rec = do(e, http.MethodPost, "/api/reservations", reservationBody("sala-002", "2030-01-15", "11:00", "13:00", 2), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateReservationValidation(t *testing.T) {
	e, inv, _ := newReservationAPI(t)

	cases := []struct {
		name   string
		body   string
		status int
		field  string
		msg    string
	}{
		{"missing party size", reservationBody("sala-001", "2030-01-15", "10:00", "12:00", nil), 400, "partySize", "partySize is required"},
		{"bad date", reservationBody("sala-001", "15/01/2030", "10:00", "12:00", 2), 400, "date", "invalid date format, use YYYY-MM-DD"},
		{"end before start", reservationBody("sala-001", "2030-01-15", "12:00", "10:00", 2), 400, "endTime", "endTime must be after startTime"},
		{"past date", reservationBody("sala-001", "2030-01-09", "10:00", "12:00", 2), 400, "date", "reservations cannot be made for past dates"},
		{"over capacity", reservationBody("sala-001", "2030-01-15", "10:00", "12:00", 5), 400, "partySize", "room Sala A has a maximum capacity of 4 people"},
		{"zero party", reservationBody("sala-001", "2030-01-15", "10:00", "12:00", 0), 400, "partySize", "partySize must be greater than 0"},
		{"unknown room", reservationBody("sala-999", "2030-01-15", "10:00", "12:00", 2), 404, "", "room not found"},
		{"invalid json", `{"roomId":`, 400, "", "invalid JSON body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/reservations", tc.body, nil)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.field, env.Field)
			assert.Equal(t, tc.msg, env.Error)
		})
	}
	assert.Empty(t, inv.namespaces)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	e, _, _ := newReservationAPI(t)
	rec := do(e, http.MethodGet, "/api/nothing-here", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "endpoint not found", env.Error)
}
