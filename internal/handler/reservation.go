package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/metrics"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/service"
)

// CacheInvalidator drops cached responses of a namespace.
// *middleware.CacheInvalidator satisfies it, including a nil one.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ns string) error
}

// ReservationHandler serves the room catalog and the reservation API.
type ReservationHandler struct {
	Svc     *service.ReservationService
	Cache   CacheInvalidator
	Metrics *metrics.Metrics
}

func NewReservationHandler(svc *service.ReservationService, cache CacheInvalidator, m *metrics.Metrics) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc, Cache: cache, Metrics: m}
}

// ListReservations handles GET /api/reservations.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	list, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, http.StatusOK, "Reservations retrieved successfully", list)
}

// CreateReservation handles POST /api/reservations.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req service.ReservationRequest
	if err := bindJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	res, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	h.Metrics.Created()
	h.invalidate(c)
	return success(c, http.StatusCreated, "Reservation created successfully", res)
}

// CancelReservation handles DELETE /api/reservations/:id.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return fail(c, http.StatusBadRequest, "reservation id is required")
	}
	res, err := h.Svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	h.Metrics.Canceled()
	h.invalidate(c)
	return success(c, http.StatusOK, "Reservation canceled successfully", res)
}

// ListRooms handles GET /api/rooms.
func (h *ReservationHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Svc.Rooms(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, http.StatusOK, "Rooms retrieved successfully", rooms)
}

// GetRoom handles GET /api/rooms/:id.
func (h *ReservationHandler) GetRoom(c echo.Context) error {
	room, err := h.Svc.Room(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, http.StatusOK, "Room retrieved successfully", room)
}

// ListRoomReservations handles GET /api/rooms/:id/reservations.
func (h *ReservationHandler) ListRoomReservations(c echo.Context) error {
	room, list, err := h.Svc.ListByRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, http.StatusOK, fmt.Sprintf("Reservations for room %s retrieved successfully", room.Name), list)
}

// respondError maps service errors onto status codes.  Storage and unknown
// errors are logged and reported without detail.
func (h *ReservationHandler) respondError(c echo.Context, err error) error {
	var ve *service.ValidationError
	var ce *service.ConflictError
	switch {
	case errors.As(err, &ve):
		h.Metrics.Invalid(ve.Field)
		return failField(c, http.StatusBadRequest, ve.Field, ve.Message)
	case errors.Is(err, service.ErrRoomNotFound):
		return fail(c, http.StatusNotFound, "room not found")
	case errors.Is(err, service.ErrReservationNotFound):
		return fail(c, http.StatusNotFound, "reservation not found")
	case errors.As(err, &ce):
		h.Metrics.Conflict()
		return fail(c, http.StatusConflict, ce.Error())
	}
	c.Logger().Errorf("reservation api: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	return fail(c, http.StatusInternalServerError, "internal server error")
}

func (h *ReservationHandler) invalidate(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(c.Request().Context(), middleware.CacheNSReservations); err != nil {
		c.Logger().Warnf("invalidate %s cache: %v", middleware.CacheNSReservations, err)
	}
}
