package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// WorkOrderHandler serves /api/work-orders.
type WorkOrderHandler struct {
	Repo  *repository.WorkOrderRepo
	Cache CacheInvalidator
	Now   func() time.Time
}

func NewWorkOrderHandler(repo *repository.WorkOrderRepo, cache CacheInvalidator) *WorkOrderHandler {
	return &WorkOrderHandler{Repo: repo, Cache: cache, Now: time.Now}
}

type createWorkOrderReq struct {
	Title          string     `json:"title" validate:"required,min=3,max=255"`
	Description    string     `json:"description" validate:"required"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Status         string     `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	AssignedTo     string     `json:"assignedTo" validate:"max=100"`
	EstimatedHours *float64   `json:"estimatedHours" validate:"omitempty,gte=0,lte=999.99"`
	DueDate        *time.Time `json:"dueDate"`
	EquipmentID    string     `json:"equipmentId" validate:"max=50"`
	Location       string     `json:"location" validate:"max=100"`
	Cost           *float64   `json:"cost" validate:"omitempty,gte=0"`
	Notes          string     `json:"notes"`
}

// updateWorkOrderReq uses pointers so absent fields stay untouched.
type updateWorkOrderReq struct {
	Title          *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description    *string    `json:"description" validate:"omitempty,min=1"`
	Priority       *string    `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Status         *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	AssignedTo     *string    `json:"assignedTo" validate:"omitempty,max=100"`
	EstimatedHours *float64   `json:"estimatedHours" validate:"omitempty,gte=0,lte=999.99"`
	ActualHours    *float64   `json:"actualHours" validate:"omitempty,gte=0,lte=999.99"`
	DueDate        *time.Time `json:"dueDate"`
	EquipmentID    *string    `json:"equipmentId" validate:"omitempty,max=50"`
	Location       *string    `json:"location" validate:"omitempty,max=100"`
	Cost           *float64   `json:"cost" validate:"omitempty,gte=0"`
	Notes          *string    `json:"notes"`
}

// changes maps the present fields to column updates.
func (r updateWorkOrderReq) changes() map[string]interface{} {
	m := map[string]interface{}{}
	if r.Title != nil {
		m["title"] = *r.Title
	}
	if r.Description != nil {
		m["description"] = *r.Description
	}
	if r.Priority != nil {
		m["priority"] = *r.Priority
	}
	if r.Status != nil {
		m["status"] = *r.Status
	}
	if r.AssignedTo != nil {
		m["assigned_to"] = *r.AssignedTo
	}
	if r.EstimatedHours != nil {
		m["estimated_hours"] = *r.EstimatedHours
	}
	if r.ActualHours != nil {
		m["actual_hours"] = *r.ActualHours
	}
	if r.DueDate != nil {
		m["due_date"] = r.DueDate.UTC()
	}
	if r.EquipmentID != nil {
		m["equipment_id"] = *r.EquipmentID
	}
	if r.Location != nil {
		m["location"] = *r.Location
	}
	if r.Cost != nil {
		m["cost"] = *r.Cost
	}
	if r.Notes != nil {
		m["notes"] = *r.Notes
	}
	return m
}

type completeWorkOrderReq struct {
	ActualHours *float64 `json:"actualHours" validate:"omitempty,gte=0,lte=999.99"`
}

// List handles GET /api/work-orders?status=&assignedTo=.
func (h *WorkOrderHandler) List(c echo.Context) error {
	f := repository.WorkOrderFilter{
		Status:     c.QueryParam("status"),
		AssignedTo: c.QueryParam("assignedTo"),
	}
	list, err := h.Repo.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return successList(c, "Work orders retrieved successfully", list, len(list))
}

// Stats handles GET /api/work-orders/stats.
func (h *WorkOrderHandler) Stats(c echo.Context) error {
	s, err := h.Repo.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Statistics retrieved successfully", s)
}

// Get handles GET /api/work-orders/:id.
func (h *WorkOrderHandler) Get(c echo.Context) error {
	w, err := h.Repo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, http.StatusOK, "Work order retrieved successfully", w)
}

// Create handles POST /api/work-orders.  The creator is taken from the
// access token.
func (h *WorkOrderHandler) Create(c echo.Context) error {
	var req createWorkOrderReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	createdBy, _ := c.Get(middleware.CtxUserID).(string)
	w := &model.WorkOrder{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		Status:         req.Status,
		AssignedTo:     req.AssignedTo,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		EquipmentID:    req.EquipmentID,
		Location:       req.Location,
		Cost:           req.Cost,
		Notes:          req.Notes,
		CreatedBy:      createdBy,
	}
	if err := h.Repo.Create(c.Request().Context(), w); err != nil {
		return err
	}
	h.invalidate(c)
	return success(c, http.StatusCreated, "Work order created successfully", w)
}

// Update handles PUT /api/work-orders/:id.
func (h *WorkOrderHandler) Update(c echo.Context) error {
	var req updateWorkOrderReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	changes := req.changes()
	if len(changes) == 0 {
		return fail(c, http.StatusBadRequest, "at least one field must be provided")
	}
	if s, ok := changes["status"]; ok && s == model.StatusCompleted {
		changes["completed_at"] = h.now().UTC()
	}
	w, err := h.Repo.Update(c.Request().Context(), c.Param("id"), changes)
	if err != nil {
		return h.respondError(c, err)
	}
	h.invalidate(c)
	return success(c, http.StatusOK, "Work order updated successfully", w)
}

// Complete handles PATCH /api/work-orders/:id/complete.
func (h *WorkOrderHandler) Complete(c echo.Context) error {
	var req completeWorkOrderReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	w, err := h.Repo.Complete(c.Request().Context(), c.Param("id"), req.ActualHours, h.now())
	if err != nil {
		return h.respondError(c, err)
	}
	h.invalidate(c)
	return success(c, http.StatusOK, "Work order marked as completed", w)
}

// Delete handles DELETE /api/work-orders/:id.
func (h *WorkOrderHandler) Delete(c echo.Context) error {
	w, err := h.Repo.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	h.invalidate(c)
	return success(c, http.StatusOK, "Work order deleted successfully", w)
}

func (h *WorkOrderHandler) respondError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrWorkOrderNotFound) {
		return fail(c, http.StatusNotFound, "work order not found")
	}
	return err
}

func (h *WorkOrderHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *WorkOrderHandler) invalidate(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(c.Request().Context(), middleware.CacheNSWorkOrders); err != nil {
		c.Logger().Warnf("invalidate %s cache: %v", middleware.CacheNSWorkOrders, err)
	}
}
