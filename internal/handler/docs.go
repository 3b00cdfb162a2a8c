package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type endpointDoc struct {
	Description string      `json:"description"`
	Auth        string      `json:"auth,omitempty"`
	Body        interface{} `json:"body,omitempty"`
}

// apiDocs describes every public endpoint.  It is served at GET /.
var apiDocs = echo.Map{
	"title":       "Room Reservation and Work Order API",
	"version":     "1.0.0",
	"description": "REST API for booking study and meeting rooms and for tracking maintenance work orders",
	"endpoints": map[string]endpointDoc{
		"GET /api/rooms":                      {Description: "List all rooms"},
		"GET /api/rooms/:id":                  {Description: "Get one room"},
		"GET /api/rooms/:id/reservations":     {Description: "List the reservations of a room"},
		"GET /api/reservations":               {Description: "List all reservations"},
		"POST /api/reservations":              {Description: "Create a reservation", Body: exampleReservation},
		"DELETE /api/reservations/:id":        {Description: "Cancel a reservation"},
		"GET /api/health":                     {Description: "Service and dependency status"},
		"POST /api/auth/login":                {Description: "Exchange username and password for tokens", Body: echo.Map{"username": "admin", "password": "••••••"}},
		"POST /api/auth/refresh":              {Description: "Rotate a refresh token", Body: echo.Map{"refreshToken": "..."}},
		"POST /api/auth/logout":               {Description: "Revoke a refresh token, or every token of the bearer"},
		"GET /api/auth/verify":                {Description: "Show the authenticated principal", Auth: "bearer"},
		"POST /api/auth/users":                {Description: "Create a user", Auth: "bearer, admin"},
		"GET /api/work-orders":                {Description: "List work orders; filters: status, assignedTo", Auth: "bearer"},
		"GET /api/work-orders/stats":          {Description: "Work order totals per status", Auth: "bearer"},
		"GET /api/work-orders/:id":            {Description: "Get one work order", Auth: "bearer"},
		"POST /api/work-orders":               {Description: "Create a work order", Auth: "bearer, admin or technician"},
		"PUT /api/work-orders/:id":            {Description: "Update a work order", Auth: "bearer, admin or technician"},
		"PATCH /api/work-orders/:id/complete": {Description: "Mark a work order completed", Auth: "bearer, admin or technician"},
		"DELETE /api/work-orders/:id":         {Description: "Delete a work order", Auth: "bearer, admin"},
	},
}

var exampleReservation = echo.Map{
	"roomId":    "sala-001",
	"date":      "2030-01-15",
	"startTime": "10:00",
	"endTime":   "12:00",
	"userName":  "Ana García",
	"partySize": 4,
}

// Docs handles GET / with the API description.
func Docs(c echo.Context) error {
	return c.JSON(http.StatusOK, apiDocs)
}
