package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig lists the values sent in the Access-Control-Allow-* headers.
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

// DefaultCORSConfig allows every origin and the methods and headers used by
// the reservation and work-order APIs.
var DefaultCORSConfig = CORSConfig{
	AllowOrigin:  "*",
	AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
}

// CORS sets the allow headers on every response and answers any OPTIONS
// request with 200 and an empty body before routing.  Register it with
// e.Pre so preflights for unknown routes are answered too.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	if cfg.AllowOrigin == "" {
		cfg.AllowOrigin = "*"
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, cfg.AllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
