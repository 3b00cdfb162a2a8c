package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth.
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxUsername = "username"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject, role and username claims into the
// request context.  The provided secret must match the one used when
// issuing tokens.  Handlers read the principal via c.Get(CtxUserID),
// c.Get(CtxRole) and c.Get(CtxUsername), all strings.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <jwt>"; anything else is 401.
			if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ") {
				return deny(c, http.StatusUnauthorized, "missing bearer token")
			}
			claims, ok := bearerClaims(c, secret)
			if !ok {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			setPrincipal(c, claims)
			return next(c)
		}
	}
}

// deny writes the standard error envelope.
func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}
