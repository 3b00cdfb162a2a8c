package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/utils"
)

// currentUserID returns the authenticated user id stored by JWTAuth or
// IdentifyBearer, or "anon" for unauthenticated requests.  The rate limiter
// keys buckets on it.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// bearerClaims parses the request's "Bearer <jwt>" header.  ok is false
// when the header is missing or the token does not verify.
func bearerClaims(c echo.Context, secret string) (utils.Claims, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return utils.Claims{}, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return utils.Claims{}, false
	}
	return claims, true
}

func setPrincipal(c echo.Context, claims utils.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxUsername, claims.Username)
}

// IdentifyBearer records the principal of a valid bearer token without
// rejecting anything.  It runs ahead of the rate limiter so the "user"
// key strategies see a verified user id; requests without a valid token
// stay "anon" and routes that need a session still use JWTAuth.
func IdentifyBearer(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, ok := bearerClaims(c, secret); ok {
				setPrincipal(c, claims)
			}
			return next(c)
		}
	}
}
