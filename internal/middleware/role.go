package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/auth"
)

// RequireRole returns a middleware that enforces a minimum administrative
// tier for a route group. Unlike role claims baked into a token, the check
// resolves the caller's AdminRole record on every request, so a revoked
// grant takes effect immediately. It assumes JWTAuth has already stored the
// caller id under "user_id"; a missing or unresolvable caller is rejected.
func RequireRole(resolver *auth.Resolver, required auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("user_id").(uint64)
			if !ok || uid == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			allowed, err := resolver.HasPermission(c.Request().Context(), uid, required)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role lookup failed"})
			}
			if !allowed {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
