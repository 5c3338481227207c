package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/handler"
	"github.com/tradepost/tradepost/internal/middleware"
)

// RegisterAdmin registers the administration endpoints. Role tiers are
// enforced per group: moderation needs moderator or above, role management
// needs super admin. The role check hits the database on every request so a
// revoked grant takes effect immediately.
//
// POST /v1/admin/init is deliberately outside both groups: it bootstraps the
// first super admin when none exists yet, so there is nobody to authorize
// against. The endpoint is globally one-shot.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, l *handler.ListingHandler, resolver *auth.Resolver, jwtSecret string) {
	e.POST("/v1/admin/init", a.InitializeSuperAdmin)

	authed := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	authed.GET("/me/role", a.MyRoleStatus)

	mod := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(resolver, auth.RoleModerator),
	)
	mod.GET("/listings/pending", a.PendingListings)
	mod.POST("/listings/:id/approve", func(c echo.Context) error { return a.Approve(c, l) })
	mod.POST("/listings/:id/reject", func(c echo.Context) error { return a.Reject(c, l) })
	mod.PATCH("/listings/:id/feature", a.Feature)
	mod.GET("/stats", a.Stats)

	super := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(resolver, auth.RoleSuperAdmin),
	)
	super.GET("/roles", a.ListAdmins)
	super.POST("/roles", a.GrantRole)
	super.DELETE("/roles", a.RevokeRole)
}
