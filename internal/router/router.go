// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/handler"
	"github.com/tradepost/tradepost/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// operations live under /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotating refresh: the old refresh token is revoked and a new pair issued.
	g.POST("/refresh", a.Refresh)
	// Non-rotating variant: issues a new access token only.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout with a refresh token in the body needs no JWT.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	// Authenticated logout without a body revokes every session of the caller.
	auth.POST("/logout", a.Logout)
}
