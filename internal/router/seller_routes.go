package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/handler"
	"github.com/tradepost/tradepost/internal/middleware"
)

// RegisterSeller registers the authenticated marketplace endpoints: creating
// and managing one's own listings, image uploads and messaging. Every route
// requires a valid JWT; ownership and lifecycle rules are enforced inside
// the handlers.
func RegisterSeller(e *echo.Echo, l *handler.ListingHandler, m *handler.MessageHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/listings", l.CreateListing)
	g.GET("/my-listings", l.MyListings)
	g.PATCH("/listings/:id/status", l.UpdateStatus)
	g.POST("/uploads", l.Upload)

	g.POST("/messages", m.Send)
	g.GET("/listings/:id/messages", m.GetConversation)
	g.GET("/conversations", m.ListConversations)
	g.POST("/conversations/read", m.MarkRead)
}
