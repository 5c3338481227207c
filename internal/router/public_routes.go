package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/handler"
)

// RegisterPublic registers the unauthenticated browse endpoints: categories,
// approved-listing search, featured listings and listing detail. These routes
// apply no JWT middleware; the optional browse middlewares (response cache,
// rate limit) are attached here so they cover exactly the guest surface.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, browse ...echo.MiddlewareFunc) {
	g := e.Group("/v1", browse...)
	g.GET("/categories", p.GetCategories)
	g.GET("/listings", p.GetListings)
	g.GET("/listings/featured", p.GetFeaturedListings)
	g.GET("/listings/:id", p.GetListing)
	// View counting is public so anonymous visits count too. It is a POST,
	// so the response cache never interferes with it.
	g.POST("/listings/:id/views", p.IncrementViews)
}
