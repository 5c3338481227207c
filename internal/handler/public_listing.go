// Public browsing API: categories, approved-listing search, featured
// listings and listing detail. These routes apply no JWT middleware; the
// view-counter endpoint is also public so anonymous visits count.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/repository"
	"github.com/tradepost/tradepost/internal/storage"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
type PublicHandler struct {
	Listings   *repository.ListingRepo
	Categories *repository.CategoryRepo
	Users      *repository.UserRepo
	Images     *storage.ImageStore
}

func NewPublicHandler(listings *repository.ListingRepo, categories *repository.CategoryRepo, users *repository.UserRepo, images *storage.ImageStore) *PublicHandler {
	if listings == nil || categories == nil || users == nil || images == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Listings: listings, Categories: categories, Users: users, Images: images}
}

// sellerPart is the seller identity joined onto listing responses. It is
// null when the seller record no longer resolves.
type sellerPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// listingView is the joined listing shape shared by browse, detail, seller
// and moderation responses.
type listingView struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	CategoryID  uint64      `json:"category_id"`
	Category    string      `json:"category"`
	Condition   string      `json:"condition"`
	Location    string      `json:"location"`
	SellerID    uint64      `json:"seller_id"`
	Seller      *sellerPart `json:"seller"`
	Status      string      `json:"status"`
	Featured    bool        `json:"featured"`
	Views       uint64      `json:"views"`
	ImageURLs   []string    `json:"image_urls"`
	CreatedAt   time.Time   `json:"created_at"`
}

// listingView joins seller identity, category name and image URLs onto a
// listing row. Missing references degrade to null/"Unknown" rather than
// failing the whole response. coverOnly limits images to the first one for
// list views.
func (h *PublicHandler) listingView(c echo.Context, l *repository.Listing, coverOnly bool) listingView {
	ctx := c.Request().Context()
	v := listingView{
		ID: l.ID, Title: l.Title, Description: l.Description, Price: l.Price,
		CategoryID: l.CategoryID, Category: "Unknown", Condition: l.Condition,
		Location: l.Location, SellerID: l.SellerID, Status: l.Status,
		Featured: l.Featured, Views: l.Views, CreatedAt: l.CreatedAt,
		ImageURLs: []string{},
	}
	if cat, err := h.Categories.GetByID(ctx, l.CategoryID); err == nil {
		v.Category = cat.Name
	}
	if u, err := h.Users.GetByID(ctx, l.SellerID); err == nil {
		v.Seller = &sellerPart{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	if refs, err := h.Listings.Images(ctx, l.ID); err == nil {
		if coverOnly && len(refs) > 1 {
			refs = refs[:1]
		}
		v.ImageURLs = h.Images.URLs(refs)
	}
	return v
}

func (h *PublicHandler) listingViews(c echo.Context, ls []*repository.Listing, coverOnly bool) []listingView {
	out := make([]listingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, h.listingView(c, l, coverOnly))
	}
	return out
}

// GetCategories handles GET /v1/categories.
func (h *PublicHandler) GetCategories(c echo.Context) error {
	items, err := h.Categories.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetListings handles GET /v1/listings with optional category_id, location,
// min_price, max_price, search and limit query parameters. Only approved
// listings are returned.
func (h *PublicHandler) GetListings(c echo.Context) error {
	q := repository.SearchQuery{
		Location: c.QueryParam("location"),
		Search:   c.QueryParam("search"),
		MinPrice: -1,
		MaxPrice: -1,
	}
	if s := c.QueryParam("category_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}
		q.CategoryID = id
	}
	if s := c.QueryParam("min_price"); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil || p < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_price"})
		}
		q.MinPrice = p
	}
	if s := c.QueryParam("max_price"); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil || p < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		q.MaxPrice = p
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		q.Limit = n
	}
	items, err := h.Listings.SearchApproved(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": h.listingViews(c, items, false)})
}

// GetFeaturedListings handles GET /v1/listings/featured.
func (h *PublicHandler) GetFeaturedListings(c echo.Context) error {
	items, err := h.Listings.ListFeatured(c.Request().Context(), 8)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": h.listingViews(c, items, false)})
}

// GetListing handles GET /v1/listings/:id. Any status is visible by id;
// moderation state is part of the response.
func (h *PublicHandler) GetListing(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	l, err := h.Listings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, h.listingView(c, l, false))
}

// IncrementViews handles POST /v1/listings/:id/views. The counter only ever
// increases.
func (h *PublicHandler) IncrementViews(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Listings.IncrementViews(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.NoContent(http.StatusNoContent)
}
