// Seller-facing listing endpoints: creating listings, viewing one's own,
// requesting status transitions and uploading images.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/listing"
	"github.com/tradepost/tradepost/internal/queue"
	"github.com/tradepost/tradepost/internal/repository"
	queue_publisher "github.com/tradepost/tradepost/internal/service"
	"github.com/tradepost/tradepost/internal/storage"
)

const maxListingImages = 5

// ListingHandler bundles dependencies for authenticated listing endpoints.
// The public handler is embedded for its response shaping.
type ListingHandler struct {
	Listings   *repository.ListingRepo
	Categories *repository.CategoryRepo
	Images     *storage.ImageStore
	Resolver   *auth.Resolver
	Public     *PublicHandler
}

func NewListingHandler(listings *repository.ListingRepo, categories *repository.CategoryRepo, images *storage.ImageStore, resolver *auth.Resolver, public *PublicHandler) *ListingHandler {
	if listings == nil || categories == nil || images == nil || resolver == nil || public == nil {
		panic("nil dependency passed to NewListingHandler")
	}
	return &ListingHandler{Listings: listings, Categories: categories, Images: images, Resolver: resolver, Public: public}
}

// CreateListing handles POST /v1/listings. New listings always enter the
// moderation queue in status pending with zero views.
func (h *ListingHandler) CreateListing(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		CategoryID  uint64   `json:"category_id"`
		Condition   string   `json:"condition"`
		Location    string   `json:"location"`
		Images      []string `json:"images"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Location = strings.TrimSpace(body.Location)
	if body.Title == "" || strings.TrimSpace(body.Description) == "" || body.Location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, description and location are required"})
	}
	if body.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
	}
	if body.Condition != "new" && body.Condition != "used" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "condition must be new or used"})
	}
	if len(body.Images) == 0 || len(body.Images) > maxListingImages {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "between 1 and 5 images required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Categories.GetByID(ctx, body.CategoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	l := &repository.Listing{
		Title:       body.Title,
		Description: body.Description,
		Price:       body.Price,
		CategoryID:  body.CategoryID,
		Condition:   body.Condition,
		Location:    body.Location,
		SellerID:    sellerID,
	}
	if err := h.Listings.Create(ctx, l, body.Images); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create listing"})
	}
	return c.JSON(http.StatusCreated, h.Public.listingView(c, l, false))
}

// MyListings handles GET /v1/my-listings: all of the caller's listings,
// newest first, any status, with cover image only.
func (h *ListingHandler) MyListings(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Listings.ListBySeller(c.Request().Context(), sellerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": h.Public.listingViews(c, items, true)})
}

// UpdateStatus handles PATCH /v1/listings/:id/status. The lifecycle rules
// decide whether this caller may walk this edge; on success only the status
// column is patched. Moderation decisions additionally publish a
// listing.moderated event.
func (h *ListingHandler) UpdateStatus(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !listing.ValidStatus(body.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx := c.Request().Context()
	l, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	role, err := h.Resolver.ResolveRole(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role lookup failed"})
	}
	if err := listing.Authorize(l.Status, body.Status, l.SellerID == callerID, role); err != nil {
		var te *listing.TransitionError
		if errors.As(err, &te) {
			status := http.StatusConflict
			if te.Code == "permission_denied" {
				status = http.StatusForbidden
			}
			return c.JSON(status, echo.Map{"error": te.Reason})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	if err := h.Listings.UpdateStatus(ctx, id, body.Status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if body.Status == listing.StatusApproved || body.Status == listing.StatusRejected {
		h.publishModerated(l, body.Status, callerID)
	}

	l.Status = body.Status
	return c.JSON(http.StatusOK, h.Public.listingView(c, l, false))
}

// publishModerated fires the moderation event without blocking the request
// outcome; the status change stands even when the broker is down.
func (h *ListingHandler) publishModerated(l *repository.Listing, status string, moderatorID uint64) {
	ev := queue.ListingModeratedEvent{
		ListingID:   l.ID,
		Title:       l.Title,
		SellerID:    l.SellerID,
		CategoryID:  l.CategoryID,
		Price:       l.Price,
		Status:      status,
		ModeratorID: moderatorID,
		DecidedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishListingModerated(ctx, ev)
	}()
}

// Upload handles POST /v1/uploads: a multipart image upload that returns
// the stable reference to store on a listing plus its resolvable URL.
func (h *ListingHandler) Upload(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read upload failed"})
	}
	defer src.Close()

	ref, err := h.Images.Save(src, fh.Filename)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedType):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported image type"})
		case errors.Is(err, storage.ErrTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image too large"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"ref": ref, "url": h.Images.URL(ref)})
}
