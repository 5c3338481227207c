// Administration endpoints: super-admin bootstrap, role grants, the
// moderation queue, approve/reject/feature decisions and marketplace stats.
// Role checks live in the admin service and the lifecycle rules; the
// handlers translate their errors to HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/admin"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/listing"
	"github.com/tradepost/tradepost/internal/repository"
)

// AdminHandler bundles the admin service and the repositories needed for
// moderation views.
type AdminHandler struct {
	Svc      *admin.Service
	Listings *repository.ListingRepo
	Users    *repository.UserRepo
	Roles    *repository.AdminRoleRepo
	Public   *PublicHandler
}

func NewAdminHandler(svc *admin.Service, listings *repository.ListingRepo, users *repository.UserRepo, roles *repository.AdminRoleRepo, public *PublicHandler) *AdminHandler {
	if svc == nil || listings == nil || users == nil || roles == nil || public == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Svc: svc, Listings: listings, Users: users, Roles: roles, Public: public}
}

// InitializeSuperAdmin handles POST /v1/admin/init. This endpoint is open
// (there is nobody to authorize against yet) but globally one-shot: once a
// super admin exists it fails with 409 forever.
func (h *AdminHandler) InitializeSuperAdmin(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	err := h.Svc.InitializeSuperAdmin(c.Request().Context(), body.Email)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "super admin initialized successfully"})
	case errors.Is(err, repository.ErrAlreadyInitialized):
		return c.JSON(http.StatusConflict, echo.Map{"error": "super admin already exists"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user with this email not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "initialization failed"})
	}
}

// GrantRole handles POST /v1/admin/roles.
func (h *AdminHandler) GrantRole(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and role are required"})
	}
	err = h.Svc.Grant(c.Request().Context(), callerID, body.Email, body.Role)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": body.Role + " role granted to " + body.Email})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only super admins can grant admin roles"})
	case errors.Is(err, admin.ErrUnknownRole):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be moderator or super_admin"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grant failed"})
	}
}

// RevokeRole handles DELETE /v1/admin/roles. Revoking a user with no grant
// succeeds; revocation is idempotent.
func (h *AdminHandler) RevokeRole(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	err = h.Svc.Revoke(c.Request().Context(), callerID, body.Email)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "admin role revoked from " + body.Email})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only super admins can revoke admin roles"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
}

// ListAdmins handles GET /v1/admin/roles.
func (h *AdminHandler) ListAdmins(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Svc.List(c.Request().Context(), callerID)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only super admins can view all admins"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}

// MyRoleStatus handles GET /v1/me/role: the caller's resolved tier, for
// clients deciding whether to show moderation UI.
func (h *AdminHandler) MyRoleStatus(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := h.Svc.Resolver().ResolveRole(c.Request().Context(), callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"is_admin": role.Meets(auth.RoleModerator),
		"role":     role.String(),
	})
}

// PendingListings handles GET /v1/admin/listings/pending?limit&offset — the
// moderation queue, newest first. The RequireRole middleware has already
// gated this route to moderators and above.
func (h *AdminHandler) PendingListings(c echo.Context) error {
	limit, offset := 20, 0
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if s := c.QueryParam("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}
	items, total, err := h.Listings.ListByStatus(c.Request().Context(), listing.StatusPending, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": h.Public.listingViews(c, items, true),
		"total": total,
	})
}

// Approve handles POST /v1/admin/listings/:id/approve.
func (h *AdminHandler) Approve(c echo.Context, lh *ListingHandler) error {
	return h.moderate(c, lh, listing.StatusApproved)
}

// Reject handles POST /v1/admin/listings/:id/reject.
func (h *AdminHandler) Reject(c echo.Context, lh *ListingHandler) error {
	return h.moderate(c, lh, listing.StatusRejected)
}

// moderate applies an approve/reject decision through the same lifecycle
// rules as the generic status endpoint, then publishes the moderation
// event.
func (h *AdminHandler) moderate(c echo.Context, lh *ListingHandler, target string) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	l, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	role, err := h.Svc.Resolver().ResolveRole(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role lookup failed"})
	}
	if err := listing.Authorize(l.Status, target, l.SellerID == callerID, role); err != nil {
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
	if err := h.Listings.UpdateStatus(ctx, id, target); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	lh.publishModerated(l, target, callerID)
	l.Status = target
	return c.JSON(http.StatusOK, h.Public.listingView(c, l, false))
}

// Feature handles PATCH /v1/admin/listings/:id/feature. The flag is
// orthogonal to the status machine and may be toggled in any status.
func (h *AdminHandler) Feature(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Featured bool `json:"featured"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	role, err := h.Svc.Resolver().ResolveRole(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role lookup failed"})
	}
	if !listing.CanFeature(role) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only admins can feature listings"})
	}
	l, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Listings.SetFeatured(ctx, id, body.Featured); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	l.Featured = body.Featured
	return c.JSON(http.StatusOK, h.Public.listingView(c, l, false))
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	total, err := h.Listings.CountAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	pending, err := h.Listings.CountByStatus(ctx, listing.StatusPending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	approved, err := h.Listings.CountByStatus(ctx, listing.StatusApproved)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	users, err := h.Users.CountAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	admins, err := h.Roles.CountAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_listings":    total,
		"pending_listings":  pending,
		"approved_listings": approved,
		"total_users":       users,
		"total_admins":      admins,
	})
}
