// Package listing implements the listing status state machine and decides
// who may trigger each transition. The rules are a pure function of the
// current status, the requested status, whether the caller is the seller,
// and the caller's administrative role, so they can be tested without a
// database.
package listing

import (
	"errors"
	"fmt"

	"github.com/tradepost/tradepost/internal/auth"
)

// Status values as stored in the listings.status column.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusSold     = "sold"
)

// ErrInvalidStatus is returned for a status value outside the known set.
var ErrInvalidStatus = errors.New("invalid status")

// TransitionError describes a refused status change. Code separates "this
// edge does not exist" from "this caller may not walk it" so handlers can
// answer 409 vs 403.
type TransitionError struct {
	Code   string // "invalid_transition" or "permission_denied"
	Reason string
}

func (e *TransitionError) Error() string { return e.Reason }

// IsPermissionDenied reports whether err is a transition refusal caused by
// the caller's role or ownership rather than the state machine.
func IsPermissionDenied(err error) bool {
	var te *TransitionError
	return errors.As(err, &te) && te.Code == "permission_denied"
}

// ValidStatus reports whether s is one of the four listing statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSold:
		return true
	}
	return false
}

// edgeAllowed is the status graph: pending -> approved|rejected,
// approved -> sold, rejected -> pending (seller resubmit). An admin may
// additionally force any listing back to pending; that escape hatch is
// handled in Authorize because it depends on the caller.
func edgeAllowed(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusSold
	case StatusRejected:
		return to == StatusPending
	}
	return false // sold is terminal
}

// Authorize decides whether a caller may move a listing from its current
// status to the target status. It returns nil when the transition is both a
// legal edge and permitted for this caller, and a *TransitionError
// otherwise. Callers patch only the status column on success; on error the
// record must stay untouched.
func Authorize(current, target string, isSeller bool, role auth.Role) error {
	if !ValidStatus(target) {
		return ErrInvalidStatus
	}
	switch target {
	case StatusApproved, StatusRejected:
		// Moderation decisions. Role first: a non-admin gets a permission
		// error regardless of the listing's state.
		if !role.Meets(auth.RoleModerator) {
			return &TransitionError{Code: "permission_denied",
				Reason: "only admins can approve or reject listings"}
		}
		if !edgeAllowed(current, target) {
			return &TransitionError{Code: "invalid_transition",
				Reason: fmt.Sprintf("cannot move a %s listing to %s", current, target)}
		}
		return nil
	case StatusSold:
		// Only the seller marks a sale; an admin attempting it is refused.
		if !isSeller {
			return &TransitionError{Code: "permission_denied",
				Reason: "only the seller can mark their listing as sold"}
		}
		if !edgeAllowed(current, target) {
			return &TransitionError{Code: "invalid_transition",
				Reason: fmt.Sprintf("cannot move a %s listing to sold", current)}
		}
		return nil
	case StatusPending:
		// Admins may force any listing back into the moderation queue from
		// any state. Sellers may only resubmit a rejected listing.
		if role.Meets(auth.RoleModerator) {
			return nil
		}
		if !isSeller {
			return &TransitionError{Code: "permission_denied",
				Reason: "only the seller or an admin can change a listing to pending"}
		}
		if !edgeAllowed(current, target) {
			return &TransitionError{Code: "invalid_transition",
				Reason: fmt.Sprintf("cannot resubmit a %s listing", current)}
		}
		return nil
	}
	return ErrInvalidStatus
}

// CanFeature reports whether a caller may toggle the featured flag. The
// flag is orthogonal to the status machine and may be set in any status.
func CanFeature(role auth.Role) bool { return role.Meets(auth.RoleModerator) }
