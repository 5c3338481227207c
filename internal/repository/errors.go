// Package repository contains data access logic separated from HTTP
// handlers. This file defines error values reused across repositories so
// that handlers can map failure scenarios to HTTP responses: ErrForbidden
// becomes 403, the *NotFound sentinels become 404, and ErrAlreadyInitialized
// becomes 409.
package repository

import "errors"

// ErrForbidden is returned when the caller lacks the role or ownership an
// operation requires. It is never a silent no-op: privileged operations
// always surface this error.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyInitialized is returned when the one-time super-admin bootstrap
// is attempted after a super admin already exists.
var ErrAlreadyInitialized = errors.New("super admin already exists")
