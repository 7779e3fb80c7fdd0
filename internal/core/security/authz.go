// Package security provides authorization and access control.
package security

import (
	"context"

	"parish/internal/core/apperror"
	appctx "parish/internal/core/context"
)

// Role defines a set of permissions.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePastor Role = "pastor"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// IsAdmin reports whether the acting user carries admin privileges.
// This is the single authorization predicate for the lifecycle core;
// callers must not re-derive admin status from roles themselves.
func IsAdmin(ctx context.Context) bool {
	a := appctx.GetActor(ctx)
	if a == nil {
		return false
	}
	if a.IsAdmin {
		return true
	}
	return appctx.HasRole(ctx, string(RoleAdmin))
}

// RequireAdmin returns a Forbidden error unless the actor is an admin.
// Purge is the only lifecycle operation gated this way.
func RequireAdmin(ctx context.Context) error {
	if !IsAdmin(ctx) {
		return apperror.NewForbidden("admin privileges required")
	}
	return nil
}
