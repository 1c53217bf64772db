package session

import (
	"context"

	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// HeaderName carries the self-asserted session identity. The value is
// opaque and never verified; presence is the only requirement.
const HeaderName = "X-Session-Code"

const localsKey = "session_code"
const privilegeKey = "session_privilege"

// Privilege is the per-request authorization tier resolved by the guards.
type Privilege int

const (
	PrivilegeNone Privilege = iota
	PrivilegeAdmin
	PrivilegeOwner
)

// RoleChecker is the slice of the role registry the guards need.
type RoleChecker interface {
	IsOwner(ctx context.Context, sessionCode string) (bool, error)
	IsAdmin(ctx context.Context, sessionCode string) (bool, error)
}

// Require extracts the session code header and stores it in locals.
// Requests without the header are rejected before any handler runs.
func Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Get(HeaderName)
		if code == "" {
			return apperr.ErrUnauthenticated
		}
		c.Locals(localsKey, code)
		return c.Next()
	}
}

// Code returns the session code stored by Require, or "" when absent.
func Code(c *fiber.Ctx) string {
	code, _ := c.Locals(localsKey).(string)
	return code
}

// PrivilegeOf returns the privilege resolved by a guard on this request.
func PrivilegeOf(c *fiber.Ctx) Privilege {
	priv, ok := c.Locals(privilegeKey).(Privilege)
	if !ok {
		return PrivilegeNone
	}
	return priv
}

// resolve classifies the caller. Owner membership is checked first so
// owners are classified as owners even when they also hold an admin row.
func resolve(ctx context.Context, roles RoleChecker, code string) (Privilege, error) {
	owner, err := roles.IsOwner(ctx, code)
	if err != nil {
		return PrivilegeNone, err
	}
	if owner {
		return PrivilegeOwner, nil
	}
	admin, err := roles.IsAdmin(ctx, code)
	if err != nil {
		return PrivilegeNone, err
	}
	if admin {
		return PrivilegeAdmin, nil
	}
	return PrivilegeNone, nil
}

// Resolve classifies the caller and stores the privilege in locals
// without imposing any requirement. Must run after Require. Used by
// endpoints whose rules depend on privilege without demanding it, such
// as edits of pending points.
func Resolve(roles RoleChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		priv, err := resolve(c.Context(), roles, Code(c))
		if err != nil {
			return err
		}
		c.Locals(privilegeKey, priv)
		return c.Next()
	}
}

// AdminGuard passes admins and owners; everyone else is forbidden.
// Must run after Require.
func AdminGuard(roles RoleChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		priv, err := resolve(c.Context(), roles, Code(c))
		if err != nil {
			return err
		}
		if priv < PrivilegeAdmin {
			return apperr.ErrForbidden
		}
		c.Locals(privilegeKey, priv)
		return c.Next()
	}
}

// OwnerGuard passes only owners. Must run after Require.
func OwnerGuard(roles RoleChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		priv, err := resolve(c.Context(), roles, Code(c))
		if err != nil {
			return err
		}
		if priv < PrivilegeOwner {
			return apperr.ErrForbidden
		}
		c.Locals(privilegeKey, priv)
		return c.Next()
	}
}
