package point

import (
	"fmt"
	"strings"
	"time"

	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"
	"github.com/desperadoss/minecraft-map-sub000/internal/session"
)

// Visibility states. A point only ever moves forward: private points may
// be shared into pending, pending points are accepted into public or
// rejected (deleted). Nothing moves a point back.
const (
	StatusPrivate = "private"
	StatusPending = "pending"
	StatusPublic  = "public"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
)

// ResourceTypes is the descriptive catalog shown by map clients. Values
// outside the catalog are stored as-is; the type never affects
// authorization.
var ResourceTypes = []string{
	"diamond", "iron", "gold", "coal", "redstone", "lapis", "emerald",
	"netherite", "base", "portal", "farm", "village", "spawner",
	"stronghold", "custom",
}

type Point struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	X                int64     `json:"x"`
	Z                int64     `json:"z"`
	OwnerSessionCode string    `json:"ownerSessionCode"`
	Status           string    `json:"status"`
	ResourceType     string    `json:"resourceType"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CreateRequest creates a new private point owned by the caller.
type CreateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	X            *int64 `json:"x"`
	Z            *int64 `json:"z"`
	ResourceType string `json:"resourceType"`
}

// EditRequest patches an existing point. Nil fields keep their current
// value; status and owner are never touched by an edit.
type EditRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	X            *int64  `json:"x"`
	Z            *int64  `json:"z"`
	ResourceType *string `json:"resourceType"`
}

// Transition enumerates every mutation of an existing point.
type Transition int

const (
	TransitionShare Transition = iota
	TransitionAccept
	TransitionReject
	TransitionEdit
	TransitionAdminEdit
	TransitionDelete
	TransitionAdminDelete
)

// checkTransition is the single authorization predicate for the point
// state machine. Every mutating path goes through it. It returns
// ErrForbidden when the caller's identity or privilege is insufficient
// and ErrConflict when the point is in the wrong state for the
// transition.
func checkTransition(p Point, caller string, priv session.Privilege, tr Transition) error {
	isAdmin := priv >= session.PrivilegeAdmin
	isPointOwner := p.OwnerSessionCode == caller

	switch tr {
	case TransitionShare:
		if !isPointOwner {
			return fmt.Errorf("%w: only the point owner can share it", apperr.ErrForbidden)
		}
		if p.Status != StatusPrivate {
			return fmt.Errorf("%w: only private points can be shared", apperr.ErrConflict)
		}

	case TransitionAccept, TransitionReject:
		if !isAdmin {
			return fmt.Errorf("%w: admin privilege required", apperr.ErrForbidden)
		}
		if p.Status != StatusPending {
			return fmt.Errorf("%w: point is not pending", apperr.ErrConflict)
		}

	case TransitionEdit:
		switch p.Status {
		case StatusPrivate:
			if !isPointOwner {
				return fmt.Errorf("%w: only the point owner can edit it", apperr.ErrForbidden)
			}
		case StatusPending:
			if !isPointOwner && !isAdmin {
				return fmt.Errorf("%w: only the point owner or an admin can edit it", apperr.ErrForbidden)
			}
		default:
			// Public points are edited only through the admin endpoint;
			// ownership confers no rights once a point is public.
			return fmt.Errorf("%w: public points are edited by admins only", apperr.ErrForbidden)
		}

	case TransitionAdminEdit, TransitionAdminDelete:
		if !isAdmin {
			return fmt.Errorf("%w: admin privilege required", apperr.ErrForbidden)
		}

	case TransitionDelete:
		if p.Status == StatusPublic {
			return fmt.Errorf("%w: public points are deleted by admins only", apperr.ErrForbidden)
		}
		if !isPointOwner {
			return fmt.Errorf("%w: only the point owner can delete it", apperr.ErrForbidden)
		}
	}
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return "", fmt.Errorf("%w: name must be 1-%d characters", apperr.ErrValidation, maxNameLen)
	}
	return name, nil
}

func validateDescription(desc string) error {
	if len(desc) > maxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", apperr.ErrValidation, maxDescriptionLen)
	}
	return nil
}

func normalizeResourceType(rt string) string {
	if strings.TrimSpace(rt) == "" {
		return "custom"
	}
	return rt
}
