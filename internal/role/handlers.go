package role

import (
	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"
	"github.com/desperadoss/minecraft-map-sub000/internal/session"

	"github.com/gofiber/fiber/v2"
)

// RegisterAdminRoutes mounts the moderator login endpoint. It only needs
// a session; the admin guard would defeat its purpose.
func RegisterAdminRoutes(r fiber.Router, svc *Service, sessionRequired fiber.Handler) {
	r.Post("/login", sessionRequired, func(c *fiber.Ctx) error {
		var body struct {
			AdminCode string `json:"adminCode"`
		}
		if err := c.BodyParser(&body); err != nil {
			return apperr.ErrValidation
		}
		ok, err := svc.Login(c.Context(), session.Code(c), body.AdminCode)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrForbidden
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

// RegisterOwnerRoutes mounts the owner-only registry endpoints plus the
// unguarded owner check.
func RegisterOwnerRoutes(r fiber.Router, svc *Service, sessionRequired, ownerGuard fiber.Handler) {
	r.Get("/check", sessionRequired, func(c *fiber.Ctx) error {
		isOwner, err := svc.IsOwner(c.Context(), session.Code(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"isOwner": isOwner})
	})

	r.Post("/allow-session", sessionRequired, ownerGuard, func(c *fiber.Ctx) error {
		code, err := sessionCodeBody(c)
		if err != nil {
			return err
		}
		if err := svc.AllowSession(c.Context(), session.Code(c), code); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})

	r.Delete("/remove-session", sessionRequired, ownerGuard, func(c *fiber.Ctx) error {
		code, err := sessionCodeBody(c)
		if err != nil {
			return err
		}
		if err := svc.RemoveAllowedSession(c.Context(), session.Code(c), code); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})

	r.Put("/promote", sessionRequired, ownerGuard, func(c *fiber.Ctx) error {
		code, err := sessionCodeBody(c)
		if err != nil {
			return err
		}
		if err := svc.Promote(c.Context(), session.Code(c), code); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})

	r.Get("/allowed-sessions", sessionRequired, ownerGuard, func(c *fiber.Ctx) error {
		entries, err := svc.AllowedSessions(c.Context())
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []AllowedSession{}
		}
		return c.JSON(entries)
	})
}

func sessionCodeBody(c *fiber.Ctx) (string, error) {
	var body struct {
		SessionCode string `json:"sessionCode"`
	}
	if err := c.BodyParser(&body); err != nil || body.SessionCode == "" {
		return "", apperr.ErrValidation
	}
	return body.SessionCode, nil
}
