package point

import (
	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"
	"github.com/desperadoss/minecraft-map-sub000/internal/session"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the public and owner-facing point endpoints.
// resolvePriv attaches the caller's privilege so edits of pending points
// can be performed by admins through the same endpoint as owners.
func RegisterRoutes(r fiber.Router, svc *Service, sessionRequired, resolvePriv fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		points, err := svc.ListPublic(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(emptyIfNil(points))
	})

	r.Get("/private", sessionRequired, func(c *fiber.Ctx) error {
		points, err := svc.ListPrivateFor(c.Context(), session.Code(c))
		if err != nil {
			return err
		}
		return c.JSON(emptyIfNil(points))
	})

	r.Post("/", sessionRequired, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.ErrValidation
		}
		p, err := svc.Create(c.Context(), session.Code(c), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Put("/share/:id", sessionRequired, func(c *fiber.Ctx) error {
		p, err := svc.Share(c.Context(), c.Params("id"), session.Code(c))
		if err != nil {
			return err
		}
		return c.JSON(p)
	})

	r.Put("/:id", sessionRequired, resolvePriv, func(c *fiber.Ctx) error {
		var req EditRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.ErrValidation
		}
		p, err := svc.Edit(c.Context(), c.Params("id"), session.Code(c), session.PrivilegeOf(c), req)
		if err != nil {
			return err
		}
		return c.JSON(p)
	})

	r.Delete("/:id", sessionRequired, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id"), session.Code(c), session.PrivilegeOf(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

// RegisterAdminRoutes mounts the moderation endpoints; every route runs
// behind the admin guard.
func RegisterAdminRoutes(r fiber.Router, svc *Service, sessionRequired, adminGuard fiber.Handler) {
	r.Get("/pending", sessionRequired, adminGuard, func(c *fiber.Ctx) error {
		points, err := svc.ListPending(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(emptyIfNil(points))
	})

	r.Put("/edit/:id", sessionRequired, adminGuard, func(c *fiber.Ctx) error {
		var req EditRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.ErrValidation
		}
		p, err := svc.AdminEdit(c.Context(), c.Params("id"), session.Code(c), session.PrivilegeOf(c), req)
		if err != nil {
			return err
		}
		return c.JSON(p)
	})

	r.Delete("/delete/:id", sessionRequired, adminGuard, func(c *fiber.Ctx) error {
		if err := svc.AdminDelete(c.Context(), c.Params("id"), session.Code(c), session.PrivilegeOf(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})

	r.Put("/accept/:id", sessionRequired, adminGuard, func(c *fiber.Ctx) error {
		p, err := svc.Accept(c.Context(), c.Params("id"), session.Code(c), session.PrivilegeOf(c))
		if err != nil {
			return err
		}
		return c.JSON(p)
	})

	r.Put("/reject/:id", sessionRequired, adminGuard, func(c *fiber.Ctx) error {
		if err := svc.Reject(c.Context(), c.Params("id"), session.Code(c), session.PrivilegeOf(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

func emptyIfNil(points []Point) []Point {
	if points == nil {
		return []Point{}
	}
	return points
}
