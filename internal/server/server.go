package server

import (
	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"
	"github.com/desperadoss/minecraft-map-sub000/internal/config"
	"github.com/desperadoss/minecraft-map-sub000/internal/point"
	"github.com/desperadoss/minecraft-map-sub000/internal/role"
	"github.com/desperadoss/minecraft-map-sub000/internal/session"
	"github.com/desperadoss/minecraft-map-sub000/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Roles  *role.Service
	Points *point.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: hub,
		Roles:  role.NewService(db, redisClient, cfg.AdminCode),
		Points: point.NewService(db, hub),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	sessionRequired := session.Require()
	resolvePriv := session.Resolve(s.Roles)
	adminGuard := session.AdminGuard(s.Roles)
	ownerGuard := session.OwnerGuard(s.Roles)

	api := s.App.Group("/api")

	point.RegisterRoutes(api.Group("/points"), s.Points, sessionRequired, resolvePriv)

	admin := api.Group("/admin")
	role.RegisterAdminRoutes(admin, s.Roles, sessionRequired)
	point.RegisterAdminRoutes(admin, s.Points, sessionRequired, adminGuard)

	role.RegisterOwnerRoutes(api.Group("/owner"), s.Roles, sessionRequired, ownerGuard)

	stream.RegisterRoutes(api.Group("/stream"), s.Stream)
}
