package server

import (
	"backend-trailhub/internal/auth"
	"backend-trailhub/internal/cache"
	"backend-trailhub/internal/config"
	"backend-trailhub/internal/db"
	"backend-trailhub/internal/poi"
	"backend-trailhub/internal/shared/apperr"
	"backend-trailhub/internal/shared/events"
	"backend-trailhub/internal/storage"
	"backend-trailhub/internal/stream"
	"backend-trailhub/internal/trail"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Trail submissions carry their images inline.
const bodyLimit = 64 << 20

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Images *storage.ImageStore
	Log    *zap.Logger
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit,
		ErrorHandler: apperr.Handler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log.Named("stream")),
		Images: storage.NewImageStore(cfg.SaveDirectory, cfg.ImageMaxWidth, cfg.ImageQuality, log.Named("images")),
		Log:    log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	var q db.Querier
	if s.DB != nil {
		q = s.DB
	}

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	adminOnly := auth.RequireAdmin()

	authSvc := auth.NewService(s.Cfg.JWTSecret, q)
	trailSvc := trail.NewService(trail.NewPGStore(q), authSvc, s.Images, s.Stream, s.Log.Named("trail")).
		WithCache(
			cache.New[trail.Trail](s.Redis, "trailhub:trail:", s.Cfg.CacheTTL, s.Log),
			cache.New[[]trail.Summary](s.Redis, "trailhub:trails:", s.Cfg.CacheTTL, s.Log),
		)
	poiSvc := poi.NewService(q, s.Images, authSvc, events.Multi{trailSvc, s.Stream}, s.Log.Named("poi"))

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	auth.RegisterUserRoutes(s.App.Group("/users"), authSvc, jwtMiddleware)

	trails := s.App.Group("/trails")
	trail.RegisterRoutes(trails, trailSvc, jwtMiddleware, adminOnly)
	poi.RegisterTrailRoutes(trails, poiSvc)
	poi.RegisterRoutes(s.App.Group("/pois"), poiSvc, jwtMiddleware, adminOnly)

	storage.RegisterRoutes(s.App.Group("/images"), s.Images)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
