package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	v1 "github.com/smartmarkhq/smartmark/internal/api/v1"
	"github.com/smartmarkhq/smartmark/internal/auth"
	"github.com/smartmarkhq/smartmark/internal/config"
	"github.com/smartmarkhq/smartmark/internal/db"
	"github.com/smartmarkhq/smartmark/internal/feed"
	"github.com/smartmarkhq/smartmark/pkg/logger"
	"gorm.io/gorm"
)

func NewRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, gormDB *gorm.DB, log *logger.Logger, rclient *db.RedisClient) {
	app.Use(
		logger.SetupLogger(log),
		recover.New(),
		cors.New(
			cors.Config{
				AllowOrigins:     cfg.SiteURL,
				AllowCredentials: true,
				AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			},
		),
		compress.New(
			compress.Config{
				Level: compress.LevelBestCompression,
			},
		),
		limiter.New(
			limiter.Config{
				Expiration: 1 * time.Minute,
				Max:        60,
				KeyGenerator: func(c *fiber.Ctx) string {
					return c.IP()
				},
			},
		),
	)
	app.Use(log.Middleware())

	provider := auth.NewOAuthProvider(cfg)
	pub := feed.NewPublisher(rclient, log)
	v1.Setup(gormDB, rclient, log, pub, provider, cfg.SiteURL)

	app.Get("/auth/login", v1.Login)
	app.Get("/auth/callback", v1.Callback)
	app.Post("/auth/logout", v1.Logout)

	protected := auth.Protected(v1.AuthOptions())
	api := app.Group("/api/v1", protected)
	api.Get("/me", v1.Me)
	api.Get("/bookmarks", v1.ListBookmarks)
	api.Post("/bookmarks", v1.CreateBookmark)
	api.Get("/bookmarks/feed", v1.FeedStream)
	api.Get("/bookmarks/:id", v1.GetBookmark)
	api.Patch("/bookmarks/:id", v1.UpdateBookmark)
	api.Delete("/bookmarks/:id", v1.DeleteBookmark)
	api.Get("/tags", v1.ListTags)

	go func() {
		<-ctx.Done()
		rclient.Close(log)
		log.Close()
	}()
}
