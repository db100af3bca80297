package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	routes "github.com/smartmarkhq/smartmark/internal/api"
	"github.com/smartmarkhq/smartmark/internal/auth"
	"github.com/smartmarkhq/smartmark/internal/config"
	"github.com/smartmarkhq/smartmark/internal/db"
	"github.com/smartmarkhq/smartmark/internal/models"
	"github.com/smartmarkhq/smartmark/pkg/logger"
	"github.com/smartmarkhq/smartmark/pkg/utils"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()
	auth.SetSecret(cfg.JWTSecret)

	log, err := logger.NewLogger()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	redisClient, err := db.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize Redis")
		panic(err)
	}

	gormDB, err := db.NewDB(ctx, cfg.DSN(), models.RegisterModels())
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize PostgreSQL database")
		panic("DB init failed")
	}
	defer db.CloseDB(log)

	app := fiber.New()
	routes.NewRoutes(ctx, app, cfg, gormDB, log, redisClient)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info(ctx).Logs("Shutting down")
		cancel()
		app.Shutdown()
	}()

	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Server stopped")
	}
}
