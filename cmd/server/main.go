package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tradepost/tradepost/internal/admin"
	"github.com/tradepost/tradepost/internal/config"
	"github.com/tradepost/tradepost/internal/database"
	"github.com/tradepost/tradepost/internal/handler"
	"github.com/tradepost/tradepost/internal/middleware"
	"github.com/tradepost/tradepost/internal/queue"
	"github.com/tradepost/tradepost/internal/repository"
	"github.com/tradepost/tradepost/internal/router"
	"github.com/tradepost/tradepost/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	images, err := storage.NewImageStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("image store: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	roles := repository.NewAdminRoleRepo(db)
	categories := repository.NewCategoryRepo(db)
	listings := repository.NewListingRepo(db)
	messages := repository.NewMessageRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := categories.SeedDefaults(ctx); err != nil {
		log.Printf("seed categories: %v", err)
	}
	cancel()

	adminSvc := admin.NewService(roles, users)
	resolver := adminSvc.Resolver()

	public := handler.NewPublicHandler(listings, categories, users, images)
	authH := handler.NewAuthHandler(cfg, users, tokens)
	listingH := handler.NewListingHandler(listings, categories, images, resolver, public)
	messageH := handler.NewMessageHandler(messages, listings, users)
	adminH := handler.NewAdminHandler(adminSvc, listings, users, roles, public)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Static(storage.URLPrefix, images.Dir())

	// Browse middlewares degrade to pass-through when Redis is unreachable.
	rdb := config.NewRedisClient()
	browse := []echo.MiddlewareFunc{
		middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		middleware.ResponseCache(config.LoadCacheConfig(), rdb),
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, public, browse...)
	router.RegisterSeller(e, listingH, messageH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, listingH, resolver, cfg.JWTSecret)

	go queue.StartModerationConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
