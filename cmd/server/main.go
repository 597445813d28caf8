package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/mariamm-maher/graduation-project-BE/internal/config"
	"github.com/mariamm-maher/graduation-project-BE/internal/database"
	"github.com/mariamm-maher/graduation-project-BE/internal/handler"
	"github.com/mariamm-maher/graduation-project-BE/internal/middleware"
	"github.com/mariamm-maher/graduation-project-BE/internal/queue"
	"github.com/mariamm-maher/graduation-project-BE/internal/realtime"
	"github.com/mariamm-maher/graduation-project-BE/internal/repository"
	"github.com/mariamm-maher/graduation-project-BE/internal/router"
)

func main() {
	// .env is a local development convenience; in deployed environments
	// the variables come from the process environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	sessions := repository.NewSessionRepo(db)
	profiles := repository.NewProfileRepo(db)
	chats := repository.NewChatRepo(db)

	// The role table is seeded with fixed ids at startup so the ADMIN
	// guard can anchor on id as well as name.
	if err := roles.EnsureSeeded(context.Background()); err != nil {
		log.Fatalf("role seeding failed: %v", err)
	}

	// The audit consumer drains the broker into the append-only log.
	// It reconnects on its own; a broker outage only delays the trail.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	jwtAuth := middleware.JWTAuth(cfg.AccessSecret, users, roles)

	authHandler := handler.NewAuthHandler(cfg, users, roles, sessions, profiles)
	oauthHandler := handler.NewOAuthHandler(cfg, users, roles, sessions)
	gateway := realtime.NewGateway(cfg.AccessSecret, users, chats)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, oauthHandler, jwtAuth, limiter)
	router.RegisterRealtime(e, gateway)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
