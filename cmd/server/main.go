package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/rva/egopass/internal/config"
	"github.com/rva/egopass/internal/database"
	"github.com/rva/egopass/internal/handler"
	"github.com/rva/egopass/internal/middleware"
	"github.com/rva/egopass/internal/queue"
	"github.com/rva/egopass/internal/repository"
	"github.com/rva/egopass/internal/router"
	"github.com/rva/egopass/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	passes := repository.NewEGoPassRepo(db)

	gateway := service.NewMockGateway(cfg.GatewayBaseURL)

	// Without a broker configured, passes render their PDF inline.
	var jobs service.RenderJobPublisher
	if cfg.AMQPURL != "" {
		jobs = queue.NewPublisher(cfg.AMQPURL)
	}
	passSvc := service.NewPassService(users, reservations, passes, jobs,
		time.Duration(cfg.ReservationTTLMin)*time.Minute,
		time.Duration(cfg.PassValidityHours)*time.Hour)
	paySvc := service.NewPaymentService(payments, reservations, gateway)

	// Background PDF renderer fed by the egopass.render queue.
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartRenderConsumer(cfg.AMQPURL, passSvc.RenderAndStore); err != nil {
				log.Printf("render consumer stopped: %v", err)
			}
		}()
	}

	// Expire overdue reservations and purge stale refresh tokens.
	sweeper := service.NewSweeper(reservations, tokens, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	e := echo.New()
	e.HideBanner = true

	// Redis is optional: without it the limiter fails open.
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	} else {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	authH := handler.NewAuthHandler(cfg, users, tokens)
	passH := handler.NewPassHandler(passSvc, paySvc)
	payH := handler.NewPaymentHandler(paySvc)
	userH := handler.NewUserHandler(users)
	router.Register(e, cfg.JWTSecret, authH, passH, payH, userH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
