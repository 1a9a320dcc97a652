package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ticketry/ticket-platform/internal/config"
	"github.com/ticketry/ticket-platform/internal/database"
	"github.com/ticketry/ticket-platform/internal/handler"
	"github.com/ticketry/ticket-platform/internal/queue"
	"github.com/ticketry/ticket-platform/internal/repository"
	"github.com/ticketry/ticket-platform/internal/router"
	"github.com/ticketry/ticket-platform/internal/service"
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

	events := repository.NewEventRepo(db)
	tickets := repository.NewTicketRepo(db)
	store := repository.NewMySQLStore(db, cfg.LockWait)

	notifier := queue.NewPublisher(cfg.AMQPURL)
	reservations := service.NewReservationService(store, notifier, cfg.ReserveTimeout)

	// The delivery consumer renders ticket artifacts and records
	// delivery attempts.  It reconnects on its own and must never
	// take the API down with it.
	go func() {
		if err := queue.StartDeliveryConsumer(cfg.AMQPURL, queue.PayloadEncoder{}, queue.LogNotificationService{}); err != nil {
			log.Printf("delivery consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and stock cache disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e,
		handler.NewTicketHandler(events, tickets, reservations, cfg.EventID),
		handler.NewReportHandler(tickets),
		handler.NewAuthHandler(cfg.JWTSecret, cfg.AdminPasswordHash, cfg.AccessTTLMin),
		cfg.JWTSecret, rdb, config.LoadRateLimitConfig(),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, event=%d)", addr, cfg.Env, cfg.EventID)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
