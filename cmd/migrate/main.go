// Command migrate creates the schema and seeds the configured event.
// Events are immutable after creation: capacity totals are fixed here
// and never updated, availability is always derived from ticket rows.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/ticketry/ticket-platform/internal/config"
	"github.com/ticketry/ticket-platform/internal/database"
	"github.com/ticketry/ticket-platform/internal/model"
	"github.com/ticketry/ticket-platform/internal/repository"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		venue VARCHAR(200),
		price_standard DECIMAL(10,2) NOT NULL DEFAULT 50.00,
		price_vip DECIMAL(10,2) NOT NULL DEFAULT 70.00,
		standard_total INT UNSIGNED NOT NULL DEFAULT 100,
		vip_total INT UNSIGNED NOT NULL DEFAULT 50,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id BIGINT UNSIGNED NOT NULL,
		tier VARCHAR(20) NOT NULL,
		quantity INT UNSIGNED NOT NULL DEFAULT 1,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(150) NOT NULL,
		phone VARCHAR(30) NOT NULL,
		transaction_id VARCHAR(100) NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_tickets_transaction (transaction_id),
		KEY idx_tickets_event_tier (event_id, tier, status),
		CONSTRAINT fk_tickets_event FOREIGN KEY (event_id) REFERENCES events (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}
	log.Printf("schema up to date")

	events := repository.NewEventRepo(db)
	if _, err := events.GetByID(ctx, cfg.EventID); err == nil {
		log.Printf("event %d already seeded", cfg.EventID)
		return
	}

	ev := model.Event{
		Name:          "Concert Presentation",
		Description:   "Launch concert",
		StartsAt:      time.Date(2026, 12, 13, 15, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2026, 12, 14, 1, 0, 0, 0, time.UTC),
		Venue:         "Main Hall",
		StandardPrice: decimal.RequireFromString("50.00"),
		VIPPrice:      decimal.RequireFromString("70.00"),
		StandardTotal: 100,
		VIPTotal:      50,
		Status:        "active",
	}
	if err := events.Create(ctx, &ev); err != nil {
		log.Fatalf("seed event: %v", err)
	}
	log.Printf("seeded event %d (%s)", ev.ID, ev.Name)
}
