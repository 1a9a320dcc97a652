package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ticketry/ticket-platform/internal/model"
)

// Confirmation describes one committed reservation for delivery.  The
// ticket slice carries the generated row IDs so downstream consumers
// can render one scannable artifact per participant.
type Confirmation struct {
	EventID       uint64
	Tier          model.Tier
	TransactionID string
	AmountCharged decimal.Decimal
	Tickets       []model.Ticket
}

// Notifier hands a committed reservation to the delivery pipeline.
// It runs strictly after commit and its failure must never undo the
// reservation; the service reports such failures as a warning on an
// otherwise successful outcome.
type Notifier interface {
	TicketsConfirmed(ctx context.Context, c Confirmation) error
}
