package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ticketry/ticket-platform/internal/model"
	"github.com/ticketry/ticket-platform/internal/monitoring"
	"github.com/ticketry/ticket-platform/internal/repository"
)

// Request is the purchase order handed to Reserve after the payment
// gateway has confirmed the charge.  The core never talks to the
// gateway itself; it only receives the transaction identifier and the
// amount that was charged.
type Request struct {
	EventID       uint64
	Tier          string
	Quantity      int
	TransactionID string
	AmountCharged string
	Participants  []model.Participant
}

// Outcome is the transient result of one successful reservation.
type Outcome struct {
	TicketsInserted int
	TransactionID   string
	Remaining       int64
	Tickets         []model.Ticket
	// Warning carries a non-fatal notifier failure.  The reservation
	// itself committed; delivery will have to be retried out of band.
	Warning string
}

// ReservationService runs the stock-safe reservation transaction.  All
// serialization is delegated to the backing store's row lock; the
// service itself keeps no shared mutable state and is safe for
// concurrent use.
type ReservationService struct {
	store     repository.Store
	notifier  Notifier
	txTimeout time.Duration
}

// NewReservationService wires the service to a transactional store and
// an optional notifier.  txTimeout bounds each reservation transaction
// end to end; zero disables the bound.
func NewReservationService(store repository.Store, notifier Notifier, txTimeout time.Duration) *ReservationService {
	return &ReservationService{store: store, notifier: notifier, txTimeout: txTimeout}
}

// Reserve converts a confirmed payment into persisted ticket rows.
//
// The sequence is: validate, fast idempotency pre-check, then a single
// all-or-nothing transaction that re-reads availability under an
// exclusive lock, re-checks the idempotency invariant, and inserts one
// confirmed row per participant.  Either every row commits or none
// does.  The post-commit notifier is best effort and cannot fail the
// reservation.
func (s *ReservationService) Reserve(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()
	out, err := s.reserve(ctx, req)
	monitoring.ObserveReservation(outcomeLabel(err), time.Since(start))
	return out, err
}

func (s *ReservationService) reserve(ctx context.Context, req Request) (*Outcome, error) {
	v, verr := validateRequest(req)
	if verr != nil {
		return nil, verr
	}
	quantity := uint32(req.Quantity)

	// Fast rejection of literal retries and webhook redeliveries.  Not
	// sufficient on its own; the invariant is re-checked under lock.
	exists, err := s.store.TransactionExists(ctx, req.TransactionID)
	if err != nil {
		return nil, persistence("idempotency pre-check failed", err)
	}
	if exists {
		return nil, duplicateTransaction(req.TransactionID)
	}

	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, persistence("failed to begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Locked re-read closes the time-of-check/time-of-use race: the
	// second of two concurrent requests for the last seat blocks here
	// and then observes the reduced availability.
	av, err := tx.LockAvailability(ctx, req.EventID, v.tier)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return nil, eventNotFound(req.EventID)
		case errors.Is(err, repository.ErrLockWaitTimeout):
			return nil, persistence("capacity lock wait timed out", err)
		default:
			return nil, persistence("locked availability read failed", err)
		}
	}
	if av.Available < int64(quantity) {
		return nil, insufficientCapacity(quantity, av)
	}

	// The event lock serializes every writer for this event, so this
	// re-check closes the window between the unlocked pre-check and
	// the first insert.
	exists, err = tx.TransactionExists(ctx, req.TransactionID)
	if err != nil {
		return nil, persistence("idempotency re-check failed", err)
	}
	if exists {
		return nil, duplicateTransaction(req.TransactionID)
	}

	prices := SplitAmount(v.amount, req.Quantity)
	tickets := make([]model.Ticket, 0, req.Quantity)
	for i, p := range v.participants {
		t := model.Ticket{
			EventID:       req.EventID,
			Tier:          v.tier,
			Quantity:      1,
			Name:          p.Name,
			Email:         p.Email,
			Phone:         p.Phone,
			TransactionID: req.TransactionID,
			UnitPrice:     prices[i],
			Status:        model.StatusConfirmed,
		}
		// First failure aborts the remaining inserts; the deferred
		// rollback discards the partial participant set.
		if err := tx.InsertTicket(ctx, &t); err != nil {
			return nil, persistence("ticket insert failed", err)
		}
		tickets = append(tickets, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, persistence("commit failed", err)
	}
	committed = true

	remaining := av.Available - int64(quantity)
	monitoring.AddTicketsSold(string(v.tier), len(tickets))
	monitoring.SetRemainingCapacity(string(v.tier), remaining)

	out := &Outcome{
		TicketsInserted: len(tickets),
		TransactionID:   req.TransactionID,
		Remaining:       remaining,
		Tickets:         tickets,
	}
	if s.notifier != nil {
		conf := Confirmation{
			EventID:       req.EventID,
			Tier:          v.tier,
			TransactionID: req.TransactionID,
			AmountCharged: v.amount,
			Tickets:       tickets,
		}
		if err := s.notifier.TicketsConfirmed(ctx, conf); err != nil {
			log.Printf("reservation: notifier failed for %s: %v", req.TransactionID, err)
			out.Warning = "tickets reserved but confirmation delivery failed"
		}
	}
	return out, nil
}

// outcomeLabel maps a reservation result to its metrics label.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if se, ok := AsError(err); ok {
		return string(se.Kind)
	}
	return string(KindPersistenceError)
}
