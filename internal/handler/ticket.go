package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ticketry/ticket-platform/internal/model"
	"github.com/ticketry/ticket-platform/internal/repository"
	"github.com/ticketry/ticket-platform/internal/service"
)

// TicketHandler serves the purchase endpoint and the public ticket
// reads.  The reservation itself is delegated to the service; the
// handler only binds the request and translates failure kinds into
// HTTP statuses.
type TicketHandler struct {
	Events       *repository.EventRepo
	Tickets      *repository.TicketRepo
	Reservations *service.ReservationService
	EventID      uint64 // the event currently on sale
}

// NewTicketHandler constructs a TicketHandler.  All dependencies must
// be non-nil.
func NewTicketHandler(events *repository.EventRepo, tickets *repository.TicketRepo, reservations *service.ReservationService, eventID uint64) *TicketHandler {
	if events == nil || tickets == nil || reservations == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Events: events, Tickets: tickets, Reservations: reservations, EventID: eventID}
}

// reserveRequest is the JSON body of POST /v1/tickets.  The payment
// gateway has already captured the charge identified by transactionId;
// this endpoint only converts it into ticket rows.
type reserveRequest struct {
	Tier          string              `json:"tier"`
	Quantity      int                 `json:"quantity"`
	TransactionID string              `json:"transactionId"`
	AmountCharged string              `json:"amountCharged"`
	Participants  []model.Participant `json:"participants"`
}

// Reserve handles POST /v1/tickets.  On success it returns 200 with
// the inserted count and the remaining capacity observed under lock.
// Failures map to 400 (InvalidInput), 409 (DuplicateTransaction,
// InsufficientCapacity), 404 (EventNotFound) and 500
// (PersistenceError).
func (h *TicketHandler) Reserve(c echo.Context) error {
	var body reserveRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":   false,
			"errorKind": service.KindInvalidInput,
			"error":     "invalid request body",
		})
	}
	out, err := h.Reservations.Reserve(c.Request().Context(), service.Request{
		EventID:       h.EventID,
		Tier:          body.Tier,
		Quantity:      body.Quantity,
		TransactionID: body.TransactionID,
		AmountCharged: body.AmountCharged,
		Participants:  body.Participants,
	})
	if err != nil {
		return reservationError(c, err)
	}
	resp := echo.Map{
		"success":           true,
		"ticketsInserted":   out.TicketsInserted,
		"transactionId":     out.TransactionID,
		"remainingCapacity": out.Remaining,
	}
	if out.Warning != "" {
		resp["warning"] = out.Warning
	}
	return c.JSON(http.StatusOK, resp)
}

// reservationError maps a service failure onto the wire contract.
func reservationError(c echo.Context, err error) error {
	se, ok := service.AsError(err)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success":   false,
			"errorKind": service.KindPersistenceError,
			"error":     "reservation failed",
		})
	}
	status := http.StatusInternalServerError
	switch se.Kind {
	case service.KindInvalidInput:
		status = http.StatusBadRequest
	case service.KindDuplicateTransaction, service.KindInsufficientCapacity:
		status = http.StatusConflict
	case service.KindEventNotFound:
		status = http.StatusNotFound
	}
	resp := echo.Map{
		"success":   false,
		"errorKind": se.Kind,
		"error":     se.Message,
	}
	if se.Capacity != nil {
		resp["details"] = se.Capacity
	}
	return c.JSON(status, resp)
}

// Stock handles GET /v1/tickets/stock.  It returns per-tier totals,
// sold counts and availability plus the aggregate across tiers.  This
// is the display path; it reads without locking and may trail an
// in-flight reservation.
func (h *TicketHandler) Stock(c echo.Context) error {
	stock, err := h.Events.Stock(c.Request().Context(), h.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to load stock"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stock": stock})
}

// StockTier handles GET /v1/tickets/stock/:tier.  It serves a single
// tier's availability for clients that only sell one category, with
// the same unlocked read semantics as the full stock view.
func (h *TicketHandler) StockTier(c echo.Context) error {
	tier, ok := model.ParseTier(c.Param("tier"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "unknown tier"})
	}
	av, err := h.Events.Availability(c.Request().Context(), h.EventID, tier)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to load stock"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stock": av})
}

// ByTransaction handles GET /v1/tickets/transaction/:id.  It lists all
// tickets registered under one payment transaction, 404 when none
// exist.
func (h *TicketHandler) ByTransaction(c echo.Context) error {
	txnID := c.Param("id")
	if txnID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "transaction id is required"})
	}
	tickets, err := h.Tickets.ListByTransaction(c.Request().Context(), txnID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to load tickets"})
	}
	if len(tickets) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "transaction not found"})
	}
	items := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, echo.Map{
			"id":             t.ID,
			"event_id":       t.EventID,
			"tier":           t.Tier,
			"name":           t.Name,
			"email":          t.Email,
			"phone":          t.Phone,
			"unit_price":     t.UnitPrice.StringFixed(2),
			"status":         t.Status,
			"created_at":     t.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"tickets":      items,
		"totalTickets": len(tickets),
	})
}

// Stats handles GET /v1/tickets/stats.  It returns per-tier confirmed
// counts, revenue and average unit price plus overall totals.
func (h *TicketHandler) Stats(c echo.Context) error {
	stats, err := h.Tickets.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to load stats"})
	}
	totalRevenue := decimal.Zero
	var totalTickets int64
	items := make([]echo.Map, 0, len(stats))
	for _, st := range stats {
		totalRevenue = totalRevenue.Add(st.Revenue)
		totalTickets += st.Tickets
		items = append(items, echo.Map{
			"tier":         st.Tier,
			"tickets":      st.Tickets,
			"revenue":      st.Revenue.StringFixed(2),
			"average_paid": st.AveragePaid.StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"stats":   items,
		"summary": echo.Map{
			"total_revenue": totalRevenue.StringFixed(2),
			"total_tickets": totalTickets,
		},
	})
}
