// Package queue defines the message payloads exchanged over the
// broker and the background consumer that performs ticket delivery.
package queue

// TicketLine is one participant's ticket inside a confirmation event.
// The ticket ID is the persisted row identifier used to build the
// scannable artifact.
type TicketLine struct {
	TicketID  uint64 `json:"ticket_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	UnitPrice string `json:"unit_price"`
}

// TicketsConfirmedEvent is published after a reservation commits.  It
// carries everything the delivery pipeline needs so consumers never
// have to query the primary database.
type TicketsConfirmedEvent struct {
	DeliveryID    string       `json:"delivery_id"`
	EventID       uint64       `json:"event_id"`
	Tier          string       `json:"tier"`
	TransactionID string       `json:"transaction_id"`
	AmountCharged string       `json:"amount_charged"`
	Tickets       []TicketLine `json:"tickets"`
	ConfirmedAt   string       `json:"confirmed_at"`
}
