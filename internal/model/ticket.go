package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a named ticket category with its own price and capacity.
type Tier string

const (
	TierStandard Tier = "standard"
	TierVIP      Tier = "vip"
)

// ParseTier converts a request string into a Tier.  The boolean is
// false when the value is not a known tier.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierStandard:
		return TierStandard, true
	case TierVIP:
		return TierVIP, true
	}
	return "", false
}

// Ticket statuses.  The reservation logic only ever branches on
// StatusConfirmed; other values are passed through untouched.
const StatusConfirmed = "confirmed"

// Ticket is one row per participant, not per order.  All tickets of a
// purchase share the same payment transaction identifier, and either
// all of them exist or none of them do.
//
// Fields:
//  ID            – primary key identifier.
//  EventID       – owning event.
//  Tier          – standard or vip.
//  Quantity      – seats consumed by this row (always 1 for rows the
//                  reservation path writes; kept for the derived sums).
//  Name          – participant name.
//  Email         – participant email, stored lowercased.
//  Phone         – participant phone number.
//  TransactionID – payment-provider identifier, registered at most
//                  once across the whole table.
//  UnitPrice     – price charged for this participant.
//  Status        – ticket state, 'confirmed' on the write path.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last modification timestamp.
type Ticket struct {
	ID            uint64          // tickets.id
	EventID       uint64          // tickets.event_id
	Tier          Tier            // tickets.tier
	Quantity      uint32          // tickets.quantity
	Name          string          // tickets.name
	Email         string          // tickets.email
	Phone         string          // tickets.phone
	TransactionID string          // tickets.transaction_id
	UnitPrice     decimal.Decimal // tickets.unit_price
	Status        string          // tickets.status
	CreatedAt     time.Time       // tickets.created_at
	UpdatedAt     time.Time       // tickets.updated_at
}

// Participant holds the data collected by the purchase form for one
// attendee.  Every field is required by validation.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
