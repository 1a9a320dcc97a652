package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents one ticketed occasion.  Capacity values are fixed
// at creation and never decremented directly; availability is always
// derived from confirmed ticket rows so that there is a single source
// of truth.  Events are created by the migration step and are
// effectively immutable afterwards.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – public name of the event.
//  Description   – free-form description.
//  StartsAt      – when the event begins.
//  EndsAt        – when the event ends.
//  Venue         – where the event takes place.
//  StandardPrice – unit price for standard tickets.
//  VIPPrice      – unit price for VIP tickets.
//  StandardTotal – fixed capacity of the standard tier.
//  VIPTotal      – fixed capacity of the VIP tier.
//  Status        – state of the event ('active' is the only value the
//                  core logic cares about).
//  CreatedAt     – creation timestamp.
type Event struct {
	ID            uint64          // events.id
	Name          string          // events.name
	Description   string          // events.description
	StartsAt      time.Time       // events.starts_at
	EndsAt        time.Time       // events.ends_at
	Venue         string          // events.venue
	StandardPrice decimal.Decimal // events.price_standard
	VIPPrice      decimal.Decimal // events.price_vip
	StandardTotal uint32          // events.standard_total
	VIPTotal      uint32          // events.vip_total
	Status        string          // events.status
	CreatedAt     time.Time       // events.created_at
}

// TierTotal returns the fixed capacity of the given tier.
func (e *Event) TierTotal(t Tier) uint32 {
	if t == TierVIP {
		return e.VIPTotal
	}
	return e.StandardTotal
}

// Availability is the derived stock picture for one tier of one event.
// Available is always Total - Sold; it is computed, never stored.
type Availability struct {
	Tier      Tier   `json:"tier"`
	Total     uint32 `json:"total"`
	Sold      uint32 `json:"sold"`
	Available int64  `json:"available"`
}

// Stock aggregates per-tier availability for display.  The aggregate
// line sums both tiers.  This is the read-only view served by the
// stock endpoint; it may lag an in-flight reservation slightly.
type Stock struct {
	EventID   uint64       `json:"event_id"`
	EventName string       `json:"event_name"`
	Standard  Availability `json:"standard"`
	VIP       Availability `json:"vip"`
	Total     Availability `json:"total"`
}
