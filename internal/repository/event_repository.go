package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ticketry/ticket-platform/internal/model"
)

// EventRepo provides read access to events and the derived per-tier
// availability.  Capacity is never stored as a mutable counter; every
// availability figure is computed from the fixed tier total and the
// sum of confirmed ticket quantities.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID loads a single event.  ErrEventNotFound is returned when no
// row exists for the given identifier.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, name, description, starts_at, ends_at, venue,
					  price_standard, price_vip, standard_total, vip_total,
					  status, created_at
			   FROM events WHERE id = ?`
	var ev model.Event
	var priceStd, priceVIP string
	var desc, venue sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ev.ID, &ev.Name, &desc, &ev.StartsAt, &ev.EndsAt, &venue,
		&priceStd, &priceVIP, &ev.StandardTotal, &ev.VIPTotal,
		&ev.Status, &ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if desc.Valid {
		ev.Description = desc.String
	}
	if venue.Valid {
		ev.Venue = venue.String
	}
	if ev.StandardPrice, err = decimal.NewFromString(priceStd); err != nil {
		return nil, err
	}
	if ev.VIPPrice, err = decimal.NewFromString(priceVIP); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Availability computes total, sold and available seats for one tier of
// one event without any locking.  This is the display path; between
// this read and a concurrent in-flight reservation the numbers may be
// slightly stale, which is acceptable for the stock endpoint.
func (r *EventRepo) Availability(ctx context.Context, eventID uint64, tier model.Tier) (model.Availability, error) {
	col := tierTotalColumn(tier)
	q := `SELECT e.` + col + `,
				 COALESCE(SUM(t.quantity), 0)
		  FROM events e
		  LEFT JOIN tickets t ON t.event_id = e.id
			  AND t.tier = ?
			  AND t.status = ?
		  WHERE e.id = ?
		  GROUP BY e.id, e.` + col
	var av model.Availability
	av.Tier = tier
	err := r.db.QueryRowContext(ctx, q, tier, model.StatusConfirmed, eventID).Scan(&av.Total, &av.Sold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Availability{}, ErrEventNotFound
		}
		return model.Availability{}, err
	}
	av.Available = int64(av.Total) - int64(av.Sold)
	return av, nil
}

// Stock returns the per-tier availability of an event plus the
// aggregate across tiers in one consistent round trip.
func (r *EventRepo) Stock(ctx context.Context, eventID uint64) (*model.Stock, error) {
	const q = `SELECT e.id, e.name,
					  e.standard_total,
					  COALESCE(SUM(CASE WHEN t.tier = 'standard' AND t.status = 'confirmed' THEN t.quantity END), 0),
					  e.vip_total,
					  COALESCE(SUM(CASE WHEN t.tier = 'vip' AND t.status = 'confirmed' THEN t.quantity END), 0)
			   FROM events e
			   LEFT JOIN tickets t ON t.event_id = e.id
			   WHERE e.id = ?
			   GROUP BY e.id, e.name, e.standard_total, e.vip_total`
	var s model.Stock
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(
		&s.EventID, &s.EventName,
		&s.Standard.Total, &s.Standard.Sold,
		&s.VIP.Total, &s.VIP.Sold,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	s.Standard.Tier = model.TierStandard
	s.Standard.Available = int64(s.Standard.Total) - int64(s.Standard.Sold)
	s.VIP.Tier = model.TierVIP
	s.VIP.Available = int64(s.VIP.Total) - int64(s.VIP.Sold)
	s.Total = model.Availability{
		Total:     s.Standard.Total + s.VIP.Total,
		Sold:      s.Standard.Sold + s.VIP.Sold,
		Available: s.Standard.Available + s.VIP.Available,
	}
	return &s, nil
}

// Create inserts a new event and populates the generated ID.  Only the
// migration step uses this; events have no update or delete path.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	const q = `INSERT INTO events (name, description, starts_at, ends_at, venue,
								   price_standard, price_vip, standard_total, vip_total, status)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		ev.Name, ev.Description, ev.StartsAt, ev.EndsAt, ev.Venue,
		ev.StandardPrice.StringFixed(2), ev.VIPPrice.StringFixed(2),
		ev.StandardTotal, ev.VIPTotal, ev.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// tierTotalColumn maps a tier to its capacity column on the events
// table.  Tier values are validated enum members before they reach the
// repository, so the concatenation cannot carry user input.
func tierTotalColumn(t model.Tier) string {
	if t == model.TierVIP {
		return "vip_total"
	}
	return "standard_total"
}
