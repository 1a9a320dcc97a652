package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticketry/ticket-platform/internal/model"
)

// TicketRepo provides persistence for ticket rows.  The reservation
// transaction is the sole writer of this table; every other method is
// a read used by lookups, statistics and reports.  All timestamps are
// stored in UTC.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// TransactionExists reports whether any ticket row already references
// the given payment transaction identifier.  It backs the idempotency
// guard's fast pre-check outside the reservation transaction.
func (r *TicketRepo) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM tickets WHERE transaction_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, transactionID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertTx inserts a single ticket row within the scope of an existing
// transaction and populates the generated ID.  The caller must commit
// or roll back; a failed insert must abort the whole participant set.
func (r *TicketRepo) InsertTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (event_id, tier, quantity, name, email, phone,
									transaction_id, unit_price, status)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.EventID, t.Tier, t.Quantity, t.Name, t.Email, t.Phone,
		t.TransactionID, t.UnitPrice.StringFixed(2), t.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListByTransaction returns all ticket rows registered under one
// payment transaction, oldest first.  An empty slice means the
// transaction is unknown.
func (r *TicketRepo) ListByTransaction(ctx context.Context, transactionID string) ([]model.Ticket, error) {
	const q = `SELECT id, event_id, tier, quantity, name, email, phone,
					  transaction_id, unit_price, status, created_at, updated_at
			   FROM tickets
			   WHERE transaction_id = ?
			   ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// TierStat aggregates confirmed sales for one tier.
type TierStat struct {
	Tier        model.Tier      `json:"tier"`
	Tickets     int64           `json:"tickets"`
	Revenue     decimal.Decimal `json:"revenue"`
	AveragePaid decimal.Decimal `json:"average_paid"`
}

// Stats returns per-tier confirmed ticket counts, revenue and average
// unit price, ordered by revenue descending.
func (r *TicketRepo) Stats(ctx context.Context) ([]TierStat, error) {
	const q = `SELECT tier, COUNT(*), COALESCE(SUM(unit_price), 0), COALESCE(AVG(unit_price), 0)
			   FROM tickets
			   WHERE status = 'confirmed'
			   GROUP BY tier
			   ORDER BY SUM(unit_price) DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make([]TierStat, 0, 2)
	for rows.Next() {
		var st TierStat
		var revenue, average string
		if err := rows.Scan(&st.Tier, &st.Tickets, &revenue, &average); err != nil {
			return nil, err
		}
		if st.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, err
		}
		if st.AveragePaid, err = decimal.NewFromString(average); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ReportRow is one line of the confirmed-ticket export, joined with
// the owning event's name and start time.
type ReportRow struct {
	TicketID      uint64
	TransactionID string
	CreatedAt     time.Time
	Name          string
	Email         string
	Phone         string
	Tier          model.Tier
	Quantity      uint32
	UnitPrice     decimal.Decimal
	Status        string
	EventName     string
	EventStartsAt time.Time
}

// ListConfirmedSince returns confirmed tickets created at or after the
// given instant, newest first, joined with event details.  A zero
// time means no lower bound.
func (r *TicketRepo) ListConfirmedSince(ctx context.Context, since time.Time) ([]ReportRow, error) {
	q := `SELECT t.id, t.transaction_id, t.created_at,
				 t.name, t.email, t.phone, t.tier, t.quantity, t.unit_price, t.status,
				 e.name, e.starts_at
		  FROM tickets t
		  JOIN events e ON e.id = t.event_id
		  WHERE t.status = 'confirmed'`
	args := []interface{}{}
	if !since.IsZero() {
		q += ` AND t.created_at >= ?`
		args = append(args, since.UTC())
	}
	q += ` ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReportRow, 0)
	for rows.Next() {
		var rr ReportRow
		var price string
		if err := rows.Scan(
			&rr.TicketID, &rr.TransactionID, &rr.CreatedAt,
			&rr.Name, &rr.Email, &rr.Phone, &rr.Tier, &rr.Quantity, &price, &rr.Status,
			&rr.EventName, &rr.EventStartsAt,
		); err != nil {
			return nil, err
		}
		if rr.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// FinancialRow is one line of the per-day, per-tier revenue summary.
type FinancialRow struct {
	Date         string
	Tier         model.Tier
	Tickets      int64
	Revenue      decimal.Decimal
	AveragePaid  decimal.Decimal
	Transactions []string
}

// FinancialSummary aggregates confirmed sales by day and tier, newest
// day first.  The transaction identifiers of each group are returned
// for reconciliation against the payment provider.
func (r *TicketRepo) FinancialSummary(ctx context.Context) ([]FinancialRow, error) {
	const q = `SELECT DATE_FORMAT(created_at, '%Y-%m-%d'), tier,
					  COUNT(*), COALESCE(SUM(unit_price), 0), COALESCE(AVG(unit_price), 0),
					  GROUP_CONCAT(DISTINCT transaction_id)
			   FROM tickets
			   WHERE status = 'confirmed'
			   GROUP BY DATE(created_at), tier
			   ORDER BY DATE(created_at) DESC, tier`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]FinancialRow, 0)
	for rows.Next() {
		var fr FinancialRow
		var revenue, average, txns string
		if err := rows.Scan(&fr.Date, &fr.Tier, &fr.Tickets, &revenue, &average, &txns); err != nil {
			return nil, err
		}
		if fr.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, err
		}
		if fr.AveragePaid, err = decimal.NewFromString(average); err != nil {
			return nil, err
		}
		if txns != "" {
			fr.Transactions = strings.Split(txns, ",")
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

// scanTickets drains a result set whose columns match the full ticket
// row layout used by ListByTransaction.
func scanTickets(rows *sql.Rows) ([]model.Ticket, error) {
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		var price string
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.Tier, &t.Quantity, &t.Name, &t.Email, &t.Phone,
			&t.TransactionID, &price, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		var err error
		if t.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
