package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ticketry/ticket-platform/internal/model"
)

// Store is the transactional gateway the reservation algorithm runs
// against.  It abstracts the backing database so the check-lock-insert
// sequence is written exactly once; a new backend only has to provide
// another implementation of Store and Tx.
type Store interface {
	// Begin opens a new transaction.  The caller must finish it with
	// Commit or Rollback; once begun there is no mid-flight
	// cancellation, the transaction runs to one of the two ends.
	Begin(ctx context.Context) (Tx, error)
	// TransactionExists is the unlocked idempotency pre-check.
	TransactionExists(ctx context.Context, transactionID string) (bool, error)
}

// Tx exposes the capability operations the reservation transaction
// needs.  LockAvailability must hold an exclusive lock on the event's
// capacity row until the transaction ends, so that concurrent requests
// for the same event are serialized by the storage engine.
type Tx interface {
	LockAvailability(ctx context.Context, eventID uint64, tier model.Tier) (model.Availability, error)
	TransactionExists(ctx context.Context, transactionID string) (bool, error)
	InsertTicket(ctx context.Context, t *model.Ticket) error
	Commit() error
	Rollback() error
}

const mysqlErrLockWaitTimeout = 1205

// MySQLStore implements Store on top of a MySQL handle.  The lock wait
// budget bounds how long a reservation may block on another in-flight
// transaction before failing as retryable.
type MySQLStore struct {
	db       *sql.DB
	tickets  *TicketRepo
	lockWait time.Duration
}

// NewMySQLStore returns a Store backed by the given database.  A
// non-positive lockWait keeps the server's default lock wait timeout.
func NewMySQLStore(db *sql.DB, lockWait time.Duration) *MySQLStore {
	return &MySQLStore{db: db, tickets: NewTicketRepo(db), lockWait: lockWait}
}

// Begin opens a transaction and applies the session lock wait budget.
func (s *MySQLStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if s.lockWait > 0 {
		secs := int(s.lockWait / time.Second)
		if secs < 1 {
			secs = 1
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET innodb_lock_wait_timeout = %d", secs)); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	return &mysqlTx{tx: tx, tickets: s.tickets}, nil
}

// TransactionExists implements the unlocked idempotency pre-check.
func (s *MySQLStore) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	return s.tickets.TransactionExists(ctx, transactionID)
}

type mysqlTx struct {
	tx      *sql.Tx
	tickets *TicketRepo
}

// LockAvailability re-reads capacity for the tier with an exclusive
// row lock on the event.  Locking the event row first serializes every
// writer for that event; the confirmed-ticket sum read afterwards in
// the same transaction is therefore a consistent view.  Two concurrent
// requests for the last seat cannot both observe it as available: the
// second blocks here until the first commits or rolls back.
func (t *mysqlTx) LockAvailability(ctx context.Context, eventID uint64, tier model.Tier) (model.Availability, error) {
	lockQ := `SELECT ` + tierTotalColumn(tier) + ` FROM events WHERE id = ? FOR UPDATE`
	var av model.Availability
	av.Tier = tier
	if err := t.tx.QueryRowContext(ctx, lockQ, eventID).Scan(&av.Total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Availability{}, ErrEventNotFound
		}
		return model.Availability{}, classifyLockErr(err)
	}
	const sumQ = `SELECT COALESCE(SUM(quantity), 0)
				  FROM tickets
				  WHERE event_id = ? AND tier = ? AND status = ?`
	if err := t.tx.QueryRowContext(ctx, sumQ, eventID, tier, model.StatusConfirmed).Scan(&av.Sold); err != nil {
		return model.Availability{}, err
	}
	av.Available = int64(av.Total) - int64(av.Sold)
	return av, nil
}

// TransactionExists re-checks the idempotency invariant under the
// event lock, closing the window between the fast pre-check and the
// first insert.
func (t *mysqlTx) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM tickets WHERE transaction_id = ?`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, transactionID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertTicket writes one participant row inside the transaction.
func (t *mysqlTx) InsertTicket(ctx context.Context, ticket *model.Ticket) error {
	return t.tickets.InsertTx(ctx, t.tx, ticket)
}

func (t *mysqlTx) Commit() error   { return t.tx.Commit() }
func (t *mysqlTx) Rollback() error { return t.tx.Rollback() }

// classifyLockErr maps the driver's lock wait timeout to the package
// sentinel so callers do not have to know MySQL error numbers.
func classifyLockErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlErrLockWaitTimeout {
		return fmt.Errorf("%w: %w", ErrLockWaitTimeout, err)
	}
	return err
}
