package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketry/ticket-platform/internal/model"
	"github.com/ticketry/ticket-platform/internal/repository"
)

// fakeStore is an in-memory repository.Store whose transactions take
// an exclusive lock at LockAvailability and hold it until Commit or
// Rollback, mirroring the row lock semantics of the MySQL store.  It
// lets the reservation algorithm's concurrency and atomicity
// properties run against real goroutine contention without a
// database.
type fakeStore struct {
	mu      sync.Mutex
	eventID uint64
	totals  map[model.Tier]uint32
	tickets []model.Ticket
	nextID  uint64

	failInsertAt int   // 1-based insert index that fails; 0 never fails
	lockErr      error // returned by LockAvailability after taking the lock
}

func newFakeStore(eventID uint64, standardTotal, vipTotal uint32) *fakeStore {
	return &fakeStore{
		eventID: eventID,
		totals:  map[model.Tier]uint32{model.TierStandard: standardTotal, model.TierVIP: vipTotal},
	}
}

func (s *fakeStore) Begin(ctx context.Context) (repository.Tx, error) {
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasTransaction(transactionID), nil
}

// hasTransaction requires s.mu to be held.
func (s *fakeStore) hasTransaction(transactionID string) bool {
	for _, t := range s.tickets {
		if t.TransactionID == transactionID {
			return true
		}
	}
	return false
}

// seed inserts committed rows directly, bypassing the transaction.
func (s *fakeStore) seed(tier model.Tier, n int, transactionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.nextID++
		s.tickets = append(s.tickets, model.Ticket{
			ID:            s.nextID,
			EventID:       s.eventID,
			Tier:          tier,
			Quantity:      1,
			TransactionID: transactionID,
			Status:        model.StatusConfirmed,
		})
	}
}

func (s *fakeStore) confirmedCount(tier model.Tier) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickets {
		if t.Tier == tier && t.Status == model.StatusConfirmed {
			n++
		}
	}
	return n
}

func (s *fakeStore) rowsForTransaction(transactionID string) []model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.TransactionID == transactionID {
			out = append(out, t)
		}
	}
	return out
}

type fakeTx struct {
	store   *fakeStore
	locked  bool
	pending []model.Ticket
	inserts int
}

func (t *fakeTx) LockAvailability(ctx context.Context, eventID uint64, tier model.Tier) (model.Availability, error) {
	t.store.mu.Lock() // held until Commit or Rollback, like FOR UPDATE
	t.locked = true
	if t.store.lockErr != nil {
		return model.Availability{}, t.store.lockErr
	}
	if eventID != t.store.eventID {
		return model.Availability{}, repository.ErrEventNotFound
	}
	av := model.Availability{Tier: tier, Total: t.store.totals[tier]}
	for _, tk := range t.store.tickets {
		if tk.Tier == tier && tk.Status == model.StatusConfirmed {
			av.Sold += tk.Quantity
		}
	}
	av.Available = int64(av.Total) - int64(av.Sold)
	return av, nil
}

func (t *fakeTx) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	return t.store.hasTransaction(transactionID), nil
}

func (t *fakeTx) InsertTicket(ctx context.Context, ticket *model.Ticket) error {
	t.inserts++
	if t.store.failInsertAt > 0 && t.inserts == t.store.failInsertAt {
		return fmt.Errorf("simulated insert failure at participant %d", t.inserts)
	}
	t.store.nextID++
	ticket.ID = t.store.nextID
	t.pending = append(t.pending, *ticket)
	return nil
}

func (t *fakeTx) Commit() error {
	t.store.tickets = append(t.store.tickets, t.pending...)
	t.release()
	return nil
}

func (t *fakeTx) Rollback() error {
	t.pending = nil
	t.release()
	return nil
}

func (t *fakeTx) release() {
	if t.locked {
		t.locked = false
		t.store.mu.Unlock()
	}
}

// recordingNotifier captures post-commit confirmations.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []Confirmation
	fail  bool
}

func (n *recordingNotifier) TicketsConfirmed(ctx context.Context, c Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
	if n.fail {
		return errors.New("broker unreachable")
	}
	return nil
}

func participants(n int) []model.Participant {
	out := make([]model.Participant, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Participant{
			Name:  fmt.Sprintf("Guest %d", i+1),
			Email: fmt.Sprintf("Guest%d@Example.COM", i+1),
			Phone: fmt.Sprintf("+3361234%04d", i+1),
		})
	}
	return out
}

func validRequest(quantity int, txnID string) Request {
	return Request{
		EventID:       1,
		Tier:          "standard",
		Quantity:      quantity,
		TransactionID: txnID,
		AmountCharged: "100.00",
		Participants:  participants(quantity),
	}
}

func TestReserveSuccess(t *testing.T) {
	store := newFakeStore(1, 10, 5)
	notifier := &recordingNotifier{}
	svc := NewReservationService(store, notifier, time.Second)

	out, err := svc.Reserve(context.Background(), validRequest(4, "TXN-1"))
	require.NoError(t, err)
	assert.Equal(t, 4, out.TicketsInserted)
	assert.Equal(t, "TXN-1", out.TransactionID)
	assert.Equal(t, int64(6), out.Remaining)
	assert.Empty(t, out.Warning)

	rows := store.rowsForTransaction("TXN-1")
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, model.StatusConfirmed, r.Status)
		assert.Equal(t, model.TierStandard, r.Tier)
		assert.True(t, r.UnitPrice.Equal(decimal.RequireFromString("25.00")),
			"unit price %s", r.UnitPrice)
		assert.NotZero(t, r.ID)
	}
	// email is normalized to lower case before persisting
	assert.Equal(t, "guest1@example.com", rows[0].Email)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "TXN-1", notifier.calls[0].TransactionID)
	require.Len(t, notifier.calls[0].Tickets, 4)
	assert.NotZero(t, notifier.calls[0].Tickets[0].ID)
}

func TestReserveValidationBoundary(t *testing.T) {
	store := newFakeStore(1, 10, 5)
	svc := NewReservationService(store, nil, time.Second)

	req := validRequest(2, "TXN-V")
	req.Participants = participants(3) // three participants, quantity two

	_, err := svc.Reserve(context.Background(), req)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidInput, se.Kind)
	// rejected before any storage access
	assert.Empty(t, store.rowsForTransaction("TXN-V"))
}

func TestReserveInvalidInputs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"unknown tier", func(r *Request) { r.Tier = "balcony" }},
		{"zero quantity", func(r *Request) { r.Quantity = 0; r.Participants = nil }},
		{"missing transaction id", func(r *Request) { r.TransactionID = "  " }},
		{"bad amount", func(r *Request) { r.AmountCharged = "a lot" }},
		{"negative amount", func(r *Request) { r.AmountCharged = "-10.00" }},
		{"missing phone", func(r *Request) { r.Participants[1].Phone = "" }},
		{"invalid email", func(r *Request) { r.Participants[0].Email = "not-an-email" }},
		{"email without tld", func(r *Request) { r.Participants[0].Email = "a@b" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore(1, 10, 5)
			svc := NewReservationService(store, nil, time.Second)
			req := validRequest(2, "TXN-I")
			tc.mutate(&req)
			_, err := svc.Reserve(context.Background(), req)
			se, ok := AsError(err)
			require.True(t, ok, "expected a typed error, got %v", err)
			assert.Equal(t, KindInvalidInput, se.Kind)
			assert.Zero(t, store.confirmedCount(model.TierStandard))
		})
	}
}

func TestReserveIdempotency(t *testing.T) {
	store := newFakeStore(1, 10, 5)
	svc := NewReservationService(store, nil, time.Second)

	_, err := svc.Reserve(context.Background(), validRequest(2, "TXN-DUP"))
	require.NoError(t, err)
	before := store.confirmedCount(model.TierStandard)

	_, err = svc.Reserve(context.Background(), validRequest(2, "TXN-DUP"))
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindDuplicateTransaction, se.Kind)
	assert.Equal(t, before, store.confirmedCount(model.TierStandard))
}

func TestReserveCapacityMath(t *testing.T) {
	store := newFakeStore(1, 10, 5)
	store.seed(model.TierStandard, 7, "TXN-SEED")
	svc := NewReservationService(store, nil, time.Second)

	// 7 of 10 sold: a request for 3 drains the tier ...
	out, err := svc.Reserve(context.Background(), validRequest(3, "TXN-A"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Remaining)

	// ... and the next request for 1 observes zero availability.
	_, err = svc.Reserve(context.Background(), validRequest(1, "TXN-B"))
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInsufficientCapacity, se.Kind)
	require.NotNil(t, se.Capacity)
	assert.Equal(t, int64(0), se.Capacity.Available)
	assert.Equal(t, uint32(10), se.Capacity.Total)
	assert.Equal(t, uint32(10), se.Capacity.Sold)
	assert.Equal(t, 10, store.confirmedCount(model.TierStandard))
}

func TestReserveAtomicity(t *testing.T) {
	store := newFakeStore(1, 10, 5)
	store.failInsertAt = 2 // second participant insert fails
	svc := NewReservationService(store, nil, time.Second)

	_, err := svc.Reserve(context.Background(), validRequest(3, "TXN-FAIL"))
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindPersistenceError, se.Kind)
	// no partial participant set survives the rollback
	assert.Empty(t, store.rowsForTransaction("TXN-FAIL"))
	assert.Zero(t, store.confirmedCount(model.TierStandard))
}

func TestReserveEventNotFound(t *testing.T) {
	store := newFakeStore(42, 10, 5)
	svc := NewReservationService(store, nil, time.Second)

	req := validRequest(1, "TXN-404")
	req.EventID = 1 // store only knows event 42
	_, err := svc.Reserve(context.Background(), req)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindEventNotFound, se.Kind)
}

func TestReserveLockTimeoutIsRetryable(t *testing.T) {
	store := newFakeStore(1, 10, 5)
	store.lockErr = fmt.Errorf("%w: try restarting transaction", repository.ErrLockWaitTimeout)
	svc := NewReservationService(store, nil, time.Second)

	_, err := svc.Reserve(context.Background(), validRequest(1, "TXN-LW"))
	se, ok := AsError(err)
	require.True(t, ok)
	// a contended lock is transient, not a stock verdict
	assert.Equal(t, KindPersistenceError, se.Kind)
	assert.Zero(t, store.confirmedCount(model.TierStandard))
}

func TestReserveNotifierFailureIsNonFatal(t *testing.T) {
	store := newFakeStore(1, 10, 5)
	notifier := &recordingNotifier{fail: true}
	svc := NewReservationService(store, notifier, time.Second)

	out, err := svc.Reserve(context.Background(), validRequest(2, "TXN-N"))
	require.NoError(t, err)
	assert.Equal(t, 2, out.TicketsInserted)
	assert.NotEmpty(t, out.Warning)
	// the reservation stands regardless of delivery
	assert.Len(t, store.rowsForTransaction("TXN-N"), 2)
}

func TestReserveConcurrentNoOversell(t *testing.T) {
	const (
		workers  = 5
		quantity = 4
		capacity = quantity*(workers-1) + quantity/2 // 18: not all can win
	)
	store := newFakeStore(1, capacity, 0)
	svc := NewReservationService(store, nil, 5*time.Second)

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), validRequest(quantity, fmt.Sprintf("TXN-C%d", i)))
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		se, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindInsufficientCapacity, se.Kind)
	}
	sold := store.confirmedCount(model.TierStandard)
	assert.LessOrEqual(t, sold, capacity)
	assert.Equal(t, successes*quantity, sold)
	assert.Equal(t, workers-1, successes)
}
