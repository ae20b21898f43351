package ledger

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/metrics"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
	"github.com/mmynk/debtbook/internal/storage/memory"
	"github.com/mmynk/debtbook/internal/storage/sqlite"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var errFlaky = errors.New("connection reset by peer")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestService(t *testing.T, store storage.Store) (*Service, *metrics.Ledger) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(store, Options{
		Now:     func() time.Time { return testNow },
		Logger:  discardLogger(),
		Metrics: m,
	})
	return svc, m
}

func newSQLiteStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "debts.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// newMemoryStore returns a store whose clock advances one second per
// write, so debts list in creation order.
func newMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	var ticks atomic.Int64
	store := memory.NewWithClock(func() time.Time {
		return testNow.Add(time.Duration(ticks.Add(1)) * time.Second)
	})
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateDebt(t *testing.T, svc *Service, contactID string, dir models.Direction, total string) *models.Debt {
	t.Helper()
	d, err := svc.CreateDebt(context.Background(), NewDebt{
		OwnerID:     "owner-1",
		ContactID:   contactID,
		ContactName: "Budi",
		Direction:   dir,
		TotalAmount: dec(total),
	})
	if err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	return d
}

func mustGetDebt(t *testing.T, store storage.Store, debtID string) *models.Debt {
	t.Helper()
	d, err := store.GetDebt(context.Background(), debtID)
	if err != nil {
		t.Fatalf("GetDebt failed: %v", err)
	}
	return d
}

// assertPaidMatchesPayments checks that a debt's paid amount equals the sum
// of its payments.
func assertPaidMatchesPayments(t *testing.T, store storage.Store, debtID string) {
	t.Helper()
	d := mustGetDebt(t, store, debtID)
	payments, err := store.ListPayments(context.Background(), storage.PaymentQuery{OwnerID: d.OwnerID, DebtID: debtID})
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	if !sum.Equal(d.PaidAmount) {
		t.Errorf("paid amount %s does not match sum of %d payments %s", d.PaidAmount, len(payments), sum)
	}
}

// faultyStore injects failures into a memory store's writes.
type faultyStore struct {
	*memory.Store

	// failures maps an operation to how many more calls fail; negative
	// means every call fails.
	failures map[string]int

	// failIncrementFor fails IncrementPaidAmount for specific debts.
	failIncrementFor map[string]bool

	calls map[string]int
}

func newFaultyStore(t *testing.T) *faultyStore {
	return &faultyStore{
		Store:            newMemoryStore(t),
		failures:         make(map[string]int),
		failIncrementFor: make(map[string]bool),
		calls:            make(map[string]int),
	}
}

func (f *faultyStore) fail(op string) error {
	f.calls[op]++
	n := f.failures[op]
	if n == 0 {
		return nil
	}
	if n > 0 {
		f.failures[op] = n - 1
	}
	return errFlaky
}

func (f *faultyStore) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	if err := f.fail("CreatePayment"); err != nil {
		return err
	}
	return f.Store.CreatePayment(ctx, payment)
}

func (f *faultyStore) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	if err := f.fail("DeletePayment"); err != nil {
		return err
	}
	return f.Store.DeletePayment(ctx, debtID, paymentID)
}

func (f *faultyStore) IncrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	if f.failIncrementFor[debtID] {
		f.calls["IncrementPaidAmount"]++
		return nil, errFlaky
	}
	if err := f.fail("IncrementPaidAmount"); err != nil {
		return nil, err
	}
	return f.Store.IncrementPaidAmount(ctx, debtID, delta)
}

func (f *faultyStore) DecrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	if err := f.fail("DecrementPaidAmount"); err != nil {
		return nil, err
	}
	return f.Store.DecrementPaidAmount(ctx, debtID, delta)
}
