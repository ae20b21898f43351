package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/debtbook/internal/metrics"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

const updateTimeout = 2 * time.Second

func next[T any](t *testing.T, o *Observation[T]) Update[T] {
	t.Helper()
	select {
	case u, ok := <-o.Updates():
		if !ok {
			t.Fatal("updates channel closed")
		}
		return u
	case <-time.After(updateTimeout):
		t.Fatal("timed out waiting for update")
	}
	panic("unreachable")
}

// waitFor reads updates until cond holds. Intermediate snapshots may be
// coalesced, so tests only assert on the state they are waiting for.
func waitFor[T any](t *testing.T, o *Observation[T], cond func(T) bool) T {
	t.Helper()
	deadline := time.After(updateTimeout)
	for {
		select {
		case u, ok := <-o.Updates():
			if !ok {
				t.Fatal("updates channel closed")
			}
			if u.Err != nil {
				t.Fatalf("unexpected update error: %v", u.Err)
			}
			if cond(u.Value) {
				return u.Value
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching update")
		}
	}
}

func assertClosed[T any](t *testing.T, o *Observation[T]) {
	t.Helper()
	select {
	case u, ok := <-o.Updates():
		if ok {
			t.Fatalf("expected closed channel, got update %+v", u)
		}
	case <-time.After(updateTimeout):
		t.Fatal("timed out waiting for channel close")
	}
}

func newTestProjector(store storage.Store, m *metrics.Ledger) *Projector {
	return NewProjector(store, ProjectorOptions{Logger: discardLogger(), Metrics: m})
}

func TestObserveContactSummary(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			svc, _ := newTestService(t, store)
			d := mustCreateDebt(t, svc, "c1", models.ContactOwesBusiness, "100000")

			obs, err := newTestProjector(store, nil).ObserveContactSummary(ctx, "owner-1", "c1")
			if err != nil {
				t.Fatalf("ObserveContactSummary failed: %v", err)
			}
			defer obs.Close()

			first := next(t, obs)
			if first.Err != nil {
				t.Fatalf("first update error: %v", first.Err)
			}
			if !first.Value.CustomerOwesAmount.Equal(dec("100000")) || first.Value.DebtorType != models.CustomerOwes {
				t.Errorf("first summary = %s %s, want 100000 CUSTOMER_OWES",
					first.Value.CustomerOwesAmount, first.Value.DebtorType)
			}
			if obs.State() != StateEmitting {
				t.Errorf("State() = %s, want %s", obs.State(), StateEmitting)
			}

			if _, err := svc.RecordPayment(ctx, PaymentRequest{DebtID: d.ID, Amount: dec("40000")}); err != nil {
				t.Fatalf("RecordPayment failed: %v", err)
			}
			waitFor(t, obs, func(s models.ContactDebtSummary) bool {
				return s.CustomerOwesAmount.Equal(dec("60000"))
			})

			if _, err := svc.PayOffAll(ctx, "owner-1", "c1"); err != nil {
				t.Fatalf("PayOffAll failed: %v", err)
			}
			settled := waitFor(t, obs, func(s models.ContactDebtSummary) bool {
				return s.DebtorType == models.NoDebt
			})
			if settled.HasActiveDebt || len(settled.Debts) != 1 {
				t.Errorf("settled summary = %+v, want inactive with history kept", settled)
			}
		})
	}
}

func TestObservationClose(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc, _ := newTestService(t, store)
	mustCreateDebt(t, svc, "c1", models.ContactOwesBusiness, "100")

	obs, err := newTestProjector(store, m).ObserveContactSummary(ctx, "owner-1", "c1")
	if err != nil {
		t.Fatalf("ObserveContactSummary failed: %v", err)
	}
	next(t, obs)
	if got := testutil.ToFloat64(m.ActiveSubscriptions.WithLabelValues("contact")); got != 1 {
		t.Errorf("active subscriptions = %v, want 1", got)
	}

	obs.Close()
	obs.Close()

	if obs.State() != StateUnsubscribed {
		t.Errorf("State() = %s, want %s", obs.State(), StateUnsubscribed)
	}
	assertClosed(t, obs)
	if got := testutil.ToFloat64(m.ActiveSubscriptions.WithLabelValues("contact")); got != 0 {
		t.Errorf("active subscriptions = %v, want 0", got)
	}
	if n := store.Feed().Watchers(); n != 0 {
		t.Errorf("feed still has %d watchers", n)
	}

	// Writes after Close reach nobody.
	mustCreateDebt(t, svc, "c1", models.ContactOwesBusiness, "50")
	assertClosed(t, obs)
}

func TestObservationContextCancel(t *testing.T) {
	store := newMemoryStore(t)
	svc, _ := newTestService(t, store)
	mustCreateDebt(t, svc, "c1", models.ContactOwesBusiness, "100")

	ctx, cancel := context.WithCancel(context.Background())
	obs, err := newTestProjector(store, nil).ObserveContactSummary(ctx, "owner-1", "c1")
	if err != nil {
		t.Fatalf("ObserveContactSummary failed: %v", err)
	}
	next(t, obs)
	cancel()
	assertClosed(t, obs)
	obs.Close()
}

func TestObserveAllSummaries(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	svc, _ := newTestService(t, store)
	mustCreateDebt(t, svc, "c1", models.ContactOwesBusiness, "100")
	mustCreateDebt(t, svc, "c2", models.BusinessOwesContact, "200")

	obs, err := newTestProjector(store, nil).ObserveAllSummaries(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ObserveAllSummaries failed: %v", err)
	}
	defer obs.Close()

	first := next(t, obs)
	if first.Err != nil || len(first.Value) != 2 {
		t.Fatalf("first update = %+v, want 2 summaries", first)
	}

	// Another owner's writes never show up.
	if _, err := svc.CreateDebt(ctx, NewDebt{
		OwnerID:     "owner-2",
		ContactID:   "c9",
		Direction:   models.ContactOwesBusiness,
		TotalAmount: dec("1"),
	}); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	mustCreateDebt(t, svc, "c3", models.ContactOwesBusiness, "300")

	summaries := waitFor(t, obs, func(s []models.ContactDebtSummary) bool { return len(s) == 3 })
	for _, s := range summaries {
		if s.OwnerID != "owner-1" {
			t.Errorf("summary for owner %s leaked into owner-1 view", s.OwnerID)
		}
	}
}

func TestObservePayments(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	svc, _ := newTestService(t, store)
	d := mustCreateDebt(t, svc, "c1", models.ContactOwesBusiness, "100")

	obs, err := newTestProjector(store, nil).ObservePayments(ctx, "owner-1", d.ID)
	if err != nil {
		t.Fatalf("ObservePayments failed: %v", err)
	}
	defer obs.Close()

	first := next(t, obs)
	if first.Err != nil || first.Value == nil || len(first.Value) != 0 {
		t.Fatalf("first update = %+v, want empty list", first)
	}

	paymentID, err := svc.RecordPayment(ctx, PaymentRequest{DebtID: d.ID, Amount: dec("25")})
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	payments := waitFor(t, obs, func(p []*models.DebtPayment) bool { return len(p) == 1 })
	if payments[0].ID != paymentID {
		t.Errorf("payment ID = %s, want %s", payments[0].ID, paymentID)
	}

	if err := svc.DeletePayment(ctx, d.ID, paymentID, dec("25")); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}
	waitFor(t, obs, func(p []*models.DebtPayment) bool { return len(p) == 0 })
}

func TestObserveStoreFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("store closes mid-stream", func(t *testing.T) {
		store := newMemoryStore(t)
		obs, err := newTestProjector(store, nil).ObserveContactSummary(ctx, "owner-1", "c1")
		if err != nil {
			t.Fatalf("ObserveContactSummary failed: %v", err)
		}
		defer obs.Close()

		if u := next(t, obs); u.Err != nil {
			t.Fatalf("first update error: %v", u.Err)
		}
		store.Close()

		u := next(t, obs)
		if !errors.Is(u.Err, ErrStoreUnavailable) || !errors.Is(u.Err, storage.ErrClosed) {
			t.Fatalf("update error = %v, want store unavailable wrapping ErrClosed", u.Err)
		}
		assertClosed(t, obs)
	})

	t.Run("store already closed", func(t *testing.T) {
		store := newMemoryStore(t)
		store.Close()
		_, err := newTestProjector(store, nil).ObserveAllSummaries(ctx, "owner-1")
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("ObserveAllSummaries() error = %v, want store unavailable", err)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		p := newTestProjector(newMemoryStore(t), nil)
		if _, err := p.ObserveContactSummary(ctx, "owner-1", ""); !errors.Is(err, ErrMissingField) {
			t.Errorf("ObserveContactSummary() error = %v, want missing field", err)
		}
		if _, err := p.ObservePayments(ctx, "", "d1"); !errors.Is(err, ErrMissingField) {
			t.Errorf("ObservePayments() error = %v, want missing field", err)
		}
	})
}
