package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dbPath
}

func newDebt(contactID string, dir models.Direction, total string) *models.Debt {
	return &models.Debt{
		OwnerID:     "owner-1",
		ContactID:   contactID,
		ContactName: "Siti",
		Direction:   dir,
		TotalAmount: dec(total),
		PaidAmount:  decimal.Zero,
	}
}

func TestSQLiteStore(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateDebt generates ID and timestamps", func(t *testing.T) {
		debt := newDebt("c1", models.ContactOwesBusiness, "100000")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}
		if debt.ID == "" {
			t.Error("Expected debt ID to be generated")
		}
		if debt.CreatedAt.IsZero() || debt.UpdatedAt.IsZero() {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("GetDebt retrieves complete debt", func(t *testing.T) {
		original := newDebt("c2", models.BusinessOwesContact, "1250.75")
		original.BusinessUnitID = "warung-1"
		original.ContactPhone = "+62 812 0000"
		original.SourceTransactionID = "tx-42"
		if err := store.CreateDebt(ctx, original); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}

		got, err := store.GetDebt(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetDebt failed: %v", err)
		}
		if got.OwnerID != "owner-1" || got.ContactID != "c2" || got.BusinessUnitID != "warung-1" {
			t.Errorf("scoping fields mismatch: %+v", got)
		}
		if got.ContactName != "Siti" || got.ContactPhone != "+62 812 0000" {
			t.Errorf("contact fields mismatch: %+v", got)
		}
		if got.Direction != models.BusinessOwesContact {
			t.Errorf("Direction = %s, want %s", got.Direction, models.BusinessOwesContact)
		}
		if !got.TotalAmount.Equal(dec("1250.75")) || !got.PaidAmount.IsZero() {
			t.Errorf("amounts = %s/%s, want 1250.75/0", got.TotalAmount, got.PaidAmount)
		}
		if got.SourceTransactionID != "tx-42" {
			t.Errorf("SourceTransactionID = %q, want tx-42", got.SourceTransactionID)
		}
		if !got.CreatedAt.Equal(original.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, original.CreatedAt)
		}
	})

	t.Run("GetDebt returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetDebt(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetDebt() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListDebts filters and orders newest first", func(t *testing.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		var ids []string
		for i := 0; i < 3; i++ {
			d := newDebt("c-list", models.ContactOwesBusiness, "10")
			d.OwnerID = "owner-list"
			d.CreatedAt = base.Add(time.Duration(i) * time.Hour)
			if err := store.CreateDebt(ctx, d); err != nil {
				t.Fatalf("CreateDebt failed: %v", err)
			}
			ids = append(ids, d.ID)
		}
		other := newDebt("c-other", models.ContactOwesBusiness, "10")
		other.OwnerID = "owner-list"
		other.BusinessUnitID = "unit-b"
		other.CreatedAt = base
		if err := store.CreateDebt(ctx, other); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}

		debts, err := store.ListDebts(ctx, storage.DebtQuery{OwnerID: "owner-list", ContactID: "c-list"})
		if err != nil {
			t.Fatalf("ListDebts failed: %v", err)
		}
		if len(debts) != 3 {
			t.Fatalf("got %d debts, want 3", len(debts))
		}
		for i, d := range debts {
			if want := ids[len(ids)-1-i]; d.ID != want {
				t.Errorf("debts[%d] = %s, want %s", i, d.ID, want)
			}
		}

		byUnit, err := store.ListDebts(ctx, storage.DebtQuery{OwnerID: "owner-list", BusinessUnitID: "unit-b"})
		if err != nil {
			t.Fatalf("ListDebts failed: %v", err)
		}
		if len(byUnit) != 1 || byUnit[0].ID != other.ID {
			t.Errorf("business unit filter returned %d debts", len(byUnit))
		}
	})

	t.Run("UpdateDebtDetails changes display fields only", func(t *testing.T) {
		debt := newDebt("c3", models.ContactOwesBusiness, "500")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}
		debt.ContactName = "Siti Rahma"
		debt.TotalAmount = dec("1")
		if err := store.UpdateDebtDetails(ctx, debt); err != nil {
			t.Fatalf("UpdateDebtDetails failed: %v", err)
		}
		got, err := store.GetDebt(ctx, debt.ID)
		if err != nil {
			t.Fatalf("GetDebt failed: %v", err)
		}
		if got.ContactName != "Siti Rahma" {
			t.Errorf("ContactName = %q, want Siti Rahma", got.ContactName)
		}
		if !got.TotalAmount.Equal(dec("500")) {
			t.Errorf("TotalAmount = %s, want 500 (not editable)", got.TotalAmount)
		}
	})

	t.Run("paid amount stays within range", func(t *testing.T) {
		debt := newDebt("c4", models.ContactOwesBusiness, "100")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}

		got, err := store.IncrementPaidAmount(ctx, debt.ID, dec("60"))
		if err != nil {
			t.Fatalf("IncrementPaidAmount failed: %v", err)
		}
		if !got.PaidAmount.Equal(dec("60")) {
			t.Errorf("PaidAmount = %s, want 60", got.PaidAmount)
		}

		if _, err := store.IncrementPaidAmount(ctx, debt.ID, dec("40.01")); !errors.Is(err, storage.ErrPaidAmountOutOfRange) {
			t.Errorf("IncrementPaidAmount() error = %v, want ErrPaidAmountOutOfRange", err)
		}

		got, err = store.DecrementPaidAmount(ctx, debt.ID, dec("75"))
		if err != nil {
			t.Fatalf("DecrementPaidAmount failed: %v", err)
		}
		if !got.PaidAmount.IsZero() {
			t.Errorf("PaidAmount = %s, want 0 (clamped)", got.PaidAmount)
		}
	})

	t.Run("payments CRUD", func(t *testing.T) {
		debt := newDebt("c5", models.ContactOwesBusiness, "100")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}

		base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		older := &models.DebtPayment{DebtID: debt.ID, OwnerID: "owner-1", ContactID: "c5", Amount: dec("10"), PaidAt: base}
		newer := &models.DebtPayment{DebtID: debt.ID, OwnerID: "owner-1", ContactID: "c5", Amount: dec("15.5"), Description: "transfer", PaidAt: base.Add(time.Hour)}
		for _, p := range []*models.DebtPayment{older, newer} {
			if err := store.CreatePayment(ctx, p); err != nil {
				t.Fatalf("CreatePayment failed: %v", err)
			}
		}

		got, err := store.GetPayment(ctx, debt.ID, newer.ID)
		if err != nil {
			t.Fatalf("GetPayment failed: %v", err)
		}
		if !got.Amount.Equal(dec("15.5")) || got.Description != "transfer" || !got.PaidAt.Equal(newer.PaidAt) {
			t.Errorf("GetPayment() = %+v", got)
		}

		payments, err := store.ListPayments(ctx, storage.PaymentQuery{OwnerID: "owner-1", DebtID: debt.ID})
		if err != nil {
			t.Fatalf("ListPayments failed: %v", err)
		}
		if len(payments) != 2 || payments[0].ID != newer.ID {
			t.Errorf("ListPayments() returned %d payments, want newest first", len(payments))
		}

		if err := store.DeletePayment(ctx, debt.ID, older.ID); err != nil {
			t.Fatalf("DeletePayment failed: %v", err)
		}
		if err := store.DeletePayment(ctx, debt.ID, older.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeletePayment() error = %v, want ErrNotFound", err)
		}
		if _, err := store.GetPayment(ctx, "other-debt", newer.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetPayment() under wrong debt error = %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteDebt refuses debts with payment history", func(t *testing.T) {
		debt := newDebt("c6", models.ContactOwesBusiness, "100")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}

		// A payment record alone blocks the delete, even with paid_amount 0.
		p := &models.DebtPayment{DebtID: debt.ID, OwnerID: "owner-1", ContactID: "c6", Amount: dec("1")}
		if err := store.CreatePayment(ctx, p); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
		if err := store.DeleteDebt(ctx, debt.ID); !errors.Is(err, storage.ErrHasPayments) {
			t.Fatalf("DeleteDebt() with a payment error = %v, want ErrHasPayments", err)
		}
		if err := store.DeletePayment(ctx, debt.ID, p.ID); err != nil {
			t.Fatalf("DeletePayment failed: %v", err)
		}

		// So does a non-zero paid amount.
		if _, err := store.IncrementPaidAmount(ctx, debt.ID, dec("0.01")); err != nil {
			t.Fatalf("IncrementPaidAmount failed: %v", err)
		}
		if err := store.DeleteDebt(ctx, debt.ID); !errors.Is(err, storage.ErrHasPayments) {
			t.Fatalf("DeleteDebt() with paid amount error = %v, want ErrHasPayments", err)
		}
		if _, err := store.DecrementPaidAmount(ctx, debt.ID, dec("0.01")); err != nil {
			t.Fatalf("DecrementPaidAmount failed: %v", err)
		}

		if err := store.DeleteDebt(ctx, debt.ID); err != nil {
			t.Fatalf("DeleteDebt failed: %v", err)
		}
		if err := store.DeleteDebt(ctx, debt.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeleteDebt() error = %v, want ErrNotFound", err)
		}
	})
}

func TestWithTxRollsBack(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	debt := newDebt("c1", models.ContactOwesBusiness, "100")
	if err := store.CreateDebt(ctx, debt); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}

	errBoom := errors.New("boom")
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.IncrementPaidAmount(ctx, debt.ID, dec("30")); err != nil {
			return err
		}
		if err := tx.CreatePayment(ctx, &models.DebtPayment{DebtID: debt.ID, OwnerID: "owner-1", ContactID: "c1", Amount: dec("30")}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx() error = %v, want errBoom", err)
	}

	got, err := store.GetDebt(ctx, debt.ID)
	if err != nil {
		t.Fatalf("GetDebt failed: %v", err)
	}
	if !got.PaidAmount.IsZero() {
		t.Errorf("PaidAmount = %s, want 0 after rollback", got.PaidAmount)
	}
	payments, err := store.ListPayments(ctx, storage.PaymentQuery{OwnerID: "owner-1", DebtID: debt.ID})
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("got %d payments after rollback, want 0", len(payments))
	}
}

func TestLegacyRows(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		id        string
		direction any
		wantRaw   string
	}{
		{"legacy-null", nil, ""},
		{"legacy-empty", "", ""},
		{"legacy-unknown", "HUTANG", "HUTANG"},
		{"payable", string(models.BusinessOwesContact), string(models.BusinessOwesContact)},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := store.db.ExecContext(ctx,
				`INSERT INTO debts (id, owner_id, contact_id, direction, total_amount, paid_amount, created_at, updated_at)
				 VALUES (?, 'owner-1', 'c1', ?, '100', '0', 0, 0)`,
				tt.id, tt.direction,
			)
			if err != nil {
				t.Fatalf("insert failed: %v", err)
			}

			got, err := store.GetDebt(ctx, tt.id)
			if err != nil {
				t.Fatalf("GetDebt failed: %v", err)
			}
			want := models.Direction(tt.wantRaw).Normalize()
			if got.Direction != want {
				t.Errorf("Direction = %s, want %s", got.Direction, want)
			}
			if got.StoredDirection != tt.wantRaw {
				t.Errorf("StoredDirection = %q, want %q", got.StoredDirection, tt.wantRaw)
			}
		})
	}
}

func TestSubscribeDebts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sub, err := store.SubscribeDebts(ctx, storage.DebtQuery{OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("SubscribeDebts failed: %v", err)
	}
	defer sub.Close()

	recv := func() storage.Snapshot[*models.Debt] {
		t.Helper()
		select {
		case snap := <-sub.C():
			return snap
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
		return storage.Snapshot[*models.Debt]{}
	}

	if snap := recv(); snap.Err != nil || len(snap.Items) != 0 {
		t.Fatalf("initial snapshot = %+v, want empty", snap)
	}

	debt := newDebt("c1", models.ContactOwesBusiness, "100")
	if err := store.CreateDebt(ctx, debt); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	snap := recv()
	if snap.Err != nil || len(snap.Items) != 1 || snap.Items[0].ID != debt.ID {
		t.Fatalf("snapshot after create = %+v, want the new debt", snap)
	}

	store.Close()
	if snap := recv(); !errors.Is(snap.Err, storage.ErrClosed) {
		t.Errorf("snapshot after Close = %+v, want ErrClosed", snap)
	}
}

func TestReopenKeepsData(t *testing.T) {
	store, dbPath := newTestStore(t)
	ctx := context.Background()

	debt := newDebt("c1", models.ContactOwesBusiness, "99.99")
	if err := store.CreateDebt(ctx, debt); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	store.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetDebt(ctx, debt.ID)
	if err != nil {
		t.Fatalf("GetDebt failed: %v", err)
	}
	if !got.TotalAmount.Equal(dec("99.99")) {
		t.Errorf("TotalAmount = %s, want 99.99", got.TotalAmount)
	}
}
