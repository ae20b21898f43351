// Package memory provides an in-process implementation of storage.Store.
//
// Every method is atomic on the document it touches, but the store offers
// no multi-document transactions: it does not implement storage.Transactor,
// so the ledger falls back to its two-phase write with compensation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps debts and payments in maps guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	debts    map[string]*models.Debt
	payments map[string]map[string]*models.DebtPayment // debtID -> paymentID -> payment
	feed     *storage.Feed
	now      func() time.Time
	closed   bool
}

// New creates an empty Store.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty Store that stamps records with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		debts:    make(map[string]*models.Debt),
		payments: make(map[string]map[string]*models.DebtPayment),
		feed:     storage.NewFeed(),
		now:      now,
	}
}

// Close stops every live subscription.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.feed.Close()
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed {
		return storage.ErrClosed
	}
	return nil
}

// CreateDebt stores a copy of debt.
func (s *Store) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	if _, exists := s.debts[debt.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("debt already exists: %s", debt.ID)
	}
	now := s.now()
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = now
	}
	if debt.UpdatedAt.IsZero() {
		debt.UpdatedAt = debt.CreatedAt
	}
	s.debts[debt.ID] = debt.Clone()
	models.NormalizeDebt(debt)
	s.mu.Unlock()

	s.feed.Notify(debt.OwnerID)
	return nil
}

// GetDebt returns a copy of the debt.
func (s *Store) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	d, ok := s.debts[debtID]
	if !ok {
		return nil, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	return models.NormalizeDebt(d.Clone()), nil
}

// ListDebts returns copies of matching debts, newest first.
func (s *Store) ListDebts(ctx context.Context, q storage.DebtQuery) ([]*models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var debts []*models.Debt
	for _, d := range s.debts {
		if q.Matches(d) {
			debts = append(debts, models.NormalizeDebt(d.Clone()))
		}
	}
	sort.Slice(debts, func(i, j int) bool {
		if !debts[i].CreatedAt.Equal(debts[j].CreatedAt) {
			return debts[i].CreatedAt.After(debts[j].CreatedAt)
		}
		return debts[i].ID > debts[j].ID
	})
	return debts, nil
}

// UpdateDebtDetails replaces the display and scoping fields of a debt.
func (s *Store) UpdateDebtDetails(ctx context.Context, debt *models.Debt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	stored, ok := s.debts[debt.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("debt %s: %w", debt.ID, storage.ErrNotFound)
	}
	stored.ContactName = debt.ContactName
	stored.ContactPhone = debt.ContactPhone
	stored.BusinessUnitID = debt.BusinessUnitID
	stored.UpdatedAt = s.now()
	owner := stored.OwnerID
	s.mu.Unlock()

	s.feed.Notify(owner)
	return nil
}

// IncrementPaidAmount adds delta to a debt's paid amount under the lock.
func (s *Store) IncrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	return s.adjustPaid(ctx, debtID, func(d *models.Debt) error {
		paid := d.PaidAmount.Add(delta)
		if paid.GreaterThan(d.TotalAmount) || paid.IsNegative() {
			return fmt.Errorf("debt %s: paid %s + %s exceeds total %s: %w",
				debtID, d.PaidAmount, delta, d.TotalAmount, storage.ErrPaidAmountOutOfRange)
		}
		d.PaidAmount = paid
		return nil
	})
}

// DecrementPaidAmount subtracts delta from a debt's paid amount, clamping at zero.
func (s *Store) DecrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	return s.adjustPaid(ctx, debtID, func(d *models.Debt) error {
		paid := d.PaidAmount.Sub(delta)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		d.PaidAmount = paid
		return nil
	})
}

func (s *Store) adjustPaid(ctx context.Context, debtID string, apply func(d *models.Debt) error) (*models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	stored, ok := s.debts[debtID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err := apply(stored); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	stored.UpdatedAt = s.now()
	updated := models.NormalizeDebt(stored.Clone())
	s.mu.Unlock()

	s.feed.Notify(updated.OwnerID)
	return updated, nil
}

// DeleteDebt removes a debt without payment history.
func (s *Store) DeleteDebt(ctx context.Context, debtID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	stored, ok := s.debts[debtID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if !stored.PaidAmount.IsZero() || len(s.payments[debtID]) > 0 {
		err := fmt.Errorf("debt %s: paid %s, %d payments: %w",
			debtID, stored.PaidAmount, len(s.payments[debtID]), storage.ErrHasPayments)
		s.mu.Unlock()
		return err
	}
	delete(s.debts, debtID)
	delete(s.payments, debtID)
	s.mu.Unlock()

	s.feed.Notify(stored.OwnerID)
	return nil
}

// CreatePayment stores a copy of payment under its debt.
func (s *Store) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.debts[payment.DebtID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("debt %s: %w", payment.DebtID, storage.ErrNotFound)
	}
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = s.now()
	}
	if s.payments[payment.DebtID] == nil {
		s.payments[payment.DebtID] = make(map[string]*models.DebtPayment)
	}
	s.payments[payment.DebtID][payment.ID] = payment.Clone()
	s.mu.Unlock()

	s.feed.Notify(payment.OwnerID)
	return nil
}

// GetPayment returns a copy of one payment.
func (s *Store) GetPayment(ctx context.Context, debtID, paymentID string) (*models.DebtPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	p, ok := s.payments[debtID][paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s of debt %s: %w", paymentID, debtID, storage.ErrNotFound)
	}
	return p.Clone(), nil
}

// ListPayments returns copies of matching payments, newest first.
func (s *Store) ListPayments(ctx context.Context, q storage.PaymentQuery) ([]*models.DebtPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var payments []*models.DebtPayment
	for _, p := range s.payments[q.DebtID] {
		if q.Matches(p) {
			payments = append(payments, p.Clone())
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaidAt.Equal(payments[j].PaidAt) {
			return payments[i].PaidAt.After(payments[j].PaidAt)
		}
		return payments[i].ID > payments[j].ID
	})
	return payments, nil
}

// DeletePayment removes one payment.
func (s *Store) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	p, ok := s.payments[debtID][paymentID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("payment %s of debt %s: %w", paymentID, debtID, storage.ErrNotFound)
	}
	delete(s.payments[debtID], paymentID)
	s.mu.Unlock()

	s.feed.Notify(p.OwnerID)
	return nil
}

// SubscribeDebts streams matching debts on every change to the owner's records.
func (s *Store) SubscribeDebts(ctx context.Context, q storage.DebtQuery) (*storage.Subscription[*models.Debt], error) {
	if err := s.isOpen(); err != nil {
		return nil, err
	}
	return storage.Watch(ctx, s.feed, q.OwnerID, func(ctx context.Context) ([]*models.Debt, error) {
		return s.ListDebts(ctx, q)
	}), nil
}

// SubscribePayments streams a debt's payments on every change to the owner's records.
func (s *Store) SubscribePayments(ctx context.Context, q storage.PaymentQuery) (*storage.Subscription[*models.DebtPayment], error) {
	if err := s.isOpen(); err != nil {
		return nil, err
	}
	return storage.Watch(ctx, s.feed, q.OwnerID, func(ctx context.Context) ([]*models.DebtPayment, error) {
		return s.ListPayments(ctx, q)
	}), nil
}

func (s *Store) isOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkOpen()
}

// Feed exposes the store's change feed.
func (s *Store) Feed() *storage.Feed {
	return s.feed
}

// PutRaw stores a debt exactly as given, bypassing normalization. It exists
// to load legacy records whose fields predate the current schema.
func (s *Store) PutRaw(debt *models.Debt) {
	s.mu.Lock()
	s.debts[debt.ID] = debt.Clone()
	s.mu.Unlock()
	s.feed.Notify(debt.OwnerID)
}
