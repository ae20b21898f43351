// Package storage provides abstractions for the debt ledger's document store.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
)

// MaxAmountScale is the most fractional digits every store keeps exactly.
// The postgres amount columns are numeric(28,8).
const MaxAmountScale = 8

var (
	// ErrNotFound is returned when a debt or payment does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPaidAmountOutOfRange is returned when an increment would push a
	// debt's paid amount past its total.
	ErrPaidAmountOutOfRange = errors.New("paid amount out of range")

	// ErrHasPayments is returned by DeleteDebt when the debt has a non-zero
	// paid amount or any payment records.
	ErrHasPayments = errors.New("debt has payment history")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("store closed")
)

// DebtQuery filters the debts collection. OwnerID is required; the other
// fields are optional and match exactly when set.
type DebtQuery struct {
	OwnerID        string
	BusinessUnitID string
	ContactID      string
}

// Matches reports whether d passes the filter.
func (q DebtQuery) Matches(d *models.Debt) bool {
	if d.OwnerID != q.OwnerID {
		return false
	}
	if q.BusinessUnitID != "" && d.BusinessUnitID != q.BusinessUnitID {
		return false
	}
	if q.ContactID != "" && d.ContactID != q.ContactID {
		return false
	}
	return true
}

// PaymentQuery filters the payments nested under one debt.
type PaymentQuery struct {
	OwnerID string
	DebtID  string
}

// Matches reports whether p passes the filter.
func (q PaymentQuery) Matches(p *models.DebtPayment) bool {
	return p.OwnerID == q.OwnerID && p.DebtID == q.DebtID
}

// DebtStore is the debts collection.
// Every debt returned has been passed through models.NormalizeDebt.
type DebtStore interface {
	// CreateDebt persists a new debt. ID, CreatedAt and UpdatedAt are
	// populated by the store when empty.
	CreateDebt(ctx context.Context, debt *models.Debt) error

	// GetDebt retrieves a debt by ID. Returns ErrNotFound if it does not exist.
	GetDebt(ctx context.Context, debtID string) (*models.Debt, error)

	// ListDebts returns matching debts ordered by CreatedAt descending.
	ListDebts(ctx context.Context, q DebtQuery) ([]*models.Debt, error)

	// UpdateDebtDetails replaces the display and scoping fields
	// (ContactName, ContactPhone, BusinessUnitID) of an existing debt.
	UpdateDebtDetails(ctx context.Context, debt *models.Debt) error

	// IncrementPaidAmount atomically adds delta to PaidAmount and returns
	// the updated debt. Returns ErrPaidAmountOutOfRange, leaving the debt
	// untouched, if the result would exceed TotalAmount.
	IncrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error)

	// DecrementPaidAmount atomically subtracts delta from PaidAmount,
	// clamping at zero, and returns the updated debt.
	DecrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error)

	// DeleteDebt removes a debt whose paid amount is zero and which has no
	// payments. The check and the delete are one atomic step. Returns
	// ErrHasPayments, leaving the debt untouched, otherwise, and ErrNotFound
	// if it does not exist.
	DeleteDebt(ctx context.Context, debtID string) error
}

// PaymentStore is the payments sub-collection of each debt.
type PaymentStore interface {
	// CreatePayment persists a payment. ID and PaidAt are populated when empty.
	CreatePayment(ctx context.Context, payment *models.DebtPayment) error

	// GetPayment retrieves one payment of a debt.
	GetPayment(ctx context.Context, debtID, paymentID string) (*models.DebtPayment, error)

	// ListPayments returns matching payments ordered by PaidAt descending.
	ListPayments(ctx context.Context, q PaymentQuery) ([]*models.DebtPayment, error)

	// DeletePayment removes one payment of a debt.
	DeletePayment(ctx context.Context, debtID, paymentID string) error
}

// Tx is the view of the store inside a multi-document transaction.
type Tx interface {
	DebtStore
	PaymentStore
}

// Transactor is implemented by stores that can commit writes to several
// documents atomically. fn's writes are committed only if it returns nil.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Store defines the full document store contract consumed by the ledger.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// memory) without changing the ledger.
type Store interface {
	DebtStore
	PaymentStore

	// SubscribeDebts streams a fresh snapshot of matching debts on every
	// change. The first snapshot carries the current state.
	SubscribeDebts(ctx context.Context, q DebtQuery) (*Subscription[*models.Debt], error)

	// SubscribePayments streams a fresh snapshot of a debt's payments on
	// every change.
	SubscribePayments(ctx context.Context, q PaymentQuery) (*Subscription[*models.DebtPayment], error)

	// Close releases any resources held by the store.
	Close() error
}
