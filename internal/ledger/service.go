// Package ledger implements the debt settlement operations and the live
// summary projector on top of a storage.Store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/metrics"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

const (
	defaultScale              int32 = 2
	defaultCompletionAttempts       = 2
)

// Service mutates the ledger. It is the only code path that writes a
// debt's paid amount.
type Service struct {
	store              storage.Store
	now                func() time.Time
	logger             *slog.Logger
	metrics            *metrics.Ledger
	scale              int32
	completionAttempts int
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	// Now stamps payments recorded without an explicit time.
	Now func() time.Time

	Logger  *slog.Logger
	Metrics *metrics.Ledger

	// Scale is the number of minor-unit digits amounts may carry (default 2).
	// Use a negative value for currencies without minor units.
	Scale int32

	// CompletionAttempts bounds how often the missing half of a two-phase
	// write is attempted before it is compensated (default 2).
	CompletionAttempts int
}

// NewService creates a Service over store.
func NewService(store storage.Store, opts Options) *Service {
	s := &Service{
		store:              store,
		now:                opts.Now,
		logger:             opts.Logger,
		metrics:            opts.Metrics,
		scale:              opts.Scale,
		completionAttempts: opts.CompletionAttempts,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.scale == 0 {
		s.scale = defaultScale
	}
	if s.scale < 0 {
		s.scale = 0
	}
	if s.completionAttempts <= 0 {
		s.completionAttempts = defaultCompletionAttempts
	}
	return s
}

// NewDebt describes a debt to create. An empty Direction is stored as
// models.ContactOwesBusiness.
type NewDebt struct {
	OwnerID             string
	BusinessUnitID      string
	ContactID           string
	ContactName         string
	ContactPhone        string
	Direction           models.Direction
	TotalAmount         decimal.Decimal
	SourceTransactionID string
}

// DebtEdit changes a debt's display and scoping fields. Nil fields are left
// unchanged. Amounts and direction are not editable.
type DebtEdit struct {
	ContactName    *string
	ContactPhone   *string
	BusinessUnitID *string
}

// PaymentRequest describes one payment against a debt.
type PaymentRequest struct {
	DebtID      string
	Amount      decimal.Decimal
	Description string

	// PaidAt defaults to now.
	PaidAt time.Time
}

// CreateDebt records a new obligation. It is also the entry point used when
// a transaction is marked as a debt, with SourceTransactionID set.
func (s *Service) CreateDebt(ctx context.Context, req NewDebt) (*models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.OwnerID == "" {
		return nil, invalid("owner_id", ErrMissingField, "")
	}
	if req.ContactID == "" {
		return nil, invalid("contact_id", ErrMissingField, "")
	}
	if !models.IsKnownDirection(string(req.Direction)) {
		return nil, invalid("direction", ErrInvalidDirection, string(req.Direction))
	}
	if err := s.checkAmount("total_amount", req.TotalAmount); err != nil {
		return nil, err
	}

	debt := &models.Debt{
		OwnerID:             req.OwnerID,
		BusinessUnitID:      req.BusinessUnitID,
		ContactID:           req.ContactID,
		ContactName:         req.ContactName,
		ContactPhone:        req.ContactPhone,
		Direction:           req.Direction.Normalize(),
		TotalAmount:         req.TotalAmount,
		PaidAmount:          decimal.Zero,
		SourceTransactionID: req.SourceTransactionID,
	}
	if err := s.store.CreateDebt(ctx, debt); err != nil {
		return nil, s.storeError("create debt", err)
	}

	s.logger.Info("Debt created",
		"debt_id", debt.ID,
		"owner_id", debt.OwnerID,
		"contact_id", debt.ContactID,
		"direction", debt.Direction,
		"total_amount", debt.TotalAmount.String(),
	)
	return debt, nil
}

// GetDebt retrieves one debt.
func (s *Service) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	debt, err := s.store.GetDebt(ctx, debtID)
	if err != nil {
		return nil, s.storeError("get debt", err)
	}
	return debt, nil
}

// ListDebts retrieves matching debts, newest first.
func (s *Service) ListDebts(ctx context.Context, q storage.DebtQuery) ([]*models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.OwnerID == "" {
		return nil, invalid("owner_id", ErrMissingField, "")
	}
	debts, err := s.store.ListDebts(ctx, q)
	if err != nil {
		return nil, s.storeError("list debts", err)
	}
	return debts, nil
}

// EditDebt applies an explicit edit to a debt's display and scoping fields.
func (s *Service) EditDebt(ctx context.Context, debtID string, edit DebtEdit) (*models.Debt, error) {
	debt, err := s.GetDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if edit.ContactName != nil {
		debt.ContactName = *edit.ContactName
	}
	if edit.ContactPhone != nil {
		debt.ContactPhone = *edit.ContactPhone
	}
	if edit.BusinessUnitID != nil {
		debt.BusinessUnitID = *edit.BusinessUnitID
	}
	if err := s.store.UpdateDebtDetails(ctx, debt); err != nil {
		return nil, s.storeError("edit debt", err)
	}
	return s.GetDebt(ctx, debtID)
}

// ListPayments retrieves a debt's payments, newest first.
func (s *Service) ListPayments(ctx context.Context, debtID string) ([]*models.DebtPayment, error) {
	debt, err := s.GetDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, storage.PaymentQuery{OwnerID: debt.OwnerID, DebtID: debt.ID})
	if err != nil {
		return nil, s.storeError("list payments", err)
	}
	return payments, nil
}

// Summary computes the current summary of one contact.
func (s *Service) Summary(ctx context.Context, ownerID, contactID string) (models.ContactDebtSummary, error) {
	debts, err := s.ListDebts(ctx, storage.DebtQuery{OwnerID: ownerID, ContactID: contactID})
	if err != nil {
		return models.ContactDebtSummary{}, err
	}
	return calculator.SummarizeContact(ownerID, contactID, debts), nil
}

// Summaries computes the current summary of every contact of an owner.
func (s *Service) Summaries(ctx context.Context, ownerID string) ([]models.ContactDebtSummary, error) {
	debts, err := s.ListDebts(ctx, storage.DebtQuery{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return calculator.SummarizeAll(ownerID, debts), nil
}

// RecordPayment records a payment against a debt and raises its paid
// amount by the same value. Overpayment is rejected, never clamped.
//
// On a transactional store both writes commit together. Otherwise the
// paid amount is raised first (the store guards it against the total),
// then the payment is written; if that keeps failing the raise is undone.
func (s *Service) RecordPayment(ctx context.Context, req PaymentRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.checkAmount("amount", req.Amount); err != nil {
		return "", err
	}

	debt, err := s.store.GetDebt(ctx, req.DebtID)
	if err != nil {
		return "", s.storeError("record payment", err)
	}
	if debt.PaidAmount.Add(req.Amount).GreaterThan(debt.TotalAmount) {
		return "", invalid("amount", ErrOverpayment,
			fmt.Sprintf("amount %s, remaining %s", req.Amount, calculator.Remaining(debt)))
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	payment := &models.DebtPayment{
		DebtID:      debt.ID,
		OwnerID:     debt.OwnerID,
		ContactID:   debt.ContactID,
		Amount:      req.Amount,
		Description: req.Description,
		PaidAt:      paidAt,
	}

	if txr, ok := s.store.(storage.Transactor); ok {
		err = txr.WithTx(ctx, func(tx storage.Tx) error {
			if _, err := tx.IncrementPaidAmount(ctx, debt.ID, req.Amount); err != nil {
				return err
			}
			return tx.CreatePayment(ctx, payment)
		})
	} else {
		err = s.recordTwoPhase(ctx, payment)
	}
	if err != nil {
		if errors.Is(err, storage.ErrPaidAmountOutOfRange) {
			return "", invalid("amount", ErrOverpayment, err.Error())
		}
		return "", s.storeError("record payment", err)
	}

	s.metrics.PaymentRecorded(req.Amount)
	s.logger.Info("Payment recorded",
		"debt_id", debt.ID,
		"payment_id", payment.ID,
		"owner_id", debt.OwnerID,
		"contact_id", debt.ContactID,
		"amount", req.Amount.String(),
	)
	return payment.ID, nil
}

func (s *Service) recordTwoPhase(ctx context.Context, payment *models.DebtPayment) error {
	if _, err := s.store.IncrementPaidAmount(ctx, payment.DebtID, payment.Amount); err != nil {
		return err
	}

	writeErr := s.complete(ctx, "record_payment", func() error {
		return s.store.CreatePayment(ctx, payment)
	})
	if writeErr == nil {
		return nil
	}

	// The payment never landed: take the increment back.
	_, compErr := s.store.DecrementPaidAmount(context.WithoutCancel(ctx), payment.DebtID, payment.Amount)
	return s.compensated("record_payment", payment.DebtID, writeErr, compErr)
}

// DeletePayment removes a payment and lowers its debt's paid amount by the
// payment's amount, clamped at zero. amount must match the recorded payment;
// a zero amount means "whatever was recorded".
func (s *Service) DeletePayment(ctx context.Context, debtID, paymentID string, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return invalid("amount", ErrInvalidAmount, amount.String())
	}

	payment, err := s.store.GetPayment(ctx, debtID, paymentID)
	if err != nil {
		return s.storeError("delete payment", err)
	}
	if !amount.IsZero() && !amount.Equal(payment.Amount) {
		return invalid("amount", ErrAmountMismatch,
			fmt.Sprintf("given %s, recorded %s", amount, payment.Amount))
	}

	if txr, ok := s.store.(storage.Transactor); ok {
		err = txr.WithTx(ctx, func(tx storage.Tx) error {
			if err := tx.DeletePayment(ctx, debtID, paymentID); err != nil {
				return err
			}
			_, err := tx.DecrementPaidAmount(ctx, debtID, payment.Amount)
			return err
		})
	} else {
		err = s.deleteTwoPhase(ctx, payment)
	}
	if err != nil {
		return s.storeError("delete payment", err)
	}

	s.metrics.PaymentDeleted()
	s.logger.Info("Payment deleted",
		"debt_id", debtID,
		"payment_id", paymentID,
		"amount", payment.Amount.String(),
	)
	return nil
}

func (s *Service) deleteTwoPhase(ctx context.Context, payment *models.DebtPayment) error {
	if err := s.store.DeletePayment(ctx, payment.DebtID, payment.ID); err != nil {
		return err
	}

	writeErr := s.complete(ctx, "delete_payment", func() error {
		_, err := s.store.DecrementPaidAmount(ctx, payment.DebtID, payment.Amount)
		return err
	})
	if writeErr == nil {
		return nil
	}

	// The paid amount was never lowered: put the payment back.
	compErr := s.store.CreatePayment(context.WithoutCancel(ctx), payment)
	return s.compensated("delete_payment", payment.DebtID, writeErr, compErr)
}

// DeleteDebt removes a debt that has no payment history. The store checks
// the paid amount and the payments in the same atomic step as the delete,
// so a payment recorded concurrently either blocks the delete or fails.
func (s *Service) DeleteDebt(ctx context.Context, debtID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if debtID == "" {
		return invalid("debt_id", ErrMissingField, "")
	}

	if err := s.store.DeleteDebt(ctx, debtID); err != nil {
		if errors.Is(err, storage.ErrHasPayments) {
			return invalid("debt_id", ErrHasPaymentHistory, err.Error())
		}
		return s.storeError("delete debt", err)
	}

	s.logger.Info("Debt deleted", "debt_id", debtID)
	return nil
}

// complete runs the second half of a two-phase write up to
// completionAttempts times.
func (s *Service) complete(ctx context.Context, op string, write func() error) error {
	var err error
	for attempt := 1; attempt <= s.completionAttempts; attempt++ {
		if err = write(); err == nil {
			if attempt > 1 {
				s.metrics.Compensation(op, "completed")
				s.logger.Warn("Two-phase write completed on retry", "op", op, "attempt", attempt)
			}
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return err
}

func (s *Service) compensated(op, debtID string, writeErr, compErr error) error {
	if compErr != nil {
		s.metrics.Compensation(op, "failed")
		s.logger.Error("Compensation failed, records inconsistent",
			"op", op,
			"debt_id", debtID,
			"write_error", writeErr,
			"compensation_error", compErr,
		)
		return &InconsistentWriteError{Op: op, DebtID: debtID, WriteErr: writeErr, CompensateErr: compErr}
	}
	s.metrics.Compensation(op, "rolled_back")
	s.logger.Warn("Two-phase write rolled back", "op", op, "debt_id", debtID, "error", writeErr)
	return writeErr
}

// checkAmount requires a positive amount within the currency's precision.
func (s *Service) checkAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field, ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(s.scale)) {
		return invalid(field, ErrAmountPrecision, amount.String())
	}
	return nil
}

// storeError classifies an error coming back from the store.
func (s *Service) storeError(op string, err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInconsistentWrite):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		s.logger.Error("Store operation failed", "op", op, "error", err)
		return &StoreUnavailableError{Op: op, Err: err}
	}
}
