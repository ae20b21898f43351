package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// CreatePayment inserts a new payment.
func (r *records) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	// Generate ID if not set
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = r.now()
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO debt_payments (id, debt_id, owner_id, contact_id, amount, description, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.DebtID, payment.OwnerID, payment.ContactID,
		payment.Amount.String(), nullString(payment.Description), payment.PaidAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	r.touch(payment.OwnerID)
	return nil
}

// GetPayment retrieves one payment of a debt.
func (r *records) GetPayment(ctx context.Context, debtID, paymentID string) (*models.DebtPayment, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, debt_id, owner_id, contact_id, amount, description, paid_at
		 FROM debt_payments WHERE id = ? AND debt_id = ?`,
		paymentID, debtID,
	)
	payment, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s of debt %s: %w", paymentID, debtID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListPayments retrieves a debt's payments ordered by payment time descending.
func (r *records) ListPayments(ctx context.Context, q storage.PaymentQuery) ([]*models.DebtPayment, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, debt_id, owner_id, contact_id, amount, description, paid_at
		 FROM debt_payments WHERE debt_id = ? AND owner_id = ?
		 ORDER BY paid_at DESC, rowid DESC`,
		q.DebtID, q.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.DebtPayment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// DeletePayment removes one payment of a debt.
func (r *records) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	payment, err := r.GetPayment(ctx, debtID, paymentID)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, "DELETE FROM debt_payments WHERE id = ? AND debt_id = ?", paymentID, debtID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	r.touch(payment.OwnerID)
	return nil
}

func scanPayment(row rowScanner) (*models.DebtPayment, error) {
	payment := &models.DebtPayment{}
	var amount string
	var description sql.NullString
	var paidAt int64

	if err := row.Scan(&payment.ID, &payment.DebtID, &payment.OwnerID, &payment.ContactID,
		&amount, &description, &paidAt); err != nil {
		return nil, err
	}

	var err error
	if payment.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if description.Valid {
		payment.Description = description.String
	}
	payment.PaidAt = time.Unix(0, paidAt)

	return payment, nil
}
