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

// records implements storage.Tx over either the database or an open
// transaction. touched collects owners whose records changed so the store
// can notify subscribers after commit.
type records struct {
	q       querier
	now     func() time.Time
	touched map[string]struct{}
}

func (r *records) touch(ownerID string) {
	if r.touched != nil {
		r.touched[ownerID] = struct{}{}
	}
}

const debtColumns = `id, owner_id, business_unit_id, contact_id, contact_name, contact_phone,
	direction, total_amount, paid_amount, source_transaction_id, created_at, updated_at`

// CreateDebt inserts a new debt.
func (r *records) CreateDebt(ctx context.Context, debt *models.Debt) error {
	// Generate ID and timestamps if not set
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = r.now()
	}
	if debt.UpdatedAt.IsZero() {
		debt.UpdatedAt = debt.CreatedAt
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO debts (`+debtColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID, debt.OwnerID, debt.BusinessUnitID, debt.ContactID, debt.ContactName, debt.ContactPhone,
		nullString(string(debt.Direction)), debt.TotalAmount.String(), debt.PaidAmount.String(),
		nullString(debt.SourceTransactionID), debt.CreatedAt.UnixNano(), debt.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}

	models.NormalizeDebt(debt)
	r.touch(debt.OwnerID)
	return nil
}

// GetDebt retrieves a debt by ID.
func (r *records) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, debtID)
	debt, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

// ListDebts retrieves matching debts ordered by creation time descending.
func (r *records) ListDebts(ctx context.Context, q storage.DebtQuery) ([]*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE owner_id = ?`
	args := []any{q.OwnerID}
	if q.BusinessUnitID != "" {
		query += ` AND business_unit_id = ?`
		args = append(args, q.BusinessUnitID)
	}
	if q.ContactID != "" {
		query += ` AND contact_id = ?`
		args = append(args, q.ContactID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	return debts, nil
}

// UpdateDebtDetails updates the display and scoping fields of a debt.
func (r *records) UpdateDebtDetails(ctx context.Context, debt *models.Debt) error {
	existing, err := r.GetDebt(ctx, debt.ID)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx,
		`UPDATE debts SET contact_name = ?, contact_phone = ?, business_unit_id = ?, updated_at = ? WHERE id = ?`,
		debt.ContactName, debt.ContactPhone, debt.BusinessUnitID, r.now().UnixNano(), debt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}

	r.touch(existing.OwnerID)
	return nil
}

// IncrementPaidAmount adds delta to a debt's paid amount, refusing to pass the total.
func (r *records) IncrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	return r.setPaid(ctx, debtID, func(d *models.Debt) (decimal.Decimal, error) {
		paid := d.PaidAmount.Add(delta)
		if paid.GreaterThan(d.TotalAmount) || paid.IsNegative() {
			return decimal.Zero, fmt.Errorf("debt %s: paid %s + %s exceeds total %s: %w",
				debtID, d.PaidAmount, delta, d.TotalAmount, storage.ErrPaidAmountOutOfRange)
		}
		return paid, nil
	})
}

// DecrementPaidAmount subtracts delta from a debt's paid amount, clamping at zero.
func (r *records) DecrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	return r.setPaid(ctx, debtID, func(d *models.Debt) (decimal.Decimal, error) {
		paid := d.PaidAmount.Sub(delta)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		return paid, nil
	})
}

func (r *records) setPaid(ctx context.Context, debtID string, next func(d *models.Debt) (decimal.Decimal, error)) (*models.Debt, error) {
	debt, err := r.GetDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}
	paid, err := next(debt)
	if err != nil {
		return nil, err
	}

	updatedAt := r.now()
	_, err = r.q.ExecContext(ctx,
		`UPDATE debts SET paid_amount = ?, updated_at = ? WHERE id = ?`,
		paid.String(), updatedAt.UnixNano(), debtID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update paid amount: %w", err)
	}

	debt.PaidAmount = paid
	debt.UpdatedAt = time.Unix(0, updatedAt.UnixNano())
	r.touch(debt.OwnerID)
	return debt, nil
}

// DeleteDebt removes a debt without payment history. The guard is part of
// the DELETE statement.
func (r *records) DeleteDebt(ctx context.Context, debtID string) error {
	// Check if debt exists
	var ownerID string
	err := r.q.QueryRowContext(ctx, "SELECT owner_id FROM debts WHERE id = ?", debtID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check debt existence: %w", err)
	}

	res, err := r.q.ExecContext(ctx, `
		DELETE FROM debts
		WHERE id = ?
		  AND CAST(paid_amount AS REAL) = 0
		  AND NOT EXISTS (SELECT 1 FROM debt_payments WHERE debt_id = debts.id)`,
		debtID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("debt %s: %w", debtID, storage.ErrHasPayments)
	}

	r.touch(ownerID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebt(row rowScanner) (*models.Debt, error) {
	debt := &models.Debt{}
	var direction, sourceTxID sql.NullString
	var total, paid string
	var createdAt, updatedAt int64

	if err := row.Scan(&debt.ID, &debt.OwnerID, &debt.BusinessUnitID, &debt.ContactID,
		&debt.ContactName, &debt.ContactPhone, &direction, &total, &paid, &sourceTxID,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if debt.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total_amount %q: %w", total, err)
	}
	if debt.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("invalid paid_amount %q: %w", paid, err)
	}
	if direction.Valid {
		debt.Direction = models.Direction(direction.String)
	}
	if sourceTxID.Valid {
		debt.SourceTransactionID = sourceTxID.String
	}
	debt.CreatedAt = time.Unix(0, createdAt)
	debt.UpdatedAt = time.Unix(0, updatedAt)

	return models.NormalizeDebt(debt), nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
