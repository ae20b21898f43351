package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// debtRow is the debts table.
type debtRow struct {
	ID                  string          `gorm:"type:uuid;primaryKey"`
	OwnerID             string          `gorm:"size:128;not null;index:idx_debts_owner_contact,priority:1;index:idx_debts_owner_created,priority:1"`
	BusinessUnitID      string          `gorm:"size:128;not null;default:''"`
	ContactID           string          `gorm:"size:128;not null;index:idx_debts_owner_contact,priority:2"`
	ContactName         string          `gorm:"size:200;not null;default:''"`
	ContactPhone        string          `gorm:"size:64;not null;default:''"`
	Direction           *string         `gorm:"size:32"`
	TotalAmount         decimal.Decimal `gorm:"type:numeric(28,8);not null"`
	PaidAmount          decimal.Decimal `gorm:"type:numeric(28,8);not null;default:0"`
	SourceTransactionID *string         `gorm:"size:128"`
	CreatedAt           time.Time       `gorm:"not null;index:idx_debts_owner_created,priority:2,sort:desc"`
	UpdatedAt           time.Time       `gorm:"not null"`
}

func (debtRow) TableName() string { return "debts" }

// paymentRow is the debt_payments table.
type paymentRow struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	DebtID      string          `gorm:"type:uuid;not null;index:idx_debt_payments_debt_paid,priority:1"`
	Debt        debtRow         `gorm:"foreignKey:DebtID;references:ID;constraint:OnDelete:CASCADE"`
	OwnerID     string          `gorm:"size:128;not null;index"`
	ContactID   string          `gorm:"size:128;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(28,8);not null"`
	Description *string         `gorm:"size:500"`
	PaidAt      time.Time       `gorm:"not null;index:idx_debt_payments_debt_paid,priority:2,sort:desc"`
}

func (paymentRow) TableName() string { return "debt_payments" }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r debtRow) toModel() *models.Debt {
	return models.NormalizeDebt(&models.Debt{
		ID:                  r.ID,
		OwnerID:             r.OwnerID,
		BusinessUnitID:      r.BusinessUnitID,
		ContactID:           r.ContactID,
		ContactName:         r.ContactName,
		ContactPhone:        r.ContactPhone,
		Direction:           models.Direction(deref(r.Direction)),
		TotalAmount:         r.TotalAmount,
		PaidAmount:          r.PaidAmount,
		SourceTransactionID: deref(r.SourceTransactionID),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	})
}

func (r paymentRow) toModel() *models.DebtPayment {
	return &models.DebtPayment{
		ID:          r.ID,
		DebtID:      r.DebtID,
		OwnerID:     r.OwnerID,
		ContactID:   r.ContactID,
		Amount:      r.Amount,
		Description: deref(r.Description),
		PaidAt:      r.PaidAt,
	}
}

// records implements storage.Tx over a gorm handle.
type records struct {
	db      *gorm.DB
	now     func() time.Time
	touched map[string]struct{}
}

func (r *records) touch(ownerID string) {
	if r.touched != nil {
		r.touched[ownerID] = struct{}{}
	}
}

func (r *records) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = r.now()
	}
	if debt.UpdatedAt.IsZero() {
		debt.UpdatedAt = debt.CreatedAt
	}

	row := debtRow{
		ID:                  debt.ID,
		OwnerID:             debt.OwnerID,
		BusinessUnitID:      debt.BusinessUnitID,
		ContactID:           debt.ContactID,
		ContactName:         debt.ContactName,
		ContactPhone:        debt.ContactPhone,
		Direction:           optional(string(debt.Direction)),
		TotalAmount:         debt.TotalAmount,
		PaidAmount:          debt.PaidAmount,
		SourceTransactionID: optional(debt.SourceTransactionID),
		CreatedAt:           debt.CreatedAt,
		UpdatedAt:           debt.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}

	models.NormalizeDebt(debt)
	r.touch(debt.OwnerID)
	return nil
}

func (r *records) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	var row debtRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", debtID).Error; err != nil {
		return nil, notFound(fmt.Errorf("failed to get debt: %w", err), "debt %s", debtID)
	}
	return row.toModel(), nil
}

func (r *records) ListDebts(ctx context.Context, q storage.DebtQuery) ([]*models.Debt, error) {
	tx := r.db.WithContext(ctx).Where("owner_id = ?", q.OwnerID)
	if q.BusinessUnitID != "" {
		tx = tx.Where("business_unit_id = ?", q.BusinessUnitID)
	}
	if q.ContactID != "" {
		tx = tx.Where("contact_id = ?", q.ContactID)
	}

	var rows []debtRow
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}

	debts := make([]*models.Debt, 0, len(rows))
	for _, row := range rows {
		debts = append(debts, row.toModel())
	}
	return debts, nil
}

func (r *records) UpdateDebtDetails(ctx context.Context, debt *models.Debt) error {
	existing, err := r.lockDebt(ctx, debt.ID)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Model(&debtRow{}).Where("id = ?", debt.ID).Updates(map[string]any{
		"contact_name":     debt.ContactName,
		"contact_phone":    debt.ContactPhone,
		"business_unit_id": debt.BusinessUnitID,
		"updated_at":       r.now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}

	r.touch(existing.OwnerID)
	return nil
}

func (r *records) IncrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	return r.setPaid(ctx, debtID, func(row *debtRow) (decimal.Decimal, error) {
		paid := row.PaidAmount.Add(delta)
		if paid.GreaterThan(row.TotalAmount) || paid.IsNegative() {
			return decimal.Zero, fmt.Errorf("debt %s: paid %s + %s exceeds total %s: %w",
				debtID, row.PaidAmount, delta, row.TotalAmount, storage.ErrPaidAmountOutOfRange)
		}
		return paid, nil
	})
}

func (r *records) DecrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	return r.setPaid(ctx, debtID, func(row *debtRow) (decimal.Decimal, error) {
		paid := row.PaidAmount.Sub(delta)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		return paid, nil
	})
}

func (r *records) lockDebt(ctx context.Context, debtID string) (*debtRow, error) {
	var row debtRow
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ?", debtID).Error
	if err != nil {
		return nil, notFound(fmt.Errorf("failed to lock debt: %w", err), "debt %s", debtID)
	}
	return &row, nil
}

func (r *records) setPaid(ctx context.Context, debtID string, next func(row *debtRow) (decimal.Decimal, error)) (*models.Debt, error) {
	row, err := r.lockDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}
	paid, err := next(row)
	if err != nil {
		return nil, err
	}

	row.PaidAmount = paid
	row.UpdatedAt = r.now()
	err = r.db.WithContext(ctx).Model(&debtRow{}).Where("id = ?", debtID).Updates(map[string]any{
		"paid_amount": row.PaidAmount,
		"updated_at":  row.UpdatedAt,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update paid amount: %w", err)
	}

	r.touch(row.OwnerID)
	return row.toModel(), nil
}

// DeleteDebt removes a debt without payment history. The row lock taken
// before the check blocks concurrent paid-amount updates until commit.
func (r *records) DeleteDebt(ctx context.Context, debtID string) error {
	row, err := r.lockDebt(ctx, debtID)
	if err != nil {
		return err
	}
	if !row.PaidAmount.IsZero() {
		return fmt.Errorf("debt %s: paid %s: %w", debtID, row.PaidAmount, storage.ErrHasPayments)
	}
	var payments int64
	if err := r.db.WithContext(ctx).Model(&paymentRow{}).Where("debt_id = ?", debtID).Count(&payments).Error; err != nil {
		return fmt.Errorf("failed to count payments: %w", err)
	}
	if payments > 0 {
		return fmt.Errorf("debt %s: %d payments: %w", debtID, payments, storage.ErrHasPayments)
	}
	if err := r.db.WithContext(ctx).Delete(&debtRow{}, "id = ?", debtID).Error; err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	r.touch(row.OwnerID)
	return nil
}

func (r *records) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = r.now()
	}

	row := paymentRow{
		ID:          payment.ID,
		DebtID:      payment.DebtID,
		OwnerID:     payment.OwnerID,
		ContactID:   payment.ContactID,
		Amount:      payment.Amount,
		Description: optional(payment.Description),
		PaidAt:      payment.PaidAt,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	r.touch(payment.OwnerID)
	return nil
}

func (r *records) GetPayment(ctx context.Context, debtID, paymentID string) (*models.DebtPayment, error) {
	var row paymentRow
	err := r.db.WithContext(ctx).First(&row, "id = ? AND debt_id = ?", paymentID, debtID).Error
	if err != nil {
		return nil, notFound(fmt.Errorf("failed to get payment: %w", err), "payment %s of debt %s", paymentID, debtID)
	}
	return row.toModel(), nil
}

func (r *records) ListPayments(ctx context.Context, q storage.PaymentQuery) ([]*models.DebtPayment, error) {
	var rows []paymentRow
	err := r.db.WithContext(ctx).
		Where("debt_id = ? AND owner_id = ?", q.DebtID, q.OwnerID).
		Order("paid_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*models.DebtPayment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.toModel())
	}
	return payments, nil
}

func (r *records) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	payment, err := r.GetPayment(ctx, debtID, paymentID)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&paymentRow{}, "id = ? AND debt_id = ?", paymentID, debtID).Error; err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	r.touch(payment.OwnerID)
	return nil
}
