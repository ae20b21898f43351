// Package api defines the JSON messages of the debtbook.v1.DebtService
// Connect service. Amounts travel as decimal strings, e.g. "1250.50".
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type Debt struct {
	ID                  string          `json:"id"`
	BusinessUnitID      string          `json:"businessUnitId,omitempty"`
	ContactID           string          `json:"contactId"`
	ContactName         string          `json:"contactName,omitempty"`
	ContactPhone        string          `json:"contactPhone,omitempty"`
	Direction           string          `json:"direction"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	PaidAmount          decimal.Decimal `json:"paidAmount"`
	RemainingAmount     decimal.Decimal `json:"remainingAmount"`
	SourceTransactionID string          `json:"sourceTransactionId,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

type Payment struct {
	ID          string          `json:"id"`
	DebtID      string          `json:"debtId"`
	ContactID   string          `json:"contactId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	PaidAt      time.Time       `json:"paidAt"`
}

type CreateDebtRequest struct {
	BusinessUnitID      string          `json:"businessUnitId,omitempty" validate:"max=64"`
	ContactID           string          `json:"contactId" validate:"required,max=64"`
	ContactName         string          `json:"contactName,omitempty" validate:"max=200"`
	ContactPhone        string          `json:"contactPhone,omitempty" validate:"max=32"`
	Direction           string          `json:"direction,omitempty" validate:"omitempty,oneof=CONTACT_OWES_BUSINESS BUSINESS_OWES_CONTACT"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	SourceTransactionID string          `json:"sourceTransactionId,omitempty" validate:"max=64"`
}

type CreateDebtResponse struct {
	Debt *Debt `json:"debt"`
}

type GetDebtRequest struct {
	DebtID string `json:"debtId" validate:"required"`
}

type GetDebtResponse struct {
	Debt *Debt `json:"debt"`
}

type ListDebtsRequest struct {
	BusinessUnitID string `json:"businessUnitId,omitempty"`
	ContactID      string `json:"contactId,omitempty"`
}

type ListDebtsResponse struct {
	Debts []*Debt `json:"debts"`
}

// EditDebtRequest changes display and scoping fields. Omitted fields are
// left unchanged.
type EditDebtRequest struct {
	DebtID         string  `json:"debtId" validate:"required"`
	ContactName    *string `json:"contactName,omitempty" validate:"omitempty,max=200"`
	ContactPhone   *string `json:"contactPhone,omitempty" validate:"omitempty,max=32"`
	BusinessUnitID *string `json:"businessUnitId,omitempty" validate:"omitempty,max=64"`
}

type EditDebtResponse struct {
	Debt *Debt `json:"debt"`
}

type DeleteDebtRequest struct {
	DebtID string `json:"debtId" validate:"required"`
}

type DeleteDebtResponse struct{}

type RecordPaymentRequest struct {
	DebtID      string          `json:"debtId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
}

type RecordPaymentResponse struct {
	PaymentID string `json:"paymentId"`
	Debt      *Debt  `json:"debt"`
}

// DeletePaymentRequest removes a payment. Amount, when set, must match the
// recorded payment.
type DeletePaymentRequest struct {
	DebtID    string          `json:"debtId" validate:"required"`
	PaymentID string          `json:"paymentId" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

type DeletePaymentResponse struct {
	Debt *Debt `json:"debt"`
}

type ListPaymentsRequest struct {
	DebtID string `json:"debtId" validate:"required"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}
