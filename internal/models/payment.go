package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtPayment is a payment recorded against a Debt.
// The sum of a debt's payments always equals the debt's PaidAmount.
type DebtPayment struct {
	// ID is assigned by the store on creation (UUID format).
	ID string

	// DebtID is the owning debt.
	DebtID string

	// OwnerID and ContactID are copied from the debt so payments can be
	// queried across debts.
	OwnerID   string
	ContactID string

	// Amount is always positive.
	Amount decimal.Decimal

	// Description is optional.
	Description string

	PaidAt time.Time
}

// Clone returns a copy of the payment.
func (p *DebtPayment) Clone() *DebtPayment {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
