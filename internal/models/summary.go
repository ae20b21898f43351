package models

import "github.com/shopspring/decimal"

// DebtorType tags which party is the net debtor for a contact.
type DebtorType string

const (
	NoDebt       DebtorType = "NO_DEBT"
	CustomerOwes DebtorType = "CUSTOMER_OWES"
	BusinessOwes DebtorType = "BUSINESS_OWES"
)

// PayoffDirection returns the debt direction whose balances a pay-off
// settles. ok is false for NoDebt.
func (t DebtorType) PayoffDirection() (dir Direction, ok bool) {
	switch t {
	case CustomerOwes:
		return ContactOwesBusiness, true
	case BusinessOwes:
		return BusinessOwesContact, true
	}
	return "", false
}

// ContactDebtSummary is the direction-aware position of one contact.
// It is derived from the contact's debts and never stored.
type ContactDebtSummary struct {
	OwnerID      string
	ContactID    string
	ContactName  string
	ContactPhone string

	// CustomerOwesAmount sums the remaining balance of ContactOwesBusiness debts.
	CustomerOwesAmount decimal.Decimal

	// BusinessOwesAmount sums the remaining balance of BusinessOwesContact debts.
	BusinessOwesAmount decimal.Decimal

	// NetBalance is CustomerOwesAmount - BusinessOwesAmount.
	// Positive means the contact is the net debtor.
	NetBalance decimal.Decimal

	HasActiveDebt bool
	DebtorType    DebtorType

	// Debts holds every underlying record, settled ones included.
	Debts []*Debt
}
