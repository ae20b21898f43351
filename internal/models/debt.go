package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction says which party owes which.
type Direction string

const (
	// ContactOwesBusiness is a receivable: the contact owes the business.
	ContactOwesBusiness Direction = "CONTACT_OWES_BUSINESS"
	// BusinessOwesContact is a payable: the business owes the contact.
	BusinessOwesContact Direction = "BUSINESS_OWES_CONTACT"
)

// Normalize applies the legacy default. Records written before directions
// existed have no value and are receivables.
func (d Direction) Normalize() Direction {
	if d == BusinessOwesContact {
		return BusinessOwesContact
	}
	return ContactOwesBusiness
}

// IsKnownDirection reports whether a stored direction value is one the
// ledger understands. The empty string is the legacy default and counts.
func IsKnownDirection(raw string) bool {
	switch Direction(raw) {
	case "", ContactOwesBusiness, BusinessOwesContact:
		return true
	}
	return false
}

// Debt represents one recorded obligation between the business and a contact.
type Debt struct {
	// ID is assigned by the store on creation (UUID format).
	ID string

	// OwnerID is the user/business owning this ledger.
	OwnerID string

	// BusinessUnitID scopes the debt to one business unit.
	// Blank for legacy records.
	BusinessUnitID string

	// ContactID is the counterparty.
	ContactID string

	// ContactName and ContactPhone are denormalized display fields.
	ContactName  string
	ContactPhone string

	// Direction is always normalized once a record leaves the store.
	Direction Direction

	// StoredDirection is the raw direction value as persisted, kept only
	// for diagnostics.
	StoredDirection string

	// TotalAmount is the original obligation, fixed at creation.
	TotalAmount decimal.Decimal

	// PaidAmount is the running sum of payments. 0 <= PaidAmount <= TotalAmount.
	PaidAmount decimal.Decimal

	// SourceTransactionID optionally points back at the transaction that
	// was marked as a debt.
	SourceTransactionID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeDebt records the raw direction and replaces Direction with its
// normalized value. Stores call it on every record they return.
func NormalizeDebt(d *Debt) *Debt {
	if d == nil {
		return nil
	}
	d.StoredDirection = string(d.Direction)
	d.Direction = d.Direction.Normalize()
	return d
}

// Clone returns a deep copy safe to hand to another goroutine.
func (d *Debt) Clone() *Debt {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
