package api

import "github.com/shopspring/decimal"

type ContactSummary struct {
	ContactID          string          `json:"contactId"`
	ContactName        string          `json:"contactName,omitempty"`
	ContactPhone       string          `json:"contactPhone,omitempty"`
	CustomerOwesAmount decimal.Decimal `json:"customerOwesAmount"`
	BusinessOwesAmount decimal.Decimal `json:"businessOwesAmount"`
	NetBalance         decimal.Decimal `json:"netBalance"`
	HasActiveDebt      bool            `json:"hasActiveDebt"`
	DebtorType         string          `json:"debtorType"`
	Debts              []*Debt         `json:"debts"`

	// Issues lists malformed records found in Debts. They never block the
	// summary; an empty list means the summary passed validation.
	Issues []string `json:"issues,omitempty"`
}

// Totals aggregates summaries across every contact of the owner.
type Totals struct {
	CustomerOwesAmount decimal.Decimal `json:"customerOwesAmount"`
	BusinessOwesAmount decimal.Decimal `json:"businessOwesAmount"`
	NetBalance         decimal.Decimal `json:"netBalance"`
	ActiveContacts     int             `json:"activeContacts"`
}

type GetContactSummaryRequest struct {
	ContactID string `json:"contactId" validate:"required"`
}

type GetContactSummaryResponse struct {
	Summary *ContactSummary `json:"summary"`
}

type ListSummariesRequest struct{}

type ListSummariesResponse struct {
	Summaries []*ContactSummary `json:"summaries"`
	Totals    *Totals           `json:"totals"`
}

type WatchContactSummaryRequest struct {
	ContactID string `json:"contactId" validate:"required"`
}

type WatchContactSummaryResponse struct {
	Summary *ContactSummary `json:"summary"`
}

type WatchSummariesRequest struct{}

type WatchSummariesResponse struct {
	Summaries []*ContactSummary `json:"summaries"`
	Totals    *Totals           `json:"totals"`
}

type WatchPaymentsRequest struct {
	DebtID string `json:"debtId" validate:"required"`
}

type WatchPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type PayOffAllRequest struct {
	ContactID string `json:"contactId" validate:"required"`
}

type SettledDebt struct {
	DebtID    string          `json:"debtId"`
	PaymentID string          `json:"paymentId"`
	Amount    decimal.Decimal `json:"amount"`
}

type PayOffAllResponse struct {
	DebtorType     string          `json:"debtorType"`
	Direction      string          `json:"direction,omitempty"`
	Settled        []*SettledDebt  `json:"settled"`
	SucceededCount int             `json:"succeededCount"`
	FailedCount    int             `json:"failedCount"`
	TotalSettled   decimal.Decimal `json:"totalSettled"`
}
