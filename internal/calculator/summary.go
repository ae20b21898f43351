// Package calculator folds debt records into per-contact summaries.
// Everything here is pure: no I/O, no clocks, no shared state.
package calculator

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
)

// Remaining returns what is still owed on a debt, with PaidAmount clamped
// into [0, TotalAmount]. Malformed records are read best-effort this way and
// never produce a negative remaining balance.
func Remaining(d *models.Debt) decimal.Decimal {
	total := d.TotalAmount
	if total.IsNegative() {
		return decimal.Zero
	}
	paid := d.PaidAmount
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	if paid.GreaterThan(total) {
		paid = total
	}
	return total.Sub(paid)
}

// SummarizeContact computes the ContactDebtSummary of one contact in a
// single pass over its debts.
//
// Algorithm:
// - Direction is normalized (missing means the contact owes the business)
// - Remaining balances accumulate per direction; settled debts add nothing
// - NetBalance = CustomerOwesAmount - BusinessOwesAmount
// - Every debt is kept in Debts, settled or not, in input order
//
// Decimal addition is exact, so the result does not depend on input order
// and repeated runs over the same input are identical.
func SummarizeContact(ownerID, contactID string, debts []*models.Debt) models.ContactDebtSummary {
	summary := models.ContactDebtSummary{
		OwnerID:            ownerID,
		ContactID:          contactID,
		CustomerOwesAmount: decimal.Zero,
		BusinessOwesAmount: decimal.Zero,
		Debts:              make([]*models.Debt, 0, len(debts)),
	}

	for _, d := range debts {
		if d == nil {
			continue
		}
		summary.Debts = append(summary.Debts, d)

		if summary.ContactName == "" {
			summary.ContactName = d.ContactName
		}
		if summary.ContactPhone == "" {
			summary.ContactPhone = d.ContactPhone
		}

		remaining := Remaining(d)
		if !remaining.IsPositive() {
			continue
		}
		summary.HasActiveDebt = true

		switch d.Direction.Normalize() {
		case models.BusinessOwesContact:
			summary.BusinessOwesAmount = summary.BusinessOwesAmount.Add(remaining)
		default:
			summary.CustomerOwesAmount = summary.CustomerOwesAmount.Add(remaining)
		}
	}

	summary.NetBalance = summary.CustomerOwesAmount.Sub(summary.BusinessOwesAmount)
	summary.DebtorType = debtorType(summary)
	return summary
}

func debtorType(s models.ContactDebtSummary) models.DebtorType {
	if !s.HasActiveDebt {
		return models.NoDebt
	}
	if s.CustomerOwesAmount.GreaterThanOrEqual(s.BusinessOwesAmount) {
		return models.CustomerOwes
	}
	return models.BusinessOwes
}

// SummarizeAll groups an owner's debts by contact and summarizes each group.
// Summaries are ordered by contact name (case-insensitive), then contact ID.
func SummarizeAll(ownerID string, debts []*models.Debt) []models.ContactDebtSummary {
	byContact := make(map[string][]*models.Debt)
	var contactIDs []string
	for _, d := range debts {
		if d == nil {
			continue
		}
		if _, seen := byContact[d.ContactID]; !seen {
			contactIDs = append(contactIDs, d.ContactID)
		}
		byContact[d.ContactID] = append(byContact[d.ContactID], d)
	}

	summaries := make([]models.ContactDebtSummary, 0, len(contactIDs))
	for _, contactID := range contactIDs {
		summaries = append(summaries, SummarizeContact(ownerID, contactID, byContact[contactID]))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		ni, nj := strings.ToLower(summaries[i].ContactName), strings.ToLower(summaries[j].ContactName)
		if ni != nj {
			return ni < nj
		}
		return summaries[i].ContactID < summaries[j].ContactID
	})
	return summaries
}

// Totals is the whole-ledger position across every contact.
type Totals struct {
	CustomerOwesAmount decimal.Decimal
	BusinessOwesAmount decimal.Decimal
	NetBalance         decimal.Decimal
	ActiveContacts     int
}

// SumSummaries adds up per-contact summaries into ledger totals.
func SumSummaries(summaries []models.ContactDebtSummary) Totals {
	t := Totals{CustomerOwesAmount: decimal.Zero, BusinessOwesAmount: decimal.Zero}
	for _, s := range summaries {
		t.CustomerOwesAmount = t.CustomerOwesAmount.Add(s.CustomerOwesAmount)
		t.BusinessOwesAmount = t.BusinessOwesAmount.Add(s.BusinessOwesAmount)
		if s.HasActiveDebt {
			t.ActiveContacts++
		}
	}
	t.NetBalance = t.CustomerOwesAmount.Sub(t.BusinessOwesAmount)
	return t
}
