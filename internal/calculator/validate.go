package calculator

import (
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

// IssueKind classifies a malformed record found by Diagnose.
type IssueKind string

const (
	IssueNegativePaid     IssueKind = "negative_paid_amount"
	IssueOverpaid         IssueKind = "paid_exceeds_total"
	IssueNegativeTotal    IssueKind = "negative_total_amount"
	IssueUnknownDirection IssueKind = "unknown_direction"
	IssueForeignContact   IssueKind = "foreign_contact"
)

// Issue describes one inconsistency in a summary's underlying records.
type Issue struct {
	DebtID string
	Kind   IssueKind
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("debt %s: %s (%s)", i.DebtID, i.Kind, i.Detail)
}

// Diagnose lists every inconsistency in the summary's debts. It never
// mutates the summary and never fails; malformed legacy data is reported,
// not rejected.
func Diagnose(summary models.ContactDebtSummary) []Issue {
	var issues []Issue
	for _, d := range summary.Debts {
		if d == nil {
			continue
		}
		if d.TotalAmount.IsNegative() {
			issues = append(issues, Issue{DebtID: d.ID, Kind: IssueNegativeTotal, Detail: d.TotalAmount.String()})
		}
		if d.PaidAmount.IsNegative() {
			issues = append(issues, Issue{DebtID: d.ID, Kind: IssueNegativePaid, Detail: d.PaidAmount.String()})
		}
		if d.PaidAmount.GreaterThan(d.TotalAmount) {
			issues = append(issues, Issue{
				DebtID: d.ID,
				Kind:   IssueOverpaid,
				Detail: fmt.Sprintf("paid %s > total %s", d.PaidAmount, d.TotalAmount),
			})
		}
		raw := d.StoredDirection
		if raw == "" {
			raw = string(d.Direction)
		}
		if !models.IsKnownDirection(raw) {
			issues = append(issues, Issue{DebtID: d.ID, Kind: IssueUnknownDirection, Detail: raw})
		}
		if summary.ContactID != "" && d.ContactID != summary.ContactID {
			issues = append(issues, Issue{DebtID: d.ID, Kind: IssueForeignContact, Detail: d.ContactID})
		}
	}
	return issues
}

// Validate reports whether the summary's debts are all well-formed.
func Validate(summary models.ContactDebtSummary) bool {
	return len(Diagnose(summary)) == 0
}
