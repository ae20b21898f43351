package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/models"
)

// PayoffDescription is the description given to payments created by PayOffAll.
const PayoffDescription = "Paid off in full"

// SettledDebt is a debt PayOffAll paid in full.
type SettledDebt struct {
	DebtID    string
	PaymentID string
	Amount    decimal.Decimal
}

// FailedDebt is a debt whose payoff payment was rejected.
type FailedDebt struct {
	DebtID string
	Amount decimal.Decimal
	Err    error
}

// PayoffReport describes one PayOffAll run.
type PayoffReport struct {
	OwnerID    string
	ContactID  string
	DebtorType models.DebtorType

	// Direction is the direction of the debts targeted. Empty when the
	// contact had no active debt.
	Direction models.Direction

	Settled []SettledDebt
	Failed  []FailedDebt

	// Skipped lists targeted debts not attempted because an earlier one failed.
	Skipped []string

	TotalSettled decimal.Decimal
}

// Attempted is the number of debts a payment was attempted for.
func (r *PayoffReport) Attempted() int {
	return len(r.Settled) + len(r.Failed)
}

// SucceededCount is the number of debts settled by the run.
func (r *PayoffReport) SucceededCount() int {
	return len(r.Settled)
}

// FailedCount is the number of targeted debts still open after the run,
// counting both failed and skipped debts.
func (r *PayoffReport) FailedCount() int {
	return len(r.Failed) + len(r.Skipped)
}

// PayOffAll settles every open debt of the contact's dominant direction by
// recording one payment per debt for its remaining amount. Debts of the
// other direction are left alone; no netting happens.
//
// Payments are independent. The run stops at the first failure and returns
// a *PartialFailureError whose report names what was settled and what is
// left. Running it again is safe: settled debts have nothing remaining and
// are not targeted.
func (s *Service) PayOffAll(ctx context.Context, ownerID, contactID string) (*PayoffReport, error) {
	if ownerID == "" {
		return nil, invalid("owner_id", ErrMissingField, "")
	}
	if contactID == "" {
		return nil, invalid("contact_id", ErrMissingField, "")
	}

	summary, err := s.Summary(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}

	report := &PayoffReport{
		OwnerID:      ownerID,
		ContactID:    contactID,
		DebtorType:   summary.DebtorType,
		TotalSettled: decimal.Zero,
	}
	direction, ok := summary.DebtorType.PayoffDirection()
	if !ok {
		s.metrics.PayoffRun("noop")
		return report, nil
	}
	report.Direction = direction

	var targets []*models.Debt
	for _, d := range summary.Debts {
		if d.Direction == direction && calculator.Remaining(d).IsPositive() {
			targets = append(targets, d)
		}
	}

	paidAt := s.now()
	for i, d := range targets {
		amount := calculator.Remaining(d)
		paymentID, err := s.RecordPayment(ctx, PaymentRequest{
			DebtID:      d.ID,
			Amount:      amount,
			Description: PayoffDescription,
			PaidAt:      paidAt,
		})
		if err != nil {
			report.Failed = append(report.Failed, FailedDebt{DebtID: d.ID, Amount: amount, Err: err})
			for _, rest := range targets[i+1:] {
				report.Skipped = append(report.Skipped, rest.ID)
			}
			return report, s.payoffFailed(report, err)
		}
		report.Settled = append(report.Settled, SettledDebt{DebtID: d.ID, PaymentID: paymentID, Amount: amount})
		report.TotalSettled = report.TotalSettled.Add(amount)
	}

	s.metrics.PayoffRun("settled")
	s.logger.Info("Contact paid off",
		"owner_id", ownerID,
		"contact_id", contactID,
		"direction", direction,
		"debts", len(report.Settled),
		"total", report.TotalSettled.String(),
	)
	return report, nil
}

func (s *Service) payoffFailed(report *PayoffReport, err error) error {
	if len(report.Settled) == 0 && !errors.Is(err, ErrInconsistentWrite) {
		// Nothing was written; surface the underlying error as is.
		s.metrics.PayoffRun("failed")
		return err
	}
	s.metrics.PayoffRun("partial")
	s.logger.Warn("Pay off all stopped after partial progress",
		"owner_id", report.OwnerID,
		"contact_id", report.ContactID,
		"settled", len(report.Settled),
		"remaining", report.FailedCount(),
		"error", err,
	)
	return &PartialFailureError{Report: report, Err: err}
}
