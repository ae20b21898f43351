package service

import (
	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/pkg/api"
)

func toAPIDebt(d *models.Debt) *api.Debt {
	return &api.Debt{
		ID:                  d.ID,
		BusinessUnitID:      d.BusinessUnitID,
		ContactID:           d.ContactID,
		ContactName:         d.ContactName,
		ContactPhone:        d.ContactPhone,
		Direction:           string(d.Direction),
		TotalAmount:         d.TotalAmount,
		PaidAmount:          d.PaidAmount,
		RemainingAmount:     calculator.Remaining(d),
		SourceTransactionID: d.SourceTransactionID,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func toAPIDebts(debts []*models.Debt) []*api.Debt {
	out := make([]*api.Debt, 0, len(debts))
	for _, d := range debts {
		if d != nil {
			out = append(out, toAPIDebt(d))
		}
	}
	return out
}

func toAPIPayments(payments []*models.DebtPayment) []*api.Payment {
	out := make([]*api.Payment, 0, len(payments))
	for _, p := range payments {
		out = append(out, &api.Payment{
			ID:          p.ID,
			DebtID:      p.DebtID,
			ContactID:   p.ContactID,
			Amount:      p.Amount,
			Description: p.Description,
			PaidAt:      p.PaidAt,
		})
	}
	return out
}

func toAPISummary(s models.ContactDebtSummary) *api.ContactSummary {
	out := &api.ContactSummary{
		ContactID:          s.ContactID,
		ContactName:        s.ContactName,
		ContactPhone:       s.ContactPhone,
		CustomerOwesAmount: s.CustomerOwesAmount,
		BusinessOwesAmount: s.BusinessOwesAmount,
		NetBalance:         s.NetBalance,
		HasActiveDebt:      s.HasActiveDebt,
		DebtorType:         string(s.DebtorType),
		Debts:              toAPIDebts(s.Debts),
	}
	for _, issue := range calculator.Diagnose(s) {
		out.Issues = append(out.Issues, issue.String())
	}
	return out
}

func toAPISummaries(summaries []models.ContactDebtSummary) ([]*api.ContactSummary, *api.Totals) {
	out := make([]*api.ContactSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toAPISummary(s))
	}
	totals := calculator.SumSummaries(summaries)
	return out, &api.Totals{
		CustomerOwesAmount: totals.CustomerOwesAmount,
		BusinessOwesAmount: totals.BusinessOwesAmount,
		NetBalance:         totals.NetBalance,
		ActiveContacts:     totals.ActiveContacts,
	}
}

func toAPIPayoff(r *ledger.PayoffReport) *api.PayOffAllResponse {
	out := &api.PayOffAllResponse{
		DebtorType:     string(r.DebtorType),
		Direction:      string(r.Direction),
		Settled:        make([]*api.SettledDebt, 0, len(r.Settled)),
		SucceededCount: r.SucceededCount(),
		FailedCount:    r.FailedCount(),
		TotalSettled:   r.TotalSettled,
	}
	for _, s := range r.Settled {
		out.Settled = append(out.Settled, &api.SettledDebt{DebtID: s.DebtID, PaymentID: s.PaymentID, Amount: s.Amount})
	}
	return out
}
