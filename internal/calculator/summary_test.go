package calculator

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtbook/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func debt(id string, dir models.Direction, total, paid string) *models.Debt {
	return &models.Debt{
		ID:          id,
		OwnerID:     "owner-1",
		ContactID:   "contact-1",
		ContactName: "Budi",
		Direction:   dir,
		TotalAmount: dec(total),
		PaidAmount:  dec(paid),
	}
}

func TestSummarizeContact(t *testing.T) {
	tests := []struct {
		name         string
		debts        []*models.Debt
		validateFunc func(t *testing.T, s models.ContactDebtSummary)
	}{
		{
			name:  "single receivable unpaid",
			debts: []*models.Debt{debt("d1", models.ContactOwesBusiness, "100000", "0")},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if !s.CustomerOwesAmount.Equal(dec("100000")) {
					t.Errorf("CustomerOwesAmount = %s, want 100000", s.CustomerOwesAmount)
				}
				if !s.BusinessOwesAmount.IsZero() {
					t.Errorf("BusinessOwesAmount = %s, want 0", s.BusinessOwesAmount)
				}
				if !s.NetBalance.Equal(dec("100000")) {
					t.Errorf("NetBalance = %s, want 100000", s.NetBalance)
				}
				if !s.HasActiveDebt {
					t.Error("expected HasActiveDebt")
				}
				if s.DebtorType != models.CustomerOwes {
					t.Errorf("DebtorType = %s, want %s", s.DebtorType, models.CustomerOwes)
				}
			},
		},
		{
			name:  "partially paid receivable",
			debts: []*models.Debt{debt("d1", models.ContactOwesBusiness, "100000", "40000")},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if !s.CustomerOwesAmount.Equal(dec("60000")) {
					t.Errorf("CustomerOwesAmount = %s, want 60000", s.CustomerOwesAmount)
				}
			},
		},
		{
			name: "mixed directions business is net debtor",
			debts: []*models.Debt{
				debt("d1", models.ContactOwesBusiness, "30000", "0"),
				debt("d2", models.BusinessOwesContact, "80000", "30000"),
			},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if !s.NetBalance.Equal(dec("-20000")) {
					t.Errorf("NetBalance = %s, want -20000", s.NetBalance)
				}
				if s.DebtorType != models.BusinessOwes {
					t.Errorf("DebtorType = %s, want %s", s.DebtorType, models.BusinessOwes)
				}
			},
		},
		{
			name: "equal balances favour customer owes",
			debts: []*models.Debt{
				debt("d1", models.ContactOwesBusiness, "500", "0"),
				debt("d2", models.BusinessOwesContact, "500", "0"),
			},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if !s.NetBalance.IsZero() {
					t.Errorf("NetBalance = %s, want 0", s.NetBalance)
				}
				if s.DebtorType != models.CustomerOwes {
					t.Errorf("DebtorType = %s, want %s", s.DebtorType, models.CustomerOwes)
				}
			},
		},
		{
			name: "settled debts kept for display but inactive",
			debts: []*models.Debt{
				debt("d1", models.ContactOwesBusiness, "1000", "1000"),
				debt("d2", models.BusinessOwesContact, "250", "250"),
			},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if s.HasActiveDebt {
					t.Error("expected no active debt")
				}
				if s.DebtorType != models.NoDebt {
					t.Errorf("DebtorType = %s, want %s", s.DebtorType, models.NoDebt)
				}
				if len(s.Debts) != 2 {
					t.Errorf("Debts = %d, want 2", len(s.Debts))
				}
			},
		},
		{
			name:  "legacy empty direction is a receivable",
			debts: []*models.Debt{debt("d1", "", "7500", "0")},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if !s.CustomerOwesAmount.Equal(dec("7500")) {
					t.Errorf("CustomerOwesAmount = %s, want 7500", s.CustomerOwesAmount)
				}
				if !s.BusinessOwesAmount.IsZero() {
					t.Errorf("BusinessOwesAmount = %s, want 0", s.BusinessOwesAmount)
				}
			},
		},
		{
			name: "overpaid record clamps to zero remaining",
			debts: []*models.Debt{
				debt("d1", models.ContactOwesBusiness, "100", "150"),
				debt("d2", models.ContactOwesBusiness, "100", "-20"),
			},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if !s.CustomerOwesAmount.Equal(dec("100")) {
					t.Errorf("CustomerOwesAmount = %s, want 100", s.CustomerOwesAmount)
				}
			},
		},
		{
			name:  "no debts",
			debts: nil,
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if s.DebtorType != models.NoDebt {
					t.Errorf("DebtorType = %s, want %s", s.DebtorType, models.NoDebt)
				}
				if !s.NetBalance.IsZero() {
					t.Errorf("NetBalance = %s, want 0", s.NetBalance)
				}
			},
		},
		{
			name: "minor units sum exactly",
			debts: []*models.Debt{
				debt("d1", models.ContactOwesBusiness, "0.10", "0"),
				debt("d2", models.ContactOwesBusiness, "0.20", "0"),
			},
			validateFunc: func(t *testing.T, s models.ContactDebtSummary) {
				if !s.CustomerOwesAmount.Equal(dec("0.30")) {
					t.Errorf("CustomerOwesAmount = %s, want 0.30", s.CustomerOwesAmount)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SummarizeContact("owner-1", "contact-1", tt.debts)
			if s.ContactID != "contact-1" || s.OwnerID != "owner-1" {
				t.Errorf("identity = (%s, %s), want (owner-1, contact-1)", s.OwnerID, s.ContactID)
			}
			tt.validateFunc(t, s)
		})
	}
}

func TestSummarizeContact_Idempotent(t *testing.T) {
	debts := []*models.Debt{
		debt("d1", models.ContactOwesBusiness, "1200.50", "200.25"),
		debt("d2", models.BusinessOwesContact, "300", "0"),
		debt("d3", "", "99.99", "0.99"),
	}

	first := SummarizeContact("owner-1", "contact-1", debts)
	second := SummarizeContact("owner-1", "contact-1", debts)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("summaries differ:\n%+v\n%+v", first, second)
	}
}

func TestSummarizeContact_OrderIndependent(t *testing.T) {
	debts := []*models.Debt{
		debt("d1", models.ContactOwesBusiness, "1200.50", "200.25"),
		debt("d2", models.BusinessOwesContact, "300", "0"),
		debt("d3", models.ContactOwesBusiness, "99.99", "0.99"),
		debt("d4", models.BusinessOwesContact, "0.01", "0"),
	}
	reversed := make([]*models.Debt, len(debts))
	for i, d := range debts {
		reversed[len(debts)-1-i] = d
	}

	a := SummarizeContact("owner-1", "contact-1", debts)
	b := SummarizeContact("owner-1", "contact-1", reversed)

	if !a.CustomerOwesAmount.Equal(b.CustomerOwesAmount) {
		t.Errorf("CustomerOwesAmount %s != %s", a.CustomerOwesAmount, b.CustomerOwesAmount)
	}
	if !a.BusinessOwesAmount.Equal(b.BusinessOwesAmount) {
		t.Errorf("BusinessOwesAmount %s != %s", a.BusinessOwesAmount, b.BusinessOwesAmount)
	}
	if !a.NetBalance.Equal(b.NetBalance) {
		t.Errorf("NetBalance %s != %s", a.NetBalance, b.NetBalance)
	}
}

func TestSummarizeAll(t *testing.T) {
	debts := []*models.Debt{
		{ID: "d1", ContactID: "c-2", ContactName: "zaki", Direction: models.ContactOwesBusiness, TotalAmount: dec("10"), PaidAmount: dec("0")},
		{ID: "d2", ContactID: "c-1", ContactName: "Ani", Direction: models.BusinessOwesContact, TotalAmount: dec("40"), PaidAmount: dec("0")},
		{ID: "d3", ContactID: "c-2", ContactName: "zaki", Direction: models.ContactOwesBusiness, TotalAmount: dec("5"), PaidAmount: dec("5")},
		{ID: "d4", ContactID: "c-3", ContactName: "Ani", Direction: models.ContactOwesBusiness, TotalAmount: dec("1"), PaidAmount: dec("0")},
	}

	summaries := SummarizeAll("owner-1", debts)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}

	wantOrder := []string{"c-1", "c-3", "c-2"}
	for i, want := range wantOrder {
		if summaries[i].ContactID != want {
			t.Errorf("summaries[%d].ContactID = %s, want %s", i, summaries[i].ContactID, want)
		}
	}
	if len(summaries[2].Debts) != 2 {
		t.Errorf("c-2 debts = %d, want 2", len(summaries[2].Debts))
	}

	totals := SumSummaries(summaries)
	if !totals.CustomerOwesAmount.Equal(dec("11")) {
		t.Errorf("CustomerOwesAmount = %s, want 11", totals.CustomerOwesAmount)
	}
	if !totals.BusinessOwesAmount.Equal(dec("40")) {
		t.Errorf("BusinessOwesAmount = %s, want 40", totals.BusinessOwesAmount)
	}
	if !totals.NetBalance.Equal(dec("-29")) {
		t.Errorf("NetBalance = %s, want -29", totals.NetBalance)
	}
	if totals.ActiveContacts != 3 {
		t.Errorf("ActiveContacts = %d, want 3", totals.ActiveContacts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		debts     []*models.Debt
		wantValid bool
		wantKinds []IssueKind
	}{
		{
			name:      "well formed",
			debts:     []*models.Debt{debt("d1", models.ContactOwesBusiness, "10", "5")},
			wantValid: true,
		},
		{
			name:      "legacy empty direction is fine",
			debts:     []*models.Debt{debt("d1", "", "10", "0")},
			wantValid: true,
		},
		{
			name:      "overpaid",
			debts:     []*models.Debt{debt("d1", models.ContactOwesBusiness, "10", "11")},
			wantKinds: []IssueKind{IssueOverpaid},
		},
		{
			name:      "negative paid",
			debts:     []*models.Debt{debt("d1", models.ContactOwesBusiness, "10", "-1")},
			wantKinds: []IssueKind{IssueNegativePaid},
		},
		{
			name: "unknown stored direction",
			debts: []*models.Debt{models.NormalizeDebt(
				debt("d1", models.Direction("SIDEWAYS"), "10", "0"),
			)},
			wantKinds: []IssueKind{IssueUnknownDirection},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SummarizeContact("owner-1", "contact-1", tt.debts)
			if got := Validate(s); got != tt.wantValid {
				t.Errorf("Validate() = %v, want %v", got, tt.wantValid)
			}
			issues := Diagnose(s)
			if len(issues) != len(tt.wantKinds) {
				t.Fatalf("Diagnose() returned %d issues, want %d: %v", len(issues), len(tt.wantKinds), issues)
			}
			for i, kind := range tt.wantKinds {
				if issues[i].Kind != kind {
					t.Errorf("issue %d kind = %s, want %s", i, issues[i].Kind, kind)
				}
			}
		})
	}
}

func TestNormalizeDebt_UnknownDirectionAggregatesAsReceivable(t *testing.T) {
	d := models.NormalizeDebt(debt("d1", models.Direction("SIDEWAYS"), "10", "0"))
	if d.Direction != models.ContactOwesBusiness {
		t.Errorf("Direction = %s, want %s", d.Direction, models.ContactOwesBusiness)
	}
	s := SummarizeContact("owner-1", "contact-1", []*models.Debt{d})
	if !s.CustomerOwesAmount.Equal(dec("10")) {
		t.Errorf("CustomerOwesAmount = %s, want 10", s.CustomerOwesAmount)
	}
}
