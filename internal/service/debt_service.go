// Package service exposes the debt ledger over Connect RPC.
package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
	"github.com/mmynk/debtbook/pkg/api"
	"github.com/mmynk/debtbook/pkg/api/apiconnect"
)

// DebtService implements the Connect DebtService. Every call acts for the
// owner authenticated by the auth interceptor.
type DebtService struct {
	apiconnect.UnimplementedDebtServiceHandler
	ledger    *ledger.Service
	projector *ledger.Projector
}

// NewDebtService creates a new DebtService over the ledger and its projector.
func NewDebtService(l *ledger.Service, p *ledger.Projector) *DebtService {
	return &DebtService{ledger: l, projector: p}
}

// ownedDebt loads a debt and hides it from anyone but its owner.
func (s *DebtService) ownedDebt(ctx context.Context, ownerID, debtID string) (*models.Debt, error) {
	debt, err := s.ledger.GetDebt(ctx, debtID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if debt.OwnerID != ownerID {
		slog.Warn("Debt requested by another owner", "debt_id", debtID, "owner_id", ownerID)
		return nil, notFound("debt", debtID)
	}
	return debt, nil
}

// CreateDebt records a new debt for a contact.
func (s *DebtService) CreateDebt(ctx context.Context, req *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	slog.Info("CreateDebt request received",
		"owner_id", ownerID,
		"contact_id", req.Msg.ContactID,
		"direction", req.Msg.Direction,
		"total_amount", req.Msg.TotalAmount.String(),
	)

	debt, err := s.ledger.CreateDebt(ctx, ledger.NewDebt{
		OwnerID:             ownerID,
		BusinessUnitID:      req.Msg.BusinessUnitID,
		ContactID:           req.Msg.ContactID,
		ContactName:         req.Msg.ContactName,
		ContactPhone:        req.Msg.ContactPhone,
		Direction:           models.Direction(req.Msg.Direction),
		TotalAmount:         req.Msg.TotalAmount,
		SourceTransactionID: req.Msg.SourceTransactionID,
	})
	if err != nil {
		slog.Error("CreateDebt failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateDebtResponse{Debt: toAPIDebt(debt)}), nil
}

// GetDebt retrieves one debt.
func (s *DebtService) GetDebt(ctx context.Context, req *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	debt, err := s.ownedDebt(ctx, ownerID, req.Msg.DebtID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetDebtResponse{Debt: toAPIDebt(debt)}), nil
}

// ListDebts lists the owner's debts, newest first.
func (s *DebtService) ListDebts(ctx context.Context, req *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	debts, err := s.ledger.ListDebts(ctx, storage.DebtQuery{
		OwnerID:        ownerID,
		BusinessUnitID: req.Msg.BusinessUnitID,
		ContactID:      req.Msg.ContactID,
	})
	if err != nil {
		slog.Error("ListDebts failed", "owner_id", ownerID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListDebtsResponse{Debts: toAPIDebts(debts)}), nil
}

// EditDebt changes a debt's contact details or business unit.
func (s *DebtService) EditDebt(ctx context.Context, req *connect.Request[api.EditDebtRequest]) (*connect.Response[api.EditDebtResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := s.ownedDebt(ctx, ownerID, req.Msg.DebtID); err != nil {
		return nil, err
	}

	debt, err := s.ledger.EditDebt(ctx, req.Msg.DebtID, ledger.DebtEdit{
		ContactName:    req.Msg.ContactName,
		ContactPhone:   req.Msg.ContactPhone,
		BusinessUnitID: req.Msg.BusinessUnitID,
	})
	if err != nil {
		slog.Error("EditDebt failed", "debt_id", req.Msg.DebtID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Debt edited", "debt_id", debt.ID)
	return connect.NewResponse(&api.EditDebtResponse{Debt: toAPIDebt(debt)}), nil
}

// DeleteDebt removes a debt that has no payment history.
func (s *DebtService) DeleteDebt(ctx context.Context, req *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := s.ownedDebt(ctx, ownerID, req.Msg.DebtID); err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteDebt(ctx, req.Msg.DebtID); err != nil {
		slog.Error("DeleteDebt failed", "debt_id", req.Msg.DebtID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DeleteDebtResponse{}), nil
}

// RecordPayment records a payment against a debt.
func (s *DebtService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := s.ownedDebt(ctx, ownerID, req.Msg.DebtID); err != nil {
		return nil, err
	}

	payment := ledger.PaymentRequest{
		DebtID:      req.Msg.DebtID,
		Amount:      req.Msg.Amount,
		Description: req.Msg.Description,
	}
	if req.Msg.PaidAt != nil {
		payment.PaidAt = *req.Msg.PaidAt
	}

	paymentID, err := s.ledger.RecordPayment(ctx, payment)
	if err != nil {
		slog.Error("RecordPayment failed", "debt_id", req.Msg.DebtID, "error", err)
		return nil, toConnectError(err)
	}

	debt, err := s.ledger.GetDebt(ctx, req.Msg.DebtID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.RecordPaymentResponse{PaymentID: paymentID, Debt: toAPIDebt(debt)}), nil
}

// DeletePayment removes a payment and reverses its amount.
func (s *DebtService) DeletePayment(ctx context.Context, req *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := s.ownedDebt(ctx, ownerID, req.Msg.DebtID); err != nil {
		return nil, err
	}

	if err := s.ledger.DeletePayment(ctx, req.Msg.DebtID, req.Msg.PaymentID, req.Msg.Amount); err != nil {
		slog.Error("DeletePayment failed", "debt_id", req.Msg.DebtID, "payment_id", req.Msg.PaymentID, "error", err)
		return nil, toConnectError(err)
	}

	debt, err := s.ledger.GetDebt(ctx, req.Msg.DebtID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DeletePaymentResponse{Debt: toAPIDebt(debt)}), nil
}

// ListPayments lists a debt's payments, newest first.
func (s *DebtService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := s.ownedDebt(ctx, ownerID, req.Msg.DebtID); err != nil {
		return nil, err
	}

	payments, err := s.ledger.ListPayments(ctx, req.Msg.DebtID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListPaymentsResponse{Payments: toAPIPayments(payments)}), nil
}

// GetContactSummary computes the current summary of one contact.
func (s *DebtService) GetContactSummary(ctx context.Context, req *connect.Request[api.GetContactSummaryRequest]) (*connect.Response[api.GetContactSummaryResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	summary, err := s.ledger.Summary(ctx, ownerID, req.Msg.ContactID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetContactSummaryResponse{Summary: toAPISummary(summary)}), nil
}

// ListSummaries computes the summaries and totals of every contact.
func (s *DebtService) ListSummaries(ctx context.Context, req *connect.Request[api.ListSummariesRequest]) (*connect.Response[api.ListSummariesResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.ledger.Summaries(ctx, ownerID)
	if err != nil {
		return nil, toConnectError(err)
	}
	out, totals := toAPISummaries(summaries)
	return connect.NewResponse(&api.ListSummariesResponse{Summaries: out, Totals: totals}), nil
}

// PayOffAll settles every open debt of the contact's dominant direction.
// A run that stops part way fails with CodeAborted; the error metadata
// names the settled and unsettled debts.
func (s *DebtService) PayOffAll(ctx context.Context, req *connect.Request[api.PayOffAllRequest]) (*connect.Response[api.PayOffAllResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	slog.Info("PayOffAll request received", "owner_id", ownerID, "contact_id", req.Msg.ContactID)

	report, err := s.ledger.PayOffAll(ctx, ownerID, req.Msg.ContactID)
	if err != nil {
		slog.Error("PayOffAll failed", "contact_id", req.Msg.ContactID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toAPIPayoff(report)), nil
}
