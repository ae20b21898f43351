package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/pkg/api"
)

// WatchContactSummary streams a contact's summary on every change.
func (s *DebtService) WatchContactSummary(ctx context.Context, req *connect.Request[api.WatchContactSummaryRequest], stream *connect.ServerStream[api.WatchContactSummaryResponse]) error {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	if err := validateRequest(req.Msg); err != nil {
		return err
	}

	obs, err := s.projector.ObserveContactSummary(ctx, ownerID, req.Msg.ContactID)
	if err != nil {
		return toConnectError(err)
	}
	return relay(obs, stream.Send, func(summary models.ContactDebtSummary) *api.WatchContactSummaryResponse {
		return &api.WatchContactSummaryResponse{Summary: toAPISummary(summary)}
	})
}

// WatchSummaries streams every contact's summary and the ledger totals.
func (s *DebtService) WatchSummaries(ctx context.Context, req *connect.Request[api.WatchSummariesRequest], stream *connect.ServerStream[api.WatchSummariesResponse]) error {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return err
	}

	obs, err := s.projector.ObserveAllSummaries(ctx, ownerID)
	if err != nil {
		return toConnectError(err)
	}
	return relay(obs, stream.Send, func(summaries []models.ContactDebtSummary) *api.WatchSummariesResponse {
		out, totals := toAPISummaries(summaries)
		return &api.WatchSummariesResponse{Summaries: out, Totals: totals}
	})
}

// WatchPayments streams a debt's payments on every change.
func (s *DebtService) WatchPayments(ctx context.Context, req *connect.Request[api.WatchPaymentsRequest], stream *connect.ServerStream[api.WatchPaymentsResponse]) error {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	if err := validateRequest(req.Msg); err != nil {
		return err
	}
	if _, err := s.ownedDebt(ctx, ownerID, req.Msg.DebtID); err != nil {
		return err
	}

	obs, err := s.projector.ObservePayments(ctx, ownerID, req.Msg.DebtID)
	if err != nil {
		return toConnectError(err)
	}
	return relay(obs, stream.Send, func(payments []*models.DebtPayment) *api.WatchPaymentsResponse {
		return &api.WatchPaymentsResponse{Payments: toAPIPayments(payments)}
	})
}

// relay forwards observation updates to a server stream until the client
// goes away or the store fails.
func relay[T, M any](obs *ledger.Observation[T], send func(*M) error, convert func(T) *M) error {
	defer obs.Close()
	for u := range obs.Updates() {
		if u.Err != nil {
			return toConnectError(u.Err)
		}
		if err := send(convert(u.Value)); err != nil {
			return err
		}
	}
	return nil
}
