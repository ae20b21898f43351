package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/debtbook/internal/auth"
	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/middleware"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs the struct tags of an RPC message.
func validateRequest(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return connect.NewError(connect.CodeInvalidArgument,
		fmt.Errorf("validation failed: %s", strings.Join(problems, "; ")))
}

// requireOwner returns the authenticated owner of the call.
func requireOwner(ctx context.Context) (string, error) {
	ownerID := middleware.GetOwnerID(ctx)
	if ownerID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return ownerID, nil
}

// toConnectError maps ledger errors to Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	var partial *ledger.PartialFailureError
	switch {
	case errors.As(err, &partial):
		return partialFailureError(partial)
	case errors.Is(err, ledger.ErrInconsistentWrite):
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, ledger.ErrHasPaymentHistory):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, ledger.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// Error metadata attached to an aborted PayOffAll.
const (
	PayoffSettledHeader   = "Debtbook-Payoff-Settled"
	PayoffUnsettledHeader = "Debtbook-Payoff-Unsettled"
	PayoffTotalHeader     = "Debtbook-Payoff-Total-Settled"
)

func partialFailureError(partial *ledger.PartialFailureError) error {
	connectErr := connect.NewError(connect.CodeAborted, partial)
	report := partial.Report

	settled := make([]string, 0, len(report.Settled))
	for _, s := range report.Settled {
		settled = append(settled, s.DebtID)
	}
	unsettled := make([]string, 0, report.FailedCount())
	for _, f := range report.Failed {
		unsettled = append(unsettled, f.DebtID)
	}
	unsettled = append(unsettled, report.Skipped...)

	connectErr.Meta().Set(PayoffSettledHeader, strings.Join(settled, ","))
	connectErr.Meta().Set(PayoffUnsettledHeader, strings.Join(unsettled, ","))
	connectErr.Meta().Set(PayoffTotalHeader, report.TotalSettled.String())
	return connectErr
}

// notFound reports a record missing or owned by someone else. The two are
// indistinguishable to the caller.
func notFound(kind, id string) error {
	return connect.NewError(connect.CodeNotFound, fmt.Errorf("%s %s: %w", kind, id, ledger.ErrNotFound))
}
