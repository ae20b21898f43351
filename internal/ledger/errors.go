package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a debt or payment does not exist, or
	// belongs to another owner.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable matches every *StoreUnavailableError.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPartialFailure matches every *PartialFailureError.
	ErrPartialFailure = errors.New("partial failure")

	// ErrInconsistentWrite matches every *InconsistentWriteError.
	ErrInconsistentWrite = errors.New("inconsistent write")
)

// Reasons carried by ValidationError.
var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrAmountPrecision   = errors.New("amount has more decimal places than the currency allows")
	ErrOverpayment       = errors.New("payment would exceed the debt's total amount")
	ErrHasPaymentHistory = errors.New("debt has recorded payments")
	ErrAmountMismatch    = errors.New("amount does not match the recorded payment")
	ErrMissingField      = errors.New("required field is empty")
	ErrInvalidDirection  = errors.New("unknown debt direction")
)

// ValidationError rejects input before any write happens. The caller must
// correct the input and retry.
type ValidationError struct {
	Field  string
	Reason error
	Detail string
}

func (e *ValidationError) Error() string {
	msg := e.Reason.Error()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Is lets errors.Is match both ErrValidation and the specific reason.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == e.Reason
}

func invalid(field string, reason error, detail string) error {
	return &ValidationError{Field: field, Reason: reason, Detail: detail}
}

// StoreUnavailableError wraps a failure of the external store. The ledger
// does not retry these; that policy belongs to the caller.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// PartialFailureError is returned by PayOffAll when some debts were settled
// before a later one failed. Report tells which debts to retry.
type PartialFailureError struct {
	Report *PayoffReport
	Err    error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("pay off all: settled %d of %d debts: %v",
		len(e.Report.Settled), e.Report.Attempted(), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

// InconsistentWriteError reports a two-phase write whose second half
// failed and whose compensation failed too. The debt's paid amount and its
// payments disagree until repaired.
type InconsistentWriteError struct {
	Op            string
	DebtID        string
	WriteErr      error
	CompensateErr error
}

func (e *InconsistentWriteError) Error() string {
	return fmt.Sprintf("%s on debt %s left records inconsistent: write: %v; compensation: %v",
		e.Op, e.DebtID, e.WriteErr, e.CompensateErr)
}

func (e *InconsistentWriteError) Unwrap() []error { return []error{e.WriteErr, e.CompensateErr} }

func (e *InconsistentWriteError) Is(target error) bool { return target == ErrInconsistentWrite }
