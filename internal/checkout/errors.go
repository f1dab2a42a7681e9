package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition    = errors.New("illegal transition of checkout status")
	ErrPaymentCancelled     = errors.New("payment was not confirmed")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrSubmissionInProgress = errors.New("a checkout is already being submitted for this session")
)

// ValidationError names the first field that blocks submission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SubmissionError is a failed order placement. The cart is left as it was so
// the buyer can retry.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return "order submission failed: " + e.Message
	}
	return fmt.Sprintf("order submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
