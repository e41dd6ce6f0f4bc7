package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates missing or invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates an unknown challenge, profile or wallet.
	ErrNotFound = errors.New("not found")
	// ErrNotOwner indicates the challenge does not belong to the caller.
	ErrNotOwner = errors.New("challenge not owned by caller")
	// ErrExternalService indicates the classifier, storage or messaging
	// gateway was unavailable or returned garbage after all transport
	// retries.
	ErrExternalService = errors.New("external service unavailable")
	// ErrStateConflict indicates an action attempted on a terminal or
	// expired challenge, or a submission already being verified.
	ErrStateConflict = errors.New("challenge state conflict")
	// ErrNotImplemented indicates a channel or feature without a
	// configured provider.
	ErrNotImplemented = errors.New("not implemented")
)

// InsufficientBalanceError reports a settlement deduction that could
// not complete. The failed status on the challenge is still recorded;
// only the ledger side is short.
type InsufficientBalanceError struct {
	UserID      string
	ChallengeID string
	Stake       int64
	Balance     int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for challenge %s: stake %d, balance %d", e.ChallengeID, e.Stake, e.Balance)
}

// ValidationError wraps ErrValidation with a user-actionable message.
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
