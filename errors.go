package busker

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidArgument = errors.New("busker: invalid argument")
	ErrNotFound        = errors.New("busker: not found")
	ErrUnauthorized    = errors.New("busker: unauthorized")

	// Track errors
	ErrTrackNotFound = errors.New("busker: track not found")
	ErrUnavailable   = errors.New("busker: track is no longer available")

	// Subscription errors
	ErrPaymentMismatch   = errors.New("busker: payment does not match track price")
	ErrAlreadySubscribed = errors.New("busker: already subscribed to track")
	ErrTransferFailed    = errors.New("busker: payment transfer failed")

	// Rating errors
	ErrRatingOutOfRange = errors.New("busker: rating out of range")
	ErrNotSubscribed    = errors.New("busker: not subscribed to track")

	// Capability errors
	ErrCapabilityDisabled = errors.New("busker: capability disabled")

	// Store errors
	ErrStoreNotReady     = errors.New("busker: store not ready")
	ErrStoreClosed       = errors.New("busker: store is closed")
	ErrTransactionFailed = errors.New("busker: transaction failed")
	ErrMigrationFailed   = errors.New("busker: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("busker: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTrackNotFound)
}

// IsRejected returns true if the error is a precondition rejection: the
// operation was refused before any state changed and retrying with the same
// input will fail the same way.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrPaymentMismatch) ||
		errors.Is(err, ErrAlreadySubscribed) ||
		errors.Is(err, ErrRatingOutOfRange) ||
		errors.Is(err, ErrNotSubscribed) ||
		errors.Is(err, ErrUnauthorized)
}

// IsRetryable returns true if the error is temporary and the operation can be
// retried without correcting the input.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
