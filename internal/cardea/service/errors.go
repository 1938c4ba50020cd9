package service

import (
	"errors"
	"fmt"
)

// The error taxonomy for lifecycle operations. The first three reject a
// call before any record is mutated; the verification pair leaves the
// record unchanged and retryable. Storage failures propagate as-is.
var (
	// ErrValidation: malformed or missing input.
	ErrValidation = errors.New("invalid request")

	// ErrAuthorization: the actor lacks the rights for this operation.
	ErrAuthorization = errors.New("not permitted")

	// ErrInvalidState: the request's current status does not allow the
	// attempted transition.
	ErrInvalidState = errors.New("request is not in a valid state for this action")

	// ErrVerificationFailed: the biometric gate did not pass. Retryable;
	// the message says whether no face was found or the face did not match
	// so the user knows to retake the photo or contact an approver.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrServiceUnavailable: the verification backend was unreachable or
	// timed out. Retryable, distinguished from a failed match for user
	// messaging.
	ErrServiceUnavailable = errors.New("verification service unavailable")

	// ErrNotFound: no record with the given id.
	ErrNotFound = errors.New("not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func authorizationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}
