package services

import (
	"errors"
	"fmt"
)

// Provisioning error taxonomy. Callers branch on these with errors.Is, so
// signup handlers can tell a bad request from a failed commit from a lost
// invitation race, and none of them are mistaken for plain network errors.
var (
	// ErrInvalidInput is returned when a required field is missing or blank,
	// e.g. no clinic name on the create-clinic path. Safe to re-prompt.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvisionFailed is returned when the atomic write group could not be
	// committed. Nothing was persisted; the caller may let the user retry.
	ErrProvisionFailed = errors.New("tenant provisioning failed")

	// ErrInvitationConsumed is returned when a concurrent signup consumed the
	// targeted invitation first. The loser does not silently become a clinic
	// owner; the caller retries and the second lookup finds nothing pending.
	ErrInvitationConsumed = errors.New("invitation already consumed")

	// ErrNotFound is returned when the requested record does not exist in
	// the caller's clinic.
	ErrNotFound = errors.New("not found")
)

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

func provisionFailed(err error) error {
	return fmt.Errorf("%w: %v", ErrProvisionFailed, err)
}
