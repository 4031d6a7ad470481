package services

import (
	"errors"
	"fmt"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
)

// Authentication
var (
	ErrInvalidCredentials = errors.New("invalid employee id or password")
	ErrDuplicateIdentity  = errors.New("employee id is already registered")
	ErrUnauthorized       = errors.New("authentication required")
)

// Authorization
var (
	ErrForbidden            = errors.New("insufficient permissions")
	ErrNotImpersonating     = errors.New("session is not impersonating")
	ErrAlreadyImpersonating = errors.New("exit the current impersonation first")
	ErrRestoreFailed        = errors.New("original admin account could not be restored")
)

// Lookups
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrMasterDataNotFound = errors.New("master data entry not found")
	ErrJobNotFound        = errors.New("audio job not found")
)

// Data and state
var (
	ErrConflict                   = errors.New("resource conflict")
	ErrValidationFailed           = errors.New("validation failed")
	ErrInvalidTransition          = errors.New("invalid status transition")
	ErrTestLocked                 = errors.New("training must be completed before starting the test")
	ErrInvalidTranslationResponse = errors.New("translation response is missing translations")
	ErrNothingToTranslate         = errors.New("module has no slide text to translate")
)

// External dependencies
var (
	ErrProviderUnavailable = errors.New("translation or speech provider is not configured")
	ErrStorageUnavailable  = errors.New("object storage is not configured")
	ErrTranslationFailed   = errors.New("translation request failed")
)

// authorize is run first by every privileged operation. The role is read
// from the verified session only; nothing the client sends can raise it.
func authorize(actor *session.Claims, min models.UserRole) error {
	if actor == nil || actor.UserID == "" {
		return ErrUnauthorized
	}
	if !actor.Role.Satisfies(min) {
		return ErrForbidden
	}
	return nil
}

// mapRepoErr turns repository sentinels into service sentinels.
func mapRepoErr(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrConflict, op)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}
