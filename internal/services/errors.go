// Package services provides business logic for the Parlons application.
package services

import (
	"errors"
	"fmt"

	"github.com/parlons-app/parlons/internal/apperrors"
	"github.com/parlons-app/parlons/internal/repository"
)

// Sentinel results surfaced by the assembly and resolution services.
// Callers check these with errors.Is; handlers translate them to
// unsuccessful-but-valid responses rather than server errors.
var (
	// ErrNoRecordings means a dialogue has no voiced or synthesizable lines,
	// so there is nothing to assemble.
	ErrNoRecordings = apperrors.ErrNoRecordings

	// ErrNoDialogueAudio means none of a simulation's dialogues have
	// assembled audio yet.
	ErrNoDialogueAudio = apperrors.ErrNoDialogueAudio

	// ErrNotVoiced means a line has no stored recording.
	ErrNotVoiced = apperrors.ErrNotVoiced

	// ErrSynthesisFailed means the speech backend rejected or failed a request.
	ErrSynthesisFailed = apperrors.ErrSynthesisFailed

	// ErrAudioProcessingFailed wraps FFmpeg and codec failures.
	ErrAudioProcessingFailed = apperrors.ErrAudioProcessingFailed

	// ErrNotFound, ErrInvalidInput and ErrDatabaseError are re-exported for
	// service code that predates the apperrors package.
	ErrNotFound      = apperrors.ErrNotFound
	ErrDuplicate     = apperrors.ErrDuplicate
	ErrInvalidInput  = apperrors.ErrInvalidInput
	ErrDatabaseError = apperrors.ErrDatabaseError
)

// MapRepoError translates repository errors to application-level errors.
// It preserves the operation context and maps common repository errors to their
// corresponding application error types.
func MapRepoError(op string, err error) error {
	return apperrors.TranslateRepoError(op, err)
}

// MapRepoErrorWithContext translates repository errors with additional context.
// Use this when you need to include extra information like the resource name or ID.
func MapRepoErrorWithContext(op string, err error, context string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrNotFound, context)
	}

	if errors.Is(err, repository.ErrDuplicateKey) {
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrDuplicate, context)
	}

	if errors.Is(err, repository.ErrForeignKeyViolation) {
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrDependencyExists, context)
	}

	return fmt.Errorf("%s: %w: %v", op, apperrors.ErrDatabaseError, err)
}

// WrapDBError wraps database errors without mapping, preserving the original error.
// Use this when you want to add context but let the caller handle the mapping.
func WrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, apperrors.ErrDatabaseError, err)
}

// MustExist is a helper that checks an existence query result and returns
// appropriate errors for the exists/err combination.
func MustExist(op string, exists bool, err error) error {
	if err != nil {
		return WrapDBError(op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return nil
}
