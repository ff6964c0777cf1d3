// Package skillerr holds the domain error taxonomy shared by the catalog,
// allocation and reconciliation services. Callers classify failures with the
// Is* helpers instead of matching on error strings.
package skillerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports an absent skill, level or method config. Lookups
	// fail loudly rather than defaulting.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports input rejected before any persistence.
	ErrValidation = errors.New("validation failed")

	// ErrNotConfigured reports an allocation method evaluated without a
	// bound method-config instance. Integration error, not retried.
	ErrNotConfigured = errors.New("allocation method not configured")

	// ErrConflict reports a row that changed between read and write.
	// Recoverable by retrying the enclosing transaction.
	ErrConflict = errors.New("concurrent modification")
)

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsNotConfigured(err error) bool { return errors.Is(err, ErrNotConfigured) }
func IsConflict(err error) bool      { return errors.Is(err, ErrConflict) }

// Retryable reports whether err looks like a storage-level serialization
// failure worth retrying. Covers postgres deadlock/serialization messages and
// sqlite's busy errors; drivers do not expose these as typed errors through
// gorm, so the match is on message text.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadlock detected"),
		strings.Contains(msg, "could not serialize access"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"):
		return true
	}
	return false
}
