/*
errors.go - Centralized error types for the posting engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Three families mirror how callers should react:

  1. Validation errors - bad line input, fix and resubmit
  2. State errors - illegal state-machine transition, do not retry
  3. Storage errors - transient, safe to retry the whole operation

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, ledger.ErrValidation) { ... }
    var ub *ledger.UnbalancedError
    if errors.As(err, &ub) { show(ub.Diff) }

SEE ALSO:
  - validate.go: Produces the validation errors
  - posting.go, void.go, registry.go: Produce the state errors
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every journal validation failure.
	ErrValidation = errors.New("journal validation failed")

	// ErrTooFewLines is returned for entries with fewer than two lines.
	ErrTooFewLines = fmt.Errorf("%w: at least two lines required", ErrValidation)

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned when an account code is already taken.
	ErrDuplicateCode = errors.New("account code already exists")

	// ErrCycle is returned when a parent assignment would create a cycle
	// or an incompatible cross-type rollup.
	ErrCycle = errors.New("illegal parent assignment")

	// ErrInUse is returned when deactivation is blocked by recent activity.
	ErrInUse = errors.New("account has recent ledger activity")

	// ErrNotDraft is returned when approving or discarding a non-draft entry.
	ErrNotDraft = errors.New("entry is not a draft")

	// ErrNotApproved is returned when posting an entry that is not approved.
	// A second post of the same entry fails with this error: once posted it
	// is no longer approved.
	ErrNotApproved = errors.New("entry is not approved")

	// ErrNotPosted is returned when voiding an entry that is not posted.
	ErrNotPosted = errors.New("entry is not posted")

	// ErrAlreadyVoided is returned when a reversal already references the entry.
	ErrAlreadyVoided = errors.New("entry already voided")
)

// =============================================================================
// VALIDATION ERRORS - Carry the offending detail
// =============================================================================

// UnbalancedError reports that debits and credits differ. Diff is the
// exact absolute difference.
type UnbalancedError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Diff        decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits %s != credits %s (diff %s)",
		e.TotalDebit, e.TotalCredit, e.Diff)
}

func (e *UnbalancedError) Unwrap() error { return ErrValidation }

// UnknownAccountError reports a line referencing a missing account.
type UnknownAccountError struct {
	AccountID AccountID
	LineIndex int
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("line %d: unknown account %q", e.LineIndex, e.AccountID)
}

func (e *UnknownAccountError) Unwrap() error { return ErrValidation }

// InactiveAccountError reports a line referencing a deactivated account.
type InactiveAccountError struct {
	AccountID AccountID
	Code      string
	LineIndex int
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("line %d: account %s is inactive", e.LineIndex, e.Code)
}

func (e *InactiveAccountError) Unwrap() error { return ErrValidation }

// MixedSidedLineError reports a line that does not have exactly one
// strictly positive side with the other exactly zero.
type MixedSidedLineError struct {
	LineIndex int
}

func (e *MixedSidedLineError) Error() string {
	return fmt.Sprintf("line %d: exactly one of debit/credit must be positive, the other zero", e.LineIndex)
}

func (e *MixedSidedLineError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether the error is a state-machine misuse; retrying
// the same call will fail the same way.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateCode) ||
		errors.Is(err, ErrCycle) ||
		errors.Is(err, ErrInUse) ||
		errors.Is(err, ErrNotDraft) ||
		errors.Is(err, ErrNotApproved) ||
		errors.Is(err, ErrNotPosted) ||
		errors.Is(err, ErrAlreadyVoided)
}
