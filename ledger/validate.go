/*
validate.go - Journal entry validation

PURPOSE:
  Pure, side-effect-free validation of a proposed set of journal lines.
  The posting engine runs it at approval time; callers may also run it
  before submitting, which is why it depends only on the small
  AccountLookup interface rather than on persistence.

CHECKS, IN ORDER:
  1. At least two lines
  2. Every line references a known, active account
  3. Exactly one of debit/credit strictly positive, the other exactly zero
  4. Sum of debits equals sum of credits, exactly

  Decimal arithmetic makes check 4 exact; there is no epsilon.

SEE ALSO:
  - errors.go: The tagged failure types
  - posting.go: Runs validation in Approve
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountLookup resolves account references during validation.
// *Registry implements it.
type AccountLookup interface {
	LookupAccount(ctx context.Context, id AccountID) (*Account, error)
}

// Totals is the validated sum of an entry's sides.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Validate checks a proposed line set and returns its totals. On failure
// it returns the first violated check as a tagged error wrapping
// ErrValidation.
func Validate(ctx context.Context, accounts AccountLookup, lines []LineInput) (Totals, error) {
	if len(lines) < 2 {
		return Totals{}, ErrTooFewLines
	}

	for i, line := range lines {
		a, err := accounts.LookupAccount(ctx, line.AccountID)
		if err != nil {
			if IsNotFound(err) {
				return Totals{}, &UnknownAccountError{AccountID: line.AccountID, LineIndex: i}
			}
			return Totals{}, err
		}
		if !a.Active {
			return Totals{}, &InactiveAccountError{AccountID: a.ID, Code: a.Code, LineIndex: i}
		}
	}

	for i, line := range lines {
		hasDebit := line.Debit.IsPositive()
		hasCredit := line.Credit.IsPositive()
		cleanDebit := hasDebit && line.Credit.IsZero()
		cleanCredit := hasCredit && line.Debit.IsZero()
		if !cleanDebit && !cleanCredit {
			return Totals{}, &MixedSidedLineError{LineIndex: i}
		}
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		return Totals{}, &UnbalancedError{
			TotalDebit:  totalDebit,
			TotalCredit: totalCredit,
			Diff:        totalDebit.Sub(totalCredit).Abs(),
		}
	}

	return Totals{Debit: totalDebit, Credit: totalCredit}, nil
}
