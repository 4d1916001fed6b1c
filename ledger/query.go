/*
query.go - Balance queries, statements, trial balance

PURPOSE:
  Read-side services over the append-only ledger rows. Balances are
  derived data: they are read off the running balance of the latest row,
  never off a mutable account field.

ORDERING:
  Rows are ordered by (date, seq). Dates alone are not unique, so every
  as-of lookup breaks ties with the global posting sequence.

SEE ALSO:
  - posting.go: Produces the rows consumed here
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceService computes point-in-time and ranged balances.
type BalanceService struct {
	Store Store
}

// NewBalanceService creates a balance service over the store.
func NewBalanceService(store Store) *BalanceService {
	return &BalanceService{Store: store}
}

// BalanceAsOf returns the account's running balance as of the end of the
// given date, in the account's normal-balance convention. An existing
// account with no rows has balance zero; an unknown account is ErrNotFound.
func (bs *BalanceService) BalanceAsOf(ctx context.Context, accountID AccountID, date time.Time) (decimal.Decimal, error) {
	if _, err := bs.Store.GetAccount(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	row, err := bs.Store.RowAsOf(ctx, accountID, Day(date))
	if err != nil {
		return decimal.Zero, err
	}
	if row == nil {
		return decimal.Zero, nil
	}
	return row.Balance, nil
}

// Statement is a ranged ledger read with its period totals, the shape a
// cash book or account statement renders directly.
type Statement struct {
	Account        Account
	From, To       time.Time
	OpeningBalance decimal.Decimal
	Rows           []LedgerRow
	PeriodDebit    decimal.Decimal
	PeriodCredit   decimal.Decimal
	ClosingBalance decimal.Decimal
}

// RangeLedger returns the account's rows with from <= date <= to,
// ordered by (date, seq), wrapped with opening/closing balances.
func (bs *BalanceService) RangeLedger(ctx context.Context, accountID AccountID, from, to time.Time) (*Statement, error) {
	acct, err := bs.Store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	from, to = Day(from), Day(to)
	opening := decimal.Zero
	if prev, err := bs.Store.RowAsOf(ctx, accountID, from.AddDate(0, 0, -1)); err != nil {
		return nil, err
	} else if prev != nil {
		opening = prev.Balance
	}

	rows, err := bs.Store.RangeRows(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	st := &Statement{
		Account:        *acct,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Rows:           rows,
		PeriodDebit:    decimal.Zero,
		PeriodCredit:   decimal.Zero,
		ClosingBalance: opening,
	}
	for _, r := range rows {
		st.PeriodDebit = st.PeriodDebit.Add(r.Debit)
		st.PeriodCredit = st.PeriodCredit.Add(r.Credit)
	}
	if len(rows) > 0 {
		st.ClosingBalance = rows[len(rows)-1].Balance
	}
	return st, nil
}

// AccountBalance is one trial balance line.
type AccountBalance struct {
	Account Account
	Balance decimal.Decimal
}

// TrialBalanceReport lists every active account's balance as of a date.
// TotalDebit sums debit-normal balances and TotalCredit credit-normal
// ones; the accounting identity requires them to be equal.
type TrialBalanceReport struct {
	AsOf        time.Time
	Accounts    []AccountBalance
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Balanced reports whether the fundamental identity holds.
func (r *TrialBalanceReport) Balanced() bool {
	return r.TotalDebit.Equal(r.TotalCredit)
}

// TrialBalance computes balances for all active accounts as of a date.
func (bs *BalanceService) TrialBalance(ctx context.Context, asOf time.Time) (*TrialBalanceReport, error) {
	accounts, err := bs.Store.ListAccounts(ctx, AccountFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	report := &TrialBalanceReport{
		AsOf:        Day(asOf),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, a := range accounts {
		row, err := bs.Store.RowAsOf(ctx, a.ID, report.AsOf)
		if err != nil {
			return nil, err
		}
		balance := decimal.Zero
		if row != nil {
			balance = row.Balance
		}
		report.Accounts = append(report.Accounts, AccountBalance{Account: a, Balance: balance})
		if a.NormalBalance == DebitNormal {
			report.TotalDebit = report.TotalDebit.Add(balance)
		} else {
			report.TotalCredit = report.TotalCredit.Add(balance)
		}
	}
	return report, nil
}
