/*
Package ledger provides the core double-entry posting engine.

PURPOSE:
  This package contains the domain types and services for a double-entry
  general ledger: a chart of accounts, balanced journal entries, an
  append-only ledger of posted movements, and derived account balances.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A node in the chart of accounts, with a normal balance side
  - JournalEntry/JournalLine: A balanced set of debit/credit lines
  - LedgerRow: One immutable posted movement with its running balance
  - EntryStatus: The Draft -> Approved -> Posted -> Void state machine

DESIGN PRINCIPLES:
  1. Immutability: Posted rows are never modified, only compensated
  2. Precision: Uses decimal.Decimal so debits == credits is exact
  3. Derived balances: Running balances live on ledger rows, never on
     mutable account fields
  4. Auditability: Every entry keeps its lines, totals, and void links

SEE ALSO:
  - validate.go: Structural and balance validation of lines
  - posting.go: Draft/approve/post lifecycle and sequence assignment
  - query.go: Point-in-time balances, statements, trial balance
  - void.go: Compensating reversal entries
  - store.go: Persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type EntryID string
type LineID string
type RowID string

// =============================================================================
// ACCOUNT - Chart of accounts node
// =============================================================================

// AccountType classifies an account for reporting and determines its
// default normal balance.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountIncome, AccountExpense:
		return true
	}
	return false
}

// NormalBalance is the side on which an account naturally increases.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "debit"
	CreditNormal NormalBalance = "credit"
)

// Valid reports whether nb is one of the two sides.
func (nb NormalBalance) Valid() bool {
	return nb == DebitNormal || nb == CreditNormal
}

// DefaultNormalBalance returns the conventional normal balance for an
// account type: debit for asset/expense, credit otherwise.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case AccountAsset, AccountExpense:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Delta converts a debit/credit pair into a signed balance change under
// this convention. Debit-normal accounts grow with debits, credit-normal
// accounts grow with credits.
func (nb NormalBalance) Delta(debit, credit decimal.Decimal) decimal.Decimal {
	if nb == CreditNormal {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// Account is one node in the chart of accounts.
//
// Accounts are never hard-deleted once a ledger row references them;
// retirement is a soft Active=false flip.
type Account struct {
	ID            AccountID
	Code          string // unique, sortable
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	ParentID      AccountID // empty for root accounts
	Active        bool
	CreatedAt     time.Time
}

// AccountFilter narrows ListAccounts results.
type AccountFilter struct {
	Type       AccountType // empty = all types
	ActiveOnly bool
}

// =============================================================================
// JOURNAL ENTRY - One balanced business transaction
// =============================================================================

// EntryStatus is the journal entry state machine. Legal transitions:
//
//	Draft -> Approved -> Posted -> Void
//
// Draft entries may be discarded; Posted entries may only be voided via a
// compensating entry. There are no other transitions.
type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusApproved EntryStatus = "approved"
	StatusPosted   EntryStatus = "posted"
	StatusVoid     EntryStatus = "void"
)

// JournalEntry is a balanced set of lines representing one transaction.
//
// EntryNumber is 0 while the entry is a draft; posting assigns the next
// gapless number. TotalDebit/TotalCredit are computed at approval and
// must be equal from then on.
type JournalEntry struct {
	ID          EntryID
	EntryNumber int64
	Date        time.Time
	Narration   string
	EntryType   string // free-form classification ("sale", "payment", "reversal", ...)
	Status      EntryStatus
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Lines       []JournalLine

	// Void bookkeeping. VoidedBy is set on the original entry, VoidOf on
	// the compensating entry.
	VoidedBy EntryID
	VoidOf   EntryID

	CreatedAt time.Time
	PostedAt  *time.Time
}

// JournalLine is one side of a movement within an entry. Exactly one of
// Debit/Credit is positive, the other is zero.
type JournalLine struct {
	ID          LineID
	EntryID     EntryID
	AccountID   AccountID
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// EntryFilter narrows ListEntries results.
type EntryFilter struct {
	Status EntryStatus // empty = any status
	From   time.Time   // zero = unbounded
	To     time.Time   // zero = unbounded
}

// LineInput is the caller-supplied shape of a line before an entry exists.
type LineInput struct {
	AccountID   AccountID
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// =============================================================================
// LEDGER ROW - Append-only posted movement
// =============================================================================

// LedgerRow is one durable debit-or-credit movement against one account,
// produced by posting. Rows are append-only: corrections happen via new
// compensating rows, never by mutation.
//
// Seq is a global monotonic posting sequence; (Date, Seq) totally orders
// every account's history even when dates collide.
type LedgerRow struct {
	ID        RowID
	Seq       int64
	EntryID   EntryID
	LineID    LineID
	AccountID AccountID
	Date      time.Time
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	// Balance is the account's running balance after this row, in the
	// account's normal-balance convention.
	Balance decimal.Decimal
}

// =============================================================================
// DATES
// =============================================================================

// Day truncates t to a civil date in UTC. Transaction dates are compared
// at day granularity; intra-day order comes from Seq.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate builds a civil date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
