/*
store.go - Persistence interface for the ledger

PURPOSE:
  Defines the interface between the domain services and the database.
  Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  Ledger rows have exactly one write operation, AppendRows. There is no
  update or delete for rows; corrections are new compensating rows.
  Journal entries are mutable only through their status transitions, and
  hard deletion exists only for drafts.

SEQUENCES:
  NextEntryNumber and NextSeq hand out monotonic numbers. Inside WithTx
  they take part in the surrounding transaction, which is what makes
  posted entry numbers gapless: a rolled-back post returns its number.

IMPLEMENTATIONS:
  - store/sqlite: durable SQLite store (production)
  - ledger/store: in-memory store (tests/dev)

SEE ALSO:
  - posting.go: The only caller of AppendRows
  - query.go: Read-side consumers
*/
package ledger

import (
	"context"
	"time"
)

// Store handles persistence for accounts, journal entries, and ledger rows.
type Store interface {
	// --- accounts ---

	// CreateAccount persists a new account. Fails with ErrDuplicateCode if
	// the code is taken.
	CreateAccount(ctx context.Context, a Account) error

	// GetAccount returns the account or ErrNotFound.
	GetAccount(ctx context.Context, id AccountID) (*Account, error)

	// GetAccountByCode returns the account with the given code or ErrNotFound.
	GetAccountByCode(ctx context.Context, code string) (*Account, error)

	// ListAccounts returns accounts matching the filter, ordered by code.
	ListAccounts(ctx context.Context, f AccountFilter) ([]Account, error)

	// UpdateAccount rewrites a stored account (parent, active flag, name).
	UpdateAccount(ctx context.Context, a Account) error

	// --- journal entries ---

	// CreateEntry persists an entry together with its lines.
	CreateEntry(ctx context.Context, e JournalEntry) error

	// GetEntry returns the entry with its lines, or ErrNotFound.
	GetEntry(ctx context.Context, id EntryID) (*JournalEntry, error)

	// UpdateEntry rewrites an entry's header fields (status, number,
	// totals, void links, posted-at). Lines are immutable after creation.
	UpdateEntry(ctx context.Context, e JournalEntry) error

	// DeleteDraft hard-deletes a draft entry and its lines.
	DeleteDraft(ctx context.Context, id EntryID) error

	// ListEntries returns entries matching the filter, newest first.
	ListEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)

	// ReversalOf returns the posted entry whose VoidOf references id, or
	// nil. Unposted reversal attempts do not count as voiding.
	ReversalOf(ctx context.Context, id EntryID) (*JournalEntry, error)

	// --- ledger rows (append-only) ---

	// AppendRows persists posted rows. This is the ONLY row write.
	AppendRows(ctx context.Context, rows []LedgerRow) error

	// LatestRow returns the row with the highest Seq for the account,
	// or nil if the account has no rows.
	LatestRow(ctx context.Context, accountID AccountID) (*LedgerRow, error)

	// RowAsOf returns the latest row with Date <= date, ties broken by
	// Seq, or nil if none.
	RowAsOf(ctx context.Context, accountID AccountID, date time.Time) (*LedgerRow, error)

	// RangeRows returns rows with from <= Date <= to, ordered by (Date, Seq).
	RangeRows(ctx context.Context, accountID AccountID, from, to time.Time) ([]LedgerRow, error)

	// HasRowsSince reports whether the account has any row dated on or
	// after since. Used by the deactivation policy.
	HasRowsSince(ctx context.Context, accountID AccountID, since time.Time) (bool, error)

	// --- sequences ---

	// NextEntryNumber reserves and returns the next journal entry number.
	NextEntryNumber(ctx context.Context) (int64, error)

	// NextSeq reserves and returns the next global ledger sequence.
	NextSeq(ctx context.Context) (int64, error)

	// --- transactions ---

	// WithTx executes fn within a storage transaction. If fn returns an
	// error the transaction is rolled back and nothing becomes visible.
	WithTx(ctx context.Context, fn func(Store) error) error
}
