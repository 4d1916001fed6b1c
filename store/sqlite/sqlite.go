/*
Package sqlite provides the SQLite-backed implementation of ledger.Store.

PURPOSE:
  Durable persistence for accounts, journal entries, and ledger rows.
  The same patterns apply to PostgreSQL - only minor dialect differences.

KEY TABLES:
  accounts:        Chart of accounts (soft deactivation, never deleted)
  journal_entries: Entry headers with status and void links
  journal_lines:   Immutable lines owned by their entry
  ledger_rows:     Append-only posted movements with running balances
  sequences:       Gapless entry numbers and the global posting sequence

APPEND-ONLY ENFORCEMENT:
  ledger_rows has inserts only; no UPDATE or DELETE statement on that
  table exists anywhere in this package. Draft deletion is the single
  hard delete, and it touches journal_entries/journal_lines only.

INDEXES:
  - accounts.code UNIQUE: code lookup and duplicate detection
  - journal_entries.entry_number UNIQUE (posted only): number lookup
  - ledger_rows(account_id, txn_date, seq): as-of and range scans
  - ledger_rows.seq UNIQUE: total posting order

AMOUNTS:
  Stored as decimal strings, never floats. Dates are stored as
  YYYY-MM-DD strings, which sort correctly as text.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  and there is a single writer at a time, which matches the posting
  engine's single-writer discipline.

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

const dateFormat = "2006-01-02"

// Store implements ledger.Store using SQLite.
type Store struct {
	conn
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database. The schema is migrated on open.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY between the writer and
	// in-transaction reads.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	s.conn = conn{q: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		normal_balance TEXT NOT NULL,
		parent_id TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(type);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		entry_number INTEGER NOT NULL DEFAULT 0,
		txn_date TEXT NOT NULL,
		narration TEXT,
		entry_type TEXT,
		status TEXT NOT NULL,
		total_debit TEXT NOT NULL,
		total_credit TEXT NOT NULL,
		void_of TEXT,
		voided_by TEXT,
		created_at TEXT NOT NULL,
		posted_at TEXT
	);

	-- Posted entries carry unique gapless numbers; drafts stay at 0.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_number
		ON journal_entries(entry_number) WHERE entry_number > 0;
	CREATE INDEX IF NOT EXISTS idx_entries_status ON journal_entries(status);
	CREATE INDEX IF NOT EXISTS idx_entries_date ON journal_entries(txn_date);
	CREATE INDEX IF NOT EXISTS idx_entries_void_of
		ON journal_entries(void_of) WHERE void_of IS NOT NULL;

	CREATE TABLE IF NOT EXISTS journal_lines (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		description TEXT,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lines_entry ON journal_lines(entry_id);

	-- Append-only posted movements.
	CREATE TABLE IF NOT EXISTS ledger_rows (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL UNIQUE,
		entry_id TEXT NOT NULL REFERENCES journal_entries(id),
		line_id TEXT NOT NULL REFERENCES journal_lines(id),
		account_id TEXT NOT NULL REFERENCES accounts(id),
		txn_date TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		balance TEXT NOT NULL
	);

	-- Hot path: as-of balance lookups and range scans.
	CREATE INDEX IF NOT EXISTS idx_rows_account_date_seq
		ON ledger_rows(account_id, txn_date, seq);
	CREATE INDEX IF NOT EXISTS idx_rows_entry ON ledger_rows(entry_id);

	CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO sequences(name, value) VALUES ('entry_number', 0);
	INSERT OR IGNORE INTO sequences(name, value) VALUES ('ledger_seq', 0);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{conn{q: sqlTx}}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the Store view inside a transaction. Nested transactions are
// not supported; WithTx inside WithTx runs fn on the same transaction.
type txStore struct {
	conn
}

func (ts *txStore) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	return fn(ts)
}

// =============================================================================
// SHARED QUERY LAYER - Runs against either *sql.DB or *sql.Tx
// =============================================================================

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type conn struct {
	q queryer
}

// --- accounts ---

func (c conn) CreateAccount(ctx context.Context, a ledger.Account) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO accounts (id, code, name, type, normal_balance, parent_id, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Code, a.Name, a.Type, a.NormalBalance,
		nullString(string(a.ParentID)), a.Active, a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

const accountColumns = `id, code, name, type, normal_balance, parent_id, active, created_at`

func (c conn) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (c conn) GetAccountByCode(ctx context.Context, code string) (*ledger.Account, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE code = ?`, code)
	return scanAccount(row)
}

func (c conn) ListAccounts(ctx context.Context, f ledger.AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var where []string
	var args []any
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.ActiveOnly {
		where = append(where, "active")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY code"

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (c conn) UpdateAccount(ctx context.Context, a ledger.Account) error {
	res, err := c.q.ExecContext(ctx, `
		UPDATE accounts SET code = ?, name = ?, type = ?, normal_balance = ?, parent_id = ?, active = ?
		WHERE id = ?`,
		a.Code, a.Name, a.Type, a.NormalBalance,
		nullString(string(a.ParentID)), a.Active, a.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateCode
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireRow(res)
}

// --- journal entries ---

func (c conn) CreateEntry(ctx context.Context, e ledger.JournalEntry) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO journal_entries
		(id, entry_number, txn_date, narration, entry_type, status,
		 total_debit, total_credit, void_of, voided_by, created_at, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.EntryNumber, e.Date.Format(dateFormat), e.Narration, e.EntryType, e.Status,
		e.TotalDebit.String(), e.TotalCredit.String(),
		nullString(string(e.VoidOf)), nullString(string(e.VoidedBy)),
		e.CreatedAt.UTC().Format(time.RFC3339Nano), nullTime(e.PostedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	for i, l := range e.Lines {
		_, err := c.q.ExecContext(ctx, `
			INSERT INTO journal_lines (id, entry_id, line_no, account_id, description, debit, credit)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, e.ID, i, l.AccountID, l.Description, l.Debit.String(), l.Credit.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to create line: %w", err)
		}
	}
	return nil
}

const entryColumns = `id, entry_number, txn_date, narration, entry_type, status,
	total_debit, total_credit, void_of, voided_by, created_at, posted_at`

func (c conn) GetEntry(ctx context.Context, id ledger.EntryID) (*ledger.JournalEntry, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, err
	}
	if err := c.loadLines(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (c conn) loadLines(ctx context.Context, e *ledger.JournalEntry) error {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, entry_id, account_id, description, debit, credit
		FROM journal_lines WHERE entry_id = ? ORDER BY line_no`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to load lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l ledger.JournalLine
		var debit, credit string
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Description, &debit, &credit); err != nil {
			return err
		}
		l.Debit = mustDecimal(debit)
		l.Credit = mustDecimal(credit)
		e.Lines = append(e.Lines, l)
	}
	return rows.Err()
}

func (c conn) UpdateEntry(ctx context.Context, e ledger.JournalEntry) error {
	res, err := c.q.ExecContext(ctx, `
		UPDATE journal_entries
		SET entry_number = ?, status = ?, total_debit = ?, total_credit = ?,
		    void_of = ?, voided_by = ?, posted_at = ?
		WHERE id = ?`,
		e.EntryNumber, e.Status, e.TotalDebit.String(), e.TotalCredit.String(),
		nullString(string(e.VoidOf)), nullString(string(e.VoidedBy)),
		nullTime(e.PostedAt), e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return requireRow(res)
}

func (c conn) DeleteDraft(ctx context.Context, id ledger.EntryID) error {
	var status ledger.EntryStatus
	err := c.q.QueryRowContext(ctx,
		`SELECT status FROM journal_entries WHERE id = ?`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrNotFound
		}
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if status != ledger.StatusDraft {
		return ledger.ErrNotDraft
	}

	res, err := c.q.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = ? AND status = ?`, id, ledger.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return requireRow(res)
}

func (c conn) ListEntries(ctx context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		where = append(where, "txn_date >= ?")
		args = append(args, f.From.Format(dateFormat))
	}
	if !f.To.IsZero() {
		where = append(where, "txn_date <= ?")
		args = append(args, f.To.Format(dateFormat))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range out {
		if err := c.loadLines(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c conn) ReversalOf(ctx context.Context, id ledger.EntryID) (*ledger.JournalEntry, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE void_of = ? AND status = ?`,
		id, ledger.StatusPosted)
	e, err := scanEntry(row)
	if err != nil {
		if ledger.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := c.loadLines(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// --- ledger rows ---

func (c conn) AppendRows(ctx context.Context, rows []ledger.LedgerRow) error {
	for _, r := range rows {
		_, err := c.q.ExecContext(ctx, `
			INSERT INTO ledger_rows (id, seq, entry_id, line_id, account_id, txn_date, debit, credit, balance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Seq, r.EntryID, r.LineID, r.AccountID,
			r.Date.Format(dateFormat), r.Debit.String(), r.Credit.String(), r.Balance.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to append ledger row: %w", err)
		}
	}
	return nil
}

const rowColumns = `id, seq, entry_id, line_id, account_id, txn_date, debit, credit, balance`

func (c conn) LatestRow(ctx context.Context, accountID ledger.AccountID) (*ledger.LedgerRow, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT `+rowColumns+` FROM ledger_rows
		WHERE account_id = ? ORDER BY seq DESC LIMIT 1`, accountID)
	return scanRowMaybe(row)
}

func (c conn) RowAsOf(ctx context.Context, accountID ledger.AccountID, date time.Time) (*ledger.LedgerRow, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT `+rowColumns+` FROM ledger_rows
		WHERE account_id = ? AND txn_date <= ?
		ORDER BY txn_date DESC, seq DESC LIMIT 1`,
		accountID, date.Format(dateFormat))
	return scanRowMaybe(row)
}

func (c conn) RangeRows(ctx context.Context, accountID ledger.AccountID, from, to time.Time) ([]ledger.LedgerRow, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+rowColumns+` FROM ledger_rows
		WHERE account_id = ? AND txn_date >= ? AND txn_date <= ?
		ORDER BY txn_date, seq`,
		accountID, from.Format(dateFormat), to.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to range ledger rows: %w", err)
	}
	defer rows.Close()

	var out []ledger.LedgerRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (c conn) HasRowsSince(ctx context.Context, accountID ledger.AccountID, since time.Time) (bool, error) {
	var n int
	err := c.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM ledger_rows WHERE account_id = ? AND txn_date >= ?`,
		accountID, since.Format(dateFormat)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check activity: %w", err)
	}
	return n > 0, nil
}

// --- sequences ---

func (c conn) NextEntryNumber(ctx context.Context) (int64, error) {
	return c.nextSequence(ctx, "entry_number")
}

func (c conn) NextSeq(ctx context.Context) (int64, error) {
	return c.nextSequence(ctx, "ledger_seq")
}

func (c conn) nextSequence(ctx context.Context, name string) (int64, error) {
	var value int64
	err := c.q.QueryRowContext(ctx, `
		UPDATE sequences SET value = value + 1 WHERE name = ? RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}

// =============================================================================
// SCANNING / HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*ledger.Account, error) {
	var a ledger.Account
	var parent sql.NullString
	var createdAt string
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &parent, &a.Active, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	a.ParentID = ledger.AccountID(parent.String)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func scanEntry(row scanner) (*ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var date, createdAt string
	var totalDebit, totalCredit string
	var voidOf, voidedBy, postedAt sql.NullString
	err := row.Scan(&e.ID, &e.EntryNumber, &date, &e.Narration, &e.EntryType, &e.Status,
		&totalDebit, &totalCredit, &voidOf, &voidedBy, &createdAt, &postedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	e.Date, _ = time.ParseInLocation(dateFormat, date, time.UTC)
	e.TotalDebit = mustDecimal(totalDebit)
	e.TotalCredit = mustDecimal(totalCredit)
	e.VoidOf = ledger.EntryID(voidOf.String)
	e.VoidedBy = ledger.EntryID(voidedBy.String)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if postedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, postedAt.String)
		e.PostedAt = &t
	}
	return &e, nil
}

func scanRow(row scanner) (*ledger.LedgerRow, error) {
	var r ledger.LedgerRow
	var date, debit, credit, balance string
	err := row.Scan(&r.ID, &r.Seq, &r.EntryID, &r.LineID, &r.AccountID, &date, &debit, &credit, &balance)
	if err != nil {
		return nil, err
	}
	r.Date, _ = time.ParseInLocation(dateFormat, date, time.UTC)
	r.Debit = mustDecimal(debit)
	r.Credit = mustDecimal(credit)
	r.Balance = mustDecimal(balance)
	return &r, nil
}

func scanRowMaybe(row *sql.Row) (*ledger.LedgerRow, error) {
	r, err := scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan ledger row: %w", err)
	}
	return r, nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
