// Package store provides an in-memory ledger.Store implementation
// (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory keeps everything in maps and sorted slices. Ledger rows for each
// account are held sorted by (date, seq), mirroring the read ordering the
// interface promises.
//
// WithTx provides mutual exclusion but not rollback: callers are expected
// to perform reads and checks before their writes, which is how the
// posting engine behaves. The SQLite store is the durable implementation.
type Memory struct {
	mu sync.RWMutex

	accounts map[ledger.AccountID]ledger.Account
	byCode   map[string]ledger.AccountID
	entries  map[ledger.EntryID]ledger.JournalEntry
	rows     map[ledger.AccountID][]ledger.LedgerRow
	lastRow  map[ledger.AccountID]ledger.LedgerRow

	entryNumber int64
	seq         int64

	txMu sync.Mutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[ledger.AccountID]ledger.Account),
		byCode:   make(map[string]ledger.AccountID),
		entries:  make(map[ledger.EntryID]ledger.JournalEntry),
		rows:     make(map[ledger.AccountID][]ledger.LedgerRow),
		lastRow:  make(map[ledger.AccountID]ledger.LedgerRow),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) CreateAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCode[a.Code]; exists {
		return ledger.ErrDuplicateCode
	}
	m.accounts[a.ID] = a
	m.byCode[a.Code] = a.ID
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) GetAccountByCode(_ context.Context, code string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byCode[code]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	a := m.accounts[id]
	return &a, nil
}

func (m *Memory) ListAccounts(_ context.Context, f ledger.AccountFilter) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Account
	for _, a := range m.accounts {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.ActiveOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) UpdateAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.accounts[a.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if old.Code != a.Code {
		if _, taken := m.byCode[a.Code]; taken {
			return ledger.ErrDuplicateCode
		}
		delete(m.byCode, old.Code)
		m.byCode[a.Code] = a.ID
	}
	m.accounts[a.ID] = a
	return nil
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

func (m *Memory) CreateEntry(_ context.Context, e ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[e.ID] = copyEntry(e)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id ledger.EntryID) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	out := copyEntry(e)
	return &out, nil
}

func (m *Memory) UpdateEntry(_ context.Context, e ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.ID]; !ok {
		return ledger.ErrNotFound
	}
	m.entries[e.ID] = copyEntry(e)
	return nil
}

func (m *Memory) DeleteDraft(_ context.Context, id ledger.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if e.Status != ledger.StatusDraft {
		return ledger.ErrNotDraft
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) ListEntries(_ context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.JournalEntry
	for _, e := range m.entries {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ReversalOf(_ context.Context, id ledger.EntryID) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.VoidOf == id && e.Status == ledger.StatusPosted {
			out := copyEntry(e)
			return &out, nil
		}
	}
	return nil, nil
}

// =============================================================================
// LEDGER ROWS (append-only)
// =============================================================================

func (m *Memory) AppendRows(_ context.Context, rows []ledger.LedgerRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		list := m.rows[row.AccountID]

		// Sorted insert by (date, seq) keeps reads cheap.
		i := sort.Search(len(list), func(i int) bool {
			if !list[i].Date.Equal(row.Date) {
				return list[i].Date.After(row.Date)
			}
			return list[i].Seq > row.Seq
		})
		list = append(list, ledger.LedgerRow{})
		copy(list[i+1:], list[i:])
		list[i] = row
		m.rows[row.AccountID] = list

		if last, ok := m.lastRow[row.AccountID]; !ok || row.Seq > last.Seq {
			m.lastRow[row.AccountID] = row
		}
	}
	return nil
}

func (m *Memory) LatestRow(_ context.Context, accountID ledger.AccountID) (*ledger.LedgerRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.lastRow[accountID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *Memory) RowAsOf(_ context.Context, accountID ledger.AccountID, date time.Time) (*ledger.LedgerRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.rows[accountID]
	i := sort.Search(len(list), func(i int) bool { return list[i].Date.After(date) })
	if i == 0 {
		return nil, nil
	}
	row := list[i-1]
	return &row, nil
}

func (m *Memory) RangeRows(_ context.Context, accountID ledger.AccountID, from, to time.Time) ([]ledger.LedgerRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.LedgerRow
	for _, row := range m.rows[accountID] {
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *Memory) HasRowsSince(_ context.Context, accountID ledger.AccountID, since time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.rows[accountID]
	return len(list) > 0 && !list[len(list)-1].Date.Before(since), nil
}

// =============================================================================
// SEQUENCES
// =============================================================================

func (m *Memory) NextEntryNumber(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entryNumber++
	return m.entryNumber, nil
}

func (m *Memory) NextSeq(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	return m.seq, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx serializes fn against other WithTx calls. See the Memory doc
// comment for the rollback caveat.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func copyEntry(e ledger.JournalEntry) ledger.JournalEntry {
	out := e
	out.Lines = make([]ledger.JournalLine, len(e.Lines))
	copy(out.Lines, e.Lines)
	if e.PostedAt != nil {
		t := *e.PostedAt
		out.PostedAt = &t
	}
	return out
}
