/*
posting.go - Journal entry lifecycle and posting

PURPOSE:
  Drives the Draft -> Approved -> Posted state machine and performs the
  one invariant-critical write in the system: fanning a posted entry's
  lines out into append-only ledger rows with correct running balances.

NUMBERING POLICY:
  Entry numbers are gapless and issued only at Post time, inside the
  posting transaction. Drafts carry number 0; a discarded draft never
  consumes a number.

SERIALIZATION DISCIPLINE:
  Post holds a single engine-level mutex and wraps all reads and writes
  in one storage transaction. The previous balance for each account is
  read and extended under that exclusion, so two concurrent posts that
  touch the same account can never compute from a stale balance. A global
  single writer is chosen over per-account locks; posting throughput is
  bounded by the storage transaction anyway.

ATOMICITY:
  All ledger rows for an entry plus its status flip commit together or
  not at all. Readers never observe a partially posted entry.

SEE ALSO:
  - validate.go: Runs in Approve
  - void.go: Posts compensating entries through this same path
*/
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingEngine owns journal entry transitions and ledger row writes.
type PostingEngine struct {
	Store    Store
	Registry *Registry

	// mu serializes Post: running balances are read-modify-write.
	mu  sync.Mutex
	now func() time.Time
}

// NewPostingEngine creates a posting engine over the store and registry.
func NewPostingEngine(store Store, registry *Registry) *PostingEngine {
	return &PostingEngine{Store: store, Registry: registry, now: time.Now}
}

// CreateDraft records a new draft entry. Lines are stored verbatim; no
// validation runs and no balances move. The entry number stays 0 until
// the entry is posted.
func (pe *PostingEngine) CreateDraft(ctx context.Context, date time.Time, narration, entryType string, lines []LineInput) (*JournalEntry, error) {
	e := JournalEntry{
		ID:          EntryID(uuid.NewString()),
		Date:        Day(date),
		Narration:   narration,
		EntryType:   entryType,
		Status:      StatusDraft,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		CreatedAt:   pe.now().UTC(),
	}
	for _, in := range lines {
		e.Lines = append(e.Lines, JournalLine{
			ID:          LineID(uuid.NewString()),
			EntryID:     e.ID,
			AccountID:   in.AccountID,
			Description: in.Description,
			Debit:       in.Debit,
			Credit:      in.Credit,
		})
	}

	if err := pe.Store.CreateEntry(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntry returns an entry with its lines.
func (pe *PostingEngine) GetEntry(ctx context.Context, id EntryID) (*JournalEntry, error) {
	return pe.Store.GetEntry(ctx, id)
}

// ListEntries returns entries matching the filter.
func (pe *PostingEngine) ListEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error) {
	return pe.Store.ListEntries(ctx, f)
}

// Approve validates a draft and moves it to Approved. On validation
// failure the status is left unchanged and the tagged reason is returned.
func (pe *PostingEngine) Approve(ctx context.Context, id EntryID) (*JournalEntry, error) {
	e, err := pe.Store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusDraft {
		return nil, ErrNotDraft
	}

	inputs := make([]LineInput, len(e.Lines))
	for i, l := range e.Lines {
		inputs[i] = LineInput{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit}
	}
	totals, err := Validate(ctx, pe.Registry, inputs)
	if err != nil {
		return nil, err
	}

	e.Status = StatusApproved
	e.TotalDebit = totals.Debit
	e.TotalCredit = totals.Credit
	if err := pe.Store.UpdateEntry(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// Post durably commits an approved entry: assigns the next entry number,
// writes one ledger row per line with its running balance, and flips the
// status to Posted. Requires status Approved; a second Post of the same
// entry fails with ErrNotApproved.
func (pe *PostingEngine) Post(ctx context.Context, id EntryID) (*JournalEntry, error) {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	var posted *JournalEntry
	err := pe.Store.WithTx(ctx, func(tx Store) error {
		e, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if e.Status != StatusApproved {
			return ErrNotApproved
		}

		num, err := tx.NextEntryNumber(ctx)
		if err != nil {
			return err
		}

		// An entry may touch the same account on several lines; carry the
		// balance forward within the entry as well as across entries.
		balances := make(map[AccountID]decimal.Decimal)
		rows := make([]LedgerRow, 0, len(e.Lines))
		for _, line := range e.Lines {
			acct, err := tx.GetAccount(ctx, line.AccountID)
			if err != nil {
				return err
			}

			prev, ok := balances[acct.ID]
			if !ok {
				last, err := tx.LatestRow(ctx, acct.ID)
				if err != nil {
					return err
				}
				if last != nil {
					prev = last.Balance
				} else {
					prev = decimal.Zero
				}
			}

			seq, err := tx.NextSeq(ctx)
			if err != nil {
				return err
			}

			balance := prev.Add(acct.NormalBalance.Delta(line.Debit, line.Credit))
			balances[acct.ID] = balance
			rows = append(rows, LedgerRow{
				ID:        RowID(uuid.NewString()),
				Seq:       seq,
				EntryID:   e.ID,
				LineID:    line.ID,
				AccountID: acct.ID,
				Date:      e.Date,
				Debit:     line.Debit,
				Credit:    line.Credit,
				Balance:   balance,
			})
		}

		if err := tx.AppendRows(ctx, rows); err != nil {
			return err
		}

		postedAt := pe.now().UTC()
		e.Status = StatusPosted
		e.EntryNumber = num
		e.PostedAt = &postedAt
		if err := tx.UpdateEntry(ctx, *e); err != nil {
			return err
		}
		posted = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// DiscardDraft hard-deletes a draft. Approved and posted entries cannot
// be discarded, only voided.
func (pe *PostingEngine) DiscardDraft(ctx context.Context, id EntryID) error {
	e, err := pe.Store.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	return pe.Store.DeleteDraft(ctx, id)
}
