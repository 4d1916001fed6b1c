package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// Helpers (fixture, amt, debit, credit, jan) are defined in posting_test.go.

func TestVoid_RoundTrip_RestoresBalances(t *testing.T) {
	// GIVEN: Cash at 800 from two entries (500 + 300)
	// WHEN: Voiding the 500 entry
	// THEN: Cash reads 300, per the worked example in the contract

	ctx := context.Background()
	f := newFixture(t)

	e1 := f.postEntry(t, jan(10), debit(f.Cash, "500"), credit(f.Revenue, "500"))
	f.postEntry(t, jan(11), debit(f.Cash, "300"), credit(f.Revenue, "300"))

	rev, err := f.Voids.Void(ctx, e1.ID, "duplicate capture")
	if err != nil {
		t.Fatalf("void: %v", err)
	}

	if rev.Status != ledger.StatusPosted {
		t.Errorf("expected reversal posted, got %s", rev.Status)
	}
	if rev.VoidOf != e1.ID {
		t.Errorf("expected reversal to reference %s, got %s", e1.ID, rev.VoidOf)
	}
	if rev.EntryType != "reversal" {
		t.Errorf("expected entry type reversal, got %q", rev.EntryType)
	}

	balance, err := f.Balances.BalanceAsOf(ctx, f.Cash.ID, time.Now())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(amt("300")) {
		t.Errorf("expected 300 after void, got %s", balance)
	}
}

func TestVoid_MirrorsLinesExactly(t *testing.T) {
	// GIVEN: A three-line posted entry
	// WHEN: Voiding it
	// THEN: The reversal has debit/credit swapped line for line

	ctx := context.Background()
	f := newFixture(t)

	orig := f.postEntry(t, jan(10),
		debit(f.Cash, "70"),
		debit(f.Expense, "30"),
		credit(f.Revenue, "100"),
	)

	rev, err := f.Voids.Void(ctx, orig.ID, "mis-keyed")
	if err != nil {
		t.Fatalf("void: %v", err)
	}

	if len(rev.Lines) != len(orig.Lines) {
		t.Fatalf("expected %d lines, got %d", len(orig.Lines), len(rev.Lines))
	}
	for i, ol := range orig.Lines {
		rl := rev.Lines[i]
		if rl.AccountID != ol.AccountID {
			t.Errorf("line %d: account mismatch", i)
		}
		if !rl.Debit.Equal(ol.Credit) || !rl.Credit.Equal(ol.Debit) {
			t.Errorf("line %d: expected mirror of %s/%s, got %s/%s",
				i, ol.Debit, ol.Credit, rl.Debit, rl.Credit)
		}
	}
}

func TestVoid_MarksOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	orig := f.postEntry(t, jan(10), debit(f.Cash, "500"), credit(f.Revenue, "500"))
	rev, err := f.Voids.Void(ctx, orig.ID, "test")
	if err != nil {
		t.Fatalf("void: %v", err)
	}

	got, err := f.Engine.GetEntry(ctx, orig.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.Status != ledger.StatusVoid {
		t.Errorf("expected original status void, got %s", got.Status)
	}
	if got.VoidedBy != rev.ID {
		t.Errorf("expected voided_by %s, got %s", rev.ID, got.VoidedBy)
	}
}

func TestVoid_Twice_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e := f.postEntry(t, jan(10), debit(f.Cash, "500"), credit(f.Revenue, "500"))
	if _, err := f.Voids.Void(ctx, e.ID, "first"); err != nil {
		t.Fatalf("first void: %v", err)
	}
	if _, err := f.Voids.Void(ctx, e.ID, "second"); !errors.Is(err, ledger.ErrAlreadyVoided) {
		t.Errorf("expected ErrAlreadyVoided, got %v", err)
	}
}

func TestVoid_ConcurrentVoids_SingleReversal(t *testing.T) {
	// GIVEN: One posted Cash 500 entry
	// WHEN: Several goroutines void it at once
	// THEN: Exactly one reversal posts and Cash returns to zero

	ctx := context.Background()
	f := newFixture(t)
	e := f.postEntry(t, jan(10), debit(f.Cash, "500"), credit(f.Revenue, "500"))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.Voids.Void(ctx, e.ID, "race")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ledger.ErrAlreadyVoided):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one void to succeed, got %d", successes)
	}

	balance, err := f.Balances.BalanceAsOf(ctx, f.Cash.ID, time.Now())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("expected zero after a single reversal, got %s", balance)
	}

	reversals, err := f.Engine.ListEntries(ctx, ledger.EntryFilter{Status: ledger.StatusPosted})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	count := 0
	for _, r := range reversals {
		if r.VoidOf == e.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected 1 posted reversal, got %d", count)
	}
}

func TestVoid_FailedAttemptLeavesEntryVoidable(t *testing.T) {
	// GIVEN: A posted entry whose Cash account is later deactivated
	// WHEN: A void fails validation, the account is reactivated, and the
	//       void is retried
	// THEN: The retry succeeds; the failed attempt left no reversal draft

	ctx := context.Background()
	f := newFixture(t)
	e := f.postEntry(t, jan(10), debit(f.Cash, "500"), credit(f.Revenue, "500"))

	if _, err := f.Registry.Deactivate(ctx, f.Cash.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.Voids.Void(ctx, e.ID, "while inactive")
	var inactive *ledger.InactiveAccountError
	if !errors.As(err, &inactive) {
		t.Fatalf("expected InactiveAccountError, got %v", err)
	}

	drafts, err := f.Engine.ListEntries(ctx, ledger.EntryFilter{Status: ledger.StatusDraft})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("expected the failed reversal draft discarded, found %d drafts", len(drafts))
	}

	if _, err := f.Registry.Reactivate(ctx, f.Cash.ID); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	rev, err := f.Voids.Void(ctx, e.ID, "after reactivation")
	if err != nil {
		t.Fatalf("retried void: %v", err)
	}
	if rev.Status != ledger.StatusPosted {
		t.Errorf("expected reversal posted, got %s", rev.Status)
	}

	balance, err := f.Balances.BalanceAsOf(ctx, f.Cash.ID, time.Now())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("expected zero after void, got %s", balance)
	}
}

func TestVoid_NonPosted_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.Engine.CreateDraft(ctx, jan(5), "draft", "general",
		[]ledger.LineInput{debit(f.Cash, "10"), credit(f.Revenue, "10")})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := f.Voids.Void(ctx, draft.ID, "nope"); !errors.Is(err, ledger.ErrNotPosted) {
		t.Errorf("expected ErrNotPosted for draft, got %v", err)
	}

	if _, err := f.Engine.Approve(ctx, draft.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.Voids.Void(ctx, draft.ID, "nope"); !errors.Is(err, ledger.ErrNotPosted) {
		t.Errorf("expected ErrNotPosted for approved, got %v", err)
	}
}
