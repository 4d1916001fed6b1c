package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/warp/ledger-engine/ledger"
)

// Helpers (fixture, amt, debit, credit) are defined in posting_test.go.

func TestValidate_BalancedLines_ReturnsTotals(t *testing.T) {
	// GIVEN: Two balanced lines on active accounts
	// WHEN: Validating
	// THEN: Success with totals equal to the input sums

	ctx := context.Background()
	f := newFixture(t)

	totals, err := ledger.Validate(ctx, f.Registry, []ledger.LineInput{
		debit(f.Cash, "123.45"),
		credit(f.Revenue, "123.45"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Debit.Equal(amt("123.45")) || !totals.Credit.Equal(amt("123.45")) {
		t.Errorf("expected totals 123.45/123.45, got %s/%s", totals.Debit, totals.Credit)
	}
}

func TestValidate_SplitLines_ReturnsTotals(t *testing.T) {
	// GIVEN: One debit split against two credits
	// THEN: Totals reflect the sums

	ctx := context.Background()
	f := newFixture(t)

	totals, err := ledger.Validate(ctx, f.Registry, []ledger.LineInput{
		debit(f.Cash, "100"),
		credit(f.Revenue, "60"),
		credit(f.Revenue, "40"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Debit.Equal(amt("100")) || !totals.Credit.Equal(amt("100")) {
		t.Errorf("expected 100/100, got %s/%s", totals.Debit, totals.Credit)
	}
}

func TestValidate_TooFewLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := ledger.Validate(ctx, f.Registry, []ledger.LineInput{debit(f.Cash, "10")})
	if !errors.Is(err, ledger.ErrTooFewLines) {
		t.Errorf("expected ErrTooFewLines, got %v", err)
	}
	if !ledger.IsClientError(err) {
		t.Error("expected a client error")
	}
}

func TestValidate_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lines := []ledger.LineInput{
		debit(f.Cash, "10"),
		{AccountID: "missing", Credit: amt("10")},
	}
	_, err := ledger.Validate(ctx, f.Registry, lines)
	var ua *ledger.UnknownAccountError
	if !errors.As(err, &ua) {
		t.Fatalf("expected UnknownAccountError, got %v", err)
	}
	if ua.AccountID != "missing" || ua.LineIndex != 1 {
		t.Errorf("expected account 'missing' at line 1, got %q at %d", ua.AccountID, ua.LineIndex)
	}
}

func TestValidate_InactiveAccount(t *testing.T) {
	// GIVEN: A deactivated account referenced by a line
	// THEN: InactiveAccountError naming it

	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.Registry.Deactivate(ctx, f.Expense.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := ledger.Validate(ctx, f.Registry, []ledger.LineInput{
		debit(f.Expense, "10"),
		credit(f.Cash, "10"),
	})
	var ia *ledger.InactiveAccountError
	if !errors.As(err, &ia) {
		t.Fatalf("expected InactiveAccountError, got %v", err)
	}
	if ia.AccountID != f.Expense.ID {
		t.Errorf("expected account %s, got %s", f.Expense.ID, ia.AccountID)
	}
}

func TestValidate_MixedSidedLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name string
		line ledger.LineInput
	}{
		{"both sides", ledger.LineInput{AccountID: f.Cash.ID, Debit: amt("5"), Credit: amt("5")}},
		{"neither side", ledger.LineInput{AccountID: f.Cash.ID}},
		{"negative debit", ledger.LineInput{AccountID: f.Cash.ID, Debit: amt("-5")}},
		{"negative credit", ledger.LineInput{AccountID: f.Cash.ID, Credit: amt("-5")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.Validate(ctx, f.Registry, []ledger.LineInput{
				debit(f.Cash, "5"),
				tc.line,
			})
			var ms *ledger.MixedSidedLineError
			if !errors.As(err, &ms) {
				t.Fatalf("expected MixedSidedLineError, got %v", err)
			}
			if ms.LineIndex != 1 {
				t.Errorf("expected line index 1, got %d", ms.LineIndex)
			}
		})
	}
}

func TestValidate_Unbalanced_DiffIsExact(t *testing.T) {
	// GIVEN: Lines that differ by 0.01
	// THEN: UnbalancedError with Diff exactly 0.01 (no epsilon games)

	ctx := context.Background()
	f := newFixture(t)

	_, err := ledger.Validate(ctx, f.Registry, []ledger.LineInput{
		debit(f.Cash, "100.00"),
		credit(f.Revenue, "99.99"),
	})
	var ub *ledger.UnbalancedError
	if !errors.As(err, &ub) {
		t.Fatalf("expected UnbalancedError, got %v", err)
	}
	if !ub.Diff.Equal(amt("0.01")) {
		t.Errorf("expected diff 0.01, got %s", ub.Diff)
	}
}
