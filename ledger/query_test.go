package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// Helpers (fixture, amt, debit, credit, jan) are defined in posting_test.go.

func TestBalanceAsOf_DateCutoff(t *testing.T) {
	// GIVEN: Entries on Jan 10 and Jan 20
	// WHEN: Reading the balance at various dates
	// THEN: Only rows dated on or before the cutoff count

	ctx := context.Background()
	f := newFixture(t)

	f.postEntry(t, jan(10), debit(f.Cash, "500"), credit(f.Revenue, "500"))
	f.postEntry(t, jan(20), debit(f.Cash, "300"), credit(f.Revenue, "300"))

	cases := []struct {
		asOf time.Time
		want string
	}{
		{jan(9), "0"},
		{jan(10), "500"},
		{jan(15), "500"},
		{jan(20), "800"},
		{jan(31), "800"},
	}
	for _, tc := range cases {
		got, err := f.Balances.BalanceAsOf(ctx, f.Cash.ID, tc.asOf)
		if err != nil {
			t.Fatalf("balance as of %s: %v", tc.asOf.Format("2006-01-02"), err)
		}
		if !got.Equal(amt(tc.want)) {
			t.Errorf("as of %s: expected %s, got %s", tc.asOf.Format("2006-01-02"), tc.want, got)
		}
	}
}

func TestBalanceAsOf_SameDateTieBrokenBySequence(t *testing.T) {
	// GIVEN: Two entries posted on the same transaction date
	// THEN: The later posting sequence wins

	ctx := context.Background()
	f := newFixture(t)

	f.postEntry(t, jan(10), debit(f.Cash, "500"), credit(f.Revenue, "500"))
	f.postEntry(t, jan(10), debit(f.Cash, "300"), credit(f.Revenue, "300"))

	got, err := f.Balances.BalanceAsOf(ctx, f.Cash.ID, jan(10))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !got.Equal(amt("800")) {
		t.Errorf("expected 800, got %s", got)
	}
}

func TestBalanceAsOf_NoRows_IsZeroNotError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	got, err := f.Balances.BalanceAsOf(ctx, f.Cash.ID, jan(31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero, got %s", got)
	}
}

func TestBalanceAsOf_UnknownAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.Balances.BalanceAsOf(ctx, "nope", jan(31)); !ledger.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRangeLedger_OrderingAndTotals(t *testing.T) {
	// GIVEN: Cash movements on Jan 5, 10, 20, 25
	// WHEN: Reading the Jan 10..20 statement
	// THEN: Opening carries the Jan 5 balance, rows in (date, seq) order,
	//       period totals and closing balance line up

	ctx := context.Background()
	f := newFixture(t)

	f.postEntry(t, jan(5), debit(f.Cash, "100"), credit(f.Revenue, "100"))
	f.postEntry(t, jan(10), debit(f.Cash, "200"), credit(f.Revenue, "200"))
	f.postEntry(t, jan(20), credit(f.Cash, "50"), debit(f.Expense, "50"))
	f.postEntry(t, jan(25), debit(f.Cash, "999"), credit(f.Revenue, "999"))

	st, err := f.Balances.RangeLedger(ctx, f.Cash.ID, jan(10), jan(20))
	if err != nil {
		t.Fatalf("range ledger: %v", err)
	}

	if !st.OpeningBalance.Equal(amt("100")) {
		t.Errorf("expected opening 100, got %s", st.OpeningBalance)
	}
	if len(st.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(st.Rows))
	}
	for i := 1; i < len(st.Rows); i++ {
		prev, cur := st.Rows[i-1], st.Rows[i]
		if cur.Date.Before(prev.Date) || (cur.Date.Equal(prev.Date) && cur.Seq < prev.Seq) {
			t.Error("rows out of (date, seq) order")
		}
	}
	if !st.PeriodDebit.Equal(amt("200")) || !st.PeriodCredit.Equal(amt("50")) {
		t.Errorf("expected period 200/50, got %s/%s", st.PeriodDebit, st.PeriodCredit)
	}
	if !st.ClosingBalance.Equal(amt("250")) {
		t.Errorf("expected closing 250, got %s", st.ClosingBalance)
	}
}

func TestTrialBalance_IdentityHolds(t *testing.T) {
	// GIVEN: A handful of posted and voided entries across account types
	// WHEN: Computing the trial balance
	// THEN: Sum of debit-normal balances equals sum of credit-normal ones

	ctx := context.Background()
	f := newFixture(t)
	payable := f.account(t, "2000", "Accounts Payable", ledger.AccountLiability)

	f.postEntry(t, jan(5), debit(f.Cash, "1000"), credit(f.Revenue, "1000"))
	f.postEntry(t, jan(6), debit(f.Expense, "400"), credit(payable, "400"))
	voided := f.postEntry(t, jan(7), debit(f.Cash, "250"), credit(f.Revenue, "250"))
	if _, err := f.Voids.Void(ctx, voided.ID, "entered twice"); err != nil {
		t.Fatalf("void: %v", err)
	}

	report, err := f.Balances.TrialBalance(ctx, time.Now())
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if !report.Balanced() {
		t.Errorf("trial balance out of balance: debit %s, credit %s",
			report.TotalDebit, report.TotalCredit)
	}
	if !report.TotalDebit.Equal(amt("1400")) {
		t.Errorf("expected totals 1400, got %s", report.TotalDebit)
	}
	if len(report.Accounts) != 4 {
		t.Errorf("expected 4 active accounts, got %d", len(report.Accounts))
	}
}
