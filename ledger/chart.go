/*
chart.go - Seedable default chart of accounts

PURPOSE:
  A minimal standard chart covering what a school finance back-office
  needs on day one: cash and bank, fee receivables, payables, fee income,
  operating expenses, and equity. Seeding is idempotent by account code,
  so it is safe to run at every startup.
*/
package ledger

import "context"

// ChartEntry is one predefined chart-of-accounts row.
type ChartEntry struct {
	Code string
	Name string
	Type AccountType
}

// DefaultChart is the seedable standard chart. Codes follow the usual
// 1xxx assets / 2xxx liabilities / 3xxx equity / 4xxx income / 5xxx
// expenses convention.
var DefaultChart = []ChartEntry{
	// Assets (1xxx)
	{Code: "1000", Name: "Cash on Hand", Type: AccountAsset},
	{Code: "1010", Name: "Bank Account", Type: AccountAsset},
	{Code: "1100", Name: "Fees Receivable", Type: AccountAsset},
	{Code: "1200", Name: "Prepaid Expenses", Type: AccountAsset},

	// Liabilities (2xxx)
	{Code: "2000", Name: "Accounts Payable", Type: AccountLiability},
	{Code: "2100", Name: "Accrued Expenses", Type: AccountLiability},
	{Code: "2200", Name: "Deferred Fee Income", Type: AccountLiability},

	// Equity (3xxx)
	{Code: "3000", Name: "Retained Earnings", Type: AccountEquity},
	{Code: "3100", Name: "Capital", Type: AccountEquity},

	// Income (4xxx)
	{Code: "4000", Name: "Tuition Fee Income", Type: AccountIncome},
	{Code: "4100", Name: "Registration Fee Income", Type: AccountIncome},
	{Code: "4200", Name: "Other Income", Type: AccountIncome},

	// Expenses (5xxx)
	{Code: "5000", Name: "Salaries and Wages", Type: AccountExpense},
	{Code: "5100", Name: "Operating Expenses", Type: AccountExpense},
	{Code: "5200", Name: "Utilities", Type: AccountExpense},
	{Code: "5300", Name: "Depreciation", Type: AccountExpense},
}

// SeedChart creates any DefaultChart accounts that do not exist yet,
// matching by code. Existing accounts are left untouched.
func SeedChart(ctx context.Context, r *Registry) error {
	for _, entry := range DefaultChart {
		if _, err := r.GetAccountByCode(ctx, entry.Code); err == nil {
			continue
		} else if !IsNotFound(err) {
			return err
		}
		if _, err := r.CreateAccount(ctx, CreateAccountInput{
			Code: entry.Code,
			Name: entry.Name,
			Type: entry.Type,
		}); err != nil {
			return err
		}
	}
	return nil
}
