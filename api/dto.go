/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes for the HTTP surface, decoupled from the domain types.
  Amounts travel as decimal strings so clients never see binary floats;
  dates travel as YYYY-MM-DD.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/ledger-engine/ledger"
)

const dateFormat = "2006-01-02"

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	NormalBalance string `json:"normal_balance"`
	ParentID      string `json:"parent_id,omitempty"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateAccountRequest is the request to create an account.
type CreateAccountRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	NormalBalance string `json:"normal_balance,omitempty"`
	ParentID      string `json:"parent_id,omitempty"`
}

// SetParentRequest re-parents an account. An empty parent_id detaches it.
type SetParentRequest struct {
	ParentID string `json:"parent_id"`
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:            string(a.ID),
		Code:          a.Code,
		Name:          a.Name,
		Type:          string(a.Type),
		NormalBalance: string(a.NormalBalance),
		ParentID:      string(a.ParentID),
		Active:        a.Active,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// LineRequest is one proposed journal line. Exactly one of debit/credit
// must be a positive decimal string; the other may be omitted or "0".
type LineRequest struct {
	AccountID   string `json:"account_id"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
}

// CreateEntryRequest creates a draft journal entry.
type CreateEntryRequest struct {
	Date      string        `json:"date"`
	Narration string        `json:"narration"`
	EntryType string        `json:"entry_type,omitempty"`
	Lines     []LineRequest `json:"lines"`
}

// VoidEntryRequest voids a posted entry.
type VoidEntryRequest struct {
	Reason string `json:"reason"`
}

// LineDTO represents a journal line in API responses.
type LineDTO struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// EntryDTO represents a journal entry in API responses.
type EntryDTO struct {
	ID          string    `json:"id"`
	EntryNumber int64     `json:"entry_number"`
	Date        string    `json:"date"`
	Narration   string    `json:"narration"`
	EntryType   string    `json:"entry_type,omitempty"`
	Status      string    `json:"status"`
	TotalDebit  string    `json:"total_debit"`
	TotalCredit string    `json:"total_credit"`
	Lines       []LineDTO `json:"lines"`
	VoidedBy    string    `json:"voided_by,omitempty"`
	VoidOf      string    `json:"void_of,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
	PostedAt    string    `json:"posted_at,omitempty"`
}

func toEntryDTO(e ledger.JournalEntry) EntryDTO {
	dto := EntryDTO{
		ID:          string(e.ID),
		EntryNumber: e.EntryNumber,
		Date:        e.Date.Format(dateFormat),
		Narration:   e.Narration,
		EntryType:   e.EntryType,
		Status:      string(e.Status),
		TotalDebit:  e.TotalDebit.String(),
		TotalCredit: e.TotalCredit.String(),
		VoidedBy:    string(e.VoidedBy),
		VoidOf:      string(e.VoidOf),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.PostedAt != nil {
		dto.PostedAt = e.PostedAt.Format(time.RFC3339)
	}
	for _, l := range e.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:          string(l.ID),
			AccountID:   string(l.AccountID),
			Description: l.Description,
			Debit:       l.Debit.String(),
			Credit:      l.Credit.String(),
		})
	}
	return dto
}

// =============================================================================
// BALANCES / REPORTS
// =============================================================================

// BalanceDTO is a point-in-time account balance.
type BalanceDTO struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
	AsOf      string `json:"as_of"`
	Balance   string `json:"balance"`
}

// LedgerRowDTO is one posted movement in a statement.
type LedgerRowDTO struct {
	Seq     int64  `json:"seq"`
	EntryID string `json:"entry_id"`
	Date    string `json:"date"`
	Debit   string `json:"debit"`
	Credit  string `json:"credit"`
	Balance string `json:"balance"`
}

// StatementDTO is a ranged ledger read with period totals.
type StatementDTO struct {
	AccountID      string         `json:"account_id"`
	Code           string         `json:"code"`
	From           string         `json:"from"`
	To             string         `json:"to"`
	OpeningBalance string         `json:"opening_balance"`
	Rows           []LedgerRowDTO `json:"rows"`
	PeriodDebit    string         `json:"period_debit"`
	PeriodCredit   string         `json:"period_credit"`
	ClosingBalance string         `json:"closing_balance"`
}

func toStatementDTO(st *ledger.Statement) StatementDTO {
	dto := StatementDTO{
		AccountID:      string(st.Account.ID),
		Code:           st.Account.Code,
		From:           st.From.Format(dateFormat),
		To:             st.To.Format(dateFormat),
		OpeningBalance: st.OpeningBalance.String(),
		PeriodDebit:    st.PeriodDebit.String(),
		PeriodCredit:   st.PeriodCredit.String(),
		ClosingBalance: st.ClosingBalance.String(),
	}
	for _, r := range st.Rows {
		dto.Rows = append(dto.Rows, LedgerRowDTO{
			Seq:     r.Seq,
			EntryID: string(r.EntryID),
			Date:    r.Date.Format(dateFormat),
			Debit:   r.Debit.String(),
			Credit:  r.Credit.String(),
			Balance: r.Balance.String(),
		})
	}
	return dto
}

// TrialBalanceLineDTO is one account line of the trial balance.
type TrialBalanceLineDTO struct {
	AccountID     string `json:"account_id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	NormalBalance string `json:"normal_balance"`
	Balance       string `json:"balance"`
}

// TrialBalanceDTO is the full trial balance report.
type TrialBalanceDTO struct {
	AsOf        string                `json:"as_of"`
	Accounts    []TrialBalanceLineDTO `json:"accounts"`
	TotalDebit  string                `json:"total_debit"`
	TotalCredit string                `json:"total_credit"`
	Balanced    bool                  `json:"balanced"`
}

func toTrialBalanceDTO(r *ledger.TrialBalanceReport) TrialBalanceDTO {
	dto := TrialBalanceDTO{
		AsOf:        r.AsOf.Format(dateFormat),
		TotalDebit:  r.TotalDebit.String(),
		TotalCredit: r.TotalCredit.String(),
		Balanced:    r.Balanced(),
	}
	for _, ab := range r.Accounts {
		dto.Accounts = append(dto.Accounts, TrialBalanceLineDTO{
			AccountID:     string(ab.Account.ID),
			Code:          ab.Account.Code,
			Name:          ab.Account.Name,
			Type:          string(ab.Account.Type),
			NormalBalance: string(ab.Account.NormalBalance),
			Balance:       ab.Balance.String(),
		})
	}
	return dto
}

// ErrorDTO is the uniform error body.
type ErrorDTO struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
