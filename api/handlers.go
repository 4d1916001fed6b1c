/*
handlers.go - HTTP handlers for the ledger engine

PURPOSE:
  Exposes the posting engine over REST. Handlers parse and validate the
  HTTP shape, delegate to the domain services, and map the error
  taxonomy onto status codes.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                List (filter: type, active)
    POST   /api/accounts                Create
    GET    /api/accounts/{id}           Get
    PUT    /api/accounts/{id}/parent    Re-parent
    POST   /api/accounts/{id}/deactivate  Soft-retire
    POST   /api/accounts/{id}/reactivate  Undo a deactivation
    GET    /api/accounts/{id}/balance   Balance as of a date
    GET    /api/accounts/{id}/ledger    Statement over a date range

  Journal entries:
    GET    /api/entries                 List (filter: status, from, to)
    POST   /api/entries                 Create draft
    GET    /api/entries/{id}            Get with lines
    DELETE /api/entries/{id}            Discard draft
    POST   /api/entries/{id}/approve    Validate and approve
    POST   /api/entries/{id}/post       Post to the ledger
    POST   /api/entries/{id}/void       Reverse with a compensating entry

  Reports:
    GET    /api/reports/trial-balance   Trial balance as of a date

ERROR HANDLING:
  - 400: malformed JSON, bad dates/amounts
  - 404: unknown account or entry
  - 409: state-machine misuse (not approved, already voided, ...)
  - 422: journal validation failures (unbalanced, mixed-sided, ...)
  - 500: storage errors

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// Handler holds the domain services the HTTP surface delegates to.
type Handler struct {
	Registry *ledger.Registry
	Engine   *ledger.PostingEngine
	Balances *ledger.BalanceService
	Voids    *ledger.VoidService
}

// NewHandler wires a handler over a store and registry policy.
func NewHandler(store ledger.Store, policy ledger.RegistryPolicy) *Handler {
	registry := ledger.NewRegistry(store, policy)
	engine := ledger.NewPostingEngine(store, registry)
	return &Handler{
		Registry: registry,
		Engine:   engine,
		Balances: ledger.NewBalanceService(store),
		Voids:    ledger.NewVoidService(engine),
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter := ledger.AccountFilter{
		Type:       ledger.AccountType(r.URL.Query().Get("type")),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	accounts, err := h.Registry.ListAccounts(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	a, err := h.Registry.CreateAccount(r.Context(), ledger.CreateAccountInput{
		Code:          req.Code,
		Name:          req.Name,
		Type:          ledger.AccountType(req.Type),
		NormalBalance: ledger.NormalBalance(req.NormalBalance),
		ParentID:      ledger.AccountID(req.ParentID),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*a))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.Registry.GetAccount(r.Context(), ledger.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*a))
}

func (h *Handler) SetAccountParent(w http.ResponseWriter, r *http.Request) {
	var req SetParentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	a, err := h.Registry.SetParent(r.Context(),
		ledger.AccountID(chi.URLParam(r, "id")), ledger.AccountID(req.ParentID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*a))
}

func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.Registry.Deactivate(r.Context(), ledger.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*a))
}

func (h *Handler) ReactivateAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.Registry.Reactivate(r.Context(), ledger.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*a))
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))
	asOf, ok := parseDateParam(w, r, "as_of", time.Now())
	if !ok {
		return
	}

	balance, err := h.Balances.BalanceAsOf(r.Context(), id, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a, err := h.Registry.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		AccountID: string(id),
		Code:      a.Code,
		AsOf:      ledger.Day(asOf).Format(dateFormat),
		Balance:   balance.String(),
	})
}

func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))
	from, ok := parseDateParam(w, r, "from", time.Time{})
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to", time.Now())
	if !ok {
		return
	}
	if from.IsZero() {
		writeError(w, http.StatusBadRequest, "from is required (YYYY-MM-DD)", nil)
		return
	}

	st, err := h.Balances.RangeLedger(r.Context(), id, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// =============================================================================
// JOURNAL ENTRY HANDLERS
// =============================================================================

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter := ledger.EntryFilter{Status: ledger.EntryStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := time.ParseInLocation(dateFormat, v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		filter.From = d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := time.ParseInLocation(dateFormat, v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		filter.To = d
	}

	entries, err := h.Engine.ListEntries(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.ParseInLocation(dateFormat, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	lines := make([]ledger.LineInput, 0, len(req.Lines))
	for _, lr := range req.Lines {
		debit, err := parseAmount(lr.Debit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid debit amount on line", err)
			return
		}
		credit, err := parseAmount(lr.Credit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid credit amount on line", err)
			return
		}
		lines = append(lines, ledger.LineInput{
			AccountID:   ledger.AccountID(lr.AccountID),
			Description: lr.Description,
			Debit:       debit,
			Credit:      credit,
		})
	}

	e, err := h.Engine.CreateDraft(r.Context(), date, req.Narration, req.EntryType, lines)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*e))
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Engine.GetEntry(r.Context(), ledger.EntryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*e))
}

func (h *Handler) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Engine.Approve(r.Context(), ledger.EntryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*e))
}

func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Engine.Post(r.Context(), ledger.EntryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*e))
}

func (h *Handler) VoidEntry(w http.ResponseWriter, r *http.Request) {
	var req VoidEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rev, err := h.Voids.Void(r.Context(), ledger.EntryID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*rev))
}

func (h *Handler) DiscardEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DiscardDraft(r.Context(), ledger.EntryID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) GetTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseDateParam(w, r, "as_of", time.Now())
	if !ok {
		return
	}
	report, err := h.Balances.TrialBalance(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrialBalanceDTO(report))
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDateParam(w http.ResponseWriter, r *http.Request, name string, fallback time.Time) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, true
	}
	d, err := time.ParseInLocation(dateFormat, v, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name+" date (use YYYY-MM-DD)", err)
		return time.Time{}, false
	}
	return d, true
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := ErrorDTO{Error: msg}
	if err != nil {
		body.Detail = err.Error()
	}
	writeJSON(w, status, body)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
