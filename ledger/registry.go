/*
registry.go - Chart of accounts registry

PURPOSE:
  Creation, lookup, and lifecycle of accounts. The registry is the leaf
  dependency of everything else: the validator resolves accounts through
  it and the posting engine reads normal-balance conventions from it.

POLICIES:
  Two behaviors are configuration, not hidden rules:

  - AllowCrossTypeParent: by default a child must share its parent's
    account type; rollup charts that mix types can opt in.
  - DeactivateActivityWindow: by default any account can be deactivated
    (rows keep their history either way). A non-zero window blocks
    deactivation with ErrInUse when the account has rows inside it.

SEE ALSO:
  - chart.go: Seedable default chart
  - validate.go: Resolves accounts via LookupAccount
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RegistryPolicy holds the configurable registry behaviors.
type RegistryPolicy struct {
	AllowCrossTypeParent     bool
	DeactivateActivityWindow time.Duration
}

// Registry manages the chart of accounts.
type Registry struct {
	Store  Store
	Policy RegistryPolicy

	now func() time.Time
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store Store, policy RegistryPolicy) *Registry {
	return &Registry{Store: store, Policy: policy, now: time.Now}
}

// CreateAccountInput is the caller-supplied shape of a new account.
// NormalBalance is optional; when empty the type's default applies.
type CreateAccountInput struct {
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	ParentID      AccountID
}

// CreateAccount creates an account. Fails with ErrDuplicateCode when the
// code is taken and with ErrCycle when the parent is incompatible.
func (r *Registry) CreateAccount(ctx context.Context, in CreateAccountInput) (*Account, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: account code required", ErrValidation)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid account type %q", ErrValidation, in.Type)
	}

	nb := in.NormalBalance
	if nb == "" {
		nb = DefaultNormalBalance(in.Type)
	} else if !nb.Valid() {
		return nil, fmt.Errorf("%w: invalid normal balance %q", ErrValidation, nb)
	}

	a := Account{
		ID:            AccountID(uuid.NewString()),
		Code:          code,
		Name:          strings.TrimSpace(in.Name),
		Type:          in.Type,
		NormalBalance: nb,
		Active:        true,
		CreatedAt:     r.now().UTC(),
	}

	if in.ParentID != "" {
		parent, err := r.Store.GetAccount(ctx, in.ParentID)
		if err != nil {
			return nil, err
		}
		if err := r.checkParent(a, parent); err != nil {
			return nil, err
		}
		a.ParentID = parent.ID
	}

	if err := r.Store.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccount returns an account by id.
func (r *Registry) GetAccount(ctx context.Context, id AccountID) (*Account, error) {
	return r.Store.GetAccount(ctx, id)
}

// GetAccountByCode returns an account by its unique code.
func (r *Registry) GetAccountByCode(ctx context.Context, code string) (*Account, error) {
	return r.Store.GetAccountByCode(ctx, code)
}

// ListAccounts returns accounts matching the filter, ordered by code.
func (r *Registry) ListAccounts(ctx context.Context, f AccountFilter) ([]Account, error) {
	return r.Store.ListAccounts(ctx, f)
}

// SetParent re-parents an account. Fails with ErrCycle if the assignment
// would create a cycle or an incompatible cross-type rollup.
func (r *Registry) SetParent(ctx context.Context, id, parentID AccountID) (*Account, error) {
	a, err := r.Store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if parentID == "" {
		a.ParentID = ""
		if err := r.Store.UpdateAccount(ctx, *a); err != nil {
			return nil, err
		}
		return a, nil
	}

	parent, err := r.Store.GetAccount(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if err := r.checkParent(*a, parent); err != nil {
		return nil, err
	}

	// Walk up from the proposed parent; reaching a again means a cycle.
	for cur := parent; cur != nil; {
		if cur.ID == a.ID {
			return nil, ErrCycle
		}
		if cur.ParentID == "" {
			break
		}
		next, err := r.Store.GetAccount(ctx, cur.ParentID)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	a.ParentID = parent.ID
	if err := r.Store.UpdateAccount(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Registry) checkParent(a Account, parent *Account) error {
	if parent.ID == a.ID {
		return ErrCycle
	}
	if !r.Policy.AllowCrossTypeParent && parent.Type != a.Type {
		return ErrCycle
	}
	return nil
}

// Deactivate soft-retires an account. Fails with ErrInUse when the policy
// window is set and the account has ledger rows inside it. Deactivation is
// idempotent.
func (r *Registry) Deactivate(ctx context.Context, id AccountID) (*Account, error) {
	a, err := r.Store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return a, nil
	}

	if w := r.Policy.DeactivateActivityWindow; w > 0 {
		since := Day(r.now().Add(-w))
		busy, err := r.Store.HasRowsSince(ctx, id, since)
		if err != nil {
			return nil, err
		}
		if busy {
			return nil, ErrInUse
		}
	}

	a.Active = false
	if err := r.Store.UpdateAccount(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

// Reactivate clears a deactivation. Idempotent.
func (r *Registry) Reactivate(ctx context.Context, id AccountID) (*Account, error) {
	a, err := r.Store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Active {
		return a, nil
	}
	a.Active = true
	if err := r.Store.UpdateAccount(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

// LookupAccount implements AccountLookup for the validator.
func (r *Registry) LookupAccount(ctx context.Context, id AccountID) (*Account, error) {
	return r.Store.GetAccount(ctx, id)
}
