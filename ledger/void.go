/*
void.go - Compensating reversal entries

PURPOSE:
  Voiding never deletes or mutates posted rows. It synthesizes a new
  entry whose lines mirror the original (debit and credit swapped) and
  pushes it through the normal approve/post path, so the reversal gets
  the same atomic balance discipline as any other entry.

SERIALIZATION:
  Void holds a service-level mutex across the check-then-post sequence.
  Without it, two concurrent voids of the same entry can both pass the
  already-voided checks before either reversal posts.

DOUBLE-VOID DETECTION:
  The authoritative check is a posted-reversal lookup by VoidOf, not the
  original's VoidedBy back-reference. If the process dies between posting
  the reversal and back-linking the original, a retried void still fails
  with ErrAlreadyVoided instead of reversing twice. Only a posted
  reversal counts: a failed attempt discards its draft, so the original
  stays voidable.

SEE ALSO:
  - posting.go: The approve/post path reused here
*/
package ledger

import (
	"context"
	"fmt"
	"sync"
)

// VoidService produces compensating entries for posted ones.
type VoidService struct {
	Engine *PostingEngine

	// mu serializes Void: the already-voided checks and the reversal
	// post must not interleave.
	mu sync.Mutex
}

// NewVoidService creates a void service over the posting engine.
func NewVoidService(engine *PostingEngine) *VoidService {
	return &VoidService{Engine: engine}
}

// Void reverses a posted entry. It returns the posted compensating entry.
// Fails with ErrNotPosted unless the target is posted and with
// ErrAlreadyVoided when a posted reversal already references it.
func (vs *VoidService) Void(ctx context.Context, id EntryID, reason string) (*JournalEntry, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	store := vs.Engine.Store

	orig, err := store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if orig.Status == StatusVoid || orig.VoidedBy != "" {
		return nil, ErrAlreadyVoided
	}
	if orig.Status != StatusPosted {
		return nil, ErrNotPosted
	}
	if existing, err := store.ReversalOf(ctx, id); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyVoided
	}

	narration := fmt.Sprintf("Reversal of entry #%d: %s", orig.EntryNumber, reason)
	lines := make([]LineInput, len(orig.Lines))
	for i, l := range orig.Lines {
		lines[i] = LineInput{
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Credit,
			Credit:      l.Debit,
		}
	}

	rev, err := vs.Engine.CreateDraft(ctx, vs.Engine.now(), narration, "reversal", lines)
	if err != nil {
		return nil, err
	}
	rev.VoidOf = orig.ID
	if err := store.UpdateEntry(ctx, *rev); err != nil {
		return nil, err
	}

	if _, err := vs.Engine.Approve(ctx, rev.ID); err != nil {
		// Discard the failed draft; the original must stay voidable.
		if derr := vs.Engine.DiscardDraft(ctx, rev.ID); derr != nil {
			return nil, derr
		}
		return nil, err
	}
	posted, err := vs.Engine.Post(ctx, rev.ID)
	if err != nil {
		return nil, err
	}

	orig.Status = StatusVoid
	orig.VoidedBy = posted.ID
	if err := store.UpdateEntry(ctx, *orig); err != nil {
		return nil, err
	}
	return posted, nil
}
