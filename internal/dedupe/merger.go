package dedupe

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-dedupe/internal/model"
)

// MergeStore is the persistence surface the merge executor depends on.
// ExecuteMerge must run the entire re-pointing, the loser deletion, and
// the suggestion status flip in one transaction; on any failure it
// rolls the whole merge back and leaves the suggestion pending.
type MergeStore interface {
	GetSuggestion(ctx context.Context, tenantID, suggestionID string) (*model.DuplicateSuggestion, error)
	ExecuteMerge(ctx context.Context, s *model.DuplicateSuggestion, primaryID, loserID string) error
}

// Merger validates and executes record merges. A merge is irreversible:
// the caller is expected to have confirmed the operation upstream.
type Merger struct {
	store MergeStore
}

// NewMerger creates a Merger.
func NewMerger(store MergeStore) *Merger {
	return &Merger{store: store}
}

// Merge absorbs the suggestion's losing record into primaryID.
// Fails with ErrNotFound if the suggestion (or either record) is gone,
// ErrInvalidState if the suggestion is not pending, and
// ErrInvalidArgument if primaryID is not one of the suggestion's two
// record ids. On failure the record store is unchanged and the
// suggestion remains pending, so the caller may retry.
func (m *Merger) Merge(ctx context.Context, tenantID, suggestionID, primaryID string) error {
	if tenantID == "" || suggestionID == "" || primaryID == "" {
		return eris.Wrap(ErrInvalidArgument, "merge: tenant, suggestion, and primary ids are required")
	}

	s, err := m.store.GetSuggestion(ctx, tenantID, suggestionID)
	if err != nil {
		return err
	}
	if s.Status != model.StatusPending {
		return eris.Wrapf(ErrInvalidState, "merge: suggestion %s is %s", suggestionID, s.Status)
	}

	loserID, ok := s.OtherRecord(primaryID)
	if !ok {
		return eris.Wrapf(ErrInvalidArgument, "merge: %s is not a record of suggestion %s", primaryID, suggestionID)
	}

	if err := m.store.ExecuteMerge(ctx, s, primaryID, loserID); err != nil {
		return err
	}

	zap.L().Info("merge complete",
		zap.String("tenant_id", tenantID),
		zap.String("suggestion_id", suggestionID),
		zap.String("entity_type", string(s.EntityType)),
		zap.String("primary_id", primaryID),
		zap.String("loser_id", loserID),
	)
	return nil
}
