package dedupe

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-dedupe/internal/model"
)

// fakeMergeStore is an in-memory MergeStore for merger tests.
type fakeMergeStore struct {
	suggestion *model.DuplicateSuggestion
	execErr    error

	mergedPrimary string
	mergedLoser   string
	execCalls     int
}

func (f *fakeMergeStore) GetSuggestion(_ context.Context, tenantID, suggestionID string) (*model.DuplicateSuggestion, error) {
	if f.suggestion == nil || f.suggestion.TenantID != tenantID || f.suggestion.ID != suggestionID {
		return nil, eris.Wrapf(ErrNotFound, "suggestion %s", suggestionID)
	}
	return f.suggestion, nil
}

func (f *fakeMergeStore) ExecuteMerge(_ context.Context, _ *model.DuplicateSuggestion, primaryID, loserID string) error {
	f.execCalls++
	if f.execErr != nil {
		return f.execErr
	}
	f.mergedPrimary = primaryID
	f.mergedLoser = loserID
	return nil
}

func pendingSuggestion() *model.DuplicateSuggestion {
	return &model.DuplicateSuggestion{
		ID:         "sugg-1",
		TenantID:   "t1",
		EntityType: model.EntityOrganization,
		Record1ID:  "org-a",
		Record2ID:  "org-b",
		Status:     model.StatusPending,
	}
}

func TestMerge_Success(t *testing.T) {
	store := &fakeMergeStore{suggestion: pendingSuggestion()}
	m := NewMerger(store)

	err := m.Merge(context.Background(), "t1", "sugg-1", "org-b")
	require.NoError(t, err)
	assert.Equal(t, "org-b", store.mergedPrimary)
	assert.Equal(t, "org-a", store.mergedLoser)
}

func TestMerge_SuggestionNotFound(t *testing.T) {
	store := &fakeMergeStore{suggestion: pendingSuggestion()}
	m := NewMerger(store)

	err := m.Merge(context.Background(), "t1", "sugg-missing", "org-a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.execCalls)
}

func TestMerge_WrongTenant(t *testing.T) {
	store := &fakeMergeStore{suggestion: pendingSuggestion()}
	m := NewMerger(store)

	err := m.Merge(context.Background(), "t2", "sugg-1", "org-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMerge_NotPending(t *testing.T) {
	for _, status := range []model.SuggestionStatus{model.StatusMerged, model.StatusDismissed} {
		s := pendingSuggestion()
		s.Status = status
		store := &fakeMergeStore{suggestion: s}
		m := NewMerger(store)

		err := m.Merge(context.Background(), "t1", "sugg-1", "org-a")
		assert.ErrorIs(t, err, ErrInvalidState, "status %s", status)
		assert.Zero(t, store.execCalls)
	}
}

func TestMerge_PrimaryNotInPair(t *testing.T) {
	store := &fakeMergeStore{suggestion: pendingSuggestion()}
	m := NewMerger(store)

	err := m.Merge(context.Background(), "t1", "sugg-1", "org-other")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, store.execCalls)
}

func TestMerge_MissingIDs(t *testing.T) {
	m := NewMerger(&fakeMergeStore{})

	assert.ErrorIs(t, m.Merge(context.Background(), "", "sugg-1", "org-a"), ErrInvalidArgument)
	assert.ErrorIs(t, m.Merge(context.Background(), "t1", "", "org-a"), ErrInvalidArgument)
	assert.ErrorIs(t, m.Merge(context.Background(), "t1", "sugg-1", ""), ErrInvalidArgument)
}

func TestMerge_ExecuteFailurePropagates(t *testing.T) {
	store := &fakeMergeStore{
		suggestion: pendingSuggestion(),
		execErr:    eris.New("deadlock detected"),
	}
	m := NewMerger(store)

	err := m.Merge(context.Background(), "t1", "sugg-1", "org-a")
	assert.ErrorContains(t, err, "deadlock detected")
}
