package model

import "time"

// SuggestionStatus is the lifecycle state of a duplicate suggestion.
// Merged and dismissed are terminal.
type SuggestionStatus string

const (
	StatusPending   SuggestionStatus = "pending"
	StatusMerged    SuggestionStatus = "merged"
	StatusDismissed SuggestionStatus = "dismissed"
)

// DuplicateSuggestion is a persisted claim that two records of the same
// entity type within one tenant are likely duplicates. Suggestions are
// never deleted; they remain as an audit trail after merge or dismiss.
type DuplicateSuggestion struct {
	ID              string           `json:"id"`
	TenantID        string           `json:"tenant_id"`
	EntityType      EntityType       `json:"entity_type"`
	Record1ID       string           `json:"record1_id"`
	Record2ID       string           `json:"record2_id"`
	SimilarityScore float64          `json:"similarity_score"`
	Record1Data     map[string]any   `json:"record1_data"`
	Record2Data     map[string]any   `json:"record2_data"`
	Status          SuggestionStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
}

// PairKey returns the canonical key for an unordered record pair.
// Both orderings of the same two ids produce the same key, which backs
// the uniqueness guarantee that a pair is never suggested twice while a
// pending suggestion for it exists.
func PairKey(id1, id2 string) string {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return id1 + ":" + id2
}

// OtherRecord returns the id of the suggestion's record that is not
// primaryID, and false if primaryID is neither of the pair.
func (s *DuplicateSuggestion) OtherRecord(primaryID string) (string, bool) {
	switch primaryID {
	case s.Record1ID:
		return s.Record2ID, true
	case s.Record2ID:
		return s.Record1ID, true
	default:
		return "", false
	}
}
