// Package store persists CRM records and duplicate suggestions. Two
// implementations exist: PostgresStore (pgx) for production and
// SQLiteStore (modernc.org/sqlite) for local use. Every query is
// scoped by tenant id; cross-tenant reads or merges must be impossible
// at this layer regardless of what the caller passes.
package store

import (
	"context"

	"github.com/sells-group/crm-dedupe/internal/model"
)

// SuggestionFilter specifies criteria for listing suggestions.
// TenantID is mandatory.
type SuggestionFilter struct {
	TenantID   string                 `json:"tenant_id"`
	EntityType model.EntityType       `json:"entity_type,omitempty"`
	Status     model.SuggestionStatus `json:"status,omitempty"`
	LiveOnly   bool                   `json:"live_only,omitempty"`
	Limit      int                    `json:"limit,omitempty"`
	Offset     int                    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the deduplication engine.
type Store interface {
	// Records
	ListOrganizations(ctx context.Context, tenantID string) ([]model.Organization, error)
	ListContacts(ctx context.Context, tenantID string) ([]model.Contact, error)
	UpsertOrganizations(ctx context.Context, orgs []model.Organization) (int64, error)
	UpsertContacts(ctx context.Context, contacts []model.Contact) (int64, error)

	// Suggestions
	CreateSuggestion(ctx context.Context, s *model.DuplicateSuggestion) (bool, error)
	GetSuggestion(ctx context.Context, tenantID, id string) (*model.DuplicateSuggestion, error)
	ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]model.DuplicateSuggestion, error)
	SuggestionPairKeys(ctx context.Context, tenantID string, entityType model.EntityType) (map[string]model.SuggestionStatus, error)
	DismissSuggestion(ctx context.Context, tenantID, id string) error

	// Merge. Runs the full re-point + delete + status flip in one
	// transaction; see dedupe.MergeStore.
	ExecuteMerge(ctx context.Context, s *model.DuplicateSuggestion, primaryID, loserID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
