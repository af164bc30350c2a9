package dedupe

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crm-dedupe/internal/model"
	"github.com/sells-group/crm-dedupe/internal/scorer"
)

// Store is the persistence surface the generator depends on.
type Store interface {
	ListOrganizations(ctx context.Context, tenantID string) ([]model.Organization, error)
	ListContacts(ctx context.Context, tenantID string) ([]model.Contact, error)
	SuggestionPairKeys(ctx context.Context, tenantID string, entityType model.EntityType) (map[string]model.SuggestionStatus, error)
	CreateSuggestion(ctx context.Context, s *model.DuplicateSuggestion) (bool, error)
}

// Generator scans all live records of one entity type within a tenant,
// scores every unordered pair, and persists pairs at or above the
// threshold as pending suggestions. The scan is O(n²) in the tenant's
// record count; that is the dominant cost and is accepted for the
// per-tenant sizes this runs against.
type Generator struct {
	store     Store
	threshold float64
	workers   int

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewGenerator creates a Generator. threshold is the minimum similarity
// score a pair must reach to be suggested; a pair scoring exactly at
// the threshold is included. workers bounds the scoring fan-out
// (defaults to 4 when <= 0).
func NewGenerator(store Store, threshold float64, workers int) *Generator {
	if workers <= 0 {
		workers = 4
	}
	return &Generator{
		store:     store,
		threshold: threshold,
		workers:   workers,
		inFlight:  make(map[string]bool),
	}
}

// candidate is a scored pair retained for persistence.
type candidate struct {
	a, b  model.Record
	score float64
}

// Generate runs one detection scan and returns the number of new
// suggestions created. Concurrent runs for the same (tenant, entity
// type) are rejected with ErrGenerationInProgress. Re-running against
// unchanged data creates zero new suggestions: every pair already
// covered by any prior suggestion is skipped, and the insert itself is
// idempotent on the unordered pair key.
func (g *Generator) Generate(ctx context.Context, tenantID string, entityType model.EntityType) (int, error) {
	if tenantID == "" {
		return 0, eris.Wrap(ErrInvalidArgument, "tenant id is required")
	}
	if !entityType.Valid() {
		return 0, eris.Wrapf(ErrInvalidArgument, "unknown entity type %q", entityType)
	}

	scope := tenantID + "/" + string(entityType)
	if !g.acquire(scope) {
		return 0, eris.Wrapf(ErrGenerationInProgress, "scope %s", scope)
	}
	defer g.release(scope)

	log := zap.L().With(
		zap.String("component", "generator"),
		zap.String("tenant_id", tenantID),
		zap.String("entity_type", string(entityType)),
	)

	records, err := g.loadRecords(ctx, tenantID, entityType)
	if err != nil {
		return 0, err
	}
	log.Info("loaded records for scan", zap.Int("count", len(records)))
	if len(records) < 2 {
		return 0, nil
	}

	existing, err := g.store.SuggestionPairKeys(ctx, tenantID, entityType)
	if err != nil {
		return 0, eris.Wrap(err, "generate: load existing pair keys")
	}

	matches, err := g.scorePairs(ctx, entityType, records)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	created := 0
	for _, m := range matches {
		key := model.PairKey(m.a.RecordID(), m.b.RecordID())
		// Any prior suggestion for the pair (pending, merged, or
		// dismissed) suppresses re-flagging.
		if _, ok := existing[key]; ok {
			continue
		}

		sugg := &model.DuplicateSuggestion{
			ID:              uuid.New().String(),
			TenantID:        tenantID,
			EntityType:      entityType,
			Record1ID:       m.a.RecordID(),
			Record2ID:       m.b.RecordID(),
			SimilarityScore: m.score,
			Record1Data:     m.a.Snapshot(),
			Record2Data:     m.b.Snapshot(),
			Status:          model.StatusPending,
			CreatedAt:       time.Now().UTC(),
		}
		inserted, err := g.store.CreateSuggestion(ctx, sugg)
		if err != nil {
			return created, eris.Wrap(err, "generate: create suggestion")
		}
		if inserted {
			created++
		}
	}

	log.Info("generation scan complete",
		zap.Int("pairs_matched", len(matches)),
		zap.Int("suggestions_created", created),
		zap.Duration("persist_elapsed", time.Since(start)),
	)
	return created, nil
}

// loadRecords fetches live records of the requested type as the tagged
// Record union.
func (g *Generator) loadRecords(ctx context.Context, tenantID string, entityType model.EntityType) ([]model.Record, error) {
	switch entityType {
	case model.EntityOrganization:
		orgs, err := g.store.ListOrganizations(ctx, tenantID)
		if err != nil {
			return nil, eris.Wrap(err, "generate: list organizations")
		}
		records := make([]model.Record, len(orgs))
		for i, o := range orgs {
			records[i] = o
		}
		return records, nil
	case model.EntityContact:
		contacts, err := g.store.ListContacts(ctx, tenantID)
		if err != nil {
			return nil, eris.Wrap(err, "generate: list contacts")
		}
		records := make([]model.Record, len(contacts))
		for i, c := range contacts {
			records[i] = c
		}
		return records, nil
	default:
		return nil, eris.Wrapf(ErrInvalidArgument, "unknown entity type %q", entityType)
	}
}

// scorePairs fans the unordered pair comparisons out over a bounded
// worker group. Scoring is pure, so workers share nothing but the
// input slice; matches come back over a channel and are ordered by
// record id afterwards for deterministic persistence order.
func (g *Generator) scorePairs(ctx context.Context, entityType model.EntityType, records []model.Record) ([]candidate, error) {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	results := make(chan candidate, len(records))
	for i := range records {
		eg.Go(func() error {
			for j := i + 1; j < len(records); j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				score, err := scoreRecords(entityType, records[i], records[j])
				if err != nil {
					return err
				}
				if score >= g.threshold {
					results <- candidate{a: records[i], b: records[j], score: score}
				}
			}
			return nil
		})
	}

	done := make(chan struct{})
	var matches []candidate
	go func() {
		defer close(done)
		for c := range results {
			matches = append(matches, c)
		}
	}()

	if err := eg.Wait(); err != nil {
		close(results)
		<-done
		return nil, eris.Wrap(err, "generate: score pairs")
	}
	close(results)
	<-done

	sortCandidates(matches)
	return matches, nil
}

// scoreRecords dispatches on the entity type of the tagged union.
func scoreRecords(entityType model.EntityType, a, b model.Record) (float64, error) {
	switch entityType {
	case model.EntityOrganization:
		orgA, okA := a.(model.Organization)
		orgB, okB := b.(model.Organization)
		if !okA || !okB {
			return 0, eris.Errorf("generate: record type mismatch for %s", entityType)
		}
		return scorer.ScoreOrganizations(orgA, orgB), nil
	case model.EntityContact:
		conA, okA := a.(model.Contact)
		conB, okB := b.(model.Contact)
		if !okA || !okB {
			return 0, eris.Errorf("generate: record type mismatch for %s", entityType)
		}
		return scorer.ScoreContacts(conA, conB), nil
	default:
		return 0, eris.Wrapf(ErrInvalidArgument, "unknown entity type %q", entityType)
	}
}

func sortCandidates(matches []candidate) {
	sort.Slice(matches, func(i, j int) bool {
		ki := model.PairKey(matches[i].a.RecordID(), matches[i].b.RecordID())
		kj := model.PairKey(matches[j].a.RecordID(), matches[j].b.RecordID())
		return ki < kj
	})
}

func (g *Generator) acquire(scope string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[scope] {
		return false
	}
	g.inFlight[scope] = true
	return true
}

func (g *Generator) release(scope string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, scope)
}
