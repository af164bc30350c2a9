package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-dedupe/internal/db"
	"github.com/sells-group/crm-dedupe/internal/dedupe"
	"github.com/sells-group/crm-dedupe/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., the seed loader).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	website    TEXT NOT NULL DEFAULT '',
	street     TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	zip_code   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_organizations_tenant ON organizations(tenant_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS contacts (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL DEFAULT '',
	organization_id TEXT REFERENCES organizations(id),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_contacts_tenant ON contacts(tenant_id) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_contacts_organization ON contacts(organization_id);

CREATE TABLE IF NOT EXISTS contact_emails (
	id         TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	email      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contact_emails_contact ON contact_emails(contact_id);

CREATE TABLE IF NOT EXISTS contact_phones (
	id         TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	phone      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contact_phones_contact ON contact_phones(contact_id);

CREATE TABLE IF NOT EXISTS deals (
	id                 TEXT PRIMARY KEY,
	tenant_id          TEXT NOT NULL,
	name               TEXT NOT NULL,
	stage              TEXT NOT NULL DEFAULT '',
	amount             NUMERIC(14,2),
	organization_id    TEXT REFERENCES organizations(id),
	primary_contact_id TEXT REFERENCES contacts(id),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_deals_tenant ON deals(tenant_id);
CREATE INDEX IF NOT EXISTS idx_deals_organization ON deals(organization_id);

CREATE TABLE IF NOT EXISTS activities (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	kind            TEXT NOT NULL,
	subject         TEXT NOT NULL DEFAULT '',
	organization_id TEXT REFERENCES organizations(id),
	due_at          TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activities_tenant ON activities(tenant_id);

CREATE TABLE IF NOT EXISTS activity_contacts (
	activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
	contact_id  TEXT NOT NULL REFERENCES contacts(id),
	PRIMARY KEY (activity_id, contact_id)
);

CREATE TABLE IF NOT EXISTS activity_organizations (
	activity_id     TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
	organization_id TEXT NOT NULL REFERENCES organizations(id),
	PRIMARY KEY (activity_id, organization_id)
);

CREATE TABLE IF NOT EXISTS deal_contacts (
	deal_id    TEXT NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
	contact_id TEXT NOT NULL REFERENCES contacts(id),
	PRIMARY KEY (deal_id, contact_id)
);

CREATE TABLE IF NOT EXISTS notes (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	body            TEXT NOT NULL,
	organization_id TEXT REFERENCES organizations(id),
	contact_id      TEXT REFERENCES contacts(id),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notes_tenant ON notes(tenant_id);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	action      TEXT NOT NULL,
	detail      JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(tenant_id, entity_type, entity_id);

CREATE TABLE IF NOT EXISTS duplicate_suggestions (
	id               TEXT PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	entity_type      TEXT NOT NULL,
	record1_id       TEXT NOT NULL,
	record2_id       TEXT NOT NULL,
	pair_key         TEXT NOT NULL,
	similarity_score DOUBLE PRECISION NOT NULL,
	record1_data     JSONB NOT NULL,
	record2_data     JSONB NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_pending_pair
	ON duplicate_suggestions(tenant_id, entity_type, pair_key) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_suggestions_tenant_status ON duplicate_suggestions(tenant_id, status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListOrganizations(ctx context.Context, tenantID string) ([]model.Organization, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, website, street, city, state, zip_code, created_at
		 FROM organizations WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list organizations")
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.TenantID, &o.Name, &o.Website, &o.Street, &o.City, &o.State, &o.ZipCode, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan organization")
		}
		orgs = append(orgs, o)
	}
	return orgs, eris.Wrap(rows.Err(), "postgres: list organizations iterate")
}

func (s *PostgresStore) ListContacts(ctx context.Context, tenantID string) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, first_name, last_name, title, COALESCE(organization_id, ''), created_at
		 FROM contacts WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	index := make(map[string]int)
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Title, &c.OrganizationID, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		index[c.ID] = len(contacts)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts iterate")
	}
	if len(contacts) == 0 {
		return contacts, nil
	}

	if err := s.attachContactChildren(ctx, tenantID, contacts, index); err != nil {
		return nil, err
	}
	return contacts, nil
}

// attachContactChildren loads emails and phones for the tenant's live
// contacts in two queries rather than per-contact round trips.
func (s *PostgresStore) attachContactChildren(ctx context.Context, tenantID string, contacts []model.Contact, index map[string]int) error {
	emailRows, err := s.pool.Query(ctx,
		`SELECT ce.contact_id, ce.email FROM contact_emails ce
		 JOIN contacts c ON c.id = ce.contact_id
		 WHERE c.tenant_id = $1 AND c.deleted_at IS NULL ORDER BY ce.id`,
		tenantID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: list contact emails")
	}
	defer emailRows.Close()
	for emailRows.Next() {
		var contactID, email string
		if err := emailRows.Scan(&contactID, &email); err != nil {
			return eris.Wrap(err, "postgres: scan contact email")
		}
		if i, ok := index[contactID]; ok {
			contacts[i].Emails = append(contacts[i].Emails, email)
		}
	}
	if err := emailRows.Err(); err != nil {
		return eris.Wrap(err, "postgres: list contact emails iterate")
	}

	phoneRows, err := s.pool.Query(ctx,
		`SELECT cp.contact_id, cp.phone FROM contact_phones cp
		 JOIN contacts c ON c.id = cp.contact_id
		 WHERE c.tenant_id = $1 AND c.deleted_at IS NULL ORDER BY cp.id`,
		tenantID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: list contact phones")
	}
	defer phoneRows.Close()
	for phoneRows.Next() {
		var contactID, phone string
		if err := phoneRows.Scan(&contactID, &phone); err != nil {
			return eris.Wrap(err, "postgres: scan contact phone")
		}
		if i, ok := index[contactID]; ok {
			contacts[i].Phones = append(contacts[i].Phones, phone)
		}
	}
	return eris.Wrap(phoneRows.Err(), "postgres: list contact phones iterate")
}

func (s *PostgresStore) UpsertOrganizations(ctx context.Context, orgs []model.Organization) (int64, error) {
	rows := make([][]any, 0, len(orgs))
	now := time.Now().UTC()
	for _, o := range orgs {
		createdAt := o.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		rows = append(rows, []any{o.ID, o.TenantID, o.Name, o.Website, o.Street, o.City, o.State, o.ZipCode, createdAt})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "organizations",
		Columns:      []string{"id", "tenant_id", "name", "website", "street", "city", "state", "zip_code", "created_at"},
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert organizations")
}

func (s *PostgresStore) UpsertContacts(ctx context.Context, contacts []model.Contact) (int64, error) {
	rows := make([][]any, 0, len(contacts))
	now := time.Now().UTC()
	for _, c := range contacts {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		var orgID any
		if c.OrganizationID != "" {
			orgID = c.OrganizationID
		}
		rows = append(rows, []any{c.ID, c.TenantID, c.FirstName, c.LastName, c.Title, orgID, createdAt})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "contacts",
		Columns:      []string{"id", "tenant_id", "first_name", "last_name", "title", "organization_id", "created_at"},
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return n, eris.Wrap(err, "postgres: upsert contacts")
	}

	// Children are replaced wholesale: delete whatever the contact had
	// and reload from the input.
	var emailRows, phoneRows [][]any
	for _, c := range contacts {
		if _, err := s.pool.Exec(ctx, `DELETE FROM contact_emails WHERE contact_id = $1`, c.ID); err != nil {
			return n, eris.Wrap(err, "postgres: clear contact emails")
		}
		if _, err := s.pool.Exec(ctx, `DELETE FROM contact_phones WHERE contact_id = $1`, c.ID); err != nil {
			return n, eris.Wrap(err, "postgres: clear contact phones")
		}
		for i, e := range c.Emails {
			emailRows = append(emailRows, []any{fmt.Sprintf("%s-e%d", c.ID, i), c.ID, e})
		}
		for i, p := range c.Phones {
			phoneRows = append(phoneRows, []any{fmt.Sprintf("%s-p%d", c.ID, i), c.ID, p})
		}
	}
	if _, err := db.CopyFrom(ctx, s.pool, "contact_emails", []string{"id", "contact_id", "email"}, emailRows); err != nil {
		return n, eris.Wrap(err, "postgres: load contact emails")
	}
	if _, err := db.CopyFrom(ctx, s.pool, "contact_phones", []string{"id", "contact_id", "phone"}, phoneRows); err != nil {
		return n, eris.Wrap(err, "postgres: load contact phones")
	}
	return n, nil
}

func (s *PostgresStore) CreateSuggestion(ctx context.Context, sg *model.DuplicateSuggestion) (bool, error) {
	r1, err := json.Marshal(sg.Record1Data)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal record1 snapshot")
	}
	r2, err := json.Marshal(sg.Record2Data)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal record2 snapshot")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO duplicate_suggestions
		 (id, tenant_id, entity_type, record1_id, record2_id, pair_key, similarity_score, record1_data, record2_data, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (tenant_id, entity_type, pair_key) WHERE status = 'pending' DO NOTHING`,
		sg.ID, sg.TenantID, string(sg.EntityType), sg.Record1ID, sg.Record2ID,
		model.PairKey(sg.Record1ID, sg.Record2ID), sg.SimilarityScore, r1, r2,
		string(sg.Status), sg.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert suggestion")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) GetSuggestion(ctx context.Context, tenantID, id string) (*model.DuplicateSuggestion, error) {
	var sg model.DuplicateSuggestion
	var r1, r2 []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, entity_type, record1_id, record2_id, similarity_score, record1_data, record2_data, status, created_at
		 FROM duplicate_suggestions WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&sg.ID, &sg.TenantID, &sg.EntityType, &sg.Record1ID, &sg.Record2ID, &sg.SimilarityScore, &r1, &r2, &sg.Status, &sg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(dedupe.ErrNotFound, "suggestion %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get suggestion %s", id)
	}
	if err := json.Unmarshal(r1, &sg.Record1Data); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal record1 snapshot")
	}
	if err := json.Unmarshal(r2, &sg.Record2Data); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal record2 snapshot")
	}
	return &sg, nil
}

// liveRecordsClause hides pending suggestions whose records have since
// been absorbed by a different merge (transitive duplicate chains).
// Merged and dismissed rows are kept visible as audit trail.
const liveRecordsClause = ` AND (status <> 'pending'
	OR (entity_type = 'organization'
		AND EXISTS (SELECT 1 FROM organizations o1 WHERE o1.id = record1_id AND o1.deleted_at IS NULL)
		AND EXISTS (SELECT 1 FROM organizations o2 WHERE o2.id = record2_id AND o2.deleted_at IS NULL))
	OR (entity_type = 'contact'
		AND EXISTS (SELECT 1 FROM contacts c1 WHERE c1.id = record1_id AND c1.deleted_at IS NULL)
		AND EXISTS (SELECT 1 FROM contacts c2 WHERE c2.id = record2_id AND c2.deleted_at IS NULL)))`

func (s *PostgresStore) ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]model.DuplicateSuggestion, error) {
	if filter.TenantID == "" {
		return nil, eris.Wrap(dedupe.ErrInvalidArgument, "postgres: list suggestions requires tenant id")
	}

	query := `SELECT id, tenant_id, entity_type, record1_id, record2_id, similarity_score, record1_data, record2_data, status, created_at
	          FROM duplicate_suggestions WHERE tenant_id = $1`
	args := []any{filter.TenantID}
	argIdx := 2

	if filter.EntityType != "" {
		query += fmt.Sprintf(` AND entity_type = $%d`, argIdx)
		args = append(args, string(filter.EntityType))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.LiveOnly {
		query += liveRecordsClause
	}
	query += ` ORDER BY similarity_score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suggestions")
	}
	defer rows.Close()

	var out []model.DuplicateSuggestion
	for rows.Next() {
		var sg model.DuplicateSuggestion
		var r1, r2 []byte
		if err := rows.Scan(&sg.ID, &sg.TenantID, &sg.EntityType, &sg.Record1ID, &sg.Record2ID, &sg.SimilarityScore, &r1, &r2, &sg.Status, &sg.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan suggestion")
		}
		if err := json.Unmarshal(r1, &sg.Record1Data); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record1 snapshot")
		}
		if err := json.Unmarshal(r2, &sg.Record2Data); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record2 snapshot")
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list suggestions iterate")
}

func (s *PostgresStore) SuggestionPairKeys(ctx context.Context, tenantID string, entityType model.EntityType) (map[string]model.SuggestionStatus, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pair_key, status FROM duplicate_suggestions WHERE tenant_id = $1 AND entity_type = $2`,
		tenantID, string(entityType),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: suggestion pair keys")
	}
	defer rows.Close()

	keys := make(map[string]model.SuggestionStatus)
	for rows.Next() {
		var key string
		var status model.SuggestionStatus
		if err := rows.Scan(&key, &status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pair key")
		}
		keys[key] = status
	}
	return keys, eris.Wrap(rows.Err(), "postgres: suggestion pair keys iterate")
}

func (s *PostgresStore) DismissSuggestion(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE duplicate_suggestions SET status = 'dismissed' WHERE id = $1 AND tenant_id = $2 AND status = 'pending'`,
		id, tenantID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: dismiss suggestion %s", id)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing updated: distinguish a missing suggestion from one in a
	// terminal state.
	var status string
	err = s.pool.QueryRow(ctx,
		`SELECT status FROM duplicate_suggestions WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(dedupe.ErrNotFound, "suggestion %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: dismiss status check %s", id)
	}
	return eris.Wrapf(dedupe.ErrInvalidState, "suggestion %s is %s", id, status)
}

// ExecuteMerge re-points every dependent row from loserID to primaryID,
// deletes the loser's root record, and marks the suggestion merged, all
// in one transaction. Any failure rolls everything back; the suggestion
// stays pending and no row is left half re-pointed.
func (s *PostgresStore) ExecuteMerge(ctx context.Context, sg *model.DuplicateSuggestion, primaryID, loserID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: merge: begin tx")
	}
	defer tx.Rollback(ctx)

	// Lock the suggestion and re-check its status under the lock, so a
	// concurrent merge of the same suggestion fails cleanly here.
	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM duplicate_suggestions WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		sg.ID, sg.TenantID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(dedupe.ErrNotFound, "suggestion %s", sg.ID)
	}
	if err != nil {
		return eris.Wrap(err, "postgres: merge: lock suggestion")
	}
	if model.SuggestionStatus(status) != model.StatusPending {
		return eris.Wrapf(dedupe.ErrInvalidState, "suggestion %s is %s", sg.ID, status)
	}

	// Lock both root records. Missing rows (already merged away by a
	// different suggestion) fail the merge before any write happens.
	recordTable := "organizations"
	if sg.EntityType == model.EntityContact {
		recordTable = "contacts"
	}
	rows, err := tx.Query(ctx,
		`SELECT id FROM `+recordTable+` WHERE tenant_id = $1 AND id = ANY($2) AND deleted_at IS NULL FOR UPDATE`,
		sg.TenantID, []string{primaryID, loserID},
	)
	if err != nil {
		return eris.Wrap(err, "postgres: merge: lock records")
	}
	locked := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return eris.Wrap(err, "postgres: merge: scan locked record")
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "postgres: merge: lock records iterate")
	}
	if locked != 2 {
		return eris.Wrapf(dedupe.ErrNotFound, "merge records %s/%s", primaryID, loserID)
	}

	var steps []mergeStep
	switch sg.EntityType {
	case model.EntityOrganization:
		steps = organizationMergeSteps(sg.TenantID, primaryID, loserID)
	case model.EntityContact:
		steps = contactMergeSteps(sg.TenantID, primaryID, loserID)
	default:
		return eris.Wrapf(dedupe.ErrInvalidArgument, "entity type %q", sg.EntityType)
	}

	for _, step := range steps {
		if _, err := tx.Exec(ctx, step.sql, step.args...); err != nil {
			return eris.Wrapf(err, "postgres: merge: %s", step.name)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE duplicate_suggestions SET status = 'merged' WHERE id = $1`,
		sg.ID,
	); err != nil {
		return eris.Wrap(err, "postgres: merge: mark merged")
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: merge: commit")
	}
	return nil
}

// mergeStep SQL is shared with the SQLite store (see
// toSQLitePlaceholders) and must parse in both dialects; SQLite's
// DELETE grammar requires AS before a table alias.
type mergeStep struct {
	name string
	sql  string
	args []any
}

// organizationMergeSteps re-points every table holding an organization
// foreign key. Join rows that would collide with an equivalent row the
// primary already holds are dropped instead of updated.
func organizationMergeSteps(tenantID, primaryID, loserID string) []mergeStep {
	return []mergeStep{
		{"repoint contacts", `UPDATE contacts SET organization_id = $1 WHERE organization_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"repoint deals", `UPDATE deals SET organization_id = $1 WHERE organization_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"repoint activities", `UPDATE activities SET organization_id = $1 WHERE organization_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"drop colliding activity joins", `DELETE FROM activity_organizations AS ao WHERE ao.organization_id = $2
			AND EXISTS (SELECT 1 FROM activity_organizations p WHERE p.activity_id = ao.activity_id AND p.organization_id = $1)`, []any{primaryID, loserID}},
		{"repoint activity joins", `UPDATE activity_organizations SET organization_id = $1 WHERE organization_id = $2`, []any{primaryID, loserID}},
		{"repoint notes", `UPDATE notes SET organization_id = $1 WHERE organization_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"repoint audit logs", `UPDATE audit_logs SET entity_id = $1 WHERE entity_type = 'organization' AND entity_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"delete loser", `DELETE FROM organizations WHERE id = $1 AND tenant_id = $2`, []any{loserID, tenantID}},
	}
}

// contactMergeSteps mirrors organizationMergeSteps for contacts. The
// loser's emails and phones are exclusively owned children and die with
// the root row via ON DELETE CASCADE.
func contactMergeSteps(tenantID, primaryID, loserID string) []mergeStep {
	return []mergeStep{
		{"repoint deal primary contacts", `UPDATE deals SET primary_contact_id = $1 WHERE primary_contact_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"drop colliding activity joins", `DELETE FROM activity_contacts AS ac WHERE ac.contact_id = $2
			AND EXISTS (SELECT 1 FROM activity_contacts p WHERE p.activity_id = ac.activity_id AND p.contact_id = $1)`, []any{primaryID, loserID}},
		{"repoint activity joins", `UPDATE activity_contacts SET contact_id = $1 WHERE contact_id = $2`, []any{primaryID, loserID}},
		{"drop colliding deal joins", `DELETE FROM deal_contacts AS dc WHERE dc.contact_id = $2
			AND EXISTS (SELECT 1 FROM deal_contacts p WHERE p.deal_id = dc.deal_id AND p.contact_id = $1)`, []any{primaryID, loserID}},
		{"repoint deal joins", `UPDATE deal_contacts SET contact_id = $1 WHERE contact_id = $2`, []any{primaryID, loserID}},
		{"repoint notes", `UPDATE notes SET contact_id = $1 WHERE contact_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"repoint audit logs", `UPDATE audit_logs SET entity_id = $1 WHERE entity_type = 'contact' AND entity_id = $2 AND tenant_id = $3`, []any{primaryID, loserID, tenantID}},
		{"delete loser", `DELETE FROM contacts WHERE id = $1 AND tenant_id = $2`, []any{loserID, tenantID}},
	}
}
