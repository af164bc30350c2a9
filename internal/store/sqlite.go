package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crm-dedupe/internal/dedupe"
	"github.com/sells-group/crm-dedupe/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for
// local trials and development; production runs on PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// connPragmas are applied through the DSN so the driver runs them on
// every pooled connection. foreign_keys and busy_timeout are
// per-connection state; a one-off Exec would only configure whichever
// connection happened to run it.
const connPragmas = "_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)"

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode and foreign key enforcement.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dsn+sep+connPragmas)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: ping")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	website    TEXT NOT NULL DEFAULT '',
	street     TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	zip_code   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	deleted_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_organizations_tenant ON organizations(tenant_id);

CREATE TABLE IF NOT EXISTS contacts (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL DEFAULT '',
	organization_id TEXT REFERENCES organizations(id),
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	deleted_at      DATETIME
);

CREATE INDEX IF NOT EXISTS idx_contacts_tenant ON contacts(tenant_id);

CREATE TABLE IF NOT EXISTS contact_emails (
	id         TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	email      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_phones (
	id         TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	phone      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deals (
	id                 TEXT PRIMARY KEY,
	tenant_id          TEXT NOT NULL,
	name               TEXT NOT NULL,
	stage              TEXT NOT NULL DEFAULT '',
	amount             REAL,
	organization_id    TEXT REFERENCES organizations(id),
	primary_contact_id TEXT REFERENCES contacts(id),
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS activities (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	kind            TEXT NOT NULL,
	subject         TEXT NOT NULL DEFAULT '',
	organization_id TEXT REFERENCES organizations(id),
	due_at          DATETIME,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

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
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	action      TEXT NOT NULL,
	detail      TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS duplicate_suggestions (
	id               TEXT PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	entity_type      TEXT NOT NULL,
	record1_id       TEXT NOT NULL,
	record2_id       TEXT NOT NULL,
	pair_key         TEXT NOT NULL,
	similarity_score REAL NOT NULL,
	record1_data     TEXT NOT NULL,
	record2_data     TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_pending_pair
	ON duplicate_suggestions(tenant_id, entity_type, pair_key) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_suggestions_tenant_status ON duplicate_suggestions(tenant_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListOrganizations(ctx context.Context, tenantID string) ([]model.Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, website, street, city, state, zip_code, created_at
		 FROM organizations WHERE tenant_id = ? AND deleted_at IS NULL ORDER BY id`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list organizations")
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.TenantID, &o.Name, &o.Website, &o.Street, &o.City, &o.State, &o.ZipCode, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan organization")
		}
		orgs = append(orgs, o)
	}
	return orgs, eris.Wrap(rows.Err(), "sqlite: list organizations iterate")
}

func (s *SQLiteStore) ListContacts(ctx context.Context, tenantID string) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, first_name, last_name, title, COALESCE(organization_id, ''), created_at
		 FROM contacts WHERE tenant_id = ? AND deleted_at IS NULL ORDER BY id`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	index := make(map[string]int)
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Title, &c.OrganizationID, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		index[c.ID] = len(contacts)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts iterate")
	}
	if len(contacts) == 0 {
		return contacts, nil
	}

	emailRows, err := s.db.QueryContext(ctx,
		`SELECT ce.contact_id, ce.email FROM contact_emails ce
		 JOIN contacts c ON c.id = ce.contact_id
		 WHERE c.tenant_id = ? AND c.deleted_at IS NULL ORDER BY ce.id`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contact emails")
	}
	defer emailRows.Close()
	for emailRows.Next() {
		var contactID, email string
		if err := emailRows.Scan(&contactID, &email); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact email")
		}
		if i, ok := index[contactID]; ok {
			contacts[i].Emails = append(contacts[i].Emails, email)
		}
	}
	if err := emailRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list contact emails iterate")
	}

	phoneRows, err := s.db.QueryContext(ctx,
		`SELECT cp.contact_id, cp.phone FROM contact_phones cp
		 JOIN contacts c ON c.id = cp.contact_id
		 WHERE c.tenant_id = ? AND c.deleted_at IS NULL ORDER BY cp.id`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contact phones")
	}
	defer phoneRows.Close()
	for phoneRows.Next() {
		var contactID, phone string
		if err := phoneRows.Scan(&contactID, &phone); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact phone")
		}
		if i, ok := index[contactID]; ok {
			contacts[i].Phones = append(contacts[i].Phones, phone)
		}
	}
	return contacts, eris.Wrap(phoneRows.Err(), "sqlite: list contact phones iterate")
}

func (s *SQLiteStore) UpsertOrganizations(ctx context.Context, orgs []model.Organization) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert organizations: begin tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var n int64
	for _, o := range orgs {
		createdAt := o.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO organizations (id, tenant_id, name, website, street, city, state, zip_code, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   tenant_id = excluded.tenant_id, name = excluded.name, website = excluded.website,
			   street = excluded.street, city = excluded.city, state = excluded.state, zip_code = excluded.zip_code`,
			o.ID, o.TenantID, o.Name, o.Website, o.Street, o.City, o.State, o.ZipCode, createdAt,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert organization %s", o.ID)
		}
		n++
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: upsert organizations: commit")
}

func (s *SQLiteStore) UpsertContacts(ctx context.Context, contacts []model.Contact) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert contacts: begin tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var n int64
	for _, c := range contacts {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		var orgID any
		if c.OrganizationID != "" {
			orgID = c.OrganizationID
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO contacts (id, tenant_id, first_name, last_name, title, organization_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   tenant_id = excluded.tenant_id, first_name = excluded.first_name, last_name = excluded.last_name,
			   title = excluded.title, organization_id = excluded.organization_id`,
			c.ID, c.TenantID, c.FirstName, c.LastName, c.Title, orgID, createdAt,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert contact %s", c.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contact_emails WHERE contact_id = ?`, c.ID); err != nil {
			return n, eris.Wrap(err, "sqlite: clear contact emails")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contact_phones WHERE contact_id = ?`, c.ID); err != nil {
			return n, eris.Wrap(err, "sqlite: clear contact phones")
		}
		for i, e := range c.Emails {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO contact_emails (id, contact_id, email) VALUES (?, ?, ?)`,
				fmt.Sprintf("%s-e%d", c.ID, i), c.ID, e,
			); err != nil {
				return n, eris.Wrap(err, "sqlite: insert contact email")
			}
		}
		for i, p := range c.Phones {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO contact_phones (id, contact_id, phone) VALUES (?, ?, ?)`,
				fmt.Sprintf("%s-p%d", c.ID, i), c.ID, p,
			); err != nil {
				return n, eris.Wrap(err, "sqlite: insert contact phone")
			}
		}
		n++
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: upsert contacts: commit")
}

func (s *SQLiteStore) CreateSuggestion(ctx context.Context, sg *model.DuplicateSuggestion) (bool, error) {
	r1, err := json.Marshal(sg.Record1Data)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal record1 snapshot")
	}
	r2, err := json.Marshal(sg.Record2Data)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal record2 snapshot")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO duplicate_suggestions
		 (id, tenant_id, entity_type, record1_id, record2_id, pair_key, similarity_score, record1_data, record2_data, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, entity_type, pair_key) WHERE status = 'pending' DO NOTHING`,
		sg.ID, sg.TenantID, string(sg.EntityType), sg.Record1ID, sg.Record2ID,
		model.PairKey(sg.Record1ID, sg.Record2ID), sg.SimilarityScore, string(r1), string(r2),
		string(sg.Status), sg.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert suggestion")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert suggestion rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) GetSuggestion(ctx context.Context, tenantID, id string) (*model.DuplicateSuggestion, error) {
	var sg model.DuplicateSuggestion
	var entityType, status string
	var r1, r2 []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, entity_type, record1_id, record2_id, similarity_score, record1_data, record2_data, status, created_at
		 FROM duplicate_suggestions WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(&sg.ID, &sg.TenantID, &entityType, &sg.Record1ID, &sg.Record2ID, &sg.SimilarityScore, &r1, &r2, &status, &sg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(dedupe.ErrNotFound, "suggestion %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get suggestion %s", id)
	}
	sg.EntityType = model.EntityType(entityType)
	sg.Status = model.SuggestionStatus(status)
	if err := json.Unmarshal(r1, &sg.Record1Data); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal record1 snapshot")
	}
	if err := json.Unmarshal(r2, &sg.Record2Data); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal record2 snapshot")
	}
	return &sg, nil
}

func (s *SQLiteStore) ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]model.DuplicateSuggestion, error) {
	if filter.TenantID == "" {
		return nil, eris.Wrap(dedupe.ErrInvalidArgument, "sqlite: list suggestions requires tenant id")
	}

	query := `SELECT id, tenant_id, entity_type, record1_id, record2_id, similarity_score, record1_data, record2_data, status, created_at
	          FROM duplicate_suggestions WHERE tenant_id = ?`
	args := []any{filter.TenantID}

	if filter.EntityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, string(filter.EntityType))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.LiveOnly {
		// The clause is parameter-free, so it is shared verbatim with
		// the Postgres store.
		query += liveRecordsClause
	}
	query += ` ORDER BY similarity_score DESC, created_at DESC LIMIT ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suggestions")
	}
	defer rows.Close()

	var out []model.DuplicateSuggestion
	for rows.Next() {
		var sg model.DuplicateSuggestion
		var entityType, status string
		var r1, r2 []byte
		if err := rows.Scan(&sg.ID, &sg.TenantID, &entityType, &sg.Record1ID, &sg.Record2ID, &sg.SimilarityScore, &r1, &r2, &status, &sg.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan suggestion")
		}
		sg.EntityType = model.EntityType(entityType)
		sg.Status = model.SuggestionStatus(status)
		if err := json.Unmarshal(r1, &sg.Record1Data); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record1 snapshot")
		}
		if err := json.Unmarshal(r2, &sg.Record2Data); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record2 snapshot")
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list suggestions iterate")
}

func (s *SQLiteStore) SuggestionPairKeys(ctx context.Context, tenantID string, entityType model.EntityType) (map[string]model.SuggestionStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pair_key, status FROM duplicate_suggestions WHERE tenant_id = ? AND entity_type = ?`,
		tenantID, string(entityType),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: suggestion pair keys")
	}
	defer rows.Close()

	keys := make(map[string]model.SuggestionStatus)
	for rows.Next() {
		var key, status string
		if err := rows.Scan(&key, &status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pair key")
		}
		keys[key] = model.SuggestionStatus(status)
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: suggestion pair keys iterate")
}

func (s *SQLiteStore) DismissSuggestion(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE duplicate_suggestions SET status = 'dismissed' WHERE id = ? AND tenant_id = ? AND status = 'pending'`,
		id, tenantID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: dismiss suggestion %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: dismiss rows affected %s", id)
	}
	if n == 1 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM duplicate_suggestions WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrapf(dedupe.ErrNotFound, "suggestion %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: dismiss status check %s", id)
	}
	return eris.Wrapf(dedupe.ErrInvalidState, "suggestion %s is %s", id, status)
}

// ExecuteMerge mirrors PostgresStore.ExecuteMerge. SQLite serializes
// writers, so the transaction itself provides the per-record exclusion
// that Postgres gets from FOR UPDATE row locks.
func (s *SQLiteStore) ExecuteMerge(ctx context.Context, sg *model.DuplicateSuggestion, primaryID, loserID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: merge: begin tx")
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM duplicate_suggestions WHERE id = ? AND tenant_id = ?`,
		sg.ID, sg.TenantID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrapf(dedupe.ErrNotFound, "suggestion %s", sg.ID)
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: merge: check suggestion")
	}
	if model.SuggestionStatus(status) != model.StatusPending {
		return eris.Wrapf(dedupe.ErrInvalidState, "suggestion %s is %s", sg.ID, status)
	}

	recordTable := "organizations"
	if sg.EntityType == model.EntityContact {
		recordTable = "contacts"
	}
	var live int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+recordTable+` WHERE tenant_id = ? AND id IN (?, ?) AND deleted_at IS NULL`,
		sg.TenantID, primaryID, loserID,
	).Scan(&live)
	if err != nil {
		return eris.Wrap(err, "sqlite: merge: check records")
	}
	if live != 2 {
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
		if _, err := tx.ExecContext(ctx, toSQLitePlaceholders(step.sql), step.args...); err != nil {
			return eris.Wrapf(err, "sqlite: merge: %s", step.name)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE duplicate_suggestions SET status = 'merged' WHERE id = ?`,
		sg.ID,
	); err != nil {
		return eris.Wrap(err, "sqlite: merge: mark merged")
	}

	return eris.Wrap(tx.Commit(), "sqlite: merge: commit")
}

var pgPlaceholderRe = regexp.MustCompile(`\$(\d+)`)

// toSQLitePlaceholders rewrites $N parameters to SQLite's numbered ?N
// form so the merge step definitions stay shared across both stores.
func toSQLitePlaceholders(sql string) string {
	return pgPlaceholderRe.ReplaceAllString(sql, "?$1")
}
