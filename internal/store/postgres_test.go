package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-dedupe/internal/dedupe"
	"github.com/sells-group/crm-dedupe/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

// --- Records ---

func TestPostgresListOrganizations(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, tenant_id, name, website, street, city, state, zip_code, created_at`).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "name", "website", "street", "city", "state", "zip_code", "created_at"}).
			AddRow("org-a", "t1", "Acme Inc", "acme.com", "", "", "", "", now).
			AddRow("org-b", "t1", "ACME, Inc.", "www.acme.com", "", "", "", "", now))

	orgs, err := st.ListOrganizations(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Acme Inc", orgs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListContactsAttachesChildren(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, tenant_id, first_name, last_name, title`).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "first_name", "last_name", "title", "organization_id", "created_at"}).
			AddRow("con-a", "t1", "Jane", "Doe", "", "org-a", now))
	mock.ExpectQuery(`SELECT ce.contact_id, ce.email FROM contact_emails`).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"contact_id", "email"}).
			AddRow("con-a", "jane@acme.com"))
	mock.ExpectQuery(`SELECT cp.contact_id, cp.phone FROM contact_phones`).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"contact_id", "phone"}).
			AddRow("con-a", "555-0100"))

	contacts, err := st.ListContacts(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, []string{"jane@acme.com"}, contacts[0].Emails)
	assert.Equal(t, []string{"555-0100"}, contacts[0].Phones)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Suggestions ---

func testSuggestion() *model.DuplicateSuggestion {
	return &model.DuplicateSuggestion{
		ID:              "sugg-1",
		TenantID:        "t1",
		EntityType:      model.EntityOrganization,
		Record1ID:       "org-a",
		Record2ID:       "org-b",
		SimilarityScore: 0.92,
		Record1Data:     map[string]any{"name": "Acme Inc"},
		Record2Data:     map[string]any{"name": "ACME, Inc."},
		Status:          model.StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestPostgresCreateSuggestion(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	sg := testSuggestion()

	mock.ExpectExec(`INSERT INTO duplicate_suggestions`).
		WithArgs(sg.ID, sg.TenantID, "organization", "org-a", "org-b", "org-a:org-b",
			sg.SimilarityScore, pgxmock.AnyArg(), pgxmock.AnyArg(), "pending", sg.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := st.CreateSuggestion(context.Background(), sg)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateSuggestionConflictIsNotCreated(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	sg := testSuggestion()

	mock.ExpectExec(`INSERT INTO duplicate_suggestions`).
		WithArgs(sg.ID, sg.TenantID, "organization", "org-a", "org-b", "org-a:org-b",
			sg.SimilarityScore, pgxmock.AnyArg(), pgxmock.AnyArg(), "pending", sg.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := st.CreateSuggestion(context.Background(), sg)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSuggestion(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM duplicate_suggestions WHERE id`).
		WithArgs("sugg-1", "t1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "entity_type", "record1_id", "record2_id", "similarity_score", "record1_data", "record2_data", "status", "created_at"}).
			AddRow("sugg-1", "t1", model.EntityOrganization, "org-a", "org-b", 0.92,
				[]byte(`{"name":"Acme Inc"}`), []byte(`{"name":"ACME, Inc."}`), model.StatusPending, now))

	sg, err := st.GetSuggestion(context.Background(), "t1", "sugg-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sg.Status)
	assert.Equal(t, "Acme Inc", sg.Record1Data["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSuggestionNotFound(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM duplicate_suggestions WHERE id`).
		WithArgs("sugg-missing", "t1").
		WillReturnError(pgx.ErrNoRows)

	_, err := st.GetSuggestion(context.Background(), "t1", "sugg-missing")
	assert.ErrorIs(t, err, dedupe.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSuggestionsRequiresTenant(t *testing.T) {
	st, _ := newMockPostgresStore(t)

	_, err := st.ListSuggestions(context.Background(), SuggestionFilter{})
	assert.ErrorIs(t, err, dedupe.ErrInvalidArgument)
}

func TestPostgresSuggestionPairKeys(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT pair_key, status FROM duplicate_suggestions`).
		WithArgs("t1", "organization").
		WillReturnRows(pgxmock.NewRows([]string{"pair_key", "status"}).
			AddRow("org-a:org-b", model.StatusPending).
			AddRow("org-c:org-d", model.StatusDismissed))

	keys, err := st.SuggestionPairKeys(context.Background(), "t1", model.EntityOrganization)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.SuggestionStatus{
		"org-a:org-b": model.StatusPending,
		"org-c:org-d": model.StatusDismissed,
	}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDismissSuggestion(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE duplicate_suggestions SET status = 'dismissed'`).
		WithArgs("sugg-1", "t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.DismissSuggestion(context.Background(), "t1", "sugg-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDismissSuggestionNotFound(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE duplicate_suggestions SET status = 'dismissed'`).
		WithArgs("sugg-missing", "t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT status FROM duplicate_suggestions`).
		WithArgs("sugg-missing", "t1").
		WillReturnError(pgx.ErrNoRows)

	err := st.DismissSuggestion(context.Background(), "t1", "sugg-missing")
	assert.ErrorIs(t, err, dedupe.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDismissSuggestionTerminalState(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE duplicate_suggestions SET status = 'dismissed'`).
		WithArgs("sugg-1", "t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT status FROM duplicate_suggestions`).
		WithArgs("sugg-1", "t1").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("merged"))

	err := st.DismissSuggestion(context.Background(), "t1", "sugg-1")
	assert.ErrorIs(t, err, dedupe.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Merge ---

func expectMergeLocks(mock pgxmock.PgxPoolIface, sg *model.DuplicateSuggestion, primaryID, loserID string) {
	mock.ExpectQuery(`SELECT status FROM duplicate_suggestions WHERE id .+ FOR UPDATE`).
		WithArgs(sg.ID, sg.TenantID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectQuery(`SELECT id FROM organizations WHERE tenant_id .+ FOR UPDATE`).
		WithArgs(sg.TenantID, []string{primaryID, loserID}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(primaryID).AddRow(loserID))
}

func TestPostgresExecuteMergeOrganization(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	sg := testSuggestion()

	mock.ExpectBegin()
	expectMergeLocks(mock, sg, "org-a", "org-b")
	steps := []struct {
		pattern string
		args    []any
	}{
		{`UPDATE contacts SET organization_id`, []any{"org-a", "org-b", "t1"}},
		{`UPDATE deals SET organization_id`, []any{"org-a", "org-b", "t1"}},
		{`UPDATE activities SET organization_id`, []any{"org-a", "org-b", "t1"}},
		{`DELETE FROM activity_organizations`, []any{"org-a", "org-b"}},
		{`UPDATE activity_organizations SET organization_id`, []any{"org-a", "org-b"}},
		{`UPDATE notes SET organization_id`, []any{"org-a", "org-b", "t1"}},
		{`UPDATE audit_logs SET entity_id`, []any{"org-a", "org-b", "t1"}},
		{`DELETE FROM organizations WHERE id`, []any{"org-b", "t1"}},
	}
	for _, step := range steps {
		mock.ExpectExec(step.pattern).
			WithArgs(step.args...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}
	mock.ExpectExec(`UPDATE duplicate_suggestions SET status = 'merged'`).
		WithArgs(sg.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, st.ExecuteMerge(context.Background(), sg, "org-a", "org-b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExecuteMergeStepFailureRollsBack(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	sg := testSuggestion()

	mock.ExpectBegin()
	expectMergeLocks(mock, sg, "org-a", "org-b")
	mock.ExpectExec(`UPDATE contacts SET organization_id`).
		WithArgs("org-a", "org-b", "t1").
		WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	err := st.ExecuteMerge(context.Background(), sg, "org-a", "org-b")
	assert.ErrorContains(t, err, "repoint contacts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExecuteMergeNotPendingUnderLock(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	sg := testSuggestion()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM duplicate_suggestions WHERE id .+ FOR UPDATE`).
		WithArgs(sg.ID, sg.TenantID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("merged"))
	mock.ExpectRollback()

	err := st.ExecuteMerge(context.Background(), sg, "org-a", "org-b")
	assert.ErrorIs(t, err, dedupe.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExecuteMergeMissingRecord(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	sg := testSuggestion()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM duplicate_suggestions WHERE id .+ FOR UPDATE`).
		WithArgs(sg.ID, sg.TenantID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectQuery(`SELECT id FROM organizations WHERE tenant_id .+ FOR UPDATE`).
		WithArgs(sg.TenantID, []string{"org-a", "org-b"}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("org-a"))
	mock.ExpectRollback()

	err := st.ExecuteMerge(context.Background(), sg, "org-a", "org-b")
	assert.ErrorIs(t, err, dedupe.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
