// Package seed loads YAML fixtures of organizations and contacts into
// the record store, for local trials of the deduplication engine.
package seed

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/crm-dedupe/internal/model"
)

// Store is the write surface the loader needs.
type Store interface {
	UpsertOrganizations(ctx context.Context, orgs []model.Organization) (int64, error)
	UpsertContacts(ctx context.Context, contacts []model.Contact) (int64, error)
}

// Fixture is the on-disk shape of a seed file.
type Fixture struct {
	TenantID      string         `yaml:"tenant_id"`
	Organizations []Organization `yaml:"organizations"`
	Contacts      []Contact      `yaml:"contacts"`
}

// Organization is a fixture organization row.
type Organization struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Website string `yaml:"website"`
	Street  string `yaml:"street"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	ZipCode string `yaml:"zip_code"`
}

// Contact is a fixture contact row.
type Contact struct {
	ID             string   `yaml:"id"`
	FirstName      string   `yaml:"first_name"`
	LastName       string   `yaml:"last_name"`
	Title          string   `yaml:"title"`
	OrganizationID string   `yaml:"organization_id"`
	Emails         []string `yaml:"emails"`
	Phones         []string `yaml:"phones"`
}

// Load parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read %s", path)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "seed: parse %s", path)
	}
	if f.TenantID == "" {
		return nil, eris.New("seed: fixture tenant_id is required")
	}
	for i, o := range f.Organizations {
		if o.ID == "" || o.Name == "" {
			return nil, eris.Errorf("seed: organization %d needs id and name", i)
		}
	}
	for i, c := range f.Contacts {
		if c.ID == "" {
			return nil, eris.Errorf("seed: contact %d needs id", i)
		}
	}
	return &f, nil
}

// Apply upserts the fixture's records. Re-applying the same fixture is
// safe; rows are keyed by id.
func (f *Fixture) Apply(ctx context.Context, s Store) (int64, int64, error) {
	orgs := make([]model.Organization, 0, len(f.Organizations))
	for _, o := range f.Organizations {
		orgs = append(orgs, model.Organization{
			ID:       o.ID,
			TenantID: f.TenantID,
			Name:     o.Name,
			Website:  o.Website,
			Street:   o.Street,
			City:     o.City,
			State:    o.State,
			ZipCode:  o.ZipCode,
		})
	}
	nOrgs, err := s.UpsertOrganizations(ctx, orgs)
	if err != nil {
		return 0, 0, eris.Wrap(err, "seed: upsert organizations")
	}

	contacts := make([]model.Contact, 0, len(f.Contacts))
	for _, c := range f.Contacts {
		contacts = append(contacts, model.Contact{
			ID:             c.ID,
			TenantID:       f.TenantID,
			FirstName:      c.FirstName,
			LastName:       c.LastName,
			Title:          c.Title,
			OrganizationID: c.OrganizationID,
			Emails:         c.Emails,
			Phones:         c.Phones,
		})
	}
	nContacts, err := s.UpsertContacts(ctx, contacts)
	if err != nil {
		return nOrgs, 0, eris.Wrap(err, "seed: upsert contacts")
	}

	zap.L().Info("seed applied",
		zap.String("tenant_id", f.TenantID),
		zap.Int64("organizations", nOrgs),
		zap.Int64("contacts", nContacts),
	)
	return nOrgs, nContacts, nil
}
