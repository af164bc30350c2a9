package model

import "time"

// EntityType identifies which kind of CRM record a suggestion covers.
type EntityType string

const (
	EntityOrganization EntityType = "organization"
	EntityContact      EntityType = "contact"
)

// Valid reports whether the entity type is one of the known values.
func (e EntityType) Valid() bool {
	return e == EntityOrganization || e == EntityContact
}

// Organization is a tenant-scoped organization record with the fields
// the deduplication engine compares and snapshots.
type Organization struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	Street    string    `json:"street,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordID implements Record.
func (o Organization) RecordID() string { return o.ID }

// Snapshot returns the denormalized display fields persisted on a
// suggestion at generation time. The field set is fixed; it is never
// re-synced if the underlying row changes later.
func (o Organization) Snapshot() map[string]any {
	return map[string]any{
		"name":    o.Name,
		"website": o.Website,
		"street":  o.Street,
		"city":    o.City,
		"state":   o.State,
		"zip":     o.ZipCode,
	}
}

// Contact is a tenant-scoped person record. Emails and phones are
// first-class children owned exclusively by the contact.
type Contact struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Title          string    `json:"title,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Emails         []string  `json:"emails,omitempty"`
	Phones         []string  `json:"phones,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordID implements Record.
func (c Contact) RecordID() string { return c.ID }

// FullName joins first and last name, tolerating either being empty.
func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Snapshot returns the denormalized display fields persisted on a
// suggestion at generation time.
func (c Contact) Snapshot() map[string]any {
	return map[string]any{
		"first_name":      c.FirstName,
		"last_name":       c.LastName,
		"title":           c.Title,
		"organization_id": c.OrganizationID,
		"emails":          c.Emails,
		"phones":          c.Phones,
	}
}

// Record is the tagged union over the two mergeable entity types.
// Only Organization and Contact implement it.
type Record interface {
	RecordID() string
	Snapshot() map[string]any
}
