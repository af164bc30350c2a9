// Package scorer computes pairwise similarity between CRM records of
// the same entity type. All scoring functions are pure, deterministic,
// and symmetric; results are in [0,1].
package scorer

import "github.com/sells-group/crm-dedupe/internal/model"

// Component weights. Name similarity dominates for both entity types;
// a score of exactly 1.0 is only reachable when normalized names are
// identical, since every bonus alone is below the name weight.
const (
	orgNameWeight     = 0.8
	orgDomainBonus    = 0.2
	contactNameWeight = 0.6
	contactEmailBonus = 0.3
	contactOrgBonus   = 0.1
)

// ScoreOrganizations scores two organization records. Normalized-name
// similarity carries most of the weight; an exact website-domain match
// adds a fixed bonus. Missing fields contribute nothing.
func ScoreOrganizations(a, b model.Organization) float64 {
	score := orgNameWeight * nameSimilarity(NormalizeOrgName(a.Name), NormalizeOrgName(b.Name))

	da, db := NormalizeDomain(a.Website), NormalizeDomain(b.Website)
	if da != "" && da == db {
		score += orgDomainBonus
	}
	return clamp01(score)
}

// ScoreContacts scores two contact records. Full-name similarity is the
// base signal; any overlapping email address is a strong bonus, and
// belonging to the same organization adds a small one.
func ScoreContacts(a, b model.Contact) float64 {
	score := contactNameWeight * nameSimilarity(NormalizePersonName(a.FullName()), NormalizePersonName(b.FullName()))

	if emailsOverlap(a.Emails, b.Emails) {
		score += contactEmailBonus
	}
	if a.OrganizationID != "" && a.OrganizationID == b.OrganizationID {
		score += contactOrgBonus
	}
	return clamp01(score)
}

func emailsOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, e := range a {
		if n := NormalizeEmail(e); n != "" {
			seen[n] = true
		}
	}
	for _, e := range b {
		if seen[NormalizeEmail(e)] {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
