package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrgName_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeOrgName(""))
	assert.Equal(t, "", NormalizeOrgName("   "))
}

func TestNormalizeOrgName_Uppercase(t *testing.T) {
	assert.Equal(t, "ACME WIDGETS", NormalizeOrgName("Acme Widgets"))
}

func TestNormalizeOrgName_StripLegalSuffixes(t *testing.T) {
	assert.Equal(t, "ACME WIDGETS", NormalizeOrgName("Acme Widgets LLC"))
	assert.Equal(t, "ACME WIDGETS", NormalizeOrgName("Acme Widgets Inc."))
	assert.Equal(t, "ACME WIDGETS", NormalizeOrgName("Acme Widgets Incorporated"))
	assert.Equal(t, "ACME WIDGETS", NormalizeOrgName("Acme Widgets Corp"))
	assert.Equal(t, "ACME WIDGETS", NormalizeOrgName("Acme Widgets Ltd."))
}

func TestNormalizeOrgName_Punctuation(t *testing.T) {
	assert.Equal(t, "SMITH AND JONES", NormalizeOrgName("Smith & Jones"))
	assert.Equal(t, "JOES WIDGETS", NormalizeOrgName("Joe's Widgets"))
	assert.Equal(t, "WELLS FARGO", NormalizeOrgName("Wells-Fargo"))
}

func TestNormalizeOrgName_CommaBeforeSuffix(t *testing.T) {
	// The motivating case: "Acme Inc" and "ACME, Inc." must compare equal.
	assert.Equal(t, NormalizeOrgName("Acme Inc"), NormalizeOrgName("ACME, Inc."))
}

func TestNormalizeOrgName_Accents(t *testing.T) {
	assert.Equal(t, "CAFE DU MONDE", NormalizeOrgName("Café du Monde"))
}

func TestNormalizeOrgName_CollapseSpaces(t *testing.T) {
	assert.Equal(t, "ACME WIDGETS", NormalizeOrgName("  Acme   Widgets  "))
}

func TestNormalizePersonName(t *testing.T) {
	assert.Equal(t, "JOSE GARCIA", NormalizePersonName("José García"))
	assert.Equal(t, "MARY ANNE OBRIEN", NormalizePersonName("Mary-Anne O'Brien"))
	assert.Equal(t, "", NormalizePersonName("  "))
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "acme.com", NormalizeDomain("acme.com"))
	assert.Equal(t, "acme.com", NormalizeDomain("https://www.acme.com/about"))
	assert.Equal(t, "acme.com", NormalizeDomain("http://ACME.com"))
	assert.Equal(t, "", NormalizeDomain(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@acme.com", NormalizeEmail("  Jane@Acme.COM "))
}
