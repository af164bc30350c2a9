package scorer

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists common legal entity suffixes to strip during name
// normalization so "Acme Inc" and "ACME, Incorporated" compare equal.
var legalSuffixes = []string{
	" LLC", " L.L.C.", " L.L.C",
	" INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION",
	" LTD", " LTD.", " LIMITED",
	" LP", " L.P.", " L.P",
	" LLP", " L.L.P.", " L.L.P",
	" PC", " P.C.", " P.C",
	" PA", " P.A.", " P.A",
	" CO", " CO.",
	" PLC", " P.L.C.",
	" NA", " N.A.", " N.A",
	" DBA", " D/B/A",
	" PLLC",
	" GMBH", " S.A.", " SA", " AG", " BV", " B.V.",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// accentFold strips combining marks after NFD decomposition, so
// "Café" normalizes the same as "Cafe".
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeOrgName standardizes an organization name for comparison:
//  1. Trim whitespace, fold accents, uppercase
//  2. Remove a trailing legal suffix (LLC, Inc, Corp, ...)
//  3. Strip punctuation (commas, periods, quotes; & becomes AND, dashes
//     become spaces)
//  4. Collapse runs of spaces
func NormalizeOrgName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(accentFold, name); err == nil {
		name = folded
	}
	name = strings.ToUpper(name)

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "AND",
		"-", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizePersonName standardizes a person name for comparison. Legal
// suffixes do not apply; punctuation and accents are folded the same way.
func NormalizePersonName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(accentFold, name); err == nil {
		name = folded
	}
	name = strings.ToUpper(name)

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"-", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizeDomain extracts the registrable host from a website value,
// tolerating bare domains, schemes, paths, and a www prefix.
func NormalizeDomain(website string) string {
	website = strings.TrimSpace(strings.ToLower(website))
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	return strings.TrimPrefix(host, "www.")
}

// NormalizeEmail lowercases and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
