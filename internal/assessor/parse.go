// Package assessor looks up legal property owners on the county assessor
// site by reverse address search.
package assessor

import (
	"regexp"
	"strings"

	"github.com/blake-leads/enrich-cli/internal/names"
)

// ownerFieldRe pulls the owner value out of raw page text, bounded by the
// next labeled section.
var ownerFieldRe = regexp.MustCompile(`(?is)Property Owner\(?s?\)?\s*:?\s*(.+?)\s*(?:Mailing Address\s*:|Site Address\s*:|Property Use\s*:|Folio\s*:|$)`)

// heSplitRe splits on the provider's H/E marker, spaced or glued onto the
// preceding name.
var heSplitRe = regexp.MustCompile(`\s*H/E\s*`)

// ExtractOwnerText finds the owner value in page text. Returns "" when the
// page carries no owner field.
func ExtractOwnerText(body string) string {
	m := ownerFieldRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// SplitOwners breaks a raw owner value into individual cleaned FIRST LAST
// names. Separators seen on parcel pages: " & ", " AND ", ";", " / ", and
// the homestead-exemption marker H/E. Names that fail cleaning are dropped.
func SplitOwners(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parts := []string{value}
	for _, sep := range []string{" & ", "&", ";", " / "} {
		parts = splitAll(parts, sep)
	}
	parts = splitAllRegexp(parts, heSplitRe)
	parts = splitAllRegexp(parts, regexp.MustCompile(`(?i)\s+AND\s+`))

	// Owners on one parcel usually share a surname: "BARATZ, PHILIP J &
	// LISA T" means the second part inherits BARATZ.
	surname := sharedSurname(parts[0])

	var owners []string
	seen := map[string]bool{}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i > 0 && surname != "" && !strings.Contains(part, ",") && len(strings.Fields(part)) <= 2 {
			part = surname + ", " + part
		}
		cleaned := names.Clean(part)
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		owners = append(owners, cleaned)
	}
	return owners
}

// sharedSurname returns the surname of a "LAST, FIRST" part, or "".
func sharedSurname(first string) string {
	i := strings.Index(first, ",")
	if i <= 0 {
		return ""
	}
	return strings.TrimSpace(first[:i])
}

func splitAll(parts []string, sep string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, strings.Split(p, sep)...)
	}
	return out
}

func splitAllRegexp(parts []string, re *regexp.Regexp) []string {
	var out []string
	for _, p := range parts {
		out = append(out, re.Split(p, -1)...)
	}
	return out
}
