// Package peoplesearch looks up phone numbers for a named person at a
// known address on a consumer people-search site. Only numbers tagged as
// mobile-class in the site's phone section are recorded; landlines are
// dropped at the source.
package peoplesearch

import (
	"regexp"
	"strings"

	"github.com/blake-leads/enrich-cli/internal/address"
	"github.com/blake-leads/enrich-cli/internal/model"
	"github.com/blake-leads/enrich-cli/internal/phones"
)

const phoneSectionLabel = "Last Known Phone Numbers"

// nextSectionLabels bound the phone section inside a card. The first of
// these after the phone heading ends the scannable text.
var nextSectionLabels = []string{
	"Last Known Address",
	"Past Addresses",
	"Associated Email",
}

// cityStateZipRe matches address lines of the form "..., FL 33312".
var cityStateZipRe = regexp.MustCompile(`,\s*[A-Za-z]{2}\.?\s+\d{5}(-\d{4})?\s*$`)

// houseNumberRe matches lines that open with a house number.
var houseNumberRe = regexp.MustCompile(`^\d+\s+\S`)

// taggedPhone is one phone token found in a card's phone section.
type taggedPhone struct {
	Number  string
	Tag     string
	Primary bool
}

// CandidateAddresses pulls address-shaped lines out of card text: lines
// that open with a house number and carry a street-type token, or lines
// that end in ", ST ZZZZZ".
func CandidateAddresses(cardText string) []string {
	var out []string
	for _, line := range strings.Split(cardText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if cityStateZipRe.MatchString(line) {
			out = append(out, line)
			continue
		}
		if houseNumberRe.MatchString(line) && hasStreetType(line) {
			out = append(out, line)
		}
	}
	return out
}

func hasStreetType(line string) bool {
	for _, tok := range address.Tokens(address.Normalize(line)) {
		if address.IsStreetType(tok) {
			return true
		}
	}
	return false
}

// MatchCard decides whether a card belongs to the queried person. The card
// must contain both name parts, and one of its candidate addresses must
// match the query address. Returns the matched address as printed on the
// card and the match confidence.
func MatchCard(cardText, first, last, searchFormat string) (string, int, bool) {
	upper := strings.ToUpper(cardText)
	if first != "" && !strings.Contains(upper, strings.ToUpper(first)) {
		return "", 0, false
	}
	if last != "" && !strings.Contains(upper, strings.ToUpper(last)) {
		return "", 0, false
	}
	for _, cand := range CandidateAddresses(cardText) {
		res := address.Match(searchFormat, cand)
		if res.Matched {
			return cand, res.Confidence, true
		}
	}
	return "", 0, false
}

// phoneSection returns the text of the "Last Known Phone Numbers" section,
// or "" when the card has none. Cards without the section are abandoned:
// other sections mix landlines with mobiles and cannot be filtered.
func phoneSection(cardText string) string {
	i := strings.Index(cardText, phoneSectionLabel)
	if i < 0 {
		return ""
	}
	section := cardText[i+len(phoneSectionLabel):]
	end := len(section)
	for _, label := range nextSectionLabels {
		if j := strings.Index(section, label); j >= 0 && j < end {
			end = j
		}
	}
	return section[:end]
}

// extractPhones scans the card's phone section for mobile-class numbers.
// Each match is judged by its 200-character right context: "landline"
// skips it, a type keyword tags it, "primary phone" marks it primary.
func extractPhones(cardText string) []taggedPhone {
	section := phoneSection(cardText)
	if section == "" {
		return nil
	}

	var found []taggedPhone
	seen := map[string]bool{}
	locs := phones.ScanRe.FindAllStringIndex(section, -1)
	for n, loc := range locs {
		formatted := phones.Format(section[loc[0]:loc[1]])
		if formatted == "" || seen[formatted] {
			continue
		}

		// The context stops at the next phone token so one listing's
		// type words never bleed into the previous match.
		end := loc[1] + 200
		if end > len(section) {
			end = len(section)
		}
		if n+1 < len(locs) && locs[n+1][0] < end {
			end = locs[n+1][0]
		}
		context := strings.ToUpper(section[loc[1]:end])
		if strings.Contains(context, "LANDLINE") {
			continue
		}

		tag := "MOBILE/VOIP"
		for _, t := range []string{"MOBILE", "VOIP", "WIRELESS", "CELLULAR"} {
			if strings.Contains(context, t) {
				tag = t
				break
			}
		}

		seen[formatted] = true
		found = append(found, taggedPhone{
			Number:  formatted,
			Tag:     tag,
			Primary: strings.Contains(context, "PRIMARY PHONE"),
		})
	}
	return found
}

// ParseCard extracts a PhoneRecord from a card already matched to the
// query. Returns false when the card yields no mobile numbers.
func ParseCard(cardText string, originalIndex int, matchedAddr string, confidence int) (model.PhoneRecord, bool) {
	found := extractPhones(cardText)
	if len(found) == 0 {
		return model.PhoneRecord{}, false
	}

	rec := model.PhoneRecord{
		OriginalIndex:   originalIndex,
		MatchedAddress:  matchedAddr,
		MatchConfidence: confidence,
	}

	primary := -1
	for i, p := range found {
		rec.AllPhones = append(rec.AllPhones, p.Number)
		if p.Primary && primary < 0 {
			primary = i
		}
	}
	if primary < 0 {
		primary = 0
	}
	rec.PrimaryPhone = found[primary].Number
	for _, p := range found {
		if p.Number != rec.PrimaryPhone {
			rec.SecondaryPhone = p.Number
			break
		}
	}
	return rec, true
}
