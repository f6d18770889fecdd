// Package address produces canonical street-address tokens and scores two
// addresses for equivalence.
package address

import (
	"strconv"
	"strings"
)

// ordinalWords maps spelled ordinals to their numeric-suffix form. Compound
// forms ("TWENTY FIRST") are handled at the string level before tokenizing.
var ordinalWords = map[string]string{
	"FIRST": "1ST", "SECOND": "2ND", "THIRD": "3RD", "FOURTH": "4TH",
	"FIFTH": "5TH", "SIXTH": "6TH", "SEVENTH": "7TH", "EIGHTH": "8TH",
	"NINTH": "9TH", "TENTH": "10TH", "ELEVENTH": "11TH", "TWELFTH": "12TH",
	"THIRTEENTH": "13TH", "FOURTEENTH": "14TH", "FIFTEENTH": "15TH",
	"SIXTEENTH": "16TH", "SEVENTEENTH": "17TH", "EIGHTEENTH": "18TH",
	"NINETEENTH": "19TH", "TWENTIETH": "20TH",
	"THIRTIETH": "30TH", "FORTIETH": "40TH", "FIFTIETH": "50TH",
}

// compoundOrdinals covers the twenties, replaced before tokenization. The
// hyphen has already been turned into a space by Normalize.
var compoundOrdinals = map[string]string{
	"TWENTY FIRST": "21ST", "TWENTY SECOND": "22ND", "TWENTY THIRD": "23RD",
	"TWENTY FOURTH": "24TH", "TWENTY FIFTH": "25TH", "TWENTY SIXTH": "26TH",
	"TWENTY SEVENTH": "27TH", "TWENTY EIGHTH": "28TH", "TWENTY NINTH": "29TH",
}

// numToWord is the reverse ordinal mapping used when building variation sets.
var numToWord = func() map[string]string {
	m := make(map[string]string, len(ordinalWords))
	for w, n := range ordinalWords {
		m[n] = w
	}
	return m
}()

// directionalShort maps long directionals to the canonical short form.
var directionalShort = map[string]string{
	"NORTH": "N", "SOUTH": "S", "EAST": "E", "WEST": "W",
	"NORTHEAST": "NE", "NORTHWEST": "NW", "SOUTHEAST": "SE", "SOUTHWEST": "SW",
}

// directionalLong is the reverse of directionalShort.
var directionalLong = func() map[string]string {
	m := make(map[string]string, len(directionalShort))
	for long, short := range directionalShort {
		m[short] = long
	}
	return m
}()

// streetTypeShort maps street-type words to the canonical short form.
var streetTypeShort = map[string]string{
	"STREET": "ST", "AVENUE": "AVE", "DRIVE": "DR", "COURT": "CT",
	"PLACE": "PL", "ROAD": "RD", "CIRCLE": "CIR", "BOULEVARD": "BLVD",
	"LANE": "LN", "TERRACE": "TER", "PARKWAY": "PKWY", "HIGHWAY": "HWY",
}

// genericStreetTypes are short street types that are too common to carry a
// match on their own.
var genericStreetTypes = map[string]bool{
	"ST": true, "AVE": true, "DR": true, "CT": true, "PL": true, "RD": true,
	"LN": true, "CIR": true, "BLVD": true, "TER": true, "WAY": true,
}

// Normalize canonicalizes an address string: uppercase, single spaces, no
// hyphens or periods, short directionals and street types, numeric-suffix
// ordinals. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToUpper(s)
	s = strings.NewReplacer("-", " ", ",", " ", ".", "").Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	for word, num := range compoundOrdinals {
		s = strings.ReplaceAll(" "+s+" ", " "+word+" ", " "+num+" ")
		s = strings.TrimSpace(s)
	}

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if num, ok := ordinalWords[tok]; ok {
			tokens[i] = num
			continue
		}
		if short, ok := directionalShort[tok]; ok {
			tokens[i] = short
			continue
		}
		if short, ok := streetTypeShort[tok]; ok {
			tokens[i] = short
		}
	}

	return strings.Join(tokens, " ")
}

// Tokens returns the normalized tokens of an address.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// IsStreetType reports whether a token is a street-type word in either its
// long or short form.
func IsStreetType(tok string) bool {
	if genericStreetTypes[tok] {
		return true
	}
	_, ok := streetTypeShort[tok]
	return ok
}

// ordinalSuffix returns the English suffix for n (1ST, 2ND, 3RD, 4TH, with
// the 11-13 carve-out).
func ordinalSuffix(n int) string {
	if m := n % 100; m >= 11 && m <= 13 {
		return "TH"
	}
	switch n % 10 {
	case 1:
		return "ST"
	case 2:
		return "ND"
	case 3:
		return "RD"
	default:
		return "TH"
	}
}

// variations expands one normalized token into every equivalent spelling:
// the token itself, ordinal forms in both directions, directional forms in
// both directions, and a shared marker for generic street types so that a
// bare type on each side still lines up structurally.
func variations(tok string) map[string]bool {
	v := map[string]bool{tok: true}

	if n, err := strconv.Atoi(tok); err == nil && n > 0 {
		ord := tok + ordinalSuffix(n)
		v[ord] = true
		if w, ok := numToWord[ord]; ok {
			v[w] = true
		}
	}

	if numPart, ok := splitOrdinal(tok); ok {
		v[numPart] = true
		if w, ok := numToWord[tok]; ok {
			v[w] = true
		}
	}

	if num, ok := ordinalWords[tok]; ok {
		v[num] = true
		v[strings.TrimRight(num, "STNDRH")] = true
	}

	if long, ok := directionalLong[tok]; ok {
		v[long] = true
	}
	if short, ok := directionalShort[tok]; ok {
		v[short] = true
	}

	if genericStreetTypes[tok] {
		v[markerStreetType] = true
	}

	return v
}

const markerStreetType = "\x00TYPE"

// splitOrdinal returns the numeric part of tokens like "33RD". The suffix
// must be the correct one for the number.
func splitOrdinal(tok string) (string, bool) {
	if len(tok) < 3 {
		return "", false
	}
	numPart := tok[:len(tok)-2]
	suffix := tok[len(tok)-2:]
	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return "", false
	}
	if suffix != ordinalSuffix(n) {
		return "", false
	}
	return numPart, true
}
