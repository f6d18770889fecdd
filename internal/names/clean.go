// Package names reduces raw owner strings to a canonical FIRST LAST form
// and rejects business entities.
package names

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/names.yaml
var namesYAML []byte

// lists holds the curated name data loaded at init.
type lists struct {
	FirstNames       []string `yaml:"first_names"`
	Surnames         []string `yaml:"surnames"`
	SurnamePrefixes  []string `yaml:"surname_prefixes"`
	BusinessSuffixes []string `yaml:"business_suffixes"`
	Titles           []string `yaml:"titles"`
	GenSuffixes      []string `yaml:"generational_suffixes"`
	NMISentinels     []string `yaml:"nmi_sentinels"`
	BusinessKeywords []string `yaml:"business_keywords"`
}

var (
	firstNames       map[string]bool
	surnames         map[string]bool
	surnamePrefixes  map[string]bool
	businessSuffixes map[string]bool
	titles           map[string]bool
	genSuffixes      map[string]bool
	nmiSentinels     map[string]bool
	businessKeywords []string
)

func init() {
	var l lists
	if err := yaml.Unmarshal(namesYAML, &l); err != nil {
		panic("names: parse embedded lists: " + err.Error())
	}
	firstNames = toSet(l.FirstNames)
	surnames = toSet(l.Surnames)
	surnamePrefixes = toSet(l.SurnamePrefixes)
	businessSuffixes = toSet(l.BusinessSuffixes)
	titles = toSet(l.Titles)
	genSuffixes = toSet(l.GenSuffixes)
	nmiSentinels = toSet(l.NMISentinels)
	businessKeywords = l.BusinessKeywords
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// Clean reduces a raw owner string to exactly two uppercase tokens,
// "FIRST LAST". It returns "" when no plausible personal name survives:
// business entities, empty input, or a single surviving token.
func Clean(raw string) string {
	s := strings.ToUpper(raw)
	s = strings.NewReplacer(`"`, "", "'", "", "`", "", "-", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	if isBusiness(s) {
		return ""
	}

	var first, last string
	if i := strings.Index(s, ","); i >= 0 {
		// LAST, FIRST [MIDDLE ...]
		lastTokens := stripNoise(strings.Fields(s[:i]))
		firstTokens := stripNoise(strings.Fields(s[i+1:]))
		if len(lastTokens) == 0 || len(firstTokens) == 0 {
			return ""
		}
		last = joinSurname(lastTokens)
		first = firstTokens[0]
	} else {
		tokens := stripNoise(strings.Fields(s))
		if len(tokens) < 2 {
			return ""
		}
		if len(tokens) >= 3 {
			tokens = groupSurnamePrefixes(tokens)
		}
		if len(tokens) < 2 {
			return ""
		}
		// Surname-first heuristic: swap only when tokens[0] is
		// unambiguously a surname, so a second pass is a no-op.
		if surnames[tokens[0]] && !firstNames[tokens[0]] && firstNames[tokens[1]] {
			first, last = tokens[1], tokens[0]
		} else {
			first, last = tokens[0], tokens[len(tokens)-1]
		}
	}

	if !hasLetter(first) || !hasLetter(last) {
		return ""
	}
	return first + " " + last
}

// isBusiness reports whether the string matches a business-entity keyword
// and contains no curated first name to rescue it.
func isBusiness(s string) bool {
	hit := false
	for _, kw := range businessKeywords {
		if containsToken(s, kw) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, tok := range strings.Fields(s) {
		if firstNames[strings.TrimSuffix(tok, ",")] {
			return false
		}
	}
	return true
}

// containsToken matches kw against s on word boundaries. kw may itself
// contain a space ("CITY OF").
func containsToken(s, kw string) bool {
	padded := " " + s + " "
	return strings.Contains(padded, " "+kw+" ") || strings.HasSuffix(padded, " "+kw+", ")
}

// stripNoise drops business suffixes, titles, generational suffixes,
// no-middle-name sentinels, and single-letter middle initials.
func stripNoise(tokens []string) []string {
	kept := tokens[:0:0]
	for _, tok := range tokens {
		t := strings.TrimSuffix(tok, ".")
		t = strings.TrimSuffix(t, ",")
		if t == "" {
			continue
		}
		if businessSuffixes[t] || titles[t] || genSuffixes[t] || nmiSentinels[t] {
			continue
		}
		kept = append(kept, t)
	}

	// Drop single-letter initials only while two real tokens remain.
	multi := 0
	for _, t := range kept {
		if len(t) > 1 {
			multi++
		}
	}
	if multi < 2 {
		return kept
	}
	out := kept[:0:0]
	for _, t := range kept {
		if len(t) == 1 {
			continue
		}
		out = append(out, t)
	}
	return out
}

// groupSurnamePrefixes collapses DE/VAN/MC-style prefixes into the token
// that follows them, so "JUAN DE LA CRUZ" ends as ["JUAN", "DELACRUZ"].
func groupSurnamePrefixes(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		// Never treat the leading token as a prefix: it is the first name.
		if i > 0 && surnamePrefixes[tokens[i]] && i+1 < len(tokens) {
			merged := tokens[i]
			for i+1 < len(tokens) {
				i++
				merged += tokens[i]
				if !surnamePrefixes[tokens[i]] {
					break
				}
			}
			out = append(out, merged)
			continue
		}
		out = append(out, tokens[i])
	}
	return out
}

// joinSurname collapses a multi-token surname part into a single token.
func joinSurname(tokens []string) string {
	if len(tokens) == 1 {
		return tokens[0]
	}
	return strings.Join(tokens, "")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
