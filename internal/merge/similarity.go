package merge

import "strings"

// nameTokens splits a name into uppercase word tokens.
func nameTokens(name string) []string {
	return strings.Fields(strings.ToUpper(name))
}

// tokenSimilarity is the share of tokens from a that also appear in b.
func tokenSimilarity(a, b string) float64 {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(tb))
	for _, t := range tb {
		set[t] = true
	}
	hits := 0
	for _, t := range ta {
		if set[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(ta))
}

// jaccard is the word-set Jaccard similarity of two names.
func jaccard(a, b string) float64 {
	sa := map[string]bool{}
	for _, t := range nameTokens(a) {
		sa[t] = true
	}
	sb := map[string]bool{}
	for _, t := range nameTokens(b) {
		sb[t] = true
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for t := range sa {
		if sb[t] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// prefixMatch reports whether the first n letters of both compacted names
// agree. Shorter names must match in full.
func prefixMatch(a, b string, n int) bool {
	ca := compact(a)
	cb := compact(b)
	if ca == "" || cb == "" {
		return false
	}
	if len(ca) < n || len(cb) < n {
		return ca == cb
	}
	return ca[:n] == cb[:n]
}

func compact(name string) string {
	return strings.Join(nameTokens(name), "")
}
