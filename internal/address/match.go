package address

import "fmt"

// MatchResult reports whether two addresses refer to the same street
// address, with a 0-100 confidence.
type MatchResult struct {
	Matched       bool     `json:"matched"`
	Confidence    int      `json:"confidence"`
	Reason        string   `json:"reason"`
	MatchedTokens []string `json:"matched_tokens,omitempty"`
}

// Confidence constants for the fixed-outcome paths.
const (
	confidenceFloor       = 70
	confidenceGenericOnly = 30
	houseNumberBonus      = 20
	multiMatchBonus       = 10
)

// Match scores two addresses for equivalence. The house number (first
// token) is a hard gate; the remaining tokens are compared through
// variation sets covering ordinal and directional spellings. Match is
// symmetric in a and b.
func Match(a, b string) MatchResult {
	tokensA := Tokens(a)
	tokensB := Tokens(b)

	if len(tokensA) < 2 || len(tokensB) < 2 {
		return MatchResult{Reason: "too few tokens"}
	}

	if tokensA[0] != tokensB[0] {
		return MatchResult{Reason: "house number mismatch"}
	}

	restA := tokensA[1:]
	restB := tokensB[1:]

	varsB := make([]map[string]bool, len(restB))
	for i, tok := range restB {
		varsB[i] = variations(tok)
	}

	consumed := make([]bool, len(restB))
	var matched []string
	for _, tokA := range restA {
		varsA := variations(tokA)
		for i := range restB {
			if consumed[i] {
				continue
			}
			if intersects(varsA, varsB[i]) {
				consumed[i] = true
				matched = append(matched, tokA)
				break
			}
		}
	}

	maxTokens := len(tokensA)
	if len(tokensB) > maxTokens {
		maxTokens = len(tokensB)
	}

	required := 2
	if maxTokens <= 3 {
		required = 1
	}

	if len(matched) < required {
		return MatchResult{
			Reason:        fmt.Sprintf("%d of %d required tokens matched", len(matched), required),
			MatchedTokens: matched,
		}
	}

	if allGeneric(matched) {
		return MatchResult{
			Confidence:    confidenceGenericOnly,
			Reason:        "only generic street type matched",
			MatchedTokens: matched,
		}
	}

	confidence := len(matched) * 100 / maxTokens
	if confidence > 100 {
		confidence = 100
	}
	confidence += houseNumberBonus
	if len(matched) >= 2 {
		confidence += multiMatchBonus
	}
	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}
	if confidence > 100 {
		confidence = 100
	}

	return MatchResult{
		Matched:       true,
		Confidence:    confidence,
		Reason:        fmt.Sprintf("%d tokens matched", len(matched)),
		MatchedTokens: matched,
	}
}

func intersects(a, b map[string]bool) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

func allGeneric(tokens []string) bool {
	for _, t := range tokens {
		if !genericStreetTypes[t] {
			return false
		}
	}
	return len(tokens) > 0
}
