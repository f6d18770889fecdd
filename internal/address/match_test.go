package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAcceptsVariantSpellings(t *testing.T) {
	res := Match("5920 SW 33RD AVE", "5920 SOUTHWEST 33 AVENUE")
	require.True(t, res.Matched)
	assert.GreaterOrEqual(t, res.Confidence, 70)
	assert.Contains(t, res.MatchedTokens, "SW")
	assert.Contains(t, res.MatchedTokens, "33RD")
}

func TestMatchHouseNumberGate(t *testing.T) {
	res := Match("123 MAIN ST", "124 MAIN ST")
	assert.False(t, res.Matched)
	assert.Equal(t, 0, res.Confidence)
}

func TestMatchGenericOnlyDowngraded(t *testing.T) {
	res := Match("500 ST", "500 AVE")
	assert.False(t, res.Matched)
	assert.Equal(t, 30, res.Confidence)
}

func TestMatchTooFewTokens(t *testing.T) {
	res := Match("123", "123 MAIN ST")
	assert.False(t, res.Matched)
	assert.Equal(t, 0, res.Confidence)
}

func TestMatchRequiresTwoTokensOnLongAddresses(t *testing.T) {
	// Five tokens each, only the street type agrees.
	res := Match("100 NW GRAND CENTRAL PKWY", "100 SE OCEAN VIEW PKWY")
	assert.False(t, res.Matched)
}

func TestMatchExact(t *testing.T) {
	res := Match("123 MAIN ST", "123 MAIN ST")
	require.True(t, res.Matched)
	assert.Equal(t, 96, res.Confidence)
}

func TestMatchSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"5920 SW 33RD AVE", "5920 SOUTHWEST 33 AVENUE"},
		{"123 MAIN ST", "124 MAIN ST"},
		{"500 ST", "500 AVE"},
		{"100 OCEAN BLVD", "100 OCEAN BOULEVARD"},
	}
	for _, p := range pairs {
		ab := Match(p[0], p[1])
		ba := Match(p[1], p[0])
		assert.Equal(t, ab.Matched, ba.Matched, "%q vs %q", p[0], p[1])
		assert.Equal(t, ab.Confidence, ba.Confidence, "%q vs %q", p[0], p[1])
	}
}
