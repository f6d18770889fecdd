package peoplesearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCard = `John Smith
Age 52
Lives in Hollywood, FL
Last Known Address
5920 SW 33rd Ave
Hollywood, FL 33312
Last Known Phone Numbers
(954) 555-0001 Mobile, primary phone, first reported 2015
(954) 555-0002 Landline, first reported 2012
(954) 555-0003 Wireless, first reported 2019
(954) 555-0003 Wireless, duplicate listing
Past Addresses
100 Ocean Blvd
Miami, FL 33101
(305) 555-9999 Landline
Associated Email
jsmith@example.com`

func TestCandidateAddresses(t *testing.T) {
	got := CandidateAddresses(sampleCard)
	assert.Contains(t, got, "5920 SW 33rd Ave")
	assert.Contains(t, got, "Hollywood, FL 33312")
	assert.Contains(t, got, "100 Ocean Blvd")
	assert.NotContains(t, got, "Age 52")
	assert.NotContains(t, got, "jsmith@example.com")
}

func TestMatchCard(t *testing.T) {
	addr, conf, ok := MatchCard(sampleCard, "JOHN", "SMITH", "5920 SOUTHWEST 33 AVENUE, HOLLYWOOD")
	require.True(t, ok)
	assert.Equal(t, "5920 SW 33rd Ave", addr)
	assert.GreaterOrEqual(t, conf, 70)
}

func TestMatchCardRejectsWrongName(t *testing.T) {
	_, _, ok := MatchCard(sampleCard, "MARY", "JONES", "5920 SW 33RD AVE, HOLLYWOOD")
	assert.False(t, ok)
}

func TestMatchCardRejectsWrongAddress(t *testing.T) {
	_, _, ok := MatchCard(sampleCard, "JOHN", "SMITH", "777 UNRELATED RD, DAVIE")
	assert.False(t, ok)
}

func TestParseCardMobileOnly(t *testing.T) {
	rec, ok := ParseCard(sampleCard, 7, "5920 SW 33rd Ave", 95)
	require.True(t, ok)

	assert.Equal(t, 7, rec.OriginalIndex)
	assert.Equal(t, "5920 SW 33rd Ave", rec.MatchedAddress)
	assert.Equal(t, 95, rec.MatchConfidence)

	// The landline and everything outside the phone section are excluded;
	// the duplicate wireless listing is collapsed.
	assert.Equal(t, []string{"(954) 555-0001", "(954) 555-0003"}, rec.AllPhones)
	assert.Equal(t, "(954) 555-0001", rec.PrimaryPhone, "explicit primary marker wins")
	assert.Equal(t, "(954) 555-0003", rec.SecondaryPhone)
}

func TestParseCardPrimaryDefaultsToFirst(t *testing.T) {
	card := `Jane Doe
Last Known Phone Numbers
(786) 555-0001 Mobile
(786) 555-0002 VoIP
Last Known Address
1 Main St`
	rec, ok := ParseCard(card, 0, "1 Main St", 70)
	require.True(t, ok)
	assert.Equal(t, "(786) 555-0001", rec.PrimaryPhone)
	assert.Equal(t, "(786) 555-0002", rec.SecondaryPhone)
}

func TestParseCardNoPhoneSection(t *testing.T) {
	card := `John Smith
Last Known Address
5920 SW 33rd Ave
(954) 555-0001 Mobile`
	_, ok := ParseCard(card, 0, "5920 SW 33rd Ave", 90)
	assert.False(t, ok, "numbers outside the phone section are never used")
}

func TestPhoneSectionBounds(t *testing.T) {
	section := phoneSection(sampleCard)
	assert.Contains(t, section, "(954) 555-0001")
	assert.NotContains(t, section, "(305) 555-9999")
	assert.NotContains(t, section, "Past Addresses")
}
