package proxy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePool(t *testing.T) {
	pool, err := ParsePool("p1.example.com:8000:user1:pass1, p2.example.com:8000:user2:pass2")
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Size())
	assert.False(t, pool.Empty())
}

func TestParsePoolEmpty(t *testing.T) {
	pool, err := ParsePool("  ")
	require.NoError(t, err)
	assert.True(t, pool.Empty())

	_, ok := pool.Session()
	assert.False(t, ok, "empty pool yields no session")
}

func TestParsePoolMalformed(t *testing.T) {
	_, err := ParsePool("host:8000:user")
	assert.Error(t, err)
}

func TestSessionEmbedsToken(t *testing.T) {
	pool, err := ParsePool("p1.example.com:8000:user1:secret")
	require.NoError(t, err)

	px, ok := pool.Session()
	require.True(t, ok)
	assert.Equal(t, "p1.example.com", px.Host)
	assert.True(t, strings.HasPrefix(px.Pass, "secret-session-"))
	assert.Len(t, strings.TrimPrefix(px.Pass, "secret-session-"), 8)
}

func TestSessionsAreDistinct(t *testing.T) {
	pool, err := ParsePool("p1.example.com:8000:user1:secret")
	require.NoError(t, err)

	a, _ := pool.Session()
	b, _ := pool.Session()
	assert.NotEqual(t, a.Pass, b.Pass)
}

func TestEmbedSessionReplacesExisting(t *testing.T) {
	out := embedSession("cred-session-aaaaaaaa", "bbbbbbbb")
	assert.Equal(t, "cred-session-bbbbbbbb", out)
}

func TestProxyURL(t *testing.T) {
	p := Proxy{Host: "p1.example.com", Port: "8000", User: "u", Pass: "pw"}
	assert.Equal(t, "http://u:pw@p1.example.com:8000", p.URL())

	anon := Proxy{Host: "p1.example.com", Port: "8000"}
	assert.Equal(t, "http://p1.example.com:8000", anon.URL())
}
