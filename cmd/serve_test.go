package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorsOptionsConcreteOrigin(t *testing.T) {
	opts := corsOptions("https://app.example.com")
	assert.Equal(t, []string{"https://app.example.com"}, opts.AllowedOrigins)
	assert.True(t, opts.AllowCredentials)
}

func TestCorsOptionsWildcardDropsCredentials(t *testing.T) {
	opts := corsOptions("*")
	assert.Equal(t, []string{"*"}, opts.AllowedOrigins)
	assert.False(t, opts.AllowCredentials, "browsers reject credentials with a wildcard origin")
}

func TestDrainContextOutlivesSignal(t *testing.T) {
	ctx, cancel := drainContext()
	defer cancel()

	require.NoError(t, ctx.Err(), "drain context starts uncanceled")
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Greater(t, time.Until(deadline), 10*time.Second)
}
