package ratelimiter

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowConsumesBurst(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client-a"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("client-a"), "burst exhausted")
}

func TestAllowIsolatesSources(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 1})

	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-b"))
}

func TestRemainingTracksConsumption(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 5})

	assert.Equal(t, 5, rl.Remaining("client-a"))
	require.True(t, rl.Allow("client-a"))
	assert.Equal(t, 4, rl.Remaining("client-a"))
}

func TestGetSourceKeyPrefersHeader(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, SourceHeaderKey: "X-Forwarded-For"})

	r, err := http.NewRequest(http.MethodGet, "/api/rooms", nil)
	require.NoError(t, err)
	r.RemoteAddr = "10.0.0.1:1234"

	assert.Equal(t, "10.0.0.1:1234", rl.GetSourceKey(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", rl.GetSourceKey(r))
}

func TestDefaults(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 7})

	assert.Equal(t, 7, rl.GetMaxBurst())
}
