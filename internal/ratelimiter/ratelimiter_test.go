package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name              string
		requestsPerSecond uint
		burst             uint
	}{
		{name: "standard rate", requestsPerSecond: 100, burst: 200},
		{name: "low rate", requestsPerSecond: 1, burst: 2},
		{name: "unlimited (zero rate)", requestsPerSecond: 0, burst: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.requestsPerSecond, tt.burst)
			require.NotNil(t, limiter)
			require.NotNil(t, limiter.limiter)
		})
	}
}

func TestAllow(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(), "request %d should be allowed (within burst)", i)
	}
	assert.False(t, limiter.Allow(), "request beyond burst should be rejected")
}

func TestWaitContextCancellation(t *testing.T) {
	limiter := New(1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx))
}

func TestAllowN(t *testing.T) {
	limiter := New(10, 10)

	assert.True(t, limiter.AllowN(6))
	assert.False(t, limiter.AllowN(6))
	assert.True(t, limiter.AllowN(4))
}

func TestUnlimitedRate(t *testing.T) {
	limiter := New(0, 0)
	for i := 0; i < 10000; i++ {
		require.True(t, limiter.Allow())
	}
	assert.Greater(t, limiter.Tokens(), float64(0))
}

func TestKeyedLimiter_IsolatesKeys(t *testing.T) {
	limiter := NewKeyed(1, 2, time.Minute)

	assert.True(t, limiter.Allow("alice"))
	assert.True(t, limiter.Allow("alice"))
	assert.False(t, limiter.Allow("alice"), "alice exhausted her burst")

	assert.True(t, limiter.Allow("bob"), "bob has his own bucket")
	assert.Equal(t, 2, limiter.Len())
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	limiter := NewKeyed(0, 0, time.Minute)
	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow("alice"))
	}
	assert.Equal(t, 0, limiter.Len())
}

func TestKeyedLimiter_EvictsIdleBuckets(t *testing.T) {
	limiter := NewKeyed(5, 5, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.Allow("alice")
	limiter.Allow("bob")
	require.Equal(t, 2, limiter.Len())

	now = now.Add(2 * time.Minute)
	limiter.Allow("bob")

	assert.Equal(t, 1, limiter.Len())
}

func BenchmarkKeyedAllow(b *testing.B) {
	limiter := NewKeyed(1_000_000, 1_000_000, time.Minute)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("alice")
	}
}
