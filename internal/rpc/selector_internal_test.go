package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorCachesWinner(t *testing.T) {
	calls := 0
	now := time.Unix(1000, 0)
	s := &Selector{
		cache: make(map[int64]cached),
		now:   func() time.Time { return now },
		bench: func(_ context.Context, urls []string, _ int64) []Endpoint {
			calls++
			return []Endpoint{
				{URL: urls[0], Latency: 90 * time.Millisecond, BlockNumber: 100},
				{URL: urls[1], Latency: 20 * time.Millisecond, BlockNumber: 100},
			}
		},
	}
	urls := []string{"http://slow", "http://fast"}

	got, err := s.Select(context.Background(), 137, urls)
	require.NoError(t, err)
	assert.Equal(t, "http://fast", got)

	_, _ = s.Select(context.Background(), 137, urls)
	assert.Equal(t, 1, calls, "second select is served from cache")

	now = now.Add(cacheTTL + time.Second)
	_, _ = s.Select(context.Background(), 137, urls)
	assert.Equal(t, 2, calls, "expired cache re-benchmarks")

	s.Invalidate(137)
	_, _ = s.Select(context.Background(), 137, urls)
	assert.Equal(t, 3, calls)
}

func TestSelectorAllUnhealthy(t *testing.T) {
	s := &Selector{
		cache: make(map[int64]cached),
		now:   time.Now,
		bench: func(_ context.Context, urls []string, _ int64) []Endpoint {
			out := make([]Endpoint, len(urls))
			for i, u := range urls {
				out[i] = Endpoint{URL: u, Err: errors.New("refused")}
			}
			return out
		},
	}
	_, err := s.Select(context.Background(), 1, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}
