package rpc

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// cacheTTL is how long a winner is reused before re-benchmarking.
const cacheTTL = 5 * time.Minute

// Benchmark pings every URL in parallel. Results keep the input order.
func Benchmark(ctx context.Context, urls []string, wantChainID int64) []Endpoint {
	results := make([]Endpoint, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = HealthCheck(ctx, u, wantChainID)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Best returns the fastest healthy, non-stale endpoint.
func Best(endpoints []Endpoint) (Endpoint, error) {
	var bestBlock uint64
	for _, e := range endpoints {
		if e.Healthy() && e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var winner *Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Healthy() {
			continue
		}
		if bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if winner == nil || e.Latency < winner.Latency {
			winner = e
		}
	}
	if winner == nil {
		return Endpoint{}, ErrNoHealthyRPC
	}
	return *winner, nil
}

// Selector caches the best endpoint per chain.
type Selector struct {
	mu    sync.Mutex
	cache map[int64]cached
	now   func() time.Time
	bench func(ctx context.Context, urls []string, chainID int64) []Endpoint
}

type cached struct {
	url     string
	expires time.Time
}

// NewSelector returns a Selector that benchmarks with Benchmark.
func NewSelector() *Selector {
	return &Selector{
		cache: make(map[int64]cached),
		now:   time.Now,
		bench: Benchmark,
	}
}

// Select returns the best URL for chainID. A single URL is returned without
// a benchmark.
func (s *Selector) Select(ctx context.Context, chainID int64, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoHealthyRPC
	}
	if len(urls) == 1 {
		return urls[0], nil
	}

	s.mu.Lock()
	c, ok := s.cache[chainID]
	s.mu.Unlock()
	if ok && s.now().Before(c.expires) {
		return c.url, nil
	}

	winner, err := Best(s.bench(ctx, urls, chainID))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[chainID] = cached{url: winner.URL, expires: s.now().Add(cacheTTL)}
	s.mu.Unlock()
	return winner.URL, nil
}

// Invalidate drops the cached winner for chainID.
func (s *Selector) Invalidate(chainID int64) {
	s.mu.Lock()
	delete(s.cache, chainID)
	s.mu.Unlock()
}
