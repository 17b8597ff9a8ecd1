// Package rpc picks a responsive JSON-RPC endpoint for the active network.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrNoHealthyRPC is returned when no endpoint answered.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

const (
	pingTimeout = 5 * time.Second
	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// Endpoint is one RPC URL with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	ChainID     int64
	Err         error
}

// Healthy reports whether the ping succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// HealthCheck dials url and measures one eth_blockNumber round trip. When
// wantChainID is non-zero the endpoint must also report that chain.
func HealthCheck(ctx context.Context, url string, wantChainID int64) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ep := Endpoint{URL: url}
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		ep.Err = fmt.Errorf("dial: %w", err)
		return ep
	}
	defer client.Close()

	start := time.Now()
	block, err := client.BlockNumber(ctx)
	ep.Latency = time.Since(start)
	if err != nil {
		ep.Err = fmt.Errorf("block number: %w", err)
		return ep
	}
	ep.BlockNumber = block

	if wantChainID != 0 {
		id, err := client.ChainID(ctx)
		if err != nil {
			ep.Err = fmt.Errorf("chain id: %w", err)
			return ep
		}
		ep.ChainID = id.Int64()
		if ep.ChainID != wantChainID {
			ep.Err = fmt.Errorf("endpoint serves chain %d, want %d", ep.ChainID, wantChainID)
		}
	}
	return ep
}
