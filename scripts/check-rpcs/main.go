// check-rpcs: pings every built-in RPC endpoint of the supported networks
// in parallel and prints a health summary.
//
// Run from the module root:
//
//	go run ./scripts/check-rpcs
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
	"github.com/Mohsinsiddi/w3giveaway/internal/rpc"
)

const timeout = 20 * time.Second

func main() {
	reg := chain.NewRegistry()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NETWORK\tRPC\tLATENCY\tBLOCK\tSTATUS")

	unhealthy := 0
	for _, n := range reg.All() {
		results := rpc.Benchmark(ctx, n.RPCURLs, n.ChainID)
		best, bestErr := rpc.Best(results)
		for _, r := range results {
			status := "ok"
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			switch {
			case r.Err != nil:
				status = "down: " + r.Err.Error()
				latency, block = "-", "-"
			case bestErr == nil && r.URL == best.URL:
				status = "fastest"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.Key, r.URL, latency, block, status)
		}
		if bestErr != nil {
			unhealthy++
		}
	}
	w.Flush() //nolint:errcheck

	if unhealthy > 0 {
		fmt.Fprintf(os.Stderr, "\n%d network(s) without a healthy RPC\n", unhealthy)
		os.Exit(1)
	}
}
