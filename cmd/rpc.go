package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
	"github.com/Mohsinsiddi/w3giveaway/internal/rpc"
	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage RPC endpoints",
}

// lookupNetwork resolves an optional network argument, defaulting to the
// active network.
func lookupNetwork(args []string) (*chain.Network, error) {
	if len(args) == 0 {
		return a.Registry.Active(a.Config.Network), nil
	}
	n, err := a.Registry.Get(args[0])
	if err != nil {
		return nil, fmt.Errorf("unknown network %q", args[0])
	}
	return n, nil
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <network> <url>",
	Short: "Add a custom RPC URL for a network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := lookupNetwork(args[:1])
		if err != nil {
			return err
		}
		if err := a.Config.AddRPC(n.Key, args[1]); err != nil {
			return err
		}
		if err := a.Config.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(n.Name), args[1])))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <network> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := lookupNetwork(args[:1])
		if err != nil {
			return err
		}
		if err := a.Config.RemoveRPC(n.Key, args[1]); err != nil {
			return err
		}
		if err := a.Config.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", n.Name, args[1])))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list [network]",
	Short: "List the RPCs for a network",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := lookupNetwork(args)
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleTitle.Render("RPCs for " + n.Name))

		custom := a.Config.GetRPCs(n.Key)
		if len(custom) > 0 {
			fmt.Println(ui.StyleHeader.Render("Custom RPCs:"))
			for _, r := range custom {
				fmt.Printf("  %s\n", r)
			}
		}
		fmt.Println(ui.StyleHeader.Render("Built-in RPCs:"))
		for _, r := range n.RPCURLs {
			fmt.Printf("  %s\n", r)
		}
		return nil
	},
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark [network]",
	Short: "Benchmark every RPC for a network",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := lookupNetwork(args)
		if err != nil {
			return err
		}
		urls := n.WithRPCOverride(a.Config.GetRPCs(n.Key)).RPCURLs

		fmt.Printf("%s\n\n", ui.StyleTitle.Render(fmt.Sprintf("Benchmarking %s RPCs...", n.Name)))

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		results := rpc.Benchmark(ctx, urls, n.ChainID)
		best, bestErr := rpc.Best(results)

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 44},
			{Title: "Latency", Width: 10},
			{Title: "Block #", Width: 12},
			{Title: "Status", Width: 10},
		})
		for _, r := range results {
			status := ui.Success("healthy")
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			if r.Err != nil {
				status = ui.Err("down")
				latency = "-"
				block = "-"
			} else if bestErr == nil && r.URL == best.URL {
				status = ui.Success("fastest")
			}
			t.AddRow(ui.Row{r.URL, latency, block, status})
		}
		fmt.Println(t.Render())
		if bestErr != nil {
			return bestErr
		}
		return nil
	},
}

func init() {
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcBenchmarkCmd)
}
