package chain

import (
	"fmt"
	"strings"
)

// explorerTxTemplates maps a network key to its transaction page template.
// The first entry is the fallback for unknown names.
var explorerTxTemplates = []struct {
	key      string
	template string
}{
	{Sepolia, "https://sepolia.etherscan.io/tx/%s"},
	{Amoy, "https://www.oklink.com/amoy/tx/%s"},
	{Polygon, "https://polygonscan.com/tx/%s"},
}

// ExplorerTxURL returns the block-explorer link for txID on the named network.
// Matching is case-insensitive; unrecognised names use the SEPOLIA template.
func ExplorerTxURL(networkName, txID string) string {
	name := strings.ToUpper(strings.TrimSpace(networkName))
	for _, e := range explorerTxTemplates {
		if e.key == name {
			return fmt.Sprintf(e.template, txID)
		}
	}
	return fmt.Sprintf(explorerTxTemplates[0].template, txID)
}
