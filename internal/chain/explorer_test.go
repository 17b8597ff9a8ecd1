package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
	"github.com/stretchr/testify/assert"
)

func TestExplorerTxURL(t *testing.T) {
	tests := []struct {
		network string
		want    string
	}{
		{"SEPOLIA", "https://sepolia.etherscan.io/tx/0xabc"},
		{"sepolia", "https://sepolia.etherscan.io/tx/0xabc"},
		{"Amoy", "https://www.oklink.com/amoy/tx/0xabc"},
		{"polygon", "https://polygonscan.com/tx/0xabc"},
		{"MUMBAI", "https://sepolia.etherscan.io/tx/0xabc"},
		{"", "https://sepolia.etherscan.io/tx/0xabc"},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			assert.Equal(t, tt.want, chain.ExplorerTxURL(tt.network, "0xabc"))
		})
	}
}
