package chain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Network keys accepted in config and environment.
const (
	Sepolia = "SEPOLIA"
	Amoy    = "AMOY"
	Polygon = "POLYGON"
)

// NativeCurrency describes a chain's gas token in the shape wallets expect for
// wallet_addEthereumChain.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// VRF holds the Chainlink VRF deployment for a network.
type VRF struct {
	Coordinator string `json:"coordinator"`
	LinkToken   string `json:"link_token"`
	KeyHash     string `json:"key_hash"`
}

// Network holds all metadata for one supported chain.
type Network struct {
	Key            string         `json:"key"`
	Name           string         `json:"name"`
	ChainID        int64          `json:"chain_id"`
	HexChainID     string         `json:"hex_chain_id"`
	RPCURLs        []string       `json:"rpc_urls"`
	BlockExplorer  string         `json:"block_explorer"`
	NativeCurrency NativeCurrency `json:"native_currency"`
	VRF            VRF            `json:"vrf"`
	// GasBumpPercent is added on top of the suggested gas price for writes.
	GasBumpPercent int64 `json:"gas_bump_percent,omitempty"`
}

// RPCURL returns the first configured RPC endpoint.
func (n *Network) RPCURL() string {
	if len(n.RPCURLs) == 0 {
		return ""
	}
	return n.RPCURLs[0]
}

// AddressURL returns the explorer page for an account or contract.
func (n *Network) AddressURL(addr string) string {
	return strings.TrimRight(n.BlockExplorer, "/") + "/address/" + addr
}

// Registry is the static network table.
type Registry struct {
	networks []Network
	byKey    map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry returns the registry of the three supported networks.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byKey:    make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byKey[n.Key] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// All returns every network, SEPOLIA first.
func (r *Registry) All() []Network {
	return r.networks
}

// Get finds a network by key (case-insensitive).
func (r *Registry) Get(key string) (*Network, error) {
	n, ok := r.byKey[strings.ToUpper(strings.TrimSpace(key))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, key)
	}
	return n, nil
}

// GetByChainID finds a network by numeric chain id.
func (r *Registry) GetByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: chain id %d", ErrNetworkNotFound, id)
	}
	return n, nil
}

// Active resolves the configured network. Unknown or empty keys fall back to
// SEPOLIA.
func (r *Registry) Active(key string) *Network {
	if n, err := r.Get(key); err == nil {
		return n
	}
	return &r.networks[0]
}

// WithRPCOverride returns a copy of n whose RPC list starts with urls.
func (n Network) WithRPCOverride(urls []string) Network {
	if len(urls) == 0 {
		return n
	}
	merged := make([]string, 0, len(urls)+len(n.RPCURLs))
	merged = append(merged, urls...)
	for _, u := range n.RPCURLs {
		dup := false
		for _, o := range urls {
			if o == u {
				dup = true
				break
			}
		}
		if !dup {
			merged = append(merged, u)
		}
	}
	n.RPCURLs = merged
	return n
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			Key: Sepolia, Name: "Sepolia", ChainID: 11155111, HexChainID: "0xaa36a7",
			RPCURLs:        []string{"https://ethereum-sepolia-rpc.publicnode.com", "https://sepolia.gateway.tenderly.co"},
			BlockExplorer:  "https://sepolia.etherscan.io",
			NativeCurrency: NativeCurrency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
			VRF: VRF{
				Coordinator: "0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625",
				LinkToken:   "0x779877A7B0D9E8603169DdbD7836e478b4624789",
				KeyHash:     "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c",
			},
		},
		{
			Key: Amoy, Name: "Amoy", ChainID: 80002, HexChainID: "0x13882",
			RPCURLs:        []string{"https://rpc-amoy.polygon.technology", "https://polygon-amoy-bor-rpc.publicnode.com"},
			BlockExplorer:  "https://www.oklink.com/amoy",
			NativeCurrency: NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18},
			VRF: VRF{
				Coordinator: "0x343300b5d84D444B2ADc9116FEF1bED02BE49Cf2",
				LinkToken:   "0x0Fd9e8d3aF1aaee056EB9e802c3A762a667b1904",
				KeyHash:     "0x816bedba8a50b294e5cbd47842baf240c2385f2eaf719edbd4f250a137a8c899",
			},
			GasBumpPercent: 10,
		},
		{
			Key: Polygon, Name: "Polygon", ChainID: 137, HexChainID: "0x89",
			RPCURLs:        []string{"https://polygon-rpc.com", "https://polygon-bor-rpc.publicnode.com"},
			BlockExplorer:  "https://polygonscan.com",
			NativeCurrency: NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18},
			VRF: VRF{
				Coordinator: "0xAE975071Be8F8eE67addBC1A82488F1C24858067",
				LinkToken:   "0xb0897686c545045aFc77CF20eC7A532E3120E0F1",
				KeyHash:     "0xcc294a196eeeb44da2888d17c0625cc88d70d9760a69d58d853ba6581a9ab0cd",
			},
			GasBumpPercent: 10,
		},
	}
}
