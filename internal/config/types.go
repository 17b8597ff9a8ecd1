package config

// Provider kinds accepted in the "provider" field.
const (
	ProviderLocal = "local"
	ProviderRPC   = "rpc"
)

// Config holds all w3giveaway configuration.
type Config struct {
	Network            string              `json:"network"`
	ContractAddress    string              `json:"contract_address"`
	Provider           string              `json:"provider"`               // "local" | "rpc"
	ProviderURL        string              `json:"provider_url,omitempty"` // external wallet endpoint for "rpc"
	CustomRPCs         map[string][]string `json:"rpc_urls"`
	DefaultWallet      string              `json:"default_wallet"`
	AuthRefreshSeconds int                 `json:"auth_refresh_seconds"`
	SelectedGiveaway   *uint64             `json:"selected_giveaway,omitempty"`
	Logging            LoggingConfig       `json:"logging"`

	// internal: config dir path used for Save()
	configDir string
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level      string `json:"level"`       // debug | info | warn | error
	Format     string `json:"format"`      // console | json
	OutputPath string `json:"output_path"` // file path, "stderr" or "stdout"
}

// Wallet represents a stored wallet entry.
type Wallet struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`              // "watch-only" | "signing"
	KeyRef    string `json:"key_ref,omitempty"` // keychain reference for signing wallets
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

// WalletsFile is the structure of wallets.json.
type WalletsFile struct {
	Wallets []Wallet `json:"wallets"`
}

// SessionFile is the structure of session.json, the local provider's
// persisted wallet state.
type SessionFile struct {
	// Authorized lists accounts approved via eth_requestAccounts.
	Authorized []string `json:"authorized"`
	// ChainID is the hex chain id the wallet is switched to.
	ChainID string `json:"chain_id"`
	// AddedChains lists hex chain ids registered with wallet_addEthereumChain.
	AddedChains []string `json:"added_chains"`
	// Disconnected is set by the disconnect command so later invocations
	// skip silent recovery until the next connect.
	Disconnected bool `json:"disconnected"`
}
