// Package app wires the console's singletons: config, logger, wallet
// provider, session, contract gateway, authorization gate, transaction
// tracker and giveaway selector.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3giveaway/internal/auth"
	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
	"github.com/Mohsinsiddi/w3giveaway/internal/config"
	"github.com/Mohsinsiddi/w3giveaway/internal/gateway"
	"github.com/Mohsinsiddi/w3giveaway/internal/giveaway"
	"github.com/Mohsinsiddi/w3giveaway/internal/provider"
	"github.com/Mohsinsiddi/w3giveaway/internal/rpc"
	"github.com/Mohsinsiddi/w3giveaway/internal/session"
	"github.com/Mohsinsiddi/w3giveaway/internal/txn"
	"github.com/Mohsinsiddi/w3giveaway/internal/wallet"
)

// Errors.
var (
	ErrNoContract    = errors.New("no contract address configured (set contract_address or W3GIVEAWAY_CONTRACT)")
	ErrNotConnected  = errors.New("wallet not connected (run `w3giveaway connect`)")
	ErrUnknownWallet = errors.New("unknown provider kind")
	ErrNotLocal      = errors.New("only the local wallet can do this; manage an rpc wallet's accounts in the wallet itself")
)

// Backend is a chain client the gateway can bind to.
type Backend interface {
	gateway.Backend
	Close()
}

// DialFunc opens a Backend for an RPC URL.
type DialFunc func(ctx context.Context, url string) (Backend, error)

// SelectFunc picks the RPC URL to dial among urls for chainID.
type SelectFunc func(ctx context.Context, chainID int64, urls []string) (string, error)

func dialEthclient(ctx context.Context, url string) (Backend, error) {
	return ethclient.DialContext(ctx, url)
}

// Options customise New. Zero values select the production wiring.
type Options struct {
	ConfigDir string
	Verbose   bool
	Approve   provider.ApproveFunc
	Keystore  wallet.KeystoreBackend
	Provider  provider.Provider
	Dial      DialFunc
	SelectRPC SelectFunc
	Getenv    func(string) string
	Logger    *zap.Logger
}

// App holds one instance of every component.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Registry  *chain.Registry
	Network   chain.Network
	Wallets   *wallet.Manager
	Provider  provider.Provider
	Session   *session.Manager
	Gateway   *gateway.Gateway
	Gate      *auth.Gate
	Tracker   *txn.Tracker
	Giveaways *giveaway.Selector

	ctx           context.Context
	selectRPC     SelectFunc
	invalidateRPC func(chainID int64)
	dial      DialFunc
	store     *markerStore
	contract  bool

	mu      sync.Mutex
	backend Backend
	unsub   func()
}

// New builds the application. ctx bounds background work such as the
// authorization refresh.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Getenv == nil {
		config.LoadDotEnv()
	}
	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(opts.Getenv)

	log := opts.Logger
	if log == nil {
		if opts.Verbose {
			cfg.Logging.Level = "debug"
			cfg.Logging.OutputPath = "stderr"
		}
		if log, err = config.NewLogger(cfg.Logging, cfg.Dir()); err != nil {
			return nil, err
		}
	}

	reg := chain.NewRegistry()
	active := reg.Active(cfg.Network)
	network := active.WithRPCOverride(cfg.GetRPCs(active.Key))

	ks := opts.Keystore
	if ks == nil {
		ks = wallet.DefaultKeystore(cfg.Dir())
	}
	wallets := wallet.NewManager(wallet.WithStore(wallet.NewConfigStore(cfg)), wallet.WithKeystore(ks))

	a := &App{
		Config:    cfg,
		Log:       log,
		Registry:  reg,
		Network:   network,
		Wallets:   wallets,
		Giveaways: giveaway.NewSelector(),
		ctx:       ctx,
		selectRPC: opts.SelectRPC,
		dial:      opts.Dial,
		store:     &markerStore{cfg: cfg},
	}
	if a.dial == nil {
		a.dial = dialEthclient
	}
	if a.selectRPC == nil {
		sel := rpc.NewSelector()
		a.selectRPC = sel.Select
		a.invalidateRPC = sel.Invalidate
	}
	if sf, err := cfg.LoadSession(); err == nil {
		a.store.disconnected = sf.Disconnected
	}

	a.Provider = opts.Provider
	if a.Provider == nil {
		if a.Provider, err = a.openProvider(ctx, opts.Approve); err != nil {
			return nil, err
		}
	}

	contract := common.Address{}
	if common.IsHexAddress(cfg.ContractAddress) {
		contract = common.HexToAddress(cfg.ContractAddress)
		a.contract = true
	}
	if a.Gateway, err = gateway.New(contract, gateway.WithLogger(log.Named("gateway"))); err != nil {
		return nil, err
	}

	a.Session = session.NewManager(a.Provider, &a.Network, log.Named("session"))
	a.Gate = auth.New(a.Gateway, a.Session,
		auth.WithLogger(log.Named("auth")),
		auth.WithRefreshInterval(cfg.AuthRefresh()),
		auth.WithCacheWindow(min(config.AuthCacheWindow, cfg.AuthRefresh())))
	a.Tracker = txn.New(network.Key, log.Named("txn"))
	a.unsub = a.Session.Subscribe(a.onSessionChange)

	log.Debug("app ready",
		zap.String("network", network.Key),
		zap.String("provider", cfg.Provider),
		zap.String("contract", cfg.ContractAddress))
	return a, nil
}

// openProvider builds the configured wallet provider. A remote provider
// without a URL yields nil, which the session reports as missing.
func (a *App) openProvider(ctx context.Context, approve provider.ApproveFunc) (provider.Provider, error) {
	switch a.Config.Provider {
	case "", config.ProviderLocal:
		opts := []provider.LocalOption{provider.WithLogger(a.Log.Named("provider"))}
		if approve != nil {
			opts = append(opts, provider.WithApprove(approve))
		}
		return provider.NewLocal(a.Wallets, a.store, opts...)
	case config.ProviderRPC:
		if a.Config.ProviderURL == "" {
			a.Log.Warn("rpc provider selected without provider_url")
			return nil, nil
		}
		return provider.DialRemote(ctx, a.Config.ProviderURL, config.ProviderPollInterval, a.Log.Named("provider"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWallet, a.Config.Provider)
	}
}

// Start restores a previously authorized session unless the user
// disconnected explicitly.
func (a *App) Start(ctx context.Context) {
	if a.store.isDisconnected() || a.Provider == nil {
		return
	}
	if _, err := a.Session.Recover(ctx); err != nil {
		a.Log.Warn("session recovery failed", zap.Error(err))
	}
}

// Connect runs the wallet connect flow and clears the disconnect marker.
func (a *App) Connect(ctx context.Context) (session.Session, error) {
	s, err := a.Session.Connect(ctx)
	if err != nil {
		return s, err
	}
	if err := a.store.setDisconnected(false); err != nil {
		a.Log.Warn("clearing disconnect marker failed", zap.Error(err))
	}
	return s, nil
}

// Disconnect clears the session and remembers the choice for later runs.
func (a *App) Disconnect() error {
	a.Session.Disconnect()
	return a.store.setDisconnected(true)
}

// UseAccount makes name the default wallet. A connected local wallet also
// exposes it right away, which the session handles as an account change.
func (a *App) UseAccount(name string) error {
	if err := a.Wallets.SetDefault(name); err != nil {
		return err
	}
	a.Config.DefaultWallet = name
	if err := a.Config.Save(); err != nil {
		return err
	}
	local, ok := a.Provider.(*provider.Local)
	if !ok || !a.Session.Session().IsConnected {
		return nil
	}
	w, err := a.Wallets.Get(name)
	if err != nil || !w.CanSign() {
		return err
	}
	return local.SelectAccount(name)
}

// Revoke drops the local wallet's account authorizations, so the next
// connect asks for approval again, and disconnects.
func (a *App) Revoke() error {
	local, ok := a.Provider.(*provider.Local)
	if !ok {
		return ErrNotLocal
	}
	if err := local.Revoke(); err != nil {
		return err
	}
	return a.Disconnect()
}

// Ready checks that a contract is configured and the wallet is connected
// on the right network.
func (a *App) Ready() error {
	if !a.contract {
		return ErrNoContract
	}
	s := a.Session.Session()
	if !s.IsConnected {
		return ErrNotConnected
	}
	if !s.IsCorrectNetwork {
		return fmt.Errorf("%w: please switch to %s network", session.ErrWrongNetwork, a.Network.Name)
	}
	if !a.Gateway.Ready() {
		return gateway.ErrNotInitialized
	}
	return nil
}

// HeadBlock returns the latest block number of the bound RPC.
func (a *App) HeadBlock(ctx context.Context) (uint64, error) {
	a.mu.Lock()
	b := a.backend
	a.mu.Unlock()
	if b == nil {
		return 0, gateway.ErrNotInitialized
	}
	h, err := b.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("reading head block: %w", err)
	}
	return h.Number.Uint64(), nil
}

// Write runs fn as a tracked transaction and refreshes the giveaway list
// when it succeeds.
func (a *App) Write(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) (string, error) {
	txID, err := a.Tracker.Run(ctx, name, fn)
	if err != nil {
		return "", err
	}
	if err := a.LoadGiveaways(ctx); err != nil {
		a.Log.Warn("reloading giveaways failed", zap.String("tx", txID), zap.Error(err))
	}
	return txID, nil
}

// LoadGiveaways reloads the giveaway list and re-applies the selection
// saved by SelectGiveaway.
func (a *App) LoadGiveaways(ctx context.Context) error {
	if err := a.Giveaways.Reload(ctx, a.Gateway); err != nil {
		return err
	}
	if id := a.Config.SelectedGiveaway; id != nil {
		if g, ok := a.Giveaways.Selected(); !ok || g.ID != *id {
			if err := a.Giveaways.Select(*id); err != nil {
				a.Log.Debug("saved giveaway selection no longer listed", zap.Uint64("giveaway", *id))
			}
		}
	}
	return nil
}

// SelectGiveaway selects id and remembers it for later runs.
func (a *App) SelectGiveaway(id uint64) error {
	if err := a.Giveaways.Select(id); err != nil {
		return err
	}
	a.Config.SelectedGiveaway = &id
	return a.Config.Save()
}

// Close stops background work and releases connections.
func (a *App) Close() {
	a.Gate.Stop()
	if a.unsub != nil {
		a.unsub()
	}
	a.mu.Lock()
	if a.backend != nil {
		a.backend.Close()
		a.backend = nil
	}
	a.mu.Unlock()
	if a.Provider != nil {
		a.Provider.Close()
	}
	_ = a.Log.Sync()
}

// onSessionChange re-initialises the gateway, then lets the gate and the
// selector react. The gateway is only bound on the required network.
func (a *App) onSessionChange(c session.Change) {
	a.Log.Debug("session changed",
		zap.String("reason", c.Reason.String()),
		zap.String("account", c.Session.AccountHex()),
		zap.Int64("chain_id", c.Session.ChainID))

	if c.Session.IsConnected && c.Session.IsCorrectNetwork {
		if err := a.rebind(a.ctx); err != nil {
			a.Log.Warn("gateway init failed", zap.Error(err))
			a.Gateway.Reset()
		}
	} else {
		a.Gateway.Reset()
	}
	if c.Reason == session.ReasonDisconnected {
		a.Giveaways.Clear()
	}
	a.Gate.HandleChange(a.ctx, c)
}

func (a *App) rebind(ctx context.Context) error {
	transactor := a.Session.Transactor()
	if transactor == nil {
		return session.ErrSignerUnavailable
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.backend == nil {
		sctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
		url, err := a.selectRPC(sctx, a.Network.ChainID, a.Network.RPCURLs)
		cancel()
		if err != nil {
			a.Log.Warn("no healthy rpc, using first configured", zap.String("network", a.Network.Key), zap.Error(err))
			url = a.Network.RPCURL()
		}
		backend, err := a.dial(ctx, url)
		if err != nil {
			if a.invalidateRPC != nil {
				a.invalidateRPC(a.Network.ChainID)
			}
			return fmt.Errorf("dialing %s: %w", url, err)
		}
		a.backend = backend
		a.Log.Info("rpc selected", zap.String("network", a.Network.Key), zap.String("url", url))
	}
	a.Gateway.Rebind(a.backend, transactor, a.Network.GasBumpPercent)
	return nil
}

// markerStore persists the local provider's session file while keeping the
// app's disconnect marker authoritative.
type markerStore struct {
	cfg *config.Config

	mu           sync.Mutex
	disconnected bool
}

func (s *markerStore) LoadSession() (*config.SessionFile, error) {
	return s.cfg.LoadSession()
}

func (s *markerStore) SaveSession(sf *config.SessionFile) error {
	s.mu.Lock()
	sf.Disconnected = s.disconnected
	s.mu.Unlock()
	return s.cfg.SaveSession(sf)
}

func (s *markerStore) isDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

func (s *markerStore) setDisconnected(v bool) error {
	s.mu.Lock()
	s.disconnected = v
	s.mu.Unlock()
	sf, err := s.cfg.LoadSession()
	if err != nil {
		return err
	}
	return s.SaveSession(sf)
}
