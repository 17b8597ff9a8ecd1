// Package session tracks the connected wallet account and chain.
package session

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
	"github.com/Mohsinsiddi/w3giveaway/internal/provider"
)

// Session is the current wallet state. ChainID 0 means unknown.
type Session struct {
	Account          *common.Address
	ChainID          int64
	IsConnected      bool
	IsCorrectNetwork bool
}

// AccountHex returns the account address, or "" when there is none.
func (s Session) AccountHex() string {
	if s.Account == nil {
		return ""
	}
	return s.Account.Hex()
}

// Reason says why a Change was published.
type Reason int

const (
	ReasonConnected Reason = iota
	ReasonRecovered
	ReasonAccount
	ReasonChain
	ReasonDisconnected
)

func (r Reason) String() string {
	switch r {
	case ReasonConnected:
		return "connected"
	case ReasonRecovered:
		return "recovered"
	case ReasonAccount:
		return "account"
	case ReasonChain:
		return "chain"
	case ReasonDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Change is published to subscribers after every session transition.
type Change struct {
	Session Session
	Reason  Reason
}

// Manager owns the wallet session. Construct exactly one per process.
type Manager struct {
	provider provider.Provider
	network  *chain.Network
	log      *zap.Logger

	mu            sync.Mutex
	session       Session
	transactor    *bind.TransactOpts
	lastErr       error
	unsubProvider func()
	subs          map[int]func(Change)
	nextSub       int
}

// NewManager returns a manager for the active network. p may be nil when no
// wallet is available.
func NewManager(p provider.Provider, network *chain.Network, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		provider: p,
		network:  network,
		log:      log,
		subs:     make(map[int]func(Change)),
	}
}

// Session returns a snapshot of the current state.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Transactor returns the signer for the connected account, or nil.
func (m *Manager) Transactor() *bind.TransactOpts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactor
}

// Network returns the required network.
func (m *Manager) Network() *chain.Network { return m.network }

// LastError returns the cause of the most recent soft failure.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Provider returns the wallet provider, which may be nil.
func (m *Manager) Provider() provider.Provider { return m.provider }

// Subscribe registers fn for every Change until the returned func is called.
func (m *Manager) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Connect asks the wallet for an account, switches it to the required
// network if needed and derives a signer.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	if m.provider == nil {
		return Session{}, ErrProviderMissing
	}

	var accounts []common.Address
	if err := m.provider.CallContext(ctx, &accounts, provider.MethodRequestAccounts); err != nil {
		m.setLastErr(err)
		return m.Session(), fmt.Errorf("connecting wallet: %w", err)
	}
	if len(accounts) == 0 {
		return m.Session(), ErrNoAccounts
	}
	account := accounts[0]

	chainID, err := m.readChainID(ctx)
	if err != nil {
		return m.Session(), fmt.Errorf("reading chain id: %w", err)
	}

	if chainID != m.network.ChainID {
		m.log.Info("wallet on wrong network, switching",
			zap.String("account", account.Hex()),
			zap.Int64("chain_id", chainID),
			zap.String("required", m.network.Key))

		ok, err := m.SwitchNetwork(ctx)
		if err != nil {
			return m.Session(), err
		}
		if !ok {
			s := Session{Account: &account, ChainID: chainID}
			m.mu.Lock()
			m.session = s
			m.transactor = nil
			m.mu.Unlock()
			return s, fmt.Errorf("%w: please switch to %s network", ErrWrongNetwork, m.network.Name)
		}
		if chainID, err = m.readChainID(ctx); err != nil {
			return m.Session(), fmt.Errorf("reading chain id: %w", err)
		}
	}

	transactor, err := m.provider.Transactor(ctx, account, big.NewInt(chainID))
	if err != nil {
		m.setLastErr(err)
		return m.Session(), fmt.Errorf("%w: %w", ErrSignerUnavailable, err)
	}

	s := Session{
		Account:          &account,
		ChainID:          chainID,
		IsConnected:      true,
		IsCorrectNetwork: chainID == m.network.ChainID,
	}
	m.mu.Lock()
	m.session = s
	m.transactor = transactor
	m.lastErr = nil
	m.mu.Unlock()
	m.listen()

	m.log.Info("wallet connected", zap.String("account", account.Hex()), zap.Int64("chain_id", chainID))
	m.publish(Change{Session: s, Reason: ReasonConnected})
	return s, nil
}

// SwitchNetwork asks the wallet to move to the required network, adding it
// first if the wallet does not know it. Wallet refusals are reported as
// (false, nil) with the cause in LastError.
func (m *Manager) SwitchNetwork(ctx context.Context) (bool, error) {
	if m.provider == nil {
		return false, ErrProviderMissing
	}

	params := provider.SwitchChainParams{ChainID: m.network.HexChainID}
	err := m.provider.CallContext(ctx, nil, provider.MethodSwitchChain, params)
	if err != nil && provider.Code(err) == provider.CodeUnrecognizedChain {
		m.log.Info("network unknown to wallet, adding", zap.String("chain_id", m.network.HexChainID))
		if addErr := m.provider.CallContext(ctx, nil, provider.MethodAddChain, provider.AddChainParamsFor(m.network)); addErr != nil {
			m.softFail("add network", fmt.Errorf("%w: %w", ErrChainUnregistered, addErr))
			return false, nil
		}
		err = m.provider.CallContext(ctx, nil, provider.MethodSwitchChain, params)
	}
	if err != nil {
		m.softFail("switch network", describeSwitchError(err))
		return false, nil
	}

	m.mu.Lock()
	if m.session.Account != nil {
		m.session.ChainID = m.network.ChainID
		m.session.IsCorrectNetwork = true
	}
	m.mu.Unlock()
	return true, nil
}

func describeSwitchError(err error) error {
	switch provider.Code(err) {
	case provider.CodeUserRejected:
		return fmt.Errorf("network switch rejected: %w", err)
	case provider.CodeUnsupportedMethod:
		return fmt.Errorf("wallet cannot switch networks: %w", err)
	default:
		return fmt.Errorf("network switch failed: %w", err)
	}
}

// Disconnect clears local state and stops listening to the wallet. The
// wallet itself keeps its authorization.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	was := m.session.IsConnected || m.session.Account != nil
	unsub := m.unsubProvider
	m.unsubProvider = nil
	m.session = Session{}
	m.transactor = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if !was && unsub == nil {
		return
	}
	m.log.Info("wallet disconnected")
	m.publish(Change{Session: Session{}, Reason: ReasonDisconnected})
}

// Recover restores a session the wallet already authorized, without
// prompting and without switching networks.
func (m *Manager) Recover(ctx context.Context) (Session, error) {
	if m.provider == nil {
		return Session{}, ErrProviderMissing
	}

	var accounts []common.Address
	if err := m.provider.CallContext(ctx, &accounts, provider.MethodAccounts); err != nil {
		return Session{}, fmt.Errorf("reading accounts: %w", err)
	}
	if len(accounts) == 0 {
		return Session{}, nil
	}
	account := accounts[0]

	chainID, err := m.readChainID(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("reading chain id: %w", err)
	}

	transactor, err := m.provider.Transactor(ctx, account, big.NewInt(chainID))
	if err != nil {
		m.softFail("recover signer", err)
		return Session{}, fmt.Errorf("%w: %w", ErrSignerUnavailable, err)
	}

	s := Session{
		Account:          &account,
		ChainID:          chainID,
		IsConnected:      true,
		IsCorrectNetwork: chainID == m.network.ChainID,
	}
	m.mu.Lock()
	m.session = s
	m.transactor = transactor
	m.mu.Unlock()
	m.listen()

	m.log.Info("wallet session recovered",
		zap.String("account", account.Hex()),
		zap.Int64("chain_id", chainID),
		zap.Bool("correct_network", s.IsCorrectNetwork))
	m.publish(Change{Session: s, Reason: ReasonRecovered})
	return s, nil
}

// --- provider events ---

func (m *Manager) listen() {
	m.mu.Lock()
	if m.unsubProvider != nil {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	unsub := m.provider.Subscribe(provider.Events{
		AccountsChanged: m.onAccountsChanged,
		ChainChanged:    m.onChainChanged,
		Disconnect:      m.onDisconnect,
	})

	m.mu.Lock()
	if m.unsubProvider != nil {
		m.mu.Unlock()
		unsub()
		return
	}
	m.unsubProvider = unsub
	m.mu.Unlock()
}

func (m *Manager) onAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		m.Disconnect()
		return
	}
	account := accounts[0]

	m.mu.Lock()
	if !m.session.IsConnected {
		m.mu.Unlock()
		return
	}
	chainID := m.session.ChainID
	m.mu.Unlock()

	transactor, err := m.provider.Transactor(context.Background(), account, big.NewInt(chainID))
	if err != nil {
		m.softFail("derive signer", err)
	}

	m.mu.Lock()
	m.session.Account = &account
	m.transactor = transactor
	s := m.session
	m.mu.Unlock()

	m.log.Info("wallet account changed", zap.String("account", account.Hex()))
	m.publish(Change{Session: s, Reason: ReasonAccount})
}

func (m *Manager) onChainChanged(hex string) {
	chainID, err := provider.ParseChainID(hex)
	if err != nil {
		m.softFail("chain changed", err)
		chainID = 0
	}

	m.mu.Lock()
	if m.session.Account == nil {
		m.mu.Unlock()
		return
	}
	account := *m.session.Account
	connected := m.session.IsConnected
	m.mu.Unlock()

	var transactor *bind.TransactOpts
	if connected && chainID != 0 {
		if transactor, err = m.provider.Transactor(context.Background(), account, big.NewInt(chainID)); err != nil {
			m.softFail("derive signer", err)
		}
	}

	m.mu.Lock()
	m.session.ChainID = chainID
	m.session.IsCorrectNetwork = chainID == m.network.ChainID
	if connected {
		m.transactor = transactor
	}
	s := m.session
	m.mu.Unlock()

	m.log.Info("wallet chain changed",
		zap.Int64("chain_id", chainID),
		zap.Bool("correct_network", s.IsCorrectNetwork))
	m.publish(Change{Session: s, Reason: ReasonChain})
}

func (m *Manager) onDisconnect(err error) {
	m.log.Warn("wallet disconnected itself", zap.Error(err))
	m.Disconnect()
}

// --- helpers ---

func (m *Manager) readChainID(ctx context.Context) (int64, error) {
	var hex string
	if err := m.provider.CallContext(ctx, &hex, provider.MethodChainID); err != nil {
		return 0, err
	}
	return provider.ParseChainID(strings.TrimSpace(hex))
}

func (m *Manager) setLastErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) softFail(op string, err error) {
	m.setLastErr(err)
	m.log.Warn(op+" failed", zap.String("required", m.network.Key), zap.Error(err))
}

func (m *Manager) publish(c Change) {
	m.mu.Lock()
	subs := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}
