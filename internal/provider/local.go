package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3giveaway/internal/config"
	"github.com/Mohsinsiddi/w3giveaway/internal/wallet"
)

// defaultLocalChain is the chain a fresh local wallet starts on. Only it and
// chains added through wallet_addEthereumChain can be switched to.
const defaultLocalChain = "0x1"

// ErrApprovalRejected is returned by an ApproveFunc when the user declines.
var ErrApprovalRejected = errors.New("user rejected the request")

// ApproveFunc asks the user which signing wallet to expose on
// eth_requestAccounts.
type ApproveFunc func(candidates []*wallet.Wallet) (*wallet.Wallet, error)

// SessionStore persists the local wallet's state. *config.Config satisfies it.
type SessionStore interface {
	LoadSession() (*config.SessionFile, error)
	SaveSession(*config.SessionFile) error
}

// Local is a wallet provider backed by keystore wallets on this machine.
type Local struct {
	wallets *wallet.Manager
	store   SessionStore
	approve ApproveFunc
	log     *zap.Logger

	mu    sync.Mutex
	state *config.SessionFile

	events emitter
}

// LocalOption configures a Local provider.
type LocalOption func(*Local)

// WithApprove sets the account approval prompt.
func WithApprove(fn ApproveFunc) LocalOption {
	return func(l *Local) { l.approve = fn }
}

// WithLogger sets the provider logger.
func WithLogger(log *zap.Logger) LocalOption {
	return func(l *Local) { l.log = log }
}

// NewLocal opens the local wallet provider.
func NewLocal(wallets *wallet.Manager, store SessionStore, opts ...LocalOption) (*Local, error) {
	l := &Local{
		wallets: wallets,
		store:   store,
		approve: approveDefault(wallets),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	state, err := store.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("loading wallet session: %w", err)
	}
	if state.ChainID == "" {
		state.ChainID = defaultLocalChain
	}
	l.state = state
	return l, nil
}

// approveDefault picks the default wallet if it can sign, else the only
// signing wallet. With several candidates and no default it rejects, so
// callers wire an interactive prompt.
func approveDefault(wallets *wallet.Manager) ApproveFunc {
	return func(candidates []*wallet.Wallet) (*wallet.Wallet, error) {
		if d := wallets.Default(); d != nil && d.CanSign() {
			return d, nil
		}
		if len(candidates) == 1 {
			return candidates[0], nil
		}
		return nil, ErrApprovalRejected
	}
}

// CallContext serves the wallet methods the session needs.
func (l *Local) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch method {
	case MethodRequestAccounts:
		accounts, err := l.requestAccounts()
		if err != nil {
			return err
		}
		return encodeResult(result, accounts)
	case MethodAccounts:
		return encodeResult(result, l.accounts())
	case MethodChainID:
		l.mu.Lock()
		id := l.state.ChainID
		l.mu.Unlock()
		return encodeResult(result, id)
	case MethodSwitchChain:
		var p SwitchChainParams
		if err := decodeParam(args, &p); err != nil {
			return err
		}
		return l.switchChain(p.ChainID)
	case MethodAddChain:
		var p AddChainParams
		if err := decodeParam(args, &p); err != nil {
			return err
		}
		return l.addChain(p)
	default:
		return &Error{Code: CodeUnsupportedMethod, Message: "method not supported: " + method}
	}
}

// Subscribe registers event handlers.
func (l *Local) Subscribe(h Events) func() {
	return l.events.subscribe(h)
}

// Transactor signs with the keystore wallet holding account.
func (l *Local) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if !l.isAuthorized(account) {
		return nil, &Error{Code: CodeUnauthorized, Message: "account not authorized: " + account.Hex()}
	}
	w, err := l.wallets.FindByAddress(account.Hex())
	if err != nil {
		return nil, err
	}
	opts, err := wallet.NewSigner(w, l.wallets.Keystore()).Transactor(chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// Close is a no-op; state is persisted on every mutation.
func (l *Local) Close() {}

// Revoke forgets the authorized accounts and notifies listeners with an
// empty account list.
func (l *Local) Revoke() error {
	l.mu.Lock()
	l.state.Authorized = nil
	err := l.store.SaveSession(l.state)
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving wallet session: %w", err)
	}
	l.events.accountsChanged(nil)
	return nil
}

// SelectAccount exposes a different authorized wallet, as a wallet's account
// switcher does, and emits accountsChanged.
func (l *Local) SelectAccount(name string) error {
	w, err := l.wallets.Get(name)
	if err != nil {
		return err
	}
	if !w.CanSign() {
		return fmt.Errorf("wallet %q is watch-only and cannot sign", name)
	}
	l.mu.Lock()
	l.state.Authorized = []string{w.Address}
	err = l.store.SaveSession(l.state)
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving wallet session: %w", err)
	}
	l.events.accountsChanged([]common.Address{common.HexToAddress(w.Address)})
	return nil
}

// --- internal ---

func (l *Local) requestAccounts() ([]common.Address, error) {
	if accounts := l.accounts(); len(accounts) > 0 {
		return accounts, nil
	}

	candidates := l.wallets.Signing()
	if len(candidates) == 0 {
		return []common.Address{}, nil
	}
	chosen, err := l.approve(candidates)
	if err != nil {
		if errors.Is(err, ErrApprovalRejected) {
			return nil, &Error{Code: CodeUserRejected, Message: "user rejected the request"}
		}
		return nil, err
	}

	l.mu.Lock()
	l.state.Authorized = []string{chosen.Address}
	err = l.store.SaveSession(l.state)
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("saving wallet session: %w", err)
	}
	l.log.Info("account approved", zap.String("account", chosen.Address), zap.String("wallet", chosen.Name))

	accounts := []common.Address{common.HexToAddress(chosen.Address)}
	l.events.accountsChanged(accounts)
	return accounts, nil
}

// accounts returns the authorized accounts that still have a signing wallet.
func (l *Local) accounts() []common.Address {
	l.mu.Lock()
	authorized := slices.Clone(l.state.Authorized)
	l.mu.Unlock()

	out := make([]common.Address, 0, len(authorized))
	for _, a := range authorized {
		w, err := l.wallets.FindByAddress(a)
		if err != nil || !w.CanSign() {
			continue
		}
		out = append(out, common.HexToAddress(a))
	}
	return out
}

func (l *Local) isAuthorized(account common.Address) bool {
	for _, a := range l.accounts() {
		if a == account {
			return true
		}
	}
	return false
}

func (l *Local) switchChain(hex string) error {
	hex = strings.ToLower(hex)
	if _, err := ParseChainID(hex); err != nil {
		return &Error{Code: -32602, Message: err.Error()}
	}

	l.mu.Lock()
	if hex != defaultLocalChain && !slices.Contains(l.state.AddedChains, hex) {
		l.mu.Unlock()
		return &Error{Code: CodeUnrecognizedChain, Message: "unrecognized chain id " + hex}
	}
	changed := l.state.ChainID != hex
	l.state.ChainID = hex
	err := l.store.SaveSession(l.state)
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving wallet session: %w", err)
	}

	if changed {
		l.log.Info("wallet chain switched", zap.String("chain_id", hex))
		l.events.chainChanged(hex)
	}
	return nil
}

func (l *Local) addChain(p AddChainParams) error {
	hex := strings.ToLower(p.ChainID)
	if _, err := ParseChainID(hex); err != nil {
		return &Error{Code: -32602, Message: err.Error()}
	}
	if len(p.RPCUrls) == 0 {
		return &Error{Code: -32602, Message: "rpcUrls must not be empty"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if hex == defaultLocalChain || slices.Contains(l.state.AddedChains, hex) {
		return nil
	}
	l.state.AddedChains = append(l.state.AddedChains, hex)
	if err := l.store.SaveSession(l.state); err != nil {
		return fmt.Errorf("saving wallet session: %w", err)
	}
	l.log.Info("wallet chain added", zap.String("chain_id", hex), zap.String("name", p.ChainName))
	return nil
}
