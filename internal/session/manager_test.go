package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
	"github.com/Mohsinsiddi/w3giveaway/internal/provider"
	"github.com/Mohsinsiddi/w3giveaway/internal/session"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var (
	alice = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	bob   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// fakeWallet is a scriptable provider. handlers maps a method to its reply.
type fakeWallet struct {
	mu        sync.Mutex
	handlers  map[string]func(args []interface{}) (interface{}, error)
	calls     []string
	events    map[int]provider.Events
	nextID    int
	signerErr error
	chainHex  string
}

func newFakeWallet(accounts []common.Address, chainHex string) *fakeWallet {
	w := &fakeWallet{events: map[int]provider.Events{}}
	w.handlers = map[string]func([]interface{}) (interface{}, error){
		provider.MethodRequestAccounts: func([]interface{}) (interface{}, error) { return accounts, nil },
		provider.MethodAccounts:        func([]interface{}) (interface{}, error) { return accounts, nil },
		provider.MethodChainID:         func([]interface{}) (interface{}, error) { return w.chain(), nil },
	}
	w.setChain(chainHex)
	return w
}

func (w *fakeWallet) chain() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainHex
}

func (w *fakeWallet) setChain(hex string) {
	w.mu.Lock()
	w.chainHex = hex
	w.mu.Unlock()
}

func (w *fakeWallet) on(method string, fn func([]interface{}) (interface{}, error)) {
	w.handlers[method] = fn
}

func (w *fakeWallet) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	w.mu.Lock()
	w.calls = append(w.calls, method)
	h, ok := w.handlers[method]
	w.mu.Unlock()
	if !ok {
		return &provider.Error{Code: provider.CodeUnsupportedMethod, Message: method}
	}
	v, err := h(args)
	if err != nil || result == nil {
		return err
	}
	raw, _ := json.Marshal(v)
	return json.Unmarshal(raw, result)
}

func (w *fakeWallet) Subscribe(h provider.Events) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.events[id] = h
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.events, id)
		w.mu.Unlock()
	}
}

func (w *fakeWallet) Transactor(_ context.Context, account common.Address, _ *big.Int) (*bind.TransactOpts, error) {
	if w.signerErr != nil {
		return nil, w.signerErr
	}
	return &bind.TransactOpts{From: account}, nil
}

func (w *fakeWallet) Close() {}

func (w *fakeWallet) listeners() []provider.Events {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := []provider.Events{}
	for _, h := range w.events {
		out = append(out, h)
	}
	return out
}

func (w *fakeWallet) emitAccounts(a []common.Address) {
	for _, h := range w.listeners() {
		h.AccountsChanged(a)
	}
}

func (w *fakeWallet) emitChain(hex string) {
	for _, h := range w.listeners() {
		h.ChainChanged(hex)
	}
}

func (w *fakeWallet) count(method string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.calls {
		if c == method {
			n++
		}
	}
	return n
}

func sepolia() *chain.Network { return chain.NewRegistry().Active(chain.Sepolia) }

func record(m *session.Manager) *[]session.Change {
	var changes []session.Change
	m.Subscribe(func(c session.Change) { changes = append(changes, c) })
	return &changes
}

// ---------------------------------------------------------------------------
// Connect
// ---------------------------------------------------------------------------

func TestConnectNoProvider(t *testing.T) {
	m := session.NewManager(nil, sepolia(), nil)
	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, session.ErrProviderMissing)

	ok, err := m.SwitchNetwork(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, session.ErrProviderMissing)

	_, err = m.Recover(context.Background())
	assert.ErrorIs(t, err, session.ErrProviderMissing)
}

func TestConnectOnCorrectNetwork(t *testing.T) {
	w := newFakeWallet([]common.Address{alice, bob}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	changes := record(m)

	s, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, s.IsConnected)
	assert.True(t, s.IsCorrectNetwork)
	assert.Equal(t, alice, *s.Account, "first account is used")
	assert.Equal(t, int64(11155111), s.ChainID)
	assert.Equal(t, alice, m.Transactor().From)
	assert.Zero(t, w.count(provider.MethodSwitchChain))

	require.Len(t, *changes, 1)
	assert.Equal(t, session.ReasonConnected, (*changes)[0].Reason)
	assert.Len(t, w.listeners(), 1, "provider events are subscribed")
}

func TestConnectNoAccounts(t *testing.T) {
	w := newFakeWallet(nil, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, session.ErrNoAccounts)
	assert.False(t, m.Session().IsConnected)
}

func TestConnectUserRejected(t *testing.T) {
	w := newFakeWallet(nil, "0xaa36a7")
	w.on(provider.MethodRequestAccounts, func([]interface{}) (interface{}, error) {
		return nil, &provider.Error{Code: provider.CodeUserRejected, Message: "rejected"}
	})
	m := session.NewManager(w, sepolia(), nil)

	_, err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, provider.CodeUserRejected, provider.Code(err))
}

func TestConnectSignerUnavailable(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	w.signerErr = errors.New("locked")
	m := session.NewManager(w, sepolia(), nil)

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, session.ErrSignerUnavailable)
	assert.False(t, m.Session().IsConnected)
}

func TestConnectAutoSwitches(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0x1")
	w.on(provider.MethodSwitchChain, func(args []interface{}) (interface{}, error) {
		w.setChain(args[0].(provider.SwitchChainParams).ChainID)
		return nil, nil
	})
	m := session.NewManager(w, sepolia(), nil)

	s, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, s.IsConnected)
	assert.True(t, s.IsCorrectNetwork)
	assert.Equal(t, int64(11155111), s.ChainID)
	assert.Equal(t, 1, w.count(provider.MethodSwitchChain))
}

func TestConnectSwitchRefusedIsNotReady(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0x89")
	w.on(provider.MethodSwitchChain, func([]interface{}) (interface{}, error) {
		return nil, &provider.Error{Code: provider.CodeUserRejected, Message: "no"}
	})
	m := session.NewManager(w, sepolia(), nil)
	changes := record(m)

	s, err := m.Connect(context.Background())
	require.ErrorIs(t, err, session.ErrWrongNetwork)
	assert.Contains(t, err.Error(), "Sepolia")
	assert.False(t, s.IsConnected)
	assert.False(t, s.IsCorrectNetwork)
	assert.Equal(t, int64(137), s.ChainID)
	assert.Nil(t, m.Transactor())
	assert.Empty(t, *changes, "subscribers are not told about a half-connected session")
	assert.Equal(t, provider.CodeUserRejected, provider.Code(m.LastError()))
}

// ---------------------------------------------------------------------------
// SwitchNetwork
// ---------------------------------------------------------------------------

func TestSwitchNetworkAddsUnknownChainAndRetries(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0x1")
	added := false
	var addParams provider.AddChainParams
	w.on(provider.MethodSwitchChain, func(args []interface{}) (interface{}, error) {
		if !added {
			return nil, &provider.Error{Code: provider.CodeUnrecognizedChain, Message: "unknown"}
		}
		w.setChain(args[0].(provider.SwitchChainParams).ChainID)
		return nil, nil
	})
	w.on(provider.MethodAddChain, func(args []interface{}) (interface{}, error) {
		added = true
		addParams = args[0].(provider.AddChainParams)
		return nil, nil
	})
	m := session.NewManager(w, sepolia(), nil)

	ok, err := m.SwitchNetwork(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, w.count(provider.MethodSwitchChain), "switch is retried once")
	assert.Equal(t, "0xaa36a7", addParams.ChainID)
	assert.Equal(t, "ETH", addParams.NativeCurrency.Symbol)
	assert.NotEmpty(t, addParams.RPCUrls)
	assert.Equal(t, []string{"https://sepolia.etherscan.io"}, addParams.BlockExplorerUrls)
}

func TestSwitchNetworkAddFails(t *testing.T) {
	w := newFakeWallet(nil, "0x1")
	w.on(provider.MethodSwitchChain, func([]interface{}) (interface{}, error) {
		return nil, &provider.Error{Code: provider.CodeUnrecognizedChain}
	})
	w.on(provider.MethodAddChain, func([]interface{}) (interface{}, error) {
		return nil, &provider.Error{Code: provider.CodeUserRejected}
	})
	m := session.NewManager(w, sepolia(), nil)

	ok, err := m.SwitchNetwork(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, m.LastError(), session.ErrChainUnregistered)
	assert.Equal(t, 1, w.count(provider.MethodSwitchChain))
}

func TestSwitchNetworkFailuresAreSoft(t *testing.T) {
	for _, code := range []int{provider.CodeUserRejected, provider.CodeUnsupportedMethod, -32000} {
		w := newFakeWallet(nil, "0x1")
		w.on(provider.MethodSwitchChain, func([]interface{}) (interface{}, error) {
			return nil, &provider.Error{Code: code}
		})
		m := session.NewManager(w, sepolia(), nil)

		ok, err := m.SwitchNetwork(context.Background())
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, code, provider.Code(m.LastError()))
		assert.Zero(t, w.count(provider.MethodAddChain))
	}
}

func TestSwitchNetworkUnsupportedWallet(t *testing.T) {
	// No switch handler: the fake answers 4200.
	w := newFakeWallet(nil, "0x1")
	m := session.NewManager(w, sepolia(), nil)
	ok, err := m.SwitchNetwork(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, m.LastError().Error(), "cannot switch")
}

// ---------------------------------------------------------------------------
// Disconnect / Recover
// ---------------------------------------------------------------------------

func TestDisconnectClearsStateAndUnsubscribes(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	changes := record(m)

	m.Disconnect()
	s := m.Session()
	assert.False(t, s.IsConnected)
	assert.Nil(t, s.Account)
	assert.Zero(t, s.ChainID)
	assert.Nil(t, m.Transactor())
	assert.Empty(t, w.listeners())
	require.Len(t, *changes, 1)
	assert.Equal(t, session.ReasonDisconnected, (*changes)[0].Reason)

	m.Disconnect()
	assert.Len(t, *changes, 1, "a second disconnect is a no-op")
}

func TestRecoverRestoresWithoutPromptOrSwitch(t *testing.T) {
	w := newFakeWallet([]common.Address{bob}, "0x89")
	m := session.NewManager(w, sepolia(), nil)
	changes := record(m)

	s, err := m.Recover(context.Background())
	require.NoError(t, err)
	assert.True(t, s.IsConnected)
	assert.False(t, s.IsCorrectNetwork)
	assert.Equal(t, bob, *s.Account)
	assert.Zero(t, w.count(provider.MethodRequestAccounts))
	assert.Zero(t, w.count(provider.MethodSwitchChain))
	require.Len(t, *changes, 1)
	assert.Equal(t, session.ReasonRecovered, (*changes)[0].Reason)
}

func TestRecoverNothingToRestore(t *testing.T) {
	w := newFakeWallet(nil, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	s, err := m.Recover(context.Background())
	require.NoError(t, err)
	assert.False(t, s.IsConnected)
	assert.Empty(t, w.listeners())
}

// ---------------------------------------------------------------------------
// provider events
// ---------------------------------------------------------------------------

func TestAccountsChangedUpdatesAccount(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	changes := record(m)

	w.emitAccounts([]common.Address{bob})
	assert.Equal(t, bob, *m.Session().Account)
	assert.Equal(t, bob, m.Transactor().From)
	require.Len(t, *changes, 1)
	assert.Equal(t, session.ReasonAccount, (*changes)[0].Reason)
}

func TestAccountsChangedEmptyDisconnects(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, _ = m.Connect(context.Background())
	changes := record(m)

	w.emitAccounts(nil)
	assert.False(t, m.Session().IsConnected)
	require.Len(t, *changes, 1)
	assert.Equal(t, session.ReasonDisconnected, (*changes)[0].Reason)
	assert.Empty(t, w.listeners())
}

func TestChainChangedRevalidatesNetwork(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, _ = m.Connect(context.Background())
	changes := record(m)

	w.emitChain("0x89")
	s := m.Session()
	assert.True(t, s.IsConnected)
	assert.False(t, s.IsCorrectNetwork)
	assert.Equal(t, int64(137), s.ChainID)

	w.emitChain("0xaa36a7")
	assert.True(t, m.Session().IsCorrectNetwork)

	require.Len(t, *changes, 2)
	assert.Equal(t, session.ReasonChain, (*changes)[1].Reason)
}

func TestWalletDisconnectEvent(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, _ = m.Connect(context.Background())

	for _, h := range w.listeners() {
		h.Disconnect(errors.New("gone"))
	}
	assert.False(t, m.Session().IsConnected)
}

func TestEventsAfterDisconnectAreIgnored(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, _ = m.Connect(context.Background())
	events := w.listeners()
	m.Disconnect()
	changes := record(m)

	events[0].AccountsChanged([]common.Address{bob})
	events[0].ChainChanged("0x89")
	assert.Empty(t, *changes)
	assert.False(t, m.Session().IsConnected)
}

func TestReconnectSubscribesOnce(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	_, _ = m.Connect(context.Background())
	_, _ = m.Connect(context.Background())
	assert.Len(t, w.listeners(), 1)

	m.Disconnect()
	_, _ = m.Connect(context.Background())
	assert.Len(t, w.listeners(), 1)
}

func TestUnsubscribe(t *testing.T) {
	w := newFakeWallet([]common.Address{alice}, "0xaa36a7")
	m := session.NewManager(w, sepolia(), nil)
	n := 0
	unsub := m.Subscribe(func(session.Change) { n++ })
	unsub()
	unsub()
	_, _ = m.Connect(context.Background())
	assert.Zero(t, n)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "connected", session.ReasonConnected.String())
	assert.Equal(t, "disconnected", session.ReasonDisconnected.String())
	assert.Equal(t, "unknown", session.Reason(99).String())
}
