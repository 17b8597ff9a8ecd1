// Package provider defines the wallet provider the session talks to: an
// EIP-1193 style request channel plus account/chain change events.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
)

// EIP-1193 and EIP-3085/3326 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeUnrecognizedChain = 4902
)

// Wallet JSON-RPC methods used by the session.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
	MethodSignTransaction = "eth_signTransaction"
)

// Error is a provider RPC error carrying an EIP-1193 code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// ErrorCode implements the go-ethereum rpc.Error interface.
func (e *Error) ErrorCode() int { return e.Code }

// Code extracts the provider error code from err, or 0 if it has none.
// Both *Error and go-ethereum rpc errors are understood.
func Code(err error) int {
	var coded interface{ ErrorCode() int }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return 0
}

// Events are the provider notifications a session listens to. Nil handlers
// are skipped.
type Events struct {
	AccountsChanged func(accounts []common.Address)
	ChainChanged    func(chainIDHex string)
	Disconnect      func(err error)
}

// Provider is the wallet the dashboard connects through.
type Provider interface {
	// CallContext performs one wallet request and decodes the result into
	// result (a pointer, or nil to discard).
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	// Subscribe registers handlers until the returned func is called.
	Subscribe(h Events) (unsubscribe func())
	// Transactor returns signing options for account on chainID.
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
	// Close releases the provider's resources.
	Close()
}

// SwitchChainParams is the wallet_switchEthereumChain parameter object.
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// AddChainParams is the wallet_addEthereumChain parameter object.
type AddChainParams struct {
	ChainID           string               `json:"chainId"`
	ChainName         string               `json:"chainName"`
	NativeCurrency    chain.NativeCurrency `json:"nativeCurrency"`
	RPCUrls           []string             `json:"rpcUrls"`
	BlockExplorerUrls []string             `json:"blockExplorerUrls,omitempty"`
}

// AddChainParamsFor builds the add-chain descriptor for a registry network.
func AddChainParamsFor(n *chain.Network) AddChainParams {
	return AddChainParams{
		ChainID:           n.HexChainID,
		ChainName:         n.Name,
		NativeCurrency:    n.NativeCurrency,
		RPCUrls:           n.RPCURLs,
		BlockExplorerUrls: []string{n.BlockExplorer},
	}
}

// ParseChainID decodes a hex chain id such as "0xaa36a7".
func ParseChainID(hex string) (int64, error) {
	v, err := hexutil.DecodeUint64(hex)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", hex, err)
	}
	return int64(v), nil
}

// --- event fan-out shared by implementations ---

type emitter struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Events
}

func (e *emitter) subscribe(h Events) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[int]Events)
	}
	id := e.nextID
	e.nextID++
	e.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers, id)
			e.mu.Unlock()
		})
	}
}

func (e *emitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

// snapshot copies the handler set so callbacks run without the lock held.
func (e *emitter) snapshot() []Events {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Events, 0, len(e.handlers))
	for _, h := range e.handlers {
		out = append(out, h)
	}
	return out
}

func (e *emitter) accountsChanged(accounts []common.Address) {
	for _, h := range e.snapshot() {
		if h.AccountsChanged != nil {
			h.AccountsChanged(accounts)
		}
	}
}

func (e *emitter) chainChanged(hex string) {
	for _, h := range e.snapshot() {
		if h.ChainChanged != nil {
			h.ChainChanged(hex)
		}
	}
}

func (e *emitter) disconnect(err error) {
	for _, h := range e.snapshot() {
		if h.Disconnect != nil {
			h.Disconnect(err)
		}
	}
}

// --- JSON-RPC style argument/result plumbing for in-process providers ---

func decodeParam(args []interface{}, into interface{}) error {
	if len(args) == 0 {
		return &Error{Code: -32602, Message: "missing params"}
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return &Error{Code: -32602, Message: err.Error()}
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return &Error{Code: -32602, Message: err.Error()}
	}
	return nil
}

func encodeResult(result interface{}, value interface{}) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}
