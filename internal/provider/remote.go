package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Remote is a wallet provider reached over JSON-RPC, such as Frame. Account
// and chain changes are detected by polling.
type Remote struct {
	client   *rpc.Client
	interval time.Duration
	log      *zap.Logger

	events emitter

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	accounts []common.Address
	chainID  string
}

// DialRemote connects to an external wallet at url.
func DialRemote(ctx context.Context, url string, interval time.Duration, log *zap.Logger) (*Remote, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing wallet %s: %w", url, err)
	}
	return NewRemote(client, interval, log), nil
}

// NewRemote wraps an existing RPC client.
func NewRemote(client *rpc.Client, interval time.Duration, log *zap.Logger) *Remote {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Remote{client: client, interval: interval, log: log}
}

// CallContext forwards the request to the wallet.
func (r *Remote) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return r.client.CallContext(ctx, result, method, args...)
}

// Subscribe registers handlers and starts polling on the first subscriber.
func (r *Remote) Subscribe(h Events) func() {
	unsub := r.events.subscribe(h)
	r.startPolling()
	return func() {
		unsub()
		if r.events.count() == 0 {
			r.stopPolling()
		}
	}
}

// Transactor returns options whose Signer delegates to eth_signTransaction.
func (r *Remote) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	// The options outlive the connect call, so signing must not inherit its
	// cancellation.
	signCtx := context.WithoutCancel(ctx)
	return &bind.TransactOpts{
		From:    account,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != account {
				return nil, &Error{Code: CodeUnauthorized, Message: "not authorized to sign for " + addr.Hex()}
			}
			return r.signTransaction(signCtx, addr, tx, chainID)
		},
	}, nil
}

// Close stops polling and closes the connection.
func (r *Remote) Close() {
	r.stopPolling()
	r.client.Close()
}

// SendTxArgs is the eth_signTransaction request object.
type SendTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

// signTxResult covers both a bare raw hex result and the {raw, tx} object
// some signers return.
type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func (s *signTxResult) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return s.Raw.UnmarshalJSON(b)
	}
	type alias struct {
		Raw hexutil.Bytes `json:"raw"`
	}
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	s.Raw = a.Raw
	return nil
}

func (r *Remote) signTransaction(ctx context.Context, from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	args := SendTxArgs{
		From:    from,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}

	var res signTxResult
	if err := r.client.CallContext(ctx, &res, MethodSignTransaction, args); err != nil {
		return nil, err
	}
	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(res.Raw); err != nil {
		return nil, fmt.Errorf("decoding signed transaction: %w", err)
	}
	return signed, nil
}

// --- polling ---

func (r *Remote) startPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.poll(ctx, r.done)
}

// stopPolling cancels the poll loop without waiting for it, so it is safe to
// call from inside an event handler.
func (r *Remote) stopPolling() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Remote) poll(ctx context.Context, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		if r.done == done {
			r.cancel, r.done = nil, nil
		}
		r.mu.Unlock()
		close(done)
	}()

	// Prime the baseline so the first tick only reports real changes.
	r.pollOnce(ctx, false)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.pollOnce(ctx, true) {
				return
			}
		}
	}
}

// pollOnce reads accounts and chain id and emits differences. It returns
// false once the wallet is unreachable, after emitting disconnect.
func (r *Remote) pollOnce(ctx context.Context, emit bool) bool {
	var accounts []common.Address
	if err := r.client.CallContext(ctx, &accounts, MethodAccounts); err != nil {
		if ctx.Err() != nil {
			return false
		}
		r.log.Warn("wallet unreachable", zap.Error(err))
		if emit {
			r.events.disconnect(err)
		}
		return !emit
	}
	var chainID string
	if err := r.client.CallContext(ctx, &chainID, MethodChainID); err != nil {
		if ctx.Err() != nil {
			return false
		}
		r.log.Warn("wallet chain id read failed", zap.Error(err))
		return true
	}

	r.mu.Lock()
	accountsChanged := !slices.Equal(accounts, r.accounts)
	chainChanged := chainID != r.chainID
	r.accounts, r.chainID = accounts, chainID
	r.mu.Unlock()

	if !emit {
		return true
	}
	if accountsChanged {
		r.events.accountsChanged(accounts)
	}
	if chainChanged {
		r.events.chainChanged(chainID)
	}
	return true
}
