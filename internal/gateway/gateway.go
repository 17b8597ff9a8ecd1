// Package gateway is the typed client for the MultiGiveaway contract.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// Errors.
var (
	ErrContractRead   = errors.New("contract read failed")
	ErrContractWrite  = errors.New("contract write failed")
	ErrNotInitialized = errors.New("contract not initialized")
	ErrNoSigner       = errors.New("no signer for writes")
)

// Backend is what a rebound gateway talks to. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// binding is the subset of *bind.BoundContract the gateway uses.
type binding interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
	FilterLogs(opts *bind.FilterOpts, name string, query ...[]interface{}) (chan types.Log, event.Subscription, error)
}

type gasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

type waitFunc func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

// Gateway issues reads and writes against one contract address. It is safe
// for concurrent use; Rebind swaps the connection under a lock.
type Gateway struct {
	address common.Address
	abi     abi.ABI
	log     *zap.Logger

	mu         sync.RWMutex
	binding    binding
	pricer     gasPricer
	transactor *bind.TransactOpts
	gasBump    int64
	waitMined  waitFunc
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// New returns an unbound gateway for address. Call Rebind before use.
func New(address common.Address, opts ...Option) (*Gateway, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}
	g := &Gateway{address: address, abi: parsed, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Address returns the contract address.
func (g *Gateway) Address() common.Address { return g.address }

// Rebind re-initializes the contract binding for a new account or chain.
// transactor may be nil for a read-only gateway. gasBumpPercent raises the
// suggested gas price on writes.
func (g *Gateway) Rebind(backend Backend, transactor *bind.TransactOpts, gasBumpPercent int64) {
	bound := bind.NewBoundContract(g.address, g.abi, backend, backend, backend)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.binding = bound
	g.pricer = backend
	g.transactor = transactor
	g.gasBump = gasBumpPercent
	g.waitMined = func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, backend, tx)
	}

	from := ""
	if transactor != nil {
		from = transactor.From.Hex()
	}
	g.log.Debug("gateway rebound", zap.String("contract", g.address.Hex()), zap.String("account", from))
}

// Reset drops the binding, as on disconnect.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.binding, g.pricer, g.transactor, g.waitMined = nil, nil, nil, nil
}

// Ready reports whether a binding is installed.
func (g *Gateway) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.binding != nil
}

// --- writes ---

// CreateGiveaway creates a new giveaway named name.
func (g *Gateway) CreateGiveaway(ctx context.Context, name string) (string, error) {
	return g.transact(ctx, methodCreateGiveaway, name)
}

// SetGiveawayActive opens or closes a giveaway.
func (g *Gateway) SetGiveawayActive(ctx context.Context, id uint64, active bool) (string, error) {
	return g.transact(ctx, methodSetGiveawayActive, new(big.Int).SetUint64(id), active)
}

// AddParticipant registers one email.
func (g *Gateway) AddParticipant(ctx context.Context, id uint64, email string) (string, error) {
	return g.transact(ctx, methodAddParticipant, new(big.Int).SetUint64(id), email)
}

// BatchAddParticipants registers several emails in one transaction.
func (g *Gateway) BatchAddParticipants(ctx context.Context, id uint64, emails []string) (string, error) {
	return g.transact(ctx, methodBatchAddParticipants, new(big.Int).SetUint64(id), emails)
}

// DrawWinner requests randomness for the draw.
func (g *Gateway) DrawWinner(ctx context.Context, id uint64) (string, error) {
	return g.transact(ctx, methodDrawWinner, new(big.Int).SetUint64(id))
}

// AddAdmin grants admin rights.
func (g *Gateway) AddAdmin(ctx context.Context, addr common.Address) (string, error) {
	return g.transact(ctx, methodAddAdmin, addr)
}

// RemoveAdmin revokes admin rights.
func (g *Gateway) RemoveAdmin(ctx context.Context, addr common.Address) (string, error) {
	return g.transact(ctx, methodRemoveAdmin, addr)
}

// SetKeyHash sets the VRF gas lane.
func (g *Gateway) SetKeyHash(ctx context.Context, hash common.Hash) (string, error) {
	return g.transact(ctx, methodSetKeyHash, [32]byte(hash))
}

// SetCallbackGasLimit sets the VRF callback gas limit.
func (g *Gateway) SetCallbackGasLimit(ctx context.Context, limit uint32) (string, error) {
	return g.transact(ctx, methodSetCallbackGasLimit, limit)
}

// SetSubscriptionID sets the VRF subscription.
func (g *Gateway) SetSubscriptionID(ctx context.Context, id *big.Int) (string, error) {
	return g.transact(ctx, methodSetSubscriptionID, id)
}

// transact submits method, waits for it to be mined and returns its hash.
func (g *Gateway) transact(ctx context.Context, method string, params ...interface{}) (string, error) {
	g.mu.RLock()
	b, pricer, transactor, bump, wait := g.binding, g.pricer, g.transactor, g.gasBump, g.waitMined
	g.mu.RUnlock()

	if b == nil {
		return "", fmt.Errorf("%w: %s: %w", ErrContractWrite, method, ErrNotInitialized)
	}
	if transactor == nil {
		return "", fmt.Errorf("%w: %s: %w", ErrContractWrite, method, ErrNoSigner)
	}

	opts := *transactor
	opts.Context = ctx
	if bump > 0 && pricer != nil {
		price, err := pricer.SuggestGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: %s: suggest gas price: %w", ErrContractWrite, method, err)
		}
		opts.GasPrice = bumpGasPrice(price, bump)
	}

	tx, err := b.Transact(&opts, method, params...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrContractWrite, method, err)
	}
	g.log.Info("transaction submitted", zap.String("function", method), zap.String("tx", tx.Hash().Hex()))

	receipt, err := wait(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("%w: %s: waiting for %s: %w", ErrContractWrite, method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: %s: transaction %s reverted", ErrContractWrite, method, tx.Hash().Hex())
	}
	g.log.Info("transaction mined",
		zap.String("function", method),
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()))
	return tx.Hash().Hex(), nil
}

func bumpGasPrice(price *big.Int, percent int64) *big.Int {
	out := new(big.Int).Mul(price, big.NewInt(100+percent))
	return out.Div(out, big.NewInt(100))
}

// --- reads ---

// IsAdmin reports whether addr holds the admin role.
func (g *Gateway) IsAdmin(ctx context.Context, addr common.Address) (bool, error) {
	out, err := g.call(ctx, methodIsAdmin, addr)
	if err != nil {
		return false, err
	}
	return convert[bool](out[0]), nil
}

// GetContractOwner returns the owner address.
func (g *Gateway) GetContractOwner(ctx context.Context) (common.Address, error) {
	out, err := g.call(ctx, methodGetContractOwner)
	if err != nil {
		return common.Address{}, err
	}
	return convert[common.Address](out[0]), nil
}

// GetAllGiveaways zips the column-wise arrays into rows.
func (g *Gateway) GetAllGiveaways(ctx context.Context) ([]Giveaway, error) {
	out, err := g.call(ctx, methodGetAllGiveaways)
	if err != nil {
		return nil, err
	}
	ids := convert[[]*big.Int](out[0])
	names := convert[[]string](out[1])
	actives := convert[[]bool](out[2])
	completeds := convert[[]bool](out[3])
	counts := convert[[]*big.Int](out[4])
	winners := convert[[]string](out[5])

	n := len(ids)
	if len(names) != n || len(actives) != n || len(completeds) != n || len(counts) != n || len(winners) != n {
		return nil, fmt.Errorf("%w: %s: inconsistent column lengths", ErrContractRead, methodGetAllGiveaways)
	}

	list := make([]Giveaway, n)
	for i := range ids {
		list[i] = Giveaway{
			ID:               ids[i].Uint64(),
			Name:             names[i],
			Active:           actives[i],
			Completed:        completeds[i],
			ParticipantCount: counts[i].Uint64(),
			Winner:           winners[i],
		}
	}
	return list, nil
}

// GetGiveawayParticipants reads every participant in one call.
func (g *Gateway) GetGiveawayParticipants(ctx context.Context, id uint64) ([]Participant, error) {
	out, err := g.call(ctx, methodGetAllParticipants, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	emails := convert[[]string](out[0])
	won := convert[[]bool](out[1])
	if len(emails) != len(won) {
		return nil, fmt.Errorf("%w: %s: inconsistent column lengths", ErrContractRead, methodGetAllParticipants)
	}

	list := make([]Participant, len(emails))
	for i := range emails {
		list[i] = Participant{Index: uint64(i), Email: emails[i], HasWon: won[i]}
	}
	return list, nil
}

// GetGiveawayWinner returns the drawn winner.
func (g *Gateway) GetGiveawayWinner(ctx context.Context, id uint64) (Winner, error) {
	out, err := g.call(ctx, methodGetGiveawayWinner, new(big.Int).SetUint64(id))
	if err != nil {
		return Winner{}, err
	}
	return Winner{
		Email: convert[string](out[0]),
		Index: convert[*big.Int](out[1]).Uint64(),
	}, nil
}

// GetGiveawayDetails returns the per-giveaway snapshot.
func (g *Gateway) GetGiveawayDetails(ctx context.Context, id uint64) (Details, error) {
	out, err := g.call(ctx, methodGetGiveawayDetails, new(big.Int).SetUint64(id))
	if err != nil {
		return Details{}, err
	}
	return Details{
		Name:              convert[string](out[0]),
		Active:            convert[bool](out[1]),
		Completed:         convert[bool](out[2]),
		TotalParticipants: convert[*big.Int](out[3]).Uint64(),
		Winner:            convert[string](out[4]),
	}, nil
}

// GetChainlinkConfig returns the VRF settings.
func (g *Gateway) GetChainlinkConfig(ctx context.Context) (VRFConfig, error) {
	out, err := g.call(ctx, methodGetChainlinkConfig)
	if err != nil {
		return VRFConfig{}, err
	}
	return VRFConfig{
		Coordinator:   convert[common.Address](out[0]),
		SubID:         convert[*big.Int](out[1]),
		KeyHash:       common.Hash(convert[[32]byte](out[2])),
		GasLimit:      convert[uint32](out[3]),
		Confirmations: convert[uint16](out[4]),
	}, nil
}

func (g *Gateway) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	g.mu.RLock()
	b, transactor := g.binding, g.transactor
	g.mu.RUnlock()

	if b == nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContractRead, method, ErrNotInitialized)
	}

	opts := &bind.CallOpts{Context: ctx}
	if transactor != nil {
		opts.From = transactor.From
	}

	var out []interface{}
	if err := b.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContractRead, method, err)
	}
	want := len(g.abi.Methods[method].Outputs)
	if len(out) != want {
		return nil, fmt.Errorf("%w: %s: got %d outputs, want %d", ErrContractRead, method, len(out), want)
	}
	return out, nil
}

// convert coerces an unpacked ABI value to T, the way generated bindings do.
func convert[T any](v interface{}) T {
	return *abi.ConvertType(v, new(T)).(*T)
}
