package gateway

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type sentTx struct {
	method string
	params []interface{}
	opts   bind.TransactOpts
}

// fakeBinding answers Call from a fixed table and records Transact calls.
type fakeBinding struct {
	results  map[string][]interface{}
	callErr  error
	txErr    error
	sent     []sentTx
	calls    []string
	callFrom common.Address
	logs     map[string][]types.Log
}

func (f *fakeBinding) Call(opts *bind.CallOpts, results *[]interface{}, method string, _ ...interface{}) error {
	f.calls = append(f.calls, method)
	f.callFrom = opts.From
	if f.callErr != nil {
		return f.callErr
	}
	*results = f.results[method]
	return nil
}

func (f *fakeBinding) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	f.sent = append(f.sent, sentTx{method: method, params: params, opts: *opts})
	return types.NewTransaction(uint64(len(f.sent)), common.Address{}, big.NewInt(0), 100000, big.NewInt(1), []byte(method)), nil
}

func (f *fakeBinding) FilterLogs(_ *bind.FilterOpts, name string, _ ...[]interface{}) (chan types.Log, event.Subscription, error) {
	logs := f.logs[name]
	ch := make(chan types.Log, len(logs))
	sub := event.NewSubscription(func(quit <-chan struct{}) error {
		for _, l := range logs {
			select {
			case ch <- l:
			case <-quit:
				return nil
			}
		}
		return nil
	})
	return ch, sub, nil
}

type fixedPricer struct{ price *big.Int }

func (p fixedPricer) SuggestGasPrice(context.Context) (*big.Int, error) { return p.price, nil }

var admin = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func newTestGateway(t *testing.T, fb *fakeBinding, status uint64) *Gateway {
	t.Helper()
	g, err := New(common.HexToAddress("0x00000000000000000000000000000000000000c0"))
	require.NoError(t, err)
	g.binding = fb
	g.transactor = &bind.TransactOpts{From: admin}
	g.waitMined = func(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return &types.Receipt{Status: status, TxHash: tx.Hash(), BlockNumber: big.NewInt(7)}, nil
	}
	return g
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

func TestWriteReturnsTxHash(t *testing.T) {
	fb := &fakeBinding{}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)

	hash, err := g.CreateGiveaway(context.Background(), "Summer Raffle")
	require.NoError(t, err)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, hash)

	require.Len(t, fb.sent, 1)
	assert.Equal(t, "createGiveaway", fb.sent[0].method)
	assert.Equal(t, []interface{}{"Summer Raffle"}, fb.sent[0].params)
	assert.Nil(t, fb.sent[0].opts.GasPrice, "no gas bump by default")
	assert.NotNil(t, fb.sent[0].opts.Context)
}

func TestWriteMethodsAndParams(t *testing.T) {
	fb := &fakeBinding{}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)
	ctx := context.Background()
	other := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	_, _ = g.SetGiveawayActive(ctx, 3, true)
	_, _ = g.AddParticipant(ctx, 3, "a@b.co")
	_, _ = g.BatchAddParticipants(ctx, 3, []string{"a@b.co", "c@d.io"})
	_, _ = g.DrawWinner(ctx, 3)
	_, _ = g.AddAdmin(ctx, other)
	_, _ = g.RemoveAdmin(ctx, other)
	_, _ = g.SetKeyHash(ctx, common.HexToHash("0x01"))
	_, _ = g.SetCallbackGasLimit(ctx, 250000)
	_, _ = g.SetSubscriptionID(ctx, big.NewInt(42))

	methods := make([]string, len(fb.sent))
	for i, s := range fb.sent {
		methods[i] = s.method
	}
	assert.Equal(t, []string{
		"setGiveawayActive", "addParticipant", "batchAddParticipants", "drawWinner",
		"addAdmin", "removeAdmin", "setKeyHash", "setCallbackGasLimit", "setSubscriptionId",
	}, methods)

	assert.Equal(t, big.NewInt(3), fb.sent[0].params[0])
	assert.Equal(t, true, fb.sent[0].params[1])
	assert.Equal(t, []string{"a@b.co", "c@d.io"}, fb.sent[2].params[1])
	assert.Equal(t, other, fb.sent[4].params[0])
	assert.IsType(t, [32]byte{}, fb.sent[6].params[0])
	assert.Equal(t, uint32(250000), fb.sent[7].params[0])

	// Every call must pack against the ABI.
	for _, s := range fb.sent {
		_, err := g.abi.Pack(s.method, s.params...)
		assert.NoError(t, err, s.method)
	}
}

func TestWriteGasBump(t *testing.T) {
	fb := &fakeBinding{}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)
	g.gasBump = 10
	g.pricer = fixedPricer{price: big.NewInt(30_000_000_000)}

	_, err := g.DrawWinner(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(33_000_000_000), fb.sent[0].opts.GasPrice)
}

func TestBumpGasPrice(t *testing.T) {
	assert.Equal(t, big.NewInt(110), bumpGasPrice(big.NewInt(100), 10))
	assert.Equal(t, big.NewInt(1), bumpGasPrice(big.NewInt(1), 10), "integer division rounds down")
}

func TestWriteRevertedFails(t *testing.T) {
	g := newTestGateway(t, &fakeBinding{}, types.ReceiptStatusFailed)

	_, err := g.DrawWinner(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContractWrite)
	assert.Contains(t, err.Error(), "reverted")
}

func TestWriteLibraryErrorPassesThrough(t *testing.T) {
	cause := errors.New("execution reverted: Only admin")
	g := newTestGateway(t, &fakeBinding{txErr: cause}, types.ReceiptStatusSuccessful)

	_, err := g.AddParticipant(context.Background(), 1, "x@y.z")
	assert.ErrorIs(t, err, ErrContractWrite)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Only admin")
}

func TestWriteWaitError(t *testing.T) {
	g := newTestGateway(t, &fakeBinding{}, types.ReceiptStatusSuccessful)
	g.waitMined = func(ctx context.Context, _ *types.Transaction) (*types.Receipt, error) {
		return nil, context.DeadlineExceeded
	}
	_, err := g.DrawWinner(context.Background(), 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWriteRequiresBindingAndSigner(t *testing.T) {
	g, err := New(common.Address{})
	require.NoError(t, err)
	assert.False(t, g.Ready())

	_, err = g.CreateGiveaway(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotInitialized)

	g.binding = &fakeBinding{}
	_, err = g.CreateGiveaway(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoSigner)
	assert.ErrorIs(t, err, ErrContractWrite)
}

func TestReset(t *testing.T) {
	g := newTestGateway(t, &fakeBinding{}, types.ReceiptStatusSuccessful)
	assert.True(t, g.Ready())
	g.Reset()
	assert.False(t, g.Ready())
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func TestGetAllGiveawaysZipsColumns(t *testing.T) {
	fb := &fakeBinding{results: map[string][]interface{}{
		"getAllGiveaways": {
			[]*big.Int{big.NewInt(0), big.NewInt(1)},
			[]string{"Spring", "Summer"},
			[]bool{true, false},
			[]bool{false, true},
			[]*big.Int{big.NewInt(4), big.NewInt(9)},
			[]string{"", "w@x.io"},
		},
	}}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)

	list, err := g.GetAllGiveaways(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Giveaway{ID: 0, Name: "Spring", Active: true, ParticipantCount: 4}, list[0])
	assert.Equal(t, Giveaway{ID: 1, Name: "Summer", Completed: true, ParticipantCount: 9, Winner: "w@x.io"}, list[1])
	assert.True(t, list[0].IsOpen())
	assert.False(t, list[1].IsOpen())
	assert.Equal(t, admin, fb.callFrom, "reads are sent from the connected account")
}

func TestGetAllGiveawaysInconsistentLengths(t *testing.T) {
	fb := &fakeBinding{results: map[string][]interface{}{
		"getAllGiveaways": {
			[]*big.Int{big.NewInt(0)}, []string{}, []bool{true}, []bool{false}, []*big.Int{big.NewInt(1)}, []string{""},
		},
	}}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)
	_, err := g.GetAllGiveaways(context.Background())
	assert.ErrorIs(t, err, ErrContractRead)
}

func TestGetGiveawayParticipants(t *testing.T) {
	fb := &fakeBinding{results: map[string][]interface{}{
		"getAllParticipants": {[]string{"a@b.co", "c@d.io"}, []bool{false, true}},
	}}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)

	list, err := g.GetGiveawayParticipants(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []Participant{
		{Index: 0, Email: "a@b.co"},
		{Index: 1, Email: "c@d.io", HasWon: true},
	}, list)
	assert.Equal(t, []string{"getAllParticipants"}, fb.calls, "participants are read in one batch")
}

func TestGetGiveawayWinnerAndDetails(t *testing.T) {
	fb := &fakeBinding{results: map[string][]interface{}{
		"getGiveawayWinner":  {"w@x.io", big.NewInt(5)},
		"getGiveawayDetails": {"Summer", false, true, big.NewInt(9), "w@x.io"},
	}}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)

	w, err := g.GetGiveawayWinner(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Winner{Email: "w@x.io", Index: 5}, w)

	d, err := g.GetGiveawayDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Details{Name: "Summer", Completed: true, TotalParticipants: 9, Winner: "w@x.io"}, d)
}

func TestOwnerAdminAndVRFReads(t *testing.T) {
	keyHash := common.HexToHash("0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c")
	coordinator := common.HexToAddress("0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625")
	fb := &fakeBinding{results: map[string][]interface{}{
		"isAdmin":            {true},
		"getContractOwner":   {admin},
		"getChainlinkConfig": {coordinator, big.NewInt(77), [32]byte(keyHash), uint32(2_500_000), uint16(3)},
	}}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)
	ctx := context.Background()

	ok, err := g.IsAdmin(ctx, admin)
	require.NoError(t, err)
	assert.True(t, ok)

	owner, err := g.GetContractOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin, owner)

	vrf, err := g.GetChainlinkConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, coordinator, vrf.Coordinator)
	assert.Equal(t, big.NewInt(77), vrf.SubID)
	assert.Equal(t, keyHash, vrf.KeyHash)
	assert.Equal(t, uint32(2_500_000), vrf.GasLimit)
	assert.Equal(t, uint16(3), vrf.Confirmations)
}

func TestReadErrorsWrapContractRead(t *testing.T) {
	cause := errors.New("connection refused")
	g := newTestGateway(t, &fakeBinding{callErr: cause}, types.ReceiptStatusSuccessful)

	_, err := g.IsAdmin(context.Background(), admin)
	assert.ErrorIs(t, err, ErrContractRead)
	assert.ErrorIs(t, err, cause)
}

func TestReadWrongOutputCount(t *testing.T) {
	fb := &fakeBinding{results: map[string][]interface{}{"getContractOwner": {}}}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)
	_, err := g.GetContractOwner(context.Background())
	assert.ErrorIs(t, err, ErrContractRead)
}

func TestReadWithoutSignerUsesZeroFrom(t *testing.T) {
	fb := &fakeBinding{results: map[string][]interface{}{"isAdmin": {false}}}
	g := newTestGateway(t, fb, types.ReceiptStatusSuccessful)
	g.transactor = nil

	ok, err := g.IsAdmin(context.Background(), admin)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, common.Address{}, fb.callFrom)
}
