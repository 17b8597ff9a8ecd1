package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3giveaway/internal/txn"
)

const hash = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

// ---------------------------------------------------------------------------
// lifecycle
// ---------------------------------------------------------------------------

func TestNewTrackerIsIdle(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	r := tr.Snapshot()
	assert.Equal(t, txn.Idle{}, r.Phase)
	assert.False(t, r.Visible)
	assert.Empty(t, r.ExplorerURL())
}

func TestStartComplete(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	tr.Start("createGiveaway")

	r := tr.Snapshot()
	assert.Equal(t, "createGiveaway", r.FunctionName)
	assert.Equal(t, txn.Pending{}, r.Phase)
	assert.True(t, r.Visible)

	tr.Complete(hash)
	r = tr.Snapshot()
	assert.Equal(t, txn.Succeeded{TxID: hash}, r.Phase)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+hash, r.ExplorerURL())
}

func TestStartFail(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	tr.Start("drawWinner")
	tr.Fail("execution reverted")

	assert.Equal(t, txn.Failed{Message: "execution reverted"}, tr.Snapshot().Phase)
	assert.Empty(t, tr.Snapshot().ExplorerURL())
}

func TestCompleteEmptyIdFails(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	tr.Start("addAdmin")
	tr.Complete("")
	assert.Equal(t, txn.Failed{Message: txn.MsgNoIdentifier}, tr.Snapshot().Phase)
}

func TestOnlyFirstTerminalCallApplies(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	tr.Start("addParticipant")
	tr.Complete(hash)
	tr.Fail("late failure")
	tr.Complete("0xother")
	assert.Equal(t, txn.Succeeded{TxID: hash}, tr.Snapshot().Phase)

	tr.Start("addParticipant")
	tr.Fail("first")
	tr.Complete(hash)
	assert.Equal(t, txn.Failed{Message: "first"}, tr.Snapshot().Phase)
}

func TestTerminalWithoutStartIsNoop(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	tr.Complete(hash)
	tr.Fail("x")
	assert.Equal(t, txn.Idle{}, tr.Snapshot().Phase)
}

func TestStartResetsPreviousCycle(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	tr.Start("a")
	tr.Complete(hash)
	tr.Close()

	tr.Start("b")
	r := tr.Snapshot()
	assert.Equal(t, "b", r.FunctionName)
	assert.Equal(t, txn.Pending{}, r.Phase)
	assert.True(t, r.Visible)
}

func TestCloseKeepsPhase(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	tr.Start("a")
	tr.Close()
	r := tr.Snapshot()
	assert.False(t, r.Visible)
	assert.Equal(t, txn.Pending{}, r.Phase)

	tr.Complete(hash)
	assert.Equal(t, txn.Succeeded{TxID: hash}, tr.Snapshot().Phase, "closing does not cancel")
	assert.False(t, tr.Snapshot().Visible)
}

func TestNetworkPicksExplorer(t *testing.T) {
	tr := txn.New("polygon", nil)
	tr.Start("a")
	tr.Complete(hash)
	assert.Equal(t, "https://polygonscan.com/tx/"+hash, tr.Snapshot().ExplorerURL())
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRunSuccess(t *testing.T) {
	tr := txn.New("AMOY", nil)
	var during txn.Phase
	id, err := tr.Run(context.Background(), "setGiveawayActive", func(context.Context) (string, error) {
		during = tr.Snapshot().Phase
		return hash, nil
	})
	require.NoError(t, err)
	assert.Equal(t, hash, id)
	assert.Equal(t, txn.Pending{}, during)
	assert.Equal(t, "https://www.oklink.com/amoy/tx/"+hash, tr.Snapshot().ExplorerURL())
}

func TestRunFailure(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	boom := errors.New("contract write failed: drawWinner: insufficient funds")
	_, err := tr.Run(context.Background(), "drawWinner", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, txn.Failed{Message: boom.Error()}, tr.Snapshot().Phase)
}

// ---------------------------------------------------------------------------
// subscribers
// ---------------------------------------------------------------------------

func TestSubscribeSeesEveryTransition(t *testing.T) {
	tr := txn.New("SEPOLIA", nil)
	var phases []string
	unsub := tr.Subscribe(func(r txn.Record) { phases = append(phases, r.Phase.String()) })

	tr.Start("a")
	tr.Complete(hash)
	tr.Complete(hash)
	tr.Close()
	assert.Equal(t, []string{"pending", "succeeded", "succeeded"}, phases)

	unsub()
	tr.Start("b")
	assert.Len(t, phases, 3)
}
