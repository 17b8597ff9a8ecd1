// Package txn tracks the lifecycle of the user's most recent contract write.
package txn

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3giveaway/internal/chain"
)

// MsgNoIdentifier is the failure text for a write that returned no hash.
const MsgNoIdentifier = "transaction returned no identifier"

// Phase is one of Idle, Pending, Succeeded or Failed.
type Phase interface {
	phase()
	String() string
}

// Idle means no write has started.
type Idle struct{}

// Pending means a write is in flight.
type Pending struct{}

// Succeeded carries the mined transaction hash.
type Succeeded struct{ TxID string }

// Failed carries the error text shown to the user.
type Failed struct{ Message string }

func (Idle) phase()      {}
func (Pending) phase()   {}
func (Succeeded) phase() {}
func (Failed) phase()    {}

func (Idle) String() string      { return "idle" }
func (Pending) String() string   { return "pending" }
func (Succeeded) String() string { return "succeeded" }
func (Failed) String() string    { return "failed" }

// Record is a snapshot of the tracker.
type Record struct {
	FunctionName string
	Phase        Phase
	Visible      bool
	Network      string
}

// ExplorerURL links the transaction of a succeeded record, or "".
func (r Record) ExplorerURL() string {
	s, ok := r.Phase.(Succeeded)
	if !ok {
		return ""
	}
	return chain.ExplorerTxURL(r.Network, s.TxID)
}

// Tracker holds the state of one write at a time.
type Tracker struct {
	log *zap.Logger

	mu     sync.Mutex
	rec    Record
	subs   map[int]func(Record)
	nextID int
}

// New returns an idle, hidden tracker using network for explorer links.
func New(network string, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		log:  log,
		rec:  Record{Phase: Idle{}, Network: network},
		subs: make(map[int]func(Record)),
	}
}

// Start opens a new cycle for functionName and shows the tracker.
func (t *Tracker) Start(functionName string) {
	t.update(func(r *Record) bool {
		r.FunctionName = functionName
		r.Phase = Pending{}
		r.Visible = true
		return true
	})
	t.log.Info("transaction started", zap.String("function", functionName))
}

// Complete records success. It only applies while pending; an empty txID
// fails the cycle instead.
func (t *Tracker) Complete(txID string) {
	if txID == "" {
		t.Fail(MsgNoIdentifier)
		return
	}
	if t.update(func(r *Record) bool {
		if _, ok := r.Phase.(Pending); !ok {
			return false
		}
		r.Phase = Succeeded{TxID: txID}
		return true
	}) {
		t.log.Info("transaction confirmed", zap.String("function", t.Snapshot().FunctionName), zap.String("tx", txID))
	}
}

// Fail records a failure. It only applies while pending.
func (t *Tracker) Fail(message string) {
	if t.update(func(r *Record) bool {
		if _, ok := r.Phase.(Pending); !ok {
			return false
		}
		r.Phase = Failed{Message: message}
		return true
	}) {
		t.log.Warn("transaction failed", zap.String("function", t.Snapshot().FunctionName), zap.String("error", message))
	}
}

// Close hides the tracker. The phase is kept and nothing is cancelled.
func (t *Tracker) Close() {
	t.update(func(r *Record) bool {
		if !r.Visible {
			return false
		}
		r.Visible = false
		return true
	})
}

// Run starts a cycle for name, runs fn and records its outcome. It waits for
// fn however long it takes.
func (t *Tracker) Run(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) (string, error) {
	t.Start(name)
	txID, err := fn(ctx)
	if err != nil {
		t.Fail(err.Error())
		return "", err
	}
	t.Complete(txID)
	return txID, nil
}

// Snapshot returns the current record.
func (t *Tracker) Snapshot() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec
}

// Subscribe registers fn for every change until the returned func is called.
func (t *Tracker) Subscribe(fn func(Record)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// update applies fn under the lock and notifies subscribers if it reports a
// change.
func (t *Tracker) update(fn func(*Record) bool) bool {
	t.mu.Lock()
	if !fn(&t.rec) {
		t.mu.Unlock()
		return false
	}
	rec := t.rec
	subs := make([]func(Record), 0, len(t.subs))
	for _, s := range t.subs {
		subs = append(subs, s)
	}
	t.mu.Unlock()

	for _, s := range subs {
		s(rec)
	}
	return true
}
