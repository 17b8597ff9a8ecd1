// Package auth decides whether the connected account may use the console:
// it must be the contract owner or a registered admin.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/w3giveaway/internal/config"
	"github.com/Mohsinsiddi/w3giveaway/internal/session"
)

// ErrUnauthorized is returned by the Require* pre-checks.
var ErrUnauthorized = errors.New("unauthorized")

// Checker performs the two on-chain role reads.
type Checker interface {
	IsAdmin(ctx context.Context, addr common.Address) (bool, error)
	GetContractOwner(ctx context.Context) (common.Address, error)
}

// SessionSource exposes the current wallet session.
type SessionSource interface {
	Session() session.Session
}

// RenderState is what the gated views should show.
type RenderState int

const (
	NotConnected RenderState = iota
	Checking
	Denied
	Authorized
	// WrongNetwork means a wallet is connected on another chain. Roles are
	// not read until it switches back.
	WrongNetwork
)

func (s RenderState) String() string {
	switch s {
	case NotConnected:
		return "not connected"
	case Checking:
		return "checking"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	case WrongNetwork:
		return "wrong network"
	default:
		return "unknown"
	}
}

// Result is the outcome of one evaluation.
type Result struct {
	Authorized bool
}

// AuthorizationState is a snapshot of the cached role flags.
type AuthorizationState struct {
	IsOwner     bool
	IsAdmin     bool
	Checking    bool
	LastChecked time.Time
}

// Gate caches role checks for the connected account.
type Gate struct {
	checker  Checker
	sessions SessionSource
	log      *zap.Logger
	now      func() time.Time
	window   time.Duration
	interval time.Duration

	mu    sync.Mutex
	state AuthorizationState
	// gen is bumped by Reset so results for a previous account are dropped.
	gen    uint64
	subs   map[int]func(AuthorizationState)
	nextID int

	tickMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger for soft failures.
func WithLogger(log *zap.Logger) Option {
	return func(g *Gate) { g.log = log }
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithRefreshInterval sets the periodic refresh period.
func WithRefreshInterval(d time.Duration) Option {
	return func(g *Gate) { g.interval = d }
}

// WithCacheWindow sets how long a positive result short-circuits Evaluate.
func WithCacheWindow(d time.Duration) Option {
	return func(g *Gate) { g.window = d }
}

// New returns a gate reading roles through checker for the account of
// sessions.
func New(checker Checker, sessions SessionSource, opts ...Option) *Gate {
	g := &Gate{
		checker:  checker,
		sessions: sessions,
		log:      zap.NewNop(),
		now:      time.Now,
		window:   config.AuthCacheWindow,
		interval: config.AuthRefreshInterval,
		subs:     make(map[int]func(AuthorizationState)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// --- role checks ---

// account is the address role reads run for. It is nil unless a wallet is
// connected on the required network.
func (g *Gate) account() *common.Address {
	s := g.sessions.Session()
	if !s.IsConnected || !s.IsCorrectNetwork {
		return nil
	}
	return s.Account
}

// CheckOwner reports whether the connected account owns the contract. Read
// failures count as false.
func (g *Gate) CheckOwner(ctx context.Context) bool {
	acct := g.account()
	if acct == nil {
		return false
	}
	return g.checkOwner(ctx, *acct)
}

// CheckAdmin reports whether the connected account is a registered admin.
// Read failures count as false.
func (g *Gate) CheckAdmin(ctx context.Context) bool {
	acct := g.account()
	if acct == nil {
		return false
	}
	return g.checkAdmin(ctx, *acct)
}

func (g *Gate) checkOwner(ctx context.Context, acct common.Address) bool {
	owner, err := g.checker.GetContractOwner(ctx)
	if err != nil {
		g.log.Warn("owner check failed",
			zap.String("account", acct.Hex()),
			zap.String("function", "getContractOwner"),
			zap.Error(err))
		return false
	}
	return owner == acct
}

func (g *Gate) checkAdmin(ctx context.Context, acct common.Address) bool {
	ok, err := g.checker.IsAdmin(ctx, acct)
	if err != nil {
		g.log.Warn("admin check failed",
			zap.String("account", acct.Hex()),
			zap.String("function", "isAdmin"),
			zap.Error(err))
		return false
	}
	return ok
}

// --- evaluation ---

// Evaluate decides authorization for the connected account. A positive
// result younger than the cache window is reused without a read.
func (g *Gate) Evaluate(ctx context.Context) Result {
	acct := g.account()
	if acct == nil {
		return Result{}
	}

	g.mu.Lock()
	st := g.state
	if (st.IsOwner || st.IsAdmin) && g.now().Sub(st.LastChecked) < g.window {
		g.mu.Unlock()
		return Result{Authorized: true}
	}
	g.state.Checking = true
	gen := g.gen
	g.mu.Unlock()
	g.notify()

	return g.run(ctx, *acct, gen, true)
}

// Refresh re-reads both roles, ignoring the cache. It does not enter the
// Checking state.
func (g *Gate) Refresh(ctx context.Context) Result {
	acct := g.account()
	if acct == nil {
		return Result{}
	}
	g.mu.Lock()
	gen := g.gen
	g.mu.Unlock()
	return g.run(ctx, *acct, gen, false)
}

func (g *Gate) run(ctx context.Context, acct common.Address, gen uint64, checking bool) Result {
	var isOwner, isAdmin bool
	var eg errgroup.Group
	eg.Go(func() error {
		isOwner = g.checkOwner(ctx, acct)
		return nil
	})
	eg.Go(func() error {
		isAdmin = g.checkAdmin(ctx, acct)
		return nil
	})
	_ = eg.Wait()

	g.mu.Lock()
	if gen != g.gen {
		g.mu.Unlock()
		return Result{}
	}
	g.state.IsOwner = isOwner
	g.state.IsAdmin = isAdmin
	g.state.LastChecked = g.now()
	if checking {
		g.state.Checking = false
	}
	g.mu.Unlock()
	g.notify()

	g.log.Debug("authorization evaluated",
		zap.String("account", acct.Hex()),
		zap.Bool("owner", isOwner),
		zap.Bool("admin", isAdmin))
	return Result{Authorized: isOwner || isAdmin}
}

// Reset drops the cached flags and any in-flight result.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.gen++
	g.state = AuthorizationState{}
	g.mu.Unlock()
	g.notify()
}

// State returns what the gated views should render.
func (g *Gate) State() RenderState {
	s := g.sessions.Session()
	if !s.IsConnected || s.Account == nil {
		return NotConnected
	}
	if !s.IsCorrectNetwork {
		return WrongNetwork
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.state.Checking:
		return Checking
	case g.state.IsOwner || g.state.IsAdmin:
		return Authorized
	default:
		return Denied
	}
}

// Snapshot returns the cached flags.
func (g *Gate) Snapshot() AuthorizationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// --- pre-checks for privileged writes ---

// RequireOwner re-reads the owner before an owner-only write such as admin
// management. op completes "only the contract owner can ...".
func (g *Gate) RequireOwner(ctx context.Context, op string) error {
	if g.CheckOwner(ctx) {
		return nil
	}
	return fmt.Errorf("%w: only the contract owner can %s", ErrUnauthorized, op)
}

// RequireOwnerOrAdmin re-reads both roles before an owner-or-admin write.
func (g *Gate) RequireOwnerOrAdmin(ctx context.Context, op string) error {
	if g.Refresh(ctx).Authorized {
		return nil
	}
	return fmt.Errorf("%w: only the contract owner or an admin can %s", ErrUnauthorized, op)
}

// --- session triggers ---

// HandleChange reacts to a wallet session transition. Account or chain
// changes re-evaluate from scratch and keep the refresh ticker running. A
// disconnect or a move to another chain stops it without reading roles.
func (g *Gate) HandleChange(ctx context.Context, c session.Change) {
	g.Reset()
	if c.Reason == session.ReasonDisconnected || !c.Session.IsConnected || !c.Session.IsCorrectNetwork {
		g.Stop()
		return
	}
	g.Evaluate(ctx)
	g.Start(ctx)
}

// --- periodic refresh ---

// Start runs Refresh every refresh interval until Stop or ctx is done. A
// running ticker is replaced.
func (g *Gate) Start(ctx context.Context) {
	g.tickMu.Lock()
	defer g.tickMu.Unlock()
	g.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	g.cancel = cancel
	g.done = done

	go func() {
		defer close(done)
		t := time.NewTicker(g.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				g.Refresh(ctx)
			}
		}
	}()
}

// Stop halts the periodic refresh and waits for it to exit.
func (g *Gate) Stop() {
	g.tickMu.Lock()
	defer g.tickMu.Unlock()
	g.stopLocked()
}

// Running reports whether the periodic refresh is active.
func (g *Gate) Running() bool {
	g.tickMu.Lock()
	defer g.tickMu.Unlock()
	return g.cancel != nil
}

func (g *Gate) stopLocked() {
	if g.cancel == nil {
		return
	}
	g.cancel()
	<-g.done
	g.cancel = nil
	g.done = nil
}

// --- subscribers ---

// Subscribe registers fn for every state update until the returned func is
// called.
func (g *Gate) Subscribe(fn func(AuthorizationState)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subs, id)
			g.mu.Unlock()
		})
	}
}

func (g *Gate) notify() {
	g.mu.Lock()
	st := g.state
	subs := make([]func(AuthorizationState), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}
