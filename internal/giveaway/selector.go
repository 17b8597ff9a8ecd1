// Package giveaway keeps the giveaway list and the user's active selection.
package giveaway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/w3giveaway/internal/gateway"
)

// ErrNotFound is returned when selecting an id that is not in the list.
var ErrNotFound = errors.New("giveaway not found")

// DetailsFetcher reads one giveaway's details.
type DetailsFetcher interface {
	GetGiveawayDetails(ctx context.Context, id uint64) (gateway.Details, error)
}

// Loader reads the full giveaway list.
type Loader interface {
	GetAllGiveaways(ctx context.Context) ([]gateway.Giveaway, error)
}

// Stats summarises the giveaway list.
type Stats struct {
	Total     int
	Active    int
	Completed int
}

// Selector holds the list, the selection and the selection's details.
type Selector struct {
	mu        sync.Mutex
	all       []gateway.Giveaway
	active    []gateway.Giveaway
	selected  *gateway.Giveaway
	details   *gateway.Details
	loading   bool
	subs      map[int]func()
	nextSubID int
}

// NewSelector returns an empty selector.
func NewSelector() *Selector {
	return &Selector{subs: make(map[int]func())}
}

// SetGiveaways replaces the list and selects the first open giveaway when
// nothing is selected.
func (s *Selector) SetGiveaways(list []gateway.Giveaway) {
	s.mu.Lock()
	s.all = append([]gateway.Giveaway(nil), list...)
	s.active = s.active[:0:0]
	for _, g := range s.all {
		if g.IsOpen() {
			s.active = append(s.active, g)
		}
	}
	if s.selected == nil && len(s.active) > 0 {
		first := s.active[0]
		s.selected = &first
		s.details = nil
	} else if s.selected != nil {
		// keep the selection current with the fresh row
		for _, g := range s.all {
			if g.ID == s.selected.ID {
				g := g
				s.selected = &g
				break
			}
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Reload fetches the list through loader and applies it.
func (s *Selector) Reload(ctx context.Context, loader Loader) error {
	list, err := loader.GetAllGiveaways(ctx)
	if err != nil {
		return err
	}
	s.SetGiveaways(list)
	return nil
}

// All returns every giveaway in source order.
func (s *Selector) All() []gateway.Giveaway {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.Giveaway(nil), s.all...)
}

// Active returns the giveaways that are active and not completed.
func (s *Selector) Active() []gateway.Giveaway {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.Giveaway(nil), s.active...)
}

// Change selects g and clears the cached details.
func (s *Selector) Change(g gateway.Giveaway) {
	s.mu.Lock()
	s.selected = &g
	s.details = nil
	s.mu.Unlock()
	s.notify()
}

// Select selects the listed giveaway with id.
func (s *Selector) Select(id uint64) error {
	s.mu.Lock()
	var found *gateway.Giveaway
	for _, g := range s.all {
		if g.ID == id {
			g := g
			found = &g
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.Change(*found)
	return nil
}

// Clear drops the selection and details.
func (s *Selector) Clear() {
	s.mu.Lock()
	s.selected = nil
	s.details = nil
	s.mu.Unlock()
	s.notify()
}

// Selected returns the current selection.
func (s *Selector) Selected() (gateway.Giveaway, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return gateway.Giveaway{}, false
	}
	return *s.selected, true
}

// Details returns the last loaded details of the selection.
func (s *Selector) Details() (gateway.Details, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.details == nil {
		return gateway.Details{}, false
	}
	return *s.details, true
}

// Loading reports whether LoadDetails is in flight.
func (s *Selector) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LoadDetails fetches the selection's details. With no selection it does
// nothing. On error the previous details are kept.
func (s *Selector) LoadDetails(ctx context.Context, f DetailsFetcher) error {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return nil
	}
	id := s.selected.ID
	s.loading = true
	s.mu.Unlock()
	s.notify()

	d, err := f.GetGiveawayDetails(ctx, id)

	s.mu.Lock()
	s.loading = false
	if err == nil && s.selected != nil && s.selected.ID == id {
		s.details = &d
	}
	s.mu.Unlock()
	s.notify()
	if err != nil {
		return fmt.Errorf("loading giveaway %d: %w", id, err)
	}
	return nil
}

// Stats counts the listed giveaways.
func (s *Selector) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.all), Active: len(s.active)}
	for _, g := range s.all {
		if g.Completed {
			st.Completed++
		}
	}
	return st
}

// ParticipantStats counts entrants and winners.
func ParticipantStats(ps []gateway.Participant) (total, winners int) {
	for _, p := range ps {
		if p.HasWon {
			winners++
		}
	}
	return len(ps), winners
}

// Subscribe registers fn for every change until the returned func is called.
func (s *Selector) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Selector) notify() {
	s.mu.Lock()
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
