package gateway

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventKind names a contract event.
type EventKind string

// Contract events surfaced in the feed.
const (
	EventGiveawayCreated   EventKind = "GiveawayCreated"
	EventGiveawayCompleted EventKind = "GiveawayCompleted"
	EventParticipantAdded  EventKind = "ParticipantAdded"
	EventWinnerRequested   EventKind = "WinnerRequested"
	EventWinnerSelected    EventKind = "WinnerSelected"
)

// EventKinds lists every kind in feed order.
var EventKinds = []EventKind{
	EventGiveawayCreated,
	EventGiveawayCompleted,
	EventParticipantAdded,
	EventWinnerRequested,
	EventWinnerSelected,
}

// Event is one decoded contract log. Fields not carried by Kind are zero.
type Event struct {
	Kind       EventKind
	GiveawayID uint64
	Name       string   // GiveawayCreated
	Email      string   // ParticipantAdded, WinnerSelected
	Index      uint64   // ParticipantAdded, WinnerSelected
	RequestID  *big.Int // WinnerRequested
	Block      uint64
	TxHash     common.Hash
	LogIndex   uint
}

// RecentEvents collects every feed event from fromBlock to head, ordered by
// block and log index.
func (g *Gateway) RecentEvents(ctx context.Context, fromBlock uint64) ([]Event, error) {
	g.mu.RLock()
	b := g.binding
	g.mu.RUnlock()
	if b == nil {
		return nil, fmt.Errorf("%w: events: %w", ErrContractRead, ErrNotInitialized)
	}

	var events []Event
	for _, kind := range EventKinds {
		logs, err := filterAll(ctx, b, string(kind), fromBlock)
		if err != nil {
			return nil, fmt.Errorf("%w: %s logs: %w", ErrContractRead, kind, err)
		}
		for _, l := range logs {
			ev, err := g.decodeEvent(kind, l)
			if err != nil {
				return nil, fmt.Errorf("%w: decoding %s: %w", ErrContractRead, kind, err)
			}
			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Block != events[j].Block {
			return events[i].Block < events[j].Block
		}
		return events[i].LogIndex < events[j].LogIndex
	})
	return events, nil
}

// filterAll drains a FilterLogs subscription the way generated iterators do.
func filterAll(ctx context.Context, b binding, name string, fromBlock uint64) ([]types.Log, error) {
	ch, sub, err := b.FilterLogs(&bind.FilterOpts{Start: fromBlock, Context: ctx}, name)
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	var out []types.Log
	for {
		select {
		case l := <-ch:
			out = append(out, l)
		case err := <-sub.Err():
			if err != nil {
				return nil, err
			}
			for {
				select {
				case l := <-ch:
					out = append(out, l)
				default:
					return out, nil
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (g *Gateway) decodeEvent(kind EventKind, l types.Log) (Event, error) {
	def, ok := g.abi.Events[string(kind)]
	if !ok {
		return Event{}, fmt.Errorf("unknown event %s", kind)
	}

	fields := make(map[string]interface{})
	if len(l.Data) > 0 {
		if err := g.abi.UnpackIntoMap(fields, string(kind), l.Data); err != nil {
			return Event{}, err
		}
	}
	var indexed abi.Arguments
	for _, arg := range def.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(l.Topics) < 1+len(indexed) {
		return Event{}, fmt.Errorf("expected %d topics, got %d", 1+len(indexed), len(l.Topics))
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, l.Topics[1:]); err != nil {
		return Event{}, err
	}

	ev := Event{Kind: kind, Block: l.BlockNumber, TxHash: l.TxHash, LogIndex: l.Index}
	if v, ok := fields["giveawayId"].(*big.Int); ok {
		ev.GiveawayID = v.Uint64()
	}
	if v, ok := fields["name"].(string); ok {
		ev.Name = v
	}
	if v, ok := fields["email"].(string); ok {
		ev.Email = v
	}
	if v, ok := fields["winnerEmail"].(string); ok {
		ev.Email = v
	}
	if v, ok := fields["index"].(*big.Int); ok {
		ev.Index = v.Uint64()
	}
	if v, ok := fields["requestId"].(*big.Int); ok {
		ev.RequestID = v
	}
	return ev, nil
}
