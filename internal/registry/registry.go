package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"
)

var (
	// ErrNotAuthorized is returned when the ledger rejects a follow request.
	ErrNotAuthorized = errors.New("not an authorized follower for this trader and symbol")
	// ErrUnknownConnection is returned for operations on an unregistered connection.
	ErrUnknownConnection = errors.New("unknown connection")
)

// ConnID is the stable identifier of one client connection. The registry
// never holds the transport object itself, only the ID and a Sender.
type ConnID string

// Sender delivers one outbound frame to a client connection. Alive
// reports whether the connection can still accept frames; dead senders
// are skipped silently during fan-out.
type Sender interface {
	Send(msg models.ServerMessage) error
	Alive() bool
}

// Target is a fan-out destination resolved from the registry.
type Target struct {
	ID     ConnID
	Sender Sender
}

// FollowerTarget is a fan-out destination carrying the follower's own
// risk profile for per-target sizing.
type FollowerTarget struct {
	Target
	Relationship models.FollowRelationship
}

// SymbolEvent notifies the scheduler about symbol lifecycle changes.
type SymbolEvent struct {
	Symbol string
	Active bool
}

type followKey struct {
	trader string
	symbol string
}

type connState struct {
	sender   Sender
	identity string
	symbols  map[string]struct{}
	follows  map[followKey]models.FollowRelationship
}

// Registry is the single source of truth for fan-out targets: direct
// subscribers per symbol and followers per (trader, symbol) pair. All
// maps are guarded by one mutex; snapshots returned to callers are
// copies and safe to use without the lock.
type Registry struct {
	mu        sync.Mutex
	conns     map[ConnID]*connState
	subs      map[string]map[ConnID]struct{}
	followers map[followKey]map[ConnID]models.FollowRelationship
	refs      map[string]int // active-set refcount per symbol

	ledger drepo.Ledger
	log    *applogger.Logger
	events chan SymbolEvent
}

// New creates an empty registry backed by the given ledger.
func New(ledger drepo.Ledger, log *applogger.Logger) *Registry {
	return &Registry{
		conns:     make(map[ConnID]*connState),
		subs:      make(map[string]map[ConnID]struct{}),
		followers: make(map[followKey]map[ConnID]models.FollowRelationship),
		refs:      make(map[string]int),
		ledger:    ledger,
		log:       log,
		events:    make(chan SymbolEvent, 64),
	}
}

// Events exposes symbol activation notifications for the scheduler.
func (r *Registry) Events() <-chan SymbolEvent { return r.events }

// Register adds a connection to the arena and returns nothing; the
// caller owns the ID. Idempotent for an already registered ID.
func (r *Registry) Register(id ConnID, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return
	}
	r.conns[id] = &connState{
		sender:  sender,
		symbols: make(map[string]struct{}),
		follows: make(map[followKey]models.FollowRelationship),
	}
}

// Subscribe registers the connection as a direct subscriber of symbol.
// Subscribing twice is a no-op, not a second entry.
func (r *Registry) Subscribe(id ConnID, symbol, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	if identity != "" {
		cs.identity = identity
	}
	if _, dup := cs.symbols[symbol]; dup {
		return nil
	}
	cs.symbols[symbol] = struct{}{}
	if r.subs[symbol] == nil {
		r.subs[symbol] = make(map[ConnID]struct{})
	}
	r.subs[symbol][id] = struct{}{}
	r.retain(symbol)
	return nil
}

// Unsubscribe drops the direct subscription. Unknown connections and
// absent subscriptions are no-ops.
func (r *Registry) Unsubscribe(id ConnID, symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.conns[id]
	if !ok {
		return
	}
	if _, subbed := cs.symbols[symbol]; !subbed {
		return
	}
	delete(cs.symbols, symbol)
	r.dropSub(id, symbol)
}

// Follow creates a follow relationship after the ledger confirms the
// follower is authorized for this trader and symbol.
func (r *Registry) Follow(ctx context.Context, id ConnID, follower, trader, symbol string, profile models.RiskProfile) error {
	authorized, err := r.ledger.IsAuthorizedFollower(ctx, follower, trader, symbol)
	if err != nil {
		return fmt.Errorf("ledger check: %w", err)
	}
	if !authorized {
		return ErrNotAuthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	key := followKey{trader: trader, symbol: symbol}
	rel := models.FollowRelationship{
		Follower:  follower,
		Trader:    trader,
		Symbol:    symbol,
		Profile:   profile,
		CreatedAt: time.Now(),
	}
	if _, dup := cs.follows[key]; dup {
		// refresh the profile, keep the refcount
		cs.follows[key] = rel
		r.followers[key][id] = rel
		return nil
	}
	cs.follows[key] = rel
	if r.followers[key] == nil {
		r.followers[key] = make(map[ConnID]models.FollowRelationship)
	}
	r.followers[key][id] = rel
	r.retain(symbol)
	return nil
}

// Unfollow removes the relationship for the given triple across all
// connections of that follower. Absent relationships are a no-op.
func (r *Registry) Unfollow(follower, trader, symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := followKey{trader: trader, symbol: symbol}
	for id, rel := range r.followers[key] {
		if rel.Follower != follower {
			continue
		}
		if cs, ok := r.conns[id]; ok {
			delete(cs.follows, key)
		}
		r.dropFollow(id, key)
	}
}

// UnfollowConn removes every follow relationship owned by the
// connection and returns them so the gateway can confirm each.
func (r *Registry) UnfollowConn(id ConnID) []models.FollowRelationship {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.conns[id]
	if !ok {
		return nil
	}
	removed := make([]models.FollowRelationship, 0, len(cs.follows))
	for key, rel := range cs.follows {
		removed = append(removed, rel)
		delete(cs.follows, key)
		r.dropFollow(id, key)
	}
	return removed
}

// RemoveConnection purges all subscriptions and follow relationships
// owned by the connection. Invoked on disconnect.
func (r *Registry) RemoveConnection(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.conns[id]
	if !ok {
		return
	}
	for symbol := range cs.symbols {
		r.dropSub(id, symbol)
	}
	for key := range cs.follows {
		r.dropFollow(id, key)
	}
	delete(r.conns, id)
}

// TargetsFor returns the current snapshot of direct subscribers.
func (r *Registry) TargetsFor(symbol string) []Target {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.subs[symbol]
	out := make([]Target, 0, len(ids))
	for id := range ids {
		if cs, ok := r.conns[id]; ok {
			out = append(out, Target{ID: id, Sender: cs.sender})
		}
	}
	return out
}

// FollowersOf returns the current snapshot of follower records for a
// (trader, symbol) pair, each with its own risk profile. Distribution
// and follow-mode broadcast both read through this snapshot, so a
// follower takes part iff present at the moment the snapshot is taken.
func (r *Registry) FollowersOf(trader, symbol string) []FollowerTarget {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := followKey{trader: trader, symbol: symbol}
	out := make([]FollowerTarget, 0, len(r.followers[key]))
	for id, rel := range r.followers[key] {
		cs, ok := r.conns[id]
		if !ok {
			continue
		}
		out = append(out, FollowerTarget{
			Target:       Target{ID: id, Sender: cs.sender},
			Relationship: rel,
		})
	}
	return out
}

// Active reports whether the symbol still has subscribers or followers.
// The scheduler checks this at the top of every loop iteration.
func (r *Registry) Active(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs[symbol] > 0
}

// ActiveSymbols returns a snapshot of the active set.
func (r *Registry) ActiveSymbols() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.refs))
	for s, n := range r.refs {
		if n > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Traders returns the traders currently followed for a symbol.
func (r *Registry) Traders(symbol string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for key, m := range r.followers {
		if key.symbol == symbol && len(m) > 0 {
			out = append(out, key.trader)
		}
	}
	return out
}

// retain and release maintain the active-set refcount. Callers hold the lock.

func (r *Registry) retain(symbol string) {
	r.refs[symbol]++
	if r.refs[symbol] == 1 {
		r.notify(SymbolEvent{Symbol: symbol, Active: true})
	}
}

func (r *Registry) release(symbol string) {
	if r.refs[symbol] == 0 {
		return
	}
	r.refs[symbol]--
	if r.refs[symbol] == 0 {
		delete(r.refs, symbol)
		r.notify(SymbolEvent{Symbol: symbol, Active: false})
	}
}

func (r *Registry) dropSub(id ConnID, symbol string) {
	if m := r.subs[symbol]; m != nil {
		if _, ok := m[id]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(r.subs, symbol)
			}
			r.release(symbol)
		}
	}
}

func (r *Registry) dropFollow(id ConnID, key followKey) {
	if m := r.followers[key]; m != nil {
		if _, ok := m[id]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(r.followers, key)
			}
			r.release(key.symbol)
		}
	}
}

func (r *Registry) notify(ev SymbolEvent) {
	select {
	case r.events <- ev:
	default:
		if r.log != nil {
			r.log.Warn("registry event dropped", applogger.String("symbol", ev.Symbol))
		}
	}
}
