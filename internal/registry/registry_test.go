package registry

import (
	"context"
	"errors"
	"testing"

	"TradePulse/internal/domain/models"
	applogger "TradePulse/pkg/logger"
)

type fakeSender struct {
	alive bool
	sent  []models.ServerMessage
}

func (f *fakeSender) Send(msg models.ServerMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Alive() bool { return f.alive }

type fakeLedger struct {
	authorized bool
	err        error
}

func (f *fakeLedger) IsAuthorizedFollower(context.Context, string, string, string) (bool, error) {
	return f.authorized, f.err
}

func (f *fakeLedger) GetFollowers(context.Context, string, string) ([]string, error) {
	return nil, nil
}

func (f *fakeLedger) GetBalance(context.Context, string) (float64, error) {
	return 0, nil
}

func newTestRegistry(authorized bool) *Registry {
	return New(&fakeLedger{authorized: authorized}, applogger.Nop())
}

func drainEvents(r *Registry) []SymbolEvent {
	var out []SymbolEvent
	for {
		select {
		case ev := <-r.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	r := newTestRegistry(true)
	s := &fakeSender{alive: true}
	r.Register("c1", s)

	if err := r.Subscribe("c1", "BTC/USDT", "addr1"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := r.Subscribe("c1", "BTC/USDT", "addr1"); err != nil {
		t.Fatalf("duplicate subscribe: %v", err)
	}

	targets := r.TargetsFor("BTC/USDT")
	if len(targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(targets))
	}
	if !r.Active("BTC/USDT") {
		t.Fatalf("expected symbol active")
	}

	evs := drainEvents(r)
	if len(evs) != 1 || !evs[0].Active || evs[0].Symbol != "BTC/USDT" {
		t.Fatalf("expected single activation event, got %+v", evs)
	}
}

func TestSubscribeUnknownConnection(t *testing.T) {
	r := newTestRegistry(true)
	if err := r.Subscribe("ghost", "BTC/USDT", "addr"); !errors.Is(err, ErrUnknownConnection) {
		t.Fatalf("expected ErrUnknownConnection, got %v", err)
	}
}

func TestUnsubscribeDeactivates(t *testing.T) {
	r := newTestRegistry(true)
	r.Register("c1", &fakeSender{alive: true})
	_ = r.Subscribe("c1", "ETH/USDT", "addr1")
	drainEvents(r)

	r.Unsubscribe("c1", "ETH/USDT")
	if r.Active("ETH/USDT") {
		t.Fatalf("expected symbol inactive")
	}
	evs := drainEvents(r)
	if len(evs) != 1 || evs[0].Active {
		t.Fatalf("expected deactivation event, got %+v", evs)
	}

	// absent subscription is a no-op
	r.Unsubscribe("c1", "ETH/USDT")
}

func TestFollowAuthorized(t *testing.T) {
	r := newTestRegistry(true)
	r.Register("c1", &fakeSender{alive: true})

	err := r.Follow(context.Background(), "c1", "pubkey1", "trader1", "BTC/USDT", models.DefaultRiskProfile())
	if err != nil {
		t.Fatalf("follow: %v", err)
	}

	followers := r.FollowersOf("trader1", "BTC/USDT")
	if len(followers) != 1 {
		t.Fatalf("expected 1 follower, got %d", len(followers))
	}
	if followers[0].Relationship.Follower != "pubkey1" {
		t.Fatalf("unexpected follower %q", followers[0].Relationship.Follower)
	}
	if !r.Active("BTC/USDT") {
		t.Fatalf("expected symbol active via follow")
	}
	traders := r.Traders("BTC/USDT")
	if len(traders) != 1 || traders[0] != "trader1" {
		t.Fatalf("unexpected traders %v", traders)
	}
}

func TestFollowRejected(t *testing.T) {
	r := newTestRegistry(false)
	r.Register("c1", &fakeSender{alive: true})

	err := r.Follow(context.Background(), "c1", "pubkey1", "trader1", "BTC/USDT", models.DefaultRiskProfile())
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if len(r.FollowersOf("trader1", "BTC/USDT")) != 0 {
		t.Fatalf("rejected follow must not register")
	}
	if r.Active("BTC/USDT") {
		t.Fatalf("rejected follow must not activate symbol")
	}
}

func TestFollowLedgerError(t *testing.T) {
	r := New(&fakeLedger{err: errors.New("ledger down")}, applogger.Nop())
	r.Register("c1", &fakeSender{alive: true})

	err := r.Follow(context.Background(), "c1", "pubkey1", "trader1", "BTC/USDT", models.DefaultRiskProfile())
	if err == nil {
		t.Fatalf("expected error when ledger is unavailable")
	}
}

func TestUnfollowConnReturnsRelationships(t *testing.T) {
	r := newTestRegistry(true)
	r.Register("c1", &fakeSender{alive: true})
	ctx := context.Background()
	_ = r.Follow(ctx, "c1", "pk", "t1", "BTC/USDT", models.DefaultRiskProfile())
	_ = r.Follow(ctx, "c1", "pk", "t2", "ETH/USDT", models.DefaultRiskProfile())

	removed := r.UnfollowConn("c1")
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed relationships, got %d", len(removed))
	}
	if r.Active("BTC/USDT") || r.Active("ETH/USDT") {
		t.Fatalf("expected both symbols inactive")
	}
}

func TestRemoveConnectionPurgesEverything(t *testing.T) {
	r := newTestRegistry(true)
	r.Register("c1", &fakeSender{alive: true})
	ctx := context.Background()
	_ = r.Subscribe("c1", "BTC/USDT", "addr")
	_ = r.Follow(ctx, "c1", "pk", "t1", "BTC/USDT", models.DefaultRiskProfile())

	r.RemoveConnection("c1")
	if len(r.TargetsFor("BTC/USDT")) != 0 {
		t.Fatalf("expected no targets after removal")
	}
	if len(r.FollowersOf("t1", "BTC/USDT")) != 0 {
		t.Fatalf("expected no followers after removal")
	}
	if r.Active("BTC/USDT") {
		t.Fatalf("expected symbol inactive after removal")
	}

	// removing twice is a no-op
	r.RemoveConnection("c1")
}

func TestActiveSymbolsSnapshot(t *testing.T) {
	r := newTestRegistry(true)
	r.Register("c1", &fakeSender{alive: true})
	r.Register("c2", &fakeSender{alive: true})
	_ = r.Subscribe("c1", "BTC/USDT", "a1")
	_ = r.Subscribe("c2", "ETH/USDT", "a2")

	syms := r.ActiveSymbols()
	if len(syms) != 2 {
		t.Fatalf("expected 2 active symbols, got %v", syms)
	}
}

func TestSharedSymbolRefcount(t *testing.T) {
	r := newTestRegistry(true)
	r.Register("c1", &fakeSender{alive: true})
	r.Register("c2", &fakeSender{alive: true})
	_ = r.Subscribe("c1", "BTC/USDT", "a1")
	_ = r.Subscribe("c2", "BTC/USDT", "a2")
	drainEvents(r)

	r.Unsubscribe("c1", "BTC/USDT")
	if !r.Active("BTC/USDT") {
		t.Fatalf("symbol must stay active while c2 is subscribed")
	}
	if evs := drainEvents(r); len(evs) != 0 {
		t.Fatalf("no event expected while refcount > 0, got %+v", evs)
	}

	r.Unsubscribe("c2", "BTC/USDT")
	if r.Active("BTC/USDT") {
		t.Fatalf("symbol must deactivate after last unsubscribe")
	}
}
