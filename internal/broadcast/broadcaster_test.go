package broadcast

import (
	"errors"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/registry"
	applogger "TradePulse/pkg/logger"
)

type fakeSender struct {
	alive bool
	fail  bool
	sent  []models.ServerMessage
}

func (f *fakeSender) Send(msg models.ServerMessage) error {
	if f.fail {
		return errors.New("send queue full")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Alive() bool { return f.alive }

type fakeMetrics struct {
	deliveries map[string]int
}

func (f *fakeMetrics) RecordCycleLatency(string, float64) {}
func (f *fakeMetrics) RecordSignal(string, string)        {}
func (f *fakeMetrics) RecordError(string)                 {}
func (f *fakeMetrics) RecordDelivery(msgType string, n int) {
	if f.deliveries == nil {
		f.deliveries = make(map[string]int)
	}
	f.deliveries[msgType] += n
}
func (f *fakeMetrics) RecordActiveSymbols(int) {}

func target(id string, s *fakeSender) registry.Target {
	return registry.Target{ID: registry.ConnID(id), Sender: s}
}

func TestDeliverSkipsDeadAndFailed(t *testing.T) {
	live := &fakeSender{alive: true}
	dead := &fakeSender{alive: false}
	failing := &fakeSender{alive: true, fail: true}
	m := &fakeMetrics{}
	b := New(m, applogger.Nop())

	msg := models.ServerMessage{Type: models.MsgTradeSignal, Symbol: "BTC/USDT"}
	n := b.Deliver([]registry.Target{
		target("c1", live),
		target("c2", dead),
		target("c3", failing),
	}, msg)

	if n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	if len(live.sent) != 1 || len(dead.sent) != 0 {
		t.Fatalf("wrong fan-out: live=%d dead=%d", len(live.sent), len(dead.sent))
	}
	if m.deliveries[models.MsgTradeSignal] != 1 {
		t.Fatalf("expected delivery metric 1, got %d", m.deliveries[models.MsgTradeSignal])
	}
}

func TestDeliverFailureDoesNotAbortFanOut(t *testing.T) {
	first := &fakeSender{alive: true, fail: true}
	second := &fakeSender{alive: true}
	b := New(&fakeMetrics{}, applogger.Nop())

	n := b.Deliver([]registry.Target{target("c1", first), target("c2", second)},
		models.ServerMessage{Type: models.MsgSignal})

	if n != 1 || len(second.sent) != 1 {
		t.Fatalf("later targets must still be served, delivered=%d", n)
	}
}

func TestDeliverNilSender(t *testing.T) {
	b := New(&fakeMetrics{}, applogger.Nop())
	n := b.Deliver([]registry.Target{{ID: "c1"}}, models.ServerMessage{Type: models.MsgSignal})
	if n != 0 {
		t.Fatalf("nil sender must be skipped, got %d", n)
	}
}

func TestDeliverOne(t *testing.T) {
	s := &fakeSender{alive: true}
	b := New(&fakeMetrics{}, applogger.Nop())

	if !b.DeliverOne(target("c1", s), models.ServerMessage{Type: models.MsgTradeSignal}) {
		t.Fatalf("expected successful single delivery")
	}
	dead := &fakeSender{alive: false}
	if b.DeliverOne(target("c2", dead), models.ServerMessage{Type: models.MsgTradeSignal}) {
		t.Fatalf("dead target must report failure")
	}
}
