package broadcast

import (
	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/registry"
	applogger "TradePulse/pkg/logger"
)

// Broadcaster fans one payload out to a snapshot of live connections.
// Delivery is at-most-once per target per call; there is no retry here,
// retry belongs to the producing cycle. Dead connections are skipped
// silently: disconnect races are expected, not exceptional.
type Broadcaster struct {
	metrics drepo.Metrics
	log     *applogger.Logger
}

// New creates a Broadcaster.
func New(metrics drepo.Metrics, log *applogger.Logger) *Broadcaster {
	return &Broadcaster{metrics: metrics, log: log}
}

// Deliver pushes msg to every live target and returns the number of
// successful sends. A failed send to one target never aborts delivery
// to the others.
func (b *Broadcaster) Deliver(targets []registry.Target, msg models.ServerMessage) int {
	delivered := 0
	for _, t := range targets {
		if t.Sender == nil || !t.Sender.Alive() {
			continue
		}
		if err := t.Sender.Send(msg); err != nil {
			if b.log != nil {
				b.log.Debug("delivery skipped",
					applogger.String("conn", string(t.ID)),
					applogger.Error(err))
			}
			continue
		}
		delivered++
	}
	if b.metrics != nil {
		b.metrics.RecordDelivery(msg.Type, delivered)
	}
	return delivered
}

// DeliverOne pushes msg to a single target, reporting success.
func (b *Broadcaster) DeliverOne(t registry.Target, msg models.ServerMessage) bool {
	return b.Deliver([]registry.Target{t}, msg) == 1
}
