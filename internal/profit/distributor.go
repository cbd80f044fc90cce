package profit

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"TradePulse/internal/broadcast"
	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/registry"
	applogger "TradePulse/pkg/logger"
)

// ErrNoFollowers marks a distribution with nobody to pay. It is logged
// by Distribute and never aborts the caller.
var ErrNoFollowers = errors.New("no followers for trader and symbol")

// Distributor splits realized profit between the trader and the
// followers registered at distribution time. The trader takes a fixed
// 70%; the remaining 30% is divided equally across follower
// identities. Equal split is a policy choice, not stake-weighted.
type Distributor struct {
	reg     *registry.Registry
	bcast   *broadcast.Broadcaster
	journal drepo.Journal
	metrics drepo.Metrics
	log     *applogger.Logger

	traderShare decimal.Decimal
}

// NewDistributor creates a Distributor with the standard 70/30 split.
func NewDistributor(reg *registry.Registry, bcast *broadcast.Broadcaster, journal drepo.Journal, metrics drepo.Metrics, log *applogger.Logger) *Distributor {
	return &Distributor{
		reg:         reg,
		bcast:       bcast,
		journal:     journal,
		metrics:     metrics,
		log:         log,
		traderShare: decimal.NewFromFloat(0.7),
	}
}

// Result reports how one distribution was split. TraderShare settlement
// is the ledger's responsibility and is not pushed over the wire.
type Result struct {
	Trader      string
	Symbol      string
	TraderShare decimal.Decimal
	Shares      []models.Distribution
}

// Distribute computes the split for a realized profit and emits one
// profit_distribution event per follower. The follower snapshot is read
// atomically against concurrent follow/unfollow: a follower receives a
// share iff present at the moment the snapshot was taken.
func (d *Distributor) Distribute(ctx context.Context, trader, symbol string, profit float64) (*Result, error) {
	followers := d.reg.FollowersOf(trader, symbol)
	if len(followers) == 0 {
		if d.log != nil {
			d.log.Info("distribution skipped",
				applogger.String("trader", trader),
				applogger.String("symbol", symbol),
				applogger.Error(ErrNoFollowers))
		}
		if d.metrics != nil {
			d.metrics.RecordError("distribute_no_followers")
		}
		return nil, nil
	}

	// one share per follower identity: the same identity connected
	// more than once is paid once, every live connection still gets
	// the notification frame
	identities := make([]string, 0, len(followers))
	connsOf := make(map[string][]registry.FollowerTarget, len(followers))
	for _, f := range followers {
		id := f.Relationship.Follower
		if _, seen := connsOf[id]; !seen {
			identities = append(identities, id)
		}
		connsOf[id] = append(connsOf[id], f)
	}

	total := decimal.NewFromFloat(profit)
	traderCut := total.Mul(d.traderShare)
	followerPool := total.Sub(traderCut)
	each := followerPool.Div(decimal.NewFromInt(int64(len(identities))))

	now := time.Now().Unix()
	res := &Result{
		Trader:      trader,
		Symbol:      symbol,
		TraderShare: traderCut,
		Shares:      make([]models.Distribution, 0, len(identities)),
	}

	for _, identity := range identities {
		dist := models.Distribution{
			Trader:   trader,
			Follower: identity,
			Symbol:   symbol,
			Amount:   each.String(),
		}
		res.Shares = append(res.Shares, dist)

		for _, f := range connsOf[identity] {
			d.bcast.DeliverOne(f.Target, models.ServerMessage{
				Type:      models.MsgProfitDistribution,
				Trader:    trader,
				Symbol:    symbol,
				Amount:    each.String(),
				Timestamp: now,
			})
		}

		if d.journal != nil {
			if err := d.journal.ProfitDistributed(ctx, &dist); err != nil && d.log != nil {
				d.log.Warn("distribution journal failed",
					applogger.String("follower", dist.Follower),
					applogger.Error(err))
			}
		}
	}

	if d.log != nil {
		d.log.Info("profit distributed",
			applogger.String("trader", trader),
			applogger.String("symbol", symbol),
			applogger.String("trader_share", traderCut.String()),
			applogger.Int("followers", len(identities)))
	}
	return res, nil
}
