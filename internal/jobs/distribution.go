package jobs

import (
	"context"
	"fmt"

	"TradePulse/internal/profit"
	"TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// TypeDistribution is the queue message type for profit distributions.
const TypeDistribution = "profit.distribute"

// DistributionPayload is the queued request to split a realized profit.
type DistributionPayload struct {
	Trader string  `json:"trader"`
	Symbol string  `json:"symbol"`
	Profit float64 `json:"profit"`
}

// DistributionJob consumes queued distribution requests and hands them
// to the distributor. Requests survive restarts because they sit in
// Redis until handled.
type DistributionJob struct {
	distributor *profit.Distributor
	log         *logger.Logger
}

func NewDistributionJob(distributor *profit.Distributor, log *logger.Logger) *DistributionJob {
	return &DistributionJob{distributor: distributor, log: log}
}

func (j *DistributionJob) Name() string { return "profit-distribution" }

func (j *DistributionJob) Type() string { return TypeDistribution }

func (j *DistributionJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[DistributionPayload](payload)
	if err != nil {
		return fmt.Errorf("parse distribution payload: %w", err)
	}
	if req.Trader == "" || req.Symbol == "" {
		return fmt.Errorf("distribution payload missing trader or symbol")
	}

	res, err := j.distributor.Distribute(ctx, req.Trader, req.Symbol, req.Profit)
	if err != nil {
		return fmt.Errorf("distribute: %w", err)
	}
	if res != nil {
		j.log.Info("queued distribution handled",
			logger.String("trader", req.Trader),
			logger.String("symbol", req.Symbol),
			logger.Int("shares", len(res.Shares)))
	}
	return nil
}
