package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// MarketDataGateway supplies market snapshots per symbol. Fetch may fail
// transiently; retry policy belongs to the caller.
type MarketDataGateway interface {
	Fetch(ctx context.Context, symbol, interval string, lookback int) (*models.MarketSnapshot, error)
}

// SignalEngine turns a snapshot into indicators and a candidate signal.
// Generate returns nil when there is nothing actionable.
type SignalEngine interface {
	ComputeIndicators(snapshot *models.MarketSnapshot) (*models.Indicators, error)
	Generate(ctx context.Context, indicators *models.Indicators) (*models.Signal, error)
}

// Ledger is the external settlement authority for follow relationships.
type Ledger interface {
	IsAuthorizedFollower(ctx context.Context, follower, trader, symbol string) (bool, error)
	GetFollowers(ctx context.Context, trader, symbol string) ([]string, error)
	GetBalance(ctx context.Context, identity string) (float64, error)
}

// SignalStore persists broadcast signals for later query.
type SignalStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, rec *models.SignalRecord) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Journal publishes accepted signals and profit distributions to the
// audit stream.
type Journal interface {
	SignalAccepted(ctx context.Context, rec *models.SignalRecord) error
	ProfitDistributed(ctx context.Context, d *models.Distribution) error
	Close() error
}

// Metrics is the process-wide metrics sink.
type Metrics interface {
	RecordCycleLatency(symbol string, seconds float64)
	RecordSignal(symbol, outcome string)
	RecordError(kind string)
	RecordDelivery(msgType string, n int)
	RecordActiveSymbols(n int)
}
