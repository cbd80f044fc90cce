package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	pkgch "TradePulse/pkg/clickhouse"
	applogger "TradePulse/pkg/logger"
)

// CHSignalStore implements SignalStore backed by ClickHouse. Every
// broadcast signal is appended to one table keyed by (symbol, ts).
type CHSignalStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client, l *applogger.Logger) *CHSignalStore {
	return &CHSignalStore{client: ch, db: ch.DB(), l: l}
}

var signalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
        symbol     LowCardinality(String),
        ts         DateTime64(3),
        value      Int8,
        confidence Float64,
        risk_score Float64,
        size       Float64,
        targets    UInt32
    )
    ENGINE = MergeTree
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, ts)
    TTL toDateTime(ts) + INTERVAL 90 DAY`,
}

// Init creates the signals table if it does not exist.
func (s *CHSignalStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, signalSchema)
}

func (s *CHSignalStore) Store(ctx context.Context, rec *models.SignalRecord) error {
	const q = `
        INSERT INTO signals (symbol, ts, value, confidence, risk_score, size, targets)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		rec.Symbol, rec.Timestamp, rec.Value, rec.Confidence, rec.RiskScore, rec.Size, uint32(rec.Targets))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store signal error",
				applogger.String("symbol", rec.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store signal: %w", err)
	}
	return nil
}

func (s *CHSignalStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalRecord, error) {
	const q = `
        SELECT symbol, ts, value, confidence, risk_score, size, targets
        FROM signals
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.SignalRecord, 0, limit)
	for rows.Next() {
		var (
			rec     models.SignalRecord
			targets uint32
		)
		if err := rows.Scan(&rec.Symbol, &rec.Timestamp, &rec.Value, &rec.Confidence, &rec.RiskScore, &rec.Size, &targets); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.Targets = int(targets)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHSignalStore) Close() error {
	return s.client.Close()
}
