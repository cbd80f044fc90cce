package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// NoopSignalStore satisfies SignalStore when persistence is disabled.
type NoopSignalStore struct{}

func (NoopSignalStore) Init(context.Context) error                    { return nil }
func (NoopSignalStore) Store(context.Context, *models.SignalRecord) error { return nil }
func (NoopSignalStore) Query(context.Context, string, time.Time, time.Time, int) ([]*models.SignalRecord, error) {
	return nil, nil
}
func (NoopSignalStore) Health(context.Context) error { return nil }
func (NoopSignalStore) Close() error                 { return nil }

// NoopJournal satisfies Journal when the audit stream is disabled.
type NoopJournal struct{}

func (NoopJournal) SignalAccepted(context.Context, *models.SignalRecord) error { return nil }
func (NoopJournal) ProfitDistributed(context.Context, *models.Distribution) error {
	return nil
}
func (NoopJournal) Close() error { return nil }
