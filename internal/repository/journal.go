package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaJournal publishes accepted signals and profit distributions to
// the audit topics. Messages are keyed by symbol so one symbol's events
// stay ordered within a partition.
type KafkaJournal struct {
	producer    *pkgkafka.Producer
	signalTopic string
	profitTopic string
}

func NewKafkaJournal(producer *pkgkafka.Producer, signalTopic, profitTopic string) *KafkaJournal {
	return &KafkaJournal{
		producer:    producer,
		signalTopic: signalTopic,
		profitTopic: profitTopic,
	}
}

type signalEvent struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	Value      int       `json:"value"`
	Confidence float64   `json:"confidence"`
	RiskScore  float64   `json:"risk_score"`
	Size       float64   `json:"size"`
	Targets    int       `json:"targets"`
}

func (j *KafkaJournal) SignalAccepted(ctx context.Context, rec *models.SignalRecord) error {
	return j.producer.Publish(ctx, j.signalTopic, []byte(rec.Symbol), signalEvent{
		Symbol:     rec.Symbol,
		Timestamp:  rec.Timestamp,
		Value:      rec.Value,
		Confidence: rec.Confidence,
		RiskScore:  rec.RiskScore,
		Size:       rec.Size,
		Targets:    rec.Targets,
	})
}

type distributionEvent struct {
	Trader    string    `json:"trader"`
	Follower  string    `json:"follower"`
	Symbol    string    `json:"symbol"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func (j *KafkaJournal) ProfitDistributed(ctx context.Context, d *models.Distribution) error {
	return j.producer.Publish(ctx, j.profitTopic, []byte(d.Symbol), distributionEvent{
		Trader:    d.Trader,
		Follower:  d.Follower,
		Symbol:    d.Symbol,
		Amount:    d.Amount,
		Timestamp: time.Now().UTC(),
	})
}

func (j *KafkaJournal) Close() error {
	return j.producer.Close()
}
