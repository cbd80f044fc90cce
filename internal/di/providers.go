package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePulse/internal/broadcast"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/gateway"
	"TradePulse/internal/handler/api"
	"TradePulse/internal/jobs"
	"TradePulse/internal/profit"
	"TradePulse/internal/registry"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/risk"
	"TradePulse/internal/scheduler"
	"TradePulse/internal/service/cache"
	"TradePulse/internal/service/exchange"
	"TradePulse/internal/service/ledger"
	tasignal "TradePulse/internal/service/signal"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/queue"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the process logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient returns a shared Redis client, or nil when Redis
// is not configured.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Ledger.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Ledger.Redis.Addr,
		Password: cfg.Ledger.Redis.Password,
		DB:       cfg.Ledger.Redis.DB,
	})
}

// ProvideAuthCache picks the authorization cache backend: shared Redis
// when available, otherwise in-process TTL cache.
func ProvideAuthCache(cli *redis.Client) cache.BytesCache {
	if cli != nil {
		return cache.NewRedisCacheFrom(cli)
	}
	return cache.NewTTLCache()
}

// ProvideLedger creates the settlement ledger client.
func ProvideLedger(cfg *config.Config, c cache.BytesCache) repository.Ledger {
	return ledger.New(cfg.Ledger.BaseURL, cfg.Ledger.Timeout, c, cfg.Ledger.AuthCacheTTL)
}

// ProvideRegistry creates the subscription registry.
func ProvideRegistry(l repository.Ledger, log *applogger.Logger) *registry.Registry {
	return registry.New(l, log)
}

// ProvideMarketGateway creates the exchange REST client.
func ProvideMarketGateway(cfg *config.Config) repository.MarketDataGateway {
	return exchange.New(cfg.Exchange.BaseURL, cfg.Exchange.APIKey, cfg.Exchange.Timeout, cfg.Exchange.OrderBookDepth)
}

// ProvideSignalEngine creates the indicator-vote engine. The proposed
// size starts from the default pool's max position fraction.
func ProvideSignalEngine(cfg *config.Config) repository.SignalEngine {
	base := cfg.Scheduler.DefaultPoolValue * risk.DefaultPolicy().MaxPositionFraction
	return tasignal.NewEngine(base)
}

// ProvideRiskGate creates the risk gate with the order book impact
// estimator.
func ProvideRiskGate() *risk.Gate {
	return risk.NewGate(risk.DefaultPolicy(), exchange.EstimateImpact)
}

// ProvideBroadcaster creates the fan-out broadcaster.
func ProvideBroadcaster(m repository.Metrics, log *applogger.Logger) *broadcast.Broadcaster {
	return broadcast.New(m, log)
}

// ProvideSignalStore creates the ClickHouse signal store when enabled,
// a no-op store otherwise.
func ProvideSignalStore(cfg *config.Config, log *applogger.Logger) (repository.SignalStore, error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NoopSignalStore{}, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHSignalStore(client, log)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideJournal creates the Kafka audit journal when enabled, a no-op
// journal otherwise.
func ProvideJournal(cfg *config.Config) (repository.Journal, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopJournal{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaJournal(producer, cfg.Kafka.SignalTopic, cfg.Kafka.ProfitTopic), nil
}

// ProvideScheduler creates the per-symbol cycle scheduler.
func ProvideScheduler(
	cfg *config.Config,
	mkt repository.MarketDataGateway,
	engine repository.SignalEngine,
	gate *risk.Gate,
	reg *registry.Registry,
	bcast *broadcast.Broadcaster,
	l repository.Ledger,
	store repository.SignalStore,
	journal repository.Journal,
	m repository.Metrics,
	log *applogger.Logger,
) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		CycleInterval:    cfg.Scheduler.CycleInterval,
		MaxRetries:       cfg.Scheduler.MaxRetries,
		RetryDelay:       cfg.Scheduler.RetryDelay,
		MinConfidence:    cfg.Scheduler.MinConfidence,
		MaxRiskScore:     cfg.Scheduler.MaxRiskScore,
		Interval:         cfg.Scheduler.Interval,
		Lookback:         cfg.Scheduler.Lookback,
		DefaultPoolValue: cfg.Scheduler.DefaultPoolValue,
		LatencyWindow:    cfg.Scheduler.LatencyWindow,
	}, mkt, engine, gate, reg, bcast, l, store, journal, m, log)
}

// ProvideWSGateway creates the websocket gateway.
func ProvideWSGateway(cfg *config.Config, reg *registry.Registry, m repository.Metrics, log *applogger.Logger) *gateway.Gateway {
	return gateway.New(gateway.Config{
		SendQueueSize: cfg.WS.SendQueueSize,
		WriteTimeout:  cfg.WS.WriteTimeout,
		PongTimeout:   cfg.WS.PongTimeout,
		PingInterval:  cfg.WS.PingInterval,
		MaxMessageRPS: cfg.WS.MaxMessageRPS,
	}, reg, m, log)
}

// ProvideDistributor creates the profit distributor.
func ProvideDistributor(
	reg *registry.Registry,
	bcast *broadcast.Broadcaster,
	journal repository.Journal,
	m repository.Metrics,
	log *applogger.Logger,
) *profit.Distributor {
	return profit.NewDistributor(reg, bcast, journal, m, log)
}

// ProvideQueueRunner wires the distribution job into a Redis-backed
// queue, falling back to inline dispatch without Redis.
func ProvideQueueRunner(
	cfg *config.Config,
	cli *redis.Client,
	dist *profit.Distributor,
	log *applogger.Logger,
) *jobs.Runner {
	job := jobs.NewDistributionJob(dist, log)
	if cli == nil {
		return jobs.NewInlineRunner(jobs.NewInlineQueue(job))
	}

	rq := queue.NewRedisQueue(log, &queue.Config{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, cli)
	rq.RegisterJob(job)
	return jobs.NewRedisRunner(rq)
}

// ProvideAPIHandler creates the REST handler with the websocket route.
func ProvideAPIHandler(
	cfg *config.Config,
	log *applogger.Logger,
	store repository.SignalStore,
	sched *scheduler.Scheduler,
	reg *registry.Registry,
	runner *jobs.Runner,
	gw *gateway.Gateway,
) xhttp.Handler {
	return api.NewHandler(log, store, sched, reg, runner.Service(), gw, cfg.WS.Path)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	handler xhttp.Handler,
	store repository.SignalStore,
	journal repository.Journal,
	runner *jobs.Runner,
	cli *redis.Client,
) *server.App {
	return server.New(cfg, log, sched, handler, store, journal, runner, cli)
}
