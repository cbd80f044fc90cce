package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/broadcast"
	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/registry"
	"TradePulse/internal/risk"
	applogger "TradePulse/pkg/logger"
)

// ErrDataUnavailable marks a cycle whose market data fetch exhausted
// all retries. It is reported, never fatal to the scheduler.
var ErrDataUnavailable = errors.New("market data unavailable")

// Config holds the per-cycle policy knobs. The 60s full pipeline and
// the 1s signal-only variant are the same state machine with a
// different CycleInterval.
type Config struct {
	CycleInterval    time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
	MinConfidence    float64
	MaxRiskScore     float64
	Interval         string
	Lookback         int
	DefaultPoolValue float64
	LatencyWindow    int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CycleInterval:    60 * time.Second,
		MaxRetries:       3,
		RetryDelay:       time.Second,
		MinConfidence:    0.7,
		MaxRiskScore:     0.8,
		Interval:         "1m",
		Lookback:         100,
		DefaultPoolValue: 1_000_000,
		LatencyWindow:    100,
	}
}

// Scheduler drives one independent processing cycle per active symbol:
// fetch, compute, gate, broadcast. Cycles for one symbol are strictly
// sequential; symbols run concurrently with each other and with
// connection events.
type Scheduler struct {
	cfg     Config
	gateway drepo.MarketDataGateway
	engine  drepo.SignalEngine
	gate    *risk.Gate
	reg     *registry.Registry
	bcast   *broadcast.Broadcaster
	ledger  drepo.Ledger
	store   drepo.SignalStore
	journal drepo.Journal
	metrics drepo.Metrics
	log     *applogger.Logger

	stats *symbolStats

	mu    sync.Mutex
	loops map[string]struct{}
	wg    sync.WaitGroup
}

// New creates a Scheduler. store and journal may be nil.
func New(
	cfg Config,
	gateway drepo.MarketDataGateway,
	engine drepo.SignalEngine,
	gate *risk.Gate,
	reg *registry.Registry,
	bcast *broadcast.Broadcaster,
	ledger drepo.Ledger,
	store drepo.SignalStore,
	journal drepo.Journal,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *Scheduler {
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 100
	}
	return &Scheduler{
		cfg:     cfg,
		gateway: gateway,
		engine:  engine,
		gate:    gate,
		reg:     reg,
		bcast:   bcast,
		ledger:  ledger,
		store:   store,
		journal: journal,
		metrics: metrics,
		log:     log,
		stats:   newSymbolStats(cfg.LatencyWindow),
		loops:   make(map[string]struct{}),
	}
}

// Start consumes registry activation events and spawns symbol loops.
// It returns immediately; loops run until ctx is cancelled or their
// symbol goes inactive.
func (s *Scheduler) Start(ctx context.Context) {
	// symbols already active before Start (rehydrated followers)
	s.reconcile(ctx)
	go func() {
		ticker := time.NewTicker(s.cfg.CycleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-s.reg.Events():
				if !ok {
					return
				}
				if ev.Active {
					s.startLoop(ctx, ev.Symbol)
				}
				// deactivation is observed by the loop itself at the
				// top of its next iteration
			case <-ticker.C:
				s.reconcile(ctx)
			}
		}
	}()
}

// reconcile starts loops for any active symbol without one. Activation
// edges can be lost when the registry's event channel overflows; the
// active set is authoritative.
func (s *Scheduler) reconcile(ctx context.Context) {
	for _, sym := range s.reg.ActiveSymbols() {
		s.startLoop(ctx, sym)
	}
}

// Wait blocks until all symbol loops have exited.
func (s *Scheduler) Wait() { s.wg.Wait() }

// StatsFor returns the per-symbol metrics snapshot.
func (s *Scheduler) StatsFor(symbol string) (PerformanceStats, ErrorStats) {
	return s.stats.snapshot(symbol)
}

func (s *Scheduler) startLoop(ctx context.Context, symbol string) {
	s.mu.Lock()
	if _, running := s.loops[symbol]; running {
		s.mu.Unlock()
		return
	}
	s.loops[symbol] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx, symbol)

	if s.log != nil {
		s.log.Info("symbol loop started", applogger.String("symbol", symbol))
	}
	if s.metrics != nil {
		s.metrics.RecordActiveSymbols(len(s.reg.ActiveSymbols()))
	}
}

func (s *Scheduler) runLoop(ctx context.Context, symbol string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.loops, symbol)
		s.mu.Unlock()
		if s.log != nil {
			s.log.Info("symbol loop stopped", applogger.String("symbol", symbol))
		}
		if s.metrics != nil {
			s.metrics.RecordActiveSymbols(len(s.reg.ActiveSymbols()))
		}
	}()

	for {
		// active-status check at the top of every iteration; the
		// in-flight cycle below always runs to completion
		if ctx.Err() != nil || !s.reg.Active(symbol) {
			return
		}

		s.runCycle(ctx, symbol)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.CycleInterval):
		}
	}
}

// runCycle executes one fetch -> compute -> gate -> broadcast pass.
// Failures are confined to this symbol's cycle.
func (s *Scheduler) runCycle(ctx context.Context, symbol string) {
	start := time.Now()
	signaled := false
	defer func() {
		latency := time.Since(start)
		s.stats.recordCycle(symbol, latency, signaled)
		if s.metrics != nil {
			s.metrics.RecordCycleLatency(symbol, latency.Seconds())
		}
	}()

	snap, err := s.fetchWithRetry(ctx, symbol)
	if err != nil {
		s.reportCycleError(symbol, err)
		return
	}

	inds, err := s.engine.ComputeIndicators(snap)
	if err != nil {
		s.reportCycleError(symbol, fmt.Errorf("compute indicators: %w", err))
		return
	}
	snap.Indicators = inds

	sig, err := s.engine.Generate(ctx, inds)
	if err != nil {
		s.reportCycleError(symbol, fmt.Errorf("generate signal: %w", err))
		return
	}
	if sig.Neutral() {
		s.recordOutcome(symbol, "neutral")
		return
	}
	sig.Symbol = symbol
	if sig.Confidence < s.cfg.MinConfidence {
		s.recordOutcome(symbol, "low_confidence")
		return
	}

	assessment := s.gate.Assess(sig, snap)
	if assessment.Score >= s.cfg.MaxRiskScore {
		// policy rejection, not a failure
		s.recordOutcome(symbol, "risk_rejected")
		if s.log != nil {
			s.log.Debug("signal suppressed by risk gate",
				applogger.String("symbol", symbol),
				applogger.Any("score", assessment.Score))
		}
		return
	}

	// gating hands out a derived copy; the original signal stays as
	// produced
	gated := *sig
	gated.ProposedSize = assessment.RecommendedSize

	delivered := s.broadcastSignal(ctx, symbol, &gated, snap)
	signaled = true
	s.recordOutcome(symbol, "broadcast")

	rec := &models.SignalRecord{
		Symbol:     symbol,
		Timestamp:  gated.Timestamp,
		Value:      gated.Value,
		Confidence: gated.Confidence,
		RiskScore:  assessment.Score,
		Size:       assessment.RecommendedSize,
		Targets:    delivered,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = start
	}
	if s.store != nil {
		if err := s.store.Store(ctx, rec); err != nil && s.log != nil {
			s.log.Warn("signal store failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	if s.journal != nil {
		if err := s.journal.SignalAccepted(ctx, rec); err != nil && s.log != nil {
			s.log.Warn("signal journal failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
}

// fetchWithRetry attempts the gateway fetch up to MaxRetries times with
// linearly increasing delay between attempts.
func (s *Scheduler) fetchWithRetry(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		snap, err := s.gateway.Fetch(ctx, symbol, s.cfg.Interval, s.cfg.Lookback)
		if err == nil && snap != nil {
			return snap, nil
		}
		lastErr = err
		if lastErr == nil {
			lastErr = errors.New("empty snapshot")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.RetryDelay * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrDataUnavailable, symbol, s.cfg.MaxRetries, lastErr)
}

// broadcastSignal fans the gated signal out to direct subscribers and,
// per followed trader, to followers with sizes computed from each
// follower's own risk profile.
func (s *Scheduler) broadcastSignal(ctx context.Context, symbol string, sig *models.Signal, snap *models.MarketSnapshot) int {
	now := time.Now().Unix()
	vol := snap.Indicators.Volatility
	lastClose := snap.Indicators.LastClose

	delivered := 0

	// direct mode: every subscriber gets the gate-recommended size
	direct := s.reg.TargetsFor(symbol)
	if len(direct) > 0 {
		payload := s.payload(symbol, sig, sig.ProposedSize, lastClose, vol, now)
		delivered += s.bcast.Deliver(direct, models.ServerMessage{
			Type:      models.MsgTradeSignal,
			Symbol:    symbol,
			Data:      payload,
			Timestamp: now,
		})
	}

	// follow mode: per-target sizing from the follower's risk profile
	for _, trader := range s.reg.Traders(symbol) {
		followers := s.reg.FollowersOf(trader, symbol)
		if len(followers) == 0 {
			continue
		}
		pool := s.poolValue(ctx, followers)
		for _, f := range followers {
			size := s.gate.PositionSize(pool, vol, f.Relationship.Profile.Score)
			payload := s.payload(symbol, sig, size, lastClose, vol, now)
			if s.bcast.DeliverOne(f.Target, models.ServerMessage{
				Type:      models.MsgTradeSignal,
				Symbol:    symbol,
				Trader:    trader,
				Data:      payload,
				Timestamp: now,
			}) {
				delivered++
			}
		}
	}
	return delivered
}

func (s *Scheduler) payload(symbol string, sig *models.Signal, size, lastClose, vol float64, now int64) []byte {
	ts := models.TradeSignal{
		Symbol:     symbol,
		Direction:  sig.Direction(),
		Value:      sig.Value,
		Confidence: sig.Confidence,
		Size:       size,
		StopLoss:   s.gate.StopLoss(lastClose, sig.Direction(), vol),
		Timestamp:  now,
	}
	b, err := json.Marshal(ts)
	if err != nil {
		return nil
	}
	return b
}

// poolValue sums follower balances from the ledger, falling back to the
// configured default when the ledger cannot answer.
func (s *Scheduler) poolValue(ctx context.Context, followers []registry.FollowerTarget) float64 {
	var total float64
	for _, f := range followers {
		bal, err := s.ledger.GetBalance(ctx, f.Relationship.Follower)
		if err != nil {
			if s.log != nil {
				s.log.Warn("balance lookup failed",
					applogger.String("follower", f.Relationship.Follower),
					applogger.Error(err))
			}
			return s.cfg.DefaultPoolValue
		}
		total += bal
	}
	if total <= 0 {
		return s.cfg.DefaultPoolValue
	}
	return total
}

// reportCycleError records the failure and pushes an error frame to the
// symbol's current audience. Never fatal to the scheduler.
func (s *Scheduler) reportCycleError(symbol string, err error) {
	s.stats.recordError(symbol, err)
	if s.metrics != nil {
		s.metrics.RecordError("cycle")
	}
	if s.log != nil {
		s.log.Error("cycle failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	now := time.Now().Unix()
	msg := models.ErrorMessage(symbol, err.Error(), now)
	targets := s.reg.TargetsFor(symbol)
	// a connection that both subscribes and follows gets one frame
	seen := make(map[registry.ConnID]struct{}, len(targets))
	for _, t := range targets {
		seen[t.ID] = struct{}{}
	}
	for _, trader := range s.reg.Traders(symbol) {
		for _, f := range s.reg.FollowersOf(trader, symbol) {
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			targets = append(targets, f.Target)
		}
	}
	s.bcast.Deliver(targets, msg)
}

func (s *Scheduler) recordOutcome(symbol, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSignal(symbol, outcome)
	}
}
