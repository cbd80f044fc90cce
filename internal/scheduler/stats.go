package scheduler

import (
	"sync"
	"time"
)

// PerformanceStats is the rolling per-symbol cycle record: the last
// latencyWindow latencies plus counters. Process-lifetime state, reset
// only on restart.
type PerformanceStats struct {
	Latencies   []time.Duration
	CycleCount  int64
	SignalCount int64
}

// ErrorStats tracks cycle-level failures for one symbol.
type ErrorStats struct {
	Count     int64
	LastError string
	Timestamp time.Time
}

// symbolStats aggregates both stat families behind one lock.
type symbolStats struct {
	mu     sync.Mutex
	window int
	perf   map[string]*PerformanceStats
	errs   map[string]*ErrorStats
}

func newSymbolStats(window int) *symbolStats {
	if window <= 0 {
		window = 100
	}
	return &symbolStats{
		window: window,
		perf:   make(map[string]*PerformanceStats),
		errs:   make(map[string]*ErrorStats),
	}
}

func (s *symbolStats) recordCycle(symbol string, latency time.Duration, signaled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.perf[symbol]
	if p == nil {
		p = &PerformanceStats{}
		s.perf[symbol] = p
	}
	p.Latencies = append(p.Latencies, latency)
	if len(p.Latencies) > s.window {
		p.Latencies = p.Latencies[len(p.Latencies)-s.window:]
	}
	p.CycleCount++
	if signaled {
		p.SignalCount++
	}
}

func (s *symbolStats) recordError(symbol string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.errs[symbol]
	if e == nil {
		e = &ErrorStats{}
		s.errs[symbol] = e
	}
	e.Count++
	e.LastError = err.Error()
	e.Timestamp = time.Now()
}

// snapshot returns copies safe to hand to API consumers.
func (s *symbolStats) snapshot(symbol string) (PerformanceStats, ErrorStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var perf PerformanceStats
	var errs ErrorStats
	if p := s.perf[symbol]; p != nil {
		perf = PerformanceStats{
			Latencies:   append([]time.Duration(nil), p.Latencies...),
			CycleCount:  p.CycleCount,
			SignalCount: p.SignalCount,
		}
	}
	if e := s.errs[symbol]; e != nil {
		errs = *e
	}
	return perf, errs
}
