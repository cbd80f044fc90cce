package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/jobs"
	"TradePulse/internal/registry"
	"TradePulse/internal/scheduler"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// Handler exposes the REST surface: signal history, per-symbol cycle
// stats, profit distribution, and health. It also mounts the websocket
// upgrade route.
type Handler struct {
	log    *xlogger.Logger
	store  drepo.SignalStore
	sched  *scheduler.Scheduler
	reg    *registry.Registry
	queue  queue.Service
	ws     http.Handler
	wsPath string
}

func NewHandler(
	log *xlogger.Logger,
	store drepo.SignalStore,
	sched *scheduler.Scheduler,
	reg *registry.Registry,
	q queue.Service,
	ws http.Handler,
	wsPath string,
) *Handler {
	return &Handler{
		log:    log,
		store:  store,
		sched:  sched,
		reg:    reg,
		queue:  q,
		ws:     ws,
		wsPath: wsPath,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET(h.wsPath, echo.WrapHandler(h.ws))
	e.GET("/healthz", h.Health)

	g := e.Group("/api/v1")
	g.GET("/signals/:symbol", h.Signals)
	g.GET("/stats/:symbol", h.Stats)
	g.GET("/symbols", h.Symbols)
	g.POST("/distribute", h.Distribute)
}

type signalsRequest struct {
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type signalRow struct {
	Symbol     string  `json:"symbol"`
	Timestamp  int64   `json:"timestamp"`
	Value      int     `json:"value"`
	Confidence float64 `json:"confidence"`
	RiskScore  float64 `json:"risk_score"`
	Size       float64 `json:"size"`
	Targets    int     `json:"targets"`
}

// Signals returns persisted signal history for one symbol.
func (h *Handler) Signals(c echo.Context) error {
	symbol := c.Param("symbol")
	req := &signalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	recs, err := h.store.Query(c.Request().Context(), symbol, from, to, req.Limit)
	if err != nil {
		h.log.Error("signal query error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("signal history unavailable").WithError(err))
	}

	rows := make([]signalRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, signalRow{
			Symbol:     r.Symbol,
			Timestamp:  r.Timestamp.UnixMilli(),
			Value:      r.Value,
			Confidence: r.Confidence,
			RiskScore:  r.RiskScore,
			Size:       r.Size,
			Targets:    r.Targets,
		})
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

type statsResponse struct {
	Symbol       string  `json:"symbol"`
	Active       bool    `json:"active"`
	CycleCount   int64   `json:"cycle_count"`
	SignalCount  int64   `json:"signal_count"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
	ErrorCount   int64   `json:"error_count"`
	LastError    string  `json:"last_error,omitempty"`
	LastErrorAt  int64   `json:"last_error_at,omitempty"`
}

// Stats returns rolling cycle statistics for one symbol.
func (h *Handler) Stats(c echo.Context) error {
	symbol := c.Param("symbol")
	perf, errs := h.sched.StatsFor(symbol)

	var avgMS float64
	if len(perf.Latencies) > 0 {
		var sum time.Duration
		for _, l := range perf.Latencies {
			sum += l
		}
		avgMS = float64(sum.Milliseconds()) / float64(len(perf.Latencies))
	}

	res := statsResponse{
		Symbol:       symbol,
		Active:       h.reg.Active(symbol),
		CycleCount:   perf.CycleCount,
		SignalCount:  perf.SignalCount,
		AvgLatencyMS: avgMS,
		ErrorCount:   errs.Count,
		LastError:    errs.LastError,
	}
	if !errs.Timestamp.IsZero() {
		res.LastErrorAt = errs.Timestamp.UnixMilli()
	}
	return xhttp.SuccessResponse(c, res)
}

// Symbols returns the currently active symbol set.
func (h *Handler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbols": h.reg.ActiveSymbols(),
	})
}

type distributeRequest struct {
	Trader string  `json:"trader" validate:"required"`
	Symbol string  `json:"symbol" validate:"required"`
	Profit float64 `json:"profit" validate:"gt=0"`
}

// Distribute queues a profit split for asynchronous processing.
func (h *Handler) Distribute(c echo.Context) error {
	req := &distributeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.queue.PublishMessage(c.Request().Context(), jobs.TypeDistribution, jobs.DistributionPayload{
		Trader: req.Trader,
		Symbol: req.Symbol,
		Profit: req.Profit,
	})
	if err != nil {
		h.log.Error("enqueue distribution error",
			xlogger.String("trader", req.Trader),
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not queue distribution").WithError(err))
	}
	return xhttp.AcceptedResponse(c, map[string]string{
		"trader": req.Trader,
		"symbol": req.Symbol,
		"status": "queued",
	})
}

// Health reports process and store health.
func (h *Handler) Health(c echo.Context) error {
	status := "ok"
	if err := h.store.Health(c.Request().Context()); err != nil {
		status = "degraded"
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}
