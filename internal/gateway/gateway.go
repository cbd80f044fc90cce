package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/registry"
	"TradePulse/internal/service/ratelimit"
	applogger "TradePulse/pkg/logger"
)

// Config holds websocket transport settings.
type Config struct {
	SendQueueSize int
	WriteTimeout  time.Duration
	PongTimeout   time.Duration
	PingInterval  time.Duration
	MaxMessageRPS float64
	MaxFrameBytes int64
}

// DefaultConfig returns the transport defaults used when a field is unset.
func DefaultConfig() Config {
	return Config{
		SendQueueSize: 64,
		WriteTimeout:  10 * time.Second,
		PongTimeout:   60 * time.Second,
		PingInterval:  30 * time.Second,
		MaxMessageRPS: 10,
		MaxFrameBytes: 4096,
	}
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = d.SendQueueSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = d.PongTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = d.MaxFrameBytes
	}
}

// Gateway terminates websocket connections and translates inbound
// frames into registry operations. It owns the connection lifecycle;
// the registry only ever sees ConnIDs and Senders.
type Gateway struct {
	cfg      Config
	reg      *registry.Registry
	limiter  *ratelimit.Limiter
	metrics  drepo.Metrics
	log      *applogger.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

// New creates a gateway bound to the registry.
func New(cfg Config, reg *registry.Registry, metrics drepo.Metrics, log *applogger.Logger) *Gateway {
	cfg.fillDefaults()
	return &Gateway{
		cfg:      cfg,
		reg:      reg,
		limiter:  ratelimit.New(cfg.MaxMessageRPS, cfg.MaxMessageRPS),
		metrics:  metrics,
		log:      log,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection until it drops.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", applogger.Error(err))
		return
	}

	id := registry.ConnID(uuid.NewString())
	conn := newWSConn(ws, g.cfg.SendQueueSize, g.cfg.WriteTimeout, g.cfg.PingInterval)
	g.reg.Register(id, conn)
	g.log.Info("connection opened", applogger.String("conn_id", string(id)))

	go conn.writePump()
	g.readLoop(r.Context(), id, conn)
}

func (g *Gateway) readLoop(ctx context.Context, id registry.ConnID, conn *wsConn) {
	defer func() {
		g.reg.RemoveConnection(id)
		g.limiter.Forget(string(id))
		conn.close()
		g.log.Info("connection closed", applogger.String("conn_id", string(id)))
	}()

	conn.ws.SetReadLimit(g.cfg.MaxFrameBytes)
	_ = conn.ws.SetReadDeadline(time.Now().Add(g.cfg.PongTimeout))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(g.cfg.PongTimeout))
	})

	for {
		var msg models.ClientMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Debug("read error", applogger.String("conn_id", string(id)), applogger.Error(err))
			}
			return
		}
		if !g.limiter.Allow(string(id)) {
			g.metrics.RecordError("throttled")
			_ = conn.Send(models.ErrorMessage(msg.Symbol, "rate limit exceeded", time.Now().UnixMilli()))
			continue
		}
		g.dispatch(ctx, id, conn, msg)
	}
}

// Per-type views of the inbound envelope, validated before any
// registry call so malformed frames never mutate state.

type subscribeFrame struct {
	Symbol  string `validate:"required"`
	Address string `validate:"required"`
}

type followFrame struct {
	Trader    string `validate:"required"`
	Symbol    string `validate:"required"`
	PublicKey string `validate:"required"`
}

func (g *Gateway) dispatch(ctx context.Context, id registry.ConnID, conn *wsConn, msg models.ClientMessage) {
	now := time.Now().UnixMilli()

	switch msg.Type {
	case models.MsgSubscribe:
		if err := g.validate.Struct(subscribeFrame{Symbol: msg.Symbol, Address: msg.Address}); err != nil {
			_ = conn.Send(models.ErrorMessage(msg.Symbol, "symbol and address are required", now))
			return
		}
		if err := g.reg.Subscribe(id, msg.Symbol, msg.Address); err != nil {
			_ = conn.Send(models.ErrorMessage(msg.Symbol, err.Error(), now))
			return
		}
		_ = conn.Send(models.ServerMessage{Type: models.MsgSubscribed, Symbol: msg.Symbol, Timestamp: now})

	case models.MsgUnsubscribe:
		if msg.Symbol == "" {
			_ = conn.Send(models.ErrorMessage("", "symbol is required", now))
			return
		}
		g.reg.Unsubscribe(id, msg.Symbol)

	case models.MsgFollowRequest:
		if err := g.validate.Struct(followFrame{Trader: msg.Trader, Symbol: msg.Symbol, PublicKey: msg.PublicKey}); err != nil {
			_ = conn.Send(models.ErrorMessage(msg.Symbol, "trader, symbol and publicKey are required", now))
			return
		}
		profile := models.DefaultRiskProfile()
		if msg.Profile != nil {
			profile = *msg.Profile
		}
		if err := g.reg.Follow(ctx, id, msg.PublicKey, msg.Trader, msg.Symbol, profile); err != nil {
			g.metrics.RecordError("follow_rejected")
			_ = conn.Send(models.ErrorMessage(msg.Symbol, err.Error(), now))
			return
		}
		_ = conn.Send(models.ServerMessage{
			Type:      models.MsgFollowSuccess,
			Symbol:    msg.Symbol,
			Trader:    msg.Trader,
			Timestamp: now,
		})

	case models.MsgUnfollowRequest:
		removed := g.reg.UnfollowConn(id)
		if len(removed) == 0 {
			_ = conn.Send(models.ServerMessage{Type: models.MsgUnfollowSuccess, Timestamp: now})
			return
		}
		for _, rel := range removed {
			_ = conn.Send(models.ServerMessage{
				Type:      models.MsgUnfollowSuccess,
				Symbol:    rel.Symbol,
				Trader:    rel.Trader,
				Timestamp: now,
			})
		}

	default:
		_ = conn.Send(models.ErrorMessage("", "unknown message type: "+msg.Type, now))
	}
}
