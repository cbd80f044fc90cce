package models

import "encoding/json"

// Inbound message types accepted on a client connection.
const (
	MsgSubscribe       = "subscribe"
	MsgUnsubscribe     = "unsubscribe"
	MsgFollowRequest   = "follow_request"
	MsgUnfollowRequest = "unfollow_request"
)

// Outbound message types.
const (
	MsgSubscribed         = "subscribed"
	MsgTradeSignal        = "trade_signal"
	MsgSignal             = "signal"
	MsgError              = "error"
	MsgFollowSuccess      = "follow_success"
	MsgUnfollowSuccess    = "unfollow_success"
	MsgProfitDistribution = "profit_distribution"
)

// ClientMessage is the envelope of every inbound frame. Body fields are
// bound and validated per message type by the gateway.
type ClientMessage struct {
	Type string `json:"type" validate:"required"`

	Symbol  string `json:"symbol,omitempty"`
	Address string `json:"address,omitempty"` // subscriber identity

	// follow_request fields
	Trader    string       `json:"trader,omitempty"`
	PublicKey string       `json:"publicKey,omitempty"`
	Profile   *RiskProfile `json:"risk_profile,omitempty"`
}

// ServerMessage is the envelope of every outbound frame.
type ServerMessage struct {
	Type      string          `json:"type"`
	Symbol    string          `json:"symbol,omitempty"`
	Trader    string          `json:"trader,omitempty"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Amount    string          `json:"amount,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ErrorMessage builds an outbound error frame for one symbol.
func ErrorMessage(symbol, msg string, ts int64) ServerMessage {
	return ServerMessage{Type: MsgError, Symbol: symbol, Message: msg, Timestamp: ts}
}
