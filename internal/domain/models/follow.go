package models

import "time"

// RiskProfile is the per-follower sizing input. Score in [0,1]; higher
// means the follower tolerates less risk and receives smaller sizes.
type RiskProfile struct {
	Score      float64 `json:"risk_score"`
	MaxExposed float64 `json:"max_exposed,omitempty"`
}

// DefaultRiskProfile is applied when a follow request carries none.
func DefaultRiskProfile() RiskProfile { return RiskProfile{Score: 0.5} }

// FollowRelationship binds a follower identity to one trader's signals
// for one symbol. It exists from a successful follow request until
// unfollow or disconnect.
type FollowRelationship struct {
	Follower  string
	Trader    string
	Symbol    string
	Profile   RiskProfile
	CreatedAt time.Time
}
