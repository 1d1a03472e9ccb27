package models

// LifeState is a target's life-cycle inside the moderated groups.
type LifeState string

const (
	StateAlive  LifeState = "alive"
	StateKicked LifeState = "kicked"
	StateBanned LifeState = "banned"
)

// RiskTier buckets a risk score for display.
type RiskTier string

const (
	TierLow    RiskTier = "low"
	TierMedium RiskTier = "medium"
	TierHigh   RiskTier = "high"
)

// RiskProfile is the externally computed abuse-history summary for one
// target QQ. The table view owns these; rendering only reads them.
type RiskProfile struct {
	Count int       `json:"count"`
	Risk  float64   `json:"risk"`
	State LifeState `json:"state"`
}

// DefaultRiskProfile is what a target without history renders as.
func DefaultRiskProfile() RiskProfile {
	return RiskProfile{Count: 1, Risk: 0.5, State: StateAlive}
}

// Tier maps the risk score to its display tier.
func (p RiskProfile) Tier() RiskTier {
	switch {
	case p.Risk > 2:
		return TierHigh
	case p.Risk > 1:
		return TierMedium
	default:
		return TierLow
	}
}

// RiskDelta is the per-target profile refresh a mutating operation returns.
type RiskDelta map[string]RiskProfile
