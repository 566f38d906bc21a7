package entitlement

// Tier represents a feature tier a plan can grant.
// Tiers form a fixed total order; access checks compare ranks, never strings.
type Tier string

const (
	TierDefault Tier = "default"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
)

// tierRanks defines the ordinal position of each known tier.
// Unknown tiers rank below TierDefault so a malformed plan never
// accidentally unlocks gated features.
var tierRanks = map[Tier]int{
	TierDefault: 1,
	TierStarter: 2,
	TierPro:     3,
}

// Rank returns the ordinal position of the tier.
// Unrecognized tiers return 0, below every known tier.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// AtLeast reports whether t is equal to or above required in the tier order.
func (t Tier) AtLeast(required Tier) bool {
	return t.Rank() >= required.Rank()
}

// Params describes a single feature access check.
type Params struct {
	Tier         Tier   // caller's resolved tier, derived from the active plan
	RequiredTier Tier   // tier the feature requires
	Bypass       bool   // trusted/dev override, always grants access
	Feature      string // feature name for error reporting
}

// EnsureFeatureAccess decides whether the caller may use a feature.
// The check is purely advisory: it mutates nothing, so callers can run it
// speculatively before committing to an expensive external operation.
// Returns a typed *Error when access is denied.
func EnsureFeatureAccess(p Params) error {
	if p.Bypass {
		return nil
	}
	if p.Tier.AtLeast(p.RequiredTier) {
		return nil
	}
	return &Error{
		Status:  402,
		Code:    CodeUpgradeRequired,
		Message: "your current plan does not include " + p.Feature,
		Details: map[string]string{
			"feature":       p.Feature,
			"required_tier": string(p.RequiredTier),
			"current_tier":  string(p.Tier),
		},
	}
}
