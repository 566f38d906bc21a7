package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/entitlement"
)

// BillingInterval represents the billing frequency for a plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free plans with no billing
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// metadataTierKey is the plan metadata key carrying the feature tier.
const metadataTierKey = "feature_tier"

// Plan is a catalog entity describing what a subscription grants.
// Immutable once referenced by a live subscription except for
// administrative updates; looked up by Code or by ProviderPriceID.
type Plan struct {
	ID          uuid.UUID
	Code        string // stable key, e.g. user_free
	Name        string
	Description string
	PriceCents  int64 // smallest currency unit
	Currency    string
	Interval    BillingInterval

	// Public controls whether the plan is offered on pricing pages.
	// Non-public plans (grandfathered, custom deals) still resolve normally
	// from webhook events.
	Public bool

	// Allowances granted to the wallet on each paid event.
	IncludedCompute      int64
	IncludedStorageBytes int64

	// ProviderPriceID maps the plan to the payment provider's price object.
	ProviderPriceID string

	// Metadata carries arbitrary plan attributes, including feature_tier.
	Metadata map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FeatureTier returns the plan's feature tier from metadata, defaulting to
// the base tier when absent so a misconfigured plan never unlocks more than
// the free tier.
func (p *Plan) FeatureTier() entitlement.Tier {
	if p == nil {
		return entitlement.TierDefault
	}
	if tier, ok := p.Metadata[metadataTierKey]; ok && tier != "" {
		return entitlement.Tier(tier)
	}
	return entitlement.TierDefault
}
