package billing

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the internal subscription state machine:
// incomplete -> trialing -> active -> canceled, with active reachable
// directly from incomplete (no forced trial).
type SubscriptionStatus string

const (
	StatusIncomplete SubscriptionStatus = "incomplete"
	StatusTrialing   SubscriptionStatus = "trialing"
	StatusActive     SubscriptionStatus = "active"
	StatusCanceled   SubscriptionStatus = "canceled"
)

// providerStatuses maps payment-provider status strings to the internal
// enum. Unrecognized statuses map to incomplete: fail safe for billing
// state, never fail open.
var providerStatuses = map[string]SubscriptionStatus{
	"trialing": StatusTrialing,
	"active":   StatusActive,
	"canceled": StatusCanceled,
	"deleted":  StatusCanceled,
	"past_due": StatusIncomplete,
	"paused":   StatusIncomplete,
}

// MapProviderStatus converts a provider status string to the internal enum.
func MapProviderStatus(status string) SubscriptionStatus {
	if s, ok := providerStatuses[status]; ok {
		return s
	}
	return StatusIncomplete
}

// Subscription links a wallet to a plan and the provider's subscription.
// Rows are upserted by ProviderSubscriptionID, the natural idempotency key
// for at-least-once webhook delivery.
type Subscription struct {
	ID       uuid.UUID
	WalletID uuid.UUID
	// PlanID stays nil while plan linkage is unresolved; the subscription
	// still tracks status so the wallet reflects reality even when the plan
	// catalog is temporarily out of sync with the provider.
	PlanID *uuid.UUID
	Status SubscriptionStatus

	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool

	ProviderSubscriptionID string
	ProviderCustomerID     string

	Metadata map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEntitled reports whether the subscription currently grants its plan's
// tier: only trialing and active subscriptions entitle features.
func (s *Subscription) IsEntitled() bool {
	return s != nil && (s.Status == StatusActive || s.Status == StatusTrialing)
}
