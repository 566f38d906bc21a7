package billing

import "time"

// EventType is the normalized subscription lifecycle event type. Provider
// webhooks are mapped to these at the boundary so internal logic never
// branches on provider-specific strings.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout_completed"
	EventSubscriptionCreated EventType = "subscription_created"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"
	EventInvoicePaid         EventType = "invoice_paid"
)

// knownEventTypes lists every event the processor reacts to. Anything else
// is acknowledged and ignored, as webhook providers expect.
var knownEventTypes = map[EventType]struct{}{
	EventCheckoutCompleted:   {},
	EventSubscriptionCreated: {},
	EventSubscriptionUpdated: {},
	EventSubscriptionDeleted: {},
	EventInvoicePaid:         {},
}

// Known reports whether the processor handles this event type.
func (t EventType) Known() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// GrantsAllowance reports whether the event represents an actual payment
// confirmation that should increase the wallet's granted counters.
func (t EventType) GrantsAllowance() bool {
	switch t {
	case EventCheckoutCompleted, EventSubscriptionCreated, EventSubscriptionUpdated, EventInvoicePaid:
		return true
	default:
		return false
	}
}

// SubscriptionEvent is the strongly-typed internal form of a provider
// webhook, produced by a normalizer (see PaddleWebhook) after signature
// verification. Metadata key variants (plan_code vs planCode) are resolved
// during normalization; consumers read only the typed fields.
type SubscriptionEvent struct {
	// ID is the provider's delivery/event id, used as the grant idempotency
	// key. When a provider omits it, the normalizer derives a stable
	// fallback from the subscription id and billing period.
	ID string

	Type          EventType
	ProviderEvent string // original provider event name, for logging

	SubscriptionID string // provider's subscription id
	CustomerID     string // provider's customer id
	Status         string // provider's status string
	PriceID        string // provider's price id of the purchased item

	// WalletID and PlanCode come from the subscription's metadata; WalletID
	// attributes the event to a wallet, PlanCode takes precedence over
	// PriceID when resolving the plan.
	WalletID string
	PlanCode string

	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool

	Metadata map[string]string
}
