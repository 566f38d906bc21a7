package billing

import (
	"context"

	"github.com/google/uuid"
)

// Store persists the plan catalog, subscriptions, and grant records.
type Store interface {
	// GetPlanByCode looks a plan up by its stable code (e.g. user_free).
	// Returns ErrPlanNotFound if absent.
	GetPlanByCode(ctx context.Context, code string) (*Plan, error)

	// GetPlanByPriceID looks a plan up by the provider's price id.
	// Returns ErrPlanNotFound if absent.
	GetPlanByPriceID(ctx context.Context, priceID string) (*Plan, error)

	// GetPlanByID looks a plan up by internal id.
	// Returns ErrPlanNotFound if absent.
	GetPlanByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// UpsertSubscription creates or updates a subscription keyed by its
	// provider subscription id and returns the stored row. Replaying the
	// same event must converge on one row, never duplicate it.
	UpsertSubscription(ctx context.Context, sub *Subscription) (*Subscription, error)

	// GetSubscriptionByWallet returns the wallet's most recent subscription.
	// Returns ErrSubscriptionNotFound if the wallet has none.
	GetSubscriptionByWallet(ctx context.Context, walletID uuid.UUID) (*Subscription, error)

	// ApplyGrant inserts the grant record and increments the wallet's
	// granted counters as one atomic operation. When a grant with the same
	// (SourceType, SourceID) already exists the whole call is a no-op and
	// applied is false.
	ApplyGrant(ctx context.Context, g *Grant) (applied bool, err error)
}
