package billing

import (
	"time"

	"github.com/google/uuid"
)

// GrantSourceProviderEvent marks grants triggered by a payment-provider
// webhook delivery.
const GrantSourceProviderEvent = "provider_event"

// Grant records one allowance increase applied to a wallet's balance.
// (SourceType, SourceID) is unique: redelivery of the same provider event
// finds the existing row and applies nothing, making grants idempotent
// under at-least-once webhook delivery.
type Grant struct {
	ID         uuid.UUID
	WalletID   uuid.UUID
	PlanID     uuid.UUID
	SourceType string
	SourceID   string
	Compute    int64
	Storage    int64
	CreatedAt  time.Time
}
