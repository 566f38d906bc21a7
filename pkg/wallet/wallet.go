package wallet

import (
	"time"

	"github.com/google/uuid"
)

// OwnerType identifies what kind of entity owns a wallet.
type OwnerType string

const (
	OwnerTypeUser    OwnerType = "user"
	OwnerTypeCapsule OwnerType = "capsule"
)

// Metric identifies which balance counter an amount applies to.
type Metric string

const (
	MetricCompute Metric = "compute"
	MetricStorage Metric = "storage"
)

// Wallet is the billing identity for one owner. Exactly one wallet exists
// per (owner type, owner id) pair; it is created lazily on first resolution.
type Wallet struct {
	ID        uuid.UUID
	OwnerType OwnerType
	OwnerID   string
	// Bypass marks trusted/internal wallets that skip entitlement checks
	// and charging entirely.
	Bypass    bool
	CreatedAt time.Time
}

// Balance holds the granted and used credit counters for a wallet, one pair
// per metric. Counters only move upward: the usage ledger increments the
// used side, plan grants and dev credits increment the granted side.
// used <= granted is a target, not a hard constraint; see the ledger's
// hard-cap option for strict enforcement.
type Balance struct {
	WalletID       uuid.UUID
	ComputeGranted int64
	ComputeUsed    int64
	StorageGranted int64
	StorageUsed    int64
	UpdatedAt      time.Time
}

// Granted returns the granted counter for a metric.
func (b *Balance) Granted(m Metric) int64 {
	if m == MetricStorage {
		return b.StorageGranted
	}
	return b.ComputeGranted
}

// Used returns the used counter for a metric.
func (b *Balance) Used(m Metric) int64 {
	if m == MetricStorage {
		return b.StorageUsed
	}
	return b.ComputeUsed
}

// Remaining returns granted minus used for a metric. May be negative when
// overdraft charging has pushed usage past the allowance.
func (b *Balance) Remaining(m Metric) int64 {
	return b.Granted(m) - b.Used(m)
}
