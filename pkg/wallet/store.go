package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Store persists wallets and their balances.
type Store interface {
	// UpsertWallet returns the wallet for an owner, creating it with a zeroed
	// balance when absent. Implementations must be safe under concurrent
	// first-access by the same owner: a race must never produce two wallets
	// for one owner, so creation is keyed on (owner_type, owner_id) with the
	// losing writer observing the winner's row.
	UpsertWallet(ctx context.Context, ownerType OwnerType, ownerID string) (*Wallet, error)

	// GetWallet retrieves a wallet by id.
	// Returns ErrWalletNotFound if no wallet exists.
	GetWallet(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// GetBalance retrieves the live balance for a wallet.
	// Returns ErrBalanceNotFound if no balance row exists.
	GetBalance(ctx context.Context, walletID uuid.UUID) (*Balance, error)

	// AddGranted atomically increments the granted counters for a wallet.
	// Expressed as column increments so concurrent grants commute without
	// lost updates.
	AddGranted(ctx context.Context, walletID uuid.UUID, computeDelta, storageDelta int64) error
}
