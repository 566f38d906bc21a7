package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process maps. Intended for tests and
// local prototyping; it honors the same concurrency contract as the pg
// store, including race-safe lazy wallet creation.
type MemoryStore struct {
	mu       sync.Mutex
	wallets  map[uuid.UUID]*Wallet
	byOwner  map[string]uuid.UUID
	balances map[uuid.UUID]*Balance
}

// NewMemoryStore creates an empty in-memory wallet store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets:  make(map[uuid.UUID]*Wallet),
		byOwner:  make(map[string]uuid.UUID),
		balances: make(map[uuid.UUID]*Balance),
	}
}

func ownerKey(ownerType OwnerType, ownerID string) string {
	return string(ownerType) + "/" + ownerID
}

// UpsertWallet returns the existing wallet for the owner or creates one with
// a zeroed balance under the store mutex, so concurrent first-access always
// converges on a single wallet.
func (ms *MemoryStore) UpsertWallet(ctx context.Context, ownerType OwnerType, ownerID string) (*Wallet, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if id, ok := ms.byOwner[ownerKey(ownerType, ownerID)]; ok {
		return copyWallet(ms.wallets[id]), nil
	}

	w := &Wallet{
		ID:        uuid.New(),
		OwnerType: ownerType,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	ms.wallets[w.ID] = w
	ms.byOwner[ownerKey(ownerType, ownerID)] = w.ID
	ms.balances[w.ID] = &Balance{WalletID: w.ID, UpdatedAt: w.CreatedAt}

	return copyWallet(w), nil
}

// GetWallet retrieves a wallet by id.
func (ms *MemoryStore) GetWallet(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	w, ok := ms.wallets[id]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return copyWallet(w), nil
}

// GetBalance retrieves the balance for a wallet.
func (ms *MemoryStore) GetBalance(ctx context.Context, walletID uuid.UUID) (*Balance, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.balances[walletID]
	if !ok {
		return nil, ErrBalanceNotFound
	}
	cp := *b
	return &cp, nil
}

// AddGranted increments the granted counters under the store mutex.
func (ms *MemoryStore) AddGranted(ctx context.Context, walletID uuid.UUID, computeDelta, storageDelta int64) error {
	if computeDelta < 0 || storageDelta < 0 {
		return fmt.Errorf("wallet: granted deltas must be non-negative, got %d/%d", computeDelta, storageDelta)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.balances[walletID]
	if !ok {
		return ErrBalanceNotFound
	}
	b.ComputeGranted += computeDelta
	b.StorageGranted += storageDelta
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// AddUsed increments the used counter for one metric, optionally enforcing
// the granted allowance as a hard cap. The usage ledger's in-memory store
// delegates here so wallet reads and ledger debits see one balance.
func (ms *MemoryStore) AddUsed(ctx context.Context, walletID uuid.UUID, metric Metric, amount int64, enforceCap bool) error {
	if amount <= 0 {
		return fmt.Errorf("wallet: used delta must be positive, got %d", amount)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.balances[walletID]
	if !ok {
		return ErrBalanceNotFound
	}
	if enforceCap && b.Used(metric)+amount > b.Granted(metric) {
		return ErrInsufficientBalance
	}

	if metric == MetricStorage {
		b.StorageUsed += amount
	} else {
		b.ComputeUsed += amount
	}
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// SetBypass flips the bypass flag on a wallet. Test helper mirroring an
// administrative update.
func (ms *MemoryStore) SetBypass(walletID uuid.UUID, bypass bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if w, ok := ms.wallets[walletID]; ok {
		w.Bypass = bypass
	}
}

func copyWallet(w *Wallet) *Wallet {
	cp := *w
	return &cp
}
