package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/wallet"
)

// MemoryStore implements Store over a wallet.MemoryStore so ledger debits
// and wallet balance reads share one in-process dataset. Intended for tests.
type MemoryStore struct {
	wallets *wallet.MemoryStore

	mu      sync.Mutex
	records []ChargeRecord
}

// NewMemoryStore creates an in-memory charge store sharing balances with
// the given wallet store. Panics if wallets is nil.
func NewMemoryStore(wallets *wallet.MemoryStore) *MemoryStore {
	if wallets == nil {
		panic("ledger: wallet store is required")
	}
	return &MemoryStore{wallets: wallets}
}

// ApplyCharge debits the shared balance first and appends the record only
// on success, mirroring the all-or-nothing contract of the pg store.
func (ms *MemoryStore) ApplyCharge(ctx context.Context, rec *ChargeRecord, enforceCap bool) error {
	if err := ms.wallets.AddUsed(ctx, rec.WalletID, rec.Metric, rec.Amount, enforceCap); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.records = append(ms.records, *rec)
	return nil
}

// Records returns a copy of all charge records for a wallet, oldest first.
func (ms *MemoryStore) Records(walletID uuid.UUID) []ChargeRecord {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var out []ChargeRecord
	for _, rec := range ms.records {
		if rec.WalletID == walletID {
			out = append(out, rec)
		}
	}
	return out
}
