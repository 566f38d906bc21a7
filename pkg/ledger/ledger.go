package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/wallet"
)

// ChargeRecord is one append-only ledger line. It exists for auditability;
// the authoritative numbers are the balance's running used counters, which
// every charge mutates in the same transaction that writes the record.
type ChargeRecord struct {
	ID        uuid.UUID
	WalletID  uuid.UUID
	Metric    wallet.Metric
	Amount    int64
	Reason    string
	CreatedAt time.Time
}

// Store persists charges. ApplyCharge must perform both writes as a single
// atomic operation: increment the balance's used counter and append the
// record, with both succeeding or both failing. A crash in between must
// never leave a recorded charge without the debit, or vice versa.
type Store interface {
	ApplyCharge(ctx context.Context, rec *ChargeRecord, enforceCap bool) error
}

// ChargeParams describes one logical debit.
type ChargeParams struct {
	WalletID uuid.UUID
	Metric   wallet.Metric
	Amount   int64
	Reason   string
	// Bypass skips the charge entirely: trusted callers and the dev-credit
	// path consume nothing.
	Bypass bool
}

// Charger is the charge engine debiting usage from balances.
type Charger struct {
	store      Store
	enforceCap bool
	log        *slog.Logger
}

// Option configures a Charger.
type Option func(*Charger)

// WithHardCap makes charges fail with ErrInsufficientBalance instead of
// overdrafting when usage would exceed the granted allowance. The default is
// permissive: entitlement gating is the access control, the ledger is pure
// accounting.
func WithHardCap() Option {
	return func(c *Charger) {
		c.enforceCap = true
	}
}

// WithLogger sets the charger's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Charger) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCharger creates a charge engine over the given store.
// Panics if store is nil to fail fast during initialization.
func NewCharger(store Store, opts ...Option) *Charger {
	if store == nil {
		panic("ledger: store is required")
	}

	c := &Charger{
		store: store,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Charge debits a metric from a wallet's balance and records the charge.
// Bypass or a non-positive amount is a no-op success: nothing is written.
// Storage failures surface as retryable ErrStorageUnavailable-wrapped errors
// so the route layer never reports the metered operation as billed.
func (c *Charger) Charge(ctx context.Context, p ChargeParams) error {
	if p.Bypass || p.Amount <= 0 {
		return nil
	}

	rec := &ChargeRecord{
		ID:        uuid.New(),
		WalletID:  p.WalletID,
		Metric:    p.Metric,
		Amount:    p.Amount,
		Reason:    p.Reason,
		CreatedAt: time.Now().UTC(),
	}

	if err := c.store.ApplyCharge(ctx, rec, c.enforceCap); err != nil {
		return fmt.Errorf("charge %d %s credits to wallet %s: %w", p.Amount, p.Metric, p.WalletID, err)
	}

	c.log.DebugContext(ctx, "charged usage",
		slog.String("wallet_id", p.WalletID.String()),
		slog.String("metric", string(p.Metric)),
		slog.Int64("amount", p.Amount),
		slog.String("reason", p.Reason))

	return nil
}
