package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db DB
}

// NewPGStore creates a PostgreSQL-backed billing store.
// Panics if db is nil to fail fast during initialization.
func NewPGStore(db DB) *PGStore {
	if db == nil {
		panic("billing: db is required")
	}
	return &PGStore{db: db}
}

const planColumns = `id, code, name, description, price_cents, currency, interval, public,
	included_compute, included_storage_bytes, provider_price_id, metadata, created_at, updated_at`

func (s *PGStore) GetPlanByCode(ctx context.Context, code string) (*Plan, error) {
	return s.scanPlan(s.db.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE code = $1`, code))
}

func (s *PGStore) GetPlanByPriceID(ctx context.Context, priceID string) (*Plan, error) {
	return s.scanPlan(s.db.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE provider_price_id = $1`, priceID))
}

func (s *PGStore) GetPlanByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.scanPlan(s.db.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
}

func (s *PGStore) scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Interval, &p.Public,
		&p.IncludedCompute, &p.IncludedStorageBytes, &p.ProviderPriceID, &p.Metadata,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return &p, nil
}

const subscriptionColumns = `id, wallet_id, plan_id, status, current_period_end,
	cancel_at_period_end, provider_subscription_id, provider_customer_id, metadata, created_at, updated_at`

// UpsertSubscription converges on one row per provider subscription id.
// Replays of the same event update in place instead of duplicating.
func (s *PGStore) UpsertSubscription(ctx context.Context, sub *Subscription) (*Subscription, error) {
	id := sub.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO subscriptions (
			id, wallet_id, plan_id, status, current_period_end, cancel_at_period_end,
			provider_subscription_id, provider_customer_id, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (provider_subscription_id) DO UPDATE SET
			wallet_id            = EXCLUDED.wallet_id,
			plan_id              = COALESCE(EXCLUDED.plan_id, subscriptions.plan_id),
			status               = EXCLUDED.status,
			current_period_end   = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			provider_customer_id = EXCLUDED.provider_customer_id,
			metadata             = EXCLUDED.metadata,
			updated_at           = now()
		RETURNING `+subscriptionColumns,
		id, sub.WalletID, sub.PlanID, sub.Status, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.ProviderSubscriptionID, sub.ProviderCustomerID, sub.Metadata,
	)

	stored, err := scanSubscription(row)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return stored, nil
}

func (s *PGStore) GetSubscriptionByWallet(ctx context.Context, walletID uuid.UUID) (*Subscription, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE wallet_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, walletID)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return sub, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.ID, &sub.WalletID, &sub.PlanID, &sub.Status, &sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd, &sub.ProviderSubscriptionID, &sub.ProviderCustomerID,
		&sub.Metadata, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ApplyGrant records the grant and increments the wallet's granted counters
// in one transaction. The unique (source_type, source_id) index is the
// idempotency mechanism: a redelivered event inserts nothing, so the
// balance increments exactly once per source.
func (s *PGStore) ApplyGrant(ctx context.Context, g *Grant) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, errors.Join(ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO plan_grants (id, wallet_id, plan_id, source_type, source_id, compute, storage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_type, source_id) DO NOTHING`,
		g.ID, g.WalletID, g.PlanID, g.SourceType, g.SourceID, g.Compute, g.Storage, createdAt,
	)
	if err != nil {
		return false, errors.Join(ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	bt, err := tx.Exec(ctx, `
		UPDATE balances
		SET compute_granted = compute_granted + $2,
		    storage_granted = storage_granted + $3,
		    updated_at = now()
		WHERE wallet_id = $1`,
		g.WalletID, g.Compute, g.Storage,
	)
	if err != nil {
		return false, errors.Join(ErrStorageUnavailable, err)
	}
	if bt.RowsAffected() == 0 {
		return false, fmt.Errorf("billing: balance row missing for wallet %s", g.WalletID)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Join(ErrStorageUnavailable, err)
	}
	return true, nil
}
