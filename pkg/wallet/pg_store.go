package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs, kept as an interface so
// tests and callers holding a transaction can substitute their own handle.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db DB
}

// NewPGStore creates a PostgreSQL-backed wallet store.
// Panics if db is nil to fail fast during initialization.
func NewPGStore(db DB) *PGStore {
	if db == nil {
		panic("wallet: db is required")
	}
	return &PGStore{db: db}
}

// UpsertWallet creates the wallet and its balance row if absent, then
// returns the current row. ON CONFLICT DO NOTHING keyed on the owner
// identity makes concurrent first-access safe: the losing inserter falls
// through to the select and observes the winner's wallet.
func (s *PGStore) UpsertWallet(ctx context.Context, ownerType OwnerType, ownerID string) (*Wallet, error) {
	if _, err := s.db.Exec(ctx, `
		INSERT INTO wallets (id, owner_type, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_type, owner_id) DO NOTHING`,
		uuid.New(), ownerType, ownerID,
	); err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	var w Wallet
	if err := s.db.QueryRow(ctx, `
		SELECT id, owner_type, owner_id, bypass, created_at
		FROM wallets
		WHERE owner_type = $1 AND owner_id = $2`,
		ownerType, ownerID,
	).Scan(&w.ID, &w.OwnerType, &w.OwnerID, &w.Bypass, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO balances (wallet_id)
		VALUES ($1)
		ON CONFLICT (wallet_id) DO NOTHING`,
		w.ID,
	); err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	return &w, nil
}

// GetWallet retrieves a wallet by id.
func (s *PGStore) GetWallet(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	var w Wallet
	if err := s.db.QueryRow(ctx, `
		SELECT id, owner_type, owner_id, bypass, created_at
		FROM wallets
		WHERE id = $1`,
		id,
	).Scan(&w.ID, &w.OwnerType, &w.OwnerID, &w.Bypass, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return &w, nil
}

// GetBalance retrieves the live balance row for a wallet.
func (s *PGStore) GetBalance(ctx context.Context, walletID uuid.UUID) (*Balance, error) {
	var b Balance
	if err := s.db.QueryRow(ctx, `
		SELECT wallet_id, compute_granted, compute_used, storage_granted, storage_used, updated_at
		FROM balances
		WHERE wallet_id = $1`,
		walletID,
	).Scan(&b.WalletID, &b.ComputeGranted, &b.ComputeUsed, &b.StorageGranted, &b.StorageUsed, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBalanceNotFound
		}
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return &b, nil
}

// AddGranted increments the granted counters as atomic column updates so
// concurrent grants commute without read-modify-write races.
func (s *PGStore) AddGranted(ctx context.Context, walletID uuid.UUID, computeDelta, storageDelta int64) error {
	if computeDelta < 0 || storageDelta < 0 {
		return fmt.Errorf("wallet: granted deltas must be non-negative, got %d/%d", computeDelta, storageDelta)
	}
	if computeDelta == 0 && storageDelta == 0 {
		return nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE balances
		SET compute_granted = compute_granted + $2,
		    storage_granted = storage_granted + $3,
		    updated_at = now()
		WHERE wallet_id = $1`,
		walletID, computeDelta, storageDelta,
	)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBalanceNotFound
	}
	return nil
}
