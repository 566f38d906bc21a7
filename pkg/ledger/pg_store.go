package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/billingkit/pkg/wallet"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore implements Store on PostgreSQL. Each charge is one transaction
// containing an atomic column increment plus the record insert.
type PGStore struct {
	db DB
}

// NewPGStore creates a PostgreSQL-backed charge store.
// Panics if db is nil to fail fast during initialization.
func NewPGStore(db DB) *PGStore {
	if db == nil {
		panic("ledger: db is required")
	}
	return &PGStore{db: db}
}

// ApplyCharge debits the balance and appends the charge record in one
// transaction. The debit is a relative column update (used = used + n), so
// concurrent charges against the same wallet commute; the database never
// sees a read-modify-write of a derived remainder.
func (s *PGStore) ApplyCharge(ctx context.Context, rec *ChargeRecord, enforceCap bool) error {
	column, err := usedColumn(rec.Metric)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	query := fmt.Sprintf(`
		UPDATE balances
		SET %[1]s = %[1]s + $2, updated_at = now()
		WHERE wallet_id = $1`, column)
	if enforceCap {
		// The guard and the increment share one statement, so row locking
		// makes the cap race-free under concurrent charges.
		query = fmt.Sprintf(`
			UPDATE balances
			SET %[1]s = %[1]s + $2, updated_at = now()
			WHERE wallet_id = $1 AND %[1]s + $2 <= %[2]s`, column, grantedColumn(rec.Metric))
	}

	tag, err := tx.Exec(ctx, query, rec.WalletID, rec.Amount)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		if !enforceCap {
			return ErrBalanceNotFound
		}
		// Distinguish a missing balance row from a cap rejection.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM balances WHERE wallet_id = $1)`,
			rec.WalletID,
		).Scan(&exists); err != nil {
			return errors.Join(ErrStorageUnavailable, err)
		}
		if !exists {
			return ErrBalanceNotFound
		}
		return ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO usage_charges (id, wallet_id, metric, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.WalletID, rec.Metric, rec.Amount, rec.Reason, rec.CreatedAt,
	); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func usedColumn(m wallet.Metric) (string, error) {
	switch m {
	case wallet.MetricCompute:
		return "compute_used", nil
	case wallet.MetricStorage:
		return "storage_used", nil
	default:
		return "", fmt.Errorf("ledger: unknown metric %q", m)
	}
}

func grantedColumn(m wallet.Metric) string {
	if m == wallet.MetricStorage {
		return "storage_granted"
	}
	return "compute_granted"
}
