package ledger

import (
	"errors"

	"github.com/dmitrymomot/billingkit/pkg/wallet"
)

var (
	// ErrInsufficientBalance is returned under the hard-cap policy when a
	// charge would exceed the granted allowance. Same sentinel as the wallet
	// package so either side can be matched with errors.Is.
	ErrInsufficientBalance = wallet.ErrInsufficientBalance

	// ErrBalanceNotFound indicates the wallet has no balance row to debit.
	ErrBalanceNotFound = wallet.ErrBalanceNotFound

	// ErrStorageUnavailable wraps infrastructure failures during a charge.
	// Callers must treat it as retryable and must not consider the metered
	// operation billed.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
)
