package wallet

import "errors"

var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrBalanceNotFound = errors.New("wallet balance not found")

	// ErrInsufficientBalance is returned by balance debits when hard-cap
	// enforcement is on and the charge would push usage past the allowance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStorageUnavailable wraps infrastructure failures from the durable
	// store, so callers never confuse an outage with an entitlement problem.
	ErrStorageUnavailable = errors.New("wallet storage unavailable")
)
