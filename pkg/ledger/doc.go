// Package ledger is the charge engine: it debits credits from wallet
// balances and records every charge in an append-only ledger.
//
// A charge is one atomic storage operation containing two writes: the
// balance's used counter is incremented with a relative column update, and a
// ChargeRecord is appended for audit. Both succeed or both fail. Charges are
// commutative sums, so concurrent charges against the same wallet need no
// cross-request ordering.
//
// Charging does not gate access. By default a charge is allowed to push
// usage past the granted allowance (entitlement checks are the access
// control; the ledger is accounting). WithHardCap makes exceeding the
// allowance fail with ErrInsufficientBalance instead:
//
//	charger := ledger.NewCharger(ledger.NewPGStore(pool), ledger.WithHardCap())
//
//	err := charger.Charge(ctx, ledger.ChargeParams{
//		WalletID: bctx.Wallet.ID,
//		Metric:   wallet.MetricCompute,
//		Amount:   credits,
//		Reason:   "text_generation",
//		Bypass:   bctx.Bypass,
//	})
//
// Bypass charges and non-positive amounts are no-op successes. Storage
// failures wrap ErrStorageUnavailable and are retryable; a caller seeing one
// must not report the metered operation as billed.
package ledger
