// Package billing is the metered-billing facade: it composes the rate
// limiter, wallet resolver, entitlement gate, and usage ledger into the
// per-request flow routes call, and it processes subscription webhooks into
// idempotent plan allowance grants.
//
// Per-request flow:
//
//	result := svc.CheckRateLimits(ctx, checks...)
//	bctx, err := svc.ResolveWalletContext(ctx, wallet.ResolveParams{...})
//	err = svc.EnsureFeatureAccess(bctx, entitlement.TierPro, "video")
//	// ... perform the operation ...
//	err = svc.ChargeUsage(ctx, bctx, wallet.MetricCompute, cost, "video_generation")
//
// Webhook flow:
//
//	err := svc.HandleWebhook(ctx, payload, signature)
//
// Grants deduplicate on (source type, source id), so provider redeliveries
// converge on exactly one balance increment.
package billing
