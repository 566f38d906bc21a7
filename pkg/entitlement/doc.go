// Package entitlement decides whether a caller's plan tier permits a feature.
//
// Tiers form a fixed total order (default < starter < pro) and checks compare
// ordinal ranks, never string equality, so adding a tier only requires a new
// rank entry. A bypass flag models trusted/internal callers and the dev-credit
// path: bypass always grants access regardless of tier.
//
// Denials are returned as a typed *Error with a status/code/message triple so
// the route layer can distinguish "upgrade your plan" from infrastructure
// failures:
//
//	err := entitlement.EnsureFeatureAccess(entitlement.Params{
//		Tier:         ctx.Tier,
//		RequiredTier: entitlement.TierStarter,
//		Bypass:       ctx.Bypass,
//		Feature:      "video_generation",
//	})
//	var denied *entitlement.Error
//	if errors.As(err, &denied) {
//		// render upgrade prompt with denied.Details
//	}
package entitlement
