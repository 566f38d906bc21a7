// Package wallet resolves billing identities and their credit balances.
//
// A Wallet belongs to exactly one owner (a user or a capsule) and is created
// lazily on first resolution; creation is upsert-style keyed on the owner
// identity so concurrent first-access by the same owner converges on one
// wallet. Its Balance carries granted/used credit counters per metric
// (compute, storage), mutated only through monotonic column increments.
//
// The Resolver is the entry point for request handling:
//
//	resolver := wallet.NewResolver(wallet.NewPGStore(pool), cfg)
//	bctx, err := resolver.Resolve(ctx, wallet.ResolveParams{
//		OwnerType: wallet.OwnerTypeUser,
//		OwnerID:   userID,
//	})
//
// The returned Context holds the live balance plus a bypass flag covering
// trusted wallets and the dev-credit path. EnsureDevCredits tops balances up
// to a generous configured allowance, but only outside production (or for
// allow-listed owners) and always with Bypass set, so dev convenience is
// never mistaken for real entitlement.
package wallet
