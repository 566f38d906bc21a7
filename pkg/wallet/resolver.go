package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// Config holds the resolver's environment-dependent settings.
type Config struct {
	// Environment gates the dev-credit path: top-ups are refused in
	// production unless the owner is explicitly allow-listed.
	Environment string `env:"APP_ENV" envDefault:"development"`
	// DevCreditAmount is the allowance each metric is topped up to when dev
	// credits are requested.
	DevCreditAmount int64 `env:"BILLING_DEV_CREDIT_AMOUNT" envDefault:"1000000"`
	// DevAllowlist lists owner ids permitted to receive dev credits even in
	// production.
	DevAllowlist []string `env:"BILLING_DEV_ALLOWLIST" envSeparator:","`
}

// ResolveParams identifies the owner to resolve a wallet for.
type ResolveParams struct {
	OwnerType OwnerType
	OwnerID   string
	// EnsureDevCredits requests a generous top-up so local development is
	// never blocked on an empty balance. Honored only outside production or
	// for allow-listed owners, and always reported as bypass.
	EnsureDevCredits bool
}

// Context is a resolved billing context: the wallet, its live balance, and
// whether entitlement and charging should be bypassed for this caller.
type Context struct {
	Wallet  *Wallet
	Balance *Balance
	Bypass  bool
}

// Resolver loads or lazily provisions wallets with their balances.
type Resolver struct {
	store Store
	cfg   Config
	log   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a wallet resolver.
// Panics if store is nil to fail fast during initialization.
func NewResolver(store Store, cfg Config, opts ...ResolverOption) *Resolver {
	if store == nil {
		panic("wallet: store is required")
	}

	r := &Resolver{
		store: store,
		cfg:   cfg,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the billing context for an owner, creating the wallet and
// a zeroed balance on first access. The returned balance is the live record,
// not a cache, so entitlement checks and charges act on current numbers.
func (r *Resolver) Resolve(ctx context.Context, p ResolveParams) (*Context, error) {
	if p.OwnerID == "" {
		return nil, ErrWalletNotFound
	}

	w, err := r.store.UpsertWallet(ctx, p.OwnerType, p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve wallet for %s/%s: %w", p.OwnerType, p.OwnerID, err)
	}

	bypass := w.Bypass
	if p.EnsureDevCredits && r.devCreditsAllowed(p.OwnerID) {
		if err := r.ensureDevCredits(ctx, w); err != nil {
			return nil, err
		}
		bypass = true
	}

	balance, err := r.store.GetBalance(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("load balance for wallet %s: %w", w.ID, err)
	}

	return &Context{Wallet: w, Balance: balance, Bypass: bypass}, nil
}

// devCreditsAllowed restricts the dev-credit convenience to non-production
// environments and explicitly allow-listed owners.
func (r *Resolver) devCreditsAllowed(ownerID string) bool {
	if r.cfg.Environment != "production" && r.cfg.Environment != "prod" {
		return true
	}
	return slices.Contains(r.cfg.DevAllowlist, ownerID)
}

// ensureDevCredits tops the balance up to the configured dev allowance.
// Top-ups go through the granted counters like any other grant, so the
// balance invariants hold for dev wallets too.
func (r *Resolver) ensureDevCredits(ctx context.Context, w *Wallet) error {
	balance, err := r.store.GetBalance(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("load balance for dev credits: %w", err)
	}

	computeDelta := r.cfg.DevCreditAmount - balance.ComputeGranted
	storageDelta := r.cfg.DevCreditAmount - balance.StorageGranted
	if computeDelta <= 0 && storageDelta <= 0 {
		return nil
	}
	computeDelta = max(computeDelta, 0)
	storageDelta = max(storageDelta, 0)

	if err := r.store.AddGranted(ctx, w.ID, computeDelta, storageDelta); err != nil {
		return fmt.Errorf("top up dev credits for wallet %s: %w", w.ID, err)
	}

	r.log.InfoContext(ctx, "topped up dev credits",
		slog.String("wallet_id", w.ID.String()),
		slog.Int64("compute_delta", computeDelta),
		slog.Int64("storage_delta", storageDelta))

	return nil
}
