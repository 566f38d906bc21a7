package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/entitlement"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
	"github.com/dmitrymomot/billingkit/pkg/pricebook"
	"github.com/dmitrymomot/billingkit/pkg/ratelimit"
	"github.com/dmitrymomot/billingkit/pkg/wallet"
)

// Context is a resolved billing context for one request: the wallet, its
// live balance, the bypass flag, and the feature tier derived from the
// wallet's active subscription.
type Context struct {
	Wallet  *wallet.Wallet
	Balance *wallet.Balance
	Bypass  bool
	Tier    entitlement.Tier
}

// Deps holds the collaborators the service is constructed from. Keeping
// them on an explicit object instead of package-level singletons makes
// tests hermetic and wiring visible.
type Deps struct {
	Resolver *wallet.Resolver
	Wallets  wallet.Store
	Limiter  *ratelimit.Limiter
	Charger  *ledger.Charger
	Store    Store
	Rates    pricebook.Rates
}

// Service is the billing facade the route layer talks to: rate limiting,
// wallet resolution, entitlement gating, usage charging, and the plan grant
// processor consuming subscription webhooks.
type Service struct {
	resolver *wallet.Resolver
	wallets  wallet.Store
	limiter  *ratelimit.Limiter
	charger  *ledger.Charger
	store    Store
	rates    pricebook.Rates
	paddle   *PaddleWebhook
	metrics  *Metrics
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics attaches Prometheus counters to the service.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithPaddleWebhook enables HandleWebhook for Paddle deliveries.
func WithPaddleWebhook(p *PaddleWebhook) Option {
	return func(s *Service) {
		s.paddle = p
	}
}

// NewService creates the billing facade.
// Panics if any required dependency is nil to fail fast during initialization.
func NewService(deps Deps, opts ...Option) *Service {
	if deps.Resolver == nil {
		panic("billing: wallet resolver is required")
	}
	if deps.Wallets == nil {
		panic("billing: wallet store is required")
	}
	if deps.Limiter == nil {
		panic("billing: rate limiter is required")
	}
	if deps.Charger == nil {
		panic("billing: charger is required")
	}
	if deps.Store == nil {
		panic("billing: store is required")
	}

	s := &Service{
		resolver: deps.Resolver,
		wallets:  deps.Wallets,
		limiter:  deps.Limiter,
		charger:  deps.Charger,
		store:    deps.Store,
		rates:    deps.Rates,
		// Unregistered per-service collectors cost one atomic add per
		// observation and export nothing until WithMetrics replaces them.
		metrics: newMetrics(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rates exposes the pricebook so routes compute credit costs with the same
// rates the service was constructed with.
func (s *Service) Rates() pricebook.Rates {
	return s.rates
}

// CheckRateLimits evaluates the given checks, admitting the request only
// when all pass. Counter-store outages fail open inside the limiter.
func (s *Service) CheckRateLimits(ctx context.Context, checks ...ratelimit.Check) *ratelimit.Result {
	result := s.limiter.Check(ctx, checks...)
	if !result.Success {
		s.metrics.rateLimited.Inc()
	}
	return result
}

// ResolveWalletContext loads (or lazily creates) the owner's wallet and
// balance and derives the feature tier from the wallet's active
// subscription. Wallets without an entitling subscription get the base tier.
func (s *Service) ResolveWalletContext(ctx context.Context, p wallet.ResolveParams) (*Context, error) {
	wctx, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}

	tier, err := s.resolveTier(ctx, wctx.Wallet.ID)
	if err != nil {
		return nil, err
	}

	return &Context{
		Wallet:  wctx.Wallet,
		Balance: wctx.Balance,
		Bypass:  wctx.Bypass,
		Tier:    tier,
	}, nil
}

// EnsureFeatureAccess gates a feature behind the context's tier. Purely
// advisory: no mutation, safe to call before committing to the operation.
func (s *Service) EnsureFeatureAccess(bctx *Context, requiredTier entitlement.Tier, feature string) error {
	return entitlement.EnsureFeatureAccess(entitlement.Params{
		Tier:         bctx.Tier,
		RequiredTier: requiredTier,
		Bypass:       bctx.Bypass,
		Feature:      feature,
	})
}

// ChargeUsage debits the realized cost of a completed operation. Bypass
// contexts and non-positive amounts charge nothing.
func (s *Service) ChargeUsage(ctx context.Context, bctx *Context, metric wallet.Metric, amount int64, reason string) error {
	if err := s.charger.Charge(ctx, ledger.ChargeParams{
		WalletID: bctx.Wallet.ID,
		Metric:   metric,
		Amount:   amount,
		Reason:   reason,
		Bypass:   bctx.Bypass,
	}); err != nil {
		return err
	}

	if !bctx.Bypass && amount > 0 {
		s.metrics.charges.WithLabelValues(string(metric)).Add(float64(amount))
	}
	return nil
}

// resolveTier derives the caller's feature tier from the wallet's most
// recent subscription. Missing subscriptions, non-entitling statuses, and
// unresolved plan linkage all fall back to the base tier.
func (s *Service) resolveTier(ctx context.Context, walletID uuid.UUID) (entitlement.Tier, error) {
	sub, err := s.store.GetSubscriptionByWallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return entitlement.TierDefault, nil
		}
		return entitlement.TierDefault, err
	}

	if !sub.IsEntitled() || sub.PlanID == nil {
		return entitlement.TierDefault, nil
	}

	plan, err := s.store.GetPlanByID(ctx, *sub.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return entitlement.TierDefault, nil
		}
		return entitlement.TierDefault, err
	}

	return plan.FeatureTier(), nil
}

// HandleWebhook verifies and normalizes a raw Paddle delivery, then routes
// it through HandleSubscriptionEvent. Verification and payload errors are
// returned to the caller so the route can answer 4xx; the provider is the
// one party that must see those failures.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.paddle == nil {
		return errors.New("billing: paddle webhook processor is not configured")
	}

	event, err := s.paddle.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	return s.HandleSubscriptionEvent(ctx, *event)
}

// HandleSubscriptionEvent consumes one normalized subscription lifecycle
// event: it attributes the event to a wallet, resolves the plan, upserts
// the subscription, and grants the plan's allowances when the event
// confirms a payment.
//
// Unattributable events (unknown type, missing wallet metadata, wallet that
// never existed) are logged and acknowledged, never returned as errors, so
// permanently unresolvable deliveries don't trigger provider retry storms.
// Storage failures are returned so the provider redelivers.
func (s *Service) HandleSubscriptionEvent(ctx context.Context, event SubscriptionEvent) error {
	log := s.log.With(
		slog.String("provider_event", event.ProviderEvent),
		slog.String("subscription_id", event.SubscriptionID),
	)

	if !event.Type.Known() {
		log.DebugContext(ctx, "ignoring unhandled webhook event type")
		return nil
	}
	s.metrics.webhookEvents.WithLabelValues(string(event.Type)).Inc()

	walletID, err := uuid.Parse(event.WalletID)
	if event.WalletID == "" || err != nil {
		log.WarnContext(ctx, "subscription event has no usable wallet metadata, skipping")
		return nil
	}

	w, err := s.wallets.GetWallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			// A subscription cannot retroactively synthesize a wallet; the
			// wallet appears with first product usage.
			log.WarnContext(ctx, "subscription event references unknown wallet, skipping",
				slog.String("wallet_id", event.WalletID))
			return nil
		}
		return fmt.Errorf("load wallet %s: %w", event.WalletID, err)
	}

	if event.SubscriptionID == "" {
		log.WarnContext(ctx, "subscription event has no provider subscription id, skipping")
		return nil
	}

	plan := s.lookupPlan(ctx, log, event)

	sub := &Subscription{
		WalletID:               w.ID,
		Status:                 s.eventStatus(event),
		CurrentPeriodEnd:       event.CurrentPeriodEnd,
		CancelAtPeriodEnd:      event.CancelAtPeriodEnd,
		ProviderSubscriptionID: event.SubscriptionID,
		ProviderCustomerID:     event.CustomerID,
		Metadata:               event.Metadata,
	}
	if plan != nil {
		sub.PlanID = &plan.ID
	}

	if _, err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription %s: %w", event.SubscriptionID, err)
	}

	if !event.Type.GrantsAllowance() || plan == nil {
		return nil
	}

	applied, err := s.store.ApplyGrant(ctx, &Grant{
		ID:         uuid.New(),
		WalletID:   w.ID,
		PlanID:     plan.ID,
		SourceType: GrantSourceProviderEvent,
		SourceID:   grantSourceID(event),
		Compute:    plan.IncludedCompute,
		Storage:    plan.IncludedStorageBytes,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("apply grant for wallet %s: %w", w.ID, err)
	}

	if applied {
		s.metrics.grants.Inc()
		log.InfoContext(ctx, "granted plan allowances",
			slog.String("wallet_id", w.ID.String()),
			slog.String("plan_code", plan.Code),
			slog.Int64("compute", plan.IncludedCompute),
			slog.Int64("storage", plan.IncludedStorageBytes))
	} else {
		log.DebugContext(ctx, "grant already applied, redelivery ignored")
	}

	return nil
}

// lookupPlan resolves the event's plan: explicit plan_code metadata wins,
// then the provider price id. Unresolvable plans are logged and return nil;
// the subscription is still tracked with a nil plan.
func (s *Service) lookupPlan(ctx context.Context, log *slog.Logger, event SubscriptionEvent) *Plan {
	if event.PlanCode != "" {
		plan, err := s.store.GetPlanByCode(ctx, event.PlanCode)
		if err == nil {
			return plan
		}
		if !errors.Is(err, ErrPlanNotFound) {
			log.WarnContext(ctx, "plan lookup by code failed", slog.Any("error", err))
		}
	}

	if event.PriceID != "" {
		plan, err := s.store.GetPlanByPriceID(ctx, event.PriceID)
		if err == nil {
			return plan
		}
		if !errors.Is(err, ErrPlanNotFound) {
			log.WarnContext(ctx, "plan lookup by price id failed", slog.Any("error", err))
		}
	}

	log.WarnContext(ctx, "subscription event resolves to no plan, tracking status only",
		slog.String("plan_code", event.PlanCode),
		slog.String("price_id", event.PriceID))
	return nil
}

// eventStatus derives the subscription status for an event. Deletions force
// canceled regardless of the payload's status string. Transaction-shaped
// events (checkout, renewal payment) carry a transaction status such as
// "completed" or "paid", not a subscription status; a confirmed payment
// means the subscription is active unless the payload carries a recognized
// subscription status, so a renewal never demotes an entitled customer.
func (s *Service) eventStatus(event SubscriptionEvent) SubscriptionStatus {
	switch event.Type {
	case EventSubscriptionDeleted:
		return StatusCanceled
	case EventCheckoutCompleted, EventInvoicePaid:
		if status, ok := providerStatuses[event.Status]; ok {
			return status
		}
		return StatusActive
	default:
		return MapProviderStatus(event.Status)
	}
}

// grantSourceID picks the grant idempotency key: the provider's event id
// when present, otherwise a stable hash of the subscription id and billing
// period so redeliveries without a delivery id still deduplicate.
func grantSourceID(event SubscriptionEvent) string {
	if event.ID != "" {
		return event.ID
	}

	seed := event.SubscriptionID
	if event.CurrentPeriodEnd != nil {
		seed += "|" + event.CurrentPeriodEnd.UTC().Format(time.RFC3339)
	}
	sum := sha256.Sum256([]byte(seed))
	return "derived_" + hex.EncodeToString(sum[:16])
}
