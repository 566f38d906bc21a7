package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/entitlement"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
	"github.com/dmitrymomot/billingkit/pkg/pricebook"
	"github.com/dmitrymomot/billingkit/pkg/ratelimit"
	"github.com/dmitrymomot/billingkit/pkg/wallet"
)

type serviceFixture struct {
	svc     *billing.Service
	wallets *wallet.MemoryStore
	store   *billing.MemoryStore
	charges *ledger.MemoryStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	wallets := wallet.NewMemoryStore()
	charges := ledger.NewMemoryStore(wallets)
	store := billing.NewMemoryStore(wallets)

	limiterStore := ratelimit.NewMemoryStore()
	t.Cleanup(limiterStore.Close)

	svc := billing.NewService(billing.Deps{
		Resolver: wallet.NewResolver(wallets, wallet.Config{Environment: "test"}),
		Wallets:  wallets,
		Limiter:  ratelimit.NewLimiter(limiterStore),
		Charger:  ledger.NewCharger(charges),
		Store:    store,
		Rates:    pricebook.DefaultRates(),
	})

	return &serviceFixture{svc: svc, wallets: wallets, store: store, charges: charges}
}

func (f *serviceFixture) resolve(t *testing.T, ownerID string) *billing.Context {
	t.Helper()
	bctx, err := f.svc.ResolveWalletContext(context.Background(), wallet.ResolveParams{
		OwnerType: wallet.OwnerTypeUser,
		OwnerID:   ownerID,
	})
	require.NoError(t, err)
	return bctx
}

func starterPlan(store *billing.MemoryStore) *billing.Plan {
	return store.SeedPlan(&billing.Plan{
		Code:                 "user_starter",
		Name:                 "Starter",
		PriceCents:           900,
		Currency:             "USD",
		Interval:             billing.BillingIntervalMonthly,
		Public:               true,
		IncludedCompute:      10000,
		IncludedStorageBytes: 1 << 30,
		ProviderPriceID:      "pri_starter",
		Metadata:             map[string]string{"feature_tier": "starter"},
	})
}

func checkoutEvent(walletID string) billing.SubscriptionEvent {
	periodEnd := time.Now().Add(30 * 24 * time.Hour).UTC()
	return billing.SubscriptionEvent{
		ID:               "evt_1",
		Type:             billing.EventCheckoutCompleted,
		ProviderEvent:    "transaction.completed",
		SubscriptionID:   "sub_1",
		CustomerID:       "ctm_1",
		Status:           "completed", // transaction status, not a subscription status
		PriceID:          "pri_starter",
		WalletID:         walletID,
		PlanCode:         "user_starter",
		CurrentPeriodEnd: &periodEnd,
	}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		billing.NewService(billing.Deps{})
	})
}

func TestResolveWalletContext_DefaultTierWithoutSubscription(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	bctx := f.resolve(t, "user-1")

	assert.Equal(t, entitlement.TierDefault, bctx.Tier)
	assert.False(t, bctx.Bypass)
	assert.Zero(t, bctx.Balance.Remaining(wallet.MetricCompute))
}

func TestHandleSubscriptionEvent_GrantThenAccess(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")

	// Before any payment the starter feature is gated.
	err := f.svc.EnsureFeatureAccess(bctx, entitlement.TierStarter, "capsule_memory")
	var entErr *entitlement.Error
	require.ErrorAs(t, err, &entErr)
	assert.Equal(t, entitlement.CodeUpgradeRequired, entErr.Code)

	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, checkoutEvent(bctx.Wallet.ID.String())))

	bctx = f.resolve(t, "user-1")
	assert.Equal(t, entitlement.TierStarter, bctx.Tier)
	assert.EqualValues(t, 10000, bctx.Balance.Remaining(wallet.MetricCompute))
	assert.NoError(t, f.svc.EnsureFeatureAccess(bctx, entitlement.TierStarter, "capsule_memory"))
}

func TestHandleSubscriptionEvent_ReplayGrantsOnce(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")
	event := checkoutEvent(bctx.Wallet.ID.String())

	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))

	bctx = f.resolve(t, "user-1")
	assert.EqualValues(t, 10000, bctx.Balance.Granted(wallet.MetricCompute))
	assert.Len(t, f.store.Grants(), 1)
}

func TestHandleSubscriptionEvent_RenewalKeepsEntitlement(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")

	created := checkoutEvent(bctx.Wallet.ID.String())
	created.Type = billing.EventSubscriptionCreated
	created.ProviderEvent = "subscription.created"
	created.Status = "active"
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, created))

	bctx = f.resolve(t, "user-1")
	require.Equal(t, entitlement.TierStarter, bctx.Tier)

	// A monthly renewal arrives as a transaction event whose status field
	// is the transaction's, not the subscription's.
	renewal := checkoutEvent(bctx.Wallet.ID.String())
	renewal.ID = "evt_renewal"
	renewal.Type = billing.EventInvoicePaid
	renewal.ProviderEvent = "transaction.payment_succeeded"
	renewal.Status = "completed"
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, renewal))

	sub, err := f.store.GetSubscriptionByWallet(ctx, bctx.Wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, sub.Status)

	bctx = f.resolve(t, "user-1")
	assert.Equal(t, entitlement.TierStarter, bctx.Tier)
	assert.EqualValues(t, 20000, bctx.Balance.Granted(wallet.MetricCompute))
}

func TestHandleSubscriptionEvent_NewPeriodGrantsAgain(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")

	first := checkoutEvent(bctx.Wallet.ID.String())
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, first))

	renewal := first
	renewal.ID = "evt_2"
	renewal.Type = billing.EventInvoicePaid
	renewal.ProviderEvent = "transaction.payment_succeeded"
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, renewal))

	bctx = f.resolve(t, "user-1")
	assert.EqualValues(t, 20000, bctx.Balance.Granted(wallet.MetricCompute))
	assert.Len(t, f.store.Grants(), 2)
}

func TestHandleSubscriptionEvent_DerivedEventIDDeduplicates(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")

	event := checkoutEvent(bctx.Wallet.ID.String())
	event.ID = ""

	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))

	bctx = f.resolve(t, "user-1")
	assert.EqualValues(t, 10000, bctx.Balance.Granted(wallet.MetricCompute))
}

func TestHandleSubscriptionEvent_SkipsUnattributable(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	t.Run("unknown event type", func(t *testing.T) {
		t.Parallel()
		event := checkoutEvent(uuid.NewString())
		event.Type = billing.EventType("transaction.updated")
		require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))
	})

	t.Run("missing wallet metadata", func(t *testing.T) {
		t.Parallel()
		event := checkoutEvent("")
		require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))
	})

	t.Run("malformed wallet id", func(t *testing.T) {
		t.Parallel()
		event := checkoutEvent("not-a-uuid")
		require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))
	})

	t.Run("wallet never existed", func(t *testing.T) {
		t.Parallel()
		event := checkoutEvent(uuid.NewString())
		require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))
		assert.Empty(t, f.store.Grants())
	})
}

func TestHandleSubscriptionEvent_UnresolvedPlanTracksStatusOnly(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")

	event := checkoutEvent(bctx.Wallet.ID.String())
	event.PlanCode = "user_unknown"
	event.PriceID = "pri_unknown"
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))

	sub, err := f.store.GetSubscriptionByWallet(ctx, bctx.Wallet.ID)
	require.NoError(t, err)
	assert.Nil(t, sub.PlanID)
	assert.Equal(t, billing.StatusActive, sub.Status)

	// No plan means no allowances and no tier upgrade.
	assert.Empty(t, f.store.Grants())
	bctx = f.resolve(t, "user-1")
	assert.Equal(t, entitlement.TierDefault, bctx.Tier)
}

func TestHandleSubscriptionEvent_PlanFallsBackToPriceID(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")

	event := checkoutEvent(bctx.Wallet.ID.String())
	event.PlanCode = ""
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))

	bctx = f.resolve(t, "user-1")
	assert.Equal(t, entitlement.TierStarter, bctx.Tier)
	assert.EqualValues(t, 10000, bctx.Balance.Granted(wallet.MetricCompute))
}

func TestHandleSubscriptionEvent_DeletionCancelsAndRevokesTier(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, checkoutEvent(bctx.Wallet.ID.String())))

	deletion := checkoutEvent(bctx.Wallet.ID.String())
	deletion.ID = "evt_del"
	deletion.Type = billing.EventSubscriptionDeleted
	deletion.ProviderEvent = "subscription.canceled"
	deletion.Status = "active" // the id mapping wins over the payload status
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, deletion))

	sub, err := f.store.GetSubscriptionByWallet(ctx, bctx.Wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCanceled, sub.Status)

	// Tier falls back to default; already-granted credits stay spendable.
	bctx = f.resolve(t, "user-1")
	assert.Equal(t, entitlement.TierDefault, bctx.Tier)
	assert.EqualValues(t, 10000, bctx.Balance.Remaining(wallet.MetricCompute))
	assert.Len(t, f.store.Grants(), 1)
}

func TestHandleSubscriptionEvent_UnknownStatusIsNotEntitled(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")

	event := checkoutEvent(bctx.Wallet.ID.String())
	event.Type = billing.EventSubscriptionUpdated
	event.ProviderEvent = "subscription.updated"
	event.Status = "pending_review"
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, event))

	sub, err := f.store.GetSubscriptionByWallet(ctx, bctx.Wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusIncomplete, sub.Status)

	bctx = f.resolve(t, "user-1")
	assert.Equal(t, entitlement.TierDefault, bctx.Tier)
}

func TestChargeUsage(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, checkoutEvent(bctx.Wallet.ID.String())))
	bctx = f.resolve(t, "user-1")

	require.NoError(t, f.svc.ChargeUsage(ctx, bctx, wallet.MetricCompute, 1500, "text_generation"))

	bctx = f.resolve(t, "user-1")
	assert.EqualValues(t, 8500, bctx.Balance.Remaining(wallet.MetricCompute))

	records := f.charges.Records(bctx.Wallet.ID)
	require.Len(t, records, 1)
	assert.Equal(t, "text_generation", records[0].Reason)
}

func TestChargeUsage_PricebookCost(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	starterPlan(f.store)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")
	require.NoError(t, f.svc.HandleSubscriptionEvent(ctx, checkoutEvent(bctx.Wallet.ID.String())))
	bctx = f.resolve(t, "user-1")

	cost := f.svc.Rates().TextGenerationCredits("gpt-4", 2000, 1000)
	require.Positive(t, cost)
	require.NoError(t, f.svc.ChargeUsage(ctx, bctx, wallet.MetricCompute, cost, "text_generation"))

	bctx = f.resolve(t, "user-1")
	assert.Equal(t, cost, bctx.Balance.Used(wallet.MetricCompute))
}

func TestChargeUsage_BypassSkipsDebit(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	bctx := f.resolve(t, "user-1")
	f.wallets.SetBypass(bctx.Wallet.ID, true)
	bctx = f.resolve(t, "user-1")
	require.True(t, bctx.Bypass)

	require.NoError(t, f.svc.ChargeUsage(ctx, bctx, wallet.MetricCompute, 500, "text_generation"))

	bctx = f.resolve(t, "user-1")
	assert.Zero(t, bctx.Balance.Used(wallet.MetricCompute))
	assert.Empty(t, f.charges.Records(bctx.Wallet.ID))
}

func TestCheckRateLimits(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	def := ratelimit.Definition{Name: "api_user", Limit: 2, Window: time.Minute}
	check := ratelimit.Check{Definition: def, Identifier: "user-1"}

	for range 2 {
		result := f.svc.CheckRateLimits(ctx, check)
		require.True(t, result.Success)
	}

	result := f.svc.CheckRateLimits(ctx, check)
	assert.False(t, result.Success)
	assert.Positive(t, ratelimit.RetryAfterSeconds(result.Reset))
}

func TestServiceMetrics_PerInstanceCounters(t *testing.T) {
	t.Parallel()

	newSvc := func(t *testing.T, opts ...billing.Option) *billing.Service {
		t.Helper()
		wallets := wallet.NewMemoryStore()
		limiterStore := ratelimit.NewMemoryStore()
		t.Cleanup(limiterStore.Close)
		return billing.NewService(billing.Deps{
			Resolver: wallet.NewResolver(wallets, wallet.Config{Environment: "test"}),
			Wallets:  wallets,
			Limiter:  ratelimit.NewLimiter(limiterStore),
			Charger:  ledger.NewCharger(ledger.NewMemoryStore(wallets)),
			Store:    billing.NewMemoryStore(wallets),
		}, opts...)
	}

	reg := prometheus.NewRegistry()
	instrumented := newSvc(t, billing.WithMetrics(billing.NewMetrics(reg)))
	plain := newSvc(t)

	ctx := context.Background()
	def := ratelimit.Definition{Name: "api_user", Limit: 1, Window: time.Minute}
	check := ratelimit.Check{Definition: def, Identifier: "user-1"}

	// One denial on the instrumented service, two on the uninstrumented one.
	for range 2 {
		instrumented.CheckRateLimits(ctx, check)
	}
	for range 3 {
		plain.CheckRateLimits(ctx, check)
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	var denied float64
	for _, fam := range families {
		if fam.GetName() == "billing_rate_limited_total" {
			denied = fam.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), denied, "registry must see only the instrumented service's denials")
}

func TestHandleWebhook_RequiresProcessor(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	err := f.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	assert.Error(t, err)
}
