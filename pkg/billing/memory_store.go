package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/wallet"
)

// MemoryStore is an in-memory Store for tests and single-process setups.
// Grant increments land on the shared wallet store so balance reads and
// grant writes observe one dataset.
type MemoryStore struct {
	wallets wallet.Store

	mu     sync.Mutex
	plans  map[uuid.UUID]*Plan
	subs   map[string]*Subscription // keyed by provider subscription id
	grants map[string]*Grant        // keyed by source_type|source_id
}

// NewMemoryStore creates an in-memory billing store backed by the given
// wallet store. Panics if wallets is nil to fail fast during initialization.
func NewMemoryStore(wallets wallet.Store) *MemoryStore {
	if wallets == nil {
		panic("billing: wallet store is required")
	}
	return &MemoryStore{
		wallets: wallets,
		plans:   make(map[uuid.UUID]*Plan),
		subs:    make(map[string]*Subscription),
		grants:  make(map[string]*Grant),
	}
}

// SeedPlan registers a plan in the catalog, assigning an id if absent.
func (s *MemoryStore) SeedPlan(p *Plan) *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.plans[cp.ID] = &cp
	out := cp
	return &out
}

func (s *MemoryStore) GetPlanByCode(_ context.Context, code string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (s *MemoryStore) GetPlanByPriceID(_ context.Context, priceID string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.ProviderPriceID != "" && p.ProviderPriceID == priceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (s *MemoryStore) GetPlanByID(_ context.Context, id uuid.UUID) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpsertSubscription(_ context.Context, sub *Subscription) (*Subscription, error) {
	if sub.ProviderSubscriptionID == "" {
		return nil, errors.New("billing: provider subscription id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.subs[sub.ProviderSubscriptionID]
	if !ok {
		cp := *sub
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		cp.CreatedAt = now
		cp.UpdatedAt = now
		s.subs[cp.ProviderSubscriptionID] = &cp
		out := cp
		return &out, nil
	}

	existing.WalletID = sub.WalletID
	if sub.PlanID != nil {
		existing.PlanID = sub.PlanID
	}
	existing.Status = sub.Status
	existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
	existing.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	existing.ProviderCustomerID = sub.ProviderCustomerID
	existing.Metadata = sub.Metadata
	existing.UpdatedAt = now

	out := *existing
	return &out, nil
}

func (s *MemoryStore) GetSubscriptionByWallet(_ context.Context, walletID uuid.UUID) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Subscription
	for _, sub := range s.subs {
		if sub.WalletID != walletID {
			continue
		}
		if latest == nil || sub.UpdatedAt.After(latest.UpdatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, ErrSubscriptionNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) ApplyGrant(ctx context.Context, g *Grant) (bool, error) {
	key := g.SourceType + "|" + g.SourceID

	s.mu.Lock()
	if _, ok := s.grants[key]; ok {
		s.mu.Unlock()
		return false, nil
	}
	cp := *g
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.grants[key] = &cp
	s.mu.Unlock()

	if err := s.wallets.AddGranted(ctx, g.WalletID, g.Compute, g.Storage); err != nil {
		s.mu.Lock()
		delete(s.grants, key)
		s.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Grants returns stored grant records for assertions in tests.
func (s *MemoryStore) Grants() []*Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Grant, 0, len(s.grants))
	for _, g := range s.grants {
		cp := *g
		out = append(out, &cp)
	}
	return out
}
