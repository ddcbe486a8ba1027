// Package memory provides in-memory adapters for the outbound
// persistence ports. They back development mode and the application
// service tests; production wires the gorm and redis adapters instead.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/domain/grocery"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/google/uuid"
)

// PlanRepository is a concurrency-safe in-memory plan store
type PlanRepository struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*plan.MealPlan
}

// NewPlanRepository creates an empty plan store
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[uuid.UUID]*plan.MealPlan)}
}

var _ outbound.PlanRepository = (*PlanRepository)(nil)

func (r *PlanRepository) Create(ctx context.Context, p *plan.MealPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID()] = p
	return nil
}

func (r *PlanRepository) Update(ctx context.Context, p *plan.MealPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.ID()]; !ok {
		return plan.ErrPlanNotFound
	}
	r.plans[p.ID()] = p
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return plan.ErrPlanNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.MealPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return p, nil
}

func (r *PlanRepository) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]*plan.MealPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*plan.MealPlan
	for _, p := range r.plans {
		if p.ConversationID() == conversationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (r *PlanRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*plan.MealPlan, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var owned []*plan.MealPlan
	for _, p := range r.plans {
		if p.OwnerID() == ownerID {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt().After(owned[j].CreatedAt()) })
	return page(owned, offset, limit), len(owned), nil
}

func (r *PlanRepository) UpdateWithVersion(ctx context.Context, p *plan.MealPlan, expectedVersion int64) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.plans[p.ID()]
	if !ok {
		return plan.ErrPlanNotFound
	}
	// The caller holds the only mutable reference in-process, so the
	// check only trips when a stale aggregate is written back.
	if stored != p && stored.Version() != expectedVersion {
		return plan.ErrPlanMutating
	}
	r.plans[p.ID()] = p
	return nil
}

// ConversationRepository is a concurrency-safe in-memory thread store
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*conversation.ConversationContext
}

// NewConversationRepository creates an empty conversation store
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{conversations: make(map[uuid.UUID]*conversation.ConversationContext)}
}

var _ outbound.ConversationRepository = (*ConversationRepository)(nil)

func (r *ConversationRepository) Create(ctx context.Context, c *conversation.ConversationContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[c.ID()] = c
	return nil
}

func (r *ConversationRepository) Update(ctx context.Context, c *conversation.ConversationContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[c.ID()]; !ok {
		return conversation.ErrConversationNotFound
	}
	r.conversations[c.ID()] = c
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[id]; !ok {
		return conversation.ErrConversationNotFound
	}
	delete(r.conversations, id)
	return nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.ConversationContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, conversation.ErrConversationNotFound
	}
	return c, nil
}

func (r *ConversationRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*conversation.ConversationContext, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var owned []*conversation.ConversationContext
	for _, c := range r.conversations {
		if c.OwnerID() == ownerID {
			owned = append(owned, c)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].UpdatedAt().After(owned[j].UpdatedAt()) })
	return page(owned, offset, limit), len(owned), nil
}

// GroceryListRepository is a concurrency-safe in-memory list store
type GroceryListRepository struct {
	mu    sync.RWMutex
	lists map[uuid.UUID]*grocery.List
}

// NewGroceryListRepository creates an empty list store
func NewGroceryListRepository() *GroceryListRepository {
	return &GroceryListRepository{lists: make(map[uuid.UUID]*grocery.List)}
}

var _ outbound.GroceryListRepository = (*GroceryListRepository)(nil)

func (r *GroceryListRepository) Save(ctx context.Context, l *grocery.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists[l.PlanID()] = l
	return nil
}

func (r *GroceryListRepository) FindByPlanID(ctx context.Context, planID uuid.UUID) (*grocery.List, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lists[planID]
	if !ok {
		return nil, grocery.ErrListNotFound
	}
	return l, nil
}

func (r *GroceryListRepository) DeleteByPlanID(ctx context.Context, planID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[planID]; !ok {
		return grocery.ErrListNotFound
	}
	delete(r.lists, planID)
	return nil
}

// CacheRepository is an in-memory cache with TTL expiry on read
type CacheRepository struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewCacheRepository creates an empty cache
func NewCacheRepository() *CacheRepository {
	return &CacheRepository{entries: make(map[string]cacheEntry)}
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

func (c *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return entry.value, nil
}

func (c *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

func (c *CacheRepository) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	value, err := c.Get(ctx, key)
	return err == nil && value != nil, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
