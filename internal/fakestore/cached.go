package fakestore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/pkg/models"
)

// TopicInvalidated is published on the event bus after Invalidate.
const TopicInvalidated = "catalog.invalidated"

// Default cache lifetimes.
const (
	DefaultProductsTTL   = 5 * time.Minute
	DefaultCategoriesTTL = 10 * time.Minute
)

// Source is the catalog read API shared by Client and Cached.
type Source interface {
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int) (*models.Product, error)
	GetCategories(ctx context.Context) ([]string, error)
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*Cached)(nil)
)

type entry[T any] struct {
	value   T
	expires time.Time
}

func (e *entry[T]) fresh(now time.Time) bool {
	return e != nil && now.Before(e.expires)
}

// Cached serves repeated catalog reads from memory until they expire.
// Failed reads are never cached. Product lookups by id share the products
// lifetime.
type Cached struct {
	src           Source
	productsTTL   time.Duration
	categoriesTTL time.Duration
	now           func() time.Time
	logger        *zap.Logger

	mu         sync.Mutex
	products   *entry[[]models.Product]
	categories *entry[[]string]
	byID       map[int]*entry[*models.Product]
}

// CacheOption configures a Cached source.
type CacheOption func(*Cached)

// WithTTL sets the products and categories lifetimes. Zero keeps the default.
func WithTTL(products, categories time.Duration) CacheOption {
	return func(c *Cached) {
		if products > 0 {
			c.productsTTL = products
		}
		if categories > 0 {
			c.categoriesTTL = categories
		}
	}
}

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cached) { c.now = now }
}

// WithCacheLogger sets the cache logger.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *Cached) { c.logger = l }
}

// NewCached wraps src with TTL caching.
func NewCached(src Source, opts ...CacheOption) *Cached {
	c := &Cached{
		src:           src,
		productsTTL:   DefaultProductsTTL,
		categoriesTTL: DefaultCategoriesTTL,
		now:           time.Now,
		logger:        zap.NewNop(),
		byID:          make(map[int]*entry[*models.Product]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAllProducts returns the cached catalog, refreshing it when stale.
func (c *Cached) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	c.mu.Lock()
	if e := c.products; e.fresh(c.now()) {
		out := cloneProducts(e.value)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	products, err := c.src.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products = &entry[[]models.Product]{value: cloneProducts(products), expires: c.now().Add(c.productsTTL)}
	c.mu.Unlock()
	c.logger.Debug("products cached", zap.Int("count", len(products)))
	return products, nil
}

// GetProductByID returns a cached product. Not-found results are cached too.
func (c *Cached) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	c.mu.Lock()
	if e := c.byID[id]; e.fresh(c.now()) {
		out := cloneProduct(e.value)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	p, err := c.src.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	now := c.now()
	c.pruneLocked(now)
	c.byID[id] = &entry[*models.Product]{value: cloneProduct(p), expires: now.Add(c.productsTTL)}
	c.mu.Unlock()
	return p, nil
}

// pruneLocked drops expired by-id entries. Callers hold c.mu.
func (c *Cached) pruneLocked(now time.Time) {
	for id, e := range c.byID {
		if !e.fresh(now) {
			delete(c.byID, id)
		}
	}
}

// GetCategories returns the cached category list.
func (c *Cached) GetCategories(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if e := c.categories; e.fresh(c.now()) {
		out := append([]string(nil), e.value...)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	cats, err := c.src.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.categories = &entry[[]string]{value: append([]string(nil), cats...), expires: c.now().Add(c.categoriesTTL)}
	c.mu.Unlock()
	return cats, nil
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
	c.categories = nil
	c.byID = make(map[int]*entry[*models.Product])
}

func cloneProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	copy(out, in)
	return out
}

func cloneProduct(p *models.Product) *models.Product {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
