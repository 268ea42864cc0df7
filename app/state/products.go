// Package state holds the process-wide catalog, search and admin session
// services. Each is built once at startup and injected where needed; only
// the service itself mutates its cache.
package state

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const featuredLimit = 6

// ProductStore is the part of the product repository the state needs.
type ProductStore interface {
	All(ctx context.Context) ([]models.Product, error)
	Add(ctx context.Context, in models.NewProduct) (string, error)
	Update(ctx context.Context, id string, patch models.ProductPatch) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, onData func([]models.Product), onError func(error)) func()
}

// Snapshot is a consistent view of the product cache.
type Snapshot struct {
	Products []models.Product `json:"products"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
}

// Products caches the full catalog, kept current by a repository
// subscription plus a delayed re-fetch after each local mutation.
type Products struct {
	repo  ProductStore
	delay time.Duration

	mu       sync.RWMutex
	products []models.Product
	loading  bool
	err      string

	lmu       sync.Mutex
	listeners map[int]func(Snapshot)
	nextID    int

	lifecycle   sync.Mutex
	ctx         context.Context
	unsubscribe func()
	timers      map[*time.Timer]struct{}
}

func NewProducts(repo ProductStore, refreshDelay time.Duration) *Products {
	if refreshDelay <= 0 {
		refreshDelay = time.Second
	}
	return &Products{
		repo:      repo,
		delay:     refreshDelay,
		loading:   true,
		listeners: map[int]func(Snapshot){},
		timers:    map[*time.Timer]struct{}{},
		ctx:       context.Background(),
	}
}

// Start subscribes to catalog changes. Calling Start twice is a no-op.
func (p *Products) Start(ctx context.Context) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.unsubscribe != nil {
		return
	}

	p.mu.Lock()
	p.loading, p.err = true, ""
	p.mu.Unlock()

	p.ctx = ctx
	p.unsubscribe = p.repo.Subscribe(ctx, p.receive, p.subscriptionFailed)
}

// Stop releases the subscription and cancels pending refreshes.
func (p *Products) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	for t := range p.timers {
		t.Stop()
		delete(p.timers, t)
	}
}

func (p *Products) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{Products: clone(p.products), Loading: p.loading, Error: p.err}
}

// ByCategory filters the cache by category, ignoring case.
func (p *Products) ByCategory(category string) []models.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := []models.Product{}
	for _, prod := range p.products {
		if strings.EqualFold(prod.Category, category) {
			out = append(out, prod)
		}
	}
	return out
}

// Featured returns up to six flagged products; without any flagged, the
// first six cached products.
func (p *Products) Featured() []models.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := []models.Product{}
	for _, prod := range p.products {
		if prod.Featured {
			out = append(out, prod)
			if len(out) == featuredLimit {
				return out
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	n := len(p.products)
	if n > featuredLimit {
		n = featuredLimit
	}
	return clone(p.products[:n])
}

// ByID looks the product up in the cache.
func (p *Products) ByID(id string) (models.Product, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, prod := range p.products {
		if prod.ID == id {
			return prod, true
		}
	}
	return models.Product{}, false
}

func (p *Products) Add(ctx context.Context, in models.NewProduct) (string, error) {
	p.clearError()
	id, err := p.repo.Add(ctx, in)
	if err != nil {
		p.setError(err)
		return "", err
	}
	p.scheduleRefresh("add")
	return id, nil
}

func (p *Products) Update(ctx context.Context, id string, patch models.ProductPatch) error {
	p.clearError()
	if err := p.repo.Update(ctx, id, patch); err != nil {
		p.setError(err)
		return err
	}
	p.scheduleRefresh("update")
	return nil
}

func (p *Products) Delete(ctx context.Context, id string) error {
	p.clearError()
	if err := p.repo.Delete(ctx, id); err != nil {
		p.setError(err)
		return err
	}
	p.scheduleRefresh("delete")
	return nil
}

// Refresh re-fetches the catalog now.
func (p *Products) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.loading, p.err = true, ""
	p.mu.Unlock()

	products, err := p.repo.All(ctx)

	p.mu.Lock()
	p.loading = false
	if err != nil {
		p.err = apperr.Public(err)
	} else {
		p.products = products
	}
	p.mu.Unlock()

	p.broadcast()
	return err
}

// Listen registers fn for every new snapshot and returns its remover.
func (p *Products) Listen(fn func(Snapshot)) func() {
	p.lmu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.lmu.Lock()
			delete(p.listeners, id)
			p.lmu.Unlock()
		})
	}
}

func (p *Products) receive(products []models.Product) {
	p.mu.Lock()
	p.products, p.loading, p.err = products, false, ""
	p.mu.Unlock()
	p.broadcast()
}

func (p *Products) subscriptionFailed(err error) {
	logger.Error("products: subscription error", "error", err)
	p.mu.Lock()
	p.loading, p.err = false, apperr.Public(err)
	p.mu.Unlock()
	p.broadcast()
}

// scheduleRefresh re-fetches once after the refresh delay. A failure there
// is only logged; the mutation already succeeded.
func (p *Products) scheduleRefresh(after string) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	ctx := p.ctx
	var t *time.Timer
	t = time.AfterFunc(p.delay, func() {
		p.lifecycle.Lock()
		_, pending := p.timers[t]
		delete(p.timers, t)
		p.lifecycle.Unlock()
		if !pending {
			return // stopped
		}

		products, err := p.repo.All(ctx)
		if err != nil {
			logger.Warn("products: refresh after "+after+" failed", "error", err)
			return
		}
		p.mu.Lock()
		p.products = products
		p.mu.Unlock()
		p.broadcast()
	})
	p.timers[t] = struct{}{}
}

func (p *Products) clearError() {
	p.mu.Lock()
	p.err = ""
	p.mu.Unlock()
}

func (p *Products) setError(err error) {
	p.mu.Lock()
	p.err = apperr.Public(err)
	p.mu.Unlock()
}

func (p *Products) broadcast() {
	snap := p.Snapshot()

	p.lmu.Lock()
	fns := make([]func(Snapshot), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.lmu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func clone(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	copy(out, in)
	return out
}
