package state_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/state"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

// fakeCatalog is an in-memory ProductStore whose subscription only pushes
// the initial list, like a backend whose realtime channel never fires.
type fakeCatalog struct {
	mu       sync.Mutex
	products []models.Product
	allErr   error
	addErr   error
	allCalls int
	unsubbed bool
}

func (f *fakeCatalog) All(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeCatalog) Add(_ context.Context, in models.NewProduct) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return "", f.addErr
	}
	id := fmt.Sprintf("p%d", len(f.products)+1)
	f.products = append([]models.Product{{ID: id, Name: in.Name, Category: in.Category, Price: in.Price}}, f.products...)
	return id, nil
}

func (f *fakeCatalog) Update(_ context.Context, id string, patch models.ProductPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			if patch.Price != nil {
				f.products[i].Price = *patch.Price
			}
			return nil
		}
	}
	return apperr.NotFound("products.update", "product not found")
}

func (f *fakeCatalog) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("products.delete", "product not found")
}

func (f *fakeCatalog) Subscribe(ctx context.Context, onData func([]models.Product), onError func(error)) func() {
	go func() {
		products, err := f.All(ctx)
		if err != nil {
			onError(err)
			return
		}
		onData(products)
	}()
	return func() {
		f.mu.Lock()
		f.unsubbed = true
		f.mu.Unlock()
	}
}

func (f *fakeCatalog) setAllErr(err error) {
	f.mu.Lock()
	f.allErr = err
	f.mu.Unlock()
}

func started(t *testing.T, catalog *fakeCatalog, delay time.Duration) *state.Products {
	t.Helper()
	p := state.NewProducts(catalog, delay)
	p.Start(context.Background())
	t.Cleanup(p.Stop)
	require.Eventually(t, func() bool { return !p.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	return p
}

func catalogOf(n int, featured ...int) []models.Product {
	flag := map[int]bool{}
	for _, i := range featured {
		flag[i] = true
	}
	out := make([]models.Product, n)
	for i := range out {
		out[i] = models.Product{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("item %d", i), Category: "Women", Featured: flag[i], Price: 1}
	}
	return out
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFeatured(t *testing.T) {
	tests := []struct {
		name    string
		catalog []models.Product
		want    []string
	}{
		{"flagged only", catalogOf(10, 2, 5), []string{"p2", "p5"}},
		{"flagged capped at six", catalogOf(10, 0, 1, 2, 3, 4, 5, 6, 7), []string{"p0", "p1", "p2", "p3", "p4", "p5"}},
		{"none flagged falls back to first six", catalogOf(10), []string{"p0", "p1", "p2", "p3", "p4", "p5"}},
		{"small catalog", catalogOf(2), []string{"p0", "p1"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := started(t, &fakeCatalog{products: tt.catalog}, time.Second)
			assert.Equal(t, tt.want, ids(p.Featured()))
		})
	}
}

func TestByCategoryIgnoresCase(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Product{
		{ID: "a", Category: "Women"},
		{ID: "b", Category: "Men"},
		{ID: "c", Category: "women"},
	}}
	p := started(t, catalog, time.Second)

	assert.Equal(t, []string{"a", "c"}, ids(p.ByCategory("WOMEN")))
	assert.Empty(t, p.ByCategory("Kids"))
}

func TestMutationRefreshesAfterDelay(t *testing.T) {
	catalog := &fakeCatalog{}
	p := started(t, catalog, 30*time.Millisecond)

	id, err := p.Add(context.Background(), models.NewProduct{Name: "Scarf", Category: "Accessories", Price: 12})
	require.NoError(t, err)
	assert.Empty(t, p.Snapshot().Products, "the cache is not touched synchronously")

	require.Eventually(t, func() bool { return len(p.Snapshot().Products) == 1 }, time.Second, 5*time.Millisecond)
	got, ok := p.ByID(id)
	require.True(t, ok)
	assert.Equal(t, "Scarf", got.Name)
}

func TestBackToBackUpdatesConverge(t *testing.T) {
	catalog := &fakeCatalog{products: catalogOf(1)}
	p := started(t, catalog, 20*time.Millisecond)
	ctx := context.Background()

	for _, price := range []float64{10, 20, 30} {
		price := price
		require.NoError(t, p.Update(ctx, "p0", models.ProductPatch{Price: &price}))
	}

	require.Eventually(t, func() bool {
		got, ok := p.ByID("p0")
		return ok && got.Price == 30
	}, time.Second, 5*time.Millisecond)
}

func TestMutationFailureSetsError(t *testing.T) {
	catalog := &fakeCatalog{addErr: apperr.Validation("products.add", map[string]string{"images": "The images must have at least 1 items."})}
	p := started(t, catalog, 10*time.Millisecond)
	calls := catalog.allCalls

	_, err := p.Add(context.Background(), models.NewProduct{Name: "x"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "validation failed", p.Snapshot().Error)

	time.Sleep(40 * time.Millisecond)
	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	assert.Equal(t, calls, catalog.allCalls, "no refresh after a failed mutation")
}

func TestRefreshFailureAfterMutationOnlyWarns(t *testing.T) {
	catalog := &fakeCatalog{products: catalogOf(1)}
	p := started(t, catalog, 10*time.Millisecond)

	catalog.setAllErr(errors.New("connection reset"))
	require.NoError(t, p.Delete(context.Background(), "p0"))

	time.Sleep(50 * time.Millisecond)
	snap := p.Snapshot()
	assert.Empty(t, snap.Error)
	assert.Equal(t, []string{"p0"}, ids(snap.Products), "stale cache is kept")
}

func TestRefreshReportsError(t *testing.T) {
	catalog := &fakeCatalog{products: catalogOf(2)}
	p := started(t, catalog, time.Second)

	catalog.setAllErr(apperr.Backend("products.all", errors.New("down")))
	err := p.Refresh(context.Background())
	require.Error(t, err)

	snap := p.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "backend request failed", snap.Error)
	assert.Len(t, snap.Products, 2)
}

func TestSubscriptionErrorIsExposed(t *testing.T) {
	catalog := &fakeCatalog{allErr: apperr.Backend("products.all", errors.New("down"))}
	p := state.NewProducts(catalog, time.Second)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return p.Snapshot().Error != "" }, time.Second, 5*time.Millisecond)
	assert.False(t, p.Snapshot().Loading)
}

func TestStopCancelsPendingRefreshAndUnsubscribes(t *testing.T) {
	catalog := &fakeCatalog{}
	p := state.NewProducts(catalog, 20*time.Millisecond)
	p.Start(context.Background())
	require.Eventually(t, func() bool { return !p.Snapshot().Loading }, time.Second, 5*time.Millisecond)

	_, err := p.Add(context.Background(), models.NewProduct{Name: "Hat", Category: "Men", Price: 5})
	require.NoError(t, err)
	p.Stop()
	p.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, p.Snapshot().Products)
	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	assert.True(t, catalog.unsubbed)
}

func TestListenReceivesSnapshots(t *testing.T) {
	catalog := &fakeCatalog{products: catalogOf(3)}
	p := state.NewProducts(catalog, time.Second)

	got := make(chan state.Snapshot, 4)
	remove := p.Listen(func(s state.Snapshot) { got <- s })

	p.Start(context.Background())
	defer p.Stop()

	select {
	case s := <-got:
		assert.Len(t, s.Products, 3)
	case <-time.After(time.Second):
		t.Fatal("listener not notified")
	}

	remove()
	require.NoError(t, p.Refresh(context.Background()))
	select {
	case <-got:
		t.Fatal("removed listener was notified")
	case <-time.After(20 * time.Millisecond):
	}
}
