package checkout

import (
	"context"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/drafts"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/totals"
)

type fakeBackend struct {
	items []totals.LineItem

	getErr    error
	updateErr error
	removeErr error
	createErr error

	getCalls int
	updates  map[string]int
	removed  []string
	cleared  bool

	createReq *backend.OrderRequest
	created   backend.Order
	remote    map[string]backend.Order
}

func newFakeBackend(items ...totals.LineItem) *fakeBackend {
	return &fakeBackend{items: items, updates: map[string]int{}, remote: map[string]backend.Order{}}
}

func (f *fakeBackend) GetCart(ctx context.Context) (backend.Cart, error) {
	f.getCalls++
	if f.getErr != nil {
		return backend.Cart{}, f.getErr
	}
	out := make([]totals.LineItem, len(f.items))
	copy(out, f.items)
	return backend.Cart{Items: out}, nil
}

func (f *fakeBackend) UpdateCartItem(ctx context.Context, itemID string, quantity int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates[itemID] = quantity
	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items[i].Quantity = quantity
		}
	}
	return nil
}

func (f *fakeBackend) RemoveCartItem(ctx context.Context, itemID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, itemID)
	kept := f.items[:0]
	for _, it := range f.items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeBackend) ClearCart(ctx context.Context) error {
	f.cleared = true
	f.items = nil
	return nil
}

func (f *fakeBackend) CreateOrder(ctx context.Context, req backend.OrderRequest) (backend.Order, error) {
	f.createReq = &req
	if f.createErr != nil {
		return backend.Order{}, f.createErr
	}
	return f.created, nil
}

func (f *fakeBackend) GetOrder(ctx context.Context, orderID string) (backend.Order, error) {
	if o, ok := f.remote[orderID]; ok {
		return o, nil
	}
	return backend.Order{}, &backend.APIError{Op: "get_order", Status: 404}
}

type fakeDrafts struct {
	m       map[string]drafts.Draft
	getErr  error
	deleted []string
}

func newFakeDrafts() *fakeDrafts { return &fakeDrafts{m: map[string]drafts.Draft{}} }

func (f *fakeDrafts) Save(ctx context.Context, d drafts.Draft) error {
	f.m[d.UserID] = d
	return nil
}

func (f *fakeDrafts) Get(ctx context.Context, userID string) (drafts.Draft, error) {
	if f.getErr != nil {
		return drafts.Draft{}, f.getErr
	}
	d, ok := f.m[userID]
	if !ok {
		return drafts.Draft{}, drafts.ErrNotFound
	}
	return d, nil
}

func (f *fakeDrafts) Delete(ctx context.Context, userID string) error {
	delete(f.m, userID)
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeLedger struct {
	recorded  []orders.PlacedOrder
	recordErr error
}

func (f *fakeLedger) Record(ctx context.Context, o orders.PlacedOrder) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, o)
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, userID, orderID string) (orders.PlacedOrder, error) {
	for _, o := range f.recorded {
		if o.ID == orderID && o.UserID == userID {
			return o, nil
		}
	}
	return orders.PlacedOrder{}, orders.ErrNotFound
}

func (f *fakeLedger) ListByUser(ctx context.Context, userID string) ([]orders.PlacedOrder, error) {
	var out []orders.PlacedOrder
	for _, o := range f.recorded {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []orders.PlacedOrder
	metas     []events.EventMeta
	err       error
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, meta events.EventMeta, o orders.PlacedOrder) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, o)
	f.metas = append(f.metas, meta)
	return nil
}

type fakeMetrics struct {
	views    int
	placed   []float64
	failures []string
}

func (f *fakeMetrics) CartViewed() { f.views++ }
func (f *fakeMetrics) OrderPlaced(total float64) { f.placed = append(f.placed, total) }
func (f *fakeMetrics) OrderFailed(reason string) { f.failures = append(f.failures, reason) }

var fixedNow = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

type harness struct {
	svc     *Service
	backend *fakeBackend
	drafts  *fakeDrafts
	ledger  *fakeLedger
	events  *fakePublisher
	metrics *fakeMetrics
}

func newHarness(items ...totals.LineItem) *harness {
	h := &harness{
		backend: newFakeBackend(items...),
		drafts:  newFakeDrafts(),
		ledger:  &fakeLedger{},
		events:  &fakePublisher{},
		metrics: &fakeMetrics{},
	}
	h.svc = NewService(Deps{
		Backend: h.backend,
		Drafts:  h.drafts,
		Orders:  h.ledger,
		Events:  h.events,
		Metrics: h.metrics,
		Policy:  totals.DefaultPolicy(),
		Now:     func() time.Time { return fixedNow },
	})
	return h
}

func line(id, productID string, price float64, qty, stock int) totals.LineItem {
	return totals.LineItem{
		ID:       id,
		Quantity: qty,
		Product:  &totals.Product{ID: productID, Name: "Product " + productID, Price: price, Stock: stock},
	}
}

func validShipping() drafts.ShippingInfo {
	return drafts.ShippingInfo{
		FirstName: "Nimal",
		LastName:  "Perera",
		Email:     "nimal.perera@example.lk",
		Phone:     "0771234567",
		Address:   "12 Galle Road",
		City:      "Colombo",
		State:     "Western",
		ZipCode:   "00300",
	}
}
