// Package checkout orchestrates the storefront cart and checkout flow on top
// of the storefront API: cart views with client-side selection, quantity and
// removal round-trips, the checkout draft, and order placement.
//
// Totals are always derived from the most recent successful cart fetch.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/drafts"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/totals"
)

type Backend interface {
	GetCart(ctx context.Context) (backend.Cart, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) error
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
	CreateOrder(ctx context.Context, req backend.OrderRequest) (backend.Order, error)
	GetOrder(ctx context.Context, orderID string) (backend.Order, error)
}

type DraftStore interface {
	Save(ctx context.Context, d drafts.Draft) error
	Get(ctx context.Context, userID string) (drafts.Draft, error)
	Delete(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, meta events.EventMeta, o orders.PlacedOrder) error
}

type Metrics interface {
	CartViewed()
	OrderPlaced(total float64)
	OrderFailed(reason string)
}

type Deps struct {
	Backend Backend
	Drafts  DraftStore
	Orders  orders.Repository
	Events  EventPublisher
	Metrics Metrics
	Policy  totals.Policy
	Logger  *zap.Logger
	Now     func() time.Time
}

type Service struct {
	backend Backend
	drafts  DraftStore
	orders  orders.Repository
	events  EventPublisher
	metrics Metrics
	policy  totals.Policy
	log     *zap.Logger
	now     func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		backend: d.Backend,
		drafts:  d.Drafts,
		orders:  d.Orders,
		events:  d.Events,
		metrics: d.Metrics,
		policy:  d.Policy,
		log:     d.Logger,
		now:     d.Now,
	}
	if s.events == nil {
		s.events = events.NoopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *Service) Policy() totals.Policy { return s.policy }

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return s.log.With(
		zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
		zap.String("user_id", middleware.GetUserID(ctx)),
	)
}

// Cart renders the cart page. A nil selection means "everything selected",
// which is what a freshly opened cart shows. If the storefront API cannot be
// reached the cart is rendered empty.
func (s *Service) Cart(ctx context.Context, sel *totals.Selection) CartView {
	s.metrics.CartViewed()

	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		s.logger(ctx).Warn("cart fetch failed, rendering empty cart", zap.Error(err))
		return buildView(nil, totals.Selection{}, s.policy)
	}
	return buildView(cart.Items, resolve(sel, cart.Items), s.policy)
}

// resolve applies the nil-means-everything convention shared by the cart
// read and the cart mutations.
func resolve(sel *totals.Selection, items []totals.LineItem) totals.Selection {
	if sel == nil {
		return totals.SelectAll(items)
	}
	return *sel
}

func (s *Service) ToggleItem(ctx context.Context, sel totals.Selection, itemID string) CartView {
	next := sel.Toggle(itemID)
	return s.Cart(ctx, &next)
}

func (s *Service) ToggleAll(ctx context.Context, sel totals.Selection) (CartView, error) {
	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		return CartView{}, fmt.Errorf("load cart: %w", err)
	}
	next := totals.ToggleAll(cart.Items, sel.Retain(cart.Items))
	return buildView(cart.Items, next, s.policy), nil
}

// ChangeQuantity applies delta to one line. The new quantity is clamped to
// [1, stock]; a step below 1 is ignored and leaves the cart untouched. A nil
// selection selects every line, as in Cart.
func (s *Service) ChangeQuantity(ctx context.Context, sel *totals.Selection, itemID string, delta int) (CartView, error) {
	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		return CartView{}, fmt.Errorf("load cart: %w", err)
	}

	item, ok := findItem(cart.Items, itemID)
	if !ok {
		return CartView{}, ErrItemNotFound
	}
	if item.Product == nil {
		return CartView{}, ErrProductUnavailable
	}
	if item.Quantity+delta < 1 {
		return buildView(cart.Items, resolve(sel, cart.Items), s.policy), nil
	}

	qty := totals.ClampQuantity(item.Quantity, delta, item.Product.Stock)
	if qty == item.Quantity {
		return buildView(cart.Items, resolve(sel, cart.Items), s.policy), nil
	}

	if err := s.backend.UpdateCartItem(ctx, itemID, qty); err != nil {
		return CartView{}, fmt.Errorf("update quantity: %w", err)
	}
	s.logger(ctx).Info("cart quantity updated",
		zap.String("item_id", itemID),
		zap.Int("quantity", qty),
	)
	return s.refetch(ctx, sel)
}

// RemoveItem deletes the line on the backend and evicts it from sel. With a
// nil selection every remaining line stays selected.
func (s *Service) RemoveItem(ctx context.Context, sel *totals.Selection, itemID string) (CartView, error) {
	if err := s.backend.RemoveCartItem(ctx, itemID); err != nil {
		return CartView{}, fmt.Errorf("remove item: %w", err)
	}
	s.logger(ctx).Info("cart item removed", zap.String("item_id", itemID))
	if sel != nil {
		rest := sel.Without(itemID)
		sel = &rest
	}
	return s.refetch(ctx, sel)
}

func (s *Service) refetch(ctx context.Context, sel *totals.Selection) (CartView, error) {
	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		return CartView{}, fmt.Errorf("reload cart: %w", err)
	}
	return buildView(cart.Items, resolve(sel, cart.Items), s.policy), nil
}

func findItem(items []totals.LineItem, id string) (totals.LineItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return totals.LineItem{}, false
}

// SaveDraft completes the shipping step. The first save creates the draft;
// later saves replace selection and address but keep CreatedAt.
func (s *Service) SaveDraft(ctx context.Context, userID string, selected []string, ship drafts.ShippingInfo) (drafts.Draft, error) {
	sel := totals.NewSelection(selected...)
	if sel.Len() == 0 {
		return drafts.Draft{}, ErrEmptySelection
	}
	ship = normalizeShipping(ship)
	if err := ValidateShipping(ship); err != nil {
		return drafts.Draft{}, err
	}

	now := s.now()
	d := drafts.Draft{
		UserID:          userID,
		SelectedItemIDs: sel.IDs(),
		Shipping:        ship,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	prev, err := s.drafts.Get(ctx, userID)
	switch {
	case err == nil:
		d.CreatedAt = prev.CreatedAt
	case !errors.Is(err, drafts.ErrNotFound):
		return drafts.Draft{}, err
	}

	if err := s.drafts.Save(ctx, d); err != nil {
		return drafts.Draft{}, err
	}
	return d, nil
}

func (s *Service) Draft(ctx context.Context, userID string) (drafts.Draft, error) {
	d, err := s.drafts.Get(ctx, userID)
	if errors.Is(err, drafts.ErrNotFound) {
		return drafts.Draft{}, ErrNoDraft
	}
	return d, err
}

func (s *Service) AbandonDraft(ctx context.Context, userID string) error {
	if err := s.drafts.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger(ctx).Info("checkout abandoned")
	return nil
}

// Summary is the payment step: the draft, the selected lines as they are on
// the backend right now, and totals recomputed over them. Missing lists
// selected ids that are no longer in the cart.
type Summary struct {
	Draft   drafts.Draft  `json:"draft"`
	Items   []LineView    `json:"items"`
	Missing []string      `json:"missing,omitempty"`
	Totals  totals.Totals `json:"totals"`
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	d, err := s.Draft(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load cart: %w", err)
	}
	return summarize(d, cart.Items, s.policy), nil
}

func summarize(d drafts.Draft, items []totals.LineItem, p totals.Policy) Summary {
	wanted := totals.NewSelection(d.SelectedItemIDs...)
	sel := wanted.Retain(items)

	sum := Summary{
		Draft:  d,
		Items:  make([]LineView, 0, sel.Len()),
		Totals: totals.Compute(items, sel, p),
	}
	for _, it := range items {
		if sel.Has(it.ID) {
			sum.Items = append(sum.Items, newLineView(it, true))
		}
	}
	for _, id := range wanted.IDs() {
		if !sel.Has(id) {
			sum.Missing = append(sum.Missing, id)
		}
	}
	return sum
}

type PlaceOrderInput struct {
	PaymentMethod string `json:"paymentMethod"`
	AcceptTerms   bool   `json:"acceptTerms"`
}

// PlaceOrder submits the draft as an order. Once the storefront API has
// accepted the order, failures to record it locally, publish the event or
// clear the draft are logged and do not fail the call.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (orders.PlacedOrder, error) {
	log := s.logger(ctx)

	if err := validatePayment(in); err != nil {
		s.metrics.OrderFailed("validation")
		return orders.PlacedOrder{}, err
	}

	d, err := s.Draft(ctx, userID)
	if err != nil {
		return orders.PlacedOrder{}, err
	}
	if err := ValidateShipping(d.Shipping); err != nil {
		s.metrics.OrderFailed("validation")
		return orders.PlacedOrder{}, err
	}

	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		s.metrics.OrderFailed("backend")
		return orders.PlacedOrder{}, fmt.Errorf("load cart: %w", err)
	}
	sum := summarize(d, cart.Items, s.policy)
	if len(sum.Items) == 0 {
		s.metrics.OrderFailed("empty_selection")
		return orders.PlacedOrder{}, ErrEmptySelection
	}
	for _, lv := range sum.Items {
		if lv.Product == nil {
			s.metrics.OrderFailed("unavailable_product")
			return orders.PlacedOrder{}, fmt.Errorf("%w: item %s", ErrProductUnavailable, lv.ID)
		}
	}

	req := backend.OrderRequest{
		CustomerName:    customerName(d.Shipping),
		DeliveryAddress: deliveryAddress(d.Shipping),
		PhoneNumber:     d.Shipping.Phone,
		Email:           d.Shipping.Email,
		PaymentMethod:   in.PaymentMethod,
		Subtotal:        sum.Totals.Subtotal,
		ShippingFee:     sum.Totals.ShippingFee,
		Total:           sum.Totals.Total,
	}
	lines := make([]orders.Line, 0, len(sum.Items))
	for _, lv := range sum.Items {
		req.CartItems = append(req.CartItems, backend.OrderLine{
			ProductID: lv.Product.ID,
			Quantity:  lv.Quantity,
			UnitPrice: lv.Product.Price,
			LineTotal: lv.LineSubtotal,
		})
		lines = append(lines, orders.Line{
			ItemID:    lv.ID,
			ProductID: lv.Product.ID,
			Name:      lv.Product.Name,
			Quantity:  lv.Quantity,
			UnitPrice: lv.Product.Price,
			LineTotal: lv.LineSubtotal,
		})
	}

	created, err := s.backend.CreateOrder(ctx, req)
	if err != nil {
		s.metrics.OrderFailed("backend")
		log.Error("create order failed", zap.Error(err))
		return orders.PlacedOrder{}, fmt.Errorf("create order: %w", err)
	}

	placed := orders.PlacedOrder{
		ID:              created.ID,
		UserID:          userID,
		Status:          string(created.Status),
		CustomerName:    req.CustomerName,
		DeliveryAddress: req.DeliveryAddress,
		PhoneNumber:     req.PhoneNumber,
		PaymentMethod:   req.PaymentMethod,
		Lines:           lines,
		Totals:          sum.Totals,
		CorrelationID:   middleware.GetCorrelationID(ctx),
		CreatedAt:       created.CreatedAt,
	}
	if placed.CreatedAt.IsZero() {
		placed.CreatedAt = s.now()
	}
	log = log.With(zap.String("order_id", placed.ID))

	if err := s.orders.Record(ctx, placed); err != nil {
		log.Error("record order failed", zap.Error(err))
	}
	meta := events.EventMeta{CorrelationID: placed.CorrelationID}
	if err := s.events.PublishOrderPlaced(ctx, meta, placed); err != nil {
		log.Warn("publish OrderPlaced failed", zap.Error(err))
	}
	if err := s.drafts.Delete(ctx, userID); err != nil {
		log.Warn("clear checkout draft failed", zap.Error(err))
	}
	s.removeOrdered(ctx, log, cart.Items, sum.Items)

	s.metrics.OrderPlaced(placed.Totals.Total)
	log.Info("order placed",
		zap.String("status", placed.Status),
		zap.Float64("total", placed.Totals.Total),
		zap.Int("lines", len(placed.Lines)),
	)
	return placed, nil
}

// removeOrdered takes the ordered lines out of the cart and leaves the
// unselected ones for a later checkout. A 404 means the storefront API already
// dropped the line when it created the order.
func (s *Service) removeOrdered(ctx context.Context, log *zap.Logger, cart []totals.LineItem, ordered []LineView) {
	if len(ordered) == len(cart) {
		if err := s.backend.ClearCart(ctx); err != nil && !errors.Is(err, backend.ErrNotFound) {
			log.Warn("clear cart failed", zap.Error(err))
		}
		return
	}
	for _, lv := range ordered {
		if err := s.backend.RemoveCartItem(ctx, lv.ID); err != nil && !errors.Is(err, backend.ErrNotFound) {
			log.Warn("remove ordered item failed", zap.String("item_id", lv.ID), zap.Error(err))
		}
	}
}

// Order looks the order up in the local ledger and falls back to the
// storefront API for orders placed elsewhere.
func (s *Service) Order(ctx context.Context, userID, orderID string) (orders.PlacedOrder, error) {
	o, err := s.orders.Get(ctx, userID, orderID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, orders.ErrNotFound) {
		return orders.PlacedOrder{}, err
	}

	remote, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return orders.PlacedOrder{}, orders.ErrNotFound
		}
		return orders.PlacedOrder{}, fmt.Errorf("get order: %w", err)
	}
	return orders.PlacedOrder{
		ID:        remote.ID,
		UserID:    userID,
		Status:    string(remote.Status),
		Totals:    totals.Totals{Total: remote.TotalAmount},
		CreatedAt: remote.CreatedAt,
	}, nil
}

func (s *Service) Orders(ctx context.Context, userID string) ([]orders.PlacedOrder, error) {
	return s.orders.ListByUser(ctx, userID)
}

type nopMetrics struct{}

func (nopMetrics) CartViewed() {}
func (nopMetrics) OrderPlaced(float64) {}
func (nopMetrics) OrderFailed(string) {}
