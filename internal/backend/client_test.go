package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/middleware"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

func newStubServer(t *testing.T, status int, response string) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	ch := make(chan recordedRequest, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

type recordingObserver struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (o *recordingObserver) ObserveBackend(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
	o.errs = append(o.errs, err)
}

func newTestClient(t *testing.T, baseURL string, obs Observer) *Client {
	t.Helper()
	c, err := NewClient(baseURL+"/api", &http.Client{Timeout: 5 * time.Second}, obs)
	require.NoError(t, err)
	return c
}

func identityCtx() context.Context {
	ctx := middleware.WithIdentity(context.Background(), "u-1", "Bearer tok")
	return middleware.WithCorrelationID(ctx, "cid-1")
}

const cartResponse = `{
  "success": true,
  "data": {
    "cart": {"items": [
      {"_id": "i1", "productId": {"_id": "p1", "name": "Linen Shirt", "price": 10000, "stock": 4, "images": [{"url": "https://cdn/p1.jpg"}]}, "quantity": 2, "size": "M", "color": "Sand"},
      {"_id": "i2", "productId": "p-deleted", "quantity": 1},
      {"_id": "i3", "productId": null, "quantity": 1},
      {"_id": "", "productId": null, "quantity": 1}
    ]},
    "total": 20000
  }
}`

func TestGetCart(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, cartResponse)
	obs := &recordingObserver{}
	c := newTestClient(t, srv.URL, obs)

	cart, err := c.GetCart(identityCtx())
	require.NoError(t, err)

	req := <-reqs
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/cart", req.Path)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.Equal(t, "cid-1", req.Header.Get(middleware.HeaderCorrelationID))

	require.Len(t, cart.Items, 3)
	first := cart.Items[0]
	require.NotNil(t, first.Product)
	assert.Equal(t, "p1", first.Product.ID)
	assert.Equal(t, 10000.0, first.Product.Price)
	assert.Equal(t, 4, first.Product.Stock)
	assert.Equal(t, "https://cdn/p1.jpg", first.Product.ImageURL)
	require.NotNil(t, first.Variant)
	assert.Equal(t, "M", first.Variant.Size)

	assert.Nil(t, cart.Items[1].Product, "bare id means the product is detached")
	assert.Nil(t, cart.Items[2].Product)
	assert.Nil(t, cart.Items[2].Variant)
	assert.Equal(t, 20000.0, cart.Total)

	assert.Equal(t, []string{"get_cart"}, obs.ops)
	assert.Nil(t, obs.errs[0])
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"success":true,"data":{}}`)
	c := newTestClient(t, srv.URL, nil)

	require.NoError(t, c.UpdateCartItem(identityCtx(), "i1", 3))
	req := <-reqs
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/cart/i1", req.Path)
	assert.JSONEq(t, `{"quantity":3}`, req.Body)

	require.NoError(t, c.RemoveCartItem(identityCtx(), "i2"))
	req = <-reqs
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/api/cart/i2", req.Path)

	require.NoError(t, c.ClearCart(identityCtx()))
	req = <-reqs
	assert.Equal(t, "/api/cart", req.Path)
}

func TestEmptySuccessBody(t *testing.T) {
	srv, _ := newStubServer(t, http.StatusNoContent, "")
	c := newTestClient(t, srv.URL, nil)

	require.NoError(t, c.RemoveCartItem(identityCtx(), "i1"))
}

func TestAPIErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		srv, _ := newStubServer(t, http.StatusNotFound, `{"success":false,"message":"Cart item not found"}`)
		c := newTestClient(t, srv.URL, nil)

		err := c.UpdateCartItem(identityCtx(), "nope", 1)
		require.ErrorIs(t, err, ErrNotFound)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Cart item not found", apiErr.Message)
	})

	t.Run("unauthorized", func(t *testing.T) {
		srv, _ := newStubServer(t, http.StatusUnauthorized, `{"success":false,"message":"Not authorized"}`)
		obs := &recordingObserver{}
		c := newTestClient(t, srv.URL, obs)

		_, err := c.GetCart(identityCtx())
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Error(t, obs.errs[0])
	})

	t.Run("success false on 200", func(t *testing.T) {
		srv, _ := newStubServer(t, http.StatusOK, `{"success":false,"message":"Insufficient stock"}`)
		c := newTestClient(t, srv.URL, nil)

		err := c.UpdateCartItem(identityCtx(), "i1", 9)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Insufficient stock", apiErr.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := newStubServer(t, http.StatusOK, `{not json`)
		c := newTestClient(t, srv.URL, nil)

		_, err := c.GetCart(identityCtx())
		require.Error(t, err)
	})
}

func TestCreateOrder(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusCreated, `{"success":true,"data":{"_id":"o-1","totalAmount":23500,"createdAt":"2026-01-02T03:04:05Z"}}`)
	c := newTestClient(t, srv.URL, nil)

	o, err := c.CreateOrder(identityCtx(), OrderRequest{
		CustomerName:    "Nimal Perera",
		DeliveryAddress: "12 Galle Rd, Colombo, Western 00300, Sri Lanka",
		PhoneNumber:     "0771234567",
		PaymentMethod:   PaymentCashOnDelivery,
		CartItems:       []OrderLine{{ProductID: "p1", Quantity: 2, UnitPrice: 10000, LineTotal: 20000}},
		Subtotal:        23000,
		ShippingFee:     500,
		Total:           23500,
	})
	require.NoError(t, err)
	assert.Equal(t, "o-1", o.ID)
	assert.Equal(t, OrderPending, o.Status)
	assert.Equal(t, 23500.0, o.TotalAmount)

	req := <-reqs
	assert.Equal(t, "/api/orders", req.Path)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, "cash_on_delivery", sent["paymentMethod"])
	assert.Equal(t, 500.0, sent["shippingFee"])
}

func TestGetOrder(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"success":true,"data":{"_id":"o-9","orderStatus":"shipped"}}`)
	c := newTestClient(t, srv.URL, nil)

	o, err := c.GetOrder(identityCtx(), "o-9")
	require.NoError(t, err)
	assert.Equal(t, OrderShipped, o.Status)
	assert.Equal(t, "/api/orders/o-9", (<-reqs).Path)
}
