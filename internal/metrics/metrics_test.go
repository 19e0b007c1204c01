package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.CartViewed()
	r.CartViewed()
	r.OrderPlaced(23500)
	r.OrderFailed("backend")

	require.Equal(t, 2.0, testutil.ToFloat64(r.CartViews))
	require.Equal(t, 1.0, testutil.ToFloat64(r.OrdersPlaced))
	require.Equal(t, 1.0, testutil.ToFloat64(r.OrderFailures.WithLabelValues("backend")))
	require.Equal(t, 0.0, testutil.ToFloat64(r.OrderFailures.WithLabelValues("validation")))
}

func TestRegistry_ObserveBackend(t *testing.T) {
	r := NewRegistry()

	r.ObserveBackend("get_cart", 20*time.Millisecond, nil)
	r.ObserveBackend("get_cart", 30*time.Millisecond, errors.New("boom"))

	require.Equal(t, 2, testutil.CollectAndCount(r.BackendLatencySec, "checkout_backend_request_seconds"))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.OrderPlaced(30000)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "checkout_orders_placed_total 1")
	require.Contains(t, string(body), "checkout_order_total_amount_count 1")
}
