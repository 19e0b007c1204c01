package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/drafts"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/totals"
)

// Checkout is implemented by *checkout.Service.
type Checkout interface {
	Cart(ctx context.Context, sel *totals.Selection) checkout.CartView
	ToggleItem(ctx context.Context, sel totals.Selection, itemID string) checkout.CartView
	ToggleAll(ctx context.Context, sel totals.Selection) (checkout.CartView, error)
	ChangeQuantity(ctx context.Context, sel *totals.Selection, itemID string, delta int) (checkout.CartView, error)
	RemoveItem(ctx context.Context, sel *totals.Selection, itemID string) (checkout.CartView, error)

	SaveDraft(ctx context.Context, userID string, selected []string, ship drafts.ShippingInfo) (drafts.Draft, error)
	Draft(ctx context.Context, userID string) (drafts.Draft, error)
	AbandonDraft(ctx context.Context, userID string) error
	Summary(ctx context.Context, userID string) (checkout.Summary, error)
	PlaceOrder(ctx context.Context, userID string, in checkout.PlaceOrderInput) (orders.PlacedOrder, error)

	Order(ctx context.Context, userID, orderID string) (orders.PlacedOrder, error)
	Orders(ctx context.Context, userID string) ([]orders.PlacedOrder, error)
}

type Handler struct {
	svc Checkout
}

func NewHandler(svc Checkout) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront-checkout",
	})
}

// selectionQuery reads ?selected=a,b. A missing parameter yields nil, which
// the cart view treats as "select everything".
func selectionQuery(r *http.Request) *totals.Selection {
	q := r.URL.Query()
	if _, ok := q["selected"]; !ok {
		return nil
	}
	var ids []string
	for _, v := range q["selected"] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ids = append(ids, p)
			}
		}
	}
	sel := totals.NewSelection(ids...)
	return &sel
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Cart(r.Context(), selectionQuery(r)))
}

type toggleRequest struct {
	Selected totals.Selection `json:"selected"`
	ItemID   string           `json:"itemId"`
}

func (h *Handler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "itemId is required")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ToggleItem(r.Context(), req.Selected, req.ItemID))
}

func (h *Handler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.ToggleAll(r.Context(), req.Selected)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// quantityRequest leaves Selected nil when the body has no "selected" key, so
// the service selects every line just like GET /cart without ?selected.
type quantityRequest struct {
	Delta    int               `json:"delta"`
	Selected *totals.Selection `json:"selected"`
}

func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.ChangeQuantity(r.Context(), req.Selected, chi.URLParam(r, "itemId"), req.Delta)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.RemoveItem(r.Context(), selectionQuery(r), chi.URLParam(r, "itemId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type validationResponse struct {
	Error         string `json:"error"`
	Field         string `json:"field"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// writeServiceError maps service and storefront API errors onto statuses.
// 4xx answers from the storefront API are passed through with their message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:         verr.Message,
			Field:         verr.Field,
			CorrelationID: middleware.GetCorrelationID(r.Context()),
		})
		return
	}

	var apiErr *backend.APIError
	var netErr *url.Error
	switch {
	case errors.Is(err, checkout.ErrEmptySelection):
		middleware.WriteError(w, r, http.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, checkout.ErrItemNotFound),
		errors.Is(err, checkout.ErrNoDraft),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, backend.ErrNotFound):
		middleware.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrProductUnavailable):
		middleware.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, backend.ErrUnauthorized):
		middleware.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		middleware.WriteError(w, r, apiErr.Status, msg)
	case errors.As(err, &apiErr), errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, r, http.StatusBadGateway, "storefront api unavailable")
	default:
		middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
