package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/drafts"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
)

type draftRequest struct {
	SelectedItemIDs []string            `json:"selectedItemIds"`
	Shipping        drafts.ShippingInfo `json:"shipping"`
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := h.svc.SaveDraft(r.Context(), middleware.GetUserID(r.Context()), req.SelectedItemIDs, req.Shipping)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Draft(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) AbandonDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.AbandonDraft(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in checkout.PlaceOrderInput
	if !decode(w, r, &in) {
		return
	}
	o, err := h.svc.PlaceOrder(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Order(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Orders(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []orders.PlacedOrder{}
	}
	writeJSON(w, http.StatusOK, list)
}
