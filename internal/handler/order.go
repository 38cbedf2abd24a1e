package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/order"
)

type orderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type placeOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}

type orderResponse struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"userId"`
	Total     int64               `json:"total"`
	Items     []orderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt,
	}
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.orders.PlaceOrder(r.Context(), identity.UserID, items)
	if err != nil {
		// A missing credit account is a bad request here, not a 404: the
		// order body referenced an account that should have existed since
		// registration.
		if errors.Is(err, credit.ErrNoAccount) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "no credit account"})
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Order orderResponse `json:"order"`
	}{Order: toOrderResponse(o)})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	orders, err := h.orderRepo.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Orders []orderResponse `json:"orders"`
	}{Orders: resp})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	o, err := h.orderRepo.GetByUser(r.Context(), id, identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Order orderResponse `json:"order"`
	}{Order: toOrderResponse(o)})
}
