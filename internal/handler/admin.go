package handler

import (
	"net/http"
	"time"

	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/product"
	"github.com/homesy/homesy/internal/domain/user"
)

type subscriptionResponse struct {
	Status             string    `json:"status"`
	Price              int64     `json:"price"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
}

type userDetailsResponse struct {
	userResponse
	Subscription *subscriptionResponse `json:"subscription,omitempty"`
	Credit       *credit.Balance       `json:"credit,omitempty"`
}

func toUserDetailsResponse(d *user.Details) userDetailsResponse {
	resp := userDetailsResponse{userResponse: toUserResponse(&d.User)}
	if d.Subscription != nil {
		resp.Subscription = &subscriptionResponse{
			Status:             d.Subscription.Status,
			Price:              d.Subscription.Price,
			CurrentPeriodStart: d.Subscription.CurrentPeriodStart,
			CurrentPeriodEnd:   d.Subscription.CurrentPeriodEnd,
		}
	}
	if d.Credit != nil {
		resp.Credit = &credit.Balance{
			Limit:     d.Credit.Limit,
			Used:      d.Credit.Used,
			Remaining: d.Credit.Remaining(),
		}
	}
	return resp
}

func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]userDetailsResponse, len(users))
	for i := range users {
		resp[i] = toUserDetailsResponse(&users[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Users []userDetailsResponse `json:"users"`
	}{Users: resp})
}

type adminUpdateUserRequest struct {
	Name    *string `json:"name"`
	IsAdmin *bool   `json:"isAdmin"`
	Status  *string `json:"status"`
}

func (h *Handler) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req adminUpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details, err := h.users.Apply(r.Context(), id, user.Update{
		Name:               req.Name,
		IsAdmin:            req.IsAdmin,
		SubscriptionStatus: req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User userDetailsResponse `json:"user"`
	}{User: toUserDetailsResponse(details)})
}

type adminSetCreditRequest struct {
	Limit    *int64 `json:"limit"`
	Used     *int64 `json:"used"`
	ResetDay *int   `json:"resetDay"`
}

func (h *Handler) adminSetCredit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req adminSetCreditRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.creditAcc.ApplyOverride(r.Context(), id, credit.Override{
		Limit:    req.Limit,
		Used:     req.Used,
		ResetDay: req.ResetDay,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, creditBody{Credit: credit.Balance{
		Limit:     acct.Limit,
		Used:      acct.Used,
		Remaining: acct.Remaining(),
	}})
}

type adminProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Discount    *int    `json:"discount"`
	Stock       *int    `json:"stock"`
	ImageURL    *string `json:"imageUrl"`
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req adminProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil || *req.Name == "" || req.Price == nil || *req.Price < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name and price are required"})
		return
	}

	p := &product.Product{
		Name:  *req.Name,
		Price: *req.Price,
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Discount != nil {
		p.Discount = *req.Discount
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if p.Discount < 0 || p.Discount > 100 || p.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "discount must be 0-100 and stock non-negative"})
		return
	}

	if err := h.products.Create(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Product productResponse `json:"product"`
	}{Product: toProductResponse(p)})
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req adminProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Discount != nil {
		p.Discount = *req.Discount
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if p.Price < 0 || p.Discount < 0 || p.Discount > 100 || p.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product fields"})
		return
	}

	if err := h.products.Update(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Product productResponse `json:"product"`
	}{Product: toProductResponse(p)})
}

func (h *Handler) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
