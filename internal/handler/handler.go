// Package handler exposes the HTTP API: public catalog and auth endpoints,
// authenticated order and credit endpoints, and the admin surface.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/homesy/homesy/internal/domain/auth"
	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/order"
	"github.com/homesy/homesy/internal/domain/product"
	"github.com/homesy/homesy/internal/domain/user"
)

// Handler wires HTTP routes to the domain services and repositories.
type Handler struct {
	auth      *auth.Service
	credits   *credit.Service
	orders    *order.Service
	orderRepo order.Repository
	products  product.Repository
	creditAcc credit.Repository
	users     user.Repository

	now func() time.Time
}

// New constructs a Handler with the required domain dependencies.
func New(
	authSvc *auth.Service,
	credits *credit.Service,
	orders *order.Service,
	orderRepo order.Repository,
	products product.Repository,
	creditAcc credit.Repository,
	users user.Repository,
) *Handler {
	return &Handler{
		auth:      authSvc,
		credits:   credits,
		orders:    orders,
		orderRepo: orderRepo,
		products:  products,
		creditAcc: creditAcc,
		users:     users,
		now:       time.Now,
	}
}

// Routes builds the chi router for the /api surface.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/auth/me", h.me)

			r.Post("/orders", h.placeOrder)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)

			r.Get("/credits", h.getCredit)
			r.Post("/credits/request-increase", h.requestIncrease)

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.requireAdmin)

				r.Get("/users", h.adminListUsers)
				r.Patch("/users/{id}", h.adminUpdateUser)
				r.Put("/users/{id}/credit", h.adminSetCredit)

				r.Get("/products", h.listProducts)
				r.Post("/products", h.adminCreateProduct)
				r.Patch("/products/{id}", h.adminUpdateProduct)
				r.Delete("/products/{id}", h.adminDeleteProduct)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})

	return r
}
