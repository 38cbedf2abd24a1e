package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesy/homesy/internal/domain/product"
	"github.com/homesy/homesy/internal/domain/user"
)

type productBody struct {
	Product productResponse `json:"product"`
}

func TestAdminEndpoints_ForbiddenForRegularUser(t *testing.T) {
	e := newEnv()
	token, _ := e.register(t, "Alice", "alice@example.com", "pw")

	for _, path := range []string{"/api/admin/users", "/api/admin/products"} {
		rec := e.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestAdminEndpoints_Unauthenticated(t *testing.T) {
	e := newEnv()

	rec := e.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminListUsers(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")
	e.register(t, "Alice", "alice@example.com", "pw")

	rec := e.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []userDetailsResponse `json:"users"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Users, 2)

	alice := resp.Users[1]
	assert.Equal(t, "Alice", alice.Name)
	require.NotNil(t, alice.Subscription)
	assert.Equal(t, user.SubscriptionActive, alice.Subscription.Status)
	require.NotNil(t, alice.Credit)
	assert.Equal(t, int64(5000), alice.Credit.Limit)
}

func TestAdminUpdateUser(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")
	_, id := e.register(t, "Alice", "alice@example.com", "pw")

	name := "Alice B."
	status := user.SubscriptionPaused
	rec := e.do(t, http.MethodPatch, "/api/admin/users/2", adminToken, adminUpdateUserRequest{
		Name:   &name,
		Status: &status,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User userDetailsResponse `json:"user"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Alice B.", resp.User.Name)
	require.NotNil(t, resp.User.Subscription)
	assert.Equal(t, user.SubscriptionPaused, resp.User.Subscription.Status)
	assert.Equal(t, "Alice B.", e.store.users[id].Name)
}

func TestAdminUpdateUser_NotFound(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")

	name := "Ghost"
	rec := e.do(t, http.MethodPatch, "/api/admin/users/99", adminToken, adminUpdateUserRequest{Name: &name})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSetCredit(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")
	_, id := e.register(t, "Alice", "alice@example.com", "pw")

	limit := int64(9000)
	used := int64(100)
	rec := e.do(t, http.MethodPut, "/api/admin/users/2/credit", adminToken, adminSetCreditRequest{
		Limit: &limit,
		Used:  &used,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp creditBody
	decodeBody(t, rec, &resp)
	assert.Equal(t, int64(9000), resp.Credit.Limit)
	assert.Equal(t, int64(100), resp.Credit.Used)
	assert.Equal(t, int64(8900), resp.Credit.Remaining)
	assert.Equal(t, int64(9000), e.store.accts[id].Limit)
}

func TestAdminCreateProduct(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")

	name := "Desk"
	price := int64(18900)
	discount := 10
	stock := 12
	rec := e.do(t, http.MethodPost, "/api/admin/products", adminToken, adminProductRequest{
		Name:     &name,
		Price:    &price,
		Discount: &discount,
		Stock:    &stock,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp productBody
	decodeBody(t, rec, &resp)
	assert.NotZero(t, resp.Product.ID)
	assert.Equal(t, "Desk", resp.Product.Name)
	assert.Equal(t, int64(18900), resp.Product.Price)
	assert.Equal(t, 12, resp.Product.Stock)
}

func TestAdminCreateProduct_MissingName(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")

	price := int64(100)
	rec := e.do(t, http.MethodPost, "/api/admin/products", adminToken, adminProductRequest{Price: &price})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCreateProduct_InvalidDiscount(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")

	name := "Desk"
	price := int64(100)
	discount := 150
	rec := e.do(t, http.MethodPost, "/api/admin/products", adminToken, adminProductRequest{
		Name:     &name,
		Price:    &price,
		Discount: &discount,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUpdateProduct(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")
	deskID := e.addProduct(product.Product{Name: "Desk", Price: 1000, Stock: 5})

	price := int64(1200)
	rec := e.do(t, http.MethodPatch, "/api/admin/products/1", adminToken, adminProductRequest{Price: &price})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productBody
	decodeBody(t, rec, &resp)
	assert.Equal(t, int64(1200), resp.Product.Price)
	assert.Equal(t, "Desk", resp.Product.Name)
	assert.Equal(t, int64(1200), e.store.products[deskID].Price)
}

func TestAdminUpdateProduct_NotFound(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")

	price := int64(1200)
	rec := e.do(t, http.MethodPatch, "/api/admin/products/99", adminToken, adminProductRequest{Price: &price})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDeleteProduct(t *testing.T) {
	e := newEnv()
	adminToken := e.registerAdmin(t, "admin@example.com")
	deskID := e.addProduct(product.Product{Name: "Desk", Price: 1000, Stock: 5})

	rec := e.do(t, http.MethodDelete, "/api/admin/products/1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.NotContains(t, e.store.products, deskID)

	rec = e.do(t, http.MethodGet, "/api/products/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
