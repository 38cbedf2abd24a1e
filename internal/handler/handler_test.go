package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/homesy/homesy/internal/domain/auth"
	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/order"
	"github.com/homesy/homesy/internal/domain/product"
	"github.com/homesy/homesy/internal/domain/user"
)

// store is shared in-memory backing state for the repository mocks. The
// repository interfaces have colliding method names, so each one is a thin
// adapter over this struct.
type store struct {
	nextUserID    int64
	nextProductID int64
	nextOrderID   int64

	users    map[int64]*user.User
	byEmail  map[string]*user.User
	subs     map[int64]*user.Subscription
	accts    map[int64]*credit.Account
	products map[int64]*product.Product
	orders   map[int64]*order.Order
}

func newStore() *store {
	return &store{
		nextUserID:    1,
		nextProductID: 1,
		nextOrderID:   1,
		users:         make(map[int64]*user.User),
		byEmail:       make(map[string]*user.User),
		subs:          make(map[int64]*user.Subscription),
		accts:         make(map[int64]*credit.Account),
		products:      make(map[int64]*product.Product),
		orders:        make(map[int64]*order.Order),
	}
}

// --- user.Repository ---

type userRepo struct{ s *store }

func (r userRepo) Create(_ context.Context, u *user.User, sub *user.Subscription, acct *credit.Account) error {
	s := r.s
	if _, ok := s.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	u.ID = s.nextUserID
	s.nextUserID++
	u.CreatedAt = time.Now()
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[u.Email] = &cp

	sub.UserID = u.ID
	subCp := *sub
	s.subs[u.ID] = &subCp

	acct.UserID = u.ID
	acctCp := *acct
	s.accts[u.ID] = &acctCp
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := r.s.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) List(_ context.Context) ([]user.Details, error) {
	ids := make([]int64, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	details := make([]user.Details, 0, len(ids))
	for _, id := range ids {
		details = append(details, r.details(id))
	}
	return details, nil
}

func (r userRepo) Apply(_ context.Context, id int64, upd user.Update) (*user.Details, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.IsAdmin != nil {
		u.IsAdmin = *upd.IsAdmin
	}
	if upd.SubscriptionStatus != nil {
		if sub, ok := r.s.subs[id]; ok {
			sub.Status = *upd.SubscriptionStatus
		}
	}
	d := r.details(id)
	return &d, nil
}

func (r userRepo) details(id int64) user.Details {
	d := user.Details{User: *r.s.users[id]}
	if sub, ok := r.s.subs[id]; ok {
		cp := *sub
		d.Subscription = &cp
	}
	if acct, ok := r.s.accts[id]; ok {
		cp := *acct
		d.Credit = &cp
	}
	return d
}

// --- product.Repository ---

type productRepo struct{ s *store }

func (r productRepo) List(_ context.Context) ([]product.Product, error) {
	ids := make([]int64, 0, len(r.s.products))
	for id := range r.s.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.s.products[id])
	}
	return out, nil
}

func (r productRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r productRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r productRepo) Create(_ context.Context, p *product.Product) error {
	p.ID = r.s.nextProductID
	r.s.nextProductID++
	p.CreatedAt = time.Now()
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r productRepo) Update(_ context.Context, p *product.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r productRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

// --- credit.Repository ---

type creditRepo struct{ s *store }

func (r creditRepo) GetByUser(_ context.Context, userID int64) (*credit.Account, error) {
	acct, ok := r.s.accts[userID]
	if !ok {
		return nil, credit.ErrNoAccount
	}
	cp := *acct
	return &cp, nil
}

func (r creditRepo) ResetUsed(_ context.Context, userID int64, day time.Time) error {
	acct, ok := r.s.accts[userID]
	if !ok {
		return nil
	}
	if acct.LastResetAt != nil && acct.LastResetAt.Year() == day.Year() &&
		acct.LastResetAt.YearDay() == day.YearDay() {
		return nil
	}
	acct.Used = 0
	d := day
	acct.LastResetAt = &d
	return nil
}

func (r creditRepo) IncreaseLimit(_ context.Context, userID int64, delta int64) (*credit.Account, error) {
	acct, ok := r.s.accts[userID]
	if !ok {
		return nil, credit.ErrNoAccount
	}
	acct.Limit += delta
	cp := *acct
	return &cp, nil
}

func (r creditRepo) ApplyOverride(_ context.Context, userID int64, o credit.Override) (*credit.Account, error) {
	acct, ok := r.s.accts[userID]
	if !ok {
		return nil, credit.ErrNoAccount
	}
	if o.Limit != nil {
		acct.Limit = *o.Limit
	}
	if o.Used != nil {
		acct.Used = *o.Used
	}
	if o.ResetDay != nil {
		acct.ResetDay = *o.ResetDay
	}
	cp := *acct
	return &cp, nil
}

// --- order.Repository ---

type orderRepo struct{ s *store }

func (r orderRepo) Create(_ context.Context, o *order.Order) error {
	s := r.s
	for _, it := range o.Items {
		p, ok := s.products[it.ProductID]
		if !ok || p.Stock < it.Quantity {
			return &order.StockConflictError{ProductID: it.ProductID}
		}
	}
	acct, ok := s.accts[o.UserID]
	if !ok {
		return credit.ErrNoAccount
	}
	if acct.Used+o.Total > acct.Limit {
		return credit.ErrLimitExceeded
	}

	for _, it := range o.Items {
		s.products[it.ProductID].Stock -= it.Quantity
	}
	acct.Used += o.Total
	o.ID = s.nextOrderID
	s.nextOrderID++
	o.CreatedAt = time.Now()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (r orderRepo) ListByUser(_ context.Context, userID int64) ([]order.Order, error) {
	out := make([]order.Order, 0)
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r orderRepo) GetByUser(_ context.Context, id, userID int64) (*order.Order, error) {
	o, ok := r.s.orders[id]
	if !ok || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// --- Test environment ---

type env struct {
	store  *store
	h      *Handler
	router http.Handler
}

func newEnv() *env {
	s := newStore()
	authSvc := auth.NewService(userRepo{s}, auth.Config{
		Secret:            []byte("test-secret"),
		TokenTTL:          time.Hour,
		BcryptCost:        bcrypt.MinCost,
		SubscriptionPrice: 750,
	})
	creditSvc := credit.NewService(creditRepo{s})
	orderSvc := order.NewService(productRepo{s}, creditRepo{s}, orderRepo{s})

	h := New(authSvc, creditSvc, orderSvc, orderRepo{s}, productRepo{s}, creditRepo{s}, userRepo{s})
	return &env{store: s, h: h, router: h.Routes()}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// register creates a user through the API and returns the bearer token and
// user ID.
func (e *env) register(t *testing.T, name, email, password string) (string, int64) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp tokenResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

// registerAdmin registers a user and flips the admin bit directly in storage.
func (e *env) registerAdmin(t *testing.T, email string) string {
	t.Helper()
	token, id := e.register(t, "Admin", email, "adminpw")
	e.store.users[id].IsAdmin = true
	return token
}

// httptestRequest builds a request with a raw string body, for malformed
// payload cases the JSON helpers cannot produce.
func httptestRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(e *env, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) addProduct(p product.Product) int64 {
	p.ID = e.store.nextProductID
	e.store.nextProductID++
	p.CreatedAt = time.Now()
	e.store.products[p.ID] = &p
	return p.ID
}
