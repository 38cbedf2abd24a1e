package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/homesy/homesy/internal/domain/auth"
	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/order"
	"github.com/homesy/homesy/internal/domain/product"
	"github.com/homesy/homesy/internal/domain/user"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error to its HTTP status. Anything outside the
// taxonomy is logged and surfaced as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if status, ok := statusFor(err); ok {
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}

	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

// statusFor returns the HTTP status for a known domain error.
func statusFor(err error) (int, bool) {
	var (
		invalidQty        *order.InvalidQuantityError
		unknownProduct    *order.UnknownProductError
		insufficientStock *order.InsufficientStockError
		stockConflict     *order.StockConflictError
	)

	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, credit.ErrInvalidAmount),
		errors.As(err, &invalidQty),
		errors.As(err, &unknownProduct),
		errors.As(err, &insufficientStock):
		return http.StatusBadRequest, true

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, true

	case errors.Is(err, credit.ErrLimitExceeded):
		return http.StatusPaymentRequired, true

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, credit.ErrNoAccount):
		return http.StatusNotFound, true

	case errors.Is(err, user.ErrEmailTaken),
		errors.As(err, &stockConflict):
		return http.StatusConflict, true
	}

	return 0, false
}

// decodeJSON decodes the request body into dst, answering malformed payloads
// with a client error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}
