package handler

import (
	"net/http"

	"github.com/homesy/homesy/internal/domain/credit"
)

type creditIncreaseRequest struct {
	Amount int64 `json:"amount"`
}

type creditBody struct {
	Credit credit.Balance `json:"credit"`
}

// getCredit applies the monthly reset check, then returns the balance.
func (h *Handler) getCredit(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	if err := h.credits.ResetIfDue(r.Context(), identity.UserID, h.now()); err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := h.credits.Balance(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, creditBody{Credit: *balance})
}

func (h *Handler) requestIncrease(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var req creditIncreaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	balance, err := h.credits.RequestIncrease(r.Context(), identity.UserID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, creditBody{Credit: *balance})
}
