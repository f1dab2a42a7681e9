package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/checkout"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
)

// Checkout submits the order. An unconfirmed electronic payment is not an
// error: the attempt is back in editing and the result says so.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.Checkouts.Submit(r.Context(), SessionID(r.Context()), req)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, res)
	case errors.Is(err, checkout.ErrPaymentCancelled):
		respondJSON(w, http.StatusOK, res)
	default:
		handleError(w, r, err)
	}
}

func (s *Server) LastOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.Checkouts.LastOrder(r.Context(), SessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if order == nil {
		respondError(w, http.StatusNotFound, "not_found", "no order placed in this session")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Order reads an order's current status from the backend.
func (s *Server) Order(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if user, err := s.local(r).User(ctx); err == nil && user != nil {
		ctx = remote.WithToken(ctx, user.Token)
	}
	order, err := s.Backend.Order(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
