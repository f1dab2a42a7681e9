package http

import (
	"errors"
	"net/http"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

// SessionResponse never carries the backend token; the gateway keeps it.
type SessionResponse struct {
	User domain.User   `json:"user"`
	Cart cart.Snapshot `json:"cart"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	if creds.Email == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	user, err := s.Backend.Login(r.Context(), creds)
	if err != nil {
		s.authFailed(w, r, err)
		return
	}
	s.signIn(w, r, *user)
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if !decodeBody(w, r, &reg) {
		return
	}
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name, email and password are required")
		return
	}
	user, err := s.Backend.Register(r.Context(), reg)
	if err != nil {
		s.authFailed(w, r, err)
		return
	}
	s.signIn(w, r, *user)
}

// signIn attaches the user to the session; the cart is reconciled with the
// user's backend cart on the way.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user domain.User) {
	snap, err := s.Carts.Login(r.Context(), SessionID(r.Context()), user)
	if err != nil {
		handleError(w, r, err)
		return
	}
	user.Token = ""
	respondJSON(w, http.StatusOK, SessionResponse{User: user, Cart: snap})
}

func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrRejected) && !errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "sign-in was refused")
		return
	}
	handleError(w, r, err)
}

// Logout keeps the cart as a guest cart.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Carts.Logout(r.Context(), SessionID(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
