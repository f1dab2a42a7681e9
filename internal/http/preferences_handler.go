package http

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
)

const DefaultCurrency = "SAR"

type WishlistResponse struct {
	ProductIDs []string `json:"productIds"`
	InWishlist *bool    `json:"inWishlist,omitempty"`
}

type CurrencyDTO struct {
	Currency string `json:"currency"`
}

func (s *Server) Wishlist(w http.ResponseWriter, r *http.Request) {
	ids, err := s.local(r).Wishlist(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, WishlistResponse{ProductIDs: ids})
}

// ToggleWishlist adds the product when absent and removes it when present.
func (s *Server) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "product_id")
	local := s.local(r)

	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	ids, err := local.Wishlist(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	in := false
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
		in = true
	}
	if err := local.SaveWishlist(r.Context(), ids); err != nil {
		handleError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, WishlistResponse{ProductIDs: ids, InWishlist: &in})
}

func (s *Server) Currency(w http.ResponseWriter, r *http.Request) {
	code, err := s.local(r).Currency(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if code == "" {
		code = DefaultCurrency
	}
	respondJSON(w, http.StatusOK, CurrencyDTO{Currency: code})
}

func (s *Server) SetCurrency(w http.ResponseWriter, r *http.Request) {
	var req CurrencyDTO
	if !decodeBody(w, r, &req) {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !isCurrencyCode(code) {
		respondError(w, http.StatusBadRequest, "invalid_currency", "currency must be a three-letter ISO code")
		return
	}
	if err := s.local(r).SaveCurrency(r.Context(), code); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CurrencyDTO{Currency: code})
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
