package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Backend.Categories(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

// Products lists the catalog, narrowed by ?subcategory= when given.
func (s *Server) Products(w http.ResponseWriter, r *http.Request) {
	products, err := s.Backend.Products(r.Context(), r.URL.Query().Get("subcategory"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) Product(w http.ResponseWriter, r *http.Request) {
	p, err := s.Backend.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) ShippingRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.Checkouts.Regions(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, regions)
}
