package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/checkout"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/coupon"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/pricing"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

var badSelection = []error{
	pricing.ErrInvalidQuantity,
	pricing.ErrNegativeAddOn,
	pricing.ErrRequiredOption,
	pricing.ErrUnknownOption,
	pricing.ErrUnknownValue,
	pricing.ErrInvalidValue,
	pricing.ErrUnknownAddOn,
}

// handleError maps service and backend errors onto HTTP statuses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *checkout.ValidationError
		serr     *checkout.SubmissionError
		rejected *coupon.RejectedError
	)
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Reason, Code: "validation_failed", Details: verr.Field})
		return
	case errors.As(err, &serr):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: serr.Error(), Code: "order_failed", Details: serr.Message})
		return
	case errors.As(err, &rejected):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: rejected.Error(), Code: "coupon_rejected", Details: rejected.Message})
		return
	}

	for _, target := range badSelection {
		if errors.Is(err, target) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: target.Error(), Code: "invalid_selection", Details: err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, cart.ErrProductMissing):
		respondError(w, http.StatusConflict, "product_unavailable", err.Error())
	case errors.Is(err, coupon.ErrEmptyCode):
		respondError(w, http.StatusBadRequest, "invalid_coupon", err.Error())
	case errors.Is(err, coupon.ErrCouponAlreadyApplied),
		errors.Is(err, coupon.ErrValidationInFlight),
		errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, coupon.ErrCouponInvalidated):
		respondError(w, http.StatusConflict, "coupon_invalidated", err.Error())
	case errors.Is(err, checkout.ErrPaymentFailed):
		respondError(w, http.StatusPaymentRequired, "payment_failed", err.Error())
	case errors.Is(err, domain.ErrRejected):
		msg := remote.Message(err)
		if msg == "" {
			msg = err.Error()
		}
		respondError(w, http.StatusBadRequest, "rejected", msg)
	case errors.Is(err, domain.ErrUnavailable):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("backend unavailable")
		respondError(w, http.StatusServiceUnavailable, "backend_unavailable", "storefront backend is unavailable, try again later")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
