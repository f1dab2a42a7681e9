// Package coupon applies backend-validated coupons to a session. The backend
// is the only authority on validity and discount; nothing here computes one.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/events"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/storage"
)

var (
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied; remove it first")
	ErrValidationInFlight   = errors.New("a coupon validation is already in progress")
	ErrEmptyCode            = errors.New("coupon code is empty")
	// ErrCouponInvalidated reports that an applied coupon was dropped because
	// the backend no longer accepts it for the current subtotal.
	ErrCouponInvalidated = errors.New("applied coupon is no longer valid")
)

// RejectedError is the backend turning a code down.
type RejectedError struct {
	Code    string
	Message string
	Err     error
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("coupon %q rejected", e.Code)
	}
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Message)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

type Validator interface {
	ValidateCoupon(ctx context.Context, code string, subtotal domain.Money) (*domain.CouponValidation, error)
}

type Service struct {
	store     storage.Store
	validator Validator
	bus       events.Publisher
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}

	// guards read-then-write of the stored coupon
	stateMu sync.Mutex
}

func NewService(store storage.Store, v Validator, bus events.Publisher) *Service {
	return &Service{
		store:     store,
		validator: v,
		bus:       bus,
		now:       func() time.Time { return time.Now().UTC() },
		inFlight:  make(map[string]struct{}),
	}
}

// Current returns the applied coupon, or nil.
func (s *Service) Current(ctx context.Context, session string) (*domain.Coupon, error) {
	return storage.NewLocal(s.store, session).Coupon(ctx)
}

// Apply validates code against subtotal and pins the result. A refusal or a
// failed call leaves the session's coupon state as it was.
func (s *Service) Apply(ctx context.Context, session, code string, subtotal domain.Money) (*domain.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	if !s.begin(session) {
		return nil, ErrValidationInFlight
	}
	defer s.end(session)

	local := storage.NewLocal(s.store, session)
	current, err := local.Coupon(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, ErrCouponAlreadyApplied
	}

	c, err := s.validate(ctx, local, code, subtotal)
	if err != nil {
		return nil, err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if err := local.SaveCoupon(ctx, *c); err != nil {
		return nil, err
	}
	s.publish(session)
	return c, nil
}

// Remove drops the applied coupon locally. No backend call is needed.
func (s *Service) Remove(ctx context.Context, session string) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	local := storage.NewLocal(s.store, session)
	current, err := local.Coupon(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	if err := local.ClearCoupon(ctx); err != nil {
		return err
	}
	s.publish(session)
	return nil
}

// Refresh re-validates the applied coupon when the subtotal moved since it was
// validated. A refusal clears the coupon and returns ErrCouponInvalidated
// alongside the nil coupon; an unreachable backend keeps the pinned discount.
func (s *Service) Refresh(ctx context.Context, session string, subtotal domain.Money) (*domain.Coupon, error) {
	local := storage.NewLocal(s.store, session)
	current, err := local.Coupon(ctx)
	if err != nil || current == nil {
		return nil, err
	}
	if current.ValidatedSubtotal.Equal(subtotal) {
		return current, nil
	}
	if !s.begin(session) {
		// another validation will settle it
		return current, nil
	}
	defer s.end(session)

	c, err := s.validate(ctx, local, current.Code, subtotal)
	var rejected *RejectedError
	if err != nil && !errors.As(err, &rejected) {
		log.Warn().Err(err).Str("session", session).Str("code", current.Code).Msg("coupon re-validation unavailable, keeping applied discount")
		return current, nil
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	// the coupon may have been removed while the backend was answering
	stored, serr := local.Coupon(ctx)
	if serr != nil {
		return nil, serr
	}
	if !sameCoupon(stored, current) {
		return stored, nil
	}

	if rejected != nil {
		if err := local.ClearCoupon(ctx); err != nil {
			return nil, err
		}
		s.publish(session)
		return nil, fmt.Errorf("%w: %w", ErrCouponInvalidated, err)
	}

	c.AppliedAt = current.AppliedAt
	if err := local.SaveCoupon(ctx, *c); err != nil {
		return nil, err
	}
	if !c.DiscountAmount.Equal(current.DiscountAmount) {
		s.publish(session)
	}
	return c, nil
}

func sameCoupon(a, b *domain.Coupon) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Code == b.Code && a.AppliedAt.Equal(b.AppliedAt)
}

// Clear drops the coupon without notifying, for use after checkout.
func (s *Service) Clear(ctx context.Context, session string) error {
	return storage.NewLocal(s.store, session).ClearCoupon(ctx)
}

func (s *Service) validate(ctx context.Context, local *storage.Local, code string, subtotal domain.Money) (*domain.Coupon, error) {
	if user, err := local.User(ctx); err == nil && user != nil {
		ctx = remote.WithToken(ctx, user.Token)
	}
	v, err := s.validator.ValidateCoupon(ctx, code, subtotal)
	if err != nil {
		if remote.IsValidation(err) {
			return nil, &RejectedError{Code: code, Message: remote.Message(err), Err: err}
		}
		return nil, fmt.Errorf("validate coupon: %w", err)
	}
	if v.DiscountAmount.IsNegative() {
		return nil, &RejectedError{Code: code, Message: "negative discount", Err: domain.ErrRejected}
	}
	return &domain.Coupon{
		Code:              v.Code,
		DiscountAmount:    v.DiscountAmount,
		ValidatedSubtotal: subtotal,
		AppliedAt:         s.now(),
	}, nil
}

func (s *Service) begin(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[session]; busy {
		return false
	}
	s.inFlight[session] = struct{}{}
	return true
}

func (s *Service) end(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, session)
}

func (s *Service) publish(session string) {
	s.bus.Publish(events.CartUpdated{SessionID: session, Reason: events.ReasonCouponChanged, At: s.now()})
}
