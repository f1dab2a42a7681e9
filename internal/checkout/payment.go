package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

type PaymentRequest struct {
	Session   string
	Method    domain.PaymentMethod
	Amount    domain.Money
	Confirmed bool
}

// PaymentProcessor settles payment before the order is sent. It returns a
// reference for the order, empty when the method has none.
type PaymentProcessor interface {
	Process(ctx context.Context, req PaymentRequest) (string, error)
}

// CashOnDelivery has nothing to settle up front.
type CashOnDelivery struct{}

func (CashOnDelivery) Process(context.Context, PaymentRequest) (string, error) {
	return "", nil
}

// SimulatedCharge stands in for an electronic payment provider. The buyer must
// have confirmed the charge; Decide, when set, can decline it.
type SimulatedCharge struct {
	Delay  time.Duration
	Decide func(PaymentRequest) error
}

func (s SimulatedCharge) Process(ctx context.Context, req PaymentRequest) (string, error) {
	if !req.Confirmed {
		return "", ErrPaymentCancelled
	}
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Decide != nil {
		if err := s.Decide(req); err != nil {
			return "", err
		}
	}
	return "sim_" + uuid.NewString(), nil
}

const DefaultChargeDelay = 200 * time.Millisecond

// DefaultProcessors maps every payment method to its processor. Electronic
// charges settle after delay.
func DefaultProcessors(delay time.Duration) map[domain.PaymentMethod]PaymentProcessor {
	electronic := SimulatedCharge{Delay: delay}
	return map[domain.PaymentMethod]PaymentProcessor{
		domain.PaymentCashOnDelivery: CashOnDelivery{},
		domain.PaymentCard:           electronic,
		domain.PaymentBankTransfer:   electronic,
		domain.PaymentWallet:         electronic,
	}
}
