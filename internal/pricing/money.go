package pricing

import (
	"github.com/shopspring/decimal"
)

// UnitPrice is the price of one unit of a line. The only way to obtain a
// LineTotal from it is Times, so quantity scaling happens exactly once.
type UnitPrice struct {
	amount decimal.Decimal
}

func NewUnitPrice(amount decimal.Decimal) UnitPrice {
	return UnitPrice{amount: amount}
}

func (u UnitPrice) Amount() decimal.Decimal {
	return u.amount
}

func (u UnitPrice) Times(quantity int) LineTotal {
	return LineTotal{amount: u.amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (u UnitPrice) MarshalJSON() ([]byte, error) {
	return u.amount.MarshalJSON()
}

func (u *UnitPrice) UnmarshalJSON(data []byte) error {
	return u.amount.UnmarshalJSON(data)
}

// LineTotal is a quantity-scaled price.
type LineTotal struct {
	amount decimal.Decimal
}

func (l LineTotal) Amount() decimal.Decimal {
	return l.amount
}

func (l LineTotal) Add(other LineTotal) LineTotal {
	return LineTotal{amount: l.amount.Add(other.amount)}
}

func (l LineTotal) MarshalJSON() ([]byte, error) {
	return l.amount.MarshalJSON()
}

func (l *LineTotal) UnmarshalJSON(data []byte) error {
	return l.amount.UnmarshalJSON(data)
}
