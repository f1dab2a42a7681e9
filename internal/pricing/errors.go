package pricing

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNegativeAddOn   = errors.New("add-on price cannot be negative")
	ErrRequiredOption  = errors.New("required option has no selection")
	ErrUnknownOption   = errors.New("option is not defined for this product")
	ErrUnknownValue    = errors.New("value is not offered by this option")
	ErrInvalidValue    = errors.New("value fails option validation")
	ErrUnknownAddOn    = errors.New("add-on is not offered for this product")
)
