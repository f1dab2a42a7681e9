package cart

import "errors"

var (
	ErrItemNotFound   = errors.New("item not found in cart")
	ErrProductMissing = errors.New("product is not available")
)
