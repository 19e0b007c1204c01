package checkout

import "errors"

var (
	ErrEmptySelection     = errors.New("your cart is empty")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrProductUnavailable = errors.New("product is no longer available")
	ErrNoDraft            = errors.New("no checkout in progress")
)

// ValidationError reports the first invalid field of a checkout step.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
