package utils

import "errors"

// Common application errors used across services.
var (
	ErrTransport         = errors.New("TRANSPORT_ERROR")
	ErrProductNotFound   = errors.New("PRODUCT_NOT_FOUND")
	ErrValidation        = errors.New("VALIDATION_ERROR")
	ErrImageUpload       = errors.New("IMAGE_UPLOAD_FAILED")
	ErrStoreClosed       = errors.New("STORE_CLOSED")
	ErrEmptyCart         = errors.New("EMPTY_CART")
	ErrInvalidSession    = errors.New("INVALID_SESSION")
	ErrInvalidCredential = errors.New("INVALID_CREDENTIALS")
)
