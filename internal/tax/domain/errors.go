package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the category for caller-side precondition violations.
// Every field-specific input error below wraps it.
var ErrInvalidInput = errors.New("invalid_input")

var (
	ErrInvalidQuantity  = fmt.Errorf("%w: invalid_quantity", ErrInvalidInput)
	ErrInvalidUnitPrice = fmt.Errorf("%w: invalid_unit_price", ErrInvalidInput)
	ErrInvalidRate      = fmt.Errorf("%w: invalid_rate", ErrInvalidInput)
	ErrInvalidStateCode = fmt.Errorf("%w: invalid_state_code", ErrInvalidInput)
	ErrInvalidHSNCode   = fmt.Errorf("%w: invalid_hsn_code", ErrInvalidInput)
)

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrHSNCodeTaken = errors.New("hsn_code_taken")
)
