package domain

import (
	"errors"
	"fmt"

	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

// ErrInvalidTransition is returned for any status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid_transition")

var (
	ErrInvalidStatus      = fmt.Errorf("%w: invalid_status", taxdomain.ErrInvalidInput)
	ErrInvalidCustomer    = fmt.Errorf("%w: invalid_customer", taxdomain.ErrInvalidInput)
	ErrInvalidDueDate     = fmt.Errorf("%w: invalid_due_date", taxdomain.ErrInvalidInput)
	ErrInvalidDescription = fmt.Errorf("%w: invalid_description", taxdomain.ErrInvalidInput)
	ErrMissingRate        = fmt.Errorf("%w: missing_gst_rate", taxdomain.ErrInvalidInput)
	ErrEmptyItems         = fmt.Errorf("%w: empty_items", taxdomain.ErrInvalidInput)
	ErrEmptyBulk          = fmt.Errorf("%w: empty_bulk_request", taxdomain.ErrInvalidInput)
)

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("invoice_not_found")
	ErrCustomerNotFound     = errors.New("customer_not_found")
	ErrNumberingConflict    = errors.New("invoice_numbering_conflict")
	ErrMissingBusinessState = errors.New("missing_business_state_code")
)
