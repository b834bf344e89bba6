package domain

import (
	"errors"
	"fmt"

	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

// ErrInvalidTransition covers edits and status changes on a bill that no longer allows them.
var ErrInvalidTransition = errors.New("invalid_transition")

var (
	ErrCancelReasonRequired = fmt.Errorf("%w: cancel_reason_required", taxdomain.ErrInvalidInput)
	ErrInvalidDistance      = fmt.Errorf("%w: invalid_distance", taxdomain.ErrInvalidInput)
	ErrInvalidPincode       = fmt.Errorf("%w: invalid_pincode", taxdomain.ErrInvalidInput)
	ErrInvalidTransportMode = fmt.Errorf("%w: invalid_transport_mode", taxdomain.ErrInvalidInput)
	ErrVehicleRequired      = fmt.Errorf("%w: vehicle_number_required", taxdomain.ErrInvalidInput)
	ErrInvalidVehicle       = fmt.Errorf("%w: invalid_vehicle_number", taxdomain.ErrInvalidInput)
	ErrInvalidTransporter   = fmt.Errorf("%w: invalid_transporter_id", taxdomain.ErrInvalidInput)
	ErrInvalidStatus        = fmt.Errorf("%w: invalid_status", taxdomain.ErrInvalidInput)
	ErrInvoiceNotCommitted  = fmt.Errorf("%w: invoice_not_committed", taxdomain.ErrInvalidInput)
	ErrBelowValueThreshold  = fmt.Errorf("%w: below_value_threshold", taxdomain.ErrInvalidInput)
)

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("eway_bill_not_found")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrBillNumberExhausted = errors.New("bill_number_exhausted")
)
