package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/gstbook/internal/audit/domain"
	customerdomain "github.com/smallbiznis/gstbook/internal/customer/domain"
	ewaybilldomain "github.com/smallbiznis/gstbook/internal/ewaybill/domain"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{validationErrorFor(err)},
		}
	}

	switch {
	case isInvalidTransition(err):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_transition",
			Message: transitionMessage(err),
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, taxdomain.ErrHSNCodeTaken),
		errors.Is(err, invoicedomain.ErrNumberingConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ewaybilldomain.ErrBillNumberExhausted):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type/code pair the
// client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, taxdomain.ErrInvalidInput),
		errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, taxdomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, ewaybilldomain.ErrInvalidID):
		return true
	case isCustomerValidationError(err):
		return true
	default:
		return false
	}
}

func isInvalidTransition(err error) bool {
	return errors.Is(err, invoicedomain.ErrInvalidTransition) ||
		errors.Is(err, ewaybilldomain.ErrInvalidTransition)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrCustomerNotFound),
		errors.Is(err, ewaybilldomain.ErrNotFound),
		errors.Is(err, ewaybilldomain.ErrInvoiceNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// transitionMessage keeps the "from -> to" detail the lifecycle attaches.
func transitionMessage(err error) string {
	msg := err.Error()
	if _, detail, ok := strings.Cut(msg, "invalid_transition: "); ok {
		return "invalid transition: " + detail
	}
	return "invalid transition"
}

func validationErrorFor(err error) ValidationError {
	code := validationErrorCode(err)
	field := validationErrorField(code)

	var lineErr *taxdomain.LineError
	if errors.As(err, &lineErr) {
		field = fmt.Sprintf("items[%d].%s", lineErr.Index, field)
	}

	return ValidationError{
		Field:   field,
		Code:    code,
		Message: validationErrorMessage(code),
	}
}

// validationErrorCode returns the innermost sentinel code. Input errors are
// built as "invalid_input: <code>" and may be wrapped further.
func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidPageToken):
		return "invalid_page_token"
	}

	msg := err.Error()
	if idx := strings.LastIndex(msg, taxdomain.ErrInvalidInput.Error()+": "); idx >= 0 {
		msg = msg[idx+len(taxdomain.ErrInvalidInput.Error())+2:]
	}
	if idx := strings.Index(msg, ":"); idx >= 0 {
		msg = msg[:idx]
	}
	return strings.TrimSpace(msg)
}

var fieldByCode = map[string]string{
	"empty_items":             "items",
	"missing_gst_rate":        "gst_rate",
	"empty_bulk_request":      "ids",
	"bulk_too_large":          "ids",
	"cancel_reason_required":  "reason",
	"vehicle_number_required": "vehicle_number",
	"invoice_not_committed":   "invoice_id",
	"below_value_threshold":   "invoice_id",
	"gstin_state_mismatch":    "gstin",
	"invalid_distance":        "approx_distance",
	"invalid_rate":            "gst_rate",
	"invalid_transporter_id":  "transporter_id",
	"invalid_vehicle_number":  "vehicle_number",
	"invalid_customer":        "customer_id",
}

func validationErrorField(code string) string {
	if field, ok := fieldByCode[code]; ok {
		return field
	}
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_gst_rate":
		return "gst rate is required when the hsn code is not catalogued"
	case "invoice_not_committed":
		return "invoice must be sent, paid or overdue"
	case "below_value_threshold":
		return "consignment value is below the e-way bill threshold"
	case "cancel_reason_required":
		return "cancel reason is required"
	case "vehicle_number_required":
		return "vehicle number is required"
	default:
		return "invalid value"
	}
}
