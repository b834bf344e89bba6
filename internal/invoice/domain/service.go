package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	pagination.Pagination
	Status     string
	CustomerID string
}

type ListInvoiceFilter struct {
	Status     Status
	CustomerID snowflake.ID
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// LineItemInput is a caller-supplied line. GSTRate may be omitted when
// HSNCode names a catalogued code.
type LineItemInput struct {
	Description string          `json:"description"`
	HSNCode     string          `json:"hsn_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   taxdomain.Money `json:"unit_price"`
	GSTRate     *taxdomain.Rate `json:"gst_rate,omitempty"`
}

type CreateInvoiceRequest struct {
	CustomerID string          `json:"customer_id"`
	Items      []LineItemInput `json:"items"`
	IssueDate  *time.Time      `json:"issue_date,omitempty"`
	DueDate    *time.Time      `json:"due_date,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

type UpdateItemsRequest struct {
	ID    string          `json:"-"`
	Items []LineItemInput `json:"items"`
}

type SetStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

type BulkSetStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

type BulkSetStatusResult struct {
	ID      string `json:"id"`
	Status  Status `json:"status,omitempty"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	UpdateItems(ctx context.Context, req UpdateItemsRequest) (Invoice, error)
	SetStatus(ctx context.Context, req SetStatusRequest) (Invoice, error)
	BulkSetStatus(ctx context.Context, req BulkSetStatusRequest) ([]BulkSetStatusResult, error)
	// MarkOverdue promotes up to limit sent invoices whose due date is before now.
	MarkOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}
