package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type GenerateRequest struct {
	InvoiceID      string        `json:"invoice_id"`
	FromPincode    string        `json:"from_pincode,omitempty"`
	ToPincode      string        `json:"to_pincode,omitempty"`
	ApproxDistance int           `json:"approx_distance"`
	TransportMode  TransportMode `json:"transport_mode,omitempty"`
	VehicleNumber  string        `json:"vehicle_number,omitempty"`
	TransporterID  string        `json:"transporter_id,omitempty"`
}

type ActivateRequest struct {
	ID            string `json:"-"`
	VehicleNumber string `json:"vehicle_number"`
}

type UpdateRequest struct {
	ID string `json:"-"`
	EditInput
}

type CancelRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

type ListRequest struct {
	pagination.Pagination
	Status    string
	InvoiceID string
}

// ListFilter matches on effective status, so Now is needed to tell
// expired bills apart from live ones.
type ListFilter struct {
	Status    Status
	InvoiceID snowflake.ID
	Now       time.Time
}

type ListResponse struct {
	pagination.PageInfo
	EwayBills []EwayBill `json:"eway_bills"`
}

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (EwayBill, error)
	GetByID(ctx context.Context, id string) (EwayBill, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Activate(ctx context.Context, req ActivateRequest) (EwayBill, error)
	Update(ctx context.Context, req UpdateRequest) (EwayBill, error)
	Cancel(ctx context.Context, req CancelRequest) (EwayBill, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *EwayBill) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*EwayBill, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*EwayBill, error)
	NumberExists(ctx context.Context, db *gorm.DB, number string) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*EwayBill, error)
	Update(ctx context.Context, tx *gorm.DB, bill *EwayBill) error
}
