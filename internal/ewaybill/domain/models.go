// Package domain contains persistence models for e-way bills.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

type Status string

const (
	StatusGenerated Status = "generated"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	// StatusExpired is derived from ValidUpto on read and never stored.
	StatusExpired Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusGenerated, StatusActive, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type TransportMode string

const (
	TransportRoad TransportMode = "road"
	TransportRail TransportMode = "rail"
	TransportAir  TransportMode = "air"
	TransportShip TransportMode = "ship"
)

func (m TransportMode) Valid() bool {
	switch m {
	case TransportRoad, TransportRail, TransportAir, TransportShip:
		return true
	}
	return false
}

// EwayBill is the dispatch document for goods moved under an invoice.
// Tax amounts are copied from the invoice when the bill is generated.
type EwayBill struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	BillNumber     string          `gorm:"type:text;not null;uniqueIndex" json:"bill_number"`
	InvoiceID      snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	DocumentNumber string          `gorm:"type:text;not null" json:"document_number"`
	FromState      string          `gorm:"type:text;not null" json:"from_state"`
	FromStateCode  string          `gorm:"type:text;not null" json:"from_state_code"`
	FromPincode    string          `gorm:"type:text;not null" json:"from_pincode"`
	ToState        string          `gorm:"type:text;not null" json:"to_state"`
	ToStateCode    string          `gorm:"type:text;not null" json:"to_state_code"`
	ToPincode      string          `gorm:"type:text;not null" json:"to_pincode"`
	ApproxDistance int             `gorm:"not null" json:"approx_distance"`
	TransportMode  TransportMode   `gorm:"type:text;not null" json:"transport_mode"`
	VehicleNumber  *string         `gorm:"type:text" json:"vehicle_number,omitempty"`
	TransporterID  *string         `gorm:"type:text" json:"transporter_id,omitempty"`
	TaxableValue   taxdomain.Money `gorm:"not null" json:"taxable_value"`
	CGST           taxdomain.Money `gorm:"column:cgst;not null" json:"cgst"`
	SGST           taxdomain.Money `gorm:"column:sgst;not null" json:"sgst"`
	IGST           taxdomain.Money `gorm:"column:igst;not null" json:"igst"`
	Cess           taxdomain.Money `gorm:"not null;default:0" json:"cess"`
	TotalValue     taxdomain.Money `gorm:"not null" json:"total_value"`
	Status         Status          `gorm:"type:text;not null;index" json:"status"`
	GeneratedDate  time.Time       `gorm:"not null" json:"generated_date"`
	ValidUpto      time.Time       `gorm:"not null;index" json:"valid_upto"`
	CancelledDate  *time.Time      `json:"cancelled_date,omitempty"`
	CancelledBy    *string         `gorm:"type:text" json:"cancelled_by,omitempty"`
	CancelReason   *string         `gorm:"type:text" json:"cancel_reason,omitempty"`
	GeneratedBy    string          `gorm:"type:text;not null" json:"generated_by"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// EffectiveStatus is Status with expiry applied as of the read.
	EffectiveStatus Status `gorm:"-" json:"effective_status"`
}

func (EwayBill) TableName() string { return "eway_bills" }

// InvoiceSnapshot is the committed invoice state a bill is generated from.
type InvoiceSnapshot struct {
	InvoiceID            snowflake.ID
	InvoiceNumber        string
	Committed            bool
	OriginStateCode      string
	DestinationStateCode string
	TaxableValue         taxdomain.Money
	CGST                 taxdomain.Money
	SGST                 taxdomain.Money
	IGST                 taxdomain.Money
	Cess                 taxdomain.Money
	Total                taxdomain.Money
}

// CreateInput carries the route and transport details of a new bill.
type CreateInput struct {
	FromPincode    string
	ToPincode      string
	ApproxDistance int
	TransportMode  TransportMode
	VehicleNumber  string
	TransporterID  string
	GeneratedBy    string
}

// EditInput holds optional changes; nil fields are left as they are.
type EditInput struct {
	FromPincode    *string        `json:"from_pincode,omitempty"`
	ToPincode      *string        `json:"to_pincode,omitempty"`
	ApproxDistance *int           `json:"approx_distance,omitempty"`
	TransportMode  *TransportMode `json:"transport_mode,omitempty"`
	VehicleNumber  *string        `json:"vehicle_number,omitempty"`
	TransporterID  *string        `json:"transporter_id,omitempty"`
}
