// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Committed reports whether the invoice has left draft without being cancelled.
func (s Status) Committed() bool {
	return s == StatusSent || s == StatusPaid || s == StatusOverdue
}

// Invoice is a tax invoice issued to a customer. Amounts are paise.
type Invoice struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	InvoiceNumber   string            `gorm:"type:text;not null;uniqueIndex" json:"invoice_number"`
	Sequence        int64             `gorm:"not null;uniqueIndex" json:"-"`
	CustomerID      snowflake.ID      `gorm:"not null;index" json:"customer_id"`
	OriginStateCode string            `gorm:"type:text;not null" json:"origin_state_code"`
	PlaceOfSupply   string            `gorm:"type:text;not null" json:"place_of_supply"`
	GSTType         taxdomain.GSTType `gorm:"column:gst_type;type:text;not null" json:"gst_type"`
	Subtotal        taxdomain.Money   `gorm:"not null;default:0" json:"subtotal"`
	CGSTAmount      taxdomain.Money   `gorm:"column:cgst_amount;not null;default:0" json:"cgst_amount"`
	SGSTAmount      taxdomain.Money   `gorm:"column:sgst_amount;not null;default:0" json:"sgst_amount"`
	IGSTAmount      taxdomain.Money   `gorm:"column:igst_amount;not null;default:0" json:"igst_amount"`
	TotalGST        taxdomain.Money   `gorm:"column:total_gst;not null;default:0" json:"total_gst"`
	Total           taxdomain.Money   `gorm:"not null;default:0" json:"total"`
	Status          Status            `gorm:"type:text;not null;default:'draft';index" json:"status"`
	IssueDate       time.Time         `gorm:"not null" json:"issue_date"`
	DueDate         time.Time         `gorm:"not null;index" json:"due_date"`
	PaidDate        *time.Time        `json:"paid_date,omitempty"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []LineItem `gorm:"-" json:"items,omitempty"`
	// PastDue is filled on read; it is never stored.
	PastDue bool `gorm:"-" json:"past_due"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem is one priced line. Fields after GSTRate are derived.
type LineItem struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID    snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position     int             `gorm:"not null" json:"position"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	HSNCode      *string         `gorm:"column:hsn_code;type:text" json:"hsn_code,omitempty"`
	Quantity     decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
	UnitPrice    taxdomain.Money `gorm:"not null" json:"unit_price"`
	GSTRate      taxdomain.Rate  `gorm:"column:gst_rate;not null" json:"gst_rate"`
	TaxableValue taxdomain.Money `gorm:"not null" json:"taxable_value"`
	CGST         taxdomain.Money `gorm:"column:cgst;not null" json:"cgst"`
	SGST         taxdomain.Money `gorm:"column:sgst;not null" json:"sgst"`
	IGST         taxdomain.Money `gorm:"column:igst;not null" json:"igst"`
	GSTAmount    taxdomain.Money `gorm:"column:gst_amount;not null" json:"gst_amount"`
	LineTotal    taxdomain.Money `gorm:"not null" json:"line_total"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_items" }
