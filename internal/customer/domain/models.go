package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is a buyer. StateCode is the place of supply for documents issued to them.
type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null" json:"email"`
	GSTIN     *string      `gorm:"column:gstin;index" json:"gstin,omitempty"`
	StateCode string       `gorm:"not null" json:"state_code"`
	Pincode   string       `gorm:"not null" json:"pincode"`
	Address   string       `json:"address,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Registered reports whether the customer holds a GSTIN (B2B).
func (c Customer) Registered() bool {
	return c.GSTIN != nil && *c.GSTIN != ""
}
