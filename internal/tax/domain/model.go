package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Money is an amount in paise. Stored values are always whole paise.
type Money int64

// Rupees converts whole rupees to Money.
func Rupees(r int64) Money { return Money(r * 100) }

// Decimal returns the amount in rupees.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Rate is a GST rate in whole percent.
type Rate int

const (
	RateNil         Rate = 0
	RateThree       Rate = 3
	RateFive        Rate = 5
	RateTwelve      Rate = 12
	RateEighteen    Rate = 18
	RateTwentyEight Rate = 28
)

var rates = []Rate{RateNil, RateThree, RateFive, RateTwelve, RateEighteen, RateTwentyEight}

// Rates returns the fixed, exhaustive GST rate slab.
func Rates() []Rate {
	out := make([]Rate, len(rates))
	copy(out, rates)
	return out
}

// Valid reports whether r is one of the fixed slabs.
func (r Rate) Valid() bool {
	for _, v := range rates {
		if v == r {
			return true
		}
	}
	return false
}

// GSTType is the supply regime of a whole document.
type GSTType string

const (
	GSTTypeIntrastate GSTType = "intrastate"
	GSTTypeInterstate GSTType = "interstate"
)

// GSTTypeFor maps the interstate flag to a regime.
func GSTTypeFor(isInterstate bool) GSTType {
	if isInterstate {
		return GSTTypeInterstate
	}
	return GSTTypeIntrastate
}

// TaxSplit is the tax breakdown of a single line.
// CGST+SGST+IGST always equals TotalGST and at most one regime is non-zero.
type TaxSplit struct {
	TaxableValue Money `json:"taxable_value"`
	CGST         Money `json:"cgst"`
	SGST         Money `json:"sgst"`
	IGST         Money `json:"igst"`
	TotalGST     Money `json:"total_gst"`
	TotalAmount  Money `json:"total_amount"`
}

// LineInput is what the calculator needs from a line item.
type LineInput struct {
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice Money           `json:"unit_price"`
	Rate      Rate            `json:"gst_rate"`
}

// DocumentSplit aggregates line splits under one regime.
type DocumentSplit struct {
	Subtotal     Money      `json:"subtotal"`
	TotalCGST    Money      `json:"total_cgst"`
	TotalSGST    Money      `json:"total_sgst"`
	TotalIGST    Money      `json:"total_igst"`
	TotalGST     Money      `json:"total_gst"`
	GrandTotal   Money      `json:"grand_total"`
	IsInterstate bool       `json:"is_interstate"`
	Lines        []TaxSplit `json:"lines"`
}

// HSNRate maps an HSN/SAC classification code to its GST slab.
type HSNRate struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Description string       `gorm:"type:text" json:"description"`
	Rate        Rate         `gorm:"not null" json:"rate"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (HSNRate) TableName() string { return "hsn_rates" }

// Validate checks the code shape and the slab.
// HSN codes are 4, 6 or 8 digits; SAC codes are 6 digits starting with 99.
func (h *HSNRate) Validate() error {
	if !ValidHSNCode(h.Code) {
		return ErrInvalidHSNCode
	}
	if !h.Rate.Valid() {
		return ErrInvalidRate
	}
	return nil
}

// ValidHSNCode reports whether code is a 4, 6 or 8 digit classification code.
func ValidHSNCode(code string) bool {
	switch len(code) {
	case 4, 6, 8:
	default:
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
