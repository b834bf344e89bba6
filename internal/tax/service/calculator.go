package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstbook/internal/statecode"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// maxQuantityPlaces matches the NUMERIC(18,3) quantity column.
const maxQuantityPlaces = 3

// ComputeItemSplit splits the GST of a single line between CGST+SGST
// (intrastate) and IGST (interstate).
//
// Amounts are rounded half-up to whole paise. The total is computed at the
// full rate before the regime is applied, so it does not depend on the
// regime. Intrastate CGST is half the total rounded half-up and SGST takes
// the remainder.
func ComputeItemSplit(quantity decimal.Decimal, unitPrice taxdomain.Money, rate taxdomain.Rate, isInterstate bool) (taxdomain.TaxSplit, error) {
	if !quantity.IsPositive() || !quantity.Equal(quantity.Truncate(maxQuantityPlaces)) {
		return taxdomain.TaxSplit{}, taxdomain.ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return taxdomain.TaxSplit{}, taxdomain.ErrInvalidUnitPrice
	}
	if !rate.Valid() {
		return taxdomain.TaxSplit{}, taxdomain.ErrInvalidRate
	}

	taxable := roundPaise(quantity.Mul(decimal.NewFromInt(int64(unitPrice))))
	split := taxdomain.TaxSplit{TaxableValue: taxable}

	r := decimal.NewFromInt(int64(rate))
	base := decimal.NewFromInt(int64(taxable))
	total := roundPaise(base.Mul(r).Div(hundred))
	if isInterstate {
		split.IGST = total
	} else {
		split.CGST = roundPaise(decimal.NewFromInt(int64(total)).Div(two))
		split.SGST = total - split.CGST
	}
	split.TotalGST = total
	split.TotalAmount = split.TaxableValue + split.TotalGST
	return split, nil
}

// ComputeDocumentSplit sums the line splits of a document. The regime is
// decided once from the two state codes and applied to every line.
func ComputeDocumentSplit(items []taxdomain.LineInput, originCode, destinationCode string) (taxdomain.DocumentSplit, error) {
	origin := statecode.NormalizeCode(originCode)
	destination := statecode.NormalizeCode(destinationCode)
	if !statecode.IsValidCode(origin) || !statecode.IsValidCode(destination) {
		return taxdomain.DocumentSplit{}, taxdomain.ErrInvalidStateCode
	}

	doc := taxdomain.DocumentSplit{
		IsInterstate: origin != destination,
		Lines:        make([]taxdomain.TaxSplit, 0, len(items)),
	}
	for i, item := range items {
		split, err := ComputeItemSplit(item.Quantity, item.UnitPrice, item.Rate, doc.IsInterstate)
		if err != nil {
			return taxdomain.DocumentSplit{}, lineError(i, err)
		}
		doc.Subtotal += split.TaxableValue
		doc.TotalCGST += split.CGST
		doc.TotalSGST += split.SGST
		doc.TotalIGST += split.IGST
		doc.TotalGST += split.TotalGST
		doc.Lines = append(doc.Lines, split)
	}
	doc.GrandTotal = doc.Subtotal + doc.TotalGST
	return doc, nil
}

func roundPaise(v decimal.Decimal) taxdomain.Money {
	return taxdomain.Money(v.Round(0).IntPart())
}

func lineError(i int, err error) error {
	return &taxdomain.LineError{Index: i, Err: err}
}
