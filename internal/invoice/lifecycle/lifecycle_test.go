package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstbook/internal/invoice/domain"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func draftInvoice() domain.Invoice {
	return domain.Invoice{
		Status:    domain.StatusDraft,
		IssueDate: now,
		DueDate:   now.AddDate(0, 0, 30),
	}
}

func item(qty int64, price taxdomain.Money, rate taxdomain.Rate) domain.LineItem {
	return domain.LineItem{
		Description: "widget",
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   price,
		GSTRate:     rate,
	}
}

func TestSetStatus_AllowedTransitions(t *testing.T) {
	cases := []struct {
		from domain.Status
		to   domain.Status
	}{
		{domain.StatusDraft, domain.StatusSent},
		{domain.StatusDraft, domain.StatusCancelled},
		{domain.StatusSent, domain.StatusPaid},
		{domain.StatusSent, domain.StatusOverdue},
		{domain.StatusSent, domain.StatusCancelled},
		{domain.StatusOverdue, domain.StatusPaid},
		{domain.StatusOverdue, domain.StatusCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			inv := draftInvoice()
			inv.Status = tc.from

			updated, err := SetStatus(inv, tc.to, now)
			require.NoError(t, err)
			assert.Equal(t, tc.to, updated.Status)
			assert.Equal(t, now, updated.UpdatedAt)
		})
	}
}

func TestSetStatus_RejectedTransitions(t *testing.T) {
	cases := []struct {
		from domain.Status
		to   domain.Status
	}{
		{domain.StatusDraft, domain.StatusPaid},
		{domain.StatusDraft, domain.StatusOverdue},
		{domain.StatusSent, domain.StatusDraft},
		{domain.StatusOverdue, domain.StatusSent},
		{domain.StatusPaid, domain.StatusSent},
		{domain.StatusPaid, domain.StatusCancelled},
		{domain.StatusCancelled, domain.StatusDraft},
		{domain.StatusCancelled, domain.StatusPaid},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			inv := draftInvoice()
			inv.Status = tc.from

			updated, err := SetStatus(inv, tc.to, now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
			assert.Equal(t, tc.from, updated.Status)
		})
	}
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	_, err := SetStatus(draftInvoice(), domain.Status("archived"), now)
	assert.True(t, errors.Is(err, taxdomain.ErrInvalidInput))
	assert.True(t, errors.Is(err, domain.ErrInvalidStatus))
}

func TestSetStatus_PaidDateStampedOnce(t *testing.T) {
	inv := draftInvoice()
	inv.Status = domain.StatusSent

	paid, err := SetStatus(inv, domain.StatusPaid, now)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, now, *paid.PaidDate)

	later := now.Add(48 * time.Hour)
	again, err := SetStatus(paid, domain.StatusPaid, later)
	require.NoError(t, err)
	assert.Equal(t, now, *again.PaidDate)
	assert.Equal(t, paid, again)
}

func TestSetStatus_KeepsExistingPaidDate(t *testing.T) {
	earlier := now.Add(-time.Hour)
	inv := draftInvoice()
	inv.Status = domain.StatusOverdue
	inv.PaidDate = &earlier

	paid, err := SetStatus(inv, domain.StatusPaid, now)
	require.NoError(t, err)
	assert.Equal(t, earlier, *paid.PaidDate)
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t, []domain.Status{domain.StatusSent, domain.StatusCancelled}, NextStatuses(domain.StatusDraft))
	assert.ElementsMatch(t, []domain.Status{domain.StatusPaid, domain.StatusOverdue, domain.StatusCancelled}, NextStatuses(domain.StatusSent))
	assert.ElementsMatch(t, []domain.Status{domain.StatusPaid, domain.StatusCancelled}, NextStatuses(domain.StatusOverdue))
	assert.Empty(t, NextStatuses(domain.StatusPaid))
	assert.Empty(t, NextStatuses(domain.StatusCancelled))
}

func TestRecompute_Intrastate(t *testing.T) {
	inv, err := Recompute(draftInvoice(), []domain.LineItem{
		item(1, 50000, taxdomain.RateEighteen),
		item(3, 15000, taxdomain.RateEighteen),
	}, "29", "29")
	require.NoError(t, err)

	assert.Equal(t, taxdomain.GSTTypeIntrastate, inv.GSTType)
	assert.Equal(t, taxdomain.Money(95000), inv.Subtotal)
	assert.Equal(t, taxdomain.Money(8550), inv.CGSTAmount)
	assert.Equal(t, taxdomain.Money(8550), inv.SGSTAmount)
	assert.Equal(t, taxdomain.Money(0), inv.IGSTAmount)
	assert.Equal(t, taxdomain.Money(17100), inv.TotalGST)
	assert.Equal(t, taxdomain.Money(112100), inv.Total)

	require.Len(t, inv.Items, 2)
	second := inv.Items[1]
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, taxdomain.Money(45000), second.TaxableValue)
	assert.Equal(t, taxdomain.Money(4050), second.CGST)
	assert.Equal(t, taxdomain.Money(4050), second.SGST)
	assert.Equal(t, taxdomain.Money(8100), second.GSTAmount)
	assert.Equal(t, taxdomain.Money(53100), second.LineTotal)
}

func TestRecompute_InterstateAndIdempotent(t *testing.T) {
	items := []domain.LineItem{item(1, 120000, taxdomain.RateEighteen)}

	first, err := Recompute(draftInvoice(), items, "29", "27")
	require.NoError(t, err)
	assert.Equal(t, taxdomain.GSTTypeInterstate, first.GSTType)
	assert.Equal(t, taxdomain.Money(21600), first.IGSTAmount)
	assert.Equal(t, taxdomain.Money(141600), first.Total)

	second, err := Recompute(first, first.Items, "29", "27")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecompute_ZeroRatedInterstateKeepsType(t *testing.T) {
	inv, err := Recompute(draftInvoice(), []domain.LineItem{item(2, 10000, taxdomain.RateNil)}, "29", "07")
	require.NoError(t, err)
	assert.Equal(t, taxdomain.GSTTypeInterstate, inv.GSTType)
	assert.Equal(t, taxdomain.Money(0), inv.IGSTAmount)
	assert.Equal(t, inv.Subtotal, inv.Total)
}

func TestRecompute_TotalsInvariant(t *testing.T) {
	inv, err := Recompute(draftInvoice(), []domain.LineItem{
		item(7, 333, taxdomain.RateFive),
		item(1, 101, taxdomain.RateTwelve),
		item(4, 9999, taxdomain.RateTwentyEight),
	}, "33", "33")
	require.NoError(t, err)

	var subtotal taxdomain.Money
	for _, it := range inv.Items {
		subtotal += it.TaxableValue
		assert.Equal(t, it.GSTAmount, it.CGST+it.SGST)
		assert.Contains(t, []taxdomain.Money{0, 1}, it.CGST-it.SGST)
	}
	assert.Equal(t, subtotal, inv.Subtotal)
	assert.Equal(t, inv.Subtotal+inv.TotalGST, inv.Total)
	assert.Equal(t, inv.CGSTAmount+inv.SGSTAmount+inv.IGSTAmount, inv.TotalGST)
}

func TestRecompute_SentInvoiceStaysEditable(t *testing.T) {
	inv := draftInvoice()
	inv.Status = domain.StatusSent

	updated, err := Recompute(inv, []domain.LineItem{item(2, 10000, taxdomain.RateTwelve)}, "29", "29")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, updated.Status)
	assert.Equal(t, taxdomain.Money(20000), updated.Subtotal)
	assert.Equal(t, taxdomain.Money(2400), updated.TotalGST)
	assert.Equal(t, taxdomain.Money(22400), updated.Total)
	assert.True(t, Editable(domain.StatusSent))
}

func TestRecompute_RejectedWhenNotEditable(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusPaid, domain.StatusCancelled, domain.StatusOverdue} {
		inv := draftInvoice()
		inv.Status = status
		_, err := Recompute(inv, []domain.LineItem{item(1, 100, taxdomain.RateFive)}, "29", "29")
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), status)
	}
}

func TestRecompute_PropagatesLineErrors(t *testing.T) {
	bad := item(1, 100, taxdomain.Rate(7))
	_, err := Recompute(draftInvoice(), []domain.LineItem{item(1, 100, taxdomain.RateFive), bad}, "29", "29")
	require.Error(t, err)
	assert.True(t, errors.Is(err, taxdomain.ErrInvalidRate))

	var lineErr *taxdomain.LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 1, lineErr.Index)

	_, err = Recompute(draftInvoice(), nil, "29", "99")
	assert.True(t, errors.Is(err, taxdomain.ErrInvalidStateCode))
}

func TestIsPastDue(t *testing.T) {
	inv := draftInvoice()
	inv.Status = domain.StatusSent

	assert.False(t, IsPastDue(inv, inv.DueDate))
	assert.True(t, IsPastDue(inv, inv.DueDate.Add(time.Second)))

	inv.Status = domain.StatusPaid
	assert.False(t, IsPastDue(inv, inv.DueDate.Add(time.Hour)))
}

func TestBulkSetStatus_Independent(t *testing.T) {
	sent := draftInvoice()
	sent.Status = domain.StatusSent
	cancelled := draftInvoice()
	cancelled.Status = domain.StatusCancelled
	paid := draftInvoice()
	paid.Status = domain.StatusPaid

	results := BulkSetStatus([]domain.Invoice{sent, cancelled, paid}, domain.StatusPaid, now)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.True(t, results[0].Changed)
	assert.Equal(t, domain.StatusPaid, results[0].Invoice.Status)

	assert.True(t, errors.Is(results[1].Err, domain.ErrInvalidTransition))
	assert.False(t, results[1].Changed)

	assert.NoError(t, results[2].Err)
	assert.False(t, results[2].Changed)
}
