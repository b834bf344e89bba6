// Package lifecycle holds the pure invoice state rules. Nothing here touches
// a store; callers pass "now" in and persist the returned value.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/smallbiznis/gstbook/internal/invoice/domain"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	taxservice "github.com/smallbiznis/gstbook/internal/tax/service"
)

type trigger string

const (
	triggerSend        trigger = "send"
	triggerPay         trigger = "pay"
	triggerMarkOverdue trigger = "mark_overdue"
	triggerCancel      trigger = "cancel"
)

var triggerFor = map[domain.Status]trigger{
	domain.StatusSent:      triggerSend,
	domain.StatusPaid:      triggerPay,
	domain.StatusOverdue:   triggerMarkOverdue,
	domain.StatusCancelled: triggerCancel,
}

func newMachine(current domain.Status) *stateless.StateMachine {
	machine := stateless.NewStateMachine(current)

	machine.Configure(domain.StatusDraft).
		Permit(triggerSend, domain.StatusSent).
		Permit(triggerCancel, domain.StatusCancelled)

	machine.Configure(domain.StatusSent).
		Permit(triggerPay, domain.StatusPaid).
		Permit(triggerMarkOverdue, domain.StatusOverdue).
		Permit(triggerCancel, domain.StatusCancelled)

	machine.Configure(domain.StatusOverdue).
		Permit(triggerPay, domain.StatusPaid).
		Permit(triggerCancel, domain.StatusCancelled)

	machine.Configure(domain.StatusPaid)
	machine.Configure(domain.StatusCancelled)

	return machine
}

// SetStatus moves inv to next. Re-setting the current status returns inv
// unchanged. PaidDate is stamped only on the first move to paid.
func SetStatus(inv domain.Invoice, next domain.Status, now time.Time) (domain.Invoice, error) {
	if !next.Valid() {
		return inv, domain.ErrInvalidStatus
	}
	if inv.Status == next {
		return inv, nil
	}

	t, ok := triggerFor[next]
	if !ok {
		// nothing leads back to draft
		return inv, transitionError(inv.Status, next)
	}
	machine := newMachine(inv.Status)
	if err := machine.Fire(t); err != nil {
		return inv, transitionError(inv.Status, next)
	}

	inv.Status = next
	if next == domain.StatusPaid && inv.PaidDate == nil {
		paid := now
		inv.PaidDate = &paid
	}
	inv.UpdatedAt = now
	return inv, nil
}

// NextStatuses lists the statuses reachable from current in one step.
func NextStatuses(current domain.Status) []domain.Status {
	triggers, err := newMachine(current).PermittedTriggers()
	if err != nil {
		return nil
	}
	out := make([]domain.Status, 0, len(triggers))
	for _, status := range []domain.Status{domain.StatusSent, domain.StatusPaid, domain.StatusOverdue, domain.StatusCancelled} {
		for _, t := range triggers {
			if t == triggerFor[status] {
				out = append(out, status)
			}
		}
	}
	return out
}

// Recompute prices items against the document regime and writes the
// derived amounts onto both the items and the invoice.
func Recompute(inv domain.Invoice, items []domain.LineItem, origin, destination string) (domain.Invoice, error) {
	if !Editable(inv.Status) {
		return inv, fmt.Errorf("%w: %s invoice cannot be edited", domain.ErrInvalidTransition, inv.Status)
	}

	inputs := make([]taxdomain.LineInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, taxdomain.LineInput{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Rate:      item.GSTRate,
		})
	}
	doc, err := taxservice.ComputeDocumentSplit(inputs, origin, destination)
	if err != nil {
		return inv, err
	}

	priced := make([]domain.LineItem, len(items))
	for i, item := range items {
		split := doc.Lines[i]
		item.Position = i + 1
		item.TaxableValue = split.TaxableValue
		item.CGST = split.CGST
		item.SGST = split.SGST
		item.IGST = split.IGST
		item.GSTAmount = split.TotalGST
		item.LineTotal = split.TotalAmount
		priced[i] = item
	}

	inv.Items = priced
	inv.OriginStateCode = origin
	inv.PlaceOfSupply = destination
	inv.GSTType = taxdomain.GSTTypeFor(doc.IsInterstate)
	inv.Subtotal = doc.Subtotal
	inv.CGSTAmount = doc.TotalCGST
	inv.SGSTAmount = doc.TotalSGST
	inv.IGSTAmount = doc.TotalIGST
	inv.TotalGST = doc.TotalGST
	inv.Total = doc.GrandTotal
	return inv, nil
}

// Editable reports whether line items may still change in status s.
func Editable(s domain.Status) bool {
	return s == domain.StatusDraft || s == domain.StatusSent
}

// IsPastDue is a display flag; the stored status stays authoritative.
func IsPastDue(inv domain.Invoice, now time.Time) bool {
	if inv.Status.Terminal() {
		return false
	}
	return now.After(inv.DueDate)
}

// BulkResult is the outcome for one invoice of a bulk status change.
type BulkResult struct {
	Invoice domain.Invoice
	Changed bool
	Err     error
}

// BulkSetStatus applies SetStatus to each invoice on its own. One failure
// does not affect the others.
func BulkSetStatus(invoices []domain.Invoice, next domain.Status, now time.Time) []BulkResult {
	results := make([]BulkResult, 0, len(invoices))
	for _, inv := range invoices {
		updated, err := SetStatus(inv, next, now)
		results = append(results, BulkResult{
			Invoice: updated,
			Changed: err == nil && inv.Status != updated.Status,
			Err:     err,
		})
	}
	return results
}

func transitionError(from, to domain.Status) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}
