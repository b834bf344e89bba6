// Package lifecycle holds the pure e-way bill rules: generation from an
// invoice snapshot, the validity window and the cancellation guard.
package lifecycle

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/smallbiznis/gstbook/internal/ewaybill/domain"
	"github.com/smallbiznis/gstbook/internal/statecode"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

type trigger string

const (
	triggerActivate trigger = "activate"
	triggerCancel   trigger = "cancel"
)

var vehiclePattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{4}$`)

// Expired is left out: it is derived from ValidUpto, never fired.
func newMachine(current domain.Status) *stateless.StateMachine {
	machine := stateless.NewStateMachine(current)

	machine.Configure(domain.StatusGenerated).
		Permit(triggerActivate, domain.StatusActive).
		Permit(triggerCancel, domain.StatusCancelled)

	machine.Configure(domain.StatusActive).
		Permit(triggerCancel, domain.StatusCancelled)

	machine.Configure(domain.StatusCancelled)

	return machine
}

// ValidUpto returns the end of the validity window for a bill generated at
// generated. Distances strictly above the threshold get the long window.
func ValidUpto(generated time.Time, distanceKm int, policy config.EwayPolicy) time.Time {
	if distanceKm > policy.DistanceThresholdKm {
		return generated.Add(policy.LongValidity)
	}
	return generated.Add(policy.ShortValidity)
}

// Create builds a Generated bill from a committed invoice snapshot.
func Create(snapshot domain.InvoiceSnapshot, in domain.CreateInput, number string, now time.Time, policy config.EwayPolicy) (domain.EwayBill, error) {
	if !snapshot.Committed {
		return domain.EwayBill{}, domain.ErrInvoiceNotCommitted
	}
	if policy.ValueThreshold > 0 && int64(snapshot.Total) < policy.ValueThreshold {
		return domain.EwayBill{}, domain.ErrBelowValueThreshold
	}
	if in.ApproxDistance <= 0 {
		return domain.EwayBill{}, domain.ErrInvalidDistance
	}

	fromCode := statecode.NormalizeCode(snapshot.OriginStateCode)
	fromState, ok := statecode.StateForCode(fromCode)
	if !ok {
		return domain.EwayBill{}, taxdomain.ErrInvalidStateCode
	}
	toCode := statecode.NormalizeCode(snapshot.DestinationStateCode)
	toState, ok := statecode.StateForCode(toCode)
	if !ok {
		return domain.EwayBill{}, taxdomain.ErrInvalidStateCode
	}

	fromPincode := strings.TrimSpace(in.FromPincode)
	toPincode := strings.TrimSpace(in.ToPincode)
	if !statecode.ValidatePincode(fromPincode) || !statecode.ValidatePincode(toPincode) {
		return domain.EwayBill{}, domain.ErrInvalidPincode
	}

	mode := domain.TransportMode(strings.ToLower(strings.TrimSpace(string(in.TransportMode))))
	if mode == "" {
		mode = domain.TransportRoad
	}
	if !mode.Valid() {
		return domain.EwayBill{}, domain.ErrInvalidTransportMode
	}

	vehicle, err := normalizeVehicle(in.VehicleNumber)
	if err != nil {
		return domain.EwayBill{}, err
	}
	transporter, err := normalizeTransporter(in.TransporterID)
	if err != nil {
		return domain.EwayBill{}, err
	}

	return domain.EwayBill{
		BillNumber:     number,
		InvoiceID:      snapshot.InvoiceID,
		DocumentNumber: snapshot.InvoiceNumber,
		FromState:      fromState,
		FromStateCode:  fromCode,
		FromPincode:    fromPincode,
		ToState:        toState,
		ToStateCode:    toCode,
		ToPincode:      toPincode,
		ApproxDistance: in.ApproxDistance,
		TransportMode:  mode,
		VehicleNumber:  vehicle,
		TransporterID:  transporter,
		TaxableValue:   snapshot.TaxableValue,
		CGST:           snapshot.CGST,
		SGST:           snapshot.SGST,
		IGST:           snapshot.IGST,
		Cess:           snapshot.Cess,
		TotalValue:     snapshot.TaxableValue + snapshot.CGST + snapshot.SGST + snapshot.IGST + snapshot.Cess,
		Status:         domain.StatusGenerated,
		GeneratedDate:  now,
		ValidUpto:      ValidUpto(now, in.ApproxDistance, policy),
		GeneratedBy:    strings.TrimSpace(in.GeneratedBy),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Activate attaches vehicle details and moves a Generated bill to Active.
func Activate(bill domain.EwayBill, vehicleNumber string, now time.Time) (domain.EwayBill, error) {
	vehicle, err := normalizeVehicle(vehicleNumber)
	if err != nil {
		return bill, err
	}
	if vehicle == nil {
		return bill, domain.ErrVehicleRequired
	}
	if EffectiveStatus(bill, now) == domain.StatusExpired {
		return bill, fmt.Errorf("%w: bill expired at %s", domain.ErrInvalidTransition, bill.ValidUpto.Format(time.RFC3339))
	}
	if err := newMachine(bill.Status).Fire(triggerActivate); err != nil {
		return bill, transitionError(bill.Status, domain.StatusActive)
	}

	bill.Status = domain.StatusActive
	bill.VehicleNumber = vehicle
	bill.UpdatedAt = now
	return bill, nil
}

// Cancel stamps the cancellation fields. Cancelling twice is an error.
func Cancel(bill domain.EwayBill, reason, actor string, now time.Time) (domain.EwayBill, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return bill, domain.ErrCancelReasonRequired
	}
	if err := newMachine(bill.Status).Fire(triggerCancel); err != nil {
		return bill, transitionError(bill.Status, domain.StatusCancelled)
	}

	actor = strings.TrimSpace(actor)
	cancelled := now
	bill.Status = domain.StatusCancelled
	bill.CancelledDate = &cancelled
	bill.CancelledBy = &actor
	bill.CancelReason = &reason
	bill.UpdatedAt = now
	return bill, nil
}

// Edit applies route and transport changes. ValidUpto stays as issued even
// when the distance changes.
func Edit(bill domain.EwayBill, updates domain.EditInput, now time.Time) (domain.EwayBill, error) {
	if bill.Status == domain.StatusCancelled {
		return bill, fmt.Errorf("%w: cancelled bill cannot be edited", domain.ErrInvalidTransition)
	}

	next := bill
	if updates.FromPincode != nil {
		v := strings.TrimSpace(*updates.FromPincode)
		if !statecode.ValidatePincode(v) {
			return bill, domain.ErrInvalidPincode
		}
		next.FromPincode = v
	}
	if updates.ToPincode != nil {
		v := strings.TrimSpace(*updates.ToPincode)
		if !statecode.ValidatePincode(v) {
			return bill, domain.ErrInvalidPincode
		}
		next.ToPincode = v
	}
	if updates.ApproxDistance != nil {
		if *updates.ApproxDistance <= 0 {
			return bill, domain.ErrInvalidDistance
		}
		next.ApproxDistance = *updates.ApproxDistance
	}
	if updates.TransportMode != nil {
		mode := domain.TransportMode(strings.ToLower(strings.TrimSpace(string(*updates.TransportMode))))
		if !mode.Valid() {
			return bill, domain.ErrInvalidTransportMode
		}
		next.TransportMode = mode
	}
	if updates.VehicleNumber != nil {
		vehicle, err := normalizeVehicle(*updates.VehicleNumber)
		if err != nil {
			return bill, err
		}
		if vehicle == nil && bill.Status == domain.StatusActive {
			return bill, domain.ErrVehicleRequired
		}
		next.VehicleNumber = vehicle
	}
	if updates.TransporterID != nil {
		transporter, err := normalizeTransporter(*updates.TransporterID)
		if err != nil {
			return bill, err
		}
		next.TransporterID = transporter
	}

	next.UpdatedAt = now
	return next, nil
}

// EffectiveStatus reports Expired for a bill read after its validity
// window, unless it was cancelled.
func EffectiveStatus(bill domain.EwayBill, now time.Time) domain.Status {
	if bill.Status == domain.StatusCancelled {
		return domain.StatusCancelled
	}
	if now.After(bill.ValidUpto) {
		return domain.StatusExpired
	}
	return bill.Status
}

func normalizeVehicle(raw string) (*string, error) {
	v := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	v = strings.ReplaceAll(v, "-", "")
	if v == "" {
		return nil, nil
	}
	if !vehiclePattern.MatchString(v) {
		return nil, domain.ErrInvalidVehicle
	}
	return &v, nil
}

// Transporter ids share the GSTIN shape.
func normalizeTransporter(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if !statecode.ValidateGSTIN(raw) {
		return nil, domain.ErrInvalidTransporter
	}
	v := statecode.NormalizeGSTIN(raw)
	return &v, nil
}

func transitionError(from, to domain.Status) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}
