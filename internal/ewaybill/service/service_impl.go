package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/gstbook/internal/audit/domain"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	customerdomain "github.com/smallbiznis/gstbook/internal/customer/domain"
	ewaydomain "github.com/smallbiznis/gstbook/internal/ewaybill/domain"
	"github.com/smallbiznis/gstbook/internal/ewaybill/lifecycle"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	obscontext "github.com/smallbiznis/gstbook/internal/observability/context"
	obsmetrics "github.com/smallbiznis/gstbook/internal/observability/metrics"
	"github.com/smallbiznis/gstbook/pkg/db"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	numberAttempts = 5
	billTarget     = "eway_bill"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      config.Config
	Policy      *config.GSTPolicyHolder
	Repo        ewaydomain.Repository
	InvoiceSvc  invoicedomain.Service
	CustomerSvc customerdomain.Service
	Numberer    lifecycle.Numberer  `optional:"true"`
	AuditSvc    auditdomain.Service `optional:"true"`
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	business    config.BusinessConfig
	policy      *config.GSTPolicyHolder
	repo        ewaydomain.Repository
	invoiceSvc  invoicedomain.Service
	customerSvc customerdomain.Service
	numberer    lifecycle.Numberer
	auditSvc    auditdomain.Service
	metrics     *obsmetrics.Metrics
}

func NewService(p ServiceParam) ewaydomain.Service {
	numberer := p.Numberer
	if numberer == nil {
		numberer = lifecycle.NewTimestampNumberer()
	}
	policy := p.Policy
	if policy == nil {
		policy = config.NewStaticGSTPolicy(config.DefaultGSTPolicy())
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ewaybill.service"),
		genID: p.GenID,
		clock: p.Clock,

		business:    p.Config.Business,
		policy:      policy,
		repo:        p.Repo,
		invoiceSvc:  p.InvoiceSvc,
		customerSvc: p.CustomerSvc,
		numberer:    numberer,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) Generate(ctx context.Context, req ewaydomain.GenerateRequest) (ewaydomain.EwayBill, error) {
	invoice, err := s.invoiceSvc.GetByID(ctx, req.InvoiceID)
	if err != nil {
		switch {
		case errors.Is(err, invoicedomain.ErrInvalidID):
			return ewaydomain.EwayBill{}, ewaydomain.ErrInvalidID
		case errors.Is(err, invoicedomain.ErrNotFound):
			return ewaydomain.EwayBill{}, ewaydomain.ErrInvoiceNotFound
		}
		return ewaydomain.EwayBill{}, err
	}

	fromPincode := strings.TrimSpace(req.FromPincode)
	if fromPincode == "" {
		fromPincode = s.business.Pincode
	}
	toPincode := strings.TrimSpace(req.ToPincode)
	if toPincode == "" {
		customer, err := s.customerSvc.GetByID(ctx, invoice.CustomerID.String())
		if err != nil && !errors.Is(err, customerdomain.ErrNotFound) {
			return ewaydomain.EwayBill{}, err
		}
		toPincode = customer.Pincode
	}

	now := s.clock.Now()
	bill, err := lifecycle.Create(snapshotOf(invoice), ewaydomain.CreateInput{
		FromPincode:    fromPincode,
		ToPincode:      toPincode,
		ApproxDistance: req.ApproxDistance,
		TransportMode:  req.TransportMode,
		VehicleNumber:  req.VehicleNumber,
		TransporterID:  req.TransporterID,
		GeneratedBy:    actorOf(ctx),
	}, "", now, s.policy.Get().Eway)
	if err != nil {
		return ewaydomain.EwayBill{}, err
	}
	bill.ID = s.genID.Generate()

	for attempt := 1; ; attempt++ {
		if attempt > numberAttempts {
			return ewaydomain.EwayBill{}, ewaydomain.ErrBillNumberExhausted
		}

		bill.BillNumber = s.numberer.Next(now)
		taken, err := s.repo.NumberExists(ctx, s.db, bill.BillNumber)
		if err != nil {
			return ewaydomain.EwayBill{}, fmt.Errorf("check bill number: %w", err)
		}
		if taken {
			s.log.Warn("bill number collision", zap.String("bill_number", bill.BillNumber), zap.Int("attempt", attempt))
			continue
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.Insert(ctx, tx, &bill); err != nil {
				return err
			}
			return s.recordAudit(ctx, tx, "eway_bill.generated", &bill, map[string]any{
				"invoice_id":      bill.InvoiceID.String(),
				"approx_distance": bill.ApproxDistance,
				"valid_upto":      bill.ValidUpto.Format(time.RFC3339),
			})
		})
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) {
			return ewaydomain.EwayBill{}, err
		}
	}

	s.metrics.RecordEwayBillGenerated(ctx, string(bill.TransportMode))
	s.log.Info("eway bill generated",
		zap.String("eway_bill_id", bill.ID.String()),
		zap.String("bill_number", bill.BillNumber),
		zap.String("invoice_id", bill.InvoiceID.String()),
		zap.Int("approx_distance", bill.ApproxDistance),
	)

	bill.EffectiveStatus = lifecycle.EffectiveStatus(bill, now)
	return bill, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (ewaydomain.EwayBill, error) {
	billID, err := parseID(strings.TrimSpace(id))
	if err != nil {
		return ewaydomain.EwayBill{}, ewaydomain.ErrInvalidID
	}
	bill, err := s.repo.FindByID(ctx, s.db, billID)
	if err != nil {
		return ewaydomain.EwayBill{}, fmt.Errorf("load eway bill: %w", err)
	}
	if bill == nil {
		return ewaydomain.EwayBill{}, ewaydomain.ErrNotFound
	}
	bill.EffectiveStatus = lifecycle.EffectiveStatus(*bill, s.clock.Now())
	return *bill, nil
}

func (s *Service) List(ctx context.Context, req ewaydomain.ListRequest) (ewaydomain.ListResponse, error) {
	now := s.clock.Now()
	filter := ewaydomain.ListFilter{Now: now}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := ewaydomain.Status(strings.ToLower(raw))
		if !status.Valid() {
			return ewaydomain.ListResponse{}, ewaydomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.InvoiceID); raw != "" {
		invoiceID, err := parseID(raw)
		if err != nil {
			return ewaydomain.ListResponse{}, ewaydomain.ErrInvalidID
		}
		filter.InvoiceID = invoiceID
	}

	rows, err := s.repo.List(ctx, s.db, filter, req.Pagination)
	if err != nil {
		return ewaydomain.ListResponse{}, err
	}
	rows, pageInfo, err := pagination.Trim(rows, req.Limit(), func(b *ewaydomain.EwayBill) string {
		return b.ID.String()
	})
	if err != nil {
		return ewaydomain.ListResponse{}, err
	}

	bills := make([]ewaydomain.EwayBill, 0, len(rows))
	for _, row := range rows {
		row.EffectiveStatus = lifecycle.EffectiveStatus(*row, now)
		bills = append(bills, *row)
	}
	return ewaydomain.ListResponse{PageInfo: pageInfo, EwayBills: bills}, nil
}

func (s *Service) Activate(ctx context.Context, req ewaydomain.ActivateRequest) (ewaydomain.EwayBill, error) {
	return s.mutate(ctx, req.ID, "eway_bill.activated", func(bill ewaydomain.EwayBill, now time.Time) (ewaydomain.EwayBill, error) {
		return lifecycle.Activate(bill, req.VehicleNumber, now)
	})
}

func (s *Service) Update(ctx context.Context, req ewaydomain.UpdateRequest) (ewaydomain.EwayBill, error) {
	return s.mutate(ctx, req.ID, "eway_bill.updated", func(bill ewaydomain.EwayBill, now time.Time) (ewaydomain.EwayBill, error) {
		return lifecycle.Edit(bill, req.EditInput, now)
	})
}

func (s *Service) Cancel(ctx context.Context, req ewaydomain.CancelRequest) (ewaydomain.EwayBill, error) {
	actor := actorOf(ctx)
	return s.mutate(ctx, req.ID, "eway_bill.cancelled", func(bill ewaydomain.EwayBill, now time.Time) (ewaydomain.EwayBill, error) {
		return lifecycle.Cancel(bill, req.Reason, actor, now)
	})
}

// mutate loads the bill locked, applies change and persists the result
// with its audit entry in one transaction.
func (s *Service) mutate(ctx context.Context, rawID, action string, change func(ewaydomain.EwayBill, time.Time) (ewaydomain.EwayBill, error)) (ewaydomain.EwayBill, error) {
	id, err := parseID(strings.TrimSpace(rawID))
	if err != nil {
		return ewaydomain.EwayBill{}, ewaydomain.ErrInvalidID
	}

	now := s.clock.Now()
	var (
		updated  ewaydomain.EwayBill
		previous ewaydomain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load eway bill: %w", err)
		}
		if bill == nil {
			return ewaydomain.ErrNotFound
		}

		previous = bill.Status
		updated, err = change(*bill, now)
		if err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, &updated); err != nil {
			return err
		}
		return s.recordAudit(ctx, tx, action, &updated, map[string]any{
			"previous_status": string(previous),
		})
	})
	if err != nil {
		return ewaydomain.EwayBill{}, err
	}

	if updated.Status != previous {
		s.metrics.RecordEwayBillTransition(ctx, string(previous), string(updated.Status))
		s.log.Info("eway bill status changed",
			zap.String("eway_bill_id", updated.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(updated.Status)),
		)
	}

	updated.EffectiveStatus = lifecycle.EffectiveStatus(updated, now)
	return updated, nil
}

func (s *Service) recordAudit(ctx context.Context, tx *gorm.DB, action string, bill *ewaydomain.EwayBill, extra map[string]any) error {
	if s.auditSvc == nil || bill == nil {
		return nil
	}
	metadata := map[string]any{
		"bill_number":    bill.BillNumber,
		"status":         string(bill.Status),
		"transport_mode": string(bill.TransportMode),
	}
	if bill.VehicleNumber != nil {
		metadata["vehicle_number"] = *bill.VehicleNumber
	}
	if bill.CancelReason != nil {
		metadata["cancel_reason"] = *bill.CancelReason
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}
	return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:     action,
		TargetType: billTarget,
		TargetID:   bill.ID.String(),
		Metadata:   metadata,
	})
}

func snapshotOf(inv invoicedomain.Invoice) ewaydomain.InvoiceSnapshot {
	return ewaydomain.InvoiceSnapshot{
		InvoiceID:            inv.ID,
		InvoiceNumber:        inv.InvoiceNumber,
		Committed:            inv.Status.Committed(),
		OriginStateCode:      inv.OriginStateCode,
		DestinationStateCode: inv.PlaceOfSupply,
		TaxableValue:         inv.Subtotal,
		CGST:                 inv.CGSTAmount,
		SGST:                 inv.SGSTAmount,
		IGST:                 inv.IGSTAmount,
		Total:                inv.Total,
	}
}

func actorOf(ctx context.Context) string {
	actorType, actorID := obscontext.ActorFromContext(ctx)
	if actorID != "" {
		return actorID
	}
	if actorType != "" {
		return actorType
	}
	return obscontext.ActorTypeSystem
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(raw)
}
