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
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/internal/invoice/lifecycle"
	obsmetrics "github.com/smallbiznis/gstbook/internal/observability/metrics"
	"github.com/smallbiznis/gstbook/internal/statecode"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/smallbiznis/gstbook/pkg/db"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxBulkSize     = 100
	numberAttempts  = 3
	invoiceTarget   = "invoice"
	defaultTermDays = 30
)

var ErrBulkTooLarge = fmt.Errorf("%w: bulk_too_large", taxdomain.ErrInvalidInput)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      config.Config
	Repo        invoicedomain.Repository
	CustomerSvc customerdomain.Service
	TaxSvc      taxdomain.Service
	AuditSvc    auditdomain.Service `optional:"true"`
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	business    config.BusinessConfig
	repo        invoicedomain.Repository
	customerSvc customerdomain.Service
	rates       taxdomain.RateResolver
	auditSvc    auditdomain.Service
	metrics     *obsmetrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,

		business:    p.Config.Business,
		repo:        p.Repo,
		customerSvc: p.CustomerSvc,
		rates:       p.TaxSvc,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if _, err := parseID(customerID); err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}
	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrEmptyItems
	}

	origin := statecode.NormalizeCode(s.business.StateCode)
	if !statecode.IsValidCode(origin) {
		return invoicedomain.Invoice{}, invoicedomain.ErrMissingBusinessState
	}

	customer, err := s.customerSvc.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customerdomain.ErrNotFound) {
			return invoicedomain.Invoice{}, invoicedomain.ErrCustomerNotFound
		}
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now()
	issueDate := now
	if req.IssueDate != nil {
		issueDate = req.IssueDate.UTC()
	}
	dueDate := issueDate.AddDate(0, 0, s.termDays())
	if req.DueDate != nil {
		dueDate = req.DueDate.UTC()
		if dueDate.Before(issueDate) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidDueDate
		}
	}

	invoice := invoicedomain.Invoice{
		ID:         s.genID.Generate(),
		CustomerID: customer.ID,
		Status:     invoicedomain.StatusDraft,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Notes:      strings.TrimSpace(req.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	items, err := s.buildItems(ctx, invoice.ID, req.Items, now)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice, err = lifecycle.Recompute(invoice, items, origin, customer.StateCode)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	for attempt := 1; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			seq, err := s.repo.NextSequence(ctx, tx)
			if err != nil {
				return fmt.Errorf("next invoice sequence: %w", err)
			}
			invoice.Sequence = seq
			invoice.InvoiceNumber = formatInvoiceNumber(seq)

			if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
				return err
			}
			return s.recordAudit(ctx, tx, "invoice.created", &invoice, map[string]any{
				"customer_id": customer.ID.String(),
			})
		})
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) {
			return invoicedomain.Invoice{}, err
		}
		if attempt == numberAttempts {
			return invoicedomain.Invoice{}, invoicedomain.ErrNumberingConflict
		}
		s.log.Warn("invoice number taken, retrying",
			zap.Int64("sequence", invoice.Sequence),
			zap.Int("attempt", attempt),
		)
	}

	s.metrics.RecordInvoiceCreated(ctx, string(invoice.GSTType), int64(invoice.Total))
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("gst_type", string(invoice.GSTType)),
		zap.Int64("total", int64(invoice.Total)),
	)

	invoice.PastDue = lifecycle.IsPastDue(invoice, now)
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(strings.TrimSpace(id))
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}
	return s.load(ctx, s.db, invoiceID)
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := invoicedomain.ListInvoiceFilter{}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := invoicedomain.Status(strings.ToLower(raw))
		if !status.Valid() {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := parseID(raw)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidCustomer
		}
		filter.CustomerID = customerID
	}

	rows, err := s.repo.List(ctx, s.db, filter, req.Pagination)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	rows, pageInfo, err := pagination.Trim(rows, req.Limit(), func(inv *invoicedomain.Invoice) string {
		return inv.ID.String()
	})
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	now := s.clock.Now()
	invoices := make([]invoicedomain.Invoice, 0, len(rows))
	for _, row := range rows {
		row.PastDue = lifecycle.IsPastDue(*row, now)
		invoices = append(invoices, *row)
	}

	return invoicedomain.ListInvoiceResponse{
		PageInfo: pageInfo,
		Invoices: invoices,
	}, nil
}

func (s *Service) UpdateItems(ctx context.Context, req invoicedomain.UpdateItemsRequest) (invoicedomain.Invoice, error) {
	id, err := parseID(strings.TrimSpace(req.ID))
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}
	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrEmptyItems
	}

	now := s.clock.Now()
	items, err := s.buildItems(ctx, id, req.Items, now)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load invoice: %w", err)
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}

		previousTotal := invoice.Total
		invoice.UpdatedAt = now
		updated, err = lifecycle.Recompute(*invoice, items, invoice.OriginStateCode, invoice.PlaceOfSupply)
		if err != nil {
			return err
		}
		if err := s.repo.ReplaceItems(ctx, tx, &updated); err != nil {
			return err
		}
		return s.recordAudit(ctx, tx, "invoice.items_updated", &updated, map[string]any{
			"previous_total": int64(previousTotal),
			"item_count":     len(updated.Items),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	updated.PastDue = lifecycle.IsPastDue(updated, now)
	return updated, nil
}

func (s *Service) SetStatus(ctx context.Context, req invoicedomain.SetStatusRequest) (invoicedomain.Invoice, error) {
	id, err := parseID(strings.TrimSpace(req.ID))
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now()
	if _, err := s.transition(ctx, id, status, now); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.load(ctx, s.db, id)
}

func (s *Service) BulkSetStatus(ctx context.Context, req invoicedomain.BulkSetStatusRequest) ([]invoicedomain.BulkSetStatusResult, error) {
	if len(req.IDs) == 0 {
		return nil, invoicedomain.ErrEmptyBulk
	}
	if len(req.IDs) > maxBulkSize {
		return nil, ErrBulkTooLarge
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	results := make([]invoicedomain.BulkSetStatusResult, 0, len(req.IDs))
	for _, raw := range req.IDs {
		result := invoicedomain.BulkSetStatusResult{ID: strings.TrimSpace(raw)}
		id, err := parseID(result.ID)
		if err != nil {
			result.Error = invoicedomain.ErrInvalidID.Error()
			results = append(results, result)
			continue
		}

		res, err := s.transition(ctx, id, status, now)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Status = res.Status
			result.Changed = res.changed
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	ids, err := s.repo.ListPastDue(ctx, s.db, now, limit)
	if err != nil {
		return 0, fmt.Errorf("list past due invoices: %w", err)
	}

	marked := 0
	for _, id := range ids {
		result, err := s.transition(ctx, id, invoicedomain.StatusOverdue, now)
		if err != nil {
			// paid or cancelled since the scan
			if errors.Is(err, invoicedomain.ErrInvalidTransition) || errors.Is(err, invoicedomain.ErrNotFound) {
				continue
			}
			return marked, err
		}
		if result.changed {
			marked++
		}
	}
	return marked, nil
}

type transitionResult struct {
	invoicedomain.Invoice
	changed bool
}

// transition runs one status change in its own transaction.
func (s *Service) transition(ctx context.Context, id snowflake.ID, status invoicedomain.Status, now time.Time) (transitionResult, error) {
	var (
		result   transitionResult
		previous invoicedomain.Status
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load invoice: %w", err)
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}

		previous = invoice.Status
		updated, err := lifecycle.SetStatus(*invoice, status, now)
		if err != nil {
			return err
		}
		result.Invoice = updated
		if updated.Status == previous {
			return nil
		}
		result.changed = true

		if err := s.repo.UpdateStatus(ctx, tx, &updated); err != nil {
			return err
		}
		return s.recordAudit(ctx, tx, "invoice.status_changed", &updated, map[string]any{
			"previous_status": string(previous),
		})
	})
	if err != nil {
		return transitionResult{}, err
	}

	if result.changed {
		s.metrics.RecordInvoiceTransition(ctx, string(previous), string(status))
		s.log.Info("invoice status changed",
			zap.String("invoice_id", id.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(status)),
		)
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, conn *gorm.DB, id snowflake.ID) (invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, conn, id)
	if err != nil {
		return invoicedomain.Invoice{}, fmt.Errorf("load invoice: %w", err)
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, conn, id)
	if err != nil {
		return invoicedomain.Invoice{}, fmt.Errorf("load invoice items: %w", err)
	}
	invoice.Items = items
	invoice.PastDue = lifecycle.IsPastDue(*invoice, s.clock.Now())
	return *invoice, nil
}

// buildItems validates caller lines and fills missing rates from the HSN catalog.
func (s *Service) buildItems(ctx context.Context, invoiceID snowflake.ID, inputs []invoicedomain.LineItemInput, now time.Time) ([]invoicedomain.LineItem, error) {
	items := make([]invoicedomain.LineItem, 0, len(inputs))
	for i, in := range inputs {
		description := strings.TrimSpace(in.Description)
		if description == "" {
			return nil, &taxdomain.LineError{Index: i, Err: invoicedomain.ErrInvalidDescription}
		}

		var hsnCode *string
		if code := strings.TrimSpace(in.HSNCode); code != "" {
			if !taxdomain.ValidHSNCode(code) {
				return nil, &taxdomain.LineError{Index: i, Err: taxdomain.ErrInvalidHSNCode}
			}
			hsnCode = &code
		}

		rate, err := s.resolveRate(ctx, in.GSTRate, hsnCode)
		if err != nil {
			return nil, &taxdomain.LineError{Index: i, Err: err}
		}

		items = append(items, invoicedomain.LineItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Description: description,
			HSNCode:     hsnCode,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			GSTRate:     rate,
			CreatedAt:   now,
		})
	}
	return items, nil
}

func (s *Service) resolveRate(ctx context.Context, explicit *taxdomain.Rate, hsnCode *string) (taxdomain.Rate, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if hsnCode == nil || s.rates == nil {
		return 0, invoicedomain.ErrMissingRate
	}
	entry, err := s.rates.Lookup(ctx, *hsnCode)
	if err != nil {
		if errors.Is(err, taxdomain.ErrNotFound) {
			return 0, invoicedomain.ErrMissingRate
		}
		return 0, err
	}
	return entry.Rate, nil
}

func (s *Service) recordAudit(ctx context.Context, tx *gorm.DB, action string, invoice *invoicedomain.Invoice, extra map[string]any) error {
	if s.auditSvc == nil || invoice == nil {
		return nil
	}
	metadata := map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"status":         string(invoice.Status),
		"gst_type":       string(invoice.GSTType),
		"total":          int64(invoice.Total),
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}
	return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:     action,
		TargetType: invoiceTarget,
		TargetID:   invoice.ID.String(),
		Metadata:   metadata,
	})
}

func (s *Service) termDays() int {
	if s.business.PaymentTermDays > 0 {
		return s.business.PaymentTermDays
	}
	return defaultTermDays
}

func parseStatus(raw string) (invoicedomain.Status, error) {
	status := invoicedomain.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", invoicedomain.ErrInvalidStatus
	}
	return status, nil
}

func formatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("INV-%06d", seq)
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(raw)
}
