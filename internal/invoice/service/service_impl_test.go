package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/gstbook/internal/audit/domain"
	auditrepository "github.com/smallbiznis/gstbook/internal/audit/repository"
	auditservice "github.com/smallbiznis/gstbook/internal/audit/service"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	customerdomain "github.com/smallbiznis/gstbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/internal/invoice/repository"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockCustomerSvc struct {
	mock.Mock
}

func (m *mockCustomerSvc) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(customerdomain.Customer), args.Error(1)
}

func (m *mockCustomerSvc) List(ctx context.Context, req customerdomain.ListCustomerRequest) (customerdomain.ListCustomerResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(customerdomain.ListCustomerResponse), args.Error(1)
}

func (m *mockCustomerSvc) GetByID(ctx context.Context, id string) (customerdomain.Customer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(customerdomain.Customer), args.Error(1)
}

type mockTaxSvc struct {
	mock.Mock
}

func (m *mockTaxSvc) Lookup(ctx context.Context, code string) (*taxdomain.HSNRate, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxdomain.HSNRate), args.Error(1)
}

func (m *mockTaxSvc) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

func (m *mockTaxSvc) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

func (m *mockTaxSvc) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

type fixture struct {
	svc       invoicedomain.Service
	db        *gorm.DB
	clock     *clock.FakeClock
	customers *mockCustomerSvc
	rates     *mockTaxSvc
	audit     auditdomain.Service

	intrastate customerdomain.Customer
	interstate customerdomain.Customer
}

var start = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(start)

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  auditrepository.Provide(),
	})

	f := &fixture{
		db:         db,
		clock:      fake,
		customers:  &mockCustomerSvc{},
		rates:      &mockTaxSvc{},
		audit:      audit,
		intrastate: customerdomain.Customer{ID: node.Generate(), Name: "Bengaluru Stores", StateCode: "29"},
		interstate: customerdomain.Customer{ID: node.Generate(), Name: "Pune Retail", StateCode: "27"},
	}
	f.customers.On("GetByID", mock.Anything, f.intrastate.ID.String()).Return(f.intrastate, nil)
	f.customers.On("GetByID", mock.Anything, f.interstate.ID.String()).Return(f.interstate, nil)
	f.customers.On("GetByID", mock.Anything, mock.Anything).Return(customerdomain.Customer{}, customerdomain.ErrNotFound)

	f.svc = NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Config:      config.Config{Business: config.BusinessConfig{StateCode: "29", PaymentTermDays: 15}},
		Repo:        repository.Provide(),
		CustomerSvc: f.customers,
		TaxSvc:      f.rates,
		AuditSvc:    audit,
	})
	return f
}

func rate(r taxdomain.Rate) *taxdomain.Rate { return &r }

func line(desc string, qty int64, price taxdomain.Money, r taxdomain.Rate) invoicedomain.LineItemInput {
	return invoicedomain.LineItemInput{
		Description: desc,
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   price,
		GSTRate:     rate(r),
	}
}

func (f *fixture) create(t *testing.T, customer customerdomain.Customer) invoicedomain.Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Items: []invoicedomain.LineItemInput{
			line("Desk", 1, 50000, taxdomain.RateEighteen),
			line("Chair", 3, 15000, taxdomain.RateEighteen),
		},
	})
	require.NoError(t, err)
	return inv
}

func TestCreateIntrastateInvoice(t *testing.T) {
	f := newFixture(t)

	inv := f.create(t, f.intrastate)
	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	assert.Equal(t, invoicedomain.StatusDraft, inv.Status)
	assert.Equal(t, taxdomain.GSTTypeIntrastate, inv.GSTType)
	assert.Equal(t, "29", inv.OriginStateCode)
	assert.Equal(t, "29", inv.PlaceOfSupply)
	assert.Equal(t, taxdomain.Money(95000), inv.Subtotal)
	assert.Equal(t, taxdomain.Money(8550), inv.CGSTAmount)
	assert.Equal(t, taxdomain.Money(8550), inv.SGSTAmount)
	assert.Equal(t, taxdomain.Money(17100), inv.TotalGST)
	assert.Equal(t, taxdomain.Money(112100), inv.Total)
	assert.Equal(t, start.AddDate(0, 0, 15), inv.DueDate)

	got, err := f.svc.GetByID(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, inv.Total, got.Total)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Desk", got.Items[0].Description)
	assert.Equal(t, "Chair", got.Items[1].Description)
	assert.True(t, decimal.NewFromInt(3).Equal(got.Items[1].Quantity))
	assert.Equal(t, taxdomain.Money(4050), got.Items[1].CGST)

	second := f.create(t, f.interstate)
	assert.Equal(t, "INV-000002", second.InvoiceNumber)
	assert.Equal(t, taxdomain.GSTTypeInterstate, second.GSTType)
	assert.Equal(t, taxdomain.Money(17100), second.IGSTAmount)
	assert.Equal(t, taxdomain.Money(0), second.CGSTAmount)

	logs, err := f.audit.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "invoice.created"})
	require.NoError(t, err)
	assert.Len(t, logs.AuditLogs, 2)
}

func TestCreateFillsRateFromHSNCatalog(t *testing.T) {
	f := newFixture(t)
	f.rates.On("Lookup", mock.Anything, "8471").Return(&taxdomain.HSNRate{Code: "8471", Rate: taxdomain.RateTwelve}, nil)
	f.rates.On("Lookup", mock.Anything, "0401").Return(nil, taxdomain.ErrNotFound)

	inv, err := f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CustomerID: f.intrastate.ID.String(),
		Items: []invoicedomain.LineItemInput{
			{Description: "Laptop", HSNCode: "8471", Quantity: decimal.NewFromInt(1), UnitPrice: 100000},
		},
	})
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, taxdomain.RateTwelve, inv.Items[0].GSTRate)
	require.NotNil(t, inv.Items[0].HSNCode)
	assert.Equal(t, "8471", *inv.Items[0].HSNCode)
	assert.Equal(t, taxdomain.Money(6000), inv.CGSTAmount)

	_, err = f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CustomerID: f.intrastate.ID.String(),
		Items: []invoicedomain.LineItemInput{
			line("Desk", 1, 100, taxdomain.RateFive),
			{Description: "Milk", HSNCode: "0401", Quantity: decimal.NewFromInt(1), UnitPrice: 100},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, invoicedomain.ErrMissingRate))
	var lineErr *taxdomain.LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 1, lineErr.Index)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customerID := f.intrastate.ID.String()

	_, err := f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: "abc", Items: []invoicedomain.LineItemInput{line("A", 1, 1, 5)}})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidCustomer)

	_, err = f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: "12345", Items: []invoicedomain.LineItemInput{line("A", 1, 1, 5)}})
	assert.ErrorIs(t, err, invoicedomain.ErrCustomerNotFound)

	_, err = f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: customerID})
	assert.ErrorIs(t, err, invoicedomain.ErrEmptyItems)

	_, err = f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: customerID, Items: []invoicedomain.LineItemInput{line(" ", 1, 1, 5)}})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidDescription)

	_, err = f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: customerID, Items: []invoicedomain.LineItemInput{line("A", 0, 1, 5)}})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidQuantity)
	assert.ErrorIs(t, err, taxdomain.ErrInvalidInput)

	_, err = f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: customerID, Items: []invoicedomain.LineItemInput{line("A", 1, 1, 7)}})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidRate)

	before := start.Add(-24 * time.Hour)
	_, err = f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{CustomerID: customerID, DueDate: &before, Items: []invoicedomain.LineItemInput{line("A", 1, 1, 5)}})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidDueDate)

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.create(t, f.intrastate)

	_, err := f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: inv.ID.String(), Status: "paid"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	sent, err := f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: inv.ID.String(), Status: "SENT"})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusSent, sent.Status)
	assert.Len(t, sent.Items, 2)

	f.clock.Advance(time.Hour)
	paidAt := f.clock.Now()
	paid, err := f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: inv.ID.String(), Status: "paid"})
	require.NoError(t, err)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paidAt.Equal(*paid.PaidDate))

	f.clock.Advance(time.Hour)
	again, err := f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: inv.ID.String(), Status: "paid"})
	require.NoError(t, err)
	assert.True(t, paidAt.Equal(*again.PaidDate))

	_, err = f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: inv.ID.String(), Status: "cancelled"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	_, err = f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: inv.ID.String(), Status: "archived"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)

	_, err = f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: "999", Status: "sent"})
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	logs, err := f.audit.List(ctx, auditdomain.ListAuditLogRequest{Action: "invoice.status_changed", TargetID: inv.ID.String()})
	require.NoError(t, err)
	assert.Len(t, logs.AuditLogs, 2)
}

func TestUpdateItemsRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.create(t, f.interstate)

	updated, err := f.svc.UpdateItems(ctx, invoicedomain.UpdateItemsRequest{
		ID:    inv.ID.String(),
		Items: []invoicedomain.LineItemInput{line("Printer", 1, 120000, taxdomain.RateEighteen)},
	})
	require.NoError(t, err)
	assert.Equal(t, taxdomain.Money(120000), updated.Subtotal)
	assert.Equal(t, taxdomain.Money(21600), updated.IGSTAmount)
	assert.Equal(t, taxdomain.Money(141600), updated.Total)

	got, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Printer", got.Items[0].Description)
	assert.Equal(t, taxdomain.Money(141600), got.Total)

	_, err = f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: inv.ID.String(), Status: "cancelled"})
	require.NoError(t, err)
	_, err = f.svc.UpdateItems(ctx, invoicedomain.UpdateItemsRequest{
		ID:    inv.ID.String(),
		Items: []invoicedomain.LineItemInput{line("Printer", 2, 120000, taxdomain.RateEighteen)},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	got, err = f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, taxdomain.Money(141600), got.Total)
}

func TestBulkSetStatusIsPerItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, f.intrastate)
	b := f.create(t, f.intrastate)
	_, err := f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: b.ID.String(), Status: "cancelled"})
	require.NoError(t, err)

	results, err := f.svc.BulkSetStatus(ctx, invoicedomain.BulkSetStatusRequest{
		IDs:    []string{a.ID.String(), b.ID.String(), "nope"},
		Status: "sent",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Empty(t, results[0].Error)
	assert.True(t, results[0].Changed)
	assert.Equal(t, invoicedomain.StatusSent, results[0].Status)
	assert.Contains(t, results[1].Error, "invalid_transition")
	assert.Equal(t, "invalid_id", results[2].Error)

	_, err = f.svc.BulkSetStatus(ctx, invoicedomain.BulkSetStatusRequest{Status: "sent"})
	assert.ErrorIs(t, err, invoicedomain.ErrEmptyBulk)
}

func TestMarkOverdueSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	due := f.create(t, f.intrastate)
	draft := f.create(t, f.intrastate)
	_, err := f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: due.ID.String(), Status: "sent"})
	require.NoError(t, err)

	marked, err := f.svc.MarkOverdue(ctx, start.AddDate(0, 0, 10), 10)
	require.NoError(t, err)
	assert.Zero(t, marked)

	later := start.AddDate(0, 0, 16)
	f.clock.Set(later)
	got, err := f.svc.GetByID(ctx, due.ID.String())
	require.NoError(t, err)
	assert.True(t, got.PastDue)
	assert.Equal(t, invoicedomain.StatusSent, got.Status)

	marked, err = f.svc.MarkOverdue(ctx, later, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err = f.svc.GetByID(ctx, due.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusOverdue, got.Status)

	untouched, err := f.svc.GetByID(ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusDraft, untouched.Status)

	marked, err = f.svc.MarkOverdue(ctx, later, 10)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.create(t, f.intrastate)
	}
	other := f.create(t, f.interstate)
	_, err := f.svc.SetStatus(ctx, invoicedomain.SetStatusRequest{ID: other.ID.String(), Status: "sent"})
	require.NoError(t, err)

	page, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{
		Pagination: pagination.Pagination{PageSize: 2},
		CustomerID: f.intrastate.ID.String(),
	})
	require.NoError(t, err)
	assert.Len(t, page.Invoices, 2)
	assert.True(t, page.HasMore)

	next, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken},
		CustomerID: f.intrastate.ID.String(),
	})
	require.NoError(t, err)
	assert.Len(t, next.Invoices, 1)
	assert.False(t, next.HasMore)

	sent, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: "sent"})
	require.NoError(t, err)
	require.Len(t, sent.Invoices, 1)
	assert.Equal(t, other.ID, sent.Invoices[0].ID)

	_, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: "bogus"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)
}
