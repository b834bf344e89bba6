package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/customer/domain"
	"github.com/smallbiznis/gstbook/internal/customer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateDerivesStateFromGSTIN(t *testing.T) {
	svc := newTestService(t)

	c, err := svc.Create(context.Background(), domain.CreateCustomerRequest{
		Name:    "Acme Traders",
		Email:   "accounts@acme.in",
		GSTIN:   "29abcde1234f1z5",
		Pincode: "560001",
	})
	require.NoError(t, err)
	assert.Equal(t, "29", c.StateCode)
	require.NotNil(t, c.GSTIN)
	assert.Equal(t, "29ABCDE1234F1Z5", *c.GSTIN)
	assert.True(t, c.Registered())

	got, err := svc.GetByID(context.Background(), c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, "29ABCDE1234F1Z5", *got.GSTIN)
}

func TestCreateUnregisteredNeedsStateCode(t *testing.T) {
	svc := newTestService(t)

	c, err := svc.Create(context.Background(), domain.CreateCustomerRequest{
		Name: "Walk-in", Email: "walkin@example.com", StateCode: "7", Pincode: "110001",
	})
	require.NoError(t, err)
	assert.Equal(t, "07", c.StateCode)
	assert.False(t, c.Registered())

	got, err := svc.GetByID(context.Background(), c.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got.GSTIN)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	base := domain.CreateCustomerRequest{Name: "A", Email: "a@b.in", StateCode: "27", Pincode: "400001"}

	cases := []struct {
		name string
		mut  func(r *domain.CreateCustomerRequest)
		want error
	}{
		{"blank name", func(r *domain.CreateCustomerRequest) { r.Name = " " }, domain.ErrInvalidName},
		{"bad email", func(r *domain.CreateCustomerRequest) { r.Email = "nobody" }, domain.ErrInvalidEmail},
		{"no state", func(r *domain.CreateCustomerRequest) { r.StateCode = "" }, domain.ErrInvalidStateCode},
		{"retired state", func(r *domain.CreateCustomerRequest) { r.StateCode = "28" }, domain.ErrInvalidStateCode},
		{"bad gstin", func(r *domain.CreateCustomerRequest) { r.GSTIN = "27ABCDE1234F1Z" }, domain.ErrInvalidGSTIN},
		{"state mismatch", func(r *domain.CreateCustomerRequest) { r.GSTIN = "29ABCDE1234F1Z5" }, domain.ErrStateMismatch},
		{"bad pincode", func(r *domain.CreateCustomerRequest) { r.Pincode = "04001" }, domain.ErrInvalidPincode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mut(&req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGetByIDErrors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, domain.CreateCustomerRequest{
			Name: fmt.Sprintf("Customer %d", i), Email: "c@x.in", StateCode: "33", Pincode: "600001",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name: "Other", Email: "o@x.in", StateCode: "32", Pincode: "682001",
	})
	require.NoError(t, err)

	first, err := svc.List(ctx, domain.ListCustomerRequest{StateCode: "33", PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.Customers, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, "Customer 4", first.Customers[0].Name)

	second, err := svc.List(ctx, domain.ListCustomerRequest{StateCode: "33", PageSize: 3, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Customers, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, "Customer 1", second.Customers[0].Name)

	byName, err := svc.List(ctx, domain.ListCustomerRequest{Name: "oth"})
	require.NoError(t, err)
	require.Len(t, byName.Customers, 1)
	assert.Equal(t, "32", byName.Customers[0].StateCode)
}
