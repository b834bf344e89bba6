package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/gstbook/internal/audit/domain"
	"github.com/smallbiznis/gstbook/internal/audit/repository"
	"github.com/smallbiznis/gstbook/internal/clock"
	obscontext "github.com/smallbiznis/gstbook/internal/observability/context"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestRecordCapturesContextAndMasks(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := obscontext.WithRequestID(context.Background(), "req-9")
	ctx = obscontext.WithActor(ctx, obscontext.ActorTypeUser, "ops@acme.in")

	err := svc.Record(ctx, nil, auditdomain.Entry{
		Action:     "invoice.status_changed",
		TargetType: "invoice",
		TargetID:   "101",
		Metadata:   map[string]any{"from": "draft", "to": "sent", "gstin": "29ABCDE1234F1Z5"},
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{TargetType: "invoice", TargetID: "101"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	log := resp.AuditLogs[0]
	assert.Equal(t, auditdomain.ActorTypeUser, log.ActorType)
	require.NotNil(t, log.ActorID)
	assert.Equal(t, "ops@acme.in", *log.ActorID)
	require.NotNil(t, log.RequestID)
	assert.Equal(t, "req-9", *log.RequestID)
	assert.Equal(t, "sent", log.Metadata["to"])
	assert.Equal(t, "29****F1Z5", log.Metadata["gstin"])
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc, db := newTestService(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Record(context.Background(), tx, auditdomain.Entry{Action: "invoice.overdue"})
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, auditdomain.ActorTypeSystem, resp.AuditLogs[0].ActorType)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)

	assert.ErrorIs(t, svc.Record(context.Background(), nil, auditdomain.Entry{}), auditdomain.ErrInvalidAction)
}

func TestListPagesAndValidates(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(context.Background(), nil, auditdomain.Entry{Action: "eway_bill.generated", TargetType: "eway_bill"}))
	}

	first, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)

	second, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	assert.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	_, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "garbage!"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}
