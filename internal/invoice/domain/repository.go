package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	NextSequence(ctx context.Context, db *gorm.DB) (int64, error)
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	// FindForUpdate loads the invoice row locked for the rest of the transaction.
	FindForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Invoice, error)
	ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]LineItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	ReplaceItems(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	ListPastDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]snowflake.ID, error)
}
