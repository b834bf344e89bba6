package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB) (int64, error) {
	var next int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM invoices`,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, invoice_number, sequence, customer_id, origin_state_code, place_of_supply,
			gst_type, subtotal, cgst_amount, sgst_amount, igst_amount, total_gst, total,
			status, issue_date, due_date, paid_date, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.Sequence,
		invoice.CustomerID,
		invoice.OriginStateCode,
		invoice.PlaceOfSupply,
		invoice.GSTType,
		invoice.Subtotal,
		invoice.CGSTAmount,
		invoice.SGSTAmount,
		invoice.IGSTAmount,
		invoice.TotalGST,
		invoice.Total,
		invoice.Status,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.PaidDate,
		invoice.Notes,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
	if err != nil {
		return err
	}
	return r.insertItems(ctx, db, invoice.Items)
}

func (r *repo) insertItems(ctx context.Context, db *gorm.DB, items []domain.LineItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO invoice_items (
				id, invoice_id, position, description, hsn_code, quantity, unit_price, gst_rate,
				taxable_value, cgst, sgst, igst, gst_amount, line_total, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.InvoiceID,
			item.Position,
			item.Description,
			item.HSNCode,
			item.Quantity,
			item.UnitPrice,
			item.GSTRate,
			item.TaxableValue,
			item.CGST,
			item.SGST,
			item.IGST,
			item.GSTAmount,
			item.LineTotal,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

const selectInvoice = `SELECT id, invoice_number, sequence, customer_id, origin_state_code, place_of_supply,
	gst_type, subtotal, cgst_amount, sgst_amount, igst_amount, total_gst, total,
	status, issue_date, due_date, paid_date, notes, created_at, updated_at
	FROM invoices`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(selectInvoice+` WHERE id = ?`, id).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) FindForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, invoice_id, position, description, hsn_code, quantity, unit_price, gst_rate,
		        taxable_value, cgst, sgst, igst, gst_amount, line_total, created_at
		 FROM invoice_items
		 WHERE invoice_id = ?
		 ORDER BY position ASC`,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// List returns up to page.Limit()+1 rows, newest first, after the cursor id.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		stmt = stmt.Where("id < ?", id)
	}
	err := stmt.
		Order("id desc").
		Limit(page.Limit() + 1).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) UpdateStatus(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, paid_date = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.Status,
		invoice.PaidDate,
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

// ReplaceItems swaps the stored lines for invoice.Items and rewrites the totals.
func (r *repo) ReplaceItems(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	if err := tx.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id = ?`,
		invoice.ID,
	).Error; err != nil {
		return err
	}
	if err := r.insertItems(ctx, tx, invoice.Items); err != nil {
		return err
	}
	return tx.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET gst_type = ?, subtotal = ?, cgst_amount = ?, sgst_amount = ?, igst_amount = ?,
		     total_gst = ?, total = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.GSTType,
		invoice.Subtotal,
		invoice.CGSTAmount,
		invoice.SGSTAmount,
		invoice.IGSTAmount,
		invoice.TotalGST,
		invoice.Total,
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

func (r *repo) ListPastDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("status = ? AND due_date < ?", domain.StatusSent, now).
		Order("due_date asc").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
