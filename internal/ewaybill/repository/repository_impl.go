package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/ewaybill/domain"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bill *domain.EwayBill) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO eway_bills (
			id, bill_number, invoice_id, document_number,
			from_state, from_state_code, from_pincode, to_state, to_state_code, to_pincode,
			approx_distance, transport_mode, vehicle_number, transporter_id,
			taxable_value, cgst, sgst, igst, cess, total_value,
			status, generated_date, valid_upto, generated_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID,
		bill.BillNumber,
		bill.InvoiceID,
		bill.DocumentNumber,
		bill.FromState,
		bill.FromStateCode,
		bill.FromPincode,
		bill.ToState,
		bill.ToStateCode,
		bill.ToPincode,
		bill.ApproxDistance,
		bill.TransportMode,
		bill.VehicleNumber,
		bill.TransporterID,
		bill.TaxableValue,
		bill.CGST,
		bill.SGST,
		bill.IGST,
		bill.Cess,
		bill.TotalValue,
		bill.Status,
		bill.GeneratedDate,
		bill.ValidUpto,
		bill.GeneratedBy,
		bill.CreatedAt,
		bill.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.EwayBill, error) {
	var bill domain.EwayBill
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM eway_bills WHERE id = ?`,
		id,
	).Scan(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) FindForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.EwayBill, error) {
	var bill domain.EwayBill
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repo) NumberExists(ctx context.Context, db *gorm.DB, number string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM eway_bills WHERE bill_number = ?`,
		number,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns up to page.Limit()+1 rows, newest first, after the cursor id.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.EwayBill, error) {
	var bills []*domain.EwayBill
	stmt := db.WithContext(ctx).Model(&domain.EwayBill{})

	switch filter.Status {
	case "":
	case domain.StatusCancelled:
		stmt = stmt.Where("status = ?", domain.StatusCancelled)
	case domain.StatusExpired:
		stmt = stmt.Where("status <> ? AND valid_upto < ?", domain.StatusCancelled, filter.Now)
	default:
		stmt = stmt.Where("status = ? AND valid_upto >= ?", filter.Status, filter.Now)
	}
	if filter.InvoiceID != 0 {
		stmt = stmt.Where("invoice_id = ?", filter.InvoiceID)
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
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// Update rewrites the mutable columns. Validity and tax amounts are fixed at
// generation and never written here.
func (r *repo) Update(ctx context.Context, tx *gorm.DB, bill *domain.EwayBill) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE eway_bills
		 SET from_pincode = ?, to_pincode = ?, approx_distance = ?, transport_mode = ?,
		     vehicle_number = ?, transporter_id = ?, status = ?,
		     cancelled_date = ?, cancelled_by = ?, cancel_reason = ?, updated_at = ?
		 WHERE id = ?`,
		bill.FromPincode,
		bill.ToPincode,
		bill.ApproxDistance,
		bill.TransportMode,
		bill.VehicleNumber,
		bill.TransporterID,
		bill.Status,
		bill.CancelledDate,
		bill.CancelledBy,
		bill.CancelReason,
		bill.UpdatedAt,
		bill.ID,
	).Error
}
