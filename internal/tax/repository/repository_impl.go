package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

const hsnColumns = `id, code, description, rate, created_at, updated_at`

func (r *repository) Create(ctx context.Context, rate *taxdomain.HSNRate) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO hsn_rates (`+hsnColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rate.ID,
		rate.Code,
		rate.Description,
		rate.Rate,
		rate.CreatedAt,
		rate.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*taxdomain.HSNRate, error) {
	return r.findOne(ctx, `SELECT `+hsnColumns+` FROM hsn_rates WHERE id = ?`, id)
}

func (r *repository) FindByCode(ctx context.Context, code string) (*taxdomain.HSNRate, error) {
	return r.findOne(ctx, `SELECT `+hsnColumns+` FROM hsn_rates WHERE code = ?`, code)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*taxdomain.HSNRate, error) {
	var rate taxdomain.HSNRate
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rate).Error; err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repository) List(ctx context.Context, filter taxdomain.ListRequest) ([]taxdomain.HSNRate, error) {
	var items []taxdomain.HSNRate
	stmt := r.db.WithContext(ctx).Model(&taxdomain.HSNRate{})
	if filter.Code != "" {
		stmt = stmt.Where("code LIKE ?", filter.Code+"%")
	}
	if filter.Rate != nil {
		stmt = stmt.Where("rate = ?", *filter.Rate)
	}
	if err := stmt.Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, rate *taxdomain.HSNRate) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE hsn_rates SET description = ?, rate = ?, updated_at = ? WHERE id = ?`,
		rate.Description,
		rate.Rate,
		rate.UpdatedAt,
		rate.ID,
	).Error
}
