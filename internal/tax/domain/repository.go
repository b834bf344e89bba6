package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, rate *HSNRate) error
	FindByID(ctx context.Context, id snowflake.ID) (*HSNRate, error)
	FindByCode(ctx context.Context, code string) (*HSNRate, error)
	List(ctx context.Context, filter ListRequest) ([]HSNRate, error)
	Update(ctx context.Context, rate *HSNRate) error
}
