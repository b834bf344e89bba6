package domain

import (
	"context"
	"time"
)

// RateResolver finds the slab for an HSN/SAC code.
type RateResolver interface {
	Lookup(ctx context.Context, code string) (*HSNRate, error)
}

type Service interface {
	RateResolver
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

type ListRequest struct {
	Code string
	Rate *Rate
}

type CreateRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Rate        Rate   `json:"rate"`
}

type UpdateRequest struct {
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`
	Rate        *Rate   `json:"rate,omitempty"`
}

type Response struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Rate        Rate      `json:"rate"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
