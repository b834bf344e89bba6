package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/clock"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/smallbiznis/gstbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  taxdomain.Repository
}

// Service manages the HSN/SAC rate catalog.
type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  taxdomain.Repository
}

func NewService(p serviceParams) taxdomain.Service {
	return &Service{
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Lookup(ctx context.Context, code string) (*taxdomain.HSNRate, error) {
	code = strings.TrimSpace(code)
	if !taxdomain.ValidHSNCode(code) {
		return nil, taxdomain.ErrInvalidHSNCode
	}
	item, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, taxdomain.ErrNotFound
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	if req.Rate != nil && !req.Rate.Valid() {
		return nil, taxdomain.ErrInvalidRate
	}
	items, err := s.repo.List(ctx, taxdomain.ListRequest{
		Code: strings.TrimSpace(req.Code),
		Rate: req.Rate,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]taxdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	now := s.clock.Now()
	record := &taxdomain.HSNRate{
		ID:          s.genID.Generate(),
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Rate:        req.Rate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, taxdomain.ErrHSNCodeTaken
		}
		return nil, err
	}
	s.log.Info("hsn rate created",
		zap.String("code", record.Code),
		zap.Int("rate", int(record.Rate)),
	)

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, taxdomain.ErrNotFound
	}

	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Rate != nil {
		item.Rate = *req.Rate
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func toResponse(r *taxdomain.HSNRate) taxdomain.Response {
	return taxdomain.Response{
		ID:          r.ID.String(),
		Code:        r.Code,
		Description: r.Description,
		Rate:        r.Rate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
