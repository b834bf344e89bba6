package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/customer/domain"
	"github.com/smallbiznis/gstbook/internal/statecode"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Customer{}, domain.ErrInvalidEmail
	}

	stateCode, gstin, err := resolveState(req.StateCode, req.GSTIN)
	if err != nil {
		return domain.Customer{}, err
	}

	pincode := strings.TrimSpace(req.Pincode)
	if !statecode.ValidatePincode(pincode) {
		return domain.Customer{}, domain.ErrInvalidPincode
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		GSTIN:     gstin,
		StateCode: stateCode,
		Pincode:   pincode,
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	s.log.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("state_code", customer.StateCode),
		zap.Bool("registered", customer.Registered()),
	)
	return customer, nil
}

// resolveState derives the place of supply. A GSTIN fixes the state; an explicit
// state code must then agree with it.
func resolveState(rawCode, rawGSTIN string) (string, *string, error) {
	code := statecode.NormalizeCode(rawCode)
	if code != "" && !statecode.IsValidCode(code) {
		return "", nil, domain.ErrInvalidStateCode
	}

	if strings.TrimSpace(rawGSTIN) == "" {
		if code == "" {
			return "", nil, domain.ErrInvalidStateCode
		}
		return code, nil, nil
	}

	if !statecode.ValidateGSTIN(rawGSTIN) {
		return "", nil, domain.ErrInvalidGSTIN
	}
	gstin := statecode.NormalizeGSTIN(rawGSTIN)
	fromGSTIN, _ := statecode.StateCodeFromGSTIN(gstin)
	if code != "" && code != fromGSTIN {
		return "", nil, domain.ErrStateMismatch
	}
	return fromGSTIN, &gstin, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Name:      strings.ToLower(strings.TrimSpace(req.Name)),
		StateCode: statecode.NormalizeCode(req.StateCode),
	}
	if gstin := strings.TrimSpace(req.GSTIN); gstin != "" {
		filter.GSTIN = statecode.NormalizeGSTIN(gstin)
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, pageInfo, err := pagination.Trim(items, page.Limit(), func(c *domain.Customer) string {
		return c.ID.String()
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, *item)
	}
	return domain.ListCustomerResponse{PageInfo: pageInfo, Customers: customers}, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Customer, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}
