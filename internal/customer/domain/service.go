package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/gstbook/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken string
	PageSize  int
	Name      string
	StateCode string
	GSTIN     string
}

type ListCustomerFilter struct {
	Name      string
	StateCode string
	GSTIN     string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
	Pincode   string `json:"pincode"`
	Address   string `json:"address"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, string) (Customer, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidGSTIN     = errors.New("invalid_gstin")
	ErrInvalidStateCode = errors.New("invalid_state_code")
	ErrInvalidPincode   = errors.New("invalid_pincode")
	ErrStateMismatch    = errors.New("gstin_state_mismatch")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
