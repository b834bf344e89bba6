package ewaybill

import (
	"github.com/smallbiznis/gstbook/internal/ewaybill/repository"
	"github.com/smallbiznis/gstbook/internal/ewaybill/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ewaybill.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
