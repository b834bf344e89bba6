package audit

import (
	"github.com/smallbiznis/gstbook/internal/audit/repository"
	"github.com/smallbiznis/gstbook/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
