package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/audit"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/smallbiznis/gstbook/internal/customer"
	"github.com/smallbiznis/gstbook/internal/ewaybill"
	"github.com/smallbiznis/gstbook/internal/invoice"
	"github.com/smallbiznis/gstbook/internal/migration"
	"github.com/smallbiznis/gstbook/internal/observability"
	"github.com/smallbiznis/gstbook/internal/ratelimit"
	"github.com/smallbiznis/gstbook/internal/scheduler"
	"github.com/smallbiznis/gstbook/internal/server"
	"github.com/smallbiznis/gstbook/internal/tax"
	"github.com/smallbiznis/gstbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Functional Domains
		audit.Module,
		tax.Module,
		customer.Module,
		invoice.Module,
		ewaybill.Module,

		scheduler.Module,
		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
