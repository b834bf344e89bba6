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
	"github.com/smallbiznis/gstbook/internal/server"
	"github.com/smallbiznis/gstbook/internal/tax"
	"github.com/smallbiznis/gstbook/pkg/db"
	"go.uber.org/fx"
)

// api serves HTTP only. Run apps/scheduler alongside it for the overdue sweep.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		audit.Module,
		tax.Module,
		customer.Module,
		invoice.Module,
		ewaybill.Module,

		server.Module,
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
