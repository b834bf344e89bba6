package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/audit"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/smallbiznis/gstbook/internal/customer"
	"github.com/smallbiznis/gstbook/internal/invoice"
	"github.com/smallbiznis/gstbook/internal/observability"
	"github.com/smallbiznis/gstbook/internal/ratelimit"
	"github.com/smallbiznis/gstbook/internal/scheduler"
	"github.com/smallbiznis/gstbook/internal/tax"
	"github.com/smallbiznis/gstbook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		// redis lock keeps scaled-out sweepers from overlapping
		ratelimit.Module,

		// Domain services required by the sweep
		audit.Module,
		tax.Module,
		customer.Module,
		invoice.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

// Node 2 so audit ids written by the sweep never collide with the api's.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
