package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/agent"
	"github.com/smallbiznis/brokerage/internal/asset"
	"github.com/smallbiznis/brokerage/internal/audit"
	"github.com/smallbiznis/brokerage/internal/authorization"
	"github.com/smallbiznis/brokerage/internal/client"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	"github.com/smallbiznis/brokerage/internal/events"
	"github.com/smallbiznis/brokerage/internal/insurer"
	"github.com/smallbiznis/brokerage/internal/lock"
	"github.com/smallbiznis/brokerage/internal/observability"
	"github.com/smallbiznis/brokerage/internal/policy"
	"github.com/smallbiznis/brokerage/internal/quotation"
	"github.com/smallbiznis/brokerage/internal/rating"
	"github.com/smallbiznis/brokerage/internal/server"
	"github.com/smallbiznis/brokerage/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		events.Module,

		audit.Module,
		authorization.Module,
		client.Module,
		agent.Module,
		asset.Module,
		insurer.Module,
		rating.Module,
		quotation.Module,
		policy.Module,

		// HTTP only, migrations are applied by the monolith or a release job
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
