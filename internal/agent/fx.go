package agent

import (
	"github.com/smallbiznis/brokerage/internal/agent/repository"
	"github.com/smallbiznis/brokerage/internal/agent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
