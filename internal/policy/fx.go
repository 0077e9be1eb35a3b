package policy

import (
	"github.com/smallbiznis/brokerage/internal/policy/repository"
	"github.com/smallbiznis/brokerage/internal/policy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("policy.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
