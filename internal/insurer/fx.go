package insurer

import (
	"github.com/smallbiznis/brokerage/internal/insurer/repository"
	"github.com/smallbiznis/brokerage/internal/insurer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("insurer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
