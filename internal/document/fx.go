package document

import "go.uber.org/fx"

var Module = fx.Module("document.service",
	fx.Provide(New),
)
