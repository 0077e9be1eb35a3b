package storage

import "go.uber.org/fx"

var Module = fx.Module("storage.provider",
	fx.Provide(NewStore),
)
