package lock

import "go.uber.org/fx"

var Module = fx.Module("policy.lock",
	fx.Provide(NewPolicyLock),
)
