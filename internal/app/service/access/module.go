package access

import "go.uber.org/fx"

// Module exposes the course access service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
