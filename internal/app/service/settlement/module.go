package settlement

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/coursemint/settlement/internal/app/service/access"
	"github.com/coursemint/settlement/internal/app/service/eventlog"
	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/app/service/subscription"
)

func newSettler(log *zap.SugaredLogger, orders *order.Service, acc *access.Service, subs *subscription.Service, events *eventlog.Service) Settler {
	return NewService(log, orders, acc, subs, events)
}

// Module exposes the settlement pipeline via Fx.
var Module = fx.Options(
	fx.Provide(newSettler),
)
