package app

import (
	"time"

	"github.com/coursemint/settlement/internal/app/api/server"
	"github.com/coursemint/settlement/internal/app/service/access"
	"github.com/coursemint/settlement/internal/app/service/diagnostics"
	"github.com/coursemint/settlement/internal/app/service/eventlog"
	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/app/service/settlement"
	"github.com/coursemint/settlement/internal/app/service/statistics"
	"github.com/coursemint/settlement/internal/app/service/subscription"
	"github.com/coursemint/settlement/internal/platform/db"
	"github.com/coursemint/settlement/pkg/config"
	"github.com/coursemint/settlement/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	order.Module,
	access.Module,
	subscription.Module,
	settlement.Module,
	eventlog.Module,
	statistics.Module,
	diagnostics.Module,
)
