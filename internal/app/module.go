package app

import (
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/fx"

	"github.com/fatflowers/paygate/internal/app/api/server"
	"github.com/fatflowers/paygate/internal/app/service/callback"
	callbacklog "github.com/fatflowers/paygate/internal/app/service/callback_log"
	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/internal/app/service/statistics"
	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/platform/db"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/logger"
	"github.com/fatflowers/paygate/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	fx.Provide(func() clockz.Clock { return clockz.RealClock }),
	server.Module,
	wallet.Module,
	gateway.Module,
	callbacklog.Module,
	callback.Module,
	statistics.Module,
)
