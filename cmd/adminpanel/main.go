package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/db"
	"commercehub-adminpanel/pkg/hashistack/secretmanager"
	"commercehub-adminpanel/pkg/health"
	"commercehub-adminpanel/pkg/logger"
	"commercehub-adminpanel/pkg/otelcol"
	"commercehub-adminpanel/pkg/profiling"
	"commercehub-adminpanel/pkg/redis"
	"commercehub-adminpanel/pkg/server"
	"commercehub-adminpanel/services/federation"
	"commercehub-adminpanel/services/license"
	"commercehub-adminpanel/services/tenant"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		fx.Provide(
			provideTracerProvider,
			provideMeterProvider,
			provideSnowflakeNode,
		),
		otelcol.Module,
		server.ProvideHTTPServer,
		health.Module,
		tenant.Module,
		license.Module,
		federation.Module,
		profiling.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

func provideMeterProvider() metric.MeterProvider {
	return otel.GetMeterProvider()
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
