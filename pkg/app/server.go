package app

// pkg/app/server.go bridges Application to internal/server: boot the
// services, build the handler, serve until a signal arrives.

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/server"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

// Serve runs pending migrations, starts the background services and serves
// HTTP (plus gRPC when GRPC_PORT is set) until SIGINT or SIGTERM.
func (a *Application) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	closeLogs, err := logger.Setup(logger.OptionsFromConfig())
	if err != nil {
		return err
	}
	defer closeLogs()

	s, err := Boot(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ran, err := migration.New(s.DB).Run()
	if err != nil {
		return err
	}
	if len(ran) > 0 {
		logger.Info("migrations applied", "count", len(ran))
	}

	s.Start(ctx)

	return server.Run(ctx, buildHandler(a, s), server.Options{
		Addr:     ":" + config.AppPort(),
		GRPCPort: config.GRPCPort(),
		Check:    s.Ping,
	})
}
