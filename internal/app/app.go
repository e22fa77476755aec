package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/config"
	"github.com/textsift/textsift/internal/core/backend"
	"github.com/textsift/textsift/internal/core/batch"
	"github.com/textsift/textsift/internal/core/bridge"
	"github.com/textsift/textsift/internal/core/coordinator"
	"github.com/textsift/textsift/internal/core/input"
	"github.com/textsift/textsift/internal/core/registry"
	"github.com/textsift/textsift/internal/objectstore"
)

// App owns the wired extraction pipeline and its HTTP surface.
type App struct {
	Coordinator *coordinator.Coordinator
	Scheduler   *batch.Scheduler
	Server      *Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	reg := registry.New()

	textBackend := backend.NewTextBackend()
	reg.Register(backend.NewPDFBackend(logger))
	reg.Register(backend.NewHTMLBackend())
	reg.Register(backend.NewOfficeBackend())
	reg.Register(textBackend)
	reg.RegisterFallback(textBackend)

	engine := bridge.NewDocconvEngine(logger)
	reg.RegisterBridge(backend.NewBridgeBackend(engine, logger))

	opener := input.NewOpener()
	if cfg.AwsAccessKey != "" {
		fetcher, err := objectstore.NewS3Fetcher(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		opener.RegisterFetcher("s3", fetcher)
		logger.Info("s3 fetcher registered", zap.String("region", cfg.AwsRegion))
	}

	coord := coordinator.New(reg, opener, logger)
	sched := batch.NewScheduler(coord, logger)
	server := NewServer(cfg, coord, sched, logger)

	return &App{Coordinator: coord, Scheduler: sched, Server: server}, nil
}
