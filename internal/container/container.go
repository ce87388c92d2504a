// Package container wires the application's components together.
package container

import (
	"ayursense/app"
	"ayursense/domain/fusion"
	"ayursense/internal"
	"ayursense/internal/api"
	"ayursense/internal/cache"
	"ayursense/internal/config"
)

// Container holds the wired application graph.
type Container struct {
	Config   *config.Config
	Logger   *internal.Logger
	Cache    *cache.LRU
	Pipeline *app.PulsePipeline
	Service  *app.Service
	API      *api.Server
}

// New builds the full application from configuration.
func New(cfg *config.Config, log *internal.Logger) *Container {
	if log == nil {
		log = internal.DefaultLogger
	}

	resultCache := cache.NewLRU(cfg.Cache.Capacity)
	pipeline := app.NewPulsePipeline(resultCache)
	service := app.NewService(pipeline, fusion.NewEngine(cfg.FusionEngineConfig()), cfg.Pulse.ModalityTimeout, log)

	return &Container{
		Config:   cfg,
		Logger:   log,
		Cache:    resultCache,
		Pipeline: pipeline,
		Service:  service,
		API:      api.NewServer(service, cfg.Pulse.SyntheticSeed, log),
	}
}
