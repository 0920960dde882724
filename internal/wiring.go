package internal

import (
	"fmt"
	"log/slog"

	"github.com/starford/specgraph/internal/index"
	"github.com/starford/specgraph/internal/specservice"
	"github.com/starford/specgraph/internal/storage"
)

// NewStore opens the spec tree described by cfg.Specs.
func NewStore(cfg *Config) (*storage.FS, error) {
	store, err := storage.NewFS(cfg.Specs.Root,
		storage.WithFilename(cfg.Specs.Filename),
		storage.WithWorkers(cfg.Specs.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// NewService wires the analysers configured in cfg over store. db may be
// nil, which disables search.
func NewService(cfg *Config, store storage.DocumentStore, db index.SpecIndex, logger *slog.Logger) *specservice.Service {
	return specservice.New(store, db, specservice.Options{
		Policy:   cfg.Risk,
		MaxDepth: cfg.Impact.MaxDepth,
		TopN:     cfg.Health.TopN,
		Logger:   logger,
	})
}
