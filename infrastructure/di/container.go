// Package di wires the application together. The graph is small enough to
// wire by hand: storage, the session store, the services and the AI adapter.
package di

import (
	"context"

	"go.uber.org/zap"

	"conceptmap-backend/application/ports"
	"conceptmap-backend/application/services"
	"conceptmap-backend/application/store"
	"conceptmap-backend/infrastructure/ai"
	"conceptmap-backend/infrastructure/config"
	"conceptmap-backend/infrastructure/persistence/badgerstore"
)

// Container holds every constructed component
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	SessionRepository ports.SessionRepository
	SessionStore      *store.SessionStore

	ProjectService    *services.ProjectService
	GraphService      *services.GraphService
	EnrichmentService *services.EnrichmentService
	ExportService     *services.ExportService
}

// NewContainer builds the full dependency graph
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := badgerstore.Open(badgerstore.Config{
		Path:       cfg.DataDir,
		SyncWrites: cfg.IsProduction(),
	}, logger)
	if err != nil {
		return nil, err
	}

	repo := badgerstore.NewSessionRepository(db, logger)
	sessionStore := store.NewSessionStore(ctx, repo, logger)

	generator := ai.NewOpenAIGenerator(cfg.OpenAIAPIKey, logger)

	return &Container{
		Config:            cfg,
		Logger:            logger,
		SessionRepository: repo,
		SessionStore:      sessionStore,
		ProjectService:    services.NewProjectService(sessionStore, logger),
		GraphService:      services.NewGraphService(sessionStore, logger),
		EnrichmentService: services.NewEnrichmentService(sessionStore, generator, cfg.OpenAIModel, logger),
		ExportService:     services.NewExportService(sessionStore, logger),
	}, nil
}

// Shutdown drains in-flight enrichments and closes storage
func (c *Container) Shutdown() error {
	c.EnrichmentService.Wait()
	return c.SessionRepository.Close()
}
