package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"conceptmap-backend/infrastructure/di"
	"conceptmap-backend/interfaces/http/rest/handlers"
	"conceptmap-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	container *di.Container
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(container *di.Container, logger *zap.Logger) *Router {
	return &Router{container: container, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.container.Config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)

	projectHandler := handlers.NewProjectHandler(rt.container.ProjectService, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.container.GraphService, rt.logger)
	enrichmentHandler := handlers.NewEnrichmentHandler(rt.container.EnrichmentService, rt.logger)
	activityHandler := handlers.NewActivityHandler(rt.container.ProjectService, rt.logger)
	exportHandler := handlers.NewExportHandler(rt.container.ExportService, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.ListProjects)
			r.Post("/", projectHandler.CreateProject)
			r.Put("/{projectID}", projectHandler.RenameProject)
			r.Delete("/{projectID}", projectHandler.DeleteProject)
			r.Post("/{projectID}/activate", projectHandler.SwitchProject)
		})

		r.Route("/graph", func(r chi.Router) {
			r.Get("/", graphHandler.GetGraph)
			r.Post("/synthesize", enrichmentHandler.SynthesizeRegion)
			r.Post("/constructs", graphHandler.CreateLogicalConstruct)

			r.Route("/nodes", func(r chi.Router) {
				r.Post("/", graphHandler.PlaceNode)
				r.Delete("/{nodeID}", graphHandler.DeleteNode)
				r.Put("/{nodeID}/position", graphHandler.MoveNode)
				r.Put("/{nodeID}/shape", graphHandler.UpdateNodeShape)
				r.Put("/{nodeID}/color", graphHandler.SetNodeTextColor)
				r.Put("/{nodeID}/name", graphHandler.RenameNode)
				r.Put("/{nodeID}/note", graphHandler.SaveNote)
				r.Put("/{nodeID}/identity", graphHandler.ReplaceNodeIdentity)
				r.Post("/{nodeID}/genealogy", enrichmentHandler.GenerateGenealogy)
			})

			r.Route("/links", func(r chi.Router) {
				r.Post("/", graphHandler.CreateLink)
				r.Route("/{sourceID}/{targetID}", func(r chi.Router) {
					r.Delete("/", graphHandler.DeleteLink)
					r.Put("/relationships", graphHandler.UpdateLinkRelationshipTypes)
					r.Put("/path-style", graphHandler.UpdateLinkPathStyle)
					r.Post("/citations", graphHandler.PinCitation)
					r.Post("/justification", enrichmentHandler.GenerateJustification)
					r.Post("/implications", enrichmentHandler.GenerateImplications)
					r.Post("/formalization", enrichmentHandler.FormalizeLink)
					r.Post("/argument-analysis", enrichmentHandler.AnalyzeArgument)
					r.Post("/definition-analysis", enrichmentHandler.AnalyzeDefinition)
					r.Post("/counter-examples", enrichmentHandler.FindCounterExamples)
				})
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/tray", projectHandler.AddTrayConcept)
			r.Delete("/tray/{conceptID}", projectHandler.RemoveTrayConcept)
			r.Post("/feeds", projectHandler.TrackFeed)
			r.Delete("/feeds", projectHandler.UntrackFeed)
			r.Post("/publications/seen", projectHandler.MarkPublicationsSeen)
		})

		r.Route("/relationship-types", func(r chi.Router) {
			r.Get("/", projectHandler.ListRelationshipTypes)
			r.Post("/", projectHandler.AddRelationshipType)
			r.Put("/{name}/disabled", projectHandler.SetTypeDisabled)
		})

		r.Get("/activity", activityHandler.ListActivity)
		r.Get("/export", exportHandler.ExportGraph)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
