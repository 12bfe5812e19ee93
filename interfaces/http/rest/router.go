package rest

import (
	"net/http"
	"strings"

	"archboard-backend/interfaces/http/rest/handlers"
	"archboard-backend/interfaces/http/rest/middleware"
	pkgerrors "archboard-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers the router mounts
type Handlers struct {
	Scenes       *handlers.SceneHandler
	Nodes        *handlers.NodeHandler
	Edges        *handlers.EdgeHandler
	Interactions *handlers.InteractionHandler
	Properties   *handlers.PropertyHandler
}

// Router creates and configures the HTTP router
type Router struct {
	handlers     Handlers
	tokenRefresh *middleware.TokenRefresh
	logger       *zap.Logger
}

// NewRouter creates a new router instance. tokenRefresh may be nil, in
// which case the refresh endpoint is not mounted.
func NewRouter(h Handlers, tokenRefresh *middleware.TokenRefresh, logger *zap.Logger) *Router {
	return &Router{
		handlers:     h,
		tokenRefresh: tokenRefresh,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(pkgerrors.NewErrorHandler(rt.logger, false).Middleware)
	router.Use(versionMiddleware)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.archboard.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.tokenRefresh != nil {
		router.Post("/api/v2/auth/refresh", rt.tokenRefresh.Handler)
	}

	// API v1 routes (legacy - redirects to v2)
	router.Route("/api/v1", func(r chi.Router) {
		r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, strings.Replace(req.URL.Path, "/api/v1", "/api/v2", 1), http.StatusPermanentRedirect)
		})
	})

	// API v2 routes (current)
	router.Route("/api/v2", func(r chi.Router) {
		// Apply authentication middleware for API routes
		r.Use(middleware.Authenticate())

		r.Route("/scenes", func(r chi.Router) {
			r.Post("/", rt.handlers.Scenes.CreateScene)
			r.Get("/", rt.handlers.Scenes.ListScenes)
			r.Post("/import", rt.handlers.Scenes.ImportScene)

			r.Route("/{sceneID}", func(r chi.Router) {
				r.Get("/", rt.handlers.Scenes.GetScene)
				r.Delete("/", rt.handlers.Scenes.DeleteScene)
				r.Get("/state", rt.handlers.Scenes.GetEditorState)
				r.Get("/export", rt.handlers.Scenes.ExportScene)

				// Checkpoints
				r.Route("/checkpoints", func(r chi.Router) {
					r.Post("/", rt.handlers.Scenes.CreateCheckpoint)
					r.Get("/", rt.handlers.Scenes.ListCheckpoints)
					r.Get("/diff", rt.handlers.Scenes.DiffCheckpoints)
				})

				// Nodes
				r.Route("/nodes", func(r chi.Router) {
					r.Post("/", rt.handlers.Nodes.AddNode)

					r.Route("/{nodeID}", func(r chi.Router) {
						r.Put("/bounds", rt.handlers.Nodes.MoveNode)
						r.Put("/name", rt.handlers.Nodes.RenameNode)
						r.Delete("/", rt.handlers.Nodes.DeleteNode)

						r.Get("/state", rt.handlers.Interactions.GetNodeState)
						r.Patch("/state", rt.handlers.Interactions.UpdateNodeState)
						r.Post("/editing", rt.handlers.Interactions.StartEditing)
						r.Delete("/editing", rt.handlers.Interactions.StopEditing)
					})
				})

				// Edges
				r.Route("/edges", func(r chi.Router) {
					r.Post("/", rt.handlers.Edges.Connect)
					r.Delete("/{edgeID}", rt.handlers.Edges.DeleteEdge)
				})

				// Selection
				r.Route("/selection", func(r chi.Router) {
					r.Post("/select", rt.handlers.Interactions.Select)
					r.Post("/deselect", rt.handlers.Interactions.Deselect)
					r.Post("/toggle", rt.handlers.Interactions.Toggle)
					r.Post("/replace", rt.handlers.Interactions.Replace)
					r.Post("/clear", rt.handlers.Interactions.Clear)
					r.Post("/delete", rt.handlers.Interactions.BulkDeleteSelection)
				})

				// Interactive connection gesture
				r.Route("/connection", func(r chi.Router) {
					r.Post("/begin", rt.handlers.Interactions.BeginConnection)
					r.Put("/pointer", rt.handlers.Interactions.UpdatePointer)
					r.Post("/complete", rt.handlers.Interactions.CompleteConnection)
					r.Post("/cancel", rt.handlers.Interactions.CancelConnection)
				})

				// Element properties
				r.Route("/elements/{elementID}/properties", func(r chi.Router) {
					r.Post("/", rt.handlers.Properties.DefineProperty)
					r.Get("/", rt.handlers.Properties.ListProperties)
					r.Get("/history", rt.handlers.Properties.PropertyHistory)
					r.Put("/{key}", rt.handlers.Properties.UpdateProperty)
					r.Put("/{key}/order", rt.handlers.Properties.ReorderProperty)
					r.Delete("/{key}", rt.handlers.Properties.RemoveProperty)
				})
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := "v2"
		if strings.Contains(r.URL.Path, "/api/v1") {
			version = "v1"
		}

		w.Header().Set("X-API-Version", version)
		w.Header().Set("X-API-Latest", "v2")
		w.Header().Set("X-API-Deprecated", "false")

		if version == "v1" {
			w.Header().Set("X-API-Deprecated", "true")
			w.Header().Set("X-API-Deprecation-Date", "2026-03-01")
			w.Header().Set("X-API-Sunset-Date", "2026-09-01")
		}

		next.ServeHTTP(w, r)
	})
}
