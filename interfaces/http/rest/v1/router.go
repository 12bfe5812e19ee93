package v1

import (
	"context"
	"net/http"

	"archboard-backend/interfaces/http/rest/handlers"
	"archboard-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter creates the v1 API router. The v1 surface is frozen: it serves
// the read-only scene endpoints that predate the interactive editor and is
// kept only for clients that have not migrated to /api/v2 yet.
func NewRouter(
	sceneHandler *handlers.SceneHandler,
	logger *zap.Logger,
) *mux.Router {
	router := mux.NewRouter()
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Apply middleware
	v1.Use(mux.MiddlewareFunc(middleware.Logger(logger)))
	v1.Use(mux.MiddlewareFunc(middleware.Authenticate()))
	v1.Use(versionHeaders)

	// Scene endpoints
	v1.HandleFunc("/scenes", sceneHandler.ListScenes).Methods("GET")
	v1.HandleFunc("/scenes/{sceneID}", bridgeParams(sceneHandler.GetScene)).Methods("GET")
	v1.HandleFunc("/scenes/{sceneID}/export", bridgeParams(sceneHandler.ExportScene)).Methods("GET")

	// Health check
	v1.HandleFunc("/health", healthCheck).Methods("GET")

	return router
}

// bridgeParams copies gorilla/mux path variables into a chi route context so
// handlers written against chi.URLParam work under both routers
func bridgeParams(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.NewRouteContext()
		for key, value := range mux.Vars(r) {
			rctx.URLParams.Add(key, value)
		}
		next(w, r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx)))
	}
}

// versionHeaders adds API version headers to responses
func versionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		w.Header().Set("X-API-Deprecated", "true")
		next.ServeHTTP(w, r)
	})
}

// healthCheck provides a health check endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","version":"v1"}`))
}
