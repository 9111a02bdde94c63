package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/pdf-qa/app"
	"github.com/upb/pdf-qa/docs"
	"github.com/upb/pdf-qa/handlers"
	"github.com/upb/pdf-qa/middleware"
	"github.com/upb/pdf-qa/utils"
	"go.uber.org/zap"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	serverCfg := deps.Config.Server

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger.Named("http")))
	r.Use(chimw.Recoverer)
	if serverCfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(serverCfg.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: serverCfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	ask := handlers.NewAskHandler(deps.QA, deps.Logger.Named("ask"))
	upload := handlers.NewUploadHandler(deps.Ingest, deps.Stats, serverCfg.UploadMaxBytes, deps.Logger.Named("upload"))
	health := handlers.NewHealthHandler(deps.Corpus, deps.Generation, deps.Stats, deps.Config.Environment, deps.Logger.Named("health"))

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Question answering, mounted at the root and under /api
	qaRoutes := func(r chi.Router) {
		r.Post("/upload", upload.HandleUpload)
		r.Post("/ask", ask.HandleAsk)
	}
	r.Group(qaRoutes)
	r.Route("/api", func(r chi.Router) {
		qaRoutes(r)
		r.Get("/status", health.HandleStatus)
	})

	// API documentation
	if apiDocs, err := handlers.NewDocsHandler(docs.OpenAPI, handlers.Version, deps.Logger.Named("docs")); err != nil {
		deps.Logger.Error("api docs disabled", zap.Error(err))
	} else {
		r.Route("/api-docs", func(r chi.Router) {
			r.Get("/", apiDocs.HandleUI)
			r.Get("/openapi.json", apiDocs.HandleJSON)
			r.Get("/openapi.yaml", apiDocs.HandleYAML)
		})
	}

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
