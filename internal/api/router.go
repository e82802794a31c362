package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cimlab/wbemsim/internal/api/handler"
	"github.com/cimlab/wbemsim/internal/api/middleware"
	"github.com/cimlab/wbemsim/internal/service"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(proc *service.Processor, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(log))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)

		// Namespaces
		nsHandler := handler.NewNamespaceHandler(proc)
		r.Get("/namespaces", nsHandler.List)
		r.Post("/namespaces", nsHandler.Create)

		// Namespace-scoped routes. Namespace names contain slashes and
		// are sent percent-encoded.
		r.Route("/namespaces/{namespace}", func(r chi.Router) {
			r.Delete("/", nsHandler.Delete)

			// Classes
			classHandler := handler.NewClassHandler(proc)
			r.Get("/classes", classHandler.List)
			r.Post("/classes", classHandler.Create)
			r.Get("/classnames", classHandler.ListNames)
			r.Get("/classes/{class}", classHandler.Get)
			r.Put("/classes/{class}", classHandler.Modify)
			r.Delete("/classes/{class}", classHandler.Delete)

			// Instances
			instHandler := handler.NewInstanceHandler(proc)
			r.Get("/classes/{class}/instances", instHandler.List)
			r.Get("/classes/{class}/instancenames", instHandler.ListNames)
			r.Post("/instances", instHandler.Create)
			r.Get("/instances/{path}", instHandler.Get)
			r.Put("/instances/{path}", instHandler.Modify)
			r.Delete("/instances/{path}", instHandler.Delete)

			// Qualifier declarations
			qualHandler := handler.NewQualifierHandler(proc)
			r.Get("/qualifiers", qualHandler.List)
			r.Get("/qualifiers/{name}", qualHandler.Get)
			r.Put("/qualifiers/{name}", qualHandler.Set)
			r.Delete("/qualifiers/{name}", qualHandler.Delete)

			// Association traversal
			assocHandler := handler.NewAssocHandler(proc)
			r.Post("/associators", assocHandler.Associators)
			r.Post("/associatornames", assocHandler.AssociatorNames)
			r.Post("/references", assocHandler.References)
			r.Post("/referencenames", assocHandler.ReferenceNames)

			// Query execution
			queryHandler := handler.NewQueryHandler(proc)
			r.Post("/query", queryHandler.Exec)

			// Open/pull/close enumeration sequences
			enumHandler := handler.NewEnumerationHandler(proc)
			r.Route("/enumerations", func(r chi.Router) {
				r.Post("/instances", enumHandler.OpenInstances)
				r.Post("/instancepaths", enumHandler.OpenInstancePaths)
				r.Post("/references", enumHandler.OpenReferences)
				r.Post("/referencepaths", enumHandler.OpenReferencePaths)
				r.Post("/associators", enumHandler.OpenAssociators)
				r.Post("/associatorpaths", enumHandler.OpenAssociatorPaths)
				r.Post("/query", enumHandler.OpenQuery)
				r.Post("/{context}/pull", enumHandler.Pull)
				r.Delete("/{context}", enumHandler.Close)
			})
		})
	})

	return r
}
