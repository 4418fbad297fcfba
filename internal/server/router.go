package server

import (
	"net/http"

	"github.com/atlas-learn/atlasai/internal/api"
	"github.com/atlas-learn/atlasai/internal/api/handlers"
	"github.com/atlas-learn/atlasai/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	TokenValidator  middleware.TokenValidator
	AllowedOrigins  []string
	DocumentHandler *handlers.DocumentHandler
	YouTubeHandler  *handlers.YouTubeHandler
	GitHubHandler   *handlers.GitHubHandler
	QuizHandler     *handlers.QuizHandler
	ChatHandler     *handlers.ChatHandler
	ProjectHandler  *handlers.ProjectHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 10 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.TokenValidator))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
		})

		r.Post("/youtube/process", cfg.YouTubeHandler.Process)
		r.Post("/github/process", cfg.GitHubHandler.Process)
		r.Post("/quiz/generate", cfg.QuizHandler.Generate)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", cfg.ChatHandler.Send)
			r.Get("/{projectId}", cfg.ChatHandler.History)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", cfg.ProjectHandler.Create)
			r.Get("/", cfg.ProjectHandler.List)
			r.Get("/{id}", cfg.ProjectHandler.Get)
			r.Put("/{id}", cfg.ProjectHandler.Update)
			r.Delete("/{id}", cfg.ProjectHandler.Delete)
		})
	})

	return r
}
