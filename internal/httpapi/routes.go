package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/binaryblitz/binaryblitz-backend/internal/config"
	"github.com/binaryblitz/binaryblitz-backend/internal/session"
	"github.com/binaryblitz/binaryblitz-backend/internal/ws"
)

func SetupRoutes(sess *session.Session, cfg config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/", Root)
	r.Get("/health", Health)
	r.Get("/ws", ws.Handler(sess, cfg.CORSOrigins, logger))
	return r
}
