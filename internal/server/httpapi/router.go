// Package httpapi exposes the media service over the conventional HTTP
// endpoint set consumed by the upload client.
package httpapi

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dsmolkin/mediakeeper/internal/logging"
	model "github.com/dsmolkin/mediakeeper/internal/media"
)

// MediaService is the business-logic boundary of the API.
type MediaService interface {
	GenerateUploadURL(ctx context.Context, desc *model.Media) (*model.Media, string, error)
	SetStatus(ctx context.Context, ids []string, status model.Status) ([]model.Media, error)
	Get(ctx context.Context, id string) (*model.Media, error)
}

// NewRouter builds the API router. All /api routes require a valid
// bearer token; /health does not.
func NewRouter(svc MediaService, secretKey []byte, logger logging.Logger) *chi.Mux {
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api/media", func(r chi.Router) {
		r.Use(authMiddleware(secretKey))

		r.Post("/generate-upload-url", h.generateUploadURL)
		r.Post("/mark-media-as-temp", h.markAs(model.StatusTemp))
		r.Post("/mark-media-as-active", h.markAs(model.StatusActive))
		r.Post("/mark-media-as-canceled", h.markAs(model.StatusCanceled))
		r.Get("/{id}", h.get)
	})

	return r
}
