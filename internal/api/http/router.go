package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/Hassam-Ata/linklens/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// ShortenURL creates a shortened version of the provided original URL,
	// owned by the given user. The stored record reflects any moderation
	// outcome produced during creation.
	ShortenURL(ctx context.Context, user *models.User, originalURL string) (*models.URL, error)

	// ResolveShortCode retrieves the original URL for a given short code and
	// queues a best-effort click increment. It returns the record as observed
	// before the increment, or an error if the URL is not found.
	ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// DeleteURL removes the URL with the given id if the user owns it.
	DeleteURL(ctx context.Context, id int64, user *models.User) error

	// GetURLStats retrieves the URL associated with the short code without
	// counting a visit.
	GetURLStats(ctx context.Context, shortCode string) (*models.URL, error)

	// GetUserURLs retrieves all URLs created by the given user.
	GetUserURLs(ctx context.Context, user *models.User) ([]models.URL, error)
}

// SafetyChecker defines the interface for the URL moderation pipeline.
type SafetyChecker interface {
	// CheckURLSafety produces a normalized safety verdict for the URL.
	CheckURLSafety(ctx context.Context, rawURL string) (*models.SafetyVerdict, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, auth *Authenticator, urlSvc URLService, checker SafetyChecker) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Get("/{shortCode}", handleRedirect(urlSvc))

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.With(auth.Issue).Post("/", handleShortenURL(urlSvc, validate))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", handleResolveShortCode(urlSvc))
				r.Get("/stats", handleGetURLStats(urlSvc))
			})
		})

		r.Route("/urls", func(r chi.Router) {
			r.Get("/", handleGetUserURLs(urlSvc))
			r.Delete("/{id}", handleDeleteURL(urlSvc))
		})

		r.Post("/safety/check", handleCheckURLSafety(checker, validate))
	})

	return r
}
