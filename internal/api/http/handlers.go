package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Hassam-Ata/linklens/internal/database"
	"github.com/Hassam-Ata/linklens/internal/models"
	"github.com/Hassam-Ata/linklens/internal/safety"
	"github.com/Hassam-Ata/linklens/internal/service"
	"github.com/Hassam-Ata/linklens/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// urlRequest represents the request payload for creating a shortened URL.
type urlRequest struct {
	URL string `json:"url" validate:"required,url,max=2000"`
}

// safetyCheckRequest represents the request payload for a standalone safety check.
type safetyCheckRequest struct {
	URL string `json:"url" validate:"required"`
}

// urlResponse represents the response payload for a URL operation.
type urlResponse struct {
	ID         int64     `json:"id"`
	ShortCode  string    `json:"short_code"`
	URL        string    `json:"url"`
	Clicks     int64     `json:"clicks"`
	Flagged    bool      `json:"flagged"`
	FlagReason *string   `json:"flag_reason"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// toURLResponse converts a URL model from the business layer into a response payload.
func toURLResponse(url *models.URL) urlResponse {
	return urlResponse{
		ID:         url.ID,
		ShortCode:  url.ShortCode,
		URL:        url.OriginalURL,
		Clicks:     url.Clicks,
		Flagged:    url.Flagged,
		FlagReason: url.FlagReason,
		CreatedAt:  url.CreatedAt,
		UpdatedAt:  url.UpdatedAt,
	}
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The request must contain a valid URL and an identity (issued by the auth
// middleware when absent). The handler validates the input, calls the URL
// shortening service and returns the generated short code with relevant
// metadata, including any moderation outcome.
func handleShortenURL(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.ShortenURL(r.Context(), userFromContext(r.Context()), req.URL)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleResolveShortCode handles GET requests to resolve a short code into the original URL.
//
// The handler returns the URL data if found or a 404 error if not. The click
// count in the response is the value observed before this resolution's
// increment is applied.
func handleResolveShortCode(svc URLService) http.HandlerFunc {
	const op = "api.http.handleResolveShortCode"
	const successMsg = "The short code was successfully resolved."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleRedirect handles GET requests on the public redirect surface.
//
// Unflagged URLs redirect with 302. Flagged destinations are not followed;
// the caller gets the flag reason instead.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		if url.Flagged {
			resp := response.Response{
				Status:  response.StatusError,
				Error:   "URL flagged",
				Message: "This destination was flagged by moderation and will not be followed.",
				Data:    map[string]any{"flag_reason": url.FlagReason},
			}

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp)
			return
		}

		http.Redirect(w, r, url.OriginalURL, http.StatusFound)
	}
}

// handleDeleteURL handles DELETE requests to remove a URL.
//
// Only the owner may delete a record. A missing record is reported before
// ownership is considered.
func handleDeleteURL(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeleteURL"
	const successMsg = "The URL was successfully deleted."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		err = svc.DeleteURL(r.Context(), id, userFromContext(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUnauthorized):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

// handleGetURLStats handles GET requests to retrieve usage statistics for a shortened URL.
//
// Unlike resolution, fetching statistics doesn't count as a visit.
func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleGetUserURLs handles GET requests to list the caller's URLs.
func handleGetUserURLs(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetUserURLs"
	const successMsg = "The URLs retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		urls, err := svc.GetUserURLs(r.Context(), userFromContext(r.Context()))
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := make([]urlResponse, 0, len(urls))
		for i := range urls {
			data = append(data, toURLResponse(&urls[i]))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

// handleCheckURLSafety handles POST requests to classify a destination URL.
//
// The verdict is advisory and nothing is persisted; callers combine it with
// a store update if they want to flag a record.
func handleCheckURLSafety(checker SafetyChecker, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCheckURLSafety"
	const successMsg = "The URL safety check completed."

	return func(w http.ResponseWriter, r *http.Request) {
		var req safetyCheckRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		verdict, err := checker.CheckURLSafety(r.Context(), req.URL)
		if err != nil {
			switch {
			case errors.Is(err, safety.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, safety.ErrClassification):
				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, response.ClassificationErrorResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, verdict))
	}
}
