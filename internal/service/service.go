package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Hassam-Ata/linklens/internal/clicks"
	"github.com/Hassam-Ata/linklens/internal/database"
	"github.com/Hassam-Ata/linklens/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short code is exceeded.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
	// ErrUnauthorized is returned when an operation requires an identity the
	// caller doesn't have: either no identity at all, or one that doesn't
	// own the record being mutated.
	ErrUnauthorized = errors.New("unauthorized")
)

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL owned by the given user.
	Create(ctx context.Context, shortCode, originalURL, ownerID string) (*models.URL, error)

	// GetByShortCode retrieves a URL by its short code without mutating it.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// GetByID retrieves a URL by its record id.
	GetByID(ctx context.Context, id int64) (*models.URL, error)

	// Delete removes a URL by its record id.
	Delete(ctx context.Context, id int64) error

	// UpdateFlag persists a moderation outcome onto a record.
	UpdateFlag(ctx context.Context, id int64, flagged bool, reason *string) (*models.URL, error)

	// ListByOwner retrieves all URLs created by the given user.
	ListByOwner(ctx context.Context, ownerID string) ([]models.URL, error)
}

// VisitSink accepts visit events for asynchronous persistence.
type VisitSink interface {
	Record(v clicks.Visit)
}

// SafetyChecker produces a safety verdict for a destination URL.
type SafetyChecker interface {
	CheckURLSafety(ctx context.Context, rawURL string) (*models.SafetyVerdict, error)
}

// URLService provides the core URL shortening operations: creation with
// advisory moderation, resolution with best-effort click accounting, and
// ownership-gated deletion.
type URLService struct {
	repo            URLRepository
	visits          VisitSink
	safety          SafetyChecker
	logger          *slog.Logger
	shortCodeLength int
}

// NewURLService creates a new instance of URLService.
func NewURLService(logger *slog.Logger, repo URLRepository, visits VisitSink, safety SafetyChecker, shortCodeLength int) *URLService {
	return &URLService{
		repo:            repo,
		visits:          visits,
		safety:          safety,
		logger:          logger,
		shortCodeLength: shortCodeLength,
	}
}

// ShortenURL generates a short code for the provided original URL and stores it
// owned by the given user. It attempts to generate a unique short code up to a
// maximum number of retries. After a successful insert the destination is run
// through the safety checker; a flagged verdict is persisted onto the record,
// while a checker failure only logs. Moderation is advisory and never blocks
// creation.
func (s *URLService) ShortenURL(ctx context.Context, user *models.User, originalURL string) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"
	const maxRetries = 5

	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := gonanoid.New(s.shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := s.repo.Create(ctx, shortCode, originalURL, user.ID)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				s.shortCodeLength++
				defer func() {
					s.shortCodeLength--
				}()

				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return s.moderate(ctx, url), nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// moderate runs the safety check for a freshly created record and persists a
// flagged verdict. Any failure leaves the record unflagged.
func (s *URLService) moderate(ctx context.Context, url *models.URL) *models.URL {
	const op = "service.URLService.moderate"

	verdict, err := s.safety.CheckURLSafety(ctx, url.OriginalURL)
	if err != nil {
		s.logger.Error(
			"failed to check url safety",
			slog.Group(op, slog.Int64("url_id", url.ID), slog.Any("err", err)),
		)
		return url
	}

	if !verdict.Flagged {
		return url
	}

	flagged, err := s.repo.UpdateFlag(ctx, url.ID, true, verdict.Reason)
	if err != nil {
		s.logger.Error(
			"failed to persist moderation outcome",
			slog.Group(op, slog.Int64("url_id", url.ID), slog.Any("err", err)),
		)
		return url
	}

	return flagged
}

// ResolveShortCode retrieves the original URL associated with the provided
// short code and queues a click increment for asynchronous persistence. The
// returned record carries the click count observed before the increment; the
// increment races the response and its failure never fails the resolution.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	s.visits.Record(clicks.Visit{
		URLID:  url.ID,
		Clicks: url.Clicks + 1,
		At:     time.Now(),
	})

	return url, nil
}

// DeleteURL deletes the URL with the given id if the caller owns it.
//
// A nil user is rejected before any lookup. A missing record is reported as
// not found before ownership is considered, so callers can distinguish "gone"
// from "not yours". Deletion is attempted at most once; a concurrent delete
// that wins the race surfaces here as not found, never as corruption.
func (s *URLService) DeleteURL(ctx context.Context, id int64, user *models.User) error {
	const op = "service.URLService.DeleteURL"

	if user == nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	url, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	if url.OwnerID == "" || url.OwnerID != user.ID {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	return nil
}

// GetURLStats retrieves the URL associated with the provided short code
// without affecting its click count.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLStats"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// GetUserURLs retrieves all URLs created by the given user.
func (s *URLService) GetUserURLs(ctx context.Context, user *models.User) ([]models.URL, error) {
	const op = "service.URLService.GetUserURLs"

	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	urls, err := s.repo.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user urls: %w", op, err)
	}

	return urls, nil
}
