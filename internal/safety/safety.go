// Package safety screens destination URLs for abuse before they are served.
// It validates the URL, consults an external classifier and normalizes the
// response into a SafetyVerdict. The classifier is advisory: when it isn't
// configured the package degrades to a neutral verdict instead of failing,
// so moderation can never block core functionality.
package safety

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/Hassam-Ata/linklens/internal/models"
)

var (
	// ErrInvalidURL is returned when the input can't be parsed as an absolute URL.
	ErrInvalidURL = errors.New("invalid url format")
	// ErrClassification is returned when the classifier is unreachable or its
	// response can't be parsed into a verdict.
	ErrClassification = errors.New("failed to classify url")
)

// Classifier is the external capability that analyzes a URL. Implementations
// are expected to return the model's raw text response.
type Classifier interface {
	// Classify sends the prompt to the classifier and returns its raw text response.
	Classify(ctx context.Context, prompt string) (string, error)

	// Configured reports whether the classifier has credentials to operate.
	Configured() bool
}

// Checker orchestrates safety classification of URLs.
type Checker struct {
	classifier Classifier
	logger     *slog.Logger
}

func NewChecker(logger *slog.Logger, classifier Classifier) *Checker {
	return &Checker{
		classifier: classifier,
		logger:     logger,
	}
}

// neutralVerdict is returned when no classifier is configured: unknown, unflagged.
func neutralVerdict() *models.SafetyVerdict {
	return &models.SafetyVerdict{
		IsSafe:     true,
		Flagged:    false,
		Reason:     nil,
		Category:   models.CategoryUnknown,
		Confidence: 0,
	}
}

// CheckURLSafety analyzes the given URL and returns a normalized verdict.
//
// Malformed input fails with ErrInvalidURL before any external call. An
// unconfigured classifier short-circuits to a neutral verdict. Any other
// failure, whether in transport or in parsing the model's response, surfaces
// as ErrClassification with the cause logged. The check has no store side
// effects; persisting an outcome is the caller's concern.
func (c *Checker) CheckURLSafety(ctx context.Context, rawURL string) (*models.SafetyVerdict, error) {
	const op = "safety.Checker.CheckURLSafety"

	u, err := url.ParseRequestURI(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	if !c.classifier.Configured() {
		c.logger.Info("classifier not configured, skipping safety check")
		return neutralVerdict(), nil
	}

	text, err := c.classifier.Classify(ctx, classificationPrompt(rawURL))
	if err != nil {
		c.logger.Error(
			"classifier call failed",
			slog.Group(op, slog.Any("err", err)),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrClassification)
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		c.logger.Error(
			"failed to parse classifier response",
			slog.Group(op, slog.Any("err", err)),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrClassification)
	}

	return verdict, nil
}

// rawVerdict mirrors SafetyVerdict with pointer fields so that absent keys
// can be told apart from zero values.
type rawVerdict struct {
	IsSafe     *bool    `json:"isSafe"`
	Flagged    *bool    `json:"flagged"`
	Reason     *string  `json:"reason"`
	Category   *string  `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// parseVerdict extracts the JSON object embedded in the classifier's text
// response and decodes it into a verdict. A verdict missing any required
// field, carrying an unknown category or a confidence outside [0, 1] is
// rejected rather than patched with defaults.
func parseVerdict(text string) (*models.SafetyVerdict, error) {
	const op = "safety.parseVerdict"

	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("%s: failed to decode verdict: %w", op, err)
	}

	if raw.IsSafe == nil || raw.Flagged == nil || raw.Category == nil || raw.Confidence == nil {
		return nil, fmt.Errorf("%s: verdict is missing required fields", op)
	}
	if !models.ValidCategory(*raw.Category) {
		return nil, fmt.Errorf("%s: unknown category %q", op, *raw.Category)
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return nil, fmt.Errorf("%s: confidence %v out of range", op, *raw.Confidence)
	}

	return &models.SafetyVerdict{
		IsSafe:     *raw.IsSafe,
		Flagged:    *raw.Flagged,
		Reason:     raw.Reason,
		Category:   *raw.Category,
		Confidence: *raw.Confidence,
	}, nil
}
