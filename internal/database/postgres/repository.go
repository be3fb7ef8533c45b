package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Hassam-Ata/linklens/internal/database"
	"github.com/Hassam-Ata/linklens/internal/models"
	"github.com/jmoiron/sqlx"
)

type urlRecord struct {
	ID          int64          `db:"id"`
	ShortCode   string         `db:"short_code"`
	OriginalURL string         `db:"original_url"`
	OwnerID     string         `db:"owner_id"`
	Clicks      int64          `db:"clicks"`
	Flagged     bool           `db:"flagged"`
	FlagReason  sql.NullString `db:"flag_reason"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	url := &models.URL{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		OwnerID:     r.OwnerID,
		Clicks:      r.Clicks,
		Flagged:     r.Flagged,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if r.FlagReason.Valid {
		reason := r.FlagReason.String
		url.FlagReason = &reason
	}

	return url
}

// URLRepository provides typed access to the urls table.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

func (r *URLRepository) Create(ctx context.Context, shortCode, originalURL, ownerID string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, original_url, owner_id)
		VALUES ($1, $2, $3)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, originalURL, ownerID)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetByShortCode retrieves a record by its short code without mutating it.
// Click accounting is handled separately via RecordVisit.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) GetByID(ctx context.Context, id int64) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByID"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// RecordVisit stores the click count observed during a resolution and
// refreshes the update timestamp. Failures are reported to the caller,
// which is expected to treat them as non-fatal.
func (r *URLRepository) RecordVisit(ctx context.Context, id, clicks int64, now time.Time) error {
	const op = "database.postgres.URLRepository.RecordVisit"

	query := `UPDATE urls
		SET clicks = $1, updated_at = $2
		WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, clicks, now, id)
	if err != nil {
		return fmt.Errorf("%s: failed to record visit: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

func (r *URLRepository) Delete(ctx context.Context, id int64) error {
	const op = "database.postgres.URLRepository.Delete"

	query := `DELETE FROM urls
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete url record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// UpdateFlag persists a moderation outcome onto a record. A nil reason
// clears any previously stored reason.
func (r *URLRepository) UpdateFlag(ctx context.Context, id int64, flagged bool, reason *string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.UpdateFlag"

	rec := new(urlRecord)
	query := `UPDATE urls
		SET flagged = $1, flag_reason = $2, updated_at = now()
		WHERE id = $3
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, flagged, reason, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.URL, error) {
	const op = "database.postgres.URLRepository.ListByOwner"

	var recs []urlRecord
	query := `SELECT * FROM urls
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &recs, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list url records: %w", op, err)
	}

	urls := make([]models.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, *recs[i].ToURL())
	}

	return urls, nil
}
