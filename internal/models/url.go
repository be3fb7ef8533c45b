package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code or key associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// OwnerID identifies the user who created the record. Empty when the
	// record was created without a session; such records can never be deleted.
	OwnerID string
	// Clicks tracks the number of times the shortened URL has been resolved.
	Clicks int64
	// Flagged reports whether moderation marked the destination as unsafe.
	Flagged bool
	// FlagReason explains why the URL was flagged. May be nil even when
	// Flagged is true: the classifier is allowed to flag without a reason.
	FlagReason *string
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp indicating when the shortened URL was last updated.
	UpdatedAt time.Time
}

// User is the authenticated caller identity passed into mutating operations.
type User struct {
	// ID is the opaque user identifier minted by the identity middleware.
	ID string
}
