package repository

import (
	"context"
	"errors"
)

// ErrReviewNotFound signals that no review matches both id and user id.
// It is an expected condition, distinguishable from storage failures.
var ErrReviewNotFound = errors.New("review not found")

// ReviewRepository is the capability set shared by the relational and
// document-store backends. The service layer depends only on this interface;
// the concrete backend is chosen at composition time.
type ReviewRepository interface {
	// Add persists a brand-new review. Storage failures propagate unchanged.
	Add(ctx context.Context, review *Review) error

	// GetByID is a point lookup by the composite (id, userID) key. A record
	// stored under a different user id is never returned.
	GetByID(ctx context.Context, id, userID string) (*Review, error)

	// GetAllByUserID returns every review of the user, most recent first.
	GetAllByUserID(ctx context.Context, userID string) ([]*Review, error)

	// Update replaces the stored record with the given entity's full field
	// set. Upsert semantics: the record is created when absent.
	Update(ctx context.Context, review *Review) error

	// Delete removes the record matching both keys. Deleting a non-existent
	// record is a no-op.
	Delete(ctx context.Context, id, userID string) error
}
