package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"revtrack/internal/common/cache"
)

// DocumentReviewRepository implements ReviewRepository on a key-value document
// store. Every key embeds the user id, so reads scoped to a user never touch
// another user's partition:
//
//	review:user:{userId}:doc:{id}    JSON document of one review
//	review:user:{userId}:index      sorted set of review ids, scored by createdAt
type DocumentReviewRepository struct {
	store cache.Cache
}

// NewDocumentReviewRepository creates a document-store backed repository.
func NewDocumentReviewRepository(store cache.Cache) *DocumentReviewRepository {
	return &DocumentReviewRepository{store: store}
}

func (r *DocumentReviewRepository) Add(ctx context.Context, review *Review) error {
	if review == nil {
		return fmt.Errorf("review is nil")
	}

	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshal review failed: %w", err)
	}
	if err := r.store.Set(ctx, docKey(review.UserID, review.ID), string(payload), 0); err != nil {
		return err
	}
	return r.store.ZAdd(ctx, indexKey(review.UserID), cache.ZMember{
		Score:  createdAtScore(review),
		Member: review.ID,
	})
}

func (r *DocumentReviewRepository) GetByID(ctx context.Context, id, userID string) (*Review, error) {
	data, err := r.store.Get(ctx, docKey(userID, id))
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, ErrReviewNotFound
	}

	var review Review
	if err := json.Unmarshal([]byte(data), &review); err != nil {
		return nil, fmt.Errorf("unmarshal review failed: %w", err)
	}
	return &review, nil
}

func (r *DocumentReviewRepository) GetAllByUserID(ctx context.Context, userID string) ([]*Review, error) {
	ids, err := r.store.ZRevRange(ctx, indexKey(userID), 0, -1)
	if err != nil {
		return nil, err
	}

	reviews := make([]*Review, 0, len(ids))
	for _, id := range ids {
		review, err := r.GetByID(ctx, id, userID)
		if err != nil {
			if err == ErrReviewNotFound {
				// Index entry without a document; drop the stale member.
				_ = r.store.ZRem(ctx, indexKey(userID), id)
				continue
			}
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func (r *DocumentReviewRepository) Update(ctx context.Context, review *Review) error {
	if review == nil {
		return fmt.Errorf("review is nil")
	}
	// Upsert: a full Set of the document plus re-scoring the index entry
	// covers both the replace and the create-when-absent case.
	return r.Add(ctx, review)
}

func (r *DocumentReviewRepository) Delete(ctx context.Context, id, userID string) error {
	if err := r.store.Del(ctx, docKey(userID, id)); err != nil {
		return err
	}
	return r.store.ZRem(ctx, indexKey(userID), id)
}

func docKey(userID, id string) string {
	return "review:user:" + userID + ":doc:" + id
}

func indexKey(userID string) string {
	return "review:user:" + userID + ":index"
}

// createdAtScore orders index members by creation time, newest ranked highest.
// Microsecond resolution keeps the score exact within float64 precision.
func createdAtScore(review *Review) float64 {
	return float64(review.CreatedAt.UnixMicro())
}
