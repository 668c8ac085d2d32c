package service

import (
	"context"
	"fmt"
	"strings"

	"revtrack/internal/review/repository"
	pkgerrors "revtrack/pkg/errors"
	"revtrack/pkg/utils/logger"

	"go.uber.org/zap"
)

// ReviewService orchestrates validation, logging and repository calls for the
// review use cases. It holds no state across requests.
type ReviewService struct {
	repo repository.ReviewRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repo repository.ReviewRepository) *ReviewService {
	return &ReviewService{repo: repo}
}

// RegisterInput represents input for review registration.
type RegisterInput struct {
	UserID      string
	ProblemID   string
	Title       string
	ContestName string
	Difficulty  int
}

// RegisterReview creates a new review for a problem attempt and persists it.
// Entity invariants (non-blank required fields) are enforced by the
// constructor; violations surface as validation errors.
func (s *ReviewService) RegisterReview(ctx context.Context, input RegisterInput) (*repository.Review, error) {
	review, err := repository.NewReview(input.UserID, input.ProblemID, input.Title, input.ContestName, input.Difficulty)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Add(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("add review failed: %w", err), pkgerrors.ReviewCreateFailed)
	}

	logger.Info(ctx, "review created",
		zap.String("review_id", review.ID),
		zap.String("user_id", review.UserID),
		zap.String("problem_id", review.ProblemID),
	)
	return review, nil
}

// GetReview returns a single review, or a not-found error when no record
// matches both id and user id.
func (s *ReviewService) GetReview(ctx context.Context, id, userID string) (*repository.Review, error) {
	if err := requireKeys(id, userID); err != nil {
		return nil, err
	}

	review, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return nil, pkgerrors.New(pkgerrors.ReviewNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("get review failed: %w", err), pkgerrors.DatabaseError)
	}
	return review, nil
}

// GetUserReviews returns all reviews of the user, most recent first. The
// result may be empty.
func (s *ReviewService) GetUserReviews(ctx context.Context, userID string) ([]*repository.Review, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.InvalidParams)
	}

	reviews, err := s.repo.GetAllByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("list reviews failed: %w", err), pkgerrors.ReviewListFailed)
	}
	return reviews, nil
}

// UpdateReviewProgress replaces the solved flag and notes of an existing
// review. The target must exist; the update never creates a record.
func (s *ReviewService) UpdateReviewProgress(ctx context.Context, id, userID string, isSolved bool, notes string) error {
	if err := requireKeys(id, userID); err != nil {
		return err
	}

	review, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			logger.Warn(ctx, "update target not found",
				zap.String("review_id", id),
				zap.String("user_id", userID),
			)
			return pkgerrors.New(pkgerrors.ReviewNotFound)
		}
		return pkgerrors.Wrap(fmt.Errorf("get review failed: %w", err), pkgerrors.DatabaseError)
	}

	review.ApplyProgress(isSolved, notes)
	if err := s.repo.Update(ctx, review); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("update review failed: %w", err), pkgerrors.ReviewUpdateFailed)
	}

	logger.Info(ctx, "review progress updated",
		zap.String("review_id", id),
		zap.Bool("is_solved", isSolved),
	)
	return nil
}

// DeleteReview removes a review. Deleting a non-existent review succeeds
// silently; no existence pre-check is made.
func (s *ReviewService) DeleteReview(ctx context.Context, id, userID string) error {
	if err := requireKeys(id, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("delete review failed: %w", err), pkgerrors.ReviewDeleteFailed)
	}

	logger.Info(ctx, "review deleted",
		zap.String("review_id", id),
		zap.String("user_id", userID),
	)
	return nil
}

func requireKeys(id, userID string) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.InvalidParams)
	}
	return nil
}
