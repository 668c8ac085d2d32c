package service_test

import (
	"context"
	"testing"

	"revtrack/internal/review/repository"
	"revtrack/internal/review/service"
	pkgerrors "revtrack/pkg/errors"
)

// memoryRepo is an in-memory ReviewRepository keyed by (userID, id).
type memoryRepo struct {
	reviews map[string]*repository.Review
	updates int
	deletes int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{reviews: make(map[string]*repository.Review)}
}

func key(id, userID string) string { return userID + "/" + id }

func (m *memoryRepo) Add(ctx context.Context, review *repository.Review) error {
	copied := *review
	m.reviews[key(review.ID, review.UserID)] = &copied
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id, userID string) (*repository.Review, error) {
	review, ok := m.reviews[key(id, userID)]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	copied := *review
	return &copied, nil
}

func (m *memoryRepo) GetAllByUserID(ctx context.Context, userID string) ([]*repository.Review, error) {
	result := make([]*repository.Review, 0)
	for _, review := range m.reviews {
		if review.UserID == userID {
			copied := *review
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memoryRepo) Update(ctx context.Context, review *repository.Review) error {
	m.updates++
	copied := *review
	m.reviews[key(review.ID, review.UserID)] = &copied
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id, userID string) error {
	m.deletes++
	delete(m.reviews, key(id, userID))
	return nil
}

func TestRegisterReview(t *testing.T) {
	repo := newMemoryRepo()
	svc := service.NewReviewService(repo)

	review, err := svc.RegisterReview(context.Background(), service.RegisterInput{
		UserID:      "user-1",
		ProblemID:   "abc300_a",
		Title:       "Linear Search",
		ContestName: "ABC300",
		Difficulty:  800,
	})
	if err != nil {
		t.Fatalf("RegisterReview failed: %v", err)
	}
	if review.ID == "" {
		t.Error("expected generated id")
	}
	if review.IsSolved || review.Notes != "" {
		t.Errorf("new review must start unsolved with empty notes: %+v", review)
	}

	stored, err := repo.GetByID(context.Background(), review.ID, "user-1")
	if err != nil {
		t.Fatalf("review was not persisted: %v", err)
	}
	if stored.Title != "Linear Search" {
		t.Errorf("unexpected stored title: %q", stored.Title)
	}
}

func TestRegisterReviewValidation(t *testing.T) {
	svc := service.NewReviewService(newMemoryRepo())

	cases := []struct {
		name  string
		input service.RegisterInput
	}{
		{"blank user id", service.RegisterInput{ProblemID: "abc300_a", Title: "T", ContestName: "ABC300"}},
		{"blank problem id", service.RegisterInput{UserID: "u", Title: "T", ContestName: "ABC300"}},
		{"blank title", service.RegisterInput{UserID: "u", ProblemID: "abc300_a", ContestName: "ABC300"}},
		{"blank contest name", service.RegisterInput{UserID: "u", ProblemID: "abc300_a", Title: "T"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterReview(context.Background(), tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			code := pkgerrors.GetCode(err)
			if code < 10300 || code >= 10400 {
				t.Errorf("expected a validation error code, got %d", code)
			}
		})
	}
}

func TestGetReviewNotFound(t *testing.T) {
	svc := service.NewReviewService(newMemoryRepo())

	_, err := svc.GetReview(context.Background(), "no-such-id", "user-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if code := pkgerrors.GetCode(err); code != pkgerrors.ReviewNotFound {
		t.Errorf("expected ReviewNotFound code, got %d", code)
	}
}

func TestGetReviewRequiresKeys(t *testing.T) {
	svc := service.NewReviewService(newMemoryRepo())

	for _, tc := range []struct{ id, userID string }{
		{"", "user-1"},
		{"some-id", ""},
		{"  ", "user-1"},
	} {
		_, err := svc.GetReview(context.Background(), tc.id, tc.userID)
		if code := pkgerrors.GetCode(err); code != pkgerrors.InvalidParams {
			t.Errorf("id=%q user=%q: expected InvalidParams, got %d", tc.id, tc.userID, code)
		}
	}
}

func TestUpdateReviewProgress(t *testing.T) {
	repo := newMemoryRepo()
	svc := service.NewReviewService(repo)

	review, err := svc.RegisterReview(context.Background(), service.RegisterInput{
		UserID: "user-1", ProblemID: "abc300_a", Title: "T", ContestName: "ABC300", Difficulty: 800,
	})
	if err != nil {
		t.Fatalf("RegisterReview failed: %v", err)
	}

	if err := svc.UpdateReviewProgress(context.Background(), review.ID, "user-1", true, "two pointers"); err != nil {
		t.Fatalf("UpdateReviewProgress failed: %v", err)
	}

	stored, err := svc.GetReview(context.Background(), review.ID, "user-1")
	if err != nil {
		t.Fatalf("GetReview failed: %v", err)
	}
	if !stored.IsSolved || stored.Notes != "two pointers" {
		t.Errorf("progress not applied: %+v", stored)
	}
	if stored.Title != "T" || stored.ProblemID != "abc300_a" {
		t.Errorf("identity fields must survive a progress update: %+v", stored)
	}
}

func TestUpdateReviewProgressNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := service.NewReviewService(repo)

	err := svc.UpdateReviewProgress(context.Background(), "no-such-id", "user-1", true, "")
	if code := pkgerrors.GetCode(err); code != pkgerrors.ReviewNotFound {
		t.Fatalf("expected ReviewNotFound code, got %d", code)
	}
	// A missing target never turns the update into a create.
	if repo.updates != 0 {
		t.Errorf("expected no repository writes, got %d", repo.updates)
	}
}

func TestDeleteReviewWithoutPreCheck(t *testing.T) {
	repo := newMemoryRepo()
	svc := service.NewReviewService(repo)

	// Deleting an unknown review succeeds and still issues the delete.
	if err := svc.DeleteReview(context.Background(), "no-such-id", "user-1"); err != nil {
		t.Fatalf("DeleteReview failed: %v", err)
	}
	if repo.deletes != 1 {
		t.Errorf("expected one delete call, got %d", repo.deletes)
	}
}

func TestGetUserReviewsRequiresUser(t *testing.T) {
	svc := service.NewReviewService(newMemoryRepo())

	_, err := svc.GetUserReviews(context.Background(), "   ")
	if code := pkgerrors.GetCode(err); code != pkgerrors.InvalidParams {
		t.Fatalf("expected InvalidParams, got %d", code)
	}
}

func TestGetUserReviewsEmpty(t *testing.T) {
	svc := service.NewReviewService(newMemoryRepo())

	reviews, err := svc.GetUserReviews(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetUserReviews failed: %v", err)
	}
	if reviews == nil {
		t.Error("expected non-nil empty slice")
	}
	if len(reviews) != 0 {
		t.Errorf("expected no reviews, got %d", len(reviews))
	}
}
