package controller

import (
	"fmt"
	"strings"
	"time"

	"revtrack/internal/review/repository"
	"revtrack/internal/review/service"
	"revtrack/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ReviewController handles review HTTP endpoints scoped under a user id.
type ReviewController struct {
	reviewService *service.ReviewService
}

// NewReviewController creates a new ReviewController.
func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// Create handles review registration.
func (h *ReviewController) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	review, err := h.reviewService.RegisterReview(c.Request.Context(), service.RegisterInput{
		UserID:      userID,
		ProblemID:   req.ProblemID,
		Title:       req.Title,
		ContestName: req.ContestName,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	location := fmt.Sprintf("/api/v1/users/%s/reviews/%s", review.UserID, review.ID)
	response.Created(c, location, toReviewResponse(review))
}

// GetOne handles a single review lookup.
func (h *ReviewController) GetOne(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toReviewResponse(review))
}

// List handles listing all reviews of a user, most recent first.
func (h *ReviewController) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	reviews, err := h.reviewService.GetUserReviews(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, toReviewResponse(review))
	}
	response.OK(c, items)
}

// UpdateProgress handles the progress update of an existing review.
func (h *ReviewController) UpdateProgress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	err := h.reviewService.UpdateReviewProgress(c.Request.Context(), c.Param("id"), userID, req.IsSolved, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Delete handles review deletion. Deletion is idempotent: a missing review
// still yields 204.
func (h *ReviewController) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func requireUserID(c *gin.Context) (string, bool) {
	userID := c.Param("userId")
	if strings.TrimSpace(userID) == "" {
		response.BadRequest(c, "Invalid user id")
		return "", false
	}
	return userID, true
}

// CreateReviewRequest defines the review registration payload.
type CreateReviewRequest struct {
	ProblemID   string `json:"problemId" binding:"required"`
	Title       string `json:"title" binding:"required,max=200"`
	ContestName string `json:"contestName" binding:"max=100"`
	Difficulty  int    `json:"difficulty" binding:"min=0,max=5000"`
}

// UpdateProgressRequest defines the progress update payload. Notes replace
// the stored value wholesale; an absent or null value clears them.
type UpdateProgressRequest struct {
	IsSolved bool   `json:"isSolved"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// ReviewResponse defines the review payload returned by the API.
type ReviewResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	ProblemID   string `json:"problemId"`
	Title       string `json:"title"`
	ContestName string `json:"contestName"`
	Difficulty  int    `json:"difficulty"`
	IsSolved    bool   `json:"isSolved"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"createdAt"`
}

func toReviewResponse(review *repository.Review) ReviewResponse {
	return ReviewResponse{
		ID:          review.ID,
		UserID:      review.UserID,
		ProblemID:   review.ProblemID,
		Title:       review.Title,
		ContestName: review.ContestName,
		Difficulty:  review.Difficulty,
		IsSolved:    review.IsSolved,
		Notes:       review.Notes,
		CreatedAt:   review.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
