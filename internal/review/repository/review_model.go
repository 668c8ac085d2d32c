package repository

import (
	"strings"
	"time"

	pkgerrors "revtrack/pkg/errors"

	"github.com/google/uuid"
)

// Review represents one reviewable attempt at a competitive-programming
// problem. UserID acts as the partition key for every storage backend.
type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ProblemID   string    `json:"problemId"`
	Title       string    `json:"title"`
	ContestName string    `json:"contestName"`
	Difficulty  int       `json:"difficulty"`
	IsSolved    bool      `json:"isSolved"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewReview builds a review with a fresh id and creation time.
// UserID, ProblemID, Title and ContestName must not be blank; these fields are
// fixed for the lifetime of the entity.
func NewReview(userID, problemID, title, contestName string, difficulty int) (*Review, error) {
	if err := requireNonBlank("userId", userID); err != nil {
		return nil, err
	}
	if err := requireNonBlank("problemId", problemID); err != nil {
		return nil, err
	}
	if err := requireNonBlank("title", title); err != nil {
		return nil, err
	}
	if err := requireNonBlank("contestName", contestName); err != nil {
		return nil, err
	}

	return &Review{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProblemID:   problemID,
		Title:       title,
		ContestName: contestName,
		Difficulty:  difficulty,
		IsSolved:    false,
		Notes:       "",
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ApplyProgress replaces the solved flag and notes wholesale. No other field
// can be mutated after construction.
func (r *Review) ApplyProgress(isSolved bool, notes string) {
	r.IsSolved = isSolved
	r.Notes = notes
}

func requireNonBlank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return pkgerrors.ValidationError(field, "must not be blank")
	}
	return nil
}
