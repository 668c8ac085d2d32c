package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"revtrack/internal/common/cache"
	"revtrack/internal/common/http/middleware"
	"revtrack/internal/review/controller"
	"revtrack/internal/review/repository"
	"revtrack/internal/review/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type reviewBody struct {
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

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("init cache failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	repo := repository.NewDocumentReviewRepository(store)
	reviewController := controller.NewReviewController(service.NewReviewService(repo))

	router := gin.New()
	router.Use(middleware.TraceContextMiddleware())
	reviews := router.Group("/api/v1/users/:userId/reviews")
	{
		reviews.POST("", reviewController.Create)
		reviews.GET("", reviewController.List)
		reviews.GET("/:id", reviewController.GetOne)
		reviews.PUT("/:id/progress", reviewController.UpdateProgress)
		reviews.DELETE("/:id", reviewController.Delete)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createReview(t *testing.T, router *gin.Engine, userID string, body map[string]interface{}) reviewBody {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/users/%s/reviews", userID), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var created reviewBody
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response failed: %v", err)
	}
	return created
}

func TestReviewLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users/user-1/reviews", map[string]interface{}{
		"problemId":   "abc300_a",
		"title":       "Linear Search",
		"contestName": "ABC300",
		"difficulty":  800,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created reviewBody
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response failed: %v", err)
	}
	if created.ID == "" || created.UserID != "user-1" || created.ProblemID != "abc300_a" {
		t.Fatalf("unexpected created body: %+v", created)
	}
	if created.IsSolved || created.Notes != "" {
		t.Errorf("new review must start unsolved: %+v", created)
	}
	wantLocation := fmt.Sprintf("/api/v1/users/user-1/reviews/%s", created.ID)
	if got := rec.Header().Get("Location"); got != wantLocation {
		t.Errorf("Location header mismatch: got %q want %q", got, wantLocation)
	}

	// Read it back.
	rec = doJSON(t, router, http.MethodGet, wantLocation, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Mark solved with notes.
	rec = doJSON(t, router, http.MethodPut, wantLocation+"/progress", map[string]interface{}{
		"isSolved": true,
		"notes":    "binary search on answer",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, wantLocation, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var updated reviewBody
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode get response failed: %v", err)
	}
	if !updated.IsSolved || updated.Notes != "binary search on answer" {
		t.Errorf("progress not reflected: %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("createdAt changed across update: %q -> %q", created.CreatedAt, updated.CreatedAt)
	}

	// Delete, then the review is gone.
	rec = doJSON(t, router, http.MethodDelete, wantLocation, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, wantLocation, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}

	// Deleting again is still a 204.
	rec = doJSON(t, router, http.MethodDelete, wantLocation, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on repeated delete, got %d", rec.Code)
	}
}

func TestCreateReviewRejectsBadPayloads(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing problem id", map[string]interface{}{
			"title": "T", "contestName": "ABC300", "difficulty": 800,
		}},
		{"missing title", map[string]interface{}{
			"problemId": "abc300_a", "contestName": "ABC300", "difficulty": 800,
		}},
		{"blank contest name", map[string]interface{}{
			"problemId": "abc300_a", "title": "T", "contestName": "   ", "difficulty": 800,
		}},
		{"negative difficulty", map[string]interface{}{
			"problemId": "abc300_a", "title": "T", "contestName": "ABC300", "difficulty": -1,
		}},
		{"difficulty above ceiling", map[string]interface{}{
			"problemId": "abc300_a", "title": "T", "contestName": "ABC300", "difficulty": 5001,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/users/user-1/reviews", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body failed: %v", err)
			}
			if body.Code == 0 || body.Message == "" {
				t.Errorf("error envelope incomplete: %+v", body)
			}
		})
	}

	// Nothing was persisted.
	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/user-1/reviews", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
		t.Errorf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateProgressUnknownReview(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/users/user-1/reviews/no-such-id/progress", map[string]interface{}{
		"isSolved": true,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}

	// The failed update must not have created the review.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/users/user-1/reviews/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListReviewsNewestFirst(t *testing.T) {
	router := newTestRouter(t)

	first := createReview(t, router, "user-1", map[string]interface{}{
		"problemId": "abc300_a", "title": "A", "contestName": "ABC300", "difficulty": 100,
	})
	second := createReview(t, router, "user-1", map[string]interface{}{
		"problemId": "abc300_b", "title": "B", "contestName": "ABC300", "difficulty": 200,
	})
	// A different user's review must not leak into the listing.
	createReview(t, router, "user-2", map[string]interface{}{
		"problemId": "abc300_c", "title": "C", "contestName": "ABC300", "difficulty": 300,
	})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/user-1/reviews", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []reviewBody
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(listed))
	}
	if listed[0].ID != second.ID || listed[1].ID != first.ID {
		t.Errorf("expected newest first: got [%s %s]", listed[0].ID, listed[1].ID)
	}
}

func TestGetReviewOfOtherUser(t *testing.T) {
	router := newTestRouter(t)

	created := createReview(t, router, "user-1", map[string]interface{}{
		"problemId": "abc300_a", "title": "A", "contestName": "ABC300", "difficulty": 100,
	})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/user-2/reviews/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign user, got %d", rec.Code)
	}
}

func TestBlankUserID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/%20/reviews", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank user id, got %d", rec.Code)
	}
}

func TestErrorEnvelopeCarriesTraceID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/reviews/no-such-id", nil)
	req.Header.Set("X-Trace-Id", "trace-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body failed: %v", err)
	}
	if body.TraceID != "trace-123" {
		t.Errorf("expected trace id propagated, got %q", body.TraceID)
	}
}
