package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"revtrack/internal/common/cache"
	"revtrack/internal/common/db"
)

// Expected schema:
//
//	CREATE TABLE reviews (
//	    id           VARCHAR(36)  PRIMARY KEY,
//	    user_id      VARCHAR(128) NOT NULL,
//	    problem_id   VARCHAR(128) NOT NULL,
//	    title        VARCHAR(200) NOT NULL,
//	    contest_name VARCHAR(100) NOT NULL,
//	    difficulty   INT          NOT NULL,
//	    is_solved    BOOLEAN      NOT NULL,
//	    notes        VARCHAR(2000) NOT NULL,
//	    created_at   TIMESTAMP(6) NOT NULL,
//	    INDEX idx_reviews_user (user_id, created_at)
//	);

const (
	defaultReviewTTL      = 30 * time.Minute
	defaultReviewEmptyTTL = 5 * time.Minute
	reviewCacheKeyPrefix  = "review:one:"
)

// Dialect selects the SQL placeholder style for the configured driver.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// SQLReviewRepository implements ReviewRepository on a relational backend
// through the db.Database abstraction. The same hand-written statements run
// on MySQL and PostgreSQL; only the placeholder style differs.
type SQLReviewRepository struct {
	db       db.Database
	dialect  Dialect
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewSQLReviewRepository creates a repository without read caching.
func NewSQLReviewRepository(database db.Database, dialect Dialect) *SQLReviewRepository {
	return NewSQLReviewRepositoryWithCache(database, dialect, nil, defaultReviewTTL, defaultReviewEmptyTTL)
}

// NewSQLReviewRepositoryWithCache creates a repository that serves point reads
// through a cache-aside layer. A nil cache disables caching entirely.
func NewSQLReviewRepositoryWithCache(database db.Database, dialect Dialect, cacheClient cache.Cache, ttl, emptyTTL time.Duration) *SQLReviewRepository {
	if dialect == "" {
		dialect = DialectMySQL
	}
	if ttl <= 0 {
		ttl = defaultReviewTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultReviewEmptyTTL
	}
	return &SQLReviewRepository{
		db:       database,
		dialect:  dialect,
		cache:    cacheClient,
		ttl:      ttl,
		emptyTTL: emptyTTL,
	}
}

func (r *SQLReviewRepository) Add(ctx context.Context, review *Review) error {
	if review == nil {
		return fmt.Errorf("review is nil")
	}

	if err := r.insert(ctx, nil, review); err != nil {
		return err
	}
	r.invalidate(ctx, review.ID, review.UserID)
	return nil
}

func (r *SQLReviewRepository) GetByID(ctx context.Context, id, userID string) (*Review, error) {
	if r.cache == nil {
		return r.getByIDFromDB(ctx, id, userID)
	}

	review, err := cache.GetWithCached(
		ctx,
		r.cache,
		reviewCacheKey(id, userID),
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(rv Review) bool { return rv.ID == "" },
		marshalReview,
		unmarshalReview,
		func(ctx context.Context) (Review, error) {
			found, err := r.getByIDFromDB(ctx, id, userID)
			if err != nil {
				if err == ErrReviewNotFound {
					return Review{}, nil
				}
				return Review{}, err
			}
			return *found, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if review.ID == "" {
		return nil, ErrReviewNotFound
	}
	return &review, nil
}

func (r *SQLReviewRepository) GetAllByUserID(ctx context.Context, userID string) ([]*Review, error) {
	query := r.rebind(`
		SELECT id, user_id, problem_id, title, contest_name, difficulty, is_solved, notes, created_at
		FROM reviews
		WHERE user_id = ?
		ORDER BY created_at DESC`)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := make([]*Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *SQLReviewRepository) Update(ctx context.Context, review *Review) error {
	if review == nil {
		return fmt.Errorf("review is nil")
	}

	// Upsert as UPDATE-then-INSERT to stay portable across placeholder
	// dialects. The transaction keeps concurrent upserts from double-inserting.
	err := r.db.Transaction(ctx, func(tx db.Transaction) error {
		query := r.rebind(`
			UPDATE reviews
			SET problem_id = ?, title = ?, contest_name = ?, difficulty = ?, is_solved = ?, notes = ?, created_at = ?
			WHERE id = ? AND user_id = ?`)
		result, err := tx.Exec(ctx, query,
			review.ProblemID,
			review.Title,
			review.ContestName,
			review.Difficulty,
			review.IsSolved,
			review.Notes,
			review.CreatedAt,
			review.ID,
			review.UserID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return r.insert(ctx, tx, review)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, review.ID, review.UserID)
	return nil
}

func (r *SQLReviewRepository) Delete(ctx context.Context, id, userID string) error {
	query := r.rebind(`DELETE FROM reviews WHERE id = ? AND user_id = ?`)
	if _, err := r.db.Exec(ctx, query, id, userID); err != nil {
		return err
	}
	// Zero rows affected means the record was already gone; that is success.
	r.invalidate(ctx, id, userID)
	return nil
}

func (r *SQLReviewRepository) getByIDFromDB(ctx context.Context, id, userID string) (*Review, error) {
	query := r.rebind(`
		SELECT id, user_id, problem_id, title, contest_name, difficulty, is_solved, notes, created_at
		FROM reviews
		WHERE id = ? AND user_id = ?`)

	row := r.db.QueryRow(ctx, query, id, userID)
	review, err := scanReview(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (r *SQLReviewRepository) insert(ctx context.Context, tx db.Transaction, review *Review) error {
	query := r.rebind(`
		INSERT INTO reviews (id, user_id, problem_id, title, contest_name, difficulty, is_solved, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := db.GetQuerier(r.db, tx).Exec(ctx, query,
		review.ID,
		review.UserID,
		review.ProblemID,
		review.Title,
		review.ContestName,
		review.Difficulty,
		review.IsSolved,
		review.Notes,
		review.CreatedAt,
	)
	return err
}

func (r *SQLReviewRepository) invalidate(ctx context.Context, id, userID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Del(ctx, reviewCacheKey(id, userID))
}

// rebind converts `?` placeholders to `$n` for PostgreSQL.
func (r *SQLReviewRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var builder strings.Builder
	builder.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			builder.WriteByte('$')
			builder.WriteString(strconv.Itoa(n))
			continue
		}
		builder.WriteRune(ch)
	}
	return builder.String()
}

func reviewCacheKey(id, userID string) string {
	return reviewCacheKeyPrefix + userID + ":" + id
}

func marshalReview(review Review) string {
	payload, err := json.Marshal(review)
	if err != nil {
		return ""
	}
	return string(payload)
}

func unmarshalReview(data string) (Review, error) {
	if data == "" {
		return Review{}, nil
	}
	var review Review
	if err := json.Unmarshal([]byte(data), &review); err != nil {
		return Review{}, err
	}
	return review, nil
}

func scanReview(scanner db.Scanner) (*Review, error) {
	var review Review
	err := scanner.Scan(
		&review.ID,
		&review.UserID,
		&review.ProblemID,
		&review.Title,
		&review.ContestName,
		&review.Difficulty,
		&review.IsSolved,
		&review.Notes,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}
