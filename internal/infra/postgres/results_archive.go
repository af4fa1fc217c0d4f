package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-client/internal/domain"
)

// ResultsArchive stores fetched quiz results in the quiz_results table.
type ResultsArchive struct {
	pool *pgxpool.Pool
}

func NewResultsArchive(pool *pgxpool.Pool) *ResultsArchive {
	return &ResultsArchive{pool: pool}
}

// Save upserts by quiz id and refreshes archived_at.
func (a *ResultsArchive) Save(ctx context.Context, results domain.Results) error {
	review := results.Review
	if review == nil {
		review = []domain.ReviewItem{}
	}
	raw, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO quiz_results (quiz_id, score, total_questions, percentage, category_name, completed_at, review, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, now())
		ON CONFLICT (quiz_id) DO UPDATE SET
			score = EXCLUDED.score,
			total_questions = EXCLUDED.total_questions,
			percentage = EXCLUDED.percentage,
			category_name = EXCLUDED.category_name,
			completed_at = EXCLUDED.completed_at,
			review = EXCLUDED.review,
			archived_at = EXCLUDED.archived_at`,
		results.QuizID, results.Score, results.TotalQuestions, results.Percentage,
		results.Category, results.CompletedAt, string(raw),
	)
	if err != nil {
		return fmt.Errorf("archive results: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (a *ResultsArchive) List(ctx context.Context, limit int) ([]domain.ArchivedResults, error) {
	query := `
		SELECT quiz_id, score, total_questions, percentage, category_name, completed_at, review, archived_at
		FROM quiz_results
		ORDER BY archived_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []domain.ArchivedResults
	for rows.Next() {
		var (
			rec    domain.ArchivedResults
			review []byte
		)
		if err := rows.Scan(
			&rec.Results.QuizID, &rec.Results.Score, &rec.Results.TotalQuestions, &rec.Results.Percentage,
			&rec.Results.Category, &rec.Results.CompletedAt, &review, &rec.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(review, &rec.Results.Review); err != nil {
			return nil, fmt.Errorf("unmarshal review: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
