package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizConfigRepository exposes the admin-configured question subset: an
// ordered list of question ids, empty when no subset is configured.
type QuizConfigRepository interface {
	SelectedQuestionIDs(ctx context.Context) ([]string, error)
}

type PgQuizConfigRepository struct {
	pool *pgxpool.Pool
}

func NewPgQuizConfigRepository(pool *pgxpool.Pool) *PgQuizConfigRepository {
	return &PgQuizConfigRepository{pool: pool}
}

func (r *PgQuizConfigRepository) SelectedQuestionIDs(ctx context.Context) ([]string, error) {
	const query = `
		SELECT question_id
		FROM quiz_config
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
