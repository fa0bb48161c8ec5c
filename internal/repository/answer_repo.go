package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"study-match/internal/domain"
)

type AnswerRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.QuizAnswer, error)
	InsertBatch(ctx context.Context, answers []domain.QuizAnswer) error
}

type PgAnswerRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnswerRepository(pool *pgxpool.Pool) *PgAnswerRepository {
	return &PgAnswerRepository{pool: pool}
}

func (r *PgAnswerRepository) ListByUser(ctx context.Context, userID string) ([]domain.QuizAnswer, error) {
	const query = `
		SELECT id, user_id, question_id, option_id, created_at
		FROM quiz_answers
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.QuizAnswer
	for rows.Next() {
		var a domain.QuizAnswer
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.OptionID, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// InsertBatch writes all answers of one submission in a single transaction
// so a partially rejected batch leaves nothing behind.
func (r *PgAnswerRepository) InsertBatch(ctx context.Context, answers []domain.QuizAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	const query = `
		INSERT INTO quiz_answers (id, user_id, question_id, option_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, a := range answers {
			if _, err := tx.Exec(ctx, query, a.ID, a.UserID, a.QuestionID, a.OptionID, a.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}
