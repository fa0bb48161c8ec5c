package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"study-match/internal/domain"
)

type QuestionRepository interface {
	ListActive(ctx context.Context) ([]domain.QuizQuestion, error)
}

type PgQuestionRepository struct {
	pool *pgxpool.Pool
}

func NewPgQuestionRepository(pool *pgxpool.Pool) *PgQuestionRepository {
	return &PgQuestionRepository{pool: pool}
}

// ListActive returns every active question with its options, ordered by
// position. Option role weights are stored as a jsonb map.
func (r *PgQuestionRepository) ListActive(ctx context.Context) ([]domain.QuizQuestion, error) {
	const questionQuery = `
		SELECT id, text, position, active
		FROM quiz_questions
		WHERE active = TRUE
		ORDER BY position, id
	`
	rows, err := r.pool.Query(ctx, questionQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.QuizQuestion
	index := make(map[string]int)
	for rows.Next() {
		var q domain.QuizQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.Position, &q.Active); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	const optionQuery = `
		SELECT o.id, o.question_id, o.text, o.weights
		FROM quiz_options o
		JOIN quiz_questions q ON q.id = o.question_id
		WHERE q.active = TRUE
		ORDER BY o.question_id, o.id
	`
	optRows, err := r.pool.Query(ctx, optionQuery)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var opt domain.QuizOption
		var weightsRaw []byte
		if err := optRows.Scan(&opt.ID, &opt.QuestionID, &opt.Text, &weightsRaw); err != nil {
			return nil, err
		}
		weights := make(map[domain.RoleType]float64)
		if len(weightsRaw) > 0 {
			if err := json.Unmarshal(weightsRaw, &weights); err != nil {
				return nil, err
			}
		}
		opt.Weights = weights

		if i, ok := index[opt.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, opt)
		}
	}
	if err := optRows.Err(); err != nil {
		return nil, err
	}

	return questions, nil
}
