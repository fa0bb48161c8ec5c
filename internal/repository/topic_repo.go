package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TopicRepository is the topic collaborator: the interest topics a student
// selected for session recommendations.
type TopicRepository interface {
	ListUserTopics(ctx context.Context, userID string) ([]string, error)
}

type PgTopicRepository struct {
	pool *pgxpool.Pool
}

func NewPgTopicRepository(pool *pgxpool.Pool) *PgTopicRepository {
	return &PgTopicRepository{pool: pool}
}

func (r *PgTopicRepository) ListUserTopics(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT topic_name
		FROM user_topics
		WHERE user_id = $1
		ORDER BY topic_name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		topics = append(topics, name)
	}
	return topics, rows.Err()
}
