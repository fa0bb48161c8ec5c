package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"study-match/internal/domain"
)

type ProfileRepository interface {
	Upsert(ctx context.Context, profile domain.CharacteristicProfile) error
	GetByUserID(ctx context.Context, userID string) (domain.CharacteristicProfile, error)
}

type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

// Upsert replaces the full profile row. The role vector is stored as a
// vector(7) column in the AllRoleTypes order.
func (r *PgProfileRepository) Upsert(ctx context.Context, profile domain.CharacteristicProfile) error {
	const query = `
		INSERT INTO characteristic_profiles (id, user_id, roles, quiz_status, total_questions, answered_questions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			roles = EXCLUDED.roles,
			quiz_status = EXCLUDED.quiz_status,
			total_questions = EXCLUDED.total_questions,
			answered_questions = EXCLUDED.answered_questions,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Roles.ToVector(),
		profile.QuizStatus,
		profile.TotalQuestions,
		profile.AnsweredQuestions,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (r *PgProfileRepository) GetByUserID(ctx context.Context, userID string) (domain.CharacteristicProfile, error) {
	const query = `
		SELECT id, user_id, roles, quiz_status, total_questions, answered_questions, created_at, updated_at
		FROM characteristic_profiles
		WHERE user_id = $1
	`
	var (
		profile domain.CharacteristicProfile
		roles   pgvector.Vector
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&roles,
		&profile.QuizStatus,
		&profile.TotalQuestions,
		&profile.AnsweredQuestions,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return domain.CharacteristicProfile{}, err
	}
	profile.Roles = domain.RoleVectorFromVector(roles)
	return profile, nil
}
