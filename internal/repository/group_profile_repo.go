package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"study-match/internal/domain"
)

type GroupProfileRepository interface {
	Upsert(ctx context.Context, profile domain.GroupCharacteristicProfile) error
	GetByGroupID(ctx context.Context, groupID string) (domain.GroupCharacteristicProfile, error)
	Exists(ctx context.Context, groupID string) (bool, error)
}

type PgGroupProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupProfileRepository(pool *pgxpool.Pool) *PgGroupProfileRepository {
	return &PgGroupProfileRepository{pool: pool}
}

// Upsert replaces the whole aggregate row. Wholesale replacement is the
// concurrency contract: concurrent recalculations converge because the last
// writer stores a full recompute, never a delta.
func (r *PgGroupProfileRepository) Upsert(ctx context.Context, profile domain.GroupCharacteristicProfile) error {
	const query = `
		INSERT INTO group_profiles (group_id, average_roles, current_variance, member_count, last_updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id)
		DO UPDATE SET
			average_roles = EXCLUDED.average_roles,
			current_variance = EXCLUDED.current_variance,
			member_count = EXCLUDED.member_count,
			last_updated_at = EXCLUDED.last_updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		profile.GroupID,
		profile.AverageRoles.ToVector(),
		profile.CurrentVariance,
		profile.MemberCount,
		profile.LastUpdatedAt,
	)
	return err
}

func (r *PgGroupProfileRepository) GetByGroupID(ctx context.Context, groupID string) (domain.GroupCharacteristicProfile, error) {
	const query = `
		SELECT group_id, average_roles, current_variance, member_count, last_updated_at
		FROM group_profiles
		WHERE group_id = $1
	`
	var (
		profile domain.GroupCharacteristicProfile
		average pgvector.Vector
	)
	err := r.pool.QueryRow(ctx, query, groupID).Scan(
		&profile.GroupID,
		&average,
		&profile.CurrentVariance,
		&profile.MemberCount,
		&profile.LastUpdatedAt,
	)
	if err != nil {
		return domain.GroupCharacteristicProfile{}, err
	}
	profile.AverageRoles = domain.RoleVectorFromVector(average)
	return profile, nil
}

func (r *PgGroupProfileRepository) Exists(ctx context.Context, groupID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM group_profiles WHERE group_id = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, groupID).Scan(&exists)
	return exists, err
}
