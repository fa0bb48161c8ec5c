package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"study-match/internal/domain"
)

// GroupRepository is the membership collaborator: groups, member sets and
// course enrollment, read-mostly from the matching side.
type GroupRepository interface {
	Create(ctx context.Context, group domain.StudyGroup) error
	GetByID(ctx context.Context, groupID string) (domain.StudyGroup, error)
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
	ListGroupIDsOfUser(ctx context.Context, userID string) ([]string, error)
	ListActiveByCourses(ctx context.Context, courseIDs []string) ([]domain.StudyGroup, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	EnrolledCourseIDs(ctx context.Context, userID string) ([]string, error)
}

type PgGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupRepository(pool *pgxpool.Pool) *PgGroupRepository {
	return &PgGroupRepository{pool: pool}
}

const groupColumns = `
	g.id, g.course_id, g.name, g.description, g.visibility, g.status, g.capacity,
	(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count,
	g.creator_id, g.created_at
`

// Create stores the group and its creator membership in one transaction.
func (r *PgGroupRepository) Create(ctx context.Context, group domain.StudyGroup) error {
	const groupQuery = `
		INSERT INTO study_groups (id, course_id, name, description, visibility, status, capacity, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	const memberQuery = `
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, groupQuery,
			group.ID,
			group.CourseID,
			group.Name,
			group.Description,
			group.Visibility,
			group.Status,
			group.Capacity,
			group.CreatorID,
			group.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, memberQuery, group.ID, group.CreatorID, group.CreatedAt)
		return err
	})
}

func (r *PgGroupRepository) GetByID(ctx context.Context, groupID string) (domain.StudyGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM study_groups g WHERE g.id = $1`
	var g domain.StudyGroup
	err := r.pool.QueryRow(ctx, query, groupID).Scan(
		&g.ID,
		&g.CourseID,
		&g.Name,
		&g.Description,
		&g.Visibility,
		&g.Status,
		&g.Capacity,
		&g.MemberCount,
		&g.CreatorID,
		&g.CreatedAt,
	)
	return g, err
}

func (r *PgGroupRepository) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	const query = `
		SELECT user_id
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at
	`
	return r.scanIDs(ctx, query, groupID)
}

func (r *PgGroupRepository) ListGroupIDsOfUser(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT group_id
		FROM group_members
		WHERE user_id = $1
		ORDER BY joined_at
	`
	return r.scanIDs(ctx, query, userID)
}

func (r *PgGroupRepository) ListActiveByCourses(ctx context.Context, courseIDs []string) ([]domain.StudyGroup, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + groupColumns + `
		FROM study_groups g
		WHERE g.course_id = ANY($1) AND g.status = $2
		ORDER BY g.id
	`
	rows, err := r.pool.Query(ctx, query, courseIDs, domain.GroupActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.StudyGroup
	for rows.Next() {
		var g domain.StudyGroup
		if err := rows.Scan(
			&g.ID,
			&g.CourseID,
			&g.Name,
			&g.Description,
			&g.Visibility,
			&g.Status,
			&g.Capacity,
			&g.MemberCount,
			&g.CreatorID,
			&g.CreatedAt,
		); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *PgGroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(&exists)
	return exists, err
}

func (r *PgGroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	const query = `
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, groupID, userID)
	return err
}

func (r *PgGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	const query = `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, groupID, userID)
	return err
}

func (r *PgGroupRepository) EnrolledCourseIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT course_id
		FROM course_enrollments
		WHERE user_id = $1
		ORDER BY course_id
	`
	return r.scanIDs(ctx, query, userID)
}

func (r *PgGroupRepository) scanIDs(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
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
