package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"study-match/internal/domain"
)

// SessionRepository is the session-booking collaborator: read-only session
// summaries plus registration lookups.
type SessionRepository interface {
	ListRegisteredUpcoming(ctx context.Context, userID string, from time.Time) ([]domain.StudySession, error)
	ListScheduledWithin(ctx context.Context, from, until time.Time) ([]domain.StudySession, error)
	RegisteredSessionIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

const sessionColumns = `
	s.id, s.course_id, s.creator_id, s.title, s.status, s.capacity,
	(SELECT COUNT(*) FROM session_registrations r WHERE r.session_id = s.id) AS registered_count,
	s.tags, s.starts_at, s.ends_at, s.created_at
`

func (r *PgSessionRepository) ListRegisteredUpcoming(ctx context.Context, userID string, from time.Time) ([]domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions s
		JOIN session_registrations reg ON reg.session_id = s.id
		WHERE reg.user_id = $1 AND s.status = $2 AND s.starts_at > $3
		ORDER BY s.starts_at
	`
	return r.querySessions(ctx, query, userID, domain.SessionScheduled, from)
}

func (r *PgSessionRepository) ListScheduledWithin(ctx context.Context, from, until time.Time) ([]domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions s
		WHERE s.status = $1 AND s.starts_at > $2 AND s.starts_at <= $3
		ORDER BY s.starts_at
	`
	return r.querySessions(ctx, query, domain.SessionScheduled, from, until)
}

func (r *PgSessionRepository) RegisteredSessionIDs(ctx context.Context, userID string) (map[string]bool, error) {
	const query = `
		SELECT session_id
		FROM session_registrations
		WHERE user_id = $1
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *PgSessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]domain.StudySession, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.StudySession
	for rows.Next() {
		var s domain.StudySession
		if err := rows.Scan(
			&s.ID,
			&s.CourseID,
			&s.CreatorID,
			&s.Title,
			&s.Status,
			&s.Capacity,
			&s.RegisteredCount,
			&s.Tags,
			&s.StartsAt,
			&s.EndsAt,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
