package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"study-match/internal/domain"
)

// GroupEventRepository is the event collaborator: read-only calendar
// entries for the feed.
type GroupEventRepository interface {
	ListUpcomingForGroups(ctx context.Context, groupIDs []string, from, until time.Time) ([]domain.GroupEvent, error)
}

type PgGroupEventRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupEventRepository(pool *pgxpool.Pool) *PgGroupEventRepository {
	return &PgGroupEventRepository{pool: pool}
}

func (r *PgGroupEventRepository) ListUpcomingForGroups(ctx context.Context, groupIDs []string, from, until time.Time) ([]domain.GroupEvent, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT id, group_id, title, starts_at, ends_at, created_at
		FROM group_events
		WHERE group_id = ANY($1) AND starts_at > $2 AND starts_at <= $3
		ORDER BY starts_at
	`
	rows, err := r.pool.Query(ctx, query, groupIDs, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.GroupEvent
	for rows.Next() {
		var e domain.GroupEvent
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Title, &e.StartsAt, &e.EndsAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
