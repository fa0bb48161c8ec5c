package domain

import "time"

// GroupVisibility tags who can discover a group.
type GroupVisibility string

const (
	GroupPublic  GroupVisibility = "PUBLIC"
	GroupPrivate GroupVisibility = "PRIVATE"
)

// GroupStatus marks structural eligibility for matching.
type GroupStatus string

const (
	GroupActive   GroupStatus = "ACTIVE"
	GroupArchived GroupStatus = "ARCHIVED"
)

// StudyGroup is the membership collaborator's view of a group: enough to
// filter and score candidates, nothing more.
type StudyGroup struct {
	ID          string          `json:"id"`
	CourseID    string          `json:"course_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Visibility  GroupVisibility `json:"visibility"`
	Status      GroupStatus     `json:"status"`
	Capacity    int             `json:"capacity"`
	MemberCount int             `json:"member_count"`
	CreatorID   string          `json:"creator_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// HasOpenCapacity reports whether the group can take another member.
// Capacity 0 means unbounded.
func (g StudyGroup) HasOpenCapacity() bool {
	return g.Capacity <= 0 || g.MemberCount < g.Capacity
}

// GroupEvent is a calendar entry owned by a group (read-only summary from
// the event collaborator).
type GroupEvent struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}
