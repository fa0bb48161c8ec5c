package domain

import "time"

// EventType names a domain event consumed by the aggregate recomputation
// handlers.
type EventType string

const (
	EventGroupCreated   EventType = "group.created"
	EventMemberJoined   EventType = "group.member_joined"
	EventMemberLeft     EventType = "group.member_left"
	EventProfileUpdated EventType = "profile.updated"
)

// Event is the base interface for domain events published on the bus.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
}

// GroupCreatedEvent fires after a group row is committed.
type GroupCreatedEvent struct {
	GroupID   string
	CreatorID string
	At        time.Time
}

func (e GroupCreatedEvent) EventType() EventType  { return EventGroupCreated }
func (e GroupCreatedEvent) OccurredAt() time.Time { return e.At }

// MemberJoinedEvent fires after a membership row is committed.
type MemberJoinedEvent struct {
	GroupID string
	UserID  string
	At      time.Time
}

func (e MemberJoinedEvent) EventType() EventType  { return EventMemberJoined }
func (e MemberJoinedEvent) OccurredAt() time.Time { return e.At }

// MemberLeftEvent fires after a membership row is removed.
type MemberLeftEvent struct {
	GroupID string
	UserID  string
	At      time.Time
}

func (e MemberLeftEvent) EventType() EventType  { return EventMemberLeft }
func (e MemberLeftEvent) OccurredAt() time.Time { return e.At }

// ProfileUpdatedEvent fires after a quiz submit or skip changes a user's
// characteristic profile.
type ProfileUpdatedEvent struct {
	UserID string
	At     time.Time
}

func (e ProfileUpdatedEvent) EventType() EventType  { return EventProfileUpdated }
func (e ProfileUpdatedEvent) OccurredAt() time.Time { return e.At }
